package services

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/events"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
)

type rosterFixture struct {
	service   RosterService
	repo      *MockRepository
	cache     *recordingCache
	publisher *events.MockEventPublisher
}

func newRosterFixture(t *testing.T) *rosterFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := newMockRepository()
	cacheSvc := &recordingCache{}
	publisher := events.NewMockEventPublisher(logger)

	return &rosterFixture{
		service:   NewRosterService(repo, cacheSvc, publisher, logger, "test-secret"),
		repo:      repo,
		cache:     cacheSvc,
		publisher: publisher,
	}
}

func rosterStudent(t *testing.T, password string) *models.Student {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.Student{
		Login:        "e.nabil",
		LastName:     "Ennaji",
		FirstName:    "Nabil",
		PasswordHash: string(hash),
		Department:   "Génie Electrique",
		Track:        "IDMS",
		Year:         "Master",
		Role:         models.RoleStudent,
	}
}

func TestRosterService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials issue a verifiable token", func(t *testing.T) {
		f := newRosterFixture(t)
		f.repo.student.On("GetByLogin", mock.Anything, "e.nabil").Return(rosterStudent(t, "motdepasse"), nil)

		response, err := f.service.Login(ctx, "e.nabil", "motdepasse")
		require.NoError(t, err)
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, "e.nabil", response.User.Login)
		assert.Equal(t, "IDMS", response.User.Track)

		identity, err := f.service.VerifyToken(response.Token)
		require.NoError(t, err)
		assert.Equal(t, response.User, identity)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newRosterFixture(t)
		f.repo.student.On("GetByLogin", mock.Anything, "e.nabil").Return(rosterStudent(t, "motdepasse"), nil)

		_, err := f.service.Login(ctx, "e.nabil", "autre")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown login gets the same refusal", func(t *testing.T) {
		f := newRosterFixture(t)
		f.repo.student.On("GetByLogin", mock.Anything, "inconnu").Return(nil, gorm.ErrRecordNotFound)

		_, err := f.service.Login(ctx, "inconnu", "motdepasse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRosterService_VerifyToken(t *testing.T) {
	f := newRosterFixture(t)

	t.Run("garbage token", func(t *testing.T) {
		_, err := f.service.VerifyToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := newRosterFixture(t)
		otherService := NewRosterService(other.repo, other.cache, other.publisher,
			slog.New(slog.NewTextHandler(os.Stdout, nil)), "another-secret")

		other.repo.student.On("GetByLogin", mock.Anything, "e.nabil").Return(rosterStudent(t, "motdepasse"), nil)
		response, err := otherService.Login(context.Background(), "e.nabil", "motdepasse")
		require.NoError(t, err)

		_, err = f.service.VerifyToken(response.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRosterService_ImportStudents(t *testing.T) {
	ctx := context.Background()

	const csvSheet = `nom,prenom,login,departement,filiere,annee,email
Ennaji,Nabil,e.nabil,Génie Electrique,IDMS,Master,nabil@ensam.ma
Karimi,Sara,k.sara,Génie Electrique,TI,Master,
`

	t.Run("imports csv rows and issues credentials", func(t *testing.T) {
		f := newRosterFixture(t)

		var stored []*models.Student
		f.repo.student.On("Upsert", mock.Anything, mock.AnythingOfType("*models.Student")).
			Run(func(args mock.Arguments) {
				stored = append(stored, args.Get(1).(*models.Student))
			}).Return(nil)

		result, err := f.service.ImportStudents(ctx, strings.NewReader(csvSheet), "promo2026.csv")
		require.NoError(t, err)
		assert.Equal(t, 2, result.TotalRows)
		assert.Equal(t, 2, result.SuccessCount)
		assert.Equal(t, 0, result.ErrorCount)

		require.Len(t, stored, 2)
		assert.Equal(t, "e.nabil", stored[0].Login)
		assert.Equal(t, models.RoleStudent, stored[0].Role)
		require.NotNil(t, stored[0].Email)
		assert.Equal(t, "nabil@ensam.ma", *stored[0].Email)
		assert.Nil(t, stored[1].Email)

		// Cached subject lists predate the new programme rows.
		assert.Contains(t, f.cache.deletedPatterns, "subjects:*")

		// The stored hash must verify against the issued password.
		published := f.publisher.GetPublishedEvents()
		require.Len(t, published, 2)
		for i, event := range published {
			assert.Equal(t, events.EventCredentialsIssued, event.Type)
			data, ok := event.Data.(events.CredentialsIssuedEvent)
			require.True(t, ok)
			assert.NoError(t, bcrypt.CompareHashAndPassword(
				[]byte(stored[i].PasswordHash), []byte(data.Password)))
		}
	})

	t.Run("rows with missing fields are rejected individually", func(t *testing.T) {
		f := newRosterFixture(t)
		f.repo.student.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		sheet := `nom,prenom,login,departement,filiere,annee
Ennaji,Nabil,e.nabil,Génie Electrique,IDMS,Master
,Sara,,Génie Electrique,TI,Master
`
		result, err := f.service.ImportStudents(ctx, strings.NewReader(sheet), "promo.csv")
		require.NoError(t, err)
		assert.Equal(t, 1, result.SuccessCount)
		assert.Equal(t, 1, result.ErrorCount)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, 3, result.Errors[0].Row)
	})

	t.Run("missing required column aborts the import", func(t *testing.T) {
		f := newRosterFixture(t)

		sheet := `nom,prenom,departement,filiere,annee
Ennaji,Nabil,Génie Electrique,IDMS,Master
`
		_, err := f.service.ImportStudents(ctx, strings.NewReader(sheet), "promo.csv")
		assert.ErrorIs(t, err, ErrValidationFailed)
		f.repo.student.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		assert.Empty(t, f.cache.deletedPatterns)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		f := newRosterFixture(t)
		_, err := f.service.ImportStudents(ctx, strings.NewReader("x"), "promo.pdf")
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("explicit password column is honored", func(t *testing.T) {
		f := newRosterFixture(t)

		var stored *models.Student
		f.repo.student.On("Upsert", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				stored = args.Get(1).(*models.Student)
			}).Return(nil)

		sheet := `nom,prenom,login,departement,filiere,annee,password
Ennaji,Nabil,e.nabil,Génie Electrique,IDMS,Master,choisi123
`
		result, err := f.service.ImportStudents(ctx, strings.NewReader(sheet), "promo.csv")
		require.NoError(t, err)
		assert.Equal(t, 1, result.SuccessCount)
		require.NotNil(t, stored)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("choisi123")))
	})
}
