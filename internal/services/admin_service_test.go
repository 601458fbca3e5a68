package services

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/cache"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
)

func newAdminFixture(t *testing.T) (AdminService, *MockRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := newMockRepository()
	service := NewAdminService(repo, testCurriculum(), cache.NoopCache{}, logger)
	return service, repo
}

func adminRosterRows() []*models.Student {
	return []*models.Student{
		{Login: "a.karim", LastName: "Alami", FirstName: "Karim", Department: "Génie Electrique", Track: "IDMS", Year: "Master", Role: models.RoleStudent},
		{Login: "b.sara", LastName: "Bennani", FirstName: "Sara", Department: "Génie Electrique", Track: "IDMS", Year: "Master", Role: models.RoleStudent},
		{Login: "admin", LastName: "Admin", FirstName: "Portal", Role: models.RoleAdmin},
	}
}

func TestAdminService_Dashboard(t *testing.T) {
	ctx := context.Background()
	service, repo := newAdminFixture(t)

	completed := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	repo.student.On("List", mock.Anything).Return(adminRosterRows(), nil)
	repo.attempt.On("Count", mock.Anything).Return(int64(3), nil)
	repo.attempt.On("GetByStudent", mock.Anything, "a.karim").Return([]*models.AttemptRecord{
		{StudentLogin: "a.karim", Subject: testSubject, CompletedAt: completed, Score: 16, Total: 20, Grade: 16},
	}, nil)
	repo.attempt.On("GetByStudent", mock.Anything, "b.sara").Return([]*models.AttemptRecord{
		{StudentLogin: "b.sara", Subject: testSubject, CompletedAt: completed, Score: 10, Total: 20, Grade: 10},
		{StudentLogin: "b.sara", Subject: testSmallSubject, CompletedAt: completed, Score: 7, Total: 12, Grade: 11.67},
	}, nil)

	dashboard, err := service.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, dashboard.TotalStudents)
	assert.Equal(t, int64(3), dashboard.TotalExams)

	require.Len(t, dashboard.Students, 2)
	karim := dashboard.Students[0]
	assert.Equal(t, "a.karim", karim.Login)
	assert.Equal(t, 1, karim.AttemptedCount)
	assert.Equal(t, 2, karim.TotalExams)
	assert.Equal(t, 50, karim.ProgressionPct)

	sara := dashboard.Students[1]
	assert.Equal(t, 100, sara.ProgressionPct)
	require.Len(t, sara.Exams, 2)
	assert.True(t, sara.Exams[0].Attempted)
	require.NotNil(t, sara.Exams[0].Grade)
	assert.Equal(t, 10.0, *sara.Exams[0].Grade)

	track := dashboard.ByTrack["IDMS - Master"]
	assert.Equal(t, 4, track.Total)
	assert.Equal(t, 3, track.Attempted)

	proto := dashboard.BySubject[testSubject]
	assert.Equal(t, 2, proto.Total)
	assert.Equal(t, 2, proto.Attempted)
	require.NotNil(t, proto.MeanGrade)
	assert.Equal(t, 13.0, *proto.MeanGrade)

	additive := dashboard.BySubject[testSmallSubject]
	assert.Equal(t, 1, additive.Attempted)
	require.NotNil(t, additive.MeanGrade)
	assert.Equal(t, 11.67, *additive.MeanGrade)
}

func TestAdminService_StudentResults(t *testing.T) {
	ctx := context.Background()

	t.Run("returns archived exams", func(t *testing.T) {
		service, repo := newAdminFixture(t)
		repo.student.On("GetByLogin", mock.Anything, "a.karim").Return(adminRosterRows()[0], nil)
		repo.result.On("GetByStudent", mock.Anything, "a.karim").Return([]*models.ExamResult{
			{StudentLogin: "a.karim", Subject: testSubject, Score: 16, Total: 20, Grade: 16},
		}, nil)

		report, err := service.StudentResults(ctx, "a.karim")
		require.NoError(t, err)
		assert.Equal(t, "a.karim", report.Student.Login)
		require.Len(t, report.Exams, 1)
		assert.Equal(t, testSubject, report.Exams[0].Subject)
	})

	t.Run("unknown login", func(t *testing.T) {
		service, repo := newAdminFixture(t)
		repo.student.On("GetByLogin", mock.Anything, "inconnu").Return(nil, gorm.ErrRecordNotFound)

		_, err := service.StudentResults(ctx, "inconnu")
		assert.ErrorIs(t, err, ErrStudentNotFound)
	})
}

func TestAdminService_AllResults(t *testing.T) {
	ctx := context.Background()
	service, repo := newAdminFixture(t)

	repo.result.On("ListAll", mock.Anything).Return([]*models.ExamResult{
		{
			StudentLogin: "a.karim",
			LastName:     "Alami",
			Track:        "IDMS",
			Subject:      testSubject,
			Score:        16,
			Total:        20,
			Grade:        16,
			Answers:      []byte(`{"q1":"VRAI","q2":"FAUX"}`),
		},
	}, nil)

	rows, err := service.AllResults(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a.karim", rows[0].Login)
	assert.Equal(t, map[string]string{"q1": "VRAI", "q2": "FAUX"}, rows[0].Answers)
}

func TestAdminService_ExportResults(t *testing.T) {
	ctx := context.Background()
	service, repo := newAdminFixture(t)

	completed := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	repo.result.On("ListAll", mock.Anything).Return([]*models.ExamResult{
		{StudentLogin: "a.karim", LastName: "Alami", FirstName: "Karim", Department: "Génie Electrique",
			Track: "IDMS", Year: "Master", Subject: testSubject, CompletedAt: completed,
			Score: 16, Total: 20, Grade: 16},
		{StudentLogin: "b.sara", LastName: "Bennani", FirstName: "Sara", Department: "Génie Electrique",
			Track: "IDMS", Year: "Master", Subject: testSmallSubject, CompletedAt: completed,
			Score: 7, Total: 12, Grade: 11.67, Overtime: true},
	}, nil)

	workbook, err := service.ExportResults(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, workbook)

	file, err := excelize.OpenReader(bytes.NewReader(workbook))
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows("Resultats")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, "a.karim", rows[1][4])
	assert.Equal(t, "TRUE", rows[2][11])
}

func TestAdminService_Credentials(t *testing.T) {
	ctx := context.Background()
	service, repo := newAdminFixture(t)

	email := "karim@ensam.ma"
	roster := adminRosterRows()
	roster[0].Email = &email
	repo.student.On("List", mock.Anything).Return(roster, nil)

	entries, err := service.Credentials(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.karim", entries[0].Login)
	require.NotNil(t, entries[0].Email)
	assert.Equal(t, email, *entries[0].Email)
	// Admin accounts never appear in the mailer listing.
	for _, entry := range entries {
		assert.NotEqual(t, "admin", entry.Login)
	}
}
