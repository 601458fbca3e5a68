package services

import (
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/cache"
	appevents "github.com/ENNAJI/ExamCADProtoENSAM/internal/events"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/repositories"
)

const tokenTTL = time.Hour

// RosterService owns the student roster: authentication, token handling and
// bulk import.
type RosterService interface {
	Login(ctx context.Context, login, password string) (*LoginResponse, error)
	VerifyToken(token string) (models.Identity, error)

	// ImportStudents ingests a CSV or Excel roster sheet. Rows missing a
	// password get a generated one, handed to the credential mailer through
	// a credentials.issued event.
	ImportStudents(ctx context.Context, reader io.Reader, filename string) (*ImportResult, error)
}

// ===== REQUEST / RESPONSE TYPES =====

type LoginResponse struct {
	Token string          `json:"token"`
	User  models.Identity `json:"user"`
}

type ImportResult struct {
	TotalRows    int               `json:"total_rows"`
	SuccessCount int               `json:"success_count"`
	ErrorCount   int               `json:"error_count"`
	Errors       []*ImportRowError `json:"errors,omitempty"`
}

type identityClaims struct {
	LastName   string             `json:"nom"`
	FirstName  string             `json:"prenom"`
	Department string             `json:"departement"`
	Track      string             `json:"filiere"`
	Year       string             `json:"annee"`
	Role       models.StudentRole `json:"role"`
	jwt.RegisteredClaims
}

// ===== IMPLEMENTATION =====

type rosterService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher appevents.EventPublisher
	logger    *slog.Logger
	jwtSecret []byte
}

func NewRosterService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher appevents.EventPublisher,
	logger *slog.Logger,
	jwtSecret string,
) RosterService {
	return &rosterService{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		logger:    logger,
		jwtSecret: []byte(jwtSecret),
	}
}

func (s *rosterService) Login(ctx context.Context, login, password string) (*LoginResponse, error) {
	student, err := s.repo.Student().GetByLogin(ctx, login)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Same refusal as a bad password so logins cannot be enumerated.
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	identity := identityOf(student)
	token, err := s.issueToken(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("Student logged in", "login", login, "role", student.Role)

	return &LoginResponse{Token: token, User: identity}, nil
}

func (s *rosterService) VerifyToken(tokenString string) (models.Identity, error) {
	var claims identityClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, ErrInvalidToken
	}

	return models.Identity{
		Login:      claims.Subject,
		LastName:   claims.LastName,
		FirstName:  claims.FirstName,
		Department: claims.Department,
		Track:      claims.Track,
		Year:       claims.Year,
		Role:       claims.Role,
	}, nil
}

func (s *rosterService) issueToken(identity models.Identity) (string, error) {
	now := time.Now()
	claims := identityClaims{
		LastName:   identity.LastName,
		FirstName:  identity.FirstName,
		Department: identity.Department,
		Track:      identity.Track,
		Year:       identity.Year,
		Role:       identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Login,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// ===== BULK IMPORT =====

// importColumns is the required sheet header, in any order. The password and
// email columns are optional.
var importColumns = []string{"nom", "prenom", "login", "departement", "filiere", "annee"}

func (s *rosterService) ImportStudents(ctx context.Context, reader io.Reader, filename string) (*ImportResult, error) {
	s.logger.Info("Starting roster import", "filename", filename)

	ext := strings.ToLower(filepath.Ext(filename))

	var rows [][]string
	var err error
	switch ext {
	case ".csv":
		rows, err = readCSVRows(reader)
	case ".xlsx", ".xls":
		rows, err = readExcelRows(reader)
	default:
		return nil, fmt.Errorf("%w: unsupported roster file format %s", ErrValidationFailed, ext)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: roster sheet needs a header row and at least one data row", ErrValidationFailed)
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range importColumns {
		if _, exists := headerMap[col]; !exists {
			return nil, fmt.Errorf("%w: missing required column %q", ErrValidationFailed, col)
		}
	}

	result := &ImportResult{TotalRows: len(rows) - 1}

	for rowIndex, record := range rows[1:] {
		if err := s.importRow(ctx, record, headerMap); err != nil {
			var rowErr *ImportRowError
			if !errors.As(err, &rowErr) {
				rowErr = &ImportRowError{Row: rowIndex + 2, Message: err.Error()}
			} else {
				rowErr.Row = rowIndex + 2
			}
			result.Errors = append(result.Errors, rowErr)
			result.ErrorCount++
			continue
		}
		result.SuccessCount++
	}

	// Upserted rows may change a student's programme, so every cached
	// subject list is suspect.
	if result.SuccessCount > 0 {
		if cacheErr := s.cache.DeletePattern(ctx, "subjects:*"); cacheErr != nil {
			s.logger.Warn("Failed to invalidate subject caches", "error", cacheErr)
		}
	}

	s.logger.Info("Roster import finished",
		"filename", filename,
		"total", result.TotalRows,
		"imported", result.SuccessCount,
		"rejected", result.ErrorCount)

	return result, nil
}

func (s *rosterService) importRow(ctx context.Context, record []string, headerMap map[string]int) error {
	field := func(name string) string {
		idx, ok := headerMap[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	login := field("login")
	if login == "" {
		return &ImportRowError{Field: "login", Message: "login is required"}
	}
	lastName := field("nom")
	firstName := field("prenom")
	if lastName == "" || firstName == "" {
		return &ImportRowError{Field: "nom", Message: "nom and prenom are required"}
	}

	password := field("password")
	generated := password == ""
	if generated {
		var err error
		password, err = generatePassword()
		if err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	var email *string
	if e := field("email"); e != "" {
		email = &e
	}

	student := &models.Student{
		Login:        login,
		LastName:     lastName,
		FirstName:    firstName,
		PasswordHash: string(hash),
		Department:   field("departement"),
		Track:        field("filiere"),
		Year:         field("annee"),
		Role:         models.RoleStudent,
		Email:        email,
	}

	if err := s.repo.Student().Upsert(ctx, student); err != nil {
		return fmt.Errorf("failed to store student: %w", err)
	}

	// The clear-text credential leaves the portal exactly once, on its way
	// to the mailer.
	event := appevents.NewCredentialsIssuedEvent(login, lastName, firstName, email, password)
	if err := s.publisher.PublishExamEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish credentials event", "login", login, "error", err)
	}

	return nil
}

func readCSVRows(reader io.Reader) ([][]string, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return rows, nil
}

func readExcelRows(reader io.Reader) ([][]string, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: Excel file has no sheets", ErrValidationFailed)
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	return rows, nil
}

func generatePassword() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func identityOf(student *models.Student) models.Identity {
	return models.Identity{
		Login:      student.Login,
		LastName:   student.LastName,
		FirstName:  student.FirstName,
		Department: student.Department,
		Track:      student.Track,
		Year:       student.Year,
		Role:       student.Role,
	}
}
