package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/cache"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/questionbank"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/repositories"
)

const (
	dashboardCacheTTL = time.Minute

	// dashboardCacheKey is shared with the exam service, which invalidates
	// the entry whenever a submit commits a new result.
	dashboardCacheKey = "admin:dashboard"
)

// AdminService builds the aggregate reporting views. Read-only: everything
// here is derived from the roster, the ledger and the archive.
type AdminService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	StudentResults(ctx context.Context, login string) (*StudentReport, error)
	AllResults(ctx context.Context) ([]ResultRow, error)

	// ExportResults renders every archived result into an xlsx workbook.
	ExportResults(ctx context.Context) ([]byte, error)

	// Credentials lists the roster for the credential mailer. Password
	// hashes never leave the service.
	Credentials(ctx context.Context) ([]CredentialEntry, error)
}

// ===== RESPONSE TYPES =====

type SubjectProgress struct {
	Subject     string     `json:"matiere"`
	Attempted   bool       `json:"passe"`
	Grade       *float64   `json:"note"`
	CompletedAt *time.Time `json:"date"`
}

type StudentProgress struct {
	Login          string            `json:"login"`
	LastName       string            `json:"nom"`
	FirstName      string            `json:"prenom"`
	Department     string            `json:"departement"`
	Track          string            `json:"filiere"`
	Year           string            `json:"annee"`
	Exams          []SubjectProgress `json:"examens"`
	AttemptedCount int               `json:"examensPasses"`
	TotalExams     int               `json:"totalExamens"`
	// ProgressionPct is AttemptedCount/TotalExams rounded to whole percents.
	ProgressionPct int `json:"progression"`
}

type TrackStats struct {
	Total     int `json:"total"`
	Attempted int `json:"passes"`
}

type SubjectStats struct {
	Total     int      `json:"total"`
	Attempted int      `json:"passes"`
	MeanGrade *float64 `json:"moyenne"`
}

type Dashboard struct {
	TotalStudents int                     `json:"totalEtudiants"`
	TotalExams    int64                   `json:"totalExamensPasses"`
	ByTrack       map[string]TrackStats   `json:"parFiliere"`
	BySubject     map[string]SubjectStats `json:"parMatiere"`
	Students      []StudentProgress       `json:"etudiants"`
}

type StudentReport struct {
	Student models.Identity      `json:"etudiant"`
	Exams   []*models.ExamResult `json:"examens"`
}

type ResultRow struct {
	Login     string            `json:"login"`
	LastName  string            `json:"nom"`
	FirstName string            `json:"prenom"`
	Track     string            `json:"filiere"`
	Subject   string            `json:"matiere"`
	Date      time.Time         `json:"date"`
	Score     int               `json:"score"`
	Total     int               `json:"total"`
	Grade     float64           `json:"note"`
	Answers   map[string]string `json:"reponses"`
}

type CredentialEntry struct {
	Login      string  `json:"login"`
	LastName   string  `json:"nom"`
	FirstName  string  `json:"prenom"`
	Department string  `json:"departement"`
	Track      string  `json:"filiere"`
	Year       string  `json:"annee"`
	Email      *string `json:"email,omitempty"`
}

// ===== IMPLEMENTATION =====

type adminService struct {
	repo       repositories.Repository
	curriculum questionbank.Curriculum
	cache      cache.CacheService
	logger     *slog.Logger
}

func NewAdminService(
	repo repositories.Repository,
	curriculum questionbank.Curriculum,
	cacheService cache.CacheService,
	logger *slog.Logger,
) AdminService {
	return &adminService{
		repo:       repo,
		curriculum: curriculum,
		cache:      cacheService,
		logger:     logger,
	}
}

func (s *adminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var cached Dashboard
	if err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil {
		return &cached, nil
	}

	students, err := s.repo.Student().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	totalExams, err := s.repo.Attempt().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}

	dashboard := &Dashboard{
		TotalExams: totalExams,
		ByTrack:    make(map[string]TrackStats),
		BySubject:  make(map[string]SubjectStats),
	}
	subjectGrades := make(map[string][]float64)

	for _, student := range students {
		if student.Role == models.RoleAdmin {
			continue
		}
		dashboard.TotalStudents++

		records, err := s.repo.Attempt().GetByStudent(ctx, student.Login)
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger for %s: %w", student.Login, err)
		}
		recordBySubject := make(map[string]*models.AttemptRecord, len(records))
		for _, r := range records {
			recordBySubject[r.Subject] = r
		}

		subjects := s.curriculum.SubjectsFor(student.Department, student.Track, student.Year)

		progress := StudentProgress{
			Login:      student.Login,
			LastName:   student.LastName,
			FirstName:  student.FirstName,
			Department: student.Department,
			Track:      student.Track,
			Year:       student.Year,
			TotalExams: len(subjects),
			Exams:      make([]SubjectProgress, 0, len(subjects)),
		}

		for _, subject := range subjects {
			sp := SubjectProgress{Subject: subject}
			if record, ok := recordBySubject[subject]; ok {
				sp.Attempted = true
				grade := record.Grade
				completedAt := record.CompletedAt
				sp.Grade = &grade
				sp.CompletedAt = &completedAt
				progress.AttemptedCount++
				subjectGrades[subject] = append(subjectGrades[subject], grade)
			}
			progress.Exams = append(progress.Exams, sp)

			stats := dashboard.BySubject[subject]
			stats.Total++
			if sp.Attempted {
				stats.Attempted++
			}
			dashboard.BySubject[subject] = stats
		}

		if len(subjects) > 0 {
			progress.ProgressionPct = int(math.Round(float64(progress.AttemptedCount) / float64(len(subjects)) * 100))
		}
		dashboard.Students = append(dashboard.Students, progress)

		trackKey := fmt.Sprintf("%s - %s", student.Track, student.Year)
		trackStats := dashboard.ByTrack[trackKey]
		trackStats.Total += len(subjects)
		trackStats.Attempted += progress.AttemptedCount
		dashboard.ByTrack[trackKey] = trackStats
	}

	for subject, grades := range subjectGrades {
		stats := dashboard.BySubject[subject]
		mean := round2(meanOf(grades))
		stats.MeanGrade = &mean
		dashboard.BySubject[subject] = stats
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, dashboard, dashboardCacheTTL); err != nil {
		s.logger.Warn("Failed to cache dashboard", "error", err)
	}

	return dashboard, nil
}

func (s *adminService) StudentResults(ctx context.Context, login string) (*StudentReport, error) {
	student, err := s.repo.Student().GetByLogin(ctx, login)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}

	results, err := s.repo.Result().GetByStudent(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to read result archive: %w", err)
	}

	return &StudentReport{
		Student: identityOf(student),
		Exams:   results,
	}, nil
}

func (s *adminService) AllResults(ctx context.Context) ([]ResultRow, error) {
	results, err := s.repo.Result().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read result archive: %w", err)
	}

	rows := make([]ResultRow, 0, len(results))
	for _, r := range results {
		answers := map[string]string{}
		if len(r.Answers) > 0 {
			if err := json.Unmarshal(r.Answers, &answers); err != nil {
				s.logger.Warn("Skipping unreadable answers payload", "result_id", r.ID, "error", err)
			}
		}
		rows = append(rows, ResultRow{
			Login:     r.StudentLogin,
			LastName:  r.LastName,
			FirstName: r.FirstName,
			Track:     r.Track,
			Subject:   r.Subject,
			Date:      r.CompletedAt,
			Score:     r.Score,
			Total:     r.Total,
			Grade:     r.Grade,
			Answers:   answers,
		})
	}
	return rows, nil
}

// exportHeader mirrors the aggregate results sheet used by the registrar.
var exportHeader = []string{
	"Departement", "Filiere", "Annee", "Matiere",
	"Login", "Nom", "Prenom", "Date",
	"Score", "Total", "Note", "Temps_Depasse",
}

func (s *adminService) ExportResults(ctx context.Context) ([]byte, error) {
	results, err := s.repo.Result().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read result archive: %w", err)
	}

	file := excelize.NewFile()
	defer file.Close()

	const sheet = "Resultats"
	file.SetSheetName("Sheet1", sheet)

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, title); err != nil {
			return nil, fmt.Errorf("failed to write export header: %w", err)
		}
	}

	for i, r := range results {
		values := []interface{}{
			r.Department, r.Track, r.Year, r.Subject,
			r.StudentLogin, r.LastName, r.FirstName, r.CompletedAt.Format(time.RFC3339),
			r.Score, r.Total, r.Grade, r.Overtime,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write export row: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render export workbook: %w", err)
	}

	s.logger.Info("Exported results workbook", "rows", len(results))

	return buf.Bytes(), nil
}

func (s *adminService) Credentials(ctx context.Context) ([]CredentialEntry, error) {
	students, err := s.repo.Student().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	entries := make([]CredentialEntry, 0, len(students))
	for _, student := range students {
		if student.Role == models.RoleAdmin {
			continue
		}
		entries = append(entries, CredentialEntry{
			Login:      student.Login,
			LastName:   student.LastName,
			FirstName:  student.FirstName,
			Department: student.Department,
			Track:      student.Track,
			Year:       student.Year,
			Email:      student.Email,
		})
	}
	return entries, nil
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
