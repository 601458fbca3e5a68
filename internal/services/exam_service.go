package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/cache"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/events"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/grading"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/questionbank"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/repositories"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/session"
)

const (
	// ExamQuestionCount is the target sample size per exam. Banks smaller
	// than this are used whole.
	ExamQuestionCount = 20

	// ExamDuration is the nominal time budget. The server reports overtime
	// but never enforces the deadline; the client auto-submits on expiry.
	ExamDuration = 30 * time.Minute

	subjectsCacheTTL = 30 * time.Second
)

// ExamService orchestrates the exam lifecycle: admission, sampling, answer
// grading and durable persistence of the outcome.
type ExamService interface {
	// AvailableSubjects lists the identity's programme subjects with their
	// already-attempted status.
	AvailableSubjects(ctx context.Context, identity models.Identity) ([]SubjectStatus, error)

	// Start admits the identity to a fresh exam for the subject, replacing
	// any session already open for the identity.
	Start(ctx context.Context, identity models.Identity, subject string) (*SessionView, error)

	// Submit grades the open session against the submitted answers, persists
	// the outcome and consumes the session.
	Submit(ctx context.Context, identity models.Identity, answers map[string]string) (*GradedResult, error)

	// Structure exposes the department/track/year programme table.
	Structure() questionbank.Curriculum
}

// ===== REQUEST / RESPONSE TYPES =====

type SubjectStatus struct {
	Name             string `json:"nom"`
	AlreadyAttempted bool   `json:"dejaPasse"`
}

// QuestionView is the client-safe projection of a sampled question: answer
// fields stripped, display order assigned.
type QuestionView struct {
	Order   int                 `json:"numero"`
	ID      string              `json:"id"`
	Type    models.QuestionType `json:"type"`
	Prompt  string              `json:"question"`
	Options []string            `json:"options,omitempty"`
}

type SessionView struct {
	Subject         string         `json:"matiere"`
	Questions       []QuestionView `json:"questions"`
	Total           int            `json:"total"`
	DurationSeconds int            `json:"duree"`
}

type GradedResult struct {
	Subject     string                `json:"matiere"`
	Grade       float64               `json:"note"`
	Score       int                   `json:"score"`
	Total       int                   `json:"total"`
	Overtime    bool                  `json:"tempsDepasse"`
	Corrections []models.GradedAnswer `json:"corrections"`
}

// ===== IMPLEMENTATION =====

type examService struct {
	repo       repositories.Repository
	bank       *questionbank.Bank
	curriculum questionbank.Curriculum
	sessions   *session.Store
	cache      cache.CacheService
	publisher  events.EventPublisher
	logger     *slog.Logger

	// rng guards question sampling; *rand.Rand is not safe for concurrent
	// use. Tests inject a seeded source.
	rngMu sync.Mutex
	rng   *rand.Rand

	now func() time.Time
}

func NewExamService(
	repo repositories.Repository,
	bank *questionbank.Bank,
	curriculum questionbank.Curriculum,
	sessions *session.Store,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	rng *rand.Rand,
) ExamService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &examService{
		repo:       repo,
		bank:       bank,
		curriculum: curriculum,
		sessions:   sessions,
		cache:      cacheService,
		publisher:  publisher,
		logger:     logger,
		rng:        rng,
		now:        time.Now,
	}
}

func (s *examService) AvailableSubjects(ctx context.Context, identity models.Identity) ([]SubjectStatus, error) {
	if identity.Login == "" {
		return nil, ErrNotAuthenticated
	}

	cacheKey := subjectsCacheKey(identity.Login)
	var cached []SubjectStatus
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return cached, nil
	}

	subjects := s.curriculum.SubjectsFor(identity.Department, identity.Track, identity.Year)

	statuses := make([]SubjectStatus, 0, len(subjects))
	for _, subject := range subjects {
		attempted, err := s.repo.Attempt().HasAttempted(ctx, identity.Login, subject)
		if err != nil {
			return nil, fmt.Errorf("failed to check attempt ledger: %w", err)
		}
		statuses = append(statuses, SubjectStatus{Name: subject, AlreadyAttempted: attempted})
	}

	if err := s.cache.Set(ctx, cacheKey, statuses, subjectsCacheTTL); err != nil {
		s.logger.Warn("Failed to cache subject list", "login", identity.Login, "error", err)
	}

	return statuses, nil
}

func (s *examService) Start(ctx context.Context, identity models.Identity, subject string) (*SessionView, error) {
	if identity.Login == "" {
		return nil, ErrNotAuthenticated
	}

	s.logger.Info("Starting exam",
		"login", identity.Login,
		"subject", subject)

	// A subject the programme does not offer, a subject with no bank and a
	// subject with an empty bank are the same refusal from the student's
	// point of view.
	if !s.curriculum.Offers(identity.Department, identity.Track, identity.Year, subject) {
		return nil, ErrSubjectUnavailable
	}
	if !s.bank.HasSubject(subject) || s.bank.Size(subject) == 0 {
		return nil, ErrSubjectUnavailable
	}

	// The ledger is consulted synchronously so a completed exam can never be
	// restarted, even right after submit.
	attempted, err := s.repo.Attempt().HasAttempted(ctx, identity.Login, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to check attempt ledger: %w", err)
	}
	if attempted {
		return nil, ErrAlreadyAttempted
	}

	questions, err := s.sampleQuestions(subject)
	if err != nil {
		return nil, err
	}

	sess := &session.Session{
		StudentLogin: identity.Login,
		Subject:      subject,
		Questions:    questions,
		StartedAt:    s.now(),
		Duration:     ExamDuration,
	}
	// Replaces any session already open for this identity; the ledger is the
	// only durable gate.
	s.sessions.Put(sess)

	s.publishEvent(ctx, events.NewExamStartedEvent(
		identity.Login, subject, len(questions), sess.StartedAt, int(ExamDuration.Seconds())))

	s.logger.Info("Exam started",
		"login", identity.Login,
		"subject", subject,
		"questions", len(questions))

	return buildSessionView(sess), nil
}

func (s *examService) Submit(ctx context.Context, identity models.Identity, answers map[string]string) (*GradedResult, error) {
	if identity.Login == "" {
		return nil, ErrNotAuthenticated
	}

	sess := s.sessions.Take(identity.Login)
	if sess == nil {
		return nil, ErrNoOpenSession
	}

	if answers == nil {
		answers = map[string]string{}
	}

	now := s.now()
	overtime := sess.Overtime(now)

	// Every sampled question is graded, answered or not; a missing answer is
	// the empty string.
	score := 0
	corrections := make([]models.GradedAnswer, len(sess.Questions))
	for i, q := range sess.Questions {
		submitted := answers[q.ID]
		verdict := grading.Grade(q, submitted)
		if verdict.Correct {
			score++
		}
		corrections[i] = models.GradedAnswer{
			Order:           i + 1,
			QuestionID:      q.ID,
			Prompt:          q.Prompt,
			SubmittedAnswer: submitted,
			CorrectAnswer:   verdict.CorrectAnswer,
			Correct:         verdict.Correct,
		}
	}

	// An empty session cannot be opened through Start; the guard keeps a
	// zero-question session from ever minting a NaN grade.
	total := len(sess.Questions)
	grade := 0.0
	if total > 0 {
		grade = round2(float64(score) / float64(total) * 20)
	}

	result, err := buildExamResult(identity, sess.Subject, now, score, total, grade, overtime, answers, corrections)
	if err != nil {
		s.sessions.Restore(sess)
		return nil, err
	}

	record := &models.AttemptRecord{
		StudentLogin: identity.Login,
		Subject:      sess.Subject,
		CompletedAt:  now,
		Score:        score,
		Total:        total,
		Grade:        grade,
	}

	// Ledger and archive are committed together, before the response: a
	// crash after this point can never allow a second attempt, and a failure
	// here must not report success.
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Attempt().Record(ctx, record); err != nil {
			return fmt.Errorf("failed to record attempt: %w", err)
		}
		if err := txRepo.Result().Append(ctx, result); err != nil {
			return fmt.Errorf("failed to append exam result: %w", err)
		}
		return nil
	})
	if err != nil {
		// Keep the session so the student can retry the submit.
		s.sessions.Restore(sess)
		return nil, fmt.Errorf("failed to persist exam outcome: %w", err)
	}

	if cacheErr := s.cache.Delete(ctx, subjectsCacheKey(identity.Login)); cacheErr != nil {
		s.logger.Warn("Failed to invalidate subject cache", "login", identity.Login, "error", cacheErr)
	}
	// The dashboard aggregates every committed result, so it is stale now.
	if cacheErr := s.cache.Delete(ctx, dashboardCacheKey); cacheErr != nil {
		s.logger.Warn("Failed to invalidate dashboard cache", "error", cacheErr)
	}

	s.publishEvent(ctx, events.NewExamSubmittedEvent(
		identity.Login, sess.Subject, now, score, total, grade, overtime))

	s.logger.Info("Exam submitted",
		"login", identity.Login,
		"subject", sess.Subject,
		"score", score,
		"total", total,
		"grade", grade,
		"overtime", overtime)

	return &GradedResult{
		Subject:     sess.Subject,
		Grade:       grade,
		Score:       score,
		Total:       total,
		Overtime:    overtime,
		Corrections: corrections,
	}, nil
}

func (s *examService) Structure() questionbank.Curriculum {
	return s.curriculum
}

// ===== HELPERS =====

func (s *examService) sampleQuestions(subject string) ([]models.Question, error) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	questions, err := s.bank.Sample(subject, ExamQuestionCount, s.rng)
	if err != nil {
		return nil, fmt.Errorf("failed to sample questions: %w", err)
	}
	return questions, nil
}

// publishEvent is best effort: the submit response never fails because the
// broker is down.
func (s *examService) publishEvent(ctx context.Context, event *events.ExamEvent) {
	if err := s.publisher.PublishExamEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish exam event",
			"event_type", event.Type,
			"error", err)
	}
}

func buildSessionView(sess *session.Session) *SessionView {
	views := make([]QuestionView, len(sess.Questions))
	for i, q := range sess.Questions {
		views[i] = QuestionView{
			Order:   i + 1,
			ID:      q.ID,
			Type:    q.Type,
			Prompt:  q.Prompt,
			Options: q.Options,
		}
	}
	return &SessionView{
		Subject:         sess.Subject,
		Questions:       views,
		Total:           len(views),
		DurationSeconds: int(sess.Duration.Seconds()),
	}
}

func buildExamResult(
	identity models.Identity,
	subject string,
	completedAt time.Time,
	score, total int,
	grade float64,
	overtime bool,
	answers map[string]string,
	corrections []models.GradedAnswer,
) (*models.ExamResult, error) {
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answers: %w", err)
	}
	correctionsJSON, err := json.Marshal(corrections)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal corrections: %w", err)
	}

	return &models.ExamResult{
		StudentLogin: identity.Login,
		LastName:     identity.LastName,
		FirstName:    identity.FirstName,
		Department:   identity.Department,
		Track:        identity.Track,
		Year:         identity.Year,
		Subject:      subject,
		CompletedAt:  completedAt,
		Score:        score,
		Total:        total,
		Grade:        grade,
		Overtime:     overtime,
		Answers:      answersJSON,
		Corrections:  correctionsJSON,
	}, nil
}

func subjectsCacheKey(login string) string {
	return "subjects:" + login
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
