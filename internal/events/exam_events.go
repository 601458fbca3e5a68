package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different kinds of portal events
type EventType string

const (
	// Exam lifecycle events
	EventExamStarted   EventType = "exam.started"
	EventExamSubmitted EventType = "exam.submitted"

	// Roster events, consumed by the external credential mailer
	EventCredentialsIssued EventType = "credentials.issued"
)

// ExamEvent is the base event structure published to the exam topic
type ExamEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Exam lifecycle event payloads

type ExamStartedEvent struct {
	StudentLogin    string    `json:"login"`
	Subject         string    `json:"matiere"`
	QuestionCount   int       `json:"question_count"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds int       `json:"duration_seconds"`
}

type ExamSubmittedEvent struct {
	StudentLogin string    `json:"login"`
	Subject      string    `json:"matiere"`
	SubmittedAt  time.Time `json:"submitted_at"`
	Score        int       `json:"score"`
	Total        int       `json:"total"`
	Grade        float64   `json:"note"`
	Overtime     bool      `json:"temps_depasse"`
}

// Roster event payload

type CredentialsIssuedEvent struct {
	Login     string  `json:"login"`
	LastName  string  `json:"nom"`
	FirstName string  `json:"prenom"`
	Email     *string `json:"email,omitempty"`
	// Password is the generated clear-text credential handed to the mailer
	// exactly once; it is never stored by the portal.
	Password string    `json:"password"`
	IssuedAt time.Time `json:"issued_at"`
}

// Event factory functions

func NewExamStartedEvent(login, subject string, questionCount int, startedAt time.Time, durationSeconds int) *ExamEvent {
	return &ExamEvent{
		ID:        GenerateEventID(),
		Type:      EventExamStarted,
		Timestamp: time.Now(),
		Source:    "exam-portal",
		Version:   "1.0",
		Data: ExamStartedEvent{
			StudentLogin:    login,
			Subject:         subject,
			QuestionCount:   questionCount,
			StartedAt:       startedAt,
			DurationSeconds: durationSeconds,
		},
	}
}

func NewExamSubmittedEvent(login, subject string, submittedAt time.Time, score, total int, grade float64, overtime bool) *ExamEvent {
	return &ExamEvent{
		ID:        GenerateEventID(),
		Type:      EventExamSubmitted,
		Timestamp: time.Now(),
		Source:    "exam-portal",
		Version:   "1.0",
		Data: ExamSubmittedEvent{
			StudentLogin: login,
			Subject:      subject,
			SubmittedAt:  submittedAt,
			Score:        score,
			Total:        total,
			Grade:        grade,
			Overtime:     overtime,
		},
	}
}

func NewCredentialsIssuedEvent(login, lastName, firstName string, email *string, password string) *ExamEvent {
	return &ExamEvent{
		ID:        GenerateEventID(),
		Type:      EventCredentialsIssued,
		Timestamp: time.Now(),
		Source:    "exam-portal",
		Version:   "1.0",
		Data: CredentialsIssuedEvent{
			Login:     login,
			LastName:  lastName,
			FirstName: firstName,
			Email:     email,
			Password:  password,
			IssuedAt:  time.Now(),
		},
	}
}

// GenerateEventID returns a unique event identifier
func GenerateEventID() string {
	return uuid.NewString()
}
