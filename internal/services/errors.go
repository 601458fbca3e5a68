package services

import (
	"errors"
	"fmt"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")

	// Auth errors
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("forbidden - insufficient permissions")

	// Exam lifecycle errors
	ErrAlreadyAttempted   = errors.New("exam already attempted for this subject")
	ErrSubjectUnavailable = errors.New("no questions available for this subject")
	ErrNoOpenSession      = errors.New("no open exam session")

	// Roster errors
	ErrStudentNotFound = errors.New("student not found")
)

// ===== CUSTOM ERROR TYPES =====

// ImportRowError describes one rejected row of a bulk roster import.
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ImportRowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ===== ERROR HELPERS =====

// IsNotAuthenticated checks if err represents a missing or bad identity
func IsNotAuthenticated(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidToken)
}

// IsExamRefused checks if err is one of the exam-admission refusals that are
// part of the normal response contract rather than failures
func IsExamRefused(err error) bool {
	return errors.Is(err, ErrAlreadyAttempted) ||
		errors.Is(err, ErrSubjectUnavailable) ||
		errors.Is(err, ErrNoOpenSession)
}
