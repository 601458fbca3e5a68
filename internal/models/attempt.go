package models

import (
	"time"
)

// AttemptRecord is the durable at-most-once gate: one row per completed
// (student, subject) pair, written inside the submit transaction and never
// updated afterwards.
type AttemptRecord struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	StudentLogin string    `json:"login" gorm:"not null;size:100;uniqueIndex:idx_attempt_student_subject"`
	Subject      string    `json:"matiere" gorm:"not null;size:200;uniqueIndex:idx_attempt_student_subject"`
	CompletedAt  time.Time `json:"date" gorm:"not null"`
	Score        int       `json:"score" gorm:"not null"`
	Total        int       `json:"total" gorm:"not null"`
	Grade        float64   `json:"note" gorm:"not null"`
}

func (AttemptRecord) TableName() string {
	return "attempt_records"
}
