package models

import (
	"time"

	"gorm.io/datatypes"
)

// GradedAnswer is one question's outcome inside a submitted exam, kept for
// display and audit. The correct answer is always included, right or wrong.
type GradedAnswer struct {
	Order           int    `json:"numero"`
	QuestionID      string `json:"id"`
	Prompt          string `json:"question"`
	SubmittedAnswer string `json:"reponseEtudiant"`
	CorrectAnswer   string `json:"reponseCorrecte"`
	Correct         bool   `json:"correct"`
}

// ExamResult is the archive row: the full graded outcome of one completed
// exam, append-only per student.
type ExamResult struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	StudentLogin string `json:"login" gorm:"not null;size:100;index"`
	LastName     string `json:"nom" gorm:"size:100"`
	FirstName    string `json:"prenom" gorm:"size:100"`
	Department   string `json:"departement" gorm:"size:100"`
	Track        string `json:"filiere" gorm:"size:100;index"`
	Year         string `json:"annee" gorm:"size:50"`

	Subject     string    `json:"matiere" gorm:"not null;size:200;index"`
	CompletedAt time.Time `json:"date" gorm:"not null;index"`
	Score       int       `json:"score" gorm:"not null"`
	Total       int       `json:"total" gorm:"not null"`
	Grade       float64   `json:"note" gorm:"not null"`
	Overtime    bool      `json:"tempsDepasse" gorm:"not null;default:false"`

	// Raw submitted answers (question id -> answer) and the graded batch,
	// stored as JSONB so the admin views can replay an exam verbatim.
	Answers     datatypes.JSON `json:"reponses" gorm:"type:jsonb"`
	Corrections datatypes.JSON `json:"corrections" gorm:"type:jsonb"`
}

func (ExamResult) TableName() string {
	return "exam_results"
}
