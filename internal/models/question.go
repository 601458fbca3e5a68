package models

type QuestionType string

const (
	SingleChoice QuestionType = "QCM"
	Boolean      QuestionType = "VRAI_FAUX"
	FreeText     QuestionType = "REDACTION"
)

// Question is one entry of a subject's bank. Banks are loaded from disk at
// startup and never mutated afterwards, so questions carry no persistence
// metadata.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"question"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"reponse_correcte"`
	KeyPoints     []string     `json:"points_cles,omitempty"`
}

// IsChoice reports whether the question is graded by exact answer match.
func (q Question) IsChoice() bool {
	return q.Type == SingleChoice || q.Type == Boolean
}
