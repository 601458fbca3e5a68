// Package grading scores submitted answers. Everything here is pure: a
// verdict depends only on the question and the submitted string, so grading
// the same session twice always yields the same result.
package grading

import (
	"strings"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
)

// freeTextPrefixLen bounds the reference-answer prefix used by the fallback
// free-text match. Changing it changes scoring outcomes, so it is fixed.
const freeTextPrefixLen = 50

// Verdict is the outcome of grading one answer. CorrectAnswer is the
// canonical display string, returned regardless of correctness.
type Verdict struct {
	Correct       bool
	CorrectAnswer string
}

// Grade scores one submitted answer against its question.
//
// Choice questions (single-choice, boolean) match case-insensitively against
// the canonical answer. Free-text questions with key points pass when at
// least half of the key points (rounded up) appear in the lowercased
// submission. Free-text questions without key points fall back to a prefix
// containment check against the reference answer; this is a weak heuristic
// kept for compatibility with historical scores.
func Grade(q models.Question, submitted string) Verdict {
	verdict := Verdict{CorrectAnswer: q.CorrectAnswer}

	switch {
	case q.IsChoice():
		verdict.Correct = strings.EqualFold(submitted, q.CorrectAnswer)
	case len(q.KeyPoints) > 0:
		verdict.Correct = matchKeyPoints(q.KeyPoints, submitted)
	default:
		verdict.Correct = matchReferencePrefix(q.CorrectAnswer, submitted)
	}

	return verdict
}

func matchKeyPoints(keyPoints []string, submitted string) bool {
	normalized := strings.ToLower(submitted)

	found := 0
	for _, kp := range keyPoints {
		if strings.Contains(normalized, strings.ToLower(kp)) {
			found++
		}
	}

	// ceil(len/2) without floating point
	required := (len(keyPoints) + 1) / 2
	return found >= required
}

func matchReferencePrefix(reference, submitted string) bool {
	// The prefix length counts characters, not bytes; accented references
	// must not shrink the effective prefix or split a rune.
	prefix := []rune(strings.ToLower(reference))
	if len(prefix) > freeTextPrefixLen {
		prefix = prefix[:freeTextPrefixLen]
	}
	return strings.Contains(strings.ToLower(submitted), string(prefix))
}
