package grading

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
)

func TestGrade_SingleChoice(t *testing.T) {
	q := models.Question{
		ID:            "q1",
		Type:          models.SingleChoice,
		Prompt:        "Quel format est natif pour l'impression 3D ?",
		Options:       []string{"STL", "DWG", "PDF"},
		CorrectAnswer: "STL",
	}

	t.Run("exact match", func(t *testing.T) {
		verdict := Grade(q, "STL")
		assert.True(t, verdict.Correct)
		assert.Equal(t, "STL", verdict.CorrectAnswer)
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.True(t, Grade(q, "stl").Correct)
		assert.True(t, Grade(q, "Stl").Correct)
	})

	t.Run("wrong option", func(t *testing.T) {
		assert.False(t, Grade(q, "DWG").Correct)
	})

	t.Run("empty submission", func(t *testing.T) {
		assert.False(t, Grade(q, "").Correct)
	})
}

func TestGrade_Boolean(t *testing.T) {
	q := models.Question{
		ID:            "q2",
		Type:          models.Boolean,
		Prompt:        "Le prototypage rapide est additif.",
		CorrectAnswer: "VRAI",
	}

	assert.True(t, Grade(q, "VRAI").Correct)
	assert.True(t, Grade(q, "vrai").Correct)
	assert.False(t, Grade(q, "FAUX").Correct)
}

func TestGrade_FreeTextKeyPoints(t *testing.T) {
	q := models.Question{
		ID:            "q3",
		Type:          models.FreeText,
		Prompt:        "Citez les étapes de la chaîne numérique.",
		CorrectAnswer: "CAO, FAO, usinage et contrôle",
		KeyPoints:     []string{"CAO", "FAO", "usinage", "contrôle"},
	}

	t.Run("half of the key points passes", func(t *testing.T) {
		// 2 of 4 found, required is ceil(4/2) = 2.
		verdict := Grade(q, "On part de la cao puis on passe en fao.")
		assert.True(t, verdict.Correct)
	})

	t.Run("below half fails", func(t *testing.T) {
		assert.False(t, Grade(q, "Uniquement la CAO.").Correct)
	})

	t.Run("odd count rounds up", func(t *testing.T) {
		odd := q
		odd.KeyPoints = []string{"CAO", "FAO", "usinage"}
		// required is ceil(3/2) = 2, one hit is not enough.
		assert.False(t, Grade(odd, "la CAO seulement").Correct)
		assert.True(t, Grade(odd, "la CAO puis la FAO").Correct)
	})

	t.Run("matching is case insensitive", func(t *testing.T) {
		assert.True(t, Grade(q, "LA CAO ET LA FAO").Correct)
	})
}

func TestGrade_FreeTextPrefixFallback(t *testing.T) {
	q := models.Question{
		ID:            "q4",
		Type:          models.FreeText,
		Prompt:        "Définissez la tolérance dimensionnelle.",
		CorrectAnswer: "Écart admissible entre la cote maximale et la cote minimale d'une dimension",
	}

	t.Run("submission containing the reference prefix passes", func(t *testing.T) {
		prefix := string([]rune(strings.ToLower(q.CorrectAnswer))[:freeTextPrefixLen])
		assert.True(t, Grade(q, "Je dirais: "+prefix+" et voilà").Correct)
	})

	t.Run("paraphrase fails", func(t *testing.T) {
		assert.False(t, Grade(q, "La plage de variation permise d'une cote").Correct)
	})

	t.Run("prefix counts characters, not bytes", func(t *testing.T) {
		// 30 two-byte runes stay under the prefix length, so the whole
		// reference must appear in the submission.
		accented := models.Question{
			ID:            "q7",
			Type:          models.FreeText,
			CorrectAnswer: strings.Repeat("é", 30),
		}
		assert.True(t, Grade(accented, "réponse: "+strings.Repeat("é", 30)).Correct)
		assert.False(t, Grade(accented, strings.Repeat("é", 25)).Correct)
	})

	t.Run("long accented reference keeps a full-length prefix", func(t *testing.T) {
		long := models.Question{
			ID:            "q8",
			Type:          models.FreeText,
			CorrectAnswer: strings.Repeat("é", 60),
		}
		assert.True(t, Grade(long, strings.Repeat("é", freeTextPrefixLen)).Correct)
		assert.False(t, Grade(long, strings.Repeat("é", freeTextPrefixLen-1)).Correct)
	})

	t.Run("short reference must appear whole", func(t *testing.T) {
		short := models.Question{
			ID:            "q5",
			Type:          models.FreeText,
			CorrectAnswer: "fusion sur lit de poudre",
		}
		assert.True(t, Grade(short, "le procédé de Fusion sur lit de poudre métallique").Correct)
		assert.False(t, Grade(short, "fusion de poudre").Correct)
	})
}

func TestGrade_Deterministic(t *testing.T) {
	q := models.Question{
		ID:            "q6",
		Type:          models.FreeText,
		CorrectAnswer: "réponse de référence",
		KeyPoints:     []string{"référence", "réponse"},
	}

	first := Grade(q, "une réponse qui cite la référence")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Grade(q, "une réponse qui cite la référence"))
	}
}
