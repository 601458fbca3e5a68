package questionbank

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
)

// subjectFile is the on-disk shape of one bank file.
type subjectFile struct {
	Subject   string            `json:"matiere"`
	Questions []models.Question `json:"questions"`
}

// Bank holds every subject's question collection. It is populated once by
// LoadDir and read-only afterwards, so lookups need no locking.
type Bank struct {
	subjects map[string][]models.Question
}

// LoadDir reads every *.json file under dir into the bank. Each file declares
// its subject name; files that fail to parse abort the load since a partially
// loaded bank would silently shrink exams.
func LoadDir(dir string, logger *slog.Logger) (*Bank, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions directory %s: %w", dir, err)
	}

	bank := &Bank{subjects: make(map[string][]models.Question)}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read question file %s: %w", path, err)
		}

		var file subjectFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse question file %s: %w", path, err)
		}

		subject := file.Subject
		if subject == "" {
			// Legacy files carry no subject field, the file name is the subject.
			subject = strings.TrimSuffix(entry.Name(), ".json")
		}

		if err := validateQuestions(subject, file.Questions); err != nil {
			return nil, err
		}

		bank.subjects[subject] = file.Questions
		logger.Info("Loaded question bank",
			"subject", subject,
			"questions", len(file.Questions))
	}

	return bank, nil
}

// NewBank builds a bank directly from memory. Tests use it.
func NewBank(subjects map[string][]models.Question) *Bank {
	copied := make(map[string][]models.Question, len(subjects))
	for name, questions := range subjects {
		copied[name] = append([]models.Question(nil), questions...)
	}
	return &Bank{subjects: copied}
}

// HasSubject reports whether a bank exists for the subject.
func (b *Bank) HasSubject(subject string) bool {
	_, ok := b.subjects[subject]
	return ok
}

// Size returns the number of questions banked for the subject.
func (b *Bank) Size(subject string) int {
	return len(b.subjects[subject])
}

// Subjects returns the names of all banked subjects, in no particular order.
func (b *Bank) Subjects() []string {
	names := make([]string, 0, len(b.subjects))
	for name := range b.subjects {
		names = append(names, name)
	}
	return names
}

// Sample draws min(count, bankSize) questions uniformly at random without
// replacement, in random order. The caller owns the returned slice.
func (b *Bank) Sample(subject string, count int, rng *rand.Rand) ([]models.Question, error) {
	questions, ok := b.subjects[subject]
	if !ok {
		return nil, fmt.Errorf("no question bank for subject %q", subject)
	}

	shuffled := append([]models.Question(nil), questions...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if count < len(shuffled) {
		shuffled = shuffled[:count]
	}
	return shuffled, nil
}

func validateQuestions(subject string, questions []models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("subject %q: empty question list", subject)
	}

	seen := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("subject %q: question with empty id", subject)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("subject %q: duplicate question id %q", subject, q.ID)
		}
		seen[q.ID] = struct{}{}

		if q.CorrectAnswer == "" {
			return fmt.Errorf("subject %q: question %q has no correct answer", subject, q.ID)
		}
		if (q.Type == models.SingleChoice) != (len(q.Options) > 0) {
			return fmt.Errorf("subject %q: question %q: options are required for %s and forbidden otherwise",
				subject, q.ID, models.SingleChoice)
		}
		switch q.Type {
		case models.SingleChoice, models.Boolean, models.FreeText:
		default:
			return fmt.Errorf("subject %q: question %q has unknown type %q", subject, q.ID, q.Type)
		}
	}
	return nil
}
