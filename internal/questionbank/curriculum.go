package questionbank

import (
	"encoding/json"
	"fmt"
	"os"
)

// Curriculum maps department -> track -> year -> subject names. It decides
// which subjects a given student may sit, nothing more; the bank decides
// whether questions actually exist for a subject.
type Curriculum map[string]map[string]map[string][]string

// DefaultCurriculum is the Master IDMS/TI programme table shipped with the
// portal.
func DefaultCurriculum() Curriculum {
	return Curriculum{
		"Génie Electrique": {
			"IDMS": {
				"Master": {"Conception et Prototypage"},
			},
			"TI": {
				"Master": {"Conception et Prototypage"},
			},
		},
	}
}

// LoadCurriculum reads a curriculum table from a JSON file, falling back to
// the built-in table when path is empty.
func LoadCurriculum(path string) (Curriculum, error) {
	if path == "" {
		return DefaultCurriculum(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curriculum file %s: %w", path, err)
	}

	var c Curriculum
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse curriculum file %s: %w", path, err)
	}
	return c, nil
}

// SubjectsFor returns the subject list for a (department, track, year)
// triple. Unknown triples yield an empty list, not an error: a student whose
// programme is not in the table simply has nothing to sit.
func (c Curriculum) SubjectsFor(department, track, year string) []string {
	tracks, ok := c[department]
	if !ok {
		return nil
	}
	years, ok := tracks[track]
	if !ok {
		return nil
	}
	return years[year]
}

// Offers reports whether the triple's programme includes the subject.
func (c Curriculum) Offers(department, track, year, subject string) bool {
	for _, s := range c.SubjectsFor(department, track, year) {
		if s == subject {
			return true
		}
	}
	return false
}
