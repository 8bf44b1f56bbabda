// Package curriculum loads the seed catalog shape (grades and subjects) from
// YAML, either the built-in defaults or an operator supplied file.
package curriculum

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Default returns the built-in seed.
func Default() Seed {
	seed, err := Parse(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("curriculum: built-in defaults are invalid: %v", err))
	}
	return seed
}

// Load reads a seed file. An empty path yields the built-in seed.
func Load(path string) (Seed, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("reading seed: %w", err)
	}

	seed, err := Parse(data)
	if err != nil {
		return Seed{}, fmt.Errorf("parsing seed %s: %w", path, err)
	}

	slog.Info("curriculum seed loaded",
		"path", path,
		"grades", len(seed.Grades),
		"subjects", len(seed.Subjects),
	)
	return seed, nil
}

// Parse decodes seed YAML. Entries without an id are skipped, and later
// duplicates of an id replace earlier ones in place.
func Parse(data []byte) (Seed, error) {
	var raw Seed
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Seed{}, err
	}

	seed := Seed{
		Grades:   make([]Grade, 0, len(raw.Grades)),
		Subjects: make([]Subject, 0, len(raw.Subjects)),
	}

	gradeIdx := make(map[string]int)
	for _, g := range raw.Grades {
		if g.ID == "" {
			slog.Warn("skipping seed grade without id", "name", g.Name)
			continue
		}
		if g.Display == "" {
			g.Display = g.Name
		}
		if i, ok := gradeIdx[g.ID]; ok {
			seed.Grades[i] = g
			continue
		}
		gradeIdx[g.ID] = len(seed.Grades)
		seed.Grades = append(seed.Grades, g)
	}

	subjectIdx := make(map[string]int)
	for _, s := range raw.Subjects {
		if s.ID == "" {
			slog.Warn("skipping seed subject without id", "name", s.Name)
			continue
		}
		if s.Grades == nil {
			s.Grades = []string{}
		}
		if i, ok := subjectIdx[s.ID]; ok {
			seed.Subjects[i] = s
			continue
		}
		subjectIdx[s.ID] = len(seed.Subjects)
		seed.Subjects = append(seed.Subjects, s)
	}

	return seed, nil
}
