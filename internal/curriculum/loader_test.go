package curriculum_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/p-n-ai/teaching-torch/internal/curriculum"
)

func TestDefault(t *testing.T) {
	seed := curriculum.Default()

	if len(seed.Grades) != 7 {
		t.Errorf("len(Grades) = %d, want 7", len(seed.Grades))
	}
	if len(seed.Subjects) != 21 {
		t.Errorf("len(Subjects) = %d, want 21", len(seed.Subjects))
	}
	if seed.Grades[0].ID != "grade6" || seed.Grades[6].ID != "al" {
		t.Errorf("grade order = %s..%s, want grade6..al", seed.Grades[0].ID, seed.Grades[6].ID)
	}
	if seed.Grades[6].Display != "A/L" {
		t.Errorf("al display = %q, want A/L", seed.Grades[6].Display)
	}
	for _, g := range seed.Grades {
		if !g.IsActive() {
			t.Errorf("grade %s should default to active", g.ID)
		}
	}
}

func TestDefault_SubjectGrades(t *testing.T) {
	seed := curriculum.Default()

	byID := make(map[string]curriculum.Subject)
	for _, s := range seed.Subjects {
		byID[s.ID] = s
	}

	maths, ok := byID["mathematics"]
	if !ok {
		t.Fatal("mathematics missing from defaults")
	}
	if len(maths.Grades) != 6 || maths.Grades[4] != "grade10" {
		t.Errorf("mathematics grades = %v, want grade6..grade11", maths.Grades)
	}

	physics := byID["physics"]
	if len(physics.Grades) != 1 || physics.Grades[0] != "al" {
		t.Errorf("physics grades = %v, want [al]", physics.Grades)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	seed, err := curriculum.Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if len(seed.Grades) != 7 {
		t.Errorf("len(Grades) = %d, want 7", len(seed.Grades))
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	os.WriteFile(path, []byte(`
grades:
  - id: grade12
    name: Grade 12
    active: false
  - name: no id
subjects:
  - id: art
    name: Art
    icon: bi-brush
  - id: art
    name: Fine Art
    icon: bi-brush
    grades: [grade12]
`), 0o644)

	seed, err := curriculum.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(seed.Grades) != 1 {
		t.Fatalf("len(Grades) = %d, want 1 (grade without id skipped)", len(seed.Grades))
	}
	g := seed.Grades[0]
	if g.Display != "Grade 12" {
		t.Errorf("Display = %q, want fallback to name", g.Display)
	}
	if g.IsActive() {
		t.Error("IsActive() = true, want false")
	}

	if len(seed.Subjects) != 1 {
		t.Fatalf("len(Subjects) = %d, want 1 (duplicate id replaced)", len(seed.Subjects))
	}
	if seed.Subjects[0].Name != "Fine Art" {
		t.Errorf("Name = %q, want later duplicate to win", seed.Subjects[0].Name)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	os.WriteFile(path, []byte("grades: [unclosed"), 0o644)

	if _, err := curriculum.Load(path); err == nil {
		t.Error("Load() should fail on invalid YAML")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := curriculum.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() should fail for missing file")
	}
}
