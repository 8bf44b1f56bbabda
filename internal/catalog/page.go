package catalog

import (
	"encoding/json"
	"fmt"
)

// SubjectPage is one subject of a grade page with its content.
type SubjectPage struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Icon      string   `json:"icon"`
	Grades    []string `json:"grades"`
	Resources Bundle   `json:"resources"`
	Videos    []Video  `json:"videos"`
}

// GradePage is everything the grade page renders.
type GradePage struct {
	Grade    Grade
	Subjects []SubjectPage
}

type pageGrade struct {
	ID string `json:"id"`
	Grade
}

// MarshalJSON encodes subjects as an object keyed by subject id, in subject
// order.
func (p GradePage) MarshalJSON() ([]byte, error) {
	var subjects Ordered[SubjectPage]
	for _, sp := range p.Subjects {
		subjects.Set(sp.ID, sp)
	}
	return json.Marshal(struct {
		Grade    pageGrade            `json:"grade"`
		Subjects Ordered[SubjectPage] `json:"subjects"`
	}{
		Grade:    pageGrade{ID: p.Grade.ID, Grade: p.Grade},
		Subjects: subjects,
	})
}

// GradePage assembles the page of a grade from the subjects offered in it.
// Absent bundles appear in their empty default shape; nothing is
// materialized.
func (s *Store) GradePage(gradeID string) (GradePage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.root.Grades.Get(gradeID)
	if !ok {
		return GradePage{}, fmt.Errorf("%w: %s", ErrGradeNotFound, gradeID)
	}

	page := GradePage{Grade: g, Subjects: []SubjectPage{}}
	for _, id := range s.root.Subjects.Keys() {
		sub, _ := s.root.Subjects.Get(id)
		if !sub.AppliesTo(gradeID) {
			continue
		}
		page.Subjects = append(page.Subjects, SubjectPage{
			ID:        id,
			Name:      sub.Name,
			Icon:      sub.Icon,
			Grades:    append([]string{}, sub.Grades...),
			Resources: s.root.bundle(gradeID, id).Clone(),
			Videos:    append([]Video{}, s.root.Videos[gradeID][id]...),
		})
	}
	return page, nil
}
