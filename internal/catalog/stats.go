package catalog

// Stats summarizes the catalog.
type Stats struct {
	TotalGrades       int              `json:"totalGrades"`
	TotalSubjects     int              `json:"totalSubjects"`
	TotalResources    int              `json:"totalResources"`
	TotalVideos       int              `json:"totalVideos"`
	LanguageBreakdown map[Language]int `json:"languageBreakdown"`
}

// KindCounts are the resource totals of one grade.
type KindCounts struct {
	Textbooks int `json:"textbooks"`
	Papers    int `json:"papers"`
	Notes     int `json:"notes"`
	Videos    int `json:"videos"`
}

// Stats counts grades, subjects, resources and videos across the catalog.
// Textbooks count toward their medium; papers, notes and videos toward
// their language. Every supported language appears in the breakdown.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return computeStats(&s.root)
}

func computeStats(r *Root) Stats {
	st := Stats{
		TotalGrades:       r.Grades.Len(),
		TotalSubjects:     r.Subjects.Len(),
		LanguageBreakdown: make(map[Language]int, len(Languages)),
	}
	for _, l := range Languages {
		st.LanguageBreakdown[l] = 0
	}

	for _, subjects := range r.Resources {
		for _, b := range subjects {
			st.TotalResources += b.Count()
			for medium := range b.Textbooks {
				st.LanguageBreakdown[medium]++
			}
			for _, c := range b.Papers.Categories() {
				for _, p := range b.Papers.List(c) {
					st.LanguageBreakdown[orEnglish(p.Language)]++
				}
			}
			for _, n := range b.Notes {
				st.LanguageBreakdown[orEnglish(n.Language)]++
			}
		}
	}

	for _, subjects := range r.Videos {
		for _, list := range subjects {
			st.TotalVideos += len(list)
			for _, v := range list {
				st.LanguageBreakdown[orEnglish(v.Language)]++
			}
		}
	}
	return st
}

// RecentActivities returns the newest limit activities. A limit of zero or
// less means 10.
func (s *Store) RecentActivities(limit int) []Activity {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	acts := s.root.Settings.Activities
	return append([]Activity{}, acts[:min(limit, len(acts))]...)
}

// SubjectPaperCount returns the number of papers across every category of
// (grade, subject).
func (s *Store) SubjectPaperCount(gradeID, subjectID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Resources[gradeID][subjectID].Papers.Count()
}

// CountByKind totals the resources of a grade over its subjects.
func (s *Store) CountByKind(gradeID string) KindCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var kc KindCounts
	for _, id := range s.root.Subjects.Keys() {
		sub, _ := s.root.Subjects.Get(id)
		if !sub.AppliesTo(gradeID) {
			continue
		}
		b := s.root.Resources[gradeID][id]
		kc.Textbooks += len(b.Textbooks)
		kc.Papers += b.Papers.Count()
		kc.Notes += len(b.Notes)
		kc.Videos += len(s.root.Videos[gradeID][id])
	}
	return kc
}
