package catalog

import (
	"maps"
	"slices"
)

// Projection is a bundle and its videos filtered to one language.
type Projection struct {
	Resources Bundle  `json:"resources"`
	Videos    []Video `json:"videos"`
}

// Project returns the resources and videos of (grade, subject) filtered by
// sel. The result is a copy; the store is not modified.
func (s *Store) Project(gradeID, subjectID string, sel Selector) Projection {
	return Filter(s.Bundle(gradeID, subjectID), s.Videos(gradeID, subjectID), sel)
}

// Filter projects a bundle and video list onto sel. With All it is the
// identity. With a language, textbooks are kept by medium, and papers,
// notes and videos by their language attribute. Every category present in
// b stays present, possibly empty.
func Filter(b Bundle, videos []Video, sel Selector) Projection {
	b = b.Clone()
	videos = append([]Video{}, videos...)

	lang, ok := sel.Language()
	if !ok {
		return Projection{Resources: b, Videos: videos}
	}

	maps.DeleteFunc(b.Textbooks, func(medium Language, _ Textbook) bool { return medium != lang })
	for _, group := range []map[Category][]Paper{b.Papers.Terms, b.Papers.Chapters} {
		for c, list := range group {
			group[c] = slices.DeleteFunc(list, func(p Paper) bool { return orEnglish(p.Language) != lang })
		}
	}
	maps.DeleteFunc(b.Notes, func(_ NoteKey, n Note) bool { return orEnglish(n.Language) != lang })
	videos = slices.DeleteFunc(videos, func(v Video) bool { return orEnglish(v.Language) != lang })

	return Projection{Resources: b, Videos: videos}
}

// AvailableLanguages returns the languages present in the resources and
// videos of (grade, subject), sorted.
func (s *Store) AvailableLanguages(gradeID, subjectID string) []Language {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[Language]struct{})
	b := s.root.Resources[gradeID][subjectID]
	for medium := range b.Textbooks {
		seen[medium] = struct{}{}
	}
	for _, c := range b.Papers.Categories() {
		for _, p := range b.Papers.List(c) {
			seen[orEnglish(p.Language)] = struct{}{}
		}
	}
	for _, n := range b.Notes {
		seen[orEnglish(n.Language)] = struct{}{}
	}
	for _, v := range s.root.Videos[gradeID][subjectID] {
		seen[orEnglish(v.Language)] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}
