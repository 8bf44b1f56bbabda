package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Resource kinds accepted by DeleteResource.
const (
	KindTextbook = "textbook"
	KindPaper    = "paper"
	KindNotes    = "notes"
)

// PaperOptions carries the optional attributes of a paper.
type PaperOptions struct {
	School   string
	Language Language
}

// VideoInput is the caller supplied part of a video.
type VideoInput struct {
	Title       string
	URL         string
	Chapter     string
	Description string
	Language    Language
}

// Bundle returns the resources of (grade, subject), or the empty default
// shape when none exist. It never modifies the store.
func (s *Store) Bundle(gradeID, subjectID string) Bundle {
	b, _ := s.LookupBundle(gradeID, subjectID)
	return b
}

// LookupBundle returns a copy of the stored bundle and whether one exists.
// When it does not, the returned bundle is the empty default shape.
func (s *Store) LookupBundle(gradeID, subjectID string) (Bundle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.root.Resources[gradeID][subjectID]
	if !ok {
		return NewBundle(), false
	}
	return b.Clone(), true
}

// GetOrCreateBundle returns the bundle of (grade, subject), materializing the
// empty default shape in memory when absent. The materialized bundle is not
// written on its own; it is persisted with the next mutation.
func (s *Store) GetOrCreateBundle(gradeID, subjectID string) Bundle {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.root.bundle(gradeID, subjectID)
	s.root.setBundle(gradeID, subjectID, b)
	return b.Clone()
}

// Videos returns the videos of (grade, subject). The result is never nil.
func (s *Store) Videos(gradeID, subjectID string) []Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Video{}, s.root.Videos[gradeID][subjectID]...)
}

func (r *Root) bundle(gradeID, subjectID string) Bundle {
	if b, ok := r.Resources[gradeID][subjectID]; ok {
		return b
	}
	return NewBundle()
}

func (r *Root) setBundle(gradeID, subjectID string, b Bundle) {
	if r.Resources[gradeID] == nil {
		r.Resources[gradeID] = make(map[string]Bundle)
	}
	r.Resources[gradeID][subjectID] = b
}

// pair resolves a (grade, subject) for a mutation.
func (r *Root) pair(gradeID, subjectID string) (Grade, Subject, error) {
	g, ok := r.Grades.Get(gradeID)
	if !ok {
		return Grade{}, Subject{}, fmt.Errorf("%w: %s", ErrGradeNotFound, gradeID)
	}
	sub, ok := r.Subjects.Get(subjectID)
	if !ok {
		return Grade{}, Subject{}, fmt.Errorf("%w: %s", ErrSubjectNotFound, subjectID)
	}
	return g, sub, nil
}

// PutTextbook stores the textbook of a medium, replacing any previous one.
func (s *Store) PutTextbook(ctx context.Context, gradeID, subjectID string, medium Language, file FileData) error {
	if !medium.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, medium)
	}
	if err := file.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, func(r *Root) (string, error) {
		g, sub, err := r.pair(gradeID, subjectID)
		if err != nil {
			return "", err
		}
		b := r.bundle(gradeID, subjectID)
		b.Textbooks[medium] = Textbook{
			Filename:   file.Filename,
			Path:       file.Path,
			Size:       file.Size,
			Language:   medium,
			UploadDate: s.now().UTC(),
		}
		r.setBundle(gradeID, subjectID, b)
		return fmt.Sprintf("Added %s textbook for %s - %s", medium, sub.Name, g.Display), nil
	})
}

// AddPaper appends a paper to a category and returns it.
func (s *Store) AddPaper(ctx context.Context, gradeID, subjectID string, c Category, file FileData, opts PaperOptions) (Paper, error) {
	if !c.Valid() {
		return Paper{}, fmt.Errorf("%w: %+v", ErrInvalidCategory, c)
	}
	if err := file.Validate(); err != nil {
		return Paper{}, err
	}
	lang := orEnglish(opts.Language)
	if !lang.Valid() {
		return Paper{}, fmt.Errorf("%w: %q", ErrInvalidLanguage, opts.Language)
	}

	p := Paper{
		ID:         s.newID(),
		Filename:   file.Filename,
		Path:       file.Path,
		Size:       file.Size,
		School:     strings.TrimSpace(opts.School),
		Language:   lang,
		UploadDate: s.now().UTC(),
	}
	err := s.mutate(ctx, func(r *Root) (string, error) {
		g, sub, err := r.pair(gradeID, subjectID)
		if err != nil {
			return "", err
		}
		b := r.bundle(gradeID, subjectID)
		group := b.Papers.group(c)
		group[c] = append(group[c], p)
		r.setBundle(gradeID, subjectID, b)

		school := p.School
		if school == "" {
			school = UnknownSchool
		}
		return fmt.Sprintf("Added %s paper (%s) from %s for %s - %s", c.PaperType(), c, school, sub.Name, g.Display), nil
	})
	if err != nil {
		return Paper{}, err
	}
	return p, nil
}

// DeletePaper removes one paper from a category. Unknown ids are a no-op.
func (s *Store) DeletePaper(ctx context.Context, gradeID, subjectID string, c Category, paperID string) error {
	return s.mutate(ctx, func(r *Root) (string, error) {
		b, ok := r.Resources[gradeID][subjectID]
		if !ok {
			return "", nil
		}
		list := b.Papers.List(c)
		kept := slices.DeleteFunc(append([]Paper{}, list...), func(p Paper) bool { return p.ID == paperID })
		if len(kept) == len(list) {
			return "", nil
		}
		b.Papers.group(c)[c] = kept
		r.setBundle(gradeID, subjectID, b)
		return fmt.Sprintf("Deleted %s paper (%s) with ID: %s", c.PaperType(), c, paperID), nil
	})
}

// PutNote stores the note of a chapter in a language, replacing any previous
// note with the same chapter and language. An empty language means english.
func (s *Store) PutNote(ctx context.Context, gradeID, subjectID, chapter string, file FileData, lang Language) error {
	chapter = strings.TrimSpace(chapter)
	if chapter == "" {
		return fmt.Errorf("%w: note chapter is empty", ErrIncompleteFile)
	}
	lang = orEnglish(lang)
	if !lang.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	if err := file.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, func(r *Root) (string, error) {
		_, sub, err := r.pair(gradeID, subjectID)
		if err != nil {
			return "", err
		}
		b := r.bundle(gradeID, subjectID)
		b.Notes[NoteKey{Chapter: chapter, Language: lang}] = Note{
			Filename:   file.Filename,
			Path:       file.Path,
			Size:       file.Size,
			Language:   lang,
			Chapter:    chapter,
			UploadDate: s.now().UTC(),
		}
		r.setBundle(gradeID, subjectID, b)
		return fmt.Sprintf("Added notes for %s - %s", chapter, sub.Name), nil
	})
}

// AddVideo appends a video and returns it. Title and URL are required.
func (s *Store) AddVideo(ctx context.Context, gradeID, subjectID string, in VideoInput) (Video, error) {
	title := strings.TrimSpace(in.Title)
	url := strings.TrimSpace(in.URL)
	if title == "" || url == "" {
		return Video{}, fmt.Errorf("%w: title and url are required", ErrInvalidVideo)
	}
	lang := orEnglish(in.Language)
	if !lang.Valid() {
		return Video{}, fmt.Errorf("%w: %q", ErrInvalidLanguage, in.Language)
	}

	v := Video{
		ID:          s.newID(),
		Title:       title,
		URL:         url,
		Chapter:     strings.TrimSpace(in.Chapter),
		Description: strings.TrimSpace(in.Description),
		Language:    lang,
		AddedDate:   s.now().UTC(),
	}
	err := s.mutate(ctx, func(r *Root) (string, error) {
		_, sub, err := r.pair(gradeID, subjectID)
		if err != nil {
			return "", err
		}
		if r.Videos[gradeID] == nil {
			r.Videos[gradeID] = make(map[string][]Video)
		}
		r.Videos[gradeID][subjectID] = append(r.Videos[gradeID][subjectID], v)
		return fmt.Sprintf("Added video: %s for %s", v.Title, sub.Name), nil
	})
	if err != nil {
		return Video{}, err
	}
	return v, nil
}

// DeleteVideo removes a video. Unknown ids are a no-op.
func (s *Store) DeleteVideo(ctx context.Context, gradeID, subjectID, videoID string) error {
	return s.mutate(ctx, func(r *Root) (string, error) {
		list, ok := r.Videos[gradeID][subjectID]
		if !ok {
			return "", nil
		}
		kept := slices.DeleteFunc(append([]Video{}, list...), func(v Video) bool { return v.ID == videoID })
		if len(kept) == len(list) {
			return "", nil
		}
		r.Videos[gradeID][subjectID] = kept
		return "Deleted video with ID: " + videoID, nil
	})
}

// DeleteResource is the coarse delete: a textbook by medium, a whole paper
// category by key, or a note by its "<chapter>_<language>" key. Term
// categories are emptied rather than removed. Unknown or malformed keys are
// a no-op for every kind.
func (s *Store) DeleteResource(ctx context.Context, gradeID, subjectID, kind, key string) error {
	var apply func(b *Bundle) bool
	switch kind {
	case KindTextbook:
		apply = func(b *Bundle) bool {
			lang, err := ParseLanguage(key)
			if err != nil {
				return false
			}
			if _, ok := b.Textbooks[lang]; !ok {
				return false
			}
			delete(b.Textbooks, lang)
			return true
		}
	case KindPaper:
		apply = func(b *Bundle) bool {
			c, err := ParseCategoryKey(key)
			if err != nil {
				return false
			}
			group := b.Papers.group(c)
			list, ok := group[c]
			if !ok {
				return false
			}
			if c.Kind == TermCategory {
				if len(list) == 0 {
					return false
				}
				group[c] = []Paper{}
				return true
			}
			delete(group, c)
			return true
		}
	case KindNotes:
		apply = func(b *Bundle) bool {
			nk, err := ParseNoteKey(key)
			if err != nil {
				return false
			}
			if _, ok := b.Notes[nk]; !ok {
				return false
			}
			delete(b.Notes, nk)
			return true
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownResource, kind)
	}

	return s.mutate(ctx, func(r *Root) (string, error) {
		b, ok := r.Resources[gradeID][subjectID]
		if !ok {
			return "", nil
		}
		if !apply(&b) {
			return "", nil
		}
		r.setBundle(gradeID, subjectID, b)
		return fmt.Sprintf("Deleted %s: %s", kind, key), nil
	})
}
