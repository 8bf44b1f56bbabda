// Package catalog is the Teaching Torch resource catalog: grades, subjects,
// per-(grade, subject) resource bundles, videos and the activity log, held as
// one root that is mirrored into a key-value backend on every change.
package catalog

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

const (
	// DefaultKey is the storage key the catalog root is persisted under.
	DefaultKey = "teachingTorchData"

	// SchemaVersion is the version tag written with every root.
	SchemaVersion = 1

	// MaxActivities bounds the activity log.
	MaxActivities = 50

	// DefaultSiteName is the site name of a freshly seeded catalog.
	DefaultSiteName = "Teaching Torch"

	// UnknownSchool names the school of papers migrated without one.
	UnknownSchool = "Unknown School"
)

// Grade is a school level. ID is the map key and is not encoded.
type Grade struct {
	ID      string `json:"-"`
	Name    string `json:"name"`
	Display string `json:"display"`
	Active  bool   `json:"active"`
}

// Subject is taught in a set of grades. ID is the map key and is not encoded.
type Subject struct {
	ID     string   `json:"-"`
	Name   string   `json:"name"`
	Icon   string   `json:"icon"`
	Grades []string `json:"grades"`
}

// AppliesTo reports whether the subject is offered in the grade.
func (s Subject) AppliesTo(gradeID string) bool {
	return slices.Contains(s.Grades, gradeID)
}

func (s Subject) clone() Subject {
	s.Grades = slices.Clone(s.Grades)
	if s.Grades == nil {
		s.Grades = []string{}
	}
	return s
}

// FileData describes an uploaded file. Uploaders produce it; the store only
// accepts complete descriptors.
type FileData struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Type     string `json:"type,omitempty"`
}

// Validate rejects descriptors with no filename or a negative size.
func (f FileData) Validate() error {
	if strings.TrimSpace(f.Filename) == "" {
		return fmt.Errorf("%w: missing filename", ErrIncompleteFile)
	}
	if f.Size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrIncompleteFile, f.Size)
	}
	return nil
}

// Textbook is the textbook of one medium for a (grade, subject).
type Textbook struct {
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	Language   Language  `json:"language"`
	UploadDate time.Time `json:"uploadDate"`
}

// Paper is an exam paper. Many papers may share a category.
type Paper struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	School     string    `json:"school"`
	Language   Language  `json:"language"`
	UploadDate time.Time `json:"uploadDate"`
}

// Note is a chapter summary in one language.
type Note struct {
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	Language   Language  `json:"language"`
	Chapter    string    `json:"chapter"`
	UploadDate time.Time `json:"uploadDate"`
}

// Papers groups papers by term and by chapter.
type Papers struct {
	Terms    map[Category][]Paper `json:"terms"`
	Chapters map[Category][]Paper `json:"chapters"`
}

// List returns the papers of a category.
func (p Papers) List(c Category) []Paper {
	if c.Kind == TermCategory {
		return p.Terms[c]
	}
	return p.Chapters[c]
}

func (p *Papers) group(c Category) map[Category][]Paper {
	if c.Kind == TermCategory {
		if p.Terms == nil {
			p.Terms = make(map[Category][]Paper)
		}
		return p.Terms
	}
	if p.Chapters == nil {
		p.Chapters = make(map[Category][]Paper)
	}
	return p.Chapters
}

// Count returns the number of papers across every category.
func (p Papers) Count() int {
	n := 0
	for _, list := range p.Terms {
		n += len(list)
	}
	for _, list := range p.Chapters {
		n += len(list)
	}
	return n
}

// Categories returns every present category, terms first, each group in
// numeric order.
func (p Papers) Categories() []Category {
	out := make([]Category, 0, len(p.Terms)+len(p.Chapters))
	out = append(out, sortedCategories(p.Terms)...)
	out = append(out, sortedCategories(p.Chapters)...)
	return out
}

func sortedCategories(m map[Category][]Paper) []Category {
	keys := slices.Collect(maps.Keys(m))
	slices.SortFunc(keys, func(a, b Category) int { return a.Number - b.Number })
	return keys
}

// Bundle holds the textbooks, papers and notes of one (grade, subject).
type Bundle struct {
	Textbooks map[Language]Textbook `json:"textbooks"`
	Papers    Papers                `json:"papers"`
	Notes     map[NoteKey]Note      `json:"notes"`
}

// NewBundle returns the empty default shape: no textbooks, the three term
// categories present and empty, no chapters, no notes.
func NewBundle() Bundle {
	b := Bundle{}
	b.normalize()
	return b
}

// normalize fills nil maps and makes term1..term3 present.
func (b *Bundle) normalize() {
	if b.Textbooks == nil {
		b.Textbooks = make(map[Language]Textbook)
	}
	if b.Notes == nil {
		b.Notes = make(map[NoteKey]Note)
	}
	if b.Papers.Terms == nil {
		b.Papers.Terms = make(map[Category][]Paper)
	}
	if b.Papers.Chapters == nil {
		b.Papers.Chapters = make(map[Category][]Paper)
	}
	for n := 1; n <= TermsPerYear; n++ {
		if b.Papers.Terms[Term(n)] == nil {
			b.Papers.Terms[Term(n)] = []Paper{}
		}
	}
	for c, list := range b.Papers.Chapters {
		if list == nil {
			b.Papers.Chapters[c] = []Paper{}
		}
	}
}

// Count returns the number of resources in the bundle.
func (b Bundle) Count() int {
	return len(b.Textbooks) + b.Papers.Count() + len(b.Notes)
}

// Empty reports whether the bundle holds no resources.
func (b Bundle) Empty() bool {
	return b.Count() == 0
}

// Clone deep copies the bundle.
func (b Bundle) Clone() Bundle {
	out := Bundle{
		Textbooks: maps.Clone(b.Textbooks),
		Notes:     maps.Clone(b.Notes),
		Papers: Papers{
			Terms:    clonePaperGroup(b.Papers.Terms),
			Chapters: clonePaperGroup(b.Papers.Chapters),
		},
	}
	out.normalize()
	return out
}

func clonePaperGroup(m map[Category][]Paper) map[Category][]Paper {
	if m == nil {
		return nil
	}
	out := make(map[Category][]Paper, len(m))
	for c, list := range m {
		out[c] = append([]Paper{}, list...)
	}
	return out
}

// Video is a lesson link.
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Chapter     string    `json:"chapter"`
	Description string    `json:"description"`
	Language    Language  `json:"language"`
	AddedDate   time.Time `json:"addedDate"`
}

// Activity is one entry of the activity log.
type Activity struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Settings holds site-wide configuration and the activity log.
type Settings struct {
	SiteName          string     `json:"siteName"`
	AdminPasswordHash string     `json:"adminPasswordHash,omitempty"`
	LastUpdated       time.Time  `json:"lastUpdated"`
	Activities        []Activity `json:"activities"`
}

// Root is the unit of persistence.
type Root struct {
	SchemaVersion int                           `json:"schemaVersion"`
	Grades        Ordered[Grade]                `json:"grades"`
	Subjects      Ordered[Subject]              `json:"subjects"`
	Resources     map[string]map[string]Bundle  `json:"resources"`
	Videos        map[string]map[string][]Video `json:"videos"`
	Settings      Settings                      `json:"settings"`
}

// Clone deep copies the root.
func (r *Root) Clone() Root {
	out := Root{
		SchemaVersion: r.SchemaVersion,
		Grades:        r.Grades.Clone(func(g Grade) Grade { return g }),
		Subjects:      r.Subjects.Clone(Subject.clone),
		Resources:     make(map[string]map[string]Bundle, len(r.Resources)),
		Videos:        make(map[string]map[string][]Video, len(r.Videos)),
		Settings:      r.Settings,
	}
	out.Settings.Activities = append([]Activity{}, r.Settings.Activities...)

	for g, subjects := range r.Resources {
		m := make(map[string]Bundle, len(subjects))
		for s, b := range subjects {
			m[s] = b.Clone()
		}
		out.Resources[g] = m
	}
	for g, subjects := range r.Videos {
		m := make(map[string][]Video, len(subjects))
		for s, list := range subjects {
			m[s] = append([]Video{}, list...)
		}
		out.Videos[g] = m
	}
	return out
}

// normalize fills nil containers so readers never see nil maps or lists.
func (r *Root) normalize() {
	if r.Resources == nil {
		r.Resources = make(map[string]map[string]Bundle)
	}
	for g, subjects := range r.Resources {
		if subjects == nil {
			r.Resources[g] = make(map[string]Bundle)
			continue
		}
		for s, b := range subjects {
			b.normalize()
			subjects[s] = b
		}
	}
	if r.Videos == nil {
		r.Videos = make(map[string]map[string][]Video)
	}
	for g, subjects := range r.Videos {
		if subjects == nil {
			r.Videos[g] = make(map[string][]Video)
			continue
		}
		for s, list := range subjects {
			if list == nil {
				subjects[s] = []Video{}
			}
		}
	}
	for _, id := range r.Grades.Keys() {
		g, _ := r.Grades.Get(id)
		g.ID = id
		r.Grades.Set(id, g)
	}
	for _, id := range r.Subjects.Keys() {
		s, _ := r.Subjects.Get(id)
		s.ID = id
		if s.Grades == nil {
			s.Grades = []string{}
		}
		r.Subjects.Set(id, s)
	}
	if r.Settings.Activities == nil {
		r.Settings.Activities = []Activity{}
	}
}
