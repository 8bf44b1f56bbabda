package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// CategoryKind separates term papers from chapter papers.
type CategoryKind int

const (
	TermCategory CategoryKind = iota + 1
	ChapterCategory
)

const (
	termPrefix    = "term"
	chapterPrefix = "chapter"

	// TermsPerYear is the number of school terms papers are grouped under.
	TermsPerYear = 3
)

// Category is a Term(n) or Chapter(n) grouping for papers.
type Category struct {
	Kind   CategoryKind
	Number int
}

// Term returns the category for school term n.
func Term(n int) Category { return Category{Kind: TermCategory, Number: n} }

// Chapter returns the category for chapter n.
func Chapter(n int) Category { return Category{Kind: ChapterCategory, Number: n} }

// Valid reports whether the category names a real term or chapter.
func (c Category) Valid() bool {
	switch c.Kind {
	case TermCategory:
		return c.Number >= 1 && c.Number <= TermsPerYear
	case ChapterCategory:
		return c.Number >= 1
	}
	return false
}

// PaperType returns "term" or "chapter".
func (c Category) PaperType() string {
	if c.Kind == TermCategory {
		return termPrefix
	}
	return chapterPrefix
}

// String returns the storage key, e.g. "term1" or "chapter3".
func (c Category) String() string {
	return c.PaperType() + strconv.Itoa(c.Number)
}

// Label returns a human readable name, e.g. "Term 1".
func (c Category) Label() string {
	if c.Kind == TermCategory {
		return fmt.Sprintf("Term %d", c.Number)
	}
	return fmt.Sprintf("Chapter %d", c.Number)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidCategory, c)
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategoryKey(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategoryKey parses a storage key such as "term2" or "chapter12".
func ParseCategoryKey(key string) (Category, error) {
	var c Category
	var digits string
	switch {
	case strings.HasPrefix(key, termPrefix):
		c.Kind = TermCategory
		digits = key[len(termPrefix):]
	case strings.HasPrefix(key, chapterPrefix):
		c.Kind = ChapterCategory
		digits = key[len(chapterPrefix):]
	default:
		return Category{}, fmt.Errorf("%w: %q", ErrInvalidCategory, key)
	}

	n, err := strconv.Atoi(digits)
	if err != nil || strconv.Itoa(n) != digits {
		return Category{}, fmt.Errorf("%w: %q", ErrInvalidCategory, key)
	}
	c.Number = n
	if !c.Valid() {
		return Category{}, fmt.Errorf("%w: %q", ErrInvalidCategory, key)
	}
	return c, nil
}

// ParseCategory parses the admin form pair (paper type, category key) and
// rejects a key that does not belong to the type.
func ParseCategory(paperType, key string) (Category, error) {
	c, err := ParseCategoryKey(key)
	if err != nil {
		return Category{}, err
	}
	if c.PaperType() != strings.ToLower(strings.TrimSpace(paperType)) {
		return Category{}, fmt.Errorf("%w: %q is not a %s category", ErrInvalidCategory, key, paperType)
	}
	return c, nil
}

// NoteKey identifies a note: one note per chapter per language.
type NoteKey struct {
	Chapter  string
	Language Language
}

// String returns the storage key "<chapter>_<language>".
func (k NoteKey) String() string {
	return k.Chapter + "_" + string(k.Language)
}

func (k NoteKey) MarshalText() ([]byte, error) {
	if k.Chapter == "" || !k.Language.Valid() {
		return nil, fmt.Errorf("catalog: invalid note key %+v", k)
	}
	return []byte(k.String()), nil
}

func (k *NoteKey) UnmarshalText(text []byte) error {
	parsed, err := ParseNoteKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseNoteKey splits "<chapter>_<language>" on the last underscore, so
// chapter labels may themselves contain underscores.
func ParseNoteKey(s string) (NoteKey, error) {
	i := strings.LastIndex(s, "_")
	if i <= 0 {
		return NoteKey{}, fmt.Errorf("catalog: note key %q has no language suffix", s)
	}
	lang := Language(s[i+1:])
	if !lang.Valid() {
		return NoteKey{}, fmt.Errorf("catalog: note key %q: %w", s, ErrInvalidLanguage)
	}
	return NoteKey{Chapter: s[:i], Language: lang}, nil
}
