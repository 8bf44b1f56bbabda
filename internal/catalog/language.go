package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is an instruction medium. For textbooks the medium doubles as the
// language tag.
type Language string

const (
	Sinhala Language = "sinhala"
	Tamil   Language = "tamil"
	English Language = "english"
)

// Languages lists the supported mediums in display order.
var Languages = []Language{Sinhala, Tamil, English}

// ParseLanguage accepts a medium name in any case.
func ParseLanguage(s string) (Language, error) {
	l := Language(cases.Fold().String(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, s)
	}
	return l, nil
}

// Valid reports whether l is one of the supported mediums.
func (l Language) Valid() bool {
	switch l {
	case Sinhala, Tamil, English:
		return true
	}
	return false
}

// Tag returns the BCP 47 tag of the medium.
func (l Language) Tag() language.Tag {
	switch l {
	case Sinhala:
		return language.Sinhala
	case Tamil:
		return language.Tamil
	default:
		return language.English
	}
}

// DisplayName renders the medium in its own script followed by the English
// name, e.g. "தமிழ் (Tamil)". English renders as "English".
func (l Language) DisplayName() string {
	tag := l.Tag()
	native := display.Self.Name(tag)
	english := display.English.Tags().Name(tag)
	if native == "" || native == english {
		return english
	}
	return fmt.Sprintf("%s (%s)", native, english)
}

// Selector picks either one language or every language.
type Selector string

// All selects every language.
const All Selector = "all"

// ParseSelector accepts "all", an empty string (treated as all), or a
// language name.
func ParseSelector(s string) (Selector, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.EqualFold(trimmed, string(All)) {
		return All, nil
	}
	l, err := ParseLanguage(trimmed)
	if err != nil {
		return "", err
	}
	return Selector(l), nil
}

// ForLanguage returns a selector for one language.
func ForLanguage(l Language) Selector {
	return Selector(l)
}

// Language returns the selected language, or false for All.
func (s Selector) Language() (Language, bool) {
	if s == All || s == "" {
		return "", false
	}
	return Language(s), true
}

func orEnglish(l Language) Language {
	if l == "" {
		return English
	}
	return l
}
