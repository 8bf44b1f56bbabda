package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
)

// passwordCost is the bcrypt cost for admin password hashes.
var passwordCost = bcrypt.DefaultCost

// MigrationReport describes what Migrate changed.
type MigrationReport struct {
	From int
	To   int

	WrappedPapers     int
	DefaultedPapers   int
	DefaultedNotes    int
	RekeyedNotes      int
	DefaultedVideos   int
	GeneratedIDs      int
	ReplacedIDs       int
	UnknownLanguages  int
	SkippedCategories int
	HashedPassword    bool
}

// Changed reports whether the blob was rewritten to a newer schema.
func (r MigrationReport) Changed() bool {
	return r.From != r.To
}

// Summary renders the report as one activity message.
func (r MigrationReport) Summary() string {
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(r.WrappedPapers, "papers wrapped")
	add(r.DefaultedPapers, "paper languages defaulted")
	add(r.DefaultedNotes, "note languages defaulted")
	add(r.RekeyedNotes, "notes re-keyed")
	add(r.DefaultedVideos, "video languages defaulted")
	add(r.GeneratedIDs, "ids generated")
	add(r.ReplacedIDs, "duplicate ids replaced")
	add(r.UnknownLanguages, "unknown languages set to english")
	add(r.SkippedCategories, "empty categories dropped")
	if r.HashedPassword {
		parts = append(parts, "admin password hashed")
	}

	msg := fmt.Sprintf("Migrated data from schema v%d to v%d", r.From, r.To)
	if len(parts) > 0 {
		msg += " (" + strings.Join(parts, ", ") + ")"
	}
	return msg
}

// migration rewrites a blob of version from into version from+1.
type migration struct {
	from  int
	apply func(m *migrator, data []byte) ([]byte, error)
}

var migrations = []migration{
	{from: 0, apply: (*migrator).v0ToV1},
}

type migrator struct {
	newID  func() string
	report MigrationReport
	// seen holds the paper and video ids handed out so far.
	seen   map[string]bool
}

// Migrate decodes a persisted blob of any supported schema version and
// returns it as a current root. Running it on its own output is a no-op.
func Migrate(data []byte) (Root, MigrationReport, error) {
	return migrate(data, uuid.NewString)
}

func migrate(data []byte, newID func() string) (Root, MigrationReport, error) {
	version, err := schemaVersionOf(data)
	if err != nil {
		return Root{}, MigrationReport{}, err
	}
	if version < 0 || version > SchemaVersion {
		return Root{}, MigrationReport{}, fmt.Errorf("%w: %d (current %d)", ErrUnsupportedSchema, version, SchemaVersion)
	}

	m := &migrator{
		newID:  newID,
		report: MigrationReport{From: version, To: version},
		seen:   make(map[string]bool),
	}
	for _, step := range migrations {
		if step.from != m.report.To {
			continue
		}
		data, err = step.apply(m, data)
		if err != nil {
			return Root{}, MigrationReport{}, fmt.Errorf("%w: migrating from v%d: %w", ErrCorruptStore, step.from, err)
		}
		m.report.To = step.from + 1
	}

	var root Root
	if err := json.Unmarshal(data, &root); err != nil {
		return Root{}, MigrationReport{}, fmt.Errorf("%w: %w", ErrCorruptStore, err)
	}
	root.SchemaVersion = SchemaVersion
	root.normalize()
	return root, m.report, nil
}

func schemaVersionOf(data []byte) (int, error) {
	var head map[string]json.RawMessage
	if err := json.Unmarshal(data, &head); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCorruptStore, err)
	}
	if head == nil {
		return 0, fmt.Errorf("%w: root is null", ErrCorruptStore)
	}
	raw, ok := head["schemaVersion"]
	if !ok {
		return 0, nil
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("%w: schemaVersion: %w", ErrCorruptStore, err)
	}
	return v, nil
}

// Legacy v0 shapes. The browser build wrote no version tag, papers could be
// single objects, and notes, papers and videos had no language.

type legacyRoot struct {
	Grades    Ordered[legacyGrade]                `json:"grades"`
	Subjects  Ordered[Subject]                    `json:"subjects"`
	Resources map[string]map[string]legacyBundle  `json:"resources"`
	Videos    map[string]map[string][]legacyVideo `json:"videos"`
	Settings  legacySettings                      `json:"settings"`
}

type legacyGrade struct {
	Name    string `json:"name"`
	Display string `json:"display"`
	Active  *bool  `json:"active"`
}

type legacyBundle struct {
	Textbooks map[string]legacyFile `json:"textbooks"`
	Papers    struct {
		Terms    json.RawMessage `json:"terms"`
		Chapters json.RawMessage `json:"chapters"`
	} `json:"papers"`
	Notes map[string]legacyFile `json:"notes"`
}

type legacyFile struct {
	ID         legacyID   `json:"id"`
	Filename   string     `json:"filename"`
	Path       string     `json:"path"`
	Size       int64      `json:"size"`
	School     string     `json:"school"`
	Language   string     `json:"language"`
	Chapter    string     `json:"chapter"`
	UploadDate legacyTime `json:"uploadDate"`
}

type legacyVideo struct {
	ID          legacyID   `json:"id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Chapter     string     `json:"chapter"`
	Description string     `json:"description"`
	Language    string     `json:"language"`
	AddedDate   legacyTime `json:"addedDate"`
}

type legacySettings struct {
	SiteName          string           `json:"siteName"`
	AdminPassword     string           `json:"adminPassword"`
	AdminPasswordHash string           `json:"adminPasswordHash"`
	LastUpdated       legacyTime       `json:"lastUpdated"`
	Activities        []legacyActivity `json:"activities"`
}

type legacyActivity struct {
	ID        legacyID   `json:"id"`
	Message   string     `json:"message"`
	Timestamp legacyTime `json:"timestamp"`
}

// legacyID accepts both string and numeric ids (Date.now() values).
type legacyID string

func (id *legacyID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = legacyID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = legacyID(n.String())
	return nil
}

// legacyTime tolerates empty and unparseable timestamps.
type legacyTime time.Time

func (t *legacyTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = legacyTime{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		*t = legacyTime{}
		return nil
	}
	*t = legacyTime(parsed)
	return nil
}

func (m *migrator) v0ToV1(data []byte) ([]byte, error) {
	var legacy legacyRoot
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}

	root := Root{
		SchemaVersion: 1,
		Subjects:      legacy.Subjects,
		Resources:     make(map[string]map[string]Bundle, len(legacy.Resources)),
		Videos:        make(map[string]map[string][]Video, len(legacy.Videos)),
	}

	for _, id := range legacy.Grades.Keys() {
		lg, _ := legacy.Grades.Get(id)
		root.Grades.Set(id, Grade{
			Name:    lg.Name,
			Display: lg.Display,
			Active:  lg.Active == nil || *lg.Active,
		})
	}

	for gradeID, subjects := range legacy.Resources {
		out := make(map[string]Bundle, len(subjects))
		for subjectID, lb := range subjects {
			b, err := m.bundle(lb)
			if err != nil {
				return nil, fmt.Errorf("resources %s/%s: %w", gradeID, subjectID, err)
			}
			out[subjectID] = b
		}
		root.Resources[gradeID] = out
	}

	for gradeID, subjects := range legacy.Videos {
		out := make(map[string][]Video, len(subjects))
		for subjectID, list := range subjects {
			videos := make([]Video, 0, len(list))
			for _, lv := range list {
				videos = append(videos, Video{
					ID:          m.uniqueID(lv.ID),
					Title:       lv.Title,
					URL:         lv.URL,
					Chapter:     lv.Chapter,
					Description: lv.Description,
					Language:    m.language(lv.Language, &m.report.DefaultedVideos),
					AddedDate:   time.Time(lv.AddedDate),
				})
			}
			out[subjectID] = videos
		}
		root.Videos[gradeID] = out
	}

	settings, err := m.settings(legacy.Settings)
	if err != nil {
		return nil, err
	}
	root.Settings = settings

	return json.Marshal(root)
}

func (m *migrator) bundle(lb legacyBundle) (Bundle, error) {
	b := Bundle{
		Textbooks: make(map[Language]Textbook, len(lb.Textbooks)),
		Notes:     make(map[NoteKey]Note, len(lb.Notes)),
	}

	for medium, f := range lb.Textbooks {
		lang, err := ParseLanguage(medium)
		if err != nil {
			return Bundle{}, fmt.Errorf("textbook: %w", err)
		}
		b.Textbooks[lang] = Textbook{
			Filename:   f.Filename,
			Path:       f.Path,
			Size:       f.Size,
			Language:   lang,
			UploadDate: time.Time(f.UploadDate),
		}
	}

	var err error
	if b.Papers.Terms, err = m.paperGroup(lb.Papers.Terms, TermCategory); err != nil {
		return Bundle{}, fmt.Errorf("term papers: %w", err)
	}
	if b.Papers.Chapters, err = m.paperGroup(lb.Papers.Chapters, ChapterCategory); err != nil {
		return Bundle{}, fmt.Errorf("chapter papers: %w", err)
	}

	m.notes(lb.Notes, b.Notes)
	b.normalize()
	return b, nil
}

// paperGroup decodes a category map whose values are either one paper object
// or a list of papers. The oldest builds stored the group itself as a list,
// positioned by category number. Keys are matched leniently; a key that still
// cannot be read fails the migration unless it holds no papers.
func (m *migrator) paperGroup(raw json.RawMessage, kind CategoryKind) (map[Category][]Paper, error) {
	out := make(map[Category][]Paper)
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}

	values := make(map[string]json.RawMessage)
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		for i, v := range list {
			values[Category{Kind: kind, Number: i + 1}.String()] = v
		}
	} else if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}

	// Sorted so keys that normalize to the same category merge in a stable order.
	for _, key := range slices.Sorted(maps.Keys(values)) {
		files, wrapped, err := legacyPapers(values[key])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}

		c, err := legacyCategory(key)
		if err != nil || c.Kind != kind {
			if len(files) > 0 {
				return nil, fmt.Errorf("%w: %q holds %d papers", ErrInvalidCategory, key, len(files))
			}
			slog.Warn("dropping empty legacy paper category", "category", key)
			m.report.SkippedCategories++
			continue
		}
		if c.String() != key {
			slog.Info("normalized legacy paper category", "from", key, "to", c.String())
		}

		papers := out[c]
		if papers == nil {
			papers = []Paper{}
		}
		for _, f := range files {
			if wrapped {
				if f.School == "" {
					f.School = UnknownSchool
				}
				m.report.WrappedPapers++
			}
			papers = append(papers, m.paper(f))
		}
		out[c] = papers
	}
	return out, nil
}

// legacyPapers decodes one category value: null, a single paper object
// (wrapped reports true) or a list of papers.
func legacyPapers(value json.RawMessage) (files []legacyFile, wrapped bool, err error) {
	value = bytes.TrimSpace(value)
	switch {
	case len(value) == 0 || bytes.Equal(value, []byte("null")):
		return nil, false, nil
	case value[0] == '{':
		var f legacyFile
		if err := json.Unmarshal(value, &f); err != nil {
			return nil, false, err
		}
		return []legacyFile{f}, true, nil
	default:
		if err := json.Unmarshal(value, &files); err != nil {
			return nil, false, err
		}
		return files, false, nil
	}
}

// legacyCategory parses a category key as old builds wrote it: any case,
// inner spaces and leading zeros allowed ("Chapter 04" is chapter4).
func legacyCategory(key string) (Category, error) {
	k := strings.Join(strings.Fields(cases.Fold().String(key)), "")
	for _, prefix := range []string{termPrefix, chapterPrefix} {
		if digits, ok := strings.CutPrefix(k, prefix); ok {
			if trimmed := strings.TrimLeft(digits, "0"); trimmed != "" {
				k = prefix + trimmed
			}
			break
		}
	}
	return ParseCategoryKey(k)
}

func (m *migrator) paper(f legacyFile) Paper {
	return Paper{
		ID:         m.uniqueID(f.ID),
		Filename:   f.Filename,
		Path:       f.Path,
		Size:       f.Size,
		School:     f.School,
		Language:   m.language(f.Language, &m.report.DefaultedPapers),
		UploadDate: time.Time(f.UploadDate),
	}
}

// notes re-keys legacy notes to "<chapter>_<language>". Entries already
// under their composite key are placed first so they win any collision.
func (m *migrator) notes(legacy map[string]legacyFile, out map[NoteKey]Note) {
	type pending struct {
		key  NoteKey
		note Note
	}
	var rekeyed []pending

	for key, f := range legacy {
		lang := m.language(f.Language, &m.report.DefaultedNotes)
		chapter := f.Chapter
		if chapter == "" {
			chapter = key
			if nk, err := ParseNoteKey(key); err == nil && nk.Language == lang {
				chapter = nk.Chapter
			}
		}
		if chapter == "" {
			slog.Warn("skipping legacy note without chapter")
			continue
		}
		nk := NoteKey{Chapter: chapter, Language: lang}
		note := Note{
			Filename:   f.Filename,
			Path:       f.Path,
			Size:       f.Size,
			Language:   lang,
			Chapter:    chapter,
			UploadDate: time.Time(f.UploadDate),
		}
		if nk.String() == key {
			out[nk] = note
			continue
		}
		rekeyed = append(rekeyed, pending{key: nk, note: note})
	}

	for _, p := range rekeyed {
		if _, exists := out[p.key]; exists {
			slog.Warn("dropping legacy note shadowed by composite key", "key", p.key.String())
			continue
		}
		out[p.key] = p.note
		m.report.RekeyedNotes++
	}
}

func (m *migrator) settings(ls legacySettings) (Settings, error) {
	s := Settings{
		SiteName:          ls.SiteName,
		AdminPasswordHash: ls.AdminPasswordHash,
		LastUpdated:       time.Time(ls.LastUpdated),
		Activities:        make([]Activity, 0, len(ls.Activities)),
	}
	if s.SiteName == "" {
		s.SiteName = DefaultSiteName
	}
	if s.AdminPasswordHash == "" && ls.AdminPassword != "" {
		hash, err := hashPassword(ls.AdminPassword)
		if err != nil {
			return Settings{}, err
		}
		s.AdminPasswordHash = hash
		m.report.HashedPassword = true
	}
	for _, a := range ls.Activities {
		s.Activities = append(s.Activities, Activity{
			ID:        m.id(a.ID),
			Message:   a.Message,
			Timestamp: time.Time(a.Timestamp),
		})
	}
	if len(s.Activities) > MaxActivities {
		s.Activities = s.Activities[:MaxActivities]
	}
	return s, nil
}

func (m *migrator) id(id legacyID) string {
	if id != "" {
		return string(id)
	}
	m.report.GeneratedIDs++
	return m.newID()
}

// uniqueID is id for papers and videos, replacing an id already handed out.
// Old builds derived ids from the clock, so items added together collide.
func (m *migrator) uniqueID(id legacyID) string {
	out := m.id(id)
	if m.seen[out] {
		m.report.ReplacedIDs++
		out = m.newID()
	}
	m.seen[out] = true
	return out
}

// language parses a legacy language field. A missing language defaults to
// english and counts in *defaulted; an unknown one also becomes english but
// counts as UnknownLanguages.
func (m *migrator) language(s string, defaulted *int) Language {
	if strings.TrimSpace(s) == "" {
		*defaulted++
		return English
	}
	l, err := ParseLanguage(s)
	if err != nil {
		slog.Warn("unknown legacy language set to english", "language", s)
		m.report.UnknownLanguages++
		return English
	}
	return l
}

func hashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), passwordCost)
	if err != nil {
		return "", fmt.Errorf("hashing admin password: %w", err)
	}
	return string(hash), nil
}
