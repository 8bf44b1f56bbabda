package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/p-n-ai/teaching-torch/internal/curriculum"
	"github.com/p-n-ai/teaching-torch/internal/kv"
)

// DefaultAdminPassword seeds the admin password when none is configured.
const DefaultAdminPassword = "admin123"

// Config configures a Store.
type Config struct {
	Backend kv.Backend
	// Key is the storage key of the root. Defaults to DefaultKey.
	Key string
	// Seed is used on first run and on Reset. Defaults to curriculum.Default().
	Seed curriculum.Seed
	// AdminPassword seeds the admin password. Defaults to DefaultAdminPassword.
	AdminPassword string

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// Store is the catalog. It holds the root in memory and writes the full root
// to the backend on every mutation.
type Store struct {
	backend  kv.Backend
	key      string
	seed     curriculum.Seed
	password string
	now      func() time.Time
	newID    func() string

	mu   sync.RWMutex
	root Root

	// pubMu is taken before mu is released so subscribers see activities
	// in log order.
	pubMu   sync.Mutex
	subsMu  sync.Mutex
	subs    map[int]func(Activity)
	nextSub int
}

// Open loads the catalog from the backend. An absent key seeds the defaults.
// A blob that cannot be decoded fails with ErrCorruptStore.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Backend == nil {
		return nil, errors.New("catalog: backend is required")
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if len(cfg.Seed.Grades) == 0 && len(cfg.Seed.Subjects) == 0 {
		cfg.Seed = curriculum.Default()
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = DefaultAdminPassword
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	s := &Store{
		backend:  cfg.Backend,
		key:      cfg.Key,
		seed:     cfg.Seed,
		password: cfg.AdminPassword,
		now:      cfg.Now,
		newID:    cfg.NewID,
		subs:     make(map[int]func(Activity)),
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	data, err := s.backend.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		root, err := s.defaults()
		if err != nil {
			return err
		}
		if err := s.persist(ctx, &root); err != nil {
			return err
		}
		s.root = root
		slog.Info("catalog seeded",
			"key", s.key,
			"grades", root.Grades.Len(),
			"subjects", root.Subjects.Len(),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	root, report, err := migrate(data, s.newID)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	if report.Changed() {
		s.record(&root, report.Summary())
		if err := s.persist(ctx, &root); err != nil {
			return err
		}
		slog.Info("catalog migrated", "from", report.From, "to", report.To)
	}
	s.root = root
	return nil
}

func (s *Store) defaults() (Root, error) {
	hash, err := hashPassword(s.password)
	if err != nil {
		return Root{}, err
	}

	root := Root{
		SchemaVersion: SchemaVersion,
		Settings: Settings{
			SiteName:          DefaultSiteName,
			AdminPasswordHash: hash,
			LastUpdated:       s.now().UTC(),
		},
	}
	for _, g := range s.seed.Grades {
		root.Grades.Set(g.ID, Grade{
			ID:      g.ID,
			Name:    g.Name,
			Display: g.Display,
			Active:  g.IsActive(),
		})
	}
	for _, sub := range s.seed.Subjects {
		root.Subjects.Set(sub.ID, Subject{
			ID:     sub.ID,
			Name:   sub.Name,
			Icon:   sub.Icon,
			Grades: append([]string{}, sub.Grades...),
		})
	}
	root.normalize()
	return root, nil
}

func (s *Store) persist(ctx context.Context, root *Root) error {
	data, err := json.Marshal(root)
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("saving catalog: %w", err)
	}
	return nil
}

// record prepends an activity and stamps lastUpdated.
func (s *Store) record(root *Root, msg string) Activity {
	now := s.now().UTC()
	a := Activity{ID: s.newID(), Message: msg, Timestamp: now}

	acts := make([]Activity, 0, min(len(root.Settings.Activities)+1, MaxActivities))
	acts = append(acts, a)
	for _, old := range root.Settings.Activities {
		if len(acts) == MaxActivities {
			break
		}
		acts = append(acts, old)
	}
	root.Settings.Activities = acts
	root.Settings.LastUpdated = now
	return a
}

// mutate applies fn to a copy of the root. fn returns the activity message,
// or "" when nothing changed, in which case nothing is written or logged.
// The copy replaces the live root only after the backend write succeeds.
func (s *Store) mutate(ctx context.Context, fn func(r *Root) (string, error)) error {
	s.mu.Lock()
	next := s.root.Clone()
	msg, err := fn(&next)
	if err != nil || msg == "" {
		s.mu.Unlock()
		return err
	}
	a := s.record(&next, msg)
	if err := s.persist(ctx, &next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.commit(next, a)
	return nil
}

// commit swaps in root and delivers acts, oldest first. The caller holds mu;
// commit releases it.
func (s *Store) commit(root Root, acts ...Activity) {
	s.root = root
	s.pubMu.Lock()
	s.mu.Unlock()
	defer s.pubMu.Unlock()

	for _, a := range acts {
		s.publish(a)
	}
}

// Subscribe registers fn to receive every new activity after it has been
// persisted. Deliveries are serialized in log order; fn must not mutate the
// store. The returned func unregisters it.
func (s *Store) Subscribe(fn func(Activity)) (cancel func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) publish(a Activity) {
	s.subsMu.Lock()
	fns := make([]func(Activity), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(a)
	}
}

// Snapshot returns a deep copy of the root.
func (s *Store) Snapshot() Root {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Clone()
}

// Grades returns every grade in order.
func (s *Store) Grades() []Grade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Grade, 0, s.root.Grades.Len())
	for _, id := range s.root.Grades.Keys() {
		g, _ := s.root.Grades.Get(id)
		out = append(out, g)
	}
	return out
}

// Grade returns one grade.
func (s *Store) Grade(id string) (Grade, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Grades.Get(id)
}

// PutGrade adds a grade or replaces the grade with the same id.
func (s *Store) PutGrade(ctx context.Context, g Grade) error {
	g.ID = strings.TrimSpace(g.ID)
	if err := validID(g.ID); err != nil {
		return err
	}
	if g.Display == "" {
		g.Display = g.Name
	}
	return s.mutate(ctx, func(r *Root) (string, error) {
		verb := "Added new"
		if r.Grades.Has(g.ID) {
			verb = "Updated"
		}
		r.Grades.Set(g.ID, g)
		return fmt.Sprintf("%s grade: %s", verb, g.Display), nil
	})
}

// DeleteGrade removes a grade. Subjects keep their grade references. A grade
// that still owns uploaded content fails with ErrHasDependents; empty
// bundles and video lists under it are dropped. Unknown ids are a no-op.
func (s *Store) DeleteGrade(ctx context.Context, id string) error {
	return s.mutate(ctx, func(r *Root) (string, error) {
		if !r.Grades.Has(id) {
			return "", nil
		}
		for subjectID, b := range r.Resources[id] {
			if !b.Empty() {
				return "", fmt.Errorf("%w: grade %s has resources for %s", ErrHasDependents, id, subjectID)
			}
		}
		for subjectID, list := range r.Videos[id] {
			if len(list) > 0 {
				return "", fmt.Errorf("%w: grade %s has videos for %s", ErrHasDependents, id, subjectID)
			}
		}
		delete(r.Resources, id)
		delete(r.Videos, id)
		r.Grades.Delete(id)
		return "Deleted grade: " + id, nil
	})
}

// Subjects returns every subject in order.
func (s *Store) Subjects() []Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subjects(func(Subject) bool { return true })
}

// SubjectsForGrade returns, in order, the subjects offered in the grade.
func (s *Store) SubjectsForGrade(gradeID string) []Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subjects(func(sub Subject) bool { return sub.AppliesTo(gradeID) })
}

func (s *Store) subjects(keep func(Subject) bool) []Subject {
	out := make([]Subject, 0, s.root.Subjects.Len())
	for _, id := range s.root.Subjects.Keys() {
		sub, _ := s.root.Subjects.Get(id)
		if keep(sub) {
			out = append(out, sub.clone())
		}
	}
	return out
}

// Subject returns one subject.
func (s *Store) Subject(id string) (Subject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.root.Subjects.Get(id)
	if !ok {
		return Subject{}, false
	}
	return sub.clone(), true
}

// PutSubject adds a subject or replaces the subject with the same id.
func (s *Store) PutSubject(ctx context.Context, sub Subject) error {
	sub.ID = strings.TrimSpace(sub.ID)
	if err := validID(sub.ID); err != nil {
		return err
	}
	sub = sub.clone()
	return s.mutate(ctx, func(r *Root) (string, error) {
		verb := "Added new"
		if r.Subjects.Has(sub.ID) {
			verb = "Updated"
		}
		r.Subjects.Set(sub.ID, sub)
		return fmt.Sprintf("%s subject: %s", verb, sub.Name), nil
	})
}

// DeleteSubject removes a subject under the same rules as DeleteGrade.
func (s *Store) DeleteSubject(ctx context.Context, id string) error {
	return s.mutate(ctx, func(r *Root) (string, error) {
		if !r.Subjects.Has(id) {
			return "", nil
		}
		for gradeID, subjects := range r.Resources {
			if b, ok := subjects[id]; ok && !b.Empty() {
				return "", fmt.Errorf("%w: subject %s has resources in %s", ErrHasDependents, id, gradeID)
			}
		}
		for gradeID, subjects := range r.Videos {
			if len(subjects[id]) > 0 {
				return "", fmt.Errorf("%w: subject %s has videos in %s", ErrHasDependents, id, gradeID)
			}
		}
		for _, subjects := range r.Resources {
			delete(subjects, id)
		}
		for _, subjects := range r.Videos {
			delete(subjects, id)
		}
		r.Subjects.Delete(id)
		return "Deleted subject: " + id, nil
	})
}

// Settings returns the site settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.root.Settings
	out.Activities = append([]Activity{}, out.Activities...)
	return out
}

// SetSiteName renames the site.
func (s *Store) SetSiteName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: site name is empty", ErrInvalidID)
	}
	return s.mutate(ctx, func(r *Root) (string, error) {
		if r.Settings.SiteName == name {
			return "", nil
		}
		r.Settings.SiteName = name
		return "Site name changed to " + name, nil
	})
}

// SetAdminPassword replaces the admin password.
func (s *Store) SetAdminPassword(ctx context.Context, pw string) error {
	if pw == "" {
		return errors.New("catalog: admin password is empty")
	}
	hash, err := hashPassword(pw)
	if err != nil {
		return err
	}
	return s.mutate(ctx, func(r *Root) (string, error) {
		r.Settings.AdminPasswordHash = hash
		return "Admin password changed", nil
	})
}

// VerifyAdminPassword reports whether pw matches the stored admin password.
func (s *Store) VerifyAdminPassword(pw string) bool {
	s.mu.RLock()
	hash := s.root.Settings.AdminPasswordHash
	s.mu.RUnlock()

	if hash == "" || pw == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func validID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if strings.ContainsAny(id, "/\\ ") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
