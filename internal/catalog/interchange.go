package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const importSchemaJSON = `{
  "type": "object",
  "required": ["grades", "subjects"],
  "properties": {
    "schemaVersion": {"type": "integer", "minimum": 0},
    "grades": {"type": "object", "minProperties": 1},
    "subjects": {"type": "object", "minProperties": 1},
    "resources": {"type": ["object", "null"]},
    "videos": {"type": ["object", "null"]},
    "settings": {"type": ["object", "null"]}
  }
}`

var importSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(importSchemaJSON))
})

// ValidateImport checks the top-level structure of an import payload.
func ValidateImport(data []byte) error {
	schema, err := importSchema()
	if err != nil {
		return fmt.Errorf("compiling import schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidImport, strings.Join(msgs, "; "))
	}
	return nil
}

// Import replaces the whole catalog with data after validating and
// migrating it. On failure the store is left untouched and the error wraps
// ErrInvalidImport. An import without an admin password keeps the current
// one.
func (s *Store) Import(ctx context.Context, data []byte) error {
	if err := ValidateImport(data); err != nil {
		return err
	}
	root, report, err := migrate(data, s.newID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}

	s.mu.Lock()
	if root.Settings.AdminPasswordHash == "" {
		root.Settings.AdminPasswordHash = s.root.Settings.AdminPasswordHash
	}
	if root.Settings.SiteName == "" {
		root.Settings.SiteName = DefaultSiteName
	}
	var acts []Activity
	if report.Changed() {
		acts = append(acts, s.record(&root, report.Summary()))
	}
	acts = append(acts, s.record(&root, "Data imported successfully"))
	if err := s.persist(ctx, &root); err != nil {
		s.mu.Unlock()
		return err
	}
	s.commit(root, acts...)
	return nil
}

// Export is a serialized catalog ready to be downloaded.
type Export struct {
	Filename string
	Data     []byte
}

// Export serializes the catalog as indented JSON, then logs the export.
func (s *Store) Export(ctx context.Context) (Export, error) {
	s.mu.RLock()
	data, err := json.MarshalIndent(&s.root, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return Export{}, fmt.Errorf("encoding export: %w", err)
	}

	out := Export{
		Filename: fmt.Sprintf("teaching-torch-data-%s.json", s.now().UTC().Format("2006-01-02")),
		Data:     data,
	}
	err = s.mutate(ctx, func(*Root) (string, error) {
		return "Data exported successfully", nil
	})
	if err != nil {
		return Export{}, err
	}
	return out, nil
}

// Reset discards the stored catalog and reseeds the defaults.
func (s *Store) Reset(ctx context.Context) error {
	root, err := s.defaults()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.backend.Delete(ctx, s.key); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("clearing catalog: %w", err)
	}
	a := s.record(&root, "System reset to defaults")
	if err := s.persist(ctx, &root); err != nil {
		s.mu.Unlock()
		return err
	}
	s.commit(root, a)
	return nil
}
