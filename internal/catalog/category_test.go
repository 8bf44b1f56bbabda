package catalog_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/p-n-ai/teaching-torch/internal/catalog"
)

func TestParseCategoryKey(t *testing.T) {
	tests := []struct {
		key     string
		want    catalog.Category
		wantErr bool
	}{
		{key: "term1", want: catalog.Term(1)},
		{key: "term3", want: catalog.Term(3)},
		{key: "chapter12", want: catalog.Chapter(12)},
		{key: "term4", wantErr: true},
		{key: "term0", wantErr: true},
		{key: "chapter0", wantErr: true},
		{key: "chapter01", wantErr: true},
		{key: "chapter", wantErr: true},
		{key: "unit2", wantErr: true},
		{key: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := catalog.ParseCategoryKey(tt.key)
			if tt.wantErr {
				if !errors.Is(err, catalog.ErrInvalidCategory) {
					t.Errorf("ParseCategoryKey(%q) error = %v, want ErrInvalidCategory", tt.key, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCategoryKey(%q) error = %v", tt.key, err)
			}
			if got != tt.want {
				t.Errorf("ParseCategoryKey(%q) = %+v, want %+v", tt.key, got, tt.want)
			}
			if got.String() != tt.key {
				t.Errorf("String() = %q, want %q", got.String(), tt.key)
			}
		})
	}
}

func TestParseCategory_RejectsMismatchedType(t *testing.T) {
	if _, err := catalog.ParseCategory("chapter", "term1"); !errors.Is(err, catalog.ErrInvalidCategory) {
		t.Errorf("ParseCategory(chapter, term1) error = %v, want ErrInvalidCategory", err)
	}
	c, err := catalog.ParseCategory("Term", "term2")
	if err != nil {
		t.Fatalf("ParseCategory(Term, term2) error = %v", err)
	}
	if c.Label() != "Term 2" {
		t.Errorf("Label() = %q, want Term 2", c.Label())
	}
}

func TestParseNoteKey(t *testing.T) {
	k, err := catalog.ParseNoteKey("unit_1_review_tamil")
	if err != nil {
		t.Fatalf("ParseNoteKey() error = %v", err)
	}
	if k.Chapter != "unit_1_review" || k.Language != catalog.Tamil {
		t.Errorf("ParseNoteKey() = %+v, want chapter unit_1_review in tamil", k)
	}

	for _, bad := range []string{"chapter1", "_english", "chapter1_french"} {
		if _, err := catalog.ParseNoteKey(bad); err == nil {
			t.Errorf("ParseNoteKey(%q) should fail", bad)
		}
	}
}

func TestCategory_JSONMapKeys(t *testing.T) {
	in := map[catalog.Category][]string{catalog.Chapter(3): {"a"}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"chapter3":["a"]}` {
		t.Errorf("Marshal() = %s", data)
	}

	var out map[catalog.Category][]string
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(out[catalog.Chapter(3)]) != 1 {
		t.Errorf("Unmarshal() = %v", out)
	}
}
