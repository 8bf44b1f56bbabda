package upload_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/p-n-ai/teaching-torch/internal/upload"
)

func TestPathFor(t *testing.T) {
	tests := []struct {
		kind     upload.Kind
		filename string
		want     string
	}{
		{upload.KindTextbook, "maths.pdf", "assets/downloads/grade10/mathematics/maths.pdf"},
		{upload.KindNote, "ch1.pdf", "assets/downloads/grade10/mathematics/ch1.pdf"},
		{upload.KindPaper, "t1.pdf", "assets/downloads/grade10/mathematics/papers/t1.pdf"},
		{upload.KindPaper, "../../etc/t1.pdf", "assets/downloads/grade10/mathematics/papers/t1.pdf"},
		{upload.KindTextbook, `C:\Users\me\maths.pdf`, "assets/downloads/grade10/mathematics/maths.pdf"},
	}
	for _, tt := range tests {
		if got := upload.PathFor("grade10", "mathematics", tt.kind, tt.filename); got != tt.want {
			t.Errorf("PathFor(%s, %q) = %q, want %q", tt.kind, tt.filename, got, tt.want)
		}
	}
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		filename, contentType string
		want                  bool
	}{
		{"a.pdf", "application/pdf", true},
		{"a.PDF", "", true},
		{"a.pdf", "application/octet-stream", true},
		{"a.txt", "application/pdf", true},
		{"a.pdf", "text/plain", false},
		{"a.docx", "", false},
	}
	for _, tt := range tests {
		if got := upload.IsPDF(tt.filename, tt.contentType); got != tt.want {
			t.Errorf("IsPDF(%q, %q) = %v, want %v", tt.filename, tt.contentType, got, tt.want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{512, "512 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{2621440, "2.5 MB"},
		{1073741824, "1 GB"},
		{5 << 40, "5120 GB"},
	}
	for _, tt := range tests {
		if got := upload.FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSimulated_Upload(t *testing.T) {
	u := upload.NewSimulated(0, 0)
	fd, err := u.Upload(t.Context(), upload.Request{
		GradeID:     "grade10",
		SubjectID:   "mathematics",
		Kind:        upload.KindPaper,
		Filename:    "t1.pdf",
		ContentType: "application/pdf",
		Body:        strings.NewReader("%PDF-1.4 body"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if fd.Size != 13 {
		t.Errorf("Size = %d, want 13", fd.Size)
	}
	if fd.Path != "assets/downloads/grade10/mathematics/papers/t1.pdf" || fd.Filename != "t1.pdf" {
		t.Errorf("descriptor = %+v", fd)
	}
}

func TestSimulated_HonorsContext(t *testing.T) {
	u := upload.NewSimulated(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := u.Upload(ctx, upload.Request{
		GradeID: "g", SubjectID: "s", Filename: "a.pdf", Body: strings.NewReader("x"),
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Upload() error = %v, want context.Canceled", err)
	}
}

func TestUpload_InvalidRequest(t *testing.T) {
	u := upload.NewSimulated(0, 0)
	reqs := []upload.Request{
		{SubjectID: "s", Filename: "a.pdf", Body: strings.NewReader("x")},
		{GradeID: "g", Filename: "a.pdf", Body: strings.NewReader("x")},
		{GradeID: "g", SubjectID: "s", Body: strings.NewReader("x")},
		{GradeID: "g", SubjectID: "s", Filename: "a.pdf"},
		{GradeID: "../g", SubjectID: "s", Filename: "a.pdf", Body: strings.NewReader("x")},
	}
	for i, req := range reqs {
		if _, err := u.Upload(t.Context(), req); !errors.Is(err, upload.ErrInvalidRequest) {
			t.Errorf("request %d: error = %v, want ErrInvalidRequest", i, err)
		}
	}
}

func TestLocal_Upload(t *testing.T) {
	dir := t.TempDir()
	u, err := upload.NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	fd, err := u.Upload(t.Context(), upload.Request{
		GradeID:   "grade10",
		SubjectID: "science",
		Kind:      upload.KindTextbook,
		Filename:  "science.pdf",
		Body:      strings.NewReader("%PDF"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(fd.Path)))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "%PDF" || fd.Size != 4 {
		t.Errorf("stored %q (size %d), want %%PDF (4)", data, fd.Size)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "assets", "downloads", "grade10", "science"))
	if len(entries) != 1 {
		t.Errorf("upload dir has %d entries, want 1 (temp file left behind?)", len(entries))
	}
}

func TestNewLocal_EmptyDir(t *testing.T) {
	if _, err := upload.NewLocal(""); err == nil {
		t.Error("NewLocal(\"\") should fail")
	}
}

func TestNewGCSWithClient_Validation(t *testing.T) {
	if _, err := upload.NewGCSWithClient(nil, "bucket"); err == nil {
		t.Error("nil client should fail")
	}
}
