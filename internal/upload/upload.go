// Package upload stores admin-uploaded PDFs and returns the file descriptor
// the catalog records. The catalog is only called once an upload has
// completed.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"path"
	"strconv"
	"strings"

	"github.com/p-n-ai/teaching-torch/internal/catalog"
)

// PathPrefix is the root of every stored file path.
const PathPrefix = "assets/downloads"

// ErrInvalidRequest means a request is missing its target or filename.
var ErrInvalidRequest = errors.New("upload: invalid request")

// Kind is the kind of resource being uploaded.
type Kind string

const (
	KindTextbook Kind = "textbook"
	KindPaper    Kind = "paper"
	KindNote     Kind = "note"
)

// Request is one file to upload.
type Request struct {
	GradeID     string
	SubjectID   string
	Kind        Kind
	Filename    string
	ContentType string
	Body        io.Reader
}

// Uploader stores a file and describes where it went.
type Uploader interface {
	Upload(ctx context.Context, req Request) (catalog.FileData, error)
}

// PathFor returns assets/downloads/{grade}/{subject}[/papers]/{filename}.
// The filename is reduced to its base name.
func PathFor(gradeID, subjectID string, kind Kind, filename string) string {
	parts := []string{PathPrefix, gradeID, subjectID}
	if kind == KindPaper {
		parts = append(parts, "papers")
	}
	return path.Join(append(parts, baseName(filename))...)
}

func baseName(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	return path.Base(strings.TrimSpace(filename))
}

func (r Request) validate() error {
	if r.GradeID == "" || r.SubjectID == "" {
		return fmt.Errorf("%w: grade and subject are required", ErrInvalidRequest)
	}
	if strings.ContainsAny(r.GradeID+r.SubjectID, "/\\.") {
		return fmt.Errorf("%w: grade %q or subject %q is not a plain id", ErrInvalidRequest, r.GradeID, r.SubjectID)
	}
	name := baseName(r.Filename)
	if name == "" || name == "." || name == "/" {
		return fmt.Errorf("%w: filename is required", ErrInvalidRequest)
	}
	if r.Body == nil {
		return fmt.Errorf("%w: body is required", ErrInvalidRequest)
	}
	return nil
}

func (r Request) descriptor(size int64) catalog.FileData {
	return catalog.FileData{
		Filename: baseName(r.Filename),
		Path:     PathFor(r.GradeID, r.SubjectID, r.Kind, r.Filename),
		Size:     size,
		Type:     r.ContentType,
	}
}

// IsPDF reports whether the upload is a PDF, by content type, falling back
// to the extension when no content type was sent.
func IsPDF(filename, contentType string) bool {
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err == nil && mt != "application/octet-stream" {
			return mt == "application/pdf"
		}
	}
	return strings.EqualFold(path.Ext(baseName(filename)), ".pdf")
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count the way the site displays it, e.g.
// "1.5 KB" or "0 Bytes".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := 0
	for div := int64(1024); bytes >= div && i < len(sizeUnits)-1; div *= 1024 {
		i++
	}
	v := float64(bytes) / math.Pow(1024, float64(i))
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + " " + sizeUnits[i]
}
