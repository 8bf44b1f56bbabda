package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/p-n-ai/teaching-torch/internal/catalog"
)

// Local writes uploads under a root directory, mirroring the public path.
type Local struct {
	root string
}

// NewLocal returns a Local uploader rooted at dir.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &Local{root: dir}, nil
}

func (l *Local) Upload(ctx context.Context, req Request) (catalog.FileData, error) {
	if err := req.validate(); err != nil {
		return catalog.FileData{}, err
	}
	fd := req.descriptor(0)
	dst := filepath.Join(l.root, filepath.FromSlash(fd.Path))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return catalog.FileData{}, fmt.Errorf("creating upload dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return catalog.FileData{}, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, contextReader{ctx: ctx, r: req.Body})
	if err != nil {
		tmp.Close()
		return catalog.FileData{}, fmt.Errorf("writing upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return catalog.FileData{}, fmt.Errorf("closing upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return catalog.FileData{}, fmt.Errorf("storing upload: %w", err)
	}

	fd.Size = n
	return fd, nil
}

// contextReader stops reading once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
