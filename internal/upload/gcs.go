package upload

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"

	"github.com/p-n-ai/teaching-torch/internal/catalog"
)

const gcsTimeout = 2 * time.Minute

// GCS writes uploads to a Google Cloud Storage bucket. Object names are the
// public paths.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS creates a storage client from the ambient credentials.
func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return NewGCSWithClient(client, bucket)
}

// NewGCSWithClient uses an existing storage client.
func NewGCSWithClient(client *storage.Client, bucket string) (*GCS, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is nil")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is empty")
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Upload(ctx context.Context, req Request) (catalog.FileData, error) {
	if err := req.validate(); err != nil {
		return catalog.FileData{}, err
	}
	fd := req.descriptor(0)

	ctx, cancel := context.WithTimeout(ctx, gcsTimeout)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(fd.Path).NewWriter(ctx)
	w.ContentType = req.ContentType
	if w.ContentType == "" {
		w.ContentType = "application/pdf"
	}
	n, err := io.Copy(w, req.Body)
	if err != nil {
		_ = w.Close()
		return catalog.FileData{}, fmt.Errorf("writing object %s: %w", fd.Path, err)
	}
	if err := w.Close(); err != nil {
		return catalog.FileData{}, fmt.Errorf("closing object %s: %w", fd.Path, err)
	}

	fd.Size = n
	return fd, nil
}

// Close releases the storage client.
func (g *GCS) Close() error {
	return g.client.Close()
}
