package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/teaching-torch/internal/platform/config"
	"github.com/p-n-ai/teaching-torch/internal/upload"
)

// OpenUploader builds the configured upload target. The returned close
// func is never nil.
func OpenUploader(ctx context.Context, cfg config.UploadConfig) (upload.Uploader, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case config.UploadSimulated:
		slog.Info("using simulated uploads", "min_delay", cfg.MinDelay, "max_delay", cfg.MaxDelay)
		return upload.NewSimulated(cfg.MinDelay, cfg.MaxDelay), noop, nil

	case config.UploadLocal:
		u, err := upload.NewLocal(cfg.Dir)
		if err != nil {
			return nil, noop, err
		}
		slog.Info("using local uploads", "dir", cfg.Dir)
		return u, noop, nil

	case config.UploadGCS:
		u, err := upload.NewGCS(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, noop, err
		}
		slog.Info("using gcs uploads", "bucket", cfg.GCSBucket)
		return u, func() {
			if err := u.Close(); err != nil {
				slog.Warn("failed to close storage client", "error", err)
			}
		}, nil
	}

	return nil, noop, fmt.Errorf("unknown upload backend %q", cfg.Backend)
}
