// Package storage opens the catalog backend selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/teaching-torch/internal/kv"
	"github.com/p-n-ai/teaching-torch/internal/platform/cache"
	"github.com/p-n-ai/teaching-torch/internal/platform/config"
	"github.com/p-n-ai/teaching-torch/internal/platform/database"
)

// Open connects the configured backend. The returned close func releases
// any connection and is never nil.
func Open(ctx context.Context, cfg *config.Config) (kv.Backend, func(), error) {
	noop := func() {}

	switch cfg.Storage.Backend {
	case config.StorageMemory:
		slog.Warn("using in-memory storage, catalog is lost on restart")
		return kv.NewMemoryBackend(), noop, nil

	case config.StorageFile:
		b, err := kv.NewFileBackend(cfg.Storage.Dir)
		if err != nil {
			return nil, noop, err
		}
		slog.Info("using file storage", "dir", cfg.Storage.Dir)
		return b, noop, nil

	case config.StorageRedis:
		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			return nil, noop, fmt.Errorf("connecting cache: %w", err)
		}
		b, err := c.Backend()
		if err != nil {
			c.Close()
			return nil, noop, err
		}
		slog.Info("using redis storage", "prefix", cfg.Cache.Prefix)
		return b, func() { c.Close() }, nil

	case config.StoragePostgres:
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, noop, fmt.Errorf("connecting database: %w", err)
		}
		b, err := db.Backend(ctx)
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		slog.Info("using postgres storage")
		return b, db.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
