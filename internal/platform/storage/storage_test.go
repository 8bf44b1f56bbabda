package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/p-n-ai/teaching-torch/internal/kv"
	"github.com/p-n-ai/teaching-torch/internal/platform/config"
)

func TestOpen_LocalBackends(t *testing.T) {
	tests := []struct {
		name    string
		backend string
	}{
		{"memory", config.StorageMemory},
		{"file", config.StorageFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Storage: config.StorageConfig{Backend: tt.backend, Dir: t.TempDir()}}

			b, closeFn, err := Open(t.Context(), cfg)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer closeFn()

			ctx := context.Background()
			if err := b.Set(ctx, "k", []byte("v")); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if got, err := b.Get(ctx, "k"); err != nil || string(got) != "v" {
				t.Errorf("Get() = %q, %v", got, err)
			}
		})
	}
}

func TestOpen_FileBackendType(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: config.StorageFile, Dir: t.TempDir()}}
	b, closeFn, err := Open(t.Context(), cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer closeFn()
	if _, ok := b.(*kv.FileBackend); !ok {
		t.Errorf("Open() = %T, want *kv.FileBackend", b)
	}
}

func TestOpen_Unknown(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "tape"}}
	_, closeFn, err := Open(t.Context(), cfg)
	if err == nil {
		t.Fatal("Open() should fail for an unknown backend")
	}
	closeFn()
}

func TestOpen_UnreachableRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: config.StorageRedis},
		Cache:   config.CacheConfig{URL: "redis://localhost:59999"},
	}
	if _, _, err := Open(t.Context(), cfg); err == nil {
		t.Fatal("Open() should fail for an unreachable cache")
	}
}

func TestOpenUploader(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.UploadConfig
		want string
	}{
		{"simulated", config.UploadConfig{Backend: config.UploadSimulated}, "*upload.Simulated"},
		{"local", config.UploadConfig{Backend: config.UploadLocal, Dir: t.TempDir()}, "*upload.Local"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, closeFn, err := OpenUploader(t.Context(), tt.cfg)
			if err != nil {
				t.Fatalf("OpenUploader() error = %v", err)
			}
			defer closeFn()
			if got := fmt.Sprintf("%T", u); got != tt.want {
				t.Errorf("OpenUploader() = %s, want %s", got, tt.want)
			}
		})
	}

	if _, closeFn, err := OpenUploader(t.Context(), config.UploadConfig{Backend: "ftp"}); err == nil {
		t.Error("OpenUploader() should fail for an unknown backend")
	} else {
		closeFn()
	}
}
