package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p-n-ai/teaching-torch/internal/catalog"
	"github.com/p-n-ai/teaching-torch/internal/contact"
	"github.com/p-n-ai/teaching-torch/internal/curriculum"
	"github.com/p-n-ai/teaching-torch/internal/feed"
	"github.com/p-n-ai/teaching-torch/internal/httpapi"
	"github.com/p-n-ai/teaching-torch/internal/platform/config"
	"github.com/p-n-ai/teaching-torch/internal/platform/logging"
	"github.com/p-n-ai/teaching-torch/internal/platform/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	logging.New(cfg.Log, os.Stdout)

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.close()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "storage", cfg.Storage.Backend, "uploads", cfg.Upload.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// app is the wired server.
type app struct {
	store   *catalog.Store
	hub     *feed.Hub
	handler http.Handler
	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	backend, closeBackend, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	a.closers = append(a.closers, closeBackend)

	seed, err := curriculum.Load(cfg.SeedPath)
	if err != nil {
		a.close()
		return nil, err
	}

	a.store, err = catalog.Open(ctx, catalog.Config{
		Backend:       backend,
		Key:           cfg.Storage.Key,
		Seed:          seed,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	uploader, closeUploader, err := storage.OpenUploader(ctx, cfg.Upload)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("opening uploads: %w", err)
	}
	a.closers = append(a.closers, closeUploader)

	a.hub = feed.NewHub(a.store, feed.Options{})
	a.closers = append(a.closers, a.store.Subscribe(a.hub.Publish))

	a.handler = httpapi.New(httpapi.Config{
		Store:    a.store,
		Uploader: uploader,
		Contact:  contact.NewStore(backend),
		Feed:     a.hub,
		Backend:  backend,
	}).Handler()
	return a, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
