// Package httpapi exposes the catalog as a JSON API over net/http.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/p-n-ai/teaching-torch/internal/catalog"
	"github.com/p-n-ai/teaching-torch/internal/contact"
	"github.com/p-n-ai/teaching-torch/internal/kv"
	"github.com/p-n-ai/teaching-torch/internal/upload"
)

const (
	defaultMaxUpload = 50 << 20
	readyTimeout     = 2 * time.Second
)

// Config wires the API to its collaborators. Store, Uploader and Contact are
// required.
type Config struct {
	Store    *catalog.Store
	Uploader upload.Uploader
	Contact  *contact.Store
	// Feed serves GET /ws/activity when set.
	Feed http.Handler
	// Backend is probed by /readyz when it implements kv.HealthChecker.
	Backend kv.Backend
	Logger  *slog.Logger
	// MaxUploadBytes bounds multipart uploads. Defaults to 50 MiB.
	MaxUploadBytes int64
	Now            func() time.Time
}

// Server holds the handlers.
type Server struct {
	store     *catalog.Store
	uploader  upload.Uploader
	contact   *contact.Store
	feed      http.Handler
	backend   kv.Backend
	logger    *slog.Logger
	maxUpload int64
	now       func() time.Time
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Server{
		store:     cfg.Store,
		uploader:  cfg.Uploader,
		contact:   cfg.Contact,
		feed:      cfg.Feed,
		backend:   cfg.Backend,
		logger:    cfg.Logger,
		maxUpload: cfg.MaxUploadBytes,
		now:       cfg.Now,
	}
}

// Handler returns the routed handler wrapped in logging and panic recovery.
func (s *Server) Handler() http.Handler {
	return recoverPanics(s.logger, logRequests(s.logger, s.routes()))
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /api/grades", s.handleGrades)
	mux.HandleFunc("GET /api/subjects", s.handleSubjects)
	mux.HandleFunc("GET /api/languages", s.handleLanguages)
	mux.HandleFunc("GET /api/grades/{grade}/subjects", s.handleGradeSubjects)
	mux.HandleFunc("GET /api/grades/{grade}/page", s.handleGradePage)
	mux.HandleFunc("GET /api/grades/{grade}/subjects/{subject}/resources", s.handleResources)
	mux.HandleFunc("GET /api/grades/{grade}/subjects/{subject}/languages", s.handleSubjectLanguages)
	mux.HandleFunc("GET /api/grades/{grade}/subjects/{subject}/videos", s.handleVideos)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/activities", s.handleActivities)
	mux.HandleFunc("POST /api/contact", s.handleContact)
	if s.feed != nil {
		mux.Handle("GET /ws/activity", s.feed)
	}

	admin := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.requireAdmin(h))
	}
	const pair = "/api/admin/grades/{grade}/subjects/{subject}"

	admin("PUT /api/admin/grades/{grade}", s.handlePutGrade)
	admin("DELETE /api/admin/grades/{grade}", s.handleDeleteGrade)
	admin("PUT /api/admin/subjects/{subject}", s.handlePutSubject)
	admin("DELETE /api/admin/subjects/{subject}", s.handleDeleteSubject)

	admin("POST "+pair+"/textbooks", s.handleUploadTextbook)
	admin("DELETE "+pair+"/textbooks/{language}", s.handleDeleteTextbook)
	admin("POST "+pair+"/papers", s.handleUploadPaper)
	admin("DELETE "+pair+"/papers/{category}", s.handleDeleteCategory)
	admin("DELETE "+pair+"/papers/{category}/{id}", s.handleDeletePaper)
	admin("POST "+pair+"/notes", s.handleUploadNote)
	admin("DELETE "+pair+"/notes/{key}", s.handleDeleteNote)
	admin("POST "+pair+"/videos", s.handleAddVideo)
	admin("DELETE "+pair+"/videos/{id}", s.handleDeleteVideo)

	admin("GET /api/admin/export", s.handleExport)
	admin("GET /api/admin/export.xlsx", s.handleExportInventory)
	admin("POST /api/admin/import", s.handleImport)
	admin("POST /api/admin/reset", s.handleReset)
	admin("PUT /api/admin/password", s.handleSetPassword)
	admin("PUT /api/admin/settings", s.handleSetSettings)
	admin("GET /api/admin/contact", s.handleListContact)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if hc, ok := s.backend.(kv.HealthChecker); ok {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := hc.HealthCheck(ctx); err != nil {
			s.logger.Warn("readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
