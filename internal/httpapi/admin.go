package httpapi

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/p-n-ai/teaching-torch/internal/catalog"
	"github.com/p-n-ai/teaching-torch/internal/report"
)

const maxImportBytes = 32 << 20

type putGradeRequest struct {
	Name    string `json:"name"`
	Display string `json:"display"`
	Active  *bool  `json:"active"`
}

func (s *Server) handlePutGrade(w http.ResponseWriter, r *http.Request) {
	var req putGradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, badRequest("grade name is required"))
		return
	}
	g := catalog.Grade{ID: r.PathValue("grade"), Name: req.Name, Display: req.Display, Active: true}
	if req.Active != nil {
		g.Active = *req.Active
	}
	if err := s.store.PutGrade(r.Context(), g); err != nil {
		writeError(w, err)
		return
	}
	saved, _ := s.store.Grade(g.ID)
	writeJSON(w, http.StatusOK, toGradeJSON(saved))
}

func (s *Server) handleDeleteGrade(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteGrade(r.Context(), r.PathValue("grade")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type putSubjectRequest struct {
	Name   string   `json:"name"`
	Icon   string   `json:"icon"`
	Grades []string `json:"grades"`
}

func (s *Server) handlePutSubject(w http.ResponseWriter, r *http.Request) {
	var req putSubjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, badRequest("subject name is required"))
		return
	}
	sub := catalog.Subject{ID: r.PathValue("subject"), Name: req.Name, Icon: req.Icon, Grades: req.Grades}
	if err := s.store.PutSubject(r.Context(), sub); err != nil {
		writeError(w, err)
		return
	}
	saved, _ := s.store.Subject(sub.ID)
	writeJSON(w, http.StatusOK, toSubjectsJSON([]catalog.Subject{saved})[0])
}

func (s *Server) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSubject(r.Context(), r.PathValue("subject")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTextbook(w http.ResponseWriter, r *http.Request) {
	s.deleteResource(w, r, catalog.KindTextbook, r.PathValue("language"))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.deleteResource(w, r, catalog.KindPaper, r.PathValue("category"))
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	s.deleteResource(w, r, catalog.KindNotes, r.PathValue("key"))
}

func (s *Server) deleteResource(w http.ResponseWriter, r *http.Request, kind, key string) {
	err := s.store.DeleteResource(r.Context(), r.PathValue("grade"), r.PathValue("subject"), kind, key)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeletePaper(w http.ResponseWriter, r *http.Request) {
	c, err := catalog.ParseCategoryKey(r.PathValue("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	err = s.store.DeletePaper(r.Context(), r.PathValue("grade"), r.PathValue("subject"), c, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addVideoRequest struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Chapter     string `json:"chapter"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

func (s *Server) handleAddVideo(w http.ResponseWriter, r *http.Request) {
	var req addVideoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	in := catalog.VideoInput{
		Title:       req.Title,
		URL:         req.URL,
		Chapter:     req.Chapter,
		Description: req.Description,
	}
	if req.Language != "" {
		lang, err := catalog.ParseLanguage(req.Language)
		if err != nil {
			writeError(w, err)
			return
		}
		in.Language = lang
	}
	v, err := s.store.AddVideo(r.Context(), r.PathValue("grade"), r.PathValue("subject"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteVideo(r.Context(), r.PathValue("grade"), r.PathValue("subject"), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	exp, err := s.store.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exp.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.Write(exp.Data)
}

func (s *Server) handleExportInventory(w http.ResponseWriter, r *http.Request) {
	root := s.store.Snapshot()
	var buf bytes.Buffer
	if err := report.WriteInventory(&buf, &root, s.store.Stats()); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(s.now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, badRequest("reading import: %v", err))
		return
	}
	if err := s.store.Import(r.Context(), data); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Stats())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Stats())
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Password) < 6 {
		writeError(w, badRequest("password must be at least 6 characters"))
		return
	}
	if err := s.store.SetAdminPassword(r.Context(), req.Password); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type settingsRequest struct {
	SiteName string `json:"siteName"`
}

type settingsJSON struct {
	SiteName    string    `json:"siteName"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func (s *Server) handleSetSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.SetSiteName(r.Context(), req.SiteName); err != nil {
		writeError(w, err)
		return
	}
	st := s.store.Settings()
	writeJSON(w, http.StatusOK, settingsJSON{SiteName: st.SiteName, LastUpdated: st.LastUpdated})
}

func (s *Server) handleListContact(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.contact.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
