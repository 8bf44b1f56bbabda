package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/p-n-ai/teaching-torch/internal/catalog"
	"github.com/p-n-ai/teaching-torch/internal/contact"
)

type gradeJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Display string `json:"display"`
	Active  bool   `json:"active"`
}

type subjectJSON struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Icon   string   `json:"icon"`
	Grades []string `json:"grades"`
}

type languageJSON struct {
	ID   catalog.Language `json:"id"`
	Name string           `json:"name"`
}

func toGradeJSON(g catalog.Grade) gradeJSON {
	return gradeJSON{ID: g.ID, Name: g.Name, Display: g.Display, Active: g.Active}
}

func toSubjectsJSON(subs []catalog.Subject) []subjectJSON {
	out := make([]subjectJSON, len(subs))
	for i, sub := range subs {
		out[i] = subjectJSON{ID: sub.ID, Name: sub.Name, Icon: sub.Icon, Grades: sub.Grades}
	}
	return out
}

func toLanguagesJSON(langs []catalog.Language) []languageJSON {
	out := make([]languageJSON, len(langs))
	for i, l := range langs {
		out[i] = languageJSON{ID: l, Name: l.DisplayName()}
	}
	return out
}

func (s *Server) handleGrades(w http.ResponseWriter, r *http.Request) {
	grades := s.store.Grades()
	out := make([]gradeJSON, 0, len(grades))
	for _, g := range grades {
		if g.Active || r.URL.Query().Get("all") == "true" {
			out = append(out, toGradeJSON(g))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSubjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSubjectsJSON(s.store.Subjects()))
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toLanguagesJSON(catalog.Languages))
}

func (s *Server) handleGradeSubjects(w http.ResponseWriter, r *http.Request) {
	gradeID := r.PathValue("grade")
	if _, ok := s.store.Grade(gradeID); !ok {
		writeError(w, fmt.Errorf("%w: %s", catalog.ErrGradeNotFound, gradeID))
		return
	}
	writeJSON(w, http.StatusOK, toSubjectsJSON(s.store.SubjectsForGrade(gradeID)))
}

func (s *Server) handleGradePage(w http.ResponseWriter, r *http.Request) {
	page, err := s.store.GradePage(r.PathValue("grade"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// pairFromPath resolves the grade and subject path values.
func (s *Server) pairFromPath(r *http.Request) (gradeID, subjectID string, err error) {
	gradeID, subjectID = r.PathValue("grade"), r.PathValue("subject")
	if _, ok := s.store.Grade(gradeID); !ok {
		return "", "", fmt.Errorf("%w: %s", catalog.ErrGradeNotFound, gradeID)
	}
	if _, ok := s.store.Subject(subjectID); !ok {
		return "", "", fmt.Errorf("%w: %s", catalog.ErrSubjectNotFound, subjectID)
	}
	return gradeID, subjectID, nil
}

func (s *Server) project(r *http.Request) (catalog.Projection, error) {
	gradeID, subjectID, err := s.pairFromPath(r)
	if err != nil {
		return catalog.Projection{}, err
	}
	sel, err := catalog.ParseSelector(r.URL.Query().Get("language"))
	if err != nil {
		return catalog.Projection{}, err
	}
	return s.store.Project(gradeID, subjectID, sel), nil
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	p, err := s.project(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.Resources)
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	p, err := s.project(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.Videos)
}

func (s *Server) handleSubjectLanguages(w http.ResponseWriter, r *http.Request) {
	gradeID, subjectID, err := s.pairFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLanguagesJSON(s.store.AvailableLanguages(gradeID, subjectID)))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Stats())
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, badRequest("limit must be a non-negative integer"))
			return
		}
		limit = min(n, catalog.MaxActivities)
	}
	writeJSON(w, http.StatusOK, s.store.RecentActivities(limit))
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var m contact.Message
	if err := decodeJSON(r, &m); err != nil {
		writeError(w, err)
		return
	}
	if m.UserAgent == "" {
		m.UserAgent = r.UserAgent()
	}
	if m.Referrer == "" {
		m.Referrer = r.Referer()
	}
	saved, err := s.contact.Submit(r.Context(), m)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}
