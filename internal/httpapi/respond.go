package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/teaching-torch/internal/catalog"
	"github.com/p-n-ai/teaching-torch/internal/contact"
	"github.com/p-n-ai/teaching-torch/internal/upload"
)

var (
	errUnauthorized = errors.New("admin password required")
	errBadRequest   = errors.New("bad request")
)

type errorBody struct {
	Error  string               `json:"error"`
	Fields []contact.FieldError `json:"fields,omitempty"`
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, catalog.ErrGradeNotFound),
		errors.Is(err, catalog.ErrSubjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrHasDependents):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, catalog.ErrInvalidImport),
		errors.Is(err, catalog.ErrIncompleteFile),
		errors.Is(err, catalog.ErrInvalidVideo),
		errors.Is(err, catalog.ErrInvalidCategory),
		errors.Is(err, catalog.ErrInvalidLanguage),
		errors.Is(err, catalog.ErrInvalidID),
		errors.Is(err, catalog.ErrUnknownResource),
		errors.Is(err, contact.ErrInvalidMessage),
		errors.Is(err, upload.ErrInvalidRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError maps err to a status code. Server errors are logged and their
// detail is not sent.
func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	body := errorBody{Error: err.Error()}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		body.Error = "internal server error"
	}
	var verr *contact.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}
