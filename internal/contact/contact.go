// Package contact keeps the messages sent through the public contact form.
package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/p-n-ai/teaching-torch/internal/kv"
)

// DefaultKey is the backend key holding the submissions.
const DefaultKey = "contactMessages"

// ErrInvalidMessage wraps every validation failure.
var ErrInvalidMessage = errors.New("contact: invalid message")

// Message is one contact form submission.
type Message struct {
	ID         string    `json:"id"`
	Name       string    `json:"name" validate:"notblank,min=2"`
	Email      string    `json:"email" validate:"notblank,email"`
	Subject    string    `json:"subject,omitempty" validate:"omitempty,min=3"`
	Message    string    `json:"message" validate:"notblank,min=10"`
	Category   string    `json:"category,omitempty"`
	Grade      string    `json:"grade,omitempty"`
	Newsletter bool      `json:"newsletter,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
	Referrer   string    `json:"referrer,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// FieldError is a validation failure on one field, named by its JSON key.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Rule
	}
	return "contact: invalid message: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidMessage }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate trims the text fields of m and checks them.
func (m *Message) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Message = strings.TrimSpace(m.Message)

	err := validate.Struct(m)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

// Store appends submissions to a JSON list under one backend key.
type Store struct {
	backend kv.Backend
	key     string
	now     func() time.Time

	mu sync.Mutex
}

// NewStore returns a Store writing under DefaultKey.
func NewStore(backend kv.Backend) *Store {
	return &Store{backend: backend, key: DefaultKey, now: time.Now}
}

// Submit validates m, stamps it and appends it to the stored list.
func (s *Store) Submit(ctx context.Context, m Message) (Message, error) {
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	m.ID = uuid.NewString()
	m.Timestamp = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, err := s.load(ctx)
	if err != nil {
		return Message{}, err
	}
	data, err := json.Marshal(append(msgs, m))
	if err != nil {
		return Message{}, fmt.Errorf("encoding contact messages: %w", err)
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		return Message{}, fmt.Errorf("saving contact messages: %w", err)
	}

	slog.Info("contact message stored", "id", m.ID, "category", m.Category)
	return m, nil
}

// List returns every submission, oldest first.
func (s *Store) List(ctx context.Context) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) ([]Message, error) {
	data, err := s.backend.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		return []Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading contact messages: %w", err)
	}
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("decoding contact messages: %w", err)
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, nil
}
