package contact_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/teaching-torch/internal/contact"
	"github.com/p-n-ai/teaching-torch/internal/kv"
)

func validMessage() contact.Message {
	return contact.Message{
		Name:    "Nimal Perera",
		Email:   "nimal@example.com",
		Subject: "Past papers",
		Message: "Could you add the 2023 term test papers?",
	}
}

func TestSubmit_StoresMessage(t *testing.T) {
	backend := kv.NewMemoryBackend()
	s := contact.NewStore(backend)

	got, err := s.Submit(t.Context(), validMessage())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if got.ID == "" || got.Timestamp.IsZero() {
		t.Errorf("Submit() = %+v, want id and timestamp", got)
	}

	if _, err := s.Submit(t.Context(), validMessage()); err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}

	msgs, err := contact.NewStore(backend).List(t.Context())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(msgs))
	}
	if msgs[0].ID != got.ID {
		t.Errorf("List()[0].ID = %q, want %q (oldest first)", msgs[0].ID, got.ID)
	}
}

func TestList_Empty(t *testing.T) {
	msgs, err := contact.NewStore(kv.NewMemoryBackend()).List(t.Context())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Errorf("List() = %v, want empty non-nil", msgs)
	}
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*contact.Message)
		field string
	}{
		{"blank name", func(m *contact.Message) { m.Name = "   " }, "name"},
		{"short name", func(m *contact.Message) { m.Name = "N" }, "name"},
		{"missing email", func(m *contact.Message) { m.Email = "" }, "email"},
		{"bad email", func(m *contact.Message) { m.Email = "not-an-email" }, "email"},
		{"short subject", func(m *contact.Message) { m.Subject = "Hi" }, "subject"},
		{"short message", func(m *contact.Message) { m.Message = "thanks" }, "message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := contact.NewStore(kv.NewMemoryBackend())
			m := validMessage()
			tt.edit(&m)

			_, err := s.Submit(t.Context(), m)
			if !errors.Is(err, contact.ErrInvalidMessage) {
				t.Fatalf("Submit() error = %v, want ErrInvalidMessage", err)
			}
			var verr *contact.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %T is not a *ValidationError", err)
			}
			if len(verr.Fields) != 1 || verr.Fields[0].Field != tt.field {
				t.Errorf("Fields = %+v, want one error on %q", verr.Fields, tt.field)
			}

			msgs, _ := s.List(t.Context())
			if len(msgs) != 0 {
				t.Errorf("invalid message was stored")
			}
		})
	}
}

func TestSubmit_OptionalSubject(t *testing.T) {
	m := validMessage()
	m.Subject = ""
	if _, err := contact.NewStore(kv.NewMemoryBackend()).Submit(t.Context(), m); err != nil {
		t.Errorf("Submit() without subject error = %v", err)
	}
}
