package jsonapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteDocument(t *testing.T) {
	t.Run("sets content type and status", func(t *testing.T) {
		w := httptest.NewRecorder()
		doc := NewDocument().DataResource(Resource{Type: "users", ID: "1"}).Build()

		if err := WriteDocument(w, http.StatusOK, doc); err != nil {
			t.Fatalf("WriteDocument: %v", err)
		}

		if w.Header().Get("Content-Type") != ContentType {
			t.Errorf("Content-Type = %v, want %v", w.Header().Get("Content-Type"), ContentType)
		}
		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("writes valid JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		doc := NewDocument().DataResource(Resource{Type: "users", ID: "1"}).Build()

		WriteDocument(w, http.StatusOK, doc)

		var result map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Errorf("Invalid JSON: %v", err)
		}
	})
}

func TestWriteError(t *testing.T) {
	t.Run("status from first error", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, ErrNotFound("posts"), ErrInternal(""))

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want 404", w.Code)
		}

		var doc struct {
			Errors []Error `json:"errors"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
			t.Fatalf("Invalid JSON: %v", err)
		}
		if len(doc.Errors) != 2 {
			t.Errorf("len(errors) = %d, want 2", len(doc.Errors))
		}
	})

	t.Run("no errors falls back to 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want 500", w.Code)
		}
	})
}

func TestWriteMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	WriteMethodNotAllowed(w, "POST", []string{"GET", "HEAD"})

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want 405", w.Code)
	}
	if got := w.Header().Get("Allow"); got != "GET, HEAD" {
		t.Errorf("Allow = %q, want %q", got, "GET, HEAD")
	}
}

func TestAcceptsDocument(t *testing.T) {
	tests := []struct {
		accept string
		want   bool
	}{
		{"", true},
		{"*/*", true},
		{"application/json", true},
		{ContentType, true},
		{ContentType + "; ext=foo", false},
		{ContentType + "; ext=foo, " + ContentType, true},
		{"text/html, " + ContentType + ";charset=utf-8", false},
	}

	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			if got := AcceptsDocument(tt.accept); got != tt.want {
				t.Errorf("AcceptsDocument(%q) = %v, want %v", tt.accept, got, tt.want)
			}
		})
	}
}
