package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteJSON(rr, http.StatusCreated, map[string]string{"code": "aB3dE9"})

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}

	var got map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if got["code"] != "aB3dE9" {
		t.Errorf("code = %q, want aB3dE9", got["code"])
	}
}

func TestWriteJSON_EncodeFailureKeepsStatus(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteJSON(rr, http.StatusOK, map[string]any{"bad": make(chan int)})

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		code        string
		message     string
		details     any
		wantDetails bool
	}{
		{"without details", http.StatusNotFound, "not_found", "resource not found", nil, false},
		{"with details", http.StatusBadRequest, "invalid_input", "bad url", map[string]string{"field": "original_url"}, true},
		{"empty message omitted", http.StatusInternalServerError, "internal_error", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			WriteError(rr, tt.status, tt.code, tt.message, tt.details)

			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}

			var raw map[string]any
			if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if raw["error"] != tt.code {
				t.Errorf("error = %v, want %q", raw["error"], tt.code)
			}
			if _, ok := raw["message"]; ok != (tt.message != "") {
				t.Errorf("message presence = %v, want %v", ok, tt.message != "")
			}
			if _, ok := raw["details"]; ok != tt.wantDetails {
				t.Errorf("details presence = %v, want %v", ok, tt.wantDetails)
			}
		})
	}
}
