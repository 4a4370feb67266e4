package httpx

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestChain(t *testing.T) {
	var calls []string

	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name+"-before")
				next.ServeHTTP(w, r)
				calls = append(calls, name+"-after")
			})
		}
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "handler")
	})

	Chain(mark("m1"), mark("m2"), mark("m3"))(final).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"m1-before", "m2-before", "m3-before", "handler", "m3-after", "m2-after", "m1-after"}
	if !slices.Equal(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}

	calls = nil
	Chain()(final).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !slices.Equal(calls, []string{"handler"}) {
		t.Errorf("empty chain calls = %v, want [handler]", calls)
	}
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		wantSame bool
	}{
		{"generates when missing", "", false},
		{"propagates incoming", "existing-request-id-123", true},
		{"replaces oversized", strings.Repeat("a", maxRequestIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest("GET", "/aB3dE9", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if tt.wantSame {
				if seen != tt.incoming {
					t.Errorf("request ID = %q, want %q", seen, tt.incoming)
				}
			} else if _, err := uuid.Parse(seen); err != nil {
				t.Errorf("expected generated UUID, got %q", seen)
			}
			if got := rr.Header().Get(RequestIDHeader); got != seen {
				t.Errorf("response header = %q, want %q", got, seen)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	caller := uuid.New()

	handler := Chain(RequestID, Logger(logger))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RecordCaller(r.Context(), caller)
		w.WriteHeader(http.StatusFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/aB3dE9", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != "http request" {
		t.Errorf("msg = %v, want http request", entry["msg"])
	}
	if entry["path"] != "/aB3dE9" {
		t.Errorf("path = %v, want /aB3dE9", entry["path"])
	}
	if entry["status"] != float64(http.StatusFound) {
		t.Errorf("status = %v, want 302", entry["status"])
	}
	if entry["caller_id"] != caller.String() {
		t.Errorf("caller_id = %v, want %s", entry["caller_id"], caller)
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Error("request_id should be logged")
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("store exploded")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("expected panic to be logged, got %q", buf.String())
	}
	if strings.Contains(rr.Body.String(), "store exploded") {
		t.Error("panic value must not reach the client")
	}
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"allow all", nil, "https://example.com", "*"},
		{"allowed origin", []string{"https://app.example.com"}, "https://app.example.com", "https://app.example.com"},
		{"disallowed origin", []string{"https://app.example.com"}, "https://evil.com", ""},
		{"no origin header", []string{"https://app.example.com"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			CORS(tt.allowed)(ok).ServeHTTP(rr, req)

			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("preflight short-circuits", func(t *testing.T) {
		called := false
		handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("OPTIONS", "/user/urls", nil))

		if called {
			t.Error("handler should not be called for OPTIONS preflight")
		}
		if rr.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusNoContent)
		}
		if rr.Header().Get("Access-Control-Allow-Headers") == "" {
			t.Error("expected Access-Control-Allow-Headers to be set")
		}
	})
}
