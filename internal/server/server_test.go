package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shorturl/internal/auth"
	"github.com/sundayezeilo/shorturl/internal/config"
	"github.com/sundayezeilo/shorturl/internal/db/dbtest"
	"github.com/sundayezeilo/shorturl/internal/httpx"
	"github.com/sundayezeilo/shorturl/internal/server"
	"github.com/sundayezeilo/shorturl/internal/shortener"
	"github.com/sundayezeilo/shorturl/internal/shortener/memstore"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// testApp holds the application components for end-to-end testing.
type testApp struct {
	srv    *httptest.Server
	tokens *auth.TokenManager
	client *http.Client
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            "0",
			BaseURL:         "https://sho.rt",
			ShutdownTimeout: time.Second,
		},
		App: config.AppConfig{Environment: "test", ServiceName: "shorturl", ServiceVersion: "test"},
	}
}

func setupTestApp(t *testing.T, urls shortener.Repository, users auth.UserRepository, checks map[string]server.Check) *testApp {
	t.Helper()

	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	shortening, err := shortener.NewShorteningService(urls, &shortener.ShorteningConfig{Logger: logger})
	if err != nil {
		t.Fatalf("NewShorteningService: %v", err)
	}
	tokens, err := auth.NewTokenManager(testSecret, time.Hour, "shorturl")
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	authSvc, err := auth.NewService(users, auth.NewPasswordHasher(4), tokens, logger)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	s := server.New(cfg, logger, server.Handlers{
		URLs: shortener.NewHandler(shortener.HandlerConfig{
			Shortener: shortening,
			Resolver:  shortener.NewResolutionService(urls, nil),
			Owner:     shortener.NewOwnershipService(urls, nil),
			ShortURL:  cfg.Server.ShortURL,
			Logger:    logger,
		}),
		Auth:     auth.NewHandler(authSvc, logger),
		Verifier: tokens,
		Checks:   checks,
	})

	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)

	return &testApp{
		srv:    ts,
		tokens: tokens,
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

func (a *testApp) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func (a *testApp) token(t *testing.T) (string, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	tok, _, err := a.tokens.Issue(id)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok, id
}

func TestServer_WithPostgres(t *testing.T) {
	c := dbtest.Start(t)
	app := setupTestApp(t,
		shortener.NewPostgresRepository(c.Pool, nil),
		auth.NewPostgresUserRepository(c.Pool, nil),
		map[string]server.Check{"postgres": c.Pool.Ping},
	)
	token, _ := app.token(t)

	resp := app.request(t, http.MethodPost, "/shorten", token, map[string]string{"original_url": "https://example.com/pg"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("shorten status = %d", resp.StatusCode)
	}
	created := decode[shortener.ShortenResponse](t, resp)
	if created.ShortURL != "https://sho.rt/"+created.Code {
		t.Errorf("short_url = %q", created.ShortURL)
	}

	for range 3 {
		resp = app.request(t, http.MethodGet, "/"+created.Code, "", nil)
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("resolve status = %d", resp.StatusCode)
		}
	}

	resp = app.request(t, http.MethodGet, "/user/urls/"+created.ID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if got := decode[shortener.URLResponse](t, resp); got.ClickCount != 3 {
		t.Errorf("click_count = %d, want 3", got.ClickCount)
	}

	other, _ := app.token(t)
	if resp := app.request(t, http.MethodGet, "/user/urls/"+created.ID, other, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("stranger get status = %d, want 404", resp.StatusCode)
	}

	if resp := app.request(t, http.MethodGet, "/x/ready", "", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("ready status = %d", resp.StatusCode)
	}
}

func TestServer_Routing(t *testing.T) {
	app := setupTestApp(t, memstore.New(), memstore.NewUsers(), nil)
	token, _ := app.token(t)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       any
		wantStatus int
	}{
		{"health", http.MethodGet, "/x/health", "", nil, http.StatusOK},
		{"ready without checks", http.MethodGet, "/x/ready", "", nil, http.StatusOK},
		{"unknown code", http.MethodGet, "/nope01", "", nil, http.StatusNotFound},
		{"invalid code", http.MethodGet, "/no_pe", "", nil, http.StatusNotFound},
		{"shorten wrong method", http.MethodGet, "/shorten", "", nil, http.StatusNotFound},
		{"resolve wrong method", http.MethodPost, "/abc123", "", nil, http.StatusMethodNotAllowed},
		{"list needs auth", http.MethodGet, "/user/urls", "", nil, http.StatusUnauthorized},
		{"list with bad token", http.MethodGet, "/user/urls", "garbage", nil, http.StatusUnauthorized},
		{"list", http.MethodGet, "/user/urls", token, nil, http.StatusOK},
		{"get malformed id", http.MethodGet, "/user/urls/123", token, nil, http.StatusNotFound},
		{"update unknown", http.MethodPut, "/user/urls/" + uuid.NewString(), token,
			map[string]string{"new_original_url": "https://example.com"}, http.StatusNotFound},
		{"shorten invalid", http.MethodPost, "/shorten", "", map[string]string{"original_url": "nope"}, http.StatusBadRequest},
		{"shorten with bad token stays anonymous", http.MethodPost, "/shorten", "garbage",
			map[string]string{"original_url": "https://example.com"}, http.StatusCreated},
		{"preflight", http.MethodOptions, "/shorten", "", nil, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := app.request(t, tt.method, tt.path, tt.token, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if resp.Header.Get(httpx.RequestIDHeader) == "" {
				t.Error("missing request id header")
			}
		})
	}
}

func TestServer_Readiness(t *testing.T) {
	app := setupTestApp(t, memstore.New(), memstore.NewUsers(), map[string]server.Check{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	resp := app.request(t, http.MethodGet, "/x/ready", "", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	body := decode[struct {
		Checks map[string]string `json:"checks"`
	}](t, resp)
	if body.Checks["postgres"] != "ok" || body.Checks["redis"] != "unavailable" {
		t.Errorf("checks = %v", body.Checks)
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	s := server.New(testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)), server.Handlers{})
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
