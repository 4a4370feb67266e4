package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sundayezeilo/shorturl/internal/auth"
	"github.com/sundayezeilo/shorturl/internal/config"
	"github.com/sundayezeilo/shorturl/internal/httpx"
	"github.com/sundayezeilo/shorturl/internal/shortener"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// Handlers are the HTTP endpoints the server routes to.
type Handlers struct {
	URLs     *shortener.Handler
	Auth     *auth.Handler
	Verifier auth.Verifier
	// Checks back GET /x/ready, keyed by dependency name.
	Checks map[string]Check
}

// Server represents the HTTP server with all dependencies.
type Server struct {
	config   *config.Config
	logger   *slog.Logger
	handlers Handlers
	server   *http.Server
}

// New creates a new Server instance.
func New(cfg *config.Config, logger *slog.Logger, handlers Handlers) *Server {
	return &Server{
		config:   cfg,
		logger:   logger,
		handlers: handlers,
	}
}

// Routes returns the fully wrapped handler. Tests serve it with httptest.
func (s *Server) Routes() http.Handler {
	return s.applyMiddleware(s.setupRoutes())
}

// Start starts the HTTP server and blocks until ctx is done, a shutdown
// signal arrives or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port),
		Handler:      s.Routes(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("starting http server",
			"addr", s.server.Addr,
			"env", s.config.App.Environment,
		)
		serverErrors <- s.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		s.logger.Info("received shutdown signal", "signal", sig.String())

	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	h := s.handlers

	optional := auth.Optional(h.Verifier)
	require := auth.Require(h.Verifier)

	mux.HandleFunc("GET /x/health", s.healthCheckHandler)
	mux.HandleFunc("GET /x/ready", s.readinessHandler)

	mux.HandleFunc("POST /auth/register", h.Auth.Register)
	mux.HandleFunc("POST /auth/login", h.Auth.Login)

	mux.Handle("POST /shorten", optional(http.HandlerFunc(h.URLs.Shorten)))
	mux.HandleFunc("GET /{code}", h.URLs.Resolve)

	mux.Handle("GET /user/urls", require(http.HandlerFunc(h.URLs.ListURLs)))
	mux.Handle("GET /user/urls/{id}", require(http.HandlerFunc(h.URLs.GetURL)))
	mux.Handle("PUT /user/urls/{id}", require(http.HandlerFunc(h.URLs.UpdateURL)))
	mux.Handle("DELETE /user/urls/{id}", require(http.HandlerFunc(h.URLs.DeleteURL)))

	return mux
}

// applyMiddleware wraps the handler with middleware in the correct order.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	return httpx.Chain(
		httpx.Recovery(s.logger), // Outermost: catch panics
		httpx.RequestID,
		httpx.Logger(s.logger),
		httpx.CORS(nil),
	)(handler)
}

func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.config.App.ServiceName,
		"version": s.config.App.ServiceVersion,
	})
}

func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.handlers.Checks))
	for name, check := range s.handlers.Checks {
		if err := check(ctx); err != nil {
			s.logger.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err.Error())
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	httpx.WriteJSON(w, status, map[string]any{"checks": results})
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("shutdown timeout exceeded, forcing close")
			return s.server.Close()
		}
		return err
	}

	return nil
}
