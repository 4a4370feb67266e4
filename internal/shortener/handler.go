package shortener

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shorturl/internal/errx"
	"github.com/sundayezeilo/shorturl/internal/httpx"
	"github.com/sundayezeilo/shorturl/internal/logx"
)

// Shortener is the part of ShorteningService the handler needs.
type Shortener interface {
	Shorten(ctx context.Context, originalURL string, caller uuid.UUID) (Record, error)
}

// Resolver is the part of ResolutionService the handler needs.
type Resolver interface {
	Resolve(ctx context.Context, code string) (string, error)
}

// Owner is the part of OwnershipService the handler needs.
type Owner interface {
	GetURL(ctx context.Context, caller, id uuid.UUID) (Record, error)
	ListURLs(ctx context.Context, caller uuid.UUID) ([]Record, error)
	UpdateURL(ctx context.Context, caller, id uuid.UUID, newURL string) (Record, error)
	DeleteURL(ctx context.Context, caller, id uuid.UUID) (Record, error)
}

// ShortenRequest is the body of POST /shorten.
type ShortenRequest struct {
	OriginalURL string `json:"original_url"`
}

// UpdateRequest is the body of PUT /user/urls/{id}.
type UpdateRequest struct {
	NewOriginalURL string `json:"new_original_url"`
}

// ShortenResponse is returned by POST /shorten.
type ShortenResponse struct {
	Message     string    `json:"message"`
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// URLResponse is the public view of a Record.
type URLResponse struct {
	ID          string     `json:"id"`
	OriginalURL string     `json:"original_url"`
	Code        string     `json:"code"`
	ShortURL    string     `json:"short_url"`
	ClickCount  int64      `json:"click_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// URLListResponse is returned by GET /user/urls.
type URLListResponse struct {
	URLs []URLResponse `json:"urls"`
}

// URLMessageResponse is returned by PUT and DELETE /user/urls/{id}.
type URLMessageResponse struct {
	Message string      `json:"message"`
	URL     URLResponse `json:"url"`
}

// Handler provides HTTP handlers for shortening, redirects and owner management.
type Handler struct {
	shortener Shortener
	resolver  Resolver
	owner     Owner
	shortURL  func(code string) string
	logger    *slog.Logger
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Shortener Shortener
	Resolver  Resolver
	Owner     Owner
	// ShortURL builds the public link for a code from the configured BASE_URL.
	ShortURL func(code string) string
	Logger   *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := logx.OrDiscard(cfg.Logger)

	shortURL := cfg.ShortURL
	if shortURL == nil {
		shortURL = func(code string) string { return "/" + code }
	}

	return &Handler{
		shortener: cfg.Shortener,
		resolver:  cfg.Resolver,
		owner:     cfg.Owner,
		shortURL:  shortURL,
		logger:    logger,
	}
}

func (h *Handler) toResponse(rec Record) URLResponse {
	return URLResponse{
		ID:          rec.ID.String(),
		OriginalURL: rec.OriginalURL,
		Code:        rec.ShortCode,
		ShortURL:    h.shortURL(rec.ShortCode),
		ClickCount:  rec.ClickCount,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		DeletedAt:   rec.DeletedAt,
	}
}

// Shorten handles POST /shorten. Authentication is optional; an authenticated
// caller becomes the owner of the new record.
func (h *Handler) Shorten(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httpx.DecodeJSON[ShortenRequest](r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	if err := ValidateURL(req.OriginalURL); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", err.Error(),
			map[string]string{"field": "original_url"})
		return
	}

	caller, _ := httpx.CallerID(ctx)

	rec, err := h.shortener.Shorten(ctx, req.OriginalURL, caller)
	if err != nil {
		httpx.WriteErrorFrom(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(ctx, "url shortened",
		"request_id", httpx.GetRequestID(ctx),
		"url_id", rec.ID.String(),
		"code", rec.ShortCode,
		"anonymous", rec.OwnerID == nil,
	)

	httpx.WriteJSON(w, http.StatusCreated, ShortenResponse{
		Message:     "URL shortened successfully",
		ID:          rec.ID.String(),
		Code:        rec.ShortCode,
		ShortURL:    h.shortURL(rec.ShortCode),
		OriginalURL: rec.OriginalURL,
		CreatedAt:   rec.CreatedAt,
	})
}

// Resolve handles GET /{code} with a 302 to the original URL.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if !ValidCode(code) {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "short link doesn't exist", nil)
		return
	}

	originalURL, err := h.resolver.Resolve(r.Context(), code)
	if err != nil {
		if errx.Is(err, errx.NotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "short link doesn't exist", nil)
			return
		}
		httpx.WriteErrorFrom(w, r, h.logger, err)
		return
	}

	http.Redirect(w, r, originalURL, http.StatusFound)
}

// ListURLs handles GET /user/urls.
func (h *Handler) ListURLs(w http.ResponseWriter, r *http.Request) {
	caller, _ := httpx.CallerID(r.Context())

	recs, err := h.owner.ListURLs(r.Context(), caller)
	if err != nil {
		httpx.WriteErrorFrom(w, r, h.logger, err)
		return
	}

	resp := URLListResponse{URLs: make([]URLResponse, 0, len(recs))}
	for _, rec := range recs {
		resp.URLs = append(resp.URLs, h.toResponse(rec))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// GetURL handles GET /user/urls/{id}.
func (h *Handler) GetURL(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.ownerTarget(w, r)
	if !ok {
		return
	}

	rec, err := h.owner.GetURL(r.Context(), caller, id)
	if err != nil {
		httpx.WriteErrorFrom(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.toResponse(rec))
}

// UpdateURL handles PUT /user/urls/{id}.
func (h *Handler) UpdateURL(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.ownerTarget(w, r)
	if !ok {
		return
	}

	req, err := httpx.DecodeJSON[UpdateRequest](r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}
	if err := ValidateURL(req.NewOriginalURL); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", err.Error(),
			map[string]string{"field": "new_original_url"})
		return
	}

	rec, err := h.owner.UpdateURL(r.Context(), caller, id, req.NewOriginalURL)
	if err != nil {
		httpx.WriteErrorFrom(w, r, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, URLMessageResponse{
		Message: "URL updated successfully",
		URL:     h.toResponse(rec),
	})
}

// DeleteURL handles DELETE /user/urls/{id}.
func (h *Handler) DeleteURL(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.ownerTarget(w, r)
	if !ok {
		return
	}

	rec, err := h.owner.DeleteURL(r.Context(), caller, id)
	if err != nil {
		httpx.WriteErrorFrom(w, r, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, URLMessageResponse{
		Message: "URL deleted successfully",
		URL:     h.toResponse(rec),
	})
}

// ownerTarget extracts the caller and the {id} path value. A malformed id is
// answered like a missing record.
func (h *Handler) ownerTarget(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	caller, ok := httpx.CallerID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return uuid.Nil, uuid.Nil, false
	}

	id, ok := ParseID(r.PathValue("id"))
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "resource not found", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return caller, id, true
}
