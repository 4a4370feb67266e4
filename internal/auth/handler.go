package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sundayezeilo/shorturl/internal/httpx"
	"github.com/sundayezeilo/shorturl/internal/logx"
)

// Authenticator is the part of Service the handler needs.
type Authenticator interface {
	Register(ctx context.Context, in RegisterInput) (User, error)
	Login(ctx context.Context, email, password string) (Token, error)
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a User.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Handler serves registration and login.
type Handler struct {
	auth   Authenticator
	logger *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(auth Authenticator, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logx.OrDiscard(logger)}
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	req, err := httpx.DecodeJSON[RegisterRequest](r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	user, err := h.auth.Register(r.Context(), RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		httpx.WriteErrorFrom(w, r, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := httpx.DecodeJSON[LoginRequest](r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteErrorFrom(w, r, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TokenResponse{
		Token:     token.Value,
		TokenType: "Bearer",
		ExpiresAt: token.ExpiresAt,
	})
}
