package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shorturl/internal/httpx"
)

// Verifier turns a bearer token into a user id.
type Verifier interface {
	Verify(token string) (uuid.UUID, error)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func authenticate(v Verifier, r *http.Request) (*http.Request, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return r, false
	}
	id, err := v.Verify(token)
	if err != nil {
		return r, false
	}
	httpx.RecordCaller(r.Context(), id)
	return r.WithContext(httpx.WithCallerID(r.Context(), id)), true
}

// Optional attaches the caller identity when a valid bearer token is present.
// A missing or bad token simply leaves the request anonymous.
func Optional(v Verifier) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, _ = authenticate(v, r)
			next.ServeHTTP(w, r)
		})
	}
}

// Require rejects requests without a valid bearer token with 401.
func Require(v Verifier) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, ok := authenticate(v, r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="shorturl"`)
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
