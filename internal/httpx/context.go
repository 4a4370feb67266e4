package httpx

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDContextKey contextKey = "request_id"
	callerIDContextKey  contextKey = "caller_id"
)

// GetRequestID extracts the request ID from context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// WithCallerID attaches an authenticated caller identity to the context.
// uuid.Nil is not stored.
func WithCallerID(ctx context.Context, id uuid.UUID) context.Context {
	if id == uuid.Nil {
		return ctx
	}
	return context.WithValue(ctx, callerIDContextKey, id)
}

// CallerID returns the authenticated caller, if any.
func CallerID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(callerIDContextKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
