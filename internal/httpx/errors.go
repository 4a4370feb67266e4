package httpx

import (
	"log/slog"
	"net/http"

	"github.com/sundayezeilo/shorturl/internal/errx"
)

type kindMapping struct {
	status int
	code   string
	// message replaces the error text in client responses; empty means pass it through.
	message string
}

var kindMappings = map[errx.Kind]kindMapping{
	errx.NotFound:     {http.StatusNotFound, "not_found", "resource not found"},
	errx.Conflict:     {http.StatusConflict, "conflict", ""},
	errx.Invalid:      {http.StatusBadRequest, "invalid_input", ""},
	errx.Unauthorized: {http.StatusUnauthorized, "unauthorized", "authentication required"},
	errx.Forbidden:    {http.StatusForbidden, "forbidden", "access denied"},
	errx.Unavailable:  {http.StatusServiceUnavailable, "unavailable", "service temporarily unavailable"},
	errx.Exhausted:    {http.StatusServiceUnavailable, "retry_exhausted", "could not allocate a short code, try again"},
	errx.Internal:     {http.StatusInternalServerError, "internal_error", "an unexpected error occurred"},
}

var fallbackMapping = kindMappings[errx.Internal]

func mappingFor(kind errx.Kind) kindMapping {
	if m, ok := kindMappings[kind]; ok {
		return m
	}
	return fallbackMapping
}

// ErrorKindToStatus maps errx.Kind to HTTP status codes.
func ErrorKindToStatus(kind errx.Kind) int {
	return mappingFor(kind).status
}

// ErrorKindToCode maps errx.Kind to error codes for JSON responses.
func ErrorKindToCode(kind errx.Kind) string {
	return mappingFor(kind).code
}

// WriteErrorFrom writes the JSON error response for err and logs it.
// Client errors log at warn, server errors at error. NotFound, Unauthorized and
// server-side kinds never echo err's text to the client.
func WriteErrorFrom(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := errx.KindOf(err)
	m := mappingFor(kind)

	level := slog.LevelWarn
	if m.status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "request failed",
		"request_id", GetRequestID(r.Context()),
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	)

	message := m.message
	if message == "" {
		message = clientMessage(err)
	}
	WriteError(w, m.status, m.code, message, nil)
}

// clientMessage returns the innermost error text, without op prefixes.
func clientMessage(err error) string {
	for {
		e, ok := err.(*errx.Error)
		if !ok || e.Err == nil {
			return err.Error()
		}
		err = e.Err
	}
}
