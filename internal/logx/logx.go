// Package logx builds the process loggers and settles what a nil logger means.
package logx

import (
	"io"
	"log/slog"
)

// New returns a JSON logger writing to w at the named level. Unknown levels
// log at info.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OrDiscard returns l, or a logger that drops everything when l is nil.
// Components never fall back to slog.Default.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
