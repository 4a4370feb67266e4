package shortener

import (
	"errors"
	"net/url"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shorturl/sluggen"
)

// MaxURLLength bounds original URLs.
const MaxURLLength = 2048

// ValidateURL checks that raw is an absolute http(s) URL with a host.
// The returned message is safe to show to clients.
func ValidateURL(raw string) error {
	if raw == "" {
		return errors.New("original URL is required")
	}
	if len(raw) > MaxURLLength {
		return errors.New("original URL too long (max 2048 characters)")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL scheme must be http or https")
	}
	if u.Host == "" || u.Hostname() == "" {
		return errors.New("URL must include a host")
	}
	return nil
}

// ValidCode reports whether code can name a record. Anything else is
// answered with NotFound without touching the store.
func ValidCode(code string) bool {
	return sluggen.IsValid(code)
}

// ParseID parses a record id from a path segment.
func ParseID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
