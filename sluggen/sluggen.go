// Package sluggen produces short codes for shortened URLs.
// Generators keep no state between calls and are safe for concurrent use.
package sluggen

import (
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength gives 62^6 (about 5.7e10) possible codes.
	DefaultLength = 6
	MinLength     = 4
	MaxLength     = 32

	// Bytes >= rejectAbove are discarded so every symbol is equally likely.
	rejectAbove = 256 - (256 % len(base62Chars))
)

// ErrInvalidLength is returned by NewBase62 for lengths outside [MinLength, MaxLength].
var ErrInvalidLength = errors.New("sluggen: invalid code length")

// Generator produces short codes.
// Collision handling is the caller's concern.
type Generator interface {
	Generate() (string, error)
}

type base62Generator struct {
	length int
}

// NewBase62 returns a generator of uniformly random alphanumeric codes of the given length.
func NewBase62(length int) (Generator, error) {
	if length < MinLength || length > MaxLength {
		return nil, fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidLength, length, MinLength, MaxLength)
	}
	return &base62Generator{length: length}, nil
}

// Generate returns a new random code.
func (g *base62Generator) Generate() (string, error) {
	out := make([]byte, 0, g.length)
	buf := make([]byte, g.length*2)

	for len(out) < g.length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("sluggen: read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, base62Chars[int(b)%len(base62Chars)])
			if len(out) == g.length {
				break
			}
		}
	}

	return string(out), nil
}

// IsValid reports whether code is non-empty, at most MaxLength long, and strictly alphanumeric.
func IsValid(code string) bool {
	if code == "" || len(code) > MaxLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		default:
			return false
		}
	}
	return true
}
