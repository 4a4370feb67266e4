// Package errx tags errors from the short-link stores and services with an
// operation name and a Kind. Handlers pick the HTTP status from the Kind and
// never inspect store or driver errors themselves.
package errx

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by what the caller should do about it.
type Kind uint8

const (
	// Unknown is the kind of any error that never passed through E.
	Unknown Kind = iota
	// NotFound covers a short code or record that is missing, soft-deleted,
	// or owned by another user. The three are reported alike.
	NotFound
	// Conflict means a unique key is taken: a short code or a user's email.
	Conflict
	// Invalid marks rejected input such as a bad destination URL or a
	// malformed record id.
	Invalid
	// Unauthorized means the request carried no usable bearer token, or a
	// login presented bad credentials.
	Unauthorized
	// Forbidden is reserved for an authenticated caller acting outside its
	// rights. Foreign records report NotFound instead.
	Forbidden
	// Unavailable wraps store, cache and id generator failures. The request
	// may succeed if repeated.
	Unavailable
	// Internal is a fault in this service rather than in its inputs or
	// dependencies.
	Internal
	// Exhausted means every short code drawn for a request collided.
	Exhausted
)

var kindNames = [...]string{
	Unknown:      "Unknown",
	NotFound:     "NotFound",
	Conflict:     "Conflict",
	Invalid:      "Invalid",
	Unauthorized: "Unauthorized",
	Forbidden:    "Forbidden",
	Unavailable:  "Unavailable",
	Internal:     "Internal",
	Exhausted:    "Exhausted",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Error is a failure of Op, e.g. "shortener.Resolve", classified as Kind.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// E tags err. A nil err stays nil.
func E(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Op
	case e.Op == "":
		return e.Err.Error()
	default:
		return e.Op + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// outermost returns the first *Error in err's chain.
func outermost(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Is reports whether the outermost kind in err's chain is kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// KindOf returns the outermost kind in err's chain, or Unknown.
func KindOf(err error) Kind {
	if e, ok := outermost(err); ok {
		return e.Kind
	}
	return Unknown
}

// OpOf returns the outermost operation name, or "".
func OpOf(err error) string {
	if e, ok := outermost(err); ok {
		return e.Op
	}
	return ""
}
