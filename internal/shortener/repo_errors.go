package shortener

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sundayezeilo/shorturl/internal/errx"
)

const (
	uniqueViolation     = "23505"
	shortCodeUniqueName = "urls_short_code_unique"
)

// ErrNoRecord is the cause attached to NotFound errors raised by stores that
// have no driver error of their own.
var ErrNoRecord = errors.New("no matching live record")

func isShortCodeUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation &&
		pgErr.ConstraintName == shortCodeUniqueName
}

func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)

	case isShortCodeUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)

	default:
		return errx.E(op, errx.Unavailable, err)
	}
}
