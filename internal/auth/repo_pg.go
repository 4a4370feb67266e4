package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sundayezeilo/shorturl/internal/db"
	"github.com/sundayezeilo/shorturl/internal/errx"
	"github.com/sundayezeilo/shorturl/internal/idgen"
)

const (
	insertUserSQL = `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, created_at, updated_at`

	findUserByEmailSQL = `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1`
)

type pgUserRepo struct {
	db  db.DBTX
	ids idgen.Generator
}

// NewPostgresUserRepository returns a UserRepository backed by the users table.
func NewPostgresUserRepository(conn db.DBTX, ids idgen.Generator) UserRepository {
	if ids == nil {
		ids = idgen.NewV7()
	}
	return &pgUserRepo{db: conn, ids: ids}
}

func isEmailUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == "23505" &&
		pgErr.ConstraintName == "users_email_unique"
}

func mapUserRepoError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)
	case isEmailUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)
	default:
		return errx.E(op, errx.Unavailable, err)
	}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *pgUserRepo) CreateUser(ctx context.Context, u User) (User, error) {
	const op = "auth.repo.CreateUser"

	if u.ID == uuid.Nil {
		id, err := r.ids.Generate()
		if err != nil {
			return User{}, errx.E(op, errx.Unavailable, err)
		}
		u.ID = id
	}

	created, err := scanUser(r.db.QueryRow(ctx, insertUserSQL, u.ID, u.Email, u.PasswordHash))
	if err != nil {
		return User{}, mapUserRepoError(op, err)
	}
	return created, nil
}

func (r *pgUserRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	const op = "auth.repo.FindByEmail"

	u, err := scanUser(r.db.QueryRow(ctx, findUserByEmailSQL, email))
	if err != nil {
		return User{}, mapUserRepoError(op, err)
	}
	return u, nil
}
