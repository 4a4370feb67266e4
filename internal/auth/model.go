// Package auth registers users, checks passwords and issues the bearer tokens
// that identify callers. Everything downstream only sees a caller uuid.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a registered account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository persists users. CreateUser fails with errx.Conflict on a
// taken email; FindByEmail fails with errx.NotFound for unknown emails.
type UserRepository interface {
	CreateUser(ctx context.Context, u User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
}
