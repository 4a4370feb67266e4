package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shorturl/internal/auth"
	"github.com/sundayezeilo/shorturl/internal/errx"
	"github.com/sundayezeilo/shorturl/internal/idgen"
)

// Users is an in-memory auth.UserRepository with unique emails.
type Users struct {
	mu      sync.RWMutex
	byEmail map[string]auth.User

	ids idgen.Generator
	now func() time.Time
}

var _ auth.UserRepository = (*Users)(nil)

// NewUsers returns an empty user store.
func NewUsers() *Users {
	return &Users{
		byEmail: make(map[string]auth.User),
		ids:     idgen.NewV7(),
		now:     time.Now,
	}
}

func (u *Users) CreateUser(_ context.Context, user auth.User) (auth.User, error) {
	const op = "memstore.CreateUser"

	if user.ID == uuid.Nil {
		id, err := u.ids.Generate()
		if err != nil {
			return auth.User{}, errx.E(op, errx.Unavailable, err)
		}
		user.ID = id
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if _, taken := u.byEmail[user.Email]; taken {
		return auth.User{}, errx.E(op, errx.Conflict, fmt.Errorf("email %q already registered", user.Email))
	}

	now := u.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	u.byEmail[user.Email] = user
	return user, nil
}

func (u *Users) FindByEmail(_ context.Context, email string) (auth.User, error) {
	const op = "memstore.FindByEmail"

	u.mu.RLock()
	defer u.mu.RUnlock()

	user, ok := u.byEmail[email]
	if !ok {
		return auth.User{}, errx.E(op, errx.NotFound, fmt.Errorf("no user with email %q", email))
	}
	return user, nil
}
