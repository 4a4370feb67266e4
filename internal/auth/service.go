package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/sundayezeilo/shorturl/internal/errx"
	"github.com/sundayezeilo/shorturl/internal/logx"
)

const maxEmailLength = 255

var errBadCredentials = errors.New("invalid email or password")

// RegisterInput is what a new account supplies.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// Token is a signed bearer token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Service registers users and logs them in.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	tokens *TokenManager
	logger *slog.Logger

	// dummyHash is compared against on unknown emails so both failure paths cost one bcrypt run.
	dummyHash string
}

// NewService creates a new Service.
func NewService(users UserRepository, hasher PasswordHasher, tokens *TokenManager, logger *slog.Logger) (*Service, error) {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logx.OrDiscard(logger),
		dummyHash: dummy,
	}, nil
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(in RegisterInput) error {
	if in.Email == "" {
		return errors.New("email is required")
	}
	if len(in.Email) > maxEmailLength {
		return fmt.Errorf("email too long (max %d characters)", maxEmailLength)
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return errors.New("email must be a valid address")
	}
	if in.Password == "" {
		return errors.New("password is required")
	}
	if len(in.Password) > MaxPasswordBytes {
		return fmt.Errorf("password too long (max %d bytes)", MaxPasswordBytes)
	}
	if in.Password != in.ConfirmPassword {
		return errors.New("passwords do not match")
	}
	return nil
}

// Register creates an account. A taken email yields errx.Conflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	const op = "auth.Register"

	in.Email = NormalizeEmail(in.Email)
	if err := validateRegistration(in); err != nil {
		return User{}, errx.E(op, errx.Invalid, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return User{}, errx.E(op, errx.Internal, err)
	}

	user, err := s.users.CreateUser(ctx, User{Email: in.Email, PasswordHash: hash})
	if err != nil {
		if errx.Is(err, errx.Conflict) {
			return User{}, errx.E(op, errx.Conflict, errors.New("email is already registered"))
		}
		return User{}, errx.E(op, errx.KindOf(err), err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID.String())
	return user, nil
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	const op = "auth.Login"

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Token{}, errx.E(op, errx.Unauthorized, errBadCredentials)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errx.Is(err, errx.NotFound) {
			return Token{}, errx.E(op, errx.KindOf(err), err)
		}
		_, _ = s.hasher.Matches(s.dummyHash, password)
		return Token{}, errx.E(op, errx.Unauthorized, errBadCredentials)
	}

	ok, err := s.hasher.Matches(user.PasswordHash, password)
	if err != nil {
		return Token{}, errx.E(op, errx.Internal, err)
	}
	if !ok {
		return Token{}, errx.E(op, errx.Unauthorized, errBadCredentials)
	}

	value, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Token{}, errx.E(op, errx.Internal, err)
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID.String())
	return Token{Value: value, ExpiresAt: expiresAt}, nil
}
