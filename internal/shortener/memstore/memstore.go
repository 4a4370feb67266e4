// Package memstore keeps URL records and users in process memory.
// It enforces the same constraints as the PostgreSQL tables: short codes are
// reserved forever, increments are atomic and mutations carry the ownership
// and deletion predicates. Data does not survive a restart.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shorturl/internal/errx"
	"github.com/sundayezeilo/shorturl/internal/idgen"
	"github.com/sundayezeilo/shorturl/internal/shortener"
)

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the record id generator.
func WithIDGenerator(g idgen.Generator) Option {
	return func(s *Store) { s.ids = g }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is an in-memory shortener.Repository.
type Store struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*shortener.Record
	byCode map[string]uuid.UUID

	ids idgen.Generator
	now func() time.Time
}

var _ shortener.Repository = (*Store)(nil)

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		byID:   make(map[uuid.UUID]*shortener.Record),
		byCode: make(map[string]uuid.UUID),
		ids:    idgen.NewV7(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func notFound(op string) error {
	return errx.E(op, errx.NotFound, shortener.ErrNoRecord)
}

func (s *Store) CreateURL(ctx context.Context, rec shortener.Record) (shortener.Record, error) {
	const op = "memstore.CreateURL"

	if err := ctx.Err(); err != nil {
		return shortener.Record{}, errx.E(op, errx.Unavailable, err)
	}

	if rec.ID == uuid.Nil {
		id, err := s.ids.Generate()
		if err != nil {
			return shortener.Record{}, errx.E(op, errx.Unavailable, err)
		}
		rec.ID = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byCode[rec.ShortCode]; taken {
		return shortener.Record{}, errx.E(op, errx.Conflict, fmt.Errorf("short code %q already exists", rec.ShortCode))
	}
	if _, taken := s.byID[rec.ID]; taken {
		return shortener.Record{}, errx.E(op, errx.Unavailable, fmt.Errorf("duplicate id %s", rec.ID))
	}

	now := s.now().UTC()
	stored := rec.Clone()
	stored.ClickCount = 0
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.DeletedAt = nil

	s.byID[stored.ID] = &stored
	s.byCode[stored.ShortCode] = stored.ID
	return stored.Clone(), nil
}

func (s *Store) FindByShortCode(_ context.Context, code string) (shortener.Record, error) {
	const op = "memstore.FindByShortCode"

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCode[code]
	if !ok {
		return shortener.Record{}, notFound(op)
	}
	rec := s.byID[id]
	if rec.IsDeleted() {
		return shortener.Record{}, notFound(op)
	}
	return rec.Clone(), nil
}

// live returns the record if it exists and is not deleted. With checkOwner it
// must also belong to owner. Callers hold s.mu.
func (s *Store) live(id, owner uuid.UUID, checkOwner bool) (*shortener.Record, bool) {
	rec, ok := s.byID[id]
	if !ok || rec.IsDeleted() {
		return nil, false
	}
	if checkOwner && !rec.IsOwnedBy(owner) {
		return nil, false
	}
	return rec, true
}

func (s *Store) FindByID(_ context.Context, id, ownerID uuid.UUID) (shortener.Record, error) {
	const op = "memstore.FindByID"

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.live(id, ownerID, true)
	if !ok {
		return shortener.Record{}, notFound(op)
	}
	return rec.Clone(), nil
}

func (s *Store) IncrementClickCount(_ context.Context, id uuid.UUID) (string, error) {
	const op = "memstore.IncrementClickCount"

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.live(id, uuid.Nil, false)
	if !ok {
		return "", notFound(op)
	}
	rec.ClickCount++
	rec.UpdatedAt = s.now().UTC()
	return rec.OriginalURL, nil
}

func (s *Store) UpdateOriginalURL(_ context.Context, id, ownerID uuid.UUID, newURL string) (shortener.Record, error) {
	const op = "memstore.UpdateOriginalURL"

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.live(id, ownerID, true)
	if !ok {
		return shortener.Record{}, notFound(op)
	}
	rec.OriginalURL = newURL
	rec.UpdatedAt = s.now().UTC()
	return rec.Clone(), nil
}

func (s *Store) SoftDelete(_ context.Context, id, ownerID uuid.UUID) (shortener.Record, error) {
	const op = "memstore.SoftDelete"

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.live(id, ownerID, true)
	if !ok {
		return shortener.Record{}, notFound(op)
	}
	now := s.now().UTC()
	rec.DeletedAt = &now
	rec.UpdatedAt = now
	return rec.Clone(), nil
}

func (s *Store) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]shortener.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]shortener.Record, 0)
	for _, rec := range s.byID {
		if rec.IsDeleted() || !rec.IsOwnedBy(ownerID) {
			continue
		}
		out = append(out, rec.Clone())
	}

	slices.SortFunc(out, func(a, b shortener.Record) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}
