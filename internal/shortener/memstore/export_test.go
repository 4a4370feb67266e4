package memstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shorturl/internal/shortener"
)

// Peek returns the stored row for id, deleted or not.
func (s *Store) Peek(_ context.Context, id uuid.UUID) (shortener.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return shortener.Record{}, notFound("memstore.Peek")
	}
	return rec.Clone(), nil
}
