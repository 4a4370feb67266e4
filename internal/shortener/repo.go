package shortener

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the durable store behind the services. It is the only point of
// concurrency control: uniqueness of ShortCode and the ownership and deletion
// predicates on mutations are enforced by each call atomically.
//
// Errors carry errx kinds: Conflict for a taken short code, NotFound when no
// live record matches, Unavailable for anything else.
type Repository interface {
	// CreateURL persists rec. An empty ID is assigned by the store.
	CreateURL(ctx context.Context, rec Record) (Record, error)
	// FindByShortCode returns the live record with the given code.
	FindByShortCode(ctx context.Context, code string) (Record, error)
	// FindByID returns the live record with the given id owned by ownerID.
	FindByID(ctx context.Context, id, ownerID uuid.UUID) (Record, error)
	// IncrementClickCount adds one click to a live record in a single step and
	// returns the record's destination as of that step.
	IncrementClickCount(ctx context.Context, id uuid.UUID) (string, error)
	// UpdateOriginalURL changes the destination of a live record owned by ownerID.
	UpdateOriginalURL(ctx context.Context, id, ownerID uuid.UUID, newURL string) (Record, error)
	// SoftDelete marks a live record owned by ownerID as deleted.
	SoftDelete(ctx context.Context, id, ownerID uuid.UUID) (Record, error)
	// ListByOwner returns live records of ownerID, oldest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Record, error)
}
