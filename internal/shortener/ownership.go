package shortener

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shorturl/internal/errx"
	"github.com/sundayezeilo/shorturl/internal/logx"
)

var errNoCaller = errors.New("caller identity required")

// OwnershipConfig holds configuration for the ownership service.
type OwnershipConfig struct {
	Logger *slog.Logger
}

// OwnershipService serves an owner's view of their records.
// Records that are missing, deleted or owned by someone else all yield the
// same NotFound.
type OwnershipService struct {
	repo   Repository
	logger *slog.Logger
}

// NewOwnershipService creates a new OwnershipService.
func NewOwnershipService(repo Repository, config *OwnershipConfig) *OwnershipService {
	if config == nil {
		config = &OwnershipConfig{}
	}
	return &OwnershipService{repo: repo, logger: logx.OrDiscard(config.Logger)}
}

// GetURL returns one of caller's live records.
func (s *OwnershipService) GetURL(ctx context.Context, caller, id uuid.UUID) (Record, error) {
	const op = "shortener.GetURL"

	if caller == uuid.Nil {
		return Record{}, errx.E(op, errx.Unauthorized, errNoCaller)
	}

	rec, err := s.repo.FindByID(ctx, id, caller)
	if err != nil {
		return Record{}, errx.E(op, errx.KindOf(err), err)
	}
	return rec, nil
}

// ListURLs returns caller's live records, oldest first.
func (s *OwnershipService) ListURLs(ctx context.Context, caller uuid.UUID) ([]Record, error) {
	const op = "shortener.ListURLs"

	if caller == uuid.Nil {
		return nil, errx.E(op, errx.Unauthorized, errNoCaller)
	}

	recs, err := s.repo.ListByOwner(ctx, caller)
	if err != nil {
		return nil, errx.E(op, errx.KindOf(err), err)
	}
	return recs, nil
}

// UpdateURL points one of caller's live records at newURL.
func (s *OwnershipService) UpdateURL(ctx context.Context, caller, id uuid.UUID, newURL string) (Record, error) {
	const op = "shortener.UpdateURL"

	if caller == uuid.Nil {
		return Record{}, errx.E(op, errx.Unauthorized, errNoCaller)
	}
	if newURL == "" {
		return Record{}, errx.E(op, errx.Invalid, errors.New("new original URL is required"))
	}

	rec, err := s.repo.UpdateOriginalURL(ctx, id, caller, newURL)
	if err != nil {
		return Record{}, errx.E(op, errx.KindOf(err), err)
	}

	s.logger.InfoContext(ctx, "url updated", "url_id", rec.ID.String(), "owner_id", caller.String())
	return rec, nil
}

// DeleteURL soft-deletes one of caller's live records. Deleting twice yields NotFound.
func (s *OwnershipService) DeleteURL(ctx context.Context, caller, id uuid.UUID) (Record, error) {
	const op = "shortener.DeleteURL"

	if caller == uuid.Nil {
		return Record{}, errx.E(op, errx.Unauthorized, errNoCaller)
	}

	rec, err := s.repo.SoftDelete(ctx, id, caller)
	if err != nil {
		return Record{}, errx.E(op, errx.KindOf(err), err)
	}

	s.logger.InfoContext(ctx, "url deleted", "url_id", rec.ID.String(), "owner_id", caller.String())
	return rec, nil
}
