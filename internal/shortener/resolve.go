package shortener

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sundayezeilo/shorturl/internal/errx"
	"github.com/sundayezeilo/shorturl/internal/logx"
)

// DefaultIncrementTimeout bounds the click increment once the lookup succeeded.
const DefaultIncrementTimeout = 2 * time.Second

// ResolutionConfig holds configuration for the resolution service.
type ResolutionConfig struct {
	IncrementTimeout time.Duration
	Logger           *slog.Logger
}

// ResolutionService turns codes back into destinations and counts clicks.
type ResolutionService struct {
	repo             Repository
	incrementTimeout time.Duration
	logger           *slog.Logger
}

// NewResolutionService creates a new ResolutionService.
func NewResolutionService(repo Repository, config *ResolutionConfig) *ResolutionService {
	if config == nil {
		config = &ResolutionConfig{}
	}

	timeout := config.IncrementTimeout
	if timeout <= 0 {
		timeout = DefaultIncrementTimeout
	}

	return &ResolutionService{
		repo:             repo,
		incrementTimeout: timeout,
		logger:           logx.OrDiscard(config.Logger),
	}
}

// Resolve returns the destination of the live record named by code and counts one click.
//
// The lookup only locates the record, possibly from a cache. The destination
// returned is the one the store reports while counting the click, so an update
// or delete that raced a cached lookup is always honoured. The increment runs
// detached from ctx's cancellation so a client hanging up cannot abort it
// halfway. A NotFound from the increment means the record was deleted after
// the lookup. Any other increment failure is logged and the looked-up
// destination is returned instead.
func (s *ResolutionService) Resolve(ctx context.Context, code string) (string, error) {
	const op = "shortener.Resolve"

	if code == "" {
		return "", errx.E(op, errx.NotFound, errors.New("empty short code"))
	}

	rec, err := s.repo.FindByShortCode(ctx, code)
	if err != nil {
		return "", errx.E(op, errx.KindOf(err), err)
	}

	incCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.incrementTimeout)
	defer cancel()

	dest, err := s.repo.IncrementClickCount(incCtx, rec.ID)
	if err != nil {
		if errx.Is(err, errx.NotFound) {
			return "", errx.E(op, errx.NotFound, err)
		}
		s.logger.WarnContext(ctx, "click increment failed",
			"url_id", rec.ID.String(),
			"code", code,
			"error", err.Error(),
			"operation", errx.OpOf(err),
		)
		return rec.OriginalURL, nil
	}

	return dest, nil
}
