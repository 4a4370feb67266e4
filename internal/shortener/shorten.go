package shortener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shorturl/internal/errx"
	"github.com/sundayezeilo/shorturl/internal/logx"
	"github.com/sundayezeilo/shorturl/sluggen"
)

// DefaultMaxAttempts bounds code generation retries on collision.
const DefaultMaxAttempts = 5

// ShorteningConfig holds configuration for the shortening service.
type ShorteningConfig struct {
	Generator   sluggen.Generator // default: base62 of sluggen.DefaultLength
	MaxAttempts int               // default: DefaultMaxAttempts
	Logger      *slog.Logger      // default: discard
}

// ShorteningService creates records under freshly generated short codes.
type ShorteningService struct {
	repo        Repository
	gen         sluggen.Generator
	maxAttempts int
	logger      *slog.Logger
}

// NewShorteningService creates a new ShorteningService.
func NewShorteningService(repo Repository, config *ShorteningConfig) (*ShorteningService, error) {
	if config == nil {
		config = &ShorteningConfig{}
	}

	gen := config.Generator
	if gen == nil {
		var err error
		if gen, err = sluggen.NewBase62(sluggen.DefaultLength); err != nil {
			return nil, err
		}
	}

	attempts := config.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	return &ShorteningService{
		repo:        repo,
		gen:         gen,
		maxAttempts: attempts,
		logger:      logx.OrDiscard(config.Logger),
	}, nil
}

// Shorten stores originalURL under a new code. caller may be uuid.Nil for anonymous
// requests, in which case the record has no owner and can never be changed.
//
// A code collision is retried with a new code up to the configured attempts;
// running out yields an errx.Exhausted error. Every other store failure is
// returned as is.
func (s *ShorteningService) Shorten(ctx context.Context, originalURL string, caller uuid.UUID) (Record, error) {
	const op = "shortener.Shorten"

	if originalURL == "" {
		return Record{}, errx.E(op, errx.Invalid, errors.New("original URL is required"))
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.gen.Generate()
		if err != nil {
			return Record{}, errx.E(op, errx.Internal, err)
		}

		rec, err := s.repo.CreateURL(ctx, Record{
			OriginalURL: originalURL,
			ShortCode:   code,
			OwnerID:     OwnerRef(caller),
		})
		if err == nil {
			return rec, nil
		}

		if !errx.Is(err, errx.Conflict) {
			return Record{}, errx.E(op, errx.KindOf(err), err)
		}

		s.logger.WarnContext(ctx, "short code collision",
			"attempt", attempt,
			"max_attempts", s.maxAttempts,
		)
	}

	return Record{}, errx.E(op, errx.Exhausted,
		fmt.Errorf("no free short code after %d attempts", s.maxAttempts))
}
