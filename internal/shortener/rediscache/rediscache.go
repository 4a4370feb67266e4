// Package rediscache puts a Redis read-through cache in front of a
// shortener.Repository for short-code lookups.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sundayezeilo/shorturl/internal/config"
	"github.com/sundayezeilo/shorturl/internal/logx"
	"github.com/sundayezeilo/shorturl/internal/shortener"
)

const keyPrefix = "shorturl:code:"

// Key returns the cache key for a short code.
func Key(code string) string { return keyPrefix + code }

// NewClient opens a client for cfg and pings it.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// cachedRecord is the JSON stored per code. Deleted records are never cached.
type cachedRecord struct {
	ID          uuid.UUID  `json:"id"`
	OriginalURL string     `json:"original_url"`
	ShortCode   string     `json:"short_code"`
	OwnerID     *uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Repository decorates a shortener.Repository. FindByShortCode reads through
// the cache; UpdateOriginalURL and SoftDelete evict the code after the store
// change. Everything else goes straight to the store. Cached records carry
// no click count.
//
// An entry can go stale: a delete on another node, or a lookup that read the
// row before an update and filled the cache after its eviction. Resolution
// only uses the entry to find the record id. The destination and the deleted
// check come from the store's click increment.
type Repository struct {
	shortener.Repository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ shortener.Repository = (*Repository)(nil)

// New wraps next with a cache stored in client. Entries live for ttl plus up to 10% jitter.
func New(next shortener.Repository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Repository {
	return &Repository{
		Repository: next,
		client:     client,
		ttl:        ttl,
		logger:     logx.OrDiscard(logger),
	}
}

func (r *Repository) expiry() time.Duration {
	jitter := r.ttl / 10
	if jitter <= 0 {
		return r.ttl
	}
	return r.ttl + rand.N(jitter)
}

// FindByShortCode serves from cache when possible. Cache failures fall back to the store.
func (r *Repository) FindByShortCode(ctx context.Context, code string) (shortener.Record, error) {
	key := Key(code)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var c cachedRecord
		if jsonErr := json.Unmarshal(raw, &c); jsonErr == nil {
			return shortener.Record{
				ID:          c.ID,
				OriginalURL: c.OriginalURL,
				ShortCode:   c.ShortCode,
				OwnerID:     c.OwnerID,
				CreatedAt:   c.CreatedAt,
				UpdatedAt:   c.UpdatedAt,
			}, nil
		}
		r.logger.WarnContext(ctx, "discarding unreadable cache entry", "key", key)
	case errors.Is(err, redis.Nil):
		// miss
	default:
		r.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err.Error())
	}

	rec, err := r.Repository.FindByShortCode(ctx, code)
	if err != nil {
		return shortener.Record{}, err
	}

	r.store(ctx, rec)
	return rec, nil
}

func (r *Repository) store(ctx context.Context, rec shortener.Record) {
	body, err := json.Marshal(cachedRecord{
		ID:          rec.ID,
		OriginalURL: rec.OriginalURL,
		ShortCode:   rec.ShortCode,
		OwnerID:     rec.OwnerID,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	})
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, Key(rec.ShortCode), body, r.expiry()).Err(); err != nil {
		r.logger.WarnContext(ctx, "cache write failed", "code", rec.ShortCode, "error", err.Error())
	}
}

func (r *Repository) evict(ctx context.Context, code string) {
	// Evict even if the request is being cancelled.
	ctx = context.WithoutCancel(ctx)
	if err := r.client.Del(ctx, Key(code)).Err(); err != nil {
		r.logger.WarnContext(ctx, "cache evict failed", "code", code, "error", err.Error())
	}
}

func (r *Repository) UpdateOriginalURL(ctx context.Context, id, ownerID uuid.UUID, newURL string) (shortener.Record, error) {
	rec, err := r.Repository.UpdateOriginalURL(ctx, id, ownerID, newURL)
	if err != nil {
		return shortener.Record{}, err
	}
	r.evict(ctx, rec.ShortCode)
	return rec, nil
}

func (r *Repository) SoftDelete(ctx context.Context, id, ownerID uuid.UUID) (shortener.Record, error) {
	rec, err := r.Repository.SoftDelete(ctx, id, ownerID)
	if err != nil {
		return shortener.Record{}, err
	}
	r.evict(ctx, rec.ShortCode)
	return rec, nil
}
