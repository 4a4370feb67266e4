package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shorturl/internal/auth"
	"github.com/sundayezeilo/shorturl/internal/errx"
	"github.com/sundayezeilo/shorturl/internal/shortener"
	"github.com/sundayezeilo/shorturl/internal/shortener/memstore"
	"github.com/sundayezeilo/shorturl/internal/shortener/repotest"
)

func TestStore(t *testing.T) {
	repotest.Run(t, func(*testing.T) repotest.Store {
		store := memstore.New()
		return repotest.Store{Repo: store, Peek: store.Peek}
	})
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	owner := uuid.New()

	rec, err := store.CreateURL(ctx, shortener.Record{
		OriginalURL: "https://example.com",
		ShortCode:   "copy01",
		OwnerID:     &owner,
	})
	if err != nil {
		t.Fatalf("CreateURL: %v", err)
	}

	*rec.OwnerID = uuid.New()
	rec.OriginalURL = "https://mutated.example"

	got, err := store.FindByID(ctx, rec.ID, owner)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.OriginalURL != "https://example.com" {
		t.Errorf("store shares memory with caller: %q", got.OriginalURL)
	}
}

func TestStore_Clock(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store := memstore.New(memstore.WithClock(func() time.Time { return now }))
	ctx := context.Background()
	owner := uuid.New()

	rec, err := store.CreateURL(ctx, shortener.Record{OriginalURL: "https://example.com", ShortCode: "clk001", OwnerID: &owner})
	if err != nil {
		t.Fatalf("CreateURL: %v", err)
	}
	if !rec.CreatedAt.Equal(now) {
		t.Errorf("created_at = %v, want %v", rec.CreatedAt, now)
	}

	now = now.Add(time.Hour)
	deleted, err := store.SoftDelete(ctx, rec.ID, owner)
	if err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if deleted.DeletedAt == nil || !deleted.DeletedAt.Equal(now) {
		t.Errorf("deleted_at = %v, want %v", deleted.DeletedAt, now)
	}
}

func TestStore_CanceledCreate(t *testing.T) {
	store := memstore.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.CreateURL(ctx, shortener.Record{OriginalURL: "https://example.com", ShortCode: "ctx001"})
	if !errx.Is(err, errx.Unavailable) {
		t.Errorf("kind = %v, want Unavailable", errx.KindOf(err))
	}
}

func TestUsers(t *testing.T) {
	users := memstore.NewUsers()
	ctx := context.Background()

	_, err := users.FindByEmail(ctx, "ada@example.com")
	if !errx.Is(err, errx.NotFound) {
		t.Fatalf("kind = %v, want NotFound", errx.KindOf(err))
	}

	created, err := users.CreateUser(ctx, auth.User{Email: "ada@example.com", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.ID == uuid.Nil || created.CreatedAt.IsZero() {
		t.Errorf("expected id and timestamps: %+v", created)
	}

	found, err := users.FindByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("id = %s, want %s", found.ID, created.ID)
	}

	_, err = users.CreateUser(ctx, auth.User{Email: "ada@example.com", PasswordHash: "other"})
	if !errx.Is(err, errx.Conflict) {
		t.Errorf("kind = %v, want Conflict", errx.KindOf(err))
	}
}
