// Package repotest holds behaviour every shortener.Repository must share.
package repotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shorturl/internal/errx"
	"github.com/sundayezeilo/shorturl/internal/shortener"
)

// Peek reads a stored row by id, ignoring ownership and deletion.
type Peek func(ctx context.Context, id uuid.UUID) (shortener.Record, error)

// Store is a repository under test. Peek is optional; without it the checks
// that need to see deleted rows are skipped.
type Store struct {
	Repo shortener.Repository
	Peek Peek
}

// Run exercises store factories against the Repository contract. newStore must
// return an empty store for each call.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	newRepo := func(t *testing.T) shortener.Repository { return newStore(t).Repo }

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		owner := uuid.New()

		rec := mustCreate(t, repo, "create1", &owner)
		if rec.ID == uuid.Nil {
			t.Error("expected an id")
		}
		if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
			t.Error("expected timestamps")
		}
		if rec.ClickCount != 0 || rec.DeletedAt != nil {
			t.Errorf("unexpected initial state: %+v", rec)
		}
		if !rec.IsOwnedBy(owner) {
			t.Errorf("owner = %v, want %s", rec.OwnerID, owner)
		}
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		repo := newRepo(t)
		mustCreate(t, repo, "dupe01", nil)

		_, err := repo.CreateURL(context.Background(), shortener.Record{
			OriginalURL: "https://example.com/other",
			ShortCode:   "dupe01",
		})
		if !errx.Is(err, errx.Conflict) {
			t.Fatalf("kind = %v, want Conflict (err %v)", errx.KindOf(err), err)
		}
	})

	t.Run("codes stay reserved after delete", func(t *testing.T) {
		repo := newRepo(t)
		owner := uuid.New()
		rec := mustCreate(t, repo, "gone01", &owner)

		if _, err := repo.SoftDelete(context.Background(), rec.ID, owner); err != nil {
			t.Fatalf("SoftDelete: %v", err)
		}
		_, err := repo.CreateURL(context.Background(), shortener.Record{
			OriginalURL: "https://example.com",
			ShortCode:   "gone01",
		})
		if !errx.Is(err, errx.Conflict) {
			t.Fatalf("kind = %v, want Conflict", errx.KindOf(err))
		}
	})

	t.Run("find by code", func(t *testing.T) {
		repo := newRepo(t)
		rec := mustCreate(t, repo, "find01", nil)

		got, err := repo.FindByShortCode(context.Background(), "find01")
		if err != nil {
			t.Fatalf("FindByShortCode: %v", err)
		}
		if got.ID != rec.ID || got.OriginalURL != rec.OriginalURL {
			t.Errorf("got %+v, want %+v", got, rec)
		}

		_, err = repo.FindByShortCode(context.Background(), "nope01")
		if !errx.Is(err, errx.NotFound) {
			t.Errorf("kind = %v, want NotFound", errx.KindOf(err))
		}
	})

	t.Run("find by id checks owner", func(t *testing.T) {
		repo := newRepo(t)
		owner := uuid.New()
		rec := mustCreate(t, repo, "byid01", &owner)
		anon := mustCreate(t, repo, "byid02", nil)
		ctx := context.Background()

		if _, err := repo.FindByID(ctx, rec.ID, owner); err != nil {
			t.Errorf("owner lookup: %v", err)
		}
		if _, err := repo.FindByID(ctx, rec.ID, uuid.New()); !errx.Is(err, errx.NotFound) {
			t.Errorf("stranger lookup kind = %v, want NotFound", errx.KindOf(err))
		}
		if _, err := repo.FindByID(ctx, anon.ID, owner); !errx.Is(err, errx.NotFound) {
			t.Errorf("anonymous lookup kind = %v, want NotFound", errx.KindOf(err))
		}
	})

	t.Run("increment", func(t *testing.T) {
		repo := newRepo(t)
		owner := uuid.New()
		rec := mustCreate(t, repo, "incr01", &owner)
		ctx := context.Background()

		for range 3 {
			dest, err := repo.IncrementClickCount(ctx, rec.ID)
			if err != nil {
				t.Fatalf("IncrementClickCount: %v", err)
			}
			if dest != rec.OriginalURL {
				t.Errorf("destination = %q, want %q", dest, rec.OriginalURL)
			}
		}
		got, err := repo.FindByShortCode(ctx, "incr01")
		if err != nil {
			t.Fatalf("FindByShortCode: %v", err)
		}
		if got.ClickCount != 3 {
			t.Errorf("clicks = %d, want 3", got.ClickCount)
		}
		if got.UpdatedAt.Before(rec.UpdatedAt) {
			t.Errorf("updated_at went backwards: %v < %v", got.UpdatedAt, rec.UpdatedAt)
		}

		if _, err := repo.IncrementClickCount(ctx, uuid.New()); !errx.Is(err, errx.NotFound) {
			t.Errorf("unknown id kind = %v, want NotFound", errx.KindOf(err))
		}

		if _, err := repo.SoftDelete(ctx, rec.ID, owner); err != nil {
			t.Fatalf("SoftDelete: %v", err)
		}
		if _, err := repo.IncrementClickCount(ctx, rec.ID); !errx.Is(err, errx.NotFound) {
			t.Errorf("deleted id kind = %v, want NotFound", errx.KindOf(err))
		}
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		repo := newRepo(t)
		rec := mustCreate(t, repo, "race01", nil)
		ctx := context.Background()

		const n = 50
		var wg sync.WaitGroup
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := repo.IncrementClickCount(ctx, rec.ID); err != nil {
					t.Errorf("IncrementClickCount: %v", err)
				}
			}()
		}
		wg.Wait()

		got, err := repo.FindByShortCode(ctx, "race01")
		if err != nil {
			t.Fatalf("FindByShortCode: %v", err)
		}
		if got.ClickCount != n {
			t.Errorf("clicks = %d, want %d", got.ClickCount, n)
		}
	})

	t.Run("update", func(t *testing.T) {
		repo := newRepo(t)
		owner := uuid.New()
		rec := mustCreate(t, repo, "updt01", &owner)
		ctx := context.Background()

		got, err := repo.UpdateOriginalURL(ctx, rec.ID, owner, "https://example.org/new")
		if err != nil {
			t.Fatalf("UpdateOriginalURL: %v", err)
		}
		if got.OriginalURL != "https://example.org/new" {
			t.Errorf("url = %q", got.OriginalURL)
		}
		if got.ShortCode != rec.ShortCode || got.ID != rec.ID {
			t.Errorf("identity changed: %+v", got)
		}
		if got.UpdatedAt.Before(rec.UpdatedAt) {
			t.Errorf("updated_at went backwards")
		}

		if _, err := repo.UpdateOriginalURL(ctx, rec.ID, uuid.New(), "https://evil.example"); !errx.Is(err, errx.NotFound) {
			t.Errorf("stranger update kind = %v, want NotFound", errx.KindOf(err))
		}
		resolved, _ := repo.FindByShortCode(ctx, "updt01")
		if resolved.OriginalURL != "https://example.org/new" {
			t.Errorf("stranger update leaked: %q", resolved.OriginalURL)
		}

		dest, err := repo.IncrementClickCount(ctx, rec.ID)
		if err != nil {
			t.Fatalf("IncrementClickCount: %v", err)
		}
		if dest != "https://example.org/new" {
			t.Errorf("click destination = %q, want the updated url", dest)
		}
	})

	t.Run("soft delete", func(t *testing.T) {
		st := newStore(t)
		repo := st.Repo
		owner := uuid.New()
		rec := mustCreate(t, repo, "del001", &owner)
		ctx := context.Background()

		if _, err := repo.SoftDelete(ctx, rec.ID, uuid.New()); !errx.Is(err, errx.NotFound) {
			t.Errorf("stranger delete kind = %v, want NotFound", errx.KindOf(err))
		}

		deleted, err := repo.SoftDelete(ctx, rec.ID, owner)
		if err != nil {
			t.Fatalf("SoftDelete: %v", err)
		}
		if deleted.DeletedAt == nil {
			t.Error("expected deleted_at")
		}

		var before shortener.Record
		if st.Peek != nil {
			if before, err = st.Peek(ctx, rec.ID); err != nil {
				t.Fatalf("peek: %v", err)
			}
			// Any timestamp written by the second delete would differ.
			time.Sleep(5 * time.Millisecond)
		}

		if _, err := repo.SoftDelete(ctx, rec.ID, owner); !errx.Is(err, errx.NotFound) {
			t.Errorf("second delete kind = %v, want NotFound", errx.KindOf(err))
		}

		if st.Peek != nil {
			after, err := st.Peek(ctx, rec.ID)
			if err != nil {
				t.Fatalf("peek: %v", err)
			}
			if after.DeletedAt == nil || before.DeletedAt == nil || !after.DeletedAt.Equal(*before.DeletedAt) {
				t.Errorf("deleted_at changed: %v -> %v", before.DeletedAt, after.DeletedAt)
			}
			if !after.UpdatedAt.Equal(before.UpdatedAt) {
				t.Errorf("updated_at changed: %v -> %v", before.UpdatedAt, after.UpdatedAt)
			}
		}
		if _, err := repo.FindByShortCode(ctx, "del001"); !errx.Is(err, errx.NotFound) {
			t.Errorf("resolve after delete kind = %v, want NotFound", errx.KindOf(err))
		}
		if _, err := repo.FindByID(ctx, rec.ID, owner); !errx.Is(err, errx.NotFound) {
			t.Errorf("get after delete kind = %v, want NotFound", errx.KindOf(err))
		}
		if _, err := repo.UpdateOriginalURL(ctx, rec.ID, owner, "https://example.org"); !errx.Is(err, errx.NotFound) {
			t.Errorf("update after delete kind = %v, want NotFound", errx.KindOf(err))
		}
	})

	t.Run("list by owner", func(t *testing.T) {
		repo := newRepo(t)
		owner := uuid.New()
		ctx := context.Background()

		first := mustCreate(t, repo, "list01", &owner)
		second := mustCreate(t, repo, "list02", &owner)
		gone := mustCreate(t, repo, "list03", &owner)
		mustCreate(t, repo, "list04", nil)
		other := uuid.New()
		mustCreate(t, repo, "list05", &other)

		if _, err := repo.SoftDelete(ctx, gone.ID, owner); err != nil {
			t.Fatalf("SoftDelete: %v", err)
		}

		recs, err := repo.ListByOwner(ctx, owner)
		if err != nil {
			t.Fatalf("ListByOwner: %v", err)
		}
		if len(recs) != 2 {
			t.Fatalf("got %d records, want 2", len(recs))
		}
		if recs[0].ID != first.ID || recs[1].ID != second.ID {
			t.Errorf("order = [%s %s], want [%s %s]", recs[0].ShortCode, recs[1].ShortCode, first.ShortCode, second.ShortCode)
		}

		empty, err := repo.ListByOwner(ctx, uuid.New())
		if err != nil {
			t.Fatalf("ListByOwner: %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("expected no records, got %d", len(empty))
		}
	})
}

func mustCreate(t *testing.T, repo shortener.Repository, code string, owner *uuid.UUID) shortener.Record {
	t.Helper()

	rec, err := repo.CreateURL(context.Background(), shortener.Record{
		OriginalURL: "https://example.com/" + code,
		ShortCode:   code,
		OwnerID:     owner,
	})
	if err != nil {
		t.Fatalf("CreateURL(%s): %v", code, err)
	}
	// created_at orders listings; keep consecutive rows apart.
	time.Sleep(2 * time.Millisecond)
	return rec
}
