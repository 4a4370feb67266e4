package shortener

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shorturl/internal/errx"
)

/***************
 * Mocks
 ***************/

// mockRepository implements Repository for testing.
type mockRepository struct {
	createFunc    func(ctx context.Context, rec Record) (Record, error)
	findCodeFunc  func(ctx context.Context, code string) (Record, error)
	findIDFunc    func(ctx context.Context, id, owner uuid.UUID) (Record, error)
	incrementFunc func(ctx context.Context, id uuid.UUID) (string, error)
	updateFunc    func(ctx context.Context, id, owner uuid.UUID, newURL string) (Record, error)
	deleteFunc    func(ctx context.Context, id, owner uuid.UUID) (Record, error)
	listFunc      func(ctx context.Context, owner uuid.UUID) ([]Record, error)
}

var errMockNotFound = errx.E("mock", errx.NotFound, errors.New("not found"))

func (m *mockRepository) CreateURL(ctx context.Context, rec Record) (Record, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, rec)
	}
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	return rec, nil
}

func (m *mockRepository) FindByShortCode(ctx context.Context, code string) (Record, error) {
	if m.findCodeFunc != nil {
		return m.findCodeFunc(ctx, code)
	}
	return Record{}, errMockNotFound
}

func (m *mockRepository) FindByID(ctx context.Context, id, owner uuid.UUID) (Record, error) {
	if m.findIDFunc != nil {
		return m.findIDFunc(ctx, id, owner)
	}
	return Record{}, errMockNotFound
}

func (m *mockRepository) IncrementClickCount(ctx context.Context, id uuid.UUID) (string, error) {
	if m.incrementFunc != nil {
		return m.incrementFunc(ctx, id)
	}
	return "", errMockNotFound
}

func (m *mockRepository) UpdateOriginalURL(ctx context.Context, id, owner uuid.UUID, newURL string) (Record, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, owner, newURL)
	}
	return Record{}, errMockNotFound
}

func (m *mockRepository) SoftDelete(ctx context.Context, id, owner uuid.UUID) (Record, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id, owner)
	}
	return Record{}, errMockNotFound
}

func (m *mockRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]Record, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, owner)
	}
	return nil, nil
}

// mockGenerator hands out codes in order, then repeats the last one.
type mockGenerator struct {
	codes     []string
	err       error
	callCount int
}

func (m *mockGenerator) Generate() (string, error) {
	m.callCount++
	if m.err != nil {
		return "", m.err
	}
	if len(m.codes) == 0 {
		return "abc123", nil
	}
	idx := min(m.callCount-1, len(m.codes)-1)
	return m.codes[idx], nil
}
