package shortener

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sundayezeilo/shorturl/internal/db"
	"github.com/sundayezeilo/shorturl/internal/errx"
	"github.com/sundayezeilo/shorturl/internal/idgen"
)

const recordColumns = `id, original_url, short_code, owner_id, click_count, created_at, updated_at, deleted_at`

const (
	insertURLSQL = `
		INSERT INTO urls (id, original_url, short_code, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + recordColumns

	findByShortCodeSQL = `
		SELECT ` + recordColumns + `
		FROM urls
		WHERE short_code = $1 AND deleted_at IS NULL`

	findByIDSQL = `
		SELECT ` + recordColumns + `
		FROM urls
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`

	incrementClickCountSQL = `
		UPDATE urls
		SET click_count = click_count + 1
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING original_url`

	updateOriginalURLSQL = `
		UPDATE urls
		SET original_url = $3, updated_at = now()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
		RETURNING ` + recordColumns

	softDeleteSQL = `
		UPDATE urls
		SET deleted_at = now()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
		RETURNING ` + recordColumns

	listByOwnerSQL = `
		SELECT ` + recordColumns + `
		FROM urls
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC`
)

type pgRepo struct {
	db  db.DBTX
	ids idgen.Generator
}

// RepositoryConfig holds configuration for the repository.
type RepositoryConfig struct {
	IDGenerator idgen.Generator
}

// NewPostgresRepository returns a Repository backed by the urls table.
func NewPostgresRepository(conn db.DBTX, config *RepositoryConfig) Repository {
	if config == nil {
		config = &RepositoryConfig{}
	}

	// UUID v7 keeps primary key inserts close to append-only.
	ids := config.IDGenerator
	if ids == nil {
		ids = idgen.NewV7(idgen.WithRetries(1))
	}

	return &pgRepo{db: conn, ids: ids}
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.OriginalURL,
		&rec.ShortCode,
		&rec.OwnerID,
		&rec.ClickCount,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.DeletedAt,
	)
	return rec, err
}

func (r *pgRepo) CreateURL(ctx context.Context, rec Record) (Record, error) {
	const op = "shortener.repo.CreateURL"

	if rec.ID == uuid.Nil {
		id, err := r.ids.Generate()
		if err != nil {
			return Record{}, errx.E(op, errx.Unavailable, err)
		}
		rec.ID = id
	}

	created, err := scanRecord(r.db.QueryRow(ctx, insertURLSQL,
		rec.ID, rec.OriginalURL, rec.ShortCode, rec.OwnerID,
	))
	if err != nil {
		return Record{}, mapRepoError(op, err)
	}
	return created, nil
}

func (r *pgRepo) FindByShortCode(ctx context.Context, code string) (Record, error) {
	const op = "shortener.repo.FindByShortCode"

	rec, err := scanRecord(r.db.QueryRow(ctx, findByShortCodeSQL, code))
	if err != nil {
		return Record{}, mapRepoError(op, err)
	}
	return rec, nil
}

func (r *pgRepo) FindByID(ctx context.Context, id, ownerID uuid.UUID) (Record, error) {
	const op = "shortener.repo.FindByID"

	rec, err := scanRecord(r.db.QueryRow(ctx, findByIDSQL, id, ownerID))
	if err != nil {
		return Record{}, mapRepoError(op, err)
	}
	return rec, nil
}

func (r *pgRepo) IncrementClickCount(ctx context.Context, id uuid.UUID) (string, error) {
	const op = "shortener.repo.IncrementClickCount"

	var dest string
	if err := r.db.QueryRow(ctx, incrementClickCountSQL, id).Scan(&dest); err != nil {
		return "", mapRepoError(op, err)
	}
	return dest, nil
}

func (r *pgRepo) UpdateOriginalURL(ctx context.Context, id, ownerID uuid.UUID, newURL string) (Record, error) {
	const op = "shortener.repo.UpdateOriginalURL"

	rec, err := scanRecord(r.db.QueryRow(ctx, updateOriginalURLSQL, id, ownerID, newURL))
	if err != nil {
		return Record{}, mapRepoError(op, err)
	}
	return rec, nil
}

func (r *pgRepo) SoftDelete(ctx context.Context, id, ownerID uuid.UUID) (Record, error) {
	const op = "shortener.repo.SoftDelete"

	rec, err := scanRecord(r.db.QueryRow(ctx, softDeleteSQL, id, ownerID))
	if err != nil {
		return Record{}, mapRepoError(op, err)
	}
	return rec, nil
}

func (r *pgRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Record, error) {
	const op = "shortener.repo.ListByOwner"

	rows, err := r.db.Query(ctx, listByOwnerSQL, ownerID)
	if err != nil {
		return nil, mapRepoError(op, err)
	}

	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	return recs, nil
}
