package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationState is one embedded migration and whether the database has it.
type MigrationState struct {
	Version string
	Applied bool
}

// Migrations returns the embedded migration files.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// newProvider opens a goose provider over pool. Concurrent migrators are
// serialized by a Postgres advisory lock held for the session.
func newProvider(pool *pgxpool.Pool) (*goose.Provider, error) {
	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return nil, fmt.Errorf("create migration lock: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, Migrations(),
		goose.WithSessionLocker(locker),
	)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return provider, nil
}

// Migrate applies every pending embedded migration, each in its own
// transaction. It returns the versions applied by this call.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) ([]string, error) {
	provider, err := newProvider(pool)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	results, err := provider.Up(ctx)

	applied := make([]string, 0, len(results))
	for _, r := range results {
		if r.Error != nil {
			continue
		}
		version := versionOf(r.Source)
		logger.Info("migration applied", "version", version, "duration", r.Duration)
		applied = append(applied, version)
	}
	if err != nil {
		return applied, fmt.Errorf("apply migrations: %w", err)
	}
	return applied, nil
}

// Status reports every embedded migration in apply order.
func Status(ctx context.Context, pool *pgxpool.Pool) ([]MigrationState, error) {
	provider, err := newProvider(pool)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}

	out := make([]MigrationState, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationState{
			Version: versionOf(s.Source),
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

// versionOf names a migration by its file name, e.g. "0001_urls".
func versionOf(src *goose.Source) string {
	return strings.TrimSuffix(path.Base(src.Path), path.Ext(src.Path))
}
