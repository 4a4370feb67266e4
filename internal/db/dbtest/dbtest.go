// Package dbtest starts a throwaway PostgreSQL container for integration tests.
package dbtest

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sundayezeilo/shorturl/internal/db"
)

// Container is a running PostgreSQL with the schema applied.
type Container struct {
	Pool    *pgxpool.Pool
	ConnStr string
}

// Start runs postgres:16-alpine, applies migrations and registers cleanup on t.
// It skips the test under -short.
func Start(t *testing.T) *Container {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pool, err := db.ConnectURL(ctx, connStr, logger)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := db.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &Container{Pool: pool, ConnStr: connStr}
}

// Truncate empties the given tables between subtests.
func (c *Container) Truncate(t *testing.T, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if _, err := c.Pool.Exec(context.Background(), "TRUNCATE TABLE "+table); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}
