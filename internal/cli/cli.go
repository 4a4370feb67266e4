// Package cli implements the shortenctl admin commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sundayezeilo/shorturl/internal/config"
	"github.com/sundayezeilo/shorturl/internal/db"
	"github.com/sundayezeilo/shorturl/internal/logx"
	"github.com/sundayezeilo/shorturl/internal/shortener"
	"github.com/sundayezeilo/shorturl/sluggen"
)

// Env is what the commands run against.
type Env struct {
	Repo      shortener.Repository
	Generator sluggen.Generator
	Attempts  int
	ShortURL  func(code string) string
	Migrate   func(ctx context.Context) ([]string, error)
	Status    func(ctx context.Context) ([]db.MigrationState, error)
	Logger    *slog.Logger
	Close     func()
}

// Opener builds an Env on demand, so --help never touches the database.
type Opener func(ctx context.Context) (*Env, error)

// NewRootCommand returns the shortenctl command tree.
func NewRootCommand(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "shortenctl",
		Short:         "Administer the short URL service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCommand(open),
		newShortenCommand(open),
		newListCommand(open),
		newStatsCommand(open),
	)
	return root
}

func withEnv(cmd *cobra.Command, open Opener, fn func(ctx context.Context, env *Env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env, err := open(ctx)
	if err != nil {
		return err
	}
	if env.Close != nil {
		defer env.Close()
	}
	return fn(ctx, env)
}

// PostgresOpener connects to the database configured in the environment.
func PostgresOpener() Opener {
	return func(ctx context.Context) (*Env, error) {
		if env := os.Getenv("APP_ENV"); env == "development" || env == "test" {
			_ = godotenv.Load()
		}

		cfg, err := config.LoadForCLI()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}

		logger := logx.New(os.Stderr, "warn")

		pool, err := db.Connect(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}

		gen, err := sluggen.NewBase62(cfg.Shortener.CodeLength)
		if err != nil {
			pool.Close()
			return nil, err
		}

		shortURL := func(code string) string { return code }
		if cfg.Server.BaseURL != "" {
			shortURL = cfg.Server.ShortURL
		}

		return &Env{
			Repo:      shortener.NewPostgresRepository(pool, nil),
			Generator: gen,
			Attempts:  cfg.Shortener.MaxAttempts,
			ShortURL:  shortURL,
			Migrate: func(ctx context.Context) ([]string, error) {
				return db.Migrate(ctx, pool, logger)
			},
			Status: func(ctx context.Context) ([]db.MigrationState, error) {
				return db.Status(ctx, pool)
			},
			Logger: logger,
			Close:  pool.Close,
		}, nil
	}
}
