package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sundayezeilo/shorturl/internal/auth"
	"github.com/sundayezeilo/shorturl/internal/config"
	"github.com/sundayezeilo/shorturl/internal/db"
	"github.com/sundayezeilo/shorturl/internal/logx"
	"github.com/sundayezeilo/shorturl/internal/server"
	"github.com/sundayezeilo/shorturl/internal/shortener"
	"github.com/sundayezeilo/shorturl/internal/shortener/memstore"
	"github.com/sundayezeilo/shorturl/internal/shortener/rediscache"
	"github.com/sundayezeilo/shorturl/sluggen"
)

// App holds the application dependencies and configuration.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	DBPool *pgxpool.Pool
	Redis  *redis.Client
	Server *server.Server
}

// stores is the persistence chosen by STORE_BACKEND.
type stores struct {
	urls   shortener.Repository
	users  auth.UserRepository
	checks map[string]server.Check
}

// New loads configuration from the environment and builds the App.
func New(ctx context.Context) (*App, error) {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logx.New(os.Stdout, cfg.App.LogLevel).With(
		"service", cfg.App.ServiceName,
		"version", cfg.App.ServiceVersion,
	)

	return Build(ctx, cfg, logger)
}

// Build wires stores, services and handlers for an already loaded cfg.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("starting application",
		"env", cfg.App.Environment,
		"store", cfg.Store.Backend,
		"cache", cfg.Redis.Enabled,
	)

	a := &App{Config: cfg, Logger: logger}

	st, err := a.openStores(ctx)
	if err != nil {
		a.Shutdown()
		return nil, err
	}

	handlers, err := buildHandlers(cfg, logger, st)
	if err != nil {
		a.Shutdown()
		return nil, err
	}

	a.Server = server.New(cfg, logger, handlers)

	logger.Info("application initialized",
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	return a, nil
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	cfg := a.Config
	st := stores{checks: make(map[string]server.Check)}

	switch cfg.Store.Backend {
	case config.BackendMemory:
		a.Logger.Warn("using in-memory store; data is lost on restart")
		st.urls = memstore.New()
		st.users = memstore.NewUsers()

	default:
		pool, err := db.Connect(ctx, cfg.Database, a.Logger)
		if err != nil {
			return st, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.DBPool = pool

		if cfg.Store.AutoMigrate {
			if _, err := db.Migrate(ctx, pool, a.Logger); err != nil {
				return st, fmt.Errorf("failed to migrate database: %w", err)
			}
		}

		st.urls = shortener.NewPostgresRepository(pool, nil)
		st.users = auth.NewPostgresUserRepository(pool, nil)
		st.checks["postgres"] = pool.Ping
	}

	if cfg.Redis.Enabled {
		client, err := rediscache.NewClient(ctx, cfg.Redis)
		if err != nil {
			return st, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.Redis = client
		a.Logger.Info("redis cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL.String())

		st.urls = rediscache.New(st.urls, client, cfg.Redis.TTL, a.Logger)
		st.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	return st, nil
}

func buildHandlers(cfg *config.Config, logger *slog.Logger, st stores) (server.Handlers, error) {
	gen, err := sluggen.NewBase62(cfg.Shortener.CodeLength)
	if err != nil {
		return server.Handlers{}, err
	}

	shortening, err := shortener.NewShorteningService(st.urls, &shortener.ShorteningConfig{
		Generator:   gen,
		MaxAttempts: cfg.Shortener.MaxAttempts,
		Logger:      logger,
	})
	if err != nil {
		return server.Handlers{}, err
	}
	resolution := shortener.NewResolutionService(st.urls, &shortener.ResolutionConfig{
		IncrementTimeout: cfg.Shortener.IncrementTimeout,
		Logger:           logger,
	})
	ownership := shortener.NewOwnershipService(st.urls, &shortener.OwnershipConfig{Logger: logger})

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.App.ServiceName)
	if err != nil {
		return server.Handlers{}, err
	}
	authSvc, err := auth.NewService(st.users, auth.NewPasswordHasher(cfg.Auth.BcryptCost), tokens, logger)
	if err != nil {
		return server.Handlers{}, err
	}

	return server.Handlers{
		URLs: shortener.NewHandler(shortener.HandlerConfig{
			Shortener: shortening,
			Resolver:  resolution,
			Owner:     ownership,
			ShortURL:  cfg.Server.ShortURL,
			Logger:    logger,
		}),
		Auth:     auth.NewHandler(authSvc, logger),
		Verifier: tokens,
		Checks:   st.checks,
	}, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown releases the database pool and redis client.
func (a *App) Shutdown() {
	a.Logger.Info("shutting down application")

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("failed to close redis client", "error", err.Error())
		}
	}

	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database connection closed")
	}
}

// loadEnv loads .env file only in development and test.
func loadEnv() {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "test" {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found")
		}
	}
}
