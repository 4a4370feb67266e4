package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Shortener ShortenerConfig
	Redis     RedisConfig
	Auth      AuthConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"SERVER_PORT" required:"true"`
	Host string `envconfig:"SERVER_HOST" required:"true"`
	// BaseURL is prepended to every code to build the public short URL.
	// Every process that shortens or resolves must share the same value.
	BaseURL         string        `envconfig:"BASE_URL" required:"true"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" required:"true"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" required:"true"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" required:"true"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" required:"true"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if err := validateBaseURL(c.BaseURL); err != nil {
		return err
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base URL must be an absolute http(s) URL, got %q", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("base URL must not carry a query or fragment")
	}
	return nil
}

// ShortURL joins the base URL and a code.
func (c *ServerConfig) ShortURL(code string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + code
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Environment    string `envconfig:"APP_ENV" required:"true"`   // development, staging, production, test
	LogLevel       string `envconfig:"LOG_LEVEL" required:"true"` // debug, info, warn, error
	ServiceName    string `envconfig:"SERVICE_NAME" default:"shorturl"`
	ServiceVersion string `envconfig:"SERVICE_VERSION" default:"dev"`
}

// Validate validates the app configuration.
func (c *AppConfig) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Environment)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// StoreConfig selects the URL record store.
type StoreConfig struct {
	Backend     string `envconfig:"STORE_BACKEND" default:"postgres"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case BackendPostgres, BackendMemory:
		return nil
	default:
		return fmt.Errorf("invalid store backend: %s (must be one of: postgres, memory)", c.Backend)
	}
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" required:"true"`
	Port     string `envconfig:"DB_PORT" required:"true"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	Name     string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSLMODE" required:"true"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" required:"true"`
	MinConns int32  `envconfig:"DB_MIN_CONNS" required:"true"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.User == "" {
		return fmt.Errorf("user cannot be empty")
	}
	if c.Password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("max connections must be positive")
	}
	if c.MinConns <= 0 {
		return fmt.Errorf("min connections must be positive")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min connections (%d) cannot be greater than max connections (%d)", c.MinConns, c.MaxConns)
	}

	validSSLModes := map[string]bool{
		"disable":     true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	if !validSSLModes[c.SSLMode] {
		return fmt.Errorf("invalid SSL mode: %s (must be one of: disable, require, verify-ca, verify-full)", c.SSLMode)
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// ShortenerConfig tunes short-code allocation and click accounting.
type ShortenerConfig struct {
	CodeLength       int           `envconfig:"SHORTENER_CODE_LENGTH" default:"6"`
	MaxAttempts      int           `envconfig:"SHORTENER_MAX_ATTEMPTS" default:"5"`
	IncrementTimeout time.Duration `envconfig:"SHORTENER_INCREMENT_TIMEOUT" default:"2s"`
}

// Validate validates the shortener configuration.
func (c *ShortenerConfig) Validate() error {
	if c.CodeLength < 4 || c.CodeLength > 32 {
		return fmt.Errorf("code length must be between 4 and 32, got %d", c.CodeLength)
	}
	if c.MaxAttempts < 1 || c.MaxAttempts > 20 {
		return fmt.Errorf("max attempts must be between 1 and 20, got %d", c.MaxAttempts)
	}
	if c.IncrementTimeout <= 0 {
		return fmt.Errorf("increment timeout must be positive")
	}
	return nil
}

// RedisConfig configures the optional short-code lookup cache.
type RedisConfig struct {
	Enabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"REDIS_TTL" default:"10m"`
}

// Validate validates the redis configuration.
func (c *RedisConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}
	if c.DB < 0 {
		return fmt.Errorf("redis db must not be negative")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("redis ttl must be positive")
	}
	return nil
}

// AuthConfig holds token and password hashing settings.
type AuthConfig struct {
	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL   time.Duration `envconfig:"JWT_TTL" default:"24h"`
	BcryptCost int           `envconfig:"BCRYPT_COST" default:"10"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("jwt secret must be at least 32 bytes")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("jwt ttl must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 4 and 31, got %d", c.BcryptCost)
	}
	return nil
}

type section struct {
	name     string
	target   any
	validate func() error
}

func process(sections ...section) error {
	for _, s := range sections {
		if err := envconfig.Process("", s.target); err != nil {
			return fmt.Errorf("failed to load %s config: %w", s.name, err)
		}
		if err := s.validate(); err != nil {
			return fmt.Errorf("invalid %s config: %w", s.name, err)
		}
	}
	return nil
}

// Load loads configuration from environment variables only.
// Database settings are only read when the postgres backend is selected.
func Load() (*Config, error) {
	cfg := &Config{}

	err := process(
		section{"Server", &cfg.Server, cfg.Server.Validate},
		section{"App", &cfg.App, cfg.App.Validate},
		section{"Store", &cfg.Store, cfg.Store.Validate},
		section{"Shortener", &cfg.Shortener, cfg.Shortener.Validate},
		section{"Redis", &cfg.Redis, cfg.Redis.Validate},
		section{"Auth", &cfg.Auth, cfg.Auth.Validate},
	)
	if err != nil {
		return nil, err
	}

	if cfg.Store.Backend == BackendPostgres {
		if err := process(section{"Database", &cfg.Database, cfg.Database.Validate}); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// LoadForCLI loads the subset of configuration the admin CLI needs.
// BASE_URL is optional here; an empty value makes commands print bare codes.
func LoadForCLI() (*Config, error) {
	cfg := &Config{}

	err := process(
		section{"App", &cfg.App, cfg.App.Validate},
		section{"Database", &cfg.Database, cfg.Database.Validate},
		section{"Shortener", &cfg.Shortener, cfg.Shortener.Validate},
	)
	if err != nil {
		return nil, err
	}

	var base struct {
		BaseURL string `envconfig:"BASE_URL"`
	}
	if err := envconfig.Process("", &base); err != nil {
		return nil, fmt.Errorf("failed to load BASE_URL: %w", err)
	}
	if base.BaseURL != "" {
		if err := validateBaseURL(base.BaseURL); err != nil {
			return nil, fmt.Errorf("invalid Server config: %w", err)
		}
	}
	cfg.Server.BaseURL = base.BaseURL

	return cfg, nil
}
