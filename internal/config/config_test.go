package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func baseEnv() map[string]string {
	return map[string]string{
		"SERVER_PORT":             "8080",
		"SERVER_HOST":             "0.0.0.0",
		"BASE_URL":                "http://localhost:8080",
		"SERVER_READ_TIMEOUT":     "10s",
		"SERVER_WRITE_TIMEOUT":    "10s",
		"SERVER_IDLE_TIMEOUT":     "120s",
		"SERVER_SHUTDOWN_TIMEOUT": "30s",

		"DB_HOST":      "localhost",
		"DB_PORT":      "5432",
		"DB_USER":      "testuser",
		"DB_PASSWORD":  "testpass",
		"DB_NAME":      "testdb",
		"DB_SSLMODE":   "disable",
		"DB_MAX_CONNS": "25",
		"DB_MIN_CONNS": "5",

		"APP_ENV":   "test",
		"LOG_LEVEL": "debug",

		"JWT_SECRET": testSecret,
	}
}

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	os.Clearenv()
	for key, value := range env {
		t.Setenv(key, value)
	}
}

func TestLoad_Success(t *testing.T) {
	setEnv(t, baseEnv())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.BaseURL != "http://localhost:8080" {
		t.Errorf("Server.BaseURL = %s, want http://localhost:8080", cfg.Server.BaseURL)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 10s", cfg.Server.ReadTimeout)
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("Database.MaxConns = %d, want 25", cfg.Database.MaxConns)
	}
	if cfg.App.LogLevel != "debug" {
		t.Errorf("App.LogLevel = %s, want debug", cfg.App.LogLevel)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, baseEnv())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Store.Backend != BackendPostgres {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, BackendPostgres)
	}
	if cfg.Store.AutoMigrate {
		t.Error("Store.AutoMigrate = true, want false")
	}
	if cfg.Shortener.CodeLength != 6 {
		t.Errorf("Shortener.CodeLength = %d, want 6", cfg.Shortener.CodeLength)
	}
	if cfg.Shortener.MaxAttempts != 5 {
		t.Errorf("Shortener.MaxAttempts = %d, want 5", cfg.Shortener.MaxAttempts)
	}
	if cfg.Shortener.IncrementTimeout != 2*time.Second {
		t.Errorf("Shortener.IncrementTimeout = %v, want 2s", cfg.Shortener.IncrementTimeout)
	}
	if cfg.Redis.Enabled {
		t.Error("Redis.Enabled = true, want false")
	}
	if cfg.Redis.TTL != 10*time.Minute {
		t.Errorf("Redis.TTL = %v, want 10m", cfg.Redis.TTL)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.BcryptCost != 10 {
		t.Errorf("Auth.BcryptCost = %d, want 10", cfg.Auth.BcryptCost)
	}
	if cfg.App.ServiceName != "shorturl" {
		t.Errorf("App.ServiceName = %q, want shorturl", cfg.App.ServiceName)
	}
}

func TestLoad_MemoryBackendSkipsDatabase(t *testing.T) {
	env := baseEnv()
	for key := range env {
		if strings.HasPrefix(key, "DB_") {
			delete(env, key)
		}
	}
	env["STORE_BACKEND"] = BackendMemory
	setEnv(t, env)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.Database.Host != "" {
		t.Errorf("Database.Host = %q, want empty for memory backend", cfg.Database.Host)
	}
}

func TestLoad_MissingRequiredVariable(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "BASE_URL", "DB_HOST", "DB_NAME", "APP_ENV", "JWT_SECRET"} {
		t.Run("missing "+key, func(t *testing.T) {
			env := baseEnv()
			delete(env, key)
			setEnv(t, env)

			if _, err := Load(); err == nil {
				t.Errorf("Load() should fail when %s is missing", key)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		value  string
	}{
		{"invalid duration", "SERVER_READ_TIMEOUT", "invalid"},
		{"invalid int", "DB_MAX_CONNS", "not-a-number"},
		{"invalid bool", "REDIS_ENABLED", "maybe"},
		{"relative base url", "BASE_URL", "/short"},
		{"base url with query", "BASE_URL", "http://sho.rt/?x=1"},
		{"unknown backend", "STORE_BACKEND", "cassandra"},
		{"code length too short", "SHORTENER_CODE_LENGTH", "3"},
		{"code length too long", "SHORTENER_CODE_LENGTH", "33"},
		{"zero attempts", "SHORTENER_MAX_ATTEMPTS", "0"},
		{"short jwt secret", "JWT_SECRET", "too-short"},
		{"bcrypt cost too low", "BCRYPT_COST", "2"},
		{"redis enabled without addr", "REDIS_ENABLED", "true"},
		{"invalid environment", "APP_ENV", "qa"},
		{"invalid log level", "LOG_LEVEL", "trace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv()
			env[tt.envVar] = tt.value
			setEnv(t, env)

			if _, err := Load(); err == nil {
				t.Errorf("Load() should fail when %s=%q", tt.envVar, tt.value)
			}
		})
	}
}

func TestLoadForCLI(t *testing.T) {
	t.Run("does not need server or auth settings", func(t *testing.T) {
		env := baseEnv()
		for _, key := range []string{"SERVER_PORT", "SERVER_HOST", "SERVER_READ_TIMEOUT", "JWT_SECRET"} {
			delete(env, key)
		}
		setEnv(t, env)

		cfg, err := LoadForCLI()
		if err != nil {
			t.Fatalf("LoadForCLI() failed: %v", err)
		}
		if cfg.Server.BaseURL != "http://localhost:8080" {
			t.Errorf("Server.BaseURL = %q, want http://localhost:8080", cfg.Server.BaseURL)
		}
		if cfg.Database.Name != "testdb" {
			t.Errorf("Database.Name = %q, want testdb", cfg.Database.Name)
		}
	})

	t.Run("base url is optional", func(t *testing.T) {
		env := baseEnv()
		delete(env, "BASE_URL")
		setEnv(t, env)

		cfg, err := LoadForCLI()
		if err != nil {
			t.Fatalf("LoadForCLI() failed: %v", err)
		}
		if cfg.Server.BaseURL != "" {
			t.Errorf("Server.BaseURL = %q, want empty", cfg.Server.BaseURL)
		}
	})
}

func TestServerConfig_ShortURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"https://sho.rt", "https://sho.rt/aB3dE9"},
		{"https://sho.rt/", "https://sho.rt/aB3dE9"},
		{"https://example.com/s", "https://example.com/s/aB3dE9"},
	}

	for _, tt := range tests {
		cfg := ServerConfig{BaseURL: tt.base}
		if got := cfg.ShortURL("aB3dE9"); got != tt.want {
			t.Errorf("ShortURL() with base %q = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host:     "testhost",
		Port:     "5432",
		User:     "testuser",
		Password: "testpass",
		Name:     "testdb",
		SSLMode:  "disable",
	}

	expected := "host=testhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	if got := db.ConnectionString(); got != expected {
		t.Errorf("ConnectionString() = %s, want %s", got, expected)
	}
}

func TestDatabaseConfig_Validate(t *testing.T) {
	valid := DatabaseConfig{
		Host: "h", Port: "5432", User: "u", Password: "p", Name: "n",
		SSLMode: "disable", MaxConns: 10, MinConns: 2,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	inverted := valid
	inverted.MinConns = 20
	if err := inverted.Validate(); err == nil {
		t.Error("Validate() should fail when MinConns > MaxConns")
	}

	badSSL := valid
	badSSL.SSLMode = "prefer"
	if err := badSSL.Validate(); err == nil {
		t.Error("Validate() should fail for unsupported SSL mode")
	}
}
