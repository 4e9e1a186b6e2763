package config

import (
	"os"
	"strings"
	"testing"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		os.Setenv(k, v)
	}
	t.Cleanup(func() {
		for k := range kv {
			os.Unsetenv(k)
		}
	})
}

func TestLoad_WithDefaults(t *testing.T) {
	setEnv(t, map[string]string{
		"MEDIACATALOG_DATABASE_USER":   "testuser",
		"MEDIACATALOG_DATABASE_DBNAME": "testdb",
	})

	cfg = nil

	err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	config := Get()
	if config.Database.Driver != "postgres" {
		t.Errorf("expected default driver 'postgres', got %s", config.Database.Driver)
	}
	if config.Database.Host != "localhost" {
		t.Errorf("expected default host 'localhost', got %s", config.Database.Host)
	}
	if config.Database.Port != 5432 {
		t.Errorf("expected default port 5432, got %d", config.Database.Port)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected default log level 'info', got %s", config.Logging.Level)
	}
	if config.API.Port != 5000 {
		t.Errorf("expected default API port 5000, got %d", config.API.Port)
	}
	if config.TMDB.BaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("unexpected default tmdb base url %s", config.TMDB.BaseURL)
	}
	if config.TMDB.TimeoutSeconds != 15 {
		t.Errorf("expected default tmdb timeout 15, got %d", config.TMDB.TimeoutSeconds)
	}
	if config.Sync.Concurrency != 1 {
		t.Errorf("expected default sync concurrency 1, got %d", config.Sync.Concurrency)
	}
	if config.Sync.Window != "day" {
		t.Errorf("expected default sync window 'day', got %s", config.Sync.Window)
	}
	if config.PayPal.Enabled {
		t.Error("expected paypal to be disabled by default")
	}
}

func TestLoad_AlternativeEnvNames(t *testing.T) {
	setEnv(t, map[string]string{
		"DB_USER":      "alice",
		"DB_NAME":      "catalog",
		"TMDB_API_KEY": "secret",
	})

	cfg = nil
	if err := Load(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	config := Get()
	if config.Database.User != "alice" {
		t.Errorf("expected user from DB_USER, got %s", config.Database.User)
	}
	if config.Database.DBName != "catalog" {
		t.Errorf("expected dbname from DB_NAME, got %s", config.Database.DBName)
	}
	if config.TMDB.APIKey != "secret" {
		t.Errorf("expected api key from TMDB_API_KEY, got %s", config.TMDB.APIKey)
	}
}

func TestLoad_DatabaseURL(t *testing.T) {
	setEnv(t, map[string]string{
		"DATABASE_URL": "postgres://bob:pw@db.internal:6543/media?sslmode=require",
	})

	cfg = nil
	if err := Load(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	db := Get().Database
	if db.User != "bob" || db.Password != "pw" {
		t.Errorf("unexpected credentials %s/%s", db.User, db.Password)
	}
	if db.Host != "db.internal" || db.Port != 6543 {
		t.Errorf("unexpected host %s:%d", db.Host, db.Port)
	}
	if db.DBName != "media" {
		t.Errorf("expected dbname 'media', got %s", db.DBName)
	}
	if db.SSLMode != "require" {
		t.Errorf("expected sslmode 'require', got %s", db.SSLMode)
	}
}

func TestLoad_InvalidDatabaseURL(t *testing.T) {
	setEnv(t, map[string]string{
		"DATABASE_URL": "mysql://user@host/db",
	})

	cfg = nil
	err := Load()
	if err == nil {
		t.Fatal("expected error for unsupported DATABASE_URL scheme")
	}
	if !strings.Contains(err.Error(), "invalid DATABASE_URL") {
		t.Errorf("unexpected error: %s", err.Error())
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	setEnv(t, map[string]string{
		"MEDIACATALOG_DATABASE_USER":   "testuser",
		"MEDIACATALOG_DATABASE_DBNAME": "testdb",
		"MEDIACATALOG_LOGGING_LEVEL":   "invalid",
	})

	cfg = nil
	err := Load()
	if err == nil {
		t.Fatalf("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "logging.level must be one of") {
		t.Errorf("expected error about log level, got: %s", err.Error())
	}
}

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "postgres", User: "u", DBName: "d"},
		Sync:     SyncConfig{Concurrency: 1, Window: "day"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"postgres without user", func(c *Config) { c.Database.User = "" }, "database.user"},
		{"postgres without dbname", func(c *Config) { c.Database.DBName = "" }, "database.dbname"},
		{"sqlite with path", func(c *Config) { c.Database = DatabaseConfig{Driver: "sqlite", Path: "x.db"} }, ""},
		{"sqlite without path", func(c *Config) { c.Database = DatabaseConfig{Driver: "sqlite"} }, "database.path"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"text format", func(c *Config) { c.Logging.Format = "text" }, ""},
		{"week window", func(c *Config) { c.Sync.Window = "week" }, ""},
		{"bad window", func(c *Config) { c.Sync.Window = "month" }, "sync.window"},
		{"zero concurrency", func(c *Config) { c.Sync.Concurrency = 0 }, "sync.concurrency"},
		{"paypal without credentials", func(c *Config) { c.PayPal.Enabled = true }, "paypal.client_id"},
		{"paypal with credentials", func(c *Config) {
			c.PayPal = PayPalConfig{Enabled: true, ClientID: "id", ClientSecret: "s"}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected validation error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestGetAppLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		logging LoggingConfig
		want    string
	}{
		{"modular", LoggingConfig{App: LogLevelConfig{Level: "debug"}}, "debug"},
		{"legacy fallback", LoggingConfig{Level: "warn"}, "warn"},
		{"default", LoggingConfig{}, "info"},
		{"modular wins", LoggingConfig{Level: "warn", App: LogLevelConfig{Level: "debug"}}, "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Logging: tt.logging}
			if got := c.GetAppLogLevel(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestGetDatabaseLogLevel(t *testing.T) {
	c := &Config{Logging: LoggingConfig{Database: LogLevelConfig{Level: "error"}}}
	if level := c.GetDatabaseLogLevel(); level != "error" {
		t.Errorf("expected database log level 'error', got %s", level)
	}

	c = &Config{Logging: LoggingConfig{Level: "debug"}}
	if level := c.GetDatabaseLogLevel(); level != "debug" {
		t.Errorf("expected database log level 'debug' from legacy config, got %s", level)
	}
}
