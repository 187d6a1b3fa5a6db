package config_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/crm/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "APP_ENV", "API_TIMEOUT", "DB_DIALECT", "DB_STORAGE", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_HOST", "DB_PORT", "DB_LOGGING", "DB_MIGRATE_ON_START", "JWT_SECRET", "JWT_TTL", "BCRYPT_ROUNDS",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_STREAM", "SENTRY_DSN",
	} {
		t.Setenv(k, "")
	}
}

func validConfig() *config.Config {
	return &config.Config{
		Addr:       ":3000",
		APITimeout: 5 * time.Second,
		Database:   config.DatabaseConfig{Dialect: config.DialectSQLite, Storage: "crm.db"},
		Auth:       config.AuthConfig{JWTSecret: "s3cret", TokenTTL: time.Hour, BcryptCost: 10},
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error for empty path: %v", err)
	}

	if cfg.Addr != ":3000" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":3000")
	}
	if cfg.Auth.JWTSecret != "" {
		t.Fatalf("expected no default JWT secret, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("unexpected TokenTTL: got %v want %v", cfg.Auth.TokenTTL, time.Hour)
	}
	if cfg.Auth.BcryptCost != config.DefaultBcryptCost {
		t.Fatalf("unexpected BcryptCost: got %d", cfg.Auth.BcryptCost)
	}
	if cfg.Database.Dialect != config.DialectSQLite || cfg.Database.Storage != "crm_db.sqlite" {
		t.Fatalf("unexpected database defaults: %+v", cfg.Database)
	}
	if !cfg.Database.MigrateOnStart {
		t.Fatalf("expected migrations on start by default")
	}
	if cfg.APITimeout != 15*time.Second {
		t.Fatalf("unexpected APITimeout: got %v", cfg.APITimeout)
	}
	if cfg.Redis.Stream != "enquiry.events" {
		t.Fatalf("unexpected redis stream: %q", cfg.Redis.Stream)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("JWT_SECRET", "envsecret")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("BCRYPT_ROUNDS", "12")
	t.Setenv("DB_DIALECT", "POSTGRES")
	t.Setenv("DB_NAME", "crm")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_LOGGING", "true")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Addr != ":8081" {
		t.Fatalf("unexpected Addr %q", cfg.Addr)
	}
	if cfg.Auth.JWTSecret != "envsecret" || cfg.Auth.TokenTTL != 30*time.Minute || cfg.Auth.BcryptCost != 12 {
		t.Fatalf("unexpected auth config: %+v", cfg.Auth)
	}
	if cfg.Database.Dialect != config.DialectPostgres || !cfg.Database.Logging {
		t.Fatalf("unexpected database config: %+v", cfg.Database)
	}
}

func TestLoadConfig_TTLSeconds(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_TTL", "120")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Auth.TokenTTL != 2*time.Minute {
		t.Fatalf("expected 2m, got %v", cfg.Auth.TokenTTL)
	}
}

func TestLoadConfig_BadEnvValues(t *testing.T) {
	cases := map[string]string{
		"JWT_TTL":       "soon",
		"BCRYPT_ROUNDS": "ten",
		"API_TIMEOUT":   "forever",
		"REDIS_DB":      "first",
	}

	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			if _, err := config.LoadConfig(""); err == nil {
				t.Fatalf("expected error for %s=%q", key, val)
			}
		})
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	f, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	f.Close()

	content := []byte("addr: \":9090\"\ntimeout: \"30s\"\ndatabase:\n  dialect: sqlite\n  storage: \"test.db\"\nauth:\n  jwt_secret: \"filekey\"\n  token_ttl: \"2h\"\n  bcrypt_cost: 6\n")
	if err := os.WriteFile(f.Name(), content, 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := config.LoadConfig(f.Name())
	if err != nil {
		t.Fatalf("LoadConfig returned error for file: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":9090")
	}
	if cfg.Auth.JWTSecret != "filekey" {
		t.Fatalf("unexpected JWTSecret: got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Database.Storage != "test.db" {
		t.Fatalf("unexpected Storage: got %q", cfg.Database.Storage)
	}
	if cfg.APITimeout != 30*time.Second {
		t.Fatalf("unexpected APITimeout: got %v", cfg.APITimeout)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour || cfg.Auth.BcryptCost != 6 {
		t.Fatalf("unexpected auth: %+v", cfg.Auth)
	}
}

func TestLoadConfig_BadPath(t *testing.T) {
	if _, err := config.LoadConfig("/path/that/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent path, got nil")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := t.TempDir() + "/bad.yaml"
	if err := os.WriteFile(path, []byte("::: not yaml :::"), 0o600); err != nil {
		t.Fatalf("failed to write bad yaml: %v", err)
	}

	if _, err := config.LoadConfig(path); err == nil {
		t.Fatalf("expected YAML decode error, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{name: "Valid", mutate: func(c *config.Config) {}},
		{name: "MissingSecretIsAllowed", mutate: func(c *config.Config) { c.Auth.JWTSecret = "" }},
		{name: "EmptyAddr", mutate: func(c *config.Config) { c.Addr = "" }, wantErr: "addr"},
		{name: "ZeroTimeout", mutate: func(c *config.Config) { c.APITimeout = 0 }, wantErr: "timeout"},
		{name: "ZeroTTL", mutate: func(c *config.Config) { c.Auth.TokenTTL = 0 }, wantErr: "token_ttl"},
		{name: "CostTooLow", mutate: func(c *config.Config) { c.Auth.BcryptCost = 2 }, wantErr: "bcrypt_cost"},
		{name: "CostTooHigh", mutate: func(c *config.Config) { c.Auth.BcryptCost = 40 }, wantErr: "bcrypt_cost"},
		{name: "UnknownDialect", mutate: func(c *config.Config) { c.Database.Dialect = "mysql" }, wantErr: "unsupported"},
		{name: "SQLiteWithoutStorage", mutate: func(c *config.Config) { c.Database.Storage = "" }, wantErr: "storage"},
		{
			name: "PostgresWithoutCredentials",
			mutate: func(c *config.Config) {
				c.Database.Dialect = config.DialectPostgres
			},
			wantErr: "credentials",
		},
		{
			name: "PostgresqlAlias",
			mutate: func(c *config.Config) {
				c.Database = config.DatabaseConfig{Dialect: "postgresql", Name: "crm", User: "app"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	sqlite := config.DatabaseConfig{Dialect: config.DialectSQLite, Storage: "crm.db"}
	if got := sqlite.DSN(); got != "crm.db" {
		t.Fatalf("sqlite dsn: got %q", got)
	}

	pg := config.DatabaseConfig{Dialect: config.DialectPostgres, Name: "crm", User: "app", Password: "p@ss", Host: "db", Port: "5432"}
	if got := pg.DSN(); got != "postgres://app:p%40ss@db:5432/crm" {
		t.Fatalf("postgres dsn: got %q", got)
	}

	noPort := config.DatabaseConfig{Dialect: config.DialectPostgres, Name: "crm", User: "app", Host: "localhost"}
	if got := noPort.DSN(); got != "postgres://app:@localhost/crm" {
		t.Fatalf("postgres dsn without port: got %q", got)
	}
}
