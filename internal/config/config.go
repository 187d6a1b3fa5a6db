package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"

	DefaultTokenTTL   = 1 * time.Hour
	DefaultBcryptCost = 10
	minBcryptCost     = 4
	maxBcryptCost     = 31
)

type Config struct {
	Addr       string         `yaml:"addr"`
	Env        string         `yaml:"env"`
	APITimeout time.Duration  `yaml:"timeout"`
	Database   DatabaseConfig `yaml:"database"`
	Auth       AuthConfig     `yaml:"auth"`
	Redis      RedisConfig    `yaml:"redis"`
	SentryDSN  string         `yaml:"sentry_dsn"`
}

type DatabaseConfig struct {
	Dialect        string `yaml:"dialect"`
	Storage        string `yaml:"storage"`
	Name           string `yaml:"name"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Host           string `yaml:"host"`
	Port           string `yaml:"port"`
	Logging        bool   `yaml:"logging"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"`
}

// LoadConfig builds the configuration from the environment (after loading an
// optional .env file) and then applies the YAML file at path, if any.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	tokenTTL, err := parseTTL(getEnv("JWT_TTL", ""))
	if err != nil {
		return nil, err
	}
	apiTimeout, err := parseDuration("API_TIMEOUT", getEnv("API_TIMEOUT", "15s"))
	if err != nil {
		return nil, err
	}
	cost, err := getEnvInt("BCRYPT_ROUNDS", DefaultBcryptCost)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:       ":" + getEnv("PORT", "3000"),
		Env:        getEnv("APP_ENV", "development"),
		APITimeout: apiTimeout,
		Database: DatabaseConfig{
			Dialect:        strings.ToLower(getEnv("DB_DIALECT", DialectSQLite)),
			Storage:        getEnv("DB_STORAGE", "crm_db.sqlite"),
			Name:           os.Getenv("DB_NAME"),
			User:           os.Getenv("DB_USER"),
			Password:       os.Getenv("DB_PASSWORD"),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           os.Getenv("DB_PORT"),
			Logging:        getEnv("DB_LOGGING", "false") == "true",
			MigrateOnStart: getEnv("DB_MIGRATE_ON_START", "true") == "true",
		},
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			TokenTTL:   tokenTTL,
			BcryptCost: cost,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			Stream:   getEnv("REDIS_STREAM", "enquiry.events"),
		},
		SentryDSN: os.Getenv("SENTRY_DSN"),
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks the values the server cannot run without. A missing JWT
// secret is deliberately not an error here: login refuses to issue tokens
// instead, so registration and public submission keep working.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if c.APITimeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Auth.BcryptCost < minBcryptCost || c.Auth.BcryptCost > maxBcryptCost {
		return fmt.Errorf("auth.bcrypt_cost must be between %d and %d", minBcryptCost, maxBcryptCost)
	}

	switch c.Database.Dialect {
	case DialectSQLite:
		if c.Database.Storage == "" {
			return errors.New("database.storage is required for sqlite")
		}
	case DialectPostgres, "postgresql":
		c.Database.Dialect = DialectPostgres
		if c.Database.Name == "" || c.Database.User == "" {
			return errors.New("database credentials are missing: database.name and database.user are required")
		}
	default:
		return fmt.Errorf("unsupported database dialect %q", c.Database.Dialect)
	}

	return nil
}

// DSN returns the driver data source name for the configured dialect.
func (d DatabaseConfig) DSN() string {
	if d.Dialect != DialectPostgres {
		return d.Storage
	}

	host := d.Host
	if d.Port != "" {
		host = net.JoinHostPort(d.Host, d.Port)
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   host,
		Path:   "/" + d.Name,
	}

	return u.String()
}

// parseTTL accepts Go durations ("1h", "90m") or a bare number of seconds.
func parseTTL(v string) (time.Duration, error) {
	if v == "" {
		return DefaultTokenTTL, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	return parseDuration("JWT_TTL", v)
}

func parseDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}

	return d, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}

	return n, nil
}
