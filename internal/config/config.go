package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
)

// ErrMissingDatabaseConfig is returned when neither DATABASE_URL nor the
// discrete PG* variables are available.
var ErrMissingDatabaseConfig = errors.New("missing database configuration: set DATABASE_URL or PGHOST, PGDATABASE, PGUSER and PGPASSWORD")

// Config holds the whole application configuration.
type Config struct {
	Env         string        `envconfig:"APP_ENV" default:"development"`
	LogLevel    zapcore.Level `envconfig:"LOG_LEVEL" default:"info"`
	Server      ServerConfig
	Database    DatabaseConfig
	OpenLibrary OpenLibraryConfig
	Redis       RedisConfig
}

type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"3000"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"5s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxBodyBytes    int64         `envconfig:"SERVER_MAX_BODY_BYTES" default:"65536"`
	RateLimitRPS    float64       `envconfig:"SERVER_RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst  int           `envconfig:"SERVER_RATE_LIMIT_BURST" default:"40"`
}

// DatabaseConfig mirrors the variables set by hosted Postgres providers.
// A full URL wins over the discrete parts.
type DatabaseConfig struct {
	URL          string        `envconfig:"DATABASE_URL"`
	Host         string        `envconfig:"PGHOST"`
	Port         string        `envconfig:"PGPORT"`
	Name         string        `envconfig:"PGDATABASE"`
	User         string        `envconfig:"PGUSER"`
	Password     string        `envconfig:"PGPASSWORD"`
	SSLMode      string        `envconfig:"PGSSLMODE" default:"require"`
	MaxConns     int32         `envconfig:"DB_MAX_CONNS" default:"5"`
	QueryTimeout time.Duration `envconfig:"DB_QUERY_TIMEOUT" default:"5s"`
}

type OpenLibraryConfig struct {
	BaseURL       string        `envconfig:"OPENLIBRARY_BASE_URL" default:"https://openlibrary.org"`
	CoversURL     string        `envconfig:"OPENLIBRARY_COVERS_URL" default:"https://covers.openlibrary.org/b"`
	UserAgent     string        `envconfig:"OPENLIBRARY_USER_AGENT" default:"booknotes/1.0"`
	RPS           int           `envconfig:"OPENLIBRARY_RPS" default:"5"`
	MaxRetries    int           `envconfig:"OPENLIBRARY_MAX_RETRIES" default:"1"`
	HTTPTimeout   time.Duration `envconfig:"OPENLIBRARY_HTTP_TIMEOUT" default:"4s"`
	LookupTimeout time.Duration `envconfig:"COVER_LOOKUP_TIMEOUT" default:"5s"`
}

// RedisConfig is optional; an empty Addr disables the cover cache.
type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	CoverTTL time.Duration `envconfig:"REDIS_COVER_TTL" default:"168h"`
}

// IsProduction reports whether production logging should be used.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Addr returns the listen address for the web server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

// DSN builds the Postgres connection string. DATABASE_URL is preferred;
// otherwise host, database, user and password must all be present.
func (d DatabaseConfig) DSN() (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}
	if d.Host == "" || d.Name == "" || d.User == "" || d.Password == "" {
		return "", ErrMissingDatabaseConfig
	}

	host := d.Host
	if d.Port != "" {
		host = net.JoinHostPort(d.Host, d.Port)
	}
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(d.User, d.Password),
		Host:   host,
		Path:   "/" + d.Name,
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String(), nil
}

// LoadEnvFiles reads .env and .env.local into the process environment.
// Variables already provided by the runtime are never overridden.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load reads env files, then the environment, and checks that the
// database can be located. Callers treat any error as fatal.
func Load() (*Config, error) {
	LoadEnvFiles()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration from environment: %w", err)
	}
	if _, err := cfg.Database.DSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
