// Package config loads the process configuration from the environment.
//
// With ENV=dev a .env file in the working directory is loaded first; real
// environment variables always win over it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/sakif/pm-tracker/internal/repository/postgres"
	"github.com/sakif/pm-tracker/internal/telemetry"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Env       string `env:"ENV"`
	Port      int    `env:"PORT"       envDefault:"5000"`
	JWTSecret string `env:"JWT_SECRET"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	// APIURL is where the CLI client sends requests.
	APIURL string `env:"PMTRACKER_API_URL" envDefault:"http://localhost:5000/api"`

	Database  Database
	GitHub    GitHub
	Telemetry Telemetry
	Log       Log
}

type Database struct {
	Driver       string `env:"DB_DRIVER"         envDefault:"postgres"`
	Host         string `env:"DB_HOST"           envDefault:"localhost"`
	Port         int    `env:"DB_PORT"           envDefault:"5432"`
	User         string `env:"DB_USER"           envDefault:"pmtracker"`
	Password     string `env:"DB_PASSWORD"       envDefault:"password"`
	Name         string `env:"DB_NAME"           envDefault:"pmtracker"`
	SSL          bool   `env:"DB_SSL"            envDefault:"false"`
	Path         string `env:"DB_PATH"           envDefault:"data/pmtracker.db"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	AutoMigrate  bool   `env:"DB_AUTO_MIGRATE"   envDefault:"false"`
}

// Postgres returns the connection settings for the postgres backend.
func (d Database) Postgres() postgres.Config {
	return postgres.Config{
		Host:         d.Host,
		Port:         d.Port,
		User:         d.User,
		Password:     d.Password,
		Name:         d.Name,
		SSL:          d.SSL,
		MaxOpenConns: d.MaxOpenConns,
	}
}

// GitHub sign-in is enabled when a client id is configured.
type GitHub struct {
	ClientID     string `env:"GITHUB_CLIENT_ID"`
	ClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	CallbackURL  string `env:"GITHUB_CALLBACK_URL"`
}

func (g GitHub) Enabled() bool {
	return g.ClientID != ""
}

type Telemetry struct {
	Enabled  bool   `env:"OTEL_ENABLED"  envDefault:"false"`
	Endpoint string `env:"OTEL_ENDPOINT"`
}

func (t Telemetry) Config() telemetry.Config {
	return telemetry.Config{Enabled: t.Enabled, Endpoint: t.Endpoint}
}

type Log struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// SlogLevel parses Level, accepting debug, info, warn and error.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: LOG_LEVEL %q: %w", l.Level, err)
	}
	return level, nil
}

// Load reads the configuration. It does not require the server-only
// settings; call ValidateServer before serving.
func Load() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: loading .env: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/api/auth/github/callback", cfg.Port)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver))
	}
	if c.Database.MaxOpenConns < 1 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS must be at least 1"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ValidateServer checks the settings only the API server needs.
func (c Config) ValidateServer() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be set and at least 16 characters"))
	}
	if c.GitHub.Enabled() && c.GitHub.ClientSecret == "" {
		errs = append(errs, errors.New("GITHUB_CLIENT_SECRET is required when GITHUB_CLIENT_ID is set"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
