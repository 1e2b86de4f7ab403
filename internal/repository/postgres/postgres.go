// Package postgres implements the repository interfaces on PostgreSQL
// using sqlx over lib/pq. The schema is owned by the embedded migrations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sakif/pm-tracker/internal/repository"
)

const (
	driverName          = "postgres"
	defaultPingTimeout  = 5 * time.Second
	defaultConnMaxIdle  = 2 * time.Minute
	defaultConnMaxLife  = 30 * time.Minute
	defaultMaxOpenConns = 10

	uniqueViolation = pq.ErrorCode("23505")
)

var _ repository.Store = (*DB)(nil)

// Config holds the connection settings for one database.
type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSL          bool
	MaxOpenConns int
}

// DSN renders cfg as a postgres:// URL understood by lib/pq and golang-migrate.
func (cfg Config) DSN() string {
	sslmode := "disable"
	if cfg.SSL {
		sslmode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		User:   url.UserPassword(cfg.User, cfg.Password),
		Path:   cfg.Name,
	}
	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()

	return u.String()
}

// DB is a PostgreSQL-backed repository.Store.
type DB struct {
	conn *sqlx.DB
}

// New connects using cfg.
func New(ctx context.Context, cfg Config) (*DB, error) {
	return Open(ctx, cfg.DSN(), cfg.MaxOpenConns)
}

// Open connects to dsn and verifies the connection with a ping.
// maxOpen <= 0 selects the default pool size.
func Open(ctx context.Context, dsn string, maxOpen int) (*DB, error) {
	conn, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}

	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	conn.SetConnMaxIdleTime(defaultConnMaxIdle)
	conn.SetConnMaxLifetime(defaultConnMaxLife)
	conn.SetMaxIdleConns(maxOpen / 2)
	conn.SetMaxOpenConns(maxOpen)

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Reset empties both tables and restarts the id sequences.
func (db *DB) Reset(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `TRUNCATE projects, users RESTART IDENTITY CASCADE`); err != nil {
		return fmt.Errorf("postgres: truncating tables: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
