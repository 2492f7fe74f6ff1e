package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/niksmo/catalog/pkg/retry"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

type sqldb interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	// Path is the database file of the sqlite driver.
	Path string
	// ConnectAttempts bounds the pings made while waiting for the database.
	ConnectAttempts int
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return c.postgresURL("postgres")
}

// MigrateURL returns the golang-migrate database URL.
func (c Config) MigrateURL() string {
	if c.Driver == DriverSQLite {
		return "sqlite://" + filepath.ToSlash(c.Path)
	}
	return c.postgresURL("pgx5")
}

func (c Config) postgresURL(scheme string) string {
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

type SQLDB struct {
	*sql.DB
}

// NewSQLDB opens the database and waits until it answers a ping.
func NewSQLDB(ctx context.Context, cfg Config) (SQLDB, error) {
	const op = "SQLDB"
	log := slog.With("op", op, "driver", cfg.Driver)

	db, err := open(cfg)
	if err != nil {
		return SQLDB{}, fmt.Errorf("%s: %w", op, err)
	}

	retryCfg := retry.RetryConfig{
		MaxAttempts: cfg.ConnectAttempts,
		Backoff:     retry.ExponentialBackoff(100 * time.Millisecond),
	}
	err = retry.Do(ctx, retryCfg, func() error {
		if err := db.PingContext(ctx); err != nil {
			log.Warn("database is not ready", "err", err)
			return err
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return SQLDB{}, fmt.Errorf("%s: database is unavailable: %w", op, err)
	}

	log.Info("database is available")
	return SQLDB{db}, nil
}

func open(cfg Config) (*sql.DB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		connConfig, err := pgx.ParseConfig(cfg.DSN())
		if err != nil {
			return nil, err
		}
		connStr := stdlib.RegisterConnConfig(connConfig)
		return sql.Open(DriverPostgres, connStr)
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, err
		}
		db, err := sql.Open(DriverSQLite, cfg.Path)
		if err != nil {
			return nil, err
		}
		// one writer at a time, avoids SQLITE_BUSY between pooled conns
		db.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func (s SQLDB) Close() {
	const op = "SQLDB.Close"
	log := slog.With("op", op)

	log.Info("closing sql database...")

	if err := s.DB.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("sql database is closed")
}
