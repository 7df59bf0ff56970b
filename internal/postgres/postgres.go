package postgres

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/billing-notifier/internal/config"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps sqlx.DB with query tracing
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// Querier interface defines the database operations repositories use.
// Both *sqlx.DB and *sqlx.Tx implement these methods
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// NewDB connects to postgres, retrying with exponential backoff while the
// database is still coming up
func NewDB(cfg *config.Configuration, logger *logger.Logger) (*DB, error) {
	dsn := cfg.Postgres.GetDSN()

	var db *sqlx.DB
	connect := func() error {
		var err error
		db, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			logger.Warnw("postgres not reachable yet", "host", cfg.Postgres.Host, "error", err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(connect, policy); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not connect to the database").
			Mark(ierr.ErrDatabase)
	}

	if cfg.Postgres.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	}
	if cfg.Postgres.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	}
	if cfg.Postgres.ConnMaxLifetimeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)
	}

	return &DB{DB: db, logger: logger}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if err := db.DB.Close(); err != nil {
		db.logger.Errorw("error closing database", "error", err)
	}
}

// GetQuerier returns a traced querier over the connection pool
func (db *DB) GetQuerier(ctx context.Context) Querier {
	return NewTracedQuerier(db.DB, db.logger)
}

// RunMigrations applies the embedded goose migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

// MigrationStatus prints the state of every embedded migration
func MigrationStatus(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.StatusContext(ctx, db, "migrations")
}

// RollbackMigration rolls back the most recent migration
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.DownContext(ctx, db, "migrations")
}
