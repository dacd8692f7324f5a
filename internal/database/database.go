package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"blogapi/internal/config"
	"blogapi/pkg/logger"
)

// Dialect names the database/sql driver in use.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

// Open connects to the relational store selected by cfg.Driver and pings
// it before returning.
func Open(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (*sql.DB, Dialect, error) {
	var (
		dialect Dialect
		dsn     string
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		dialect, dsn = Postgres, cfg.PostgresDSN()
	case config.DriverSQLite:
		dialect, dsn = SQLite, fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", cfg.SQLitePath)
	default:
		return nil, "", fmt.Errorf("driver %q is not a sql driver", cfg.Driver)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == SQLite {
		// a single writer avoids SQLITE_BUSY under concurrent saves
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", dialect, err)
	}

	log.Info("Connected to database", map[string]interface{}{"driver": string(dialect)})
	return db, dialect, nil
}

// IsUniqueViolation reports whether err comes from a unique constraint.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
