// Package store persists visualization runs, charts and LLM usage over sqlx.
// PostgreSQL (lib/pq) and SQLite (go-sqlite3) are supported.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vizgo/internal/errors"
	"vizgo/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the database named by url and applies migrations.
// Accepted forms: postgres://..., postgresql://..., sqlite://path and
// sqlite::memory:.
func Open(ctx context.Context, url string) (*sqlx.DB, error) {
	driver, dsn, err := parseURL(url)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if driver == "sqlite3" {
		// one writer; also keeps an in-memory database alive across calls
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.WithCode(errors.CodeDatabaseError, fmt.Errorf("failed to connect to database: %w", err))
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func parseURL(url string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres", url, nil
	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(url, "sqlite://")
		if path == "" {
			return "", "", errors.ConfigInvalid("sqlite URL has no path")
		}
		return "sqlite3", path + sqliteOptions(path), nil
	case strings.HasPrefix(url, "sqlite:"):
		path := strings.TrimPrefix(url, "sqlite:")
		return "sqlite3", path + sqliteOptions(path), nil
	default:
		return "", "", errors.ConfigInvalid(fmt.Sprintf("unsupported database URL %q (want postgres:// or sqlite://)", url))
	}
}

func sqliteOptions(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return sep + "_foreign_keys=on&_busy_timeout=5000"
}
