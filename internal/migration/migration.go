package migration

import (
	"context"

	"vizgo/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations. The schema sticks to
// types both PostgreSQL and SQLite accept.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create viz_runs table")
	}

	if err := r.createChartsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create charts table")
	}

	if err := r.createLLMUsageTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create llm_usage table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS viz_runs (
			id VARCHAR(64) PRIMARY KEY,
			dataset_name TEXT NOT NULL,
			question TEXT NOT NULL,
			visualization TEXT NOT NULL,
			library VARCHAR(32) NOT NULL,
			debug BOOLEAN NOT NULL DEFAULT FALSE,
			status VARCHAR(32) NOT NULL,
			candidate_count INTEGER NOT NULL DEFAULT 0,
			chart_count INTEGER NOT NULL DEFAULT 0,
			success_count INTEGER NOT NULL DEFAULT 0,
			fingerprint VARCHAR(64) NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP
		)
	`)
	return err
}

func (r *MigrationRunner) createChartsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS charts (
			id VARCHAR(64) PRIMARY KEY,
			run_id VARCHAR(64) NOT NULL REFERENCES viz_runs(id) ON DELETE CASCADE,
			candidate_index INTEGER NOT NULL,
			candidate_hash VARCHAR(64) NOT NULL,
			library VARCHAR(32) NOT NULL,
			status BOOLEAN NOT NULL,
			code TEXT NOT NULL,
			spec TEXT,
			raster TEXT,
			error_message TEXT,
			traceback TEXT,
			created_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createLLMUsageTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS llm_usage (
			id VARCHAR(64) PRIMARY KEY,
			run_id VARCHAR(64),
			provider VARCHAR(32) NOT NULL,
			model VARCHAR(128) NOT NULL,
			operation_type VARCHAR(64) NOT NULL,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_viz_runs_started_at ON viz_runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_charts_run_id ON charts(run_id, candidate_index)`,
		`CREATE INDEX IF NOT EXISTS idx_llm_usage_created_at ON llm_usage(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_llm_usage_run_id ON llm_usage(run_id)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
