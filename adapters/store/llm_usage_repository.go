package store

import (
	"context"
	"time"

	"vizgo/models"
	"vizgo/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LLMUsageRepositoryImpl implements LLMUsageRepository over sqlx
type LLMUsageRepositoryImpl struct {
	db *sqlx.DB
}

// NewLLMUsageRepository creates a new LLM usage repository
func NewLLMUsageRepository(db *sqlx.DB) ports.LLMUsageRepository {
	return &LLMUsageRepositoryImpl{db: db}
}

// RecordUsage records LLM usage for an API call
func (r *LLMUsageRepositoryImpl) RecordUsage(ctx context.Context, usage *models.LLMUsage) error {
	if usage.ID == uuid.Nil {
		usage.ID = uuid.New()
	}
	if usage.CreatedAt.IsZero() {
		usage.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO llm_usage (
			id, run_id, provider, model, operation_type,
			prompt_tokens, completion_tokens, total_tokens, created_at
		) VALUES (
			:id, :run_id, :provider, :model, :operation_type,
			:prompt_tokens, :completion_tokens, :total_tokens, :created_at
		)
	`, usage)
	return err
}

// GetUsage retrieves usage records within a date range, newest first
func (r *LLMUsageRepositoryImpl) GetUsage(ctx context.Context, start, end time.Time) ([]*models.LLMUsage, error) {
	var usages []*models.LLMUsage
	err := r.db.SelectContext(ctx, &usages, r.db.Rebind(`
		SELECT id, run_id, provider, model, operation_type,
		       prompt_tokens, completion_tokens, total_tokens, created_at
		FROM llm_usage
		WHERE created_at >= ? AND created_at <= ?
		ORDER BY created_at DESC
	`), start.UTC(), end.UTC())
	return usages, err
}

// GetUsageSummary returns aggregated usage statistics for a period
func (r *LLMUsageRepositoryImpl) GetUsageSummary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error) {
	records, err := r.GetUsage(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return models.Summarize(records, start, end), nil
}
