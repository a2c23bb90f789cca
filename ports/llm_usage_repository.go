package ports

import (
	"context"
	"time"

	"vizgo/models"
)

// LLMUsageRepository defines the interface for LLM usage data operations
type LLMUsageRepository interface {
	// Record usage for an LLM call
	RecordUsage(ctx context.Context, usage *models.LLMUsage) error

	// Get usage records within date range
	GetUsage(ctx context.Context, start, end time.Time) ([]*models.LLMUsage, error)

	// Get aggregated usage summary for a period
	GetUsageSummary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error)
}
