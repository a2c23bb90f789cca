package usage

import (
	"context"
	"log"
	"sync"
	"time"

	"vizgo/models"
	"vizgo/ports"

	"github.com/google/uuid"
)

type runIDKey struct{}

// WithRunID tags ctx so usage recorded under it is attributed to a run
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFrom returns the run a context was tagged with, if any
func RunIDFrom(ctx context.Context) *string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok && id != "" {
		return &id
	}
	return nil
}

// Service handles LLM usage tracking and persistence
type Service struct {
	repo ports.LLMUsageRepository
	wg   sync.WaitGroup

	maxRetries int
	baseDelay  time.Duration
}

var _ ports.UsageRecorder = (*Service)(nil)

// NewService creates a new usage service
func NewService(repo ports.LLMUsageRepository) *Service {
	return &Service{repo: repo, maxRetries: 3, baseDelay: 100 * time.Millisecond}
}

// RecordUsage asynchronously records LLM usage for an operation
func (s *Service) RecordUsage(ctx context.Context, operationType string, usage *models.UsageData) error {
	if usage == nil {
		log.Printf("[UsageService] ERROR: nil usage data provided")
		return nil // Don't fail the caller for tracking issues
	}

	if usage.PromptTokens < 0 || usage.CompletionTokens < 0 || usage.TotalTokens < 0 {
		log.Printf("[UsageService] ERROR: invalid token counts: %+v", usage)
		return nil
	}

	total := usage.TotalTokens
	if total == 0 {
		total = usage.PromptTokens + usage.CompletionTokens
	}

	llmUsage := &models.LLMUsage{
		ID:               uuid.New(),
		RunID:            RunIDFrom(ctx),
		Provider:         usage.Provider,
		Model:            usage.Model,
		OperationType:    operationType,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      total,
		CreatedAt:        time.Now().UTC(),
	}

	// Async persistence to avoid blocking LLM calls
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.persistWithRetry(llmUsage); err != nil {
			log.Printf("[UsageService] ERROR: failed to persist usage after retries: %v", err)
		}
	}()

	return nil
}

// Wait blocks until pending records are persisted or dropped
func (s *Service) Wait() {
	s.wg.Wait()
}

// persistWithRetry attempts to persist usage with linear backoff
func (s *Service) persistWithRetry(usage *models.LLMUsage) error {
	var err error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err = s.repo.RecordUsage(context.Background(), usage); err == nil {
			return nil
		}
		if attempt < s.maxRetries-1 {
			time.Sleep(time.Duration(attempt+1) * s.baseDelay)
		}
	}
	return err
}

// GetUsageSummary returns aggregated usage in a time period
func (s *Service) GetUsageSummary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error) {
	return s.repo.GetUsageSummary(ctx, start, end)
}

// GetUsage returns detailed usage records in a time period
func (s *Service) GetUsage(ctx context.Context, start, end time.Time) ([]*models.LLMUsage, error) {
	return s.repo.GetUsage(ctx, start, end)
}
