package usage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vizgo/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu       sync.Mutex
	records  []*models.LLMUsage
	failures int
	calls    int
}

func (r *memoryRepo) RecordUsage(ctx context.Context, u *models.LLMUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failures > 0 {
		r.failures--
		return errors.New("db unavailable")
	}
	r.records = append(r.records, u)
	return nil
}

func (r *memoryRepo) GetUsage(ctx context.Context, start, end time.Time) ([]*models.LLMUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records, nil
}

func (r *memoryRepo) GetUsageSummary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error) {
	records, _ := r.GetUsage(ctx, start, end)
	return models.Summarize(records, start, end), nil
}

func fastService(repo *memoryRepo) *Service {
	s := NewService(repo)
	s.baseDelay = time.Millisecond
	return s
}

func TestRecordUsageAttributesRun(t *testing.T) {
	repo := &memoryRepo{}
	s := fastService(repo)

	ctx := WithRunID(context.Background(), "run-1")
	require.NoError(t, s.RecordUsage(ctx, models.OpCodeGeneration, &models.UsageData{
		PromptTokens: 10, CompletionTokens: 5, Model: "gpt-4o-mini", Provider: "openai",
	}))
	s.Wait()

	require.Len(t, repo.records, 1)
	rec := repo.records[0]
	require.NotNil(t, rec.RunID)
	assert.Equal(t, "run-1", *rec.RunID)
	assert.Equal(t, 15, rec.TotalTokens)
	assert.Equal(t, models.OpCodeGeneration, rec.OperationType)
}

func TestRecordUsageRetries(t *testing.T) {
	repo := &memoryRepo{failures: 2}
	s := fastService(repo)

	require.NoError(t, s.RecordUsage(context.Background(), models.OpGoalGeneration, &models.UsageData{TotalTokens: 3}))
	s.Wait()

	assert.Equal(t, 3, repo.calls)
	require.Len(t, repo.records, 1)
	assert.Nil(t, repo.records[0].RunID)
}

func TestRecordUsageGivesUp(t *testing.T) {
	repo := &memoryRepo{failures: 10}
	s := fastService(repo)

	require.NoError(t, s.RecordUsage(context.Background(), models.OpGoalGeneration, &models.UsageData{TotalTokens: 3}))
	s.Wait()

	assert.Equal(t, 3, repo.calls)
	assert.Empty(t, repo.records)
}

func TestRecordUsageIgnoresBadInput(t *testing.T) {
	repo := &memoryRepo{}
	s := fastService(repo)

	assert.NoError(t, s.RecordUsage(context.Background(), models.OpGoalGeneration, nil))
	assert.NoError(t, s.RecordUsage(context.Background(), models.OpGoalGeneration, &models.UsageData{PromptTokens: -1}))
	s.Wait()
	assert.Zero(t, repo.calls)
}

func TestUsageSummary(t *testing.T) {
	repo := &memoryRepo{}
	s := fastService(repo)
	for _, op := range []string{models.OpGoalGeneration, models.OpCodeGeneration, models.OpCodeGeneration} {
		require.NoError(t, s.RecordUsage(context.Background(), op, &models.UsageData{TotalTokens: 10, Model: "m"}))
	}
	s.Wait()

	sum, err := s.GetUsageSummary(context.Background(), time.Time{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 30, sum.TotalTokens)
	assert.Equal(t, 2, sum.ByOperation[models.OpCodeGeneration].RequestCount)
}
