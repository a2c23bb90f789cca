package store

import (
	"context"
	"testing"
	"time"

	"vizgo/domain/chart"
	"vizgo/domain/core"
	"vizgo/domain/run"
	"vizgo/internal/errors"
	"vizgo/models"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), "sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRun(t *testing.T) (*run.Run, []chart.Chart) {
	t.Helper()
	cands := chart.NewCandidates([]string{"chart = alt.Chart(data)", "chart = broken("}, chart.LibraryAltair)
	charts := []chart.Chart{
		chart.NewSpecChart(cands[0], map[string]any{"mark": "bar", "encoding": map[string]any{"x": map[string]any{"field": "mpg"}}}),
		chart.NewFailedChart(cands[1], "SyntaxError: line 1", "Traceback ..."),
	}
	rn := run.New("cars.csv", "What is the distribution of mpg?", "Histogram of mpg", chart.LibraryAltair, true)
	rn.Complete(cands, charts)
	return rn, charts
}

func TestSaveAndLoadRun(t *testing.T) {
	repo := NewChartRepository(openTestDB(t))
	ctx := context.Background()
	rn, charts := sampleRun(t)

	require.NoError(t, repo.SaveRun(ctx, rn, charts))

	got, err := repo.GetRun(ctx, rn.ID)
	require.NoError(t, err)
	assert.Equal(t, rn.ID, got.ID)
	assert.Equal(t, run.StatusCompleted, got.Status)
	assert.Equal(t, 2, got.CandidateCount)
	assert.Equal(t, 1, got.SuccessCount)
	assert.True(t, got.Debug)
	assert.Equal(t, rn.Fingerprint, got.Fingerprint)
	require.NotNil(t, got.CompletedAt)

	stored, err := repo.ListCharts(ctx, rn.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, charts[0].Spec, stored[0].Spec)
	assert.True(t, stored[0].Status)
	assert.Nil(t, stored[0].Error)
	assert.False(t, stored[1].Status)
	require.NotNil(t, stored[1].Error)
	assert.Equal(t, "SyntaxError: line 1", stored[1].Error.Message)
	assert.Equal(t, charts[1].CandidateHash, stored[1].CandidateHash)

	one, err := repo.GetChart(ctx, charts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, chart.LibraryAltair, one.Library)
	assert.NoError(t, one.Validate())
}

func TestSaveRunReplaces(t *testing.T) {
	repo := NewChartRepository(openTestDB(t))
	ctx := context.Background()
	rn, charts := sampleRun(t)

	require.NoError(t, repo.SaveRun(ctx, rn, charts))
	require.NoError(t, repo.SaveRun(ctx, rn, charts[:1]))

	stored, err := repo.ListCharts(ctx, rn.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestListRunsNewestFirst(t *testing.T) {
	repo := NewChartRepository(openTestDB(t))
	ctx := context.Background()

	var ids []core.RunID
	for i := 0; i < 3; i++ {
		rn, charts := sampleRun(t)
		rn.StartedAt = time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.SaveRun(ctx, rn, charts))
		ids = append(ids, rn.ID)
	}

	runs, err := repo.ListRuns(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)

	rest, err := repo.ListRuns(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, ids[0], rest[0].ID)
}

func TestNotFound(t *testing.T) {
	repo := NewChartRepository(openTestDB(t))
	_, err := repo.GetRun(context.Background(), core.NewRunID())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = repo.GetChart(context.Background(), core.NewChartID())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestLLMUsageRepository(t *testing.T) {
	repo := NewLLMUsageRepository(openTestDB(t))
	ctx := context.Background()
	runID := "run-1"

	require.NoError(t, repo.RecordUsage(ctx, &models.LLMUsage{
		RunID: &runID, Provider: "openai", Model: "gpt-4o-mini", OperationType: models.OpCodeGeneration,
		PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150,
	}))
	require.NoError(t, repo.RecordUsage(ctx, &models.LLMUsage{
		Provider: "openai", Model: "gpt-4o-mini", OperationType: models.OpGoalGeneration, TotalTokens: 40,
	}))

	start, end := time.Now().Add(-time.Hour), time.Now().Add(time.Hour)
	records, err := repo.GetUsage(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, records, 2)

	sum, err := repo.GetUsageSummary(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, 190, sum.TotalTokens)
	assert.Equal(t, 2, sum.ByModel["gpt-4o-mini"].RequestCount)
}

func TestParseURL(t *testing.T) {
	driver, dsn, err := parseURL("postgres://u:p@localhost/vizgo?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, "postgres", driver)
	assert.Equal(t, "postgres://u:p@localhost/vizgo?sslmode=disable", dsn)

	driver, dsn, err = parseURL("sqlite:///tmp/vizgo.db")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", driver)
	assert.Equal(t, "/tmp/vizgo.db?_foreign_keys=on&_busy_timeout=5000", dsn)

	_, _, err = parseURL("mysql://x")
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	_, _, err = parseURL("sqlite://")
	assert.Error(t, err)
}
