package models

import (
	"time"

	"github.com/google/uuid"
)

// LLMUsage represents a single LLM API call's token usage
type LLMUsage struct {
	ID               uuid.UUID `json:"id" db:"id"`
	RunID            *string   `json:"run_id,omitempty" db:"run_id"`
	Provider         string    `json:"provider" db:"provider"`             // 'openai', ...
	Model            string    `json:"model" db:"model"`                   // model name as sent
	OperationType    string    `json:"operation_type" db:"operation_type"` // 'goal_generation', 'code_generation', ...
	PromptTokens     int       `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens" db:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens" db:"total_tokens"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// UsageData represents raw usage data from LLM provider APIs
type UsageData struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
}

// UsageSummary provides aggregated usage statistics for a period
type UsageSummary struct {
	PeriodStart           time.Time             `json:"period_start"`
	PeriodEnd             time.Time             `json:"period_end"`
	TotalTokens           int                   `json:"total_tokens"`
	TotalPromptTokens     int                   `json:"total_prompt_tokens"`
	TotalCompletionTokens int                   `json:"total_completion_tokens"`
	ByOperation           map[string]OpUsage    `json:"by_operation"`
	ByModel               map[string]ModelUsage `json:"by_model"`
	RequestCount          int                   `json:"request_count"`
}

// OpUsage represents usage aggregated by operation type
type OpUsage struct {
	OperationType string `json:"operation_type"`
	TotalTokens   int    `json:"total_tokens"`
	RequestCount  int    `json:"request_count"`
}

// ModelUsage represents usage aggregated by model
type ModelUsage struct {
	Model        string `json:"model"`
	Provider     string `json:"provider"`
	TotalTokens  int    `json:"total_tokens"`
	RequestCount int    `json:"request_count"`
}

// Summarize folds usage records into a summary
func Summarize(records []*LLMUsage, start, end time.Time) *UsageSummary {
	s := &UsageSummary{
		PeriodStart: start,
		PeriodEnd:   end,
		ByOperation: make(map[string]OpUsage),
		ByModel:     make(map[string]ModelUsage),
	}
	for _, r := range records {
		s.RequestCount++
		s.TotalTokens += r.TotalTokens
		s.TotalPromptTokens += r.PromptTokens
		s.TotalCompletionTokens += r.CompletionTokens

		op := s.ByOperation[r.OperationType]
		op.OperationType = r.OperationType
		op.TotalTokens += r.TotalTokens
		op.RequestCount++
		s.ByOperation[r.OperationType] = op

		m := s.ByModel[r.Model]
		m.Model = r.Model
		m.Provider = r.Provider
		m.TotalTokens += r.TotalTokens
		m.RequestCount++
		s.ByModel[r.Model] = m
	}
	return s
}

// Operation types for categorization
const (
	OpGoalGeneration    = "goal_generation"
	OpCodeGeneration    = "code_generation"
	OpProfileEnrichment = "profile_enrichment"
)
