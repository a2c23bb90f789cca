package ports

import (
	"context"

	"vizgo/models"
)

// UsageData represents raw usage data from LLM provider APIs
type UsageData = models.UsageData

// LLMResponse represents an enhanced LLM response with usage data
type LLMResponse struct {
	Content string
	Usage   *UsageData
}

// LLMClient interface for LLM providers (enhanced with usage tracking).
// The code generator talks to it directly.
type LLMClient interface {
	// Plain completion, content only
	ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error)

	// Completion plus token usage for the usage tracker
	ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*LLMResponse, error)
}

// UsageRecorder accepts token usage of one LLM call. Implementations must not
// block the caller on persistence.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, operationType string, usage *UsageData) error
}
