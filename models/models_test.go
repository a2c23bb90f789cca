package models

import (
	"testing"
	"time"
)

func TestGoalsResponse_Validate(t *testing.T) {
	tests := []struct {
		name        string
		response    GoalsResponse
		want        int
		expectError bool
	}{
		{
			name: "Valid two goals",
			response: GoalsResponse{Goals: []GoalResponse{
				{Question: "What is the mpg distribution?", Visualization: "histogram of mpg"},
				{Question: "How does weight relate to mpg?", Visualization: "scatter of weight vs mpg"},
			}},
			want:        2,
			expectError: false,
		},
		{
			name: "Invalid - wrong count",
			response: GoalsResponse{Goals: []GoalResponse{
				{Question: "q", Visualization: "v"},
			}},
			want:        2,
			expectError: true,
		},
		{
			name: "Invalid - missing visualization",
			response: GoalsResponse{Goals: []GoalResponse{
				{Question: "q"},
			}},
			want:        1,
			expectError: true,
		},
		{
			name:        "Invalid - empty response",
			response:    GoalsResponse{},
			want:        3,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.response.Validate(tt.want)
			if (err != nil) != tt.expectError {
				t.Errorf("Validate() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	records := []*LLMUsage{
		{Model: "gpt-4o-mini", Provider: "openai", OperationType: OpGoalGeneration, PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		{Model: "gpt-4o-mini", Provider: "openai", OperationType: OpCodeGeneration, PromptTokens: 20, CompletionTokens: 30, TotalTokens: 50},
		{Model: "gpt-4o", Provider: "openai", OperationType: OpCodeGeneration, PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2},
	}

	s := Summarize(records, time.Time{}, time.Now())

	if s.RequestCount != 3 {
		t.Errorf("RequestCount = %d, want 3", s.RequestCount)
	}
	if s.TotalTokens != 67 {
		t.Errorf("TotalTokens = %d, want 67", s.TotalTokens)
	}
	if got := s.ByOperation[OpCodeGeneration].RequestCount; got != 2 {
		t.Errorf("code generation requests = %d, want 2", got)
	}
	if got := s.ByModel["gpt-4o-mini"].TotalTokens; got != 65 {
		t.Errorf("gpt-4o-mini tokens = %d, want 65", got)
	}
}

func TestEnrichmentResponse_ByColumn(t *testing.T) {
	r := EnrichmentResponse{Fields: []FieldEnrichment{{Column: "mpg", SemanticType: "number"}}}
	if got := r.ByColumn()["mpg"].SemanticType; got != "number" {
		t.Errorf("ByColumn()[mpg] = %q", got)
	}
}
