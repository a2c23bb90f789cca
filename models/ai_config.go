package models

import (
	"os"
	"strconv"
)

// AIConfig holds AI service configuration shared by the structured client and the code generator
type AIConfig struct {
	OpenAIKey     string
	OpenAIModel   string
	BaseURL       string
	SystemContext string
	MaxTokens     int
	Temperature   float64
	PromptsDir    string // Directory for external prompt files
}

// DefaultAIConfig returns sensible defaults for AI configuration
func DefaultAIConfig() *AIConfig {
	config := &AIConfig{
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   os.Getenv("LLM_MODEL"),
		BaseURL:       os.Getenv("LLM_BASE_URL"),
		SystemContext: "You are an experienced data visualization assistant",
		MaxTokens:     2000, // default
		Temperature:   0.1,  // default
		PromptsDir:    "./prompts",
	}

	if config.OpenAIModel == "" {
		config.OpenAIModel = "gpt-4o-mini"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}

	// Parse MaxTokens from environment
	if maxTokensStr := os.Getenv("LLM_MAX_TOKENS"); maxTokensStr != "" {
		if maxTokens, err := strconv.Atoi(maxTokensStr); err == nil {
			config.MaxTokens = maxTokens
		}
	}

	// Parse Temperature from environment
	if tempStr := os.Getenv("LLM_TEMPERATURE"); tempStr != "" {
		if temp, err := strconv.ParseFloat(tempStr, 64); err == nil {
			config.Temperature = temp
		}
	}

	if dir := os.Getenv("PROMPTS_DIR"); dir != "" {
		config.PromptsDir = dir
	}

	return config
}
