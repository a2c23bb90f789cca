package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"vizgo/models"
)

// StructuredClient provides typed JSON responses from LLM calls
type StructuredClient[T any] struct {
	OpenAIClient  *OpenAIClient
	PromptManager *PromptManager
	SystemContext string
}

// OpenAIClient holds the connection settings of an OpenAI compatible endpoint
type OpenAIClient struct {
	APIKey      string
	BaseURL     string
	Timeout     int // in milliseconds
	Temperature float64
	MaxTokens   int
	Model       string
}

// ResponseFormat forces structured output from GPT models
type ResponseFormat struct {
	Type string `json:"type"` // "json_object" for structured output
}

// DefaultTimeoutMillis bounds a single structured request
const DefaultTimeoutMillis = 180000

// NewStructuredClient creates a new structured client
func NewStructuredClient[T any](config *models.AIConfig, promptsDir string) *StructuredClient[T] {
	log.Printf("[StructuredClient] Initializing client with model=%s, temp=%.2f, maxTokens=%d, timeout=%dms",
		config.OpenAIModel, config.Temperature, config.MaxTokens, DefaultTimeoutMillis)

	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &StructuredClient[T]{
		OpenAIClient: &OpenAIClient{
			APIKey:      config.OpenAIKey,
			BaseURL:     baseURL,
			Timeout:     DefaultTimeoutMillis,
			Temperature: config.Temperature,
			MaxTokens:   config.MaxTokens,
			Model:       config.OpenAIModel,
		},
		PromptManager: NewPromptManager(promptsDir),
		SystemContext: config.SystemContext,
	}
}

// GetJsonResponse makes a typed LLM call and parses JSON response
func (client *StructuredClient[T]) GetJsonResponse(ctx context.Context, prompt string) (*T, *models.UsageData, error) {
	return client.GetJsonResponseWithContext(ctx, prompt, "")
}

// GetJsonResponseWithContext makes a typed LLM call in JSON mode. The usage
// reported by the endpoint is returned alongside the result when present.
func (client *StructuredClient[T]) GetJsonResponseWithContext(ctx context.Context, prompt string, systemMessage string) (*T, *models.UsageData, error) {
	log.Printf("[StructuredClient] Starting JSON response request - model=%s", client.OpenAIClient.Model)

	timeout := time.Duration(client.OpenAIClient.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = DefaultTimeoutMillis * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	type RequestBody struct {
		Model               string         `json:"model"`
		Messages            []Message      `json:"messages"`
		Temperature         float64        `json:"temperature,omitempty"`
		MaxCompletionTokens int            `json:"max_completion_tokens,omitempty"`
		ResponseFormat      ResponseFormat `json:"response_format"`
	}

	systemContent := systemMessage
	if systemContent == "" {
		systemContent = client.SystemContext
	}

	// JSON mode is rejected unless the word "JSON" appears in the messages
	if !strings.Contains(strings.ToLower(systemContent+prompt), "json") {
		log.Printf("[StructuredClient] Adding JSON mode directive to system message")
		systemContent = strings.TrimSpace(systemContent + "\n\nIMPORTANT: Respond with valid JSON output.")
	}

	reqBody := RequestBody{
		Model: client.OpenAIClient.Model,
		Messages: []Message{
			{Role: "system", Content: systemContent},
			{Role: "user", Content: prompt},
		},
		Temperature:         client.OpenAIClient.Temperature,
		MaxCompletionTokens: client.OpenAIClient.MaxTokens,
		ResponseFormat:      ResponseFormat{Type: "json_object"},
	}

	promptPreview := prompt
	if len(prompt) > 500 {
		promptPreview = prompt[:500] + "..."
	}
	log.Printf("[StructuredClient] Sending request to %s - promptLength=%d, temp=%.2f",
		client.OpenAIClient.Model, len(prompt), client.OpenAIClient.Temperature)
	log.Printf("[StructuredClient] Prompt preview: %s", promptPreview)

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.OpenAIClient.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+client.OpenAIClient.APIKey)

	httpClient := &http.Client{Timeout: timeout}
	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, nil, fmt.Errorf("request timeout after %v: %w", timeout, err)
		}
		return nil, nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, nil, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[StructuredClient] ERROR: Failed to read response body: %v", err)
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.Printf("[StructuredClient] Response body size: %d bytes", len(body))

	type OpenAIResponse struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage *struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}

	var openaiResp OpenAIResponse
	if err := json.Unmarshal(body, &openaiResp); err != nil {
		log.Printf("[StructuredClient] ERROR: Failed to parse OpenAI response envelope: %v", err)
		return nil, nil, fmt.Errorf("failed to parse OpenAI response: %w\nRaw response: %s", err, string(body))
	}

	if len(openaiResp.Choices) == 0 {
		log.Printf("[StructuredClient] ERROR: No choices in OpenAI response")
		return nil, nil, fmt.Errorf("no choices in OpenAI response\nRaw response: %s", string(body))
	}

	var usage *models.UsageData
	if openaiResp.Usage != nil {
		model := openaiResp.Model
		if model == "" {
			model = client.OpenAIClient.Model
		}
		usage = &models.UsageData{
			PromptTokens:     openaiResp.Usage.PromptTokens,
			CompletionTokens: openaiResp.Usage.CompletionTokens,
			TotalTokens:      openaiResp.Usage.TotalTokens,
			Model:            model,
			Provider:         "openai",
		}
	}

	var result T
	content := openaiResp.Choices[0].Message.Content

	log.Printf("[StructuredClient] Raw content length: %d bytes", len(content))

	content = cleanJSONContent(content)

	if err := json.Unmarshal([]byte(content), &result); err != nil {
		log.Printf("[StructuredClient] ERROR: Failed to unmarshal JSON content into result type: %v", err)
		log.Printf("[StructuredClient] Cleaned content: %s", content)
		return nil, usage, fmt.Errorf("failed to parse JSON content into result type: %w\nCleaned content: %s", err, content)
	}

	log.Printf("[StructuredClient] Successfully parsed JSON response into result type")
	return &result, usage, nil
}

// cleanJSONContent removes markdown code blocks and leading chatter
func cleanJSONContent(content string) string {
	content = StripCodeFence(content)

	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	skippedLines := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if trimmed == "" ||
			strings.HasPrefix(lower, "here is") ||
			strings.HasPrefix(lower, "the json") ||
			strings.HasPrefix(lower, "output:") ||
			strings.HasPrefix(lower, "response:") ||
			strings.HasPrefix(lower, "##") ||
			strings.Contains(lower, "below is") ||
			strings.Contains(lower, "following is") {
			skippedLines++
			continue
		}
		cleanedLines = append(cleanedLines, trimmed)
	}

	if skippedLines > 0 {
		log.Printf("[StructuredClient] Filtered out %d lines of AI chatter", skippedLines)
	}

	content = strings.TrimSpace(strings.Join(cleanedLines, "\n"))

	// chatter on the first line before the object or array
	if strings.Contains(content, "\n{") {
		parts := strings.SplitN(content, "\n{", 2)
		if len(parts) == 2 && !strings.Contains(parts[0], "{") && !strings.Contains(parts[0], "[") {
			content = "{" + parts[1]
		}
	} else if strings.Contains(content, "\n[") {
		parts := strings.SplitN(content, "\n[", 2)
		if len(parts) == 2 && !strings.Contains(parts[0], "{") && !strings.Contains(parts[0], "[") {
			content = "[" + parts[1]
		}
	}

	return content
}

// StripCodeFence removes a surrounding markdown code fence such as ```json or
// ```python. Content without a fence is returned trimmed.
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	// drop the language tag on the opening line
	if nl := strings.Index(content, "\n"); nl >= 0 && !strings.ContainsAny(content[:nl], "{[ ") {
		content = content[nl+1:]
	}
	if end := strings.LastIndex(content, "```"); end >= 0 {
		content = content[:end]
	}
	return strings.TrimSpace(content)
}

// GetJsonResponseFromPrompt loads a prompt template, renders it and gets a structured response
func (client *StructuredClient[T]) GetJsonResponseFromPrompt(ctx context.Context, promptName string, replacements map[string]string) (*T, *models.UsageData, error) {
	log.Printf("[StructuredClient] Loading prompt template: %s (%d replacements)", promptName, len(replacements))

	prompt, err := client.PromptManager.RenderPrompt(promptName, replacements)
	if err != nil {
		log.Printf("[StructuredClient] ERROR: Failed to load/render prompt %s: %v", promptName, err)
		return nil, nil, fmt.Errorf("failed to load/render prompt: %w", err)
	}

	log.Printf("[StructuredClient] Rendered prompt length: %d characters", len(prompt))

	return client.GetJsonResponseWithContext(ctx, prompt, "")
}
