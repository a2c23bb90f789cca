package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vizgo/models"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeOpenAI(t *testing.T, status int, content string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)

		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o-mini-2024",
			"choices": []any{
				map[string]any{"message": map[string]any{"content": content}},
			},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func testConfig(baseURL string) *models.AIConfig {
	return &models.AIConfig{
		OpenAIKey:     "test-key",
		OpenAIModel:   "gpt-4o-mini",
		BaseURL:       baseURL,
		SystemContext: "You are a test assistant",
		MaxTokens:     500,
		Temperature:   0.2,
	}
}

func TestGetJsonResponse_ParsesFencedContent(t *testing.T) {
	srv, captured := fakeOpenAI(t, http.StatusOK, "Here is the output\n```json\n{\"goals\": [{\"question\": \"q\", \"visualization\": \"v\"}]}\n```")

	client := NewStructuredClient[models.GoalsResponse](testConfig(srv.URL), "")
	resp, usage, err := client.GetJsonResponse(context.Background(), "Generate 1 goal")
	require.NoError(t, err)
	require.Len(t, resp.Goals, 1)
	assert.Equal(t, "q", resp.Goals[0].Question)

	require.NotNil(t, usage)
	assert.Equal(t, 150, usage.TotalTokens)
	assert.Equal(t, "gpt-4o-mini-2024", usage.Model)
	assert.Equal(t, "openai", usage.Provider)

	req := *captured
	assert.Equal(t, "gpt-4o-mini", req["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, req["response_format"])
	msgs := req["messages"].([]any)
	system := msgs[0].(map[string]any)["content"].(string)
	assert.Contains(t, system, "valid JSON output")
}

func TestGetJsonResponse_APIError(t *testing.T) {
	srv, _ := fakeOpenAI(t, http.StatusTooManyRequests, "")

	client := NewStructuredClient[models.GoalsResponse](testConfig(srv.URL), "")
	_, _, err := client.GetJsonResponse(context.Background(), "json please")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestGetJsonResponse_MalformedContentKeepsUsage(t *testing.T) {
	srv, _ := fakeOpenAI(t, http.StatusOK, "not json at all")

	client := NewStructuredClient[models.GoalsResponse](testConfig(srv.URL), "")
	_, usage, err := client.GetJsonResponse(context.Background(), "json please")
	require.Error(t, err)
	assert.NotNil(t, usage)
}

func TestGetJsonResponseFromPrompt_UsesEmbeddedTemplate(t *testing.T) {
	srv, captured := fakeOpenAI(t, http.StatusOK, `{"dataset_description": "cars", "fields": []}`)

	client := NewStructuredClient[models.EnrichmentResponse](testConfig(srv.URL), t.TempDir())
	resp, _, err := client.GetJsonResponseFromPrompt(context.Background(), PromptProfileEnrichment, map[string]string{
		"DATASET_NAME": "cars.csv",
		"PROFILE_JSON": `[{"column": "mpg"}]`,
	})
	require.NoError(t, err)
	assert.Equal(t, "cars", resp.DatasetDescription)

	msgs := (*captured)["messages"].([]any)
	user := msgs[1].(map[string]any)["content"].(string)
	assert.Contains(t, user, "DATASET: cars.csv")
	assert.Contains(t, user, `[{"column": "mpg"}]`)
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"plain":                        "plain",
		"```python\nchart = 1\n```":    "chart = 1",
		"```\nx = 2\n```":              "x = 2",
		"```{\"a\": 1}```":             "{\"a\": 1}",
		"  ```json\n{\"b\": 2}\n```  ": "{\"b\": 2}",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripCodeFence(in), in)
	}
}

func TestPromptManager_DirectoryOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PromptGoalGeneration+".txt"), []byte("make {N_GOALS} goals"), 0o644))

	pm := NewPromptManager(dir)
	rendered, err := pm.RenderPrompt(PromptGoalGeneration, map[string]string{"N_GOALS": "4"})
	require.NoError(t, err)
	assert.Equal(t, "make 4 goals", rendered)

	// not overridden, falls back to the built-in template
	code, err := pm.LoadPrompt(PromptCodeGeneration)
	require.NoError(t, err)
	assert.Contains(t, code, "{TEMPLATE}")

	_, err = pm.LoadPrompt("missing")
	assert.Error(t, err)
}

func TestBuiltInPromptsCarryPlaceholders(t *testing.T) {
	pm := NewPromptManager("")
	want := map[string][]string{
		PromptGoalGeneration:    {"{N_GOALS}", "{PROFILE_JSON}", "{FIELD_NOTES}"},
		PromptCodeGeneration:    {"{LIBRARY}", "{GOAL}", "{TEMPLATE}", "{INSTRUCTIONS}", "{PROFILE_JSON}"},
		PromptProfileEnrichment: {"{DATASET_NAME}", "{PROFILE_JSON}"},
	}
	for name, placeholders := range want {
		content, err := pm.LoadPrompt(name)
		require.NoError(t, err, name)
		for _, p := range placeholders {
			assert.True(t, strings.Contains(content, p), "%s missing %s", name, p)
		}
	}
}

// TestLiveGoalGeneration calls the real endpoint when a key is configured
func TestLiveGoalGeneration(t *testing.T) {
	if err := godotenv.Load("../.env"); err != nil {
		_ = godotenv.Load(".env")
	}
	if os.Getenv("OPENAI_API_KEY") == "" {
		t.Skip("Skipping live test: OPENAI_API_KEY not set")
	}

	config := models.DefaultAIConfig()
	client := NewStructuredClient[models.GoalsResponse](config, config.PromptsDir)

	resp, usage, err := client.GetJsonResponseFromPrompt(context.Background(), PromptGoalGeneration, map[string]string{
		"N_GOALS":      "2",
		"FIELD_NOTES":  "",
		"PROFILE_JSON": `[{"column": "mpg", "properties": {"dtype": "number"}}, {"column": "origin", "properties": {"dtype": "category"}}]`,
	})
	require.NoError(t, err)
	assert.NoError(t, resp.Validate(2))
	if usage != nil {
		t.Logf("tokens used: %d", usage.TotalTokens)
	}
}
