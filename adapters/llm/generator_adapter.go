package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"vizgo/ai"
	"vizgo/domain/core"
	"vizgo/domain/dataset"
	"vizgo/domain/goal"
	"vizgo/internal"
	"vizgo/models"
	"vizgo/ports"
)

// Config holds LLM adapter configuration
type Config struct {
	Model               string        // e.g., "gpt-4o-mini"
	APIKey              string        // OpenAI API key
	BaseURL             string        // Optional override (default: https://api.openai.com/v1)
	Temperature         float64       // 0.0-1.0, lower = more deterministic
	MaxTokens           int           // Max tokens in response
	Timeout             time.Duration // Request timeout
	PromptsDir          string        // Optional prompt overrides
	FallbackToHeuristic bool          // Fallback to heuristic on transport errors
	Logger              *internal.Logger
}

// ConfigFromAI derives the adapter config from the shared AI config
func ConfigFromAI(cfg *models.AIConfig, fallback bool) Config {
	return Config{
		Model:               cfg.OpenAIModel,
		APIKey:              cfg.OpenAIKey,
		BaseURL:             cfg.BaseURL,
		Temperature:         cfg.Temperature,
		MaxTokens:           cfg.MaxTokens,
		Timeout:             120 * time.Second,
		PromptsDir:          cfg.PromptsDir,
		FallbackToHeuristic: fallback,
	}
}

func (c Config) logger() *internal.Logger {
	if c.Logger == nil {
		return internal.DefaultLogger
	}
	return c.Logger
}

// shouldFallback reports whether err may be replaced by heuristic output.
// Validation errors describe a bad reply and always reach the caller.
func (c Config) shouldFallback(ctx context.Context, err error) bool {
	return err != nil && c.FallbackToHeuristic && ctx.Err() == nil && !core.IsValidationError(err)
}

func (c Config) aiConfig() *models.AIConfig {
	return &models.AIConfig{
		OpenAIKey:     c.APIKey,
		OpenAIModel:   c.Model,
		BaseURL:       c.BaseURL,
		SystemContext: "You are an experienced data analyst. Respond with valid JSON only.",
		MaxTokens:     c.MaxTokens,
		Temperature:   c.Temperature,
		PromptsDir:    c.PromptsDir,
	}
}

// GoalGeneratorAdapter implements GoalGeneratorPort using an LLM in JSON mode
type GoalGeneratorAdapter struct {
	config      Config
	client      *ai.StructuredClient[models.GoalsResponse]
	usage       ports.UsageRecorder
	fallbackGen ports.GoalGeneratorPort
}

// NewGoalGeneratorAdapter creates a new LLM goal generator. usage and
// fallbackGen may be nil.
func NewGoalGeneratorAdapter(config Config, usage ports.UsageRecorder, fallbackGen ports.GoalGeneratorPort) (*GoalGeneratorAdapter, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: missing OpenAI API key", core.ErrConfiguration)
	}
	return &GoalGeneratorAdapter{
		config:      config,
		client:      ai.NewStructuredClient[models.GoalsResponse](config.aiConfig(), config.PromptsDir),
		usage:       usage,
		fallbackGen: fallbackGen,
	}, nil
}

// GenerateGoals asks the model for exactly n goals
func (g *GoalGeneratorAdapter) GenerateGoals(ctx context.Context, profile *dataset.Profile, n int) ([]goal.Goal, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: goal count must be positive, got %d", core.ErrValidation, n)
	}
	if profile == nil {
		return nil, core.ErrNoDataset
	}

	goals, err := g.generate(ctx, profile, n)
	if g.fallbackGen != nil && g.config.shouldFallback(ctx, err) {
		g.config.logger().Warn("[GoalGenerator] LLM goal generation failed, using heuristic fallback: %v", err)
		return g.fallbackGen.GenerateGoals(ctx, profile, n)
	}
	return goals, err
}

func (g *GoalGeneratorAdapter) generate(ctx context.Context, profile *dataset.Profile, n int) ([]goal.Goal, error) {
	profileJSON, err := ProfileJSON(profile)
	if err != nil {
		return nil, err
	}

	resp, usage, err := g.client.GetJsonResponseFromPrompt(ctx, ai.PromptGoalGeneration, map[string]string{
		"N_GOALS":      strconv.Itoa(n),
		"PROFILE_JSON": profileJSON,
		"FIELD_NOTES":  ai.FieldNotes(profile),
	})
	recordUsage(ctx, g.config.logger(), g.usage, models.OpGoalGeneration, usage)
	if err != nil {
		if isParseError(err) {
			return nil, fmt.Errorf("%w: %v", core.ErrMalformedReply, err)
		}
		return nil, fmt.Errorf("goal generation: %w", err)
	}

	if len(resp.Goals) != n {
		return nil, core.NewGoalCountError(n, len(resp.Goals))
	}
	if err := resp.Validate(n); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedReply, err)
	}

	goals := make([]goal.Goal, n)
	for i, r := range resp.Goals {
		goals[i] = goal.Goal{
			Question:      strings.TrimSpace(r.Question),
			Visualization: strings.TrimSpace(r.Visualization),
			Reasoning:     strings.TrimSpace(r.Reasoning),
			Statistic:     strings.TrimSpace(r.Statistic),
			Rank:          r.Rank,
		}
	}
	g.config.logger().Info("[GoalGenerator] Generated %d goals for %s", n, profile.Name)
	return goal.Reindex(goals), nil
}

// CodeGeneratorAdapter implements CodeGeneratorPort with plain completions
type CodeGeneratorAdapter struct {
	config      Config
	llmClient   ports.LLMClient
	prompts     *ai.PromptManager
	usage       ports.UsageRecorder
	fallbackGen ports.CodeGeneratorPort
}

// NewCodeGeneratorAdapter creates a new LLM code generator
func NewCodeGeneratorAdapter(config Config, usage ports.UsageRecorder, fallbackGen ports.CodeGeneratorPort) (*CodeGeneratorAdapter, error) {
	client, err := NewLLMClient(config)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create LLM client: %v", core.ErrConfiguration, err)
	}
	return NewCodeGeneratorWithClient(config, client, usage, fallbackGen), nil
}

// NewCodeGeneratorWithClient wires an existing client, used by tests and alternative providers
func NewCodeGeneratorWithClient(config Config, client ports.LLMClient, usage ports.UsageRecorder, fallbackGen ports.CodeGeneratorPort) *CodeGeneratorAdapter {
	return &CodeGeneratorAdapter{
		config:      config,
		llmClient:   client,
		prompts:     ai.NewPromptManager(config.PromptsDir),
		usage:       usage,
		fallbackGen: fallbackGen,
	}
}

// GenerateCode requests req.Count programs, one completion each. Candidates
// that come back empty are skipped; an error is returned only when no
// candidate could be produced.
func (g *CodeGeneratorAdapter) GenerateCode(ctx context.Context, req ports.CodeRequest) ([]string, error) {
	if req.Profile == nil {
		return nil, core.ErrNoDataset
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}

	prompt, err := g.BuildPrompt(req)
	if err != nil {
		return nil, err
	}

	var sources []string
	var lastErr error
	for i := 0; i < count; i++ {
		resp, err := g.llmClient.ChatCompletionWithUsage(ctx, g.config.Model, prompt, g.config.MaxTokens)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.config.logger().Warn("[CodeGenerator] Candidate %d failed: %v", i, err)
			continue
		}
		recordUsage(ctx, g.config.logger(), g.usage, models.OpCodeGeneration, resp.Usage)

		code := ai.StripCodeFence(resp.Content)
		if code == "" {
			lastErr = fmt.Errorf("%w: empty program", core.ErrMalformedReply)
			continue
		}
		sources = append(sources, code)
	}

	if len(sources) == 0 {
		if g.fallbackGen != nil && g.config.shouldFallback(ctx, lastErr) {
			g.config.logger().Warn("[CodeGenerator] No LLM candidates, using heuristic fallback: %v", lastErr)
			return g.fallbackGen.GenerateCode(ctx, req)
		}
		return nil, fmt.Errorf("code generation: %w", lastErr)
	}
	g.config.logger().Info("[CodeGenerator] Generated %d/%d %s candidates", len(sources), count, req.Library)
	return sources, nil
}

// BuildPrompt renders the code generation prompt for a request
func (g *CodeGeneratorAdapter) BuildPrompt(req ports.CodeRequest) (string, error) {
	profileJSON, err := ProfileJSON(req.Profile)
	if err != nil {
		return "", err
	}
	return g.prompts.RenderPrompt(ai.PromptCodeGeneration, map[string]string{
		"LIBRARY":      string(req.Library),
		"GOAL":         req.Goal.Describe(),
		"PROFILE_JSON": profileJSON,
		"FIELD_NOTES":  ai.FieldNotes(req.Profile),
		"TEMPLATE":     req.Template,
		"INSTRUCTIONS": req.Instructions,
	})
}

// ProfileJSON renders the profile fields the way prompts embed them
func ProfileJSON(profile *dataset.Profile) (string, error) {
	raw, err := json.MarshalIndent(profile.Fields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}
	return string(raw), nil
}

func recordUsage(ctx context.Context, logger *internal.Logger, rec ports.UsageRecorder, op string, usage *models.UsageData) {
	if rec == nil || usage == nil {
		return
	}
	if err := rec.RecordUsage(ctx, op, usage); err != nil {
		logger.Warn("[LLM] usage tracking failed: %v", err)
	}
}

func isParseError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
