package llm

import (
	"context"
	"fmt"
	"strings"

	"vizgo/ai"
	"vizgo/domain/core"
	"vizgo/domain/dataset"
	"vizgo/internal"
	"vizgo/models"
	"vizgo/ports"
)

// EnricherAdapter adds descriptions and semantic types to a profile
type EnricherAdapter struct {
	StructuredClient *ai.StructuredClient[models.EnrichmentResponse]
	usage            ports.UsageRecorder
	logger           *internal.Logger
}

// NewEnricherAdapter creates a new profile enricher
func NewEnricherAdapter(config Config, usage ports.UsageRecorder) (*EnricherAdapter, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: missing OpenAI API key", core.ErrConfiguration)
	}
	return &EnricherAdapter{
		StructuredClient: ai.NewStructuredClient[models.EnrichmentResponse](config.aiConfig(), config.PromptsDir),
		usage:            usage,
		logger:           config.logger(),
	}, nil
}

// Enrich returns a copy of profile annotated by the model. Columns the model
// does not mention keep their original properties.
func (e *EnricherAdapter) Enrich(ctx context.Context, profile *dataset.Profile) (*dataset.Profile, error) {
	if profile == nil {
		return nil, core.ErrNoDataset
	}
	profileJSON, err := ProfileJSON(profile)
	if err != nil {
		return nil, err
	}

	resp, usage, err := e.StructuredClient.GetJsonResponseFromPrompt(ctx, ai.PromptProfileEnrichment, map[string]string{
		"DATASET_NAME": profile.Name,
		"PROFILE_JSON": profileJSON,
	})
	recordUsage(ctx, e.logger, e.usage, models.OpProfileEnrichment, usage)
	if err != nil {
		if isParseError(err) {
			return nil, fmt.Errorf("%w: %v", core.ErrMalformedReply, err)
		}
		return nil, fmt.Errorf("profile enrichment: %w", err)
	}

	return ApplyEnrichment(profile, resp), nil
}

// ApplyEnrichment merges an enrichment response into a copy of profile
func ApplyEnrichment(profile *dataset.Profile, resp *models.EnrichmentResponse) *dataset.Profile {
	out := profile.Clone()
	if resp == nil {
		return out
	}
	out.DatasetDescription = strings.TrimSpace(resp.DatasetDescription)
	byColumn := resp.ByColumn()
	for i, f := range out.Fields {
		en, ok := byColumn[f.Column]
		if !ok {
			continue
		}
		out.Fields[i].Properties.Description = strings.TrimSpace(en.Description)
		out.Fields[i].Properties.SemanticType = strings.ToLower(strings.TrimSpace(en.SemanticType))
	}
	return out
}
