package models

import (
	"fmt"
	"strings"
)

// GoalsResponse - JSON contract of the goal generation prompt
type GoalsResponse struct {
	Goals []GoalResponse `json:"goals" description:"Exactly the requested number of goals"`
}

type GoalResponse struct {
	Index         int     `json:"index" description:"Position of the goal, starting at 0"`
	Question      string  `json:"question" description:"The analytical question the chart answers"`
	Visualization string  `json:"visualization" description:"Chart suggestion naming the exact columns to use"`
	Reasoning     string  `json:"reasoning" description:"Why this chart answers the question and which fields it uses"`
	Statistic     string  `json:"statistic,omitempty" description:"Optional statistic to compute"`
	Rank          float64 `json:"rank,omitempty" description:"Optional importance rank"`
}

// Validate checks the response carries exactly want well-formed goals
func (r *GoalsResponse) Validate(want int) error {
	if len(r.Goals) != want {
		return fmt.Errorf("expected %d goals, got %d", want, len(r.Goals))
	}
	for i, g := range r.Goals {
		if strings.TrimSpace(g.Question) == "" {
			return fmt.Errorf("goal %d missing question", i)
		}
		if strings.TrimSpace(g.Visualization) == "" {
			return fmt.Errorf("goal %d missing visualization", i)
		}
	}
	return nil
}

// EnrichmentResponse - JSON contract of the profile enrichment prompt
type EnrichmentResponse struct {
	DatasetDescription string            `json:"dataset_description" description:"One or two sentence summary of the dataset"`
	Fields             []FieldEnrichment `json:"fields" description:"One entry per column"`
}

type FieldEnrichment struct {
	Column       string `json:"column" description:"Column name exactly as given"`
	Description  string `json:"description" description:"What the column holds"`
	SemanticType string `json:"semantic_type" description:"Single word semantic type such as company, city, year, amount"`
}

// ByColumn indexes field enrichments by column name
func (r *EnrichmentResponse) ByColumn() map[string]FieldEnrichment {
	out := make(map[string]FieldEnrichment, len(r.Fields))
	for _, f := range r.Fields {
		out[f.Column] = f
	}
	return out
}
