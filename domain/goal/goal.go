package goal

import (
	"fmt"
	"strings"

	"vizgo/domain/core"
)

// Goal is one analytical question about a dataset together with the chart
// that would answer it.
type Goal struct {
	Index         int     `json:"index"`
	Question      string  `json:"question"`
	Visualization string  `json:"visualization"`
	Reasoning     string  `json:"reasoning"`
	Statistic     string  `json:"statistic,omitempty"`
	Rank          float64 `json:"rank,omitempty"`
}

// FromText builds the degenerate goal used when a caller passes a plain
// request instead of a structured goal.
func FromText(text string) Goal {
	text = strings.TrimSpace(text)
	return Goal{Question: text, Visualization: text}
}

// Validate checks the fields every downstream prompt relies on.
func (g Goal) Validate() error {
	if strings.TrimSpace(g.Question) == "" {
		return fmt.Errorf("%w: goal %d has no question", core.ErrValidation, g.Index)
	}
	if strings.TrimSpace(g.Visualization) == "" {
		return fmt.Errorf("%w: goal %d has no visualization", core.ErrValidation, g.Index)
	}
	return nil
}

// Describe renders the goal the way prompts embed it.
func (g Goal) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\nVisualization: %s", g.Question, g.Visualization)
	if g.Reasoning != "" {
		fmt.Fprintf(&b, "\nReasoning: %s", g.Reasoning)
	}
	return b.String()
}

// Reindex assigns sequential indexes in place and returns the slice.
func Reindex(goals []Goal) []Goal {
	for i := range goals {
		goals[i].Index = i
	}
	return goals
}
