// Package heuristic proposes goals and plotting programs from column types
// alone. It backs the LLM adapters when no API key is configured and serves
// as their fallback.
package heuristic

import (
	"context"
	"fmt"
	"sort"

	"vizgo/domain/core"
	"vizgo/domain/dataset"
	"vizgo/domain/goal"
)

// chartKind is the chart shape a goal asks for
type chartKind string

const (
	kindHistogram chartKind = "histogram"
	kindBar       chartKind = "bar"
	kindCount     chartKind = "count"
	kindLine      chartKind = "line"
	kindScatter   chartKind = "scatter"
)

// maxCategories bounds the categories a bar or count chart is built over
const maxCategories = 30

// Generator creates goals and programs using algorithmic rules over a profile
type Generator struct{}

// NewGenerator creates a new heuristic generator
func NewGenerator() *Generator {
	return &Generator{}
}

// scoredGoal holds a goal candidate and its score for sorting
type scoredGoal struct {
	goal  goal.Goal
	score float64
}

// GenerateGoals returns the n highest scoring goals, or a goal count error
// when the profile cannot support n distinct goals
func (g *Generator) GenerateGoals(ctx context.Context, profile *dataset.Profile, n int) ([]goal.Goal, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: goal count must be positive, got %d", core.ErrValidation, n)
	}
	if profile == nil {
		return nil, core.ErrNoDataset
	}

	candidates := g.candidates(profile)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) < n {
		return nil, core.NewGoalCountError(n, len(candidates))
	}

	goals := make([]goal.Goal, n)
	for i := range goals {
		goals[i] = candidates[i].goal
		goals[i].Rank = candidates[i].score
	}
	return goal.Reindex(goals), nil
}

// candidates enumerates one goal per applicable column or column pair
func (g *Generator) candidates(profile *dataset.Profile) []scoredGoal {
	var out []scoredGoal

	numbers := profile.FieldsOfType(dataset.DTypeNumber)
	dates := profile.FieldsOfType(dataset.DTypeDate)
	categories := g.usableCategories(profile)

	for _, d := range dates {
		for _, y := range numbers {
			out = append(out, scoredGoal{goal.Goal{
				Question:      fmt.Sprintf("How does %s change over time?", y),
				Visualization: fmt.Sprintf("Line chart of %s over %s", y, d),
				Reasoning:     fmt.Sprintf("A time axis from %s shows trend and seasonality in %s.", d, y),
				Statistic:     fmt.Sprintf("Mean of %s", y),
			}, 0.9 - g.missingPenalty(profile, y)})
		}
	}

	for _, c := range categories {
		for _, y := range numbers {
			out = append(out, scoredGoal{goal.Goal{
				Question:      fmt.Sprintf("How does the average %s differ across %s?", y, c),
				Visualization: fmt.Sprintf("Bar chart of mean %s by %s", y, c),
				Reasoning:     fmt.Sprintf("Comparing %s between %s groups highlights which groups stand out.", y, c),
				Statistic:     fmt.Sprintf("Mean of %s per %s", y, c),
			}, 0.8 - g.missingPenalty(profile, y)})
		}
	}

	for _, y := range numbers {
		out = append(out, scoredGoal{goal.Goal{
			Question:      fmt.Sprintf("What is the distribution of %s?", y),
			Visualization: fmt.Sprintf("Histogram of %s", y),
			Reasoning:     fmt.Sprintf("The shape of %s shows its spread, skew and outliers.", y),
			Statistic:     fmt.Sprintf("Median of %s", y),
		}, 0.7 - g.missingPenalty(profile, y)})
	}

	for i := 0; i < len(numbers); i++ {
		for j := i + 1; j < len(numbers); j++ {
			x, y := numbers[i], numbers[j]
			out = append(out, scoredGoal{goal.Goal{
				Question:      fmt.Sprintf("What is the relationship between %s and %s?", x, y),
				Visualization: fmt.Sprintf("Scatter plot of %s against %s", y, x),
				Reasoning:     fmt.Sprintf("Plotting %s against %s reveals correlation and clusters.", y, x),
				Statistic:     fmt.Sprintf("Correlation of %s and %s", x, y),
			}, 0.6})
		}
	}

	for _, c := range categories {
		out = append(out, scoredGoal{goal.Goal{
			Question:      fmt.Sprintf("How many records fall in each %s?", c),
			Visualization: fmt.Sprintf("Bar chart of counts by %s", c),
			Reasoning:     fmt.Sprintf("Counts per %s show how balanced the dataset is.", c),
			Statistic:     fmt.Sprintf("Count per %s", c),
		}, 0.5})
	}

	return out
}

// usableCategories returns category and boolean columns with few enough values to plot
func (g *Generator) usableCategories(profile *dataset.Profile) []string {
	var out []string
	for _, f := range profile.Fields {
		switch f.Properties.DType {
		case dataset.DTypeCategory, dataset.DTypeBoolean:
			if f.Properties.UniqueCount <= maxCategories {
				out = append(out, f.Column)
			}
		}
	}
	return out
}

func (g *Generator) missingPenalty(profile *dataset.Profile, column string) float64 {
	f, ok := profile.Field(column)
	if !ok || profile.RowCount == 0 {
		return 0
	}
	return 0.3 * float64(f.Properties.MissingCount) / float64(profile.RowCount)
}
