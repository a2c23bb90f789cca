package ports

import (
	"context"

	"vizgo/domain/chart"
	"vizgo/domain/dataset"
	"vizgo/domain/goal"
)

// GoalGeneratorPort proposes analytical goals for a profiled dataset.
// A conforming implementation returns exactly n goals or a validation error.
type GoalGeneratorPort interface {
	GenerateGoals(ctx context.Context, profile *dataset.Profile, n int) ([]goal.Goal, error)
}

// CodeRequest carries everything a code generator needs to write candidate programs.
type CodeRequest struct {
	Profile      *dataset.Profile `json:"profile"`
	Goal         goal.Goal        `json:"goal"`
	Library      chart.Library    `json:"library"`
	Template     string           `json:"template"`
	Instructions string           `json:"instructions"`
	Count        int              `json:"count"` // requested number of candidates, at least one
}

// CodeGeneratorPort writes plotting programs for a goal. Each returned source is
// expected, not guaranteed, to bind chart.ResultVariable.
type CodeGeneratorPort interface {
	GenerateCode(ctx context.Context, req CodeRequest) ([]string, error)
}
