package ports

import (
	"context"

	"vizgo/domain/chart"
	"vizgo/domain/core"
	"vizgo/domain/run"
)

// ChartRepository persists visualization runs and the charts they produced.
type ChartRepository interface {
	SaveRun(ctx context.Context, r *run.Run, charts []chart.Chart) error
	GetRun(ctx context.Context, id core.RunID) (*run.Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*run.Run, error)
	ListCharts(ctx context.Context, id core.RunID) ([]chart.Chart, error)
	GetChart(ctx context.Context, id core.ChartID) (*chart.Chart, error)
}
