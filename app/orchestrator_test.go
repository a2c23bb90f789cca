package app

import (
	"context"
	"errors"
	"testing"

	"vizgo/domain/chart"
	"vizgo/domain/core"
	"vizgo/domain/dataset"
	"vizgo/domain/goal"
	"vizgo/domain/run"
	"vizgo/internal"
	"vizgo/internal/usage"
	"vizgo/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProfiler struct{ mock.Mock }

func (m *mockProfiler) Profile(ctx context.Context, frame *dataset.Frame, opts ports.ProfileOptions) (*dataset.Profile, error) {
	args := m.Called(ctx, frame, opts)
	p, _ := args.Get(0).(*dataset.Profile)
	return p, args.Error(1)
}

type mockReader struct{ mock.Mock }

func (m *mockReader) Read(ctx context.Context, path string) (*dataset.Frame, error) {
	args := m.Called(ctx, path)
	f, _ := args.Get(0).(*dataset.Frame)
	return f, args.Error(1)
}

type mockGoals struct{ mock.Mock }

func (m *mockGoals) GenerateGoals(ctx context.Context, profile *dataset.Profile, n int) ([]goal.Goal, error) {
	args := m.Called(ctx, profile, n)
	g, _ := args.Get(0).([]goal.Goal)
	return g, args.Error(1)
}

type mockCoder struct {
	mock.Mock
	runIDs []string
}

func (m *mockCoder) GenerateCode(ctx context.Context, req ports.CodeRequest) ([]string, error) {
	if id := usage.RunIDFrom(ctx); id != nil {
		m.runIDs = append(m.runIDs, *id)
	}
	args := m.Called(ctx, req)
	s, _ := args.Get(0).([]string)
	return s, args.Error(1)
}

type mockExecutor struct{ mock.Mock }

func (m *mockExecutor) ExecuteCandidates(ctx context.Context, candidates []chart.Candidate, data *dataset.Frame, captureErrors bool) ([]chart.Chart, error) {
	args := m.Called(ctx, candidates, data, captureErrors)
	c, _ := args.Get(0).([]chart.Chart)
	return c, args.Error(1)
}

type memoryCharts struct {
	runs   map[core.RunID]*run.Run
	charts map[core.RunID][]chart.Chart
	err    error
}

func newMemoryCharts() *memoryCharts {
	return &memoryCharts{runs: map[core.RunID]*run.Run{}, charts: map[core.RunID][]chart.Chart{}}
}

func (m *memoryCharts) SaveRun(ctx context.Context, r *run.Run, charts []chart.Chart) error {
	if m.err != nil {
		return m.err
	}
	m.runs[r.ID] = r
	m.charts[r.ID] = charts
	return nil
}

func (m *memoryCharts) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	return m.runs[id], nil
}

func (m *memoryCharts) ListRuns(ctx context.Context, limit, offset int) ([]*run.Run, error) {
	return nil, nil
}

func (m *memoryCharts) ListCharts(ctx context.Context, id core.RunID) ([]chart.Chart, error) {
	return m.charts[id], nil
}

func (m *memoryCharts) GetChart(ctx context.Context, id core.ChartID) (*chart.Chart, error) {
	return nil, nil
}

type fixture struct {
	profiler *mockProfiler
	reader   *mockReader
	goals    *mockGoals
	coder    *mockCoder
	executor *mockExecutor
	charts   *memoryCharts
	orch     *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		profiler: &mockProfiler{},
		reader:   &mockReader{},
		goals:    &mockGoals{},
		coder:    &mockCoder{},
		executor: &mockExecutor{},
		charts:   newMemoryCharts(),
	}
	f.orch = NewOrchestrator(Dependencies{
		Reader:     f.reader,
		Profiler:   f.profiler,
		Goals:      f.goals,
		Coder:      f.coder,
		Executor:   f.executor,
		Charts:     f.charts,
		Logger:     internal.NewLogger(internal.LogLevelError),
		Candidates: 2,
	})
	return f
}

func carsFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	frame, err := dataset.NewFrame("cars", []string{"mpg", "origin"}, [][]string{
		{"18", "USA"}, {"26", "Japan"}, {"24", "Europe"},
	})
	require.NoError(t, err)
	return frame
}

func carsProfile() *dataset.Profile {
	return &dataset.Profile{
		Name:     "cars",
		RowCount: 3,
		Fields: []dataset.ColumnProfile{
			{Column: "mpg", Properties: dataset.ColumnProperties{DType: dataset.DTypeNumber}},
			{Column: "origin", Properties: dataset.ColumnProperties{DType: dataset.DTypeCategory}},
		},
		FieldNames: []string{"mpg", "origin"},
	}
}

func TestSummarizeReplacesCurrentDataset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := carsFrame(t)
	second, err := dataset.NewFrame("other", []string{"x"}, [][]string{{"1"}})
	require.NoError(t, err)

	opts := ports.ProfileOptions{SampleCount: 3}
	f.profiler.On("Profile", ctx, first, opts).Return(carsProfile(), nil).Once()
	f.profiler.On("Profile", ctx, second, opts).Return(&dataset.Profile{Name: "other"}, nil).Once()

	p, err := f.orch.Summarize(ctx, first, opts)
	require.NoError(t, err)
	assert.Equal(t, "cars", p.Name)
	assert.Same(t, first, f.orch.CurrentDataset())

	_, err = f.orch.Summarize(ctx, second, opts)
	require.NoError(t, err)
	assert.Same(t, second, f.orch.CurrentDataset())
	f.profiler.AssertExpectations(t)
}

func TestSummarizePathReadsThenProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	frame := carsFrame(t)
	opts := ports.ProfileOptions{SampleCount: 2, Enrich: true}

	f.reader.On("Read", ctx, "cars.csv").Return(frame, nil)
	f.profiler.On("Profile", ctx, frame, opts).Return(carsProfile(), nil)

	_, err := f.orch.SummarizePath(ctx, "cars.csv", opts)
	require.NoError(t, err)
	assert.Same(t, frame, f.orch.CurrentDataset())

	f.reader.On("Read", ctx, "cars.xls").Return(nil, core.ErrUnsupportedInput)
	_, err = f.orch.SummarizePath(ctx, "cars.xls", opts)
	assert.ErrorIs(t, err, core.ErrUnsupportedInput)
	assert.Same(t, frame, f.orch.CurrentDataset(), "failed read keeps the previous dataset")
}

func TestSummarizeProfileFailureKeepsPreviousDataset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := carsFrame(t)
	broken, err := dataset.NewFrame("broken", []string{"x"}, [][]string{{"1"}})
	require.NoError(t, err)
	opts := ports.ProfileOptions{}

	f.profiler.On("Profile", ctx, first, opts).Return(carsProfile(), nil)
	f.profiler.On("Profile", ctx, broken, opts).Return(nil, core.ErrEmptyDataset)

	_, err = f.orch.Summarize(ctx, first, opts)
	require.NoError(t, err)

	_, err = f.orch.Summarize(ctx, broken, opts)
	assert.ErrorIs(t, err, core.ErrEmptyDataset)
	assert.Same(t, first, f.orch.CurrentDataset())
}

func TestSummarizeWithoutFrame(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.Summarize(context.Background(), nil, ports.ProfileOptions{})
	assert.ErrorIs(t, err, core.ErrNoDataset)
}

func TestExploreGoalsExactCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile := carsProfile()
	goals := []goal.Goal{goal.FromText("a"), goal.FromText("b")}

	f.goals.On("GenerateGoals", ctx, profile, 2).Return(goals, nil)
	got, err := f.orch.ExploreGoals(ctx, profile, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	f.goals.On("GenerateGoals", ctx, profile, 3).Return(goals, nil)
	_, err = f.orch.ExploreGoals(ctx, profile, 3)
	assert.ErrorIs(t, err, core.ErrGoalCount)
	assert.True(t, core.IsValidationError(err))

	_, err = f.orch.ExploreGoals(ctx, profile, 0)
	assert.True(t, core.IsValidationError(err))
}

func TestVisualizeRunsGeneratedCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	frame := carsFrame(t)
	profile := carsProfile()
	f.profiler.On("Profile", ctx, frame, mock.Anything).Return(profile, nil)
	_, err := f.orch.Summarize(ctx, frame, ports.ProfileOptions{})
	require.NoError(t, err)

	sources := []string{"chart = 1", "chart = 2"}
	f.coder.On("GenerateCode", mock.Anything, mock.MatchedBy(func(req ports.CodeRequest) bool {
		return req.Library == chart.LibraryAltair && req.Count == 2 &&
			req.Goal.Question == "mpg by origin" && req.Template != "" && req.Instructions != ""
	})).Return(sources, nil)

	candidates := chart.NewCandidates(sources, chart.LibraryAltair)
	want := []chart.Chart{
		chart.NewSpecChart(candidates[0], map[string]any{"mark": "bar"}),
		chart.NewFailedChart(candidates[1], "boom", "Traceback"),
	}
	f.executor.On("ExecuteCandidates", mock.Anything, candidates, frame, true).Return(want, nil)

	r, charts, err := f.orch.VisualizeRun(ctx, profile, goal.FromText("mpg by origin"), "altair", true)
	require.NoError(t, err)
	assert.Equal(t, want, charts)
	assert.Equal(t, run.StatusCompleted, r.Status)
	assert.Equal(t, 2, r.CandidateCount)
	assert.Equal(t, 1, r.SuccessCount)
	assert.False(t, r.Fingerprint.IsEmpty())

	require.Len(t, f.coder.runIDs, 1)
	assert.Equal(t, r.ID.String(), f.coder.runIDs[0], "LLM usage is attributed to the run")
	assert.Equal(t, want, f.charts.charts[r.ID])
}

func TestVisualizeTextUsesDegenerateGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	frame := carsFrame(t)
	f.profiler.On("Profile", ctx, frame, mock.Anything).Return(carsProfile(), nil)
	_, err := f.orch.Summarize(ctx, frame, ports.ProfileOptions{})
	require.NoError(t, err)

	f.coder.On("GenerateCode", mock.Anything, mock.MatchedBy(func(req ports.CodeRequest) bool {
		return req.Goal.Question == "histogram of mpg" && req.Goal.Visualization == "histogram of mpg"
	})).Return([]string{"chart = 1"}, nil)
	f.executor.On("ExecuteCandidates", mock.Anything, mock.Anything, frame, false).Return([]chart.Chart{}, nil)

	charts, err := f.orch.VisualizeText(ctx, carsProfile(), "histogram of mpg", "matplotlib", false)
	require.NoError(t, err)
	assert.Empty(t, charts)
	f.coder.AssertExpectations(t)
}

func TestVisualizeRejectsUnknownLibraryFirst(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.Visualize(context.Background(), nil, goal.FromText("x"), "bokeh", false)
	assert.ErrorIs(t, err, core.ErrUnsupportedLibrary)
	f.coder.AssertNotCalled(t, "GenerateCode", mock.Anything, mock.Anything)
}

func TestVisualizeWithoutDataset(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.Visualize(context.Background(), carsProfile(), goal.FromText("x"), "plotly", false)
	assert.ErrorIs(t, err, core.ErrNoDataset)
}

func TestVisualizeRecordsFailedRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	frame := carsFrame(t)
	f.profiler.On("Profile", ctx, frame, mock.Anything).Return(carsProfile(), nil)
	_, err := f.orch.Summarize(ctx, frame, ports.ProfileOptions{})
	require.NoError(t, err)

	f.coder.On("GenerateCode", mock.Anything, mock.Anything).Return(nil, core.ErrMalformedReply)

	r, _, err := f.orch.VisualizeRun(ctx, carsProfile(), goal.FromText("x"), "ggplot", false)
	assert.ErrorIs(t, err, core.ErrMalformedReply)
	require.NotNil(t, r)
	assert.Equal(t, run.StatusFailed, r.Status)
	assert.Contains(t, f.charts.runs, r.ID)
	f.executor.AssertNotCalled(t, "ExecuteCandidates", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVisualizeStoreFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	frame := carsFrame(t)
	f.charts.err = errors.New("disk full")
	f.profiler.On("Profile", ctx, frame, mock.Anything).Return(carsProfile(), nil)
	_, err := f.orch.Summarize(ctx, frame, ports.ProfileOptions{})
	require.NoError(t, err)

	f.coder.On("GenerateCode", mock.Anything, mock.Anything).Return([]string{"chart = 1"}, nil)
	f.executor.On("ExecuteCandidates", mock.Anything, mock.Anything, frame, false).Return([]chart.Chart{}, nil)

	_, err = f.orch.Visualize(ctx, carsProfile(), goal.FromText("x"), "seaborn", false)
	assert.NoError(t, err)
}

type recordingObserver struct{ statuses []run.Status }

func (r *recordingObserver) ObserveRun(rn *run.Run) { r.statuses = append(r.statuses, rn.Status) }

func TestVisualizeNotifiesObserver(t *testing.T) {
	f := newFixture(t)
	obs := &recordingObserver{}
	f.orch.observer = obs
	ctx := context.Background()
	frame := carsFrame(t)
	f.profiler.On("Profile", ctx, frame, mock.Anything).Return(carsProfile(), nil)
	_, err := f.orch.Summarize(ctx, frame, ports.ProfileOptions{})
	require.NoError(t, err)

	f.coder.On("GenerateCode", mock.Anything, mock.Anything).Return([]string{"chart = 1"}, nil)
	f.executor.On("ExecuteCandidates", mock.Anything, mock.Anything, frame, true).Return([]chart.Chart{}, nil)

	_, err = f.orch.Visualize(ctx, carsProfile(), goal.FromText("x"), "plotly", true)
	require.NoError(t, err)
	assert.Equal(t, []run.Status{run.StatusRunning, run.StatusCompleted}, obs.statuses)
}
