// Package app coordinates the visualization pipeline: load and profile a
// dataset, explore goals, then generate and execute plotting code for a goal.
package app

import (
	"context"
	"fmt"
	"sync"

	"vizgo/domain/chart"
	"vizgo/domain/core"
	"vizgo/domain/dataset"
	"vizgo/domain/goal"
	"vizgo/domain/run"
	"vizgo/internal"
	"vizgo/internal/scaffold"
	"vizgo/internal/usage"
	"vizgo/ports"
)

// ChartExecutor runs tagged candidates against a dataset.
type ChartExecutor interface {
	ExecuteCandidates(ctx context.Context, candidates []chart.Candidate, data *dataset.Frame, captureErrors bool) ([]chart.Chart, error)
}

// Dependencies wires an Orchestrator. Reader, Charts and Observer are optional.
type Dependencies struct {
	Reader     ports.DatasetReaderPort
	Profiler   ports.ProfilerPort
	Goals      ports.GoalGeneratorPort
	Coder      ports.CodeGeneratorPort
	Executor   ChartExecutor
	Charts     ports.ChartRepository
	Observer   ports.RunObserver
	Logger     *internal.Logger
	Candidates int // code candidates requested per visualize call
}

// Orchestrator holds exactly one current dataset and runs the pipeline stages over it.
type Orchestrator struct {
	reader     ports.DatasetReaderPort
	profiler   ports.ProfilerPort
	goals      ports.GoalGeneratorPort
	coder      ports.CodeGeneratorPort
	executor   ChartExecutor
	charts     ports.ChartRepository
	observer   ports.RunObserver
	logger     *internal.Logger
	candidates int

	mu      sync.RWMutex
	current *dataset.Frame
}

// NewOrchestrator creates an orchestrator from its collaborators.
func NewOrchestrator(deps Dependencies) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = internal.DefaultLogger
	}
	if deps.Candidates < 1 {
		deps.Candidates = 1
	}
	return &Orchestrator{
		reader:     deps.Reader,
		profiler:   deps.Profiler,
		goals:      deps.Goals,
		coder:      deps.Coder,
		executor:   deps.Executor,
		charts:     deps.Charts,
		observer:   deps.Observer,
		logger:     deps.Logger,
		candidates: deps.Candidates,
	}
}

// SetObserver replaces the run observer. Call before serving requests.
func (o *Orchestrator) SetObserver(observer ports.RunObserver) {
	o.observer = observer
}

// CurrentDataset returns the dataset the last Summarize call loaded, or nil.
func (o *Orchestrator) CurrentDataset() *dataset.Frame {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current
}

// Summarize profiles frame and makes it the current dataset. A failed
// profile leaves the previous dataset current.
func (o *Orchestrator) Summarize(ctx context.Context, frame *dataset.Frame, opts ports.ProfileOptions) (*dataset.Profile, error) {
	if frame == nil {
		return nil, core.ErrNoDataset
	}

	o.logger.Info("[Orchestrator] Summarizing dataset %q (%d rows, %d columns)", frame.Name, frame.Len(), len(frame.Columns))
	profile, err := o.profiler.Profile(ctx, frame, opts)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", frame.Name, err)
	}

	o.mu.Lock()
	o.current = frame
	o.mu.Unlock()
	return profile, nil
}

// SummarizePath reads the dataset at path, then summarizes it.
func (o *Orchestrator) SummarizePath(ctx context.Context, path string, opts ports.ProfileOptions) (*dataset.Profile, error) {
	if o.reader == nil {
		return nil, fmt.Errorf("%w: no dataset reader configured", core.ErrConfiguration)
	}
	frame, err := o.reader.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return o.Summarize(ctx, frame, opts)
}

// ExploreGoals asks the goal generator for exactly n goals.
func (o *Orchestrator) ExploreGoals(ctx context.Context, profile *dataset.Profile, n int) ([]goal.Goal, error) {
	if profile == nil {
		return nil, core.ErrNoDataset
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: goal count must be positive, got %d", core.ErrValidation, n)
	}
	goals, err := o.goals.GenerateGoals(ctx, profile, n)
	if err != nil {
		return nil, err
	}
	if len(goals) != n {
		return nil, core.NewGoalCountError(n, len(goals))
	}
	return goals, nil
}

// Visualize generates candidate programs for g in library and executes them
// against the current dataset. With debug set, failed candidates come back as
// diagnostic charts instead of being dropped.
func (o *Orchestrator) Visualize(ctx context.Context, profile *dataset.Profile, g goal.Goal, library string, debug bool) ([]chart.Chart, error) {
	_, charts, err := o.VisualizeRun(ctx, profile, g, library, debug)
	return charts, err
}

// VisualizeText is Visualize for a free-text goal.
func (o *Orchestrator) VisualizeText(ctx context.Context, profile *dataset.Profile, text, library string, debug bool) ([]chart.Chart, error) {
	return o.Visualize(ctx, profile, goal.FromText(text), library, debug)
}

// VisualizeRun is Visualize that also returns the run record. The run is
// persisted when a chart store is configured; a store failure is logged and
// does not fail the request.
func (o *Orchestrator) VisualizeRun(ctx context.Context, profile *dataset.Profile, g goal.Goal, library string, debug bool) (*run.Run, []chart.Chart, error) {
	lib, err := chart.ParseLibrary(library)
	if err != nil {
		return nil, nil, err
	}
	template, instructions, err := scaffold.GetTemplate(lib.String())
	if err != nil {
		return nil, nil, err
	}
	if profile == nil {
		return nil, nil, core.ErrNoDataset
	}
	data := o.CurrentDataset()
	if data == nil {
		return nil, nil, core.ErrNoDataset
	}

	r := run.New(profile.Name, g.Question, g.Visualization, lib, debug)
	ctx = usage.WithRunID(ctx, r.ID.String())
	o.logger.Info("[Orchestrator] Run %s: %s chart for %q", r.ID, lib, g.Question)
	o.notify(r)

	sources, err := o.coder.GenerateCode(ctx, ports.CodeRequest{
		Profile:      profile,
		Goal:         g,
		Library:      lib,
		Template:     template,
		Instructions: instructions,
		Count:        o.candidates,
	})
	if err != nil {
		r.Fail(err)
		o.save(ctx, r, nil)
		return r, nil, err
	}

	candidates := chart.NewCandidates(sources, lib)
	charts, err := o.executor.ExecuteCandidates(ctx, candidates, data, debug)
	if err != nil {
		r.Fail(err)
		o.save(ctx, r, nil)
		return r, nil, err
	}

	r.Complete(candidates, charts)
	o.logger.Info("[Orchestrator] Run %s finished: %d/%d candidate(s) rendered in %v", r.ID, r.SuccessCount, r.CandidateCount, r.Duration())
	o.save(ctx, r, charts)
	return r, charts, nil
}

func (o *Orchestrator) notify(r *run.Run) {
	if o.observer != nil {
		snapshot := *r
		o.observer.ObserveRun(&snapshot)
	}
}

// save persists a finished run and notifies the observer.
func (o *Orchestrator) save(ctx context.Context, r *run.Run, charts []chart.Chart) {
	defer o.notify(r)
	if o.charts == nil {
		return
	}
	if err := o.charts.SaveRun(context.WithoutCancel(ctx), r, charts); err != nil {
		o.logger.Warn("[Orchestrator] Failed to store run %s: %v", r.ID, err)
	}
}
