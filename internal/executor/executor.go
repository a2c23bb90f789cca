// Package executor runs generated plotting programs and normalizes what they
// produce into charts.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vizgo/domain/chart"
	"vizgo/domain/core"
	"vizgo/domain/dataset"
	"vizgo/internal"
	"vizgo/ports"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers          = 1
	DefaultCandidateTimeout = 60 * time.Second
)

// Config tunes an Executor. Zero values fall back to the defaults.
type Config struct {
	Workers          int
	CandidateTimeout time.Duration
	AllowList        *AllowList
}

// Executor runs candidate programs through a runtime, one outcome per candidate.
type Executor struct {
	runtime ports.RuntimePort
	allow   *AllowList
	workers int
	timeout time.Duration
	logger  *internal.Logger
}

// New creates an executor over runtime.
func New(runtime ports.RuntimePort, cfg Config, logger *internal.Logger) *Executor {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.CandidateTimeout <= 0 {
		cfg.CandidateTimeout = DefaultCandidateTimeout
	}
	if cfg.AllowList == nil {
		cfg.AllowList = DefaultAllowList()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Executor{
		runtime: runtime,
		allow:   cfg.AllowList,
		workers: cfg.Workers,
		timeout: cfg.CandidateTimeout,
		logger:  logger,
	}
}

// Execute runs each source as a program for library against data.
//
// The library is resolved before anything runs; an unknown name is a
// configuration error. A candidate that fails never affects the others. With
// captureErrors a failed candidate yields a diagnostic chart in its input
// position; without it the candidate is dropped, so positions only line up
// with the input when captureErrors is set. Every chart carries the index and
// hash of the candidate it came from.
func (e *Executor) Execute(ctx context.Context, sources []string, data *dataset.Frame, library string, captureErrors bool) ([]chart.Chart, error) {
	lib, err := chart.ParseLibrary(library)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, core.ErrNoDataset
	}
	return e.ExecuteCandidates(ctx, chart.NewCandidates(sources, lib), data, captureErrors)
}

// ExecuteCandidates is Execute over already tagged candidates. All candidates
// must target the same library.
func (e *Executor) ExecuteCandidates(ctx context.Context, candidates []chart.Candidate, data *dataset.Frame, captureErrors bool) ([]chart.Chart, error) {
	if len(candidates) == 0 {
		return []chart.Chart{}, nil
	}
	lib := candidates[0].Library
	if _, err := chart.ParseLibrary(string(lib)); err != nil {
		return nil, err
	}
	for _, c := range candidates[1:] {
		if c.Library != lib {
			return nil, fmt.Errorf("%w: mixed libraries in one batch (%s, %s)", core.ErrConfiguration, lib, c.Library)
		}
	}
	be := backendFor(lib)

	e.logger.Info("[Executor] Running %d candidate(s) for %s with %d worker(s)", len(candidates), lib, e.workers)
	start := time.Now()

	outcomes := make([]outcome, len(candidates))
	session, err := e.runtime.Stage(ctx, data)
	if err != nil {
		e.logger.Error("[Executor] Failed to stage dataset %q: %v", data.Name, err)
		for i, c := range candidates {
			outcomes[i] = failure(c, fmt.Errorf("%w: stage dataset: %v", core.ErrRuntimeFailure, err), "")
		}
		return e.collect(outcomes, captureErrors), nil
	}
	defer func() {
		if err := session.Close(); err != nil {
			e.logger.Warn("[Executor] Failed to release runtime session: %v", err)
		}
	}()

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			outcomes[i] = e.runOne(ctx, session, be, c)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	charts := e.collect(outcomes, captureErrors)
	e.logger.Info("[Executor] %d/%d candidate(s) produced a chart in %v", countOK(outcomes), len(candidates), time.Since(start))
	return charts, nil
}

type outcome struct {
	chart chart.Chart
	err   error
}

func failure(c chart.Candidate, err error, traceback string) outcome {
	if traceback == "" {
		traceback = err.Error()
	}
	return outcome{chart: chart.NewFailedChart(c, err.Error(), traceback), err: err}
}

func (e *Executor) runOne(ctx context.Context, session ports.RuntimeSession, be backend, c chart.Candidate) outcome {
	bindings, err := BuildNamespace(c.Source, c.Library, e.allow)
	if err != nil {
		e.logger.Warn("[Executor] Candidate %d (%s) rejected: %v", c.Index, c.Hash().Short(), err)
		return failure(c, err, "")
	}

	prog := ports.Program{
		Source:    c.Source,
		Bindings:  bindings,
		DataVar:   DataVariable,
		Directive: be.directive(),
		ResultVar: chart.ResultVariable,
		Timeout:   e.timeout,
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := session.Run(runCtx, prog)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %v", core.ErrCandidateTimeout, e.timeout)
		} else if !core.IsExecutionError(err) {
			err = fmt.Errorf("%w: %v", core.ErrRuntimeFailure, err)
		}
		e.logger.Warn("[Executor] Candidate %d (%s) did not finish: %v", c.Index, c.Hash().Short(), err)
		return failure(c, err, "")
	}

	if res.Err != nil {
		e.logger.Warn("[Executor] Candidate %d (%s) raised %s: %s", c.Index, c.Hash().Short(), res.Err.Type, res.Err.Message)
		e.logger.Debug("[Executor] Traceback:\n%s", res.Err.Traceback)
		err := fmt.Errorf("%w: %s: %s", core.ErrCandidateFailed, res.Err.Type, res.Err.Message)
		if res.Err.Type == "NameError" && strings.Contains(res.Err.Message, "'"+prog.ResultVar+"'") {
			err = core.NewResultNotBoundError(prog.ResultVar)
		}
		return outcome{
			chart: chart.NewFailedChart(c, res.Err.Message, res.Err.Traceback),
			err:   err,
		}
	}

	ch, err := be.extract(c, res)
	if err != nil {
		e.logger.Warn("[Executor] Candidate %d (%s) produced unusable output: %v", c.Index, c.Hash().Short(), err)
		return failure(c, err, res.Stderr)
	}
	e.logger.Debug("[Executor] Candidate %d (%s) ok in %v", c.Index, c.Hash().Short(), res.Duration)
	return outcome{chart: ch}
}

// collect keeps input order; failures are kept only when captureErrors is set.
func (e *Executor) collect(outcomes []outcome, captureErrors bool) []chart.Chart {
	charts := make([]chart.Chart, 0, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil && !captureErrors {
			e.logger.Debug("[Executor] Dropping candidate %d: %v", o.chart.CandidateIndex, o.err)
			continue
		}
		charts = append(charts, o.chart)
	}
	return charts
}

func countOK(outcomes []outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.err == nil {
			n++
		}
	}
	return n
}
