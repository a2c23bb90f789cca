package container

import (
	"context"
	"fmt"
	"log"

	"vizgo/adapters/excel"
	"vizgo/adapters/llm"
	"vizgo/adapters/llm/heuristic"
	"vizgo/adapters/remote"
	"vizgo/adapters/runtime/python"
	"vizgo/adapters/store"
	"vizgo/app"
	"vizgo/internal"
	"vizgo/internal/config"
	"vizgo/internal/executor"
	"vizgo/internal/profiling"
	"vizgo/internal/usage"
	"vizgo/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer), nil without DATABASE_URL
	ChartRepo ports.ChartRepository
	UsageRepo ports.LLMUsageRepository
	Usage     *usage.Service

	// Pipeline components
	Reader   ports.DatasetReaderPort
	Runtime  *python.Runtime
	Executor *executor.Executor
	Profiler ports.ProfilerPort
	GoalGen  ports.GoalGeneratorPort
	CodeGen  ports.CodeGeneratorPort

	Orchestrator *app.Orchestrator
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewDefaultLogger(),
	}

	if cfg.Database.Enabled() {
		if err := c.initDatabase(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	if err := c.initExecution(); err != nil {
		return nil, fmt.Errorf("failed to initialize executor: %w", err)
	}

	if err := c.initGenerators(); err != nil {
		return nil, fmt.Errorf("failed to initialize generators: %w", err)
	}

	c.Orchestrator = app.NewOrchestrator(app.Dependencies{
		Reader:     c.Reader,
		Profiler:   c.Profiler,
		Goals:      c.GoalGen,
		Coder:      c.CodeGen,
		Executor:   c.Executor,
		Charts:     c.ChartRepo,
		Logger:     c.Logger,
		Candidates: cfg.AI.Candidates,
	})

	log.Printf("Container initialized (generator=%s, store=%t)", cfg.AI.Mode, c.DB != nil)
	return c, nil
}

// initDatabase opens the chart store and the usage tracker on top of it
func (c *Container) initDatabase(ctx context.Context) error {
	db, err := store.Open(ctx, c.Config.Database.URL)
	if err != nil {
		return err
	}
	c.DB = db
	c.ChartRepo = store.NewChartRepository(db)
	c.UsageRepo = store.NewLLMUsageRepository(db)
	c.Usage = usage.NewService(c.UsageRepo)
	return nil
}

// initExecution builds the dataset reader, runtime and executor
func (c *Container) initExecution() error {
	c.Reader = remote.NewReader(excel.NewDataReader(c.Config.Data.MaxRows, c.Logger), remote.Config{
		Timeout:     c.Config.Data.HTTPTimeout,
		BearerToken: c.Config.Data.HTTPToken,
		DataPath:    c.Config.Data.JSONPath,
		Logger:      c.Logger,
	})

	allow := executor.DefaultAllowList()
	if path := c.Config.Executor.AllowListPath; path != "" {
		loaded, err := executor.LoadAllowList(path)
		if err != nil {
			return err
		}
		allow = loaded
	}

	c.Runtime = python.New(python.Config{
		PythonBin:     c.Config.Executor.PythonBin,
		MemoryLimitMB: c.Config.Executor.MemoryLimitMB,
	}, c.Logger)

	c.Executor = executor.New(c.Runtime, executor.Config{
		Workers:          c.Config.Executor.Workers,
		CandidateTimeout: c.Config.Executor.CandidateTimeout,
		AllowList:        allow,
	}, c.Logger)
	return nil
}

// initGenerators selects LLM or heuristic goal/code generation
func (c *Container) initGenerators() error {
	fallback := heuristic.NewGenerator()

	if c.Config.AI.Mode != config.ModeLLM {
		c.Profiler = profiling.NewDataProfiler(nil, c.Logger)
		c.GoalGen = fallback
		c.CodeGen = fallback
		log.Printf("Heuristic generators initialized (no LLM)")
		return nil
	}

	var recorder ports.UsageRecorder
	if c.Usage != nil {
		recorder = c.Usage
	}

	llmConfig := llm.ConfigFromAI(&c.Config.AI.AIConfig, c.Config.AI.Fallback)
	llmConfig.Logger = c.Logger

	enricher, err := llm.NewEnricherAdapter(llmConfig, recorder)
	if err != nil {
		return err
	}
	c.Profiler = profiling.NewDataProfiler(enricher, c.Logger)

	var goalFallback ports.GoalGeneratorPort
	var codeFallback ports.CodeGeneratorPort
	if c.Config.AI.Fallback {
		goalFallback = fallback
		codeFallback = fallback
	}

	goals, err := llm.NewGoalGeneratorAdapter(llmConfig, recorder, goalFallback)
	if err != nil {
		return err
	}
	code, err := llm.NewCodeGeneratorAdapter(llmConfig, recorder, codeFallback)
	if err != nil {
		return err
	}
	c.GoalGen = goals
	c.CodeGen = code

	log.Printf("LLM generators initialized (model=%s, fallback=%t)", llmConfig.Model, c.Config.AI.Fallback)
	return nil
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Usage != nil {
		done := make(chan struct{})
		go func() {
			c.Usage.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			log.Printf("Shutdown: pending usage records dropped: %v", ctx.Err())
		}
	}

	// Close database connection
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
