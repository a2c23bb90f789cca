// Package python runs candidate programs in a separate CPython process per
// candidate. Each run gets its own scratch directory under the session's
// workspace; the dataset is staged once per session as CSV.
package python

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"vizgo/domain/core"
	"vizgo/domain/dataset"
	"vizgo/internal"
	"vizgo/ports"

	"github.com/tidwall/gjson"
)

//go:embed harness.py
var harnessSource []byte

const (
	harnessFile = "harness.py"
	dataFile    = "data.csv"
	requestFile = "request.json"
	resultFile  = "result.json"

	// stderr kept in results and error messages
	maxCapture = 64 << 10
)

// Config controls how the interpreter is launched.
type Config struct {
	PythonBin     string        // interpreter, default "python3"
	WorkDir       string        // parent of session workspaces, default os.TempDir()
	MemoryLimitMB int           // address-space cap per candidate, 0 for none
	KillGrace     time.Duration // wait after cancellation before the process is killed
	Env           []string      // extra KEY=VALUE entries
}

// Runtime implements ports.RuntimePort on top of os/exec.
type Runtime struct {
	cfg    Config
	logger *internal.Logger
}

// New creates a python runtime.
func New(cfg Config, logger *internal.Logger) *Runtime {
	if cfg.PythonBin == "" {
		cfg.PythonBin = "python3"
	}
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = 2 * time.Second
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Runtime{cfg: cfg, logger: logger}
}

// Probe checks the interpreter starts and can import modules.
func (r *Runtime) Probe(ctx context.Context, modules ...string) error {
	bin, err := exec.LookPath(r.cfg.PythonBin)
	if err != nil {
		return fmt.Errorf("%w: python interpreter %q not found: %v", core.ErrRuntimeFailure, r.cfg.PythonBin, err)
	}
	script := "import sys"
	for _, m := range modules {
		script += "; import " + m
	}
	out, err := exec.CommandContext(ctx, bin, "-c", script).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: probe %s: %v: %s", core.ErrRuntimeFailure, strings.Join(modules, ","), err, tail(out))
	}
	return nil
}

// Stage writes the harness and the dataset into a fresh workspace.
func (r *Runtime) Stage(ctx context.Context, frame *dataset.Frame) (ports.RuntimeSession, error) {
	if frame == nil {
		return nil, core.ErrNoDataset
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(r.cfg.WorkDir, "vizgo-session-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	s := &session{rt: r, dir: dir}

	if err := os.WriteFile(filepath.Join(dir, harnessFile), harnessSource, 0o600); err != nil {
		s.Close()
		return nil, fmt.Errorf("write harness: %w", err)
	}
	if err := writeCSV(filepath.Join(dir, dataFile), frame); err != nil {
		s.Close()
		return nil, fmt.Errorf("stage dataset: %w", err)
	}

	r.logger.Debug("[PythonRuntime] Staged %q (%d rows) in %s", frame.Name, frame.Len(), dir)
	return s, nil
}

func writeCSV(path string, frame *dataset.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(frame.Columns); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(frame.Rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type session struct {
	rt  *Runtime
	dir string
}

type request struct {
	Source        string          `json:"source"`
	Bindings      []ports.Binding `json:"bindings"`
	DataPath      string          `json:"data_path"`
	DataVar       string          `json:"data_var"`
	Directive     ports.Directive `json:"directive"`
	ResultVar     string          `json:"result_var"`
	MemoryLimitMB int             `json:"memory_limit_mb"`
}

// Run executes one program in its own interpreter process.
func (s *session) Run(ctx context.Context, prog ports.Program) (*ports.RunResult, error) {
	if _, ok := ctx.Deadline(); !ok && prog.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, prog.Timeout)
		defer cancel()
	}

	runDir, err := os.MkdirTemp(s.dir, "candidate-*")
	if err != nil {
		return nil, fmt.Errorf("create candidate dir: %w", err)
	}
	defer os.RemoveAll(runDir)

	req := request{
		Source:        prog.Source,
		Bindings:      prog.Bindings,
		DataPath:      filepath.Join(s.dir, dataFile),
		DataVar:       prog.DataVar,
		Directive:     prog.Directive,
		ResultVar:     prog.ResultVar,
		MemoryLimitMB: s.rt.cfg.MemoryLimitMB,
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	reqPath := filepath.Join(runDir, requestFile)
	if err := os.WriteFile(reqPath, raw, 0o600); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.rt.cfg.PythonBin, filepath.Join(s.dir, harnessFile), reqPath)
	cmd.Dir = runDir
	cmd.Env = append(os.Environ(), "MPLBACKEND=Agg", "PYTHONDONTWRITEBYTECODE=1")
	cmd.Env = append(cmd.Env, s.rt.cfg.Env...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = s.rt.cfg.KillGrace

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	result, err := os.ReadFile(filepath.Join(runDir, resultFile))
	if err != nil {
		if runErr != nil {
			return nil, fmt.Errorf("%w: interpreter exited: %v: %s", core.ErrRuntimeFailure, runErr, tail(stderr.Bytes()))
		}
		return nil, fmt.Errorf("%w: no result written: %v", core.ErrRuntimeFailure, err)
	}

	res, err := parseResult(result)
	if err != nil {
		return nil, err
	}
	res.Stdout = string(tail(stdout.Bytes()))
	res.Stderr = string(tail(stderr.Bytes()))
	res.Duration = elapsed
	return res, nil
}

// parseResult reads the harness's result document.
func parseResult(raw []byte) (*ports.RunResult, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: result is not valid JSON", core.ErrRuntimeFailure)
	}
	doc := gjson.ParseBytes(raw)

	switch doc.Get("status").String() {
	case "error":
		return &ports.RunResult{Err: &ports.RunError{
			Type:      doc.Get("error.type").String(),
			Message:   doc.Get("error.message").String(),
			Traceback: doc.Get("error.traceback").String(),
		}}, nil
	case "ok":
	default:
		return nil, fmt.Errorf("%w: unknown result status %q", core.ErrRuntimeFailure, doc.Get("status").String())
	}

	switch kind := doc.Get("kind").String(); kind {
	case "spec":
		spec := doc.Get("spec")
		if !spec.IsObject() {
			return nil, fmt.Errorf("%w: spec result is not an object", core.ErrExtractionFailure)
		}
		return &ports.RunResult{Spec: []byte(spec.Raw)}, nil
	case "png":
		png, err := os.ReadFile(doc.Get("png_path").String())
		if err != nil {
			return nil, fmt.Errorf("%w: read image: %v", core.ErrExtractionFailure, err)
		}
		return &ports.RunResult{PNG: png}, nil
	default:
		return nil, fmt.Errorf("%w: unknown result kind %q", core.ErrExtractionFailure, kind)
	}
}

// Close removes the workspace.
func (s *session) Close() error {
	if err := os.RemoveAll(s.dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func tail(b []byte) []byte {
	b = bytes.TrimSpace(b)
	if len(b) > maxCapture {
		return b[len(b)-maxCapture:]
	}
	return b
}
