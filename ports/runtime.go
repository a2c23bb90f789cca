package ports

import (
	"context"
	"time"

	"vizgo/domain/dataset"
)

// Directive tells the runtime how to turn the bound result into output.
type Directive string

const (
	DirectiveSpec       Directive = "spec"       // structural dict of a declarative chart
	DirectiveMatplotlib Directive = "matplotlib" // savefig into a PNG buffer, then close the figure
	DirectiveGGPlot     Directive = "ggplot"     // the object's own save-to-buffer
	DirectivePlotly     Directive = "plotly"     // static image export
)

// Binding makes one name visible to a candidate program: the module itself
// when Attr is empty, otherwise module.Attr. Attr "*" binds every public name.
// Root binds the top-level package after importing Module, as a plain
// "import a.b" does.
type Binding struct {
	Name   string `json:"name"`
	Module string `json:"module"`
	Attr   string `json:"attr,omitempty"`
	Root   bool   `json:"root,omitempty"`
}

// Program is one candidate prepared for execution.
type Program struct {
	Source    string        `json:"source"`
	Bindings  []Binding     `json:"bindings"`
	DataVar   string        `json:"data_var"` // name the staged dataset is bound to
	Directive Directive     `json:"directive"`
	ResultVar string        `json:"result_var"`
	Timeout   time.Duration `json:"-"`
}

// RunError is an exception raised inside the program.
type RunError struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Traceback string `json:"traceback"`
}

// RunResult is what came back from one program. Exactly one of Spec, PNG or
// Err is set on a well-formed result.
type RunResult struct {
	Spec     []byte        `json:"spec,omitempty"` // JSON object
	PNG      []byte        `json:"png,omitempty"`
	Err      *RunError     `json:"error,omitempty"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Duration time.Duration `json:"duration"`
}

// RuntimeSession runs programs against one staged dataset. Close releases
// everything Stage acquired and must be called on every path.
type RuntimeSession interface {
	Run(ctx context.Context, prog Program) (*RunResult, error)
	Close() error
}

// RuntimePort stages a dataset for program execution.
type RuntimePort interface {
	Stage(ctx context.Context, frame *dataset.Frame) (RuntimeSession, error)
}
