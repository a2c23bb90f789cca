package executor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"

	"vizgo/domain/chart"
	"vizgo/domain/core"
	"vizgo/ports"
)

// backend is the per-family half of execution: which directive the runtime
// runs the program under, and how its output becomes a Chart.
type backend interface {
	directive() ports.Directive
	extract(c chart.Candidate, res *ports.RunResult) (chart.Chart, error)
}

// strippedSpecKeys carry row data and never leave the runtime boundary.
var strippedSpecKeys = []string{"data", "datasets"}

func backendFor(lib chart.Library) backend {
	switch lib.Family() {
	case chart.FamilyDeclarative:
		return declarativeBackend{}
	case chart.FamilyMatplotlib:
		return rasterBackend{dir: ports.DirectiveMatplotlib}
	case chart.FamilyGGPlot:
		return rasterBackend{dir: ports.DirectiveGGPlot}
	case chart.FamilyPlotly:
		return rasterBackend{dir: ports.DirectivePlotly}
	}
	return nil
}

type declarativeBackend struct{}

func (declarativeBackend) directive() ports.Directive { return ports.DirectiveSpec }

func (declarativeBackend) extract(c chart.Candidate, res *ports.RunResult) (chart.Chart, error) {
	if len(res.Spec) == 0 {
		return chart.Chart{}, fmt.Errorf("%w: runtime returned no spec", core.ErrExtractionFailure)
	}
	var spec map[string]any
	dec := json.NewDecoder(bytes.NewReader(res.Spec))
	dec.UseNumber()
	if err := dec.Decode(&spec); err != nil {
		return chart.Chart{}, fmt.Errorf("%w: spec is not a JSON object: %v", core.ErrExtractionFailure, err)
	}
	for _, k := range strippedSpecKeys {
		delete(spec, k)
	}
	if len(spec) == 0 {
		return chart.Chart{}, fmt.Errorf("%w: spec is empty once data is removed", core.ErrExtractionFailure)
	}
	return chart.NewSpecChart(c, spec), nil
}

type rasterBackend struct {
	dir ports.Directive
}

func (b rasterBackend) directive() ports.Directive { return b.dir }

func (b rasterBackend) extract(c chart.Candidate, res *ports.RunResult) (chart.Chart, error) {
	if len(res.PNG) == 0 {
		return chart.Chart{}, fmt.Errorf("%w: runtime returned no image", core.ErrExtractionFailure)
	}
	if _, err := png.DecodeConfig(bytes.NewReader(res.PNG)); err != nil {
		return chart.Chart{}, fmt.Errorf("%w: output is not a PNG: %v", core.ErrExtractionFailure, err)
	}
	return chart.NewRasterChart(c, base64.StdEncoding.EncodeToString(res.PNG)), nil
}
