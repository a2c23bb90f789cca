package chart

import (
	"encoding/base64"
	"fmt"
	"os"

	"vizgo/domain/core"
)

// Presentation content-type tags produced by Bundle.
const (
	MIMEText     = "text/plain"
	MIMEPNG      = "image/png"
	MIMEVegaLite = "application/vnd.vegalite.v5+json"
)

// Error is the structured diagnostic attached to a failed chart.
type Error struct {
	Message   string `json:"message"`
	Traceback string `json:"traceback"`
}

// Chart is the normalized output of one executed candidate.
//
// A successful chart carries exactly one of Spec (declarative backends) or
// Raster (base64 PNG). A failed chart carries neither, plus Error when the
// batch was run with error capture.
type Chart struct {
	ID             core.ChartID   `json:"id"`
	Spec           map[string]any `json:"spec,omitempty"`
	Raster         string         `json:"raster,omitempty"`
	Status         bool           `json:"status"`
	Code           string         `json:"code"`
	Library        Library        `json:"library"`
	Error          *Error         `json:"error,omitempty"`
	CandidateIndex int            `json:"candidate_index"`
	CandidateHash  core.Hash      `json:"candidate_hash"`
}

// NewSpecChart builds a successful declarative chart.
func NewSpecChart(c Candidate, spec map[string]any) Chart {
	return Chart{
		ID:             core.NewChartID(),
		Spec:           spec,
		Status:         true,
		Code:           c.Source,
		Library:        c.Library,
		CandidateIndex: c.Index,
		CandidateHash:  c.Hash(),
	}
}

// NewRasterChart builds a successful raster chart from already encoded PNG data.
func NewRasterChart(c Candidate, raster string) Chart {
	return Chart{
		ID:             core.NewChartID(),
		Raster:         raster,
		Status:         true,
		Code:           c.Source,
		Library:        c.Library,
		CandidateIndex: c.Index,
		CandidateHash:  c.Hash(),
	}
}

// NewFailedChart builds the diagnostic record for a candidate that did not produce a chart.
func NewFailedChart(c Candidate, message, traceback string) Chart {
	return Chart{
		ID:             core.NewChartID(),
		Status:         false,
		Code:           c.Source,
		Library:        c.Library,
		Error:          &Error{Message: message, Traceback: traceback},
		CandidateIndex: c.Index,
		CandidateHash:  c.Hash(),
	}
}

// HasRaster reports whether the chart carries image data.
func (c *Chart) HasRaster() bool { return c.Raster != "" }

// HasSpec reports whether the chart carries a declarative spec.
func (c *Chart) HasSpec() bool { return len(c.Spec) > 0 }

// RasterBytes decodes the raster payload.
func (c *Chart) RasterBytes() ([]byte, error) {
	if !c.HasRaster() {
		return nil, core.ErrNoRaster
	}
	raw, err := base64.StdEncoding.DecodeString(c.Raster)
	if err != nil {
		return nil, fmt.Errorf("%w: raster is not valid base64: %v", core.ErrResource, err)
	}
	return raw, nil
}

// Save writes the decoded raster to path.
func (c *Chart) Save(path string) error {
	raw, err := c.RasterBytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", core.ErrResource, path, err)
	}
	return nil
}

// Bundle maps content-type tags to representations, for multi-modal consumers.
// Only entries backed by data are present.
func (c *Chart) Bundle() map[string]any {
	bundle := make(map[string]any, 3)
	if c.Code != "" {
		bundle[MIMEText] = c.Code
	}
	if c.HasRaster() {
		if raw, err := c.RasterBytes(); err == nil {
			bundle[MIMEPNG] = raw
		}
	}
	if c.HasSpec() {
		bundle[MIMEVegaLite] = c.Spec
	}
	return bundle
}

// Validate checks the status invariant.
func (c *Chart) Validate() error {
	if c.Status {
		if c.HasSpec() == c.HasRaster() {
			return fmt.Errorf("%w: successful chart must carry exactly one of spec or raster", core.ErrValidation)
		}
		if c.Error != nil {
			return fmt.Errorf("%w: successful chart carries an error", core.ErrValidation)
		}
		return nil
	}
	if c.HasSpec() || c.HasRaster() {
		return fmt.Errorf("%w: failed chart carries an artifact", core.ErrValidation)
	}
	return nil
}
