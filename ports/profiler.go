package ports

import (
	"context"

	"vizgo/domain/dataset"
)

// ProfileOptions controls a profiling pass.
type ProfileOptions struct {
	SampleCount int  `json:"sample_count"` // distinct sample values kept per column
	Enrich      bool `json:"enrich"`       // ask the enricher for descriptions and semantic types
}

// ProfilerPort summarizes an in-memory dataset into per-column statistics.
type ProfilerPort interface {
	Profile(ctx context.Context, frame *dataset.Frame, opts ProfileOptions) (*dataset.Profile, error)
}

// EnricherPort attaches natural-language descriptions to a profile.
// Implementations return a new profile and leave the input untouched.
type EnricherPort interface {
	Enrich(ctx context.Context, profile *dataset.Profile) (*dataset.Profile, error)
}
