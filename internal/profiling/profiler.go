// Package profiling turns an in-memory dataset into a per-column profile.
package profiling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"vizgo/domain/core"
	"vizgo/domain/dataset"
	"vizgo/internal"
	"vizgo/ports"
)

// DefaultSampleCount is used when ProfileOptions.SampleCount is not positive
const DefaultSampleCount = 3

// DataProfiler implements ports.ProfilerPort
type DataProfiler struct {
	enricher ports.EnricherPort
	logger   *internal.Logger
}

// NewDataProfiler creates a profiler; enricher may be nil, in which case
// enrichment requests are ignored with a warning
func NewDataProfiler(enricher ports.EnricherPort, logger *internal.Logger) *DataProfiler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataProfiler{enricher: enricher, logger: logger}
}

// Profile computes the column profile of frame
func (p *DataProfiler) Profile(ctx context.Context, frame *dataset.Frame, opts ports.ProfileOptions) (*dataset.Profile, error) {
	if frame == nil {
		return nil, core.ErrNoDataset
	}
	if frame.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrEmptyDataset, frame.Name)
	}
	if opts.SampleCount <= 0 {
		opts.SampleCount = DefaultSampleCount
	}

	start := time.Now()
	profile := &dataset.Profile{
		Name:       frame.Name,
		FileName:   frame.Name,
		RowCount:   frame.Len(),
		Fields:     make([]dataset.ColumnProfile, 0, len(frame.Columns)),
		FieldNames: append([]string(nil), frame.Columns...),
	}
	if frame.Source != "" {
		profile.FileName = frame.Source
	}

	for _, col := range frame.Columns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cells, err := frame.Column(col)
		if err != nil {
			return nil, err
		}
		props, err := profileColumn(cells, opts.SampleCount)
		if err != nil {
			return nil, fmt.Errorf("profile column %s: %w", col, err)
		}
		profile.Fields = append(profile.Fields, dataset.ColumnProfile{Column: col, Properties: props})
	}

	p.logger.Info("[Profiler] Profiled %s: %d columns, %d rows in %v", frame.Name, len(frame.Columns), frame.Len(), time.Since(start))

	if !opts.Enrich {
		return profile, nil
	}
	if p.enricher == nil {
		p.logger.Warn("[Profiler] Enrichment requested but no enricher is configured")
		return profile, nil
	}
	enriched, err := p.enricher.Enrich(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("enrich profile: %w", err)
	}
	return enriched, nil
}

func profileColumn(cells []string, sampleCount int) (dataset.ColumnProperties, error) {
	var props dataset.ColumnProperties

	present := make([]string, 0, len(cells))
	for _, c := range cells {
		if c == "" {
			props.MissingCount++
			continue
		}
		present = append(present, c)
	}

	distinct := distinctInOrder(present)
	props.UniqueCount = len(distinct)
	props.Samples = pickSamples(distinct, sampleCount)
	props.DType = classify(present, len(cells))

	switch props.DType {
	case dataset.DTypeNumber:
		nums := make([]float64, 0, len(present))
		for _, v := range present {
			f, _ := parseNumber(v)
			nums = append(nums, f)
		}
		s, err := SummarizeNumeric(nums)
		if err != nil {
			return props, err
		}
		props.Mean, props.Std, props.Median = &s.Mean, &s.Std, &s.Median
		props.Min, props.Max = s.Min, s.Max

	case dataset.DTypeDate:
		type dated struct {
			t   time.Time
			raw string
		}
		ds := make([]dated, 0, len(present))
		for _, v := range present {
			t, _ := parseDate(v)
			ds = append(ds, dated{t, v})
		}
		sort.SliceStable(ds, func(i, j int) bool { return ds[i].t.Before(ds[j].t) })
		props.Min, props.Max = ds[0].raw, ds[len(ds)-1].raw
	}
	return props, nil
}

func distinctInOrder(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// pickSamples takes n values spread evenly over the distinct values, so the
// same dataset always yields the same samples
func pickSamples(distinct []string, n int) []string {
	if len(distinct) <= n {
		return append([]string{}, distinct...)
	}
	out := make([]string, 0, n)
	step := float64(len(distinct)) / float64(n)
	for i := 0; i < n; i++ {
		out = append(out, distinct[int(float64(i)*step)])
	}
	return out
}
