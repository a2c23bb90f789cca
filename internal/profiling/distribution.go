package profiling

import (
	"errors"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// NumericSummary holds the summary statistics of a numeric column
type NumericSummary struct {
	Mean   float64
	Std    float64 // sample standard deviation
	Min    float64
	Max    float64
	Median float64
	Q25    float64
	Q75    float64
}

// SummarizeNumeric computes summary statistics; it needs at least one value
func SummarizeNumeric(data []float64) (NumericSummary, error) {
	var s NumericSummary
	if len(data) == 0 {
		return s, errors.New("no numeric values")
	}

	s.Mean, s.Std = stat.MeanStdDev(data, nil)
	if len(data) < 2 {
		s.Std = 0
	}

	var err error
	if s.Min, err = stats.Min(data); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	// Percentile needs more than one value
	if len(data) > 1 {
		if s.Q25, err = stats.Percentile(data, 25); err != nil {
			return s, err
		}
		if s.Q75, err = stats.Percentile(data, 75); err != nil {
			return s, err
		}
	} else {
		s.Q25, s.Q75 = data[0], data[0]
	}
	return s, nil
}
