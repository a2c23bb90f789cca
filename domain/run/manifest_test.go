package run

import (
	"errors"
	"testing"

	"vizgo/domain/chart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterministic(t *testing.T) {
	cands := chart.NewCandidates([]string{"chart = 1", "chart = 2"}, chart.LibraryAltair)

	fp1 := Fingerprint("cars", "mpg by origin", "altair", cands)
	fp2 := Fingerprint("cars", "mpg by origin", "altair", cands)
	assert.Equal(t, fp1, fp2)

	reordered := chart.NewCandidates([]string{"chart = 2", "chart = 1"}, chart.LibraryAltair)
	assert.NotEqual(t, fp1, Fingerprint("cars", "mpg by origin", "altair", reordered))
	assert.NotEqual(t, fp1, Fingerprint("cars", "mpg by origin", "plotly", cands))
}

func TestCompleteCountsSuccesses(t *testing.T) {
	r := New("cars", "q", "v", chart.LibraryPlotly, true)
	require.Equal(t, StatusRunning, r.Status)
	assert.Zero(t, r.Duration())

	cands := chart.NewCandidates([]string{"a", "b"}, chart.LibraryPlotly)
	charts := []chart.Chart{
		chart.NewSpecChart(cands[0], map[string]any{"mark": "bar"}),
		chart.NewFailedChart(cands[1], "boom", ""),
	}
	r.Complete(cands, charts)

	assert.Equal(t, StatusCompleted, r.Status)
	assert.Equal(t, 2, r.CandidateCount)
	assert.Equal(t, 2, r.ChartCount)
	assert.Equal(t, 1, r.SuccessCount)
	assert.False(t, r.Fingerprint.IsEmpty())
	require.NotNil(t, r.CompletedAt)
}

func TestFail(t *testing.T) {
	r := New("cars", "q", "v", chart.LibraryAltair, false)
	r.Fail(errors.New("code generation failed"))

	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, "code generation failed", r.Error)
}
