package report

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"vizgo/domain/chart"
	"vizgo/domain/run"

	"github.com/stretchr/testify/assert"
)

func sampleRun(question string) (*run.Run, []chart.Chart) {
	r := run.New("cars", question, question, chart.LibraryMatplotlib, true)
	candidates := chart.NewCandidates([]string{"chart = plt.gcf()", "chart = missing"}, chart.LibraryMatplotlib)
	charts := []chart.Chart{
		chart.NewRasterChart(candidates[0], base64.StdEncoding.EncodeToString([]byte("png-bytes"))),
		chart.NewFailedChart(candidates[1], "name 'missing' is not defined", "Traceback (most recent call last):\nNameError"),
	}
	r.Complete(candidates, charts)
	return r, charts
}

func TestMarkdownDescribesRun(t *testing.T) {
	r, charts := sampleRun("mpg by origin")
	md := Markdown(r, charts)

	assert.Contains(t, md, "# Run "+r.ID.String())
	assert.Contains(t, md, "| Question | mpg by origin |")
	assert.Contains(t, md, "| Charts | 1 of 2 candidate(s) rendered |")
	assert.Contains(t, md, "## Candidate 0")
	assert.Contains(t, md, "](data:image/png;base64,")
	assert.Contains(t, md, "**Failed:** name 'missing' is not defined")
	assert.Contains(t, md, "```python\nchart = missing\n```")
}

func TestMarkdownSpecChart(t *testing.T) {
	r := run.New("cars", "q", "q", chart.LibraryAltair, false)
	c := chart.NewCandidates([]string{"chart = alt.Chart(data)"}, chart.LibraryAltair)
	charts := []chart.Chart{chart.NewSpecChart(c[0], map[string]any{"mark": "bar"})}
	r.Complete(c, charts)

	md := Markdown(r, charts)
	assert.Contains(t, md, "```json\n{\n  \"mark\": \"bar\"\n}\n```")
}

func TestMarkdownFailedRun(t *testing.T) {
	r := run.New("cars", "q", "q", chart.LibraryPlotly, false)
	r.Fail(errors.New("malformed collaborator response"))
	assert.Contains(t, Markdown(r, nil), "**Error:** malformed collaborator response")
}

func TestHTMLSanitizes(t *testing.T) {
	r, charts := sampleRun(`<script>alert("x")</script> pipes | here`)
	out := string(Render(r, charts))

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `<img src="data:image/png;base64,`)
	assert.Contains(t, out, "<table>")
	assert.True(t, strings.Contains(out, "<h1") && strings.Contains(out, "Run "+r.ID.String()))
}
