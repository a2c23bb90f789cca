package ui

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"vizgo/adapters/store"
	"vizgo/domain/chart"
	"vizgo/domain/core"
	"vizgo/domain/run"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func seededApp(t *testing.T) (*App, *run.Run, []chart.Chart) {
	t.Helper()
	db, err := store.Open(context.Background(), "sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := store.NewChartRepository(db)

	r := run.New("cars", "mpg <by> origin", "bar chart", chart.LibraryAltair, true)
	c := chart.NewCandidates([]string{"chart = alt.Chart(data).mark_bar()", "chart = broken("}, chart.LibraryAltair)
	charts := []chart.Chart{
		chart.NewSpecChart(c[0], map[string]any{"mark": "bar"}),
		chart.NewFailedChart(c[1], "SyntaxError: unexpected EOF", "Traceback ..."),
	}
	r.Complete(c, charts)
	require.NoError(t, repo.SaveRun(context.Background(), r, charts))

	app, err := NewApp(Config{}, repo)
	require.NoError(t, err)
	return app, r, charts
}

func TestIndexListsRuns(t *testing.T) {
	app, r, _ := seededApp(t)
	rec := get(t, app.Handler(), "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "/runs/"+r.ID.String())
	assert.Contains(t, body, "mpg &lt;by&gt; origin")
	assert.Contains(t, body, "1/2 (50%)")
}

func TestRunPageShowsChartsAndFailures(t *testing.T) {
	app, r, _ := seededApp(t)
	rec := get(t, app.Handler(), "/runs/"+r.ID.String())

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `vegaEmbed("#spec-0"`)
	assert.Contains(t, body, "SyntaxError: unexpected EOF")
	assert.Contains(t, body, "Candidate 1")
}

func TestRunReportAndUnknownRun(t *testing.T) {
	app, r, _ := seededApp(t)

	rec := get(t, app.Handler(), "/runs/"+r.ID.String()+"/report")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Candidate 0")

	rec = get(t, app.Handler(), "/runs/"+core.NewRunID().String())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChartPNG(t *testing.T) {
	db, err := store.Open(context.Background(), "sqlite::memory:")
	require.NoError(t, err)
	defer db.Close()
	repo := store.NewChartRepository(db)

	r := run.New("cars", "q", "q", chart.LibraryPlotly, false)
	c := chart.NewCandidates([]string{"chart = px.bar(data)"}, chart.LibraryPlotly)
	charts := []chart.Chart{chart.NewRasterChart(c[0], base64.StdEncoding.EncodeToString([]byte("\x89PNG")))}
	r.Complete(c, charts)
	require.NoError(t, repo.SaveRun(context.Background(), r, charts))

	app, err := NewApp(Config{}, repo)
	require.NoError(t, err)

	rec := get(t, app.Handler(), "/charts/"+charts[0].ID.String()+".png")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, chart.MIMEPNG, rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String())
}

func TestWithoutStore(t *testing.T) {
	app, err := NewApp(Config{}, nil)
	require.NoError(t, err)

	rec := get(t, app.Handler(), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "DATABASE_URL")

	rec = get(t, app.Handler(), "/runs/"+core.NewRunID().String())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
