package ui

import (
	"net/http"
	"strconv"

	"vizgo/domain/chart"
	"vizgo/domain/core"
	"vizgo/domain/run"
	"vizgo/internal/errors"
	"vizgo/internal/report"

	"github.com/go-chi/chi/v5"
)

type indexPage struct {
	StoreEnabled bool
	Runs         []*run.Run
	Page         int
	HasPrev      bool
	HasNext      bool
}

type runPage struct {
	Run    *run.Run
	Charts []chart.Chart
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexPage{StoreEnabled: a.charts != nil, Page: 1}
	if a.charts == nil {
		a.renderTemplate(w, "index.html", data)
		return
	}

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 1 {
		data.Page = p
	}
	// one extra row tells us whether a next page exists
	runs, err := a.charts.ListRuns(r.Context(), pageSize+1, (data.Page-1)*pageSize)
	if err != nil {
		a.renderError(w, err)
		return
	}
	if len(runs) > pageSize {
		runs = runs[:pageSize]
		data.HasNext = true
	}
	data.Runs = runs
	data.HasPrev = data.Page > 1
	a.renderTemplate(w, "index.html", data)
}

func (a *App) loadRun(w http.ResponseWriter, r *http.Request) (*runPage, bool) {
	if a.charts == nil {
		http.Error(w, "chart store not configured", http.StatusServiceUnavailable)
		return nil, false
	}
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		a.renderError(w, err)
		return nil, false
	}
	rn, err := a.charts.GetRun(r.Context(), id)
	if err != nil {
		a.renderError(w, err)
		return nil, false
	}
	charts, err := a.charts.ListCharts(r.Context(), id)
	if err != nil {
		a.renderError(w, err)
		return nil, false
	}
	return &runPage{Run: rn, Charts: charts}, true
}

func (a *App) handleRun(w http.ResponseWriter, r *http.Request) {
	page, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	a.renderTemplate(w, "run.html", page)
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	page, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(report.Render(page.Run, page.Charts))
}

func (a *App) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	if a.charts == nil {
		http.Error(w, "chart store not configured", http.StatusServiceUnavailable)
		return
	}
	c, err := a.charts.GetChart(r.Context(), core.ChartID(chi.URLParam(r, "id")))
	if err != nil {
		a.renderError(w, err)
		return
	}
	raw, err := c.RasterBytes()
	if err != nil {
		a.renderError(w, err)
		return
	}
	w.Header().Set("Content-Type", chart.MIMEPNG)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(raw)
}

func (a *App) renderError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), errors.HTTPStatus(err))
}
