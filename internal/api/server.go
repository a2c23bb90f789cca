// Package api exposes the visualization pipeline as a JSON API over gin.
package api

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"vizgo/domain/chart"
	"vizgo/domain/core"
	"vizgo/domain/dataset"
	"vizgo/domain/goal"
	"vizgo/domain/run"
	"vizgo/internal/errors"
	"vizgo/internal/report"
	"vizgo/ports"

	"github.com/gin-gonic/gin"
)

// Pipeline is the part of the orchestrator the API drives.
type Pipeline interface {
	SummarizePath(ctx context.Context, path string, opts ports.ProfileOptions) (*dataset.Profile, error)
	ExploreGoals(ctx context.Context, profile *dataset.Profile, n int) ([]goal.Goal, error)
	VisualizeRun(ctx context.Context, profile *dataset.Profile, g goal.Goal, library string, debug bool) (*run.Run, []chart.Chart, error)
}

// Options configures a Server. Charts, Usage and Hub are optional.
type Options struct {
	Pipeline       Pipeline
	Charts         ports.ChartRepository
	Usage          ports.LLMUsageRepository
	Hub            *SSEHub
	DefaultSamples int
	UploadDir      string // default os.TempDir()
}

// Server serves the JSON API
type Server struct {
	router   *gin.Engine
	pipeline Pipeline
	charts   ports.ChartRepository
	usage    ports.LLMUsageRepository
	hub      *SSEHub
	samples  int
	uploads  string

	mu      sync.RWMutex
	profile *dataset.Profile
}

// NewServer creates the API server and registers its routes
func NewServer(opts Options) *Server {
	if opts.UploadDir == "" {
		opts.UploadDir = os.TempDir()
	}
	s := &Server{
		router:   gin.New(),
		pipeline: opts.Pipeline,
		charts:   opts.Charts,
		usage:    opts.Usage,
		hub:      opts.Hub,
		samples:  opts.DefaultSamples,
		uploads:  opts.UploadDir,
	}
	s.router.Use(gin.Logger(), gin.Recovery())
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		resp := gin.H{"status": "ok", "time": time.Now().UTC(), "store": s.charts != nil}
		if s.hub != nil {
			resp["event_clients"] = s.hub.GetClientCount("")
		}
		c.JSON(http.StatusOK, resp)
	})

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/datasets", s.handleLoadDataset)
		v1.GET("/profile", s.handleGetProfile)
		v1.POST("/goals", s.handleGoals)
		v1.POST("/visualize", s.handleVisualize)

		v1.GET("/runs", s.handleListRuns)
		v1.GET("/runs/:id", s.handleGetRun)
		v1.GET("/runs/:id/report", s.handleRunReport)
		v1.GET("/charts/:id", s.handleGetChart)
		v1.GET("/charts/:id/png", s.handleChartPNG)

		v1.GET("/usage", s.handleUsage)
		if s.hub != nil {
			v1.GET("/events", s.hub.HandleSSE)
		}
	}
}

// respondError writes err with the status of its error code
func respondError(c *gin.Context, err error) {
	appErr := errors.FromDomain(err)
	c.JSON(errors.HTTPStatus(appErr), gin.H{
		"error": err.Error(),
		"code":  errors.GetCode(appErr),
	})
}

func (s *Server) currentProfile() *dataset.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

type loadDatasetRequest struct {
	Path        string `json:"path"`
	SampleCount int    `json:"sample_count"`
	Enrich      bool   `json:"enrich"`
}

// handleLoadDataset accepts a multipart "file" upload or a JSON body naming a
// server-side path, and profiles the dataset.
func (s *Server) handleLoadDataset(c *gin.Context) {
	var req loadDatasetRequest

	if c.ContentType() == "multipart/form-data" {
		file, err := c.FormFile("file")
		if err != nil {
			respondError(c, errors.InvalidInput("multipart upload requires a file field"))
			return
		}
		dir, err := os.MkdirTemp(s.uploads, "vizgo-upload-")
		if err != nil {
			respondError(c, errors.InternalError("failed to create upload directory"))
			return
		}
		defer os.RemoveAll(dir)

		req.Path = filepath.Join(dir, filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, req.Path); err != nil {
			respondError(c, errors.Wrap(err, "failed to store upload"))
			return
		}
		req.SampleCount, _ = strconv.Atoi(c.PostForm("sample_count"))
		req.Enrich, _ = strconv.ParseBool(c.PostForm("enrich"))
	} else if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		respondError(c, errors.InvalidInput("request needs a file upload or a JSON body with path"))
		return
	}

	if req.SampleCount <= 0 {
		req.SampleCount = s.samples
	}
	profile, err := s.pipeline.SummarizePath(c.Request.Context(), req.Path, ports.ProfileOptions{
		SampleCount: req.SampleCount,
		Enrich:      req.Enrich,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
	c.JSON(http.StatusOK, profile)
}

// Preload summarizes the dataset at path as if it had been posted.
func (s *Server) Preload(ctx context.Context, path string, opts ports.ProfileOptions) error {
	profile, err := s.pipeline.SummarizePath(ctx, path, opts)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
	return nil
}

func (s *Server) handleGetProfile(c *gin.Context) {
	profile := s.currentProfile()
	if profile == nil {
		respondError(c, core.ErrNoDataset)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type goalsRequest struct {
	N int `json:"n"`
}

func (s *Server) handleGoals(c *gin.Context) {
	req := goalsRequest{N: 5}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, errors.InvalidInput("invalid goals request: "+err.Error()))
			return
		}
	}
	goals, err := s.pipeline.ExploreGoals(c.Request.Context(), s.currentProfile(), req.N)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

type visualizeRequest struct {
	Goal    *goal.Goal `json:"goal"`
	Text    string     `json:"text"`
	Library string     `json:"library"`
	Debug   bool       `json:"debug"`
}

type visualizeResponse struct {
	Run    *run.Run      `json:"run"`
	Charts []chart.Chart `json:"charts"`
}

func (s *Server) handleVisualize(c *gin.Context) {
	var req visualizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidInput("invalid visualize request: "+err.Error()))
		return
	}

	var g goal.Goal
	switch {
	case req.Goal != nil:
		g = *req.Goal
	case req.Text != "":
		g = goal.FromText(req.Text)
	default:
		respondError(c, errors.InvalidInput("visualize needs a goal or text"))
		return
	}
	if err := g.Validate(); err != nil {
		respondError(c, err)
		return
	}

	r, charts, err := s.pipeline.VisualizeRun(c.Request.Context(), s.currentProfile(), g, req.Library, req.Debug)
	if err != nil {
		respondError(c, err)
		return
	}
	if charts == nil {
		charts = []chart.Chart{}
	}
	c.JSON(http.StatusOK, visualizeResponse{Run: r, Charts: charts})
}

// storeAvailable reports a 503 when no chart store is configured
func (s *Server) storeAvailable(c *gin.Context) bool {
	if s.charts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chart store not configured (set DATABASE_URL)"})
		return false
	}
	return true
}

func (s *Server) handleListRuns(c *gin.Context) {
	if !s.storeAvailable(c) {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	runs, err := s.charts.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	if runs == nil {
		runs = []*run.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) loadRun(c *gin.Context) (*run.Run, []chart.Chart, bool) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	r, err := s.charts.GetRun(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	charts, err := s.charts.ListCharts(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	return r, charts, true
}

func (s *Server) handleGetRun(c *gin.Context) {
	if !s.storeAvailable(c) {
		return
	}
	r, charts, ok := s.loadRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, visualizeResponse{Run: r, Charts: charts})
}

// handleRunReport renders the run as HTML, or Markdown with ?format=md
func (s *Server) handleRunReport(c *gin.Context) {
	if !s.storeAvailable(c) {
		return
	}
	r, charts, ok := s.loadRun(c)
	if !ok {
		return
	}
	if c.Query("format") == "md" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Markdown(r, charts)))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", report.Render(r, charts))
}

func (s *Server) handleGetChart(c *gin.Context) {
	if !s.storeAvailable(c) {
		return
	}
	ch, err := s.charts.GetChart(c.Request.Context(), core.ChartID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (s *Server) handleChartPNG(c *gin.Context) {
	if !s.storeAvailable(c) {
		return
	}
	ch, err := s.charts.GetChart(c.Request.Context(), core.ChartID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	raw, ok := ch.Bundle()[chart.MIMEPNG].([]byte)
	if !ok {
		respondError(c, core.ErrNoRaster)
		return
	}
	c.Data(http.StatusOK, chart.MIMEPNG, raw)
}

// handleUsage summarizes LLM usage over the last ?days (default 7)
func (s *Server) handleUsage(c *gin.Context) {
	if s.usage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "usage tracking not configured (set DATABASE_URL)"})
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 {
		respondError(c, errors.InvalidInput("days must be a positive integer"))
		return
	}
	end := time.Now().UTC()
	summary, err := s.usage.GetUsageSummary(c.Request.Context(), end.AddDate(0, 0, -days), end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
