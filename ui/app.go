// Package ui serves a read-only HTML gallery of stored visualization runs.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"vizgo/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

const pageSize = 20

// App represents the gallery application
type App struct {
	router    *chi.Mux
	charts    ports.ChartRepository
	templates *template.Template
	port      string
}

// Config holds gallery configuration
type Config struct {
	Port string
}

// NewApp creates the gallery over a chart store. charts may be nil, in which
// case every page explains that no store is configured.
func NewApp(config Config, charts ports.ChartRepository) (*App, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"ago": func(t time.Time) string {
			return time.Since(t).Round(time.Second).String()
		},
		"pct": func(part, whole int) int {
			if whole == 0 {
				return 0
			}
			return part * 100 / whole
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	if config.Port == "" {
		config.Port = "8081"
	}
	app := &App{
		router:    chi.NewRouter(),
		charts:    charts,
		templates: templates,
		port:      config.Port,
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
	a.router.Use(middleware.Timeout(30 * time.Second))

	a.router.Handle("/static/*", http.FileServer(http.FS(embeddedFiles)))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/runs/{id}", a.handleRun)
	a.router.Get("/runs/{id}/report", a.handleReport)
	a.router.Get("/charts/{id}.png", a.handleChartPNG)
}

// Handler returns the HTTP handler
func (a *App) Handler() http.Handler {
	return a.router
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := ":" + a.port
	log.Printf("Starting vizgo gallery on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

// renderTemplate executes a named template as an HTML page
func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
