package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vizgo/internal/api"
	"vizgo/internal/config"
	"vizgo/internal/container"
	"vizgo/ports"
	"vizgo/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	if err := appContainer.Runtime.Probe(ctx, "pandas"); err != nil {
		log.Printf("Warning: python runtime not ready, candidates will fail: %v", err)
	}

	hub := api.NewSSEHub()
	defer hub.Close()
	appContainer.Orchestrator.SetObserver(api.NewSSEEventBroadcaster(hub))

	apiServer := api.NewServer(api.Options{
		Pipeline:       appContainer.Orchestrator,
		Charts:         appContainer.ChartRepo,
		Usage:          appContainer.UsageRepo,
		Hub:            hub,
		DefaultSamples: appConfig.Data.SampleCount,
	})

	// Preload a dataset so the API is usable without an upload
	if appConfig.Data.File != "" {
		if err := apiServer.Preload(ctx, appConfig.Data.File, ports.ProfileOptions{SampleCount: appConfig.Data.SampleCount}); err != nil {
			log.Printf("Warning: failed to preload %s: %v", appConfig.Data.File, err)
		} else {
			log.Printf("Preloaded dataset %s", appConfig.Data.File)
		}
	}

	gallery, err := ui.NewApp(ui.Config{Port: appConfig.Server.GalleryPort}, appContainer.ChartRepo)
	if err != nil {
		log.Fatalf("Failed to initialize gallery: %v", err)
	}

	servers := []*http.Server{
		{Addr: ":" + appConfig.Server.Port, Handler: apiServer.Handler()},
		{Addr: ":" + appConfig.Server.GalleryPort, Handler: gallery.Handler()},
	}
	if appConfig.Profiling.Enabled {
		// pprof registers on the default mux
		servers = append(servers, &http.Server{Addr: ":" + appConfig.Profiling.Port})
	}

	for _, srv := range servers {
		go func(srv *http.Server) {
			log.Printf("🚀 Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("❌ Server on %s failed: %v", srv.Addr, err)
				stop()
			}
		}(srv)
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server on %s did not shut down cleanly: %v", srv.Addr, err)
		}
	}
	if err := appContainer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Container shutdown: %v", err)
	}
}
