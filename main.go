package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kestrel-data/crossing.report/internal/api"
	"github.com/kestrel-data/crossing.report/internal/config"
	"github.com/kestrel-data/crossing.report/internal/db"
	"github.com/kestrel-data/crossing.report/internal/detect"
	"github.com/kestrel-data/crossing.report/internal/engine"
	"github.com/kestrel-data/crossing.report/internal/version"
)

var (
	//go:embed static/*
	staticFiles embed.FS
	devMode     = flag.Bool("dev", false, "Run in dev mode (serve ./static from disk)")
	listen      = flag.String("listen", ":8080", "Listen address")
	dbFile      = flag.String("db", "crossing_data.db", "Path to the analytics database")
	configPath  = flag.String("config", "config/launch.json", "Path to the launch config JSON")
	framesPath  = flag.String("frames", "", "Path to a detection frames file (JSONL); omit to serve the dashboard only")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	log.Printf("crossing.report %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	// Wait group for the HTTP server and counting engine routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// counting engine goroutine; skipped when no frames source is given so
	// the binary can serve an existing database on its own
	if *framesPath != "" {
		cfg, err := config.LoadLaunchConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load launch config: %v", err)
		}

		source, err := detect.OpenReplay(*framesPath)
		if err != nil {
			log.Fatalf("Failed to open frames file: %v", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			pipeline := engine.New(engine.Config{
				StreamURL:       cfg.GetStreamURL(),
				ObjectType:      cfg.GetObjectType(),
				Mode:            cfg.GetAnalysisMode(),
				Line:            cfg.GetLineSpec(),
				Algorithm:       cfg.GetAlgorithm(),
				MinDisplacement: cfg.GetMinDisplacement(),
				RecordInterval:  cfg.GetRecordInterval(),
			}, source, database)

			res, err := pipeline.Run(ctx)
			switch {
			case err == nil:
			case errors.Is(err, detect.ErrStreamUnavailable):
				log.Printf("stream unavailable: %v", err)
			default:
				log.Printf("engine stopped: %v", err)
			}
			log.Printf("engine finished: frames=%d direction1=%d direction2=%d total=%d",
				res.Frames, res.Direction1, res.Direction2, res.Total)
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		apiMux := api.NewServer(database).ServeMux()
		mux.Handle("/api/", apiMux)
		mux.Handle("/charts/", apiMux)

		// read static files from the embedded filesystem in production or
		// from the local ./static in dev for easier iteration without
		// restarting the server
		var staticHandler http.Handler
		if *devMode {
			staticHandler = http.FileServer(http.Dir("./static"))
		} else {
			staticHandler = http.FileServer(http.FS(staticFiles))
		}
		mux.Handle("/", staticHandler)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()
		log.Printf("dashboard listening on %s", *listen)

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
