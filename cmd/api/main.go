// Package main implements the unicorn analytics dashboard API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/herdstack/herd/engine/dataset"
	"github.com/herdstack/herd/pkg/metrics"
	"github.com/herdstack/herd/pkg/mid"
)

// DefaultDataURL is the static unicorn-companies CSV the dashboard renders.
const DefaultDataURL = "https://raw.githubusercontent.com/katiehuangx/Maven-Unicorn-Challenge/main/unicorn_companies_clean.csv"

// Config holds all environment-based configuration.
type Config struct {
	Port       string
	DataURL    string
	CORSOrigin string
	RateRPS    float64
	RateBurst  int
}

func loadConfig() Config {
	return Config{
		Port:       envOr("PORT", "8080"),
		DataURL:    envOr("DATA_URL", DefaultDataURL),
		CORSOrigin: envOr("CORS_ORIGIN", "*"),
		RateRPS:    50,
		RateBurst:  100,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	met := metrics.New()

	// --- Load the dataset once for the session ---
	// No fallback data exists, so a failed load is fatal.
	cache := dataset.NewCache(dataset.NewLoader(logger))
	start := time.Now()
	ds, err := cache.Get(ctx, cfg.DataURL)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	met.Histogram("herd_dataset_load_seconds", "Dataset load duration", nil).Observe(time.Since(start).Seconds())
	met.Gauge("herd_dataset_rows", "Working rows in the loaded dataset").Set(int64(ds.Len()))
	met.Counter("herd_dataset_rows_dropped_total", "Rows dropped at load for missing valuation").Add(int64(ds.Dropped))

	srv := newServer(ds, logger, met)

	// --- Build HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", srv.handleHealth)
	mux.HandleFunc("GET /api/options", srv.handleOptions)
	mux.HandleFunc("GET /api/dashboard", srv.handleDashboard)
	mux.HandleFunc("GET /api/graph", srv.handleGraph)
	mux.HandleFunc("GET /api/export.csv", srv.handleExport)
	mux.HandleFunc("GET /api/preview", srv.handlePreview)
	mux.Handle("GET /metrics", met.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("herd-api"),
		mid.RateLimit(cfg.RateRPS, cfg.RateBurst),
	)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "rows", ds.Len())
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutCtx)
}
