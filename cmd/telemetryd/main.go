// Command telemetryd runs the telemetry core as a standalone daemon: an
// instrumented HTTP surface with a health endpoint, a Prometheus scrape
// endpoint for the pipeline's own counts, and demo routes for exercising the
// tracer end to end.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/swiftcms/telemetry"
	"github.com/swiftcms/telemetry/prom"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("TELEMETRYD_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := telemetry.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	port := 8080
	if v := os.Getenv("TELEMETRYD_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			port = n
		}
	}

	slog.Info("telemetryd starting",
		"version", version,
		"port", port,
		"exporter", cfg.Exporter,
		"sampling_rate", cfg.SamplingRate,
		"batch_interval", cfg.BatchInterval,
	)

	mgr, err := telemetry.NewManager(cfg, telemetry.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	tracer := telemetry.NewTracer(mgr)

	// Prometheus registry for the daemon's own operational metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(prom.NewCollector(mgr))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(mgr.HealthStatus())
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /content/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		err := tracer.Trace(r.Context(), "content.load", telemetry.SpanKindInternal, func(ctx context.Context) error {
			if span := telemetry.SpanFromContext(ctx); span != nil {
				span.SetAttribute("content.id", telemetry.StringValue(id))
			}
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
	})

	handler := telemetry.RequestIDMiddleware(
		telemetry.TraceMiddleware(mgr,
			telemetry.LoggingMiddleware(logger, mux)))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	// Final flush: stop the export loop and drain whatever is queued.
	slog.Info("telemetryd shutting down")
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mgr.Shutdown(flushCtx); err != nil {
		slog.Error("telemetry shutdown error", "error", err)
	}

	slog.Info("telemetryd stopped")
	return nil
}
