package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/vevevedk/vvv-invest-sub000/internal/api"
	"github.com/vevevedk/vvv-invest-sub000/internal/collect"
	"github.com/vevevedk/vvv-invest-sub000/internal/config"
	"github.com/vevevedk/vvv-invest-sub000/internal/cursor"
	"github.com/vevevedk/vvv-invest-sub000/internal/database"
	"github.com/vevevedk/vvv-invest-sub000/internal/lease"
	"github.com/vevevedk/vvv-invest-sub000/internal/model"
	"github.com/vevevedk/vvv-invest-sub000/internal/scheduler"
	"github.com/vevevedk/vvv-invest-sub000/internal/stream"
	"github.com/vevevedk/vvv-invest-sub000/internal/version"
	"github.com/vevevedk/vvv-invest-sub000/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/collector.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting collector",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"api_url", cfg.API.BaseURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	logger.Info("database connected")

	// Create API client. One limiter is shared across every stream so
	// the process as a whole stays inside the vendor's request budget.
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.API.RateLimitPerMinute)/60.0), cfg.API.RateBurst)
	apiClient := api.NewClient(
		cfg.API.BaseURL,
		cfg.API.Token,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
		api.WithRateLimiter(limiter),
	)

	cursors := cursor.NewStore(pool, logger)
	leases := lease.NewStore(pool)
	sink := writer.NewSink(pool, logger, cfg.Collector.WriteRetries)

	type streamSpec struct {
		cfg config.StreamConfig
		s   stream.Stream
	}
	specs := map[model.StreamKind]streamSpec{
		model.StreamTrades:    {cfg.Streams.Trades, stream.NewTrades(apiClient)},
		model.StreamHeadlines: {cfg.Streams.Headlines, stream.NewHeadlines(apiClient)},
		model.StreamFlow:      {cfg.Streams.Flow, stream.NewFlow(apiClient)},
	}

	runners := make(map[model.StreamKind]*collect.Runner)
	var jobs []scheduler.Job
	for kind, spec := range specs {
		if !spec.cfg.Enabled {
			logger.Info("stream disabled", "stream", kind)
			continue
		}
		runner := collect.NewRunner(spec.s, collect.Config{
			Symbols:     spec.cfg.Symbols,
			PageSize:    spec.cfg.PageSize,
			PageCap:     spec.cfg.PageCap,
			LeaseTTL:    cfg.Collector.LeaseTTL,
			CycleBudget: cfg.Collector.CycleBudget,
		}, cursors, cursors, leases, sink, logger)
		runners[kind] = runner

		jobs = append(jobs, scheduler.Job{
			Name:     string(kind),
			Interval: spec.cfg.Interval,
			Run: func(ctx context.Context) (bool, error) {
				res, err := runner.RunIncremental(ctx)
				return res.Skipped || res.Blocked, err
			},
		})
	}

	if len(jobs) == 0 {
		logger.Error("no streams enabled")
		os.Exit(1)
	}

	// Start health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(pool, runners),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("collector running",
		"instance_id", cfg.Instance.ID,
		"streams", len(jobs),
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Health.Port),
	)

	// Blocks until the context is cancelled by a signal.
	if err := scheduler.New(jobs, logger).Start(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("collector stopped")
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(pool *pgxpool.Pool, runners map[model.StreamKind]*collect.Runner) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check database
		if err := pool.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["database"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["database"] = "connected"
		}

		// Report per-stream cycle state
		for kind, runner := range runners {
			last := runner.LastResult()
			health.Components[string(kind)] = map[string]interface{}{
				"state":      string(runner.State()),
				"last_state": string(last.State),
				"pages":      last.Pages,
				"inserted":   last.Inserted,
				"duplicates": last.Duplicates,
				"watermark":  last.Watermark,
			}
			if last.State == collect.StateFailed || last.Blocked {
				health.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
