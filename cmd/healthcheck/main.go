package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/hamed0406/healthchecker/internal/config"
	"github.com/hamed0406/healthchecker/internal/domain"
	"github.com/hamed0406/healthchecker/internal/httpapi"
	"github.com/hamed0406/healthchecker/internal/logging"
	"github.com/hamed0406/healthchecker/internal/probe"
	"github.com/hamed0406/healthchecker/internal/repo"
	"github.com/hamed0406/healthchecker/internal/repo/csvfile"
	"github.com/hamed0406/healthchecker/internal/repo/memory"
	pg "github.com/hamed0406/healthchecker/internal/repo/postgres"
	"github.com/hamed0406/healthchecker/internal/repo/sqlite"
	"github.com/hamed0406/healthchecker/internal/scheduler"
	"github.com/hamed0406/healthchecker/internal/stats"
)

func main() {
	fs := pflag.NewFlagSet("healthcheck", pflag.ExitOnError)
	fs.Int("interval", 15, "health check interval in seconds")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: healthcheck <config.yaml> [--interval N]")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv(fs)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	endpoints, err := config.LoadEndpoints(fs.Arg(0))
	if err != nil {
		log.Fatalf("endpoints: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := exitCode(logger, run(ctx, cfg, endpoints, logger))
	stop()
	os.Exit(code)
}

// exitCode logs a failure and flushes the logger; os.Exit skips defers.
func exitCode(logger *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logger.Error("health_checker_failed", zap.Error(err))
		code = 1
	}
	_ = logger.Sync()
	return code
}

func run(ctx context.Context, cfg config.Config, endpoints []domain.Endpoint, logger *zap.Logger) error {
	runID := uuid.NewString()
	logger.Info("health_checker_starting",
		zap.String("run_id", runID),
		zap.Int("endpoints", len(endpoints)),
		zap.Duration("interval", cfg.Interval),
		zap.Duration("max_latency", cfg.MaxLatency),
	)

	mem := memory.New(cfg.ResultBuffer)
	reports, err := csvfile.New(cfg.ReportDir)
	if err != nil {
		return err
	}
	sinks := repo.Multi{mem, reports}

	if cfg.SQLitePath != "" {
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		defer db.Close()
		sinks = append(sinks, db)
		logger.Info("sink_enabled", zap.String("sink", "sqlite"), zap.String("path", cfg.SQLitePath))
	}

	var reader repo.ResultReader = mem
	if cfg.DatabaseURL != "" {
		store, err := pg.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		sinks = append(sinks, store)
		reader = store
		logger.Info("sink_enabled", zap.String("sink", "postgres"))
	}

	agg := stats.New(stats.WithRunID(runID), stats.WithWindow(cfg.AvailabilityWindow))

	ex := probe.NewExecutor(probe.NewClient(cfg.ProbeTimeout), probe.Policy{MaxLatency: cfg.MaxLatency}, logger)
	ex.Timeout = cfg.ProbeTimeout
	ex.DiagnoseDNS = cfg.DNSDiagnostics

	runner := scheduler.NewRunner(logger, endpoints, ex, agg)
	runner.Results = sinks
	runner.Trends = sinks
	runner.RunID = runID

	loop := scheduler.NewLoop(logger, runner, cfg.Interval)

	var wg sync.WaitGroup
	if cfg.StatusAddr != "" {
		api := httpapi.NewServer(logger, agg, reader, endpoints, cfg.StatusAPIKeys)
		api.State = func() string { return string(loop.State()) }
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := api.ListenAndServe(ctx, cfg.StatusAddr); err != nil {
				logger.Error("api_error", zap.Error(err))
			}
		}()
	}

	err = loop.Run(ctx)
	wg.Wait()

	exportRun(logger, reports, mem, runID)

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// exportRun writes results.json from the in-memory buffer. Rows evicted by
// RESULT_BUFFER are not in the export; the CSV and database sinks keep them.
func exportRun(logger *zap.Logger, reports *csvfile.Store, mem *memory.Store, runID string) {
	results, trends := mem.Results(), mem.Trends()
	path, err := reports.ExportJSON(csvfile.Export{
		RunID:   runID,
		Results: results,
		Trends:  trends,
	})
	if err != nil {
		logger.Warn("export_error", zap.Error(err))
		return
	}
	droppedResults, droppedTrends := mem.Dropped()
	fields := []zap.Field{
		zap.String("path", path),
		zap.Int("results", len(results)),
		zap.Int("trends", len(trends)),
	}
	if droppedResults > 0 || droppedTrends > 0 {
		fields = append(fields,
			zap.Int64("dropped_results", droppedResults),
			zap.Int64("dropped_trends", droppedTrends),
		)
		logger.Warn("results_exported_partial", fields...)
		return
	}
	logger.Info("results_exported", fields...)
}
