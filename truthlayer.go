// Package truthlayer is the public API for embedding the TruthLayer
// search-transparency pipeline.
//
// Consumers construct the app, optionally plugging in their own collector,
// annotation, and metrics implementations, then run it:
//
//	app, err := truthlayer.New(
//	    truthlayer.WithVersion(version),
//	    truthlayer.WithLogger(logger),
//	    truthlayer.WithCollector(myCollector),
//	)
//	if err != nil { ... }
//	if err := app.Run(ctx); err != nil { ... }
//
// The import graph enforces a strict no-cycle rule: truthlayer (root) imports
// internal/*, but internal/* never imports the root package. The extension
// interfaces (Collector, Annotator, MetricsEngine) are standalone — no
// internal imports — so they are safe to implement from outside the module.
package truthlayer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"github.com/cicconel11/TruthLayer-sub003/internal/config"
	"github.com/cicconel11/TruthLayer-sub003/internal/pipeline"
	"github.com/cicconel11/TruthLayer-sub003/internal/sanitize"
	"github.com/cicconel11/TruthLayer-sub003/internal/schedule"
	"github.com/cicconel11/TruthLayer-sub003/internal/storage"
	"github.com/cicconel11/TruthLayer-sub003/internal/telemetry"
)

// App is the TruthLayer pipeline lifecycle. Construct with New(), run with
// Run(). App has no public fields — use New() options to configure it.
type App struct {
	cfg          config.Config
	runner       *pipeline.Runner
	sched        *schedule.Scheduler
	otelShutdown telemetry.Shutdown
	logger       *slog.Logger
	version      string
}

// New initialises the pipeline app. It loads configuration, opens the
// warehouse once to fail fast and report where the previous run left off,
// and wires the runner and scheduler. It does NOT start any goroutines —
// call Run().
func New(opts ...Option) (*App, error) {
	// Apply options.
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	// Every line passes through the sanitizer so raw result content and full
	// URLs never reach log sinks.
	logger = slog.New(sanitize.NewHandler(logger.Handler()))

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	// Load configuration (env vars), then apply option overrides.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.schedule != "" {
		cfg.CronExpression = o.schedule
	}
	if o.storageDir != "" {
		cfg.StorageDir = o.storageDir
	}
	if o.collectorOutputDir != "" {
		cfg.CollectorOutputDir = o.collectorOutputDir
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	logger.Info("truthlayer starting",
		"version", version,
		"schedule", cfg.CronExpression,
		"timezone", cfg.Timezone,
		"warehouse", cfg.StorageDir)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(context.Background(), cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	// Each pipeline run opens its own warehouse handle and closes it when
	// the run ends, so a crashed run never leaves a handle open.
	storeFactory := func() (storage.Store, error) {
		return storage.OpenColumnar(cfg.StorageDir)
	}

	store, err := storeFactory()
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("storage: %w", err)
	}
	logLastRun(context.Background(), store, logger)
	if err := store.Close(); err != nil {
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("storage: close startup handle: %w", err)
	}

	runner := pipeline.New(pipeline.Config{
		MaxRetries:         cfg.MaxRetries,
		RetryDelay:         cfg.RetryDelay,
		CollectorOutputDir: cfg.CollectorOutputDir,
		ExportDir:          cfg.ExportDir,
		ReportDir:          cfg.ReportDir,
		BenchmarkFile:      cfg.BenchmarkFile,
		AuditSamplePercent: cfg.AuditSamplePercent,
	}, storeFactory, o.collector, o.annotator, o.metricsEngine, logger)

	sched := schedule.New(schedule.Config{
		Expression: cfg.CronExpression,
		Location:   loc,
		RunOnStart: cfg.RunOnStart,
	}, runner, logger)

	return &App{
		cfg:          cfg,
		runner:       runner,
		sched:        sched,
		otelShutdown: otelShutdown,
		logger:       logger,
		version:      version,
	}, nil
}

// Run starts the scheduler and blocks until ctx is cancelled. On return,
// Shutdown is called automatically — callers should not call Shutdown
// separately.
func (a *App) Run(ctx context.Context) error {
	if err := a.sched.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return a.Shutdown(context.Background())
}

// Trigger fires one pipeline run outside the cron schedule and blocks until
// it finishes. Failures are logged and swallowed the same way scheduled runs
// are; a trigger that overlaps an in-flight run is skipped by the runner.
func (a *App) Trigger(ctx context.Context) {
	a.sched.Trigger(ctx)
}

// Shutdown stops the cron loop, waits up to the configured timeout for an
// in-flight pipeline run to finish, then shuts down the OTEL providers.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("truthlayer shutting down")

	a.sched.Stop()

	deadline := time.Now().Add(a.cfg.ShutdownTimeout)
	for a.runner.IsRunning() {
		if time.Now().After(deadline) {
			a.logger.Warn("shutdown timeout reached with a pipeline run still in flight",
				"timeout", a.cfg.ShutdownTimeout)
			break
		}
		select {
		case <-ctx.Done():
			a.logger.Warn("shutdown context cancelled while waiting for pipeline run")
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}

	_ = a.otelShutdown(context.Background())
	a.logger.Info("truthlayer stopped")
	return nil
}

// logLastRun reports the terminal state of the most recent pipeline run so
// operators can see across restarts whether the last run succeeded.
func logLastRun(ctx context.Context, store storage.Store, logger *slog.Logger) {
	runs, err := store.FetchPipelineRuns(ctx, 1)
	if err != nil {
		logger.Warn("could not read last pipeline run", "error", err)
		return
	}
	if len(runs) == 0 {
		logger.Info("no previous pipeline runs in warehouse")
		return
	}
	last := runs[0]
	attrs := []any{"run_id", last.ID, "status", last.Status, "started_at", last.StartedAt}
	if last.CompletedAt != nil {
		attrs = append(attrs, "completed_at", *last.CompletedAt)
	}
	if last.Error != "" {
		attrs = append(attrs, "error", last.Error)
	}
	logger.Info("last pipeline run", attrs...)
}
