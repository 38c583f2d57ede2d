// Package pipeline drives the staged search-transparency run: collection,
// annotation, audit sampling, and metrics with dataset export.
//
// At most one run executes per process at any time. Every stage is wrapped
// by executeStage, which persists a stage log, retries with a fixed delay,
// and records the stage outcome before the runner moves on.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/cicconel11/TruthLayer-sub003/internal/ingest"
	"github.com/cicconel11/TruthLayer-sub003/internal/model"
	"github.com/cicconel11/TruthLayer-sub003/internal/storage"
	"github.com/cicconel11/TruthLayer-sub003/internal/telemetry"
)

// StoreFactory opens the storage handle owned by one pipeline run. The
// runner closes the handle when the run ends.
type StoreFactory func() (storage.Store, error)

// Config captures the runner's knobs, already validated and clamped by the
// config package.
type Config struct {
	MaxRetries         int
	RetryDelay         time.Duration
	CollectorOutputDir string
	ExportDir          string
	ReportDir          string
	BenchmarkFile      string
	AuditSamplePercent int
}

// Runner coordinates pipeline runs. Zero or more of the external apps may be
// nil; the corresponding stage then only warns and works with whatever state
// the warehouse already has.
type Runner struct {
	cfg       Config
	openStore StoreFactory
	collector Collector
	annotator Annotator
	metrics   MetricsEngine
	logger    *slog.Logger

	running atomic.Bool

	runsStarted     metric.Int64Counter
	runsCompleted   metric.Int64Counter
	runsFailed      metric.Int64Counter
	triggerSkips    metric.Int64Counter
	stageDuration   metric.Float64Histogram
	resultsIngested metric.Int64Counter
}

// New creates a Runner. openStore is called once per run; the handle lives
// for exactly that run.
func New(cfg Config, openStore StoreFactory, collector Collector, annotator Annotator, metrics MetricsEngine, logger *slog.Logger) *Runner {
	meter := telemetry.Meter("truthlayer/pipeline")
	started, _ := meter.Int64Counter("truthlayer.pipeline.runs_started",
		metric.WithDescription("Pipeline runs started"))
	completed, _ := meter.Int64Counter("truthlayer.pipeline.runs_completed",
		metric.WithDescription("Pipeline runs completed successfully"))
	failed, _ := meter.Int64Counter("truthlayer.pipeline.runs_failed",
		metric.WithDescription("Pipeline runs that ended in failure"))
	skips, _ := meter.Int64Counter("truthlayer.pipeline.trigger_skips",
		metric.WithDescription("Triggers skipped because a run was already active"))
	stageDur, _ := meter.Float64Histogram("truthlayer.pipeline.stage.duration",
		metric.WithDescription("Stage execution time (ms)"),
		metric.WithUnit("ms"),
	)
	ingested, _ := meter.Int64Counter("truthlayer.pipeline.results_ingested",
		metric.WithDescription("Search results committed by ingestion"))

	return &Runner{
		cfg:             cfg,
		openStore:       openStore,
		collector:       collector,
		annotator:       annotator,
		metrics:         metrics,
		logger:          logger,
		runsStarted:     started,
		runsCompleted:   completed,
		runsFailed:      failed,
		triggerSkips:    skips,
		stageDuration:   stageDur,
		resultsIngested: ingested,
	}
}

// IsRunning reports whether a pipeline run is in flight.
func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

var tracer = otel.Tracer("truthlayer/pipeline")

// RunOnce executes one full pipeline run. A call while a run is already in
// flight logs a warning and returns nil without creating a run.
func (r *Runner) RunOnce(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		r.logger.Warn("pipeline already running, skipping concurrent trigger")
		r.triggerSkips.Add(ctx, 1)
		return nil
	}
	defer r.running.Store(false)

	runID := uuid.New()
	startedAt := time.Now().UTC()

	ctx, span := tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("truthlayer.run_id", runID.String())),
	)
	defer span.End()

	r.runsStarted.Add(ctx, 1)
	r.logger.Info("pipeline run starting", "run_id", runID)

	store, err := r.openStore()
	if err != nil {
		r.runsFailed.Add(ctx, 1)
		return fmt.Errorf("pipeline: open store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			r.logger.Warn("closing run store failed", "run_id", runID, "error", cerr)
		}
	}()

	if err := store.RecordPipelineRun(ctx, model.PipelineRun{
		ID:        runID,
		Status:    model.RunStatusRunning,
		StartedAt: startedAt,
		Metadata:  map[string]any{"run_id": runID.String()},
		CreatedAt: startedAt,
		UpdatedAt: startedAt,
	}); err != nil {
		r.runsFailed.Add(ctx, 1)
		return fmt.Errorf("pipeline: record run: %w", err)
	}

	meta, err := r.runStages(ctx, store, runID, startedAt)
	completedAt := time.Now().UTC()
	if err != nil {
		r.failRun(ctx, store, runID, startedAt, completedAt, meta, err)
		r.runsFailed.Add(ctx, 1)
		span.SetAttributes(attribute.String("truthlayer.run_status", string(model.RunStatusFailed)))
		return err
	}

	if err := store.RecordPipelineRun(ctx, model.PipelineRun{
		ID:          runID,
		Status:      model.RunStatusCompleted,
		StartedAt:   startedAt,
		CompletedAt: &completedAt,
		Metadata:    meta,
		CreatedAt:   startedAt,
		UpdatedAt:   completedAt,
	}); err != nil {
		r.runsFailed.Add(ctx, 1)
		return fmt.Errorf("pipeline: record run completion: %w", err)
	}
	r.runsCompleted.Add(ctx, 1)
	span.SetAttributes(attribute.String("truthlayer.run_status", string(model.RunStatusCompleted)))
	r.logger.Info("pipeline run completed",
		"run_id", runID,
		"duration_ms", completedAt.Sub(startedAt).Milliseconds(),
		"metadata", meta)
	return nil
}

// runStages executes the stages in canonical order and aggregates the run
// metadata. On failure the partial metadata is returned alongside the error
// so the failed run record still shows what completed.
func (r *Runner) runStages(ctx context.Context, store storage.Store, runID uuid.UUID, startedAt time.Time) (map[string]any, error) {
	meta := map[string]any{"run_id": runID.String()}

	ingestor := ingest.New(store, r.logger)
	collectorMeta, err := r.executeStage(ctx, store, runID, model.StageCollector, func(ctx context.Context) (map[string]any, error) {
		return r.collectStage(ctx, ingestor, runID)
	})
	if err != nil {
		return meta, err
	}
	meta["collector"] = collectorMeta

	annotationMeta, err := r.executeStage(ctx, store, runID, model.StageAnnotation, func(ctx context.Context) (map[string]any, error) {
		return r.annotateStage(ctx, runID)
	})
	if err != nil {
		return meta, err
	}
	if auditMeta := r.sampleAudit(ctx, store, runID, startedAt); auditMeta != nil {
		annotationMeta["audit"] = auditMeta
	}
	meta["annotation"] = annotationMeta

	metricsMeta, err := r.executeStage(ctx, store, runID, model.StageMetrics, func(ctx context.Context) (map[string]any, error) {
		return r.metricsStage(ctx, store, runID)
	})
	if err != nil {
		return meta, err
	}
	meta["metrics"] = metricsMeta

	return meta, nil
}

// stageFunc is the body of one pipeline stage; its result becomes the stage
// log metadata.
type stageFunc func(ctx context.Context) (map[string]any, error)

// executeStage wraps fn with stage logging and fixed-delay retries. The
// attempt budget is 1+maxRetries; every attempt upserts the same stage log
// row, and the final outcome (completed with metadata, or failed with the
// error) lands on that row before the function returns.
func (r *Runner) executeStage(ctx context.Context, store storage.Store, runID uuid.UUID, stage string, fn stageFunc) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "pipeline."+stage,
		trace.WithAttributes(attribute.String("truthlayer.stage", stage)),
	)
	defer span.End()

	startedAt := time.Now().UTC()
	entry := model.PipelineStageLog{
		ID:        uuid.New(),
		RunID:     runID,
		Stage:     stage,
		Status:    model.RunStatusRunning,
		StartedAt: startedAt,
		CreatedAt: startedAt,
		UpdatedAt: startedAt,
	}
	if err := store.RecordPipelineStage(ctx, entry); err != nil {
		return nil, fmt.Errorf("pipeline: record %s stage log: %w", stage, err)
	}

	budget := 1 + r.cfg.MaxRetries
	var lastErr error
	for attempt := 1; attempt <= budget; attempt++ {
		entry.Attempts = attempt
		entry.Status = model.RunStatusRunning
		entry.UpdatedAt = time.Now().UTC()
		if err := store.RecordPipelineStage(ctx, entry); err != nil {
			return nil, fmt.Errorf("pipeline: record %s stage log: %w", stage, err)
		}

		begin := time.Now()
		meta, err := fn(ctx)
		r.stageDuration.Record(ctx, float64(time.Since(begin).Milliseconds()),
			metric.WithAttributes(attribute.String("stage", stage)))
		if err == nil {
			now := time.Now().UTC()
			entry.Status = model.RunStatusCompleted
			entry.CompletedAt = &now
			entry.Metadata = meta
			entry.UpdatedAt = now
			if err := store.RecordPipelineStage(ctx, entry); err != nil {
				return nil, fmt.Errorf("pipeline: record %s stage log: %w", stage, err)
			}
			span.SetAttributes(attribute.Int("truthlayer.attempts", attempt))
			return meta, nil
		}

		lastErr = err
		if attempt < budget {
			r.logger.Warn("pipeline stage retry",
				"stage", stage,
				"attempt_number", attempt,
				"retries_left", budget-attempt,
				"error", err)
			if derr := sleep(ctx, r.cfg.RetryDelay); derr != nil {
				lastErr = derr
				break
			}
		}
	}

	now := time.Now().UTC()
	entry.Status = model.RunStatusFailed
	entry.CompletedAt = &now
	entry.Error = lastErr.Error()
	entry.UpdatedAt = now
	if err := store.RecordPipelineStage(ctx, entry); err != nil {
		r.logger.Warn("recording failed stage log failed", "stage", stage, "error", err)
	}
	span.SetAttributes(attribute.Int("truthlayer.attempts", entry.Attempts))
	return nil, fmt.Errorf("pipeline: %s stage failed after %d attempts: %w", stage, entry.Attempts, lastErr)
}

// failRun records the terminal failed state of a run. Persistence errors here
// only warn; the original stage failure is what propagates to the caller.
func (r *Runner) failRun(ctx context.Context, store storage.Store, runID uuid.UUID, startedAt, completedAt time.Time, meta map[string]any, cause error) {
	if meta == nil {
		meta = map[string]any{"run_id": runID.String()}
	}
	if err := store.RecordPipelineRun(ctx, model.PipelineRun{
		ID:          runID,
		Status:      model.RunStatusFailed,
		StartedAt:   startedAt,
		CompletedAt: &completedAt,
		Error:       cause.Error(),
		Metadata:    meta,
		CreatedAt:   startedAt,
		UpdatedAt:   completedAt,
	}); err != nil {
		r.logger.Warn("recording failed pipeline run failed", "run_id", runID, "error", err)
	}
	r.logger.Error("pipeline run failed", "run_id", runID, "error", cause)
}

// sleep waits out the retry delay unless the context ends first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
