package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cicconel11/TruthLayer-sub003/internal/audit"
	"github.com/cicconel11/TruthLayer-sub003/internal/export"
	"github.com/cicconel11/TruthLayer-sub003/internal/ingest"
	"github.com/cicconel11/TruthLayer-sub003/internal/report"
	"github.com/cicconel11/TruthLayer-sub003/internal/storage"
)

// Collector runs the external multi-engine search collection, leaving JSON
// result files in the collector output directory.
type Collector interface {
	Collect(ctx context.Context, runID uuid.UUID) error
}

// Annotator runs the external LLM annotation pass over pending search
// results, writing annotations through its own store handle.
type Annotator interface {
	Annotate(ctx context.Context, runID uuid.UUID) error
}

// MetricsEngine computes bias metrics from annotated results.
type MetricsEngine interface {
	ComputeMetrics(ctx context.Context, runID uuid.UUID) error
}

// collectStage invokes the external collector, verifies its output
// directory, and ingests whatever it wrote. A missing collector app is
// tolerated so already-written output still gets ingested.
func (r *Runner) collectStage(ctx context.Context, ingestor *ingest.Ingestor, runID uuid.UUID) (map[string]any, error) {
	if r.collector == nil {
		r.logger.Warn("no collector app configured, ingesting existing output", "dir", r.cfg.CollectorOutputDir)
	} else if err := r.collector.Collect(ctx, runID); err != nil {
		return nil, fmt.Errorf("pipeline: collector app: %w", err)
	}

	files := ingestor.VerifyOutputDir(r.cfg.CollectorOutputDir)
	sum, err := ingestor.IngestDirectory(ctx, r.cfg.CollectorOutputDir, runID, r.cfg.CollectorOutputDir)
	if err != nil {
		return nil, err
	}
	r.resultsIngested.Add(ctx, int64(sum.IngestedResults))

	return map[string]any{
		"files":                files,
		"ingested_results":     sum.IngestedResults,
		"runs":                 sum.Runs,
		"hash_duplicate_count": sum.HashDuplicateCount,
		"url_duplicate_count":  sum.URLDuplicateCount,
	}, nil
}

func (r *Runner) annotateStage(ctx context.Context, runID uuid.UUID) (map[string]any, error) {
	if r.annotator == nil {
		r.logger.Warn("no annotation app configured, skipping annotation")
	} else if err := r.annotator.Annotate(ctx, runID); err != nil {
		return nil, fmt.Errorf("pipeline: annotation app: %w", err)
	}
	return map[string]any{"status": "completed"}, nil
}

// metricsStage invokes the external metrics engine, snapshots the three
// datasets, and renders the transparency report. Export and report failures
// are non-fatal; the stage reports whatever succeeded.
func (r *Runner) metricsStage(ctx context.Context, store storage.Store, runID uuid.UUID) (map[string]any, error) {
	if r.metrics == nil {
		r.logger.Warn("no metrics app configured, skipping metric computation")
	} else if err := r.metrics.ComputeMetrics(ctx, runID); err != nil {
		return nil, fmt.Errorf("pipeline: metrics app: %w", err)
	}

	exports := export.New(store, r.logger).ExportAll(ctx, runID, r.cfg.ExportDir, storage.ExportFilters{})
	paths := make([]string, 0, len(exports))
	for _, exp := range exports {
		paths = append(paths, exp.FilePath)
	}

	reporter := report.New(store, r.logger, r.cfg.ReportDir, r.cfg.BenchmarkFile)
	if _, err := reporter.Generate(ctx, runID, exports); err != nil {
		r.logger.Warn("transparency report generation failed", "run_id", runID, "error", err)
	}

	return map[string]any{
		"dataset_exports": paths,
		"export_count":    len(paths),
	}, nil
}

// sampleAudit draws the manual-review sample between the annotation and
// metrics stages. It runs outside the retry wrapper; a failure downgrades to
// a warning instead of failing the run.
func (r *Runner) sampleAudit(ctx context.Context, store storage.Store, runID uuid.UUID, since time.Time) map[string]any {
	sum, err := audit.New(store, r.logger).SampleRun(ctx, runID, since, r.cfg.AuditSamplePercent)
	if err != nil {
		r.logger.Warn("audit sampling failed", "run_id", runID, "error", err)
		return nil
	}
	return map[string]any{
		"total_annotated": sum.TotalAnnotated,
		"sampled":         sum.Sampled,
	}
}
