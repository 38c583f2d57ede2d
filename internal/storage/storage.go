// Package storage persists pipeline artifacts behind a single capability
// surface with two interchangeable backends.
//
// Columnar keeps every logical table in a Parquet file under a warehouse
// directory and survives process restarts; Memory keeps the same tables in
// process memory. Both share one query core, so observable semantics are
// identical: upserts are last-write-wins by primary key, fetches apply the
// same filters and orderings, and the annotated-result view is always the
// join of annotations to their search results at read time.
//
// Operations are serialized per store handle. The contract does not provide
// multi-writer isolation across handles.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cicconel11/TruthLayer-sub003/internal/model"
)

// Store is the capability surface all pipeline components program against.
type Store interface {
	// InsertSearchResults upserts search results by id. Callers pre-deduplicate
	// by (queryId, engine, url).
	InsertSearchResults(ctx context.Context, results []model.SearchResult) error

	// RecordCrawlRuns upserts crawl runs by id.
	RecordCrawlRuns(ctx context.Context, runs []model.CrawlRun) error

	// InsertAnnotations upserts annotations by id.
	InsertAnnotations(ctx context.Context, annotations []model.Annotation) error

	// FetchPendingAnnotations returns search results that no annotation
	// references, ordered by timestamp ascending.
	FetchPendingAnnotations(ctx context.Context, q PendingAnnotationQuery) ([]model.SearchResult, error)

	// FetchAnnotatedResults returns the annotated-result view filtered
	// inclusively on collectedAt, ordered by (collectedAt, queryId, engine,
	// rank) ascending.
	FetchAnnotatedResults(ctx context.Context, q AnnotatedResultQuery) ([]model.AnnotatedResult, error)

	// FetchAlternativeSources returns annotated-view rows matching every
	// supplied predicate, up to the query limit.
	FetchAlternativeSources(ctx context.Context, q AlternativeSourceQuery) ([]model.AnnotatedResult, error)

	// InsertMetricRecords upserts metric records by id.
	InsertMetricRecords(ctx context.Context, records []model.MetricRecord) error

	// FetchRecentMetricRecords returns records of one metric type, newest
	// first by collectedAt.
	FetchRecentMetricRecords(ctx context.Context, metricType string, limit int) ([]model.MetricRecord, error)

	// UpsertAnnotationAggregates upserts aggregates by id.
	UpsertAnnotationAggregates(ctx context.Context, aggregates []model.AnnotationAggregate) error

	// FetchAnnotationAggregates returns aggregates matching the query,
	// ordered by collectedAt ascending.
	FetchAnnotationAggregates(ctx context.Context, q AnnotationAggregateQuery) ([]model.AnnotationAggregate, error)

	// RecordAuditSamples upserts audit samples by id.
	RecordAuditSamples(ctx context.Context, samples []model.AuditSample) error

	// FetchAuditSamples returns the audit samples drawn in one pipeline run,
	// ordered by createdAt ascending.
	FetchAuditSamples(ctx context.Context, runID uuid.UUID) ([]model.AuditSample, error)

	// ExportDataset writes one dataset slice as a Parquet file, registers a
	// DatasetVersion row, and returns both. Unsupported formats fail with
	// ErrUnsupportedFormat.
	ExportDataset(ctx context.Context, req ExportRequest) (ExportResult, error)

	// RecordPipelineRun upserts a pipeline run by id.
	RecordPipelineRun(ctx context.Context, run model.PipelineRun) error

	// RecordPipelineStage upserts a pipeline stage log by id.
	RecordPipelineStage(ctx context.Context, log model.PipelineStageLog) error

	// FetchPipelineRuns returns pipeline runs newest-first by startedAt.
	// limit <= 0 means the default of 50.
	FetchPipelineRuns(ctx context.Context, limit int) ([]model.PipelineRun, error)

	// FetchPipelineStages returns the stage logs of one run, oldest-first by
	// startedAt.
	FetchPipelineStages(ctx context.Context, runID uuid.UUID) ([]model.PipelineStageLog, error)

	// UpsertViewpoints upserts viewpoints by id.
	UpsertViewpoints(ctx context.Context, viewpoints []model.Viewpoint) error

	// FetchViewpointsByQuery returns viewpoints for one benchmark query,
	// ordered by createdAt ascending.
	FetchViewpointsByQuery(ctx context.Context, q ViewpointQuery) ([]model.Viewpoint, error)

	// Close releases the handle. Further calls return ErrClosed.
	Close() error
}

// PendingAnnotationQuery filters FetchPendingAnnotations. Empty lists match
// everything; Limit <= 0 means unlimited.
type PendingAnnotationQuery struct {
	QueryIDs []string
	Engines  []string
	Limit    int
}

// AnnotatedResultQuery filters FetchAnnotatedResults. Since/Until bound
// collectedAt inclusively.
type AnnotatedResultQuery struct {
	Since    *time.Time
	Until    *time.Time
	QueryIDs []string
	RunIDs   []string
}

// AlternativeSourceQuery filters FetchAlternativeSources. QueryKeywords match
// case-insensitively as substrings of "domain normalizedUrl"; ExcludeURLs
// match normalizedUrl exactly. Limit <= 0 means the default of 50.
type AlternativeSourceQuery struct {
	Since              *time.Time
	DomainTypes        []model.DomainType
	FactualConsistency []model.FactualConsistency
	ExcludeURLs        []string
	QueryKeywords      []string
	Limit              int
}

// AnnotationAggregateQuery filters FetchAnnotationAggregates. Empty lists
// match everything; the Engines filter matches only aggregates with an
// engine set.
type AnnotationAggregateQuery struct {
	RunIDs      []string
	QueryIDs    []string
	Engines     []string
	DomainTypes []model.DomainType
}

// ViewpointQuery filters FetchViewpointsByQuery. QueryID is required.
type ViewpointQuery struct {
	QueryID string
	RunID   *string
	Engines []string
}

// ExportRequest names one dataset slice to export. Format defaults to
// Parquet.
type ExportRequest struct {
	DatasetType model.DatasetType
	OutputDir   string
	RunID       *uuid.UUID
	Format      model.DatasetFormat
	Filters     ExportFilters
}

// ExportFilters bound the exported rows. Since/Until apply to the dataset's
// timestamp column inclusively; for metrics the Engines filter treats a
// missing engine as the empty string.
type ExportFilters struct {
	QueryIDs []string
	Engines  []string
	Since    *time.Time
	Until    *time.Time
}

// ExportResult is the outcome of one dataset export.
type ExportResult struct {
	Version  model.DatasetVersion
	FilePath string
}
