package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cicconel11/TruthLayer-sub003/internal/model"
)

// Memory is the in-memory Store backend. It shares the query core with
// Columnar, so the two are observably identical; only durability differs.
// Dataset exports still write real Parquet files.
type Memory struct {
	mu     sync.Mutex
	closed bool
	data   *tables
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: newTables()}
}

func (m *Memory) InsertSearchResults(ctx context.Context, results []model.SearchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data.upsertSearchResults(results, time.Now().UTC())
	return nil
}

func (m *Memory) RecordCrawlRuns(ctx context.Context, runs []model.CrawlRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data.upsertCrawlRuns(runs, time.Now().UTC())
	return nil
}

func (m *Memory) InsertAnnotations(ctx context.Context, annotations []model.Annotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data.upsertAnnotations(annotations, time.Now().UTC())
	return nil
}

func (m *Memory) FetchPendingAnnotations(ctx context.Context, q PendingAnnotationQuery) ([]model.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.data.pendingAnnotations(q), nil
}

func (m *Memory) FetchAnnotatedResults(ctx context.Context, q AnnotatedResultQuery) ([]model.AnnotatedResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.data.fetchAnnotatedResults(q), nil
}

func (m *Memory) FetchAlternativeSources(ctx context.Context, q AlternativeSourceQuery) ([]model.AnnotatedResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.data.alternativeSources(q), nil
}

func (m *Memory) InsertMetricRecords(ctx context.Context, records []model.MetricRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data.upsertMetricRecords(records, time.Now().UTC())
	return nil
}

func (m *Memory) FetchRecentMetricRecords(ctx context.Context, metricType string, limit int) ([]model.MetricRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.data.recentMetricRecords(metricType, limit), nil
}

func (m *Memory) UpsertAnnotationAggregates(ctx context.Context, aggregates []model.AnnotationAggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data.upsertAggregates(aggregates, time.Now().UTC())
	return nil
}

func (m *Memory) FetchAnnotationAggregates(ctx context.Context, q AnnotationAggregateQuery) ([]model.AnnotationAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.data.fetchAggregates(q), nil
}

func (m *Memory) RecordAuditSamples(ctx context.Context, samples []model.AuditSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data.upsertAuditSamples(samples, time.Now().UTC())
	return nil
}

func (m *Memory) FetchAuditSamples(ctx context.Context, runID uuid.UUID) ([]model.AuditSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.data.auditSamplesByRun(runID), nil
}

func (m *Memory) ExportDataset(ctx context.Context, req ExportRequest) (ExportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ExportResult{}, ErrClosed
	}

	now := time.Now().UTC()
	version, err := exportDataset(m.data, req, now)
	if err != nil {
		return ExportResult{}, err
	}
	m.data.upsertVersion(version, now)
	return ExportResult{Version: version, FilePath: version.Path}, nil
}

func (m *Memory) RecordPipelineRun(ctx context.Context, run model.PipelineRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data.upsertPipelineRun(run, time.Now().UTC())
	return nil
}

func (m *Memory) RecordPipelineStage(ctx context.Context, log model.PipelineStageLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data.upsertStageLog(log, time.Now().UTC())
	return nil
}

func (m *Memory) FetchPipelineRuns(ctx context.Context, limit int) ([]model.PipelineRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.data.fetchPipelineRuns(limit), nil
}

func (m *Memory) FetchPipelineStages(ctx context.Context, runID uuid.UUID) ([]model.PipelineStageLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.data.fetchPipelineStages(runID), nil
}

func (m *Memory) UpsertViewpoints(ctx context.Context, viewpoints []model.Viewpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data.upsertViewpoints(viewpoints, time.Now().UTC())
	return nil
}

func (m *Memory) FetchViewpointsByQuery(ctx context.Context, q ViewpointQuery) ([]model.Viewpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.data.viewpointsByQuery(q), nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
