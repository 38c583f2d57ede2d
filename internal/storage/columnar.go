package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cicconel11/TruthLayer-sub003/internal/model"
)

// Columnar is the persistent Store backend. Every logical table lives in one
// Parquet file under the warehouse directory; the full working set is loaded
// on open and each mutation rewrites the affected table file atomically.
type Columnar struct {
	mu     sync.Mutex
	closed bool
	dir    string
	data   *tables
}

// OpenColumnar opens (creating if needed) a warehouse directory and loads
// all table files into the working set.
func OpenColumnar(dir string) (*Columnar, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create warehouse dir: %w", err)
	}

	c := &Columnar{dir: dir, data: newTables()}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Columnar) load() error {
	if err := loadTable(c.dir, tableSearchResults, fromSearchResultRow, func(r model.SearchResult) string { return r.ID.String() }, c.data.searchResults); err != nil {
		return err
	}
	if err := loadTable(c.dir, tableCrawlRuns, noErr(fromCrawlRunRow), func(r model.CrawlRun) string { return r.ID }, c.data.crawlRuns); err != nil {
		return err
	}
	if err := loadTable(c.dir, tableAnnotations, fromAnnotationRow, func(a model.Annotation) string { return a.ID }, c.data.annotations); err != nil {
		return err
	}
	if err := loadTable(c.dir, tableAggregates, fromAggregateRow, func(a model.AnnotationAggregate) string { return a.ID }, c.data.aggregates); err != nil {
		return err
	}
	if err := loadTable(c.dir, tableMetricRecords, fromMetricRecordRow, func(m model.MetricRecord) string { return m.ID }, c.data.metricRecords); err != nil {
		return err
	}
	if err := loadTable(c.dir, tableAuditSamples, fromAuditSampleRow, func(s model.AuditSample) string { return s.ID.String() }, c.data.auditSamples); err != nil {
		return err
	}
	if err := loadTable(c.dir, tablePipelineRuns, fromPipelineRunRow, func(r model.PipelineRun) string { return r.ID.String() }, c.data.pipelineRuns); err != nil {
		return err
	}
	if err := loadTable(c.dir, tableStageLogs, fromStageLogRow, func(l model.PipelineStageLog) string { return l.ID.String() }, c.data.stageLogs); err != nil {
		return err
	}
	if err := loadTable(c.dir, tableVersions, fromVersionRow, func(v model.DatasetVersion) string { return v.ID.String() }, c.data.versions); err != nil {
		return err
	}
	return loadTable(c.dir, tableViewpoints, fromViewpointRow, func(v model.Viewpoint) string { return v.ID }, c.data.viewpoints)
}

func (c *Columnar) InsertSearchResults(ctx context.Context, results []model.SearchResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.data.upsertSearchResults(results, time.Now().UTC())
	return flushTable(c.dir, tableSearchResults, c.data.searchResults, noErr(toSearchResultRow))
}

func (c *Columnar) RecordCrawlRuns(ctx context.Context, runs []model.CrawlRun) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.data.upsertCrawlRuns(runs, time.Now().UTC())
	return flushTable(c.dir, tableCrawlRuns, c.data.crawlRuns, noErr(toCrawlRunRow))
}

func (c *Columnar) InsertAnnotations(ctx context.Context, annotations []model.Annotation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.data.upsertAnnotations(annotations, time.Now().UTC())
	return flushTable(c.dir, tableAnnotations, c.data.annotations, toAnnotationRow)
}

func (c *Columnar) FetchPendingAnnotations(ctx context.Context, q PendingAnnotationQuery) ([]model.SearchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	return c.data.pendingAnnotations(q), nil
}

func (c *Columnar) FetchAnnotatedResults(ctx context.Context, q AnnotatedResultQuery) ([]model.AnnotatedResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	return c.data.fetchAnnotatedResults(q), nil
}

func (c *Columnar) FetchAlternativeSources(ctx context.Context, q AlternativeSourceQuery) ([]model.AnnotatedResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	return c.data.alternativeSources(q), nil
}

func (c *Columnar) InsertMetricRecords(ctx context.Context, records []model.MetricRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.data.upsertMetricRecords(records, time.Now().UTC())
	return flushTable(c.dir, tableMetricRecords, c.data.metricRecords, toMetricRecordRow)
}

func (c *Columnar) FetchRecentMetricRecords(ctx context.Context, metricType string, limit int) ([]model.MetricRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	return c.data.recentMetricRecords(metricType, limit), nil
}

func (c *Columnar) UpsertAnnotationAggregates(ctx context.Context, aggregates []model.AnnotationAggregate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.data.upsertAggregates(aggregates, time.Now().UTC())
	return flushTable(c.dir, tableAggregates, c.data.aggregates, toAggregateRow)
}

func (c *Columnar) FetchAnnotationAggregates(ctx context.Context, q AnnotationAggregateQuery) ([]model.AnnotationAggregate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	return c.data.fetchAggregates(q), nil
}

func (c *Columnar) RecordAuditSamples(ctx context.Context, samples []model.AuditSample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.data.upsertAuditSamples(samples, time.Now().UTC())
	return flushTable(c.dir, tableAuditSamples, c.data.auditSamples, noErr(toAuditSampleRow))
}

func (c *Columnar) FetchAuditSamples(ctx context.Context, runID uuid.UUID) ([]model.AuditSample, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	return c.data.auditSamplesByRun(runID), nil
}

func (c *Columnar) ExportDataset(ctx context.Context, req ExportRequest) (ExportResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ExportResult{}, ErrClosed
	}

	now := time.Now().UTC()
	version, err := exportDataset(c.data, req, now)
	if err != nil {
		return ExportResult{}, err
	}
	c.data.upsertVersion(version, now)
	if err := flushTable(c.dir, tableVersions, c.data.versions, toVersionRow); err != nil {
		return ExportResult{}, err
	}
	return ExportResult{Version: version, FilePath: version.Path}, nil
}

func (c *Columnar) RecordPipelineRun(ctx context.Context, run model.PipelineRun) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.data.upsertPipelineRun(run, time.Now().UTC())
	return flushTable(c.dir, tablePipelineRuns, c.data.pipelineRuns, toPipelineRunRow)
}

func (c *Columnar) RecordPipelineStage(ctx context.Context, log model.PipelineStageLog) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.data.upsertStageLog(log, time.Now().UTC())
	return flushTable(c.dir, tableStageLogs, c.data.stageLogs, toStageLogRow)
}

func (c *Columnar) FetchPipelineRuns(ctx context.Context, limit int) ([]model.PipelineRun, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	return c.data.fetchPipelineRuns(limit), nil
}

func (c *Columnar) FetchPipelineStages(ctx context.Context, runID uuid.UUID) ([]model.PipelineStageLog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	return c.data.fetchPipelineStages(runID), nil
}

func (c *Columnar) UpsertViewpoints(ctx context.Context, viewpoints []model.Viewpoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.data.upsertViewpoints(viewpoints, time.Now().UTC())
	return flushTable(c.dir, tableViewpoints, c.data.viewpoints, toViewpointRow)
}

func (c *Columnar) FetchViewpointsByQuery(ctx context.Context, q ViewpointQuery) ([]model.Viewpoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	return c.data.viewpointsByQuery(q), nil
}

func (c *Columnar) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// flushTable rewrites one table file from the working set, rows ordered by
// primary key so file contents stay deterministic.
func flushTable[V any, R any](dir, name string, m map[string]V, conv func(V) (R, error)) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]R, 0, len(m))
	for _, k := range keys {
		row, err := conv(m[k])
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return writeParquet(filepath.Join(dir, name+".parquet"), rows)
}

// loadTable reads one table file into the working set map.
func loadTable[R any, V any](dir, name string, conv func(R) (V, error), key func(V) string, dst map[string]V) error {
	rows, err := readParquet[R](filepath.Join(dir, name+".parquet"))
	if err != nil {
		return err
	}
	for _, row := range rows {
		v, err := conv(row)
		if err != nil {
			return err
		}
		dst[key(v)] = v
	}
	return nil
}

// noErr adapts an infallible conversion to the fallible signature flushTable
// and loadTable expect.
func noErr[A any, B any](f func(A) B) func(A) (B, error) {
	return func(a A) (B, error) { return f(a), nil }
}
