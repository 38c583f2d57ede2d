package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cicconel11/TruthLayer-sub003/internal/model"
)

// Logical table names. Each backs one Parquet file in the warehouse
// directory and doubles as the dataset type name where applicable.
const (
	tableSearchResults = "search_results"
	tableCrawlRuns     = "crawl_runs"
	tableAnnotations   = "annotations"
	tableAggregates    = "annotation_aggregates"
	tableMetricRecords = "metric_records"
	tableAuditSamples  = "audit_samples"
	tablePipelineRuns  = "pipeline_runs"
	tableStageLogs     = "pipeline_stage_logs"
	tableVersions      = "dataset_versions"
	tableViewpoints    = "viewpoints"
)

// Row types mirror the model entities column by column. Timestamps are unix
// nanos (0 = absent), free-form maps are JSON strings, nullable columns are
// pointers marked optional.

type searchResultRow struct {
	ID            string  `parquet:"id,snappy"`
	CrawlRunID    *string `parquet:"crawl_run_id,optional,snappy"`
	QueryID       string  `parquet:"query_id,snappy,dict"`
	Engine        string  `parquet:"engine,snappy,dict"`
	Rank          int32   `parquet:"rank,delta"`
	Title         string  `parquet:"title,snappy"`
	Snippet       string  `parquet:"snippet,snappy"`
	URL           string  `parquet:"url,snappy"`
	NormalizedURL string  `parquet:"normalized_url,snappy"`
	Domain        string  `parquet:"domain,snappy,dict"`
	Timestamp     int64   `parquet:"timestamp,delta"`
	Hash          string  `parquet:"hash,snappy"`
	RawHTMLPath   string  `parquet:"raw_html_path,snappy"`
	CreatedAt     int64   `parquet:"created_at,delta"`
	UpdatedAt     int64   `parquet:"updated_at,delta"`
}

type crawlRunRow struct {
	ID          string `parquet:"id,snappy"`
	BatchID     string `parquet:"batch_id,snappy,dict"`
	QueryID     string `parquet:"query_id,snappy,dict"`
	Engine      string `parquet:"engine,snappy,dict"`
	Status      string `parquet:"status,snappy,dict"`
	StartedAt   int64  `parquet:"started_at,delta"`
	CompletedAt int64  `parquet:"completed_at,delta"`
	Error       string `parquet:"error,snappy"`
	ResultCount int32  `parquet:"result_count,delta"`
	CreatedAt   int64  `parquet:"created_at,delta"`
	UpdatedAt   int64  `parquet:"updated_at,delta"`
}

type annotationRow struct {
	ID                 string   `parquet:"id,snappy"`
	SearchResultID     string   `parquet:"search_result_id,snappy"`
	QueryID            string   `parquet:"query_id,snappy,dict"`
	Engine             string   `parquet:"engine,snappy,dict"`
	DomainType         string   `parquet:"domain_type,snappy,dict"`
	FactualConsistency string   `parquet:"factual_consistency,snappy,dict"`
	Confidence         *float64 `parquet:"confidence,optional"`
	PromptVersion      string   `parquet:"prompt_version,snappy,dict"`
	ModelID            string   `parquet:"model_id,snappy,dict"`
	Extra              string   `parquet:"extra,snappy"`
	CreatedAt          int64    `parquet:"created_at,delta"`
	UpdatedAt          int64    `parquet:"updated_at,delta"`
}

type aggregateRow struct {
	ID                 string  `parquet:"id,snappy"`
	RunID              string  `parquet:"run_id,snappy,dict"`
	QueryID            string  `parquet:"query_id,snappy,dict"`
	Engine             *string `parquet:"engine,optional,snappy,dict"`
	DomainType         string  `parquet:"domain_type,snappy,dict"`
	FactualConsistency string  `parquet:"factual_consistency,snappy,dict"`
	Count              int32   `parquet:"count,delta"`
	TotalAnnotations   int32   `parquet:"total_annotations,delta"`
	CollectedAt        int64   `parquet:"collected_at,delta"`
	Extra              string  `parquet:"extra,snappy"`
	CreatedAt          int64   `parquet:"created_at,delta"`
}

type metricRecordRow struct {
	ID              string   `parquet:"id,snappy"`
	CrawlRunID      *string  `parquet:"crawl_run_id,optional,snappy"`
	QueryID         string   `parquet:"query_id,snappy,dict"`
	Engine          *string  `parquet:"engine,optional,snappy,dict"`
	MetricType      string   `parquet:"metric_type,snappy,dict"`
	Value           float64  `parquet:"value"`
	Delta           *float64 `parquet:"delta,optional"`
	ComparedToRunID *string  `parquet:"compared_to_run_id,optional,snappy"`
	CollectedAt     int64    `parquet:"collected_at,delta"`
	Extra           string   `parquet:"extra,snappy"`
	CreatedAt       int64    `parquet:"created_at,delta"`
}

type auditSampleRow struct {
	ID           string  `parquet:"id,snappy"`
	RunID        string  `parquet:"run_id,snappy,dict"`
	AnnotationID string  `parquet:"annotation_id,snappy"`
	QueryID      string  `parquet:"query_id,snappy,dict"`
	Engine       string  `parquet:"engine,snappy,dict"`
	Reviewer     *string `parquet:"reviewer,optional,snappy"`
	Status       string  `parquet:"status,snappy,dict"`
	Notes        *string `parquet:"notes,optional,snappy"`
	CreatedAt    int64   `parquet:"created_at,delta"`
	UpdatedAt    int64   `parquet:"updated_at,delta"`
}

type pipelineRunRow struct {
	ID          string `parquet:"id,snappy"`
	Status      string `parquet:"status,snappy,dict"`
	StartedAt   int64  `parquet:"started_at,delta"`
	CompletedAt int64  `parquet:"completed_at,delta"`
	Error       string `parquet:"error,snappy"`
	Metadata    string `parquet:"metadata,snappy"`
	CreatedAt   int64  `parquet:"created_at,delta"`
	UpdatedAt   int64  `parquet:"updated_at,delta"`
}

type stageLogRow struct {
	ID          string `parquet:"id,snappy"`
	RunID       string `parquet:"run_id,snappy,dict"`
	Stage       string `parquet:"stage,snappy,dict"`
	Status      string `parquet:"status,snappy,dict"`
	Attempts    int32  `parquet:"attempts,delta"`
	StartedAt   int64  `parquet:"started_at,delta"`
	CompletedAt int64  `parquet:"completed_at,delta"`
	Error       string `parquet:"error,snappy"`
	Metadata    string `parquet:"metadata,snappy"`
	CreatedAt   int64  `parquet:"created_at,delta"`
	UpdatedAt   int64  `parquet:"updated_at,delta"`
}

type versionRow struct {
	ID          string  `parquet:"id,snappy"`
	DatasetType string  `parquet:"dataset_type,snappy,dict"`
	Format      string  `parquet:"format,snappy,dict"`
	Path        string  `parquet:"path,snappy"`
	RunID       *string `parquet:"run_id,optional,snappy"`
	RecordCount int32   `parquet:"record_count,delta"`
	Metadata    string  `parquet:"metadata,snappy"`
	CreatedAt   int64   `parquet:"created_at,delta"`
}

type viewpointRow struct {
	ID             string   `parquet:"id,snappy"`
	RunID          *string  `parquet:"run_id,optional,snappy,dict"`
	QueryID        string   `parquet:"query_id,snappy,dict"`
	Engine         string   `parquet:"engine,snappy,dict"`
	SearchResultID *string  `parquet:"search_result_id,optional,snappy"`
	Stance         string   `parquet:"stance,snappy,dict"`
	Topic          string   `parquet:"topic,snappy,dict"`
	Confidence     *float64 `parquet:"confidence,optional"`
	Summary        string   `parquet:"summary,snappy"`
	Extra          string   `parquet:"extra,snappy"`
	CreatedAt      int64    `parquet:"created_at,delta"`
	UpdatedAt      int64    `parquet:"updated_at,delta"`
}

// annotatedResultRow is export-only: the view projection is never stored as
// its own table.
type annotatedResultRow struct {
	RunID              string  `parquet:"run_id,snappy,dict"`
	BatchID            *string `parquet:"batch_id,optional,snappy,dict"`
	AnnotationID       string  `parquet:"annotation_id,snappy"`
	QueryID            string  `parquet:"query_id,snappy,dict"`
	Engine             string  `parquet:"engine,snappy,dict"`
	NormalizedURL      string  `parquet:"normalized_url,snappy"`
	Domain             string  `parquet:"domain,snappy,dict"`
	Rank               int32   `parquet:"rank,delta"`
	FactualConsistency string  `parquet:"factual_consistency,snappy,dict"`
	DomainType         string  `parquet:"domain_type,snappy,dict"`
	CollectedAt        int64   `parquet:"collected_at,delta"`
}

func toNanos(ts time.Time) int64 {
	if ts.IsZero() {
		return 0
	}
	return ts.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func toNanosOpt(ts *time.Time) int64 {
	if ts == nil {
		return 0
	}
	return toNanos(*ts)
}

func fromNanosOpt(n int64) *time.Time {
	if n == 0 {
		return nil
	}
	ts := fromNanos(n)
	return &ts
}

func marshalExtra(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("storage: encode json column: %w", err)
	}
	return string(b), nil
}

func unmarshalExtra(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("storage: decode json column: %w", err)
	}
	return m, nil
}

func toSearchResultRow(r model.SearchResult) searchResultRow {
	return searchResultRow{
		ID:            r.ID.String(),
		CrawlRunID:    r.CrawlRunID,
		QueryID:       r.QueryID,
		Engine:        r.Engine,
		Rank:          int32(r.Rank),
		Title:         r.Title,
		Snippet:       r.Snippet,
		URL:           r.URL,
		NormalizedURL: r.NormalizedURL,
		Domain:        r.Domain,
		Timestamp:     toNanos(r.Timestamp),
		Hash:          r.Hash,
		RawHTMLPath:   r.RawHTMLPath,
		CreatedAt:     toNanos(r.CreatedAt),
		UpdatedAt:     toNanos(r.UpdatedAt),
	}
}

func fromSearchResultRow(r searchResultRow) (model.SearchResult, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return model.SearchResult{}, fmt.Errorf("storage: parse search result id %q: %w", r.ID, err)
	}
	return model.SearchResult{
		ID:            id,
		CrawlRunID:    r.CrawlRunID,
		QueryID:       r.QueryID,
		Engine:        r.Engine,
		Rank:          int(r.Rank),
		Title:         r.Title,
		Snippet:       r.Snippet,
		URL:           r.URL,
		NormalizedURL: r.NormalizedURL,
		Domain:        r.Domain,
		Timestamp:     fromNanos(r.Timestamp),
		Hash:          r.Hash,
		RawHTMLPath:   r.RawHTMLPath,
		CreatedAt:     fromNanos(r.CreatedAt),
		UpdatedAt:     fromNanos(r.UpdatedAt),
	}, nil
}

func toCrawlRunRow(r model.CrawlRun) crawlRunRow {
	return crawlRunRow{
		ID:          r.ID,
		BatchID:     r.BatchID,
		QueryID:     r.QueryID,
		Engine:      r.Engine,
		Status:      string(r.Status),
		StartedAt:   toNanos(r.StartedAt),
		CompletedAt: toNanosOpt(r.CompletedAt),
		Error:       r.Error,
		ResultCount: int32(r.ResultCount),
		CreatedAt:   toNanos(r.CreatedAt),
		UpdatedAt:   toNanos(r.UpdatedAt),
	}
}

func fromCrawlRunRow(r crawlRunRow) model.CrawlRun {
	return model.CrawlRun{
		ID:          r.ID,
		BatchID:     r.BatchID,
		QueryID:     r.QueryID,
		Engine:      r.Engine,
		Status:      model.RunStatus(r.Status),
		StartedAt:   fromNanos(r.StartedAt),
		CompletedAt: fromNanosOpt(r.CompletedAt),
		Error:       r.Error,
		ResultCount: int(r.ResultCount),
		CreatedAt:   fromNanos(r.CreatedAt),
		UpdatedAt:   fromNanos(r.UpdatedAt),
	}
}

func toAnnotationRow(a model.Annotation) (annotationRow, error) {
	extra, err := marshalExtra(a.Extra)
	if err != nil {
		return annotationRow{}, err
	}
	return annotationRow{
		ID:                 a.ID,
		SearchResultID:     a.SearchResultID,
		QueryID:            a.QueryID,
		Engine:             a.Engine,
		DomainType:         string(a.DomainType),
		FactualConsistency: string(a.FactualConsistency),
		Confidence:         a.Confidence,
		PromptVersion:      a.PromptVersion,
		ModelID:            a.ModelID,
		Extra:              extra,
		CreatedAt:          toNanos(a.CreatedAt),
		UpdatedAt:          toNanos(a.UpdatedAt),
	}, nil
}

func fromAnnotationRow(r annotationRow) (model.Annotation, error) {
	extra, err := unmarshalExtra(r.Extra)
	if err != nil {
		return model.Annotation{}, err
	}
	return model.Annotation{
		ID:                 r.ID,
		SearchResultID:     r.SearchResultID,
		QueryID:            r.QueryID,
		Engine:             r.Engine,
		DomainType:         model.DomainType(r.DomainType),
		FactualConsistency: model.FactualConsistency(r.FactualConsistency),
		Confidence:         r.Confidence,
		PromptVersion:      r.PromptVersion,
		ModelID:            r.ModelID,
		Extra:              extra,
		CreatedAt:          fromNanos(r.CreatedAt),
		UpdatedAt:          fromNanos(r.UpdatedAt),
	}, nil
}

func toAggregateRow(a model.AnnotationAggregate) (aggregateRow, error) {
	extra, err := marshalExtra(a.Extra)
	if err != nil {
		return aggregateRow{}, err
	}
	return aggregateRow{
		ID:                 a.ID,
		RunID:              a.RunID,
		QueryID:            a.QueryID,
		Engine:             a.Engine,
		DomainType:         string(a.DomainType),
		FactualConsistency: string(a.FactualConsistency),
		Count:              int32(a.Count),
		TotalAnnotations:   int32(a.TotalAnnotations),
		CollectedAt:        toNanos(a.CollectedAt),
		Extra:              extra,
		CreatedAt:          toNanos(a.CreatedAt),
	}, nil
}

func fromAggregateRow(r aggregateRow) (model.AnnotationAggregate, error) {
	extra, err := unmarshalExtra(r.Extra)
	if err != nil {
		return model.AnnotationAggregate{}, err
	}
	return model.AnnotationAggregate{
		ID:                 r.ID,
		RunID:              r.RunID,
		QueryID:            r.QueryID,
		Engine:             r.Engine,
		DomainType:         model.DomainType(r.DomainType),
		FactualConsistency: model.FactualConsistency(r.FactualConsistency),
		Count:              int(r.Count),
		TotalAnnotations:   int(r.TotalAnnotations),
		CollectedAt:        fromNanos(r.CollectedAt),
		Extra:              extra,
		CreatedAt:          fromNanos(r.CreatedAt),
	}, nil
}

func toMetricRecordRow(m model.MetricRecord) (metricRecordRow, error) {
	extra, err := marshalExtra(m.Extra)
	if err != nil {
		return metricRecordRow{}, err
	}
	return metricRecordRow{
		ID:              m.ID,
		CrawlRunID:      m.CrawlRunID,
		QueryID:         m.QueryID,
		Engine:          m.Engine,
		MetricType:      m.MetricType,
		Value:           m.Value,
		Delta:           m.Delta,
		ComparedToRunID: m.ComparedToRunID,
		CollectedAt:     toNanos(m.CollectedAt),
		Extra:           extra,
		CreatedAt:       toNanos(m.CreatedAt),
	}, nil
}

func fromMetricRecordRow(r metricRecordRow) (model.MetricRecord, error) {
	extra, err := unmarshalExtra(r.Extra)
	if err != nil {
		return model.MetricRecord{}, err
	}
	return model.MetricRecord{
		ID:              r.ID,
		CrawlRunID:      r.CrawlRunID,
		QueryID:         r.QueryID,
		Engine:          r.Engine,
		MetricType:      r.MetricType,
		Value:           r.Value,
		Delta:           r.Delta,
		ComparedToRunID: r.ComparedToRunID,
		CollectedAt:     fromNanos(r.CollectedAt),
		Extra:           extra,
		CreatedAt:       fromNanos(r.CreatedAt),
	}, nil
}

func toAuditSampleRow(s model.AuditSample) auditSampleRow {
	return auditSampleRow{
		ID:           s.ID.String(),
		RunID:        s.RunID.String(),
		AnnotationID: s.AnnotationID,
		QueryID:      s.QueryID,
		Engine:       s.Engine,
		Reviewer:     s.Reviewer,
		Status:       string(s.Status),
		Notes:        s.Notes,
		CreatedAt:    toNanos(s.CreatedAt),
		UpdatedAt:    toNanos(s.UpdatedAt),
	}
}

func fromAuditSampleRow(r auditSampleRow) (model.AuditSample, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return model.AuditSample{}, fmt.Errorf("storage: parse audit sample id %q: %w", r.ID, err)
	}
	runID, err := uuid.Parse(r.RunID)
	if err != nil {
		return model.AuditSample{}, fmt.Errorf("storage: parse audit sample run id %q: %w", r.RunID, err)
	}
	return model.AuditSample{
		ID:           id,
		RunID:        runID,
		AnnotationID: r.AnnotationID,
		QueryID:      r.QueryID,
		Engine:       r.Engine,
		Reviewer:     r.Reviewer,
		Status:       model.AuditStatus(r.Status),
		Notes:        r.Notes,
		CreatedAt:    fromNanos(r.CreatedAt),
		UpdatedAt:    fromNanos(r.UpdatedAt),
	}, nil
}

func toPipelineRunRow(run model.PipelineRun) (pipelineRunRow, error) {
	metadata, err := marshalExtra(run.Metadata)
	if err != nil {
		return pipelineRunRow{}, err
	}
	return pipelineRunRow{
		ID:          run.ID.String(),
		Status:      string(run.Status),
		StartedAt:   toNanos(run.StartedAt),
		CompletedAt: toNanosOpt(run.CompletedAt),
		Error:       run.Error,
		Metadata:    metadata,
		CreatedAt:   toNanos(run.CreatedAt),
		UpdatedAt:   toNanos(run.UpdatedAt),
	}, nil
}

func fromPipelineRunRow(r pipelineRunRow) (model.PipelineRun, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return model.PipelineRun{}, fmt.Errorf("storage: parse pipeline run id %q: %w", r.ID, err)
	}
	metadata, err := unmarshalExtra(r.Metadata)
	if err != nil {
		return model.PipelineRun{}, err
	}
	return model.PipelineRun{
		ID:          id,
		Status:      model.RunStatus(r.Status),
		StartedAt:   fromNanos(r.StartedAt),
		CompletedAt: fromNanosOpt(r.CompletedAt),
		Error:       r.Error,
		Metadata:    metadata,
		CreatedAt:   fromNanos(r.CreatedAt),
		UpdatedAt:   fromNanos(r.UpdatedAt),
	}, nil
}

func toStageLogRow(log model.PipelineStageLog) (stageLogRow, error) {
	metadata, err := marshalExtra(log.Metadata)
	if err != nil {
		return stageLogRow{}, err
	}
	return stageLogRow{
		ID:          log.ID.String(),
		RunID:       log.RunID.String(),
		Stage:       log.Stage,
		Status:      string(log.Status),
		Attempts:    int32(log.Attempts),
		StartedAt:   toNanos(log.StartedAt),
		CompletedAt: toNanosOpt(log.CompletedAt),
		Error:       log.Error,
		Metadata:    metadata,
		CreatedAt:   toNanos(log.CreatedAt),
		UpdatedAt:   toNanos(log.UpdatedAt),
	}, nil
}

func fromStageLogRow(r stageLogRow) (model.PipelineStageLog, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return model.PipelineStageLog{}, fmt.Errorf("storage: parse stage log id %q: %w", r.ID, err)
	}
	runID, err := uuid.Parse(r.RunID)
	if err != nil {
		return model.PipelineStageLog{}, fmt.Errorf("storage: parse stage log run id %q: %w", r.RunID, err)
	}
	metadata, err := unmarshalExtra(r.Metadata)
	if err != nil {
		return model.PipelineStageLog{}, err
	}
	return model.PipelineStageLog{
		ID:          id,
		RunID:       runID,
		Stage:       r.Stage,
		Status:      model.RunStatus(r.Status),
		Attempts:    int(r.Attempts),
		StartedAt:   fromNanos(r.StartedAt),
		CompletedAt: fromNanosOpt(r.CompletedAt),
		Error:       r.Error,
		Metadata:    metadata,
		CreatedAt:   fromNanos(r.CreatedAt),
		UpdatedAt:   fromNanos(r.UpdatedAt),
	}, nil
}

func toVersionRow(v model.DatasetVersion) (versionRow, error) {
	metadata, err := marshalExtra(v.Metadata)
	if err != nil {
		return versionRow{}, err
	}
	var runID *string
	if v.RunID != nil {
		s := v.RunID.String()
		runID = &s
	}
	return versionRow{
		ID:          v.ID.String(),
		DatasetType: string(v.DatasetType),
		Format:      string(v.Format),
		Path:        v.Path,
		RunID:       runID,
		RecordCount: int32(v.RecordCount),
		Metadata:    metadata,
		CreatedAt:   toNanos(v.CreatedAt),
	}, nil
}

func fromVersionRow(r versionRow) (model.DatasetVersion, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return model.DatasetVersion{}, fmt.Errorf("storage: parse dataset version id %q: %w", r.ID, err)
	}
	metadata, err := unmarshalExtra(r.Metadata)
	if err != nil {
		return model.DatasetVersion{}, err
	}
	var runID *uuid.UUID
	if r.RunID != nil {
		parsed, err := uuid.Parse(*r.RunID)
		if err != nil {
			return model.DatasetVersion{}, fmt.Errorf("storage: parse dataset version run id %q: %w", *r.RunID, err)
		}
		runID = &parsed
	}
	return model.DatasetVersion{
		ID:          id,
		DatasetType: model.DatasetType(r.DatasetType),
		Format:      model.DatasetFormat(r.Format),
		Path:        r.Path,
		RunID:       runID,
		RecordCount: int(r.RecordCount),
		Metadata:    metadata,
		CreatedAt:   fromNanos(r.CreatedAt),
	}, nil
}

func toViewpointRow(v model.Viewpoint) (viewpointRow, error) {
	extra, err := marshalExtra(v.Extra)
	if err != nil {
		return viewpointRow{}, err
	}
	return viewpointRow{
		ID:             v.ID,
		RunID:          v.RunID,
		QueryID:        v.QueryID,
		Engine:         v.Engine,
		SearchResultID: v.SearchResultID,
		Stance:         string(v.Stance),
		Topic:          v.Topic,
		Confidence:     v.Confidence,
		Summary:        v.Summary,
		Extra:          extra,
		CreatedAt:      toNanos(v.CreatedAt),
		UpdatedAt:      toNanos(v.UpdatedAt),
	}, nil
}

func fromViewpointRow(r viewpointRow) (model.Viewpoint, error) {
	extra, err := unmarshalExtra(r.Extra)
	if err != nil {
		return model.Viewpoint{}, err
	}
	return model.Viewpoint{
		ID:             r.ID,
		RunID:          r.RunID,
		QueryID:        r.QueryID,
		Engine:         r.Engine,
		SearchResultID: r.SearchResultID,
		Stance:         model.Stance(r.Stance),
		Topic:          r.Topic,
		Confidence:     r.Confidence,
		Summary:        r.Summary,
		Extra:          extra,
		CreatedAt:      fromNanos(r.CreatedAt),
		UpdatedAt:      fromNanos(r.UpdatedAt),
	}, nil
}

func toAnnotatedResultRow(r model.AnnotatedResult) annotatedResultRow {
	return annotatedResultRow{
		RunID:              r.RunID,
		BatchID:            r.BatchID,
		AnnotationID:       r.AnnotationID,
		QueryID:            r.QueryID,
		Engine:             r.Engine,
		NormalizedURL:      r.NormalizedURL,
		Domain:             r.Domain,
		Rank:               int32(r.Rank),
		FactualConsistency: string(r.FactualConsistency),
		DomainType:         string(r.DomainType),
		CollectedAt:        toNanos(r.CollectedAt),
	}
}
