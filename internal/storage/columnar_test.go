package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicconel11/TruthLayer-sub003/internal/model"
	"github.com/cicconel11/TruthLayer-sub003/internal/storage"
)

func TestColumnarSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := storage.OpenColumnar(dir)
	require.NoError(t, err)

	crawlID := "crawl-1"
	batchID := uuid.New()
	require.NoError(t, s.RecordCrawlRuns(ctx, []model.CrawlRun{{
		ID: crawlID, BatchID: batchID.String(), QueryID: "q1", Engine: "google",
		Status: model.RunStatusCompleted, StartedAt: ts(20, 9), ResultCount: 1,
	}}))

	result := newResult("q1", "google", "https://a.example/1", 1, ts(20, 9))
	result.CrawlRunID = &crawlID
	result.Snippet = "snippet text"
	require.NoError(t, s.InsertSearchResults(ctx, []model.SearchResult{result}))

	conf := 0.92
	ann := newAnnotation(result.ID, "q1", "google", model.DomainTypeNews, model.FactualConsistencyAligned, ts(20, 10))
	ann.Confidence = &conf
	ann.Extra = map[string]any{"reviewed": true}
	require.NoError(t, s.InsertAnnotations(ctx, []model.Annotation{ann}))

	require.NoError(t, s.InsertMetricRecords(ctx, []model.MetricRecord{
		{ID: "m1", QueryID: "q1", MetricType: model.MetricDomainDiversity, Value: 0.7, CollectedAt: ts(20, 11)},
	}))

	runID := uuid.New()
	require.NoError(t, s.RecordPipelineRun(ctx, model.PipelineRun{
		ID: runID, Status: model.RunStatusCompleted, StartedAt: ts(20, 8),
		Metadata: map[string]any{"run_id": runID.String()},
	}))
	require.NoError(t, s.RecordPipelineStage(ctx, model.PipelineStageLog{
		ID: uuid.New(), RunID: runID, Stage: model.StageCollector,
		Status: model.RunStatusCompleted, Attempts: 1, StartedAt: ts(20, 8),
	}))
	require.NoError(t, s.RecordAuditSamples(ctx, []model.AuditSample{
		{ID: uuid.New(), RunID: runID, AnnotationID: ann.ID, QueryID: "q1", Engine: "google", Status: model.AuditStatusPending, CreatedAt: ts(20, 12)},
	}))
	run := runID.String()
	require.NoError(t, s.UpsertViewpoints(ctx, []model.Viewpoint{
		{ID: "v1", RunID: &run, QueryID: "q1", Engine: "google", Stance: model.StanceNeutral, CreatedAt: ts(20, 12)},
	}))
	require.NoError(t, s.Close())

	reopened, err := storage.OpenColumnar(dir)
	require.NoError(t, err)
	defer reopened.Close()

	pending, err := reopened.FetchPendingAnnotations(ctx, storage.PendingAnnotationQuery{})
	require.NoError(t, err)
	assert.Empty(t, pending, "the only result is annotated")

	rows, err := reopened.FetchAnnotatedResults(ctx, storage.AnnotatedResultQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, crawlID, rows[0].RunID)
	require.NotNil(t, rows[0].BatchID)
	assert.Equal(t, batchID.String(), *rows[0].BatchID)
	assert.Equal(t, model.FactualConsistencyAligned, rows[0].FactualConsistency)
	assert.True(t, rows[0].CollectedAt.Equal(ts(20, 9)))

	metrics, err := reopened.FetchRecentMetricRecords(ctx, model.MetricDomainDiversity, 10)
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, 0.7, metrics[0].Value)

	runs, err := reopened.FetchPipelineRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, runID.String(), runs[0].Metadata["run_id"])

	stages, err := reopened.FetchPipelineStages(ctx, runID)
	require.NoError(t, err)
	require.Len(t, stages, 1)
	assert.Equal(t, model.StageCollector, stages[0].Stage)

	samples, err := reopened.FetchAuditSamples(ctx, runID)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, ann.ID, samples[0].AnnotationID)

	vps, err := reopened.FetchViewpointsByQuery(ctx, storage.ViewpointQuery{QueryID: "q1"})
	require.NoError(t, err)
	require.Len(t, vps, 1)
	assert.Equal(t, model.StanceNeutral, vps[0].Stance)
}

func TestColumnarRoundTripsOptionalFields(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := storage.OpenColumnar(dir)
	require.NoError(t, err)

	conf := 0.5
	ann := newAnnotation(uuid.New(), "q1", "google", model.DomainTypeOther, model.FactualConsistencyUnclear, ts(21, 9))
	ann.Confidence = &conf
	require.NoError(t, s.InsertAnnotations(ctx, []model.Annotation{ann}))

	bare := newAnnotation(uuid.New(), "q1", "bing", model.DomainTypeOther, model.FactualConsistencyUnclear, ts(21, 9))
	require.NoError(t, s.InsertAnnotations(ctx, []model.Annotation{bare}))

	delta := -0.12
	compared := "run-0"
	require.NoError(t, s.InsertMetricRecords(ctx, []model.MetricRecord{
		{ID: "m1", QueryID: "q1", MetricType: model.MetricFactualAlignment, Value: 0.8, Delta: &delta, ComparedToRunID: &compared, CollectedAt: ts(21, 10)},
		{ID: "m2", QueryID: "q1", MetricType: model.MetricFactualAlignment, Value: 0.9, CollectedAt: ts(21, 9)},
	}))
	require.NoError(t, s.Close())

	reopened, err := storage.OpenColumnar(dir)
	require.NoError(t, err)
	defer reopened.Close()

	metrics, err := reopened.FetchRecentMetricRecords(ctx, model.MetricFactualAlignment, 10)
	require.NoError(t, err)
	require.Len(t, metrics, 2)

	withDelta := metrics[0]
	require.NotNil(t, withDelta.Delta)
	assert.Equal(t, -0.12, *withDelta.Delta)
	require.NotNil(t, withDelta.ComparedToRunID)
	assert.Equal(t, "run-0", *withDelta.ComparedToRunID)
	assert.Nil(t, metrics[1].Delta)
}

func TestColumnarWritesOneFilePerTable(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := storage.OpenColumnar(dir)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.InsertSearchResults(ctx, []model.SearchResult{
		newResult("q1", "google", "https://a.example/1", 1, ts(22, 9)),
	}))
	require.NoError(t, s.RecordCrawlRuns(ctx, []model.CrawlRun{
		{ID: "c1", BatchID: uuid.New().String(), QueryID: "q1", Engine: "google", Status: model.RunStatusCompleted, StartedAt: ts(22, 9)},
	}))

	for _, name := range []string{"search_results.parquet", "crawl_runs.parquet"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "expected table file %s", name)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "untouched tables have no files yet")
}

func TestOpenColumnarEmptyDirectory(t *testing.T) {
	s, err := storage.OpenColumnar(filepath.Join(t.TempDir(), "fresh"))
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.FetchPipelineRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
