package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicconel11/TruthLayer-sub003/internal/ingest"
	"github.com/cicconel11/TruthLayer-sub003/internal/model"
	"github.com/cicconel11/TruthLayer-sub003/internal/storage"
	"github.com/cicconel11/TruthLayer-sub003/internal/testutil"
)

// captureStore records what ingestion hands to the store, in call order,
// while still delegating to a real in-memory backend.
type captureStore struct {
	storage.Store
	calls   []string
	runs    []model.CrawlRun
	results []model.SearchResult
}

func newCaptureStore() *captureStore {
	return &captureStore{Store: storage.NewMemory()}
}

func (c *captureStore) RecordCrawlRuns(ctx context.Context, runs []model.CrawlRun) error {
	c.calls = append(c.calls, "crawl_runs")
	c.runs = append(c.runs, runs...)
	return c.Store.RecordCrawlRuns(ctx, runs)
}

func (c *captureStore) InsertSearchResults(ctx context.Context, results []model.SearchResult) error {
	c.calls = append(c.calls, "search_results")
	c.results = append(c.results, results...)
	return c.Store.InsertSearchResults(ctx, results)
}

type failingStore struct {
	storage.Store
	err error
}

func (f *failingStore) RecordCrawlRuns(context.Context, []model.CrawlRun) error {
	return f.err
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func pendingResults(t *testing.T, s storage.Store) []model.SearchResult {
	t.Helper()
	rows, err := s.FetchPendingAnnotations(context.Background(), storage.PendingAnnotationQuery{})
	require.NoError(t, err)
	return rows
}

func TestIngestMissingDirectory(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	ing := ingest.New(storage.NewMemory(), logger)

	sum, err := ing.IngestDirectory(context.Background(), filepath.Join(t.TempDir(), "absent"), uuid.New(), "data/serp")
	require.NoError(t, err)
	assert.Equal(t, ingest.Summary{}, sum)
	assert.True(t, logs.Contains("no JSON output files detected"))
}

func TestIngestEmptyDirectory(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	ing := ingest.New(storage.NewMemory(), logger)

	sum, err := ing.IngestDirectory(context.Background(), t.TempDir(), uuid.New(), "data/serp")
	require.NoError(t, err)
	assert.Equal(t, ingest.Summary{}, sum)
	assert.True(t, logs.Contains("no JSON output files detected"))
}

func TestIngestNormalizesRecords(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "results.json", `[
		{"queryId":"q1","engine":"google","url":"https://news.example/story","title":"Story","snippet":"Lead paragraph","rank":2,"domain":"news.example","timestamp":"2026-03-14T09:26:53Z","rawHtmlPath":"/tmp/raw/google-q1.html"},
		{"queryId":"q1","engine":"bing","url":"https://blog.example/post","rank":"3"}
	]`)

	s := storage.NewMemory()
	ing := ingest.New(s, testutil.TestLogger())
	sum, err := ing.IngestDirectory(context.Background(), dir, uuid.New(), "data/serp")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.IngestedResults)
	assert.Equal(t, 2, sum.Runs)
	assert.Zero(t, sum.HashDuplicateCount)
	assert.Zero(t, sum.URLDuplicateCount)

	rows := pendingResults(t, s)
	require.Len(t, rows, 2)

	full := rows[0]
	assert.Equal(t, "google", full.Engine)
	assert.Equal(t, 2, full.Rank)
	assert.Equal(t, "news.example", full.Domain)
	assert.Equal(t, "Lead paragraph", full.Snippet)
	assert.Equal(t, "https://news.example/story", full.NormalizedURL, "normalizedUrl falls back to url")
	assert.Equal(t, "/tmp/raw/google-q1.html", full.RawHTMLPath)
	assert.True(t, full.Timestamp.Equal(time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)))
	require.NotNil(t, full.CrawlRunID)

	minimal := rows[1]
	assert.Equal(t, "bing", minimal.Engine)
	assert.Equal(t, minimal.URL, minimal.Title, "title falls back to url")
	assert.Equal(t, minimal.URL, minimal.NormalizedURL)
	assert.Equal(t, "blog.example", minimal.Domain, "domain derived from url host")
	assert.Equal(t, 3, minimal.Rank, "string rank parsed")
	assert.Equal(t, filepath.Join("data/serp", "raw_html", "bing-q1.html"), minimal.RawHTMLPath)
	assert.False(t, minimal.Timestamp.IsZero(), "missing timestamp falls back to now")
}

func TestIngestSynthesizesHash(t *testing.T) {
	dir := t.TempDir()
	supplied := strings.Repeat("ab", 32)
	writeFile(t, dir, "results.json", `[
		{"queryId":"q1","engine":"google","url":"https://a.example/1","title":"Kept","hash":"`+supplied+`","timestamp":"2026-03-14T09:00:00Z"},
		{"queryId":"q1","engine":"google","url":"https://a.example/2","title":"Synth","hash":"not-hex","timestamp":"2026-03-14T09:00:00Z"}
	]`)

	s := storage.NewMemory()
	ing := ingest.New(s, testutil.TestLogger())
	_, err := ing.IngestDirectory(context.Background(), dir, uuid.New(), "data/serp")
	require.NoError(t, err)

	rows := pendingResults(t, s)
	require.Len(t, rows, 2)
	for _, r := range rows {
		switch r.Title {
		case "Kept":
			assert.Equal(t, supplied, r.Hash)
		case "Synth":
			assert.Equal(t, model.ResultHash(r.URL, r.Title, r.Snippet, r.Timestamp), r.Hash)
		}
	}
}

func TestIngestDedupesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "01.json", `[{"queryId":"q1","engine":"google","url":"https://a","title":"First","timestamp":"2026-03-01T00:00:00Z"}]`)
	writeFile(t, dir, "02.json", `[{"queryId":"q1","engine":"google","url":"https://a","title":"Second","timestamp":"2026-03-02T00:00:00Z"}]`)

	cs := newCaptureStore()
	ing := ingest.New(cs, testutil.TestLogger())
	sum, err := ing.IngestDirectory(context.Background(), dir, uuid.New(), "data/serp")
	require.NoError(t, err)

	assert.Equal(t, 1, sum.IngestedResults)
	assert.Equal(t, 1, sum.Runs)
	assert.GreaterOrEqual(t, sum.URLDuplicateCount, 1)

	rows := pendingResults(t, cs.Store)
	require.Len(t, rows, 1, "last occurrence wins")
	assert.Equal(t, "Second", rows[0].Title)
	assert.True(t, rows[0].Timestamp.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))

	require.Len(t, cs.runs, 1)
	run := cs.runs[0]
	assert.Equal(t, 1, run.ResultCount, "count reflects the deduplicated list")
	assert.True(t, run.StartedAt.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, run.CompletedAt)
	assert.True(t, run.CompletedAt.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
}

func TestIngestReconstructsCrawlRuns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "results.json", `[
		{"queryId":"q1","engine":"google","url":"https://a.example/1","title":"A","crawlRunId":"crawl-google-1","timestamp":"2026-03-01T08:00:00Z"},
		{"queryId":"q1","engine":"google","url":"https://a.example/2","title":"B","timestamp":"2026-03-01T09:00:00Z"},
		{"queryId":"q1","engine":"bing","url":"https://b.example/1","title":"C","timestamp":"2026-03-01T08:30:00Z"}
	]`)

	runID := uuid.New()
	cs := newCaptureStore()
	ing := ingest.New(cs, testutil.TestLogger())
	sum, err := ing.IngestDirectory(context.Background(), dir, runID, "data/serp")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Runs)

	assert.Equal(t, []string{"crawl_runs", "search_results"}, cs.calls, "runs commit before results")

	require.Len(t, cs.runs, 2)
	byEngine := map[string]model.CrawlRun{}
	for _, r := range cs.runs {
		byEngine[r.Engine] = r
		assert.Equal(t, runID.String(), r.BatchID)
		assert.Equal(t, model.RunStatusCompleted, r.Status)
	}
	google := byEngine["google"]
	assert.Equal(t, "crawl-google-1", google.ID, "supplied crawlRunId names the run")
	assert.Equal(t, 2, google.ResultCount)
	require.NotNil(t, google.CompletedAt)
	assert.True(t, google.CompletedAt.Equal(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, byEngine["bing"].ResultCount)

	for _, res := range cs.results {
		if res.Engine == "google" {
			require.NotNil(t, res.CrawlRunID)
			assert.Equal(t, "crawl-google-1", *res.CrawlRunID, "results link to the shared run")
		}
	}
}

func TestIngestSkipsMalformedInput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", `{"not":"an array"}`)
	writeFile(t, dir, "mixed.json", `[
		42,
		{"engine":"google","url":"https://a.example/","title":"missing query id"},
		{"queryId":"q1","engine":"google","url":"https://ok.example/","title":"OK"}
	]`)

	logger, logs := testutil.CaptureLogger()
	s := storage.NewMemory()
	ing := ingest.New(s, logger)
	sum, err := ing.IngestDirectory(context.Background(), dir, uuid.New(), "data/serp")
	require.NoError(t, err)

	assert.Equal(t, 1, sum.IngestedResults)
	assert.True(t, logs.Contains("not a JSON array"))

	rows := pendingResults(t, s)
	require.Len(t, rows, 1)
	assert.Equal(t, "OK", rows[0].Title)
}

func TestIngestHashDuplicateTally(t *testing.T) {
	dir := t.TempDir()
	hash := strings.Repeat("0f", 32)
	writeFile(t, dir, "results.json", `[
		{"queryId":"q1","engine":"google","url":"https://a.example/1","title":"A","hash":"`+hash+`"},
		{"queryId":"q1","engine":"bing","url":"https://a.example/2","title":"B","hash":"`+hash+`"}
	]`)

	ing := ingest.New(storage.NewMemory(), testutil.TestLogger())
	sum, err := ing.IngestDirectory(context.Background(), dir, uuid.New(), "data/serp")
	require.NoError(t, err)

	assert.Equal(t, 2, sum.IngestedResults, "same content on different urls still persists twice")
	assert.Equal(t, 1, sum.HashDuplicateCount)
	assert.Zero(t, sum.URLDuplicateCount)
}

func TestIngestSurfacesStorageErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "results.json", `[{"queryId":"q1","engine":"google","url":"https://a.example/","title":"A"}]`)

	boom := errors.New("disk full")
	ing := ingest.New(&failingStore{Store: storage.NewMemory(), err: boom}, testutil.TestLogger())
	_, err := ing.IngestDirectory(context.Background(), dir, uuid.New(), "data/serp")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestVerifyOutputDir(t *testing.T) {
	t.Run("missing directory warns", func(t *testing.T) {
		logger, logs := testutil.CaptureLogger()
		ing := ingest.New(storage.NewMemory(), logger)
		assert.Zero(t, ing.VerifyOutputDir(filepath.Join(t.TempDir(), "absent")))
		assert.True(t, logs.Contains("no JSON output files detected"))
	})

	t.Run("counts parseable files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "good.json", `[{"queryId":"q1","engine":"google","url":"https://a.example/","title":"A"}]`)
		writeFile(t, dir, "bad.json", `{"object":"not array"}`)
		writeFile(t, dir, "partial.json", `[{"engine":"google","url":"https://a.example/"}, {"queryId":"q2","engine":"bing","url":"https://b.example/","title":"B"}]`)
		writeFile(t, dir, "ignored.txt", `not json`)

		logger, logs := testutil.CaptureLogger()
		ing := ingest.New(storage.NewMemory(), logger)
		assert.Equal(t, 2, ing.VerifyOutputDir(dir))
		assert.True(t, logs.Contains("not a JSON array"))
		assert.True(t, logs.Contains("invalid items"))
	})
}
