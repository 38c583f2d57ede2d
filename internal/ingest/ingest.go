// Package ingest normalizes collector JSON output into search results and
// reconstructed crawl runs.
//
// Collector engines write heterogeneous JSON arrays into a shared output
// directory. Ingestion validates and normalizes each record, synthesizes the
// crawl-run aggregates per (queryId, engine), deduplicates results across
// files, and commits runs before the results that reference them.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cicconel11/TruthLayer-sub003/internal/model"
	"github.com/cicconel11/TruthLayer-sub003/internal/storage"
)

// Summary reports what one ingestion pass committed. The duplicate tallies
// are observational; duplicates are already collapsed before persistence.
type Summary struct {
	IngestedResults    int `json:"ingested_results"`
	Runs               int `json:"runs"`
	HashDuplicateCount int `json:"hash_duplicate_count"`
	URLDuplicateCount  int `json:"url_duplicate_count"`
}

// Ingestor reads collector output files and persists normalized search
// results plus the crawl runs reconstructed from them.
type Ingestor struct {
	store  storage.Store
	logger *slog.Logger
}

// New returns an Ingestor writing through the given store.
func New(store storage.Store, logger *slog.Logger) *Ingestor {
	return &Ingestor{store: store, logger: logger}
}

// collectorRecord mirrors one item of a collector output array. Rank stays
// raw because engines emit it as a number or a string.
type collectorRecord struct {
	QueryID       string          `json:"queryId"`
	Engine        string          `json:"engine"`
	URL           string          `json:"url"`
	Title         string          `json:"title"`
	Snippet       string          `json:"snippet"`
	Rank          json.RawMessage `json:"rank"`
	NormalizedURL string          `json:"normalizedUrl"`
	Domain        string          `json:"domain"`
	Timestamp     string          `json:"timestamp"`
	Hash          string          `json:"hash"`
	CrawlRunID    string          `json:"crawlRunId"`
	RawHTMLPath   string          `json:"rawHtmlPath"`
}

// IngestDirectory scans dir for *.json collector files and commits their
// contents under the given pipeline run id. A missing or empty directory is
// not an error; it logs a warning and returns a zero summary.
func (i *Ingestor) IngestDirectory(ctx context.Context, dir string, runID uuid.UUID, collectorOutputDir string) (Summary, error) {
	files, err := listJSONFiles(dir)
	if err != nil {
		return Summary{}, fmt.Errorf("ingest: read collector dir: %w", err)
	}
	if len(files) == 0 {
		i.logger.Warn("no JSON output files detected", "dir", dir)
		return Summary{}, nil
	}

	b := newBatch(runID, collectorOutputDir)
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			i.logger.Warn("skipping unreadable collector file", "file", path, "error", err)
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			i.logger.Warn("skipping collector file that is not a JSON array", "file", path, "error", err)
			continue
		}
		for _, item := range items {
			var rec collectorRecord
			if err := json.Unmarshal(item, &rec); err != nil {
				continue
			}
			b.add(rec)
		}
	}

	runs, results, summary := b.finish()
	if len(runs) > 0 {
		if err := i.store.RecordCrawlRuns(ctx, runs); err != nil {
			return Summary{}, fmt.Errorf("ingest: record crawl runs: %w", err)
		}
	}
	if len(results) > 0 {
		if err := i.store.InsertSearchResults(ctx, results); err != nil {
			return Summary{}, fmt.Errorf("ingest: insert search results: %w", err)
		}
	}

	i.logger.Info("collector output ingested",
		"dir", dir,
		"results", summary.IngestedResults,
		"runs", summary.Runs,
		"hash_duplicates", summary.HashDuplicateCount,
		"url_duplicates", summary.URLDuplicateCount)
	return summary, nil
}

// VerifyOutputDir inspects the collector output directory ahead of ingestion
// and warns about missing files or files that are not JSON arrays. It never
// fails; a bad directory only means an empty ingestion later. Returns the
// number of parseable files.
func (i *Ingestor) VerifyOutputDir(dir string) int {
	files, err := listJSONFiles(dir)
	if err != nil {
		i.logger.Warn("collector output dir is unreadable", "dir", dir, "error", err)
		return 0
	}
	if len(files) == 0 {
		i.logger.Warn("no JSON output files detected", "dir", dir)
		return 0
	}
	valid := 0
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			i.logger.Warn("skipping unreadable collector file", "file", path, "error", err)
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			i.logger.Warn("skipping collector file that is not a JSON array", "file", path, "error", err)
			continue
		}
		invalid := 0
		for _, item := range items {
			var rec collectorRecord
			if err := json.Unmarshal(item, &rec); err != nil {
				invalid++
				continue
			}
			if rec.QueryID == "" || rec.Engine == "" || rec.URL == "" {
				invalid++
			}
		}
		if invalid > 0 {
			i.logger.Warn("collector file contains invalid items", "file", path, "invalid", invalid, "total", len(items))
		}
		valid++
	}
	return valid
}

// listJSONFiles returns the *.json entries of dir in name order. A missing
// directory yields an empty list, not an error.
func listJSONFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// batch accumulates normalized rows and duplicate tallies across all files
// of one ingestion pass.
type batch struct {
	runID        string
	collectorDir string
	now          time.Time

	results    map[string]model.SearchResult // keyed (queryId|engine|url), last occurrence wins
	resultKeys []string
	runs       map[string]*model.CrawlRun // keyed (queryId|engine)
	runKeys    []string

	hashSeen map[string]struct{}
	urlSeen  map[string]struct{}
	hashDups int
	urlDups  int
}

func newBatch(runID uuid.UUID, collectorDir string) *batch {
	return &batch{
		runID:        runID.String(),
		collectorDir: collectorDir,
		now:          time.Now().UTC(),
		results:      make(map[string]model.SearchResult),
		runs:         make(map[string]*model.CrawlRun),
		hashSeen:     make(map[string]struct{}),
		urlSeen:      make(map[string]struct{}),
	}
}

func (b *batch) add(rec collectorRecord) {
	if rec.QueryID == "" || rec.Engine == "" || rec.URL == "" {
		return
	}
	title := rec.Title
	if title == "" {
		title = rec.URL
	}
	ts := parseTimestamp(rec.Timestamp, b.now)
	run := b.touchRun(rec, ts)

	hash := rec.Hash
	if !isHexHash(hash) {
		hash = model.ResultHash(rec.URL, title, rec.Snippet, ts)
	}
	hashKey := rec.QueryID + "|" + hash
	if _, dup := b.hashSeen[hashKey]; dup {
		b.hashDups++
	} else {
		b.hashSeen[hashKey] = struct{}{}
	}
	if _, dup := b.urlSeen[rec.URL]; dup {
		b.urlDups++
	} else {
		b.urlSeen[rec.URL] = struct{}{}
	}

	normalized := rec.NormalizedURL
	if normalized == "" {
		normalized = rec.URL
	}
	domain := rec.Domain
	if domain == "" {
		domain = hostnameOrRaw(rec.URL)
	}
	rawPath := rec.RawHTMLPath
	if rawPath == "" {
		rawPath = filepath.Join(b.collectorDir, "raw_html", rec.Engine+"-"+rec.QueryID+".html")
	}

	crawlID := run.ID
	key := rec.QueryID + "|" + rec.Engine + "|" + rec.URL
	if _, ok := b.results[key]; !ok {
		b.resultKeys = append(b.resultKeys, key)
	}
	b.results[key] = model.SearchResult{
		ID:            uuid.New(),
		CrawlRunID:    &crawlID,
		QueryID:       rec.QueryID,
		Engine:        rec.Engine,
		Rank:          parseRank(rec.Rank),
		Title:         title,
		Snippet:       rec.Snippet,
		URL:           rec.URL,
		NormalizedURL: normalized,
		Domain:        domain,
		Timestamp:     ts,
		Hash:          hash,
		RawHTMLPath:   rawPath,
		CreatedAt:     b.now,
		UpdatedAt:     b.now,
	}
}

// touchRun returns the crawl run for the record's (queryId, engine) pair,
// seeding it on first sight. The first record's crawlRunId (or a fresh uuid)
// names the run; later records only extend its completion time.
func (b *batch) touchRun(rec collectorRecord, ts time.Time) *model.CrawlRun {
	key := rec.QueryID + "|" + rec.Engine
	if run, ok := b.runs[key]; ok {
		if run.CompletedAt == nil || ts.After(*run.CompletedAt) {
			t := ts
			run.CompletedAt = &t
		}
		run.UpdatedAt = b.now
		return run
	}
	id := rec.CrawlRunID
	if id == "" {
		id = uuid.NewString()
	}
	t := ts
	run := &model.CrawlRun{
		ID:          id,
		BatchID:     b.runID,
		QueryID:     rec.QueryID,
		Engine:      rec.Engine,
		Status:      model.RunStatusCompleted,
		StartedAt:   ts,
		CompletedAt: &t,
		CreatedAt:   b.now,
		UpdatedAt:   b.now,
	}
	b.runs[key] = run
	b.runKeys = append(b.runKeys, key)
	return run
}

// finish deduplicates the accumulated rows and derives the summary. Result
// counts come from the deduplicated list so they match what is actually
// persisted under each crawl run id.
func (b *batch) finish() ([]model.CrawlRun, []model.SearchResult, Summary) {
	results := make([]model.SearchResult, 0, len(b.resultKeys))
	counts := make(map[string]int, len(b.runs))
	for _, key := range b.resultKeys {
		res := b.results[key]
		if res.CrawlRunID != nil {
			counts[*res.CrawlRunID]++
		}
		results = append(results, res)
	}
	runs := make([]model.CrawlRun, 0, len(b.runKeys))
	for _, key := range b.runKeys {
		run := *b.runs[key]
		run.ResultCount = counts[run.ID]
		runs = append(runs, run)
	}
	return runs, results, Summary{
		IngestedResults:    len(results),
		Runs:               len(runs),
		HashDuplicateCount: b.hashDups,
		URLDuplicateCount:  b.urlDups,
	}
}

// parseRank tolerates numeric, fractional, and string ranks. Anything else,
// including negatives, collapses to 0.
func parseRank(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f < 0 {
			return 0
		}
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
			return int(f)
		}
	}
	return 0
}

func parseTimestamp(raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts.UTC()
	}
	return fallback
}

// isHexHash reports whether s is a 64-char hex digest. Anything else means
// the hash gets synthesized from the record content.
func isHexHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func hostnameOrRaw(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return raw
}
