package storage

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cicconel11/TruthLayer-sub003/internal/model"
)

// SafeTimestamp renders ts as a UTC RFC 3339 instant with ':' and '.'
// replaced by '-', suitable for file names.
func SafeTimestamp(ts time.Time) string {
	s := ts.UTC().Format(time.RFC3339Nano)
	return strings.ReplaceAll(strings.ReplaceAll(s, ":", "-"), ".", "-")
}

type exportStats struct {
	count           int
	distinctQueries int
	distinctEngines int
	minTs           time.Time
	maxTs           time.Time
}

// exportDataset materializes one dataset slice as a Parquet file under
// {outputDir}/{datasetType}/ and builds the DatasetVersion manifest row. The
// caller persists the returned version.
func exportDataset(data *tables, req ExportRequest, now time.Time) (model.DatasetVersion, error) {
	format := req.Format
	if format == "" {
		format = model.DatasetFormatParquet
	}
	if format != model.DatasetFormatParquet {
		return model.DatasetVersion{}, fmt.Errorf("storage: export %s as %q: %w", req.DatasetType, format, ErrUnsupportedFormat)
	}

	filename := fmt.Sprintf("%s-%s.parquet", req.DatasetType, SafeTimestamp(now))
	path := filepath.Join(req.OutputDir, string(req.DatasetType), filename)

	var stats exportStats
	switch req.DatasetType {
	case model.DatasetSearchResults:
		results := filterSearchResults(data, req.Filters)
		rows := make([]searchResultRow, len(results))
		for i, r := range results {
			rows[i] = toSearchResultRow(r)
		}
		stats = searchResultStats(results)
		if err := writeParquet(path, rows); err != nil {
			return model.DatasetVersion{}, err
		}

	case model.DatasetAnnotatedResults:
		results := filterAnnotatedResults(data, req.Filters)
		rows := make([]annotatedResultRow, len(results))
		for i, r := range results {
			rows[i] = toAnnotatedResultRow(r)
		}
		stats = annotatedResultStats(results)
		if err := writeParquet(path, rows); err != nil {
			return model.DatasetVersion{}, err
		}

	case model.DatasetMetrics:
		records := filterMetricRecords(data, req.Filters)
		rows := make([]metricRecordRow, len(records))
		for i, r := range records {
			row, err := toMetricRecordRow(r)
			if err != nil {
				return model.DatasetVersion{}, err
			}
			rows[i] = row
		}
		stats = metricRecordStats(records)
		if err := writeParquet(path, rows); err != nil {
			return model.DatasetVersion{}, err
		}

	default:
		return model.DatasetVersion{}, fmt.Errorf("storage: unknown dataset type %q", req.DatasetType)
	}

	return model.DatasetVersion{
		ID:          uuid.New(),
		DatasetType: req.DatasetType,
		Format:      format,
		Path:        path,
		RunID:       req.RunID,
		RecordCount: stats.count,
		Metadata:    exportMetadata(req, stats, now),
		CreatedAt:   now,
	}, nil
}

func exportMetadata(req ExportRequest, stats exportStats, now time.Time) map[string]any {
	filters := map[string]any{}
	if len(req.Filters.QueryIDs) > 0 {
		filters["query_ids"] = req.Filters.QueryIDs
	}
	if len(req.Filters.Engines) > 0 {
		filters["engines"] = req.Filters.Engines
	}
	if req.Filters.Since != nil {
		filters["since"] = req.Filters.Since.UTC().Format(time.RFC3339Nano)
	}
	if req.Filters.Until != nil {
		filters["until"] = req.Filters.Until.UTC().Format(time.RFC3339Nano)
	}

	metadata := map[string]any{
		"dataset_type":     string(req.DatasetType),
		"filters":          filters,
		"distinct_queries": stats.distinctQueries,
		"distinct_engines": stats.distinctEngines,
		"generated_at":     now.UTC().Format(time.RFC3339Nano),
	}
	if req.RunID != nil {
		metadata["run_id"] = req.RunID.String()
	}
	if !stats.minTs.IsZero() {
		metadata["time_range"] = map[string]any{
			"from": stats.minTs.UTC().Format(time.RFC3339Nano),
			"to":   stats.maxTs.UTC().Format(time.RFC3339Nano),
		}
	}
	return metadata
}

func filterSearchResults(data *tables, f ExportFilters) []model.SearchResult {
	var out []model.SearchResult
	for _, r := range data.searchResults {
		if !matchString(f.QueryIDs, r.QueryID) || !matchString(f.Engines, r.Engine) {
			continue
		}
		if !withinRange(r.Timestamp, f.Since, f.Until) {
			continue
		}
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.QueryID != b.QueryID {
			return a.QueryID < b.QueryID
		}
		if a.Engine != b.Engine {
			return a.Engine < b.Engine
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.ID.String() < b.ID.String()
	})
	return out
}

func filterAnnotatedResults(data *tables, f ExportFilters) []model.AnnotatedResult {
	var out []model.AnnotatedResult
	for _, row := range data.annotatedResults() {
		if !matchString(f.QueryIDs, row.QueryID) || !matchString(f.Engines, row.Engine) {
			continue
		}
		if !withinRange(row.CollectedAt, f.Since, f.Until) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// filterMetricRecords treats a missing engine as the empty string when the
// Engines filter applies, mirroring COALESCE(engine, '').
func filterMetricRecords(data *tables, f ExportFilters) []model.MetricRecord {
	var out []model.MetricRecord
	for _, r := range data.metricRecords {
		engine := ""
		if r.Engine != nil {
			engine = *r.Engine
		}
		if !matchString(f.QueryIDs, r.QueryID) || !matchString(f.Engines, engine) {
			continue
		}
		if !withinRange(r.CollectedAt, f.Since, f.Until) {
			continue
		}
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CollectedAt.Equal(out[j].CollectedAt) {
			return out[i].CollectedAt.Before(out[j].CollectedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func searchResultStats(results []model.SearchResult) exportStats {
	queries := map[string]struct{}{}
	engines := map[string]struct{}{}
	stats := exportStats{count: len(results)}
	for _, r := range results {
		queries[r.QueryID] = struct{}{}
		engines[r.Engine] = struct{}{}
		stats.observe(r.Timestamp)
	}
	stats.distinctQueries = len(queries)
	stats.distinctEngines = len(engines)
	return stats
}

func annotatedResultStats(results []model.AnnotatedResult) exportStats {
	queries := map[string]struct{}{}
	engines := map[string]struct{}{}
	stats := exportStats{count: len(results)}
	for _, r := range results {
		queries[r.QueryID] = struct{}{}
		engines[r.Engine] = struct{}{}
		stats.observe(r.CollectedAt)
	}
	stats.distinctQueries = len(queries)
	stats.distinctEngines = len(engines)
	return stats
}

func metricRecordStats(records []model.MetricRecord) exportStats {
	queries := map[string]struct{}{}
	engines := map[string]struct{}{}
	stats := exportStats{count: len(records)}
	for _, r := range records {
		queries[r.QueryID] = struct{}{}
		if r.Engine != nil {
			engines[*r.Engine] = struct{}{}
		}
		stats.observe(r.CollectedAt)
	}
	stats.distinctQueries = len(queries)
	stats.distinctEngines = len(engines)
	return stats
}

func (s *exportStats) observe(ts time.Time) {
	if s.minTs.IsZero() || ts.Before(s.minTs) {
		s.minTs = ts
	}
	if s.maxTs.IsZero() || ts.After(s.maxTs) {
		s.maxTs = ts
	}
}
