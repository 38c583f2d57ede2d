// Package report renders the Markdown transparency report summarizing the
// latest bias metrics of a pipeline run.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cicconel11/TruthLayer-sub003/internal/model"
	"github.com/cicconel11/TruthLayer-sub003/internal/storage"
)

// recentMetricLimit is how many records per metric type feed the report.
const recentMetricLimit = 100

// metricSection describes one report section: which metric it covers and how
// its values render.
type metricSection struct {
	metricType string
	title      string
	format     func(float64) string
}

func plain(v float64) string   { return fmt.Sprintf("%.1f", v) }
func percent(v float64) string { return fmt.Sprintf("%.1f%%", v*100) }

var metricSections = []metricSection{
	{model.MetricDomainDiversity, "Domain Diversity", plain},
	{model.MetricEngineOverlap, "Engine Overlap", percent},
	{model.MetricFactualAlignment, "Factual Alignment", percent},
}

// Generator renders transparency reports from the latest metric records.
type Generator struct {
	store         storage.Store
	logger        *slog.Logger
	reportDir     string
	benchmarkPath string
}

// New returns a Generator writing reports under reportDir and labeling rows
// from the benchmark metadata at benchmarkPath.
func New(store storage.Store, logger *slog.Logger, reportDir, benchmarkPath string) *Generator {
	return &Generator{store: store, logger: logger, reportDir: reportDir, benchmarkPath: benchmarkPath}
}

// Generate fetches the recent records of every report metric concurrently,
// renders the Markdown report, and writes it under the report directory.
// Returns the written path. Callers treat a report failure as non-fatal to
// the pipeline run.
func (g *Generator) Generate(ctx context.Context, runID uuid.UUID, exports []storage.ExportResult) (string, error) {
	sections := make([][]model.MetricRecord, len(metricSections))
	grp, gctx := errgroup.WithContext(ctx)
	for idx, sec := range metricSections {
		grp.Go(func() error {
			rows, err := g.store.FetchRecentMetricRecords(gctx, sec.metricType, recentMetricLimit)
			if err != nil {
				return fmt.Errorf("report: fetch %s records: %w", sec.metricType, err)
			}
			sections[idx] = rows
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return "", err
	}

	benchmarks := g.loadBenchmarks()
	now := time.Now().UTC()

	var b strings.Builder
	b.WriteString("# Search Transparency Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "Pipeline run: `%s`\n\n", runID)

	b.WriteString("## Dataset Exports\n\n")
	if len(exports) == 0 {
		b.WriteString("No datasets were exported in this run.\n\n")
	} else {
		for _, exp := range exports {
			fmt.Fprintf(&b, "- `%s`: %d records at `%s`\n", exp.Version.DatasetType, exp.Version.RecordCount, exp.FilePath)
		}
		b.WriteString("\n")
	}

	for idx, sec := range metricSections {
		writeMetricSection(&b, sec, sections[idx], benchmarks)
	}

	if err := os.MkdirAll(g.reportDir, 0o750); err != nil {
		return "", fmt.Errorf("report: create report dir: %w", err)
	}
	path := filepath.Join(g.reportDir, "search-transparency-report-"+storage.SafeTimestamp(now)+".md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("report: write report: %w", err)
	}
	g.logger.Info("transparency report written", "path", path, "run_id", runID)
	return path, nil
}

func writeMetricSection(b *strings.Builder, sec metricSection, records []model.MetricRecord, benchmarks map[string]BenchmarkQuery) {
	fmt.Fprintf(b, "## %s\n\n", sec.title)
	if len(records) == 0 {
		b.WriteString("No records collected yet.\n\n")
		return
	}

	var sum float64
	for _, r := range records {
		sum += r.Value
	}
	fmt.Fprintf(b, "Average: %s across %d records.\n\n", sec.format(sum/float64(len(records))), len(records))

	b.WriteString("| Query | Topic | Value | Delta |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, r := range topByValue(latestPerQuery(records), 5) {
		name, topic := r.QueryID, "Unknown"
		if bm, ok := benchmarks[r.QueryID]; ok {
			if bm.Query != "" {
				name = bm.Query
			}
			if bm.Topic != "" {
				topic = bm.Topic
			}
		}
		delta := "–"
		if r.Delta != nil {
			delta = sec.format(*r.Delta)
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", name, topic, sec.format(r.Value), delta)
	}
	b.WriteString("\n")
}

// latestPerQuery reduces records to the newest per query id: newest-first by
// collectedAt, first occurrence kept.
func latestPerQuery(records []model.MetricRecord) []model.MetricRecord {
	sorted := make([]model.MetricRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CollectedAt.After(sorted[j].CollectedAt)
	})
	seen := make(map[string]bool, len(sorted))
	var out []model.MetricRecord
	for _, r := range sorted {
		if seen[r.QueryID] {
			continue
		}
		seen[r.QueryID] = true
		out = append(out, r)
	}
	return out
}

// topByValue orders by value descending, ties keeping input order, and takes
// the first n.
func topByValue(records []model.MetricRecord, n int) []model.MetricRecord {
	out := make([]model.MetricRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
