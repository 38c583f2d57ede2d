package storage

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cicconel11/TruthLayer-sub003/internal/model"
)

// tables is the working set shared by both backends: one map per logical
// table, keyed by primary key. All methods are unsynchronized; the owning
// store serializes access.
type tables struct {
	searchResults map[string]model.SearchResult
	crawlRuns     map[string]model.CrawlRun
	annotations   map[string]model.Annotation
	aggregates    map[string]model.AnnotationAggregate
	metricRecords map[string]model.MetricRecord
	auditSamples  map[string]model.AuditSample
	pipelineRuns  map[string]model.PipelineRun
	stageLogs     map[string]model.PipelineStageLog
	versions      map[string]model.DatasetVersion
	viewpoints    map[string]model.Viewpoint
}

func newTables() *tables {
	return &tables{
		searchResults: map[string]model.SearchResult{},
		crawlRuns:     map[string]model.CrawlRun{},
		annotations:   map[string]model.Annotation{},
		aggregates:    map[string]model.AnnotationAggregate{},
		metricRecords: map[string]model.MetricRecord{},
		auditSamples:  map[string]model.AuditSample{},
		pipelineRuns:  map[string]model.PipelineRun{},
		stageLogs:     map[string]model.PipelineStageLog{},
		versions:      map[string]model.DatasetVersion{},
		viewpoints:    map[string]model.Viewpoint{},
	}
}

// Upserts. Zero-valued ids and timestamps are filled in; everything else is
// last-write-wins by primary key, which keeps retried writes idempotent.

func (t *tables) upsertSearchResults(results []model.SearchResult, now time.Time) {
	for _, r := range results {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.NormalizedURL == "" {
			r.NormalizedURL = r.URL
		}
		if r.Domain == "" {
			r.Domain = hostnameOf(r.URL)
		}
		if r.Timestamp.IsZero() {
			r.Timestamp = now
		}
		if r.Hash == "" {
			r.Hash = model.ResultHash(r.URL, r.Title, r.Snippet, r.Timestamp)
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
		t.searchResults[r.ID.String()] = r
	}
}

func (t *tables) upsertCrawlRuns(runs []model.CrawlRun, now time.Time) {
	for _, r := range runs {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.Status == "" {
			r.Status = model.RunStatusCompleted
		}
		if r.StartedAt.IsZero() {
			r.StartedAt = now
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
		t.crawlRuns[r.ID] = r
	}
}

func (t *tables) upsertAnnotations(annotations []model.Annotation, now time.Time) {
	for _, a := range annotations {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
		t.annotations[a.ID] = a
	}
}

func (t *tables) upsertAggregates(aggregates []model.AnnotationAggregate, now time.Time) {
	for _, a := range aggregates {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if a.CollectedAt.IsZero() {
			a.CollectedAt = now
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		t.aggregates[a.ID] = a
	}
}

func (t *tables) upsertMetricRecords(records []model.MetricRecord, now time.Time) {
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CollectedAt.IsZero() {
			r.CollectedAt = now
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		t.metricRecords[r.ID] = r
	}
}

func (t *tables) upsertAuditSamples(samples []model.AuditSample, now time.Time) {
	for _, s := range samples {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		if s.Status == "" {
			s.Status = model.AuditStatusPending
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
		t.auditSamples[s.ID.String()] = s
	}
}

func (t *tables) upsertPipelineRun(run model.PipelineRun, now time.Time) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = model.RunStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	if run.UpdatedAt.IsZero() {
		run.UpdatedAt = now
	}
	t.pipelineRuns[run.ID.String()] = run
}

func (t *tables) upsertStageLog(log model.PipelineStageLog, now time.Time) {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.Status == "" {
		log.Status = model.RunStatusRunning
	}
	if log.StartedAt.IsZero() {
		log.StartedAt = now
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	if log.UpdatedAt.IsZero() {
		log.UpdatedAt = now
	}
	t.stageLogs[log.ID.String()] = log
}

func (t *tables) upsertVersion(v model.DatasetVersion, now time.Time) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Format == "" {
		v.Format = model.DatasetFormatParquet
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	t.versions[v.ID.String()] = v
}

func (t *tables) upsertViewpoints(viewpoints []model.Viewpoint, now time.Time) {
	for _, v := range viewpoints {
		if v.ID == "" {
			v.ID = uuid.New().String()
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		if v.UpdatedAt.IsZero() {
			v.UpdatedAt = now
		}
		t.viewpoints[v.ID] = v
	}
}

// annotatedResults joins every annotation to its search result. Annotations
// whose search result is absent produce no row. Rows come back in canonical
// view order: (collectedAt, queryId, engine, rank) ascending.
func (t *tables) annotatedResults() []model.AnnotatedResult {
	rows := make([]model.AnnotatedResult, 0, len(t.annotations))
	for _, a := range t.annotations {
		result, found := t.searchResults[a.SearchResultID]
		if !found {
			continue
		}

		runID := model.FallbackRunID(result.QueryID, result.Timestamp)
		var batchID *string
		if result.CrawlRunID != nil {
			runID = *result.CrawlRunID
			if cr, ok := t.crawlRuns[*result.CrawlRunID]; ok && cr.BatchID != "" {
				b := cr.BatchID
				batchID = &b
			}
		}

		rows = append(rows, model.AnnotatedResult{
			RunID:              runID,
			BatchID:            batchID,
			AnnotationID:       a.ID,
			QueryID:            result.QueryID,
			Engine:             result.Engine,
			NormalizedURL:      result.NormalizedURL,
			Domain:             result.Domain,
			Rank:               result.Rank,
			FactualConsistency: a.FactualConsistency,
			DomainType:         a.DomainType,
			CollectedAt:        result.Timestamp,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.CollectedAt.Equal(b.CollectedAt) {
			return a.CollectedAt.Before(b.CollectedAt)
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
		return a.AnnotationID < b.AnnotationID
	})
	return rows
}

func (t *tables) pendingAnnotations(q PendingAnnotationQuery) []model.SearchResult {
	annotated := make(map[string]bool, len(t.annotations))
	for _, a := range t.annotations {
		annotated[a.SearchResultID] = true
	}

	var out []model.SearchResult
	for _, r := range t.searchResults {
		if annotated[r.ID.String()] {
			continue
		}
		if !matchString(q.QueryIDs, r.QueryID) || !matchString(q.Engines, r.Engine) {
			continue
		}
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (t *tables) fetchAnnotatedResults(q AnnotatedResultQuery) []model.AnnotatedResult {
	var out []model.AnnotatedResult
	for _, row := range t.annotatedResults() {
		if !withinRange(row.CollectedAt, q.Since, q.Until) {
			continue
		}
		if !matchString(q.QueryIDs, row.QueryID) || !matchString(q.RunIDs, row.RunID) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func (t *tables) alternativeSources(q AlternativeSourceQuery) []model.AnnotatedResult {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	excluded := make(map[string]bool, len(q.ExcludeURLs))
	for _, u := range q.ExcludeURLs {
		excluded[u] = true
	}

	var out []model.AnnotatedResult
	for _, row := range t.annotatedResults() {
		if !withinRange(row.CollectedAt, q.Since, nil) {
			continue
		}
		if !matchDomainType(q.DomainTypes, row.DomainType) {
			continue
		}
		if !matchConsistency(q.FactualConsistency, row.FactualConsistency) {
			continue
		}
		if excluded[row.NormalizedURL] {
			continue
		}
		if !matchKeywords(q.QueryKeywords, row.Domain+" "+row.NormalizedURL) {
			continue
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out
}

func (t *tables) recentMetricRecords(metricType string, limit int) []model.MetricRecord {
	if limit <= 0 {
		limit = 50
	}

	var out []model.MetricRecord
	for _, r := range t.metricRecords {
		if r.MetricType == metricType {
			out = append(out, r)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CollectedAt.Equal(out[j].CollectedAt) {
			return out[i].CollectedAt.After(out[j].CollectedAt)
		}
		return out[i].ID < out[j].ID
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (t *tables) fetchAggregates(q AnnotationAggregateQuery) []model.AnnotationAggregate {
	var out []model.AnnotationAggregate
	for _, a := range t.aggregates {
		if !matchString(q.RunIDs, a.RunID) || !matchString(q.QueryIDs, a.QueryID) {
			continue
		}
		if len(q.Engines) > 0 && (a.Engine == nil || !matchString(q.Engines, *a.Engine)) {
			continue
		}
		if !matchDomainType(q.DomainTypes, a.DomainType) {
			continue
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CollectedAt.Equal(out[j].CollectedAt) {
			return out[i].CollectedAt.Before(out[j].CollectedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (t *tables) auditSamplesByRun(runID uuid.UUID) []model.AuditSample {
	var out []model.AuditSample
	for _, s := range t.auditSamples {
		if s.RunID == runID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (t *tables) fetchPipelineRuns(limit int) []model.PipelineRun {
	if limit <= 0 {
		limit = 50
	}

	out := make([]model.PipelineRun, 0, len(t.pipelineRuns))
	for _, r := range t.pipelineRuns {
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// fetchPipelineStages orders by startedAt ascending. Stages that share a
// startedAt (retries reuse it) tie-break on createdAt, then id.
func (t *tables) fetchPipelineStages(runID uuid.UUID) []model.PipelineStageLog {
	var out []model.PipelineStageLog
	for _, l := range t.stageLogs {
		if l.RunID == runID {
			out = append(out, l)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.Before(b.StartedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return out
}

func (t *tables) viewpointsByQuery(q ViewpointQuery) []model.Viewpoint {
	var out []model.Viewpoint
	for _, v := range t.viewpoints {
		if v.QueryID != q.QueryID {
			continue
		}
		if q.RunID != nil && (v.RunID == nil || *v.RunID != *q.RunID) {
			continue
		}
		if !matchString(q.Engines, v.Engine) {
			continue
		}
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Filter helpers. Empty filter lists match everything.

func matchString(filter []string, v string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == v {
			return true
		}
	}
	return false
}

func matchDomainType(filter []model.DomainType, v model.DomainType) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == v {
			return true
		}
	}
	return false
}

func matchConsistency(filter []model.FactualConsistency, v model.FactualConsistency) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == v {
			return true
		}
	}
	return false
}

func matchKeywords(keywords []string, haystack string) bool {
	if len(keywords) == 0 {
		return true
	}
	haystack = strings.ToLower(haystack)
	for _, kw := range keywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func withinRange(ts time.Time, since, until *time.Time) bool {
	if since != nil && ts.Before(*since) {
		return false
	}
	if until != nil && ts.After(*until) {
		return false
	}
	return true
}

func hostnameOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
