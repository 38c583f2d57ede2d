package audit_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicconel11/TruthLayer-sub003/internal/audit"
	"github.com/cicconel11/TruthLayer-sub003/internal/model"
	"github.com/cicconel11/TruthLayer-sub003/internal/storage"
	"github.com/cicconel11/TruthLayer-sub003/internal/testutil"
)

// seedAnnotated inserts n results with matching annotations collected at the
// given instant and returns the annotation ids.
func seedAnnotated(t *testing.T, s storage.Store, queryID string, n int, at time.Time) []string {
	t.Helper()
	ctx := context.Background()
	results := make([]model.SearchResult, 0, n)
	anns := make([]model.Annotation, 0, n)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		r := model.SearchResult{
			ID:        uuid.New(),
			QueryID:   queryID,
			Engine:    "google",
			Rank:      i + 1,
			Title:     fmt.Sprintf("Result %d", i),
			URL:       fmt.Sprintf("https://site-%d.example/%s", i, queryID),
			Timestamp: at,
		}
		a := model.Annotation{
			ID:                 uuid.NewString(),
			SearchResultID:     r.ID.String(),
			QueryID:            queryID,
			Engine:             "google",
			DomainType:         model.DomainTypeNews,
			FactualConsistency: model.FactualConsistencyAligned,
			PromptVersion:      "v1",
			ModelID:            "annotator-test",
			CreatedAt:          at,
			UpdatedAt:          at,
		}
		results = append(results, r)
		anns = append(anns, a)
		ids = append(ids, a.ID)
	}
	require.NoError(t, s.InsertSearchResults(ctx, results))
	require.NoError(t, s.InsertAnnotations(ctx, anns))
	return ids
}

func sampledIDs(t *testing.T, s storage.Store, runID uuid.UUID) []string {
	t.Helper()
	rows, err := s.FetchAuditSamples(context.Background(), runID)
	require.NoError(t, err)
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		assert.Equal(t, model.AuditStatusPending, r.Status)
		assert.Equal(t, runID, r.RunID)
		assert.Nil(t, r.Reviewer)
		assert.Nil(t, r.Notes)
		ids = append(ids, r.AnnotationID)
	}
	return ids
}

func TestSampleRunCounts(t *testing.T) {
	tests := []struct {
		name    string
		rows    int
		percent int
		want    int
	}{
		{"five percent of forty", 40, 5, 2},
		{"five percent of three rounds up", 3, 5, 1},
		{"hundred percent keeps everything", 10, 100, 10},
		{"one percent still samples one", 10, 1, 1},
		{"half of ten", 10, 50, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := storage.NewMemory()
			annIDs := seedAnnotated(t, s, "q1", tt.rows, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

			runID := uuid.New()
			sampler := audit.New(s, testutil.TestLogger())
			sum, err := sampler.SampleRun(context.Background(), runID, time.Time{}, tt.percent)
			require.NoError(t, err)
			assert.Equal(t, tt.rows, sum.TotalAnnotated)
			assert.Equal(t, tt.want, sum.Sampled)

			got := sampledIDs(t, s, runID)
			require.Len(t, got, tt.want)

			seen := map[string]bool{}
			universe := map[string]bool{}
			for _, id := range annIDs {
				universe[id] = true
			}
			for _, id := range got {
				assert.False(t, seen[id], "sample drawn without replacement")
				assert.True(t, universe[id], "sampled id must come from the annotated set")
				seen[id] = true
			}
		})
	}
}

func TestSampleRunFullDrawIsPermutation(t *testing.T) {
	s := storage.NewMemory()
	annIDs := seedAnnotated(t, s, "q1", 10, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	runID := uuid.New()
	sampler := audit.New(s, testutil.TestLogger())
	sum, err := sampler.SampleRun(context.Background(), runID, time.Time{}, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, sum.Sampled)

	assert.ElementsMatch(t, annIDs, sampledIDs(t, s, runID))
}

func TestSampleRunEmpty(t *testing.T) {
	s := storage.NewMemory()
	runID := uuid.New()
	sampler := audit.New(s, testutil.TestLogger())

	sum, err := sampler.SampleRun(context.Background(), runID, time.Time{}, 5)
	require.NoError(t, err)
	assert.Equal(t, audit.Summary{}, sum)

	rows, err := s.FetchAuditSamples(context.Background(), runID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSampleRunHonorsSince(t *testing.T) {
	s := storage.NewMemory()
	seedAnnotated(t, s, "stale", 5, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	fresh := seedAnnotated(t, s, "fresh", 4, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	runID := uuid.New()
	sampler := audit.New(s, testutil.TestLogger())
	sum, err := sampler.SampleRun(context.Background(), runID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 100)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.TotalAnnotated)

	assert.ElementsMatch(t, fresh, sampledIDs(t, s, runID))
}

func TestSampleRunClampsPercent(t *testing.T) {
	s := storage.NewMemory()
	seedAnnotated(t, s, "q1", 4, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	sampler := audit.New(s, testutil.TestLogger())
	sum, err := sampler.SampleRun(context.Background(), uuid.New(), time.Time{}, 500)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Sampled, "overlarge percent behaves as a full draw")

	sum, err = sampler.SampleRun(context.Background(), uuid.New(), time.Time{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Sampled, "zero percent clamps up to one row")
}
