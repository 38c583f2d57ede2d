// Package audit draws uniform samples of annotated results and queues them
// for manual review.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/cicconel11/TruthLayer-sub003/internal/model"
	"github.com/cicconel11/TruthLayer-sub003/internal/storage"
)

// Summary reports how many annotated results were considered and sampled.
type Summary struct {
	TotalAnnotated int `json:"total_annotated"`
	Sampled        int `json:"sampled"`
}

// Sampler selects annotated results for human review.
type Sampler struct {
	store  storage.Store
	logger *slog.Logger
}

// New returns a Sampler reading and writing through the given store.
func New(store storage.Store, logger *slog.Logger) *Sampler {
	return &Sampler{store: store, logger: logger}
}

// SampleRun draws a uniform sample of the annotated results collected since
// the given time and records a pending audit row for each. A zero since
// samples across all annotated results.
func (s *Sampler) SampleRun(ctx context.Context, runID uuid.UUID, since time.Time, samplePercent int) (Summary, error) {
	rows, err := s.store.FetchAnnotatedResults(ctx, storage.AnnotatedResultQuery{Since: &since})
	if err != nil {
		return Summary{}, fmt.Errorf("audit: fetch annotated results: %w", err)
	}
	if len(rows) == 0 {
		return Summary{}, nil
	}

	picked := sample(rows, samplePercent)
	now := time.Now().UTC()
	samples := make([]model.AuditSample, 0, len(picked))
	for _, row := range picked {
		samples = append(samples, model.AuditSample{
			ID:           uuid.New(),
			RunID:        runID,
			AnnotationID: row.AnnotationID,
			QueryID:      row.QueryID,
			Engine:       row.Engine,
			Status:       model.AuditStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if err := s.store.RecordAuditSamples(ctx, samples); err != nil {
		return Summary{}, fmt.Errorf("audit: record samples: %w", err)
	}

	s.logger.Info("audit sample recorded",
		"run_id", runID,
		"total_annotated", len(rows),
		"sampled", len(samples),
		"percent", samplePercent)
	return Summary{TotalAnnotated: len(rows), Sampled: len(samples)}, nil
}

// sample draws without replacement from a copy of rows. Percent is clamped
// to [1,100] and at least one row is always drawn; when the draw covers
// everything the copy is returned as-is.
func sample(rows []model.AnnotatedResult, percent int) []model.AnnotatedResult {
	if percent < 1 {
		percent = 1
	}
	if percent > 100 {
		percent = 100
	}
	n := (len(rows)*percent + 99) / 100
	if n < 1 {
		n = 1
	}
	out := make([]model.AnnotatedResult, len(rows))
	copy(out, rows)
	if n >= len(out) {
		return out
	}
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out[:n]
}
