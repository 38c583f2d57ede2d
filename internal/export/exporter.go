// Package export materializes the versioned Parquet snapshots produced at
// the end of each pipeline run.
package export

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cicconel11/TruthLayer-sub003/internal/model"
	"github.com/cicconel11/TruthLayer-sub003/internal/storage"
)

// Exporter snapshots every dataset type through the store.
type Exporter struct {
	store  storage.Store
	logger *slog.Logger
}

// New returns an Exporter writing through the given store.
func New(store storage.Store, logger *slog.Logger) *Exporter {
	return &Exporter{store: store, logger: logger}
}

// ExportAll writes one versioned Parquet snapshot per dataset type for the
// given run. A failing dataset is logged and skipped so one broken export
// never loses the others; the successful subset comes back in canonical
// dataset order.
func (e *Exporter) ExportAll(ctx context.Context, runID uuid.UUID, outputDir string, filters storage.ExportFilters) []storage.ExportResult {
	out := make([]storage.ExportResult, 0, len(model.DatasetTypes))
	for _, dt := range model.DatasetTypes {
		res, err := e.store.ExportDataset(ctx, storage.ExportRequest{
			DatasetType: dt,
			OutputDir:   outputDir,
			RunID:       &runID,
			Format:      model.DatasetFormatParquet,
			Filters:     filters,
		})
		if err != nil {
			e.logger.Warn("dataset export failed", "dataset", dt, "error", err)
			continue
		}
		e.logger.Info("dataset exported",
			"dataset", dt,
			"path", res.FilePath,
			"records", res.Version.RecordCount)
		out = append(out, res)
	}
	return out
}
