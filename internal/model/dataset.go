package model

import (
	"time"

	"github.com/google/uuid"
)

// DatasetType identifies which logical slice of the warehouse an export
// covers.
type DatasetType string

const (
	DatasetSearchResults    DatasetType = "search_results"
	DatasetAnnotatedResults DatasetType = "annotated_results"
	DatasetMetrics          DatasetType = "metrics"
)

// DatasetTypes lists all exportable dataset types in export order.
var DatasetTypes = []DatasetType{
	DatasetSearchResults,
	DatasetAnnotatedResults,
	DatasetMetrics,
}

// DatasetFormat is the on-disk format of an exported dataset.
type DatasetFormat string

const (
	DatasetFormatParquet DatasetFormat = "parquet"
)

// DatasetVersion is the immutable manifest row describing one completed
// dataset export.
type DatasetVersion struct {
	ID          uuid.UUID      `json:"id"`
	DatasetType DatasetType    `json:"dataset_type"`
	Format      DatasetFormat  `json:"format"`
	Path        string         `json:"path"`
	RunID       *uuid.UUID     `json:"run_id,omitempty"`
	RecordCount int            `json:"record_count"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
