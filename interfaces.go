package truthlayer

import (
	"context"

	"github.com/google/uuid"
)

// Collector fetches live search results and writes them as JSON files to the
// collector output directory. When provided via WithCollector it runs at the
// start of every collector stage; the pipeline then ingests the directory.
// Without one the stage ingests whatever output files already exist.
type Collector interface {
	Collect(ctx context.Context, runID uuid.UUID) error
}

// Annotator labels ingested search results (domain type, factual
// consistency) in the shared warehouse. When provided via WithAnnotator it
// runs during the annotation stage, before audit sampling.
type Annotator interface {
	Annotate(ctx context.Context, runID uuid.UUID) error
}

// MetricsEngine computes transparency metrics over annotated results and
// writes metric records to the warehouse. When provided via WithMetricsEngine
// it runs during the metrics stage, before dataset export and report
// generation.
type MetricsEngine interface {
	ComputeMetrics(ctx context.Context, runID uuid.UUID) error
}
