package model

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline stage names, in execution order.
const (
	StageCollector  = "collector"
	StageAnnotation = "annotation"
	StageMetrics    = "metrics"
)

// Stages lists the pipeline stages in canonical execution order.
var Stages = []string{StageCollector, StageAnnotation, StageMetrics}

// PipelineRun records one end-to-end execution of the pipeline. Metadata
// aggregates the per-stage results once the run completes.
type PipelineRun struct {
	ID          uuid.UUID      `json:"id"`
	Status      RunStatus      `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PipelineStageLog records one stage of a pipeline run, including how many
// attempts it consumed. Attempts is 0 only on the initial running log, before
// the first attempt starts.
type PipelineStageLog struct {
	ID          uuid.UUID      `json:"id"`
	RunID       uuid.UUID      `json:"run_id"`
	Stage       string         `json:"stage"`
	Status      RunStatus      `json:"status"`
	Attempts    int            `json:"attempts"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
