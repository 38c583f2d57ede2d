package model

import "time"

// RunStatus tracks the lifecycle of crawl runs, pipeline runs, and pipeline
// stages.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// CrawlRun is the (queryId, engine) unit of collection within a pipeline run.
// BatchID carries the pipeline run id; ResultCount equals the number of
// search results committed with this run's id.
type CrawlRun struct {
	ID          string     `json:"id"`
	BatchID     string     `json:"batch_id"`
	QueryID     string     `json:"query_id"`
	Engine      string     `json:"engine"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	ResultCount int        `json:"result_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
