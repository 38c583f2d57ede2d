package model

import "time"

// Well-known metric types computed by the metrics stage. The set is open;
// MetricRecord.MetricType may carry values beyond these.
const (
	MetricDomainDiversity  = "domain_diversity"
	MetricEngineOverlap    = "engine_overlap"
	MetricFactualAlignment = "factual_alignment"
)

// MetricRecord is one computed bias metric value for a query (optionally
// scoped to an engine) at a point in time. Delta compares against the run
// named by ComparedToRunID.
type MetricRecord struct {
	ID              string         `json:"id"`
	CrawlRunID      *string        `json:"crawl_run_id,omitempty"`
	QueryID         string         `json:"query_id"`
	Engine          *string        `json:"engine,omitempty"`
	MetricType      string         `json:"metric_type"`
	Value           float64        `json:"value"`
	Delta           *float64       `json:"delta,omitempty"`
	ComparedToRunID *string        `json:"compared_to_run_id,omitempty"`
	CollectedAt     time.Time      `json:"collected_at"`
	Extra           map[string]any `json:"extra,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}
