package model

import "time"

// Stance classifies the editorial position a result takes toward its query
// topic.
type Stance string

const (
	StanceSupportive Stance = "supportive"
	StanceCritical   Stance = "critical"
	StanceNeutral    Stance = "neutral"
	StanceMixed      Stance = "mixed"
)

// Viewpoint is a per-result stance classification produced alongside
// annotations and queried per benchmark query.
type Viewpoint struct {
	ID             string         `json:"id"`
	RunID          *string        `json:"run_id,omitempty"`
	QueryID        string         `json:"query_id"`
	Engine         string         `json:"engine"`
	SearchResultID *string        `json:"search_result_id,omitempty"`
	Stance         Stance         `json:"stance"`
	Topic          string         `json:"topic,omitempty"`
	Confidence     *float64       `json:"confidence,omitempty"`
	Summary        string         `json:"summary,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
