package model

import "time"

// DomainType classifies the publisher of a search result.
type DomainType string

const (
	DomainTypeNews       DomainType = "news"
	DomainTypeGovernment DomainType = "government"
	DomainTypeAcademic   DomainType = "academic"
	DomainTypeBlog       DomainType = "blog"
	DomainTypeOther      DomainType = "other"
)

// FactualConsistency grades how well a result's content aligns with the
// reference answer for its benchmark query.
type FactualConsistency string

const (
	FactualConsistencyAligned       FactualConsistency = "aligned"
	FactualConsistencyContradicted  FactualConsistency = "contradicted"
	FactualConsistencyUnclear       FactualConsistency = "unclear"
	FactualConsistencyNotApplicable FactualConsistency = "not_applicable"
)

// Annotation is the per-result judgment produced by the annotation stage.
// SearchResultID references SearchResult.ID and is unique per annotation.
type Annotation struct {
	ID                 string             `json:"id"`
	SearchResultID     string             `json:"search_result_id"`
	QueryID            string             `json:"query_id"`
	Engine             string             `json:"engine"`
	DomainType         DomainType         `json:"domain_type"`
	FactualConsistency FactualConsistency `json:"factual_consistency"`
	Confidence         *float64           `json:"confidence,omitempty"`
	PromptVersion      string             `json:"prompt_version"`
	ModelID            string             `json:"model_id"`
	Extra              map[string]any     `json:"extra,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// AnnotationAggregate is a grouped count of annotations sharing a
// (domainType, factualConsistency) cell within a run, used for report
// breakdowns.
type AnnotationAggregate struct {
	ID                 string             `json:"id"`
	RunID              string             `json:"run_id"`
	QueryID            string             `json:"query_id"`
	Engine             *string            `json:"engine,omitempty"`
	DomainType         DomainType         `json:"domain_type"`
	FactualConsistency FactualConsistency `json:"factual_consistency"`
	Count              int                `json:"count"`
	TotalAnnotations   int                `json:"total_annotations"`
	CollectedAt        time.Time          `json:"collected_at"`
	Extra              map[string]any     `json:"extra,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}
