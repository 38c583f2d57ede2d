package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditStatus tracks the review state of a manual audit sample.
type AuditStatus string

const (
	AuditStatusPending  AuditStatus = "pending"
	AuditStatusApproved AuditStatus = "approved"
	AuditStatusFlagged  AuditStatus = "flagged"
)

// AuditSample is one annotated result drawn for manual review. RunID is the
// pipeline run the sample was drawn in.
type AuditSample struct {
	ID           uuid.UUID   `json:"id"`
	RunID        uuid.UUID   `json:"run_id"`
	AnnotationID string      `json:"annotation_id"`
	QueryID      string      `json:"query_id"`
	Engine       string      `json:"engine"`
	Reviewer     *string     `json:"reviewer,omitempty"`
	Status       AuditStatus `json:"status"`
	Notes        *string     `json:"notes,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
