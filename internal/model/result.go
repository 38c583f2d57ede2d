// Package model defines the core domain types for the search-transparency
// pipeline.
//
// All types correspond directly to logical warehouse tables and collector
// payloads. Types use strong typing (UUIDs, time.Time, enums) and avoid
// interface{} wherever possible; free-form payload fields live in Extra /
// Metadata maps.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// SearchResult is one ranked result collected from a search engine for a
// benchmark query. Upserted by id; callers pre-deduplicate by
// (QueryID, Engine, URL).
type SearchResult struct {
	ID            uuid.UUID `json:"id"`
	CrawlRunID    *string   `json:"crawl_run_id,omitempty"`
	QueryID       string    `json:"query_id"`
	Engine        string    `json:"engine"`
	Rank          int       `json:"rank"`
	Title         string    `json:"title"`
	Snippet       string    `json:"snippet,omitempty"`
	URL           string    `json:"url"`
	NormalizedURL string    `json:"normalized_url"`
	Domain        string    `json:"domain"`
	Timestamp     time.Time `json:"timestamp"`
	Hash          string    `json:"hash"`
	RawHTMLPath   string    `json:"raw_html_path,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AnnotatedResult is the read-only join of a SearchResult and its Annotation,
// used by audit sampling, metrics, and dataset export.
type AnnotatedResult struct {
	RunID              string             `json:"run_id"`
	BatchID            *string            `json:"batch_id,omitempty"`
	AnnotationID       string             `json:"annotation_id"`
	QueryID            string             `json:"query_id"`
	Engine             string             `json:"engine"`
	NormalizedURL      string             `json:"normalized_url"`
	Domain             string             `json:"domain"`
	Rank               int                `json:"rank"`
	FactualConsistency FactualConsistency `json:"factual_consistency"`
	DomainType         DomainType         `json:"domain_type"`
	CollectedAt        time.Time          `json:"collected_at"`
}

// ResultHash computes the content hash of a search result:
// sha256 over url|title|snippet|timestamp, with the timestamp rendered as a
// UTC RFC 3339 instant. Ingestion synthesizes this whenever the collector
// record carries no 64-char hex hash of its own.
func ResultHash(url, title, snippet string, ts time.Time) string {
	sum := sha256.Sum256([]byte(url + "|" + title + "|" + snippet + "|" + ts.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}

// FallbackRunID derives the view run id for results whose crawl run is
// unknown: queryId|timestamp in compact YYYYMMDDHHMMSS form.
func FallbackRunID(queryID string, ts time.Time) string {
	return queryID + "|" + ts.UTC().Format("20060102150405")
}
