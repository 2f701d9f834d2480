// Package session drives one research session: query enhancement, recursive
// web expansion over a search tree, local retrieval, and report persistence.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deepsage/deepsage/pkg/config"
)

// Status of a session, surfaced to external wrappers.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// WebResult is the lightweight record of one admitted web hit.
type WebResult struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Snippet      string `json:"snippet"`
	SourceEngine string `json:"source_engine"`
}

// DomainPage is one downloaded page in the per-domain grouping of the
// report.
type DomainPage struct {
	URL          string `json:"url"`
	FilePath     string `json:"file_path"`
	ContentType  string `json:"content_type"`
	Title        string `json:"title"`
	SourceEngine string `json:"source_engine"`
}

// LocalResult is one local-corpus retrieval hit.
type LocalResult struct {
	FilePath string  `json:"file_path"`
	Snippet  string  `json:"snippet"`
	Score    float64 `json:"score"`
}

// Result is the full session outcome consumed by external wrappers.
type Result struct {
	QueryID          string                  `json:"query_id"`
	Status           Status                  `json:"status"`
	QueryText        string                  `json:"query_text"`
	Parameters       *config.Config          `json:"parameters,omitempty"`
	EnhancedQuery    string                  `json:"enhanced_query"`
	FinalAnswer      string                  `json:"final_answer"`
	SearchTree       []*TOCNode              `json:"search_tree"`
	WebResults       []WebResult             `json:"web_results"`
	GroupedByDomain  map[string][]DomainPage `json:"grouped_by_domain"`
	LocalResults     []LocalResult           `json:"local_results"`
	ErrorMessage     string                  `json:"error_message,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	CompletedAt      time.Time               `json:"completed_at"`
	ProcessingTimeMs int64                   `json:"processing_time_ms"`
}

// Progress is one progress-stream event.
type Progress struct {
	QueryID            string    `json:"query_id"`
	Status             Status    `json:"status"`
	Message            string    `json:"message"`
	ProgressPercentage float64   `json:"progress_percentage"`
	Timestamp          time.Time `json:"timestamp"`
}

// ProgressFunc receives progress events; nil disables reporting.
type ProgressFunc func(Progress)

// newID returns a short unique id for sessions and tree nodes.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
