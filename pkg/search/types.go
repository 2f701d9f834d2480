// Package search multiplexes queries across free web-search back-ends with
// automatic fallback, and reranks the merged results for quality, recency,
// and domain diversity.
package search

import "context"

// Result is one back-end hit. Immutable once produced.
type Result struct {
	Title     string `json:"title"`
	Href      string `json:"href"`
	Body      string `json:"body"`
	Source    string `json:"source"`
	Published string `json:"published,omitempty"`
}

// Engine is a single search back-end adapter.
type Engine interface {
	// Name returns the engine tag recorded on results.
	Name() string

	// Search returns up to maxResults hits for the keyword. An empty slice
	// is a valid outcome; errors are reported so the manager can fall through.
	Search(ctx context.Context, keyword string, maxResults int) ([]Result, error)
}
