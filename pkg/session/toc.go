package session

import (
	"fmt"
	"strings"
	"time"
)

// Timestamps marks the phases of one node's processing.
type Timestamps struct {
	Created          time.Time  `json:"created"`
	WebSearchStart   *time.Time `json:"web_search_start,omitempty"`
	WebSearchEnd     *time.Time `json:"web_search_end,omitempty"`
	SummaryGenerated *time.Time `json:"summary_generated,omitempty"`
	Completed        *time.Time `json:"completed,omitempty"`
}

// Metrics accumulates per-node accounting.
type Metrics struct {
	WebResultsCount        int     `json:"web_results_count"`
	CorpusEntriesCount     int     `json:"corpus_entries_count"`
	TotalContentLength     int     `json:"total_content_length"`
	AvgSimilarity          float64 `json:"avg_similarity"`
	MinSimilarity          float64 `json:"min_similarity"`
	MaxSimilarity          float64 `json:"max_similarity"`
	MonteCarloSelected     bool    `json:"monte_carlo_selected"`
	MonteCarloWeight       float64 `json:"monte_carlo_weight"`
	ProcessingTimeMs       int64   `json:"processing_time_ms"`
	SubqueryExpansionCount int     `json:"subquery_expansion_count"`
}

// TOCNode is one node of the search tree. Children are owned by their
// parent; the parent back-reference is the parent's query text, never a
// pointer.
type TOCNode struct {
	NodeID           string      `json:"node_id"`
	QueryText        string      `json:"query_text"`
	Depth            int         `json:"depth"`
	ParentQuery      string      `json:"parent_query"`
	RelevanceScore   float64     `json:"relevance_score"`
	Summary          string      `json:"summary"`
	WebResults       []WebResult `json:"web_results"`
	Children         []*TOCNode  `json:"children"`
	Timestamps       Timestamps  `json:"timestamps"`
	Metrics          Metrics     `json:"metrics"`
	SimilarityScores []float64   `json:"similarity_scores"`
}

// NewTOCNode creates a node at depth with a fresh short id.
func NewTOCNode(queryText string, depth int) *TOCNode {
	return &TOCNode{
		NodeID:     newID(),
		QueryText:  queryText,
		Depth:      depth,
		Timestamps: Timestamps{Created: time.Now().UTC()},
	}
}

// AddChild attaches child, recording this node's query as the child's
// parent and forcing depth = parent depth + 1.
func (n *TOCNode) AddChild(child *TOCNode) {
	child.ParentQuery = n.QueryText
	child.Depth = n.Depth + 1
	n.Children = append(n.Children, child)
}

// RecordSimilarity pushes one page similarity and refreshes the avg/min/max
// metrics.
func (n *TOCNode) RecordSimilarity(score float64) {
	n.SimilarityScores = append(n.SimilarityScores, score)

	var sum float64
	min, max := n.SimilarityScores[0], n.SimilarityScores[0]
	for _, s := range n.SimilarityScores {
		sum += s
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	n.Metrics.AvgSimilarity = sum / float64(len(n.SimilarityScores))
	n.Metrics.MinSimilarity = min
	n.Metrics.MaxSimilarity = max
}

// Complete stamps the node finished.
func (n *TOCNode) Complete() {
	now := time.Now().UTC()
	n.Timestamps.Completed = &now
}

const tocSummaryLimit = 150

// BuildTOCString renders the tree as an indented bullet list for the final
// prompt: each node shows its relevance and a clipped summary.
func BuildTOCString(nodes []*TOCNode) string {
	var sb strings.Builder
	for _, n := range nodes {
		writeTOCNode(&sb, n, 0)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeTOCNode(sb *strings.Builder, n *TOCNode, indent int) {
	summary := strings.Join(strings.Fields(n.Summary), " ")
	if runes := []rune(summary); len(runes) > tocSummaryLimit {
		summary = string(runes[:tocSummaryLimit]) + "..."
	}

	sb.WriteString(strings.Repeat("  ", indent))
	fmt.Fprintf(sb, "- %s (relevance %.2f)", n.QueryText, n.RelevanceScore)
	if summary != "" {
		fmt.Fprintf(sb, ": %s", summary)
	}
	sb.WriteString("\n")

	for _, child := range n.Children {
		writeTOCNode(sb, child, indent+1)
	}
}
