package session

import (
	"encoding/json"
	"math"
	"os"
	"time"
)

// TreeStructure describes the shape of the search tree.
type TreeStructure struct {
	TotalNodes      int     `json:"total_nodes"`
	MaxDepth        int     `json:"max_depth"`
	AvgDepth        float64 `json:"avg_depth"`
	BranchingFactor float64 `json:"branching_factor"`
}

// ScoreStats summarizes a score distribution.
type ScoreStats struct {
	Avg    float64 `json:"avg"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// Analytics is the metrics block persisted with the TOC tree.
type Analytics struct {
	TreeStructure         TreeStructure `json:"tree_structure"`
	RelevanceStats        ScoreStats    `json:"relevance_stats"`
	SimilarityStats       ScoreStats    `json:"similarity_stats"`
	MonteCarloSelected    int           `json:"monte_carlo_selected"`
	MonteCarloRatio       float64       `json:"monte_carlo_selection_ratio"`
	TotalWebResults       int           `json:"total_web_results"`
	TotalCorpusEntries    int           `json:"total_corpus_entries"`
	TotalContentLength    int           `json:"total_content_length"`
	TotalProcessingTimeMs int64         `json:"total_processing_time_ms"`
}

// AnalyzeTOCTree walks the tree and aggregates structure, relevance,
// similarity, Monte-Carlo, content, and timing metrics.
func AnalyzeTOCTree(nodes []*TOCNode) Analytics {
	var a Analytics
	var depthSum int
	var withChildren, childTotal int
	var relevances, similarities []float64

	var walk func(n *TOCNode)
	walk = func(n *TOCNode) {
		a.TreeStructure.TotalNodes++
		depthSum += n.Depth
		if n.Depth > a.TreeStructure.MaxDepth {
			a.TreeStructure.MaxDepth = n.Depth
		}
		if len(n.Children) > 0 {
			withChildren++
			childTotal += len(n.Children)
		}

		relevances = append(relevances, n.RelevanceScore)
		similarities = append(similarities, n.SimilarityScores...)

		if n.Metrics.MonteCarloSelected {
			a.MonteCarloSelected++
		}
		a.TotalWebResults += n.Metrics.WebResultsCount
		a.TotalCorpusEntries += n.Metrics.CorpusEntriesCount
		a.TotalContentLength += n.Metrics.TotalContentLength
		a.TotalProcessingTimeMs += n.Metrics.ProcessingTimeMs

		for _, child := range n.Children {
			walk(child)
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	if a.TreeStructure.TotalNodes > 0 {
		a.TreeStructure.AvgDepth = float64(depthSum) / float64(a.TreeStructure.TotalNodes)
		a.MonteCarloRatio = float64(a.MonteCarloSelected) / float64(a.TreeStructure.TotalNodes)
	}
	if withChildren > 0 {
		a.TreeStructure.BranchingFactor = float64(childTotal) / float64(withChildren)
	}
	a.RelevanceStats = computeStats(relevances)
	a.SimilarityStats = computeStats(similarities)
	return a
}

func computeStats(values []float64) ScoreStats {
	if len(values) == 0 {
		return ScoreStats{}
	}
	var sum float64
	min, max := values[0], values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	avg := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - avg) * (v - avg)
	}
	variance /= float64(len(values))

	return ScoreStats{Avg: avg, Min: min, Max: max, StdDev: math.Sqrt(variance)}
}

// tocDocument is the persisted shape of toc_analysis.json.
type tocDocument struct {
	GeneratedAt string     `json:"generated_at"`
	TOCTree     []*TOCNode `json:"toc_tree"`
	Analytics   Analytics  `json:"analytics"`
}

// SaveTOCJSON writes the full tree plus its analytics block.
func SaveTOCJSON(path string, nodes []*TOCNode, analytics Analytics) error {
	doc := tocDocument{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		TOCTree:     nodes,
		Analytics:   analytics,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
