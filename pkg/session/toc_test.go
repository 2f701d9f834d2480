package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree() []*TOCNode {
	root := NewTOCNode("root query", 1)
	root.RelevanceScore = 0.9
	root.Summary = "root summary"
	root.Metrics.WebResultsCount = 3
	root.Metrics.TotalContentLength = 4000
	root.Metrics.ProcessingTimeMs = 120
	root.Metrics.MonteCarloSelected = true
	root.RecordSimilarity(0.9)
	root.RecordSimilarity(0.7)

	child := NewTOCNode("child query", 0)
	child.RelevanceScore = 0.6
	child.Metrics.WebResultsCount = 1
	child.Metrics.ProcessingTimeMs = 40
	child.RecordSimilarity(0.6)
	root.AddChild(child)

	sibling := NewTOCNode("sibling query", 1)
	sibling.RelevanceScore = 0.8
	sibling.RecordSimilarity(0.8)

	return []*TOCNode{root, sibling}
}

func TestTOCNodeAddChild(t *testing.T) {
	parent := NewTOCNode("parent", 1)
	child := NewTOCNode("child", 99)
	parent.AddChild(child)

	assert.Equal(t, 2, child.Depth, "depth forced to parent+1")
	assert.Equal(t, "parent", child.ParentQuery)
	assert.NotEqual(t, parent.NodeID, child.NodeID)
	assert.Len(t, parent.NodeID, 8)
}

func TestRecordSimilarity(t *testing.T) {
	n := NewTOCNode("q", 1)
	n.RecordSimilarity(0.4)
	n.RecordSimilarity(0.8)
	n.RecordSimilarity(0.6)

	assert.InDelta(t, 0.6, n.Metrics.AvgSimilarity, 1e-9)
	assert.InDelta(t, 0.4, n.Metrics.MinSimilarity, 1e-9)
	assert.InDelta(t, 0.8, n.Metrics.MaxSimilarity, 1e-9)
	assert.Len(t, n.SimilarityScores, 3)
}

func TestBuildTOCString(t *testing.T) {
	nodes := buildTree()
	out := BuildTOCString(nodes)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "- root query (relevance 0.90): root summary", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "  - child query"))
	assert.Equal(t, "- sibling query (relevance 0.80)", lines[2])
}

func TestBuildTOCStringClipsSummary(t *testing.T) {
	n := NewTOCNode("q", 1)
	n.Summary = strings.Repeat("word ", 60)
	out := BuildTOCString([]*TOCNode{n})
	assert.Contains(t, out, "...")
	assert.Less(t, len(out), 220)
}

func TestAnalyzeTOCTree(t *testing.T) {
	a := AnalyzeTOCTree(buildTree())

	assert.Equal(t, 3, a.TreeStructure.TotalNodes)
	assert.Equal(t, 2, a.TreeStructure.MaxDepth)
	assert.InDelta(t, 4.0/3.0, a.TreeStructure.AvgDepth, 1e-9)
	assert.InDelta(t, 1.0, a.TreeStructure.BranchingFactor, 1e-9)

	assert.InDelta(t, 0.9, a.RelevanceStats.Max, 1e-9)
	assert.InDelta(t, 0.6, a.RelevanceStats.Min, 1e-9)
	assert.Positive(t, a.RelevanceStats.StdDev)

	assert.Equal(t, 1, a.MonteCarloSelected)
	assert.InDelta(t, 1.0/3.0, a.MonteCarloRatio, 1e-9)
	assert.Equal(t, 4, a.TotalWebResults)
	assert.Equal(t, 4000, a.TotalContentLength)
	assert.EqualValues(t, 160, a.TotalProcessingTimeMs)
}

func TestAnalyzeTOCTreeEmpty(t *testing.T) {
	a := AnalyzeTOCTree(nil)
	assert.Zero(t, a.TreeStructure.TotalNodes)
	assert.Zero(t, a.RelevanceStats.Avg)
}

func TestSaveTOCJSON(t *testing.T) {
	nodes := buildTree()
	path := filepath.Join(t.TempDir(), "toc_analysis.json")

	require.NoError(t, SaveTOCJSON(path, nodes, AnalyzeTOCTree(nodes)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "toc_tree")
	assert.Contains(t, doc, "analytics")
	assert.Contains(t, doc, "generated_at")

	tree, ok := doc["toc_tree"].([]any)
	require.True(t, ok)
	require.Len(t, tree, 2)
	rootMap := tree[0].(map[string]any)
	assert.Equal(t, "root query", rootMap["query_text"])
	assert.Contains(t, rootMap, "metrics")
	assert.Contains(t, rootMap, "timestamps")
}

func TestWriteReport(t *testing.T) {
	result := &Result{
		QueryID:       "abcd1234",
		Status:        StatusCompleted,
		QueryText:     "grid storage",
		EnhancedQuery: "utility-scale grid storage deployment",
		FinalAnswer:   "Storage deployment tripled since 2023.",
		WebResults: []WebResult{
			{Title: "Report", URL: "https://example.com/r", Snippet: "snippet", SourceEngine: "tavily"},
		},
		GroupedByDomain: map[string][]DomainPage{
			"example.com": {{URL: "https://example.com/r", FilePath: "/tmp/x.html", ContentType: "text/html", Title: "Report", SourceEngine: "tavily"}},
		},
		LocalResults: []LocalResult{
			{FilePath: "notes.txt", Snippet: "battery notes", Score: 0.91},
		},
	}

	path := filepath.Join(t.TempDir(), "abcd1234_output.md")
	require.NoError(t, WriteReport(path, result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	report := string(data)

	for _, section := range []string{
		"## Enhanced Query",
		"## Web Search Results",
		"## Grouped Web Results by Domain",
		"## Local Retrieval Results",
		"## Final Aggregated Answer",
	} {
		assert.Contains(t, report, section)
	}
	assert.Contains(t, report, "utility-scale grid storage deployment")
	assert.Contains(t, report, "https://example.com/r")
	assert.Contains(t, report, "battery notes")
	assert.Contains(t, report, "Storage deployment tripled since 2023.")
}
