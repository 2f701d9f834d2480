// Package knowledge holds the session's embedded corpus and answers top-k
// similarity queries over it.
package knowledge

import (
	"sort"
	"strings"
	"sync"

	"github.com/deepsage/deepsage/pkg/embed"
)

// Entry types. Web content is always "webhtml", PDF or not; the content
// type metadata field carries the real MIME type.
const (
	TypeLocal = "local"
	TypeWeb   = "webhtml"
)

const snippetLimit = 100

// Metadata carries the provenance of one embedded document.
type Metadata struct {
	FilePath      string `json:"file_path"`
	Type          string `json:"type"`
	Snippet       string `json:"snippet"`
	URL           string `json:"url,omitempty"`
	SourceEngine  string `json:"source_engine,omitempty"`
	ContentType   string `json:"content_type,omitempty"`
	Size          int64  `json:"size,omitempty"`
	PublishedHint string `json:"published_hint,omitempty"`
	DownloadedAt  string `json:"downloaded_at,omitempty"`
}

// CorpusEntry is one embedded document. The embedding is unit-norm.
type CorpusEntry struct {
	Embedding []float32
	Metadata  Metadata
}

// ScoredEntry pairs an entry with its similarity to a query.
type ScoredEntry struct {
	CorpusEntry
	Score float64
}

// LateInteractionScore is the dot product of two unit-norm vectors, i.e.
// cosine similarity on the unit sphere.
func LateInteractionScore(a, b []float32) float64 {
	return embed.Dot(a, b)
}

// Snippet flattens newlines and truncates text to the metadata snippet
// budget.
func Snippet(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= snippetLimit {
		return flat
	}
	return string(runes[:snippetLimit]) + "..."
}

// KnowledgeBase is an append-only, insertion-ordered corpus. It is mutated
// during session build-up and read-only during retrieval; concurrent reads
// are safe.
type KnowledgeBase struct {
	mu      sync.RWMutex
	entries []CorpusEntry
}

func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{}
}

func (kb *KnowledgeBase) Add(entry CorpusEntry) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.entries = append(kb.entries, entry)
}

func (kb *KnowledgeBase) Len() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.entries)
}

// Entries returns a snapshot in insertion order.
func (kb *KnowledgeBase) Entries() []CorpusEntry {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	out := make([]CorpusEntry, len(kb.entries))
	copy(out, kb.entries)
	return out
}

// Search returns the k entries with the highest late-interaction score
// against the query vector, best first. A non-positive k returns nothing.
func (kb *KnowledgeBase) Search(query []float32, k int) []ScoredEntry {
	if k <= 0 {
		return nil
	}

	kb.mu.RLock()
	defer kb.mu.RUnlock()

	scored := make([]ScoredEntry, 0, len(kb.entries))
	for _, e := range kb.entries {
		scored = append(scored, ScoredEntry{
			CorpusEntry: e,
			Score:       LateInteractionScore(query, e.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}
