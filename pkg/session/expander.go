package session

import (
	"context"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/deepsage/deepsage/pkg/config"
	"github.com/deepsage/deepsage/pkg/embed"
	"github.com/deepsage/deepsage/pkg/extract"
	"github.com/deepsage/deepsage/pkg/fetcher"
	"github.com/deepsage/deepsage/pkg/knowledge"
	"github.com/deepsage/deepsage/pkg/search"
	"github.com/deepsage/deepsage/pkg/utils"
)

// pageEmbedLimit caps the extracted text fed to the embedder per page.
const pageEmbedLimit = 2048

// Searcher is the engine-manager surface the expander needs.
type Searcher interface {
	Search(ctx context.Context, keyword string, maxResults int) []search.Result
}

// Downloader is the fetcher surface the expander needs.
type Downloader interface {
	Download(ctx context.Context, urls []string, outDir string) []fetcher.Page
}

// TextEmbedder produces one unit-norm vector per text.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// LanguageModel is the prompting surface the session consumes. A nil model
// degrades gracefully: raw queries, empty summaries.
type LanguageModel interface {
	EnhanceQuery(ctx context.Context, query string) string
	SummarizeText(ctx context.Context, query, text string) string
	GenerateFinalAnswer(ctx context.Context, query, webSummary, localSummary string) (string, error)
}

// Expander grows the search tree: per sub-query it gates on relevance,
// searches, downloads, embeds, summarizes, and recurses.
type Expander struct {
	cfg        *config.Config
	searcher   Searcher
	downloader Downloader
	embedder   TextEmbedder
	model      LanguageModel
	kb         *knowledge.KnowledgeBase

	// queryEmbedding is the session's enhanced-query vector, the anchor all
	// relevance gating measures against.
	queryEmbedding []float32
	outDir         string

	// extractFn is swappable in tests.
	extractFn func(string) (string, error)

	pages []DomainPage
}

func NewExpander(cfg *config.Config, searcher Searcher, downloader Downloader, embedder TextEmbedder, model LanguageModel, kb *knowledge.KnowledgeBase, queryEmbedding []float32, outDir string) *Expander {
	return &Expander{
		cfg:            cfg,
		searcher:       searcher,
		downloader:     downloader,
		embedder:       embedder,
		model:          model,
		kb:             kb,
		queryEmbedding: queryEmbedding,
		outDir:         outDir,
		extractFn:      extract.Extract,
	}
}

// DomainPages returns every downloaded page seen so far, for the report's
// per-domain grouping.
func (e *Expander) DomainPages() []DomainPage {
	return e.pages
}

// Expand processes sub-queries at one depth sequentially, depth-first. A
// branch below the relevance floor is abandoned whole: no node, no children,
// no output.
func (e *Expander) Expand(ctx context.Context, subqueries []Candidate, depth int, parentQuery string) ([]WebResult, []*TOCNode) {
	var webResults []WebResult
	var nodes []*TOCNode

	for _, candidate := range subqueries {
		clean := utils.CleanQuery(candidate.Query)
		if clean == "" {
			continue
		}

		node := NewTOCNode(clean, depth)
		node.ParentQuery = parentQuery
		node.Metrics.MonteCarloSelected = candidate.Selected
		node.Metrics.MonteCarloWeight = candidate.Weight

		vec, err := e.embedder.EmbedText(ctx, clean)
		if err != nil {
			slog.Warn("sub-query embedding failed, branch dropped", "query", clean, "error", err)
			continue
		}
		relevance := embed.Dot(e.queryEmbedding, vec)
		node.RelevanceScore = relevance
		node.RecordSimilarity(relevance)

		if floor := e.cfg.RelevanceFloor(); relevance < floor {
			slog.Info("sub-query below relevance floor, skipping",
				"query", clean, "relevance", relevance, "floor", floor)
			continue
		}

		start := time.Now()
		branchResults := e.expandNode(ctx, node, clean, vec)
		node.Metrics.ProcessingTimeMs = time.Since(start).Milliseconds()

		if depth < e.cfg.MaxDepth && e.model != nil {
			enhanced := e.model.EnhanceQuery(ctx, clean)
			subs := utils.SplitQuery(enhanced, e.cfg.MaxQueryLength)
			node.Metrics.SubqueryExpansionCount = len(subs)

			children := make([]Candidate, 0, len(subs))
			for _, s := range subs {
				children = append(children, Candidate{Query: s})
			}
			childResults, childNodes := e.Expand(ctx, children, depth+1, clean)
			for _, child := range childNodes {
				node.AddChild(child)
			}
			branchResults = append(branchResults, childResults...)
		}

		node.Complete()
		nodes = append(nodes, node)
		webResults = append(webResults, branchResults...)
	}
	return webResults, nodes
}

// expandNode runs the search → rerank → download → extract → embed →
// summarize pipeline for one node.
func (e *Expander) expandNode(ctx context.Context, node *TOCNode, clean string, queryVec []float32) []WebResult {
	searchStart := time.Now().UTC()
	node.Timestamps.WebSearchStart = &searchStart

	raw := e.searcher.Search(ctx, clean, e.cfg.WebSearchLimit)
	ranked := search.Rerank(raw, clean, search.DefaultPerDomainCap)
	if len(ranked) > e.cfg.WebSearchLimit {
		ranked = ranked[:e.cfg.WebSearchLimit]
	}

	byURL := make(map[string]search.Result, len(ranked))
	urls := make([]string, 0, len(ranked))
	for _, r := range ranked {
		byURL[r.Href] = r
		urls = append(urls, r.Href)
	}

	subDir := filepath.Join(e.outDir, "web_"+utils.SanitizeFilename(clean))
	pages := e.downloader.Download(ctx, urls, subDir)
	searchEnd := time.Now().UTC()
	node.Timestamps.WebSearchEnd = &searchEnd

	var webResults []WebResult
	var branchTexts []string
	for _, page := range pages {
		hit := byURL[page.URL]
		text, err := e.extractFn(page.FilePath)
		if err != nil {
			slog.Warn("page extraction failed", "path", page.FilePath, "error", err)
			text = ""
		}

		// Every downloaded page gets a sidecar, even when nothing usable
		// was extracted from it.
		sidecar := fetcher.NewSidecar(page, clean, hit.Source, hit.Title, hit.Published, text)
		if err := sidecar.Write(); err != nil {
			slog.Warn("sidecar write failed", "path", page.FilePath, "error", err)
		}

		truncated := text
		if runes := []rune(truncated); len(runes) > pageEmbedLimit {
			truncated = string(runes[:pageEmbedLimit])
		}
		if truncated == "" {
			continue
		}

		pageVec, err := e.embedder.EmbedText(ctx, truncated)
		if err != nil {
			slog.Warn("page embedding failed", "path", page.FilePath, "error", err)
			continue
		}
		node.RecordSimilarity(embed.Dot(queryVec, pageVec))

		e.kb.Add(knowledge.CorpusEntry{
			Embedding: pageVec,
			Metadata: knowledge.Metadata{
				FilePath:      page.FilePath,
				Type:          knowledge.TypeWeb,
				Snippet:       knowledge.Snippet(text),
				URL:           page.URL,
				SourceEngine:  hit.Source,
				ContentType:   page.ContentType,
				Size:          page.Size,
				PublishedHint: hit.Published,
				DownloadedAt:  sidecar.DownloadedAt,
			},
		})
		node.Metrics.CorpusEntriesCount++
		node.Metrics.TotalContentLength += len(text)

		webResults = append(webResults, WebResult{
			Title:        hit.Title,
			URL:          page.URL,
			Snippet:      hit.Body,
			SourceEngine: hit.Source,
		})
		e.pages = append(e.pages, DomainPage{
			URL:          page.URL,
			FilePath:     page.FilePath,
			ContentType:  page.ContentType,
			Title:        hit.Title,
			SourceEngine: hit.Source,
		})
		branchTexts = append(branchTexts, truncated)
	}
	node.WebResults = webResults
	node.Metrics.WebResultsCount = len(webResults)

	if e.model != nil && len(branchTexts) > 0 {
		node.Summary = e.model.SummarizeText(ctx, clean, strings.Join(branchTexts, "\n\n"))
		if node.Summary != "" {
			generated := time.Now().UTC()
			node.Timestamps.SummaryGenerated = &generated
		}
	}
	return webResults
}

// GroupByDomain buckets downloaded pages by URL host.
func GroupByDomain(pages []DomainPage) map[string][]DomainPage {
	grouped := make(map[string][]DomainPage)
	for _, p := range pages {
		host := ""
		if u, err := url.Parse(p.URL); err == nil {
			host = u.Hostname()
		}
		grouped[host] = append(grouped[host], p)
	}
	return grouped
}
