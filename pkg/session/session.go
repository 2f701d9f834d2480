package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deepsage/deepsage/pkg/config"
	"github.com/deepsage/deepsage/pkg/embed"
	"github.com/deepsage/deepsage/pkg/knowledge"
	"github.com/deepsage/deepsage/pkg/utils"
)

// Session drives one research query end to end: enhance, split, sample,
// expand recursively, retrieve locally, and persist the report artifacts.
type Session struct {
	cfg        *config.Config
	searcher   Searcher
	downloader Downloader
	embedder   TextEmbedder
	model      LanguageModel
	kb         *knowledge.KnowledgeBase
	loader     *knowledge.Loader
	rng        *rand.Rand
	progress   ProgressFunc
}

type Option func(*Session)

// WithProgress registers a progress-event sink.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Session) {
		s.progress = fn
	}
}

// WithRand injects the RNG driving Monte-Carlo sampling.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) {
		s.rng = rng
	}
}

// WithCorpusLoader enables local corpus ingestion at session start.
func WithCorpusLoader(loader *knowledge.Loader) Option {
	return func(s *Session) {
		s.loader = loader
	}
}

// New assembles a session. model may be nil: enhancement and summaries are
// skipped and the final answer stays empty.
func New(cfg *config.Config, searcher Searcher, downloader Downloader, embedder TextEmbedder, model LanguageModel, opts ...Option) *Session {
	s := &Session{
		cfg:        cfg,
		searcher:   searcher,
		downloader: downloader,
		embedder:   embedder,
		model:      model,
		kb:         knowledge.NewKnowledgeBase(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KnowledgeBase exposes the session corpus, mainly for tests and wrappers.
func (s *Session) KnowledgeBase() *knowledge.KnowledgeBase {
	return s.kb
}

func (s *Session) emit(queryID string, status Status, message string, pct float64) {
	if s.progress == nil {
		return
	}
	s.progress(Progress{
		QueryID:            queryID,
		Status:             status,
		Message:            message,
		ProgressPercentage: pct,
		Timestamp:          time.Now().UTC(),
	})
}

// Run executes the full pipeline for one query. Individual page, engine,
// and summarization failures are absorbed; only a failed final answer fails
// the session, and even then the artifacts gathered so far are persisted.
func (s *Session) Run(ctx context.Context, query string) (*Result, error) {
	queryID := newID()
	result := &Result{
		QueryID:    queryID,
		Status:     StatusRunning,
		QueryText:  query,
		Parameters: s.cfg,
		CreatedAt:  time.Now().UTC(),
	}

	outDir := filepath.Join(s.cfg.ResultsBaseDir, queryID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return s.fail(result, fmt.Errorf("failed to create session dir: %w", err))
	}
	s.emit(queryID, StatusRunning, "session started", 0)

	if s.cfg.CorpusDir != "" && s.loader != nil {
		if err := s.loader.Load(ctx, s.cfg.CorpusDir, s.kb); err != nil {
			slog.Warn("local corpus load failed, continuing without it", "error", err)
		}
		s.emit(queryID, StatusRunning, "local corpus loaded", 10)
	}

	enhanced := query
	if s.model != nil && strings.TrimSpace(query) != "" {
		enhanced = s.model.EnhanceQuery(ctx, query)
	}
	result.EnhancedQuery = enhanced
	s.emit(queryID, StatusRunning, "query enhanced", 20)

	var queryVec []float32
	if strings.TrimSpace(enhanced) != "" {
		vec, err := s.embedder.EmbedText(ctx, enhanced)
		if err != nil {
			return s.fail(result, fmt.Errorf("failed to embed enhanced query: %w", err))
		}
		queryVec = vec
	}

	candidates := s.selectSubQueries(ctx, enhanced, queryVec)
	s.emit(queryID, StatusRunning, fmt.Sprintf("%d sub-queries selected", len(candidates)), 30)

	if s.cfg.WebEnabled() && queryVec != nil && len(candidates) > 0 {
		expander := NewExpander(s.cfg, s.searcher, s.downloader, s.embedder, s.model, s.kb, queryVec, outDir)
		webResults, tree := expander.Expand(ctx, candidates, 1, enhanced)
		result.WebResults = dedupeWebResults(webResults)
		result.SearchTree = tree
		result.GroupedByDomain = GroupByDomain(expander.DomainPages())
		s.emit(queryID, StatusRunning, "web expansion complete", 70)
	}

	if queryVec != nil {
		for _, hit := range s.kb.Search(queryVec, s.cfg.TopK) {
			result.LocalResults = append(result.LocalResults, LocalResult{
				FilePath: hit.Metadata.FilePath,
				Snippet:  hit.Metadata.Snippet,
				Score:    hit.Score,
			})
		}
		s.emit(queryID, StatusRunning, "local retrieval complete", 80)
	}

	if s.model != nil {
		answer, err := s.model.GenerateFinalAnswer(ctx, enhanced,
			s.webContext(result), s.localContext(ctx, enhanced, result))
		if err != nil {
			s.persistArtifacts(outDir, result)
			return s.fail(result, err)
		}
		result.FinalAnswer = answer
		s.emit(queryID, StatusRunning, "final answer generated", 90)
	}

	result.Status = StatusCompleted
	result.CompletedAt = time.Now().UTC()
	result.ProcessingTimeMs = result.CompletedAt.Sub(result.CreatedAt).Milliseconds()
	s.persistArtifacts(outDir, result)
	s.emit(queryID, StatusCompleted, "session complete", 100)
	return result, nil
}

// selectSubQueries splits the enhanced query and, when Monte-Carlo sampling
// is on, draws a weighted subset; without positive weights every candidate
// survives.
func (s *Session) selectSubQueries(ctx context.Context, enhanced string, queryVec []float32) []Candidate {
	subs := utils.SplitQuery(enhanced, s.cfg.MaxQueryLength)
	candidates := make([]Candidate, 0, len(subs))
	for _, sub := range subs {
		candidates = append(candidates, Candidate{Query: sub})
	}

	if !s.cfg.MonteCarloEnabled() || queryVec == nil || len(candidates) == 0 {
		return candidates
	}

	for i := range candidates {
		vec, err := s.embedder.EmbedText(ctx, candidates[i].Query)
		if err != nil {
			slog.Warn("candidate embedding failed, weight zero", "query", candidates[i].Query, "error", err)
			continue
		}
		candidates[i].Weight = embed.Dot(queryVec, vec)
	}
	return SampleSubQueries(candidates, s.cfg.MonteCarloSamples, s.rng)
}

// webContext assembles the final-prompt view of the web evidence: the TOC
// tree with summaries plus the unique reference links.
func (s *Session) webContext(result *Result) string {
	if len(result.SearchTree) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(BuildTOCString(result.SearchTree))

	if len(result.WebResults) > 0 {
		sb.WriteString("\n\nReferences:\n")
		for _, r := range result.WebResults {
			fmt.Fprintf(&sb, "- %s (%s)\n", r.URL, r.SourceEngine)
		}
	}
	return sb.String()
}

// localContext summarizes the local retrieval hits.
func (s *Session) localContext(ctx context.Context, enhanced string, result *Result) string {
	if len(result.LocalResults) == 0 || s.model == nil {
		return ""
	}
	var snippets []string
	for _, r := range result.LocalResults {
		snippets = append(snippets, r.Snippet)
	}
	return s.model.SummarizeText(ctx, enhanced, strings.Join(snippets, "\n\n"))
}

func (s *Session) persistArtifacts(outDir string, result *Result) {
	analytics := AnalyzeTOCTree(result.SearchTree)
	if err := SaveTOCJSON(filepath.Join(outDir, "toc_analysis.json"), result.SearchTree, analytics); err != nil {
		slog.Warn("failed to save TOC analysis", "error", err)
	}
	if err := WriteReport(filepath.Join(outDir, result.QueryID+"_output.md"), result); err != nil {
		slog.Warn("failed to write report", "error", err)
	}
	if result.FinalAnswer != "" {
		if err := os.WriteFile(filepath.Join(outDir, "final_report.md"), []byte(result.FinalAnswer+"\n"), 0o644); err != nil {
			slog.Warn("failed to write final report", "error", err)
		}
	}
}

func (s *Session) fail(result *Result, err error) (*Result, error) {
	result.Status = StatusFailed
	result.ErrorMessage = err.Error()
	result.CompletedAt = time.Now().UTC()
	result.ProcessingTimeMs = result.CompletedAt.Sub(result.CreatedAt).Milliseconds()
	s.emit(result.QueryID, StatusFailed, err.Error(), 100)
	return result, err
}

// dedupeWebResults keeps the first occurrence of each URL.
func dedupeWebResults(results []WebResult) []WebResult {
	seen := make(map[string]bool, len(results))
	var out []WebResult
	for _, r := range results {
		if seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
	}
	return out
}
