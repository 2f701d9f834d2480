package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// summaryChunkTokens caps each summarization chunk so the prompt plus
	// content stays well inside small-model context windows.
	summaryChunkTokens = 3000

	enhanceMarker = "Final Enhanced Query:"
)

// Manager layers the session prompting logic over a Provider: query
// enhancement, token-capped summarization, and the final answer.
type Manager struct {
	provider    Provider
	counter     *TokenCounter
	personality string
}

func NewManager(provider Provider, personality string) (*Manager, error) {
	counter, err := NewTokenCounter(provider.ModelName())
	if err != nil {
		return nil, fmt.Errorf("failed to build token counter: %w", err)
	}
	return &Manager{
		provider:    provider,
		counter:     counter,
		personality: personality,
	}, nil
}

func (m *Manager) Provider() Provider {
	return m.provider
}

// systemPrompt prepends the configured personality to a role prompt.
func (m *Manager) systemPrompt(role string) string {
	if m.personality == "" {
		return role
	}
	return m.personality + "\n\n" + role
}

// EnhanceQuery rewrites a terse query into a precise research query. The
// model reasons step by step and marks the result; the line after the
// marker is extracted. Any failure returns the original query unchanged so
// the caller proceeds with the raw input.
func (m *Manager) EnhanceQuery(ctx context.Context, query string) string {
	prompt := fmt.Sprintf(`You are refining a research query for a web search system.

Original query: %s

Think step by step about what the user is really asking: the key entities,
the time frame, and the kind of sources that would answer it. Then produce a
single improved query capturing that intent.

End your response with exactly one line of the form:
%s <the improved query>`, query, enhanceMarker)

	response, err := m.provider.Generate(ctx, m.systemPrompt("You are a precise research assistant."), prompt)
	if err != nil {
		slog.Warn("query enhancement failed, using original", "error", err)
		return query
	}

	if enhanced := extractEnhancedQuery(response); enhanced != "" {
		return enhanced
	}
	slog.Warn("enhancement response had no marker, using original")
	return query
}

// extractEnhancedQuery pulls the text after the last marker occurrence.
func extractEnhancedQuery(response string) string {
	idx := strings.LastIndex(response, enhanceMarker)
	if idx < 0 {
		return ""
	}
	rest := response[idx+len(enhanceMarker):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return strings.TrimSpace(rest)
}

// SummarizeText produces a research summary of text with respect to the
// query. Oversized input is split by token budget, summarized per chunk,
// and the chunk summaries are combined in a second pass. Empty input yields
// an empty summary; a failed chunk is dropped rather than failing the
// whole summary.
func (m *Manager) SummarizeText(ctx context.Context, query, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	chunks := m.counter.SplitByTokens(text, summaryChunkTokens)
	if len(chunks) == 1 {
		summary, err := m.summarizeChunk(ctx, query, chunks[0])
		if err != nil {
			slog.Warn("summarization failed", "error", err)
			return ""
		}
		return summary
	}

	var partials []string
	for i, chunk := range chunks {
		summary, err := m.summarizeChunk(ctx, query, chunk)
		if err != nil {
			slog.Warn("chunk summarization failed", "chunk", i+1, "error", err)
			continue
		}
		partials = append(partials, summary)
	}
	if len(partials) == 0 {
		return ""
	}

	combined, err := m.summarizeChunk(ctx, query, strings.Join(partials, "\n\n"))
	if err != nil {
		slog.Warn("summary combination failed, joining partials", "error", err)
		return strings.Join(partials, "\n\n")
	}
	return combined
}

func (m *Manager) summarizeChunk(ctx context.Context, query, chunk string) (string, error) {
	prompt := fmt.Sprintf(`Summarize the following content as it relates to the research query %q.
Keep concrete facts, figures, and dates. Ignore navigation text and boilerplate.

Content:
%s`, query, chunk)

	return m.provider.Generate(ctx, m.systemPrompt("You summarize research material accurately and concisely."), prompt)
}

// FollowUp answers a follow-up question in the context of an earlier
// research answer.
func (m *Manager) FollowUp(ctx context.Context, originalQuery, previousAnswer, question string) (string, error) {
	prompt := fmt.Sprintf(`An earlier research session answered the query %q with:

%s

Follow-up question: %s

Answer the follow-up using the earlier findings where they apply, and say so
when they do not cover it.`, originalQuery, previousAnswer, question)

	answer, err := m.provider.Generate(ctx, m.systemPrompt("You are a research analyst continuing a conversation."), prompt)
	if err != nil {
		return "", fmt.Errorf("follow-up generation failed: %w", err)
	}
	return answer, nil
}

// GenerateFinalAnswer composes the session's closing answer from the
// accumulated evidence. Unlike enhancement and summarization, a failure
// here propagates: the session has nothing to show without it.
func (m *Manager) GenerateFinalAnswer(ctx context.Context, query, webSummary, localSummary string) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Research query: %s\n\n", query)
	if webSummary != "" {
		fmt.Fprintf(&sb, "Findings from web research:\n%s\n\n", webSummary)
	}
	if localSummary != "" {
		fmt.Fprintf(&sb, "Findings from the local document corpus:\n%s\n\n", localSummary)
	}
	sb.WriteString("Using only the findings above, write a thorough, well-structured answer to the research query. Cite which findings support each claim. State clearly when the findings are insufficient.")

	answer, err := m.provider.Generate(ctx, m.systemPrompt("You are a research analyst writing a final report."), sb.String())
	if err != nil {
		return "", fmt.Errorf("final answer generation failed: %w", err)
	}
	return answer, nil
}
