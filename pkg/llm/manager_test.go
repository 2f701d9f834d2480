package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider answers from a queue; an exhausted queue repeats the
// last response.
type scriptedProvider struct {
	responses []string
	err       error
	prompts   []string
	systems   []string
}

func (p *scriptedProvider) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	p.prompts = append(p.prompts, userPrompt)
	p.systems = append(p.systems, systemPrompt)
	if p.err != nil {
		return "", p.err
	}
	if len(p.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	resp := p.responses[0]
	if len(p.responses) > 1 {
		p.responses = p.responses[1:]
	}
	return resp, nil
}

func (p *scriptedProvider) ModelName() string { return "gpt-4o-mini" }

func newTestManager(t *testing.T, p Provider) *Manager {
	t.Helper()
	m, err := NewManager(p, "")
	require.NoError(t, err)
	return m
}

func TestEnhanceQuery(t *testing.T) {
	t.Run("extracts the marked line", func(t *testing.T) {
		p := &scriptedProvider{responses: []string{
			"The user wants recent peer-reviewed work.\n\nFinal Enhanced Query: recent peer-reviewed studies on microplastic toxicity in humans",
		}}
		m := newTestManager(t, p)

		got := m.EnhanceQuery(context.Background(), "microplastics bad?")
		assert.Equal(t, "recent peer-reviewed studies on microplastic toxicity in humans", got)
	})

	t.Run("provider failure returns original query", func(t *testing.T) {
		p := &scriptedProvider{err: errors.New("timeout")}
		m := newTestManager(t, p)
		assert.Equal(t, "microplastics", m.EnhanceQuery(context.Background(), "microplastics"))
	})

	t.Run("missing marker returns original query", func(t *testing.T) {
		p := &scriptedProvider{responses: []string{"I think the query is fine as is."}}
		m := newTestManager(t, p)
		assert.Equal(t, "microplastics", m.EnhanceQuery(context.Background(), "microplastics"))
	})
}

func TestExtractEnhancedQuery(t *testing.T) {
	assert.Equal(t, "a b c", extractEnhancedQuery("reasoning\nFinal Enhanced Query: a b c\ntrailing"))
	assert.Equal(t, "last", extractEnhancedQuery("Final Enhanced Query: first\nFinal Enhanced Query: last"))
	assert.Empty(t, extractEnhancedQuery("no marker here"))
}

func TestSummarizeText(t *testing.T) {
	t.Run("empty text yields empty summary without a call", func(t *testing.T) {
		p := &scriptedProvider{responses: []string{"should not be used"}}
		m := newTestManager(t, p)

		assert.Empty(t, m.SummarizeText(context.Background(), "q", "   "))
		assert.Empty(t, p.prompts)
	})

	t.Run("short text summarized in one call", func(t *testing.T) {
		p := &scriptedProvider{responses: []string{"a concise summary"}}
		m := newTestManager(t, p)

		got := m.SummarizeText(context.Background(), "q", "some findings about batteries")
		assert.Equal(t, "a concise summary", got)
		assert.Len(t, p.prompts, 1)
	})

	t.Run("long text is chunked then combined", func(t *testing.T) {
		p := &scriptedProvider{responses: []string{"part summary", "part summary", "combined summary"}}
		m := newTestManager(t, p)

		long := strings.Repeat("the study measured grid storage capacity across regions. ", 2000)
		got := m.SummarizeText(context.Background(), "q", long)

		assert.Equal(t, "combined summary", got)
		assert.Greater(t, len(p.prompts), 2, "expected per-chunk calls plus a combine call")
	})

	t.Run("provider failure yields empty summary", func(t *testing.T) {
		p := &scriptedProvider{err: errors.New("unavailable")}
		m := newTestManager(t, p)
		assert.Empty(t, m.SummarizeText(context.Background(), "q", "text"))
	})
}

func TestGenerateFinalAnswer(t *testing.T) {
	t.Run("builds the evidence prompt", func(t *testing.T) {
		p := &scriptedProvider{responses: []string{"the final answer"}}
		m := newTestManager(t, p)

		got, err := m.GenerateFinalAnswer(context.Background(), "grid storage", "web facts", "local facts")
		require.NoError(t, err)
		assert.Equal(t, "the final answer", got)

		require.Len(t, p.prompts, 1)
		assert.Contains(t, p.prompts[0], "grid storage")
		assert.Contains(t, p.prompts[0], "web facts")
		assert.Contains(t, p.prompts[0], "local facts")
	})

	t.Run("failure propagates", func(t *testing.T) {
		p := &scriptedProvider{err: errors.New("model overloaded")}
		m := newTestManager(t, p)
		_, err := m.GenerateFinalAnswer(context.Background(), "q", "", "")
		assert.Error(t, err)
	})
}

func TestFollowUp(t *testing.T) {
	t.Run("carries the earlier answer into the prompt", func(t *testing.T) {
		p := &scriptedProvider{responses: []string{"follow-up answer"}}
		m := newTestManager(t, p)

		got, err := m.FollowUp(context.Background(), "grid storage", "storage tripled", "what about costs?")
		require.NoError(t, err)
		assert.Equal(t, "follow-up answer", got)

		require.Len(t, p.prompts, 1)
		assert.Contains(t, p.prompts[0], "storage tripled")
		assert.Contains(t, p.prompts[0], "what about costs?")
	})

	t.Run("failure propagates", func(t *testing.T) {
		p := &scriptedProvider{err: errors.New("unavailable")}
		m := newTestManager(t, p)
		_, err := m.FollowUp(context.Background(), "q", "a", "f")
		assert.Error(t, err)
	})
}

func TestManagerPersonality(t *testing.T) {
	p := &scriptedProvider{responses: []string{"ok"}}
	m, err := NewManager(p, "Answer like a historian.")
	require.NoError(t, err)

	_, err = m.GenerateFinalAnswer(context.Background(), "q", "", "")
	require.NoError(t, err)

	require.Len(t, p.systems, 1)
	assert.True(t, strings.HasPrefix(p.systems[0], "Answer like a historian."))
}
