package llm

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts and splits text by token budget for one model.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
	model    string
}

var (
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	cacheMu       sync.RWMutex
)

// NewTokenCounter creates a counter for the model, falling back to
// cl100k_base when the model has no registered encoding (Anthropic and
// Ollama models included; the counts stay close enough for budgeting).
func NewTokenCounter(model string) (*TokenCounter, error) {
	cacheMu.RLock()
	cached, ok := encodingCache[model]
	cacheMu.RUnlock()
	if ok {
		return &TokenCounter{encoding: cached, model: model}, nil
	}

	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}

	cacheMu.Lock()
	encodingCache[model] = encoding
	cacheMu.Unlock()

	return &TokenCounter{encoding: encoding, model: model}, nil
}

// Count returns the token count of text.
func (tc *TokenCounter) Count(text string) int {
	return len(tc.encoding.Encode(text, nil, nil))
}

// SplitByTokens breaks text into pieces of at most maxTokens, splitting on
// paragraph boundaries where possible and hard-splitting oversized
// paragraphs.
func (tc *TokenCounter) SplitByTokens(text string, maxTokens int) []string {
	if tc.Count(text) <= maxTokens {
		return []string{text}
	}

	var pieces []string
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if current.Len() > 0 {
			pieces = append(pieces, strings.TrimSpace(current.String()))
			current.Reset()
			currentTokens = 0
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		n := tc.Count(para)
		if n > maxTokens {
			flush()
			pieces = append(pieces, tc.hardSplit(para, maxTokens)...)
			continue
		}
		if currentTokens+n > maxTokens {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += n
	}
	flush()
	return pieces
}

func (tc *TokenCounter) hardSplit(text string, maxTokens int) []string {
	tokens := tc.encoding.Encode(text, nil, nil)
	var pieces []string
	for start := 0; start < len(tokens); start += maxTokens {
		end := start + maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		pieces = append(pieces, tc.encoding.Decode(tokens[start:end]))
	}
	return pieces
}
