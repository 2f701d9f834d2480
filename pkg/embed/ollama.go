package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/deepsage/deepsage/pkg/config"
)

// Ollama's llama runner crashes on concurrent embedding requests, so all
// calls are serialized process-wide.
var ollamaEmbedMu sync.Mutex

// OllamaEmbedder calls a local Ollama instance's embeddings endpoint.
type OllamaEmbedder struct {
	client     *http.Client
	host       string
	model      string
	maxRetries int
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func NewOllamaEmbedder(cfg config.EmbedderConfig) *OllamaEmbedder {
	host := cfg.Host
	if host == "" {
		host = "http://localhost:11434"
	}
	model := cfg.Model
	if model == "" {
		model = "nomic-embed-text"
	}
	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &OllamaEmbedder{
		client:     &http.Client{Timeout: timeout},
		host:       host,
		model:      model,
		maxRetries: 3,
	}
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ollamaEmbedMu.Lock()
	defer ollamaEmbedMu.Unlock()

	reqBody, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		vec, err := e.embedOnce(ctx, reqBody)
		if err == nil {
			return vec, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("ollama embedding failed after %d attempts: %w", e.maxRetries, lastErr)
}

func (e *OllamaEmbedder) embedOnce(ctx context.Context, reqBody []byte) ([]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/api/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embeddings returned status %d", resp.StatusCode)
	}

	var data ollamaEmbedResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if len(data.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}
	return data.Embedding, nil
}

func (e *OllamaEmbedder) Dimension() int {
	// nomic-embed-text; other models report their true dimension at runtime
	// through the vectors themselves.
	return 768
}

func (e *OllamaEmbedder) ModelName() string {
	return e.model
}
