package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deepsage/deepsage/pkg/httpclient"
)

// TavilyEngine calls the Tavily search API. Keyed by TAVILY_API_KEY; used
// first in the fallback chain when configured.
type TavilyEngine struct {
	client  *httpclient.Client
	apiBase string
	apiKey  string
}

type TavilyOption func(*TavilyEngine)

func WithTavilyAPI(apiBase string) TavilyOption {
	return func(e *TavilyEngine) {
		e.apiBase = apiBase
	}
}

func NewTavilyEngine(apiKey string, opts ...TavilyOption) (*TavilyEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("tavily api key is required")
	}
	e := &TavilyEngine{
		client: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 15 * time.Second}),
			httpclient.WithMaxRetries(2),
			httpclient.WithBaseDelay(500*time.Millisecond),
		),
		apiBase: "https://api.tavily.com",
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *TavilyEngine) Name() string {
	return "tavily"
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (e *TavilyEngine) Search(ctx context.Context, keyword string, maxResults int) ([]Result, error) {
	limit := maxResults
	if limit > 10 {
		limit = 10
	}
	payload, err := json.Marshal(tavilyRequest{
		APIKey:     e.apiKey,
		Query:      keyword,
		MaxResults: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiBase+"/search", bytes.NewReader(payload))
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
		return nil, fmt.Errorf("failed to read tavily response: %w", err)
	}

	var data tavilyResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to decode tavily response: %w", err)
	}

	var results []Result
	for _, item := range data.Results {
		if item.URL == "" {
			continue
		}
		results = append(results, Result{
			Title:  item.Title,
			Href:   item.URL,
			Body:   item.Content,
			Source: e.Name(),
		})
		if len(results) >= maxResults {
			break
		}
	}
	return results, nil
}
