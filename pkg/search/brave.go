package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// BraveEngine calls the Brave Search HTTP API. Requires a subscription
// token (free tier available); disabled without one.
type BraveEngine struct {
	client  *http.Client
	apiBase string
	token   string
}

type BraveOption func(*BraveEngine)

func WithBraveAPI(apiBase string) BraveOption {
	return func(e *BraveEngine) {
		e.apiBase = apiBase
	}
}

func NewBraveEngine(token string, opts ...BraveOption) *BraveEngine {
	e := &BraveEngine{
		client:  &http.Client{Timeout: 10 * time.Second},
		apiBase: "https://api.search.brave.com/res/v1/web/search",
		token:   token,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *BraveEngine) Name() string {
	return "brave"
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (e *BraveEngine) Search(ctx context.Context, keyword string, maxResults int) ([]Result, error) {
	count := maxResults
	if count > 20 {
		count = 20
	}
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("count", fmt.Sprintf("%d", count))
	params.Set("offset", "0")
	params.Set("mkt", "en-US")
	params.Set("safesearch", "moderate")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.apiBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", e.token)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave api returned status %d", resp.StatusCode)
	}

	var data braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode brave response: %w", err)
	}

	var results []Result
	for _, item := range data.Web.Results {
		if item.URL == "" {
			continue
		}
		results = append(results, Result{
			Title:  item.Title,
			Href:   item.URL,
			Body:   item.Description,
			Source: e.Name(),
		})
	}
	return results, nil
}
