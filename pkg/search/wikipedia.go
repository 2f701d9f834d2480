package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// WikipediaEngine searches the MediaWiki API for strong canonical pages.
// Disabled unless include_wikipedia is set.
type WikipediaEngine struct {
	client  *http.Client
	apiBase string
}

type WikipediaOption func(*WikipediaEngine)

func WithWikipediaAPI(apiBase string) WikipediaOption {
	return func(e *WikipediaEngine) {
		e.apiBase = apiBase
	}
}

func NewWikipediaEngine(opts ...WikipediaOption) *WikipediaEngine {
	e := &WikipediaEngine{
		client:  &http.Client{Timeout: 8 * time.Second},
		apiBase: "https://en.wikipedia.org/w/api.php",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *WikipediaEngine) Name() string {
	return "wikipedia"
}

type wikipediaResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

func (e *WikipediaEngine) Search(ctx context.Context, keyword string, maxResults int) ([]Result, error) {
	limit := maxResults
	if limit > 20 {
		limit = 20
	}
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", keyword)
	params.Set("format", "json")
	params.Set("srlimit", fmt.Sprintf("%d", limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.apiBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia returned status %d", resp.StatusCode)
	}

	var data wikipediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode wikipedia response: %w", err)
	}

	var results []Result
	for _, hit := range data.Query.Search {
		href := "https://en.wikipedia.org/wiki/" + url.QueryEscape(strings.ReplaceAll(hit.Title, " ", "_"))
		results = append(results, Result{
			Title:  hit.Title,
			Href:   href,
			Body:   stripHTMLTags(hit.Snippet),
			Source: e.Name(),
		})
	}
	return results, nil
}

// stripHTMLTags flattens the searchmatch markup MediaWiki embeds in snippets.
func stripHTMLTags(snippet string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return snippet
	}
	return strings.TrimSpace(doc.Text())
}
