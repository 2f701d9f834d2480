package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// DuckDuckGoEngine scrapes the DuckDuckGo HTML endpoint. It is rate-limit
// prone, so it retries up to three times with exponential backoff and
// returns on the first non-empty result set.
type DuckDuckGoEngine struct {
	client   *http.Client
	endpoint string
	attempts int
}

// DuckDuckGoOption configures the engine.
type DuckDuckGoOption func(*DuckDuckGoEngine)

// WithDuckDuckGoEndpoint overrides the HTML search endpoint (for tests).
func WithDuckDuckGoEndpoint(endpoint string) DuckDuckGoOption {
	return func(e *DuckDuckGoEngine) {
		e.endpoint = endpoint
	}
}

func NewDuckDuckGoEngine(opts ...DuckDuckGoOption) *DuckDuckGoEngine {
	e := &DuckDuckGoEngine{
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: "https://html.duckduckgo.com/html/",
		attempts: 3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *DuckDuckGoEngine) Name() string {
	return "ddg"
}

func (e *DuckDuckGoEngine) Search(ctx context.Context, keyword string, maxResults int) ([]Result, error) {
	var lastErr error
	for attempt := 0; attempt < e.attempts; attempt++ {
		if attempt > 0 {
			// 2^n seconds between attempts.
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		results, err := e.searchOnce(ctx, keyword, maxResults)
		if err != nil {
			lastErr = err
			slog.Warn("DDG search attempt failed", "attempt", attempt+1, "error", err)
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("ddg search failed after %d attempts: %w", e.attempts, lastErr)
	}
	return nil, nil
}

func (e *DuckDuckGoEngine) searchOnce(ctx context.Context, keyword string, maxResults int) ([]Result, error) {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("kl", "wt-wt")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.endpoint+"?"+params.Encode(), nil)
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
		return nil, fmt.Errorf("ddg returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ddg response: %w", err)
	}

	var results []Result
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a.result__a")
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return true
		}
		results = append(results, Result{
			Title:  strings.TrimSpace(link.Text()),
			Href:   resolveDuckDuckGoHref(href),
			Body:   strings.TrimSpace(s.Find(".result__snippet").Text()),
			Source: e.Name(),
		})
		return len(results) < maxResults
	})
	return results, nil
}

// resolveDuckDuckGoHref unwraps the /l/?uddg= redirect DDG wraps organic
// results in. Unwrappable hrefs pass through unchanged.
func resolveDuckDuckGoHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
	}
	return href
}
