package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// defaultSearxEndpoints is a small pool of public instances; a healthy one
// is discovered at runtime and cached for the process lifetime.
var defaultSearxEndpoints = []string{
	"https://searx.be",
	"https://searxng.nicfab.eu",
	"https://search.ononoki.org",
	"https://searx.tiekoetter.com",
	"https://nx.tcit.fr/searx",
}

var searxTimeRanges = map[string]string{
	"d": "day",
	"w": "week",
	"m": "month",
}

// SearxNGEngine queries a public SearxNG instance, fanning out the keyword's
// recall variants and recency windows concurrently.
type SearxNGEngine struct {
	client    *http.Client
	endpoints []string
	timeout   time.Duration
	rng       *rand.Rand

	mu           sync.Mutex
	goodEndpoint string
	probed       bool
}

type SearxNGOption func(*SearxNGEngine)

// WithSearxNGEndpoints replaces the public endpoint pool.
func WithSearxNGEndpoints(endpoints []string) SearxNGOption {
	return func(e *SearxNGEngine) {
		e.endpoints = endpoints
	}
}

// WithSearxNGRand injects the RNG used to shuffle the candidate pool.
func WithSearxNGRand(rng *rand.Rand) SearxNGOption {
	return func(e *SearxNGEngine) {
		e.rng = rng
	}
}

func NewSearxNGEngine(opts ...SearxNGOption) *SearxNGEngine {
	e := &SearxNGEngine{
		client:    &http.Client{Timeout: 8 * time.Second},
		endpoints: append([]string(nil), defaultSearxEndpoints...),
		timeout:   8 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *SearxNGEngine) Name() string {
	return "searxng"
}

// pickEndpoint probes the shuffled candidate pool with a short test query and
// caches the first endpoint answering 200 OK. Once probing fails for the
// whole pool, the engine stays offline for the process lifetime.
func (e *SearxNGEngine) pickEndpoint(ctx context.Context) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.probed {
		return e.goodEndpoint
	}
	e.probed = true

	candidates := append([]string(nil), e.endpoints...)
	if e.rng != nil {
		e.rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
	} else {
		rand.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
	}

	for _, base := range candidates {
		base = strings.TrimRight(base, "/")
		probeURL := base + "/search?q=test&format=json&categories=general"
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
		if err != nil {
			continue
		}
		req.Header.Set("User-Agent", defaultUserAgent)
		resp, err := e.client.Do(req)
		if err != nil {
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			e.goodEndpoint = base
			return base
		}
	}
	return ""
}

type searxResponse struct {
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		Content       string `json:"content"`
		PublishedDate string `json:"publishedDate"`
	} `json:"results"`
}

func (e *SearxNGEngine) Search(ctx context.Context, keyword string, maxResults int) ([]Result, error) {
	base := e.pickEndpoint(ctx)
	if base == "" {
		return nil, fmt.Errorf("no healthy searxng endpoint")
	}

	variants, recency := ExpandQueries(keyword)
	type task struct {
		query     string
		timeRange string
	}
	var tasks []task
	for _, q := range variants {
		tasks = append(tasks, task{query: q})
	}
	for _, tl := range recency {
		tasks = append(tasks, task{query: keyword, timeRange: searxTimeRanges[tl]})
	}

	chunks := make([][]Result, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, tk := range tasks {
		g.Go(func() error {
			chunks[i] = e.searchOne(gctx, base, tk.query, tk.timeRange)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var results []Result
	for _, chunk := range chunks {
		results = append(results, chunk...)
	}
	return results, nil
}

// searchOne issues a single variant query. Failures yield an empty chunk so
// one flaky variant cannot poison the fan-out.
func (e *SearxNGEngine) searchOne(ctx context.Context, base, query, timeRange string) []Result {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("categories", "general")
	params.Set("language", "en")
	if timeRange != "" {
		params.Set("time_range", timeRange)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var data searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil
	}

	var out []Result
	for _, item := range data.Results {
		if item.URL == "" {
			continue
		}
		out = append(out, Result{
			Title:     item.Title,
			Href:      item.URL,
			Body:      item.Content,
			Source:    e.Name(),
			Published: item.PublishedDate,
		})
	}
	return out
}
