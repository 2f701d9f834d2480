package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsCache resolves robots.txt policies, fetching each origin at most
// once per process. A missing or unfetchable robots file is permissive.
type robotsCache struct {
	client    *http.Client
	userAgent string

	mu       sync.Mutex
	byOrigin map[string]*robotstxt.RobotsData
}

func newRobotsCache(userAgent string) *robotsCache {
	return &robotsCache{
		client:    &http.Client{Timeout: 5 * time.Second},
		userAgent: userAgent,
		byOrigin:  make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether rawURL may be fetched under its origin's robots
// policy.
func (c *robotsCache) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	data := c.policy(ctx, u.Scheme+"://"+u.Host)
	if data == nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return data.FindGroup(c.userAgent).Test(path)
}

func (c *robotsCache) policy(ctx context.Context, origin string) *robotstxt.RobotsData {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data, ok := c.byOrigin[origin]; ok {
		return data
	}

	data := c.fetch(ctx, origin)
	c.byOrigin[origin] = data
	return data
}

// fetch returns nil (permissive) when robots.txt cannot be retrieved or
// parsed.
func (c *robotsCache) fetch(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return data
}
