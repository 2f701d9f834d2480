// Package fetcher downloads web pages politely: robots.txt is honored, a
// HEAD pre-flight rejects oversized bodies, concurrency is bounded by a
// shared semaphore, and failed URLs are dropped rather than surfaced.
package fetcher

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/deepsage/deepsage/pkg/httpclient"
)

const (
	// DefaultMaxBytes caps a single download at 8 MB.
	DefaultMaxBytes = 8 * 1024 * 1024

	// DefaultConcurrency is the width of the download semaphore.
	DefaultConcurrency = 8

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"
)

// Page is one successfully downloaded artifact, handed to the extractor.
type Page struct {
	URL         string
	FilePath    string
	ContentType string
	Size        int64
}

// Fetcher downloads URLs under one shared concurrency limit. A single
// Fetcher is meant to live for the whole session so every expansion branch
// draws from the same semaphore.
type Fetcher struct {
	client    *httpclient.Client
	head      *http.Client
	robots    *robotsCache
	sem       *semaphore.Weighted
	maxBytes  int64
	userAgent string
}

type Option func(*Fetcher)

// WithConcurrency sets the semaphore width.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithMaxBytes sets the per-download size cap.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// WithClient overrides the retrying GET client (for tests).
func WithClient(client *httpclient.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithHeadClient overrides the HEAD pre-flight client (for tests).
func WithHeadClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.head = client
	}
}

func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 20 * time.Second}),
			httpclient.WithMaxRetries(3),
			httpclient.WithBaseDelay(250*time.Millisecond),
			httpclient.WithJitter(200*time.Millisecond),
		),
		head:      &http.Client{Timeout: 8 * time.Second},
		sem:       semaphore.NewWeighted(DefaultConcurrency),
		maxBytes:  DefaultMaxBytes,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.robots = newRobotsCache(f.userAgent)
	return f
}

// Download fetches urls into outDir, bounded by the shared semaphore. Every
// failure mode (robots denial, oversize, exhausted retries, write error)
// drops the URL; the returned pages preserve input order.
func (f *Fetcher) Download(ctx context.Context, urls []string, outDir string) []Page {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		slog.Error("failed to create download dir", "dir", outDir, "error", err)
		return nil
	}

	slots := make([]*Page, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		if err := f.sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer f.sem.Release(1)
			defer wg.Done()
			page, err := f.fetchOne(ctx, u, outDir)
			if err != nil {
				slog.Debug("download dropped", "url", u, "error", err)
				return
			}
			slots[i] = page
		}()
	}
	wg.Wait()

	var pages []Page
	for _, p := range slots {
		if p != nil {
			pages = append(pages, *p)
		}
	}
	return pages
}

func (f *Fetcher) fetchOne(ctx context.Context, rawURL, outDir string) (*Page, error) {
	if !f.robots.Allowed(ctx, rawURL) {
		return nil, fmt.Errorf("disallowed by robots.txt")
	}
	if size, ok := f.preflight(ctx, rawURL); ok && size > f.maxBytes {
		return nil, fmt.Errorf("content length %d exceeds cap", size)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", f.maxBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	name := LocalName(rawURL, contentType)
	path := filepath.Join(outDir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return nil, err
	}

	return &Page{
		URL:         rawURL,
		FilePath:    path,
		ContentType: contentType,
		Size:        int64(len(body)),
	}, nil
}

// preflight issues a best-effort HEAD; failures are ignored and the second
// return is false when no usable Content-Length came back.
func (f *Fetcher) preflight(ctx context.Context, rawURL string) (int64, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, false
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.head.Do(req)
	if err != nil {
		return 0, false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.ContentLength <= 0 {
		return 0, false
	}
	return resp.ContentLength, true
}

// LocalName derives the on-disk filename: the first 12 hex chars of
// SHA1(url), with .pdf for PDF responses and .html otherwise. The same URL
// always maps to the same name, so re-fetches overwrite in place.
func LocalName(rawURL, contentType string) string {
	sum := sha1.Sum([]byte(rawURL))
	name := hex.EncodeToString(sum[:])[:12]
	if strings.Contains(strings.ToLower(contentType), "application/pdf") ||
		strings.HasSuffix(strings.ToLower(rawURL), ".pdf") {
		return name + ".pdf"
	}
	return name + ".html"
}
