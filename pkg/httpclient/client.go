// Package httpclient provides an HTTP client with exponential-backoff retry
// shared by the engine adapters, the downloader, and the LLM providers.
package httpclient

import (
	"math/rand"
	"net/http"
	"time"
)

// RetryDecider reports whether a response status warrants another attempt.
type RetryDecider func(statusCode int) bool

// Client wraps http.Client with bounded exponential-backoff retry.
type Client struct {
	client     *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxJitter  time.Duration
	decider    RetryDecider
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithMaxRetries(max int) Option {
	return func(c *Client) {
		c.maxRetries = max
	}
}

func WithBaseDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = delay
	}
}

func WithJitter(max time.Duration) Option {
	return func(c *Client) {
		c.maxJitter = max
	}
}

func WithRetryDecider(decider RetryDecider) Option {
	return func(c *Client) {
		c.decider = decider
	}
}

func New(opts ...Option) *Client {
	client := &Client{
		client:     &http.Client{Timeout: 60 * time.Second},
		maxRetries: 3,
		baseDelay:  250 * time.Millisecond,
		maxJitter:  200 * time.Millisecond,
		decider:    DefaultRetryDecider,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// DefaultRetryDecider retries on any status >= 400. Search back-ends and
// download targets routinely answer 429/5xx under load, and transient 403s
// from anti-bot layers clear on a later attempt often enough to be worth it.
func DefaultRetryDecider(statusCode int) bool {
	return statusCode >= 400
}

// Do executes the request, retrying transport errors and retryable statuses
// with doubling backoff plus jitter. The request context bounds all attempts.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var lastErr error
	var lastStatus int
	delay := c.baseDelay

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				req.Body = body
			}
			sleep := delay
			if c.maxJitter > 0 {
				sleep += time.Duration(rand.Int63n(int64(c.maxJitter)))
			}
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(sleep):
			}
			delay *= 2
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if !c.decider(resp.StatusCode) {
			return resp, nil
		}
		lastStatus = resp.StatusCode
		resp.Body.Close()
	}

	return nil, &RetryableError{
		StatusCode: lastStatus,
		Message:    "max retries exceeded",
		Err:        lastErr,
	}
}
