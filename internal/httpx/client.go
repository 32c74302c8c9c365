// Package httpx provides the HTTP fetch-and-retry primitive the archiver
// core builds on. Timeout and backoff live here, not in the fetch driver:
// a download that exhausts its retries surfaces as a fatal task failure.
package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/klauspost/compress/zip"
	"golang.org/x/oauth2"
)

const (
	defaultRetries = 5
	defaultBackoff = 500 * time.Millisecond
)

type Client struct {
	http    *http.Client
	retries int
	backoff time.Duration
}

type options struct {
	verbose bool
	// writer controls where verbose HTTP logs are written (typically stderr)
	// so structured output on stdout stays clean and tests can capture logs.
	writer  io.Writer
	token   string
	retries int
	backoff time.Duration
}

type Option func(*options)

func WithVerbose(enabled bool, writer io.Writer) Option {
	return func(o *options) {
		o.verbose = enabled
		o.writer = writer
	}
}

// WithToken authenticates every request with a static bearer token.
func WithToken(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

func WithRetries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.retries = n
		}
	}
}

func WithBackoff(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.backoff = d
		}
	}
}

// loggingRoundTripper wraps an underlying transport and emits one line per
// request and response (including latency) when verbose logging is enabled.
type loggingRoundTripper struct {
	base http.RoundTripper
	w    io.Writer
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	if t.w != nil {
		_, _ = fmt.Fprintf(t.w, "[verbose] fetch: %s %s\n", req.Method, req.URL.String())
	}
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start)
	if t.w != nil {
		if err != nil {
			_, _ = fmt.Fprintf(t.w, "[verbose] fetch: error after %s: %v\n", dur.Truncate(time.Millisecond), err)
		} else {
			_, _ = fmt.Fprintf(t.w, "[verbose] fetch: %d %s (%s)\n", resp.StatusCode, http.StatusText(resp.StatusCode), dur.Truncate(time.Millisecond))
		}
	}
	return resp, err
}

func NewClient(opts ...Option) *Client {
	o := &options{
		retries: defaultRetries,
		backoff: defaultBackoff,
	}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.writer == nil {
		o.writer = os.Stderr
	}

	transport := http.DefaultTransport
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, w: o.writer}
	}
	if o.token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}

	return &Client{
		http:    &http.Client{Transport: transport},
		retries: o.retries,
		backoff: o.backoff,
	}
}

// Fetch GETs url and returns the response body, retrying transient failures
// (network errors, 429 and 5xx responses) with linear backoff. Other non-2xx
// statuses fail immediately.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if attempt > 1 {
			wait := time.Duration(attempt-1) * c.backoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		body, retryable, err := c.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("fetch %s: giving up after %d attempts: %w", url, c.retries, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("fetch %s: %w", url, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("fetch %s: read body: %w", url, err)
	}
	return body, false, nil
}

// FetchText is Fetch with the body decoded as a string, for HTML pages.
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	body, err := c.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// DownloadFile fetches url and writes the body to path.
func (c *Client) DownloadFile(ctx context.Context, url, path string) error {
	body, err := c.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// DownloadZip downloads a zip file, re-fetching when the payload is not a
// well-formed zip container. Some agency servers intermittently serve
// truncated archives with a 200 status.
func (c *Client) DownloadZip(ctx context.Context, url, path string) error {
	for attempt := 0; attempt < c.retries; attempt++ {
		if err := c.DownloadFile(ctx, url, path); err != nil {
			return err
		}
		r, err := zip.OpenReader(path)
		if err == nil {
			r.Close()
			return nil
		}
	}
	return fmt.Errorf("failed to download valid zipfile from %s", url)
}
