// Package http provides HTTP implementations of the pipeline's network
// collaborators: page fetching, redirect probing, robots.txt checks,
// search providers and the audit event stream.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/sift"
)

// Fetch defaults.
const (
	DefaultFetchTimeout = 15 * time.Second
	DefaultUserAgent    = "sift/1.0 (+https://github.com/fwojciec/sift)"
	DefaultMaxBodySize  = 5 << 20
)

// Ensure Fetcher implements sift.Fetcher at compile time.
var _ sift.Fetcher = (*Fetcher)(nil)

// paywallMarkers are body substrings that suggest gated content.
var paywallMarkers = []string{
	`"isaccessibleforfree": false`,
	`"isaccessibleforfree":false`,
	`"isaccessibleforfree":"false"`,
	"subscribe to continue reading",
	"subscribe to read",
	"this content is for subscribers",
	"class=\"paywall",
	"id=\"paywall",
}

// Fetcher retrieves HTML content from URLs using HTTP GET requests,
// following redirects.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (15s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize caps how many body bytes are read.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     DefaultFetchTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the URL. Non-2xx responses are returned together with
// an EFETCHNON200 error so callers can inspect the status. A URL that
// cannot be requested is EINVALID, which is never retried.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*sift.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, sift.Errorf(sift.EINVALID, "invalid URL %q: %v", url, err)
	}
	if (req.URL.Scheme != "http" && req.URL.Scheme != "https") || req.URL.Host == "" {
		return nil, sift.Errorf(sift.EINVALID, "invalid URL %q: not an absolute http(s) URL", url)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, classify(url, err)
	}

	result := &sift.FetchResult{
		FinalURL: resp.Request.URL.String(),
		Status:   resp.StatusCode,
		Header:   resp.Header,
		HTML:     string(body),
	}
	result.PaywallDetected = detectPaywall(resp.StatusCode, result.HTML)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, sift.Errorf(sift.EFETCHNON200, "HTTP %d for %s", resp.StatusCode, url)
	}
	return result, nil
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

// classify maps transport errors to fetch error codes.
func classify(url string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return sift.Errorf(sift.EFETCHTIMEOUT, "timeout fetching %s", url)
	}
	return sift.Errorf(sift.EFETCHFAILED, "fetching %s: %v", url, err)
}

func detectPaywall(status int, body string) bool {
	if status == http.StatusPaymentRequired {
		return true
	}
	lower := strings.ToLower(body)
	for _, marker := range paywallMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// get issues a GET with the user agent and returns the response for
// status codes in [200, 300). Used by search providers.
func get(ctx context.Context, client *http.Client, url, userAgent string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return resp, nil
}
