package sift

import (
	"context"
	"net/http"
)

// FetchResult holds the outcome of retrieving a URL.
type FetchResult struct {
	// FinalURL is the URL after following redirects.
	FinalURL string

	Status int
	Header http.Header
	HTML   string

	// PaywallDetected is a heuristic flag; the content is still returned.
	PaywallDetected bool
}

// Fetcher retrieves HTML from URLs.
type Fetcher interface {
	// Fetch retrieves the URL, following redirects.
	// Errors carry EFETCHTIMEOUT, EFETCHFAILED or EFETCHNON200.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// RedirectResolver follows a single redirect hop.
type RedirectResolver interface {
	// Resolve returns the redirect target of url, or url itself when the
	// server does not redirect.
	Resolve(ctx context.Context, url string) (string, error)
}

// RobotsChecker reports whether a URL may be crawled.
type RobotsChecker interface {
	Allowed(ctx context.Context, url string) (bool, error)
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
