package http

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/fwojciec/sift"
)

// DefaultRedirectTimeout bounds a redirect HEAD request.
const DefaultRedirectTimeout = 3 * time.Second

var _ sift.RedirectResolver = (*RedirectResolver)(nil)

// RedirectResolver sends a HEAD request to a URL and reports where its first
// redirect points, without following it.
type RedirectResolver struct {
	client    *http.Client
	userAgent string
}

// NewRedirectResolver creates a RedirectResolver. A zero timeout uses
// DefaultRedirectTimeout.
func NewRedirectResolver(timeout time.Duration, userAgent string) *RedirectResolver {
	if timeout <= 0 {
		timeout = DefaultRedirectTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &RedirectResolver{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: userAgent,
	}
}

// Resolve returns the Location of a redirect response resolved against
// rawURL, or rawURL when the response is not a redirect.
func (r *RedirectResolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode > 399 {
		return rawURL, nil
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return rawURL, nil
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	target, err := base.Parse(loc)
	if err != nil {
		return "", err
	}
	return target.String(), nil
}
