package mock

import (
	"context"

	"github.com/fwojciec/sift"
)

var (
	_ sift.Fetcher          = (*Fetcher)(nil)
	_ sift.RedirectResolver = (*RedirectResolver)(nil)
	_ sift.RobotsChecker    = (*RobotsChecker)(nil)
	_ sift.DomainLimiter    = (*DomainLimiter)(nil)
)

// Fetcher is a mock implementation of sift.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*sift.FetchResult, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*sift.FetchResult, error) {
	return f.FetchFn(ctx, url)
}

// RedirectResolver is a mock implementation of sift.RedirectResolver.
type RedirectResolver struct {
	ResolveFn func(ctx context.Context, url string) (string, error)
}

func (r *RedirectResolver) Resolve(ctx context.Context, url string) (string, error) {
	return r.ResolveFn(ctx, url)
}

// RobotsChecker is a mock implementation of sift.RobotsChecker.
type RobotsChecker struct {
	AllowedFn func(ctx context.Context, url string) (bool, error)
}

func (r *RobotsChecker) Allowed(ctx context.Context, url string) (bool, error) {
	return r.AllowedFn(ctx, url)
}

// DomainLimiter is a mock implementation of sift.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return d.WaitFn(ctx, domain)
}
