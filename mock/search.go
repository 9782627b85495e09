package mock

import (
	"context"

	"github.com/fwojciec/sift"
)

var (
	_ sift.SearchProvider = (*SearchProvider)(nil)
	_ sift.QueryProvider  = (*QueryProvider)(nil)
)

// SearchProvider is a mock implementation of sift.SearchProvider.
type SearchProvider struct {
	NameFn   func() string
	SearchFn func(ctx context.Context, query string, opts sift.SearchOptions) ([]sift.Article, error)
}

func (p *SearchProvider) Name() string {
	return p.NameFn()
}

func (p *SearchProvider) Search(ctx context.Context, query string, opts sift.SearchOptions) ([]sift.Article, error) {
	return p.SearchFn(ctx, query, opts)
}

// QueryProvider is a mock implementation of sift.QueryProvider.
type QueryProvider struct {
	QueriesFn func(ctx context.Context, input sift.Input) ([]string, error)
}

func (p *QueryProvider) Queries(ctx context.Context, input sift.Input) ([]string, error) {
	return p.QueriesFn(ctx, input)
}
