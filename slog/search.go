package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sift"
)

// Ensure LoggingSearchProvider implements sift.SearchProvider.
var _ sift.SearchProvider = (*LoggingSearchProvider)(nil)

// LoggingSearchProvider wraps a SearchProvider with logging.
type LoggingSearchProvider struct {
	next   sift.SearchProvider
	logger *slog.Logger
}

// NewLoggingSearchProvider creates a new LoggingSearchProvider.
func NewLoggingSearchProvider(next sift.SearchProvider, logger *slog.Logger) *LoggingSearchProvider {
	return &LoggingSearchProvider{next: next, logger: logger}
}

// Name returns the wrapped provider's name.
func (p *LoggingSearchProvider) Name() string {
	return p.next.Name()
}

// Search delegates to the wrapped provider and logs the query.
func (p *LoggingSearchProvider) Search(ctx context.Context, query string, opts sift.SearchOptions) (articles []sift.Article, err error) {
	defer func(begin time.Time) {
		p.logger.InfoContext(ctx, "search",
			"provider", p.next.Name(),
			"query", query,
			"page", opts.Page,
			"count", len(articles),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Search(ctx, query, opts)
}

// Ensure LoggingQueryProvider implements sift.QueryProvider.
var _ sift.QueryProvider = (*LoggingQueryProvider)(nil)

// LoggingQueryProvider wraps a QueryProvider with logging.
type LoggingQueryProvider struct {
	next   sift.QueryProvider
	logger *slog.Logger
}

// NewLoggingQueryProvider creates a new LoggingQueryProvider.
func NewLoggingQueryProvider(next sift.QueryProvider, logger *slog.Logger) *LoggingQueryProvider {
	return &LoggingQueryProvider{next: next, logger: logger}
}

// Queries delegates to the wrapped provider and logs the expansion.
func (p *LoggingQueryProvider) Queries(ctx context.Context, input sift.Input) (queries []string, err error) {
	defer func(begin time.Time) {
		p.logger.InfoContext(ctx, "query expansion",
			"keywords", len(input.Keywords),
			"count", len(queries),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Queries(ctx, input)
}
