package sift

import (
	"context"
	"time"
)

// Article is a single search hit returned by a SearchProvider.
type Article struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Snippet     string    `json:"snippet"`
	PublishedAt time.Time `json:"publishedAt"`
}

// SortBy constants for SearchOptions.
const (
	SortByRelevance   = "relevance"
	SortByPublishedAt = "publishedAt"
)

// SearchOptions controls paging and ordering of a search.
type SearchOptions struct {
	PageSize int    `json:"pageSize"`
	SortBy   string `json:"sortBy"`

	// Page is 1-based. Zero means the first page.
	Page int `json:"page"`
}

// SearchProvider finds articles matching a query.
type SearchProvider interface {
	// Name identifies the provider in audit events and frontier cursors.
	Name() string

	// Search returns articles matching the query.
	Search(ctx context.Context, query string, opts SearchOptions) ([]Article, error)
}
