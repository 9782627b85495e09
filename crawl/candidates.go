package crawl

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/fwojciec/sift"
)

// Candidate generation defaults.
const (
	DefaultMaxCandidates = 30
	DefaultPageSize      = 10
	DefaultSearchTimeout = 10 * time.Second
)

// SearchOutcome records one query issued to one provider.
type SearchOutcome struct {
	Provider string
	Query    string
	Page     int
	Results  int
	Err      error
}

// CandidateSet is the output of candidate generation.
type CandidateSet struct {
	Candidates []*sift.Candidate

	// Duplicates counts results whose normalized URL was already collected.
	Duplicates int

	Searches []SearchOutcome
}

// CandidateGenerator issues queries against search providers and collects
// unique candidate URLs.
type CandidateGenerator struct {
	Providers []sift.SearchProvider

	// Frontier supplies per-source page cursors. Nil always searches page 1.
	Frontier sift.Frontier

	PageSize      int
	MaxCandidates int
	Timeout       time.Duration
}

// Generate searches every query with every provider until MaxCandidates
// unique URLs are collected. Provider failures are recorded in the
// outcome and never abort generation. The only error returned is the
// context's.
func (g *CandidateGenerator) Generate(ctx context.Context, topicID string, queries []string) (*CandidateSet, error) {
	maxCandidates := g.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	pageSize := g.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	set := &CandidateSet{}
	seen := make(map[string]bool)

	for _, provider := range g.Providers {
		if len(set.Candidates) >= maxCandidates {
			break
		}
		name := provider.Name()
		page := g.page(ctx, topicID, name)
		var hits int

		for _, query := range queries {
			if err := ctx.Err(); err != nil {
				return set, err
			}
			if len(set.Candidates) >= maxCandidates {
				break
			}

			articles, err := g.search(ctx, provider, query, sift.SearchOptions{
				PageSize: pageSize,
				SortBy:   sift.SortByRelevance,
				Page:     page,
			})
			outcome := SearchOutcome{Provider: name, Query: query, Page: page, Results: len(articles)}
			if err != nil {
				outcome.Err = sift.Errorf(sift.ESEARCHFAILED, "%s: %v", name, err)
				set.Searches = append(set.Searches, outcome)
				continue
			}
			set.Searches = append(set.Searches, outcome)
			hits += len(articles)

			for rank, a := range articles {
				normalized := NormalizeURL(a.URL, "")
				if ExtractDomain(normalized) == "" {
					continue
				}
				hash := URLHash(normalized)
				if seen[hash] {
					set.Duplicates++
					continue
				}
				seen[hash] = true
				set.Candidates = append(set.Candidates, &sift.Candidate{
					URL:           a.URL,
					Title:         a.Title,
					SourceQuery:   query,
					NormalizedURL: normalized,
					URLHash:       hash,
					Source:        name,
					Priority:      1 / float64(rank+1),
				})
				if len(set.Candidates) >= maxCandidates {
					break
				}
			}
		}

		g.advance(ctx, topicID, name, page, hits)
	}

	return set, nil
}

func (g *CandidateGenerator) search(ctx context.Context, p sift.SearchProvider, query string, opts sift.SearchOptions) ([]sift.Article, error) {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultSearchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Search(ctx, query, opts)
}

// page returns the page to search next for the source.
func (g *CandidateGenerator) page(ctx context.Context, topicID, source string) int {
	if g.Frontier == nil {
		return 1
	}
	cursor, err := g.Frontier.Cursor(ctx, topicID, source)
	if err != nil || cursor.NextToken == "" {
		return 1
	}
	page, err := strconv.Atoi(cursor.NextToken)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// advance moves the source's cursor to the next page, or back to the
// first page once a page comes back empty.
func (g *CandidateGenerator) advance(ctx context.Context, topicID, source string, page, hits int) {
	if g.Frontier == nil {
		return
	}
	next := ""
	if hits > 0 {
		next = strconv.Itoa(page + 1)
	}
	if err := g.Frontier.SetNextToken(ctx, topicID, source, next); err != nil {
		slog.WarnContext(ctx, "saving search cursor", "source", source, "err", err)
	}
}
