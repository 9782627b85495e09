package http

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/fwojciec/sift"
	"github.com/mmcdole/gofeed"
)

// FeedName is the provider name of FeedSearch.
const FeedName = "feeds"

var _ sift.SearchProvider = (*FeedSearch)(nil)

// FeedSearch searches a fixed list of RSS, Atom or JSON feeds. An item
// matches when every query term appears in its title or description.
type FeedSearch struct {
	feeds  []string
	parser *gofeed.Parser
}

// NewFeedSearch creates a FeedSearch over the feed URLs.
func NewFeedSearch(feeds []string, opts ...SearchOption) *FeedSearch {
	cfg := newSearchConfig("", opts)
	parser := gofeed.NewParser()
	parser.Client = cfg.client
	parser.UserAgent = cfg.userAgent
	return &FeedSearch{feeds: feeds, parser: parser}
}

// Name returns "feeds".
func (s *FeedSearch) Name() string { return FeedName }

// Search returns matching feed items, newest first. Feeds that fail to
// load are skipped; an error is returned only when every feed fails.
func (s *FeedSearch) Search(ctx context.Context, query string, opts sift.SearchOptions) ([]sift.Article, error) {
	q := parseQuery(query)
	terms := strings.Fields(strings.ToLower(strings.NewReplacer(`"`, " ", "“", " ", "”", " ").Replace(q.text)))
	if len(terms) == 0 {
		return nil, nil
	}

	var articles []sift.Article
	var lastErr error
	var loaded int
	for _, feedURL := range s.feeds {
		feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			slog.WarnContext(ctx, "feed failed", "feed", feedURL, "err", err)
			lastErr = err
			continue
		}
		loaded++
		for _, item := range feed.Items {
			if a, ok := matchItem(item, terms, q.site); ok {
				articles = append(articles, a)
			}
		}
	}
	if loaded == 0 && lastErr != nil {
		return nil, lastErr
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	return paginateArticles(articles, opts), nil
}

func matchItem(item *gofeed.Item, terms []string, site string) (sift.Article, bool) {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	title := strings.TrimSpace(item.Title)
	if link == "" || title == "" {
		return sift.Article{}, false
	}
	if site != "" {
		u, err := url.Parse(link)
		if err != nil {
			return sift.Article{}, false
		}
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		if host != site && !strings.HasSuffix(host, "."+site) {
			return sift.Article{}, false
		}
	}

	description := stripTags(item.Description)
	haystack := strings.ToLower(title + " " + description)
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return sift.Article{}, false
		}
	}

	a := sift.Article{URL: link, Title: title, Snippet: description}
	if item.PublishedParsed != nil {
		a.PublishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		a.PublishedAt = *item.UpdatedParsed
	}
	return a, true
}

func paginateArticles(articles []sift.Article, opts sift.SearchOptions) []sift.Article {
	if opts.PageSize <= 0 {
		return articles
	}
	start := (pageOf(opts) - 1) * opts.PageSize
	if start >= len(articles) {
		return nil
	}
	end := min(start+opts.PageSize, len(articles))
	return articles[start:end]
}
