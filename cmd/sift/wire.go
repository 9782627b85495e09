package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fwojciec/sift"
	"github.com/fwojciec/sift/crawl"
	"github.com/fwojciec/sift/gemini"
	"github.com/fwojciec/sift/goquery"
	"github.com/fwojciec/sift/htmltomarkdown"
	sifthttp "github.com/fwojciec/sift/http"
	"github.com/fwojciec/sift/readability"
	siftredis "github.com/fwojciec/sift/redis"
	siftslog "github.com/fwojciec/sift/slog"
	"github.com/fwojciec/sift/trafilatura"
	"google.golang.org/genai"
)

// Sizing of the in-memory frontier's per-topic Bloom filter.
const (
	frontierExpectedURLs = 100_000
	frontierFPRate       = 0.001
)

// newCrawler wires the pipeline from the configuration. Shared state lives
// in Redis when a client is open and in memory otherwise.
func (m *Main) newCrawler(ctx context.Context, cfg *Config, deps *Dependencies, sites []string) (*crawl.Crawler, error) {
	logger := deps.Logger
	ua := cfg.Crawl.UserAgent

	fetcher := sifthttp.NewFetcher(
		sifthttp.WithTimeout(cfg.FetchTimeout()),
		sifthttp.WithUserAgent(ua),
	)

	extractor, err := newExtractor(cfg.Extractor)
	if err != nil {
		return nil, err
	}

	providers := newSearchProviders(cfg)
	if len(providers) == 0 {
		return nil, sift.Errorf(sift.EINVALID, "no search providers enabled")
	}
	for i, p := range providers {
		providers[i] = siftslog.NewLoggingSearchProvider(p, logger)
	}

	c := &crawl.Crawler{
		Providers:   providers,
		Resolver:    sifthttp.NewRedirectResolver(cfg.RedirectTimeout(), ua),
		Robots:      sifthttp.NewRobotsChecker(nil, ua),
		RateLimiter: crawl.NewDomainLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Fetcher:     siftslog.NewLoggingFetcher(fetcher, logger),
		Extractor:   siftslog.NewLoggingExtractor(extractor, logger),
		Contents:    siftslog.NewLoggingContentService(deps.Contents, logger),
		Runs:        deps.Runs,
		Events:      m.Bus,
		Config:      cfg.CrawlConfig(sites),
	}

	if m.Redis != nil {
		c.Frontier = siftredis.NewFrontier(m.Redis, siftredis.WithSourcePriorities(cfg.Search.Priorities))
		c.Dedup = siftredis.NewDedupStore(m.Redis,
			siftredis.WithURLTTL(cfg.URLTTL()),
			siftredis.WithFingerprintWindow(cfg.Dedup.FingerprintWindow),
		)
	} else {
		c.Frontier = crawl.NewFrontier(frontierExpectedURLs, frontierFPRate, crawl.WithSourcePriorities(cfg.Search.Priorities))
		c.Dedup = crawl.NewDedupStore(
			crawl.WithURLTTL(cfg.URLTTL()),
			crawl.WithFingerprintWindow(cfg.Dedup.FingerprintWindow),
		)
	}

	if cfg.Gemini.APIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.Gemini.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintf(deps.Stderr, "Hint: Check your %s is valid\n", geminiAPIKeyEnv)
			return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		c.Queries = siftslog.NewLoggingQueryProvider(gemini.NewQueryProvider(client, cfg.Gemini.Model), logger)
	}

	return c, nil
}

func newExtractor(name string) (sift.Extractor, error) {
	switch name {
	case extractorTrafilatura:
		return trafilatura.NewExtractor(trafilatura.WithConverter(htmltomarkdown.NewConverter())), nil
	case extractorReadability:
		return readability.NewExtractor(), nil
	case extractorGoquery:
		return goquery.NewExtractor(), nil
	default:
		return nil, sift.Errorf(sift.EINVALID, "unknown extractor %q", name)
	}
}

func newSearchProviders(cfg *Config) []sift.SearchProvider {
	opts := []sifthttp.SearchOption{
		sifthttp.WithHTTPClient(&http.Client{Timeout: cfg.SearchTimeout()}),
	}
	if cfg.Crawl.UserAgent != "" {
		opts = append(opts, sifthttp.WithSearchUserAgent(cfg.Crawl.UserAgent))
	}

	var providers []sift.SearchProvider
	if cfg.Search.Wikipedia {
		providers = append(providers, sifthttp.NewWikipediaSearch(opts...))
	}
	if cfg.Search.NewsAPIKey != "" {
		providers = append(providers, sifthttp.NewNewsAPISearch(cfg.Search.NewsAPIKey, opts...))
	}
	if cfg.Search.Archive {
		providers = append(providers, sifthttp.NewArchiveSearch(opts...))
	}
	if len(cfg.Search.Feeds) > 0 {
		providers = append(providers, sifthttp.NewFeedSearch(cfg.Search.Feeds, opts...))
	}
	return providers
}
