// Package slog provides logging decorators for the pipeline's
// collaborators. Calls are logged with the caller's context so run-scoped
// attributes attached upstream appear on every line.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sift"
)

// Ensure LoggingFetcher implements sift.Fetcher.
var _ sift.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   sift.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next sift.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (result *sift.FetchResult, err error) {
	defer func(begin time.Time) {
		var status, size int
		var finalURL string
		if result != nil {
			status, size, finalURL = result.Status, len(result.HTML), result.FinalURL
		}
		f.logger.InfoContext(ctx, "fetch",
			"url", url,
			"finalUrl", finalURL,
			"status", status,
			"bytes", size,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Ensure LoggingExtractor implements sift.Extractor.
var _ sift.Extractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps an Extractor with debug logging.
type LoggingExtractor struct {
	next   sift.Extractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next sift.Extractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs what it found.
func (e *LoggingExtractor) Extract(html string, pageURL string) (result *sift.ExtractResult, err error) {
	defer func(begin time.Time) {
		var textLen, outlinks int
		var canonical string
		if result != nil {
			textLen, outlinks, canonical = len(result.Text), len(result.Outlinks), result.CanonicalURLHint
		}
		e.logger.Debug("extract",
			"url", pageURL,
			"chars", textLen,
			"outlinks", outlinks,
			"canonical", canonical,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Extract(html, pageURL)
}
