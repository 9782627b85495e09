package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/sift"
	"github.com/fwojciec/sift/mock"
	siftslog "github.com/fwojciec/sift/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	slogctx "github.com/veqryn/slog-context"
)

func TestLoggingFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("logs fetch with status bytes and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*sift.FetchResult, error) {
				return &sift.FetchResult{
					FinalURL: "https://example.com/news/1",
					Status:   200,
					HTML:     "<html>content</html>",
				}, nil
			},
		}

		fetcher := siftslog.NewLoggingFetcher(inner, logger)
		result, err := fetcher.Fetch(context.Background(), "https://example.com/n/1")

		require.NoError(t, err)
		assert.Equal(t, "<html>content</html>", result.HTML)
		output := buf.String()
		assert.Contains(t, output, "msg=fetch")
		assert.Contains(t, output, "url=https://example.com/n/1")
		assert.Contains(t, output, "finalUrl=https://example.com/news/1")
		assert.Contains(t, output, "status=200")
		assert.Contains(t, output, "bytes=20")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*sift.FetchResult, error) {
				return nil, errors.New("network error")
			},
		}

		fetcher := siftslog.NewLoggingFetcher(inner, logger)
		_, err := fetcher.Fetch(context.Background(), "https://example.com/docs")

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "status=0")
		assert.Contains(t, output, "err=\"network error\"")
	})

	t.Run("includes attributes carried on the context", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slogctx.NewHandler(slog.NewTextHandler(&buf, nil), nil))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*sift.FetchResult, error) {
				return &sift.FetchResult{Status: 200}, nil
			},
		}

		ctx := slogctx.Append(context.Background(), "runId", "run-42")
		fetcher := siftslog.NewLoggingFetcher(inner, logger)
		_, err := fetcher.Fetch(ctx, "https://example.com/")

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "runId=run-42")
	})
}

func TestLoggingExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("logs at debug level with result sizes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		inner := &mock.Extractor{
			ExtractFn: func(html string, pageURL string) (*sift.ExtractResult, error) {
				return &sift.ExtractResult{
					Title:            "Title",
					Text:             "twelve chars",
					CanonicalURLHint: "https://example.com/a",
					Outlinks:         []sift.Outlink{{URL: "https://example.com/b"}},
				}, nil
			},
		}

		extractor := siftslog.NewLoggingExtractor(inner, logger)
		result, err := extractor.Extract("<html></html>", "https://example.com/a?x=1")

		require.NoError(t, err)
		assert.Equal(t, "Title", result.Title)
		output := buf.String()
		assert.Contains(t, output, "level=DEBUG")
		assert.Contains(t, output, "msg=extract")
		assert.Contains(t, output, "chars=12")
		assert.Contains(t, output, "outlinks=1")
		assert.Contains(t, output, "canonical=https://example.com/a")
	})

	t.Run("stays quiet at info level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Extractor{
			ExtractFn: func(html string, pageURL string) (*sift.ExtractResult, error) {
				return nil, sift.Errorf(sift.EEXTRACTFAILED, "no content")
			},
		}

		extractor := siftslog.NewLoggingExtractor(inner, logger)
		_, err := extractor.Extract("", "https://example.com/")

		assert.Equal(t, sift.EEXTRACTFAILED, sift.ErrorCode(err))
		assert.Empty(t, buf.String())
	})
}
