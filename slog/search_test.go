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
)

func TestLoggingSearchProvider(t *testing.T) {
	t.Parallel()

	newInner := func(articles []sift.Article, err error) *mock.SearchProvider {
		return &mock.SearchProvider{
			NameFn: func() string { return "newsapi" },
			SearchFn: func(ctx context.Context, query string, opts sift.SearchOptions) ([]sift.Article, error) {
				return articles, err
			},
		}
	}

	t.Run("delegates name", func(t *testing.T) {
		t.Parallel()

		p := siftslog.NewLoggingSearchProvider(newInner(nil, nil), slog.New(slog.DiscardHandler))

		assert.Equal(t, "newsapi", p.Name())
	})

	t.Run("logs query page and count", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		articles := []sift.Article{{URL: "https://a.example/1"}, {URL: "https://a.example/2"}}
		p := siftslog.NewLoggingSearchProvider(newInner(articles, nil), logger)

		got, err := p.Search(context.Background(), "solar storms", sift.SearchOptions{Page: 2})

		require.NoError(t, err)
		assert.Len(t, got, 2)
		output := buf.String()
		assert.Contains(t, output, "msg=search")
		assert.Contains(t, output, "provider=newsapi")
		assert.Contains(t, output, "query=\"solar storms\"")
		assert.Contains(t, output, "page=2")
		assert.Contains(t, output, "count=2")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		p := siftslog.NewLoggingSearchProvider(newInner(nil, errors.New("rate limited")), logger)

		_, err := p.Search(context.Background(), "q", sift.SearchOptions{})

		require.Error(t, err)
		assert.Contains(t, buf.String(), "err=\"rate limited\"")
	})
}

func TestLoggingQueryProvider(t *testing.T) {
	t.Parallel()

	t.Run("logs keyword and query counts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.QueryProvider{
			QueriesFn: func(ctx context.Context, input sift.Input) ([]string, error) {
				return []string{"a", "b", "c"}, nil
			},
		}
		p := siftslog.NewLoggingQueryProvider(inner, logger)

		got, err := p.Queries(context.Background(), sift.Input{Keywords: []string{"x", "y"}})

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, got)
		output := buf.String()
		assert.Contains(t, output, "msg=\"query expansion\"")
		assert.Contains(t, output, "keywords=2")
		assert.Contains(t, output, "count=3")
	})
}
