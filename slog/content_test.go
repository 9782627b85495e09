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

func TestLoggingContentService_CreateContent(t *testing.T) {
	t.Parallel()

	content := func() *sift.Content {
		return &sift.Content{ID: "c1", TopicID: "t1", CanonicalURL: "https://example.com/a", ContentHash: "h"}
	}

	t.Run("logs saved content at info level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.ContentService{
			CreateContentFn: func(ctx context.Context, c *sift.Content) error { return nil },
		}
		s := siftslog.NewLoggingContentService(inner, logger)

		require.NoError(t, s.CreateContent(context.Background(), content()))

		output := buf.String()
		assert.Contains(t, output, "level=INFO")
		assert.Contains(t, output, "msg=\"create content\"")
		assert.Contains(t, output, "id=c1")
		assert.Contains(t, output, "canonicalUrl=https://example.com/a")
	})

	t.Run("logs conflicts at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.ContentService{
			CreateContentFn: func(ctx context.Context, c *sift.Content) error {
				return sift.Errorf(sift.ECONFLICT, "content already exists")
			},
		}
		s := siftslog.NewLoggingContentService(inner, logger)

		err := s.CreateContent(context.Background(), content())

		assert.Equal(t, sift.ECONFLICT, sift.ErrorCode(err))
		assert.Empty(t, buf.String())
	})

	t.Run("logs other failures at error level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.ContentService{
			CreateContentFn: func(ctx context.Context, c *sift.Content) error { return errors.New("disk full") },
		}
		s := siftslog.NewLoggingContentService(inner, logger)

		require.Error(t, s.CreateContent(context.Background(), content()))

		output := buf.String()
		assert.Contains(t, output, "level=ERROR")
		assert.Contains(t, output, "err=\"disk full\"")
	})
}

func TestLoggingContentService_Find(t *testing.T) {
	t.Parallel()

	t.Run("delegates lookups", func(t *testing.T) {
		t.Parallel()

		want := &sift.Content{ID: "c1"}
		inner := &mock.ContentService{
			FindContentByIDFn: func(ctx context.Context, id string) (*sift.Content, error) {
				assert.Equal(t, "c1", id)
				return want, nil
			},
			FindContentByHashFn: func(ctx context.Context, topicID, hash string) (*sift.Content, error) {
				assert.Equal(t, "t1", topicID)
				assert.Equal(t, "h", hash)
				return want, nil
			},
			FindContentsFn: func(ctx context.Context, filter sift.ContentFilter) ([]*sift.Content, error) {
				return []*sift.Content{want}, nil
			},
		}
		s := siftslog.NewLoggingContentService(inner, slog.New(slog.DiscardHandler))
		ctx := context.Background()

		got, err := s.FindContentByID(ctx, "c1")
		require.NoError(t, err)
		assert.Same(t, want, got)

		got, err = s.FindContentByHash(ctx, "t1", "h")
		require.NoError(t, err)
		assert.Same(t, want, got)

		list, err := s.FindContents(ctx, sift.ContentFilter{})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}
