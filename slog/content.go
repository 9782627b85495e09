package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sift"
)

// Ensure LoggingContentService implements sift.ContentService.
var _ sift.ContentService = (*LoggingContentService)(nil)

// LoggingContentService wraps a ContentService and logs writes. Conflicts
// are expected during dedup and are logged at debug level.
type LoggingContentService struct {
	next   sift.ContentService
	logger *slog.Logger
}

// NewLoggingContentService creates a new LoggingContentService.
func NewLoggingContentService(next sift.ContentService, logger *slog.Logger) *LoggingContentService {
	return &LoggingContentService{next: next, logger: logger}
}

// CreateContent delegates to the wrapped service and logs the result.
func (s *LoggingContentService) CreateContent(ctx context.Context, content *sift.Content) (err error) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		switch {
		case sift.ErrorCode(err) == sift.ECONFLICT:
			level = slog.LevelDebug
		case err != nil:
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "create content",
			"id", content.ID,
			"canonicalUrl", content.CanonicalURL,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.CreateContent(ctx, content)
}

// FindContentByID delegates to the wrapped service.
func (s *LoggingContentService) FindContentByID(ctx context.Context, id string) (*sift.Content, error) {
	return s.next.FindContentByID(ctx, id)
}

// FindContentByHash delegates to the wrapped service.
func (s *LoggingContentService) FindContentByHash(ctx context.Context, topicID, hash string) (*sift.Content, error) {
	return s.next.FindContentByHash(ctx, topicID, hash)
}

// FindContents delegates to the wrapped service and logs the count.
func (s *LoggingContentService) FindContents(ctx context.Context, filter sift.ContentFilter) (contents []*sift.Content, err error) {
	defer func(begin time.Time) {
		s.logger.DebugContext(ctx, "find contents",
			"count", len(contents),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindContents(ctx, filter)
}
