package mock

import (
	"context"

	"github.com/fwojciec/sift"
)

var (
	_ sift.ContentService = (*ContentService)(nil)
	_ sift.RunService     = (*RunService)(nil)
)

// ContentService is a mock implementation of sift.ContentService.
type ContentService struct {
	CreateContentFn     func(ctx context.Context, content *sift.Content) error
	FindContentByIDFn   func(ctx context.Context, id string) (*sift.Content, error)
	FindContentByHashFn func(ctx context.Context, topicID, hash string) (*sift.Content, error)
	FindContentsFn      func(ctx context.Context, filter sift.ContentFilter) ([]*sift.Content, error)
}

func (s *ContentService) CreateContent(ctx context.Context, content *sift.Content) error {
	return s.CreateContentFn(ctx, content)
}

func (s *ContentService) FindContentByID(ctx context.Context, id string) (*sift.Content, error) {
	return s.FindContentByIDFn(ctx, id)
}

func (s *ContentService) FindContentByHash(ctx context.Context, topicID, hash string) (*sift.Content, error) {
	return s.FindContentByHashFn(ctx, topicID, hash)
}

func (s *ContentService) FindContents(ctx context.Context, filter sift.ContentFilter) ([]*sift.Content, error) {
	return s.FindContentsFn(ctx, filter)
}

// RunService is a mock implementation of sift.RunService.
type RunService struct {
	CreateRunSummaryFn      func(ctx context.Context, summary *sift.RunSummary) error
	FindRunSummaryByRunIDFn func(ctx context.Context, runID string) (*sift.RunSummary, error)
	FindRunSummariesFn      func(ctx context.Context, filter sift.RunFilter) ([]*sift.RunSummary, error)
}

func (s *RunService) CreateRunSummary(ctx context.Context, summary *sift.RunSummary) error {
	return s.CreateRunSummaryFn(ctx, summary)
}

func (s *RunService) FindRunSummaryByRunID(ctx context.Context, runID string) (*sift.RunSummary, error) {
	return s.FindRunSummaryByRunIDFn(ctx, runID)
}

func (s *RunService) FindRunSummaries(ctx context.Context, filter sift.RunFilter) ([]*sift.RunSummary, error) {
	return s.FindRunSummariesFn(ctx, filter)
}
