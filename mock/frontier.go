package mock

import (
	"context"

	"github.com/fwojciec/sift"
)

var (
	_ sift.Frontier   = (*Frontier)(nil)
	_ sift.DedupStore = (*DedupStore)(nil)
)

// Frontier is a mock implementation of sift.Frontier.
type Frontier struct {
	PushFn         func(ctx context.Context, topicID string, c *sift.Candidate) (bool, error)
	NextFn         func(ctx context.Context, topicID string) (*sift.Candidate, error)
	UpdateFn       func(ctx context.Context, topicID string, c *sift.Candidate, novel bool) error
	CursorFn       func(ctx context.Context, topicID, source string) (*sift.FrontierCursor, error)
	SetNextTokenFn func(ctx context.Context, topicID, source, token string) error
	LenFn          func(ctx context.Context, topicID string) (int, error)
}

func (f *Frontier) Push(ctx context.Context, topicID string, c *sift.Candidate) (bool, error) {
	return f.PushFn(ctx, topicID, c)
}

func (f *Frontier) Next(ctx context.Context, topicID string) (*sift.Candidate, error) {
	return f.NextFn(ctx, topicID)
}

func (f *Frontier) Update(ctx context.Context, topicID string, c *sift.Candidate, novel bool) error {
	return f.UpdateFn(ctx, topicID, c, novel)
}

func (f *Frontier) Cursor(ctx context.Context, topicID, source string) (*sift.FrontierCursor, error) {
	return f.CursorFn(ctx, topicID, source)
}

func (f *Frontier) SetNextToken(ctx context.Context, topicID, source, token string) error {
	return f.SetNextTokenFn(ctx, topicID, source, token)
}

func (f *Frontier) Len(ctx context.Context, topicID string) (int, error) {
	return f.LenFn(ctx, topicID)
}

// DedupStore is a mock implementation of sift.DedupStore.
type DedupStore struct {
	IsURLSeenFn          func(ctx context.Context, topicID, canonicalURL string) (bool, error)
	MarkURLSeenFn        func(ctx context.Context, topicID, canonicalURL string) (bool, error)
	ReleaseURLFn         func(ctx context.Context, topicID, canonicalURL string) error
	RecentFingerprintsFn func(ctx context.Context, topicID string) ([]uint64, error)
	AddFingerprintFn     func(ctx context.Context, topicID string, fp uint64) error
	RejectionFn          func(ctx context.Context, topicID, url string) (string, bool, error)
	MarkRejectedFn       func(ctx context.Context, topicID, url, reason string) error
}

func (s *DedupStore) IsURLSeen(ctx context.Context, topicID, canonicalURL string) (bool, error) {
	return s.IsURLSeenFn(ctx, topicID, canonicalURL)
}

func (s *DedupStore) MarkURLSeen(ctx context.Context, topicID, canonicalURL string) (bool, error) {
	return s.MarkURLSeenFn(ctx, topicID, canonicalURL)
}

func (s *DedupStore) ReleaseURL(ctx context.Context, topicID, canonicalURL string) error {
	return s.ReleaseURLFn(ctx, topicID, canonicalURL)
}

func (s *DedupStore) RecentFingerprints(ctx context.Context, topicID string) ([]uint64, error) {
	return s.RecentFingerprintsFn(ctx, topicID)
}

func (s *DedupStore) AddFingerprint(ctx context.Context, topicID string, fp uint64) error {
	return s.AddFingerprintFn(ctx, topicID, fp)
}

func (s *DedupStore) Rejection(ctx context.Context, topicID, url string) (string, bool, error) {
	return s.RejectionFn(ctx, topicID, url)
}

func (s *DedupStore) MarkRejected(ctx context.Context, topicID, url, reason string) error {
	return s.MarkRejectedFn(ctx, topicID, url, reason)
}
