package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/sift"
)

var _ sift.DedupStore = (*DedupStore)(nil)

// DedupStore is an in-memory sift.DedupStore.
// It is safe for concurrent use by multiple goroutines.
type DedupStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	window int
	now    func() time.Time
	topics map[string]*topicDedup
}

type topicDedup struct {
	seen     map[string]time.Time // canonical URL -> expiry
	fps      []uint64             // oldest first
	rejected map[string]string
}

// DedupOption configures a DedupStore.
type DedupOption func(*DedupStore)

// WithURLTTL sets how long a seen URL stays in the URL tier.
func WithURLTTL(ttl time.Duration) DedupOption {
	return func(s *DedupStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithFingerprintWindow sets how many recent fingerprints are kept.
func WithFingerprintWindow(n int) DedupOption {
	return func(s *DedupStore) {
		if n > 0 {
			s.window = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) DedupOption {
	return func(s *DedupStore) {
		s.now = now
	}
}

// NewDedupStore creates an empty DedupStore.
func NewDedupStore(opts ...DedupOption) *DedupStore {
	s := &DedupStore{
		ttl:    sift.DefaultURLTTL,
		window: sift.DefaultFingerprintWindow,
		now:    time.Now,
		topics: make(map[string]*topicDedup),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// topic must be called with mu held.
func (s *DedupStore) topic(id string) *topicDedup {
	t, ok := s.topics[id]
	if !ok {
		t = &topicDedup{
			seen:     make(map[string]time.Time),
			rejected: make(map[string]string),
		}
		s.topics[id] = t
	}
	return t
}

// IsURLSeen reports whether the canonical URL was claimed within the TTL.
func (s *DedupStore) IsURLSeen(_ context.Context, topicID, canonicalURL string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.topic(topicID).seen[canonicalURL]
	return ok && s.now().Before(expiry), nil
}

// MarkURLSeen claims the canonical URL. Returns false if an unexpired
// claim exists.
func (s *DedupStore) MarkURLSeen(_ context.Context, topicID, canonicalURL string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.topic(topicID)
	now := s.now()
	if expiry, ok := t.seen[canonicalURL]; ok && now.Before(expiry) {
		return false, nil
	}
	t.seen[canonicalURL] = now.Add(s.ttl)
	return true, nil
}

// ReleaseURL drops a claim.
func (s *DedupStore) ReleaseURL(_ context.Context, topicID, canonicalURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.topic(topicID).seen, canonicalURL)
	return nil
}

// RecentFingerprints returns the topic's fingerprints, newest first.
func (s *DedupStore) RecentFingerprints(_ context.Context, topicID string) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fps := s.topic(topicID).fps
	out := make([]uint64, len(fps))
	for i, fp := range fps {
		out[len(fps)-1-i] = fp
	}
	return out, nil
}

// AddFingerprint appends a fingerprint, evicting the oldest beyond the window.
func (s *DedupStore) AddFingerprint(_ context.Context, topicID string, fp uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.topic(topicID)
	t.fps = append(t.fps, fp)
	if over := len(t.fps) - s.window; over > 0 {
		t.fps = append(t.fps[:0:0], t.fps[over:]...)
	}
	return nil
}

// Rejection returns the reason the URL was rejected.
func (s *DedupStore) Rejection(_ context.Context, topicID, url string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reason, ok := s.topic(topicID).rejected[url]
	return reason, ok, nil
}

// MarkRejected records a rejected URL.
func (s *DedupStore) MarkRejected(_ context.Context, topicID, url, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.topic(topicID).rejected[url] = reason
	return nil
}
