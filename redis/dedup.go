package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fwojciec/sift"
	"github.com/fwojciec/sift/crawl"
	"github.com/redis/go-redis/v9"
)

var _ sift.DedupStore = (*DedupStore)(nil)

// DedupStore implements sift.DedupStore on Redis. URL claims are keys set
// with SET NX and a TTL, recent fingerprints a capped list and rejections
// a hash, all per topic.
type DedupStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	window int
}

// DedupOption configures a DedupStore.
type DedupOption func(*DedupStore)

// WithURLTTL sets how long a claimed URL stays in the URL tier.
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

// NewDedupStore creates a DedupStore on client.
func NewDedupStore(client redis.UniversalClient, opts ...DedupOption) *DedupStore {
	s := &DedupStore{
		client: client,
		ttl:    sift.DefaultURLTTL,
		window: sift.DefaultFingerprintWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func seenKey(topicID, canonicalURL string) string {
	return key(topicID, "seen", crawl.URLHash(canonicalURL))
}

// IsURLSeen reports whether the canonical URL holds an unexpired claim.
func (s *DedupStore) IsURLSeen(ctx context.Context, topicID, canonicalURL string) (bool, error) {
	n, err := s.client.Exists(ctx, seenKey(topicID, canonicalURL)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// MarkURLSeen claims the canonical URL. Returns false if another caller
// holds the claim.
func (s *DedupStore) MarkURLSeen(ctx context.Context, topicID, canonicalURL string) (bool, error) {
	ok, err := s.client.SetNX(ctx, seenKey(topicID, canonicalURL), canonicalURL, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// ReleaseURL drops a claim.
func (s *DedupStore) ReleaseURL(ctx context.Context, topicID, canonicalURL string) error {
	if err := s.client.Del(ctx, seenKey(topicID, canonicalURL)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// RecentFingerprints returns the topic's fingerprints, newest first.
func (s *DedupStore) RecentFingerprints(ctx context.Context, topicID string) ([]uint64, error) {
	vals, err := s.client.LRange(ctx, key(topicID, "fingerprints"), 0, int64(s.window-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	fps := make([]uint64, 0, len(vals))
	for _, v := range vals {
		fp, err := strconv.ParseUint(v, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid fingerprint %q: %w", v, err)
		}
		fps = append(fps, fp)
	}
	return fps, nil
}

// AddFingerprint prepends a fingerprint and trims the list to the window.
func (s *DedupStore) AddFingerprint(ctx context.Context, topicID string, fp uint64) error {
	k := key(topicID, "fingerprints")
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, k, strconv.FormatUint(fp, 16))
		pipe.LTrim(ctx, k, 0, int64(s.window-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}
	return nil
}

// Rejection returns the reason the URL was rejected.
func (s *DedupStore) Rejection(ctx context.Context, topicID, url string) (string, bool, error) {
	reason, err := s.client.HGet(ctx, key(topicID, "rejected"), url).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis hget: %w", err)
	}
	return reason, true, nil
}

// MarkRejected records a rejected URL.
func (s *DedupStore) MarkRejected(ctx context.Context, topicID, url, reason string) error {
	if err := s.client.HSet(ctx, key(topicID, "rejected"), url, reason).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}
