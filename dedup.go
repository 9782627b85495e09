package sift

import (
	"context"
	"time"
)

// Dedup defaults.
const (
	DefaultURLTTL            = 30 * 24 * time.Hour
	DefaultFingerprintWindow = 1000
	DefaultHammingThreshold  = 3
)

// DedupTier names the tier that flagged a duplicate.
type DedupTier string

// Dedup tiers, evaluated in this order. TierContentHash and TierStore
// are reported when persistence itself detects the duplicate.
const (
	TierURL         DedupTier = "url"
	TierFingerprint DedupTier = "fingerprint"
	TierRejected    DedupTier = "rejected"
	TierContentHash DedupTier = "content_hash"
	TierStore       DedupTier = "store"
)

// Rejection reasons recorded in the rejected tier.
const (
	RejectRobots = "robots_disallowed"
	RejectNon2xx = "http_non_2xx"
)

// DedupResult is the outcome of a dedup check. A rejected-tier hit is
// not a duplicate but still means the URL must be skipped.
type DedupResult struct {
	Duplicate bool      `json:"duplicate"`
	Tier      DedupTier `json:"tier,omitempty"`
	Reason    string    `json:"reason,omitempty"`

	// Distance is set for fingerprint hits.
	Distance int `json:"distance,omitempty"`
}

// Skip reports whether any tier matched.
func (r DedupResult) Skip() bool {
	return r.Tier != ""
}

// DedupStore holds per-topic dedup state: seen canonical URLs with a TTL,
// a bounded window of recent fingerprints, and rejected URLs.
// Implementations must be safe for concurrent use.
type DedupStore interface {
	// IsURLSeen reports whether the canonical URL was seen within the TTL.
	IsURLSeen(ctx context.Context, topicID, canonicalURL string) (bool, error)

	// MarkURLSeen atomically claims the canonical URL for the topic.
	// Returns false if another caller already holds an unexpired claim.
	MarkURLSeen(ctx context.Context, topicID, canonicalURL string) (bool, error)

	// ReleaseURL drops a claim made by MarkURLSeen.
	ReleaseURL(ctx context.Context, topicID, canonicalURL string) error

	// RecentFingerprints returns the topic's fingerprints, newest first.
	RecentFingerprints(ctx context.Context, topicID string) ([]uint64, error)

	// AddFingerprint records a fingerprint, evicting the oldest beyond
	// the window.
	AddFingerprint(ctx context.Context, topicID string, fp uint64) error

	// Rejection returns the reason a URL was rejected for the topic.
	Rejection(ctx context.Context, topicID, url string) (reason string, ok bool, err error)

	// MarkRejected records a URL the topic should not revisit.
	MarkRejected(ctx context.Context, topicID, url, reason string) error
}
