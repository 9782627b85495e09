package crawl

import (
	"context"
	"fmt"

	"github.com/fwojciec/sift"
	"github.com/fwojciec/sift/simhash"
)

// Deduper evaluates the dedup tiers in order: seen URL, recent
// fingerprint, rejected URL. The first match wins.
type Deduper struct {
	Store sift.DedupStore

	// Threshold is the near-duplicate Hamming distance. Zero uses
	// simhash.DefaultThreshold.
	Threshold int
}

// Check looks up canonicalURL for the topic. The fingerprint is computed
// lazily and only when the URL tier misses; a nil fingerprint func skips
// the fingerprint tier.
func (d *Deduper) Check(ctx context.Context, topicID, canonicalURL string, fingerprint func() simhash.Fingerprint) (sift.DedupResult, error) {
	seen, err := d.Store.IsURLSeen(ctx, topicID, canonicalURL)
	if err != nil {
		return sift.DedupResult{}, fmt.Errorf("url tier: %w", err)
	}
	if seen {
		return sift.DedupResult{Duplicate: true, Tier: sift.TierURL}, nil
	}

	if fingerprint != nil {
		recent, err := d.Store.RecentFingerprints(ctx, topicID)
		if err != nil {
			return sift.DedupResult{}, fmt.Errorf("fingerprint tier: %w", err)
		}
		if len(recent) > 0 {
			threshold := d.Threshold
			if threshold <= 0 {
				threshold = simhash.DefaultThreshold
			}
			fp := fingerprint()
			for _, other := range recent {
				if dist := simhash.Distance(fp, simhash.Fingerprint(other)); dist <= threshold {
					return sift.DedupResult{Duplicate: true, Tier: sift.TierFingerprint, Distance: dist}, nil
				}
			}
		}
	}

	reason, rejected, err := d.Store.Rejection(ctx, topicID, canonicalURL)
	if err != nil {
		return sift.DedupResult{}, fmt.Errorf("rejected tier: %w", err)
	}
	if rejected {
		return sift.DedupResult{Tier: sift.TierRejected, Reason: reason}, nil
	}

	return sift.DedupResult{}, nil
}
