package sift

import (
	"context"
	"time"
)

// Frontier tuning.
const (
	// DuplicateRateAlpha weights the newest outcome in the duplicate
	// hit rate moving average.
	DuplicateRateAlpha = 0.2

	// DeprioritizeThreshold is the duplicate hit rate above which a
	// source is penalized.
	DeprioritizeThreshold = 0.8
	DeprioritizePenalty   = 0.25

	// ScoreFloor keeps a saturated source selectable.
	ScoreFloor = 0.05
)

// FrontierCursor tracks search progress for one (topic, source) pair.
type FrontierCursor struct {
	TopicID          string    `json:"topicId"`
	Source           string    `json:"source"`
	NextToken        string    `json:"nextToken"`
	LastHitAt        time.Time `json:"lastHitAt"`
	DuplicateHitRate float64   `json:"duplicateHitRate"`
	Priority         float64   `json:"priority"`
}

// Observe folds one candidate outcome into the duplicate hit rate.
func (c *FrontierCursor) Observe(novel bool, now time.Time) {
	outcome := 1.0
	if novel {
		outcome = 0
		c.LastHitAt = now
	}
	c.DuplicateHitRate = DuplicateRateAlpha*outcome + (1-DuplicateRateAlpha)*c.DuplicateHitRate
}

// Score ranks the source for selection. Sources with a high duplicate
// hit rate are penalized but never reach zero.
func (c *FrontierCursor) Score() float64 {
	priority := c.Priority
	if priority <= 0 {
		priority = 1
	}
	score := priority * max(1-c.DuplicateHitRate, ScoreFloor)
	if c.DuplicateHitRate > DeprioritizeThreshold {
		score *= DeprioritizePenalty
	}
	return score
}

// Frontier queues candidates per topic and source. Implementations must
// be safe for concurrent use.
type Frontier interface {
	// Push queues a candidate.
	// Returns false if the candidate's URL has already been queued for the topic.
	Push(ctx context.Context, topicID string, c *Candidate) (bool, error)

	// Next pops the best candidate for the topic, preferring sources with
	// the highest cursor score.
	// Returns nil, nil when the topic has nothing queued.
	Next(ctx context.Context, topicID string) (*Candidate, error)

	// Update records whether processing the candidate produced novel content.
	Update(ctx context.Context, topicID string, c *Candidate, novel bool) error

	// Cursor returns the cursor for a source, creating a zero cursor if
	// none exists.
	Cursor(ctx context.Context, topicID, source string) (*FrontierCursor, error)

	// SetNextToken stores the pagination token for the next search.
	SetNextToken(ctx context.Context, topicID, source, token string) error

	// Len returns the number of queued candidates for the topic.
	Len(ctx context.Context, topicID string) (int, error)
}
