package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/sift"
	"github.com/fwojciec/sift/crawl"
	"github.com/redis/go-redis/v9"
)

var _ sift.Frontier = (*Frontier)(nil)

// maxUpdateRetries bounds optimistic cursor updates under contention.
const maxUpdateRetries = 5

// Frontier implements sift.Frontier on Redis. Each (topic, source) queue
// is a sorted set scored by candidate priority; queued URLs are tracked
// in a set per topic.
type Frontier struct {
	client     redis.UniversalClient
	priorities map[string]float64
	now        func() time.Time
}

// FrontierOption configures a Frontier.
type FrontierOption func(*Frontier)

// WithSourcePriorities sets the static priority of sources. Sources not
// listed get priority 1.
func WithSourcePriorities(priorities map[string]float64) FrontierOption {
	return func(f *Frontier) {
		f.priorities = priorities
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) FrontierOption {
	return func(f *Frontier) {
		f.now = now
	}
}

// NewFrontier creates a Frontier on client.
func NewFrontier(client redis.UniversalClient, opts ...FrontierOption) *Frontier {
	f := &Frontier{client: client, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func queueKey(topicID, source string) string {
	return key(topicID, "frontier", "queue", source)
}

func cursorKey(topicID, source string) string {
	return key(topicID, "cursor", source)
}

// Push queues a candidate. Returns false if its normalized URL has already
// been queued for the topic.
func (f *Frontier) Push(ctx context.Context, topicID string, c *sift.Candidate) (bool, error) {
	k := c.NormalizedURL
	if k == "" {
		k = crawl.NormalizeURL(c.URL, "")
	}
	added, err := f.client.SAdd(ctx, key(topicID, "frontier", "seen"), k).Result()
	if err != nil {
		return false, fmt.Errorf("redis sadd: %w", err)
	}
	if added == 0 {
		return false, nil
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return false, err
	}
	seq, err := f.client.Incr(ctx, key(topicID, "frontier", "seq")).Result()
	if err != nil {
		return false, fmt.Errorf("redis incr: %w", err)
	}
	// ZPOPMAX breaks score ties by the greatest member, so earlier pushes
	// carry a greater prefix.
	member := fmt.Sprintf("%019d|%s", math.MaxInt64-seq, payload)

	_, err = f.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key(topicID, "frontier", "sources"), c.Source)
		pipe.ZAdd(ctx, queueKey(topicID, c.Source), redis.Z{Score: c.Priority, Member: member})
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis zadd: %w", err)
	}
	return true, nil
}

// Next pops the highest priority candidate from the source with the best
// cursor score. Returns nil, nil when nothing is queued.
func (f *Frontier) Next(ctx context.Context, topicID string) (*sift.Candidate, error) {
	sources, err := f.client.SMembers(ctx, key(topicID, "frontier", "sources")).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	sort.Strings(sources)

	type ranked struct {
		source string
		score  float64
	}
	var candidates []ranked
	for _, source := range sources {
		n, err := f.client.ZCard(ctx, queueKey(topicID, source)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis zcard: %w", err)
		}
		if n == 0 {
			continue
		}
		cur, err := f.Cursor(ctx, topicID, source)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, ranked{source: source, score: cur.Score()})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	// Another worker may empty a queue between ZCARD and ZPOPMAX.
	for _, r := range candidates {
		popped, err := f.client.ZPopMax(ctx, queueKey(topicID, r.source), 1).Result()
		if err != nil {
			return nil, fmt.Errorf("redis zpopmax: %w", err)
		}
		if len(popped) == 0 {
			continue
		}
		member, _ := popped[0].Member.(string)
		_, payload, ok := strings.Cut(member, "|")
		if !ok {
			return nil, fmt.Errorf("malformed frontier entry %q", member)
		}
		var c sift.Candidate
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, fmt.Errorf("decoding frontier entry: %w", err)
		}
		return &c, nil
	}
	return nil, nil
}

// Update folds the candidate's outcome into its source's cursor.
func (f *Frontier) Update(ctx context.Context, topicID string, c *sift.Candidate, novel bool) error {
	k := cursorKey(topicID, c.Source)
	for range maxUpdateRetries {
		err := f.client.Watch(ctx, func(tx *redis.Tx) error {
			cur, err := f.readCursor(ctx, tx, topicID, c.Source)
			if err != nil {
				return err
			}
			cur.Observe(novel, f.now())
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, k, cursorFields(cur))
				return nil
			})
			return err
		}, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis cursor update: %w", err)
		}
		return nil
	}
	return fmt.Errorf("redis cursor update: too much contention on %s", k)
}

// Cursor returns the source's cursor.
func (f *Frontier) Cursor(ctx context.Context, topicID, source string) (*sift.FrontierCursor, error) {
	return f.readCursor(ctx, f.client, topicID, source)
}

// SetNextToken stores the source's pagination token.
func (f *Frontier) SetNextToken(ctx context.Context, topicID, source, token string) error {
	if err := f.client.HSet(ctx, cursorKey(topicID, source), "next_token", token).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

// Len returns the number of queued candidates for the topic.
func (f *Frontier) Len(ctx context.Context, topicID string) (int, error) {
	sources, err := f.client.SMembers(ctx, key(topicID, "frontier", "sources")).Result()
	if err != nil {
		return 0, fmt.Errorf("redis smembers: %w", err)
	}
	var total int64
	for _, source := range sources {
		n, err := f.client.ZCard(ctx, queueKey(topicID, source)).Result()
		if err != nil {
			return 0, fmt.Errorf("redis zcard: %w", err)
		}
		total += n
	}
	return int(total), nil
}

func (f *Frontier) readCursor(ctx context.Context, client hashReader, topicID, source string) (*sift.FrontierCursor, error) {
	fields, err := client.HGetAll(ctx, cursorKey(topicID, source)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}

	cur := &sift.FrontierCursor{TopicID: topicID, Source: source, Priority: 1}
	if p, ok := f.priorities[source]; ok {
		cur.Priority = p
	}
	cur.NextToken = fields["next_token"]
	if v := fields["duplicate_hit_rate"]; v != "" {
		if cur.DuplicateHitRate, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("invalid duplicate_hit_rate %q: %w", v, err)
		}
	}
	if v := fields["last_hit_at"]; v != "" {
		if cur.LastHitAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, fmt.Errorf("invalid last_hit_at %q: %w", v, err)
		}
	}
	return cur, nil
}

type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func cursorFields(cur *sift.FrontierCursor) map[string]any {
	fields := map[string]any{
		"duplicate_hit_rate": strconv.FormatFloat(cur.DuplicateHitRate, 'g', -1, 64),
	}
	if !cur.LastHitAt.IsZero() {
		fields["last_hit_at"] = cur.LastHitAt.UTC().Format(time.RFC3339Nano)
	}
	return fields
}
