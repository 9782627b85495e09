package crawl

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fwojciec/sift"
	"github.com/fwojciec/sift/bloom"
)

// Compile-time interface verification.
var _ sift.Frontier = (*Frontier)(nil)

// Frontier sizing defaults.
const (
	// DefaultFrontierExpected is the expected number of URLs per topic for
	// Bloom filter sizing.
	DefaultFrontierExpected = 10000
	// DefaultFrontierFalsePositiveRate is the acceptable false positive
	// rate for deduplication.
	DefaultFrontierFalsePositiveRate = 0.001
)

// Frontier is an in-memory sift.Frontier with one priority queue per
// (topic, source) and a Bloom filter per topic for deduplication.
// It is safe for concurrent use by multiple goroutines.
type Frontier struct {
	mu         sync.Mutex
	expected   uint
	fpRate     float64
	priorities map[string]float64
	now        func() time.Time
	topics     map[string]*topicFrontier
}

type topicFrontier struct {
	seen    *bloom.Filter
	queues  map[string]*candidateHeap
	cursors map[string]*sift.FrontierCursor
	seq     int64
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

// WithFrontierClock replaces time.Now.
func WithFrontierClock(now func() time.Time) FrontierOption {
	return func(f *Frontier) {
		f.now = now
	}
}

// NewFrontier creates a new Frontier sized for n expected URLs per topic
// with the given false positive rate for deduplication.
func NewFrontier(n uint, fpRate float64, opts ...FrontierOption) *Frontier {
	f := &Frontier{
		expected: n,
		fpRate:   fpRate,
		now:      time.Now,
		topics:   make(map[string]*topicFrontier),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// topic must be called with mu held.
func (f *Frontier) topic(id string) *topicFrontier {
	t, ok := f.topics[id]
	if !ok {
		t = &topicFrontier{
			seen:    bloom.NewFilter(f.expected, f.fpRate),
			queues:  make(map[string]*candidateHeap),
			cursors: make(map[string]*sift.FrontierCursor),
		}
		f.topics[id] = t
	}
	return t
}

// cursor must be called with mu held.
func (f *Frontier) cursor(topicID string, t *topicFrontier, source string) *sift.FrontierCursor {
	c, ok := t.cursors[source]
	if !ok {
		priority := 1.0
		if p, ok := f.priorities[source]; ok {
			priority = p
		}
		c = &sift.FrontierCursor{TopicID: topicID, Source: source, Priority: priority}
		t.cursors[source] = c
	}
	return c
}

// Push queues a candidate. Returns false if its normalized URL has already
// been queued for the topic.
func (f *Frontier) Push(_ context.Context, topicID string, c *sift.Candidate) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.topic(topicID)
	if t.seen.TestAndAdd(frontierKey(c)) {
		return false, nil
	}

	f.cursor(topicID, t, c.Source)
	q, ok := t.queues[c.Source]
	if !ok {
		q = &candidateHeap{}
		heap.Init(q)
		t.queues[c.Source] = q
	}
	t.seq++
	heap.Push(q, queued{candidate: c, seq: t.seq})
	return true, nil
}

// Next pops the highest priority candidate from the source with the best
// cursor score. Returns nil, nil when nothing is queued.
func (f *Frontier) Next(_ context.Context, topicID string) (*sift.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.topics[topicID]
	if !ok {
		return nil, nil
	}

	sources := make([]string, 0, len(t.queues))
	for source, q := range t.queues {
		if q.Len() > 0 {
			sources = append(sources, source)
		}
	}
	if len(sources) == 0 {
		return nil, nil
	}
	sort.Strings(sources)

	best := sources[0]
	bestScore := f.cursor(topicID, t, best).Score()
	for _, source := range sources[1:] {
		if score := f.cursor(topicID, t, source).Score(); score > bestScore {
			best, bestScore = source, score
		}
	}

	item, _ := heap.Pop(t.queues[best]).(queued)
	return item.candidate, nil
}

// Update folds the candidate's outcome into its source's cursor.
func (f *Frontier) Update(_ context.Context, topicID string, c *sift.Candidate, novel bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cursor(topicID, f.topic(topicID), c.Source).Observe(novel, f.now())
	return nil
}

// Cursor returns a copy of the source's cursor.
func (f *Frontier) Cursor(_ context.Context, topicID, source string) (*sift.FrontierCursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := *f.cursor(topicID, f.topic(topicID), source)
	return &c, nil
}

// SetNextToken stores the source's pagination token.
func (f *Frontier) SetNextToken(_ context.Context, topicID, source, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cursor(topicID, f.topic(topicID), source).NextToken = token
	return nil
}

// Len returns the number of queued candidates for the topic.
func (f *Frontier) Len(_ context.Context, topicID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.topics[topicID]
	if !ok {
		return 0, nil
	}
	var n int
	for _, q := range t.queues {
		n += q.Len()
	}
	return n, nil
}

// frontierKey returns the dedup key for a candidate.
func frontierKey(c *sift.Candidate) string {
	if c.NormalizedURL != "" {
		return c.NormalizedURL
	}
	return NormalizeURL(c.URL, "")
}

type queued struct {
	candidate *sift.Candidate
	seq       int64
}

// candidateHeap implements heap.Interface as a max-heap on priority.
// Equal priorities pop in insertion order.
type candidateHeap []queued

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	if h[i].candidate.Priority != h[j].candidate.Priority {
		return h[i].candidate.Priority > h[j].candidate.Priority
	}
	return h[i].seq < h[j].seq
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) {
	item, _ := x.(queued)
	*h = append(*h, item)
}

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
