package crawl

import (
	"sync"

	"github.com/fwojciec/sift"
)

// Default attempt caps.
const (
	DefaultMaxAttemptsTotal   = 40
	DefaultMaxAttemptsPerStep = 10
)

// Breaker counts stage attempts for a run and refuses attempts beyond the
// global or per-step cap. It is safe for concurrent use.
type Breaker struct {
	mu         sync.Mutex
	maxTotal   int
	maxPerStep int
	total      int
	byStep     map[sift.Step]int
	tripped    bool
}

// NewBreaker creates a Breaker. Non-positive caps use the defaults.
func NewBreaker(maxTotal, maxPerStep int) *Breaker {
	if maxTotal <= 0 {
		maxTotal = DefaultMaxAttemptsTotal
	}
	if maxPerStep <= 0 {
		maxPerStep = DefaultMaxAttemptsPerStep
	}
	return &Breaker{
		maxTotal:   maxTotal,
		maxPerStep: maxPerStep,
		byStep:     make(map[sift.Step]int),
	}
}

// Attempt charges one attempt to step. It returns EATTEMPTCAP without
// charging when either cap would be exceeded; once tripped every later
// call fails.
func (b *Breaker) Attempt(step sift.Step) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tripped {
		return sift.Errorf(sift.EATTEMPTCAP, "attempt cap reached")
	}
	if b.total+1 > b.maxTotal {
		b.tripped = true
		return sift.Errorf(sift.EATTEMPTCAP, "total attempt cap %d reached at %s", b.maxTotal, step)
	}
	if b.byStep[step]+1 > b.maxPerStep {
		b.tripped = true
		return sift.Errorf(sift.EATTEMPTCAP, "attempt cap %d reached for %s", b.maxPerStep, step)
	}
	b.total++
	b.byStep[step]++
	return nil
}

// Tripped reports whether a cap has been hit.
func (b *Breaker) Tripped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tripped
}

// Attempts returns a snapshot of the counters.
func (b *Breaker) Attempts() sift.Attempts {
	b.mu.Lock()
	defer b.mu.Unlock()

	byStep := make(map[sift.Step]int, len(b.byStep))
	for step, n := range b.byStep {
		byStep[step] = n
	}
	return sift.Attempts{Total: b.total, ByStep: byStep}
}

// stageGate charges each step once per batch, however many candidates of
// the batch enter it.
type stageGate struct {
	mu      sync.Mutex
	breaker *Breaker
	entered map[sift.Step]error
}

func newStageGate(b *Breaker) *stageGate {
	return &stageGate{breaker: b, entered: make(map[sift.Step]error)}
}

func (g *stageGate) enter(step sift.Step) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err, ok := g.entered[step]; ok {
		return err
	}
	err := g.breaker.Attempt(step)
	g.entered[step] = err
	return err
}
