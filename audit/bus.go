// Package audit publishes pipeline audit events to subscribers and
// persists them in batches.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/sift"
	"github.com/google/uuid"
)

// AllTopics subscribes to events of every topic.
const AllTopics = "*"

// Bus defaults.
const (
	DefaultBatchSize     = 50
	DefaultFlushInterval = time.Second
	DefaultQueueSize     = 256
	writeTimeout         = 10 * time.Second
)

var (
	_ sift.EventEmitter    = (*Bus)(nil)
	_ sift.EventSubscriber = (*Bus)(nil)
)

// Handler receives published events. Handlers run on the emitting
// goroutine and must not block.
type Handler = func(ctx context.Context, event *sift.AuditEvent)

// Bus stamps, persists and fans out audit events.
// It is safe for concurrent use by multiple goroutines.
type Bus struct {
	store     sift.AuditStore
	batchSize int
	interval  time.Duration
	queueSize int
	now       func() time.Time
	logger    *slog.Logger
	seq       atomic.Int64

	subMu  sync.RWMutex
	subs   map[string]map[int]Handler
	nextID int

	// qmu guards queue against sends after Close, and overflow.
	qmu      sync.Mutex
	closed   bool
	queue    chan *sift.AuditEvent
	overflow []*sift.AuditEvent
	wake     chan struct{}
	flush    chan chan struct{}
	done     chan struct{}
}

// Option configures a Bus.
type Option func(*Bus)

// WithBatchSize sets how many events are written per store call.
func WithBatchSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithFlushInterval sets how often a partial batch is written.
func WithFlushInterval(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithQueueSize sets the persistence queue capacity. Events emitted while
// the queue is full are held in order until the store catches up.
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		b.now = now
	}
}

// WithLogger sets the logger used to report persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = l
	}
}

// NewBus creates a Bus. A nil store disables persistence.
func NewBus(store sift.AuditStore, opts ...Option) *Bus {
	b := &Bus{
		store:     store,
		batchSize: DefaultBatchSize,
		interval:  DefaultFlushInterval,
		queueSize: DefaultQueueSize,
		now:       time.Now,
		logger:    slog.Default(),
		subs:      make(map[string]map[int]Handler),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if store == nil {
		close(b.done)
		return b
	}
	b.queue = make(chan *sift.AuditEvent, b.queueSize)
	b.wake = make(chan struct{}, 1)
	b.flush = make(chan chan struct{})
	go b.loop()
	return b
}

// Emit stamps the event with an ID, timestamp and, when unset, a sequence
// number, delivers it to subscribers and queues it for persistence. It
// does not wait for the store.
func (b *Bus) Emit(ctx context.Context, event *sift.AuditEvent) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = b.now()
	}
	if event.Seq == 0 {
		event.Seq = b.seq.Add(1)
	}

	b.publish(ctx, event)
	b.enqueue(event)
}

// enqueue hands event to the persistence loop. Once the queue is full,
// events go to the overflow list, and keep going there until the loop
// has taken it, so the store sees them in emit order.
func (b *Bus) enqueue(event *sift.AuditEvent) {
	if b.store == nil {
		return
	}
	b.qmu.Lock()
	defer b.qmu.Unlock()
	if b.closed {
		return
	}
	if len(b.overflow) == 0 {
		select {
		case b.queue <- event:
			return
		default:
		}
	}
	b.overflow = append(b.overflow, event)
	b.signal()
}

func (b *Bus) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// takeOverflow returns the overflow list once the queue ahead of it is
// empty.
func (b *Bus) takeOverflow() []*sift.AuditEvent {
	b.qmu.Lock()
	defer b.qmu.Unlock()
	if len(b.overflow) == 0 {
		return nil
	}
	if len(b.queue) > 0 {
		b.signal()
		return nil
	}
	out := b.overflow
	b.overflow = nil
	return out
}

func (b *Bus) publish(ctx context.Context, event *sift.AuditEvent) {
	b.subMu.RLock()
	handlers := make([]Handler, 0, len(b.subs[event.TopicID])+len(b.subs[AllTopics]))
	for _, h := range b.subs[event.TopicID] {
		handlers = append(handlers, h)
	}
	if event.TopicID != AllTopics {
		for _, h := range b.subs[AllTopics] {
			handlers = append(handlers, h)
		}
	}
	b.subMu.RUnlock()

	for _, h := range handlers {
		h(ctx, event)
	}
}

// Subscribe registers fn for events of topicID, or of every topic when
// topicID is AllTopics. The returned function removes the subscription.
func (b *Bus) Subscribe(topicID string, fn Handler) (unsubscribe func()) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	id := b.nextID
	b.nextID++
	if b.subs[topicID] == nil {
		b.subs[topicID] = make(map[int]Handler)
	}
	b.subs[topicID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.subMu.Lock()
			defer b.subMu.Unlock()
			delete(b.subs[topicID], id)
			if len(b.subs[topicID]) == 0 {
				delete(b.subs, topicID)
			}
		})
	}
}

// Flush writes every event queued before the call.
func (b *Bus) Flush(ctx context.Context) error {
	if b.store == nil {
		return nil
	}
	b.qmu.Lock()
	closed := b.closed
	b.qmu.Unlock()
	if closed {
		return nil
	}

	ack := make(chan struct{})
	select {
	case b.flush <- ack:
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes queued events and stops the persistence loop.
func (b *Bus) Close() error {
	b.qmu.Lock()
	if !b.closed && b.store != nil {
		b.closed = true
		close(b.queue)
	}
	b.qmu.Unlock()
	<-b.done
	return nil
}

func (b *Bus) loop() {
	defer close(b.done)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	batch := make([]*sift.AuditEvent, 0, b.batchSize)
	for {
		select {
		case ev, ok := <-b.queue:
			if !ok {
				b.write(append(batch, b.takeOverflow()...))
				return
			}
			batch = append(batch, ev)
			if len(batch) >= b.batchSize {
				batch = b.write(batch)
			}
		case <-b.wake:
			batch = b.drain(batch)
			if len(batch) >= b.batchSize {
				batch = b.write(batch)
			}
		case <-ticker.C:
			batch = b.write(b.drain(batch))
		case ack := <-b.flush:
			batch = b.write(b.drain(batch))
			close(ack)
		}
	}
}

// drain appends the queued events, then the overflow list, to batch.
func (b *Bus) drain(batch []*sift.AuditEvent) []*sift.AuditEvent {
	for n := len(b.queue); n > 0; n-- {
		ev, ok := <-b.queue
		if !ok {
			break
		}
		batch = append(batch, ev)
	}
	return append(batch, b.takeOverflow()...)
}

// write stores batch in chunks of the batch size and returns an empty
// batch. Failures are logged and the events dropped.
func (b *Bus) write(batch []*sift.AuditEvent) []*sift.AuditEvent {
	for len(batch) > 0 {
		n := min(len(batch), b.batchSize)
		b.persist(batch[:n])
		batch = batch[n:]
	}
	return make([]*sift.AuditEvent, 0, b.batchSize)
}

func (b *Bus) persist(events []*sift.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	start := time.Now()
	if err := b.store.AppendEvents(ctx, events); err != nil {
		b.logger.Error("persisting audit events failed",
			"count", len(events),
			"runId", events[0].RunID,
			"duration", time.Since(start),
			"err", err,
		)
	}
}

// OnSaved subscribes fn to saved content notifications, the persist:ok
// events that carry a content ID.
func OnSaved(b *Bus, topicID string, fn func(ctx context.Context, contentID string, event *sift.AuditEvent)) (unsubscribe func()) {
	return b.Subscribe(topicID, func(ctx context.Context, event *sift.AuditEvent) {
		if event.Step != sift.StepPersist || event.Status != sift.StatusOK {
			return
		}
		id, _ := event.Meta["contentId"].(string)
		if id == "" {
			return
		}
		fn(ctx, id, event)
	})
}
