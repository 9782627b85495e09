// Package crawl runs the content discovery pipeline. A run normalizes
// input, expands it into queries, collects candidates from search
// providers and then fetches, extracts and persists candidates in
// batches, all under an attempt budget.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/sift"
	"github.com/fwojciec/sift/simhash"
	"github.com/google/uuid"
	slogctx "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"
)

// Pipeline defaults.
const (
	DefaultConcurrency      = 4
	DefaultCandidateTimeout = 45 * time.Second
	DefaultMinTextLength    = 100
	summaryLength           = 280
)

// Config tunes a Crawler. Zero fields take their defaults.
type Config struct {
	MaxAttemptsTotal   int
	MaxAttemptsPerStep int

	// Concurrency is the batch size.
	Concurrency int

	// CandidateTimeout bounds fetch, extract and persist of one candidate.
	CandidateTimeout time.Duration

	// BatchDelay paces consecutive batches.
	BatchDelay time.Duration

	// MinTextLength is the extracted text length below which extraction
	// counts as a fallback.
	MinTextLength int

	HammingThreshold int

	MaxQueries    int
	Sites         []string
	MaxCandidates int
	PageSize      int
	SearchTimeout time.Duration

	RedirectTimeout time.Duration

	// Retry is the fetch retry policy. A zero policy uses DefaultRetryPolicy.
	Retry RetryPolicy
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.CandidateTimeout <= 0 {
		c.CandidateTimeout = DefaultCandidateTimeout
	}
	if c.MinTextLength <= 0 {
		c.MinTextLength = DefaultMinTextLength
	}
	if c.Retry == (RetryPolicy{}) {
		c.Retry = DefaultRetryPolicy()
	}
	return c
}

// Crawler orchestrates discovery runs for topics.
type Crawler struct {
	// Queries is the first query expansion strategy. Optional.
	Queries   sift.QueryProvider
	Providers []sift.SearchProvider

	Frontier sift.Frontier
	Dedup    sift.DedupStore

	// Resolver follows one redirect during canonicalization. Optional.
	Resolver sift.RedirectResolver
	// Robots gates fetches. Optional.
	Robots sift.RobotsChecker
	// RateLimiter paces fetches per domain. Optional.
	RateLimiter sift.DomainLimiter

	Fetcher   sift.Fetcher
	Extractor sift.Extractor
	Contents  sift.ContentService

	// Runs stores summaries. Optional.
	Runs sift.RunService
	// Events receives audit events. Optional.
	Events sift.EventEmitter

	Config Config

	// Now replaces time.Now. Optional.
	Now func() time.Time
}

func (c *Crawler) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Run executes one discovery run for the topic and returns its summary.
// Pipeline failures are reported in the summary, never as an error; the
// error is non-nil only when the summary cannot be stored.
func (c *Crawler) Run(ctx context.Context, topicID string, raw sift.RawInput) (*sift.RunSummary, error) {
	r := c.newRun(topicID)
	ctx = slogctx.Append(ctx, "runId", r.id, "topicId", topicID)
	slogctx.Info(ctx, "run started")

	r.emit(ctx, &sift.AuditEvent{Step: sift.StepRun, Status: sift.StatusPending})
	err := r.execute(ctx, raw)
	return r.finalize(ctx, err)
}

// Drain processes queued candidates for the topic one at a time and stops
// after the first saved item or when the frontier is empty.
func (c *Crawler) Drain(ctx context.Context, topicID string) (*sift.RunSummary, error) {
	r := c.newRun(topicID)
	ctx = slogctx.Append(ctx, "runId", r.id, "topicId", topicID)

	r.emit(ctx, &sift.AuditEvent{Step: sift.StepRun, Status: sift.StatusPending, Meta: map[string]any{"mode": "drain"}})
	err := r.drainOne(ctx)
	return r.finalize(ctx, err)
}

// run holds the state of one execution.
type run struct {
	c       *Crawler
	cfg     Config
	id      string
	topicID string
	started time.Time
	breaker *Breaker
	dedup   *Deduper
	canon   *Canonicalizer
	seq     atomic.Int64

	// similar maps a candidate URL to an earlier candidate on a similar path.
	similar map[string]string

	mu           sync.Mutex
	duplicates   int
	saved        int
	rejected     int
	fallbacks    int
	errorsByCode map[string]int
}

func (c *Crawler) newRun(topicID string) *run {
	cfg := c.Config.withDefaults()
	return &run{
		c:       c,
		cfg:     cfg,
		id:      uuid.New().String(),
		topicID: topicID,
		started: c.now(),
		breaker: NewBreaker(cfg.MaxAttemptsTotal, cfg.MaxAttemptsPerStep),
		dedup:   &Deduper{Store: c.Dedup, Threshold: cfg.HammingThreshold},
		canon:   &Canonicalizer{Resolver: c.Resolver, Timeout: cfg.RedirectTimeout},
		similar: make(map[string]string),

		errorsByCode: make(map[string]int),
	}
}

func (r *run) execute(ctx context.Context, raw sift.RawInput) error {
	if err := r.breaker.Attempt(sift.StepNormalize); err != nil {
		return err
	}
	input := NormalizeInput(raw)
	r.emit(ctx, &sift.AuditEvent{Step: sift.StepNormalize, Status: sift.StatusOK, Meta: map[string]any{
		"keywords": len(input.Keywords),
		"notes":    input.Notes != "",
	}})

	if err := r.breaker.Attempt(sift.StepExpand); err != nil {
		return err
	}
	expander := &QueryExpander{Provider: r.c.Queries, Sites: r.cfg.Sites, MaxQueries: r.cfg.MaxQueries}
	queries, strategy, err := expander.Expand(ctx, input)
	if err != nil {
		r.fail(ctx, &sift.AuditEvent{Step: sift.StepExpand}, err)
		return err
	}
	r.emit(ctx, &sift.AuditEvent{Step: sift.StepExpand, Status: sift.StatusOK, Meta: map[string]any{
		"strategy": strategy,
		"queries":  queries,
	}})

	if err := r.breaker.Attempt(sift.StepCandidates); err != nil {
		return err
	}
	if err := r.generate(ctx, queries); err != nil {
		return err
	}

	return r.drain(ctx)
}

func (r *run) generate(ctx context.Context, queries []string) error {
	gen := &CandidateGenerator{
		Providers:     r.c.Providers,
		Frontier:      r.c.Frontier,
		PageSize:      r.cfg.PageSize,
		MaxCandidates: r.cfg.MaxCandidates,
		Timeout:       r.cfg.SearchTimeout,
	}
	set, err := gen.Generate(ctx, r.topicID, queries)
	for _, s := range set.Searches {
		ev := &sift.AuditEvent{
			Step:     sift.StepCandidates,
			Status:   sift.StatusOK,
			Provider: s.Provider,
			Query:    s.Query,
			Meta:     map[string]any{"page": s.Page, "results": s.Results},
		}
		if s.Err != nil {
			r.fail(ctx, ev, s.Err)
			continue
		}
		r.emit(ctx, ev)
	}
	if err != nil {
		return canceled(ctx)
	}

	r.addDuplicates(set.Duplicates)
	var queued, skipped int
	for i, cand := range set.Candidates {
		for _, earlier := range set.Candidates[:i] {
			if IsPathSimilar(cand.NormalizedURL, earlier.NormalizedURL) {
				r.similar[cand.URL] = earlier.URL
				break
			}
		}
		ok, err := r.c.Frontier.Push(ctx, r.topicID, cand)
		if err != nil {
			return fmt.Errorf("frontier push: %w", err)
		}
		if !ok {
			skipped++
			continue
		}
		queued++
	}
	r.addDuplicates(skipped)

	r.emit(ctx, &sift.AuditEvent{Step: sift.StepCandidates, Status: sift.StatusOK, Meta: map[string]any{
		"candidates": len(set.Candidates),
		"queued":     queued,
		"duplicates": set.Duplicates + skipped,
	}})
	return nil
}

// drain processes the frontier in batches until it is empty.
func (r *run) drain(ctx context.Context) error {
	for n := 0; ; n++ {
		if ctx.Err() != nil {
			return canceled(ctx)
		}

		batch := make([]*sift.Candidate, 0, r.cfg.Concurrency)
		for len(batch) < r.cfg.Concurrency {
			cand, err := r.c.Frontier.Next(ctx, r.topicID)
			if err != nil {
				return fmt.Errorf("frontier next: %w", err)
			}
			if cand == nil {
				break
			}
			batch = append(batch, cand)
		}
		if len(batch) == 0 {
			return nil
		}

		if n > 0 && r.cfg.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return canceled(ctx)
			case <-time.After(r.cfg.BatchDelay):
			}
		}

		if err := r.processBatch(ctx, batch); err != nil {
			return err
		}
	}
}

// processBatch runs the batch concurrently. A breaker trip cancels the
// remaining candidates of the batch.
func (r *run) processBatch(ctx context.Context, batch []*sift.Candidate) error {
	gate := newStageGate(r.breaker)
	g, gctx := errgroup.WithContext(ctx)
	for _, cand := range batch {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, r.cfg.CandidateTimeout)
			defer cancel()
			_, err := r.process(cctx, gate, cand)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return canceled(ctx)
	}
	return nil
}

func (r *run) drainOne(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return canceled(ctx)
		}
		cand, err := r.c.Frontier.Next(ctx, r.topicID)
		if err != nil {
			return fmt.Errorf("frontier next: %w", err)
		}
		if cand == nil {
			return nil
		}

		cctx, cancel := context.WithTimeout(ctx, r.cfg.CandidateTimeout)
		saved, err := r.process(cctx, newStageGate(r.breaker), cand)
		cancel()
		if err != nil {
			return err
		}
		if saved {
			return nil
		}
	}
}

// process takes one candidate through fetch, extract and persist.
// Candidate failures are recorded and swallowed; the returned error is
// always a breaker trip.
func (r *run) process(ctx context.Context, gate *stageGate, cand *sift.Candidate) (bool, error) {
	event := func(step sift.Step, status sift.Status, meta map[string]any) *sift.AuditEvent {
		return &sift.AuditEvent{
			Step:         step,
			Status:       status,
			Provider:     cand.Source,
			Query:        cand.SourceQuery,
			CandidateURL: cand.URL,
			Meta:         meta,
		}
	}

	key := cand.NormalizedURL
	if key == "" {
		key = NormalizeURL(cand.URL, "")
	}

	pre, err := r.dedup.Check(ctx, r.topicID, key, nil)
	if err != nil {
		slogctx.Warn(ctx, "dedup lookup failed", "url", cand.URL, "err", err)
	} else if pre.Skip() {
		r.skipped(ctx, cand, pre, event(sift.StepFetch, sift.StatusOK, map[string]any{
			"skipped": true,
			"tier":    pre.Tier,
			"reason":  pre.Reason,
		}))
		return false, nil
	}

	if r.c.Robots != nil {
		allowed, err := r.c.Robots.Allowed(ctx, cand.URL)
		if err != nil {
			slogctx.Warn(ctx, "robots check failed", "url", cand.URL, "err", err)
		} else if !allowed {
			if err := r.c.Dedup.MarkRejected(ctx, r.topicID, key, sift.RejectRobots); err != nil {
				slogctx.Warn(ctx, "recording rejection failed", "url", cand.URL, "err", err)
			}
			r.skipped(ctx, cand, sift.DedupResult{Tier: sift.TierRejected, Reason: sift.RejectRobots},
				event(sift.StepFetch, sift.StatusOK, map[string]any{"skipped": true, "reason": sift.RejectRobots}))
			return false, nil
		}
	}

	// fetch
	if err := gate.enter(sift.StepFetch); err != nil {
		return false, err
	}
	pending := map[string]any{}
	if similar, ok := r.similar[cand.URL]; ok {
		pending["similarTo"] = similar
	}
	r.emit(ctx, event(sift.StepFetch, sift.StatusPending, pending))

	if r.c.RateLimiter != nil {
		if err := r.c.RateLimiter.Wait(ctx, ExtractDomain(cand.URL)); err != nil {
			r.fail(ctx, event(sift.StepFetch, "", nil), sift.Errorf(sift.EFETCHTIMEOUT, "rate limit wait: %v", err))
			return false, nil
		}
	}

	res, delays, err := FetchWithRetry(ctx, cand.URL, r.fetch, r.cfg.Retry, func(retry int, delay time.Duration, cause error) error {
		if err := r.breaker.Attempt(sift.StepFetch); err != nil {
			return err
		}
		ev := event(sift.StepFetch, sift.StatusFail, map[string]any{
			"retry":     retry,
			"delayMs":   delay.Milliseconds(),
			"willRetry": true,
		})
		ev.Error = sift.NewErrorDetail(cause)
		r.emit(ctx, ev)
		return nil
	})
	if err != nil {
		if sift.ErrorCode(err) == sift.EATTEMPTCAP {
			return false, err
		}
		r.fail(ctx, event(sift.StepFetch, "", map[string]any{
			"retries":  len(delays),
			"delaysMs": millis(delays),
		}), err)
		if sift.ErrorCode(err) == sift.EFETCHNON200 {
			if err := r.c.Dedup.MarkRejected(ctx, r.topicID, key, sift.RejectNon2xx); err != nil {
				slogctx.Warn(ctx, "recording rejection failed", "url", cand.URL, "err", err)
			}
		}
		return false, nil
	}
	if res.FinalURL == "" {
		res.FinalURL = cand.URL
	}
	fetched := event(sift.StepFetch, sift.StatusOK, map[string]any{
		"status":   res.Status,
		"paywall":  res.PaywallDetected,
		"retries":  len(delays),
		"delaysMs": millis(delays),
	})
	fetched.FinalURL = res.FinalURL
	r.emit(ctx, fetched)

	// extract
	if err := gate.enter(sift.StepExtract); err != nil {
		return false, err
	}
	r.emit(ctx, event(sift.StepExtract, sift.StatusPending, nil))
	ext, err := r.extract(res)
	if err != nil {
		r.fail(ctx, event(sift.StepExtract, "", nil), err)
		return false, nil
	}
	chars := utf8.RuneCountInString(strings.TrimSpace(ext.Text))
	fallback := chars < r.cfg.MinTextLength
	if fallback {
		r.mu.Lock()
		r.fallbacks++
		r.mu.Unlock()
	}
	r.emit(ctx, event(sift.StepExtract, sift.StatusOK, map[string]any{
		"title":    ext.Title,
		"chars":    chars,
		"outlinks": len(ext.Outlinks),
		"fallback": fallback,
	}))

	// persist
	if err := gate.enter(sift.StepPersist); err != nil {
		return false, err
	}
	r.emit(ctx, event(sift.StepPersist, sift.StatusPending, nil))
	content, result, err := r.persist(ctx, cand, res, ext)
	if err != nil {
		r.fail(ctx, event(sift.StepPersist, "", nil), err)
		return false, nil
	}
	if result.Skip() {
		r.skipped(ctx, cand, result, event(sift.StepPersist, sift.StatusOK, map[string]any{
			"duplicate": result.Duplicate,
			"tier":      result.Tier,
			"reason":    result.Reason,
			"distance":  result.Distance,
		}))
		return false, nil
	}

	r.mu.Lock()
	r.saved++
	r.mu.Unlock()
	if err := r.c.Frontier.Update(ctx, r.topicID, cand, true); err != nil {
		slogctx.Warn(ctx, "frontier update failed", "url", cand.URL, "err", err)
	}
	saved := event(sift.StepPersist, sift.StatusOK, map[string]any{
		"duplicate":    false,
		"contentId":    content.ID,
		"canonicalUrl": content.CanonicalURL,
		"fingerprint":  content.Fingerprint,
	})
	saved.FinalURL = res.FinalURL
	r.emit(ctx, saved)
	return true, nil
}

// fetch enforces the Fetcher error contract: untyped failures are fetch
// failures and non-2xx statuses are errors.
func (r *run) fetch(ctx context.Context, url string) (*sift.FetchResult, error) {
	res, err := r.c.Fetcher.Fetch(ctx, url)
	if err != nil {
		if sift.ErrorCode(err) == sift.EINTERNAL {
			return nil, sift.Errorf(sift.EFETCHFAILED, "%v", err)
		}
		return nil, err
	}
	if res.Status != 0 && (res.Status < 200 || res.Status > 299) {
		return nil, sift.Errorf(sift.EFETCHNON200, "HTTP %d for %s", res.Status, url)
	}
	return res, nil
}

func (r *run) extract(res *sift.FetchResult) (*sift.ExtractResult, error) {
	ext, err := r.c.Extractor.Extract(res.HTML, res.FinalURL)
	if err != nil {
		if sift.ErrorCode(err) == sift.EEXTRACTFAILED {
			return nil, err
		}
		return nil, sift.Errorf(sift.EEXTRACTFAILED, "%v", err)
	}
	if ext == nil || (strings.TrimSpace(ext.Text) == "" && strings.TrimSpace(ext.Title) == "") {
		return nil, sift.Errorf(sift.EEXTRACTFAILED, "no content in %s", res.FinalURL)
	}
	return ext, nil
}

// persist canonicalizes, runs the dedup tiers and stores the content.
// A skip result with a nil error means the candidate was a duplicate or
// rejected.
func (r *run) persist(ctx context.Context, cand *sift.Candidate, res *sift.FetchResult, ext *sift.ExtractResult) (*sift.Content, sift.DedupResult, error) {
	raw := ext.CanonicalURLHint
	if raw == "" {
		raw = res.FinalURL
	}
	canon := r.canon.Canonicalize(ctx, raw, res.FinalURL)

	var fp simhash.Fingerprint
	var computed bool
	fingerprint := func() simhash.Fingerprint {
		if !computed {
			fp = simhash.Of(ext.Title, ext.Text, ext.Description)
			computed = true
		}
		return fp
	}

	result, err := r.dedup.Check(ctx, r.topicID, canon.CanonicalURL, fingerprint)
	if err != nil {
		return nil, result, sift.Errorf(sift.EPERSISTFAILED, "dedup check: %v", err)
	}
	if result.Skip() {
		return nil, result, nil
	}

	claimed, err := r.c.Dedup.MarkURLSeen(ctx, r.topicID, canon.CanonicalURL)
	if err != nil {
		return nil, result, sift.Errorf(sift.EPERSISTFAILED, "claim url: %v", err)
	}
	if !claimed {
		return nil, sift.DedupResult{Duplicate: true, Tier: sift.TierURL}, nil
	}
	release := func() {
		if err := r.c.Dedup.ReleaseURL(context.WithoutCancel(ctx), r.topicID, canon.CanonicalURL); err != nil {
			slogctx.Warn(ctx, "releasing url claim failed", "url", canon.CanonicalURL, "err", err)
		}
	}

	hash := ComputeHash(ext.Title + "\n" + ext.Text)
	if _, err := r.c.Contents.FindContentByHash(ctx, r.topicID, hash); err == nil {
		return nil, sift.DedupResult{Duplicate: true, Tier: sift.TierContentHash}, nil
	} else if sift.ErrorCode(err) != sift.ENOTFOUND {
		release()
		return nil, result, sift.Errorf(sift.EPERSISTFAILED, "content hash lookup: %v", err)
	}

	content := &sift.Content{
		TopicID:      r.topicID,
		RunID:        r.id,
		Title:        ext.Title,
		SourceURL:    cand.URL,
		CanonicalURL: canon.CanonicalURL,
		Domain:       canon.FinalDomain,
		ContentHash:  hash,
		Fingerprint:  fingerprint().String(),
		Summary:      summarize(ext),
		Provenance:   cand.Source + ":" + cand.SourceQuery,
	}
	if err := r.c.Contents.CreateContent(ctx, content); err != nil {
		if sift.ErrorCode(err) == sift.ECONFLICT {
			return nil, sift.DedupResult{Duplicate: true, Tier: sift.TierStore}, nil
		}
		release()
		return nil, result, sift.Errorf(sift.EPERSISTFAILED, "create content: %v", err)
	}

	if err := r.c.Dedup.AddFingerprint(ctx, r.topicID, uint64(fingerprint())); err != nil {
		slogctx.Warn(ctx, "recording fingerprint failed", "url", canon.CanonicalURL, "err", err)
	}
	return content, result, nil
}

// skipped records a dedup or rejection outcome.
func (r *run) skipped(ctx context.Context, cand *sift.Candidate, result sift.DedupResult, ev *sift.AuditEvent) {
	r.mu.Lock()
	if result.Duplicate {
		r.duplicates++
	} else {
		r.rejected++
	}
	r.mu.Unlock()

	if result.Duplicate {
		if err := r.c.Frontier.Update(ctx, r.topicID, cand, false); err != nil {
			slogctx.Warn(ctx, "frontier update failed", "url", cand.URL, "err", err)
		}
	}
	r.emit(ctx, ev)
}

func (r *run) addDuplicates(n int) {
	r.mu.Lock()
	r.duplicates += n
	r.mu.Unlock()
}

// emit stamps the event with run identity and sequence and publishes it.
func (r *run) emit(ctx context.Context, ev *sift.AuditEvent) {
	ev.RunID = r.id
	ev.TopicID = r.topicID
	ev.Seq = r.seq.Add(1)
	if ev.Timestamp.IsZero() {
		ev.Timestamp = r.c.now()
	}
	if r.c.Events != nil {
		r.c.Events.Emit(ctx, ev)
	}
}

// fail records err against the event's step. Failures of a candidate
// interrupted by the run stopping are emitted but not tallied; the run
// records its own cause.
func (r *run) fail(ctx context.Context, ev *sift.AuditEvent, err error) {
	code := sift.ErrorCode(err)
	if !interrupted(ctx) {
		r.mu.Lock()
		r.errorsByCode[code]++
		r.mu.Unlock()
	}

	ev.Status = sift.StatusFail
	ev.Error = sift.NewErrorDetail(err)
	slogctx.Warn(ctx, "step failed", "step", ev.Step, "url", ev.CandidateURL, "code", code, "err", err)
	r.emit(ctx, ev)
}

// finalize builds, announces and stores the run summary.
func (r *run) finalize(ctx context.Context, runErr error) (*sift.RunSummary, error) {
	ctx = context.WithoutCancel(ctx)

	status := sift.RunOK
	if runErr != nil {
		status = sift.RunFail
		// Step failures are tallied where they happen; run-level
		// failures are tallied here.
		if code := sift.ErrorCode(runErr); code != sift.ENOQUERYINPUT {
			r.mu.Lock()
			r.errorsByCode[code]++
			r.mu.Unlock()
		}
	}

	summary := &sift.RunSummary{
		ID:          uuid.New().String(),
		RunID:       r.id,
		TopicID:     r.topicID,
		Status:      status,
		StartedAt:   r.started,
		CompletedAt: r.c.now(),
		Meta:        r.meta(),
		Error:       sift.NewErrorDetail(runErr),
	}

	ev := &sift.AuditEvent{Step: sift.StepRun, Status: sift.StatusOK, Meta: map[string]any{
		"itemsSaved": summary.Meta.ItemsSaved,
		"duplicates": summary.Meta.Duplicates,
		"attempts":   summary.Meta.Attempts.Total,
	}}
	if runErr != nil {
		ev.Status = sift.StatusFail
		ev.Error = summary.Error
	}
	r.emit(ctx, ev)

	slogctx.Info(ctx, "run finished",
		"status", status,
		"saved", summary.Meta.ItemsSaved,
		"duplicates", summary.Meta.Duplicates,
		"attempts", summary.Meta.Attempts.Total,
		"err", runErr,
	)

	if r.c.Runs != nil {
		if err := r.c.Runs.CreateRunSummary(ctx, summary); err != nil {
			return summary, fmt.Errorf("saving run summary: %w", err)
		}
	}
	return summary, nil
}

func (r *run) meta() sift.RunMeta {
	r.mu.Lock()
	defer r.mu.Unlock()

	errorsByCode := make(map[string]int, len(r.errorsByCode))
	for code, n := range r.errorsByCode {
		errorsByCode[code] = n
	}
	return sift.RunMeta{
		Attempts:     r.breaker.Attempts(),
		Duplicates:   r.duplicates,
		ItemsSaved:   r.saved,
		Rejected:     r.rejected,
		Fallbacks:    r.fallbacks,
		ErrorsByCode: errorsByCode,
	}
}

// interrupted reports whether ctx was cancelled from above, by the
// caller or a breaker trip, rather than reaching its own deadline.
func interrupted(ctx context.Context) bool {
	err := ctx.Err()
	return err != nil && !errors.Is(err, context.DeadlineExceeded)
}

func canceled(ctx context.Context) error {
	return sift.Errorf(sift.ERUNCANCELED, "run canceled: %v", context.Cause(ctx))
}

func millis(delays []time.Duration) []int64 {
	out := make([]int64, len(delays))
	for i, d := range delays {
		out[i] = d.Milliseconds()
	}
	return out
}

func summarize(ext *sift.ExtractResult) string {
	if ext.Description != "" {
		return ext.Description
	}
	text := strings.Join(strings.Fields(ext.Text), " ")
	if utf8.RuneCountInString(text) <= summaryLength {
		return text
	}
	return string([]rune(text)[:summaryLength]) + "…"
}
