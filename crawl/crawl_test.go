package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/sift"
	"github.com/fwojciec/sift/crawl"
	"github.com/fwojciec/sift/mock"
	"github.com/fwojciec/sift/simhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contentStore is an in-memory sift.ContentService enforcing canonical URL
// uniqueness.
type contentStore struct {
	mu       sync.Mutex
	byURL    map[string]*sift.Content
	createFn func(c *sift.Content) error
}

func newContentStore() *contentStore {
	return &contentStore{byURL: make(map[string]*sift.Content)}
}

func (s *contentStore) service() *mock.ContentService {
	return &mock.ContentService{
		CreateContentFn: func(_ context.Context, c *sift.Content) error {
			if s.createFn != nil {
				if err := s.createFn(c); err != nil {
					return err
				}
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.byURL[c.CanonicalURL]; ok {
				return sift.Errorf(sift.ECONFLICT, "content already exists")
			}
			c.ID = fmt.Sprintf("content-%d", len(s.byURL)+1)
			s.byURL[c.CanonicalURL] = c
			return nil
		},
		FindContentByHashFn: func(_ context.Context, topicID, hash string) (*sift.Content, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, c := range s.byURL {
				if c.TopicID == topicID && c.ContentHash == hash {
					return c, nil
				}
			}
			return nil, sift.Errorf(sift.ENOTFOUND, "content not found")
		},
	}
}

func (s *contentStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byURL)
}

// eventLog records emitted audit events.
type eventLog struct {
	mu     sync.Mutex
	events []*sift.AuditEvent
}

func (l *eventLog) emitter() *mock.EventEmitter {
	return &mock.EventEmitter{EmitFn: func(_ context.Context, e *sift.AuditEvent) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.events = append(l.events, e)
	}}
}

func (l *eventLog) forURL(url string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.events {
		if e.CandidateURL == url {
			out = append(out, string(e.Step)+":"+string(e.Status))
		}
	}
	return out
}

func (l *eventLog) count(step sift.Step, status sift.Status) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int
	for _, e := range l.events {
		if e.Step == step && e.Status == status {
			n++
		}
	}
	return n
}

// page renders article text that shares no words with the text of any
// other seed.
func page(seed string) string {
	h := fnv.New64a()
	h.Write([]byte(seed))
	rng := rand.New(rand.NewPCG(h.Sum64(), 0))
	var b strings.Builder
	for range 300 {
		fmt.Fprintf(&b, "w%x ", rng.Uint64())
	}
	return b.String()
}

type fixture struct {
	crawler  *crawl.Crawler
	contents *contentStore
	events   *eventLog
	fetches  atomic.Int32
}

// newFixture wires a crawler whose single provider returns urls for the
// keyword query and whose pages carry distinct text.
func newFixture(urls ...string) *fixture {
	f := &fixture{contents: newContentStore(), events: &eventLog{}}
	f.crawler = &crawl.Crawler{
		Providers: []sift.SearchProvider{
			provider("search", func(_ string, _ sift.SearchOptions) ([]sift.Article, error) {
				out := make([]sift.Article, len(urls))
				for i, u := range urls {
					out[i] = sift.Article{URL: u}
				}
				return out, nil
			}),
		},
		Frontier: crawl.NewFrontier(1000, 0.001),
		Dedup:    crawl.NewDedupStore(),
		Fetcher: &mock.Fetcher{FetchFn: func(_ context.Context, url string) (*sift.FetchResult, error) {
			f.fetches.Add(1)
			return &sift.FetchResult{FinalURL: url, Status: 200, HTML: page(url)}, nil
		}},
		Extractor: &mock.Extractor{ExtractFn: func(html, pageURL string) (*sift.ExtractResult, error) {
			return &sift.ExtractResult{Title: "Title of " + pageURL, Text: html}, nil
		}},
		Contents: f.contents.service(),
		Events:   f.events.emitter(),
		Config: crawl.Config{
			Sites: []string{},
			Retry: crawl.RetryPolicy{MaxRetries: 2, Base: time.Millisecond, Max: 5 * time.Millisecond},
		},
	}
	return f
}

func TestCrawler_Run(t *testing.T) {
	t.Parallel()

	t.Run("saves distinct articles", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://a.com/1", "https://b.com/2", "https://c.com/3")

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"batteries"}})

		require.NoError(t, err)
		assert.Equal(t, sift.RunOK, summary.Status)
		assert.Nil(t, summary.Error)
		assert.Equal(t, 3, summary.Meta.ItemsSaved)
		assert.Equal(t, 0, summary.Meta.Duplicates)
		assert.Empty(t, summary.Meta.ErrorsByCode)
		assert.Equal(t, 3, f.contents.len())
		assert.NotEmpty(t, summary.RunID)
		assert.Equal(t, "topic", summary.TopicID)
		assert.False(t, summary.CompletedAt.Before(summary.StartedAt))
	})

	t.Run("counts urls that canonicalize together as duplicates", func(t *testing.T) {
		t.Parallel()

		f := newFixture(
			"https://www.a.com/story?utm_source=feed",
			"https://a.com/story#comments",
			"https://b.com/other",
		)

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"batteries"}})

		require.NoError(t, err)
		assert.Equal(t, sift.RunOK, summary.Status)
		assert.Equal(t, 2, summary.Meta.ItemsSaved)
		assert.Equal(t, 1, summary.Meta.Duplicates)
	})

	t.Run("fails without query input and fetches nothing", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://a.com/1")

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{})

		require.NoError(t, err)
		assert.Equal(t, sift.RunFail, summary.Status)
		require.NotNil(t, summary.Error)
		assert.Equal(t, sift.ENOQUERYINPUT, summary.Error.Code)
		assert.Equal(t, 1, summary.Meta.ErrorsByCode[sift.ENOQUERYINPUT])
		assert.Zero(t, summary.Meta.Attempts.ByStep[sift.StepFetch])
		assert.Zero(t, f.fetches.Load())
	})

	t.Run("finalizes ok with no candidates", func(t *testing.T) {
		t.Parallel()

		f := newFixture()

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"nothing"}})

		require.NoError(t, err)
		assert.Equal(t, sift.RunOK, summary.Status)
		assert.Zero(t, summary.Meta.ItemsSaved)
	})

	t.Run("trips the breaker at the total cap", func(t *testing.T) {
		t.Parallel()

		var urls []string
		for i := range 10 {
			urls = append(urls, fmt.Sprintf("https://example.com/%d", i))
		}
		f := newFixture(urls...)
		f.crawler.Config.MaxAttemptsTotal = 5

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"batteries"}})

		require.NoError(t, err)
		assert.Equal(t, sift.RunFail, summary.Status)
		require.NotNil(t, summary.Error)
		assert.Equal(t, sift.EATTEMPTCAP, summary.Error.Code)
		assert.LessOrEqual(t, summary.Meta.Attempts.Total, 5)
		assert.Equal(t, 1, summary.Meta.ErrorsByCode[sift.EATTEMPTCAP])
	})

	t.Run("trips the breaker at the per-step cap", func(t *testing.T) {
		t.Parallel()

		var urls []string
		for i := range 12 {
			urls = append(urls, fmt.Sprintf("https://example.com/%d", i))
		}
		f := newFixture(urls...)
		f.crawler.Config.MaxAttemptsPerStep = 2
		f.crawler.Config.Concurrency = 1

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"batteries"}})

		require.NoError(t, err)
		assert.Equal(t, sift.EATTEMPTCAP, summary.Error.Code)
		assert.Equal(t, 2, summary.Meta.Attempts.ByStep[sift.StepFetch])
		assert.Equal(t, 2, summary.Meta.ItemsSaved)
	})

	t.Run("retries transient fetch failures with growing delays", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://flaky.com/a")
		var calls atomic.Int32
		f.crawler.Fetcher = &mock.Fetcher{FetchFn: func(_ context.Context, url string) (*sift.FetchResult, error) {
			if calls.Add(1) < 3 {
				return nil, sift.Errorf(sift.EFETCHTIMEOUT, "timeout")
			}
			return &sift.FetchResult{FinalURL: url, Status: 200, HTML: page(url)}, nil
		}}

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"x"}})

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Meta.ItemsSaved)
		assert.Equal(t, int32(3), calls.Load())
		assert.Equal(t, 3, summary.Meta.Attempts.ByStep[sift.StepFetch])
		assert.Empty(t, summary.Meta.ErrorsByCode)

		var delays []int64
		f.events.mu.Lock()
		for _, e := range f.events.events {
			if e.Step == sift.StepFetch && e.Status == sift.StatusOK {
				delays, _ = e.Meta["delaysMs"].([]int64)
			}
		}
		f.events.mu.Unlock()
		require.Len(t, delays, 2)
		assert.LessOrEqual(t, delays[0], delays[1])
	})

	t.Run("records non-2xx without retrying and rejects the url", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://gone.com/a", "https://ok.com/b")
		f.crawler.Fetcher = &mock.Fetcher{FetchFn: func(_ context.Context, url string) (*sift.FetchResult, error) {
			f.fetches.Add(1)
			if strings.Contains(url, "gone") {
				return &sift.FetchResult{FinalURL: url, Status: 404}, nil
			}
			return &sift.FetchResult{FinalURL: url, Status: 200, HTML: page(url)}, nil
		}}

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"x"}})

		require.NoError(t, err)
		assert.Equal(t, sift.RunOK, summary.Status)
		assert.Equal(t, 1, summary.Meta.ItemsSaved)
		assert.Equal(t, 1, summary.Meta.ErrorsByCode[sift.EFETCHNON200])
		assert.Equal(t, int32(2), f.fetches.Load())

		reason, ok, err := f.crawler.Dedup.Rejection(context.Background(), "topic", "https://gone.com/a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, sift.RejectNon2xx, reason)
	})

	t.Run("counts short extractions as fallbacks", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://short.com/a")
		f.crawler.Extractor = &mock.Extractor{ExtractFn: func(_, _ string) (*sift.ExtractResult, error) {
			return &sift.ExtractResult{Title: "Short", Text: "tiny body"}, nil
		}}

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"x"}})

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Meta.ItemsSaved)
		assert.Equal(t, 1, summary.Meta.Fallbacks)
	})

	t.Run("records extraction failures and continues", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://bad.com/a", "https://good.com/b")
		inner := f.crawler.Extractor
		f.crawler.Extractor = &mock.Extractor{ExtractFn: func(html, pageURL string) (*sift.ExtractResult, error) {
			if strings.Contains(pageURL, "bad") {
				return nil, errors.New("parse error")
			}
			return inner.Extract(html, pageURL)
		}}

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"x"}})

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Meta.ItemsSaved)
		assert.Equal(t, 1, summary.Meta.ErrorsByCode[sift.EEXTRACTFAILED])
	})

	t.Run("fingerprints title text and description", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://a.com/1")
		f.crawler.Extractor = &mock.Extractor{ExtractFn: func(html, pageURL string) (*sift.ExtractResult, error) {
			return &sift.ExtractResult{Title: "Title", Text: html, Description: "A summary of the page"}, nil
		}}

		_, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"x"}})

		require.NoError(t, err)
		require.Equal(t, 1, f.contents.len())
		want := simhash.Of("Title", page("https://a.com/1"), "A summary of the page").String()
		f.contents.mu.Lock()
		defer f.contents.mu.Unlock()
		for _, c := range f.contents.byURL {
			assert.Equal(t, want, c.Fingerprint)
		}
	})

	t.Run("uses the canonical hint from extraction", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://mirror.com/a", "https://origin.com/a")
		inner := f.crawler.Extractor
		f.crawler.Extractor = &mock.Extractor{ExtractFn: func(html, pageURL string) (*sift.ExtractResult, error) {
			res, err := inner.Extract(html, pageURL)
			if err != nil {
				return nil, err
			}
			res.CanonicalURLHint = "https://www.origin.com/a"
			return res, nil
		}}

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"x"}})

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Meta.ItemsSaved)
		assert.Equal(t, 1, summary.Meta.Duplicates)
		assert.Equal(t, 1, f.contents.len())
	})

	t.Run("treats syndicated copies as duplicates", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://a.com/x", "https://b.com/y")
		f.crawler.Config.Concurrency = 1
		shared := page("syndicated")
		f.crawler.Fetcher = &mock.Fetcher{FetchFn: func(_ context.Context, url string) (*sift.FetchResult, error) {
			return &sift.FetchResult{FinalURL: url, Status: 200, HTML: shared}, nil
		}}
		f.crawler.Extractor = &mock.Extractor{ExtractFn: func(html, _ string) (*sift.ExtractResult, error) {
			return &sift.ExtractResult{Title: "Syndicated", Text: html}, nil
		}}

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"x"}})

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Meta.ItemsSaved)
		assert.Equal(t, 1, summary.Meta.Duplicates)
	})

	t.Run("skips urls disallowed by robots", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://private.com/a", "https://public.com/b")
		f.crawler.Robots = &mock.RobotsChecker{AllowedFn: func(_ context.Context, url string) (bool, error) {
			return !strings.Contains(url, "private"), nil
		}}

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"x"}})

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Meta.ItemsSaved)
		assert.Equal(t, 1, summary.Meta.Rejected)
		assert.Equal(t, int32(1), f.fetches.Load())
	})

	t.Run("persist failures release the url claim", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://a.com/1")
		f.contents.createFn = func(_ *sift.Content) error { return errors.New("disk full") }

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"x"}})

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Meta.ErrorsByCode[sift.EPERSISTFAILED])
		seen, err := f.crawler.Dedup.IsURLSeen(context.Background(), "topic", "https://a.com/1")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("emits ordered events per candidate", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://a.com/1")

		_, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"x"}})

		require.NoError(t, err)
		assert.Equal(t, []string{
			"fetch:pending", "fetch:ok",
			"extract:pending", "extract:ok",
			"persist:pending", "persist:ok",
		}, f.events.forURL("https://a.com/1"))
		assert.Equal(t, 1, f.events.count(sift.StepRun, sift.StatusPending))
		assert.Equal(t, 1, f.events.count(sift.StepRun, sift.StatusOK))

		f.events.mu.Lock()
		defer f.events.mu.Unlock()
		for i, e := range f.events.events {
			assert.Equal(t, int64(i+1), e.Seq)
		}
	})

	t.Run("a second run of the same input saves nothing new", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://a.com/1", "https://b.com/2")
		ctx := context.Background()

		first, err := f.crawler.Run(ctx, "topic", sift.RawInput{Keywords: []string{"x"}})
		require.NoError(t, err)
		second, err := f.crawler.Run(ctx, "topic", sift.RawInput{Keywords: []string{"x"}})
		require.NoError(t, err)

		assert.Equal(t, 2, first.Meta.ItemsSaved)
		assert.Equal(t, 0, second.Meta.ItemsSaved)
		assert.Equal(t, 2, second.Meta.Duplicates)
		assert.Equal(t, 2, f.contents.len())
	})

	t.Run("store conflicts count as duplicates", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://a.com/1")
		f.contents.createFn = func(_ *sift.Content) error {
			return sift.Errorf(sift.ECONFLICT, "unique constraint")
		}

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"x"}})

		require.NoError(t, err)
		assert.Equal(t, sift.RunOK, summary.Status)
		assert.Equal(t, 0, summary.Meta.ItemsSaved)
		assert.Equal(t, 1, summary.Meta.Duplicates)
		assert.Empty(t, summary.Meta.ErrorsByCode)
	})

	t.Run("caller cancellation fails the run", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://a.com/1", "https://b.com/2")
		ctx, cancel := context.WithCancel(context.Background())
		f.crawler.Fetcher = &mock.Fetcher{FetchFn: func(ctx context.Context, _ string) (*sift.FetchResult, error) {
			cancel()
			<-ctx.Done()
			return nil, sift.Errorf(sift.EFETCHFAILED, "canceled")
		}}

		summary, err := f.crawler.Run(ctx, "topic", sift.RawInput{Keywords: []string{"x"}})

		require.NoError(t, err)
		assert.Equal(t, sift.RunFail, summary.Status)
		assert.Equal(t, sift.ERUNCANCELED, summary.Error.Code)
		assert.Equal(t, map[string]int{sift.ERUNCANCELED: 1}, summary.Meta.ErrorsByCode)
		assert.Equal(t, 1, summary.Meta.Attempts.ByStep[sift.StepFetch])
	})

	t.Run("cancellation during in-flight fetches is not retried", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://a.com/1", "https://b.com/2", "https://c.com/3", "https://d.com/4")
		f.crawler.Config.MaxAttemptsPerStep = 2
		f.crawler.Config.Concurrency = 4
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		var started atomic.Int32
		f.crawler.Fetcher = &mock.Fetcher{FetchFn: func(ctx context.Context, _ string) (*sift.FetchResult, error) {
			if started.Add(1) == 4 {
				cancel()
			}
			<-ctx.Done()
			return nil, sift.Errorf(sift.EFETCHFAILED, "request canceled")
		}}

		summary, err := f.crawler.Run(ctx, "topic", sift.RawInput{Keywords: []string{"x"}})

		require.NoError(t, err)
		require.NotNil(t, summary.Error)
		assert.Equal(t, sift.ERUNCANCELED, summary.Error.Code)
		assert.Equal(t, map[string]int{sift.ERUNCANCELED: 1}, summary.Meta.ErrorsByCode)
		assert.Equal(t, 1, summary.Meta.Attempts.ByStep[sift.StepFetch])
		assert.Equal(t, int32(4), started.Load())

		f.events.mu.Lock()
		defer f.events.mu.Unlock()
		for _, e := range f.events.events {
			assert.Nil(t, e.Meta["willRetry"], "unexpected retry of %s", e.CandidateURL)
		}
	})

	t.Run("stores the summary", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://a.com/1")
		var stored *sift.RunSummary
		f.crawler.Runs = &mock.RunService{CreateRunSummaryFn: func(_ context.Context, s *sift.RunSummary) error {
			stored = s
			return nil
		}}

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"x"}})

		require.NoError(t, err)
		assert.Same(t, summary, stored)
	})

	t.Run("returns an error when the summary cannot be stored", func(t *testing.T) {
		t.Parallel()

		f := newFixture("https://a.com/1")
		f.crawler.Runs = &mock.RunService{CreateRunSummaryFn: func(_ context.Context, _ *sift.RunSummary) error {
			return errors.New("db locked")
		}}

		summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"x"}})

		assert.ErrorContains(t, err, "db locked")
		assert.NotNil(t, summary)
	})
}

func TestCrawler_persist_is_idempotent_under_concurrency(t *testing.T) {
	t.Parallel()

	// Two candidates redirect to the same article and run in one batch.
	f := newFixture("https://short.ly/1", "https://short.ly/2")
	f.crawler.Resolver = &mock.RedirectResolver{ResolveFn: func(_ context.Context, _ string) (string, error) {
		return "https://target.com/article", nil
	}}
	f.crawler.Fetcher = &mock.Fetcher{FetchFn: func(_ context.Context, _ string) (*sift.FetchResult, error) {
		return &sift.FetchResult{FinalURL: "https://target.com/article", Status: 200, HTML: page("article")}, nil
	}}

	summary, err := f.crawler.Run(context.Background(), "topic", sift.RawInput{Keywords: []string{"x"}})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Meta.ItemsSaved)
	assert.Equal(t, 1, summary.Meta.Duplicates)
	assert.Equal(t, 1, f.contents.len())
}

func TestCrawler_Drain(t *testing.T) {
	t.Parallel()

	t.Run("stops after the first save", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		f := newFixture()
		for _, u := range []string{"https://a.com/1", "https://b.com/2", "https://c.com/3"} {
			_, err := f.crawler.Frontier.Push(ctx, "topic", &sift.Candidate{
				URL:           u,
				NormalizedURL: crawl.NormalizeURL(u, ""),
				Source:        "search",
				Priority:      1,
			})
			require.NoError(t, err)
		}

		summary, err := f.crawler.Drain(ctx, "topic")

		require.NoError(t, err)
		assert.Equal(t, sift.RunOK, summary.Status)
		assert.Equal(t, 1, summary.Meta.ItemsSaved)
		n, err := f.crawler.Frontier.Len(ctx, "topic")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("skips duplicates until something is saved", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		f := newFixture()
		_, err := f.crawler.Dedup.MarkURLSeen(ctx, "topic", "https://a.com/1")
		require.NoError(t, err)
		for i, u := range []string{"https://a.com/1", "https://b.com/2"} {
			_, err := f.crawler.Frontier.Push(ctx, "topic", &sift.Candidate{
				URL:           u,
				NormalizedURL: crawl.NormalizeURL(u, ""),
				Source:        "search",
				Priority:      float64(2 - i),
			})
			require.NoError(t, err)
		}

		summary, err := f.crawler.Drain(ctx, "topic")

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Meta.ItemsSaved)
		assert.Equal(t, 1, summary.Meta.Duplicates)
		assert.Equal(t, int32(1), f.fetches.Load())
	})

	t.Run("is a no-op on an empty frontier", func(t *testing.T) {
		t.Parallel()

		f := newFixture()

		summary, err := f.crawler.Drain(context.Background(), "topic")

		require.NoError(t, err)
		assert.Equal(t, sift.RunOK, summary.Status)
		assert.Zero(t, summary.Meta.Attempts.Total)
	})
}
