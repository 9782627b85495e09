package crawl

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/fwojciec/sift"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (*sift.FetchResult, error)

// RetryFunc is called before each retry with the retry number (starting
// at 1), the delay about to be slept and the error that caused it.
// Returning an error aborts the retry loop with that error.
type RetryFunc func(retry int, delay time.Duration, err error) error

// RetryPolicy configures fetch retries.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	Base      time.Duration
	Max       time.Duration
	JitterMax time.Duration
}

// DefaultRetryPolicy retries transient failures twice.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		Base:       500 * time.Millisecond,
		Max:        8 * time.Second,
		JitterMax:  250 * time.Millisecond,
	}
}

// BackoffDelay returns min(base*2^attempt, maxDelay) plus a random jitter
// in [0, jitterMax).
func BackoffDelay(attempt int, base, maxDelay, jitterMax time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := maxDelay
	if attempt < 62 && base <= maxDelay>>attempt {
		d = base << attempt
	}
	if jitterMax > 0 {
		d += rand.N(jitterMax)
	}
	return d
}

// FetchWithRetry fetches url, retrying transient failures with
// exponential backoff and jitter. Non-transient failures, and failures
// after ctx is done, return at once.
// It returns the delays slept between attempts.
func FetchWithRetry(ctx context.Context, url string, fetch FetchFunc, policy RetryPolicy, onRetry RetryFunc) (*sift.FetchResult, []time.Duration, error) {
	var delays []time.Duration
	for attempt := 0; ; attempt++ {
		result, err := fetch(ctx, url)
		if err == nil {
			return result, delays, nil
		}
		if !sift.IsTransient(err) || attempt >= policy.MaxRetries || ctx.Err() != nil {
			return nil, delays, err
		}

		delay := BackoffDelay(attempt+1, policy.Base, policy.Max, policy.JitterMax)
		if onRetry != nil {
			if err := onRetry(attempt+1, delay, err); err != nil {
				return nil, delays, err
			}
		}
		delays = append(delays, delay)

		select {
		case <-ctx.Done():
			return nil, delays, err
		case <-time.After(delay):
		}
	}
}
