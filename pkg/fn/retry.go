package fn

import (
	"context"
	"math/rand"
	"time"
)

// RetryOpts configures retry behavior.
type RetryOpts struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Jitter      bool
}

// DefaultRetry suits one-shot resource fetches: a couple of quick retries,
// then give up and let the caller decide whether the failure is fatal.
var DefaultRetry = RetryOpts{
	MaxAttempts: 3,
	InitialWait: time.Second,
	MaxWait:     30 * time.Second,
	Jitter:      true,
}

// backoff returns the wait before the given zero-based retry, doubling from
// InitialWait and capped at MaxWait. Jitter scales by [0.5, 1.5) to spread
// concurrent retriers.
func (o RetryOpts) backoff(retry int) time.Duration {
	wait := o.InitialWait << retry
	if wait > o.MaxWait || wait <= 0 {
		wait = o.MaxWait
	}
	if o.Jitter {
		wait = time.Duration(float64(wait) * (0.5 + rand.Float64()))
		if wait > o.MaxWait {
			wait = o.MaxWait
		}
	}
	return wait
}

// Retry runs f up to MaxAttempts times, sleeping between failures. The last
// failure's Result is returned on exhaustion; context cancellation during a
// sleep returns the context error instead.
func Retry[T any](ctx context.Context, opts RetryOpts, f func(context.Context) Result[T]) Result[T] {
	var last Result[T]
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		if last = f(ctx); last.IsOk() {
			return last
		}
		if attempt == opts.MaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return Err[T](ctx.Err())
		case <-time.After(opts.backoff(attempt)):
		}
	}
	return last
}
