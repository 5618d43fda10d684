package bucket

import (
	"context"
	"time"
)

// Limiter is the admission-control contract implemented by *TokenBucket and
// by the instrumented wrapper returned from NewWithMetrics.
type Limiter interface {
	// Available reports the number of whole tokens usable right now.
	Available() int

	// TryAcquire reserves n tokens without blocking. It returns
	// ErrInsufficientTokens if the tokens are not available immediately,
	// and also whenever an Acquire caller is queued, even if enough tokens
	// are present: queued waiters are served first so they cannot be
	// starved by a stream of TryAcquire calls.
	TryAcquire(n int) (*Permit, error)

	// Acquire blocks until n tokens can be reserved, in arrival order,
	// or until ctx is done.
	Acquire(ctx context.Context, n int) (*Permit, error)

	// Capacity returns the maximum number of tokens the bucket holds.
	Capacity() int

	// Waiting returns the number of callers queued in Acquire.
	Waiting() int
}

// Clock provides the current time and one-shot timers. It can be mocked for testing.
type Clock interface {
	Now() time.Time

	// AfterFunc calls f in its own goroutine after d has elapsed. The
	// returned function cancels the call, reporting whether it was pending.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// AfterFunc wraps time.AfterFunc.
func (SystemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Option configures a TokenBucket.
type Option func(*TokenBucket)

// WithClock sets the time source. Defaults to SystemClock.
func WithClock(clock Clock) Option {
	return func(b *TokenBucket) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// WithInitialTokens sets the starting token count, clamped to [0, capacity].
// By default the bucket starts full.
func WithInitialTokens(n int) Option {
	return func(b *TokenBucket) {
		switch {
		case n < 0:
			n = 0
		case n > b.config.capacity:
			n = b.config.capacity
		}
		b.tokens = float64(n)
	}
}
