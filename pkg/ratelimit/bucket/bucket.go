package bucket

import (
	"container/list"
	"context"
	"math"
	"sync"
	"time"

	tgcontext "github.com/vnykmshr/tokengate/pkg/common/context"
)

// TokenBucket is a thread-safe token bucket with lazy refill and a FIFO
// queue of blocked acquirers.
//
// Tokens are replenished in whole ticks: every RefillInterval adds
// RefillAmount tokens, capped at Capacity. Refill is computed on access;
// while callers are queued a timer is armed for the next tick boundary so
// they are woken even if no other caller touches the bucket.
type TokenBucket struct {
	config RateConfig
	clock  Clock

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	waiters    list.List // of *waiter, oldest first
	stopWake   func() bool
	wakeGen    uint64 // identifies the armed timer; stale callbacks bail out
}

type waitState int

const (
	waitQueued waitState = iota
	waitGranted
	waitCanceled
)

// waiter is a caller parked in Acquire. All fields except ready and done
// are guarded by TokenBucket.mu.
type waiter struct {
	amount int
	ready  chan struct{}   // closed on grant
	done   <-chan struct{} // caller's ctx.Done()
	state  waitState
	permit *Permit
	elem   *list.Element
}

var _ Limiter = (*TokenBucket)(nil)

// New creates a token bucket for the given configuration. The bucket starts
// full unless WithInitialTokens says otherwise.
//
// New panics if cfg was not produced by NewRateConfig.
func New(cfg RateConfig, opts ...Option) *TokenBucket {
	if !cfg.valid() {
		panic("bucket: RateConfig must be created with NewRateConfig")
	}

	b := &TokenBucket{
		config: cfg,
		clock:  SystemClock{},
		tokens: float64(cfg.capacity),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.lastRefill = b.clock.Now()
	return b
}

// NewSafe validates the parameters and creates a token bucket.
// This is the recommended way to create buckets from untrusted input.
func NewSafe(capacity, refillAmount int, refillInterval time.Duration, opts ...Option) (*TokenBucket, error) {
	cfg, err := NewRateConfig(capacity, refillAmount, refillInterval)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...), nil
}

// Config returns the bucket's configuration.
func (b *TokenBucket) Config() RateConfig {
	return b.config
}

// Capacity returns the maximum number of tokens the bucket holds.
func (b *TokenBucket) Capacity() int {
	return b.config.capacity
}

// Available refreshes the bucket and returns the number of whole tokens
// usable right now. Fractional tokens are floored.
func (b *TokenBucket) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.settle(b.clock.Now())
	return int(math.Floor(b.tokens))
}

// Waiting returns the number of callers queued in Acquire.
func (b *TokenBucket) Waiting() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waiters.Len()
}

// TryAcquire reserves n tokens without blocking.
//
// It fails with *RequestExceedsCapacityError if n can never be satisfied and
// with ErrInsufficientTokens if the tokens are not available now. Queued
// Acquire callers keep priority: TryAcquire does not succeed while anyone
// is waiting.
func (b *TokenBucket) TryAcquire(n int) (*Permit, error) {
	if err := b.checkAmount(n); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.settle(b.clock.Now())
	if b.waiters.Len() > 0 || b.tokens < float64(n) {
		return nil, ErrInsufficientTokens
	}
	b.tokens -= float64(n)
	return newPermit(b, n), nil
}

// Acquire blocks until n tokens can be reserved or ctx is done.
//
// Waiters are served strictly in arrival order: a later, smaller request
// never overtakes an earlier, larger one. A request larger than the
// capacity fails immediately with *RequestExceedsCapacityError without
// being queued. If ctx is done first, Acquire returns ctx.Err() and no
// tokens are taken.
func (b *TokenBucket) Acquire(ctx context.Context, n int) (*Permit, error) {
	if err := b.checkAmount(n); err != nil {
		return nil, err
	}
	if tgcontext.IsCanceled(ctx) {
		return nil, ctx.Err()
	}

	b.mu.Lock()
	now := b.clock.Now()
	b.settle(now)

	if b.waiters.Len() == 0 && b.tokens >= float64(n) {
		b.tokens -= float64(n)
		b.mu.Unlock()
		return newPermit(b, n), nil
	}

	w := &waiter{
		amount: n,
		ready:  make(chan struct{}),
		done:   ctx.Done(),
	}
	w.elem = b.waiters.PushBack(w)
	b.armWake(now)
	b.mu.Unlock()

	select {
	case <-w.ready:
		return w.permit, nil
	case <-ctx.Done():
	}

	b.mu.Lock()
	switch w.state {
	case waitGranted:
		// Granted concurrently with cancellation. Cancellation wins.
		b.mu.Unlock()
		w.permit.Release()
		return nil, ctx.Err()
	case waitQueued:
		b.waiters.Remove(w.elem)
		w.state = waitCanceled
		// The next waiter may fit now that the head is gone.
		b.settle(b.clock.Now())
	}
	b.mu.Unlock()
	return nil, ctx.Err()
}

// Do acquires n tokens, runs fn, and releases the permit afterwards unless
// fn consumed it. The permit is released even if fn panics.
func (b *TokenBucket) Do(ctx context.Context, n int, fn func(context.Context, *Permit) error) error {
	p, err := b.Acquire(ctx, n)
	if err != nil {
		return err
	}
	defer p.Release()
	return fn(ctx, p)
}

func (b *TokenBucket) checkAmount(n int) error {
	if n <= 0 {
		return ErrInvalidAmount
	}
	if n > b.config.capacity {
		return &RequestExceedsCapacityError{Requested: n, Capacity: b.config.capacity}
	}
	return nil
}

// refill adds whole ticks elapsed since lastRefill. lastRefill advances only
// by whole ticks so the partial tick in progress is carried forward.
// Must be called with b.mu held.
func (b *TokenBucket) refill(now time.Time) {
	interval := b.config.refillInterval
	elapsed := now.Sub(b.lastRefill)
	if elapsed < interval {
		return
	}

	ticks := int64(elapsed / interval)
	added := float64(ticks) * float64(b.config.refillAmount)
	b.tokens = math.Min(b.tokens+added, float64(b.config.capacity))
	b.lastRefill = b.lastRefill.Add(time.Duration(ticks) * interval)
}

// dispatch grants tokens to queued waiters from the head, stopping at the
// first one that does not fit. Must be called with b.mu held.
func (b *TokenBucket) dispatch() {
	for e := b.waiters.Front(); e != nil; e = b.waiters.Front() {
		w := e.Value.(*waiter)

		select {
		case <-w.done:
			// The caller is leaving; it observes waitCanceled.
			b.waiters.Remove(e)
			w.state = waitCanceled
			continue
		default:
		}

		if b.tokens < float64(w.amount) {
			return
		}
		b.tokens -= float64(w.amount)
		b.waiters.Remove(e)
		w.state = waitGranted
		w.permit = newPermit(b, w.amount)
		close(w.ready)
	}
}

// settle brings the bucket up to date: refill, serve waiters, and keep the
// wake timer armed exactly while someone is queued.
// Must be called with b.mu held.
func (b *TokenBucket) settle(now time.Time) {
	b.refill(now)
	b.dispatch()
	if b.waiters.Len() == 0 {
		b.disarmWake()
		return
	}
	b.armWake(now)
}

// armWake schedules a wake at the next refill boundary if none is pending.
// Must be called with b.mu held.
func (b *TokenBucket) armWake(now time.Time) {
	if b.stopWake != nil || b.waiters.Len() == 0 {
		return
	}
	delay := b.lastRefill.Add(b.config.refillInterval).Sub(now)
	if delay <= 0 {
		delay = time.Nanosecond
	}
	b.wakeGen++
	gen := b.wakeGen
	b.stopWake = b.clock.AfterFunc(delay, func() { b.wake(gen) })
}

// Must be called with b.mu held.
func (b *TokenBucket) disarmWake() {
	if b.stopWake != nil {
		b.stopWake()
		b.stopWake = nil
		b.wakeGen++
	}
}

// wake is the timer callback armed by armWake.
func (b *TokenBucket) wake(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.wakeGen {
		return
	}
	b.stopWake = nil
	b.settle(b.clock.Now())
}

// release returns n tokens, capped at capacity, and serves waiters.
func (b *TokenBucket) release(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	b.refill(now)
	b.tokens = math.Min(b.tokens+float64(n), float64(b.config.capacity))
	b.settle(now)
}
