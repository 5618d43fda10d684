/*
Package bucket implements a token bucket with FIFO waiters and scoped permits.

A bucket holds up to Capacity tokens. Every RefillInterval it gains
RefillAmount tokens. Refill is lazy: the elapsed whole ticks are credited
whenever the bucket is touched, and the partial tick in progress is carried
forward rather than dropped.

	cfg, err := bucket.NewRateConfig(10, 2, 100*time.Millisecond)
	if err != nil {
		return err
	}
	b := bucket.New(cfg)

Tokens are taken as a *Permit, either immediately with TryAcquire or by
waiting with Acquire:

	p, err := b.Acquire(ctx, 1)
	if err != nil {
		return err
	}
	defer p.Release()
	// ... do the work ...
	p.Consume()

Release after Consume is a no-op, so the defer above returns the tokens only
on early exits. Do wraps the same pattern.

Waiters are served strictly in arrival order: a small request queued behind a
large one waits even if it could be satisfied now, and TryAcquire does not
succeed while anyone is queued. While waiters exist a single timer is armed
for the next refill boundary, so they make progress without new callers.
Canceling the context passed to Acquire removes the caller from the queue
without taking tokens.

NewWithMetrics wraps any Limiter with Prometheus counters and gauges.
*/
package bucket
