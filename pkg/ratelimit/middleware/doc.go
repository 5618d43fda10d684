/*
Package middleware decorates request handlers with token bucket admission control.

RateLimitedHandler wraps any Handler[Req, Resp]. Each call acquires a permit
from a bucket.Limiter (waiting in FIFO order if necessary), invokes the
downstream handler, and consumes the permit whether the handler succeeds,
fails or panics. Tokens bound the rate of admitted calls, not successful ones.

	h := middleware.Wrap[Order, Receipt](limiter, checkout,
		middleware.WithName("checkout"),
		middleware.WithLogger(logger))

	receipt, err := h.Handle(ctx, order)
	switch {
	case middleware.IsLimiterError(err):
		// admission rejected: back off
	case middleware.IsInnerError(err):
		// business failure: apply the caller's own retry policy
	}

Context cancellation while waiting for a permit is returned unwrapped.

A Layer builds handlers from a shared RateConfig, giving each its own bucket.
HTTPMiddleware applies the same admission control to net/http handlers,
either rejecting with 429 or holding requests until capacity is available.
*/
package middleware
