/*
Package ratelimit groups the tokengate admission-control packages.

  - bucket: token bucket with lazy refill, FIFO waiters and scoped permits
  - middleware: decorators that put a bucket in front of a request handler

A single bucket guards a single resource:

	b := bucket.New(bucket.MustRateConfig(20, 5, time.Second))
	h := middleware.Wrap[Req, Resp](b, next)

Limiters are safe for concurrent use and honour context cancellation while
callers wait for capacity.
*/
package ratelimit
