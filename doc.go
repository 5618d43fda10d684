/*
Package tokengate provides token bucket admission control for Go services.

Rate Limiting (pkg/ratelimit):
  - bucket: token bucket with lazy refill, FIFO waiters and scoped permits
  - middleware: rate-limited handler decorator, Layer and net/http adapter

Supporting packages:
  - pkg/metrics: Prometheus collectors for limiters and handlers
  - pkg/config: YAML configuration for processes embedding a limiter
  - pkg/common: shared errors, validation and context helpers

Example usage:

	import (
		"github.com/vnykmshr/tokengate/pkg/ratelimit/bucket"
		"github.com/vnykmshr/tokengate/pkg/ratelimit/middleware"
	)

	cfg, err := bucket.NewRateConfig(20, 5, time.Second) // 20 tokens, +5 every second
	if err != nil {
		return err
	}
	h := middleware.Wrap[Req, Resp](bucket.New(cfg), next)
	resp, err := h.Handle(ctx, req)
*/
package tokengate
