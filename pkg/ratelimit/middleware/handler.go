package middleware

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/vnykmshr/tokengate/pkg/common/validation"
	"github.com/vnykmshr/tokengate/pkg/metrics"
	"github.com/vnykmshr/tokengate/pkg/ratelimit/bucket"
)

// Handler is the downstream component wrapped by RateLimitedHandler.
type Handler[Req, Resp any] interface {
	Handle(ctx context.Context, req Req) (Resp, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// Handle calls f(ctx, req).
func (f HandlerFunc[Req, Resp]) Handle(ctx context.Context, req Req) (Resp, error) {
	return f(ctx, req)
}

// Readier is implemented by handlers that can report backpressure.
type Readier interface {
	Ready() bool
}

// RateLimitedHandler admits calls to a downstream Handler through a Limiter.
// Each call waits for a permit, runs the handler, and spends the permit
// whatever the outcome: the limiter bounds admitted calls, not successful ones.
type RateLimitedHandler[Req, Resp any] struct {
	limiter bucket.Limiter
	next    Handler[Req, Resp]
	cost    func(Req) int
	opts    options
}

// Wrap decorates next with limiter. Every call costs one token.
func Wrap[Req, Resp any](limiter bucket.Limiter, next Handler[Req, Resp], opts ...Option) *RateLimitedHandler[Req, Resp] {
	return WrapWithCost(limiter, next, nil, opts...)
}

// WrapWithCost is like Wrap but charges cost(req) tokens per call.
// A nil cost charges one token.
func WrapWithCost[Req, Resp any](limiter bucket.Limiter, next Handler[Req, Resp], cost func(Req) int, opts ...Option) *RateLimitedHandler[Req, Resp] {
	if err := validation.ValidateNotNil("middleware", "limiter", limiter); err != nil {
		panic(err)
	}
	if err := validation.ValidateNotNil("middleware", "handler", next); err != nil {
		panic(err)
	}
	if cost == nil {
		cost = unitCost[Req]
	}
	return &RateLimitedHandler[Req, Resp]{
		limiter: limiter,
		next:    next,
		cost:    cost,
		opts:    buildOptions(opts),
	}
}

func unitCost[Req any](Req) int { return 1 }

// Handle acquires a permit, invokes the downstream handler and consumes the
// permit. Limiter failures are returned as a RateLimitError with
// SourceLimiter, handler failures with SourceInner. If ctx ends while
// waiting for a permit the context error is returned as is.
func (h *RateLimitedHandler[Req, Resp]) Handle(ctx context.Context, req Req) (Resp, error) {
	var zero Resp
	cost := h.cost(req)

	permit, err := h.limiter.Acquire(ctx, cost)
	if err != nil {
		if isCancellation(err) {
			h.observe(metrics.OutcomeCanceled)
			return zero, err
		}
		h.observe(metrics.OutcomeLimited)
		h.opts.logger.DebugContext(ctx, "request rejected by limiter",
			slog.String("handler", h.opts.name),
			slog.Int("cost", cost),
			slog.Any("error", err))
		return zero, &RateLimitError{Source: SourceLimiter, Err: err}
	}
	// Spent on every path, panics included.
	defer permit.Consume()

	start := time.Now()
	resp, err := h.next.Handle(ctx, req)
	if h.opts.registry != nil {
		h.opts.registry.HandlerDuration.WithLabelValues(h.opts.name).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		h.observe(metrics.OutcomeInner)
		h.opts.logger.WarnContext(ctx, "downstream handler failed",
			slog.String("handler", h.opts.name),
			slog.Any("error", err))
		return zero, &RateLimitError{Source: SourceInner, Err: err}
	}
	h.observe(metrics.OutcomeSuccess)
	return resp, nil
}

// Ready reports whether a one-token call could be admitted without waiting.
// Handlers built with WrapWithCost should use ReadyFor.
func (h *RateLimitedHandler[Req, Resp]) Ready() bool {
	return h.readyFor(1)
}

// ReadyFor reports whether req could be admitted without waiting: nobody is
// queued on the limiter, it holds at least cost(req) tokens, and the
// downstream handler, if it implements Readier, is ready too.
func (h *RateLimitedHandler[Req, Resp]) ReadyFor(req Req) bool {
	return h.readyFor(h.cost(req))
}

func (h *RateLimitedHandler[Req, Resp]) readyFor(cost int) bool {
	// Queued waiters are served first, so any call would queue behind them.
	if h.limiter.Waiting() > 0 || h.limiter.Available() < cost {
		return false
	}
	if r, ok := h.next.(Readier); ok {
		return r.Ready()
	}
	return true
}

// Limiter returns the limiter guarding the handler.
func (h *RateLimitedHandler[Req, Resp]) Limiter() bucket.Limiter {
	return h.limiter
}

func (h *RateLimitedHandler[Req, Resp]) observe(outcome string) {
	if h.opts.registry != nil {
		h.opts.registry.HandlerCalls.WithLabelValues(h.opts.name, outcome).Inc()
	}
}

// Option configures a RateLimitedHandler or Layer.
type Option func(*options)

type options struct {
	name       string
	logger     *slog.Logger
	registry   *metrics.Registry
	bucketOpts []bucket.Option
}

// WithName sets the handler name used in logs and metric labels.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the structured logger. Rejections are logged at debug
// level and downstream failures at warn level. Logging is off by default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records call outcomes and handler latency into registry.
func WithMetrics(registry *metrics.Registry) Option {
	return func(o *options) { o.registry = registry }
}

// WithBucketOptions passes options to buckets created by a Layer.
// It has no effect on Wrap.
func WithBucketOptions(opts ...bucket.Option) Option {
	return func(o *options) { o.bucketOpts = append(o.bucketOpts, opts...) }
}

func buildOptions(opts []Option) options {
	o := options{
		name:   "default",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
