package bucket

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vnykmshr/tokengate/pkg/metrics"
)

const limiterType = "token_bucket"

// MetricsLimiter wraps a Limiter with Prometheus metrics collection.
// Token amounts, not calls, are counted by the requests/allowed/denied counters.
// Metrics can be toggled while the limiter is in use.
type MetricsLimiter struct {
	limiter Limiter
	name    string

	mu       sync.Mutex // serializes EnableMetrics
	registry atomic.Pointer[metrics.Registry]
	enabled  atomic.Bool
}

var (
	_ Limiter                = (*MetricsLimiter)(nil)
	_ metrics.Instrumentable = (*MetricsLimiter)(nil)
)

// NewWithMetrics wraps limiter with metrics reported under name. If
// config.Enabled is false the limiter is returned unwrapped.
func NewWithMetrics(limiter Limiter, name string, config metrics.Config) Limiter {
	if !config.Enabled {
		return limiter
	}

	ml := &MetricsLimiter{limiter: limiter, name: name}
	_ = ml.EnableMetrics(config)
	return ml
}

// NewWithRegistry wraps limiter with metrics recorded into an existing registry.
// Use this when several limiters share one set of collectors.
func NewWithRegistry(limiter Limiter, name string, registry *metrics.Registry) *MetricsLimiter {
	ml := &MetricsLimiter{limiter: limiter, name: name}
	ml.registry.Store(registry)
	ml.enabled.Store(registry != nil)
	return ml
}

// active returns the registry to record into, or nil while metrics are off.
func (ml *MetricsLimiter) active() *metrics.Registry {
	if !ml.enabled.Load() {
		return nil
	}
	return ml.registry.Load()
}

// Available reports the number of whole tokens usable right now.
func (ml *MetricsLimiter) Available() int {
	n := ml.limiter.Available()
	if r := ml.active(); r != nil {
		ml.gauge(r.RateLimitTokens).Set(float64(n))
	}
	return n
}

// TryAcquire reserves n tokens without blocking.
func (ml *MetricsLimiter) TryAcquire(n int) (*Permit, error) {
	p, err := ml.limiter.TryAcquire(n)

	if r := ml.active(); r != nil {
		ml.record(r, n, err)
	}
	return p, err
}

// Acquire blocks until n tokens can be reserved or ctx is done.
func (ml *MetricsLimiter) Acquire(ctx context.Context, n int) (*Permit, error) {
	r := ml.active()
	if r == nil {
		return ml.limiter.Acquire(ctx, n)
	}

	start := time.Now()
	waiting := ml.gauge(r.RateLimitWaiting)
	waiting.Set(float64(ml.limiter.Waiting()))

	p, err := ml.limiter.Acquire(ctx, n)

	r.RateLimitWaitTime.WithLabelValues(limiterType, ml.name).Observe(time.Since(start).Seconds())
	waiting.Set(float64(ml.limiter.Waiting()))
	ml.record(r, n, err)
	return p, err
}

// Capacity returns the maximum number of tokens the bucket holds.
func (ml *MetricsLimiter) Capacity() int {
	return ml.limiter.Capacity()
}

// Waiting returns the number of callers queued in Acquire.
func (ml *MetricsLimiter) Waiting() int {
	n := ml.limiter.Waiting()
	if r := ml.active(); r != nil {
		ml.gauge(r.RateLimitWaiting).Set(float64(n))
	}
	return n
}

// Name returns the limiter_name label value.
func (ml *MetricsLimiter) Name() string {
	return ml.name
}

// EnableMetrics enables metrics collection. Collectors are registered the
// first time only; later calls just toggle collection.
func (ml *MetricsLimiter) EnableMetrics(config metrics.Config) error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.registry.Load() == nil {
		ml.registry.Store(metrics.NewRegistryWithConfig(config))
	}
	ml.enabled.Store(config.Enabled)
	return nil
}

// DisableMetrics disables metrics collection.
func (ml *MetricsLimiter) DisableMetrics() {
	ml.enabled.Store(false)
}

// MetricsEnabled returns true if metrics are currently enabled.
func (ml *MetricsLimiter) MetricsEnabled() bool {
	return ml.enabled.Load()
}

func (ml *MetricsLimiter) record(r *metrics.Registry, n int, err error) {
	if n > 0 {
		ml.counter(r.RateLimitRequests).Add(float64(n))
		if err == nil {
			ml.counter(r.RateLimitAllowed).Add(float64(n))
		} else {
			ml.counter(r.RateLimitDenied).Add(float64(n))
		}
	}
	ml.gauge(r.RateLimitTokens).Set(float64(ml.limiter.Available()))
}

func (ml *MetricsLimiter) counter(v *prometheus.CounterVec) prometheus.Counter {
	return v.WithLabelValues(limiterType, ml.name)
}

func (ml *MetricsLimiter) gauge(v *prometheus.GaugeVec) prometheus.Gauge {
	return v.WithLabelValues(limiterType, ml.name)
}
