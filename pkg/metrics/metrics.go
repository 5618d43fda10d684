// Package metrics provides Prometheus instrumentation for tokengate components.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultNamespace = "tokengate"

// Registry holds all metric instances for tokengate components.
type Registry struct {
	// Rate Limiting Metrics
	RateLimitRequests *prometheus.CounterVec
	RateLimitAllowed  *prometheus.CounterVec
	RateLimitDenied   *prometheus.CounterVec
	RateLimitWaitTime *prometheus.HistogramVec
	RateLimitTokens   *prometheus.GaugeVec
	RateLimitWaiting  *prometheus.GaugeVec

	// Handler Metrics
	HandlerCalls    *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec
}

// Handler call outcomes used as the "outcome" label of HandlerCalls.
const (
	OutcomeSuccess  = "success"
	OutcomeInner    = "inner_error"
	OutcomeLimited  = "limited"
	OutcomeCanceled = "canceled"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry bound to prometheus.DefaultRegisterer,
// creating it on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Registry: reg})
}

// NewRegistryWithConfig creates a registry honouring the namespace and
// constant labels in cfg. A nil cfg.Registry means prometheus.DefaultRegisterer.
func NewRegistryWithConfig(cfg Config) *Registry {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(cfg.Labels) > 0 {
		reg = prometheus.WrapRegistererWith(cfg.Labels, reg)
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = defaultNamespace
	}

	factory := promauto.With(reg)
	limiterLabels := []string{"limiter_type", "limiter_name"}

	return &Registry{
		// Rate Limiting Metrics
		RateLimitRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "ratelimit",
				Name:      "requests_total",
				Help:      "Total number of tokens requested",
			},
			limiterLabels,
		),

		RateLimitAllowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "ratelimit",
				Name:      "allowed_total",
				Help:      "Total number of tokens granted",
			},
			limiterLabels,
		),

		RateLimitDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "ratelimit",
				Name:      "denied_total",
				Help:      "Total number of tokens denied or abandoned",
			},
			limiterLabels,
		),

		RateLimitWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "ratelimit",
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for a permit",
				Buckets:   prometheus.DefBuckets,
			},
			limiterLabels,
		),

		RateLimitTokens: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "ratelimit",
				Name:      "tokens_available",
				Help:      "Number of tokens currently available",
			},
			limiterLabels,
		),

		RateLimitWaiting: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "ratelimit",
				Name:      "waiting",
				Help:      "Number of callers queued for a permit",
			},
			limiterLabels,
		),

		// Handler Metrics
		HandlerCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "handler",
				Name:      "calls_total",
				Help:      "Total number of rate limited handler calls by outcome",
			},
			[]string{"handler_name", "outcome"},
		),

		HandlerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "handler",
				Name:      "duration_seconds",
				Help:      "Time spent in the downstream handler",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"handler_name"},
		),
	}
}
