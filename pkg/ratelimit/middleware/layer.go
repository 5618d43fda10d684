package middleware

import (
	"time"

	"github.com/vnykmshr/tokengate/pkg/ratelimit/bucket"
)

// Layer builds rate-limited handlers from a shared configuration. Each
// handler produced by Apply gets its own bucket.
type Layer struct {
	config bucket.RateConfig
	opts   []Option
}

// NewLayer returns a Layer for cfg. opts are applied to every handler.
func NewLayer(cfg bucket.RateConfig, opts ...Option) *Layer {
	return &Layer{config: cfg, opts: opts}
}

// NewLayerWithParams validates the parameters and returns a Layer.
func NewLayerWithParams(capacity, refillAmount int, refillInterval time.Duration, opts ...Option) (*Layer, error) {
	cfg, err := bucket.NewRateConfig(capacity, refillAmount, refillInterval)
	if err != nil {
		return nil, err
	}
	return NewLayer(cfg, opts...), nil
}

// Config returns the bucket configuration used for new handlers.
func (l *Layer) Config() bucket.RateConfig {
	return l.config
}

// Apply wraps next with a fresh bucket built from the layer's configuration.
func Apply[Req, Resp any](l *Layer, next Handler[Req, Resp]) *RateLimitedHandler[Req, Resp] {
	o := buildOptions(l.opts)
	b := bucket.New(l.config, o.bucketOpts...)
	return Wrap(bucket.Limiter(b), next, l.opts...)
}
