package bucket

import (
	"fmt"
	"time"

	tgerrors "github.com/vnykmshr/tokengate/pkg/common/errors"
	"github.com/vnykmshr/tokengate/pkg/common/validation"
)

// RateConfig is an immutable, validated description of a token bucket:
// how many tokens it holds and how quickly it refills.
//
// The zero value is not usable; construct with NewRateConfig.
type RateConfig struct {
	capacity       int
	refillAmount   int
	refillInterval time.Duration
}

// NewRateConfig validates and returns a RateConfig. Every refillInterval the
// bucket gains refillAmount tokens, up to capacity.
//
// The returned error is a *errors.ValidationError that also matches one of
// ErrZeroCapacity, ErrZeroRefillAmount, ErrZeroRefillInterval or
// ErrRefillExceedsCapacity. Non-positive values are treated as zero.
func NewRateConfig(capacity, refillAmount int, refillInterval time.Duration) (RateConfig, error) {
	if err := validation.ValidatePositive("bucket", "capacity", capacity); err != nil {
		return RateConfig{}, withCause(err, ErrZeroCapacity)
	}
	if err := validation.ValidatePositive("bucket", "refill_amount", refillAmount); err != nil {
		return RateConfig{}, withCause(err, ErrZeroRefillAmount)
	}
	if err := validation.ValidatePositiveDuration("bucket", "refill_interval", refillInterval); err != nil {
		return RateConfig{}, withCause(err, ErrZeroRefillInterval)
	}
	if err := validation.ValidateAtMost("bucket", "refill_amount", refillAmount, "capacity", capacity); err != nil {
		return RateConfig{}, withCause(err, ErrRefillExceedsCapacity)
	}

	return RateConfig{
		capacity:       capacity,
		refillAmount:   refillAmount,
		refillInterval: refillInterval,
	}, nil
}

// MustRateConfig is like NewRateConfig but panics on invalid input.
// It is intended for package-level variables and tests.
func MustRateConfig(capacity, refillAmount int, refillInterval time.Duration) RateConfig {
	cfg, err := NewRateConfig(capacity, refillAmount, refillInterval)
	if err != nil {
		panic(err)
	}
	return cfg
}

func withCause(err, cause error) error {
	if verr, ok := err.(*tgerrors.ValidationError); ok {
		return verr.WithCause(cause)
	}
	return fmt.Errorf("%w: %w", cause, err)
}

// Capacity returns the maximum number of tokens the bucket can hold.
func (c RateConfig) Capacity() int { return c.capacity }

// RefillAmount returns the number of tokens added per refill tick.
func (c RateConfig) RefillAmount() int { return c.refillAmount }

// RefillInterval returns the period between refill ticks.
func (c RateConfig) RefillInterval() time.Duration { return c.refillInterval }

// Rate returns the sustained refill rate in tokens per second.
func (c RateConfig) Rate() float64 {
	if c.refillInterval <= 0 {
		return 0
	}
	return float64(c.refillAmount) / c.refillInterval.Seconds()
}

func (c RateConfig) String() string {
	return fmt.Sprintf("capacity=%d refill=%d/%v", c.capacity, c.refillAmount, c.refillInterval)
}

func (c RateConfig) valid() bool {
	return c.capacity > 0 && c.refillAmount > 0 && c.refillInterval > 0 && c.refillAmount <= c.capacity
}
