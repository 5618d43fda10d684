package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/tokengate/pkg/metrics"
)

// mustNewSafe creates a new bucket or panics on error (for benchmarks only)
func mustNewSafe(capacity, refillAmount int, refillInterval time.Duration) *TokenBucket {
	b, err := NewSafe(capacity, refillAmount, refillInterval)
	if err != nil {
		panic(err)
	}
	return b
}

// BenchmarkTryAcquireRelease measures the uncontended fast path.
func BenchmarkTryAcquireRelease(b *testing.B) {
	limiter := mustNewSafe(1000, 1000, time.Millisecond)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if p, err := limiter.TryAcquire(1); err == nil {
				p.Release()
			}
		}
	})
}

// BenchmarkTryAcquireConsume measures TryAcquire against a bucket that is mostly empty.
func BenchmarkTryAcquireConsume(b *testing.B) {
	limiter := mustNewSafe(1000, 1000, time.Millisecond)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if p, err := limiter.TryAcquire(1); err == nil {
				p.Consume()
			}
		}
	})
}

// BenchmarkAcquireRelease measures Acquire calls that succeed immediately.
func BenchmarkAcquireRelease(b *testing.B) {
	limiter := mustNewSafe(1000, 1000, time.Millisecond)
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			p, err := limiter.Acquire(ctx, 1)
			if err != nil {
				b.Error(err)
				return
			}
			p.Release()
		}
	})
}

// BenchmarkAcquireContended measures waiters being woken by released permits.
func BenchmarkAcquireContended(b *testing.B) {
	limiter := mustNewSafe(4, 1, time.Hour)
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			p, err := limiter.Acquire(ctx, 2)
			if err != nil {
				b.Error(err)
				return
			}
			p.Release()
		}
	})
}

// BenchmarkAvailable measures the performance of Available calls
func BenchmarkAvailable(b *testing.B) {
	limiter := mustNewSafe(1000, 10, time.Millisecond)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			limiter.Available()
		}
	})
}

// BenchmarkWithMetrics measures the overhead of the metrics wrapper.
func BenchmarkWithMetrics(b *testing.B) {
	registry := metrics.NewRegistry(prometheus.NewRegistry())
	limiter := NewWithRegistry(mustNewSafe(1000, 1000, time.Millisecond), "bench", registry)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if p, err := limiter.TryAcquire(1); err == nil {
				p.Release()
			}
		}
	})
}
