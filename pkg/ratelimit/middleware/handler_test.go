package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/tokengate/internal/testutil"
	tgerrors "github.com/vnykmshr/tokengate/pkg/common/errors"
	"github.com/vnykmshr/tokengate/pkg/metrics"
	"github.com/vnykmshr/tokengate/pkg/ratelimit/bucket"
)

var errDownstream = errors.New("downstream unavailable")

type countingHandler struct {
	calls int
	err   error
	ready bool
}

func (h *countingHandler) Handle(_ context.Context, req string) (string, error) {
	h.calls++
	if h.err != nil {
		return "", h.err
	}
	return "echo:" + req, nil
}

func (h *countingHandler) Ready() bool { return h.ready }

func newBucket(t *testing.T, capacity int, opts ...bucket.Option) (*bucket.TokenBucket, *testutil.MockClock) {
	t.Helper()
	clock := testutil.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	b, err := bucket.NewSafe(capacity, 1, 100*time.Millisecond, append([]bucket.Option{bucket.WithClock(clock)}, opts...)...)
	require.NoError(t, err)
	return b, clock
}

func TestHandle_Success(t *testing.T) {
	b, _ := newBucket(t, 5)
	next := &countingHandler{}
	h := Wrap[string, string](b, next)

	resp, err := h.Handle(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "echo:ping", resp)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 4, b.Available())
}

func TestHandle_InnerErrorStillSpendsToken(t *testing.T) {
	b, _ := newBucket(t, 5)
	next := &countingHandler{err: errDownstream}
	h := Wrap[string, string](b, next)

	for i := 0; i < 3; i++ {
		resp, err := h.Handle(context.Background(), "x")
		require.Error(t, err)
		assert.Empty(t, resp)

		assert.True(t, IsInnerError(err))
		assert.False(t, IsLimiterError(err))
		assert.ErrorIs(t, err, errDownstream)
		assert.NotErrorIs(t, err, tgerrors.ErrRateLimited)

		var rle *RateLimitError
		require.ErrorAs(t, err, &rle)
		assert.Equal(t, SourceInner, rle.Source)
	}

	assert.Equal(t, 3, next.calls)
	assert.Equal(t, 2, b.Available())
}

func TestHandle_LimiterError(t *testing.T) {
	b, _ := newBucket(t, 5)
	next := &countingHandler{}
	h := WrapWithCost[string, string](b, next, func(req string) int { return len(req) })

	_, err := h.Handle(context.Background(), "too-long")
	require.Error(t, err)

	assert.True(t, IsLimiterError(err))
	assert.ErrorIs(t, err, tgerrors.ErrRateLimited)
	assert.ErrorIs(t, err, bucket.ErrRequestExceedsCapacity)
	assert.Equal(t, "limiter: bucket: requested 8 tokens exceeds capacity 5", err.Error())
	assert.Zero(t, next.calls)
	assert.Equal(t, 5, b.Available())
}

func TestHandle_CostFunction(t *testing.T) {
	b, _ := newBucket(t, 10)
	h := WrapWithCost[string, string](b, &countingHandler{}, func(req string) int { return len(req) })

	_, err := h.Handle(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 7, b.Available())
}

func TestHandle_CancelWhileWaiting(t *testing.T) {
	b, _ := newBucket(t, 5, bucket.WithInitialTokens(0))
	next := &countingHandler{}
	h := Wrap[string, string](b, next)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := h.Handle(ctx, "late")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, IsLimiterError(err))
	assert.False(t, IsInnerError(err))
	assert.Zero(t, next.calls)
	assert.Zero(t, b.Waiting())
}

func TestHandle_WaitsForRefill(t *testing.T) {
	b, clock := newBucket(t, 2, bucket.WithInitialTokens(0))
	h := Wrap[string, string](b, &countingHandler{})

	type result struct {
		resp string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := h.Handle(context.Background(), "queued")
		done <- result{resp, err}
	}()

	testutil.Eventually(t, func() bool { return b.Waiting() == 1 }, testutil.TestTimeout, time.Millisecond)
	testutil.AssertBlocked(t, done, 10*time.Millisecond)

	clock.Advance(100 * time.Millisecond)
	r := testutil.Receive(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, "echo:queued", r.resp)
	assert.Zero(t, b.Available())
}

func TestHandle_PanicSpendsToken(t *testing.T) {
	b, _ := newBucket(t, 3)
	h := Wrap[string, string](b, HandlerFunc[string, string](func(context.Context, string) (string, error) {
		panic("handler bug")
	}))

	assert.Panics(t, func() { _, _ = h.Handle(context.Background(), "boom") })
	assert.Equal(t, 2, b.Available())
}

func TestReady(t *testing.T) {
	b, _ := newBucket(t, 1)
	next := &countingHandler{ready: true}
	h := Wrap[string, string](b, next)

	assert.True(t, h.Ready())

	next.ready = false
	assert.False(t, h.Ready())

	next.ready = true
	_, err := h.Handle(context.Background(), "drain")
	require.NoError(t, err)
	assert.False(t, h.Ready())
}

func TestReady_FalseWhileWaitersQueued(t *testing.T) {
	b, clock := newBucket(t, 5, bucket.WithInitialTokens(3))
	h := Wrap[string, string](b, &countingHandler{ready: true})
	require.True(t, h.Ready())

	waiter := make(chan error, 1)
	go func() {
		p, err := b.Acquire(context.Background(), 5)
		if err == nil {
			p.Consume()
		}
		waiter <- err
	}()
	testutil.Eventually(t, func() bool { return b.Waiting() == 1 }, testutil.TestTimeout, time.Millisecond)

	// Tokens remain, but a call would queue behind the waiter.
	assert.Equal(t, 3, b.Available())
	assert.False(t, h.Ready())
	assert.False(t, h.ReadyFor("x"))

	clock.Advance(200 * time.Millisecond)
	require.NoError(t, testutil.Receive(t, waiter))
	assert.Zero(t, b.Waiting())
}

func TestReadyFor_UsesRequestCost(t *testing.T) {
	b, _ := newBucket(t, 10, bucket.WithInitialTokens(1))
	h := WrapWithCost[string, string](b, &countingHandler{ready: true}, func(req string) int { return len(req) })

	assert.True(t, h.ReadyFor("a"))
	assert.False(t, h.ReadyFor("abcd"))
	assert.True(t, h.Ready())
}

func TestReady_WithoutReadier(t *testing.T) {
	b, _ := newBucket(t, 1)
	h := Wrap[string, string](b, HandlerFunc[string, string](func(_ context.Context, req string) (string, error) {
		return req, nil
	}))

	assert.True(t, h.Ready())
	assert.Same(t, bucket.Limiter(b), h.Limiter())
}

func TestHandle_MetricsAndLogging(t *testing.T) {
	b, _ := newBucket(t, 2)
	registry := metrics.NewRegistry(prometheus.NewRegistry())

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	next := &countingHandler{}
	h := WrapWithCost[string, string](b, next, func(req string) int { return len(req) },
		WithName("orders"), WithLogger(logger), WithMetrics(registry))

	_, err := h.Handle(context.Background(), "a")
	require.NoError(t, err)

	next.err = errDownstream
	_, err = h.Handle(context.Background(), "b")
	require.Error(t, err)

	_, err = h.Handle(context.Background(), "abc")
	require.Error(t, err)

	calls := registry.HandlerCalls
	assert.Equal(t, 1.0, promtest.ToFloat64(calls.WithLabelValues("orders", metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, promtest.ToFloat64(calls.WithLabelValues("orders", metrics.OutcomeInner)))
	assert.Equal(t, 1.0, promtest.ToFloat64(calls.WithLabelValues("orders", metrics.OutcomeLimited)))
	assert.Equal(t, 1, promtest.CollectAndCount(registry.HandlerDuration))

	logs := buf.String()
	assert.Contains(t, logs, `"msg":"downstream handler failed"`)
	assert.Contains(t, logs, `"msg":"request rejected by limiter"`)
	assert.Equal(t, 2, strings.Count(logs, `"handler":"orders"`))
}

func TestWrap_PanicsOnNil(t *testing.T) {
	b, _ := newBucket(t, 1)

	panicValue := func(f func()) (v any) {
		defer func() { v = recover() }()
		f()
		return nil
	}

	v := panicValue(func() { Wrap[string, string](nil, &countingHandler{}) })
	err, ok := v.(error)
	require.True(t, ok, "panic value %v is not an error", v)
	assert.True(t, tgerrors.IsValidationError(err))
	assert.Contains(t, err.Error(), "limiter")

	v = panicValue(func() { Wrap[string, string](b, nil) })
	err, ok = v.(error)
	require.True(t, ok, "panic value %v is not an error", v)
	assert.ErrorIs(t, err, tgerrors.ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "handler")
}

func TestErrorSource_String(t *testing.T) {
	assert.Equal(t, "limiter", SourceLimiter.String())
	assert.Equal(t, "inner", SourceInner.String())
	assert.Equal(t, "unknown", ErrorSource(7).String())
}
