package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	tgcontext "github.com/vnykmshr/tokengate/pkg/common/context"
	tgerrors "github.com/vnykmshr/tokengate/pkg/common/errors"
	"github.com/vnykmshr/tokengate/pkg/ratelimit/bucket"
)

// Mode selects how HTTPMiddleware treats requests that find no tokens.
type Mode int

const (
	// ModeReject answers 429 Too Many Requests immediately.
	ModeReject Mode = iota
	// ModeWait holds the request until a permit is granted or the client goes away.
	ModeWait
)

// HTTPConfig configures HTTPMiddleware.
type HTTPConfig struct {
	// Mode selects reject or wait behaviour. Defaults to ModeReject.
	Mode Mode

	// Cost returns the number of tokens a request costs. Defaults to 1.
	Cost func(*http.Request) int

	// RetryAfter is advertised in the Retry-After header of 429 responses.
	// Defaults to one second.
	RetryAfter time.Duration

	// Logger receives rejection records at debug level. Optional.
	Logger *slog.Logger
}

// HTTPMiddleware guards an http.Handler with limiter. Admitted requests
// consume their permit once the wrapped handler returns.
//
// Responses carry X-RateLimit-Limit and X-RateLimit-Remaining headers.
// Requests that can never fit the bucket get 413, rejected requests 429,
// and waiting requests whose client disconnects 503.
func HTTPMiddleware(limiter bucket.Limiter, cfg HTTPConfig) func(http.Handler) http.Handler {
	if cfg.Cost == nil {
		cfg.Cost = func(*http.Request) int { return 1 }
	}
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	retryAfter := strconv.Itoa(int(math.Ceil(cfg.RetryAfter.Seconds())))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cost := cfg.Cost(r)

			var (
				permit *bucket.Permit
				err    error
			)
			if cfg.Mode == ModeWait {
				permit, err = limiter.Acquire(r.Context(), cost)
			} else {
				permit, err = limiter.TryAcquire(cost)
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Capacity()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limiter.Available()))

			if err != nil {
				cfg.Logger.DebugContext(r.Context(), "http request rejected by limiter",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("cost", cost),
					slog.Any("error", err))

				switch {
				case isCancellation(err) && tgcontext.IsTimedOut(r.Context()):
					writeJSONError(w, http.StatusServiceUnavailable, "wait_timeout", "timed out waiting for capacity")
				case isCancellation(err):
					writeJSONError(w, http.StatusServiceUnavailable, "request_canceled", "request canceled while waiting for capacity")
				case tgerrors.IsRetryable(err):
					w.Header().Set("Retry-After", retryAfter)
					writeJSONError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
				default:
					// Over capacity or a non-positive cost: waiting cannot help.
					writeJSONError(w, http.StatusRequestEntityTooLarge, "request_too_large", err.Error())
				}
				return
			}
			defer permit.Consume()

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
