package middleware

import (
	"context"
	"errors"
	"fmt"

	tgerrors "github.com/vnykmshr/tokengate/pkg/common/errors"
)

// ErrorSource says which side of the decorator produced a RateLimitError.
type ErrorSource int

const (
	// SourceLimiter marks an admission-control rejection.
	SourceLimiter ErrorSource = iota
	// SourceInner marks an error returned by the wrapped handler.
	SourceInner
)

func (s ErrorSource) String() string {
	switch s {
	case SourceLimiter:
		return "limiter"
	case SourceInner:
		return "inner"
	default:
		return "unknown"
	}
}

// RateLimitError separates limiter rejections from downstream failures so
// callers can apply a different retry policy to each. Err is the original
// error and is reachable through errors.Is and errors.As.
type RateLimitError struct {
	Source ErrorSource
	Err    error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// Is makes every limiter-side RateLimitError match errors.ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return e.Source == SourceLimiter && target == tgerrors.ErrRateLimited
}

// IsLimiterError reports whether err was produced by the limiter.
func IsLimiterError(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle) && rle.Source == SourceLimiter
}

// IsInnerError reports whether err was produced by the wrapped handler.
func IsInnerError(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle) && rle.Source == SourceInner
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
