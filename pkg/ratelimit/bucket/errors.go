package bucket

import (
	"errors"
	"fmt"

	tgerrors "github.com/vnykmshr/tokengate/pkg/common/errors"
)

// Configuration errors returned (wrapped) by NewRateConfig.
var (
	ErrZeroCapacity          = errors.New("bucket: capacity must be non-zero")
	ErrZeroRefillAmount      = errors.New("bucket: refill amount must be non-zero")
	ErrZeroRefillInterval    = errors.New("bucket: refill interval must be non-zero")
	ErrRefillExceedsCapacity = errors.New("bucket: refill amount exceeds capacity")
)

var (
	// ErrInvalidAmount is returned when a non-positive token amount is requested.
	ErrInvalidAmount = errors.New("bucket: requested amount must be positive")

	// ErrInsufficientTokens is the normal outcome of TryAcquire when the bucket
	// cannot serve the request right now. It matches errors.ErrRateLimited.
	ErrInsufficientTokens = fmt.Errorf("bucket: insufficient tokens: %w", tgerrors.ErrRateLimited)

	// ErrRequestExceedsCapacity matches every *RequestExceedsCapacityError,
	// as does errors.ErrCapacityExceeded.
	ErrRequestExceedsCapacity = errors.New("bucket: request exceeds capacity")
)

// RequestExceedsCapacityError reports a request that can never be satisfied
// because it asks for more tokens than the bucket can hold.
type RequestExceedsCapacityError struct {
	Requested int
	Capacity  int
}

func (e *RequestExceedsCapacityError) Error() string {
	return fmt.Sprintf("bucket: requested %d tokens exceeds capacity %d", e.Requested, e.Capacity)
}

// Is makes errors.Is hold for ErrRequestExceedsCapacity and
// errors.ErrCapacityExceeded.
func (e *RequestExceedsCapacityError) Is(target error) bool {
	return target == ErrRequestExceedsCapacity || target == tgerrors.ErrCapacityExceeded
}
