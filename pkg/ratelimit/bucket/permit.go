package bucket

import (
	"runtime"
	"sync/atomic"
)

// PermitState is the lifecycle state of a Permit.
type PermitState int32

const (
	// PermitActive means the tokens are reserved and still owned by the caller.
	PermitActive PermitState = iota
	// PermitConsumed means the tokens were spent and will not be returned.
	PermitConsumed
	// PermitReleased means the tokens were returned to the bucket.
	PermitReleased
)

func (s PermitState) String() string {
	switch s {
	case PermitActive:
		return "active"
	case PermitConsumed:
		return "consumed"
	case PermitReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Permit is a reservation of tokens taken from a TokenBucket. It must end
// in exactly one terminal state: Consume spends the tokens, Release returns
// them. Calls after the first terminal call are ignored.
//
// Callers should defer Release right after acquiring and call Consume once
// the tokens have been legitimately spent. A Permit that becomes unreachable
// while still active is released when the garbage collector finalizes it,
// but that happens at an unspecified time; TokenBucket.Do is the reliable
// scoped form.
type Permit struct {
	bucket *TokenBucket
	amount int
	state  atomic.Int32
}

func newPermit(b *TokenBucket, amount int) *Permit {
	p := &Permit{bucket: b, amount: amount}
	runtime.SetFinalizer(p, (*Permit).Release)
	return p
}

// Amount returns the number of tokens held by the permit.
func (p *Permit) Amount() int {
	return p.amount
}

// State returns the current lifecycle state.
func (p *Permit) State() PermitState {
	return PermitState(p.state.Load())
}

// Consume marks the tokens as spent.
func (p *Permit) Consume() {
	if p.state.CompareAndSwap(int32(PermitActive), int32(PermitConsumed)) {
		runtime.SetFinalizer(p, nil)
	}
}

// Release returns the tokens to the bucket and wakes waiters that now fit.
func (p *Permit) Release() {
	if p.state.CompareAndSwap(int32(PermitActive), int32(PermitReleased)) {
		runtime.SetFinalizer(p, nil)
		p.bucket.release(p.amount)
	}
}
