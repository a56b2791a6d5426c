package risk

import "sync/atomic"

// BreakerReason records why the circuit breaker tripped.
type BreakerReason uint32

const (
	ReasonNone BreakerReason = iota
	ReasonHighErrorRate
	ReasonLatencySpike
	ReasonDailyLossBreach
	ReasonManualHalt
)

func (r BreakerReason) String() string {
	switch r {
	case ReasonHighErrorRate:
		return "high-error-rate"
	case ReasonLatencySpike:
		return "latency-spike"
	case ReasonDailyLossBreach:
		return "daily-loss-breach"
	case ReasonManualHalt:
		return "manual-halt"
	default:
		return "none"
	}
}

// Breaker is an atomic tripped flag plus reason code. Tripping is idempotent
// (first trip wins); reset is manual and always succeeds.
type Breaker struct {
	tripped uint32
	reason  uint32
}

// Trip flips the breaker to tripped with the given reason, unless it is
// already tripped (the first trip's reason sticks).
func (b *Breaker) Trip(reason BreakerReason) {
	if atomic.CompareAndSwapUint32(&b.tripped, 0, 1) {
		atomic.StoreUint32(&b.reason, uint32(reason))
	}
}

// Reset manually clears the breaker.
func (b *Breaker) Reset() {
	atomic.StoreUint32(&b.reason, uint32(ReasonNone))
	atomic.StoreUint32(&b.tripped, 0)
}

// Tripped reports the current state.
func (b *Breaker) Tripped() bool {
	return atomic.LoadUint32(&b.tripped) != 0
}

// Reason returns the reason for the current (or most recent) trip.
func (b *Breaker) Reason() BreakerReason {
	return BreakerReason(atomic.LoadUint32(&b.reason))
}
