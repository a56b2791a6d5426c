// Package queue implements the bounded lock-free single-producer/
// single-consumer transport used between every pair of adjacent pipeline
// stages. No library in the dependency surface offers bit-exact control over
// cache-line placement and memory ordering for this shape, so the ring is
// hand-rolled on top of sync/atomic rather than reaching for a third-party
// lock-free queue or event bus.
package queue

import (
	"sync/atomic"
	"unsafe"
)

// cacheLineSize is the assumed coherence granule. Padding producer and
// consumer indices out to this size keeps them from sharing a line, which
// would otherwise bounce the line between cores on every push/pop.
const cacheLineSize = 64

// padding holds enough bytes to round a single uint64 field up to one cache
// line, accounting for the field itself.
type padding [cacheLineSize - unsafe.Sizeof(uint64(0))]byte

// SPSC is a bounded ring buffer for exactly one producer goroutine and
// exactly one consumer goroutine. Capacity must be a power of two so that
// slot = index & mask is a single AND. The zero value is not usable; build
// with New.
type SPSC[T any] struct {
	// producerIdx is written only by the producer, read by both sides.
	producerIdx uint64
	_           padding

	// consumerIdx is written only by the consumer, read by both sides.
	consumerIdx uint64
	_           padding

	// cachedConsumerIdx is the producer's local, possibly-stale view of
	// consumerIdx. Re-read from the atomic only when this cached view
	// says the ring looks full, halving cross-core traffic on the
	// common case where there is headroom.
	cachedConsumerIdx uint64
	_                 padding

	// cachedProducerIdx is the consumer's local, possibly-stale view of
	// producerIdx, re-read only when the cached view says the ring
	// looks empty.
	cachedProducerIdx uint64
	_                 padding

	mask uint64
	buf  []T
}

// New builds an SPSC ring of the given capacity, which must be a power of
// two no smaller than 16.
func New[T any](capacity int) *SPSC[T] {
	if capacity < 16 || capacity&(capacity-1) != 0 {
		panic("queue: capacity must be a power of two >= 16")
	}
	return &SPSC[T]{
		mask: uint64(capacity - 1),
		buf:  make([]T, capacity),
	}
}

// Capacity returns the fixed ring capacity.
func (q *SPSC[T]) Capacity() int {
	return len(q.buf)
}

// TryPush publishes one item. Returns false without blocking if the ring is
// full. Must only be called from the producer goroutine.
func (q *SPSC[T]) TryPush(item T) bool {
	producer := q.producerIdx

	if producer-q.cachedConsumerIdx >= uint64(len(q.buf)) {
		q.cachedConsumerIdx = atomic.LoadUint64(&q.consumerIdx)
		if producer-q.cachedConsumerIdx >= uint64(len(q.buf)) {
			return false
		}
	}

	q.buf[producer&q.mask] = item
	atomic.StoreUint64(&q.producerIdx, producer+1)
	return true
}

// TryPop retrieves one item into out. Returns false without blocking if the
// ring is empty. Must only be called from the consumer goroutine.
func (q *SPSC[T]) TryPop(out *T) bool {
	consumer := q.consumerIdx

	if consumer == q.cachedProducerIdx {
		q.cachedProducerIdx = atomic.LoadUint64(&q.producerIdx)
		if consumer == q.cachedProducerIdx {
			return false
		}
	}

	*out = q.buf[consumer&q.mask]
	atomic.StoreUint64(&q.consumerIdx, consumer+1)
	return true
}

// TryPopBatch retrieves up to len(dst) items in push order, returning the
// number actually popped (0 if empty). Must only be called from the
// consumer goroutine.
func (q *SPSC[T]) TryPopBatch(dst []T) int {
	consumer := q.consumerIdx
	producer := q.cachedProducerIdx

	if consumer == producer {
		producer = atomic.LoadUint64(&q.producerIdx)
		q.cachedProducerIdx = producer
		if consumer == producer {
			return 0
		}
	}

	avail := producer - consumer
	n := uint64(len(dst))
	if n > avail {
		n = avail
	}

	for i := uint64(0); i < n; i++ {
		dst[i] = q.buf[(consumer+i)&q.mask]
	}

	atomic.StoreUint64(&q.consumerIdx, consumer+n)
	return int(n)
}

// SizeApprox returns an observational approximation of the current depth.
// Not a synchronization primitive: consistent with some recent point in the
// happens-before relation, not necessarily the instant of the call.
func (q *SPSC[T]) SizeApprox() int {
	p := atomic.LoadUint64(&q.producerIdx)
	c := atomic.LoadUint64(&q.consumerIdx)
	return int(p - c)
}

// EmptyApprox reports whether the ring looked empty at some recent instant.
func (q *SPSC[T]) EmptyApprox() bool {
	return q.SizeApprox() == 0
}

// FullApprox reports whether the ring looked full at some recent instant.
func (q *SPSC[T]) FullApprox() bool {
	return q.SizeApprox() >= len(q.buf)
}
