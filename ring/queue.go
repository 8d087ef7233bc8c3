// Package ring implements an SPSC queue family: a batched ring
// ("B-Queue"-style backtracking) and a section queue (per-cacheline
// control-word handoff), both exposed through the same non-blocking
// Queue capability set, plus the Matrix that wires N producers to N
// consumers.
package ring

import (
	"errors"

	"code.hybscloud.com/iox"
)

// Slot is the 64-bit payload word carried by a ring. 0 is the reserved
// empty-slot sentinel: producers must never enqueue 0.
type Slot = uint64

// emptySlot is the ring's empty-slot sentinel.
const emptySlot Slot = 0

// magicDone is the distinguished terminator value a producer writes via
// PushDone. Consumers recognize it instead of treating it as data.
const magicDone Slot = 0xD221AB45D221AB45

// DefaultQueueSize is the default ring length in slots.
const DefaultQueueSize = 2048

// DefaultBatchSize is the default reservation size used by both a
// producer's and a consumer's batched backtracking search.
const DefaultBatchSize = 512

// BatchIncrement is half the default batch size. BatchedRing's
// backtracking searches do not use it: both sides halve their probe
// distance on each miss, down to a single slot.
const BatchIncrement = DefaultBatchSize / 2

// CongestionPenaltyCycles is the spin duration (in the cycle unit used by
// [PenaltyWait]) a consumer burns after an exhausted backtrack search
// finds nothing.
const CongestionPenaltyCycles = 500

// ErrRetry is returned by Enqueue when the ring is full from the
// producer's vantage, and by Dequeue when the ring is empty from the
// consumer's vantage. It is backpressure, not failure.
var ErrRetry = iox.ErrWouldBlock

// IsRetry reports whether err is the non-blocking backpressure signal.
func IsRetry(err error) bool { return iox.IsWouldBlock(err) }

// ErrDone is returned by Dequeue exactly once it pops the magic
// terminator a producer wrote via PushDone. It is not backpressure: the
// paired producer has finished for good, and PopDone latches true from
// that point on.
var ErrDone = errors.New("ring: producer done")

// Producer is the producer-side half of a Queue. Exactly one goroutine
// may call Enqueue/PushDone on a given instance.
type Producer interface {
	// Enqueue writes value, which must be non-zero, into the ring.
	// Returns ErrRetry if the ring has no reservable capacity right now.
	Enqueue(value Slot) error
	// PushDone writes the magic terminator, signaling this producer will
	// not enqueue any further values on this queue.
	PushDone() error
}

// Consumer is the consumer-side half of a Queue. Exactly one goroutine
// may call Dequeue/PopDone on a given instance.
type Consumer interface {
	// Dequeue returns the next value from the ring. Returns ErrRetry if
	// no data is available right now.
	Dequeue() (value Slot, err error)
	// PopDone reports whether the last Dequeue returned the magic
	// terminator rather than real data — i.e. the paired producer is
	// done. Once true, it stays true.
	PopDone() bool
}

// Queue is the combined capability set both ring variants implement.
// The producer/consumer loops in the engine's run package avoid virtual
// dispatch on the hot path by fetching a concrete *BatchedRing or
// *SectionQueue from the Matrix once per worker and calling its methods
// directly; Queue exists so Matrix's variant-agnostic convenience
// methods and the package's own tests can treat both variants
// uniformly.
type Queue interface {
	Producer
	Consumer
}

// Variant selects which SPSC ring algorithm a Matrix is built from.
type Variant int

const (
	// VariantBatchedRing is the B-Queue-style backtracking ring.
	VariantBatchedRing Variant = iota
	// VariantSectionQueue is the per-section control-word ring.
	VariantSectionQueue
)

func nextPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cacheline padding, preventing false sharing between
// producer-owned and consumer-owned fields.
type pad [64]byte
