package ring

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// BatchedRing is a "B-Queue"-style SPSC ring: the producer reserves a
// batch of slots at a time before writing, and the consumer reserves a
// batch at a time before reading, backtracking to smaller reservations
// when the counterpart hasn't kept up. It amortizes the full/empty
// check across a whole batch instead of paying it on every single
// Enqueue/Dequeue.
//
// Producer-owned fields (head, batchHead) and consumer-owned fields
// (tail, batchTail, batchHistory, backtrackFlag) are separated by
// cacheline padding to avoid false sharing between the two sides.
type BatchedRing struct {
	_         pad
	head      uint32 // producer-owned: next write position
	batchHead uint32 // producer-owned: end of currently reserved run
	_         pad
	tail          uint32 // consumer-owned: next read position
	batchTail     uint32 // consumer-owned: end of currently reserved run
	batchHistory  uint64 // consumer-owned: adaptive batch size memory
	backtrackFlag bool   // consumer-owned: set while backtracking
	done          bool   // consumer-owned: latched once ErrDone is popped
	_             pad
	data []atomix.Uint64 // shared: producer stores, consumer loads/clears
	mask uint32
	size uint32
}

// NewBatchedRing creates a batched ring of the given size, rounded up to
// the next power of two so index wraparound reduces to a mask.
func NewBatchedRing(size int) *BatchedRing {
	n := uint32(nextPow2(size))
	return &BatchedRing{
		data: make([]atomix.Uint64, n),
		mask: n - 1,
		size: n,
	}
}

// Cap returns the ring's slot capacity.
func (q *BatchedRing) Cap() int { return int(q.size) }

// batchLimit is the largest reservation either side may probe for in one
// go: the default batch size, clamped to the ring's actual capacity.
// Without this clamp a ring smaller than the default batch size (small
// test rings and terminator-race cases both use rings that small) would
// let a reservation span past slots the other side hasn't touched yet,
// violating the "producer never writes where the consumer hasn't read"
// invariant once the index wraps.
func (q *BatchedRing) batchLimit() uint32 {
	if q.size < DefaultBatchSize {
		return q.size
	}
	return DefaultBatchSize
}

// Enqueue writes value for the consumer, reserving a fresh batch of
// slots via backtracking search whenever the current reservation is
// exhausted.
func (q *BatchedRing) Enqueue(value Slot) error {
	if value == emptySlot {
		if debugAssertions {
			panic("ring: enqueue of empty-slot sentinel (0)")
		}
		return ErrRetry
	}

	if q.head == q.batchHead {
		distance := q.batchLimit()
		reserved := false
		for distance > 0 {
			probeIdx := (q.head + distance - 1) & q.mask
			if q.data[probeIdx].LoadAcquire() == emptySlot {
				q.batchHead = q.head + distance
				reserved = true
				break
			}
			distance /= 2
		}
		if !reserved {
			return ErrRetry
		}
	}

	q.data[q.head&q.mask].StoreRelease(value)
	q.head++
	return nil
}

// PushDone enqueues the magic terminator, retrying under backpressure
// until it lands — the producer has no more values to send after this.
func (q *BatchedRing) PushDone() error {
	sw := spin.Wait{}
	for {
		if err := q.Enqueue(magicDone); err == nil {
			return nil
		}
		sw.Once()
	}
}

// Dequeue reads the next value the producer wrote, reserving a fresh
// batch via backtracking search when the current reservation is
// exhausted, and spinning under a congestion penalty when no batch can
// be reserved at all.
func (q *BatchedRing) Dequeue() (Slot, error) {
	if q.tail == q.batchTail {
		limit := q.batchLimit()
		distance := limit
		reserved := false
		for distance > 0 {
			probeIdx := (q.tail + distance - 1) & q.mask
			if q.data[probeIdx].LoadAcquire() != emptySlot {
				q.batchTail = q.tail + distance
				q.batchHistory = uint64(distance)
				reserved = true
				q.backtrackFlag = distance < limit
				break
			}
			distance /= 2
		}
		if !reserved {
			PenaltyWait(CongestionPenaltyCycles)
			return 0, ErrRetry
		}
	}

	idx := q.tail & q.mask
	value := q.data[idx].LoadAcquire()
	q.data[idx].StoreRelease(emptySlot)
	q.tail++

	if value == magicDone {
		q.done = true
		return 0, ErrDone
	}
	return value, nil
}

// PopDone reports whether this consumer has ever popped the magic
// terminator from this ring.
func (q *BatchedRing) PopDone() bool { return q.done }
