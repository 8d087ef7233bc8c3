// Package hashpartition implements a per-consumer open-addressed,
// linear-probing hash table with a software-managed prefetch pipeline
// for batched insert and find.
package hashpartition

import (
	"errors"
	"unsafe"

	"code.hybscloud.com/atomix"

	"github.com/mars-research/kcount/hash"
)

// HashEntry is a cache-line-friendly {key, value} pair. Key == 0 means
// the slot is empty.
type HashEntry struct {
	Key   uint64
	Value uint64
}

// entriesPerCacheline is the number of 16-byte HashEntry pairs that fit
// in one 64-byte cacheline — the unit the branchless insert variant and
// the scalar path's "continue without re-prefetch" rule both reason
// about.
const entriesPerCacheline = 4

// ErrOverfull is returned by a non-pipelined Insert when the table has no
// empty slot within a full cycle of the table. Debug builds
// (kcount_debug) panic instead of returning this.
var ErrOverfull = errors.New("hashpartition: insert into table at capacity")

// HashPartition is one consumer's private shard of the overall hash
// table. It is not safe for concurrent insert/find calls from more than
// one goroutine — each partition is owned exclusively by one consumer.
type HashPartition struct {
	entries  []HashEntry
	mask     uint64
	capacity uint64
	hasher   hash.Hasher
	occupied atomix.Uint64

	insertQ *probeQueue
	findQ   *findQueue

	branchless bool
}

// Config configures a HashPartition's construction.
type Config struct {
	// Capacity is rounded up to the next power of two.
	Capacity uint64
	// PrefetchQueueSize is the insert/find pipeline depth, rounded up to
	// a power of two; 1 degenerates the pipeline to insert-one.
	PrefetchQueueSize int
	// HashKind selects the key hasher.
	HashKind hash.Kind
	// Branchless selects the branchless insert variant when the
	// platform supports it; New silently falls back to the scalar path
	// otherwise.
	Branchless bool
}

// New allocates a zero-initialized HashPartition per cfg.
func New(cfg Config) *HashPartition {
	cap := nextPow2(cfg.Capacity)
	qcap := uint64(1)
	if cfg.PrefetchQueueSize > 1 {
		qcap = nextPow2(uint64(cfg.PrefetchQueueSize))
	}
	return &HashPartition{
		entries:    make([]HashEntry, cap),
		mask:       cap - 1,
		capacity:   cap,
		hasher:     hash.New(cfg.HashKind),
		insertQ:    newProbeQueue(qcap),
		findQ:      newFindQueue(qcap),
		branchless: cfg.Branchless && branchlessSupported(),
	}
}

// Capacity returns the table's slot capacity (a power of two).
func (hp *HashPartition) Capacity() uint64 { return hp.capacity }

// EntryAt returns the key/value stored at slot i and whether that slot
// is occupied — used by callers that need to walk the whole table (e.g.
// dumping a partition to disk). i must be < Capacity().
func (hp *HashPartition) EntryAt(i uint64) (key, value uint64, ok bool) {
	e := hp.entries[i]
	return e.Key, e.Value, e.Key != 0
}

// Occupied returns the monotonically non-decreasing count of distinct
// keys ever installed.
func (hp *HashPartition) Occupied() uint64 { return hp.occupied.LoadAcquire() }

// Backing returns the raw bytes backing the partition's entry table, for
// binding that memory to a NUMA node at thread startup. Callers must
// only use it before the owning consumer starts inserting — there is no
// synchronization between this and concurrent Insert/Find calls.
func (hp *HashPartition) Backing() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&hp.entries[0])), len(hp.entries)*int(unsafe.Sizeof(hp.entries[0])))
}

func nextPow2(n uint64) uint64 {
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
