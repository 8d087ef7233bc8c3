package kcount

import (
	"fmt"

	"github.com/mars-research/kcount/hash"
	"github.com/mars-research/kcount/ring"
	"github.com/mars-research/kcount/topology"
)

// Config is the external configuration surface for a run — a plain
// validated struct, not a CLI/flag layer. Argument parsing is the
// caller's concern.
type Config struct {
	NProd int
	NCons int

	// HTSize is the total hash capacity; each consumer owns
	// HTSize/NCons, rounded up to a power of two.
	HTSize uint64
	// NumInserts records the number of keys per producer. Run does not
	// read it: each producer emits exactly the keys its KeySource yields.
	NumInserts uint64
	// InsertFactor repeats each producer's key stream this many times;
	// 0 is treated as 1.
	InsertFactor uint32

	QueueVariant      ring.Variant
	QueueSize         int
	SectionSlots      int // only meaningful for ring.VariantSectionQueue
	PrefetchQueueSize int

	NumaPolicy topology.Policy
	HashKind   hash.Kind

	// NoPrefetch bypasses the hash-table pipeline entirely, using the
	// single-key Insert/Find path.
	NoPrefetch bool

	// Branchless selects the branchless insert variant where the
	// platform supports it.
	Branchless bool

	// HTFile, if set, dumps each partition to "{HTFile}{shard_id}"
	// after the run, one key-count pair per line. Left empty, no file
	// is written.
	HTFile string
}

// Validate checks for configuration failures that must be fatal and
// reportable before any thread starts.
func (c Config) Validate() error {
	if c.NProd <= 0 {
		return fmt.Errorf("kcount: n_prod must be > 0, got %d", c.NProd)
	}
	if c.NCons <= 0 {
		return fmt.Errorf("kcount: n_cons must be > 0, got %d", c.NCons)
	}
	if c.HTSize == 0 {
		return fmt.Errorf("kcount: ht_size must be > 0")
	}
	if c.QueueSize <= 0 || c.QueueSize&(c.QueueSize-1) != 0 {
		return fmt.Errorf("kcount: queue_size must be a power of two, got %d", c.QueueSize)
	}
	if c.QueueVariant == ring.VariantSectionQueue && c.SectionSlots < 0 {
		return fmt.Errorf("kcount: section_slots must be >= 0")
	}
	if c.PrefetchQueueSize < 0 {
		return fmt.Errorf("kcount: prefetch_queue_size must be >= 0")
	}
	return nil
}
