package kcount

import (
	"errors"
	"sync"
	"time"

	"code.hybscloud.com/spin"

	"github.com/mars-research/kcount/hash"
	"github.com/mars-research/kcount/harness"
	"github.com/mars-research/kcount/hashpartition"
	"github.com/mars-research/kcount/ring"
	"github.com/mars-research/kcount/route"
	"github.com/mars-research/kcount/topology"
)

// RunResult is everything Run produces: the populated partitions (one
// per consumer) and the per-shard throughput statistics.
type RunResult struct {
	Partitions    []*hashpartition.HashPartition
	ProducerStats []Stats
	ConsumerStats []Stats
}

// Run wires topology, the queue matrix, key routing, and the hash
// partitions together: it computes CPU placement, allocates the matrix
// and partitions, spawns pinned producer/consumer workers behind a
// three-phase barrier, drains until every producer has signaled done on
// every column, and returns the aggregated result.
//
// keySourceFor(prodID) must return a fresh KeySource for that producer;
// Run calls it once per producer, from inside that producer's worker
// once the start barrier has released.
func Run(cfg Config, keySourceFor func(prodID int) KeySource) (*RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nodes, err := topology.Discover()
	if err != nil {
		return nil, err
	}
	prodCPUs, consCPUs, err := topology.Plan(nodes, cfg.NProd, cfg.NCons, cfg.NumaPolicy)
	if err != nil {
		return nil, err
	}

	matrix := ring.NewMatrix(cfg.NProd, cfg.NCons, ring.Config{
		Variant:      cfg.QueueVariant,
		QueueSize:    cfg.QueueSize,
		SectionSlots: cfg.SectionSlots,
	})

	perConsCap := cfg.HTSize / uint64(cfg.NCons)
	if perConsCap == 0 {
		perConsCap = 1
	}
	partitions := make([]*hashpartition.HashPartition, cfg.NCons)
	for c := range partitions {
		partitions[c] = hashpartition.New(hashpartition.Config{
			Capacity:          perConsCap,
			PrefetchQueueSize: cfg.PrefetchQueueSize,
			HashKind:          cfg.HashKind,
			Branchless:        cfg.Branchless,
		})
	}

	hasher := hash.New(cfg.HashKind)
	barrier := harness.NewBarrier(cfg.NProd, cfg.NCons)
	logger := harness.NewLogger()
	harness.LogInfo(logger, "msg", "starting run", "n_prod", cfg.NProd, "n_cons", cfg.NCons)

	prodStats := make([]Stats, cfg.NProd)
	consStats := make([]Stats, cfg.NCons)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		harness.Run(prodCPUs, func(workerID, cpu int) {
			node := topology.NodeForCPU(nodes, cpu)
			bindProducerRow(matrix, workerID, cfg.NCons, node)
			barrier.ProducerReady()
			barrier.Wait()
			runProducer(cfg, matrix, hasher, workerID, node, keySourceFor(workerID), &prodStats[workerID])
		})
	}()
	go func() {
		defer wg.Done()
		harness.Run(consCPUs, func(workerID, cpu int) {
			node := topology.NodeForCPU(nodes, cpu)
			bindConsumerColumn(matrix, workerID, node, partitions[workerID])
			barrier.ConsumerReady()
			barrier.Wait()
			runConsumer(cfg, matrix, partitions[workerID], workerID, node, &consStats[workerID])
		})
	}()
	wg.Wait()

	harness.LogInfo(logger, "msg", "run complete")

	if cfg.HTFile != "" {
		if err := dumpPartitions(cfg.HTFile, partitions); err != nil {
			harness.LogError(logger, "msg", "failed to dump partitions", "err", err)
		}
	}

	return &RunResult{Partitions: partitions, ProducerStats: prodStats, ConsumerStats: consStats}, nil
}

// bindProducerRow binds every queue buffer producer prodID writes into
// to node. Called once per producer worker right after topology.Pin,
// before that worker touches any of the memory it's about to bind —
// this is the "bind the page containing its metadata" half of thread
// startup, paired with the CPU pin harness.Run already performs.
func bindProducerRow(matrix *ring.Matrix, prodID, nCons, node int) {
	for c := 0; c < nCons; c++ {
		_ = topology.BindLocal(matrix.Backing(prodID, c), node)
	}
}

// bindConsumerColumn binds every queue buffer consumer consID reads
// from, plus its own hash-partition entry table, to node. Same
// thread-startup timing as bindProducerRow.
func bindConsumerColumn(matrix *ring.Matrix, consID, node int, partition *hashpartition.HashPartition) {
	for p := 0; p < matrix.NProd(); p++ {
		_ = topology.BindLocal(matrix.Backing(p, consID), node)
	}
	_ = topology.BindLocal(partition.Backing(), node)
}

// runProducer routes each key to its owning consumer column, enqueues
// it, and signals done on every column once the key stream (repeated
// InsertFactor times) is exhausted. It fetches its row's concrete queue
// type from matrix once, up front, so the enqueue loop never dispatches
// through the Queue interface.
func runProducer(cfg Config, matrix *ring.Matrix, hasher hash.Hasher, prodID, node int, ks KeySource, stats *Stats) {
	var keys []uint64
	for {
		k, ok := ks.Next()
		if !ok {
			break
		}
		keys = append(keys, k)
	}

	repeats := cfg.InsertFactor
	if repeats == 0 {
		repeats = 1
	}

	if matrix.Variant() == ring.VariantSectionQueue {
		cols := make([]*ring.SectionQueue, cfg.NCons)
		for c := range cols {
			cols[c] = matrix.SectionAt(prodID, c)
		}
		runProducerSection(cfg, cols, hasher, repeats, keys, stats)
		return
	}
	cols := make([]*ring.BatchedRing, cfg.NCons)
	for c := range cols {
		cols[c] = matrix.BatchedAt(prodID, c)
	}
	runProducerBatched(cfg, cols, hasher, repeats, keys, stats)
}

func runProducerBatched(cfg Config, cols []*ring.BatchedRing, hasher hash.Hasher, repeats uint32, keys []uint64, stats *Stats) {
	start := time.Now()
	for r := uint32(0); r < repeats; r++ {
		for _, key := range keys {
			q := cols[route.HashToConsumer(hasher.Hash64(key), cfg.NCons)]
			var sw spin.Wait
			for q.Enqueue(key) != nil {
				sw.Once()
			}
			stats.NumEnqueues++
		}
	}
	stats.EnqueueCycles = uint64(time.Since(start))

	for _, q := range cols {
		_ = q.PushDone()
	}
}

func runProducerSection(cfg Config, cols []*ring.SectionQueue, hasher hash.Hasher, repeats uint32, keys []uint64, stats *Stats) {
	start := time.Now()
	for r := uint32(0); r < repeats; r++ {
		for _, key := range keys {
			q := cols[route.HashToConsumer(hasher.Hash64(key), cfg.NCons)]
			var sw spin.Wait
			for q.Enqueue(key) != nil {
				sw.Once()
			}
			stats.NumEnqueues++
		}
	}
	stats.EnqueueCycles = uint64(time.Since(start))

	for _, q := range cols {
		_ = q.PushDone()
	}
}

// runConsumer round-robins across the column's producer rows, skipping
// a queue that returned Retry for one round-trip, until every row has
// signaled done. Like runProducer, it fetches its column's concrete
// queue type from matrix once, up front, so the dequeue loop never
// dispatches through the Queue interface.
func runConsumer(cfg Config, matrix *ring.Matrix, hp *hashpartition.HashPartition, consID, node int, stats *Stats) {
	if matrix.Variant() == ring.VariantSectionQueue {
		rows := make([]*ring.SectionQueue, matrix.NProd())
		for p := range rows {
			rows[p] = matrix.SectionAt(p, consID)
		}
		runConsumerSection(cfg, rows, hp, stats)
		return
	}
	rows := make([]*ring.BatchedRing, matrix.NProd())
	for p := range rows {
		rows[p] = matrix.BatchedAt(p, consID)
	}
	runConsumerBatched(cfg, rows, hp, stats)
}

func runConsumerBatched(cfg Config, rows []*ring.BatchedRing, hp *hashpartition.HashPartition, stats *Stats) {
	start := time.Now()
	for !allPopDoneBatched(rows) {
		for _, q := range rows {
			if q.PopDone() {
				continue
			}
			v, err := q.Dequeue()
			if err != nil {
				if errors.Is(err, ring.ErrDone) {
					continue
				}
				// ring.ErrRetry: this queue had nothing this round;
				// move on to the next producer rather than spinning on
				// one column.
				continue
			}
			insert(cfg, hp, v, stats)
		}
	}
	if !cfg.NoPrefetch {
		hp.Flush()
	}
	stats.DequeueCycles = uint64(time.Since(start))
}

func runConsumerSection(cfg Config, rows []*ring.SectionQueue, hp *hashpartition.HashPartition, stats *Stats) {
	start := time.Now()
	for !allPopDoneSection(rows) {
		for _, q := range rows {
			if q.PopDone() {
				continue
			}
			v, err := q.Dequeue()
			if err != nil {
				if errors.Is(err, ring.ErrDone) {
					continue
				}
				continue
			}
			insert(cfg, hp, v, stats)
		}
	}
	if !cfg.NoPrefetch {
		hp.Flush()
	}
	stats.DequeueCycles = uint64(time.Since(start))
}

func insert(cfg Config, hp *hashpartition.HashPartition, v uint64, stats *Stats) {
	if cfg.NoPrefetch {
		_ = hp.Insert(v)
	} else {
		hp.InsertStream(v)
	}
	stats.NumInserts++
}

func allPopDoneBatched(rows []*ring.BatchedRing) bool {
	for _, q := range rows {
		if !q.PopDone() {
			return false
		}
	}
	return true
}

func allPopDoneSection(rows []*ring.SectionQueue) bool {
	for _, q := range rows {
		if !q.PopDone() {
			return false
		}
	}
	return true
}
