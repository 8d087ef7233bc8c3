package hashpartition

import "math/bits"

// Insert performs a single, non-pipelined insert: hash the key, walk
// linearly until an empty slot or a matching key is found.
func (hp *HashPartition) Insert(key uint64) error {
	idx := hp.hasher.Hash64(key) & hp.mask
	for i := uint64(0); i < hp.capacity; i++ {
		e := &hp.entries[idx]
		if e.Key == 0 {
			e.Key = key
			e.Value = 1
			hp.occupied.AddAcqRel(1)
			return nil
		}
		if e.Key == key {
			e.Value++
			return nil
		}
		idx = (idx + 1) & hp.mask
	}
	if debugAssertions {
		panic("hashpartition: insert into table at capacity")
	}
	return ErrOverfull
}

// Submit hashes key, computes its starting bucket, and records a probe
// in the insert pipeline. Callers using the batch API should prefer
// InsertBatch, which interleaves Submit and DrainOne to keep the
// pipeline within its capacity.
func (hp *HashPartition) Submit(key uint64) {
	idx := hp.hasher.Hash64(key) & hp.mask
	hp.insertQ.push(probe{key: key, idx: idx})
}

// DrainOne processes the oldest pending insert probe. It returns false
// if the pipeline was empty.
func (hp *HashPartition) DrainOne() bool {
	p, ok := hp.insertQ.pop()
	if !ok {
		return false
	}
	if hp.branchless {
		hp.drainBranchless(p)
	} else {
		hp.drainScalar(p)
	}
	return true
}

// drainScalar is the reference linear-probe drain step.
func (hp *HashPartition) drainScalar(p probe) {
	for {
		e := &hp.entries[p.idx]
		if e.Key == 0 {
			e.Key = p.key
			e.Value = 1
			hp.occupied.AddAcqRel(1)
			return
		}
		if e.Key == p.key {
			e.Value++
			return
		}
		newIdx := (p.idx + 1) & hp.mask
		p.idx = newIdx
		if newIdx%entriesPerCacheline != 0 {
			// Same cacheline as the slot just examined: keep going
			// without re-queuing.
			continue
		}
		// Crossed into a new cacheline: requeue for a later drain so
		// other pending probes get a turn first.
		hp.insertQ.push(p)
		return
	}
}

// drainBranchless is a branchless insert variant: it loads the 4-entry
// cacheline containing p.idx, compares the query key against the keys
// from p.idx to the end of that cacheline, and either increments a match
// or installs into the first empty slot found via a bitscan — no compare fails to a
// data-dependent branch the way drainScalar's loop does per slot. If the
// cacheline holds neither a match nor an empty slot, the probe advances
// to the next cacheline and requeues, exactly like the scalar path.
//
// This must produce identical final table contents to drainScalar for
// the same input sequence — both paths resolve the first structural
// match (empty-or-equal) in probe order.
func (hp *HashPartition) drainBranchless(p probe) {
	base := p.idx &^ (entriesPerCacheline - 1)

	var matchMask, emptyMask uint8
	for i := p.idx - base; i < entriesPerCacheline; i++ {
		k := hp.entries[base+i].Key
		if k == p.key {
			matchMask |= 1 << i
		}
		if k == 0 {
			emptyMask |= 1 << i
		}
	}

	if matchMask != 0 {
		slot := bits.TrailingZeros8(matchMask)
		hp.entries[base+uint64(slot)].Value++
		return
	}
	if emptyMask != 0 {
		slot := bits.TrailingZeros8(emptyMask)
		e := &hp.entries[base+uint64(slot)]
		e.Key = p.key
		e.Value = 1
		hp.occupied.AddAcqRel(1)
		return
	}

	p.idx = (base + entriesPerCacheline) & hp.mask
	hp.insertQ.push(p)
}

// InsertStream submits key for pipelined insertion, draining one pending
// probe first if the pipeline is already at capacity — the same
// discipline InsertBatch applies per key, exposed for callers that
// receive keys one at a time from a queue rather than as a pre-built
// slice. Callers must call Flush once their own stream is exhausted.
func (hp *HashPartition) InsertStream(key uint64) {
	if hp.insertQ.Full() {
		hp.DrainOne()
	}
	hp.Submit(key)
}

// Flush drains the insert pipeline until empty.
func (hp *HashPartition) Flush() {
	for hp.DrainOne() {
	}
}

// InsertBatch submits every key in keys, draining one pending probe
// before each submit once the pipeline is at capacity — keeping one full
// pipeline depth of probes in flight at all times to hide memory-access
// latency — and flushes the pipeline before returning.
func (hp *HashPartition) InsertBatch(keys []uint64) {
	for _, key := range keys {
		if hp.insertQ.Full() {
			hp.DrainOne()
		}
		hp.Submit(key)
	}
	hp.Flush()
}
