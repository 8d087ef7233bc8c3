package hashpartition

// FindResult is one outcome of a batched find.
type FindResult struct {
	Key   uint64
	Value uint64
	Found bool
}

// Find performs a single, non-pipelined lookup.
func (hp *HashPartition) Find(key uint64) (value uint64, found bool) {
	idx := hp.hasher.Hash64(key) & hp.mask
	for i := uint64(0); i < hp.capacity; i++ {
		e := hp.entries[idx]
		if e.Key == 0 {
			return 0, false
		}
		if e.Key == key {
			return e.Value, true
		}
		idx = (idx + 1) & hp.mask
	}
	return 0, false
}

func (hp *HashPartition) findSubmit(key uint64, resultIdx int) {
	idx := hp.hasher.Hash64(key) & hp.mask
	hp.findQ.push(findProbe{key: key, idx: idx, resultIdx: resultIdx})
}

func (hp *HashPartition) findDrainOne(results []FindResult) bool {
	p, ok := hp.findQ.pop()
	if !ok {
		return false
	}
	for {
		e := hp.entries[p.idx]
		if e.Key == 0 {
			results[p.resultIdx] = FindResult{Key: p.key, Found: false}
			return true
		}
		if e.Key == p.key {
			results[p.resultIdx] = FindResult{Key: p.key, Value: e.Value, Found: true}
			return true
		}
		newIdx := (p.idx + 1) & hp.mask
		p.idx = newIdx
		if newIdx%entriesPerCacheline != 0 {
			continue
		}
		hp.findQ.push(p)
		return true
	}
}

func (hp *HashPartition) findFlush(results []FindResult) {
	for hp.findDrainOne(results) {
	}
}

// FindBatch looks up every key in keys through the find pipeline — the
// same submit/drain discipline as insert, but with its own queue —
// returning one FindResult per input key in the same order, plus the
// number of hits.
func (hp *HashPartition) FindBatch(keys []uint64) ([]FindResult, int) {
	results := make([]FindResult, len(keys))
	for i, key := range keys {
		if hp.findQ.Full() {
			hp.findDrainOne(results)
		}
		hp.findSubmit(key, i)
	}
	hp.findFlush(results)

	hits := 0
	for _, r := range results {
		if r.Found {
			hits++
		}
	}
	return results, hits
}
