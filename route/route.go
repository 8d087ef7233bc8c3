// Package route maps a key's hash to an owning consumer id, and defines
// an optional upper-half hash-fold convention for callers that want to
// recover which hash routed a given key.
package route

// HashToConsumer maps a 64-bit hash to one of nCons consumer ids so that
// every producer routes the same key to the same consumer. nCons must
// be > 0.
//
// Some partitioned designs mask against a power-of-two consumer count;
// this implementation uses modulo instead, so nCons need not be a power
// of two (harness configs commonly pick n_cons to match available CPUs,
// which are rarely powers of two).
func HashToConsumer(h uint64, nCons int) int {
	if nCons <= 0 {
		panic("route: nCons must be > 0")
	}
	return int(h % uint64(nCons))
}

// FoldHash packs a 32-bit hash into the upper half of key, leaving the
// lower 32 bits untouched — for callers that want to recover which hash
// routed a given key (diagnostics). [hashpartition.HashPartition] itself
// never folds or unfolds keys; it always keys on the full 64-bit word it
// is given.
func FoldHash(key uint64, h uint32) uint64 {
	return (uint64(h) << 32) | (key & 0xFFFFFFFF)
}

// UnfoldHash extracts the upper 32 bits a prior FoldHash call packed in.
func UnfoldHash(folded uint64) uint32 {
	return uint32(folded >> 32)
}
