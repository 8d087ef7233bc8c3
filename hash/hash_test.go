package hash_test

import (
	"testing"

	"github.com/mars-research/kcount/hash"
)

func TestHashersDeterministic(t *testing.T) {
	for _, kind := range []hash.Kind{hash.KindCRC, hash.KindXXH3, hash.KindCity} {
		h := hash.New(kind)
		a := h.Hash64(12345)
		b := h.Hash64(12345)
		if a != b {
			t.Fatalf("%v: not deterministic: %d != %d", kind, a, b)
		}
	}
}

func TestHashersDistinguishKeys(t *testing.T) {
	for _, kind := range []hash.Kind{hash.KindCRC, hash.KindXXH3, hash.KindCity} {
		h := hash.New(kind)
		seen := map[uint64]bool{}
		collisions := 0
		for k := uint64(1); k <= 1000; k++ {
			v := h.Hash64(k)
			if seen[v] {
				collisions++
			}
			seen[v] = true
		}
		if collisions > 2 {
			t.Fatalf("%v: %d collisions hashing 1..1000, want a good avalanche", kind, collisions)
		}
	}
}
