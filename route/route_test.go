package route_test

import (
	"testing"

	"github.com/mars-research/kcount/hash"
	"github.com/mars-research/kcount/route"
)

func TestHashToConsumerRange(t *testing.T) {
	h := hash.New(hash.KindXXH3)
	const nCons = 4
	for key := uint64(1); key <= 10_000; key++ {
		c := route.HashToConsumer(h.Hash64(key), nCons)
		if c < 0 || c >= nCons {
			t.Fatalf("HashToConsumer(%d): got %d, want [0,%d)", key, c, nCons)
		}
	}
}

func TestHashToConsumerDeterministic(t *testing.T) {
	h := hash.New(hash.KindCRC)
	a := route.HashToConsumer(h.Hash64(42), 7)
	b := route.HashToConsumer(h.Hash64(42), 7)
	if a != b {
		t.Fatalf("routing not deterministic: %d != %d", a, b)
	}
}

func TestFoldUnfoldHash(t *testing.T) {
	folded := route.FoldHash(0x00000000_CAFEBABE, 0xDEADBEEF)
	if got := route.UnfoldHash(folded); got != 0xDEADBEEF {
		t.Fatalf("UnfoldHash: got %#x, want %#x", got, 0xDEADBEEF)
	}
	if got := folded & 0xFFFFFFFF; got != 0xCAFEBABE {
		t.Fatalf("FoldHash clobbered lower bits: got %#x", got)
	}
}
