package hashpartition_test

import (
	"testing"

	"github.com/mars-research/kcount/hash"
	"github.com/mars-research/kcount/hashpartition"
)

func newTable(t *testing.T, branchless bool) *hashpartition.HashPartition {
	t.Helper()
	return hashpartition.New(hashpartition.Config{
		Capacity:          1024,
		PrefetchQueueSize: 32,
		HashKind:          hash.KindXXH3,
		Branchless:        branchless,
	})
}

// TestTinyDeterministic checks exact per-key counts on a small fixed
// key stream.
func TestTinyDeterministic(t *testing.T) {
	hp := newTable(t, false)
	keys := []uint64{1, 2, 3, 1, 2, 1, 4, 5}
	hp.InsertBatch(keys)

	want := map[uint64]uint64{1: 3, 2: 2, 3: 1, 4: 1, 5: 1}
	for k, wantV := range want {
		gotV, found := hp.Find(k)
		if !found {
			t.Fatalf("key %d not found", k)
		}
		if gotV != wantV {
			t.Fatalf("key %d: got count %d, want %d", k, gotV, wantV)
		}
	}
	if got := hp.Occupied(); got != uint64(len(want)) {
		t.Fatalf("Occupied: got %d, want %d", got, len(want))
	}
}

// TestDuplicateHotKey exercises one partition receiving 2000
// submissions of the same key.
func TestDuplicateHotKey(t *testing.T) {
	hp := newTable(t, false)
	keys := make([]uint64, 2000)
	for i := range keys {
		keys[i] = 42
	}
	hp.InsertBatch(keys)

	v, found := hp.Find(42)
	if !found || v != 2000 {
		t.Fatalf("key 42: got (value=%d found=%v), want (2000 true)", v, found)
	}
	if hp.Occupied() != 1 {
		t.Fatalf("Occupied: got %d, want 1", hp.Occupied())
	}
}

// TestFindAfterInsert inserts a dense range of keys, then queries a
// range twice as large, checking hits and misses land exactly where
// expected.
func TestFindAfterInsert(t *testing.T) {
	const n = 100_000
	hp := hashpartition.New(hashpartition.Config{
		Capacity:          1 << 18,
		PrefetchQueueSize: 64,
		HashKind:          hash.KindCRC,
	})

	keys := make([]uint64, n)
	for i := range keys {
		keys[i] = uint64(i + 1)
	}
	hp.InsertBatch(keys)

	queries := make([]uint64, 2*n)
	for i := 0; i < 2*n; i++ {
		queries[i] = uint64(i + 1)
	}
	results, hits := hp.FindBatch(queries)
	if hits != n {
		t.Fatalf("hits: got %d, want %d", hits, n)
	}
	misses := 0
	for _, r := range results {
		if !r.Found {
			misses++
		}
	}
	if misses != n {
		t.Fatalf("misses: got %d, want %d", misses, n)
	}
}

// TestPrefetchQueueSizeOne is the degenerate pipeline boundary case
// where the prefetch queue holds only one probe at a time.
func TestPrefetchQueueSizeOne(t *testing.T) {
	hp := hashpartition.New(hashpartition.Config{
		Capacity:          256,
		PrefetchQueueSize: 1,
		HashKind:          hash.KindXXH3,
	})
	keys := []uint64{7, 7, 8, 9, 7}
	hp.InsertBatch(keys)

	if v, found := hp.Find(7); !found || v != 3 {
		t.Fatalf("key 7: got (value=%d found=%v), want (3 true)", v, found)
	}
}

// TestBranchlessMatchesScalar checks that the branchless and scalar
// drain paths produce identical final table contents for the same
// input sequence.
func TestBranchlessMatchesScalar(t *testing.T) {
	keys := make([]uint64, 5000)
	for i := range keys {
		keys[i] = uint64(i%777) + 1
	}

	scalar := newTable(t, false)
	scalar.InsertBatch(keys)

	branchless := newTable(t, true)
	branchless.InsertBatch(keys)

	for i := uint64(1); i <= 777; i++ {
		sv, sf := scalar.Find(i)
		bv, bf := branchless.Find(i)
		if sf != bf || sv != bv {
			t.Fatalf("key %d: scalar=(%d,%v) branchless=(%d,%v)", i, sv, sf, bv, bf)
		}
	}
}

func TestInsertSingleNonPipelined(t *testing.T) {
	hp := newTable(t, false)
	for i := 0; i < 3; i++ {
		if err := hp.Insert(10); err != nil {
			t.Fatal(err)
		}
	}
	if v, found := hp.Find(10); !found || v != 3 {
		t.Fatalf("key 10: got (value=%d found=%v), want (3 true)", v, found)
	}
}
