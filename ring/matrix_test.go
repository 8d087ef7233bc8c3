package ring_test

import (
	"errors"
	"testing"

	"github.com/mars-research/kcount/ring"
)

func TestMatrixRoutesPerCell(t *testing.T) {
	m := ring.NewMatrix(2, 3, ring.Config{Variant: ring.VariantBatchedRing, QueueSize: 64})
	if m.NProd() != 2 || m.NCons() != 3 {
		t.Fatalf("dimensions: got %d x %d, want 2 x 3", m.NProd(), m.NCons())
	}

	if err := m.Enqueue(0, 1, 42); err != nil {
		t.Fatal(err)
	}
	if err := m.Enqueue(1, 1, 99); err != nil {
		t.Fatal(err)
	}

	// Only column 1 of row 0 and row 1 saw a write — every other cell is
	// empty, since row i is writable only by producer i.
	if _, err := m.Dequeue(0, 0); !ring.IsRetry(err) {
		t.Fatalf("Dequeue(0,0): got %v, want ErrRetry", err)
	}
	v, err := m.Dequeue(0, 1)
	if err != nil || v != 42 {
		t.Fatalf("Dequeue(0,1): got (%d, %v), want (42, nil)", v, err)
	}
	v, err = m.Dequeue(1, 1)
	if err != nil || v != 99 {
		t.Fatalf("Dequeue(1,1): got (%d, %v), want (99, nil)", v, err)
	}
}

func TestMatrixAllDone(t *testing.T) {
	m := ring.NewMatrix(3, 1, ring.Config{Variant: ring.VariantBatchedRing, QueueSize: 64})

	for p := 0; p < 3; p++ {
		if m.AllDone(0) {
			t.Fatalf("AllDone true before producer %d signaled", p)
		}
		if err := m.PushDone(p, 0); err != nil {
			t.Fatal(err)
		}
		for {
			_, err := m.Dequeue(p, 0)
			if errors.Is(err, ring.ErrDone) {
				break
			}
		}
	}
	if !m.AllDone(0) {
		t.Fatal("AllDone false after every producer signaled")
	}
}
