package ring

import "unsafe"

// Matrix is an nProd x nCons grid of SPSC queues. Row i is writable only
// by producer i; column j is readable only by consumer j — Matrix
// itself does no locking, it only owns the grid.
//
// Exactly one of batched/section is populated, chosen by the Config
// passed to NewMatrix. Hot-path callers (run.go's producer/consumer
// loops) fetch the concrete *BatchedRing or *SectionQueue for their
// cell once via BatchedAt/SectionAt and call its methods directly for
// the rest of the run — no interface sits between the loop and
// Enqueue/Dequeue. The Queue-interface convenience methods below exist
// for tests and other non-hot-path callers that want to treat either
// variant uniformly.
type Matrix struct {
	nProd, nCons int
	variant      Variant
	batched      [][]*BatchedRing  // queues[prodID][consID], variant == VariantBatchedRing
	section      [][]*SectionQueue // queues[prodID][consID], variant == VariantSectionQueue
}

// Config configures how a Matrix builds its queues.
type Config struct {
	Variant      Variant
	QueueSize    int
	SectionSlots int // only meaningful for VariantSectionQueue
}

// NewMatrix allocates an nProd x nCons grid of queues built per cfg.
func NewMatrix(nProd, nCons int, cfg Config) *Matrix {
	m := &Matrix{nProd: nProd, nCons: nCons, variant: cfg.Variant}
	switch cfg.Variant {
	case VariantSectionQueue:
		m.section = make([][]*SectionQueue, nProd)
		for p := range m.section {
			m.section[p] = make([]*SectionQueue, nCons)
			for c := range m.section[p] {
				m.section[p][c] = NewSectionQueue(cfg.QueueSize, cfg.SectionSlots)
			}
		}
	default:
		m.batched = make([][]*BatchedRing, nProd)
		for p := range m.batched {
			m.batched[p] = make([]*BatchedRing, nCons)
			for c := range m.batched[p] {
				m.batched[p][c] = NewBatchedRing(cfg.QueueSize)
			}
		}
	}
	return m
}

// NProd returns the number of producer rows.
func (m *Matrix) NProd() int { return m.nProd }

// NCons returns the number of consumer columns.
func (m *Matrix) NCons() int { return m.nCons }

// Variant reports which concrete queue type this matrix holds.
func (m *Matrix) Variant() Variant { return m.variant }

// BatchedAt returns the concrete *BatchedRing at (prodID, consID). Only
// valid when Variant() == VariantBatchedRing.
func (m *Matrix) BatchedAt(prodID, consID int) *BatchedRing { return m.batched[prodID][consID] }

// SectionAt returns the concrete *SectionQueue at (prodID, consID). Only
// valid when Variant() == VariantSectionQueue.
func (m *Matrix) SectionAt(prodID, consID int) *SectionQueue { return m.section[prodID][consID] }

// cell returns queue (prodID, consID) as the Queue interface, for
// callers that don't care which variant backs a Matrix.
func (m *Matrix) cell(prodID, consID int) Queue {
	if m.variant == VariantSectionQueue {
		return m.section[prodID][consID]
	}
	return m.batched[prodID][consID]
}

// Backing returns the raw bytes backing queue (prodID, consID)'s shared
// data slice, for binding that memory to a NUMA node at thread startup.
// Callers must only use it before the matrix starts carrying traffic —
// reinterpreting a live queue's storage as bytes while either side is
// enqueuing or dequeuing would race with their atomic stores/loads.
func (m *Matrix) Backing(prodID, consID int) []byte {
	if m.variant == VariantSectionQueue {
		q := m.section[prodID][consID]
		return unsafe.Slice((*byte)(unsafe.Pointer(&q.data[0])), len(q.data)*int(unsafe.Sizeof(q.data[0])))
	}
	q := m.batched[prodID][consID]
	return unsafe.Slice((*byte)(unsafe.Pointer(&q.data[0])), len(q.data)*int(unsafe.Sizeof(q.data[0])))
}

// Enqueue delegates to queue (prodID, consID). Convenience wrapper for
// callers that don't want to fetch the concrete queue type — the hot
// producer loop doesn't use this, it calls BatchedAt/SectionAt once and
// holds the concrete pointer for the life of the worker.
func (m *Matrix) Enqueue(prodID, consID int, value Slot) error {
	return m.cell(prodID, consID).Enqueue(value)
}

// Dequeue delegates to queue (prodID, consID).
func (m *Matrix) Dequeue(prodID, consID int) (Slot, error) {
	return m.cell(prodID, consID).Dequeue()
}

// PushDone signals producer prodID is finished sending on column consID.
func (m *Matrix) PushDone(prodID, consID int) error {
	return m.cell(prodID, consID).PushDone()
}

// PopDone reports whether consumer consID has observed producer
// prodID's terminator on queue (prodID, consID).
func (m *Matrix) PopDone(prodID, consID int) bool {
	return m.cell(prodID, consID).PopDone()
}

// AllDone reports whether consumer consID has observed a terminator
// from every producer on its column — the condition under which that
// consumer may stop polling and exit.
func (m *Matrix) AllDone(consID int) bool {
	for p := 0; p < m.nProd; p++ {
		if !m.cell(p, consID).PopDone() {
			return false
		}
	}
	return true
}
