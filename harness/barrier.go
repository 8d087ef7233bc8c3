// Package harness provides the generic spawn/pin/barrier/join mechanics
// a producer/consumer run needs, independent of what producers and
// consumers actually do with their CPU and queue assignment. The
// domain-specific wiring (key generation, hashing, routing, insertion)
// lives in the root kcount package, which calls into this package's
// Barrier, Run and logging helpers.
package harness

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Barrier implements a three-phase handoff: consumers signal ready,
// producers signal ready, and only once both targets are met does the
// controller raise testReady, which every spinning worker observes
// before entering its hot loop.
//
// Global ready/done counters use atomic fetch-add, the same pattern an
// MPMC queue uses atomix.Uint64 FAA counters for its own head/tail.
type Barrier struct {
	_              pad
	readyConsumers atomix.Uint64
	_              pad
	readyProducers atomix.Uint64
	_              pad
	testReady      atomix.Bool
	_              pad
	nCons, nProd   uint64
}

type pad [64]byte

// NewBarrier prepares a barrier for nProd producers and nCons consumers.
func NewBarrier(nProd, nCons int) *Barrier {
	return &Barrier{nProd: uint64(nProd), nCons: uint64(nCons)}
}

// ConsumerReady signals that one consumer has finished setup (allocating
// its partition, pinning its CPU) and is about to wait on the barrier.
func (b *Barrier) ConsumerReady() { b.readyConsumers.AddAcqRel(1) }

// ProducerReady signals that one producer has finished setup.
func (b *Barrier) ProducerReady() { b.readyProducers.AddAcqRel(1) }

// Wait spins until every consumer and producer has signaled ready, then
// every caller observes testReady flip true. The flag is written with a
// release store and read with acquire loads; no sequentially consistent
// fence is issued. Any caller racing to be first to observe both
// targets met may flip testReady; Wait alone is enough for every
// worker including the one that flips it.
func (b *Barrier) Wait() {
	sw := spin.Wait{}
	for !b.testReady.LoadAcquire() {
		if b.readyConsumers.LoadAcquire() >= b.nCons && b.readyProducers.LoadAcquire() >= b.nProd {
			b.testReady.StoreRelease(true)
			break
		}
		sw.Once()
	}
}
