package harness

import (
	"runtime"
	"sync"

	"github.com/mars-research/kcount/topology"
)

// Run spawns one pinned worker per entry of cpus and waits for all of
// them: each worker locks its goroutine to an OS thread, pins that
// thread to its cpu, then calls fn.
// Go has no cheaper "thread" primitive than a goroutine plus
// LockOSThread, so that's the substitute for a raw worker-thread spawn
// pinned to one CPU.
func Run(cpus []int, fn func(workerID int, cpu int)) {
	var wg sync.WaitGroup
	wg.Add(len(cpus))
	for i, cpu := range cpus {
		go func(workerID, cpu int) {
			defer wg.Done()
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			if err := topology.Pin(cpu); err != nil {
				// Affinity is a placement optimization, not a
				// correctness requirement — pinning can fail on
				// sandboxed or virtualized hosts, so continue
				// unpinned rather than aborting the run.
				_ = err
			}
			fn(workerID, cpu)
		}(i, cpu)
	}
	wg.Wait()
}
