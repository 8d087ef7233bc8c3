package topology

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Pin pins the calling OS thread to cpu. Callers must have already called
// runtime.LockOSThread — affinity is a property of the OS thread, not the
// goroutine.
func Pin(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("topology: pin to CPU %d: %w", cpu, err)
	}
	return nil
}

// BindLocal binds a page range to a NUMA node. Workers call it once per
// queue buffer (and, for consumers, their hash partition) right after
// Pin during thread startup, so the memory they're about to touch lives
// on the node their thread is pinned to. True NUMA memory binding needs
// mbind(2), which golang.org/x/sys/unix does not wrap; this is a
// documented no-op rather than a fabricated syscall wrapper.
func BindLocal(_ []byte, _ int) error {
	return nil
}
