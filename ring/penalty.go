package ring

import "time"

// PenaltyWait busy-waits for approximately the given number of cycles
// before a consumer gives up on an exhausted backtrack search and
// returns ErrRetry, spreading congested consumers out instead of
// letting them all hammer the same cachelines in a tight retry loop.
//
// Pinning this to an x86 rdtsc-counted spin would need
// architecture-specific assembly, so this package spins on a monotonic
// clock instead; one cycle is treated as one nanosecond of wall-clock
// budget, which is conservative on any CPU clocked above 1GHz.
func PenaltyWait(cycles uint64) {
	if cycles == 0 {
		return
	}
	deadline := time.Now().Add(time.Duration(cycles) * time.Nanosecond)
	for time.Now().Before(deadline) {
	}
}
