//go:build race

package ring

// RaceEnabled is true when the race detector is active.
// Used by tests to skip concurrent stress tests on the backtracking
// protocol, which the race detector flags on cross-variable acquire/release
// orderings it cannot reconstruct.
const RaceEnabled = true
