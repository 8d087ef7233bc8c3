//go:build !race

package ring

// RaceEnabled is false when the race detector is not active.
const RaceEnabled = false
