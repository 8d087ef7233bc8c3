package hashpartition

import "github.com/klauspost/cpuid/v2"

// branchlessSupported gates the branchless insert variant. An AVX-512
// implementation would dispatch on that feature; this path is a bitscan
// over a manually loaded cacheline rather than real SIMD, so it only
// needs an always-available baseline feature to probe — kept as a real
// cpuid check (rather than an unconditional true) so the dispatch point
// still follows a "probe a CPU feature, pick a path" shape.
func branchlessSupported() bool {
	return cpuid.CPU.Supports(cpuid.SSE2)
}
