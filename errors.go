// Package kcount implements a producer/consumer queue and partitioned
// hash-table engine for counting occurrences of 64-bit keys at high
// throughput.
package kcount

import "code.hybscloud.com/iox"

// ErrRetry indicates a non-blocking operation could not proceed: the ring
// was full (enqueue) or empty (dequeue). It is control flow, not a failure
// — callers loop or back off and retry.
//
// This is an alias for [iox.ErrWouldBlock], kept for ecosystem consistency
// with the rest of the code.hybscloud.com stack this repository builds on.
var ErrRetry = iox.ErrWouldBlock

// IsRetry reports whether err is the non-blocking backpressure signal
// produced by a full enqueue or empty dequeue — not counted as a
// failure.
func IsRetry(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsFatal reports whether err represents a configuration, resource, or
// contract-violation failure that must abort the run — i.e. any
// non-nil error that is not ErrRetry.
func IsFatal(err error) bool {
	return err != nil && !IsRetry(err)
}
