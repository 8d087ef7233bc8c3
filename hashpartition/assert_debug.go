//go:build kcount_debug

package hashpartition

// debugAssertions mirrors the ring package's build-tag pattern: true in
// builds tagged kcount_debug. Inserting into a table at capacity is a
// contract violation — this tag makes the non-pipelined Insert panic
// instead of returning ErrOverfull.
const debugAssertions = true
