//go:build !kcount_debug

package hashpartition

// debugAssertions is false by default; see assert_debug.go.
const debugAssertions = false
