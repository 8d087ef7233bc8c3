//go:build !kcount_debug

package ring

// debugAssertions is false by default; see assert_debug.go.
const debugAssertions = false
