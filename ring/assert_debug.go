//go:build kcount_debug

package ring

// debugAssertions mirrors race.go's build-tag pattern: true in builds
// tagged kcount_debug. Contract violations that release builds treat as
// a soft ErrRetry (payload 0 submitted to Enqueue) panic under this tag
// instead, so misuse surfaces loudly during development.
const debugAssertions = true
