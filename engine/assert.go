//go:build !debug

package engine

// debugAssertions reports whether contract violations panic.
const debugAssertions = false

// assertf is a no-op in release builds, callers degrade gracefully.
func assertf(cond bool, format string, args ...interface{}) {}
