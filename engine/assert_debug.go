//go:build debug

package engine

import "fmt"

const debugAssertions = true

// assertf panics when cond is false. Enabled with -tags debug.
func assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}
