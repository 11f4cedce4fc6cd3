//go:build !debug

package check

// Assert is a no-op in release builds: invariants guarded by Assert are
// never worth taking a production nmctl process down over.
func Assert(_ bool, _ string) {}

// Assertf is a no-op in release builds, for the same reason as Assert.
func Assertf(_ bool, _ string, _ ...any) {}
