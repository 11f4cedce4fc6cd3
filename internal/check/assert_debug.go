//go:build debug

package check

import (
	"fmt"
	"log/slog"
)

// Assert panics if cond is false. Only active in debug builds.
//
// The failure is logged before the panic unwinds the stack, since a panic
// from inside an active connection attempt can otherwise blow past whatever
// deferred cleanup would have logged the orchestrator's own state.
func Assert(cond bool, msg string) {
	if !cond {
		slog.Error("assertion failed", "msg", msg)
		panic("nmctl: assertion failed: " + msg)
	}
}

// Assertf panics if cond is false with a formatted message. Only active in debug builds.
func Assertf(cond bool, format string, args ...any) {
	if !cond {
		m := fmt.Sprintf(format, args...)
		slog.Error("assertion failed", "msg", m)
		panic("nmctl: assertion failed: " + m)
	}
}
