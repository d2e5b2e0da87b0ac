// Package assert provides a single helper for invariants the analyzer must
// never violate on a well-formed opcode table. These are not part of the
// public error contract: bytecode-shape problems become issues, not panics
// (see the program package); this helper guards against decoder/CFG bugs.
package assert

import "fmt"

// Invariant panics with a formatted message if cond is false.
func Invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("evmdis: invariant violated: "+format, args...))
	}
}
