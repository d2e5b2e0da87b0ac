// Grounded on the teacher's wasm/log.go and validate/log.go: a package-level
// *log.Logger discarding output by default, redirected to stderr by a
// debug-mode toggle. Unlike the teacher, only this top-level package owns a
// logger — see SPEC_FULL.md for why opcodes/bytecode/symbolic/disasm/cfg/exec
// stay silent and report recoverable conditions as Issues instead.
package program

import (
	"io"
	"log"
	"os"
)

var logger *log.Logger

func init() {
	logger = log.New(io.Discard, "", log.Lshortfile)
}

// SetDebugMode toggles step-by-step tracing of the symbolic executor's
// worklist (one line per block visited, via exec.Run's trace logger) to
// stderr.
func SetDebugMode(on bool) {
	w := io.Discard
	if on {
		w = os.Stderr
	}
	logger = log.New(w, "", log.Lshortfile)
}
