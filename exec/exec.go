// Package exec implements the symbolic executor (spec.md §4.4): a
// fixed-point worklist over (block, predecessor) pairs that computes, for
// every reachable block, the possible symbolic stacks at its entry and exit
// across every path that reaches it, discovering further CFG edges as
// branch operands resolve to constants along some path.
//
// Grounded on the teacher's exec/vm.go for the shape of a stack-machine
// step loop driven through pop/push helpers — adapted from concrete uint64
// execution and a linear program counter to symbolic simulation over a
// (block, predecessor) worklist. The fixed-point algorithm itself (entry
// accumulation, per-path simulation, LIFO worklist, seen-set termination)
// is grounded on original_source/src/Program.cc's
// Program::solveStack(globalIdx, node, pnode) and its zero-arg driver.
package exec

import (
	"log"

	"github.com/go-evm/evmdis/cfg"
	"github.com/go-evm/evmdis/disasm"
	"github.com/go-evm/evmdis/symbolic"
)

// pair is one (block, predecessor) worklist entry; pred is nil only for the
// entry block's seed.
type pair struct {
	block *cfg.Block
	pred  *cfg.Block
}

func (p pair) key() [2]int {
	predIdx := -1
	if p.pred != nil {
		predIdx = p.pred.Idx
	}
	return [2]int{p.block.Idx, predIdx}
}

// Run drives the fixed point to completion over graph, starting at the
// block whose Idx is 0 (spec.md §3: "idx == 0 designates the entry
// block"). It mutates each cfg.Block's entry/exit state maps and may add
// new edges to graph as previously non-constant branch operands resolve.
// Returns any issues discovered while resolving branch targets mid-run.
//
// trace, if non-nil, receives one line per (block, predecessor) pair
// visited; pops of an already-seen pair are skipped silently (package exec
// owns no logger of its own; program.SetDebugMode's tracing flows in
// through this parameter instead).
func Run(graph *cfg.Graph, instrs map[int]*disasm.Instruction, ids *symbolic.Counter, trace *log.Logger) []cfg.Issue {
	var entry *cfg.Block
	for _, b := range graph.Blocks {
		if b.Idx == 0 {
			entry = b
			break
		}
	}
	if entry == nil {
		return nil
	}

	var issues []cfg.Issue
	seen := make(map[[2]int]bool)
	worklist := []pair{{block: entry, pred: nil}}

	for len(worklist) > 0 {
		// LIFO: spec.md §4.4 "the worklist is processed LIFO; this is not
		// semantically required... only the final fixpoint is specified."
		cur := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		k := cur.key()
		if seen[k] {
			continue
		}
		seen[k] = true

		if trace != nil {
			predIdx := -1
			if cur.pred != nil {
				predIdx = cur.pred.Idx
			}
			trace.Printf("visiting block %d (from %d)", cur.block.Idx, predIdx)
		}

		newBlocks := visit(graph, cur, instrs, ids, &issues)
		for _, n := range cur.block.Next {
			worklist = append(worklist, pair{block: n, pred: cur.block})
		}
		for _, n := range newBlocks {
			worklist = append(worklist, pair{block: n, pred: cur.block})
		}
	}

	return issues
}

// visit implements spec.md §4.4's per-pair step: accumulate entry states
// from the predecessor's exit states (or seed the empty stack for the
// entry block), simulate every entry stack through the block's
// instructions, and record the resulting exit states. Returns any blocks
// newly reachable via a branch operand that only became constant during
// this visit.
func visit(graph *cfg.Graph, p pair, instrs map[int]*disasm.Instruction, ids *symbolic.Counter, issues *[]cfg.Issue) []*cfg.Block {
	b := p.block

	if p.pred == nil {
		b.AddEntry(symbolic.Stack{}, cfg.Path{})
	} else {
		for _, st := range p.pred.ExitStates() {
			for _, path := range st.Paths {
				b.AddEntry(st.Stack, path.Append(p.pred.Idx))
			}
		}
	}

	var discovered []*cfg.Block
	for _, entry := range b.EntryStates() {
		exitStack, newBlocks := simulate(graph, b, entry.Stack, instrs, ids, issues)
		for _, path := range entry.Paths {
			b.AddExit(exitStack, path)
		}
		discovered = append(discovered, newBlocks...)
	}
	return discovered
}

// simulate runs b's instructions (in offset order) starting from a copy of
// entry, applying the same per-instruction step disasm.Decode's first pass
// does (spec.md §4.1), but against this path's own stack and a fresh set of
// global ids. Per spec.md §9's "pure immutable records" permitted design
// (see DESIGN.md's Open Question decision), this package never mutates
// disasm.Instruction.Operands/Outputs: the simulated operands/outputs exist
// only for the duration of this call.
func simulate(graph *cfg.Graph, b *cfg.Block, entry symbolic.Stack, instrs map[int]*disasm.Instruction, ids *symbolic.Counter, issues *[]cfg.Issue) (symbolic.Stack, []*cfg.Block) {
	stack := entry.Clone()
	argCounter := 0
	var discovered []*cfg.Block

	for off := b.Start; off < b.End; {
		instr, ok := instrs[off]
		if !ok {
			break
		}
		operands, _, next := disasm.Step(instr, stack, &argCounter, ids)
		stack = next

		if instr.Op.IsBranch && len(operands) > 0 {
			if nb, issue, added := cfg.ResolveBranchTarget(graph, b, operands[0], instr.Offset, instrs); added {
				discovered = append(discovered, nb)
			} else if issue != nil {
				*issues = append(*issues, *issue)
			}
		}

		off += 1 + len(instr.Immediate)
	}
	return stack, discovered
}
