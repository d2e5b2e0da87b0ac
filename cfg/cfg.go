package cfg

import (
	"fmt"
	"math"

	"github.com/go-evm/evmdis/disasm"
	"github.com/go-evm/evmdis/symbolic"
)

// Issue is a non-fatal analysis diagnostic (spec.md §7 "Analysis issues").
type Issue struct {
	Offset  int
	Message string
}

// Graph is the control-flow graph over a program's basic blocks.
type Graph struct {
	Blocks  []*Block
	ByStart map[int]*Block
}

// Build segments instrs into basic blocks (spec.md §4.2) and links them by
// fall-through and constant branch targets (spec.md §4.3).
func Build(instrs map[int]*disasm.Instruction, order []int) (*Graph, []Issue) {
	blocks := segment(instrs, order)
	byStart := make(map[int]*Block, len(blocks))
	for _, b := range blocks {
		byStart[b.Start] = b
	}
	graph := &Graph{Blocks: blocks, ByStart: byStart}

	var issues []Issue
	for _, b := range blocks {
		last, ok := instrs[b.term]
		if !ok {
			continue
		}
		// Not mutually exclusive: JUMPI is both a branch and a fall-through
		// (a false condition proceeds to the next instruction), so both
		// checks run independently per spec.md §4.3.
		if last.Op.IsFallThrough {
			if next, ok := byStart[b.End]; ok {
				addEdge(b, next)
			}
		}
		if last.Op.IsBranch && len(last.Operands) > 0 {
			if _, issue, _ := ResolveBranchTarget(graph, b, last.Operands[0], last.Offset, instrs); issue != nil {
				issues = append(issues, *issue)
			}
		}
	}

	return graph, issues
}

// ResolveBranchTarget resolves one branch instruction's first operand
// against graph, per spec.md §4.3's target-lookup rule, generalized (see
// DESIGN.md's Open Question decision) to treat "found" as "landed on any
// decoded instruction offset", not just a block start: a target that lands
// mid-block on a real instruction which isn't a JUMPDEST is just as invalid
// a jump as one landing on a non-JUMPDEST block start. Used both by Build's
// initial pass and by exec.Run when a branch operand becomes constant only
// along some path.
//
// Returns (target block, nil, true) on a newly added edge, (nil, issue,
// false) when the target exists but isn't a legal landing pad, or
// (nil, nil, false) when the operand isn't yet constant, or resolves
// outside the decoded instruction set (spec.md §4.4 edge case: no edge, no
// issue).
func ResolveBranchTarget(graph *Graph, from *Block, operand symbolic.Value, offset int, instrs map[int]*disasm.Instruction) (*Block, *Issue, bool) {
	target, ok := constantTarget(operand)
	if !ok {
		return nil, nil, false
	}
	if _, exists := instrs[target]; !exists {
		return nil, nil, false
	}
	tb, isBlockStart := graph.ByStart[target]
	if isBlockStart && tb.IsJumpDest {
		added := addEdge(from, tb)
		return tb, nil, added
	}
	return nil, &Issue{
		Offset:  offset,
		Message: fmt.Sprintf("invalid jump from block %d to offset %d (not a JUMPDEST)", from.Idx, target),
	}, false
}

// constantTarget decodes a jump operand as a CFG target offset, per spec.md
// §4.3/§4.4: must be constant, at most 8 bytes, and representable as a
// non-negative signed 64-bit integer (edge case in §4.4: anything wider is
// treated as non-constant for edge discovery, though its bytes still
// display normally).
func constantTarget(v symbolic.Value) (int, bool) {
	if !v.IsConstant || len(v.ConstantValue) > 8 {
		return 0, false
	}
	var n uint64
	for _, b := range v.ConstantValue {
		n = n<<8 | uint64(b)
	}
	if n > uint64(math.MaxInt64) {
		return 0, false
	}
	return int(n), true
}

// OrderedBlocks is the report-facing view of a Graph's blocks, ordered by
// Start offset (spec.md §6 "Nodes(): ordered map offset -> block"). Graph's
// own Blocks slice is already in ascending-start order (segment appends in
// linear scan order), so this is a thin read-only wrapper rather than a
// re-sort.
type OrderedBlocks struct {
	graph *Graph
}

// NewOrderedBlocks wraps g for ordered, read-only access.
func NewOrderedBlocks(g *Graph) *OrderedBlocks { return &OrderedBlocks{graph: g} }

// Len returns the number of blocks.
func (o *OrderedBlocks) Len() int { return len(o.graph.Blocks) }

// At returns the i'th block in ascending-start order.
func (o *OrderedBlocks) At(i int) *Block { return o.graph.Blocks[i] }

// ByStart looks up the block starting at the given offset.
func (o *OrderedBlocks) ByStart(start int) (*Block, bool) {
	b, ok := o.graph.ByStart[start]
	return b, ok
}

// segment partitions instructions into basic blocks per spec.md §4.2.
func segment(instrs map[int]*disasm.Instruction, order []int) []*Block {
	var blocks []*Block
	idx := 0
	started := false
	var start int
	var isJumpDest bool
	var lastOff int

	for _, off := range order {
		instr := instrs[off]
		if !started {
			start = off
			isJumpDest = instr.Op.Name == "JUMPDEST"
			started = true
		} else if instr.Op.Name == "JUMPDEST" {
			blocks = append(blocks, newBlock(idx, start, off, isJumpDest, lastOff))
			idx++
			start = off
			isJumpDest = true
		}
		lastOff = off
		if instr.Op.IsBranch || instr.Op.IsStop {
			end := off + 1 + len(instr.Immediate)
			blocks = append(blocks, newBlock(idx, start, end, isJumpDest, off))
			idx++
			started = false
		}
	}
	if started {
		last := instrs[lastOff]
		end := lastOff + 1 + len(last.Immediate)
		blocks = append(blocks, newBlock(idx, start, end, isJumpDest, lastOff))
	}
	return blocks
}
