package program

import (
	"math"

	"github.com/go-evm/evmdis/disasm"
	"github.com/go-evm/evmdis/symbolic"
)

// findChildren implements spec.md §4.5: within any reachable block, a
// CODECOPY with three constant operands followed (in linear offset order,
// not CFG order) by the next stop instruction. If that stop is specifically
// a RETURN with two constant operands, the corresponding byte range is
// extracted and recursively analyzed. Grounded on
// original_source/src/Program.cc's Program::findCreatedContracts, which
// scans every CODECOPY instruction and then walks forward by instruction
// index to the next opcode.isStop().
func findChildren(p *Program, conf Config, depth int) ([]*Program, []Issue) {
	var children []*Program
	var issues []Issue

	for _, off := range p.order {
		instr := p.instrs[off]
		if instr.Op.Name != "CODECOPY" {
			continue
		}
		if !reachable(p, off) {
			continue
		}

		memLoc, memOK := asNonNegativeInt(instr.Operands[0])
		codeOffset, codeOK := asNonNegativeInt(instr.Operands[1])
		size, sizeOK := asNonNegativeInt(instr.Operands[2])
		if !memOK || !codeOK || !sizeOK {
			continue
		}

		ret, ok := nextStop(p, off)
		if !ok {
			continue
		}
		if ret.Op.Name != "RETURN" {
			// Any other stop terminates the search for this CODECOPY
			// without emitting a child (spec.md §4.5).
			continue
		}

		retLoc, retLocOK := asNonNegativeInt(ret.Operands[0])
		retSize, retSizeOK := asNonNegativeInt(ret.Operands[1])
		if !retLocOK || !retSizeOK {
			issues = append(issues, Issue{
				Offset:  ret.Offset,
				Message: "malformed child extraction: RETURN operands following a constant CODECOPY are not constant",
			})
			continue
		}

		start := codeOffset + (retLoc - memLoc)
		end := start + retSize
		if start < 0 {
			start = 0
		}
		if end > len(p.code) {
			end = len(p.code)
		}
		if start >= end {
			issues = append(issues, Issue{
				Offset:  instr.Offset,
				Message: "malformed child extraction: computed byte range is empty",
			})
			continue
		}

		childCode := append([]byte(nil), p.code[start:end]...)
		child := analyze(childCode, conf, depth+1)
		if child.Valid() {
			children = append(children, child)
		}
	}

	return children, issues
}

// reachable reports whether the block containing off has at least one entry
// stack state, per spec.md §4.5 "within any reachable block".
func reachable(p *Program, off int) bool {
	for _, b := range p.graph.Blocks {
		if off >= b.Start && off < b.End {
			return len(b.EntryStates()) > 0
		}
	}
	return false
}

// nextStop scans forward in linear offset order from (and including) off+1
// for the first stop-category instruction, per the §9 Open Question
// decision to preserve the reference's linear-offset-order heuristic rather
// than "fix" it.
func nextStop(p *Program, off int) (*disasm.Instruction, bool) {
	idx := indexOf(p.order, off)
	if idx < 0 {
		return nil, false
	}
	for _, next := range p.order[idx+1:] {
		instr := p.instrs[next]
		if instr.Op.IsStop {
			return instr, true
		}
	}
	return nil, false
}

func indexOf(order []int, off int) int {
	for i, o := range order {
		if o == off {
			return i
		}
	}
	return -1
}

// asNonNegativeInt decodes a constant symbolic value as a non-negative int,
// mirroring original_source/src/Program.cc's getInt64FromVec: values wider
// than 8 bytes or that would overflow a signed 64-bit integer are rejected.
func asNonNegativeInt(v symbolic.Value) (int, bool) {
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
