// Package disasm performs the linear first pass of spec.md §4.1: it walks a
// code buffer into per-offset Instruction records, synthesizing "argument"
// fillers for stack underflow and applying the same local simplification
// (dup/swap rewiring, constant folding) the symbolic executor later redoes
// per path. Grounded on the overall shape of wagon's disasm.Disassemble (one
// exported entry point building an instruction list while tracking a running
// stack-depth abstraction) and on original_source/src/Program.cc's
// Program::fillInstructions for the exact underflow/simplify ordering.
package disasm

import (
	"github.com/go-evm/evmdis/bytecode"
	"github.com/go-evm/evmdis/internal/assert"
	"github.com/go-evm/evmdis/opcodes"
	"github.com/go-evm/evmdis/symbolic"
	"github.com/holiman/uint256"
)

// Instruction is the decoded record for one opcode occurrence: its offset,
// opcode descriptor, immediate bytes, and the operand/output values assigned
// during this first pass (spec.md §3 "Instruction", §9's "shared-mutable
// instruction records" design note — these fields are never mutated again;
// exec carries its own per-path state instead, see DESIGN.md).
type Instruction struct {
	Offset    int
	Op        opcodes.Op
	Immediate []byte
	Truncated bool
	Operands  []symbolic.Value
	Outputs   []symbolic.Value
}

// Decode walks code linearly, producing one Instruction per opcode and
// registering symbol definitions/uses along the way. It returns the
// instructions keyed by offset and the offsets in ascending order.
func Decode(code []byte, ids *symbolic.Counter, symtab *symbolic.SymbolTable) (map[int]*Instruction, []int) {
	instrs := make(map[int]*Instruction)
	var order []int

	var scratch symbolic.Stack
	argCounter := 0

	for _, tok := range bytecode.Tokens(code) {
		if tok.Op.Name == "JUMPDEST" {
			argCounter = 0
			scratch = nil
		}

		instr := &Instruction{
			Offset:    tok.Offset,
			Op:        tok.Op,
			Immediate: tok.Immediate,
			Truncated: tok.Truncated,
		}

		var operands, outputs []symbolic.Value
		operands, outputs, scratch = Step(instr, scratch, &argCounter, ids)
		instr.Operands, instr.Outputs = operands, outputs
		registerSymbols(instr, symtab)

		instrs[tok.Offset] = instr
		order = append(order, tok.Offset)
	}

	return instrs, order
}

// OrderedInstructions is the report-facing view of a Decode result, ordered
// by offset (spec.md §6 "Instructions(): ordered map offset -> instruction").
type OrderedInstructions struct {
	instrs map[int]*Instruction
	order  []int
}

// NewOrderedInstructions wraps instrs/order (as returned by Decode) for
// ordered, read-only access.
func NewOrderedInstructions(instrs map[int]*Instruction, order []int) *OrderedInstructions {
	return &OrderedInstructions{instrs: instrs, order: order}
}

// Len returns the number of decoded instructions.
func (o *OrderedInstructions) Len() int { return len(o.order) }

// At returns the i'th instruction in ascending-offset order.
func (o *OrderedInstructions) At(i int) *Instruction { return o.instrs[o.order[i]] }

// Get looks up the instruction at offset.
func (o *OrderedInstructions) Get(offset int) (*Instruction, bool) {
	instr, ok := o.instrs[offset]
	return instr, ok
}

// Step applies one instruction to a stack, returning the operands it
// popped, the outputs it pushed, and the resulting stack. It does not touch
// instr.Operands/Outputs — those are set once, by Decode's first pass, and
// remain the §4.1 values for the lifetime of the Instruction. The symbolic
// executor (package exec) calls Step directly to simulate a block per path,
// keeping each visit's operand/output identities independent of both the
// first pass and of every other path (see spec.md §4.4, §9 "shared-mutable
// instruction records").
func Step(instr *Instruction, stack symbolic.Stack, argCounter *int, ids *symbolic.Counter) (operands, outputs []symbolic.Value, next symbolic.Stack) {
	op := instr.Op

	operands = make([]symbolic.Value, op.StackIn)
	for i := 0; i < op.StackIn; i++ {
		var v symbolic.Value
		var ok bool
		stack, v, ok = stack.Pop()
		if !ok {
			v = symbolic.Argument(*argCounter)
			*argCounter++
		}
		operands[i] = v
	}

	outputs = make([]symbolic.Value, op.StackOut)
	for i := 0; i < op.StackOut; i++ {
		outputs[i] = symbolic.Symbolic(ids.Next())
	}
	if opcodes.IsPush(op.Code) {
		outputs[0] = symbolic.Const(outputs[0].Idx, new(uint256.Int).SetBytes(instr.Immediate))
	}

	simplify(op, operands, outputs)

	for i := len(outputs) - 1; i >= 0; i-- {
		stack = stack.Push(outputs[i])
	}
	return operands, outputs, stack
}

// simplify applies spec.md §4.1 step 4 in place on outputs: dup/swap
// identity rewiring, and constant folding for arithmetic opcodes whose
// operands are all constant.
func simplify(op opcodes.Op, operands, outputs []symbolic.Value) {
	switch {
	case op.DupNum > 0:
		k := op.DupNum
		assert.Invariant(len(operands) == k && len(outputs) == k+1, "DUP%d: bad arity", k)
		outputs[0] = operands[k-1]
		for i := 1; i <= k; i++ {
			outputs[i] = operands[i-1]
		}
	case op.SwapNum > 0:
		k := op.SwapNum
		assert.Invariant(len(operands) == k+1 && len(outputs) == k+1, "SWAP%d: bad arity", k)
		outputs[0] = operands[k]
		outputs[k] = operands[0]
		for i := 1; i < k; i++ {
			outputs[i] = operands[i]
		}
	case op.IsArithmetic && op.Solve != nil && allConstant(operands):
		ins := make([]*uint256.Int, len(operands))
		for i, v := range operands {
			ins[i] = v.AsUint256()
		}
		assert.Invariant(len(outputs) >= 1, "%s: arithmetic opcode with no output", op.Name)
		result := op.Solve(ins)
		outputs[0] = symbolic.Const(outputs[0].Idx, result)
	}
}

func allConstant(vs []symbolic.Value) bool {
	if len(vs) == 0 {
		return false
	}
	for _, v := range vs {
		if !v.IsConstant {
			return false
		}
	}
	return true
}

func registerSymbols(instr *Instruction, symtab *symbolic.SymbolTable) {
	for _, o := range instr.Outputs {
		if !o.IsConstant && o.Label == "" {
			symtab.Define(o.Idx, instr.Offset)
		}
	}
	if instr.Op.IsStackManipulatorOnly {
		return
	}
	for _, in := range instr.Operands {
		// Synthesized "argument" fillers carry a local id that can coincide
		// with a global symbol id, so they are never recorded as uses.
		if in.Label != "" {
			continue
		}
		symtab.Use(in.Idx, instr.Offset)
	}
}
