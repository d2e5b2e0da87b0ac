// Package symbolic defines the stack-entry representation the analyzer
// tracks: values are either constants (with a big-endian byte vector) or
// opaque symbolic identifiers tied to the instruction that produced them.
// Grounded on spec.md §3 "Symbolic value" and original_source/src/Program.h's
// CFStackEntry, adapted from that struct's six hand-written comparison
// operators into a single Compare method in the Go idiom.
package symbolic

import (
	"bytes"
	"fmt"

	"github.com/holiman/uint256"
)

// Value is one stack entry: either a constant or a symbolic reference to the
// instruction that produced it. Two values with the same Idx denote the
// same definition (spec.md §3).
type Value struct {
	Idx           int
	Label         string
	IsConstant    bool
	ConstantValue []byte
}

// Const returns a constant Value holding n's minimal big-endian
// representation (at least one byte), with the given program-wide idx.
func Const(idx int, n *uint256.Int) Value {
	return Value{Idx: idx, IsConstant: true, ConstantValue: trimmedBytes(n)}
}

// Argument returns a synthesized "argument" filler for an underflowing pop,
// per spec.md §4.1 step 2.
func Argument(idx int) Value {
	return Value{Idx: idx, Label: "argument"}
}

// Symbolic returns a fresh, non-constant, unlabeled value.
func Symbolic(idx int) Value {
	return Value{Idx: idx}
}

func trimmedBytes(n *uint256.Int) []byte {
	b := n.Bytes()
	if len(b) == 0 {
		return []byte{0}
	}
	return b
}

// AsUint256 decodes v's constant value as a 256-bit integer. Only valid
// when v.IsConstant.
func (v Value) AsUint256() *uint256.Int {
	return new(uint256.Int).SetBytes(v.ConstantValue)
}

// Equal reports whether v and other denote the same stack entry, per
// spec.md §3's (idx, label, isConstant, constantValue) tuple.
func (v Value) Equal(other Value) bool {
	return v.Compare(other) == 0
}

// Compare gives the total order over Values spec.md §3 requires:
// lexicographic over (idx, label, isConstant, constantValue).
func (v Value) Compare(other Value) int {
	if v.Idx != other.Idx {
		return cmpInt(v.Idx, other.Idx)
	}
	if v.Label != other.Label {
		return cmpString(v.Label, other.Label)
	}
	if v.IsConstant != other.IsConstant {
		if !v.IsConstant {
			return -1
		}
		return 1
	}
	return bytes.Compare(v.ConstantValue, other.ConstantValue)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (v Value) String() string {
	if v.IsConstant {
		return fmt.Sprintf("0x%x", v.ConstantValue)
	}
	if v.Label != "" {
		return fmt.Sprintf("%s#%d", v.Label, v.Idx)
	}
	return fmt.Sprintf("v%d", v.Idx)
}

// maxRenderDepth bounds Render's recursion; the symbol graph is a DAG per
// spec.md §4.6, but dup/swap rewiring can reintroduce older ids, so the
// bound is defensive rather than load-bearing.
const maxRenderDepth = 64

// Def is the defining-instruction data Render needs for one symbolic idx:
// the opcode's name and infix hint, and the operands it was computed from.
// disasm.Instruction satisfies this shape via a Lookup closure, keeping
// this package free of a dependency on disasm.
type Def struct {
	OpName   string
	Infix    string
	Operands []Value
}

// Lookup resolves the instruction that produced the output with the given
// idx, if any (e.g. block-entry arguments have no definition).
type Lookup func(idx int) (Def, bool)

// Render walks v's defining instruction recursively, producing a source-like
// expression: constants and labeled values print literally; otherwise the
// opcode's infix form for binary/unary operators, or name(op1, op2, …) in
// functional form. See spec.md §4.6.
func (v Value) Render(lookup Lookup) string {
	return v.render(lookup, 0)
}

func (v Value) render(lookup Lookup, depth int) string {
	if v.IsConstant || v.Label != "" || depth >= maxRenderDepth {
		return v.String()
	}
	def, ok := lookup(v.Idx)
	if !ok {
		return v.String()
	}
	rendered := make([]string, len(def.Operands))
	for i, op := range def.Operands {
		rendered[i] = op.render(lookup, depth+1)
	}
	if def.Infix != "" {
		switch len(rendered) {
		case 1:
			return fmt.Sprintf("%s%s", def.Infix, rendered[0])
		case 2:
			return fmt.Sprintf("(%s %s %s)", rendered[0], def.Infix, rendered[1])
		}
	}
	return fmt.Sprintf("%s(%s)", def.OpName, joinArgs(rendered))
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}
