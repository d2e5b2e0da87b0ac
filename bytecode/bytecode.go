// Package bytecode turns a raw EVM code buffer into a sequence of
// (offset, opcode, immediate) triples, the unit disasm builds Instructions
// from. Grounded on the byte-at-a-time iterator in wagon's disasm/disasm.go,
// adapted from a streaming io.Reader loop to a random-access slice walk
// since EVM jump targets require offset-addressable code up front.
package bytecode

import "github.com/go-evm/evmdis/opcodes"

// Token is one decoded opcode occurrence: its offset in the code buffer,
// the opcode descriptor, and any immediate bytes following it.
//
// Truncated reports whether the code ended before ImmediateLen bytes of
// immediate data were available; Immediate then holds whatever bytes were
// actually present (zero-padded is not performed — callers see exactly what
// was there).
type Token struct {
	Offset    int
	Op        opcodes.Op
	Immediate []byte
	Truncated bool
}

// Iterator walks a code buffer one opcode at a time.
type Iterator struct {
	code []byte
	pos  int
}

// NewIterator returns an Iterator over code starting at offset 0.
func NewIterator(code []byte) *Iterator {
	return &Iterator{code: code}
}

// Done reports whether the iterator has consumed the whole buffer.
func (it *Iterator) Done() bool { return it.pos >= len(it.code) }

// Next decodes the opcode at the current position and advances past it and
// its immediate data. It returns false once the buffer is exhausted.
func (it *Iterator) Next() (Token, bool) {
	if it.Done() {
		return Token{}, false
	}
	offset := it.pos
	op := opcodes.ByByte(it.code[offset])
	it.pos++

	tok := Token{Offset: offset, Op: op}
	if op.ImmediateLen > 0 {
		end := it.pos + op.ImmediateLen
		if end > len(it.code) {
			tok.Immediate = it.code[it.pos:]
			tok.Truncated = true
			tok.Op.IsUnknown = true
			it.pos = len(it.code)
		} else {
			tok.Immediate = it.code[it.pos:end]
			it.pos = end
		}
	}
	return tok, true
}

// Tokens decodes the entire buffer into a slice, in offset order.
func Tokens(code []byte) []Token {
	it := NewIterator(code)
	var out []Token
	for {
		tok, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, tok)
	}
	return out
}
