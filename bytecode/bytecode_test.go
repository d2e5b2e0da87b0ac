package bytecode

import (
	"testing"

	"github.com/go-evm/evmdis/opcodes"
)

func TestIteratorBasic(t *testing.T) {
	// PUSH1 0x01, PUSH1 0x02, ADD, STOP
	code := []byte{0x60, 0x01, 0x60, 0x02, 0x01, 0x00}
	toks := Tokens(code)
	if len(toks) != 4 {
		t.Fatalf("got %d tokens, want 4", len(toks))
	}
	want := []struct {
		offset int
		name   string
		imm    []byte
	}{
		{0, "PUSH1", []byte{0x01}},
		{2, "PUSH1", []byte{0x02}},
		{4, "ADD", nil},
		{5, "STOP", nil},
	}
	for i, w := range want {
		tok := toks[i]
		if tok.Offset != w.offset || tok.Op.Name != w.name {
			t.Errorf("token %d = %+v, want offset=%d name=%s", i, tok, w.offset, w.name)
		}
		if string(tok.Immediate) != string(w.imm) {
			t.Errorf("token %d immediate = %v, want %v", i, tok.Immediate, w.imm)
		}
		if tok.Truncated {
			t.Errorf("token %d unexpectedly truncated", i)
		}
	}
}

func TestIteratorTruncatedPush(t *testing.T) {
	// PUSH2 with only one byte of immediate available.
	code := []byte{0x61, 0xff}
	toks := Tokens(code)
	if len(toks) != 1 {
		t.Fatalf("got %d tokens, want 1", len(toks))
	}
	tok := toks[0]
	if !tok.Truncated {
		t.Fatalf("expected truncated token, got %+v", tok)
	}
	if !tok.Op.IsUnknown {
		t.Errorf("truncated opcode not flagged unknown: %+v", tok.Op)
	}
	if string(tok.Immediate) != string([]byte{0xff}) {
		t.Errorf("immediate = %v, want [0xff]", tok.Immediate)
	}
}

func TestIteratorUnknownOpcode(t *testing.T) {
	code := []byte{0x0c} // unassigned byte between SIGNEXTEND and LT
	toks := Tokens(code)
	if len(toks) != 1 {
		t.Fatalf("got %d tokens, want 1", len(toks))
	}
	op := toks[0].Op
	if !op.IsUnknown || op.ImmediateLen != 0 || !op.IsFallThrough {
		t.Errorf("unknown opcode contract violated: %+v", op)
	}
	if op.Code != 0x0c {
		t.Errorf("Code = %#x, want 0x0c", op.Code)
	}
	_ = opcodes.ByByte(0x0c)
}

func TestEmptyCode(t *testing.T) {
	if toks := Tokens(nil); len(toks) != 0 {
		t.Errorf("Tokens(nil) = %v, want empty", toks)
	}
}
