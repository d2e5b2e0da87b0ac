package opcodes

import (
	"testing"

	"github.com/holiman/uint256"
)

func u(n uint64) *uint256.Int { return uint256.NewInt(n) }

func TestByByteArity(t *testing.T) {
	cases := []struct {
		code     byte
		name     string
		in, out  int
		immLen   int
	}{
		{STOP, "STOP", 0, 0, 0},
		{ADD, "ADD", 2, 1, 0},
		{PUSH1, "PUSH1", 0, 1, 1},
		{byte(PUSH1 + 31), "PUSH32", 0, 1, 32},
		{DUP1, "DUP1", 1, 2, 0},
		{byte(SWAP1 + 15), "SWAP16", 17, 17, 0},
		{JUMP, "JUMP", 1, 0, 0},
		{JUMPI, "JUMPI", 2, 0, 0},
	}
	for _, c := range cases {
		op := ByByte(c.code)
		if op.Name != c.name || op.StackIn != c.in || op.StackOut != c.out || op.ImmediateLen != c.immLen {
			t.Errorf("ByByte(%#x) = %+v, want name=%s in=%d out=%d imm=%d", c.code, op, c.name, c.in, c.out, c.immLen)
		}
	}
}

func TestUnknownOpcodeContract(t *testing.T) {
	op := ByByte(0x0c)
	if !op.IsUnknown || op.StackIn != 0 || op.StackOut != 0 || op.ImmediateLen != 0 || !op.IsFallThrough {
		t.Errorf("unknown opcode contract violated: %+v", op)
	}
}

func TestStopNeverFallsThrough(t *testing.T) {
	for i := 0; i < 256; i++ {
		op := ByByte(byte(i))
		if op.IsStop && op.IsFallThrough {
			t.Errorf("opcode %#x: stop and fall-through both set", i)
		}
		if !op.IsBranch && !op.IsStop && !op.IsFallThrough {
			t.Errorf("opcode %#x: neither branch, stop, nor fall-through", i)
		}
	}
}

func TestJumpiIsBranchAndFallThrough(t *testing.T) {
	// JUMPI closes its block like any branch, but a false condition falls
	// through to the next instruction -- both flags must be set.
	op := ByByte(JUMPI)
	if !op.IsBranch || !op.IsFallThrough {
		t.Errorf("JUMPI = %+v, want IsBranch=true IsFallThrough=true", op)
	}
	if jump := ByByte(JUMP); jump.IsFallThrough {
		t.Errorf("JUMP must not be fall-through: %+v", jump)
	}
}

func TestDupSwapNum(t *testing.T) {
	if op := ByByte(DUP1); op.DupNum != 1 {
		t.Errorf("DUP1.DupNum = %d, want 1", op.DupNum)
	}
	if op := ByByte(byte(DUP1 + 15)); op.DupNum != 16 {
		t.Errorf("DUP16.DupNum = %d, want 16", op.DupNum)
	}
	if op := ByByte(SWAP1); op.SwapNum != 1 {
		t.Errorf("SWAP1.SwapNum = %d, want 1", op.SwapNum)
	}
	if op := ByByte(ADD); op.DupNum != -1 || op.SwapNum != -1 {
		t.Errorf("ADD should have DupNum=SwapNum=-1, got %+v", op)
	}
}

func TestSolveArithmetic(t *testing.T) {
	cases := []struct {
		code byte
		ops  []*uint256.Int
		want uint64
	}{
		{ADD, []*uint256.Int{u(2), u(3)}, 5},
		{SUB, []*uint256.Int{u(5), u(3)}, 2},
		{MUL, []*uint256.Int{u(4), u(5)}, 20},
		{DIV, []*uint256.Int{u(10), u(3)}, 3},
		{LT, []*uint256.Int{u(2), u(3)}, 1},
		{GT, []*uint256.Int{u(2), u(3)}, 0},
		{EQ, []*uint256.Int{u(7), u(7)}, 1},
		{ISZERO, []*uint256.Int{u(0)}, 1},
		{AND, []*uint256.Int{u(0xff), u(0x0f)}, 0x0f},
		{SHL, []*uint256.Int{u(4), u(1)}, 16},
		{SHR, []*uint256.Int{u(1), u(16)}, 8},
	}
	for _, c := range cases {
		op := ByByte(c.code)
		if op.Solve == nil {
			t.Fatalf("%s: no Solve function", op.Name)
		}
		got := op.Solve(c.ops)
		if !got.Eq(u(c.want)) {
			t.Errorf("%s%v = %v, want %d", op.Name, c.ops, got, c.want)
		}
	}
}

func TestByteOpcode(t *testing.T) {
	// byte index 31 (least significant byte) of 0x01 is 0x01; index 0 is 0x00.
	op := ByByte(BYTE)
	got := op.Solve([]*uint256.Int{u(31), u(1)})
	if !got.Eq(u(1)) {
		t.Errorf("BYTE(31, 1) = %v, want 1", got)
	}
	got = op.Solve([]*uint256.Int{u(0), u(1)})
	if !got.Eq(u(0)) {
		t.Errorf("BYTE(0, 1) = %v, want 0", got)
	}
}

func TestIsPush(t *testing.T) {
	if !IsPush(PUSH0) || !IsPush(PUSH1) || !IsPush(byte(PUSH1+31)) {
		t.Error("IsPush false negative")
	}
	if IsPush(ADD) || IsPush(DUP1) {
		t.Error("IsPush false positive")
	}
}
