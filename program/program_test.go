package program

import (
	"strings"
	"testing"
)

func TestAnalyzeEmptyBytecodeIsInvalid(t *testing.T) {
	// E1.
	p, err := Analyze(nil, Config{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if p.Valid() {
		t.Errorf("empty bytecode produced a valid program")
	}
	if p.Nodes().Len() != 0 {
		t.Errorf("empty bytecode produced blocks")
	}
	if p.Instructions().Len() != 0 {
		t.Errorf("empty bytecode produced instructions")
	}
	if len(p.CreatedContracts()) != 0 {
		t.Errorf("empty bytecode produced children")
	}
}

func TestAnalyzeNegativeDepthIsConfigError(t *testing.T) {
	_, err := Analyze([]byte{0x00}, Config{MaxChildDepth: -1})
	if err == nil {
		t.Fatalf("Analyze() with negative MaxChildDepth returned nil error")
	}
}

func TestAnalyzeSingleStop(t *testing.T) {
	// E2.
	p, err := Analyze([]byte{0x00}, Config{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !p.Valid() {
		t.Fatalf("single STOP program reported invalid")
	}
	if p.Nodes().Len() != 1 {
		t.Fatalf("got %d blocks, want 1", p.Nodes().Len())
	}
	b := p.Nodes().At(0)
	if b.IsJumpDest {
		t.Errorf("single STOP block reported as jump dest")
	}
	if len(b.Next) != 0 {
		t.Errorf("single STOP block has successors: %v", b.Next)
	}
}

func TestAnalyzeDiscoversChildContract(t *testing.T) {
	// Constructor: PUSH1 <size> PUSH1 <codeOffset> PUSH1 0 CODECOPY
	//              PUSH1 <size> PUSH1 0 RETURN
	// Child runtime bytecode: STOP (one byte, at codeOffset).
	child := []byte{0x00}
	const ctorLen = 12 // 5 PUSH1s (2 bytes each) + CODECOPY + RETURN
	codeOffset := byte(ctorLen)
	size := byte(len(child))
	ctor := []byte{
		0x60, size, // PUSH1 size
		0x60, codeOffset, // PUSH1 codeOffset
		0x60, 0x00, // PUSH1 0 (memLoc)
		0x39,       // CODECOPY
		0x60, size, // PUSH1 size (retSize)
		0x60, 0x00, // PUSH1 0 (retLoc)
		0xf3, // RETURN
	}
	code := append(append([]byte(nil), ctor...), child...)

	p, err := Analyze(code, Config{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	children := p.CreatedContracts()
	if len(children) != 1 {
		t.Fatalf("got %d children, want 1 (issues: %v)", len(children), p.Issues())
	}
	if !children[0].Valid() {
		t.Errorf("discovered child program is invalid")
	}
}

func TestAnalyzeEmptyExtractedRangeProducesIssue(t *testing.T) {
	// CODECOPY(memLoc=0, codeOffset=12, size=1); RETURN(retLoc=0, retSize=0)
	// -- a zero-size RETURN yields an empty extracted range.
	code := []byte{
		0x60, 0x01, // PUSH1 1  (size)
		0x60, 12, // PUSH1 12 (codeOffset)
		0x60, 0x00, // PUSH1 0  (memLoc)
		0x39,       // CODECOPY
		0x60, 0x00, // PUSH1 0 (retSize)
		0x60, 0x00, // PUSH1 0 (retLoc)
		0xf3, // RETURN
		0x00, // (unreachable filler byte so codeOffset 12 is in-bounds)
	}
	p, err := Analyze(code, Config{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(p.CreatedContracts()) != 0 {
		t.Fatalf("expected no children from an empty extracted range, got %d", len(p.CreatedContracts()))
	}
	found := false
	for _, issue := range p.Issues() {
		if strings.Contains(issue.Message, "empty") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an empty-range issue, got: %v", p.Issues())
	}
}

func TestAnalyzeNonConstantReturnOperandsProduceIssue(t *testing.T) {
	// CODECOPY has three constant operands, but the RETURN that follows it
	// derives its size operand from GAS, so the extraction cannot proceed.
	const ctorLen = 11 // PUSH1 size, PUSH1 codeOffset, PUSH1 0, CODECOPY, GAS, PUSH1 0, RETURN
	codeOffset := byte(ctorLen)
	size := byte(1)
	code := []byte{
		0x60, size, // PUSH1 size
		0x60, codeOffset, // PUSH1 codeOffset
		0x60, 0x00, // PUSH1 0 (memLoc)
		0x39, // CODECOPY
		0x5a, // GAS (non-constant retSize)
		0x60, 0x00, // PUSH1 0 (retLoc)
		0xf3, // RETURN
		0x00, // child runtime byte, kept in bounds
	}
	p, err := Analyze(code, Config{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(p.CreatedContracts()) != 0 {
		t.Fatalf("expected no children from non-constant RETURN operands, got %d", len(p.CreatedContracts()))
	}
	found := false
	for _, issue := range p.Issues() {
		if strings.Contains(issue.Message, "are not constant") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a non-constant RETURN operand issue, got: %v", p.Issues())
	}
}

func TestAnalyzeChildDepthLimit(t *testing.T) {
	child := []byte{0x00}
	const ctorLen = 12 // 5 PUSH1s (2 bytes each) + CODECOPY + RETURN
	codeOffset := byte(ctorLen)
	size := byte(len(child))
	ctor := []byte{
		0x60, size,
		0x60, codeOffset,
		0x60, 0x00,
		0x39,
		0x60, size,
		0x60, 0x00,
		0xf3,
	}
	code := append(append([]byte(nil), ctor...), child...)

	p, err := Analyze(code, Config{MaxChildDepth: 1})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(p.CreatedContracts()) != 1 {
		t.Fatalf("top-level analysis (depth 0 < limit 1) should still search for children")
	}
	childProgram := p.CreatedContracts()[0]
	if len(childProgram.CreatedContracts()) != 0 {
		t.Errorf("depth-1 child should not itself search for children once the limit is reached")
	}
	foundLimitIssue := false
	for _, issue := range childProgram.Issues() {
		if strings.Contains(issue.Message, "depth limit") {
			foundLimitIssue = true
		}
	}
	if !foundLimitIssue {
		t.Errorf("child program missing a depth-limit issue: %v", childProgram.Issues())
	}
}

func TestReportSuppressesStackManipulatorsByDefault(t *testing.T) {
	p, err := Analyze([]byte{0x60, 0x01, 0x60, 0x02, 0x01, 0x00}, Config{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	report := p.Report(ReportOptions{})
	if strings.Contains(report, "PUSH1") {
		t.Errorf("report unexpectedly included a suppressed PUSH1 line:\n%s", report)
	}
	if !strings.Contains(report, "ADD") {
		t.Errorf("report missing ADD instruction:\n%s", report)
	}
}

func TestReportShowsStackManipulatorsWhenRequested(t *testing.T) {
	p, err := Analyze([]byte{0x60, 0x01, 0x00}, Config{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	report := p.Report(ReportOptions{ShowStackManipulators: true})
	if !strings.Contains(report, "PUSH1") {
		t.Errorf("report missing requested PUSH1 line:\n%s", report)
	}
}

func TestInvalidJumpProducesIssue(t *testing.T) {
	// E5.
	p, err := Analyze([]byte{0x60, 0x02, 0x56, 0x00}, Config{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	issues := p.Issues()
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1: %v", len(issues), issues)
	}
	if issues[0].Offset != 2 {
		t.Errorf("issue offset = %d, want 2", issues[0].Offset)
	}
}

func TestResetClearsBlockEdges(t *testing.T) {
	// E4: PUSH1 3; JUMP; JUMPDEST; STOP -- the JUMPDEST sits at offset 3.
	p, err := Analyze([]byte{0x60, 0x03, 0x56, 0x5b, 0x00}, Config{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(p.Nodes().At(0).Next) == 0 {
		t.Fatalf("expected an edge before Reset")
	}
	p.Reset()
	for i := 0; i < p.Nodes().Len(); i++ {
		b := p.Nodes().At(i)
		if len(b.Next) != 0 || len(b.Prev) != 0 {
			t.Errorf("block %d retained edges after Reset: next=%v prev=%v", b.Idx, b.Next, b.Prev)
		}
	}
}
