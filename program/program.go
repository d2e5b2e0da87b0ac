// Package program is the top-level driver (spec.md §3 "Program"): it wires
// disasm.Decode, cfg.Build, and exec.Run into one analysis, discovers child
// programs (§4.5), and exposes the report-facing accessor surface of §6.
// Grounded on the teacher's wasm.Module / compile.Module as the "one
// constructor owns everything" top-level type, adapted from a WASM module's
// section-by-section parse to a single bytecode buffer's decode/CFG/execute
// pipeline.
package program

import (
	"github.com/pkg/errors"

	"github.com/go-evm/evmdis/cfg"
	"github.com/go-evm/evmdis/disasm"
	"github.com/go-evm/evmdis/exec"
	"github.com/go-evm/evmdis/symbolic"
)

// Symbol is a symbol-table entry (spec.md §3 "Symbol table").
type Symbol = symbolic.SymbolInfo

// Program owns one analyzed bytecode buffer: its decoded instructions, CFG,
// symbol table, issue log, and any child programs discovered within it
// (spec.md §3 "Program").
type Program struct {
	code   []byte
	instrs map[int]*disasm.Instruction
	order  []int
	graph  *cfg.Graph
	symtab *symbolic.SymbolTable
	issues []Issue

	children []*Program
}

// Analyze decodes code, builds its CFG, runs the symbolic executor to
// completion, and recursively searches for child programs (bounded by
// conf.MaxChildDepth). It returns a non-nil error only for programmer
// misconfiguration; every bytecode-shape problem becomes an Issue instead
// (spec.md §7).
func Analyze(code []byte, conf Config) (*Program, error) {
	conf = conf.normalize()
	if conf.MaxChildDepth < 0 {
		return nil, errors.New("program: Config.MaxChildDepth must not be negative")
	}
	return analyze(code, conf, 0), nil
}

func analyze(code []byte, conf Config, depth int) *Program {
	ids := &symbolic.Counter{}
	symtab := symbolic.NewSymbolTable()
	instrs, order := disasm.Decode(code, ids, symtab)
	graph, buildIssues := cfg.Build(instrs, order)
	execIssues := exec.Run(graph, instrs, ids, logger)

	p := &Program{
		code:   code,
		instrs: instrs,
		order:  order,
		graph:  graph,
		symtab: symtab,
	}
	// cfg.Build's initial pass and exec.Run's late resolution can both
	// resolve the same branch (e.g. an already-constant operand the first
	// pass already saw); dedup so a stable jump doesn't double-report.
	seen := make(map[cfg.Issue]bool)
	for _, i := range buildIssues {
		if !seen[i] {
			seen[i] = true
			p.issues = append(p.issues, Issue{Offset: i.Offset, Message: i.Message})
		}
	}
	for _, i := range execIssues {
		if !seen[i] {
			seen[i] = true
			p.issues = append(p.issues, Issue{Offset: i.Offset, Message: i.Message})
		}
	}

	if !p.Valid() {
		return p
	}
	if depth >= conf.MaxChildDepth {
		p.issues = append(p.issues, Issue{
			Offset:  0,
			Message: "child recursion depth limit reached; not searching for further child programs",
		})
		return p
	}

	children, childIssues := findChildren(p, conf, depth)
	p.children = children
	p.issues = append(p.issues, childIssues...)

	logger.Printf("analyzed %d bytes: %d instructions, %d blocks, %d issues, %d children",
		len(code), len(p.order), len(p.graph.Blocks), len(p.issues), len(p.children))

	return p
}

// Nodes returns the ordered offset->block table (spec.md §6).
func (p *Program) Nodes() *cfg.OrderedBlocks { return cfg.NewOrderedBlocks(p.graph) }

// Instructions returns the ordered offset->instruction table (spec.md §6).
func (p *Program) Instructions() *disasm.OrderedInstructions {
	return disasm.NewOrderedInstructions(p.instrs, p.order)
}

// Symbols returns every recorded symbol keyed by its idx (spec.md §6).
func (p *Program) Symbols() map[uint64]*Symbol {
	out := make(map[uint64]*Symbol)
	for _, s := range p.symtab.All() {
		s := s
		out[uint64(s.Idx)] = &s
	}
	return out
}

// Issues returns the accumulated analysis issues, in discovery order
// (spec.md §6).
func (p *Program) Issues() []Issue { return p.issues }

// CreatedContracts returns the child programs discovered via the
// CODECOPY/RETURN pattern (spec.md §4.5, §6).
func (p *Program) CreatedContracts() []*Program { return p.children }

// Valid reports whether this program decoded at least one instruction
// (spec.md §7: "a Program with zero decoded instructions is considered
// invalid"). E1's empty-bytecode scenario is the canonical invalid program.
func (p *Program) Valid() bool { return len(p.order) > 0 }

// Bytecode returns the analyzed byte sequence.
func (p *Program) Bytecode() []byte { return p.code }

// Reset clears every block's next/prev references, mirroring spec.md §5's
// arena-teardown discipline (Go's GC reclaims the cyclic block graph without
// this, but it documents the ownership boundary and lets tests assert no
// stale back-references survive recursive child analysis).
func (p *Program) Reset() {
	for _, b := range p.graph.Blocks {
		b.Clear()
	}
	for _, c := range p.children {
		c.Reset()
	}
}
