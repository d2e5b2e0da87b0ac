package program

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/go-evm/evmdis/cfg"
	"github.com/go-evm/evmdis/disasm"
	"github.com/go-evm/evmdis/selectors"
	"github.com/go-evm/evmdis/symbolic"
)

// ReportOptions controls Program.Report's textual rendering (spec.md §6
// "Disassembly report").
type ReportOptions struct {
	// ShowUnreachable renders unreachable blocks made up only of unknown
	// opcodes as instruction lines instead of as a "Possible data section"
	// hex dump. Other unreachable blocks are always rendered in full.
	ShowUnreachable bool
	// ShowStackManipulators includes pure stack-manipulator instructions
	// (DUP/SWAP/PUSH) that are suppressed by default.
	ShowStackManipulators bool
	// Color, when true, colorizes annotation/hex-dump headers for terminal
	// output (grounded on the pack's use of github.com/fatih/color for
	// runtime diagnostics).
	Color bool
	// Registry, if non-nil, annotates PUSH4 constants matching a known
	// method selector with its human-readable name.
	Registry *selectors.Registry
}

// Report renders the full textual disassembly (spec.md §6), suitable for
// regression fixtures.
func (p *Program) Report(opts ReportOptions) string {
	var sb strings.Builder
	lookup := p.renderLookup()

	blocks := append([]*cfg.Block(nil), p.graph.Blocks...)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Idx < blocks[j].Idx })

	for _, b := range blocks {
		p.renderBlock(&sb, b, opts, lookup)
	}
	return sb.String()
}

func (p *Program) renderBlock(sb *strings.Builder, b *cfg.Block, opts ReportOptions, lookup symbolic.Lookup) {
	if b.IsJumpDest {
		fmt.Fprintf(sb, "loc_%d:\n", b.Idx)
	} else {
		fmt.Fprintf(sb, "/* Block %d */\n", b.Idx)
	}

	reachable := len(b.EntryStates()) > 0
	if !reachable && !opts.ShowUnreachable && p.onlyUnknownOpcodes(b) {
		p.renderHexDump(sb, b, opts)
		sb.WriteString("\n")
		return
	}

	if reachable {
		fmt.Fprintf(sb, "%s\n", annotate(opts, fmt.Sprintf("/* Reachable from %s */", joinIdx(predecessorIdxs(b)))))
	} else {
		fmt.Fprintf(sb, "%s\n", annotate(opts, "/* Unreachable */"))
	}
	fmt.Fprintf(sb, "%s\n", annotate(opts, fmt.Sprintf("/* Exits to: %s */", joinIdx(successorIdxs(b)))))

	for off := b.Start; off < b.End; {
		instr, ok := p.instrs[off]
		if !ok {
			break
		}
		if !opts.ShowStackManipulators && instr.Op.IsStackManipulatorOnly {
			off += 1 + len(instr.Immediate)
			continue
		}
		sb.WriteString(renderInstruction(instr, lookup, opts))
		sb.WriteString("\n")
		off += 1 + len(instr.Immediate)
	}
	sb.WriteString("\n")
}

func renderInstruction(instr *disasm.Instruction, lookup symbolic.Lookup, opts ReportOptions) string {
	var outs []string
	for _, o := range instr.Outputs {
		outs = append(outs, o.Render(lookup))
	}
	var operands []string
	for _, o := range instr.Operands {
		operands = append(operands, o.Render(lookup))
	}

	body := instr.Op.Name
	if len(instr.Operands) > 0 || len(instr.Outputs) > 0 {
		body = fmt.Sprintf("%s(%s)", instr.Op.Name, strings.Join(operands, ", "))
		if len(outs) > 0 {
			body = fmt.Sprintf("(%s) := %s", strings.Join(outs, ", "), body)
		}
	}

	line := fmt.Sprintf("%d (0x%x): %s", instr.Offset, instr.Offset, body)
	if opts.Registry != nil {
		if sel, ok := selectorFromPush4(instr); ok {
			if entry, ok := opts.Registry.Lookup(sel); ok {
				line += "  " + annotate(opts, fmt.Sprintf("/* %s */", signature(entry)))
			}
		}
	}
	return line
}

func signature(e selectors.Entry) string {
	types := make([]string, len(e.Arguments))
	for i, a := range e.Arguments {
		types[i] = a.Type
	}
	return fmt.Sprintf("%s(%s)", e.Name, strings.Join(types, ","))
}

func selectorFromPush4(instr *disasm.Instruction) ([4]byte, bool) {
	var sel [4]byte
	if instr.Op.Name != "PUSH4" || len(instr.Immediate) != 4 {
		return sel, false
	}
	copy(sel[:], instr.Immediate)
	return sel, true
}

func (p *Program) onlyUnknownOpcodes(b *cfg.Block) bool {
	saw := false
	for off := b.Start; off < b.End; {
		instr, ok := p.instrs[off]
		if !ok {
			break
		}
		if !instr.Op.IsUnknown {
			return false
		}
		saw = true
		off += 1 + len(instr.Immediate)
	}
	return saw
}

func (p *Program) renderHexDump(sb *strings.Builder, b *cfg.Block, opts ReportOptions) {
	fmt.Fprintf(sb, "%s\n", annotate(opts, "/* Possible data section: */"))
	data := p.code[b.Start:b.End]
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Fprintf(sb, "%d: % x\n", b.Start+i, data[i:end])
	}
}

func annotate(opts ReportOptions, s string) string {
	if !opts.Color {
		return s
	}
	return color.YellowString(s)
}

func predecessorIdxs(b *cfg.Block) []int {
	idxs := make([]int, len(b.Prev))
	for i, p := range b.Prev {
		idxs[i] = p.Idx
	}
	return idxs
}

func successorIdxs(b *cfg.Block) []int {
	idxs := make([]int, len(b.Next))
	for i, n := range b.Next {
		idxs[i] = n.Idx
	}
	return idxs
}

func joinIdx(idxs []int) string {
	sort.Ints(idxs)
	strs := make([]string, len(idxs))
	for i, idx := range idxs {
		strs[i] = fmt.Sprintf("%d", idx)
	}
	return strings.Join(strs, " ")
}

// renderLookup builds a symbolic.Lookup closure over p's decoded
// instructions, keeping package symbolic free of a dependency on disasm
// (spec.md §4.6).
func (p *Program) renderLookup() symbolic.Lookup {
	defs := make(map[int]symbolic.Def, len(p.order))
	for _, off := range p.order {
		instr := p.instrs[off]
		for _, o := range instr.Outputs {
			if o.IsConstant || o.Label != "" {
				continue
			}
			defs[o.Idx] = symbolic.Def{
				OpName:   instr.Op.Name,
				Infix:    instr.Op.Infix,
				Operands: instr.Operands,
			}
		}
	}
	return func(idx int) (symbolic.Def, bool) {
		d, ok := defs[idx]
		return d, ok
	}
}
