// Package cfg segments decoded instructions into basic blocks and links
// them into a control-flow graph, per spec.md §4.2-§4.3. Grounded on
// original_source/src/Program.cc's Program::initGraph (segmentation) and
// Program::startGraph (initial edge discovery).
package cfg

import (
	"fmt"
	"strings"

	"github.com/go-evm/evmdis/symbolic"
)

// Path is a sequence of block indices describing one way to reach a block
// from the entry block (spec.md §3 "Basic block").
type Path []int

func (p Path) key() string {
	var sb strings.Builder
	for _, idx := range p {
		fmt.Fprintf(&sb, "%d,", idx)
	}
	return sb.String()
}

// Append returns a new Path with idx appended; p itself is left unmodified.
func (p Path) Append(idx int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, idx)
}

// StackState pairs one possible symbolic stack with the set of paths that
// reach it (spec.md §3: `map<Stack, set<Path>>`).
type StackState struct {
	Stack symbolic.Stack
	Paths []Path
}

func stackKey(s symbolic.Stack) string {
	var sb strings.Builder
	for _, v := range s {
		fmt.Fprintf(&sb, "%d|%s|%t|%x;", v.Idx, v.Label, v.IsConstant, v.ConstantValue)
	}
	return sb.String()
}

// stateMap is the map<Stack, set<Path>> representation: a Stack isn't a
// comparable Go type, so entries are indexed by a canonical string key that
// encodes the same (idx, label, isConstant, constantValue) tuple per value
// that symbolic.Value.Compare uses.
type stateMap struct {
	byKey map[string]*StackState
}

func newStateMap() *stateMap {
	return &stateMap{byKey: make(map[string]*StackState)}
}

// add unions path into the state for stack, creating the entry if this is
// the first time stack has been seen. Returns true if this (stack, path)
// pair was new.
func (m *stateMap) add(stack symbolic.Stack, path Path) bool {
	key := stackKey(stack)
	entry, ok := m.byKey[key]
	if !ok {
		entry = &StackState{Stack: stack.Clone()}
		m.byKey[key] = entry
	}
	pk := path.key()
	for _, p := range entry.Paths {
		if p.key() == pk {
			return false
		}
	}
	entry.Paths = append(entry.Paths, path)
	return true
}

func (m *stateMap) snapshot() []StackState {
	out := make([]StackState, 0, len(m.byKey))
	for _, e := range m.byKey {
		out = append(out, *e)
	}
	return out
}

func (m *stateMap) len() int { return len(m.byKey) }

// Block is a maximal straight-line instruction sequence (spec.md §3 "Basic
// block" / GLOSSARY). Next/Prev hold pointers into the owning Graph's Blocks
// slice, forming a cyclic graph by design (spec.md §5).
type Block struct {
	Idx        int
	Start, End int
	IsJumpDest bool
	Next       []*Block
	Prev       []*Block

	// term is the offset of this block's terminating instruction, used by
	// the CFG builder to decide fall-through/branch edges.
	term int

	entry *stateMap
	exit  *stateMap
}

func newBlock(idx, start, end int, isJumpDest bool, term int) *Block {
	return &Block{
		Idx:        idx,
		Start:      start,
		End:        end,
		IsJumpDest: isJumpDest,
		term:       term,
		entry:      newStateMap(),
		exit:       newStateMap(),
	}
}

// AddEntry records that stack is reachable at this block's entry via path.
// Returns true if this was a new (stack, path) combination.
func (b *Block) AddEntry(stack symbolic.Stack, path Path) bool { return b.entry.add(stack, path) }

// AddExit records stack as a possible exit state for path.
func (b *Block) AddExit(stack symbolic.Stack, path Path) bool { return b.exit.add(stack, path) }

// EntryStates returns a snapshot of this block's possible entry stack states.
func (b *Block) EntryStates() []StackState { return b.entry.snapshot() }

// ExitStates returns a snapshot of this block's possible exit stack states.
func (b *Block) ExitStates() []StackState { return b.exit.snapshot() }

// Clear drops Next/Prev references. Go's GC reclaims cyclic graphs without
// help, but this mirrors spec.md §5's explicit arena-teardown discipline
// and is exercised by program.Program.Reset.
func (b *Block) Clear() {
	b.Next = nil
	b.Prev = nil
}

// addEdge links from->to, returning false if the edge already existed.
func addEdge(from, to *Block) bool {
	for _, n := range from.Next {
		if n == to {
			return false
		}
	}
	from.Next = append(from.Next, to)
	to.Prev = append(to.Prev, from)
	return true
}
