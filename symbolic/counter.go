package symbolic

// Counter hands out the program-global, monotonically increasing ids
// spec.md §4.1/§4.4 requires: it is shared across the initial decode pass
// and every later visit of the symbolic executor, and it never resets.
type Counter struct {
	next int
}

// Next returns the next fresh id.
func (c *Counter) Next() int {
	id := c.next
	c.next++
	return id
}

// SymbolInfo records where a symbolic id was created and where it was
// consumed, per spec.md §3 "Symbol table".
type SymbolInfo struct {
	Idx       int
	CreatedAt int
	UsedAt    []int
}

// SymbolTable tracks, for each symbolic (non-constant, unlabeled) idx, the
// offset that created it and the offsets that consumed it.
type SymbolTable struct {
	byIdx map[int]*SymbolInfo
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byIdx: make(map[int]*SymbolInfo)}
}

// Define records idx's creation offset. A symbol is defined exactly once;
// later calls for an already-defined idx (e.g. a dup/swap rewiring that
// reuses an older id) are no-ops.
func (t *SymbolTable) Define(idx, offset int) {
	if _, ok := t.byIdx[idx]; ok {
		return
	}
	t.byIdx[idx] = &SymbolInfo{Idx: idx, CreatedAt: offset}
}

// Use records that idx was consumed at offset. A no-op if idx was never
// defined (e.g. it is a synthesized "argument" filler).
func (t *SymbolTable) Use(idx, offset int) {
	info, ok := t.byIdx[idx]
	if !ok {
		return
	}
	info.UsedAt = append(info.UsedAt, offset)
}

// Get returns the recorded info for idx, if any.
func (t *SymbolTable) Get(idx int) (SymbolInfo, bool) {
	info, ok := t.byIdx[idx]
	if !ok {
		return SymbolInfo{}, false
	}
	return *info, true
}

// Len returns the number of defined symbols.
func (t *SymbolTable) Len() int { return len(t.byIdx) }

// All returns every recorded symbol, in no particular order.
func (t *SymbolTable) All() []SymbolInfo {
	out := make([]SymbolInfo, 0, len(t.byIdx))
	for _, info := range t.byIdx {
		out = append(out, *info)
	}
	return out
}
