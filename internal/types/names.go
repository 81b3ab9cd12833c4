package types

import (
	"sync"

	"maple/internal/strtab"
)

// NameTable maps type names to type indices.
type NameTable struct {
	mu    sync.RWMutex
	names map[strtab.GStrIdx]TyIdx
}

func NewNameTable() *NameTable {
	return &NameTable{names: make(map[strtab.GStrIdx]TyIdx)}
}

// TyIdxFromStrIdx returns the type registered under name, or NoTyIdx.
func (n *NameTable) TyIdxFromStrIdx(name strtab.GStrIdx) TyIdx {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.names[name]
}

// SetTyIdxFromStrIdx binds name to ty, replacing any earlier binding.
func (n *NameTable) SetTyIdxFromStrIdx(name strtab.GStrIdx, ty TyIdx) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.names[name] = ty
}

func (n *NameTable) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.names)
}

func (n *NameTable) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	clear(n.names)
}
