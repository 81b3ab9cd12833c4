// Package symtab holds variable symbols. The global table lives in
// globals.Tables; every function owns a local one.
package symtab

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"maple/internal/ice"
	"maple/internal/intern"
	"maple/internal/strtab"
	"maple/internal/types"
)

// Scope levels of an StIdx.
const (
	LevelGlobal uint8 = 1
	LevelLocal  uint8 = 2
)

// StIdx names a symbol by scope level and index within that scope's table.
// The zero value is invalid.
type StIdx struct {
	Level uint8
	Index uint32
}

var NoStIdx StIdx

func (s StIdx) IsValid() bool  { return s.Level != 0 && s.Index != 0 }
func (s StIdx) IsGlobal() bool { return s.Level == LevelGlobal }

func (s StIdx) String() string {
	if s.IsGlobal() {
		return fmt.Sprintf("g%d", s.Index)
	}
	return fmt.Sprintf("l%d", s.Index)
}

// Storage classes.
type Storage uint8

const (
	StorageAuto Storage = iota
	StorageGlobal
	StorageStatic
	StorageFormal
	StorageExtern
)

// Symbol is a named variable.
type Symbol struct {
	Name    strtab.GStrIdx
	Ty      types.TyIdx
	Idx     StIdx
	Storage Storage
}

// Table interns symbols by name within one scope.
type Table struct {
	level uint8

	mu     sync.RWMutex
	syms   []*Symbol
	byName map[strtab.GStrIdx]uint32
}

// NewTable returns an empty table for the given scope level.
func NewTable(level uint8) *Table {
	t := &Table{level: level}
	t.init()
	return t
}

func (t *Table) init() {
	t.syms = []*Symbol{nil}
	t.byName = make(map[strtab.GStrIdx]uint32)
}

func (t *Table) Level() uint8 { return t.level }

// GetOrCreateSymbol returns the symbol called name, creating it with type ty
// on first sight. An existing symbol keeps its original type.
func (t *Table) GetOrCreateSymbol(name strtab.GStrIdx, ty types.TyIdx, storage Storage) *Symbol {
	if name == strtab.NoGStrIdx {
		ice.Fatalf("symtab: symbol without a name")
	}
	return intern.GetOrCreate(&t.mu,
		func() (*Symbol, bool) {
			i, ok := t.byName[name]
			if !ok {
				return nil, false
			}
			return t.syms[i], true
		},
		func() *Symbol {
			n, err := safecast.Conv[uint32](len(t.syms))
			if err != nil {
				panic(fmt.Errorf("len(symbols) overflow: %w", err))
			}
			sym := &Symbol{Name: name, Ty: ty, Idx: StIdx{Level: t.level, Index: n}, Storage: storage}
			t.syms = append(t.syms, sym)
			t.byName[name] = n
			return sym
		})
}

// StIdxFromStrIdx returns the index of the symbol called name, or NoStIdx.
func (t *Table) StIdxFromStrIdx(name strtab.GStrIdx) StIdx {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.byName[name]
	if !ok {
		return NoStIdx
	}
	return StIdx{Level: t.level, Index: i}
}

// Symbol returns the symbol at idx. A wrong level or an index past the table
// is fatal.
func (t *Table) Symbol(idx StIdx) *Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if idx.Level != t.level || idx.Index == 0 || int(idx.Index) >= len(t.syms) {
		ice.Fatalf("symtab: symbol %v not in level-%d table (len %d)", idx, t.level, len(t.syms))
	}
	return t.syms[idx.Index]
}

// All returns the symbols in creation order.
func (t *Table) All() []*Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Symbol, len(t.syms)-1)
	copy(out, t.syms[1:])
	return out
}

// Len counts the reserved slot too.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.syms)
}

func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.init()
}
