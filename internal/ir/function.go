package ir

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"maple/internal/ice"
	"maple/internal/intern"
	"maple/internal/strtab"
	"maple/internal/symtab"
	"maple/internal/types"
)

// PUIdx indexes the function table. 0 is invalid.
type PUIdx uint32

const NoPUIdx PUIdx = 0

// Function is one program unit: its signature, local scope and body.
type Function struct {
	PUIdx   PUIdx
	Name    strtab.GStrIdx
	Ty      types.TyIdx
	Formals []symtab.StIdx
	Syms    *symtab.Table
	Labels  *LabelTable
	Body    *Block

	// Freqs holds profile counts per statement; nil when the function has
	// no profile.
	Freqs map[Stmt]uint64
}

// Freq returns the recorded count of s.
func (f *Function) Freq(s Stmt) (uint64, bool) {
	if f.Freqs == nil {
		return 0, false
	}
	n, ok := f.Freqs[s]
	return n, ok
}

// SetFreq records a count for s, creating the profile on first use.
func (f *Function) SetFreq(s Stmt, n uint64) {
	if f.Freqs == nil {
		f.Freqs = make(map[Stmt]uint64)
	}
	f.Freqs[s] = n
}

// HasProfile reports whether any statement carries a count.
func (f *Function) HasProfile() bool { return len(f.Freqs) > 0 }

// FuncTable interns functions by name.
type FuncTable struct {
	mu     sync.RWMutex
	funcs  []*Function
	byName map[strtab.GStrIdx]PUIdx
}

func NewFuncTable() *FuncTable {
	t := &FuncTable{}
	t.init()
	return t
}

func (t *FuncTable) init() {
	t.funcs = []*Function{nil}
	t.byName = make(map[strtab.GStrIdx]PUIdx)
}

// GetOrCreateFunction returns the function called name, creating an empty
// one of type ty on first sight.
func (t *FuncTable) GetOrCreateFunction(name strtab.GStrIdx, ty types.TyIdx) *Function {
	if name == strtab.NoGStrIdx {
		ice.Fatalf("ir: function without a name")
	}
	return intern.GetOrCreate(&t.mu,
		func() (*Function, bool) {
			pu, ok := t.byName[name]
			if !ok {
				return nil, false
			}
			return t.funcs[pu], true
		},
		func() *Function {
			n, err := safecast.Conv[uint32](len(t.funcs))
			if err != nil {
				panic(fmt.Errorf("len(funcs) overflow: %w", err))
			}
			fn := &Function{
				PUIdx:  PUIdx(n),
				Name:   name,
				Ty:     ty,
				Syms:   symtab.NewTable(symtab.LevelLocal),
				Labels: NewLabelTable(),
				Body:   NewBlock(),
			}
			t.funcs = append(t.funcs, fn)
			t.byName[name] = fn.PUIdx
			return fn
		})
}

// PUIdxFromStrIdx returns the index of the function called name, or NoPUIdx.
func (t *FuncTable) PUIdxFromStrIdx(name strtab.GStrIdx) PUIdx {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byName[name]
}

// Function returns the function at pu. An invalid index is fatal.
func (t *FuncTable) Function(pu PUIdx) *Function {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if pu == NoPUIdx || int(pu) >= len(t.funcs) {
		ice.Fatalf("ir: function index %d out of range (len %d)", pu, len(t.funcs))
	}
	return t.funcs[pu]
}

// Len counts the reserved slot too.
func (t *FuncTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.funcs)
}

func (t *FuncTable) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.init()
}

// Module is one compilation unit: its globals and functions in source order.
type Module struct {
	Globals   []symtab.StIdx
	Functions []*Function
}

// AddFunction appends fn unless it is already listed.
func (m *Module) AddFunction(fn *Function) {
	for _, f := range m.Functions {
		if f == fn {
			return
		}
	}
	m.Functions = append(m.Functions, fn)
}
