// Package globals aggregates the interning tables of one compilation
// session. A Tables value replaces process-wide state: it is bound to a
// single target at construction, shared by every worker compiling that
// target, and reset between independent modules.
package globals

import (
	"maple/internal/consts"
	"maple/internal/ir"
	"maple/internal/prim"
	"maple/internal/strtab"
	"maple/internal/symtab"
	"maple/internal/target"
	"maple/internal/types"
)

// Tables holds every shared table. All tables except Reset are safe for
// concurrent use.
type Tables struct {
	Target target.Target
	Prims  prim.Registry

	Types     *types.Table
	TypeNames *types.NameTable
	Strs      *strtab.GStrTable
	UStrs     *strtab.UStrTable
	U16Strs   *strtab.U16Table
	Mangled   *strtab.MangledTable
	Consts    *consts.Table
	Syms      *symtab.Table
	Funcs     *ir.FuncTable

	builder *ir.Builder
}

// New builds empty tables for t.
func New(t target.Target) *Tables {
	reg := prim.NewRegistry(t)
	tys := types.NewTable(reg)
	cs := consts.NewTable(tys)
	return &Tables{
		Target:    t,
		Prims:     reg,
		Types:     tys,
		TypeNames: types.NewNameTable(),
		Strs:      strtab.NewTable[strtab.GStrIdx](),
		UStrs:     strtab.NewTable[strtab.UStrIdx](),
		U16Strs:   strtab.NewU16Table(),
		Mangled:   strtab.NewMangledTable(),
		Consts:    cs,
		Syms:      symtab.NewTable(symtab.LevelGlobal),
		Funcs:     ir.NewFuncTable(),
		builder:   ir.NewBuilder(tys, cs),
	}
}

// Builder returns a node builder over these tables.
func (g *Tables) Builder() *ir.Builder { return g.builder }

// TypeFromTyIdx returns the type at idx; an invalid index is fatal.
func (g *Tables) TypeFromTyIdx(idx types.TyIdx) *types.Type {
	return g.Types.Type(idx)
}

// StringFromStrIdx returns the name at idx; an invalid index is fatal.
func (g *Tables) StringFromStrIdx(idx strtab.GStrIdx) string {
	return g.Strs.StringFromStrIdx(idx)
}

// FunctionFromPuidx returns the function at pu; an invalid index is fatal.
func (g *Tables) FunctionFromPuidx(pu ir.PUIdx) *ir.Function {
	return g.Funcs.Function(pu)
}

// SymbolFromStIdx resolves a global or a local of fn. fn may be nil when
// idx is global.
func (g *Tables) SymbolFromStIdx(fn *ir.Function, idx symtab.StIdx) *symtab.Symbol {
	if idx.IsGlobal() || fn == nil {
		return g.Syms.Symbol(idx)
	}
	return fn.Syms.Symbol(idx)
}

// Stats reports table sizes, reserved slots excluded.
type Stats struct {
	Types     int
	Strings   int
	UStrings  int
	U16Str    int
	Mangled   int
	Consts    consts.Stats
	Symbols   int
	Functions int
}

func (g *Tables) Stats() Stats {
	return Stats{
		Types:     g.Types.Len() - 1,
		Strings:   g.Strs.Len() - 1,
		UStrings:  g.UStrs.Len() - 1,
		U16Str:    g.U16Strs.Len() - 1,
		Mangled:   g.Mangled.Len() - 1,
		Consts:    g.Consts.Stats(),
		Symbols:   g.Syms.Len() - 1,
		Functions: g.Funcs.Len() - 1,
	}
}

// Reset empties every table and reinitializes the reserved entries. It must
// not run concurrently with any other use of g. Handles obtained before the
// call are invalid afterwards.
func (g *Tables) Reset() {
	g.Types.Reset()
	g.TypeNames.Reset()
	g.Strs.Reset()
	g.UStrs.Reset()
	g.U16Strs.Reset()
	g.Mangled.Reset()
	g.Consts.Reset()
	g.Syms.Reset()
	g.Funcs.Reset()
}
