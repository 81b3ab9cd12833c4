package ir_test

import (
	"testing"

	"maple/internal/consts"
	"maple/internal/ir"
	"maple/internal/prim"
	"maple/internal/strtab"
	"maple/internal/symtab"
	"maple/internal/target"
	"maple/internal/types"
)

func newBuilder() *ir.Builder {
	tys := types.NewTable(prim.NewRegistry(target.X86_64LinuxGNU()))
	return ir.NewBuilder(tys, consts.NewTable(tys))
}

func TestOpcodeNamesRoundTrip(t *testing.T) {
	for op := ir.OpConstval; op <= ir.OpBlock; op++ {
		back, ok := ir.ParseOp(op.String())
		if !ok || back != op {
			t.Fatalf("ParseOp(%q) = %v, %v", op.String(), back, ok)
		}
	}
	if _, ok := ir.ParseOp("nope"); ok {
		t.Fatalf("unknown mnemonic parsed")
	}
}

func TestReversedComparisons(t *testing.T) {
	cases := map[ir.Op]ir.Op{
		ir.OpGt: ir.OpLt,
		ir.OpLt: ir.OpGt,
		ir.OpGe: ir.OpLe,
		ir.OpLe: ir.OpGe,
		ir.OpEq: ir.OpEq,
		ir.OpNe: ir.OpNe,
	}
	for op, want := range cases {
		got, ok := op.Reversed()
		if !ok || got != want {
			t.Errorf("%s reversed = %s, want %s", op, got, want)
		}
	}
	if _, ok := ir.OpCmp.Reversed(); ok {
		t.Errorf("cmp has no reversal")
	}
}

func TestEqualUsesInternedConstants(t *testing.T) {
	b := newBuilder()
	x := symtab.StIdx{Level: symtab.LevelLocal, Index: 1}
	e1 := b.Binary(ir.OpAdd, prim.PTYI32, b.Dread(prim.PTYI32, x), b.IntConst(3, prim.PTYI32))
	e2 := b.Binary(ir.OpAdd, prim.PTYI32, b.Dread(prim.PTYI32, x), b.IntConst(3, prim.PTYI32))
	if !ir.Equal(e1, e2) {
		t.Fatalf("identical trees compare unequal")
	}
	e3 := b.Binary(ir.OpAdd, prim.PTYI32, b.Dread(prim.PTYI32, x), b.IntConst(4, prim.PTYI32))
	if ir.Equal(e1, e3) {
		t.Fatalf("different constants compare equal")
	}
	e4 := b.Binary(ir.OpAdd, prim.PTYI64, b.Dread(prim.PTYI32, x), b.IntConst(3, prim.PTYI32))
	if ir.Equal(e1, e4) {
		t.Fatalf("different result types compare equal")
	}
	if got := ir.CountNodes(e1); got != 3 {
		t.Fatalf("CountNodes = %d", got)
	}
}

func TestEqualBlockTreatsNilAsEmpty(t *testing.T) {
	if !ir.EqualBlock(nil, ir.NewBlock()) {
		t.Fatalf("nil and empty blocks differ")
	}
	b := newBuilder()
	s1 := &ir.IfStmt{Cond: b.IntConst(1, prim.PTYU1), Then: ir.NewBlock(b.Return(nil))}
	s2 := &ir.IfStmt{Cond: b.IntConst(1, prim.PTYU1), Then: ir.NewBlock(b.Return(nil)), Else: ir.NewBlock()}
	if !ir.EqualStmt(s1, s2) {
		t.Fatalf("if with nil else differs from if with empty else")
	}
}

func TestFallsThrough(t *testing.T) {
	b := newBuilder()
	if !ir.NewBlock().FallsThrough() {
		t.Fatalf("empty block must fall through")
	}
	if ir.NewBlock(b.Goto(1)).FallsThrough() {
		t.Fatalf("goto does not fall through")
	}
	if ir.NewBlock(b.Return(nil)).FallsThrough() {
		t.Fatalf("return does not fall through")
	}
	if !ir.NewBlock(b.CondGoto(ir.OpBrtrue, b.IntConst(1, prim.PTYU1), 1)).FallsThrough() {
		t.Fatalf("conditional branch falls through")
	}
}

func TestLabelTable(t *testing.T) {
	lt := ir.NewLabelTable()
	a := lt.GetOrCreateLabel("exit")
	if lt.GetOrCreateLabel("exit") != a {
		t.Fatalf("named label not stable")
	}
	anon := lt.CreateLabel()
	if anon == a || lt.Name(anon) != ".L2" {
		t.Fatalf("anonymous label %d named %q", anon, lt.Name(anon))
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected ICE")
		}
	}()
	lt.Name(ir.NoLabelIdx)
}

func TestFuncTable(t *testing.T) {
	names := strtab.NewTable[strtab.GStrIdx]()
	ft := ir.NewFuncTable()
	main := names.GetOrCreateStrIdxFromName("main")

	fn := ft.GetOrCreateFunction(main, 0)
	if ft.GetOrCreateFunction(main, 0) != fn {
		t.Fatalf("function not interned")
	}
	if ft.PUIdxFromStrIdx(main) != fn.PUIdx || ft.Function(fn.PUIdx) != fn {
		t.Fatalf("lookup mismatch")
	}
	if fn.Syms.Level() != symtab.LevelLocal || fn.Body == nil {
		t.Fatalf("function not initialized: %+v", fn)
	}

	fn.SetFreq(fn.Body, 10)
	if n, ok := fn.Freq(fn.Body); !ok || n != 10 {
		t.Fatalf("Freq = %d, %v", n, ok)
	}

	ft.Reset()
	if ft.PUIdxFromStrIdx(main) != ir.NoPUIdx {
		t.Fatalf("Reset kept functions")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected ICE")
		}
	}()
	ft.Function(fn.PUIdx)
}

func TestBuilderRejectsWrongOpcode(t *testing.T) {
	b := newBuilder()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected ICE")
		}
	}()
	b.Binary(ir.OpEq, prim.PTYI32, b.IntConst(1, prim.PTYI32), b.IntConst(2, prim.PTYI32))
}
