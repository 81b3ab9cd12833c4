package types_test

import (
	"sync"
	"testing"

	"maple/internal/prim"
	"maple/internal/strtab"
	"maple/internal/target"
	"maple/internal/types"
)

func newTable() *types.Table {
	return types.NewTable(prim.NewRegistry(target.X86_64LinuxGNU()))
}

func TestPrimitivePrefix(t *testing.T) {
	tab := newTable()
	for pt := prim.PTYVoid; pt < prim.PTYEnd; pt++ {
		idx := tab.PrimTyIdx(pt)
		if got := tab.Type(idx).Prim; got != pt {
			t.Fatalf("slot %d holds %s, want %s", idx, got, pt)
		}
		if again := tab.GetOrCreate(types.Scalar(pt)); again != idx {
			t.Fatalf("scalar %s interned at %d, want fixed slot %d", pt, again, idx)
		}
	}
	if tab.Void().Kind != types.KindVoid {
		t.Fatalf("void slot has kind %s", tab.Void().Kind)
	}
	vp := tab.Type(tab.VoidPtr())
	if vp.Kind != types.KindPointer || vp.Pointee != tab.PrimTyIdx(prim.PTYVoid) {
		t.Fatalf("void* = %+v", vp)
	}
	if tab.DerivedBegin() != tab.VoidPtr()+1 {
		t.Fatalf("derived types begin at %d, want %d", tab.DerivedBegin(), tab.VoidPtr()+1)
	}
}

func TestPointerCanonicalization(t *testing.T) {
	tab := newTable()
	i32 := tab.PrimTyIdx(prim.PTYI32)
	i64 := tab.PrimTyIdx(prim.PTYI64)

	p1 := tab.GetOrCreatePointer(i32, prim.PTYPtr)
	p2 := tab.GetOrCreatePointer(i32, prim.PTYPtr)
	if p1 != p2 {
		t.Fatalf("ptr to i32 interned twice: %d, %d", p1, p2)
	}
	if p3 := tab.GetOrCreatePointer(i64, prim.PTYPtr); p3 == p1 {
		t.Fatalf("ptr to i64 shares index with ptr to i32")
	}
	if vp := tab.GetOrCreatePointer(tab.PrimTyIdx(prim.PTYVoid), prim.PTYPtr); vp != tab.VoidPtr() {
		t.Fatalf("void* not canonical: %d != %d", vp, tab.VoidPtr())
	}

	constPtr := tab.GetOrCreate(types.Pointer(i32, prim.PTYPtr, types.TypeAttrs{Const: true}))
	if constPtr == p1 {
		t.Fatalf("attributed pointer collapsed into the default one")
	}
	if again := tab.GetOrCreate(types.Pointer(i32, prim.PTYPtr, types.TypeAttrs{Const: true})); again != constPtr {
		t.Fatalf("attributed pointer not canonical")
	}
}

func TestRefAfterDerivedPtrIsFatal(t *testing.T) {
	tab := newTable()
	i32 := tab.PrimTyIdx(prim.PTYI32)
	if p := tab.GetOrCreatePointer(i32, prim.PTYPtr); p < tab.DerivedBegin() {
		t.Fatalf("ptr to i32 landed below the derived threshold: %d", p)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected ICE")
		}
	}()
	tab.GetOrCreatePointer(i32, prim.PTYRef)
}

func TestRefToVoidIsAllowed(t *testing.T) {
	tab := newTable()
	ref := tab.GetOrCreatePointer(tab.PrimTyIdx(prim.PTYVoid), prim.PTYRef)
	if ref == tab.VoidPtr() {
		t.Fatalf("ref to void shares the void* slot")
	}
}

func TestStructuralCanonicalization(t *testing.T) {
	tab := newTable()
	i32 := tab.PrimTyIdx(prim.PTYI32)
	f64 := tab.PrimTyIdx(prim.PTYF64)

	a1 := tab.GetOrCreateArray(i32, 4, 5)
	a2 := tab.GetOrCreateArray(i32, 4, 5)
	a3 := tab.GetOrCreateArray(i32, 5, 4)
	if a1 != a2 || a1 == a3 {
		t.Fatalf("array indices: %d %d %d", a1, a2, a3)
	}

	f1 := tab.GetOrCreateFunction(i32, []types.TyIdx{i32, f64}, false)
	f2 := tab.GetOrCreateFunction(i32, []types.TyIdx{i32, f64}, false)
	f3 := tab.GetOrCreateFunction(i32, []types.TyIdx{i32, f64}, true)
	f4 := tab.GetOrCreateFunction(i32, []types.TyIdx{f64, i32}, false)
	if f1 != f2 {
		t.Fatalf("equal signatures got %d and %d", f1, f2)
	}
	if f1 == f3 || f1 == f4 {
		t.Fatalf("distinct signatures collapsed: %d %d %d", f1, f3, f4)
	}

	names := strtab.NewTable[strtab.GStrIdx]()
	n := tab.GetOrCreateByName(names.GetOrCreateStrIdxFromName("FILE"))
	if tab.GetOrCreateByName(names.GetOrCreateStrIdxFromName("FILE")) != n {
		t.Fatalf("by-name type not canonical")
	}

	if got := tab.Size(a1); got != 4*4*5 {
		t.Fatalf("array size = %d", got)
	}
	ty1, ty2 := tab.Type(a1), tab.Type(a2)
	if !ty1.EqualTo(ty2) {
		t.Fatalf("EqualTo disagrees with canonical index")
	}
}

func TestTooManyDimsIsFatal(t *testing.T) {
	tab := newTable()
	dims := make([]uint32, types.MaxArrayDims+1)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected ICE")
		}
	}()
	tab.GetOrCreateArray(tab.PrimTyIdx(prim.PTYI8), dims...)
}

func TestOutOfRangeIsFatal(t *testing.T) {
	tab := newTable()
	if _, ok := tab.Lookup(types.TyIdx(tab.Len())); ok {
		t.Fatalf("Lookup past the end succeeded")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected ICE")
		}
	}()
	tab.Type(types.TyIdx(tab.Len() + 10))
}

func TestResetReassignsIndices(t *testing.T) {
	tab := newTable()
	i32 := tab.PrimTyIdx(prim.PTYI32)
	i64 := tab.PrimTyIdx(prim.PTYI64)

	first := tab.GetOrCreatePointer(i32, prim.PTYPtr)
	second := tab.GetOrCreatePointer(i64, prim.PTYPtr)
	before := tab.Len()

	tab.Reset()
	if tab.Len() >= before {
		t.Fatalf("Reset did not shrink the table: %d >= %d", tab.Len(), before)
	}
	again := tab.GetOrCreatePointer(i64, prim.PTYPtr)
	if again == second {
		t.Fatalf("ptr to i64 kept its pre-reset index %d", second)
	}
	if again != first {
		t.Fatalf("first derived type after Reset got %d, want %d", again, first)
	}
}

func TestConcurrentGetOrCreate(t *testing.T) {
	tab := newTable()
	i32 := tab.PrimTyIdx(prim.PTYI32)
	const workers = 32

	results := make([][3]types.TyIdx, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := range workers {
		go func() {
			defer wg.Done()
			p := tab.GetOrCreatePointer(i32, prim.PTYPtr)
			a := tab.GetOrCreateArray(p, 8)
			f := tab.GetOrCreateFunction(i32, []types.TyIdx{p, a}, false)
			results[w] = [3]types.TyIdx{p, a, f}
		}()
	}
	wg.Wait()

	for w := 1; w < workers; w++ {
		if results[w] != results[0] {
			t.Fatalf("worker %d saw %v, worker 0 saw %v", w, results[w], results[0])
		}
	}
	if tab.Len() != int(tab.DerivedBegin())+3 {
		t.Fatalf("expected exactly three derived types, table len %d", tab.Len())
	}
}

func TestNameTable(t *testing.T) {
	names := strtab.NewTable[strtab.GStrIdx]()
	nt := types.NewNameTable()
	tab := newTable()
	foo := names.GetOrCreateStrIdxFromName("foo_t")

	if nt.TyIdxFromStrIdx(foo) != types.NoTyIdx {
		t.Fatalf("unbound name resolved")
	}
	nt.SetTyIdxFromStrIdx(foo, tab.PrimTyIdx(prim.PTYI32))
	if nt.TyIdxFromStrIdx(foo) != tab.PrimTyIdx(prim.PTYI32) {
		t.Fatalf("name binding lost")
	}
	nt.Reset()
	if nt.Len() != 0 {
		t.Fatalf("Reset left %d names", nt.Len())
	}
}
