package globals

import (
	"fmt"
	"sync"
	"testing"

	"maple/internal/prim"
	"maple/internal/symtab"
	"maple/internal/target"
)

func TestTablesBoundToTarget(t *testing.T) {
	g64 := New(target.X86_64LinuxGNU())
	g32 := New(target.ARMLinuxGNUEABI())

	if !g64.Prims.IsPointer(prim.PTYU64) || g64.Prims.IsPointer(prim.PTYU32) {
		t.Fatalf("64-bit tables classify pointers wrongly")
	}
	if !g32.Prims.IsPointer(prim.PTYU32) || g32.Prims.IsPointer(prim.PTYU64) {
		t.Fatalf("32-bit tables classify pointers wrongly")
	}
	if g32.Types.Size(g32.Types.VoidPtr()) != 4 || g64.Types.Size(g64.Types.VoidPtr()) != 8 {
		t.Fatalf("void* sizes differ from target")
	}
}

func TestAccessors(t *testing.T) {
	g := New(target.X86_64LinuxGNU())
	name := g.Strs.GetOrCreateStrIdxFromName("main")
	fty := g.Types.GetOrCreateFunction(g.Types.PrimTyIdx(prim.PTYI32), nil, false)
	fn := g.Funcs.GetOrCreateFunction(name, fty)

	if g.StringFromStrIdx(name) != "main" {
		t.Fatalf("StringFromStrIdx mismatch")
	}
	if g.FunctionFromPuidx(fn.PUIdx) != fn {
		t.Fatalf("FunctionFromPuidx mismatch")
	}
	if g.TypeFromTyIdx(fty).Ret != g.Types.PrimTyIdx(prim.PTYI32) {
		t.Fatalf("TypeFromTyIdx mismatch")
	}

	gsym := g.Syms.GetOrCreateSymbol(g.Strs.GetOrCreateStrIdxFromName("g"), g.Types.PrimTyIdx(prim.PTYI64), symtab.StorageGlobal)
	lsym := fn.Syms.GetOrCreateSymbol(g.Strs.GetOrCreateStrIdxFromName("l"), g.Types.PrimTyIdx(prim.PTYI8), symtab.StorageAuto)
	if g.SymbolFromStIdx(fn, gsym.Idx) != gsym || g.SymbolFromStIdx(fn, lsym.Idx) != lsym {
		t.Fatalf("SymbolFromStIdx mismatch")
	}
}

func TestResetClearsEveryTable(t *testing.T) {
	g := New(target.X86_64LinuxGNU())
	i32 := g.Types.PrimTyIdx(prim.PTYI32)
	first := g.Types.GetOrCreatePointer(i32, prim.PTYPtr)
	g.Types.GetOrCreateArray(i32, 3)
	arr := g.Types.GetOrCreateArray(i32, 4)
	g.Strs.GetOrCreateStrIdxFromName("x")
	g.Consts.GetOrCreateIntConst(1, i32)
	g.Syms.GetOrCreateSymbol(g.Strs.GetOrCreateStrIdxFromName("y"), i32, symtab.StorageGlobal)

	g.Reset()
	st := g.Stats()
	if st.Strings != 0 || st.Consts.Ints != 0 || st.Symbols != 0 || st.Functions != 0 {
		t.Fatalf("tables not empty after Reset: %+v", st)
	}
	if got := g.Types.GetOrCreateArray(i32, 4); got == arr || got != first {
		t.Fatalf("array [4]i32 got %d after Reset; before it was %d", got, arr)
	}
}

func TestConcurrentWorkers(t *testing.T) {
	g := New(target.X86_64LinuxGNU())
	const workers = 8

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := range workers {
		go func() {
			defer wg.Done()
			b := g.Builder()
			name := g.Strs.GetOrCreateStrIdxFromName(fmt.Sprintf("f%d", w))
			fn := g.Funcs.GetOrCreateFunction(name, g.Types.VoidPtr())
			for i := range 50 {
				fn.Body.Append(b.Eval(b.IntConst(uint64(i), prim.PTYI64)))
				g.Types.GetOrCreatePointer(g.Types.PrimTyIdx(prim.PTYI64), prim.PTYPtr)
			}
		}()
	}
	wg.Wait()

	st := g.Stats()
	if st.Functions != workers || st.Consts.Ints != 50 {
		t.Fatalf("unexpected stats %+v", st)
	}
}
