package constfold_test

import (
	"testing"

	"maple/internal/constfold"
	"maple/internal/ir"
	"maple/internal/prim"
)

func newFunc(fx *fixture, name string) *ir.Function {
	fty := fx.g.Types.GetOrCreateFunction(fx.g.Types.PrimTyIdx(prim.PTYI32), nil, false)
	return fx.g.Funcs.GetOrCreateFunction(fx.g.Strs.GetOrCreateStrIdxFromName(name), fty)
}

func TestConstantBranches(t *testing.T) {
	fx := newFixture(t)
	fn := newFunc(fx, "branches")
	b := fx.b
	l := fn.Labels.CreateLabel()

	taken := b.CondGoto(ir.OpBrtrue, fx.k(1), l)
	skipped := b.CondGoto(ir.OpBrfalse, fx.bin(ir.OpAdd, fx.k(1), fx.k(0)), l)
	live := b.CondGoto(ir.OpBrtrue, fx.X(), l)
	fn.SetFreq(taken, 7)
	fn.Body.Append(taken, skipped, live, b.Label(l))

	f := fx.f.ForFunction(fn)
	f.FoldFunc(fn)

	if len(fn.Body.Stmts) != 3 {
		t.Fatalf("body has %d statements, want 3", len(fn.Body.Stmts))
	}
	g, ok := fn.Body.Stmts[0].(*ir.GotoStmt)
	if !ok || g.Target != l {
		t.Fatalf("first statement = %T, want goto", fn.Body.Stmts[0])
	}
	if freq, ok := fn.Freq(g); !ok || freq != 7 {
		t.Fatalf("goto freq = %d, %v; want 7", freq, ok)
	}
	if fn.Body.Stmts[1] != live {
		t.Fatalf("non-constant branch was replaced")
	}
	if got := f.Stats().Stmts; got != 2 {
		t.Fatalf("Stmts = %d, want 2", got)
	}
}

func TestConstantStructuredStatements(t *testing.T) {
	fx := newFixture(t)
	fn := newFunc(fx, "structured")
	b := fx.b
	X, Y, k := fx.X(), fx.Y(), fx.k

	elseEval := b.Eval(Y)
	deadIf := &ir.IfStmt{Cond: k(0), Then: ir.NewBlock(b.Return(X)), Else: ir.NewBlock(elseEval)}
	thenAssign := b.Dassign(fx.x, fx.bin(ir.OpAdd, X, k(0)))
	liveIf := &ir.IfStmt{Cond: X, Then: ir.NewBlock(thenAssign)}
	deadWhile := &ir.WhileStmt{Cond: fx.cmp(ir.OpLt, k(2), k(1)), Body: ir.NewBlock(b.Eval(X))}
	bodyEval := b.Eval(X)
	onceLoop := &ir.DoWhileStmt{Body: ir.NewBlock(bodyEval), Cond: k(0)}
	fn.Body.Append(deadIf, liveIf, deadWhile, onceLoop)

	fx.f.ForFunction(fn).FoldFunc(fn)

	want := []ir.Stmt{elseEval, liveIf, bodyEval}
	if len(fn.Body.Stmts) != len(want) {
		t.Fatalf("body has %d statements, want %d", len(fn.Body.Stmts), len(want))
	}
	for i, s := range want {
		if fn.Body.Stmts[i] != s {
			t.Fatalf("statement %d = %T, want %T", i, fn.Body.Stmts[i], s)
		}
	}
	if !ir.Equal(thenAssign.Value, X) {
		t.Fatalf("nested block was not folded")
	}
}

func TestConstantSwitch(t *testing.T) {
	fx := newFixture(t)
	fn := newFunc(fx, "switch")
	l1, l2, ld := fn.Labels.CreateLabel(), fn.Labels.CreateLabel(), fn.Labels.CreateLabel()
	cases := []ir.CasePair{{Value: 1, Label: l1}, {Value: 2, Label: l2}}

	f := constfold.New(fx.g).ForFunction(fn)
	for _, tc := range []struct {
		value int64
		want  ir.LabelIdx
	}{{2, l2}, {1, l1}, {9, ld}, {-1, ld}} {
		sw := &ir.SwitchStmt{X: fx.bin(ir.OpAdd, fx.k(tc.value), fx.k(0)), Default: ld, Cases: cases}
		out := f.FoldStmt(sw)
		if len(out) != 1 {
			t.Fatalf("switch %d folded to %d statements", tc.value, len(out))
		}
		g, ok := out[0].(*ir.GotoStmt)
		if !ok || g.Target != tc.want {
			t.Fatalf("switch %d = %T, want goto %d", tc.value, out[0], tc.want)
		}
	}

	sw := &ir.SwitchStmt{X: fx.X(), Default: ld, Cases: cases}
	if out := f.FoldStmt(sw); len(out) != 1 || out[0] != sw {
		t.Fatalf("non-constant switch was replaced")
	}
}
