package constfold_test

import (
	"math"
	"testing"

	"maple/internal/constfold"
	"maple/internal/globals"
	"maple/internal/ir"
	"maple/internal/prim"
	"maple/internal/symtab"
	"maple/internal/target"
	"maple/internal/trace"
)

type fixture struct {
	g *globals.Tables
	b *ir.Builder
	f *constfold.Folder

	x, y, u, c, wide symtab.StIdx
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	g := globals.New(target.X86_64LinuxGNU())
	sym := func(name string, pt prim.PrimType) symtab.StIdx {
		return g.Syms.GetOrCreateSymbol(g.Strs.GetOrCreateStrIdxFromName(name), g.Types.PrimTyIdx(pt), symtab.StorageGlobal).Idx
	}
	return &fixture{
		g:    g,
		b:    g.Builder(),
		f:    constfold.New(g),
		x:    sym("x", prim.PTYI32),
		y:    sym("y", prim.PTYI32),
		u:    sym("u", prim.PTYU32),
		c:    sym("c", prim.PTYI8),
		wide: sym("w", prim.PTYI128),
	}
}

func (fx *fixture) X() ir.Expr { return fx.b.Dread(prim.PTYI32, fx.x) }
func (fx *fixture) Y() ir.Expr { return fx.b.Dread(prim.PTYI32, fx.y) }
func (fx *fixture) U() ir.Expr { return fx.b.Dread(prim.PTYU32, fx.u) }

func (fx *fixture) k(v int64) ir.Expr { return fx.b.SignedConst(v, prim.PTYI32) }

func (fx *fixture) bin(op ir.Op, x, y ir.Expr) ir.Expr {
	return fx.b.Binary(op, prim.PTYI32, x, y)
}

func (fx *fixture) cmp(op ir.Op, x, y ir.Expr) ir.Expr {
	return fx.b.Compare(op, prim.PTYI32, prim.PTYI32, x, y)
}

func show(e ir.Expr) string {
	if e == nil {
		return "<nil>"
	}
	if c, ok := e.(*ir.ConstvalNode); ok {
		return c.Type.String() + " " + c.Const.String()
	}
	return e.Op().String() + " " + e.Prim().String()
}

type foldCase struct {
	name string
	in   ir.Expr
	want ir.Expr // nil: no rewrite
}

func runCases(t *testing.T, f *constfold.Folder, cases []foldCase) {
	t.Helper()
	for _, tc := range cases {
		got := f.Fold(tc.in)
		if tc.want == nil {
			if got != nil {
				t.Errorf("%s: Fold = %s, want no rewrite", tc.name, show(got))
			}
			continue
		}
		if got == nil || !ir.Equal(got, tc.want) {
			t.Errorf("%s: Fold = %s, want %s", tc.name, show(got), show(tc.want))
			continue
		}
		if again := f.Fold(got); again != nil {
			t.Errorf("%s: folding the result again gave %s", tc.name, show(again))
		}
	}
}

func TestAlgebraicIdentities(t *testing.T) {
	fx := newFixture(t)
	X, Y, k := fx.X(), fx.Y(), fx.k
	runCases(t, fx.f, []foldCase{
		{"x+0", fx.bin(ir.OpAdd, X, k(0)), X},
		{"0+x", fx.bin(ir.OpAdd, k(0), X), X},
		{"x*1", fx.bin(ir.OpMul, X, k(1)), X},
		{"1*x", fx.bin(ir.OpMul, k(1), X), X},
		{"x*0", fx.bin(ir.OpMul, X, k(0)), k(0)},
		{"0*x", fx.bin(ir.OpMul, k(0), X), k(0)},
		{"x/1", fx.bin(ir.OpDiv, X, k(1)), X},
		{"x%1", fx.bin(ir.OpRem, X, k(1)), k(0)},
		{"x&-1", fx.bin(ir.OpBand, X, k(-1)), X},
		{"-1&x", fx.bin(ir.OpBand, k(-1), X), X},
		{"x&0", fx.bin(ir.OpBand, X, k(0)), k(0)},
		{"x|-1", fx.bin(ir.OpBior, X, k(-1)), k(-1)},
		{"-1|x", fx.bin(ir.OpBior, k(-1), X), k(-1)},
		{"x|0", fx.bin(ir.OpBior, X, k(0)), X},
		{"x^0", fx.bin(ir.OpBxor, X, k(0)), X},
		{"0^x", fx.bin(ir.OpBxor, k(0), X), X},
		{"x<<0", fx.bin(ir.OpShl, X, k(0)), X},
		{"0>>x", fx.bin(ir.OpLshr, k(0), X), k(0)},
		{"x||1", fx.bin(ir.OpCior, X, k(1)), k(1)},
		{"0&&x", fx.bin(ir.OpCand, k(0), X), k(0)},
		{"0-x", fx.bin(ir.OpSub, k(0), X), fx.b.Unary(ir.OpNeg, prim.PTYI32, X)},
		{"(x*4)/4", fx.bin(ir.OpDiv, fx.bin(ir.OpMul, X, k(4)), k(4)), X},
		{"x-5", fx.bin(ir.OpSub, X, k(5)), nil},
		{"x+y", fx.bin(ir.OpAdd, X, Y), nil},
	})
}

func TestOffsetsAccumulate(t *testing.T) {
	fx := newFixture(t)
	X, Y, k := fx.X(), fx.Y(), fx.k
	runCases(t, fx.f, []foldCase{
		{"(x+3)+4", fx.bin(ir.OpAdd, fx.bin(ir.OpAdd, X, k(3)), k(4)), fx.bin(ir.OpAdd, X, k(7))},
		{"(x+3)-3", fx.bin(ir.OpSub, fx.bin(ir.OpAdd, X, k(3)), k(3)), X},
		{"(x-3)+1", fx.bin(ir.OpAdd, fx.bin(ir.OpSub, X, k(3)), k(1)), fx.bin(ir.OpSub, X, k(2))},
		{"5-(x+2)", fx.bin(ir.OpSub, k(5), fx.bin(ir.OpAdd, X, k(2))), fx.bin(ir.OpSub, k(3), X)},
		{"(x+1)+(y+2)", fx.bin(ir.OpAdd, fx.bin(ir.OpAdd, X, k(1)), fx.bin(ir.OpAdd, Y, k(2))),
			fx.bin(ir.OpAdd, fx.bin(ir.OpAdd, X, Y), k(3))},
		{"-(x-y)", fx.b.Unary(ir.OpNeg, prim.PTYI32, fx.bin(ir.OpSub, X, Y)), fx.bin(ir.OpSub, Y, X)},
		{"-(-x)", fx.b.Unary(ir.OpNeg, prim.PTYI32, fx.b.Unary(ir.OpNeg, prim.PTYI32, X)), X},
	})
}

func TestNegationFoldsAgree(t *testing.T) {
	fx := newFixture(t)
	X := fx.X()
	viaSub := fx.f.Simplify(fx.bin(ir.OpSub, fx.k(0), X))
	viaNeg := fx.f.Simplify(fx.b.Unary(ir.OpNeg, prim.PTYI32, X))
	if !ir.Equal(viaSub, viaNeg) {
		t.Fatalf("0-x folds to %s, -x folds to %s", show(viaSub), show(viaNeg))
	}
}

func TestUndefinedArithmeticStays(t *testing.T) {
	fx := newFixture(t)
	X, k := fx.X(), fx.k
	runCases(t, fx.f, []foldCase{
		{"x/0", fx.bin(ir.OpDiv, X, k(0)), nil},
		{"x%0", fx.bin(ir.OpRem, X, k(0)), nil},
		{"7/0", fx.bin(ir.OpDiv, k(7), k(0)), nil},
		{"7%0", fx.bin(ir.OpRem, k(7), k(0)), nil},
		{"min/-1", fx.bin(ir.OpDiv, k(math.MinInt32), k(-1)), nil},
		{"1<<32", fx.bin(ir.OpShl, k(1), k(32)), nil},
		{"1<<-1", fx.bin(ir.OpShl, k(1), k(-1)), nil},
		{"1.0/0.0", fx.b.Binary(ir.OpDiv, prim.PTYF64, fx.b.DoubleConst(1), fx.b.DoubleConst(0)), nil},
		{"max(nan,1)", fx.b.Binary(ir.OpMax, prim.PTYF64, fx.b.DoubleConst(math.NaN()), fx.b.DoubleConst(1)), nil},
	})
}

func TestConstantArithmetic(t *testing.T) {
	fx := newFixture(t)
	b, k := fx.b, fx.k
	a, c := float32(0.1), float32(0.2)
	runCases(t, fx.f, []foldCase{
		{"i8 wrap", b.Binary(ir.OpAdd, prim.PTYI8, b.SignedConst(127, prim.PTYI8), b.SignedConst(1, prim.PTYI8)), b.SignedConst(-128, prim.PTYI8)},
		{"u8 wrap", b.Binary(ir.OpSub, prim.PTYU8, b.IntConst(0, prim.PTYU8), b.IntConst(1, prim.PTYU8)), b.IntConst(255, prim.PTYU8)},
		{"mul wrap", fx.bin(ir.OpMul, k(math.MaxInt32), k(2)), k(-2)},
		{"div", fx.bin(ir.OpDiv, k(-7), k(2)), k(-3)},
		{"rem", fx.bin(ir.OpRem, k(-7), k(2)), k(-1)},
		{"ashr", fx.bin(ir.OpAshr, k(-8), k(1)), k(-4)},
		{"lshr", fx.bin(ir.OpLshr, k(-8), k(28)), k(15)},
		{"shl", fx.bin(ir.OpShl, k(1), k(31)), k(math.MinInt32)},
		{"land", fx.bin(ir.OpLand, k(3), k(0)), k(0)},
		{"cior", fx.bin(ir.OpCior, k(0), k(5)), k(1)},
		{"min", fx.bin(ir.OpMin, k(-1), k(1)), k(-1)},
		{"max unsigned", b.Binary(ir.OpMax, prim.PTYU32, b.IntConst(0xFFFFFFFF, prim.PTYU32), b.IntConst(1, prim.PTYU32)), b.IntConst(0xFFFFFFFF, prim.PTYU32)},
		{"f64 add", b.Binary(ir.OpAdd, prim.PTYF64, b.DoubleConst(1.5), b.DoubleConst(2.25)), b.DoubleConst(3.75)},
		{"f32 add", b.Binary(ir.OpAdd, prim.PTYF32, b.FloatConst(a), b.FloatConst(c)), b.FloatConst(a + c)},
		{"f64 max", b.Binary(ir.OpMax, prim.PTYF64, b.DoubleConst(-1), b.DoubleConst(2)), b.DoubleConst(2)},
	})
}

func TestUnaryFolds(t *testing.T) {
	fx := newFixture(t)
	b, X, k := fx.b, fx.X(), fx.k
	un := func(op ir.Op, pt prim.PrimType, x ir.Expr) ir.Expr { return b.Unary(op, pt, x) }
	runCases(t, fx.f, []foldCase{
		{"neg min wraps", un(ir.OpNeg, prim.PTYI32, k(math.MinInt32)), k(math.MinInt32)},
		{"neg", un(ir.OpNeg, prim.PTYI32, k(5)), k(-5)},
		{"abs", un(ir.OpAbs, prim.PTYI32, k(-5)), k(5)},
		{"bnot", un(ir.OpBnot, prim.PTYI32, k(0)), k(-1)},
		{"lnot", un(ir.OpLnot, prim.PTYI32, k(0)), k(1)},
		{"lnot float", un(ir.OpLnot, prim.PTYI32, b.DoubleConst(0)), k(1)},
		{"sqrt", un(ir.OpSqrt, prim.PTYF64, b.DoubleConst(4)), b.DoubleConst(2)},
		{"recip", un(ir.OpRecip, prim.PTYF64, b.DoubleConst(4)), b.DoubleConst(0.25)},
		{"recip 0", un(ir.OpRecip, prim.PTYF64, b.DoubleConst(0)), nil},
		{"fneg", un(ir.OpNeg, prim.PTYF64, b.DoubleConst(1.5)), b.DoubleConst(-1.5)},
		{"lnot cmp", un(ir.OpLnot, prim.PTYI32, fx.cmp(ir.OpEq, X, k(0))), fx.cmp(ir.OpNe, X, k(0))},
		{"bnot bnot", un(ir.OpBnot, prim.PTYI32, un(ir.OpBnot, prim.PTYI32, X)), X},
		{"neg x", un(ir.OpNeg, prim.PTYI32, X), nil},
	})
}

func TestConstantComparisons(t *testing.T) {
	fx := newFixture(t)
	b, k := fx.b, fx.k
	i64 := func(v int64) ir.Expr { return b.SignedConst(v, prim.PTYI64) }
	nan := b.DoubleConst(math.NaN())
	fcmp := func(op ir.Op, x, y ir.Expr) ir.Expr { return b.Compare(op, prim.PTYI32, prim.PTYF64, x, y) }
	runCases(t, fx.f, []foldCase{
		{"lt i64 0 1", b.Compare(ir.OpLt, prim.PTYU1, prim.PTYI64, i64(0), i64(1)), b.IntConst(1, prim.PTYU1)},
		{"cmp 2 1", fx.cmp(ir.OpCmp, k(2), k(1)), k(1)},
		{"cmp 1 2", fx.cmp(ir.OpCmp, k(1), k(2)), k(-1)},
		{"cmp 2 2", fx.cmp(ir.OpCmp, k(2), k(2)), k(0)},
		{"ge", fx.cmp(ir.OpGe, k(2), k(2)), k(1)},
		{"unsigned lt", b.Compare(ir.OpLt, prim.PTYI32, prim.PTYU32, b.IntConst(0xFFFFFFFF, prim.PTYU32), b.IntConst(1, prim.PTYU32)), k(0)},
		{"signed lt", fx.cmp(ir.OpLt, k(-1), k(1)), k(1)},
		{"flt", fcmp(ir.OpLt, b.DoubleConst(1), b.DoubleConst(2)), k(1)},
		{"nan eq", fcmp(ir.OpEq, nan, nan), k(0)},
		{"nan ne", fcmp(ir.OpNe, nan, b.DoubleConst(1)), k(1)},
		{"nan lt", fcmp(ir.OpLt, nan, b.DoubleConst(1)), k(0)},
		{"nan cmpl", fcmp(ir.OpCmpl, nan, b.DoubleConst(1)), k(-1)},
		{"nan cmpg", fcmp(ir.OpCmpg, nan, b.DoubleConst(1)), k(1)},
		{"nan cmp", fcmp(ir.OpCmp, nan, b.DoubleConst(1)), nil},
		{"inf eq", fcmp(ir.OpEq, b.DoubleConst(math.Inf(1)), b.DoubleConst(math.Inf(1))), k(1)},
		{"inf ne -inf", fcmp(ir.OpEq, b.DoubleConst(math.Inf(1)), b.DoubleConst(math.Inf(-1))), k(0)},
	})
}

func TestFloatComparisonsAreExact(t *testing.T) {
	fx := newFixture(t)
	b, k := fx.b, fx.k
	one, next := b.DoubleConst(1), b.DoubleConst(math.Nextafter(1, 2))
	fcmp := func(op ir.Op, x, y ir.Expr) ir.Expr { return b.Compare(op, prim.PTYI32, prim.PTYF64, x, y) }
	runCases(t, fx.f, []foldCase{
		{"eq", fcmp(ir.OpEq, one, next), k(0)},
		{"ne", fcmp(ir.OpNe, one, next), k(1)},
		{"lt", fcmp(ir.OpLt, one, next), k(1)},
		{"gt", fcmp(ir.OpGt, next, one), k(1)},
		{"le", fcmp(ir.OpLe, next, one), k(0)},
		{"cmp", fcmp(ir.OpCmp, one, next), k(-1)},
		{"cmp reversed", fcmp(ir.OpCmp, next, one), k(1)},
	})
}

func TestCompareRewrites(t *testing.T) {
	fx := newFixture(t)
	b, X, Y, U, k := fx.b, fx.X(), fx.Y(), fx.U(), fx.k
	u0 := b.IntConst(0, prim.PTYU32)
	runCases(t, fx.f, []foldCase{
		{"3<x", fx.cmp(ir.OpLt, k(3), X), fx.cmp(ir.OpGt, X, k(3))},
		{"3==x", fx.cmp(ir.OpEq, k(3), X), fx.cmp(ir.OpEq, X, k(3))},
		{"u>=0", b.Compare(ir.OpGe, prim.PTYI32, prim.PTYU32, U, u0), k(1)},
		{"u<0", b.Compare(ir.OpLt, prim.PTYI32, prim.PTYU32, U, u0), k(0)},
		{"x>=0", fx.cmp(ir.OpGe, X, k(0)), nil},
		{"(x+1)==5", fx.cmp(ir.OpEq, fx.bin(ir.OpAdd, X, k(1)), k(5)), fx.cmp(ir.OpEq, X, k(4))},
		{"(x-1)!=5", fx.cmp(ir.OpNe, fx.bin(ir.OpSub, X, k(1)), k(5)), fx.cmp(ir.OpNe, X, k(6))},
		{"cmp(x,y)<0", fx.cmp(ir.OpLt, fx.cmp(ir.OpCmp, X, Y), k(0)), fx.cmp(ir.OpLt, X, Y)},
		{"cmp(x,y)>u0", b.Compare(ir.OpGt, prim.PTYI32, prim.PTYU32, b.Compare(ir.OpCmp, prim.PTYU32, prim.PTYI32, X, Y), u0), nil},
		{"cmp(x,y)!=u0", b.Compare(ir.OpNe, prim.PTYI32, prim.PTYU32, b.Compare(ir.OpCmp, prim.PTYU32, prim.PTYI32, X, Y), u0),
			fx.cmp(ir.OpNe, X, Y)},
		{"(x<5)^1", fx.bin(ir.OpBxor, fx.cmp(ir.OpLt, X, k(5)), k(1)), fx.cmp(ir.OpGe, X, k(5))},
	})
}

func TestConversions(t *testing.T) {
	fx := newFixture(t)
	b, X, k := fx.b, fx.X(), fx.k
	cvt := func(op ir.Op, to, from prim.PrimType, x ir.Expr) ir.Expr { return b.TypeCvt(op, to, from, x) }
	d := b.DoubleConst
	runCases(t, fx.f, []foldCase{
		{"trunc", cvt(ir.OpCvt, prim.PTYI32, prim.PTYF64, d(3.9)), k(3)},
		{"floor", cvt(ir.OpFloor, prim.PTYI32, prim.PTYF64, d(-1.5)), k(-2)},
		{"ceil", cvt(ir.OpCeil, prim.PTYI32, prim.PTYF64, d(-1.5)), k(-1)},
		{"round", cvt(ir.OpRound, prim.PTYI32, prim.PTYF64, d(2.5)), k(3)},
		{"round neg", cvt(ir.OpRound, prim.PTYI32, prim.PTYF64, d(-2.5)), k(-3)},
		{"out of range", cvt(ir.OpCvt, prim.PTYI32, prim.PTYF64, d(3e10)), nil},
		{"near i32 max", cvt(ir.OpCvt, prim.PTYI32, prim.PTYF64, d(math.MaxInt32)), nil},
		{"nan", cvt(ir.OpCvt, prim.PTYI32, prim.PTYF64, d(math.NaN())), nil},
		{"negative to unsigned", cvt(ir.OpCvt, prim.PTYU32, prim.PTYF64, d(-1)), nil},
		{"to u1", cvt(ir.OpCvt, prim.PTYU1, prim.PTYI32, k(5)), b.IntConst(1, prim.PTYU1)},
		{"narrow", cvt(ir.OpCvt, prim.PTYI8, prim.PTYI32, k(300)), b.SignedConst(44, prim.PTYI8)},
		{"sign extend", cvt(ir.OpCvt, prim.PTYI64, prim.PTYI32, k(-1)), b.SignedConst(-1, prim.PTYI64)},
		{"zero extend", cvt(ir.OpCvt, prim.PTYU64, prim.PTYU32, b.IntConst(0xFFFFFFFF, prim.PTYU32)), b.IntConst(0xFFFFFFFF, prim.PTYU64)},
		{"signed to f64", cvt(ir.OpCvt, prim.PTYF64, prim.PTYI32, k(-1)), d(-1)},
		{"unsigned to f64", cvt(ir.OpCvt, prim.PTYF64, prim.PTYU32, b.IntConst(0xFFFFFFFF, prim.PTYU32)), d(4294967295)},
		{"f64 to f32", cvt(ir.OpCvt, prim.PTYF32, prim.PTYF64, d(0.5)), b.FloatConst(0.5)},
		{"same type", cvt(ir.OpCvt, prim.PTYI32, prim.PTYI32, X), X},
		{"widen narrow", cvt(ir.OpCvt, prim.PTYI32, prim.PTYI64, cvt(ir.OpCvt, prim.PTYI64, prim.PTYI32, X)), X},
		{"narrow widen", cvt(ir.OpCvt, prim.PTYI64, prim.PTYI32, X), nil},
	})
}

func TestExtractions(t *testing.T) {
	fx := newFixture(t)
	b, X, U, k := fx.b, fx.X(), fx.U(), fx.k
	ext := func(op ir.Op, pt prim.PrimType, off, size uint8, x ir.Expr) ir.Expr {
		return b.Extractbits(op, pt, off, size, x)
	}
	c8 := b.Dread(prim.PTYI32, fx.c)
	u := func(v uint64) ir.Expr { return b.IntConst(v, prim.PTYU32) }
	runCases(t, fx.f, []foldCase{
		{"sext", ext(ir.OpSext, prim.PTYI32, 0, 8, k(0xFF)), k(-1)},
		{"zext", ext(ir.OpZext, prim.PTYI32, 0, 8, k(0x1FF)), k(0xFF)},
		{"sext of u8 past its width", ext(ir.OpSext, prim.PTYI32, 0, 16, b.IntConst(0xFF, prim.PTYU8)), k(255)},
		{"sext of i8 past its width", ext(ir.OpSext, prim.PTYI32, 0, 16, b.SignedConst(-1, prim.PTYI8)), k(-1)},
		{"extract signed", ext(ir.OpExtractbits, prim.PTYI32, 4, 4, k(0xAB)), k(-6)},
		{"extract unsigned", ext(ir.OpExtractbits, prim.PTYU32, 4, 4, u(0xAB)), u(10)},
		{"sext of i8 load", ext(ir.OpSext, prim.PTYI32, 0, 8, c8), c8},
		{"zext of i8 load", ext(ir.OpZext, prim.PTYI32, 0, 8, c8), nil},
		{"nested zext", ext(ir.OpZext, prim.PTYI32, 0, 16, ext(ir.OpZext, prim.PTYI32, 0, 8, X)), ext(ir.OpZext, prim.PTYI32, 0, 8, X)},
		{"shift and mask", b.Binary(ir.OpBand, prim.PTYU32, b.Binary(ir.OpLshr, prim.PTYU32, U, u(4)), u(0xFF)),
			ext(ir.OpExtractbits, prim.PTYU32, 4, 8, U)},
		{"mask past width", b.Binary(ir.OpBand, prim.PTYU32, b.Binary(ir.OpLshr, prim.PTYU32, U, u(28)), u(0xFF)), nil},
		{"mask with gap", b.Binary(ir.OpBand, prim.PTYU32, b.Binary(ir.OpLshr, prim.PTYU32, U, u(4)), u(0xF0)), nil},
	})
}

func TestLoadsRetypesSelects(t *testing.T) {
	fx := newFixture(t)
	b, X, Y, k := fx.b, fx.X(), fx.Y(), fx.k
	tys := fx.g.Types
	p32 := tys.GetOrCreatePointer(tys.PrimTyIdx(prim.PTYI32), prim.PTYPtr)
	p64 := tys.GetOrCreatePointer(tys.PrimTyIdx(prim.PTYI64), prim.PTYPtr)
	addr := b.Addrof(prim.PTYPtr, fx.x)
	runCases(t, fx.f, []foldCase{
		{"iread addrof", b.Iread(prim.PTYI32, p32, addr), X},
		{"iread mismatched", b.Iread(prim.PTYI64, p64, addr), nil},
		{"retype int to float", b.Retype(prim.PTYF32, tys.PrimTyIdx(prim.PTYF32), k(0x3F800000)), b.FloatConst(1)},
		{"retype double to int", b.Retype(prim.PTYI64, tys.PrimTyIdx(prim.PTYI64), b.DoubleConst(1)), b.IntConst(0x3FF0000000000000, prim.PTYI64)},
		{"retype size mismatch", b.Retype(prim.PTYF64, tys.PrimTyIdx(prim.PTYF64), k(1)), nil},
		{"select true", b.Select(prim.PTYI32, k(1), X, Y), X},
		{"select false", b.Select(prim.PTYI32, k(0), X, Y), Y},
		{"select same arms", b.Select(prim.PTYI32, Y, X, X), X},
		{"select folds arm", b.Select(prim.PTYI32, k(1), fx.bin(ir.OpAdd, X, k(0)), Y), X},
		{"intrinsic args", b.Intrinsicop(prim.PTYI32, ir.IntrinsicBuiltinExpect, fx.bin(ir.OpAdd, k(1), k(2)), k(1)),
			b.Intrinsicop(prim.PTYI32, ir.IntrinsicBuiltinExpect, k(3), k(1))},
	})
}

func TestWideOperandsAreLeftAlone(t *testing.T) {
	fx := newFixture(t)
	b := fx.b
	w := b.Dread(prim.PTYI128, fx.wide)
	runCases(t, fx.f, []foldCase{
		{"i128 add", b.Binary(ir.OpAdd, prim.PTYI128, w, w), nil},
		{"i128 cvt", b.TypeCvt(ir.OpCvt, prim.PTYI64, prim.PTYI128, w), nil},
	})
}

func TestFoldCountsAndTraces(t *testing.T) {
	fx := newFixture(t)
	ring := trace.NewRingTracer(16, trace.LevelDebug)
	f := constfold.New(fx.g).WithTracer(ring)

	f.Fold(fx.bin(ir.OpAdd, fx.X(), fx.k(0)))
	f.Fold(fx.bin(ir.OpAdd, fx.X(), fx.Y()))
	if got := f.Stats().Exprs; got != 1 {
		t.Fatalf("Exprs = %d, want 1", got)
	}
	events := ring.Snapshot()
	if len(events) != 1 || events[0].Kind != trace.KindPoint || events[0].Name != "add" {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Extra["nodes"] != "3" || events[0].Extra["result"] != "1" {
		t.Fatalf("extra = %v", events[0].Extra)
	}
}
