// Package constfold simplifies expression trees by evaluating constant
// operands and applying algebraic identities, and prunes statements whose
// control flow becomes static as a result.
//
// The folder never edits an expression node in place: rewritten parents are
// rebuilt and untouched subtrees are shared with the input. Statements are
// updated in place so that profile counts keyed by statement survive.
package constfold

import (
	"strconv"

	"maple/internal/consts"
	"maple/internal/globals"
	"maple/internal/ice"
	"maple/internal/ir"
	"maple/internal/prim"
	"maple/internal/symtab"
	"maple/internal/trace"
	"maple/internal/types"
)

// maxFoldSize is the widest operand, in bytes, the folder evaluates.
const maxFoldSize = 8

// Stats counts the rewrites a folder has made.
type Stats struct {
	Exprs int
	Stmts int
}

// Folder folds expressions against one set of global tables. A Folder is
// not safe for concurrent use; give every goroutine its own.
type Folder struct {
	g      *globals.Tables
	b      *ir.Builder
	reg    prim.Registry
	fn     *ir.Function
	tracer trace.Tracer
	stats  Stats
}

// New returns a folder over g.
func New(g *globals.Tables) *Folder {
	return &Folder{
		g:      g,
		b:      g.Builder(),
		reg:    g.Prims,
		tracer: trace.Nop,
	}
}

// ForFunction returns a fresh folder that resolves local symbols of fn and
// updates its profile. Counters start at zero.
func (f *Folder) ForFunction(fn *ir.Function) *Folder {
	return &Folder{g: f.g, b: f.b, reg: f.reg, fn: fn, tracer: f.tracer}
}

// WithTracer sets the tracer that receives a point event per rewrite.
func (f *Folder) WithTracer(t trace.Tracer) *Folder {
	if t == nil {
		t = trace.Nop
	}
	f.tracer = t
	return f
}

// Stats returns the rewrite counters.
func (f *Folder) Stats() Stats { return f.stats }

// Fold returns the simplified form of e, or nil when no rewrite applies.
// Folding a result again returns nil.
func (f *Folder) Fold(e ir.Expr) ir.Expr {
	if e == nil {
		return nil
	}
	r := f.materialize(f.dispatch(e), e.Prim())
	if r == e || ir.Equal(r, e) {
		return nil
	}
	f.stats.Exprs++
	if f.tracer.Enabled() {
		trace.Point(f.tracer, trace.ScopeNode, e.Op().String(), "fold",
			"nodes", strconv.Itoa(ir.CountNodes(e)),
			"result", strconv.Itoa(ir.CountNodes(r)))
	}
	return r
}

// Simplify is Fold that returns e itself when nothing changes.
func (f *Folder) Simplify(e ir.Expr) ir.Expr {
	if r := f.Fold(e); r != nil {
		return r
	}
	return e
}

// dispatch routes e to the rule set of its opcode family.
func (f *Folder) dispatch(e ir.Expr) foldResult {
	if f.tooWide(e) {
		return plain(e)
	}
	switch n := e.(type) {
	case *ir.ConstvalNode, *ir.DreadNode, *ir.AddrofNode:
		return plain(e)
	case *ir.IreadNode:
		return f.foldIread(n)
	case *ir.UnaryNode:
		return f.foldUnary(n)
	case *ir.TypeCvtNode:
		return f.foldTypeCvt(n)
	case *ir.RetypeNode:
		return f.foldRetype(n)
	case *ir.ExtractbitsNode:
		return f.foldExtractbits(n)
	case *ir.BinaryNode:
		return f.foldBinary(n)
	case *ir.CompareNode:
		return f.foldCompare(n)
	case *ir.TernaryNode:
		return f.foldTernary(n)
	case *ir.IntrinsicopNode:
		return f.foldIntrinsicop(n)
	}
	ice.Fatalf("constfold: unexpected expression %T", e)
	return foldResult{}
}

// tooWide reports whether e or one of its direct operands is wider than the
// folder evaluates. Such nodes are left alone together with their subtrees.
func (f *Folder) tooWide(e ir.Expr) bool {
	if f.reg.Size(e.Prim()) > maxFoldSize {
		return true
	}
	for _, x := range ir.Operands(e) {
		if f.reg.Size(x.Prim()) > maxFoldSize {
			return true
		}
	}
	return false
}

// isInt reports whether pt is an integer or address kind the folder can
// shape.
func (f *Folder) isInt(pt prim.PrimType) bool {
	r := f.reg.Resolve(pt)
	return r.IsInteger() && f.reg.Size(r) <= maxFoldSize && f.reg.Size(r) > 0
}

func (f *Folder) shape(pt prim.PrimType) prim.Shape { return f.reg.IntShape(pt) }

// sameShape reports whether values of a and b have identical integer shape.
func (f *Folder) sameShape(a, b prim.PrimType) bool {
	return f.isInt(a) && f.isInt(b) && f.shape(a) == f.shape(b)
}

// convert returns e as a value of type pt, adding a cvt unless none is
// needed. Constants are re-created at pt.
func (f *Folder) convert(e ir.Expr, pt prim.PrimType) ir.Expr {
	from := e.Prim()
	if from == pt {
		return e
	}
	if c, ok := ir.AsIntConst(e); ok && f.isInt(pt) {
		return f.b.IntValConst(c.Value, pt)
	}
	if f.reg.IsNoCvtNeeded(pt, from) {
		return e
	}
	return f.b.Cvt(pt, from, e)
}

// asType turns r into a foldResult of type pt, keeping the pending offset
// when the shapes agree.
func (f *Folder) asType(r foldResult, pt prim.PrimType) foldResult {
	if r.expr.Prim() == pt || (r.hasOffset() && f.sameShape(r.expr.Prim(), pt)) {
		return r
	}
	return plain(f.convert(f.materialize(r, r.expr.Prim()), pt))
}

// floatValue returns the value of an f32 or f64 constant as a host double.
func floatValue(c *ir.ConstvalNode) (float64, bool) {
	switch v := c.Const.(type) {
	case *consts.FloatConst:
		return float64(v.Value), true
	case *consts.DoubleConst:
		return v.Value, true
	}
	return 0, false
}

// isTrue reports the truth of a constant condition. ok is false for
// non-numeric constants.
func isTrue(c *ir.ConstvalNode) (truth, ok bool) {
	if ic, isInt := c.IntConst(); isInt {
		return !ic.Value.IsZero(), true
	}
	if v, isFloat := floatValue(c); isFloat {
		return v != 0, true
	}
	return false, false
}

// symbolType returns the declared type of a symbol, or false when it is a
// local and no function is bound.
func (f *Folder) symbolType(idx symtab.StIdx) (types.TyIdx, bool) {
	if !idx.IsGlobal() && f.fn == nil {
		return types.NoTyIdx, false
	}
	return f.g.SymbolFromStIdx(f.fn, idx).Ty, true
}
