package constfold

import (
	"maple/internal/intval"
	"maple/internal/ir"
	"maple/internal/prim"
)

// foldResult is a rewritten expression plus an integer offset that has not
// been added to it yet. Chains like ((a+1)+2)-4 fold to (a, -1) without
// building intermediate nodes; the offset is turned into an add or sub only
// when a parent needs a concrete expression.
//
// off is either unset or shaped like expr's result type.
type foldResult struct {
	expr ir.Expr
	off  intval.IntVal
}

func plain(e ir.Expr) foldResult { return foldResult{expr: e} }

func withOffset(e ir.Expr, off intval.IntVal) foldResult {
	return foldResult{expr: e, off: off}
}

// hasOffset reports whether a non-zero offset is pending.
func (r foldResult) hasOffset() bool {
	return r.off.IsSet() && !r.off.IsZero()
}

// offsetAs returns the pending offset in shape s, or zero.
func (r foldResult) offsetAs(s prim.Shape) intval.IntVal {
	if !r.off.IsSet() {
		return intval.FromShape(0, s)
	}
	return r.off.ToShape(s)
}

// constant returns expr as a constval when no offset is pending.
func (r foldResult) constant() (*ir.ConstvalNode, bool) {
	if r.hasOffset() {
		return nil, false
	}
	c, ok := r.expr.(*ir.ConstvalNode)
	return c, ok
}

// combine merges the offsets of two results joined by add or sub into a
// result whose expression is expr. ok is false for any other opcode.
func (r foldResult) combine(o foldResult, op ir.Op, expr ir.Expr, s prim.Shape) (foldResult, bool) {
	a, b := r.offsetAs(s), o.offsetAs(s)
	switch op {
	case ir.OpAdd:
		return withOffset(expr, a.Add(b)), true
	case ir.OpSub:
		return withOffset(expr, a.Sub(b)), true
	default:
		return foldResult{}, false
	}
}

// materialize turns r into a single expression of type pt:
//
//	(-a, c) with c >= 0   ->  c - a
//	(a, c)  with c >= 0   ->  a + c
//	(a, c)  with c < 0    ->  a - |c|
//
// The signed minimum has no positive counterpart and is always added.
func (f *Folder) materialize(r foldResult, pt prim.PrimType) ir.Expr {
	if !r.hasOffset() {
		return r.expr
	}
	off := r.off.ToShape(f.reg.IntShape(pt))
	if off.IsZero() {
		return r.expr
	}
	if neg, ok := r.expr.(*ir.UnaryNode); ok && neg.Opcode == ir.OpNeg && !off.SignBit() {
		return f.b.Binary(ir.OpSub, pt, f.b.IntValConst(off, pt), neg.X)
	}
	if !off.SignBit() || off.Neg() == off {
		return f.b.Binary(ir.OpAdd, pt, r.expr, f.b.IntValConst(off, pt))
	}
	return f.b.Binary(ir.OpSub, pt, r.expr, f.b.IntValConst(off.Neg(), pt))
}
