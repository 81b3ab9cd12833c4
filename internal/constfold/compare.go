package constfold

import (
	"math"

	"maple/internal/ir"
	"maple/internal/prim"
)

func (f *Folder) foldCompare(n *ir.CompareNode) foldResult {
	op, pt, opnd := n.Opcode, n.Type, n.Opnd
	lp, rp := f.dispatch(n.X), f.dispatch(n.Y)
	lc, lConst := lp.constant()
	rc, rConst := rp.constant()

	if lConst && rConst {
		if c := f.foldConstCompare(op, pt, opnd, lc, rc); c != nil {
			return plain(c)
		}
		return plain(f.rebuildCompare(n, op, lc, rc))
	}

	// Keep constants on the right.
	if lConst {
		if _, isInt := lc.IntConst(); isInt {
			if rev, ok := op.Reversed(); ok {
				op, lp, rp = rev, rp, lp
				rc, rConst = lc, true
			}
		}
	}

	if rConst && f.isInt(opnd) {
		if e, ok := f.foldCompareRightConst(op, pt, opnd, lp, rc); ok {
			return plain(e)
		}
	}
	x := f.materialize(lp, lp.expr.Prim())
	y := f.materialize(rp, rp.expr.Prim())
	return plain(f.rebuildCompare(n, op, x, y))
}

// rebuildCompare returns n when the opcode and operands are unchanged.
func (f *Folder) rebuildCompare(n *ir.CompareNode, op ir.Op, x, y ir.Expr) ir.Expr {
	if op == n.Opcode && x == n.X && y == n.Y {
		return n
	}
	return f.b.Compare(op, n.Type, n.Opnd, x, y)
}

func (f *Folder) foldCompareRightConst(op ir.Op, pt, opnd prim.PrimType, lp foldResult, rc *ir.ConstvalNode) (ir.Expr, bool) {
	ri, ok := rc.IntConst()
	if !ok {
		return nil, false
	}
	s := f.shape(opnd)
	c := ri.Value.ToShape(s)

	// (x + c1) == c2  ->  x == c2 - c1
	if (op == ir.OpEq || op == ir.OpNe) && lp.hasOffset() && f.sameShape(lp.expr.Prim(), opnd) {
		return f.b.Compare(op, pt, opnd, lp.expr, f.b.IntValConst(c.Sub(lp.offsetAs(s)), opnd)), true
	}
	if lp.hasOffset() || !c.IsZero() {
		return nil, false
	}
	if !s.Signed {
		switch op {
		case ir.OpGe:
			return f.b.IntConst(1, pt), true
		case ir.OpLt:
			return f.b.Zero(pt), true
		}
	}
	// cmp(a, b) op 0  ->  a op b; an unsigned outer compare sees -1 as the
	// largest value, so only eq and ne survive the rewrite there.
	if inner, ok := lp.expr.(*ir.CompareNode); ok && inner.Opcode == ir.OpCmp && f.isInt(inner.Opnd) {
		if _, isRel := op.Negated(); isRel && (s.Signed || op == ir.OpEq || op == ir.OpNe) {
			return f.b.Compare(op, pt, inner.Opnd, inner.X, inner.Y), true
		}
	}
	return nil, false
}

// foldConstCompare evaluates a comparison of two constants, or returns nil.
// cmp, cmpl and cmpg yield -1, 0 or 1; with a NaN operand cmpl yields -1,
// cmpg yields 1 and cmp is left alone.
func (f *Folder) foldConstCompare(op ir.Op, pt, opnd prim.PrimType, l, r *ir.ConstvalNode) ir.Expr {
	if !f.isInt(pt) {
		return nil
	}
	var gt, eq, lt bool
	li, lok := l.IntConst()
	ri, rok := r.IntConst()
	switch {
	case lok && rok:
		if !f.isInt(opnd) {
			return nil
		}
		ropnd := f.reg.Resolve(opnd)
		gt = li.Value.Greater(ri.Value, ropnd)
		eq = li.Value.Equal(ri.Value, ropnd)
		lt = li.Value.Less(ri.Value, ropnd)
	case !lok && !rok:
		lv, lfok := floatValue(l)
		rv, rfok := floatValue(r)
		if !lfok || !rfok {
			return nil
		}
		if math.IsNaN(lv) || math.IsNaN(rv) {
			return f.nanCompare(op, pt)
		}
		eq = fullyEqual(lv, rv)
		gt, lt = !eq && lv > rv, !eq && lv < rv
	default:
		return nil
	}

	var res int64
	switch op {
	case ir.OpEq:
		res = b2i(eq)
	case ir.OpNe:
		res = b2i(!eq)
	case ir.OpGe:
		res = b2i(gt || eq)
	case ir.OpGt:
		res = b2i(gt)
	case ir.OpLe:
		res = b2i(lt || eq)
	case ir.OpLt:
		res = b2i(lt)
	case ir.OpCmp, ir.OpCmpl, ir.OpCmpg:
		switch {
		case gt:
			res = 1
		case eq:
			res = 0
		default:
			res = -1
		}
	default:
		return nil
	}
	return f.b.SignedConst(res, pt)
}

func (f *Folder) nanCompare(op ir.Op, pt prim.PrimType) ir.Expr {
	switch op {
	case ir.OpNe:
		return f.b.IntConst(1, pt)
	case ir.OpEq, ir.OpGe, ir.OpGt, ir.OpLe, ir.OpLt:
		return f.b.Zero(pt)
	case ir.OpCmpl:
		return f.b.SignedConst(-1, pt)
	case ir.OpCmpg:
		return f.b.IntConst(1, pt)
	}
	return nil
}

// fullyEqual is exact equality. Infinities are compared directly so two of
// the same sign are equal without going through a subtraction.
func fullyEqual(a, b float64) bool {
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return a == b
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
