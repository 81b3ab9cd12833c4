package constfold

import (
	"math"
	"math/bits"

	"maple/internal/intval"
	"maple/internal/ir"
	"maple/internal/prim"
)

func (f *Folder) foldBinary(n *ir.BinaryNode) foldResult {
	op, pt := n.Opcode, n.Type
	lp, rp := f.dispatch(n.X), f.dispatch(n.Y)
	lc, lConst := lp.constant()
	rc, rConst := rp.constant()

	switch {
	case lConst && rConst:
		if c := f.foldConstBinary(op, pt, lc, rc); c != nil {
			return plain(c)
		}
	case lConst && f.isInt(pt):
		if r, ok := f.foldLeftConst(op, pt, lc, rp); ok {
			return r
		}
	case rConst && f.isInt(pt):
		if r, ok := f.foldRightConst(op, pt, lp, rc); ok {
			return r
		}
	case (op == ir.OpAdd || op == ir.OpSub) && f.sameShape(pt, n.X.Prim()) && f.sameShape(pt, n.Y.Prim()):
		expr := f.rebuildBinary(n, lp.expr, rp.expr)
		if r, ok := lp.combine(rp, op, expr, f.shape(pt)); ok {
			return r
		}
	}
	return plain(f.rebuildBinary(n, f.materialize(lp, n.X.Prim()), f.materialize(rp, n.Y.Prim())))
}

// rebuildBinary returns n when its operands are unchanged.
func (f *Folder) rebuildBinary(n *ir.BinaryNode, x, y ir.Expr) ir.Expr {
	if x == n.X && y == n.Y {
		return n
	}
	return f.b.Binary(n.Opcode, n.Type, x, y)
}

// foldConstBinary evaluates op over two constants. It returns nil when the
// operation has no defined result: division by zero, the signed minimum
// divided by -1, out-of-range shift amounts and NaN operands of min or max.
func (f *Folder) foldConstBinary(op ir.Op, pt prim.PrimType, l, r *ir.ConstvalNode) ir.Expr {
	if f.isInt(pt) {
		li, lok := l.IntConst()
		ri, rok := r.IntConst()
		if !lok || !rok {
			return nil
		}
		v, ok := f.foldIntConstBinary(op, pt, li.Value, ri.Value)
		if !ok {
			return nil
		}
		return f.b.IntValConst(v, pt)
	}
	if pt.IsFloat() {
		lv, lok := floatValue(l)
		rv, rok := floatValue(r)
		if !lok || !rok {
			return nil
		}
		v, ok := foldFloatConstBinary(op, pt, lv, rv)
		if !ok {
			return nil
		}
		return f.b.FloatingConst(v, pt)
	}
	return nil
}

func boolVal(b bool, s prim.Shape) intval.IntVal {
	if b {
		return intval.FromShape(1, s)
	}
	return intval.FromShape(0, s)
}

func (f *Folder) foldIntConstBinary(op ir.Op, pt prim.PrimType, l, r intval.IntVal) (intval.IntVal, bool) {
	s := f.shape(pt)
	a, b := l.ToShape(s), r.ToShape(s)
	switch op {
	case ir.OpAdd:
		return a.Add(b), true
	case ir.OpSub:
		return a.Sub(b), true
	case ir.OpMul:
		return a.Mul(b), true
	case ir.OpDiv, ir.OpRem:
		if b.IsZero() || (s.Signed && a.IsMinValue() && b.IsAllOnes()) {
			return intval.IntVal{}, false
		}
		if op == ir.OpDiv {
			return a.Div(b), true
		}
		return a.Rem(b), true
	case ir.OpBand:
		return a.And(b), true
	case ir.OpBior:
		return a.Or(b), true
	case ir.OpBxor:
		return a.Xor(b), true
	case ir.OpShl, ir.OpAshr, ir.OpLshr:
		// The amount keeps its own type's signedness.
		amt := r.ExtValue(0)
		if amt < 0 || amt >= int64(s.Width) {
			return intval.IntVal{}, false
		}
		switch op {
		case ir.OpShl:
			return a.Shl(uint64(amt)), true
		case ir.OpAshr:
			return a.AShr(uint64(amt)), true
		default:
			return a.LShr(uint64(amt)), true
		}
	case ir.OpLand, ir.OpCand:
		return boolVal(!a.IsZero() && !b.IsZero(), s), true
	case ir.OpLior, ir.OpCior:
		return boolVal(!a.IsZero() || !b.IsZero(), s), true
	case ir.OpMin:
		if b.Lt(a) {
			return b, true
		}
		return a, true
	case ir.OpMax:
		if a.Lt(b) {
			return b, true
		}
		return a, true
	}
	return intval.IntVal{}, false
}

// foldFloatConstBinary evaluates op in the precision of pt.
func foldFloatConstBinary(op ir.Op, pt prim.PrimType, a, b float64) (float64, bool) {
	if op == ir.OpDiv && b == 0 {
		return 0, false
	}
	if (op == ir.OpMin || op == ir.OpMax) && (math.IsNaN(a) || math.IsNaN(b)) {
		return 0, false
	}
	if pt == prim.PTYF32 {
		x, y := float32(a), float32(b)
		switch op {
		case ir.OpAdd:
			return float64(x + y), true
		case ir.OpSub:
			return float64(x - y), true
		case ir.OpMul:
			return float64(x * y), true
		case ir.OpDiv:
			return float64(x / y), true
		}
	} else {
		switch op {
		case ir.OpAdd:
			return a + b, true
		case ir.OpSub:
			return a - b, true
		case ir.OpMul:
			return a * b, true
		case ir.OpDiv:
			return a / b, true
		}
	}
	switch op {
	case ir.OpMin:
		return math.Min(a, b), true
	case ir.OpMax:
		return math.Max(a, b), true
	}
	return 0, false
}

// foldLeftConst applies the identities with a constant first operand.
func (f *Folder) foldLeftConst(op ir.Op, pt prim.PrimType, lc *ir.ConstvalNode, rp foldResult) (foldResult, bool) {
	li, ok := lc.IntConst()
	if !ok {
		return foldResult{}, false
	}
	s := f.shape(pt)
	c := li.Value.ToShape(s)
	rShaped := f.sameShape(rp.expr.Prim(), pt)
	switch op {
	case ir.OpAdd:
		if !rShaped {
			break
		}
		off := rp.offsetAs(s)
		if s.Signed && c.AddOverflows(off) {
			break
		}
		return withOffset(rp.expr, c.Add(off)), true
	case ir.OpSub:
		if !rShaped {
			break
		}
		off := rp.offsetAs(s)
		if s.Signed && c.SubOverflows(off) {
			break
		}
		return withOffset(f.negateTree(rp.expr), c.Sub(off)), true
	case ir.OpMul:
		if c.IsOne() {
			return f.asType(rp, pt), true
		}
		if c.IsZero() {
			return plain(f.b.Zero(pt)), true
		}
	case ir.OpBior:
		if c.IsAllOnes() {
			return plain(f.b.IntValConst(c, pt)), true
		}
		if c.IsZero() {
			return f.asType(rp, pt), true
		}
	case ir.OpBxor:
		if c.IsZero() {
			return f.asType(rp, pt), true
		}
	case ir.OpBand:
		if c.IsAllOnes() {
			return f.asType(rp, pt), true
		}
		if c.IsZero() {
			return plain(f.b.Zero(pt)), true
		}
	case ir.OpShl, ir.OpAshr, ir.OpLshr:
		if c.IsZero() {
			return plain(f.b.Zero(pt)), true
		}
	case ir.OpLior, ir.OpCior:
		if !c.IsZero() {
			return plain(f.b.IntConst(1, pt)), true
		}
	case ir.OpLand, ir.OpCand:
		if c.IsZero() {
			return plain(f.b.Zero(pt)), true
		}
	}
	return foldResult{}, false
}

// foldRightConst applies the identities with a constant second operand.
func (f *Folder) foldRightConst(op ir.Op, pt prim.PrimType, lp foldResult, rc *ir.ConstvalNode) (foldResult, bool) {
	ri, ok := rc.IntConst()
	if !ok {
		return foldResult{}, false
	}
	s := f.shape(pt)
	c := ri.Value.ToShape(s)
	lShaped := f.sameShape(lp.expr.Prim(), pt)
	switch op {
	case ir.OpAdd:
		if !lShaped {
			break
		}
		off := lp.offsetAs(s)
		if s.Signed && off.AddOverflows(c) {
			break
		}
		return withOffset(lp.expr, off.Add(c)), true
	case ir.OpSub:
		if !lShaped {
			break
		}
		off := lp.offsetAs(s)
		if s.Signed && off.SubOverflows(c) {
			break
		}
		return withOffset(lp.expr, off.Sub(c)), true
	case ir.OpMul:
		if c.IsOne() {
			return f.asType(lp, pt), true
		}
		if c.IsZero() {
			return plain(f.b.Zero(pt)), true
		}
	case ir.OpDiv:
		if c.IsOne() {
			return f.asType(lp, pt), true
		}
		// (x * c) / c
		if m, ok := lp.expr.(*ir.BinaryNode); ok && !lp.hasOffset() && m.Opcode == ir.OpMul && lShaped && !c.IsZero() {
			if mc, ok := ir.AsIntConst(m.Y); ok && mc.Value.ToShape(s) == c && f.sameShape(m.X.Prim(), pt) {
				return plain(m.X), true
			}
		}
	case ir.OpRem:
		if c.IsOne() {
			return plain(f.b.Zero(pt)), true
		}
	case ir.OpBior:
		if c.IsAllOnes() {
			return plain(f.b.IntValConst(c, pt)), true
		}
		if c.IsZero() {
			return f.asType(lp, pt), true
		}
	case ir.OpBxor:
		if c.IsZero() {
			return f.asType(lp, pt), true
		}
		if c.IsOne() && !lp.hasOffset() {
			if cmp, ok := f.negateCompare(lp.expr, pt); ok {
				return plain(cmp), true
			}
		}
	case ir.OpBand:
		if c.IsAllOnes() {
			return f.asType(lp, pt), true
		}
		if c.IsZero() {
			return plain(f.b.Zero(pt)), true
		}
		if !lp.hasOffset() {
			if e, ok := f.shiftMaskToExtract(lp.expr, pt, c); ok {
				return plain(f.convert(e, pt)), true
			}
		}
	case ir.OpShl, ir.OpAshr, ir.OpLshr:
		if ri.Value.IsZero() {
			return f.asType(lp, pt), true
		}
	case ir.OpLior, ir.OpCior:
		if !c.IsZero() {
			return plain(f.b.IntConst(1, pt)), true
		}
	case ir.OpLand, ir.OpCand:
		if c.IsZero() {
			return plain(f.b.Zero(pt)), true
		}
	}
	return foldResult{}, false
}

// shiftMaskToExtract turns (x >> s) & (2^k - 1) into an unsigned bit-field
// extraction of k bits at offset s.
func (f *Folder) shiftMaskToExtract(e ir.Expr, pt prim.PrimType, mask intval.IntVal) (ir.Expr, bool) {
	sh, ok := e.(*ir.BinaryNode)
	if !ok || (sh.Opcode != ir.OpLshr && sh.Opcode != ir.OpAshr) || sh.Type != pt {
		return nil, false
	}
	amt, ok := ir.AsIntConst(sh.Y)
	if !ok || mask.IsZero() || mask.IsAllOnes() {
		return nil, false
	}
	// A low mask plus one is a power of two.
	if v := mask.Value(); v&(v+1) != 0 {
		return nil, false
	}
	k := int64(bits.Len64(mask.Value()))
	offset := amt.Value.ExtValue(0)
	width := int64(f.reg.ActualBitSize(pt))
	if offset < 0 || offset+k > width {
		return nil, false
	}
	upt := unsignedOf(f.reg.Resolve(pt))
	return f.b.Extractbits(ir.OpExtractbits, upt, uint8(offset), uint8(k), sh.X), true
}

// unsignedOf maps a signed integer kind to its unsigned counterpart.
func unsignedOf(pt prim.PrimType) prim.PrimType {
	switch pt {
	case prim.PTYI8:
		return prim.PTYU8
	case prim.PTYI16:
		return prim.PTYU16
	case prim.PTYI32:
		return prim.PTYU32
	case prim.PTYI64:
		return prim.PTYU64
	}
	return pt
}

// negateTree returns an expression computing -e, removing a negation or
// swapping a subtraction where it can.
func (f *Folder) negateTree(e ir.Expr) ir.Expr {
	switch n := e.(type) {
	case *ir.UnaryNode:
		if n.Opcode == ir.OpNeg {
			return n.X
		}
	case *ir.BinaryNode:
		if n.Opcode == ir.OpSub {
			return f.b.Binary(ir.OpSub, n.Type, n.Y, n.X)
		}
	case *ir.ConstvalNode:
		if c, ok := n.IntConst(); ok && f.isInt(n.Type) {
			return f.b.IntValConst(c.Value.ToShape(f.shape(n.Type)).Neg(), n.Type)
		}
	}
	return f.b.Unary(ir.OpNeg, e.Prim(), e)
}

// negateCompare returns the logical negation of an integer comparison,
// typed pt.
func (f *Folder) negateCompare(e ir.Expr, pt prim.PrimType) (ir.Expr, bool) {
	cmp, ok := e.(*ir.CompareNode)
	if !ok || !f.isInt(cmp.Opnd) {
		return nil, false
	}
	neg, ok := cmp.Opcode.Negated()
	if !ok {
		return nil, false
	}
	return f.b.Compare(neg, pt, cmp.Opnd, cmp.X, cmp.Y), true
}
