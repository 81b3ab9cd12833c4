package constfold

import (
	"math"

	"maple/internal/intval"
	"maple/internal/ir"
	"maple/internal/prim"
)

func (f *Folder) foldUnary(n *ir.UnaryNode) foldResult {
	op, pt := n.Opcode, n.Type
	p := f.dispatch(n.X)
	if c, ok := p.constant(); ok {
		if e := f.foldConstUnary(op, pt, c); e != nil {
			return plain(e)
		}
		return plain(f.rebuildUnary(n, c))
	}
	switch op {
	case ir.OpNeg:
		if f.isInt(pt) && f.sameShape(p.expr.Prim(), pt) {
			return withOffset(f.negateTree(p.expr), p.offsetAs(f.shape(pt)).Neg())
		}
	case ir.OpLnot:
		if !p.hasOffset() {
			if e, ok := f.negateCompare(p.expr, pt); ok {
				return plain(e)
			}
		}
	case ir.OpBnot:
		if inner, ok := p.expr.(*ir.UnaryNode); ok && !p.hasOffset() && inner.Opcode == ir.OpBnot && inner.X.Prim() == pt {
			return plain(inner.X)
		}
	}
	return plain(f.rebuildUnary(n, f.materialize(p, n.X.Prim())))
}

func (f *Folder) rebuildUnary(n *ir.UnaryNode, x ir.Expr) ir.Expr {
	if x == n.X {
		return n
	}
	return f.b.Unary(n.Opcode, n.Type, x)
}

func (f *Folder) foldConstUnary(op ir.Op, pt prim.PrimType, c *ir.ConstvalNode) ir.Expr {
	if ic, ok := c.IntConst(); ok {
		if !f.isInt(pt) {
			return nil
		}
		if op == ir.OpLnot {
			return f.b.IntValConst(boolVal(ic.Value.IsZero(), f.shape(pt)), pt)
		}
		v := ic.Value.ToShape(f.shape(pt))
		switch op {
		case ir.OpAbs:
			return f.b.IntValConst(v.Abs(), pt)
		case ir.OpBnot:
			return f.b.IntValConst(v.Not(), pt)
		case ir.OpNeg:
			return f.b.IntValConst(v.Neg(), pt)
		}
		return nil
	}
	v, ok := floatValue(c)
	if !ok {
		return nil
	}
	if op == ir.OpLnot && f.isInt(pt) {
		return f.b.IntConst(uint64(b2i(v == 0)), pt)
	}
	if !pt.IsFloat() {
		return nil
	}
	switch op {
	case ir.OpAbs:
		v = math.Abs(v)
	case ir.OpNeg:
		v = -v
	case ir.OpSqrt:
		if pt == prim.PTYF32 {
			v = float64(float32(math.Sqrt(float64(float32(v)))))
		} else {
			v = math.Sqrt(v)
		}
	case ir.OpRecip:
		if v == 0 {
			return nil
		}
		if pt == prim.PTYF32 {
			v = float64(1 / float32(v))
		} else {
			v = 1 / v
		}
	default:
		return nil
	}
	return f.b.FloatingConst(v, pt)
}

func (f *Folder) foldTypeCvt(n *ir.TypeCvtNode) foldResult {
	p := f.dispatch(n.X)
	if c, ok := p.constant(); ok {
		if e := f.foldConstCvt(n.Opcode, n.Type, c); e != nil {
			return plain(e)
		}
		return plain(f.rebuildCvt(n, c))
	}
	x := f.materialize(p, n.X.Prim())
	if n.Opcode == ir.OpCvt {
		if n.Type == n.From && x.Prim() == n.Type {
			return plain(x)
		}
		// Widening then narrowing back is a no-op for integers.
		if inner, ok := x.(*ir.TypeCvtNode); ok && inner.Opcode == ir.OpCvt &&
			f.isInt(n.Type) && f.isInt(inner.Type) && inner.From == n.Type &&
			inner.X.Prim() == n.Type && f.reg.Size(inner.Type) >= f.reg.Size(n.Type) {
			return plain(inner.X)
		}
	}
	return plain(f.rebuildCvt(n, x))
}

func (f *Folder) rebuildCvt(n *ir.TypeCvtNode, x ir.Expr) ir.Expr {
	if x == n.X {
		return n
	}
	return f.b.TypeCvt(n.Opcode, n.Type, n.From, x)
}

func (f *Folder) foldConstCvt(op ir.Op, to prim.PrimType, c *ir.ConstvalNode) ir.Expr {
	ic, isInt := c.IntConst()
	switch {
	case isInt && f.isInt(to):
		if to == prim.PTYU1 {
			return f.b.IntConst(uint64(b2i(!ic.Value.IsZero())), to)
		}
		return f.b.IntValConst(ic.Value.ToShape(f.shape(to)), to)
	case isInt && to.IsFloat():
		return f.intToFloat(ic.Value, to)
	case !isInt && f.isInt(to):
		v, ok := floatValue(c)
		if !ok {
			return nil
		}
		return f.floatToInt(op, to, v)
	case !isInt && to.IsFloat():
		v, ok := floatValue(c)
		if !ok {
			return nil
		}
		v = roundFor(op, v)
		return f.b.FloatingConst(v, to)
	}
	return nil
}

func (f *Folder) intToFloat(v intval.IntVal, to prim.PrimType) ir.Expr {
	if to == prim.PTYF32 {
		if v.IsSigned() {
			return f.b.FloatConst(float32(v.SXTValue(0)))
		}
		return f.b.FloatConst(float32(v.Value()))
	}
	if v.IsSigned() {
		return f.b.DoubleConst(float64(v.SXTValue(0)))
	}
	return f.b.DoubleConst(float64(v.Value()))
}

// roundFor applies the rounding of a conversion opcode.
func roundFor(op ir.Op, v float64) float64 {
	switch op {
	case ir.OpCeil:
		return math.Ceil(v)
	case ir.OpFloor:
		return math.Floor(v)
	case ir.OpRound:
		return math.Round(v)
	case ir.OpTrunc:
		return math.Trunc(v)
	}
	return v
}

// floatToInt converts when the rounded value is safely inside the range of
// to. Bounds of the wide kinds are pulled in so that the host conversion
// never sees a value that rounds past the limit.
func (f *Folder) floatToInt(op ir.Op, to prim.PrimType, v float64) ir.Expr {
	if math.IsNaN(v) {
		return nil
	}
	if to == prim.PTYU1 {
		return f.b.IntConst(uint64(b2i(v != 0)), to)
	}
	if op == ir.OpCvt {
		op = ir.OpTrunc
	}
	v = roundFor(op, v)
	rt := f.reg.Resolve(to)
	lo, hi, ok := safeRange(rt)
	if !ok || v < lo || v > hi {
		return nil
	}
	if rt.IsSigned() {
		return f.b.SignedConst(int64(v), to)
	}
	return f.b.IntConst(uint64(v), to)
}

func safeRange(pt prim.PrimType) (lo, hi float64, ok bool) {
	switch pt {
	case prim.PTYI8:
		return math.MinInt8, math.MaxInt8, true
	case prim.PTYI16:
		return math.MinInt16, math.MaxInt16, true
	case prim.PTYI32:
		return -(1<<31 - 128), 1<<31 - 128, true
	case prim.PTYI64:
		return -(1<<63 - 1024), 1<<63 - 1024, true
	case prim.PTYU8:
		return 0, math.MaxUint8, true
	case prim.PTYU16:
		return 0, math.MaxUint16, true
	case prim.PTYU32, prim.PTYA32:
		return 0, 1<<32 - 256, true
	case prim.PTYU64, prim.PTYA64:
		return 0, 1<<64 - 2048, true
	}
	return 0, 0, false
}

func (f *Folder) foldRetype(n *ir.RetypeNode) foldResult {
	p := f.dispatch(n.X)
	x := f.materialize(p, n.X.Prim())
	if c, ok := x.(*ir.ConstvalNode); ok {
		if e := f.retypeConst(n.Type, c); e != nil {
			return plain(e)
		}
	}
	if inner, ok := x.(*ir.RetypeNode); ok {
		return plain(f.b.Retype(n.Type, n.Ty, inner.X))
	}
	if x == n.X {
		return plain(n)
	}
	return plain(f.b.Retype(n.Type, n.Ty, x))
}

// retypeConst reinterprets the bits of a constant of the same size.
func (f *Folder) retypeConst(to prim.PrimType, c *ir.ConstvalNode) ir.Expr {
	if f.reg.Size(to) != f.reg.Size(c.Type) || f.reg.Size(to) == 0 {
		return nil
	}
	ic, isInt := c.IntConst()
	switch {
	case isInt && f.isInt(to):
		return f.b.IntConst(ic.Value.Value(), to)
	case isInt && to == prim.PTYF32:
		return f.b.FloatConst(math.Float32frombits(uint32(ic.Value.Value())))
	case isInt && to == prim.PTYF64:
		return f.b.DoubleConst(math.Float64frombits(ic.Value.Value()))
	case !isInt && f.isInt(to):
		v, ok := floatValue(c)
		if !ok {
			return nil
		}
		if c.Type == prim.PTYF32 {
			return f.b.IntConst(uint64(math.Float32bits(float32(v))), to)
		}
		return f.b.IntConst(math.Float64bits(v), to)
	}
	return nil
}

func (f *Folder) foldExtractbits(n *ir.ExtractbitsNode) foldResult {
	p := f.dispatch(n.X)
	x := f.materialize(p, n.X.Prim())
	if c, ok := ir.AsIntConst(x); ok && f.isInt(n.Type) && n.Size > 0 {
		v := c.Value
		switch n.Opcode {
		case ir.OpSext:
			return plain(f.b.SignedConst(v.SXTValue(n.Size), n.Type))
		case ir.OpZext:
			return plain(f.b.IntConst(v.ZXTValue(n.Size), n.Type))
		case ir.OpExtractbits:
			if int(n.Offset)+int(n.Size) <= int(v.Width()) {
				field := intval.New(v.Value()>>n.Offset, n.Size, f.shape(n.Type).Signed)
				return plain(f.b.SignedConst(field.ExtValue(0), n.Type))
			}
		}
	}
	if inner, ok := x.(*ir.ExtractbitsNode); ok && inner.Opcode == n.Opcode && inner.Type == n.Type {
		if inner.Offset == n.Offset && inner.Size == n.Size {
			return plain(inner)
		}
		// A narrower extension already fixes the wider one's bits.
		if n.Opcode != ir.OpExtractbits && inner.Size <= n.Size {
			return plain(inner)
		}
	}
	if n.Opcode != ir.OpExtractbits && x.Prim() == n.Type {
		if lp, ok := f.loadPrim(x); ok && f.isInt(lp) &&
			f.reg.ActualBitSize(lp) == uint32(n.Size) &&
			f.shape(lp).Signed == (n.Opcode == ir.OpSext) {
			return plain(x)
		}
	}
	if x == n.X {
		return plain(n)
	}
	return plain(f.b.Extractbits(n.Opcode, n.Type, n.Offset, n.Size, x))
}

// loadPrim returns the stored type of the location a dread or iread loads
// from. The load already extends such a value to its result type.
func (f *Folder) loadPrim(e ir.Expr) (prim.PrimType, bool) {
	switch n := e.(type) {
	case *ir.DreadNode:
		ty, ok := f.symbolType(n.Sym)
		if !ok {
			return prim.PTYInvalid, false
		}
		return f.g.Types.PrimOf(ty), true
	case *ir.IreadNode:
		ptr, ok := f.g.Types.Lookup(n.PtrTy)
		if !ok || !ptr.IsPointer() {
			return prim.PTYInvalid, false
		}
		return f.g.Types.PrimOf(ptr.Pointee), true
	}
	return prim.PTYInvalid, false
}

func (f *Folder) foldIread(n *ir.IreadNode) foldResult {
	p := f.dispatch(n.Addr)
	addr := f.materialize(p, n.Addr.Prim())
	if a, ok := addr.(*ir.AddrofNode); ok {
		ptr, found := f.g.Types.Lookup(n.PtrTy)
		if ty, known := f.symbolType(a.Sym); found && known && ptr.IsPointer() && ptr.Pointee == ty {
			return plain(f.b.Dread(n.Type, a.Sym))
		}
	}
	if addr == n.Addr {
		return plain(n)
	}
	return plain(f.b.Iread(n.Type, n.PtrTy, addr))
}

func (f *Folder) foldTernary(n *ir.TernaryNode) foldResult {
	cp := f.dispatch(n.Cond)
	cond := f.materialize(cp, n.Cond.Prim())
	if c, ok := cond.(*ir.ConstvalNode); ok {
		if truth, ok := isTrue(c); ok {
			arm := n.Y
			if truth {
				arm = n.X
			}
			return plain(f.materialize(f.dispatch(arm), arm.Prim()))
		}
	}
	x := f.materialize(f.dispatch(n.X), n.X.Prim())
	y := f.materialize(f.dispatch(n.Y), n.Y.Prim())
	if ir.Equal(x, y) {
		return plain(x)
	}
	if cond == n.Cond && x == n.X && y == n.Y {
		return plain(n)
	}
	return plain(f.b.Select(n.Type, cond, x, y))
}

func (f *Folder) foldIntrinsicop(n *ir.IntrinsicopNode) foldResult {
	var args []ir.Expr
	for i, a := range n.Args {
		folded := f.materialize(f.dispatch(a), a.Prim())
		if folded != a && args == nil {
			args = make([]ir.Expr, len(n.Args))
			copy(args, n.Args[:i])
		}
		if args != nil {
			args[i] = folded
		}
	}
	if args == nil {
		return plain(n)
	}
	return plain(f.b.Intrinsicop(n.Type, n.Intrinsic, args...))
}
