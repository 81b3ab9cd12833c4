package consts

import (
	"math"

	"maple/internal/ice"
	"maple/internal/intern"
	"maple/internal/intval"
	"maple/internal/prim"
	"maple/internal/strtab"
	"maple/internal/types"
)

type intKey struct {
	bits uint64
	ty   types.TyIdx
}

type strKey struct {
	str uint32
	ty  types.TyIdx
}

// Table interns integer and floating constants and pools string literals.
// Floats are keyed by bit pattern; NaN, the infinities and both zeros are
// prebuilt singletons that bypass the caches.
type Table struct {
	types *types.Table

	ints    *intern.Cache[intKey, *IntConst]
	floats  *intern.Cache[uint32, *FloatConst]
	doubles *intern.Cache[uint64, *DoubleConst]
	strs    *intern.Cache[strKey, *StrConst]
	strs16  *intern.Cache[strKey, *Str16Const]

	floatNaN, floatInf, floatNegInf, floatZero, floatNegZero      *FloatConst
	doubleNaN, doubleInf, doubleNegInf, doubleZero, doubleNegZero *DoubleConst
}

// NewTable builds an empty constant table over tys.
func NewTable(tys *types.Table) *Table {
	t := &Table{
		types:   tys,
		ints:    intern.NewCache[intKey, *IntConst](),
		floats:  intern.NewCache[uint32, *FloatConst](),
		doubles: intern.NewCache[uint64, *DoubleConst](),
		strs:    intern.NewCache[strKey, *StrConst](),
		strs16:  intern.NewCache[strKey, *Str16Const](),
	}
	t.initSingletons()
	return t
}

func (t *Table) initSingletons() {
	f32 := t.types.PrimTyIdx(prim.PTYF32)
	f64 := t.types.PrimTyIdx(prim.PTYF64)
	t.floatNaN = &FloatConst{Value: float32(math.NaN()), Ty: f32}
	t.floatInf = &FloatConst{Value: float32(math.Inf(1)), Ty: f32}
	t.floatNegInf = &FloatConst{Value: float32(math.Inf(-1)), Ty: f32}
	t.floatZero = &FloatConst{Value: 0, Ty: f32}
	t.floatNegZero = &FloatConst{Value: float32(math.Copysign(0, -1)), Ty: f32}
	t.doubleNaN = &DoubleConst{Value: math.NaN(), Ty: f64}
	t.doubleInf = &DoubleConst{Value: math.Inf(1), Ty: f64}
	t.doubleNegInf = &DoubleConst{Value: math.Inf(-1), Ty: f64}
	t.doubleZero = &DoubleConst{Value: 0, Ty: f64}
	t.doubleNegZero = &DoubleConst{Value: math.Copysign(0, -1), Ty: f64}
}

// GetOrCreateIntConst interns v truncated to the shape of ty. ty must be an
// integer, boolean or address type.
func (t *Table) GetOrCreateIntConst(v uint64, ty types.TyIdx) *IntConst {
	pt := t.types.PrimOf(ty)
	if !t.types.Registry().Resolve(pt).IsInteger() {
		ice.Fatalf("consts: integer constant of non-integer type %s", pt)
	}
	val := intval.FromShape(v, t.types.Registry().IntShape(pt))
	key := intKey{bits: val.Value(), ty: ty}
	return t.ints.GetOrInsert(key, func() *IntConst {
		return &IntConst{Value: val, Ty: ty}
	})
}

// GetOrCreateIntConstVal interns v converted to the shape of ty.
func (t *Table) GetOrCreateIntConstVal(v intval.IntVal, ty types.TyIdx) *IntConst {
	shape := t.types.Registry().IntShape(t.types.PrimOf(ty))
	return t.GetOrCreateIntConst(v.ToShape(shape).Value(), ty)
}

// GetOrCreateFloatConst interns a 32-bit float.
func (t *Table) GetOrCreateFloatConst(f float32) *FloatConst {
	f64 := float64(f)
	switch {
	case math.IsNaN(f64):
		return t.floatNaN
	case math.IsInf(f64, 1):
		return t.floatInf
	case math.IsInf(f64, -1):
		return t.floatNegInf
	case f == 0 && math.Signbit(f64):
		return t.floatNegZero
	case f == 0:
		return t.floatZero
	}
	bits := math.Float32bits(f)
	return t.floats.GetOrInsert(bits, func() *FloatConst {
		return &FloatConst{Value: f, Ty: t.types.PrimTyIdx(prim.PTYF32)}
	})
}

// GetOrCreateDoubleConst interns a 64-bit float.
func (t *Table) GetOrCreateDoubleConst(d float64) *DoubleConst {
	switch {
	case math.IsNaN(d):
		return t.doubleNaN
	case math.IsInf(d, 1):
		return t.doubleInf
	case math.IsInf(d, -1):
		return t.doubleNegInf
	case d == 0 && math.Signbit(d):
		return t.doubleNegZero
	case d == 0:
		return t.doubleZero
	}
	bits := math.Float64bits(d)
	return t.doubles.GetOrInsert(bits, func() *DoubleConst {
		return &DoubleConst{Value: d, Ty: t.types.PrimTyIdx(prim.PTYF64)}
	})
}

// GetOrCreateStrConst pools a user string literal of type ty.
func (t *Table) GetOrCreateStrConst(s strtab.UStrIdx, ty types.TyIdx) *StrConst {
	return t.strs.GetOrInsert(strKey{str: uint32(s), ty: ty}, func() *StrConst {
		return &StrConst{Str: s, Ty: ty}
	})
}

// GetOrCreateStr16Const pools a UTF-16 literal of type ty.
func (t *Table) GetOrCreateStr16Const(s strtab.U16StrIdx, ty types.TyIdx) *Str16Const {
	return t.strs16.GetOrInsert(strKey{str: uint32(s), ty: ty}, func() *Str16Const {
		return &Str16Const{Str: s, Ty: ty}
	})
}

// Zero returns the zero constant of a scalar type.
func (t *Table) Zero(ty types.TyIdx) Const {
	switch t.types.PrimOf(ty) {
	case prim.PTYF32:
		return t.floatZero
	case prim.PTYF64:
		return t.doubleZero
	default:
		return t.GetOrCreateIntConst(0, ty)
	}
}

// Stats counts interned entries per kind, singletons excluded.
type Stats struct {
	Ints, Floats, Doubles, Strs int
}

func (t *Table) Stats() Stats {
	return Stats{
		Ints:    t.ints.Len(),
		Floats:  t.floats.Len(),
		Doubles: t.doubles.Len(),
		Strs:    t.strs.Len() + t.strs16.Len(),
	}
}

// Reset drops every interned constant and rebuilds the singletons. Constants
// obtained before Reset must not be compared with ones obtained after it.
func (t *Table) Reset() {
	t.ints.Reset()
	t.floats.Reset()
	t.doubles.Reset()
	t.strs.Reset()
	t.strs16.Reset()
	t.initSingletons()
}
