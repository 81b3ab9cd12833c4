// Package intval implements fixed-width two's-complement integers of 1 to 64
// bits.
//
// An IntVal stores its bits pre-masked to its width: every constructor and
// every operator truncates before the result is observable. Binary operators
// require both operands to share width and signedness; mixing them is an
// internal compiler error, and conversions must go through TruncOrExtend.
package intval

import (
	"fmt"
	"math/bits"
	"strconv"

	"maple/internal/ice"
	"maple/internal/prim"
)

// IntVal is a (bits, width, signedness) triple. The zero value is unset: it
// has width 0 and accepts exactly one Assign that fixes its shape.
type IntVal struct {
	value  uint64
	width  uint8
	signed bool
}

// New builds a value of the given width, truncating v.
func New(v uint64, width uint8, signed bool) IntVal {
	if width == 0 || width > 64 {
		ice.Fatalf("intval: invalid width %d", width)
	}
	return IntVal{value: v & mask(width), width: width, signed: signed}
}

// FromInt64 builds a value from a signed host integer.
func FromInt64(v int64, width uint8, signed bool) IntVal {
	return New(uint64(v), width, signed)
}

// FromShape builds a value with the width and signedness of s.
func FromShape(v uint64, s prim.Shape) IntVal {
	return New(v, s.Width, s.Signed)
}

// FromPrim builds a value shaped like pt. u1 is one bit wide. pt must be a
// target-independent integer kind.
func FromPrim(v uint64, pt prim.PrimType) IntVal {
	return FromShape(v, prim.ShapeOf(pt))
}

// MinValue returns the smallest representable value of the shape.
func MinValue(width uint8, signed bool) IntVal {
	if signed {
		return New(uint64(1)<<(width-1), width, true)
	}
	return New(0, width, false)
}

// MaxValue returns the largest representable value of the shape.
func MaxValue(width uint8, signed bool) IntVal {
	if signed {
		return New(mask(width)>>1, width, true)
	}
	return New(mask(width), width, false)
}

func mask(width uint8) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

// IsSet reports whether the shape has been fixed.
func (v IntVal) IsSet() bool    { return v.width != 0 }
func (v IntVal) Width() uint8   { return v.width }
func (v IntVal) IsSigned() bool { return v.signed }

// Shape returns the width and signedness.
func (v IntVal) Shape() prim.Shape { return prim.Shape{Width: v.width, Signed: v.signed} }

// Value returns the raw, masked storage bits.
func (v IntVal) Value() uint64 { return v.value }

// Assign stores rhs. An unset receiver adopts rhs's shape; a set receiver
// requires the shapes to match.
func (v *IntVal) Assign(rhs IntVal) {
	if !v.IsSet() {
		*v = rhs
		return
	}
	v.checkShape(rhs, "assign")
	v.value = rhs.value
}

func (v IntVal) checkShape(rhs IntVal, op string) {
	if v.width != rhs.width || v.signed != rhs.signed {
		ice.Fatalf("intval: %s of mismatched shapes (%d,%t) and (%d,%t)", op, v.width, v.signed, rhs.width, rhs.signed)
	}
	if v.width == 0 {
		ice.Fatalf("intval: %s of unset value", op)
	}
}

func normSize(size, width uint8) uint8 {
	if size == 0 {
		return width
	}
	return min(size, 64)
}

// bits64 widens the stored bits to 64 according to the value's own
// signedness.
func (v IntVal) bits64() uint64 {
	if v.signed && v.width < 64 {
		shift := 64 - uint(v.width)
		return uint64(int64(v.value<<shift) >> shift)
	}
	return v.value
}

// SXTValue sign-extends the low size bits (size 0 means the full width) to 64
// bits. A size wider than the value first extends by the value's signedness.
func (v IntVal) SXTValue(size uint8) int64 {
	size = normSize(size, v.width)
	shift := 64 - uint(size)
	return int64(v.bits64()<<shift) >> shift
}

// ZXTValue zero-extends the low size bits (size 0 means the full width) to 64
// bits. A size wider than the value first extends by the value's signedness.
func (v IntVal) ZXTValue(size uint8) uint64 {
	size = normSize(size, v.width)
	return v.bits64() & mask(size)
}

// ExtValue extends according to the value's signedness.
func (v IntVal) ExtValue(size uint8) int64 {
	if v.signed {
		return v.SXTValue(size)
	}
	return int64(v.ZXTValue(size))
}

// SignBit reports whether the top bit of the width is set.
func (v IntVal) SignBit() bool {
	if v.width == 0 {
		return false
	}
	return v.value>>(v.width-1)&1 == 1
}

// IsNegative reports a set sign bit on a signed value.
func (v IntVal) IsNegative() bool { return v.signed && v.SignBit() }

func (v IntVal) IsZero() bool     { return v.value == 0 }
func (v IntVal) IsOne() bool      { return v.value == 1 }
func (v IntVal) IsAllOnes() bool  { return v.width != 0 && v.value == mask(v.width) }
func (v IntVal) IsMaxValue() bool { return v == MaxValue(v.width, v.signed) }
func (v IntVal) IsMinValue() bool { return v == MinValue(v.width, v.signed) }

// IsSignedMinValue reports the pattern 100...0 regardless of signedness.
func (v IntVal) IsSignedMinValue() bool {
	return v.width != 0 && v.value == uint64(1)<<(v.width-1)
}

// IsPowerOf2 reports a single set bit.
func (v IntVal) IsPowerOf2() bool {
	return v.value != 0 && v.value&(v.value-1) == 0
}

// CountTrailingZeros counts zero bits below the lowest set bit (width when zero).
func (v IntVal) CountTrailingZeros() int {
	if v.value == 0 {
		return int(v.width)
	}
	return bits.TrailingZeros64(v.value)
}

// Add returns v + rhs modulo 2^width.
func (v IntVal) Add(rhs IntVal) IntVal {
	v.checkShape(rhs, "add")
	return New(v.value+rhs.value, v.width, v.signed)
}

func (v IntVal) Sub(rhs IntVal) IntVal {
	v.checkShape(rhs, "sub")
	return New(v.value-rhs.value, v.width, v.signed)
}

func (v IntVal) Mul(rhs IntVal) IntVal {
	v.checkShape(rhs, "mul")
	return New(v.value*rhs.value, v.width, v.signed)
}

// Div divides, truncating toward zero. rhs must be non-zero; for signed
// values MIN / -1 wraps back to MIN and callers that care must avoid it.
func (v IntVal) Div(rhs IntVal) IntVal {
	v.checkShape(rhs, "div")
	if rhs.IsZero() {
		ice.Fatalf("intval: division by zero")
	}
	if v.signed {
		return FromInt64(v.SXTValue(0)/rhs.SXTValue(0), v.width, true)
	}
	return New(v.value/rhs.value, v.width, false)
}

// Rem has the sign of the dividend, like Div's truncation.
func (v IntVal) Rem(rhs IntVal) IntVal {
	v.checkShape(rhs, "rem")
	if rhs.IsZero() {
		ice.Fatalf("intval: remainder by zero")
	}
	if v.signed {
		return FromInt64(v.SXTValue(0)%rhs.SXTValue(0), v.width, true)
	}
	return New(v.value%rhs.value, v.width, false)
}

func (v IntVal) And(rhs IntVal) IntVal {
	v.checkShape(rhs, "and")
	return New(v.value&rhs.value, v.width, v.signed)
}

func (v IntVal) Or(rhs IntVal) IntVal {
	v.checkShape(rhs, "or")
	return New(v.value|rhs.value, v.width, v.signed)
}

func (v IntVal) Xor(rhs IntVal) IntVal {
	v.checkShape(rhs, "xor")
	return New(v.value^rhs.value, v.width, v.signed)
}

// Shl shifts left; amounts >= width produce zero.
func (v IntVal) Shl(amount uint64) IntVal {
	if amount >= uint64(v.width) {
		return New(0, v.width, v.signed)
	}
	return New(v.value<<amount, v.width, v.signed)
}

// LShr shifts right filling with zeros.
func (v IntVal) LShr(amount uint64) IntVal {
	if amount >= uint64(v.width) {
		return New(0, v.width, v.signed)
	}
	return New(v.value>>amount, v.width, v.signed)
}

// AShr shifts right replicating the sign bit of the width.
func (v IntVal) AShr(amount uint64) IntVal {
	if amount >= uint64(v.width) {
		amount = uint64(v.width) - 1
	}
	return New(uint64(v.SXTValue(0)>>amount), v.width, v.signed)
}

// Shr is AShr for signed values and LShr for unsigned ones.
func (v IntVal) Shr(amount uint64) IntVal {
	if v.signed {
		return v.AShr(amount)
	}
	return v.LShr(amount)
}

// Neg is two's-complement negation; the signed minimum wraps to itself.
func (v IntVal) Neg() IntVal {
	return New(-v.value, v.width, v.signed)
}

// Not is bitwise complement.
func (v IntVal) Not() IntVal {
	return New(^v.value, v.width, v.signed)
}

// Abs negates negative signed values (the minimum wraps to itself).
func (v IntVal) Abs() IntVal {
	if v.IsNegative() {
		return v.Neg()
	}
	return v
}

// AddOverflows reports whether v + rhs overflows the signed or unsigned range
// of the shape.
func (v IntVal) AddOverflows(rhs IntVal) bool {
	v.checkShape(rhs, "add")
	sum := v.Add(rhs)
	if v.signed {
		return v.SignBit() == rhs.SignBit() && sum.SignBit() != v.SignBit()
	}
	return sum.value < v.value
}

// SubOverflows reports whether v - rhs overflows the range of the shape.
func (v IntVal) SubOverflows(rhs IntVal) bool {
	v.checkShape(rhs, "sub")
	diff := v.Sub(rhs)
	if v.signed {
		return v.SignBit() != rhs.SignBit() && diff.SignBit() != v.SignBit()
	}
	return rhs.value > v.value
}

// MulOverflows reports whether v * rhs overflows the range of the shape.
func (v IntVal) MulOverflows(rhs IntVal) bool {
	v.checkShape(rhs, "mul")
	if v.IsZero() || rhs.IsZero() {
		return false
	}
	if v.signed {
		a, b := v.SXTValue(0), rhs.SXTValue(0)
		hi, lo := bits.Mul64(uint64(abs64(a)), uint64(abs64(b)))
		neg := (a < 0) != (b < 0)
		limit := uint64(1) << (v.width - 1)
		if hi != 0 {
			return true
		}
		if neg {
			return lo > limit
		}
		return lo >= limit
	}
	hi, lo := bits.Mul64(v.value, rhs.value)
	return hi != 0 || lo > mask(v.width)
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// Trunc narrows to width bits with the given signedness.
func (v IntVal) Trunc(width uint8, signed bool) IntVal {
	if width > v.width {
		ice.Fatalf("intval: trunc from %d to wider %d", v.width, width)
	}
	return New(v.value, width, signed)
}

// Extend widens to width bits, sign-extending when the source is signed.
func (v IntVal) Extend(width uint8, signed bool) IntVal {
	if width < v.width {
		ice.Fatalf("intval: extend from %d to narrower %d", v.width, width)
	}
	if v.signed {
		return New(uint64(v.SXTValue(0)), width, signed)
	}
	return New(v.value, width, signed)
}

// TruncOrExtend converts to the given shape, truncating when it is not wider.
func (v IntVal) TruncOrExtend(width uint8, signed bool) IntVal {
	if width <= v.width {
		return v.Trunc(width, signed)
	}
	return v.Extend(width, signed)
}

// ToShape is TruncOrExtend for a prim.Shape.
func (v IntVal) ToShape(s prim.Shape) IntVal {
	return v.TruncOrExtend(s.Width, s.Signed)
}

// Eq compares same-shaped values.
func (v IntVal) Eq(rhs IntVal) bool {
	v.checkShape(rhs, "compare")
	return v.value == rhs.value
}

// Lt compares same-shaped values using the shape's signedness.
func (v IntVal) Lt(rhs IntVal) bool {
	v.checkShape(rhs, "compare")
	if v.signed {
		return v.SXTValue(0) < rhs.SXTValue(0)
	}
	return v.value < rhs.value
}

// Gt compares same-shaped values using the shape's signedness.
func (v IntVal) Gt(rhs IntVal) bool {
	return rhs.Lt(v)
}

// Equal converts both sides to pt's shape and compares them.
func (v IntVal) Equal(rhs IntVal, pt prim.PrimType) bool {
	s := prim.ShapeOf(pt)
	return v.ToShape(s).Eq(rhs.ToShape(s))
}

// Less converts both sides to pt's shape and compares them.
func (v IntVal) Less(rhs IntVal, pt prim.PrimType) bool {
	s := prim.ShapeOf(pt)
	return v.ToShape(s).Lt(rhs.ToShape(s))
}

// Greater converts both sides to pt's shape and compares them.
func (v IntVal) Greater(rhs IntVal, pt prim.PrimType) bool {
	s := prim.ShapeOf(pt)
	return v.ToShape(s).Gt(rhs.ToShape(s))
}

// EqualInt64 compares against a host integer extended to the value's shape.
func (v IntVal) EqualInt64(x int64) bool {
	if !v.IsSet() {
		return false
	}
	return v.value == uint64(x)&mask(v.width)
}

func (v IntVal) String() string {
	if !v.IsSet() {
		return "<unset>"
	}
	if v.signed {
		return strconv.FormatInt(v.SXTValue(0), 10)
	}
	return strconv.FormatUint(v.value, 10)
}

// GoString includes the shape, e.g. "i8:-1".
func (v IntVal) GoString() string {
	sign := "u"
	if v.signed {
		sign = "i"
	}
	return fmt.Sprintf("%s%d:%s", sign, v.width, v.String())
}
