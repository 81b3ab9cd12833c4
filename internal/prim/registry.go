package prim

import (
	"maple/internal/ice"
	"maple/internal/target"
)

// Shape is the integer width and signedness an IntVal takes for a kind.
type Shape struct {
	Width  uint8
	Signed bool
}

// ShapeOf returns the IntVal shape of a target-independent integer kind.
// Pointer kinds must go through Registry.IntShape (or Registry.Resolve) first.
func ShapeOf(p PrimType) Shape {
	if p.IsTargetDependent() {
		ice.Fatalf("prim: unresolved pointer kind %s has no fixed shape", p)
	}
	if !p.IsInteger() {
		ice.Fatalf("prim: %s is not an integer kind", p)
	}
	if p == PTYU1 {
		return Shape{Width: 1}
	}
	size, _ := FixedSize(p)
	if size == 0 || size > 8 {
		ice.Fatalf("prim: %s does not fit in 64 bits", p)
	}
	return Shape{Width: uint8(size * 8), Signed: p.IsSigned()}
}

// Registry answers target-dependent questions about primitive kinds. The
// target is fixed for the registry's lifetime.
type Registry struct {
	target target.Target
}

// NewRegistry binds a registry to a target.
func NewRegistry(t target.Target) Registry {
	return Registry{target: t}
}

// Target returns the bound target.
func (r Registry) Target() target.Target { return r.target }

// PointerSize returns the target pointer size in bytes (0 when unconfigured).
func (r Registry) PointerSize() uint32 {
	if r.target.PtrSize <= 0 {
		return 0
	}
	return uint32(r.target.PtrSize)
}

// LoweredPtrType returns the address kind that ptr/ref lower to.
func (r Registry) LoweredPtrType() PrimType {
	if r.PointerSize() == 4 {
		return PTYA32
	}
	return PTYA64
}

// Resolve replaces ptr/ref with the lowered address kind and returns every
// other kind unchanged.
func (r Registry) Resolve(p PrimType) PrimType {
	if p.IsTargetDependent() {
		return r.LoweredPtrType()
	}
	return p
}

// Property returns the property record of p for the bound target. Unknown
// tags yield the PTYEnd sentinel record.
func (r Registry) Property(p PrimType) Property {
	prop := StaticProperty(p)
	switch p {
	case PTYU32, PTYA32:
		if r.PointerSize() == 4 {
			prop.Address = true
			prop.Pointer = true
		}
	case PTYU64, PTYA64:
		if r.PointerSize() == 8 {
			prop.Address = true
			prop.Pointer = true
		}
	}
	return prop
}

func (r Registry) IsAddress(p PrimType) bool { return r.Property(p).Address }
func (r Registry) IsPointer(p PrimType) bool { return r.Property(p).Pointer }

// Size returns the byte size of p; 0 for void, aggregates and pointer kinds
// on an unconfigured target.
func (r Registry) Size(p PrimType) uint32 {
	if size, ok := FixedSize(p); ok {
		return size
	}
	return r.PointerSize()
}

// BitSize is Size in bits; u1 reports 8.
func (r Registry) BitSize(p PrimType) uint32 {
	return r.Size(p) * 8
}

// ActualBitSize is BitSize except that u1 reports 1.
func (r Registry) ActualBitSize(p PrimType) uint32 {
	if p == PTYU1 {
		return 1
	}
	return r.BitSize(p)
}

// IntShape returns the IntVal shape of an integer or address kind.
func (r Registry) IntShape(p PrimType) Shape {
	return ShapeOf(r.Resolve(p))
}

// IsNoCvtNeeded reports whether a value of kind from can be used as kind to
// without a conversion. Narrowing never qualifies; pointer-width unsigned and
// address kinds are interchangeable.
func (r Registry) IsNoCvtNeeded(to, from PrimType) bool {
	if to == from {
		return true
	}
	switch to {
	case PTYI16:
		return from == PTYI8
	case PTYI32:
		return from == PTYI8 || from == PTYI16
	case PTYU8:
		return from == PTYU1
	case PTYU16:
		return from == PTYU1 || from == PTYU8
	case PTYU32:
		if from == PTYU1 || from == PTYU8 || from == PTYU16 {
			return true
		}
	}
	return r.isPointerWidth(to) && r.isPointerWidth(from)
}

func (r Registry) isPointerWidth(p PrimType) bool {
	switch p {
	case PTYPtr, PTYRef:
		return true
	case PTYU32, PTYA32:
		return r.PointerSize() == 4
	case PTYU64, PTYA64:
		return r.PointerSize() == 8
	default:
		return false
	}
}
