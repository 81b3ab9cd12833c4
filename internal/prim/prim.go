// Package prim describes the closed set of primitive IR types and their
// static properties.
//
// Properties that depend on the target (whether an unsigned integer doubles
// as an address, the byte size of ptr/ref) are only answered by a Registry,
// which is bound to one target.Target at construction.
package prim

import "fmt"

// PrimType enumerates the primitive kinds of IR values.
type PrimType uint8

const (
	PTYInvalid PrimType = iota
	PTYVoid
	PTYI8
	PTYI16
	PTYI32
	PTYI64
	PTYI128
	PTYU8
	PTYU16
	PTYU32
	PTYU64
	PTYU128
	PTYU1
	PTYPtr
	PTYRef
	PTYA32
	PTYA64
	PTYF32
	PTYF64
	PTYF128
	PTYAgg
	PTYUnknown
	PTYEnd
)

// PTYBegin is the first tag of the enumeration; it doubles as the invalid tag.
const PTYBegin = PTYInvalid

var primNames = [...]string{
	PTYInvalid: "invalid",
	PTYVoid:    "void",
	PTYI8:      "i8",
	PTYI16:     "i16",
	PTYI32:     "i32",
	PTYI64:     "i64",
	PTYI128:    "i128",
	PTYU8:      "u8",
	PTYU16:     "u16",
	PTYU32:     "u32",
	PTYU64:     "u64",
	PTYU128:    "u128",
	PTYU1:      "u1",
	PTYPtr:     "ptr",
	PTYRef:     "ref",
	PTYA32:     "a32",
	PTYA64:     "a64",
	PTYF32:     "f32",
	PTYF64:     "f64",
	PTYF128:    "f128",
	PTYAgg:     "agg",
	PTYUnknown: "unknown",
	PTYEnd:     "end",
}

func (p PrimType) String() string {
	if int(p) < len(primNames) {
		return primNames[p]
	}
	return fmt.Sprintf("PrimType(%d)", p)
}

// Parse maps a textual tag such as "i32" back to its PrimType.
func Parse(name string) (PrimType, bool) {
	for i := PTYVoid; i < PTYEnd; i++ {
		if primNames[i] == name {
			return i, true
		}
	}
	return PTYInvalid, false
}

// Property is the immutable attribute record of a primitive kind.
//
// Address and Pointer as stored here are the target-independent answers;
// Registry.Property widens them for the unsigned kinds whose width matches the
// target pointer size.
type Property struct {
	Type     PrimType
	Integer  bool
	Unsigned bool
	Address  bool
	Float    bool
	Pointer  bool
	Simple   bool
}

var propertyTable = [PTYEnd + 1]Property{
	PTYInvalid: {Type: PTYInvalid},
	PTYVoid:    {Type: PTYVoid},
	PTYI8:      {Type: PTYI8, Integer: true, Simple: true},
	PTYI16:     {Type: PTYI16, Integer: true, Simple: true},
	PTYI32:     {Type: PTYI32, Integer: true, Simple: true},
	PTYI64:     {Type: PTYI64, Integer: true, Simple: true},
	PTYI128:    {Type: PTYI128, Integer: true},
	PTYU8:      {Type: PTYU8, Integer: true, Unsigned: true, Simple: true},
	PTYU16:     {Type: PTYU16, Integer: true, Unsigned: true, Simple: true},
	PTYU32:     {Type: PTYU32, Integer: true, Unsigned: true, Simple: true},
	PTYU64:     {Type: PTYU64, Integer: true, Unsigned: true, Simple: true},
	PTYU128:    {Type: PTYU128, Integer: true, Unsigned: true},
	PTYU1:      {Type: PTYU1, Integer: true, Unsigned: true, Simple: true},
	PTYPtr:     {Type: PTYPtr, Integer: true, Unsigned: true, Address: true, Pointer: true, Simple: true},
	PTYRef:     {Type: PTYRef, Integer: true, Unsigned: true, Address: true, Pointer: true, Simple: true},
	PTYA32:     {Type: PTYA32, Integer: true, Unsigned: true, Address: true, Simple: true},
	PTYA64:     {Type: PTYA64, Integer: true, Unsigned: true, Address: true, Simple: true},
	PTYF32:     {Type: PTYF32, Float: true, Simple: true},
	PTYF64:     {Type: PTYF64, Float: true, Simple: true},
	PTYF128:    {Type: PTYF128, Float: true},
	PTYAgg:     {Type: PTYAgg},
	PTYUnknown: {Type: PTYUnknown},
	PTYEnd:     {Type: PTYEnd},
}

// StaticProperty returns the target-independent property record. Unknown tags
// map to the PTYEnd sentinel.
func StaticProperty(p PrimType) Property {
	if p >= PTYEnd {
		return propertyTable[PTYEnd]
	}
	return propertyTable[p]
}

func (p PrimType) IsInteger() bool  { return StaticProperty(p).Integer }
func (p PrimType) IsUnsigned() bool { return StaticProperty(p).Unsigned }
func (p PrimType) IsFloat() bool    { return StaticProperty(p).Float }
func (p PrimType) IsSimple() bool   { return StaticProperty(p).Simple }

// IsSigned reports signed integer kinds.
func (p PrimType) IsSigned() bool {
	prop := StaticProperty(p)
	return prop.Integer && !prop.Unsigned
}

// IsTargetDependent reports kinds whose size comes from the target.
func (p PrimType) IsTargetDependent() bool {
	return p == PTYPtr || p == PTYRef
}

// FixedSize returns the byte size of target-independent kinds; ok is false
// for ptr/ref.
func FixedSize(p PrimType) (size uint32, ok bool) {
	switch p {
	case PTYI8, PTYU8, PTYU1:
		return 1, true
	case PTYI16, PTYU16:
		return 2, true
	case PTYI32, PTYU32, PTYA32, PTYF32:
		return 4, true
	case PTYI64, PTYU64, PTYA64, PTYF64:
		return 8, true
	case PTYI128, PTYU128, PTYF128:
		return 16, true
	case PTYPtr, PTYRef:
		return 0, false
	default:
		return 0, true
	}
}

// Unsigned returns the unsigned kind of the same width.
func Unsigned(p PrimType) PrimType {
	switch p {
	case PTYI8:
		return PTYU8
	case PTYI16:
		return PTYU16
	case PTYI32:
		return PTYU32
	case PTYI64:
		return PTYU64
	case PTYI128:
		return PTYU128
	default:
		return p
	}
}

// Signed returns the signed kind of the same width.
func Signed(p PrimType) PrimType {
	switch p {
	case PTYU8:
		return PTYI8
	case PTYU16:
		return PTYI16
	case PTYU32, PTYA32:
		return PTYI32
	case PTYU64, PTYA64:
		return PTYI64
	case PTYU128:
		return PTYI128
	default:
		return p
	}
}

// IntOfSize returns the integer kind with the given byte size and signedness.
func IntOfSize(size uint32, signed bool) PrimType {
	switch size {
	case 1:
		if signed {
			return PTYI8
		}
		return PTYU8
	case 2:
		if signed {
			return PTYI16
		}
		return PTYU16
	case 4:
		if signed {
			return PTYI32
		}
		return PTYU32
	case 8:
		if signed {
			return PTYI64
		}
		return PTYU64
	default:
		return PTYInvalid
	}
}
