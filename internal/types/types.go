// Package types implements the IR type descriptors and the canonicalizing
// type table.
package types

import (
	"encoding/binary"
	"slices"

	"maple/internal/prim"
	"maple/internal/strtab"
)

// TyIdx is a handle into the type table. 0 is invalid.
type TyIdx uint32

const NoTyIdx TyIdx = 0

// Kind enumerates type descriptor variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindScalar
	KindVoid
	KindPointer
	KindArray
	KindFunction
	KindByName
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVoid:
		return "void"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindFunction:
		return "function"
	case KindByName:
		return "byname"
	default:
		return "invalid"
	}
}

// MaxArrayDims bounds the number of dimensions an array type may carry.
const MaxArrayDims = 20

// TypeAttrs are qualifiers on pointer, array and parameter types. The zero
// value is the default attribute set.
type TypeAttrs struct {
	Const    bool
	Volatile bool
	Restrict bool
	Align    uint8 // log2 of the alignment; 0 means natural
}

// IsDefault reports whether no qualifier is set.
func (a TypeAttrs) IsDefault() bool { return a == TypeAttrs{} }

// Type is a type descriptor. Which fields are meaningful depends on Kind:
//
//	Scalar, Void  Prim
//	Pointer       Prim (ptr, ref or an address kind), Pointee, Attrs
//	Array         Elem, Dims, Attrs
//	Function      Ret, Params, ParamAttrs, Varargs
//	ByName        Name
//
// Idx is assigned by the table and takes no part in equality.
type Type struct {
	Kind       Kind
	Prim       prim.PrimType
	Idx        TyIdx
	Name       strtab.GStrIdx
	Pointee    TyIdx
	Attrs      TypeAttrs
	Elem       TyIdx
	Dims       []uint32
	Ret        TyIdx
	Params     []TyIdx
	ParamAttrs []TypeAttrs
	Varargs    bool
}

// Scalar describes a primitive type.
func Scalar(pt prim.PrimType) Type {
	if pt == prim.PTYVoid {
		return Type{Kind: KindVoid, Prim: pt}
	}
	return Type{Kind: KindScalar, Prim: pt}
}

// Pointer describes a pointer of kind pt (ptr or ref) to pointee.
func Pointer(pointee TyIdx, pt prim.PrimType, attrs TypeAttrs) Type {
	return Type{Kind: KindPointer, Prim: pt, Pointee: pointee, Attrs: attrs}
}

// Array describes an array of elem with the given dimension sizes.
func Array(elem TyIdx, attrs TypeAttrs, dims ...uint32) Type {
	return Type{Kind: KindArray, Prim: prim.PTYAgg, Elem: elem, Attrs: attrs, Dims: slices.Clone(dims)}
}

// Function describes a function signature. paramAttrs may be nil, meaning
// default attributes for every parameter.
func Function(ret TyIdx, params []TyIdx, paramAttrs []TypeAttrs, varargs bool) Type {
	if paramAttrs == nil {
		paramAttrs = make([]TypeAttrs, len(params))
	}
	return Type{
		Kind:       KindFunction,
		Prim:       prim.PTYPtr,
		Ret:        ret,
		Params:     slices.Clone(params),
		ParamAttrs: slices.Clone(paramAttrs),
		Varargs:    varargs,
	}
}

// ByName describes an opaque type known only by its name.
func ByName(name strtab.GStrIdx) Type {
	return Type{Kind: KindByName, Prim: prim.PTYAgg, Name: name}
}

// EqualTo reports structural equality, ignoring Idx.
func (t *Type) EqualTo(o *Type) bool {
	return t.key() == o.key()
}

// IsPointer reports whether t is a pointer descriptor.
func (t *Type) IsPointer() bool { return t.Kind == KindPointer }

// typeKey is the comparable form of a descriptor used by the structural map.
// Slice fields are flattened into byte strings.
type typeKey struct {
	kind    Kind
	prim    prim.PrimType
	name    strtab.GStrIdx
	pointee TyIdx
	attrs   TypeAttrs
	elem    TyIdx
	ret     TyIdx
	varargs bool
	dims    string
	params  string
}

func (t *Type) key() typeKey {
	k := typeKey{
		kind:    t.Kind,
		prim:    t.Prim,
		name:    t.Name,
		pointee: t.Pointee,
		attrs:   t.Attrs,
		elem:    t.Elem,
		ret:     t.Ret,
		varargs: t.Varargs,
	}
	if len(t.Dims) > 0 {
		buf := make([]byte, 0, 4*len(t.Dims))
		for _, d := range t.Dims {
			buf = binary.LittleEndian.AppendUint32(buf, d)
		}
		k.dims = string(buf)
	}
	if len(t.Params) > 0 {
		buf := make([]byte, 0, 8*len(t.Params))
		for i, p := range t.Params {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(p))
			var a TypeAttrs
			if i < len(t.ParamAttrs) {
				a = t.ParamAttrs[i]
			}
			buf = append(buf, attrByte(a), a.Align)
		}
		k.params = string(buf)
	}
	return k
}

func attrByte(a TypeAttrs) byte {
	var b byte
	if a.Const {
		b |= 1
	}
	if a.Volatile {
		b |= 2
	}
	if a.Restrict {
		b |= 4
	}
	return b
}
