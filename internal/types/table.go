package types

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"maple/internal/ice"
	"maple/internal/intern"
	"maple/internal/prim"
	"maple/internal/strtab"
)

// Table canonicalizes type descriptors: two structurally equal descriptors
// always receive the same TyIdx. Index 0 is invalid and indices 1 through
// PTYEnd-1 hold one scalar per primitive kind, so PrimTyIdx(pt) == TyIdx(pt).
type Table struct {
	reg prim.Registry

	mu      sync.RWMutex
	types   []*Type
	index   map[typeKey]TyIdx
	ptrMap  map[TyIdx]TyIdx // pointee -> ptr with default attrs
	refMap  map[TyIdx]TyIdx // pointee -> ref with default attrs
	derived TyIdx           // first index not created by init
	voidPtr TyIdx
}

// NewTable builds a table seeded with the primitive scalars and void*.
func NewTable(reg prim.Registry) *Table {
	t := &Table{reg: reg}
	t.init()
	return t
}

func (t *Table) init() {
	t.types = make([]*Type, 1, 64)
	t.index = make(map[typeKey]TyIdx, 64)
	t.ptrMap = make(map[TyIdx]TyIdx, 32)
	t.refMap = make(map[TyIdx]TyIdx, 8)
	for pt := prim.PTYVoid; pt < prim.PTYEnd; pt++ {
		s := Scalar(pt)
		t.insert(&s)
	}
	vp := Pointer(t.PrimTyIdx(prim.PTYVoid), prim.PTYPtr, TypeAttrs{})
	t.voidPtr = t.insert(&vp)
	t.derived = TyIdx(len(t.types))
}

// Registry returns the primitive registry the table was built with.
func (t *Table) Registry() prim.Registry { return t.reg }

// GetOrCreate returns the canonical index for desc, creating an entry on
// first sight. desc is copied; the caller keeps ownership of its argument.
func (t *Table) GetOrCreate(desc Type) TyIdx {
	if desc.Kind == KindInvalid {
		return NoTyIdx
	}
	if desc.Kind == KindArray && len(desc.Dims) > MaxArrayDims {
		ice.Fatalf("types: array with %d dimensions exceeds %d", len(desc.Dims), MaxArrayDims)
	}
	if desc.Kind == KindPointer && desc.Attrs.IsDefault() {
		switch desc.Prim {
		case prim.PTYPtr:
			return t.getOrCreateSide(t.ptrMap, desc)
		case prim.PTYRef:
			return t.getOrCreateSide(t.refMap, desc)
		}
	}
	key := desc.key()
	return intern.GetOrCreate(&t.mu,
		func() (TyIdx, bool) {
			idx, ok := t.index[key]
			return idx, ok
		},
		func() TyIdx {
			return t.insert(&desc)
		})
}

func (t *Table) getOrCreateSide(side map[TyIdx]TyIdx, desc Type) TyIdx {
	pointee := desc.Pointee
	return intern.GetOrCreate(&t.mu,
		func() (TyIdx, bool) {
			idx, ok := side[pointee]
			return idx, ok
		},
		func() TyIdx {
			if desc.Prim == prim.PTYRef {
				if p, ok := t.ptrMap[pointee]; ok && p >= t.derived {
					ice.Fatalf("types: ref to type %d requested after ptr %d to the same pointee", pointee, p)
				}
			}
			return t.insert(&desc)
		})
}

// insert appends desc at the next index. Callers hold t.mu for writing (or
// are init).
func (t *Table) insert(desc *Type) TyIdx {
	n, err := safecast.Conv[uint32](len(t.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	idx := TyIdx(n)
	ty := *desc
	ty.Idx = idx
	t.types = append(t.types, &ty)
	t.index[ty.key()] = idx
	if ty.Kind == KindPointer && ty.Attrs.IsDefault() {
		switch ty.Prim {
		case prim.PTYPtr:
			t.ptrMap[ty.Pointee] = idx
		case prim.PTYRef:
			t.refMap[ty.Pointee] = idx
		}
	}
	return idx
}

// Lookup returns the descriptor at idx.
func (t *Table) Lookup(idx TyIdx) (*Type, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if idx == NoTyIdx || int(idx) >= len(t.types) {
		return nil, false
	}
	return t.types[idx], true
}

// Type returns the descriptor at idx. An invalid index is fatal. The result
// is owned by the table and must not be modified.
func (t *Table) Type(idx TyIdx) *Type {
	ty, ok := t.Lookup(idx)
	if !ok {
		ice.Fatalf("types: type index %d out of range (len %d)", idx, t.Len())
	}
	return ty
}

// PrimOf returns the primitive kind of the type at idx.
func (t *Table) PrimOf(idx TyIdx) prim.PrimType {
	return t.Type(idx).Prim
}

// PrimTyIdx returns the fixed index of the scalar for pt.
func (t *Table) PrimTyIdx(pt prim.PrimType) TyIdx {
	if pt == prim.PTYInvalid || pt >= prim.PTYEnd {
		ice.Fatalf("types: no scalar slot for primitive tag %d", uint8(pt))
	}
	return TyIdx(pt)
}

// Prim returns the scalar descriptor for pt.
func (t *Table) Prim(pt prim.PrimType) *Type {
	return t.Type(t.PrimTyIdx(pt))
}

func (t *Table) Void() *Type    { return t.Prim(prim.PTYVoid) }
func (t *Table) UInt1() *Type   { return t.Prim(prim.PTYU1) }
func (t *Table) Int8() *Type    { return t.Prim(prim.PTYI8) }
func (t *Table) Int16() *Type   { return t.Prim(prim.PTYI16) }
func (t *Table) Int32() *Type   { return t.Prim(prim.PTYI32) }
func (t *Table) Int64() *Type   { return t.Prim(prim.PTYI64) }
func (t *Table) UInt8() *Type   { return t.Prim(prim.PTYU8) }
func (t *Table) UInt16() *Type  { return t.Prim(prim.PTYU16) }
func (t *Table) UInt32() *Type  { return t.Prim(prim.PTYU32) }
func (t *Table) UInt64() *Type  { return t.Prim(prim.PTYU64) }
func (t *Table) Float() *Type   { return t.Prim(prim.PTYF32) }
func (t *Table) Double() *Type  { return t.Prim(prim.PTYF64) }
func (t *Table) Ptr() *Type     { return t.Prim(prim.PTYPtr) }
func (t *Table) Ref() *Type     { return t.Prim(prim.PTYRef) }
func (t *Table) Address() *Type { return t.Prim(t.reg.LoweredPtrType()) }

// VoidPtr returns the canonical void* created at initialization.
func (t *Table) VoidPtr() TyIdx { return t.voidPtr }

// DerivedBegin is the first index handed out after initialization.
func (t *Table) DerivedBegin() TyIdx { return t.derived }

// GetOrCreatePointer interns a pointer of kind pt (ptr or ref) to pointee.
func (t *Table) GetOrCreatePointer(pointee TyIdx, pt prim.PrimType) TyIdx {
	return t.GetOrCreate(Pointer(pointee, pt, TypeAttrs{}))
}

// GetOrCreateArray interns an array of elem.
func (t *Table) GetOrCreateArray(elem TyIdx, dims ...uint32) TyIdx {
	return t.GetOrCreate(Array(elem, TypeAttrs{}, dims...))
}

// GetOrCreateFunction interns a function signature with default parameter
// attributes.
func (t *Table) GetOrCreateFunction(ret TyIdx, params []TyIdx, varargs bool) TyIdx {
	return t.GetOrCreate(Function(ret, params, nil, varargs))
}

// GetOrCreateByName interns an opaque named type.
func (t *Table) GetOrCreateByName(name strtab.GStrIdx) TyIdx {
	return t.GetOrCreate(ByName(name))
}

// Size returns the storage size of the type at idx in bytes. Function and
// by-name types report 0.
func (t *Table) Size(idx TyIdx) uint32 {
	ty := t.Type(idx)
	switch ty.Kind {
	case KindScalar, KindVoid, KindPointer:
		return t.reg.Size(ty.Prim)
	case KindArray:
		n := t.Size(ty.Elem)
		for _, d := range ty.Dims {
			n *= d
		}
		return n
	default:
		return 0
	}
}

// Len counts the invalid slot too.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.types)
}

// Reset drops every entry and re-runs initialization. It must not run
// concurrently with any other method.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.init()
}
