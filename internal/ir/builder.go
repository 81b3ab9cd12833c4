package ir

import (
	"maple/internal/consts"
	"maple/internal/ice"
	"maple/internal/intval"
	"maple/internal/prim"
	"maple/internal/symtab"
	"maple/internal/types"
)

// Builder creates nodes whose constants are interned in a shared constant
// table. It is safe for concurrent use.
type Builder struct {
	types  *types.Table
	consts *consts.Table
}

func NewBuilder(tys *types.Table, cs *consts.Table) *Builder {
	return &Builder{types: tys, consts: cs}
}

func (b *Builder) Types() *types.Table   { return b.types }
func (b *Builder) Consts() *consts.Table { return b.consts }

// IntConst builds an integer constant of kind pt; v is truncated.
func (b *Builder) IntConst(v uint64, pt prim.PrimType) *ConstvalNode {
	return &ConstvalNode{Type: pt, Const: b.consts.GetOrCreateIntConst(v, b.types.PrimTyIdx(pt))}
}

// SignedConst builds an integer constant from a host signed value.
func (b *Builder) SignedConst(v int64, pt prim.PrimType) *ConstvalNode {
	return b.IntConst(uint64(v), pt)
}

// IntValConst builds a constant of kind pt from v, converting its shape.
func (b *Builder) IntValConst(v intval.IntVal, pt prim.PrimType) *ConstvalNode {
	return &ConstvalNode{Type: pt, Const: b.consts.GetOrCreateIntConstVal(v, b.types.PrimTyIdx(pt))}
}

func (b *Builder) FloatConst(f float32) *ConstvalNode {
	return &ConstvalNode{Type: prim.PTYF32, Const: b.consts.GetOrCreateFloatConst(f)}
}

func (b *Builder) DoubleConst(d float64) *ConstvalNode {
	return &ConstvalNode{Type: prim.PTYF64, Const: b.consts.GetOrCreateDoubleConst(d)}
}

// FloatingConst builds an f32 or f64 constant from a host double.
func (b *Builder) FloatingConst(d float64, pt prim.PrimType) *ConstvalNode {
	switch pt {
	case prim.PTYF32:
		return b.FloatConst(float32(d))
	case prim.PTYF64:
		return b.DoubleConst(d)
	}
	ice.Fatalf("ir: floating constant of kind %s", pt)
	return nil
}

// Zero builds the zero constant of an integer or floating kind.
func (b *Builder) Zero(pt prim.PrimType) *ConstvalNode {
	if pt.IsFloat() {
		return b.FloatingConst(0, pt)
	}
	return b.IntConst(0, pt)
}

func (b *Builder) Dread(pt prim.PrimType, sym symtab.StIdx) *DreadNode {
	return &DreadNode{Type: pt, Sym: sym}
}

func (b *Builder) Addrof(pt prim.PrimType, sym symtab.StIdx) *AddrofNode {
	return &AddrofNode{Type: pt, Sym: sym}
}

func (b *Builder) Iread(pt prim.PrimType, ptrTy types.TyIdx, addr Expr) *IreadNode {
	return &IreadNode{Type: pt, PtrTy: ptrTy, Addr: addr}
}

func (b *Builder) Unary(op Op, pt prim.PrimType, x Expr) *UnaryNode {
	ice.Assert(op.IsUnary(), "ir: %s is not a unary opcode", op)
	return &UnaryNode{Opcode: op, Type: pt, X: x}
}

func (b *Builder) TypeCvt(op Op, to, from prim.PrimType, x Expr) *TypeCvtNode {
	ice.Assert(op.IsCvt(), "ir: %s is not a conversion opcode", op)
	return &TypeCvtNode{Opcode: op, Type: to, From: from, X: x}
}

// Cvt builds a plain cvt.
func (b *Builder) Cvt(to, from prim.PrimType, x Expr) *TypeCvtNode {
	return b.TypeCvt(OpCvt, to, from, x)
}

func (b *Builder) Retype(pt prim.PrimType, ty types.TyIdx, x Expr) *RetypeNode {
	return &RetypeNode{Type: pt, Ty: ty, X: x}
}

func (b *Builder) Extractbits(op Op, pt prim.PrimType, offset, size uint8, x Expr) *ExtractbitsNode {
	ice.Assert(op.IsExtract(), "ir: %s is not an extract opcode", op)
	return &ExtractbitsNode{Opcode: op, Type: pt, Offset: offset, Size: size, X: x}
}

func (b *Builder) Binary(op Op, pt prim.PrimType, x, y Expr) *BinaryNode {
	ice.Assert(op.IsBinary(), "ir: %s is not a binary opcode", op)
	return &BinaryNode{Opcode: op, Type: pt, X: x, Y: y}
}

func (b *Builder) Compare(op Op, pt, opnd prim.PrimType, x, y Expr) *CompareNode {
	ice.Assert(op.IsCompare(), "ir: %s is not a compare opcode", op)
	return &CompareNode{Opcode: op, Type: pt, Opnd: opnd, X: x, Y: y}
}

func (b *Builder) Select(pt prim.PrimType, cond, x, y Expr) *TernaryNode {
	return &TernaryNode{Type: pt, Cond: cond, X: x, Y: y}
}

func (b *Builder) Intrinsicop(pt prim.PrimType, name string, args ...Expr) *IntrinsicopNode {
	return &IntrinsicopNode{Type: pt, Intrinsic: name, Args: args}
}

func (b *Builder) Dassign(sym symtab.StIdx, v Expr) *DassignStmt {
	return &DassignStmt{Sym: sym, Value: v}
}

func (b *Builder) Iassign(ptrTy types.TyIdx, addr, v Expr) *IassignStmt {
	return &IassignStmt{PtrTy: ptrTy, Addr: addr, Value: v}
}

func (b *Builder) Eval(x Expr) *EvalStmt { return &EvalStmt{X: x} }

func (b *Builder) Return(x Expr) *ReturnStmt { return &ReturnStmt{X: x} }

func (b *Builder) Goto(l LabelIdx) *GotoStmt { return &GotoStmt{Target: l} }

func (b *Builder) Label(l LabelIdx) *LabelStmt { return &LabelStmt{Label: l} }

// CondGoto builds brtrue or brfalse with an unknown probability.
func (b *Builder) CondGoto(op Op, cond Expr, l LabelIdx) *CondGotoStmt {
	ice.Assert(op.IsCondGoto(), "ir: %s is not a conditional branch", op)
	return &CondGotoStmt{Opcode: op, Cond: cond, Target: l, Prob: ProbUnknown}
}
