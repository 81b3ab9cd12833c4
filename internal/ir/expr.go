// Package ir defines the expression and statement trees the folder and the
// lowerer rewrite, together with functions, label tables and a node builder.
//
// Expr and Stmt are closed sum types: every implementation lives in this
// package and passes dispatch on the concrete type with a type switch.
package ir

import (
	"maple/internal/consts"
	"maple/internal/prim"
	"maple/internal/symtab"
	"maple/internal/types"
)

// Expr is an expression node. Nodes are treated as immutable once built;
// rewriting passes construct new nodes instead of editing shared ones.
type Expr interface {
	Op() Op
	// Prim is the declared result type of the node.
	Prim() prim.PrimType
	isExpr()
}

// ConstvalNode is an interned constant.
type ConstvalNode struct {
	Type  prim.PrimType
	Const consts.Const
}

// DreadNode reads a variable.
type DreadNode struct {
	Type prim.PrimType
	Sym  symtab.StIdx
}

// AddrofNode takes the address of a variable.
type AddrofNode struct {
	Type prim.PrimType
	Sym  symtab.StIdx
}

// IreadNode loads through a pointer. PtrTy is the pointer type of Addr; the
// loaded value has the pointee type.
type IreadNode struct {
	Type  prim.PrimType
	PtrTy types.TyIdx
	Addr  Expr
}

// UnaryNode covers abs, bnot, lnot, neg, sqrt and recip.
type UnaryNode struct {
	Opcode Op
	Type   prim.PrimType
	X      Expr
}

// TypeCvtNode covers cvt, ceil, floor, round and trunc. From is the operand
// type.
type TypeCvtNode struct {
	Opcode Op
	Type   prim.PrimType
	From   prim.PrimType
	X      Expr
}

// RetypeNode reinterprets the bits of X as type Ty.
type RetypeNode struct {
	Type prim.PrimType
	Ty   types.TyIdx
	X    Expr
}

// ExtractbitsNode covers sext, zext and extractbits. sext and zext always
// have Offset 0.
type ExtractbitsNode struct {
	Opcode Op
	Type   prim.PrimType
	Offset uint8
	Size   uint8
	X      Expr
}

// BinaryNode is an arithmetic, bitwise, logical or min/max operation.
type BinaryNode struct {
	Opcode Op
	Type   prim.PrimType
	X, Y   Expr
}

// CompareNode compares two operands of type Opnd and yields Type.
type CompareNode struct {
	Opcode Op
	Type   prim.PrimType
	Opnd   prim.PrimType
	X, Y   Expr
}

// TernaryNode is select: Cond ? X : Y.
type TernaryNode struct {
	Type prim.PrimType
	Cond Expr
	X, Y Expr
}

// Intrinsic names understood by the passes.
const (
	IntrinsicBuiltinExpect = "__builtin_expect"
)

// IntrinsicopNode calls a side-effect-free intrinsic.
type IntrinsicopNode struct {
	Type      prim.PrimType
	Intrinsic string
	Args      []Expr
}

func (*ConstvalNode) Op() Op      { return OpConstval }
func (*DreadNode) Op() Op         { return OpDread }
func (*AddrofNode) Op() Op        { return OpAddrof }
func (*IreadNode) Op() Op         { return OpIread }
func (n *UnaryNode) Op() Op       { return n.Opcode }
func (n *TypeCvtNode) Op() Op     { return n.Opcode }
func (*RetypeNode) Op() Op        { return OpRetype }
func (n *ExtractbitsNode) Op() Op { return n.Opcode }
func (n *BinaryNode) Op() Op      { return n.Opcode }
func (n *CompareNode) Op() Op     { return n.Opcode }
func (*TernaryNode) Op() Op       { return OpSelect }
func (*IntrinsicopNode) Op() Op   { return OpIntrinsicop }

func (n *ConstvalNode) Prim() prim.PrimType    { return n.Type }
func (n *DreadNode) Prim() prim.PrimType       { return n.Type }
func (n *AddrofNode) Prim() prim.PrimType      { return n.Type }
func (n *IreadNode) Prim() prim.PrimType       { return n.Type }
func (n *UnaryNode) Prim() prim.PrimType       { return n.Type }
func (n *TypeCvtNode) Prim() prim.PrimType     { return n.Type }
func (n *RetypeNode) Prim() prim.PrimType      { return n.Type }
func (n *ExtractbitsNode) Prim() prim.PrimType { return n.Type }
func (n *BinaryNode) Prim() prim.PrimType      { return n.Type }
func (n *CompareNode) Prim() prim.PrimType     { return n.Type }
func (n *TernaryNode) Prim() prim.PrimType     { return n.Type }
func (n *IntrinsicopNode) Prim() prim.PrimType { return n.Type }

func (*ConstvalNode) isExpr()    {}
func (*DreadNode) isExpr()       {}
func (*AddrofNode) isExpr()      {}
func (*IreadNode) isExpr()       {}
func (*UnaryNode) isExpr()       {}
func (*TypeCvtNode) isExpr()     {}
func (*RetypeNode) isExpr()      {}
func (*ExtractbitsNode) isExpr() {}
func (*BinaryNode) isExpr()      {}
func (*CompareNode) isExpr()     {}
func (*TernaryNode) isExpr()     {}
func (*IntrinsicopNode) isExpr() {}

// IntConst returns the integer constant of a constval node.
func (n *ConstvalNode) IntConst() (*consts.IntConst, bool) {
	c, ok := n.Const.(*consts.IntConst)
	return c, ok
}

// AsIntConst unwraps e when it is an integer constval.
func AsIntConst(e Expr) (*consts.IntConst, bool) {
	n, ok := e.(*ConstvalNode)
	if !ok {
		return nil, false
	}
	return n.IntConst()
}

// Operands returns the direct children of e in evaluation order.
func Operands(e Expr) []Expr {
	switch n := e.(type) {
	case *IreadNode:
		return []Expr{n.Addr}
	case *UnaryNode:
		return []Expr{n.X}
	case *TypeCvtNode:
		return []Expr{n.X}
	case *RetypeNode:
		return []Expr{n.X}
	case *ExtractbitsNode:
		return []Expr{n.X}
	case *BinaryNode:
		return []Expr{n.X, n.Y}
	case *CompareNode:
		return []Expr{n.X, n.Y}
	case *TernaryNode:
		return []Expr{n.Cond, n.X, n.Y}
	case *IntrinsicopNode:
		return n.Args
	default:
		return nil
	}
}

// CountNodes returns the number of nodes in the tree rooted at e.
func CountNodes(e Expr) int {
	if e == nil {
		return 0
	}
	n := 1
	for _, c := range Operands(e) {
		n += CountNodes(c)
	}
	return n
}
