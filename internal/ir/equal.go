package ir

import "slices"

// Equal reports structural equality of two expression trees. Constants
// compare by identity, which is value equality for interned constants.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Op() != b.Op() || a.Prim() != b.Prim() {
		return false
	}
	switch x := a.(type) {
	case *ConstvalNode:
		return x.Const == b.(*ConstvalNode).Const
	case *DreadNode:
		return x.Sym == b.(*DreadNode).Sym
	case *AddrofNode:
		return x.Sym == b.(*AddrofNode).Sym
	case *IreadNode:
		y := b.(*IreadNode)
		return x.PtrTy == y.PtrTy && Equal(x.Addr, y.Addr)
	case *UnaryNode:
		return Equal(x.X, b.(*UnaryNode).X)
	case *TypeCvtNode:
		y := b.(*TypeCvtNode)
		return x.From == y.From && Equal(x.X, y.X)
	case *RetypeNode:
		y := b.(*RetypeNode)
		return x.Ty == y.Ty && Equal(x.X, y.X)
	case *ExtractbitsNode:
		y := b.(*ExtractbitsNode)
		return x.Offset == y.Offset && x.Size == y.Size && Equal(x.X, y.X)
	case *BinaryNode:
		y := b.(*BinaryNode)
		return Equal(x.X, y.X) && Equal(x.Y, y.Y)
	case *CompareNode:
		y := b.(*CompareNode)
		return x.Opnd == y.Opnd && Equal(x.X, y.X) && Equal(x.Y, y.Y)
	case *TernaryNode:
		y := b.(*TernaryNode)
		return Equal(x.Cond, y.Cond) && Equal(x.X, y.X) && Equal(x.Y, y.Y)
	case *IntrinsicopNode:
		y := b.(*IntrinsicopNode)
		return x.Intrinsic == y.Intrinsic && slices.EqualFunc(x.Args, y.Args, Equal)
	default:
		return false
	}
}

// EqualStmt reports structural equality of two statements. Labels compare by
// index, so both statements must come from the same function.
func EqualStmt(a, b Stmt) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Op() != b.Op() {
		return false
	}
	switch x := a.(type) {
	case *DassignStmt:
		y := b.(*DassignStmt)
		return x.Sym == y.Sym && Equal(x.Value, y.Value)
	case *IassignStmt:
		y := b.(*IassignStmt)
		return x.PtrTy == y.PtrTy && Equal(x.Addr, y.Addr) && Equal(x.Value, y.Value)
	case *EvalStmt:
		return Equal(x.X, b.(*EvalStmt).X)
	case *ReturnStmt:
		return Equal(x.X, b.(*ReturnStmt).X)
	case *GotoStmt:
		return x.Target == b.(*GotoStmt).Target
	case *CondGotoStmt:
		y := b.(*CondGotoStmt)
		return x.Target == y.Target && x.Prob == y.Prob && Equal(x.Cond, y.Cond)
	case *LabelStmt:
		return x.Label == b.(*LabelStmt).Label
	case *IfStmt:
		y := b.(*IfStmt)
		return Equal(x.Cond, y.Cond) && EqualBlock(x.Then, y.Then) && EqualBlock(x.Else, y.Else)
	case *SwitchStmt:
		y := b.(*SwitchStmt)
		return x.Default == y.Default && slices.Equal(x.Cases, y.Cases) && Equal(x.X, y.X)
	case *WhileStmt:
		y := b.(*WhileStmt)
		return Equal(x.Cond, y.Cond) && EqualBlock(x.Body, y.Body)
	case *DoWhileStmt:
		y := b.(*DoWhileStmt)
		return Equal(x.Cond, y.Cond) && EqualBlock(x.Body, y.Body)
	case *Block:
		return EqualBlock(x, b.(*Block))
	default:
		return false
	}
}

// EqualBlock compares statement sequences; nil and empty blocks are equal.
func EqualBlock(a, b *Block) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return a.IsEmpty() && b.IsEmpty()
	}
	return slices.EqualFunc(a.Stmts, b.Stmts, EqualStmt)
}
