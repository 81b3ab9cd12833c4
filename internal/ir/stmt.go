package ir

import (
	"maple/internal/symtab"
	"maple/internal/types"
)

// Stmt is a statement node.
type Stmt interface {
	Op() Op
	isStmt()
}

// DassignStmt stores Value into a variable.
type DassignStmt struct {
	Sym   symtab.StIdx
	Value Expr
}

// IassignStmt stores Value through Addr, whose pointer type is PtrTy.
type IassignStmt struct {
	PtrTy types.TyIdx
	Addr  Expr
	Value Expr
}

// EvalStmt evaluates X for its side effects.
type EvalStmt struct {
	X Expr
}

// ReturnStmt returns X, or nothing when X is nil.
type ReturnStmt struct {
	X Expr
}

// GotoStmt jumps unconditionally.
type GotoStmt struct {
	Target LabelIdx
}

// Branch probability hints, in percent that the branch is taken.
const (
	ProbUnknown  int8 = -1
	ProbLikely   int8 = 90
	ProbUnlikely int8 = 10
)

// CondGotoStmt is brtrue or brfalse.
type CondGotoStmt struct {
	Opcode Op
	Cond   Expr
	Target LabelIdx
	Prob   int8
}

// LabelStmt defines a jump target.
type LabelStmt struct {
	Label LabelIdx
}

// IfStmt is structured if/else. Either branch may be nil or empty.
type IfStmt struct {
	Cond Expr
	Then *Block
	Else *Block
}

// CasePair maps a case value to its target label.
type CasePair struct {
	Value int64
	Label LabelIdx
}

// SwitchStmt jumps to the label of the matching case, or to Default.
type SwitchStmt struct {
	X       Expr
	Default LabelIdx
	Cases   []CasePair
}

// WhileStmt tests Cond before every iteration.
type WhileStmt struct {
	Cond Expr
	Body *Block
}

// DoWhileStmt tests Cond after every iteration.
type DoWhileStmt struct {
	Body *Block
	Cond Expr
}

// Block is a statement sequence.
type Block struct {
	Stmts []Stmt
}

func (*DassignStmt) Op() Op    { return OpDassign }
func (*IassignStmt) Op() Op    { return OpIassign }
func (*EvalStmt) Op() Op       { return OpEval }
func (*ReturnStmt) Op() Op     { return OpReturn }
func (*GotoStmt) Op() Op       { return OpGoto }
func (s *CondGotoStmt) Op() Op { return s.Opcode }
func (*LabelStmt) Op() Op      { return OpLabel }
func (*IfStmt) Op() Op         { return OpIf }
func (*SwitchStmt) Op() Op     { return OpSwitch }
func (*WhileStmt) Op() Op      { return OpWhile }
func (*DoWhileStmt) Op() Op    { return OpDowhile }
func (*Block) Op() Op          { return OpBlock }

func (*DassignStmt) isStmt()  {}
func (*IassignStmt) isStmt()  {}
func (*EvalStmt) isStmt()     {}
func (*ReturnStmt) isStmt()   {}
func (*GotoStmt) isStmt()     {}
func (*CondGotoStmt) isStmt() {}
func (*LabelStmt) isStmt()    {}
func (*IfStmt) isStmt()       {}
func (*SwitchStmt) isStmt()   {}
func (*WhileStmt) isStmt()    {}
func (*DoWhileStmt) isStmt()  {}
func (*Block) isStmt()        {}

// NewBlock builds a block holding stmts.
func NewBlock(stmts ...Stmt) *Block {
	return &Block{Stmts: stmts}
}

// IsEmpty is true for a nil block too.
func (b *Block) IsEmpty() bool { return b == nil || len(b.Stmts) == 0 }

// Append adds statements at the end.
func (b *Block) Append(stmts ...Stmt) {
	b.Stmts = append(b.Stmts, stmts...)
}

// Last returns the final statement, or nil.
func (b *Block) Last() Stmt {
	if b.IsEmpty() {
		return nil
	}
	return b.Stmts[len(b.Stmts)-1]
}

// FallsThrough reports whether control can leave the block at its end. Only
// a trailing goto, return or switch is known not to.
func (b *Block) FallsThrough() bool {
	switch b.Last().(type) {
	case *GotoStmt, *ReturnStmt, *SwitchStmt:
		return false
	default:
		return true
	}
}

// CountStmts counts statements in b, descending into nested blocks.
func CountStmts(b *Block) int {
	if b == nil {
		return 0
	}
	n := 0
	for _, s := range b.Stmts {
		n++
		switch s := s.(type) {
		case *IfStmt:
			n += CountStmts(s.Then) + CountStmts(s.Else)
		case *WhileStmt:
			n += CountStmts(s.Body)
		case *DoWhileStmt:
			n += CountStmts(s.Body)
		case *Block:
			n += CountStmts(s)
		}
	}
	return n
}
