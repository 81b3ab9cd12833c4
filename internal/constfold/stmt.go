package constfold

import (
	"maple/internal/ir"
	"maple/internal/trace"
)

// FoldFunc folds the body of fn in place and binds the folder to fn for
// local symbol lookups.
func (f *Folder) FoldFunc(fn *ir.Function) {
	f.fn = fn
	f.FoldBlock(fn.Body)
}

// FoldBlock folds every statement of b in place.
func (f *Folder) FoldBlock(b *ir.Block) {
	if b == nil {
		return
	}
	out := make([]ir.Stmt, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		out = append(out, f.FoldStmt(s)...)
	}
	b.Stmts = out
}

// FoldStmt folds the operands of s and returns the statements that replace
// it. Statements keep their identity unless control flow becomes static: a
// constant branch turns into a goto or disappears, and a structured
// statement with a constant condition is replaced by the taken body.
func (f *Folder) FoldStmt(s ir.Stmt) []ir.Stmt {
	switch n := s.(type) {
	case *ir.DassignStmt:
		n.Value = f.Simplify(n.Value)
	case *ir.IassignStmt:
		n.Addr = f.Simplify(n.Addr)
		n.Value = f.Simplify(n.Value)
	case *ir.EvalStmt:
		n.X = f.Simplify(n.X)
	case *ir.ReturnStmt:
		if n.X != nil {
			n.X = f.Simplify(n.X)
		}
	case *ir.CondGotoStmt:
		return f.foldCondGoto(n)
	case *ir.IfStmt:
		return f.foldIf(n)
	case *ir.WhileStmt:
		n.Cond = f.Simplify(n.Cond)
		if truth, ok := f.constCond(n.Cond); ok && !truth {
			f.stmtFolded(n, "removed")
			return nil
		}
		f.FoldBlock(n.Body)
	case *ir.DoWhileStmt:
		f.FoldBlock(n.Body)
		n.Cond = f.Simplify(n.Cond)
		if truth, ok := f.constCond(n.Cond); ok && !truth {
			f.stmtFolded(n, "body")
			return blockStmts(n.Body)
		}
	case *ir.SwitchStmt:
		return f.foldSwitch(n)
	case *ir.Block:
		f.FoldBlock(n)
	}
	return []ir.Stmt{s}
}

func (f *Folder) foldCondGoto(n *ir.CondGotoStmt) []ir.Stmt {
	n.Cond = f.Simplify(n.Cond)
	truth, ok := f.constCond(n.Cond)
	if !ok {
		return []ir.Stmt{n}
	}
	if truth != (n.Opcode == ir.OpBrtrue) {
		f.stmtFolded(n, "removed")
		return nil
	}
	g := f.b.Goto(n.Target)
	if f.fn != nil {
		if freq, ok := f.fn.Freq(n); ok {
			f.fn.SetFreq(g, freq)
		}
	}
	f.stmtFolded(n, "goto")
	return []ir.Stmt{g}
}

func (f *Folder) foldIf(n *ir.IfStmt) []ir.Stmt {
	n.Cond = f.Simplify(n.Cond)
	if truth, ok := f.constCond(n.Cond); ok {
		taken := n.Else
		if truth {
			taken = n.Then
		}
		f.FoldBlock(taken)
		f.stmtFolded(n, "branch")
		return blockStmts(taken)
	}
	f.FoldBlock(n.Then)
	f.FoldBlock(n.Else)
	return []ir.Stmt{n}
}

func (f *Folder) foldSwitch(n *ir.SwitchStmt) []ir.Stmt {
	n.X = f.Simplify(n.X)
	c, ok := ir.AsIntConst(n.X)
	if !ok {
		return []ir.Stmt{n}
	}
	target := n.Default
	v := c.Value.ExtValue(0)
	for _, cp := range n.Cases {
		if cp.Value == v {
			target = cp.Label
			break
		}
	}
	f.stmtFolded(n, "goto")
	return []ir.Stmt{f.b.Goto(target)}
}

// constCond reports the truth of e when it folded to a constant.
func (f *Folder) constCond(e ir.Expr) (truth, ok bool) {
	c, isConst := e.(*ir.ConstvalNode)
	if !isConst {
		return false, false
	}
	return isTrue(c)
}

func blockStmts(b *ir.Block) []ir.Stmt {
	if b == nil {
		return nil
	}
	return b.Stmts
}

func (f *Folder) stmtFolded(s ir.Stmt, detail string) {
	f.stats.Stmts++
	trace.Point(f.tracer, trace.ScopeNode, s.Op().String(), detail)
}
