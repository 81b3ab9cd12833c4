package lower

import (
	"maple/internal/ir"
	"maple/internal/symtab"
)

// LowerCondGoto splits a branch on a short-circuit condition into a chain
// of simple branches:
//
//	brtrue  (a || b), L  ->  brtrue a, L; brtrue b, L
//	brfalse (a && b), L  ->  brfalse a, L; brfalse b, L
//	brtrue  (a && b), L  ->  brfalse a, Ls; brtrue b, L; label Ls
//	brfalse (a || b), L  ->  brtrue a, Ls; brfalse b, L; label Ls
//
// Any other branch is returned unchanged.
func (l *Lowerer) LowerCondGoto(s *ir.CondGotoStmt) []ir.Stmt {
	cond, ok := s.Cond.(*ir.BinaryNode)
	if !ok || (cond.Opcode != ir.OpCand && cond.Opcode != ir.OpCior) {
		return []ir.Stmt{s}
	}
	l.mustHaveFunc()
	l.stats.CondGotos++

	// Same-sense split: either operand alone decides the branch.
	sameSense := (s.Opcode == ir.OpBrtrue) == (cond.Opcode == ir.OpCior)
	if sameSense {
		first := &ir.CondGotoStmt{Opcode: s.Opcode, Cond: cond.X, Target: s.Target, Prob: s.Prob}
		second := &ir.CondGotoStmt{Opcode: s.Opcode, Cond: cond.Y, Target: s.Target, Prob: s.Prob}
		l.copyFreq(first, s)
		l.lowered(s.Opcode.String(), cond.Opcode.String(), "split", "same")
		return append(l.LowerCondGoto(first), l.LowerCondGoto(second)...)
	}

	skip := l.fn.Labels.CreateLabel()
	inverse := ir.OpBrtrue
	if s.Opcode == ir.OpBrtrue {
		inverse = ir.OpBrfalse
	}
	first := &ir.CondGotoStmt{Opcode: inverse, Cond: cond.X, Target: skip, Prob: ir.ProbUnknown}
	second := &ir.CondGotoStmt{Opcode: s.Opcode, Cond: cond.Y, Target: s.Target, Prob: s.Prob}
	lab := l.b.Label(skip)
	l.copyFreq(first, s)
	l.copyFreq(lab, s)
	l.lowered(s.Opcode.String(), cond.Opcode.String(), "split", "skip")
	out := l.LowerCondGoto(first)
	out = append(out, l.LowerCondGoto(second)...)
	return append(out, lab)
}

// stripExpect matches
//
//	ne(intrinsicop __builtin_expect(x, k), 0)
//
// in the condition of s, replaces the intrinsic with x and records k as the
// branch probability. The intrinsic may also sit in the dassign that
// immediately precedes s, with s testing the assigned variable; the dassign
// is then rewritten instead.
func (l *Lowerer) stripExpect(s *ir.CondGotoStmt, prev ir.Stmt) {
	ne, ok := s.Cond.(*ir.CompareNode)
	if !ok || ne.Opcode != ir.OpNe || !isZeroConst(ne.Y) {
		return
	}
	var (
		call   *ir.IntrinsicopNode
		assign *ir.DassignStmt
	)
	switch x := ne.X.(type) {
	case *ir.IntrinsicopNode:
		call = x
	case *ir.DreadNode:
		assign = assignedBy(prev, x.Sym)
		if assign == nil {
			return
		}
		call, _ = assign.Value.(*ir.IntrinsicopNode)
	}
	if call == nil || call.Intrinsic != ir.IntrinsicBuiltinExpect || len(call.Args) != 2 {
		return
	}
	expected, ok := expectedValue(call.Args[1])
	if !ok {
		return
	}

	if assign != nil {
		assign.Value = call.Args[0]
	} else {
		s.Cond = l.b.Compare(ne.Opcode, ne.Type, ne.Opnd, call.Args[0], ne.Y)
	}
	if expected == (s.Opcode == ir.OpBrtrue) {
		s.Prob = ir.ProbLikely
	} else {
		s.Prob = ir.ProbUnlikely
	}
	l.stats.Expects++
	l.lowered(s.Opcode.String(), "expect", "prob", probString(s.Prob))
}

func assignedBy(prev ir.Stmt, sym symtab.StIdx) *ir.DassignStmt {
	d, ok := prev.(*ir.DassignStmt)
	if !ok || d.Sym != sym {
		return nil
	}
	return d
}

// expectedValue unwraps conversions around the expectation and requires it
// to be the constant 0 or 1.
func expectedValue(e ir.Expr) (bool, bool) {
	for {
		cvt, ok := e.(*ir.TypeCvtNode)
		if !ok || cvt.Opcode != ir.OpCvt {
			break
		}
		e = cvt.X
	}
	c, ok := ir.AsIntConst(e)
	if !ok {
		return false, false
	}
	switch {
	case c.Value.IsZero():
		return false, true
	case c.Value.IsOne():
		return true, true
	}
	return false, false
}

func isZeroConst(e ir.Expr) bool {
	c, ok := ir.AsIntConst(e)
	return ok && c.Value.IsZero()
}

// inverseProb returns the probability of the opposite branch sense.
func inverseProb(p int8) int8 {
	if p == ir.ProbUnknown {
		return p
	}
	return 100 - p
}

func probString(p int8) string {
	switch p {
	case ir.ProbLikely:
		return "likely"
	case ir.ProbUnlikely:
		return "unlikely"
	}
	return "unknown"
}
