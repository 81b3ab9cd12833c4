package lower

import (
	"cmp"
	"slices"
	"strconv"

	"maple/internal/ir"
	"maple/internal/prim"
)

// LowerIfStmt lowers s into one of four shapes:
//
//	then and else empty:  eval cond
//	else empty:           brfalse cond, L; then; label L
//	then empty:           brtrue cond, L; else; label L
//	both present:         brfalse cond, Lelse; then; goto Lend;
//	                      label Lelse; else; label Lend
//
// In the last shape the goto and Lend are dropped when then cannot fall
// through.
func (l *Lowerer) LowerIfStmt(s *ir.IfStmt) *ir.Block {
	return l.lowerIf(s, nil)
}

// lowerIf lowers s; prev is the statement before it, which may hold the
// __builtin_expect call its condition tests.
func (l *Lowerer) lowerIf(s *ir.IfStmt, prev ir.Stmt) *ir.Block {
	l.mustHaveFunc()
	l.stats.Ifs++
	thenEmpty, elseEmpty := s.Then.IsEmpty(), s.Else.IsEmpty()
	out := ir.NewBlock()
	total, hasTotal := l.fn.Freq(s)
	thenFreq, elseFreq := l.armFreqs(s)

	switch {
	case thenEmpty && elseEmpty:
		ev := l.b.Eval(s.Cond)
		l.copyFreq(ev, s)
		out.Append(ev)
		l.lowered("if", "eval")

	case elseEmpty:
		end := l.fn.Labels.CreateLabel()
		br := l.condBranch(ir.OpBrfalse, s.Cond, end, prev)
		l.copyFreq(br, s)
		out.Append(l.LowerCondGoto(br)...)
		out.Append(l.LowerBlock(s.Then).Stmts...)
		lab := l.b.Label(end)
		l.copyFreq(lab, s)
		out.Append(lab)
		l.lowered("if", "then")

	case thenEmpty:
		end := l.fn.Labels.CreateLabel()
		br := l.condBranch(ir.OpBrtrue, s.Cond, end, prev)
		l.copyFreq(br, s)
		out.Append(l.LowerCondGoto(br)...)
		out.Append(l.LowerBlock(s.Else).Stmts...)
		lab := l.b.Label(end)
		l.copyFreq(lab, s)
		out.Append(lab)
		l.lowered("if", "else")

	default:
		elseLab := l.fn.Labels.CreateLabel()
		br := l.condBranch(ir.OpBrfalse, s.Cond, elseLab, prev)
		l.copyFreq(br, s)
		out.Append(l.LowerCondGoto(br)...)
		then := l.LowerBlock(s.Then)
		out.Append(then.Stmts...)

		fallsThrough := s.Then.FallsThrough()
		var endLab ir.LabelIdx
		if fallsThrough {
			endLab = l.fn.Labels.CreateLabel()
			g := l.b.Goto(endLab)
			thenFreq.set(l.fn, g)
			out.Append(g)
		}
		el := l.b.Label(elseLab)
		elseFreq.set(l.fn, el)
		out.Append(el)
		out.Append(l.LowerBlock(s.Else).Stmts...)
		if fallsThrough {
			lab := l.b.Label(endLab)
			if hasTotal {
				l.fn.SetFreq(lab, total)
			}
			out.Append(lab)
		}
		l.lowered("if", "then-else", "falls-through", strconv.FormatBool(fallsThrough))
	}
	return out
}

// armFreqs returns the counts of the two arms of s. An arm without a count
// gets the count of s minus that of the other arm.
func (l *Lowerer) armFreqs(s *ir.IfStmt) (then, els freq) {
	then = l.freqOf(s.Then)
	els = l.freqOf(s.Else)
	total := l.freqOf(s)
	if !total.ok {
		return then, els
	}
	switch {
	case then.ok && !els.ok:
		els = freq{n: subFreq(total.n, then.n), ok: true}
	case els.ok && !then.ok:
		then = freq{n: subFreq(total.n, els.n), ok: true}
	}
	return then, els
}

// LowerWhileStmt lowers s to
//
//	brfalse cond, Lend; label Lbody; body; brtrue cond, Lbody; label Lend
//
// The loop test is duplicated so that each iteration takes one branch.
func (l *Lowerer) LowerWhileStmt(s *ir.WhileStmt) *ir.Block {
	return l.lowerWhile(s, nil)
}

func (l *Lowerer) lowerWhile(s *ir.WhileStmt, prev ir.Stmt) *ir.Block {
	l.mustHaveFunc()
	l.stats.Loops++
	body, end := l.fn.Labels.CreateLabel(), l.fn.Labels.CreateLabel()
	out := ir.NewBlock()

	entry := l.condBranch(ir.OpBrfalse, s.Cond, end, prev)
	l.copyFreq(entry, s)
	// The back edge tests the same, already stripped, condition with the
	// opposite sense.
	back := l.b.CondGoto(ir.OpBrtrue, entry.Cond, body)
	back.Prob = inverseProb(entry.Prob)
	out.Append(l.LowerCondGoto(entry)...)

	bodyLab := l.b.Label(body)
	l.copyFreq(bodyLab, s.Body)
	out.Append(bodyLab)
	out.Append(l.LowerBlock(s.Body).Stmts...)

	l.backEdgeFreq(back, s.Body, s)
	out.Append(l.LowerCondGoto(back)...)

	endLab := l.b.Label(end)
	l.copyFreq(endLab, s)
	out.Append(endLab)
	l.lowered("while", "lowered")
	return out
}

// LowerDoWhileStmt lowers s to label Lbody; body; brtrue cond, Lbody.
func (l *Lowerer) LowerDoWhileStmt(s *ir.DoWhileStmt) *ir.Block {
	l.mustHaveFunc()
	l.stats.Loops++
	body := l.fn.Labels.CreateLabel()
	out := ir.NewBlock()

	bodyLab := l.b.Label(body)
	l.copyFreq(bodyLab, s.Body)
	out.Append(bodyLab)
	out.Append(l.LowerBlock(s.Body).Stmts...)

	var last ir.Stmt
	if !s.Body.IsEmpty() {
		last = s.Body.Stmts[len(s.Body.Stmts)-1]
	}
	back := l.condBranch(ir.OpBrtrue, s.Cond, body, last)
	l.backEdgeFreq(back, s.Body, s)
	out.Append(l.LowerCondGoto(back)...)
	l.lowered("dowhile", "lowered")
	return out
}

// backEdgeFreq gives a loop's back branch the count of its body minus the
// count of the loop itself, which is the number of times the loop is left
// through that branch. With only the body count known, the body count is
// used.
func (l *Lowerer) backEdgeFreq(back ir.Stmt, body *ir.Block, loop ir.Stmt) {
	bf := l.freqOf(body)
	if !bf.ok {
		return
	}
	if lf := l.freqOf(loop); lf.ok {
		bf.n = subFreq(bf.n, lf.n)
	}
	bf.set(l.fn, back)
}

// LowerSwitchStmt lowers a switch whose case values are consecutive and
// share one label:
//
//	one value:  brfalse (x == v), Ldefault; goto L
//	a range:    brtrue (x < min), Ldefault; brtrue (x > max), Ldefault; goto L
//
// It returns nil for any other switch.
func (l *Lowerer) LowerSwitchStmt(s *ir.SwitchStmt) *ir.Block {
	l.mustHaveFunc()
	if !consecutiveCasesSameTarget(s.Cases) {
		return nil
	}
	l.stats.Switches++
	cases := sortedCases(s.Cases)
	lo, hi := cases[0].Value, cases[len(cases)-1].Value
	target := cases[0].Label
	pt := s.X.Prim()
	out := ir.NewBlock()

	branch := func(op, rel ir.Op, v int64) {
		cond := l.b.Compare(rel, prim.PTYU1, pt, s.X, l.b.SignedConst(v, pt))
		br := l.b.CondGoto(op, cond, s.Default)
		l.copyFreq(br, s)
		out.Append(br)
	}
	if lo == hi {
		branch(ir.OpBrfalse, ir.OpEq, lo)
	} else {
		branch(ir.OpBrtrue, ir.OpLt, lo)
		branch(ir.OpBrtrue, ir.OpGt, hi)
	}
	g := l.b.Goto(target)
	l.copyFreq(g, s)
	out.Append(g)
	l.lowered("switch", "range", "min", strconv.FormatInt(lo, 10), "max", strconv.FormatInt(hi, 10))
	return out
}

func sortedCases(cases []ir.CasePair) []ir.CasePair {
	sorted := slices.Clone(cases)
	slices.SortFunc(sorted, func(a, b ir.CasePair) int {
		return cmp.Compare(a.Value, b.Value)
	})
	return sorted
}

// consecutiveCasesSameTarget reports whether the case values, once sorted,
// step by one and all name the same label.
func consecutiveCasesSameTarget(cases []ir.CasePair) bool {
	if len(cases) == 0 {
		return false
	}
	sorted := sortedCases(cases)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Label != sorted[0].Label || sorted[i].Value != sorted[i-1].Value+1 {
			return false
		}
	}
	return true
}
