// Package testkit holds structural checks shared by pass tests.
package testkit

import (
	"fmt"

	"maple/internal/ir"
)

// CheckLowered runs the invariants a lowered function body must satisfy:
// 1) the body is flat: no if, while, dowhile or nested block remains
// 2) every label is defined at most once
// 3) every goto, conditional branch and switch target is defined
// Switches are allowed; they stay when their cases are not contiguous.
func CheckLowered(fn *ir.Function) error {
	if fn == nil || fn.Body == nil {
		return fmt.Errorf("nil function or body")
	}
	defined := make(map[ir.LabelIdx]int)
	var targets []ir.LabelIdx
	for i, s := range fn.Body.Stmts {
		switch n := s.(type) {
		case *ir.IfStmt, *ir.WhileStmt, *ir.DoWhileStmt, *ir.Block:
			return fmt.Errorf("stmt %d: structured %s survived lowering", i, s.Op())
		case *ir.LabelStmt:
			if prev, ok := defined[n.Label]; ok {
				return fmt.Errorf("stmt %d: label %s already defined at stmt %d", i, fn.Labels.Name(n.Label), prev)
			}
			defined[n.Label] = i
		case *ir.GotoStmt:
			targets = append(targets, n.Target)
		case *ir.CondGotoStmt:
			if n.Cond == nil {
				return fmt.Errorf("stmt %d: %s without a condition", i, n.Opcode)
			}
			targets = append(targets, n.Target)
		case *ir.SwitchStmt:
			targets = append(targets, n.Default)
			for _, c := range n.Cases {
				targets = append(targets, c.Label)
			}
		}
	}
	for _, l := range targets {
		if _, ok := defined[l]; !ok {
			return fmt.Errorf("branch to undefined label %s", fn.Labels.Name(l))
		}
	}
	return nil
}

// CheckFreqs checks the profile of a lowered fn:
// 1) every statement carries a count
// 2) a label's count covers its inflow: the gotos that target it plus the
// statement falling into it, when that statement never branches
// A function without a profile passes.
func CheckFreqs(fn *ir.Function) error {
	if !fn.HasProfile() {
		return nil
	}
	inflow := make(map[ir.LabelIdx]uint64)
	for i, s := range fn.Body.Stmts {
		n, ok := fn.Freq(s)
		if !ok {
			return fmt.Errorf("stmt %d (%s) has no frequency", i, s.Op())
		}
		if g, ok := s.(*ir.GotoStmt); ok {
			inflow[g.Target] += n
		}
	}
	for i, s := range fn.Body.Stmts {
		lab, ok := s.(*ir.LabelStmt)
		if !ok {
			continue
		}
		in := inflow[lab.Label]
		if i > 0 && fallsInto(fn.Body.Stmts[i-1]) {
			prev, _ := fn.Freq(fn.Body.Stmts[i-1])
			in += prev
		}
		if n, _ := fn.Freq(lab); n < in {
			return fmt.Errorf("stmt %d: label %s has count %d below its inflow %d", i, fn.Labels.Name(lab.Label), n, in)
		}
	}
	return nil
}

// fallsInto reports statements that always continue with the next one.
func fallsInto(s ir.Stmt) bool {
	switch s.(type) {
	case *ir.DassignStmt, *ir.IassignStmt, *ir.EvalStmt, *ir.LabelStmt:
		return true
	}
	return false
}
