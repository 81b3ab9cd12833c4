// Package lower rewrites structured control flow into branches and labels.
//
// if, while and dowhile always lower; a switch lowers only when its cases
// form one contiguous run with a single target, and otherwise stays for the
// code generator. Conditional branches on short-circuit operators split into
// branch chains, and __builtin_expect wrappers turn into branch hints.
//
// Profile counts move with the statements: every synthesized branch or
// label receives the count of the path that reaches it, when that count is
// known. A missing if arm count is the if's count minus the other arm, and a
// loop's back branch gets the body count minus the loop count.
package lower

import (
	"maple/internal/globals"
	"maple/internal/ice"
	"maple/internal/ir"
	"maple/internal/trace"
)

// Options selects optional rewrites.
type Options struct {
	// BuiltinExpect strips __builtin_expect from branch conditions and
	// records the expectation as the branch probability.
	BuiltinExpect bool
}

// DefaultOptions enables every rewrite.
func DefaultOptions() Options {
	return Options{BuiltinExpect: true}
}

// Stats counts lowered statements by kind.
type Stats struct {
	Ifs       int
	Loops     int
	Switches  int
	CondGotos int
	Expects   int
}

// Total sums all counters.
func (s Stats) Total() int {
	return s.Ifs + s.Loops + s.Switches + s.CondGotos + s.Expects
}

// Lowerer lowers the body of one function at a time. It is not safe for
// concurrent use.
type Lowerer struct {
	g      *globals.Tables
	b      *ir.Builder
	opts   Options
	fn     *ir.Function
	tracer trace.Tracer
	stats  Stats
}

// New returns a lowerer over g.
func New(g *globals.Tables, opts Options) *Lowerer {
	return &Lowerer{g: g, b: g.Builder(), opts: opts, tracer: trace.Nop}
}

// ForFunction binds the lowerer to fn without lowering its body, for callers
// that lower individual statements.
func (l *Lowerer) ForFunction(fn *ir.Function) *Lowerer {
	l.fn = fn
	return l
}

// WithTracer sets the tracer that receives a point event per lowering.
func (l *Lowerer) WithTracer(t trace.Tracer) *Lowerer {
	if t == nil {
		t = trace.Nop
	}
	l.tracer = t
	return l
}

// Stats returns the counters accumulated so far.
func (l *Lowerer) Stats() Stats { return l.stats }

// LowerFunc replaces the body of fn with its lowered form. Labels are
// allocated from fn.
func (l *Lowerer) LowerFunc(fn *ir.Function) {
	l.fn = fn
	fn.Body = l.LowerBlock(fn.Body)
}

// LowerBlock returns a flat block holding the lowered statements of b.
// Nested blocks are spliced into the result.
func (l *Lowerer) LowerBlock(b *ir.Block) *ir.Block {
	l.mustHaveFunc()
	out := ir.NewBlock()
	if b == nil {
		return out
	}
	var prev ir.Stmt
	for _, s := range b.Stmts {
		switch n := s.(type) {
		case *ir.IfStmt:
			out.Append(l.lowerIf(n, prev).Stmts...)
		case *ir.WhileStmt:
			out.Append(l.lowerWhile(n, prev).Stmts...)
		case *ir.DoWhileStmt:
			out.Append(l.LowerDoWhileStmt(n).Stmts...)
		case *ir.SwitchStmt:
			if lowered := l.LowerSwitchStmt(n); lowered != nil {
				out.Append(lowered.Stmts...)
			} else {
				out.Append(n)
			}
		case *ir.Block:
			out.Append(l.LowerBlock(n).Stmts...)
		case *ir.CondGotoStmt:
			if l.opts.BuiltinExpect {
				l.stripExpect(n, prev)
			}
			out.Append(l.LowerCondGoto(n)...)
		default:
			out.Append(s)
		}
		prev = s
	}
	return out
}

func (l *Lowerer) mustHaveFunc() {
	if l.fn == nil {
		ice.Fatalf("lower: no function bound")
	}
}

// copyFreq gives dst the count of src, if src has one.
func (l *Lowerer) copyFreq(dst, src ir.Stmt) {
	if n, ok := l.fn.Freq(src); ok {
		l.fn.SetFreq(dst, n)
	}
}

// freq is a profile count that may be missing.
type freq struct {
	n  uint64
	ok bool
}

func (l *Lowerer) freqOf(s ir.Stmt) freq {
	n, ok := l.fn.Freq(s)
	return freq{n: n, ok: ok}
}

func (f freq) set(fn *ir.Function, s ir.Stmt) {
	if f.ok {
		fn.SetFreq(s, f.n)
	}
}

// subFreq subtracts counts, stopping at zero when the profile is
// inconsistent.
func subFreq(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

// condBranch builds a conditional branch and, when enabled, moves a
// __builtin_expect in its condition into the branch probability.
func (l *Lowerer) condBranch(op ir.Op, cond ir.Expr, target ir.LabelIdx, prev ir.Stmt) *ir.CondGotoStmt {
	br := l.b.CondGoto(op, cond, target)
	if l.opts.BuiltinExpect {
		l.stripExpect(br, prev)
	}
	return br
}

func (l *Lowerer) lowered(name, detail string, kv ...string) {
	trace.Point(l.tracer, trace.ScopeNode, name, detail, kv...)
}
