package irtext

import (
	"math"
	"strconv"

	"maple/internal/ir"
	"maple/internal/prim"
)

func (p *parser) exprs(list []*sexpr) ([]ir.Expr, error) {
	out := make([]ir.Expr, 0, len(list))
	for _, s := range list {
		e, err := p.expr(s)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// expr reads one expression. Every form starts with its opcode and result
// type; the remaining fields depend on the opcode class.
func (p *parser) expr(s *sexpr) (ir.Expr, error) {
	if err := p.arity(s, 2, -1); err != nil {
		return nil, err
	}
	op, ok := ir.ParseOp(s.head())
	if !ok || op >= ir.OpDassign {
		return nil, p.errorf(s, "unknown expression %s", s.list[0])
	}
	pt, err := p.prim(s.list[1])
	if err != nil {
		return nil, err
	}
	args := s.list[2:]
	want := func(n int) error {
		if len(args) != n {
			return p.errorf(s, "%s takes %d operands, found %d", op, n, len(args))
		}
		return nil
	}

	switch {
	case op == ir.OpConstval:
		if err := want(1); err != nil {
			return nil, err
		}
		return p.constval(pt, args[0])
	case op == ir.OpDread || op == ir.OpAddrof:
		if err := want(1); err != nil {
			return nil, err
		}
		sym, err := p.symbol(args[0])
		if err != nil {
			return nil, err
		}
		if op == ir.OpDread {
			return p.b.Dread(pt, sym), nil
		}
		return p.b.Addrof(pt, sym), nil
	case op == ir.OpIread || op == ir.OpRetype:
		if err := want(2); err != nil {
			return nil, err
		}
		ty, err := p.typ(args[0])
		if err != nil {
			return nil, err
		}
		x, err := p.expr(args[1])
		if err != nil {
			return nil, err
		}
		if op == ir.OpIread {
			return p.b.Iread(pt, ty, x), nil
		}
		return p.b.Retype(pt, ty, x), nil
	case op.IsUnary():
		if err := want(1); err != nil {
			return nil, err
		}
		x, err := p.expr(args[0])
		if err != nil {
			return nil, err
		}
		return p.b.Unary(op, pt, x), nil
	case op.IsCvt():
		if err := want(2); err != nil {
			return nil, err
		}
		from, err := p.prim(args[0])
		if err != nil {
			return nil, err
		}
		x, err := p.expr(args[1])
		if err != nil {
			return nil, err
		}
		return p.b.TypeCvt(op, pt, from, x), nil
	case op.IsExtract():
		if err := want(3); err != nil {
			return nil, err
		}
		off, err := p.bitCount(args[0])
		if err != nil {
			return nil, err
		}
		size, err := p.bitCount(args[1])
		if err != nil {
			return nil, err
		}
		if op != ir.OpExtractbits && off != 0 {
			return nil, p.errorf(args[0], "%s takes offset 0", op)
		}
		x, err := p.expr(args[2])
		if err != nil {
			return nil, err
		}
		return p.b.Extractbits(op, pt, off, size, x), nil
	case op.IsBinary():
		if err := want(2); err != nil {
			return nil, err
		}
		xs, err := p.exprs(args)
		if err != nil {
			return nil, err
		}
		return p.b.Binary(op, pt, xs[0], xs[1]), nil
	case op.IsCompare():
		if err := want(3); err != nil {
			return nil, err
		}
		opnd, err := p.prim(args[0])
		if err != nil {
			return nil, err
		}
		xs, err := p.exprs(args[1:])
		if err != nil {
			return nil, err
		}
		return p.b.Compare(op, pt, opnd, xs[0], xs[1]), nil
	case op == ir.OpSelect:
		if err := want(3); err != nil {
			return nil, err
		}
		xs, err := p.exprs(args)
		if err != nil {
			return nil, err
		}
		return p.b.Select(pt, xs[0], xs[1], xs[2]), nil
	case op == ir.OpIntrinsicop:
		if len(args) == 0 {
			return nil, p.errorf(s, "intrinsicop without a name")
		}
		name, err := p.atom(args[0])
		if err != nil {
			return nil, err
		}
		xs, err := p.exprs(args[1:])
		if err != nil {
			return nil, err
		}
		return p.b.Intrinsicop(pt, name, xs...), nil
	}
	return nil, p.errorf(s, "unknown expression %s", s.list[0])
}

// constval accepts decimal, hex, octal or binary integers in the signed or
// unsigned 64-bit range, and Go float syntax plus nan and inf for floats.
func (p *parser) constval(pt prim.PrimType, s *sexpr) (ir.Expr, error) {
	text, err := p.atom(s)
	if err != nil {
		return nil, err
	}
	if pt.IsFloat() {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.errorf(s, "bad %s constant %q", pt, text)
		}
		if pt == prim.PTYF32 && !math.IsNaN(f) && !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			return nil, p.errorf(s, "%s constant %q out of range", pt, text)
		}
		return p.b.FloatingConst(f, pt), nil
	}
	if !p.g.Prims.Resolve(pt).IsInteger() {
		return nil, p.errorf(s, "constant of non-scalar type %s", pt)
	}
	if p.g.Prims.Size(pt) > 8 {
		return nil, p.errorf(s, "%s constants are not representable", pt)
	}
	if v, err := strconv.ParseInt(text, 0, 64); err == nil {
		return p.b.SignedConst(v, pt), nil
	}
	v, err := strconv.ParseUint(text, 0, 64)
	if err != nil {
		return nil, p.errorf(s, "bad %s constant %q", pt, text)
	}
	return p.b.IntConst(v, pt), nil
}

func (p *parser) block(s *sexpr) (*ir.Block, error) {
	if s.head() != "block" {
		return nil, p.errorf(s, "expected (block ...), found %s", s)
	}
	b := ir.NewBlock()
	for _, x := range s.list[1:] {
		st, err := p.stmt(x)
		if err != nil {
			return nil, err
		}
		b.Append(st)
	}
	return b, nil
}

// optBlock reads a block or the atom "nil".
func (p *parser) optBlock(s *sexpr) (*ir.Block, error) {
	if !s.isList && s.atom == "nil" {
		return nil, nil
	}
	return p.block(s)
}

func (p *parser) stmt(s *sexpr) (ir.Stmt, error) {
	if p.fn == nil {
		return nil, p.errorf(s, "statement outside a function")
	}
	if err := p.arity(s, 1, -1); err != nil {
		return nil, err
	}
	switch s.head() {
	case "block":
		return p.block(s)
	case "freq":
		if err := p.arity(s, 3, 3); err != nil {
			return nil, err
		}
		text, err := p.atom(s.list[1])
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, p.errorf(s.list[1], "bad frequency %q", text)
		}
		st, err := p.stmt(s.list[2])
		if err != nil {
			return nil, err
		}
		p.fn.SetFreq(st, n)
		return st, nil
	case "dassign":
		if err := p.arity(s, 3, 3); err != nil {
			return nil, err
		}
		sym, err := p.symbol(s.list[1])
		if err != nil {
			return nil, err
		}
		v, err := p.expr(s.list[2])
		if err != nil {
			return nil, err
		}
		return p.b.Dassign(sym, v), nil
	case "iassign":
		if err := p.arity(s, 4, 4); err != nil {
			return nil, err
		}
		ty, err := p.typ(s.list[1])
		if err != nil {
			return nil, err
		}
		xs, err := p.exprs(s.list[2:])
		if err != nil {
			return nil, err
		}
		return p.b.Iassign(ty, xs[0], xs[1]), nil
	case "eval":
		if err := p.arity(s, 2, 2); err != nil {
			return nil, err
		}
		x, err := p.expr(s.list[1])
		if err != nil {
			return nil, err
		}
		return p.b.Eval(x), nil
	case "return":
		if err := p.arity(s, 1, 2); err != nil {
			return nil, err
		}
		if len(s.list) == 1 {
			return p.b.Return(nil), nil
		}
		x, err := p.expr(s.list[1])
		if err != nil {
			return nil, err
		}
		return p.b.Return(x), nil
	case "goto", "label":
		if err := p.arity(s, 2, 2); err != nil {
			return nil, err
		}
		l, err := p.label(s.list[1])
		if err != nil {
			return nil, err
		}
		if s.head() == "goto" {
			return p.b.Goto(l), nil
		}
		return p.b.Label(l), nil
	case "brtrue", "brfalse":
		return p.condGoto(s)
	case "if":
		if err := p.arity(s, 3, 4); err != nil {
			return nil, err
		}
		cond, err := p.expr(s.list[1])
		if err != nil {
			return nil, err
		}
		then, err := p.optBlock(s.list[2])
		if err != nil {
			return nil, err
		}
		st := &ir.IfStmt{Cond: cond, Then: then}
		if len(s.list) == 4 {
			if st.Else, err = p.optBlock(s.list[3]); err != nil {
				return nil, err
			}
		}
		return st, nil
	case "while":
		if err := p.arity(s, 3, 3); err != nil {
			return nil, err
		}
		cond, err := p.expr(s.list[1])
		if err != nil {
			return nil, err
		}
		body, err := p.block(s.list[2])
		if err != nil {
			return nil, err
		}
		return &ir.WhileStmt{Cond: cond, Body: body}, nil
	case "dowhile":
		if err := p.arity(s, 3, 3); err != nil {
			return nil, err
		}
		body, err := p.block(s.list[1])
		if err != nil {
			return nil, err
		}
		cond, err := p.expr(s.list[2])
		if err != nil {
			return nil, err
		}
		return &ir.DoWhileStmt{Body: body, Cond: cond}, nil
	case "switch":
		return p.switchStmt(s)
	}
	return nil, p.errorf(s, "unknown statement %s", s.list[0])
}

// condGoto reads (brtrue|brfalse COND LABEL [PROB]).
func (p *parser) condGoto(s *sexpr) (ir.Stmt, error) {
	if err := p.arity(s, 3, 4); err != nil {
		return nil, err
	}
	op, _ := ir.ParseOp(s.head())
	cond, err := p.expr(s.list[1])
	if err != nil {
		return nil, err
	}
	l, err := p.label(s.list[2])
	if err != nil {
		return nil, err
	}
	st := p.b.CondGoto(op, cond, l)
	if len(s.list) == 4 {
		text, err := p.atom(s.list[3])
		if err != nil {
			return nil, err
		}
		switch text {
		case "likely":
			st.Prob = ir.ProbLikely
		case "unlikely":
			st.Prob = ir.ProbUnlikely
		default:
			v, err := strconv.ParseInt(text, 10, 8)
			if err != nil || v < 0 || v > 100 {
				return nil, p.errorf(s.list[3], "bad branch probability %q", text)
			}
			st.Prob = int8(v)
		}
	}
	return st, nil
}

// switchStmt reads (switch X DEFAULT (case V LABEL)...).
func (p *parser) switchStmt(s *sexpr) (ir.Stmt, error) {
	if err := p.arity(s, 3, -1); err != nil {
		return nil, err
	}
	x, err := p.expr(s.list[1])
	if err != nil {
		return nil, err
	}
	def, err := p.label(s.list[2])
	if err != nil {
		return nil, err
	}
	st := &ir.SwitchStmt{X: x, Default: def}
	seen := make(map[int64]bool)
	for _, c := range s.list[3:] {
		if c.head() != "case" {
			return nil, p.errorf(c, "expected (case VALUE LABEL), found %s", c)
		}
		if err := p.arity(c, 3, 3); err != nil {
			return nil, err
		}
		v, err := p.integer(c.list[1])
		if err != nil {
			return nil, err
		}
		if seen[v] {
			return nil, p.errorf(c, "duplicate case %d", v)
		}
		seen[v] = true
		l, err := p.label(c.list[2])
		if err != nil {
			return nil, err
		}
		st.Cases = append(st.Cases, ir.CasePair{Value: v, Label: l})
	}
	return st, nil
}
