package irtext

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"maple/internal/globals"
	"maple/internal/ice"
	"maple/internal/ir"
	"maple/internal/symtab"
	"maple/internal/types"
)

// Print writes m in the form Parse reads. Globals come first, then the
// functions in module order.
func Print(w io.Writer, g *globals.Tables, m *ir.Module) error {
	if w == nil || m == nil {
		return nil
	}
	p := &printer{g: g}
	for _, idx := range m.Globals {
		sym := g.SymbolFromStIdx(nil, idx)
		fmt.Fprintf(&p.sb, "(global %s %s)\n", g.StringFromStrIdx(sym.Name), p.typ(sym.Ty))
	}
	for i, fn := range m.Functions {
		if i > 0 || len(m.Globals) > 0 {
			p.sb.WriteByte('\n')
		}
		p.function(fn)
		p.sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, p.sb.String())
	return err
}

// FormatExpr renders e on one line. fn scopes local names and may be nil.
func FormatExpr(g *globals.Tables, fn *ir.Function, e ir.Expr) string {
	p := &printer{g: g, fn: fn}
	p.expr(e)
	return p.sb.String()
}

// FormatStmt renders s, nested statements indented by two spaces.
func FormatStmt(g *globals.Tables, fn *ir.Function, s ir.Stmt) string {
	p := &printer{g: g, fn: fn}
	p.stmt(s)
	return p.sb.String()
}

type printer struct {
	g     *globals.Tables
	fn    *ir.Function
	sb    strings.Builder
	depth int
}

func (p *printer) newline() {
	p.sb.WriteByte('\n')
	for range p.depth {
		p.sb.WriteString("  ")
	}
}

func (p *printer) typ(idx types.TyIdx) string {
	t := p.g.TypeFromTyIdx(idx)
	switch t.Kind {
	case types.KindScalar, types.KindVoid:
		return t.Prim.String()
	case types.KindPointer:
		return fmt.Sprintf("(%s %s)", t.Prim, p.typ(t.Pointee))
	case types.KindArray:
		var sb strings.Builder
		sb.WriteString("(array ")
		sb.WriteString(p.typ(t.Elem))
		for _, d := range t.Dims {
			sb.WriteByte(' ')
			sb.WriteString(strconv.FormatUint(uint64(d), 10))
		}
		sb.WriteByte(')')
		return sb.String()
	case types.KindFunction:
		parts := []string{"func", p.typ(t.Ret)}
		for _, param := range t.Params {
			parts = append(parts, p.typ(param))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case types.KindByName:
		return fmt.Sprintf("(name %s)", p.g.StringFromStrIdx(t.Name))
	}
	ice.Fatalf("irtext: type %d has kind %s", idx, t.Kind)
	return ""
}

func (p *printer) symName(idx symtab.StIdx) string {
	return p.g.StringFromStrIdx(p.g.SymbolFromStIdx(p.fn, idx).Name)
}

func (p *printer) labelName(l ir.LabelIdx) string {
	if p.fn == nil {
		return fmt.Sprintf(".L%d", l)
	}
	return p.fn.Labels.Name(l)
}

func (p *printer) decls(head string, syms []*symtab.Symbol) {
	if len(syms) == 0 {
		return
	}
	p.newline()
	p.sb.WriteString("(" + head)
	for _, sym := range syms {
		fmt.Fprintf(&p.sb, " (%s %s)", p.g.StringFromStrIdx(sym.Name), p.typ(sym.Ty))
	}
	p.sb.WriteByte(')')
}

func (p *printer) function(fn *ir.Function) {
	p.fn = fn
	defer func() { p.fn = nil }()
	fty := p.g.TypeFromTyIdx(fn.Ty)
	if fty.Kind != types.KindFunction {
		ice.Fatalf("irtext: function %s has non-function type %s", p.g.StringFromStrIdx(fn.Name), fty.Kind)
	}
	fmt.Fprintf(&p.sb, "(func %s %s", p.g.StringFromStrIdx(fn.Name), p.typ(fty.Ret))
	p.depth++
	params := make([]*symtab.Symbol, 0, len(fn.Formals))
	for _, idx := range fn.Formals {
		params = append(params, fn.Syms.Symbol(idx))
	}
	p.decls("params", params)
	locals := slices.DeleteFunc(fn.Syms.All(), func(s *symtab.Symbol) bool {
		return slices.Contains(fn.Formals, s.Idx)
	})
	p.decls("locals", locals)
	p.newline()
	p.block(fn.Body)
	p.depth--
	p.sb.WriteByte(')')
}

func (p *printer) block(b *ir.Block) {
	if b == nil {
		p.sb.WriteString("nil")
		return
	}
	p.sb.WriteString("(block")
	p.depth++
	for _, s := range b.Stmts {
		p.newline()
		p.stmt(s)
	}
	p.depth--
	p.sb.WriteByte(')')
}

func (p *printer) stmt(s ir.Stmt) {
	if p.fn != nil {
		if n, ok := p.fn.Freq(s); ok {
			fmt.Fprintf(&p.sb, "(freq %d ", n)
			defer p.sb.WriteByte(')')
		}
	}
	switch s := s.(type) {
	case *ir.Block:
		p.block(s)
	case *ir.DassignStmt:
		fmt.Fprintf(&p.sb, "(dassign %s ", p.symName(s.Sym))
		p.expr(s.Value)
		p.sb.WriteByte(')')
	case *ir.IassignStmt:
		fmt.Fprintf(&p.sb, "(iassign %s ", p.typ(s.PtrTy))
		p.expr(s.Addr)
		p.sb.WriteByte(' ')
		p.expr(s.Value)
		p.sb.WriteByte(')')
	case *ir.EvalStmt:
		p.sb.WriteString("(eval ")
		p.expr(s.X)
		p.sb.WriteByte(')')
	case *ir.ReturnStmt:
		p.sb.WriteString("(return")
		if s.X != nil {
			p.sb.WriteByte(' ')
			p.expr(s.X)
		}
		p.sb.WriteByte(')')
	case *ir.GotoStmt:
		fmt.Fprintf(&p.sb, "(goto %s)", p.labelName(s.Target))
	case *ir.LabelStmt:
		fmt.Fprintf(&p.sb, "(label %s)", p.labelName(s.Label))
	case *ir.CondGotoStmt:
		fmt.Fprintf(&p.sb, "(%s ", s.Opcode)
		p.expr(s.Cond)
		fmt.Fprintf(&p.sb, " %s", p.labelName(s.Target))
		switch s.Prob {
		case ir.ProbUnknown:
		case ir.ProbLikely:
			p.sb.WriteString(" likely")
		case ir.ProbUnlikely:
			p.sb.WriteString(" unlikely")
		default:
			fmt.Fprintf(&p.sb, " %d", s.Prob)
		}
		p.sb.WriteByte(')')
	case *ir.IfStmt:
		p.sb.WriteString("(if ")
		p.expr(s.Cond)
		p.depth++
		p.newline()
		p.block(s.Then)
		if s.Else != nil {
			p.newline()
			p.block(s.Else)
		}
		p.depth--
		p.sb.WriteByte(')')
	case *ir.WhileStmt:
		p.sb.WriteString("(while ")
		p.expr(s.Cond)
		p.depth++
		p.newline()
		p.block(s.Body)
		p.depth--
		p.sb.WriteByte(')')
	case *ir.DoWhileStmt:
		p.sb.WriteString("(dowhile")
		p.depth++
		p.newline()
		p.block(s.Body)
		p.newline()
		p.expr(s.Cond)
		p.depth--
		p.sb.WriteByte(')')
	case *ir.SwitchStmt:
		p.sb.WriteString("(switch ")
		p.expr(s.X)
		fmt.Fprintf(&p.sb, " %s", p.labelName(s.Default))
		p.depth++
		for _, c := range s.Cases {
			p.newline()
			fmt.Fprintf(&p.sb, "(case %d %s)", c.Value, p.labelName(c.Label))
		}
		p.depth--
		p.sb.WriteByte(')')
	default:
		ice.Fatalf("irtext: unexpected statement %T", s)
	}
}

func (p *printer) expr(e ir.Expr) {
	fmt.Fprintf(&p.sb, "(%s %s", e.Op(), e.Prim())
	switch n := e.(type) {
	case *ir.ConstvalNode:
		fmt.Fprintf(&p.sb, " %s", n.Const)
	case *ir.DreadNode:
		fmt.Fprintf(&p.sb, " %s", p.symName(n.Sym))
	case *ir.AddrofNode:
		fmt.Fprintf(&p.sb, " %s", p.symName(n.Sym))
	case *ir.IreadNode:
		fmt.Fprintf(&p.sb, " %s", p.typ(n.PtrTy))
	case *ir.RetypeNode:
		fmt.Fprintf(&p.sb, " %s", p.typ(n.Ty))
	case *ir.TypeCvtNode:
		fmt.Fprintf(&p.sb, " %s", n.From)
	case *ir.ExtractbitsNode:
		fmt.Fprintf(&p.sb, " %d %d", n.Offset, n.Size)
	case *ir.CompareNode:
		fmt.Fprintf(&p.sb, " %s", n.Opnd)
	case *ir.IntrinsicopNode:
		fmt.Fprintf(&p.sb, " %s", n.Intrinsic)
	case *ir.UnaryNode, *ir.BinaryNode, *ir.TernaryNode:
	default:
		ice.Fatalf("irtext: unexpected expression %T", e)
	}
	for _, x := range ir.Operands(e) {
		p.sb.WriteByte(' ')
		p.expr(x)
	}
	p.sb.WriteByte(')')
}
