package irtext

import (
	"fmt"
	"strconv"

	"maple/internal/globals"
	"maple/internal/ir"
	"maple/internal/prim"
	"maple/internal/symtab"
	"maple/internal/types"
)

// Parse reads a module from src. Types, strings, constants and symbols are
// interned in g; file names the source in error messages.
func Parse(g *globals.Tables, file string, src []byte) (*ir.Module, error) {
	forms, err := readAll(file, src)
	if err != nil {
		return nil, err
	}
	p := &parser{g: g, b: g.Builder(), file: file}
	m := &ir.Module{}
	for _, form := range forms {
		switch form.head() {
		case "global":
			idx, err := p.global(form)
			if err != nil {
				return nil, err
			}
			m.Globals = append(m.Globals, idx)
		case "func":
			fn, err := p.function(form)
			if err != nil {
				return nil, err
			}
			m.AddFunction(fn)
		default:
			return nil, p.errorf(form, "expected (global ...) or (func ...), found %s", form)
		}
	}
	return m, nil
}

// ParseExpr reads a single expression. Names resolve against the locals of
// fn first, then the globals; fn may be nil.
func ParseExpr(g *globals.Tables, fn *ir.Function, src string) (ir.Expr, error) {
	form, err := readOne(src)
	if err != nil {
		return nil, err
	}
	p := &parser{g: g, b: g.Builder(), fn: fn}
	return p.expr(form)
}

// ParseBlock reads a (block ...) form in the scope of fn.
func ParseBlock(g *globals.Tables, fn *ir.Function, src string) (*ir.Block, error) {
	form, err := readOne(src)
	if err != nil {
		return nil, err
	}
	p := &parser{g: g, b: g.Builder(), fn: fn}
	return p.block(form)
}

func readOne(src string) (*sexpr, error) {
	forms, err := readAll("", []byte(src))
	if err != nil {
		return nil, err
	}
	if len(forms) != 1 {
		return nil, &SyntaxError{Pos: Pos{Line: 1, Col: 1}, Msg: fmt.Sprintf("expected one form, found %d", len(forms))}
	}
	return forms[0], nil
}

type parser struct {
	g    *globals.Tables
	b    *ir.Builder
	file string
	fn   *ir.Function
}

func (p *parser) errorf(at *sexpr, format string, args ...any) error {
	return &SyntaxError{File: p.file, Pos: at.pos, Msg: fmt.Sprintf(format, args...)}
}

// arity checks that s is a list of between min and max elements, head
// included. max < 0 means unbounded.
func (p *parser) arity(s *sexpr, minLen, maxLen int) error {
	if !s.isList {
		return p.errorf(s, "expected a list, found %q", s.atom)
	}
	n := len(s.list)
	if n < minLen || (maxLen >= 0 && n > maxLen) {
		return p.errorf(s, "malformed (%s ...): %d elements", s.head(), n)
	}
	return nil
}

func (p *parser) atom(s *sexpr) (string, error) {
	if s.isList {
		return "", p.errorf(s, "expected an atom, found %s", s)
	}
	return s.atom, nil
}

func (p *parser) prim(s *sexpr) (prim.PrimType, error) {
	name, err := p.atom(s)
	if err != nil {
		return prim.PTYInvalid, err
	}
	pt, ok := prim.Parse(name)
	if !ok {
		return prim.PTYInvalid, p.errorf(s, "unknown primitive type %q", name)
	}
	return pt, nil
}

func (p *parser) integer(s *sexpr) (int64, error) {
	text, err := p.atom(s)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return 0, p.errorf(s, "bad integer %q", text)
	}
	return v, nil
}

func (p *parser) bitCount(s *sexpr) (uint8, error) {
	text, err := p.atom(s)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(text, 0, 8)
	if err != nil {
		return 0, p.errorf(s, "bad bit count %q", text)
	}
	return uint8(v), nil
}

// typ reads a type: a primitive name, or (ptr T), (ref T), (array T dims...),
// (func R params...) or (name N).
func (p *parser) typ(s *sexpr) (types.TyIdx, error) {
	tys := p.g.Types
	if !s.isList {
		pt, err := p.prim(s)
		if err != nil {
			return types.NoTyIdx, err
		}
		return tys.PrimTyIdx(pt), nil
	}
	switch s.head() {
	case "ptr", "ref":
		if err := p.arity(s, 2, 2); err != nil {
			return types.NoTyIdx, err
		}
		pointee, err := p.typ(s.list[1])
		if err != nil {
			return types.NoTyIdx, err
		}
		pt := prim.PTYPtr
		if s.head() == "ref" {
			pt = prim.PTYRef
		}
		return tys.GetOrCreatePointer(pointee, pt), nil
	case "array":
		if err := p.arity(s, 3, 2+types.MaxArrayDims); err != nil {
			return types.NoTyIdx, err
		}
		elem, err := p.typ(s.list[1])
		if err != nil {
			return types.NoTyIdx, err
		}
		dims := make([]uint32, 0, len(s.list)-2)
		for _, d := range s.list[2:] {
			v, err := p.integer(d)
			if err != nil {
				return types.NoTyIdx, err
			}
			if v < 0 || v > int64(^uint32(0)) {
				return types.NoTyIdx, p.errorf(d, "array dimension %d out of range", v)
			}
			dims = append(dims, uint32(v))
		}
		return tys.GetOrCreateArray(elem, dims...), nil
	case "func":
		if err := p.arity(s, 2, -1); err != nil {
			return types.NoTyIdx, err
		}
		ret, err := p.typ(s.list[1])
		if err != nil {
			return types.NoTyIdx, err
		}
		params := make([]types.TyIdx, 0, len(s.list)-2)
		for _, x := range s.list[2:] {
			t, err := p.typ(x)
			if err != nil {
				return types.NoTyIdx, err
			}
			params = append(params, t)
		}
		return tys.GetOrCreateFunction(ret, params, false), nil
	case "name":
		if err := p.arity(s, 2, 2); err != nil {
			return types.NoTyIdx, err
		}
		name, err := p.atom(s.list[1])
		if err != nil {
			return types.NoTyIdx, err
		}
		return tys.GetOrCreateByName(p.g.Strs.GetOrCreateStrIdxFromName(name)), nil
	}
	return types.NoTyIdx, p.errorf(s, "unknown type form %s", s)
}

// global reads (global NAME TYPE).
func (p *parser) global(s *sexpr) (symtab.StIdx, error) {
	if err := p.arity(s, 3, 3); err != nil {
		return symtab.NoStIdx, err
	}
	name, err := p.atom(s.list[1])
	if err != nil {
		return symtab.NoStIdx, err
	}
	ty, err := p.typ(s.list[2])
	if err != nil {
		return symtab.NoStIdx, err
	}
	sym := p.g.Syms.GetOrCreateSymbol(p.g.Strs.GetOrCreateStrIdxFromName(name), ty, symtab.StorageGlobal)
	if sym.Ty != ty {
		return symtab.NoStIdx, p.errorf(s, "global %s redeclared with a different type", name)
	}
	return sym.Idx, nil
}

type decl struct {
	name string
	ty   types.TyIdx
}

// decls reads ((NAME TYPE)...) following a params or locals head.
func (p *parser) decls(s *sexpr) ([]decl, error) {
	out := make([]decl, 0, len(s.list)-1)
	for _, d := range s.list[1:] {
		if err := p.arity(d, 2, 2); err != nil {
			return nil, err
		}
		name, err := p.atom(d.list[0])
		if err != nil {
			return nil, err
		}
		ty, err := p.typ(d.list[1])
		if err != nil {
			return nil, err
		}
		out = append(out, decl{name: name, ty: ty})
	}
	return out, nil
}

// function reads (func NAME RET [(params ...)] [(locals ...)] (block ...)).
func (p *parser) function(s *sexpr) (*ir.Function, error) {
	if err := p.arity(s, 4, 6); err != nil {
		return nil, err
	}
	name, err := p.atom(s.list[1])
	if err != nil {
		return nil, err
	}
	ret, err := p.typ(s.list[2])
	if err != nil {
		return nil, err
	}
	var params, locals []decl
	rest := s.list[3:]
	for len(rest) > 1 {
		switch rest[0].head() {
		case "params":
			params, err = p.decls(rest[0])
		case "locals":
			locals, err = p.decls(rest[0])
		default:
			err = p.errorf(rest[0], "expected (params ...) or (locals ...), found %s", rest[0])
		}
		if err != nil {
			return nil, err
		}
		rest = rest[1:]
	}

	paramTys := make([]types.TyIdx, len(params))
	for i, d := range params {
		paramTys[i] = d.ty
	}
	fty := p.g.Types.GetOrCreateFunction(ret, paramTys, false)
	fn := p.g.Funcs.GetOrCreateFunction(p.g.Strs.GetOrCreateStrIdxFromName(name), fty)
	if !fn.Body.IsEmpty() || len(fn.Formals) > 0 {
		return nil, p.errorf(s, "function %s redefined", name)
	}
	for _, d := range params {
		sym := fn.Syms.GetOrCreateSymbol(p.g.Strs.GetOrCreateStrIdxFromName(d.name), d.ty, symtab.StorageFormal)
		fn.Formals = append(fn.Formals, sym.Idx)
	}
	for _, d := range locals {
		fn.Syms.GetOrCreateSymbol(p.g.Strs.GetOrCreateStrIdxFromName(d.name), d.ty, symtab.StorageAuto)
	}

	p.fn = fn
	defer func() { p.fn = nil }()
	body, err := p.block(rest[0])
	if err != nil {
		return nil, err
	}
	fn.Body = body
	return fn, nil
}

// symbol resolves a variable name, locals first.
func (p *parser) symbol(s *sexpr) (symtab.StIdx, error) {
	name, err := p.atom(s)
	if err != nil {
		return symtab.NoStIdx, err
	}
	str := p.g.Strs.GetStrIdxFromName(name)
	if p.fn != nil {
		if idx := p.fn.Syms.StIdxFromStrIdx(str); idx.IsValid() {
			return idx, nil
		}
	}
	if idx := p.g.Syms.StIdxFromStrIdx(str); idx.IsValid() {
		return idx, nil
	}
	return symtab.NoStIdx, p.errorf(s, "undefined variable %q", name)
}

func (p *parser) label(s *sexpr) (ir.LabelIdx, error) {
	name, err := p.atom(s)
	if err != nil {
		return ir.NoLabelIdx, err
	}
	if p.fn == nil {
		return ir.NoLabelIdx, p.errorf(s, "label %s outside a function", name)
	}
	return p.fn.Labels.GetOrCreateLabel(name), nil
}
