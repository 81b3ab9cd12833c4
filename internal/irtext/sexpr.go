package irtext

import (
	"fmt"
	"strings"
)

// Pos is a 1-based line and column.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// SyntaxError reports malformed text IR.
type SyntaxError struct {
	File string
	Pos  Pos
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s:%s: %s", e.File, e.Pos, e.Msg)
}

// sexpr is an atom or a parenthesized list.
type sexpr struct {
	pos  Pos
	atom string
	list []*sexpr
	// isList distinguishes "()" from the empty atom.
	isList bool
}

func (s *sexpr) String() string {
	if !s.isList {
		return s.atom
	}
	parts := make([]string, len(s.list))
	for i, x := range s.list {
		parts[i] = x.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// head returns the leading atom of a list, or "".
func (s *sexpr) head() string {
	if !s.isList || len(s.list) == 0 || s.list[0].isList {
		return ""
	}
	return s.list[0].atom
}

// cursor walks the source byte by byte, tracking line and column.
type cursor struct {
	src  []byte
	off  int
	line int
	col  int
}

func (c *cursor) eof() bool { return c.off >= len(c.src) }

func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.src[c.off]
}

func (c *cursor) bump() byte {
	b := c.src[c.off]
	c.off++
	if b == '\n' {
		c.line++
		c.col = 1
	} else {
		c.col++
	}
	return b
}

func (c *cursor) pos() Pos { return Pos{Line: c.line, Col: c.col} }

// skipTrivia skips whitespace and ';' comments.
func (c *cursor) skipTrivia() {
	for !c.eof() {
		switch b := c.peek(); {
		case b == ';':
			for !c.eof() && c.peek() != '\n' {
				c.bump()
			}
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			c.bump()
		default:
			return
		}
	}
}

// readAll parses every top-level form in src.
func readAll(file string, src []byte) ([]*sexpr, error) {
	c := &cursor{src: src, line: 1, col: 1}
	var forms []*sexpr
	for {
		c.skipTrivia()
		if c.eof() {
			return forms, nil
		}
		form, err := read(c, file)
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
}

func read(c *cursor, file string) (*sexpr, error) {
	c.skipTrivia()
	start := c.pos()
	if c.eof() {
		return nil, &SyntaxError{File: file, Pos: start, Msg: "unexpected end of input"}
	}
	switch c.peek() {
	case ')':
		return nil, &SyntaxError{File: file, Pos: start, Msg: "unexpected ')'"}
	case '(':
		c.bump()
		node := &sexpr{pos: start, isList: true}
		for {
			c.skipTrivia()
			if c.eof() {
				return nil, &SyntaxError{File: file, Pos: start, Msg: "unclosed '('"}
			}
			if c.peek() == ')' {
				c.bump()
				return node, nil
			}
			child, err := read(c, file)
			if err != nil {
				return nil, err
			}
			node.list = append(node.list, child)
		}
	}
	begin := c.off
	for !c.eof() {
		b := c.peek()
		if b == '(' || b == ')' || b == ';' || b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			break
		}
		c.bump()
	}
	return &sexpr{pos: start, atom: string(c.src[begin:c.off])}, nil
}
