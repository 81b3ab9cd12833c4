// Package consts interns IR constants. A (value, type) pair always yields
// the same *IntConst, *FloatConst or *DoubleConst, so constants can be
// compared by pointer.
package consts

import (
	"fmt"
	"math"
	"strconv"

	"maple/internal/intval"
	"maple/internal/strtab"
	"maple/internal/types"
)

// Kind tags the constant variants.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindFloat
	KindDouble
	KindStr
	KindStr16
)

// Const is implemented by every interned constant.
type Const interface {
	Kind() Kind
	Type() types.TyIdx
	String() string
	isConst()
}

// IntConst is an integer or address constant. Value is shaped by Type.
type IntConst struct {
	Value intval.IntVal
	Ty    types.TyIdx
}

func (c *IntConst) Kind() Kind        { return KindInt }
func (c *IntConst) Type() types.TyIdx { return c.Ty }
func (c *IntConst) String() string    { return c.Value.String() }
func (*IntConst) isConst()            {}

// FloatConst is a 32-bit float constant.
type FloatConst struct {
	Value float32
	Ty    types.TyIdx
}

func (c *FloatConst) Kind() Kind        { return KindFloat }
func (c *FloatConst) Type() types.TyIdx { return c.Ty }
func (c *FloatConst) String() string    { return formatFloat(float64(c.Value), 32) }
func (*FloatConst) isConst()            {}

// IsZero is true for both +0 and -0.
func (c *FloatConst) IsZero() bool { return c.Value == 0 }

// DoubleConst is a 64-bit float constant.
type DoubleConst struct {
	Value float64
	Ty    types.TyIdx
}

func (c *DoubleConst) Kind() Kind        { return KindDouble }
func (c *DoubleConst) Type() types.TyIdx { return c.Ty }
func (c *DoubleConst) String() string    { return formatFloat(c.Value, 64) }
func (*DoubleConst) isConst()            {}

func (c *DoubleConst) IsZero() bool { return c.Value == 0 }

// StrConst is a pooled user string literal.
type StrConst struct {
	Str strtab.UStrIdx
	Ty  types.TyIdx
}

func (c *StrConst) Kind() Kind        { return KindStr }
func (c *StrConst) Type() types.TyIdx { return c.Ty }
func (c *StrConst) String() string    { return fmt.Sprintf("ustr#%d", c.Str) }
func (*StrConst) isConst()            {}

// Str16Const is a pooled UTF-16 literal.
type Str16Const struct {
	Str strtab.U16StrIdx
	Ty  types.TyIdx
}

func (c *Str16Const) Kind() Kind        { return KindStr16 }
func (c *Str16Const) Type() types.TyIdx { return c.Ty }
func (c *Str16Const) String() string    { return fmt.Sprintf("u16str#%d", c.Str) }
func (*Str16Const) isConst()            {}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}
