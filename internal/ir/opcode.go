package ir

import "fmt"

// Op is an IR opcode.
type Op uint8

const (
	OpInvalid Op = iota

	// leaves and memory
	OpConstval
	OpDread
	OpAddrof
	OpIread

	// unary
	OpAbs
	OpBnot
	OpLnot
	OpNeg
	OpSqrt
	OpRecip

	// conversions
	OpCeil
	OpFloor
	OpRound
	OpTrunc
	OpCvt
	OpRetype

	// bit extraction
	OpSext
	OpZext
	OpExtractbits

	// binary
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpBand
	OpBior
	OpBxor
	OpShl
	OpAshr
	OpLshr
	OpLand
	OpLior
	OpCand
	OpCior
	OpMin
	OpMax

	// comparisons
	OpEq
	OpNe
	OpGe
	OpGt
	OpLe
	OpLt
	OpCmp
	OpCmpl
	OpCmpg

	// other expressions
	OpSelect
	OpIntrinsicop

	// statements
	OpDassign
	OpIassign
	OpEval
	OpReturn
	OpGoto
	OpBrtrue
	OpBrfalse
	OpLabel
	OpIf
	OpSwitch
	OpWhile
	OpDowhile
	OpBlock

	opEnd
)

var opNames = [...]string{
	OpInvalid:     "invalid",
	OpConstval:    "constval",
	OpDread:       "dread",
	OpAddrof:      "addrof",
	OpIread:       "iread",
	OpAbs:         "abs",
	OpBnot:        "bnot",
	OpLnot:        "lnot",
	OpNeg:         "neg",
	OpSqrt:        "sqrt",
	OpRecip:       "recip",
	OpCeil:        "ceil",
	OpFloor:       "floor",
	OpRound:       "round",
	OpTrunc:       "trunc",
	OpCvt:         "cvt",
	OpRetype:      "retype",
	OpSext:        "sext",
	OpZext:        "zext",
	OpExtractbits: "extractbits",
	OpAdd:         "add",
	OpSub:         "sub",
	OpMul:         "mul",
	OpDiv:         "div",
	OpRem:         "rem",
	OpBand:        "band",
	OpBior:        "bior",
	OpBxor:        "bxor",
	OpShl:         "shl",
	OpAshr:        "ashr",
	OpLshr:        "lshr",
	OpLand:        "land",
	OpLior:        "lior",
	OpCand:        "cand",
	OpCior:        "cior",
	OpMin:         "min",
	OpMax:         "max",
	OpEq:          "eq",
	OpNe:          "ne",
	OpGe:          "ge",
	OpGt:          "gt",
	OpLe:          "le",
	OpLt:          "lt",
	OpCmp:         "cmp",
	OpCmpl:        "cmpl",
	OpCmpg:        "cmpg",
	OpSelect:      "select",
	OpIntrinsicop: "intrinsicop",
	OpDassign:     "dassign",
	OpIassign:     "iassign",
	OpEval:        "eval",
	OpReturn:      "return",
	OpGoto:        "goto",
	OpBrtrue:      "brtrue",
	OpBrfalse:     "brfalse",
	OpLabel:       "label",
	OpIf:          "if",
	OpSwitch:      "switch",
	OpWhile:       "while",
	OpDowhile:     "dowhile",
	OpBlock:       "block",
}

func (op Op) String() string {
	if op < opEnd {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// ParseOp maps a mnemonic back to its opcode.
func ParseOp(name string) (Op, bool) {
	for op := OpConstval; op < opEnd; op++ {
		if opNames[op] == name {
			return op, true
		}
	}
	return OpInvalid, false
}

func (op Op) IsUnary() bool   { return op >= OpAbs && op <= OpRecip }
func (op Op) IsCvt() bool     { return op >= OpCeil && op <= OpCvt }
func (op Op) IsExtract() bool { return op >= OpSext && op <= OpExtractbits }
func (op Op) IsBinary() bool  { return op >= OpAdd && op <= OpMax }
func (op Op) IsCompare() bool { return op >= OpEq && op <= OpCmpg }
func (op Op) IsCondGoto() bool {
	return op == OpBrtrue || op == OpBrfalse
}

// IsCommutative reports whether swapping the operands of a binary opcode
// preserves its value.
func (op Op) IsCommutative() bool {
	switch op {
	case OpAdd, OpMul, OpBand, OpBior, OpBxor, OpLand, OpLior, OpMin, OpMax, OpEq, OpNe:
		return true
	default:
		return false
	}
}

// Reversed returns the comparison that holds with its operands swapped:
// gt and lt trade places, as do ge and le; eq and ne are symmetric.
func (op Op) Reversed() (Op, bool) {
	switch op {
	case OpGt:
		return OpLt, true
	case OpLt:
		return OpGt, true
	case OpGe:
		return OpLe, true
	case OpLe:
		return OpGe, true
	case OpEq, OpNe:
		return op, true
	default:
		return OpInvalid, false
	}
}

// Negated returns the comparison that holds exactly when op does not, for
// integer operands.
func (op Op) Negated() (Op, bool) {
	switch op {
	case OpEq:
		return OpNe, true
	case OpNe:
		return OpEq, true
	case OpLt:
		return OpGe, true
	case OpGe:
		return OpLt, true
	case OpGt:
		return OpLe, true
	case OpLe:
		return OpGt, true
	default:
		return OpInvalid, false
	}
}
