package strtab

import (
	"fmt"
	"strings"
)

const hexDigits = "0123456789abcdef"

// Mangle encodes name into the identifier alphabet [A-Za-z0-9_]. ASCII
// letters and digits pass through, '_' doubles, and every other byte becomes
// '_' followed by two lowercase hex digits.
func Mangle(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case isIdentByte(c):
			b.WriteByte(c)
		case c == '_':
			b.WriteString("__")
		default:
			b.WriteByte('_')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0xf])
		}
	}
	return b.String()
}

// Demangle reverses Mangle.
func Demangle(mangled string) (string, error) {
	var b strings.Builder
	b.Grow(len(mangled))
	for i := 0; i < len(mangled); i++ {
		c := mangled[i]
		if c != '_' {
			if !isIdentByte(c) {
				return "", fmt.Errorf("demangle %q: unexpected byte %q at %d", mangled, c, i)
			}
			b.WriteByte(c)
			continue
		}
		if i+1 < len(mangled) && mangled[i+1] == '_' {
			b.WriteByte('_')
			i++
			continue
		}
		if i+2 >= len(mangled) {
			return "", fmt.Errorf("demangle %q: truncated escape at %d", mangled, i)
		}
		hi, ok1 := unhex(mangled[i+1])
		lo, ok2 := unhex(mangled[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("demangle %q: bad escape at %d", mangled, i)
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}
	return b.String(), nil
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}

// MangledTable interns names in mangled form. Indices share the GStrIdx space
// type but not the table.
type MangledTable struct {
	tab *GStrTable
}

func NewMangledTable() *MangledTable {
	return &MangledTable{tab: NewTable[GStrIdx]()}
}

// GetOrCreateMangledIdx mangles name and interns the result.
func (m *MangledTable) GetOrCreateMangledIdx(name string) GStrIdx {
	return m.tab.GetOrCreateStrIdxFromName(Mangle(name))
}

// GetMangledIdx returns the index of name's mangled form, or 0.
func (m *MangledTable) GetMangledIdx(name string) GStrIdx {
	return m.tab.GetStrIdxFromName(Mangle(name))
}

// MangledFromIdx returns the stored mangled spelling.
func (m *MangledTable) MangledFromIdx(i GStrIdx) string {
	return m.tab.StringFromStrIdx(i)
}

// NameFromIdx returns the original name.
func (m *MangledTable) NameFromIdx(i GStrIdx) string {
	s, err := Demangle(m.tab.StringFromStrIdx(i))
	if err != nil {
		// only Mangle output is ever stored
		panic(err)
	}
	return s
}

func (m *MangledTable) Len() int { return m.tab.Len() }
func (m *MangledTable) Reset()   { m.tab.Reset() }
