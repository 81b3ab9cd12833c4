package strtab

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"

	"maple/internal/ice"
	"maple/internal/intern"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// U16Table interns UTF-16 literals. Keys are the little-endian code-unit
// bytes, so two literals are equal exactly when their code units are.
type U16Table struct {
	idx *intern.Index[string, U16StrIdx]
}

func NewU16Table() *U16Table {
	return &U16Table{idx: intern.NewIndex[string, U16StrIdx]()}
}

// GetOrCreateU16StrIdx encodes the UTF-8 string s as UTF-16 and interns it.
func (t *U16Table) GetOrCreateU16StrIdx(s string) (U16StrIdx, error) {
	enc, err := utf16le.NewEncoder().String(s)
	if err != nil {
		return NoU16StrIdx, fmt.Errorf("utf-16 encode %q: %w", s, err)
	}
	return t.idx.Intern(enc), nil
}

// GetOrCreateU16StrIdxFromUnits interns raw code units, which need not form
// valid UTF-16.
func (t *U16Table) GetOrCreateU16StrIdxFromUnits(units []uint16) U16StrIdx {
	buf := make([]byte, 0, 2*len(units))
	for _, u := range units {
		buf = binary.LittleEndian.AppendUint16(buf, u)
	}
	return t.idx.Intern(string(buf))
}

// Units returns the code units stored at i.
func (t *U16Table) Units(i U16StrIdx) []uint16 {
	raw := []byte(t.raw(i))
	units := make([]uint16, len(raw)/2)
	for j := range units {
		units[j] = binary.LittleEndian.Uint16(raw[2*j:])
	}
	return units
}

// StringFromU16StrIdx decodes the literal at i back to UTF-8. Unpaired
// surrogates decode to U+FFFD.
func (t *U16Table) StringFromU16StrIdx(i U16StrIdx) string {
	s, err := utf16le.NewDecoder().String(t.raw(i))
	if err != nil {
		ice.Fatalf("strtab: undecodable utf-16 literal %d: %v", i, err)
	}
	return s
}

func (t *U16Table) raw(i U16StrIdx) string {
	s, ok := t.idx.Value(i)
	if !ok {
		ice.Fatalf("strtab: u16 string index %d out of range (len %d)", i, t.idx.Len())
	}
	return s
}

func (t *U16Table) Len() int { return t.idx.Len() }
func (t *U16Table) Reset()   { t.idx.Reset() }
