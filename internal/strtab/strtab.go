// Package strtab implements the global string tables: plain names, user
// literals, mangled names and UTF-16 literals. Every table reserves index 0
// for the empty string.
package strtab

import (
	"maple/internal/ice"
	"maple/internal/intern"
)

// GStrIdx indexes the global name table.
type GStrIdx uint32

// UStrIdx indexes the user string-literal table.
type UStrIdx uint32

// U16StrIdx indexes the UTF-16 literal table.
type U16StrIdx uint32

const (
	NoGStrIdx   GStrIdx   = 0
	NoUStrIdx   UStrIdx   = 0
	NoU16StrIdx U16StrIdx = 0
)

// Table maps strings to dense indices of type I.
type Table[I ~uint32] struct {
	idx *intern.Index[string, I]
}

func NewTable[I ~uint32]() *Table[I] {
	return &Table[I]{idx: intern.NewIndex[string, I]()}
}

// GStrTable holds identifiers: symbol, function and type names.
type GStrTable = Table[GStrIdx]

// UStrTable holds user string literals.
type UStrTable = Table[UStrIdx]

// GetOrCreateStrIdxFromName interns s.
func (t *Table[I]) GetOrCreateStrIdxFromName(s string) I {
	return t.idx.Intern(s)
}

// GetStrIdxFromName returns the index of s, or 0 if it was never interned.
func (t *Table[I]) GetStrIdxFromName(s string) I {
	return t.idx.Lookup(s)
}

// StringFromStrIdx returns the string at i. An index past the table is fatal.
func (t *Table[I]) StringFromStrIdx(i I) string {
	s, ok := t.idx.Value(i)
	if !ok {
		ice.Fatalf("strtab: string index %d out of range (len %d)", i, t.idx.Len())
	}
	return s
}

func (t *Table[I]) Len() int { return t.idx.Len() }

// Snapshot copies the table contents in index order.
func (t *Table[I]) Snapshot() []string { return t.idx.Snapshot() }

// Reset empties the table down to the reserved slot.
func (t *Table[I]) Reset() { t.idx.Reset() }
