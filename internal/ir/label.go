package ir

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"maple/internal/ice"
)

// LabelIdx names a label within one function. 0 is invalid.
type LabelIdx uint32

const NoLabelIdx LabelIdx = 0

// LabelTable allocates labels for one function. Named labels come from the
// input; labels created by passes are anonymous and print by index.
type LabelTable struct {
	mu     sync.Mutex
	names  []string
	byName map[string]LabelIdx
}

func NewLabelTable() *LabelTable {
	return &LabelTable{names: []string{""}, byName: make(map[string]LabelIdx)}
}

// CreateLabel allocates a fresh anonymous label. Slots whose ".L<idx>"
// spelling is already taken by a named label are skipped.
func (t *LabelTable) CreateLabel() LabelIdx {
	t.mu.Lock()
	defer t.mu.Unlock()
	for {
		idx := t.add("")
		if _, taken := t.byName[anonName(idx)]; !taken {
			return idx
		}
	}
}

func anonName(idx LabelIdx) string { return fmt.Sprintf(".L%d", idx) }

// GetOrCreateLabel returns the label called name, allocating it on first use.
func (t *LabelTable) GetOrCreateLabel(name string) LabelIdx {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx, ok := t.byName[name]; ok {
		return idx
	}
	idx := t.add(name)
	t.byName[name] = idx
	return idx
}

func (t *LabelTable) add(name string) LabelIdx {
	n, err := safecast.Conv[uint32](len(t.names))
	if err != nil {
		panic(fmt.Errorf("len(labels) overflow: %w", err))
	}
	t.names = append(t.names, name)
	return LabelIdx(n)
}

// Name returns the label's spelling; anonymous labels read ".L<idx>".
func (t *LabelTable) Name(idx LabelIdx) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx == NoLabelIdx || int(idx) >= len(t.names) {
		ice.Fatalf("ir: label %d out of range (len %d)", idx, len(t.names))
	}
	if name := t.names[idx]; name != "" {
		return name
	}
	return anonName(idx)
}

// Len counts the reserved slot too.
func (t *LabelTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.names)
}
