package intern

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

type testIdx uint32

func TestIndexBasic(t *testing.T) {
	x := NewIndex[string, testIdx]()

	if x.Len() != 1 {
		t.Fatalf("fresh index must hold only the reserved slot, len=%d", x.Len())
	}
	if got := x.Intern(""); got != 0 {
		t.Fatalf("zero key must map to 0, got %d", got)
	}

	a := x.Intern("a")
	if a == 0 {
		t.Fatalf("Intern must not hand out the reserved slot")
	}
	if again := x.Intern("a"); again != a {
		t.Fatalf("Intern not stable: %d != %d", again, a)
	}
	b := x.Intern("b")
	if b == a {
		t.Fatalf("distinct keys share index %d", a)
	}
	if got := x.Lookup("missing"); got != 0 {
		t.Fatalf("Lookup of unknown key = %d, want 0", got)
	}
	if got := x.MustValue(b); got != "b" {
		t.Fatalf("MustValue(%d) = %q", b, got)
	}
	if _, ok := x.Value(99); ok {
		t.Fatalf("Value past the end must fail")
	}
}

func TestIndexMustValuePanics(t *testing.T) {
	x := NewIndex[string, testIdx]()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected ICE")
		}
	}()
	x.MustValue(5)
}

func TestIndexResetReusesIndices(t *testing.T) {
	x := NewIndex[string, testIdx]()
	first := x.Intern("first")
	x.Intern("second")
	x.Reset()
	if x.Len() != 1 {
		t.Fatalf("Reset left %d entries", x.Len())
	}
	if x.Lookup("first") != 0 {
		t.Fatalf("Reset kept old mapping")
	}
	if got := x.Intern("second"); got != first {
		t.Fatalf("after Reset the first new key gets %d, want %d", got, first)
	}
}

func TestIndexSnapshotIsCopy(t *testing.T) {
	x := NewIndex[string, testIdx]()
	x.Intern("a")
	snap := x.Snapshot()
	snap[1] = "changed"
	if x.MustValue(1) != "a" {
		t.Fatalf("Snapshot aliases the table")
	}
}

func TestIndexConcurrentIntern(t *testing.T) {
	x := NewIndex[string, testIdx]()
	const goroutines = 64
	const keys = 500

	results := make([][]testIdx, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := range goroutines {
		go func() {
			defer wg.Done()
			out := make([]testIdx, keys)
			for i := range keys {
				out[i] = x.Intern(fmt.Sprintf("k%d", i))
			}
			results[g] = out
		}()
	}
	wg.Wait()

	if x.Len() != keys+1 {
		t.Fatalf("expected %d entries, got %d", keys+1, x.Len())
	}
	for g := 1; g < goroutines; g++ {
		for i := range keys {
			if results[g][i] != results[0][i] {
				t.Fatalf("goroutine %d saw index %d for k%d, goroutine 0 saw %d", g, results[g][i], i, results[0][i])
			}
		}
	}
}

func TestCacheCreatesOnce(t *testing.T) {
	c := NewCache[int, string]()
	var calls atomic.Int32
	const goroutines = 32

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			c.GetOrInsert(7, func() string {
				calls.Add(1)
				return "seven"
			})
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("create ran %d times", calls.Load())
	}
	if v, ok := c.Lookup(7); !ok || v != "seven" {
		t.Fatalf("Lookup = %q, %v", v, ok)
	}
	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("Reset left %d entries", c.Len())
	}
}
