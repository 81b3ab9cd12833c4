package observ

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimerAddAccumulates(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("parse")
	tm.End(idx, "2 files")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Add("fold", time.Millisecond)
		}()
	}
	wg.Wait()

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(r.Phases))
	}
	fold := r.Phases[1]
	if fold.Name != "fold" || fold.Count != 8 || fold.DurationMS != 8 {
		t.Fatalf("fold phase = %+v, want 8 calls totalling 8ms", fold)
	}
	if r.TotalMS < 8 {
		t.Fatalf("total = %.2f, want at least 8", r.TotalMS)
	}

	s := tm.Summary()
	for _, want := range []string{"parse", "// 2 files", "fold", "x8", "total"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary lacks %q:\n%s", want, s)
		}
	}
}

func TestTimerEmpty(t *testing.T) {
	tm := NewTimer()
	tm.End(3, "ignored")
	if r := tm.Report(); len(r.Phases) != 0 || r.TotalMS != 0 {
		t.Fatalf("empty report = %+v", r)
	}
}
