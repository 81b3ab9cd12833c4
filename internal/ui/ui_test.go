package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"maple/internal/pipeline"
)

func TestProgressModelTracksStages(t *testing.T) {
	stages := []pipeline.Stage{pipeline.StageFold, pipeline.StageLower}
	m := NewProgressModel("maple fold", []string{"main", "helper"}, stages, nil).(*progressModel)

	apply := func(ev pipeline.Event) {
		m.Update(eventMsg(ev))
	}
	apply(pipeline.Event{Func: "main", Stage: pipeline.StageFold, Status: pipeline.StatusWorking})
	if got := m.items[0].status; got != "folding" {
		t.Fatalf("status = %q, want folding", got)
	}
	apply(pipeline.Event{Func: "main", Stage: pipeline.StageFold, Status: pipeline.StatusDone})
	if got := m.items[0].status; got != "folding" {
		t.Fatalf("status after the first stage = %q, want folding", got)
	}
	if p := m.percent(); p != 0.25 {
		t.Fatalf("percent = %v, want 0.25", p)
	}
	apply(pipeline.Event{Func: "main", Stage: pipeline.StageLower, Status: pipeline.StatusDone})
	apply(pipeline.Event{Func: "helper", Stage: pipeline.StageFold, Status: pipeline.StatusError})
	apply(pipeline.Event{Func: "helper", Stage: pipeline.StageLower, Status: pipeline.StatusDone})
	apply(pipeline.Event{Func: "unknown", Stage: pipeline.StageFold, Status: pipeline.StatusDone})

	if m.items[0].status != "done" || m.items[1].status != "error" {
		t.Fatalf("items = %+v", m.items)
	}
	if p := m.percent(); p != 1 {
		t.Fatalf("percent = %v, want 1", p)
	}

	_, cmd := m.Update(doneMsg{})
	if cmd == nil {
		t.Fatal("done should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("done should return tea.Quit")
	}
	view := m.View()
	for _, want := range []string{"done: maple fold (2 functions), 1 failed", "main", "helper"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestTableAlignsByDisplayWidth(t *testing.T) {
	out := Table("tables", []Row{{"types", "12"}, {"関数", "3"}}, false)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 3 || lines[0] != "tables" {
		t.Fatalf("table = %q", out)
	}
	if lines[1] != "  types  12" || lines[2] != "  関数   3" {
		t.Fatalf("rows = %q / %q", lines[1], lines[2])
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("constant_fold_helper", 10); got != "constan..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}
