package pipeline

import (
	"time"

	"maple/internal/config"
	"maple/internal/constfold"
	"maple/internal/lower"
)

// Stage describes a pass applied to each function.
type Stage string

const (
	// StageFold runs the constant folder over the function body.
	StageFold Stage = "fold"
	// StageLower flattens structured control flow.
	StageLower Stage = "lower"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the function is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusWorking indicates a worker is running the stage.
	StatusWorking Status = "working"
	// StatusDone indicates the stage finished.
	StatusDone Status = "done"
	// StatusError indicates the stage failed.
	StatusError Status = "error"
)

// Event reports progress for a function, or for the whole run when Func is
// empty.
type Event struct {
	Func    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Run calls OnEvent from worker
// goroutines, so implementations must be safe for concurrent use.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// Options selects the stages and the degree of parallelism.
type Options struct {
	Fold  bool
	Lower bool
	// Jobs bounds concurrent workers; 0 means GOMAXPROCS.
	Jobs     int
	LowerOpt lower.Options
	Progress ProgressSink
}

// OptionsFromConfig maps the [pipeline] section onto Options.
func OptionsFromConfig(p config.Pipeline) Options {
	return Options{
		Fold:     p.Fold,
		Lower:    p.Lower,
		Jobs:     p.Jobs,
		LowerOpt: lower.Options{BuiltinExpect: p.BuiltinExpect},
	}
}

// FuncResult records what the stages did to one function.
type FuncResult struct {
	Name  string
	Fold  constfold.Stats
	Lower lower.Stats
	// Stmts counts statements after the last stage, nested blocks included.
	Stmts   int
	Elapsed time.Duration
}

// Result lists per-function results in module order.
type Result struct {
	Funcs []FuncResult
}

// Totals sums the per-function counters.
func (r *Result) Totals() (constfold.Stats, lower.Stats) {
	var f constfold.Stats
	var l lower.Stats
	for _, fr := range r.Funcs {
		f.Exprs += fr.Fold.Exprs
		f.Stmts += fr.Fold.Stmts
		l.Ifs += fr.Lower.Ifs
		l.Loops += fr.Lower.Loops
		l.Switches += fr.Lower.Switches
		l.CondGotos += fr.Lower.CondGotos
		l.Expects += fr.Lower.Expects
	}
	return f, l
}
