// Package pipeline runs the folder and the lowerer over every function of a
// module. Functions are independent units of work: workers share the global
// tables, whose interning operations are safe for concurrent use, and each
// worker owns the function it is processing.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"maple/internal/constfold"
	"maple/internal/globals"
	"maple/internal/ice"
	"maple/internal/ir"
	"maple/internal/lower"
	"maple/internal/observ"
	"maple/internal/trace"
)

// Run applies the selected stages to every function of m. It stops at the
// first failing function; an internal compiler error raised by a stage is
// returned as an error naming that function. timer may be nil.
func Run(ctx context.Context, g *globals.Tables, m *ir.Module, opts Options, timer *observ.Timer) (*Result, error) {
	span, ctx := trace.StartSpan(ctx, trace.ScopePass, "pipeline")
	res := &Result{Funcs: make([]FuncResult, len(m.Functions))}
	if len(m.Functions) == 0 {
		span.End("empty")
		return res, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	for _, fn := range m.Functions {
		emit(opts.Progress, Event{Func: funcName(g, fn), Stage: firstStage(opts), Status: StatusQueued})
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(min(jobs, len(m.Functions)))
	for i, fn := range m.Functions {
		eg.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			fr, err := runFunc(gctx, g, fn, opts, timer)
			res.Funcs[i] = fr
			return err
		})
	}
	err := eg.Wait()

	folds, lowered := res.Totals()
	span.WithExtra("funcs", strconv.Itoa(len(m.Functions))).
		WithExtra("folds", strconv.Itoa(folds.Exprs+folds.Stmts)).
		WithExtra("lowered", strconv.Itoa(lowered.Total()))
	if err != nil {
		span.End("error")
		return res, err
	}
	span.End("")
	return res, nil
}

func firstStage(opts Options) Stage {
	if !opts.Fold && opts.Lower {
		return StageLower
	}
	return StageFold
}

func funcName(g *globals.Tables, fn *ir.Function) string {
	return g.StringFromStrIdx(fn.Name)
}

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}

// runFunc runs the stages over one function inside a ScopeFunc span.
func runFunc(ctx context.Context, g *globals.Tables, fn *ir.Function, opts Options, timer *observ.Timer) (fr FuncResult, err error) {
	name := funcName(g, fn)
	fr.Name = name
	span, ctx := trace.StartSpan(ctx, trace.ScopeFunc, name)
	tracer := trace.FromContext(ctx)
	start := time.Now()
	defer func() {
		fr.Elapsed = time.Since(start)
		fr.Stmts = ir.CountStmts(fn.Body)
		span.WithExtra("folds", strconv.Itoa(fr.Fold.Exprs+fr.Fold.Stmts)).
			WithExtra("stmts", strconv.Itoa(fr.Stmts))
		if err != nil {
			span.End("error")
			return
		}
		span.End("")
	}()

	if opts.Fold {
		err = stage(opts.Progress, timer, name, StageFold, func() {
			f := constfold.New(g).WithTracer(tracer).ForFunction(fn)
			f.FoldFunc(fn)
			fr.Fold = f.Stats()
		})
		if err != nil {
			return fr, err
		}
	}
	if opts.Lower {
		err = stage(opts.Progress, timer, name, StageLower, func() {
			l := lower.New(g, opts.LowerOpt).WithTracer(tracer).ForFunction(fn)
			l.LowerFunc(fn)
			fr.Lower = l.Stats()
		})
	}
	return fr, err
}

// stage runs body, converting an internal compiler error into an error
// tagged with the function name.
func stage(sink ProgressSink, timer *observ.Timer, name string, st Stage, body func()) (err error) {
	emit(sink, Event{Func: name, Stage: st, Status: StatusWorking})
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		if timer != nil {
			timer.Add(string(st), elapsed)
		}
		status := StatusDone
		if err != nil {
			status = StatusError
		}
		emit(sink, Event{Func: name, Stage: st, Status: status, Err: err, Elapsed: elapsed})
	}()
	func() {
		defer ice.Recover(&err)
		body()
	}()
	if err != nil {
		return fmt.Errorf("%s: %s: %w", name, st, err)
	}
	return nil
}
