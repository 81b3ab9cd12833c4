// Package trace records what the maple pipeline does and how long it takes.
//
// Events are spans (begin/end pairs) or points, each tagged with a scope:
//
//   - ScopeDriver: the CLI invocation
//   - ScopePass: one pipeline stage (parse, fold, lower, print)
//   - ScopeFunc: one function inside a stage
//   - ScopeNode: a single rewrite applied by the folder or the lowerer
//
// The level decides which scopes are emitted: phase shows driver and pass
// events, detail adds functions, debug adds every rewrite.
//
//	maple fold --trace=- --trace-level=debug prog.mir
//
// Tracers and the enclosing span travel through the pipeline in the
// context, so a span started from it nests under its caller:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span, ctx := trace.StartSpan(ctx, trace.ScopePass, "pipeline")
//	defer span.End("")
package trace
