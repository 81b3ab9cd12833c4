package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"maple/internal/globals"
	"maple/internal/ir"
	"maple/internal/observ"
	"maple/internal/pipeline"
	"maple/internal/ui"
)

type pipelineOutcome struct {
	result *pipeline.Result
	err    error
}

func runPipelineWithUI(ctx context.Context, out io.Writer, g *globals.Tables, m *ir.Module, opts pipeline.Options, timer *observ.Timer) (*pipeline.Result, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan pipelineOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = pipeline.ChannelSink{Ch: events}
		res, err := pipeline.Run(ctx, g, m, optsCopy, timer)
		outcomeCh <- pipelineOutcome{result: res, err: err}
		close(events)
	}()

	names := make([]string, len(m.Functions))
	for i, fn := range m.Functions {
		names[i] = g.StringFromStrIdx(fn.Name)
	}
	var stages []pipeline.Stage
	if opts.Fold {
		stages = append(stages, pipeline.StageFold)
	}
	if opts.Lower {
		stages = append(stages, pipeline.StageLower)
	}

	model := ui.NewProgressModel("maple fold", names, stages, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithInput(nil))
	_, uiErr := program.Run()
	if uiErr != nil {
		// Keep draining so the pipeline never blocks on a full channel.
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
