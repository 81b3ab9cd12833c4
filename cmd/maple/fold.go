package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"maple/internal/config"
	"maple/internal/globals"
	"maple/internal/ir"
	"maple/internal/irtext"
	"maple/internal/observ"
	"maple/internal/pipeline"
	"maple/internal/trace"
	"maple/internal/ui"
)

var foldCmd = &cobra.Command{
	Use:   "fold [flags] [files...]",
	Short: "Fold constants and lower control flow in text IR",
	Long: `Reads text IR modules (stdin when no file or "-" is given), runs the
folder and the lowerer over every function and prints the resulting module.`,
	RunE: runFoldCommand,
}

func init() {
	foldCmd.Flags().StringP("output", "o", "", "write the module to a file instead of stdout")
	foldCmd.Flags().Bool("no-fold", false, "skip constant folding")
	foldCmd.Flags().Bool("no-lower", false, "skip control flow lowering")
	foldCmd.Flags().Bool("no-builtin-expect", false, "keep __builtin_expect calls in branch conditions")
	foldCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	foldCmd.Flags().String("target", "", "target triple (overrides the config file)")
	foldCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	foldCmd.Flags().Bool("stats", false, "print table and pass statistics to stderr")
}

// foldOptions is everything runFold needs, resolved from flags and config.
type foldOptions struct {
	files   []string
	output  string
	cfg     config.Config
	ui      bool
	stats   bool
	timings bool
	quiet   bool
	color   bool
}

func runFoldCommand(cmd *cobra.Command, args []string) error {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	opts, err := readFoldOptions(cmd, args)
	if err != nil {
		return err
	}
	return runFold(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func readFoldOptions(cmd *cobra.Command, args []string) (foldOptions, error) {
	root := cmd.Root().PersistentFlags()
	flags := cmd.Flags()
	opts := foldOptions{files: args}

	cfgPath, err := root.GetString("config")
	if err != nil {
		return opts, err
	}
	opts.cfg = config.Default()
	if cfgPath != "" {
		if opts.cfg, err = config.Load(cfgPath); err != nil {
			return opts, err
		}
	}

	if flags.Changed("target") {
		triple, _ := flags.GetString("target")
		if opts.cfg.Target, err = resolveTarget(triple); err != nil {
			return opts, err
		}
	}
	if noFold, _ := flags.GetBool("no-fold"); noFold {
		opts.cfg.Pipeline.Fold = false
	}
	if noLower, _ := flags.GetBool("no-lower"); noLower {
		opts.cfg.Pipeline.Lower = false
	}
	if noExpect, _ := flags.GetBool("no-builtin-expect"); noExpect {
		opts.cfg.Pipeline.BuiltinExpect = false
	}
	if flags.Changed("jobs") {
		jobs, _ := flags.GetInt("jobs")
		if jobs < 0 {
			return opts, fmt.Errorf("--jobs must not be negative, got %d", jobs)
		}
		opts.cfg.Pipeline.Jobs = jobs
	}

	opts.output, _ = flags.GetString("output")
	opts.stats, _ = flags.GetBool("stats")
	opts.timings, _ = root.GetBool("timings")
	opts.quiet, _ = root.GetBool("quiet")
	colorMode, _ := root.GetString("color")
	opts.color = colorMode == "on" || (colorMode == "auto" && isTerminal(os.Stderr))

	uiValue, _ := flags.GetString("ui")
	mode, err := readUIMode(uiValue)
	if err != nil {
		return opts, err
	}
	opts.ui = !opts.quiet && shouldUseTUI(mode)
	return opts, nil
}

// runFold parses every input into one module, runs the pipeline and prints
// the module to opts.output or stdout.
func runFold(ctx context.Context, opts foldOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	span, ctx := trace.StartSpan(ctx, trace.ScopeDriver, "fold")
	defer span.End("")

	timer := observ.NewTimer()
	g := globals.New(opts.cfg.Target)

	parseIdx := timer.Begin("parse")
	m, err := parseInputs(g, opts.files, stdin)
	timer.End(parseIdx, fmt.Sprintf("%d functions", len(m.Functions)))
	if err != nil {
		return err
	}

	popts := pipeline.OptionsFromConfig(opts.cfg.Pipeline)
	var res *pipeline.Result
	if opts.ui && len(m.Functions) > 0 {
		res, err = runPipelineWithUI(ctx, stderr, g, m, popts, timer)
	} else {
		res, err = pipeline.Run(ctx, g, m, popts, timer)
	}
	if err != nil {
		return err
	}

	printIdx := timer.Begin("print")
	err = writeModule(opts.output, stdout, g, m)
	timer.End(printIdx, "")
	if err != nil {
		return err
	}

	if opts.stats && !opts.quiet {
		fmt.Fprint(stderr, renderStats(g, res, opts.color))
	}
	if opts.timings && !opts.quiet {
		fmt.Fprint(stderr, timer.Summary())
	}
	return nil
}

// parseInputs reads each file, or stdin for "-" or no files at all, into a
// single module over g.
func parseInputs(g *globals.Tables, files []string, stdin io.Reader) (*ir.Module, error) {
	if len(files) == 0 {
		files = []string{"-"}
	}
	m := &ir.Module{}
	for _, path := range files {
		var (
			src  []byte
			err  error
			name = path
		)
		if path == "-" {
			name = "<stdin>"
			src, err = io.ReadAll(stdin)
		} else {
			src, err = os.ReadFile(path)
		}
		if err != nil {
			return m, fmt.Errorf("failed to read %s: %w", name, err)
		}
		part, err := irtext.Parse(g, name, src)
		if err != nil {
			return m, err
		}
		for _, idx := range part.Globals {
			if !slices.Contains(m.Globals, idx) {
				m.Globals = append(m.Globals, idx)
			}
		}
		for _, fn := range part.Functions {
			m.AddFunction(fn)
		}
	}
	return m, nil
}

func writeModule(path string, stdout io.Writer, g *globals.Tables, m *ir.Module) error {
	if path == "" || path == "-" {
		return irtext.Print(stdout, g, m)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := irtext.Print(f, g, m); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func renderStats(g *globals.Tables, res *pipeline.Result, color bool) string {
	st := g.Stats()
	folds, lowered := res.Totals()
	itoa := strconv.Itoa
	tables := []ui.Row{
		{Label: "types", Value: itoa(st.Types)},
		{Label: "strings", Value: itoa(st.Strings)},
		{Label: "int constants", Value: itoa(st.Consts.Ints)},
		{Label: "float constants", Value: itoa(st.Consts.Floats + st.Consts.Doubles)},
		{Label: "global symbols", Value: itoa(st.Symbols)},
		{Label: "functions", Value: itoa(st.Functions)},
	}
	passes := []ui.Row{
		{Label: "folded expressions", Value: itoa(folds.Exprs)},
		{Label: "folded statements", Value: itoa(folds.Stmts)},
		{Label: "lowered ifs", Value: itoa(lowered.Ifs)},
		{Label: "lowered loops", Value: itoa(lowered.Loops)},
		{Label: "lowered switches", Value: itoa(lowered.Switches)},
		{Label: "split branches", Value: itoa(lowered.CondGotos)},
		{Label: "branch hints", Value: itoa(lowered.Expects)},
	}
	return ui.Table("tables", tables, color) + ui.Table("passes", passes, color)
}
