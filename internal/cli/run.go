package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/batchkit/internal/batch"
	"github.com/rshade/batchkit/internal/cli/pagination"
	"github.com/rshade/batchkit/internal/config"
	"github.com/rshade/batchkit/internal/metrics"
	"github.com/rshade/batchkit/internal/progress"
	"github.com/rshade/batchkit/internal/transform"
	"github.com/rshade/batchkit/internal/tui"
)

// Output formats accepted by --output.
const (
	OutputTable   = "table"
	OutputJSON    = "json"
	OutputSummary = "summary"
)

// ErrItemFailures is returned by run --fail-on-errors when any item failed.
var ErrItemFailures = errors.New("items failed")

// runParams holds the flags of the run command.
type runParams struct {
	input           string
	format          string
	transform       string
	arg             string
	mode            string
	workers         int
	chunkSize       int
	itemTimeout     time.Duration
	progress        string
	output          string
	failedOut       string
	metricsTextfile string
	failOnErrors    bool
	clusters        int
	page            pagination.Params
}

func newRunCmd(a *app) *cobra.Command {
	var params runParams

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a transform over every item of an input file",
		Long: `Applies a built-in transform to every item of the input. Items that fail are
isolated and reported by position; the rest of the batch always completes.

In diagnose mode each failed position keeps its error; in skip mode failed
positions are left empty and the errors are listed separately. Item failures
do not change the exit status unless --fail-on-errors is set.`,
		Example: `  # Sequential run over a JSON array
  batchkit run --input numbers.json --format json --transform divide --arg 5

  # Parallel run over stdin, printing only the summary
  cat values.txt | batchkit run --input - --transform parse-float --workers 4 --output summary

  # Second page of 50 results
  batchkit run --input values.txt --transform upper --page 2 --page-size 50`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeRun(cmd, a, params)
		},
	}

	cmd.Flags().StringVarP(&params.input, "input", "i", "", "input file, or - for stdin (required)")
	cmd.Flags().StringVar(&params.format, "format", FormatLines, "input format: lines or json")
	cmd.Flags().StringVarP(&params.transform, "transform", "t", "", "built-in transform name (see 'batchkit transforms')")
	cmd.Flags().StringVar(&params.arg, "arg", "", "argument passed to the transform")
	cmd.Flags().StringVar(&params.mode, "mode", "", "failure mode: skip or diagnose (default from config)")
	cmd.Flags().IntVarP(&params.workers, "workers", "w", 0, "parallel workers, 0 or 1 runs sequentially (default from config)")
	cmd.Flags().IntVar(&params.chunkSize, "chunk-size", 0, "positions a worker claims at once (default from config)")
	cmd.Flags().DurationVar(&params.itemTimeout, "item-timeout", 0, "per-item time limit, 0 = none (default from config)")
	cmd.Flags().StringVar(&params.progress, "progress", "", "progress display: auto, bar, tui or none (default from config)")
	cmd.Flags().StringVarP(&params.output, "output", "o", OutputTable, "output format: table, json or summary")
	cmd.Flags().StringVar(&params.failedOut, "failed-out", "", "write the failed inputs as a JSON array to this file")
	cmd.Flags().StringVar(&params.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics for the run to this file")
	cmd.Flags().BoolVar(&params.failOnErrors, "fail-on-errors", false, "exit with status 2 when any item failed")
	cmd.Flags().IntVar(&params.clusters, "clusters", defaultClusterLimit, "maximum failure clusters to print")
	params.page.AddFlags(cmd.Flags())

	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("transform")

	return cmd
}

// applyRunFlags overrides cfg with the run flags the user set explicitly.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, p runParams) {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Run.Mode = p.mode
	}
	if flags.Changed("workers") {
		cfg.Run.Workers = p.workers
	}
	if flags.Changed("chunk-size") {
		cfg.Run.ChunkSize = p.chunkSize
	}
	if flags.Changed("item-timeout") {
		cfg.Run.ItemTimeout = p.itemTimeout
	}
	if flags.Changed("progress") {
		cfg.Run.Progress = p.progress
	}
	if flags.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = p.metricsTextfile
	}
}

func validateRunParams(p runParams) error {
	switch strings.ToLower(p.output) {
	case OutputTable, OutputJSON, OutputSummary:
	default:
		return fmt.Errorf("invalid output format %q (use table, json or summary)", p.output)
	}
	if p.clusters < 0 {
		return fmt.Errorf("clusters must be >= 0, got %d", p.clusters)
	}
	return p.page.Validate()
}

func executeRun(cmd *cobra.Command, a *app, p runParams) error {
	cfg := *a.cfg
	applyRunFlags(cmd, &cfg, p)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := validateRunParams(p); err != nil {
		return err
	}

	spec, err := transform.Lookup(p.transform)
	if err != nil {
		return err
	}
	fn, err := spec.Build(p.arg)
	if err != nil {
		return err
	}
	mode, err := batch.ParseMode(cfg.Run.Mode)
	if err != nil {
		return err
	}

	items, err := readInputFile(cmd, p.input, p.format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	display := newProgressDisplay(cmd.ErrOrStderr(), cfg.Run, spec.Name, cancel)

	var rec *metrics.Recorder
	if cfg.Metrics.Textfile != "" {
		rec = metrics.NewRecorder(metrics.Config{Namespace: cfg.Metrics.Namespace})
	}

	a.logger.Debug().
		Str("transform", spec.Name).
		Int("items", len(items)).
		Str("mode", mode.String()).
		Int("workers", cfg.Run.Workers).
		Msg("starting run")

	out, err := batch.Run(ctx, items, fn,
		batch.WithMode(mode),
		batch.WithConcurrency(cfg.Run.Workers),
		batch.WithChunkSize(cfg.Run.ChunkSize),
		batch.WithItemTimeout(cfg.Run.ItemTimeout),
		batch.WithReporter(display.reporter),
		batch.WithMetrics(rec),
	)
	if stopErr := display.stop(); stopErr != nil {
		a.logger.Warn().Err(stopErr).Msg("progress display did not shut down cleanly")
	}
	if err != nil {
		return err
	}

	if err := renderOutcome(cmd.OutOrStdout(), out, spec.Name, p); err != nil {
		return err
	}
	if p.failedOut != "" {
		if err := writeFailedInputs(p.failedOut, out.FailedInputs()); err != nil {
			return err
		}
	}
	if cfg.Metrics.Textfile != "" {
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	counts := out.Counts()
	if out.Canceled {
		cmd.PrintErrf("Warning: run canceled, %d of %d items were not processed\n", counts.Unprocessed, len(items))
	}
	if p.failOnErrors && counts.Failures() > 0 {
		return fmt.Errorf("%w: %d of %d", ErrItemFailures, counts.Failures(), len(items))
	}
	return nil
}

// progressDisplay is the progress sink chosen for one run.
type progressDisplay struct {
	reporter *progress.Reporter
	tui      *tui.Sink
}

// newProgressDisplay picks the sink for mode. Auto draws a bar only when w
// is a terminal. The TUI calls cancel when the operator interrupts it.
func newProgressDisplay(w io.Writer, run config.RunConfig, title string, cancel func()) progressDisplay {
	width := run.BarWidth
	if width <= 0 {
		width = progress.DefaultWidth
	}

	var d progressDisplay
	var sink progress.Sink
	switch strings.ToLower(run.Progress) {
	case config.ProgressNone:
		sink = progress.NopSink{}
	case config.ProgressBar:
		width = progress.TerminalWidth(w, width)
		sink = progress.NewTerminalSink(w, width)
	case config.ProgressTUI:
		d.tui = tui.StartSink(w, title, width, cancel)
		sink = d.tui
	default:
		if progress.IsTerminal(w) {
			width = progress.TerminalWidth(w, width)
			sink = progress.NewTerminalSink(w, width)
		} else {
			sink = progress.NopSink{}
		}
	}

	d.reporter = progress.NewReporter(progress.WithSink(sink), progress.WithWidth(width))
	return d
}

func (d progressDisplay) stop() error {
	if d.tui == nil {
		return nil
	}
	return d.tui.Stop()
}

// writeFailedInputs writes inputs as a JSON array that run --format json can
// read back.
func writeFailedInputs(path string, inputs []any) error {
	if inputs == nil {
		inputs = []any{}
	}
	data, err := json.MarshalIndent(inputs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding failed inputs: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing failed inputs: %w", err)
	}
	return nil
}
