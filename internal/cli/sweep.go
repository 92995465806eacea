package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/fourbar/pkg/errors"
	"github.com/matzehuels/fourbar/pkg/linkage"
	"github.com/matzehuels/fourbar/pkg/pipeline"
)

const formatTable = "table"

var sweepFormats = append([]string{formatTable}, pipeline.ValidFormats...)

type sweepFlags struct {
	linkageFlags
	step    int
	workers int
	format  string
	output  string
	events  bool
	noCache bool
	refresh bool
}

func (c *CLI) sweepCommand() *cobra.Command {
	var flags sweepFlags

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep the input angle through a full turn on both branches",
		Long: `Solve the linkage at every step degrees of input angle, on the open and the
crossed branch. Positions that do not converge and positions close to a
kinematic singularity are reported as events.

The default table format prints a per-branch summary. The json, csv and svg
formats print the full record; png and pdf need rsvg-convert.`,
		Example: `  fourbar sweep --lengths 120,30,90,80
  fourbar sweep --lengths 120,30,90,80 --step 5 --format csv -o sweep.csv
  fourbar sweep --config linkage.toml --format svg > sweep.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSweep(cmd, &flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&flags.step, "step", "s", 0, "input angle increment in degrees, 1-360 (default 1)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "parallel solver workers (default GOMAXPROCS)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", formatTable, "output format: table, svg, json, csv, png, pdf")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&flags.events, "events", false, "list events below the table")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached results")
	_ = cmd.RegisterFlagCompletionFunc("format", valueCompletion(sweepFormats...))
	return cmd
}

func (c *CLI) runSweep(cmd *cobra.Command, flags *sweepFlags) error {
	ctx := cmd.Context()
	if err := errors.ValidateFormat(flags.format, sweepFormats...); err != nil {
		return err
	}
	lengths, err := flags.resolve(c)
	if err != nil {
		return err
	}
	cfg := c.config()
	if flags.step == 0 {
		flags.step = cfg.Sweep.Step
	}
	if flags.workers == 0 {
		flags.workers = cfg.Sweep.Workers
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := pipeline.Options{
		Lengths:           lengths,
		Step:              flags.step,
		Workers:           flags.workers,
		Tolerance:         flags.tolerance,
		MaxIter:           flags.maxIter,
		SingularThreshold: flags.singularThreshold,
		Refresh:           flags.refresh,
		Logger:            loggerFromContext(ctx),
	}
	if flags.format == formatTable {
		opts.SkipRender = true
	} else {
		opts.Formats = []string{flags.format}
	}

	spinner := newSpinnerWithContext(ctx, "Sweeping "+formatLengths(lengths)+"...")
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	spinner.Stop()
	if err != nil {
		return err
	}

	if flags.format == formatTable {
		printSweepTable(cmd.OutOrStdout(), result)
		if flags.events {
			printEvents(cmd.OutOrStdout(), result.Record)
		}
		return nil
	}
	return writeArtifact(cmd.OutOrStdout(), flags.output, result.Artifacts[flags.format])
}

// printSweepTable prints the classification, the per-branch summary and the
// sweep counts.
func printSweepTable(w io.Writer, result *pipeline.Result) {
	l := result.Linkage
	fmt.Fprintln(w, StyleTitle.Render(l.Classify().Description())+" "+StyleDim.Render(formatLengths(l.Lengths())))

	rows := make([][]string, 0, len(result.Summary))
	for _, b := range result.Summary {
		rows = append(rows, summaryRow(b))
	}
	fmt.Fprintln(w, summaryTable(rows))
	printStats(result.Stats.Converged, result.Stats.NonConvergent, result.Stats.NearSingular, result.CacheInfo.SweepHit)
}

func summaryRow(b linkage.BranchSummary) []string {
	if b.Converged == 0 {
		return []string{string(b.Configuration), "0", fmt.Sprint(b.NonConvergent), "0", "—", "—", "—"}
	}
	full := "no"
	if b.FullInputRange {
		full = "yes"
	}
	return []string{
		string(b.Configuration),
		fmt.Sprint(b.Converged),
		fmt.Sprint(b.NonConvergent),
		fmt.Sprint(b.NearSingular),
		fmt.Sprintf("%.2f° … %.2f°", b.Theta4Min, b.Theta4Max),
		fmt.Sprintf("%.1f° … %.1f°", b.TransmissionMin, b.TransmissionMax),
		full,
	}
}

func summaryTable(rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("Branch", "Converged", "Failed", "Singular", "θ4 range", "Transmission", "Full turn").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return styleHeader.Padding(0, 1)
			case row >= len(rows):
				return s
			case col == 0 && rows[row][0] == string(linkage.Crossed):
				return s.Inherit(styleCrossed)
			case col == 0:
				return s.Inherit(styleOpen)
			case col == 2 && rows[row][2] != "0":
				return s.Inherit(StyleError)
			case col == 3 && rows[row][3] != "0":
				return s.Inherit(StyleWarning)
			}
			return s
		})
}

// printEvents lists non-convergent angles as ranges and near-singular
// positions individually.
func printEvents(w io.Writer, rec *linkage.SweepRecord) {
	if len(rec.Events) == 0 {
		return
	}
	for _, cfg := range linkage.Configurations {
		var failed []int
		for _, e := range rec.NonConvergent() {
			if e.Configuration == cfg {
				failed = append(failed, e.Theta2)
			}
		}
		if len(failed) > 0 {
			fmt.Fprintf(w, "%s %s non-convergent at %s\n", StyleError.Render(iconError), cfg, angleRanges(failed, rec.Step))
		}
	}
	for _, e := range rec.NearSingular() {
		fmt.Fprintf(w, "%s %s near-singular at θ2 = %d° (|det J| = %.3g)\n",
			styleIconWarning.Render(iconWarning), e.Configuration, e.Theta2, e.Determinant)
	}
}

// angleRanges collapses sorted angles into "a°–b°" runs of consecutive steps.
func angleRanges(angles []int, step int) string {
	var out string
	for i := 0; i < len(angles); {
		j := i
		for j+1 < len(angles) && angles[j+1]-angles[j] == step {
			j++
		}
		if out != "" {
			out += ", "
		}
		if i == j {
			out += fmt.Sprintf("%d°", angles[i])
		} else {
			out += fmt.Sprintf("%d°–%d°", angles[i], angles[j])
		}
		i = j + 1
	}
	return out
}

// writeArtifact writes data to path, or to w when path is empty.
func writeArtifact(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	printFile(path)
	return nil
}
