package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fourbar/pkg/errors"
	"github.com/matzehuels/fourbar/pkg/linkage"
	"github.com/matzehuels/fourbar/pkg/pipeline"
	"github.com/matzehuels/fourbar/pkg/render"
)

// positionFormats are the formats a single position can be written in.
var positionFormats = []string{pipeline.FormatSVG, pipeline.FormatJSON, pipeline.FormatPNG, pipeline.FormatPDF}

type renderFlags struct {
	linkageFlags
	angle   float64
	branch  string
	step    int
	formats string
	output  string
	width   int
	height  int
	title   string
	noCache bool
	refresh bool
}

func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw a linkage position or a full sweep",
		Long: `Render writes one file per format, named <output>.<format>.

With --angle the linkage is drawn at that input angle on --branch. Without it,
the full sweep is drawn: the coupler point traces of both branches, with
events marked on the crank circle.`,
		Example: `  fourbar render --lengths 120,30,90,80 -o crank-rocker
  fourbar render --lengths 120,30,90,80 --angle 45 --branch crossed -f svg,png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lengths, err := flags.resolve(c)
			if err != nil {
				return err
			}
			formats := splitFormats(flags.formats)
			if cmd.Flags().Changed("angle") {
				return c.renderPosition(cmd.Context(), lengths, formats, &flags)
			}
			return c.renderSweep(cmd.Context(), lengths, formats, &flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().Float64VarP(&flags.angle, "angle", "a", 0, "draw a single position at this input angle (degrees)")
	cmd.Flags().StringVarP(&flags.branch, "branch", "b", string(linkage.Open), "assembly branch for --angle: open or crossed")
	cmd.Flags().IntVarP(&flags.step, "step", "s", 0, "sweep increment in degrees (default 1)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", pipeline.FormatSVG, "comma-separated formats: svg, json, csv, png, pdf")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "fourbar", "output path without extension")
	cmd.Flags().IntVar(&flags.width, "width", pipeline.DefaultWidth, "drawing width")
	cmd.Flags().IntVar(&flags.height, "height", pipeline.DefaultHeight, "drawing height")
	cmd.Flags().StringVar(&flags.title, "title", "", "drawing caption")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached results")
	_ = cmd.RegisterFlagCompletionFunc("branch", branchCompletion)
	_ = cmd.RegisterFlagCompletionFunc("format", valueCompletion(pipeline.ValidFormats...))
	return cmd
}

func (c *CLI) renderSweep(ctx context.Context, lengths [4]float64, formats []string, flags *renderFlags) error {
	if flags.step == 0 {
		flags.step = c.config().Sweep.Step
	}
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	result, err := runner.Execute(ctx, pipeline.Options{
		Lengths:           lengths,
		Step:              flags.step,
		Workers:           c.config().Sweep.Workers,
		Tolerance:         flags.tolerance,
		MaxIter:           flags.maxIter,
		SingularThreshold: flags.singularThreshold,
		Refresh:           flags.refresh,
		Formats:           formats,
		Width:             flags.width,
		Height:            flags.height,
		Logger:            loggerFromContext(ctx),
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d positions", result.Stats.Converged))

	printSuccess("%s %s", result.Linkage.Classify(), StyleDim.Render(formatLengths(lengths)))
	printStats(result.Stats.Converged, result.Stats.NonConvergent, result.Stats.NearSingular, result.CacheInfo.SweepHit)
	for _, f := range formats {
		if err := writeArtifact(nil, flags.output+"."+f, result.Artifacts[f]); err != nil {
			return err
		}
	}
	return nil
}

func (c *CLI) renderPosition(ctx context.Context, lengths [4]float64, formats []string, flags *renderFlags) error {
	for _, f := range formats {
		if err := errors.ValidateFormat(f, positionFormats...); err != nil {
			return err
		}
	}
	cfg, err := linkage.ParseConfiguration(flags.branch)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, nil, loggerFromContext(ctx))
	out, err := runner.Solve(ctx, pipeline.SolveOptions{
		Lengths:           lengths,
		Angle:             flags.angle,
		Configuration:     cfg,
		Tolerance:         flags.tolerance,
		MaxIter:           flags.maxIter,
		SingularThreshold: flags.singularThreshold,
	})
	if err != nil {
		return err
	}
	if !out.OK {
		return errors.Wrap(errors.ErrCodeNoPosition, out.Solve.Err(), "no %s position at θ2=%g°", cfg, flags.angle)
	}

	svgOpts := []render.SVGOption{render.WithSize(flags.width, flags.height)}
	if flags.title != "" {
		svgOpts = append(svgOpts, render.WithTitle(flags.title))
	}
	svg := render.RenderPositionSVG(out.Linkage, out.Position, svgOpts...)

	printPosition(out.Linkage, out.Position)
	for _, f := range formats {
		var data []byte
		switch f {
		case pipeline.FormatSVG:
			data = svg
		case pipeline.FormatJSON:
			data, err = json.MarshalIndent(out.Position, "", "  ")
		case pipeline.FormatPNG:
			data, err = render.ToPNG(ctx, svg, 2)
		case pipeline.FormatPDF:
			data, err = render.ToPDF(ctx, svg)
		}
		if err != nil {
			return fmt.Errorf("render %s: %w", f, err)
		}
		if err := writeArtifact(nil, flags.output+"."+f, data); err != nil {
			return err
		}
	}
	return nil
}

func splitFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
