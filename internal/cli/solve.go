package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fourbar/pkg/errors"
	"github.com/matzehuels/fourbar/pkg/linkage"
	"github.com/matzehuels/fourbar/pkg/pipeline"
)

func (c *CLI) solveCommand() *cobra.Command {
	var (
		flags  linkageFlags
		angle  float64
		branch string
		seed3  float64
		seed4  float64
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve one linkage position for an input angle",
		Long: `Solve the loop-closure equations for one input crank angle on one assembly
branch. Newton-Raphson starts from a per-branch seed unless both --seed3 and
--seed4 are given (degrees).`,
		Example: `  fourbar solve --lengths 120,30,90,80 --angle 15
  fourbar solve --lengths 120,30,90,80 --angle 15 --branch crossed --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lengths, err := flags.resolve(c)
			if err != nil {
				return err
			}
			cfg, err := linkage.ParseConfiguration(branch)
			if err != nil {
				return err
			}

			opts := pipeline.SolveOptions{
				Lengths:           lengths,
				Angle:             angle,
				Configuration:     cfg,
				Tolerance:         flags.tolerance,
				MaxIter:           flags.maxIter,
				SingularThreshold: flags.singularThreshold,
			}
			seed3Set, seed4Set := cmd.Flags().Changed("seed3"), cmd.Flags().Changed("seed4")
			if seed3Set != seed4Set {
				return errors.New(errors.ErrCodeInvalidInput, "--seed3 and --seed4 must be given together")
			}
			if seed3Set {
				s := linkage.SeedDegrees(seed3, seed4)
				opts.Seed = &s
			}

			runner := pipeline.NewRunner(nil, nil, loggerFromContext(cmd.Context()))
			out, err := runner.Solve(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if !out.OK {
				printError("No %s position at θ2 = %g°", cfg, angle)
				printDetail("%s after %d iterations (residual %.3g)",
					out.Solve.Status, out.Solve.Iterations, out.Solve.ResidualNorm)
				return errors.Wrap(errors.ErrCodeNoPosition, out.Solve.Err(), "solve θ2=%g° %s", angle, cfg)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out.Position)
			}
			printPosition(out.Linkage, out.Position)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().Float64VarP(&angle, "angle", "a", 0, "input crank angle θ2 in degrees")
	cmd.Flags().StringVarP(&branch, "branch", "b", string(linkage.Open), "assembly branch: open or crossed")
	cmd.Flags().Float64Var(&seed3, "seed3", 0, "initial coupler angle θ3 in degrees")
	cmd.Flags().Float64Var(&seed4, "seed4", 0, "initial output angle θ4 in degrees")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	_ = cmd.RegisterFlagCompletionFunc("branch", branchCompletion)
	return cmd
}

func printPosition(l *linkage.Linkage, p linkage.PositionResult) {
	style := styleOpen
	if p.Configuration == linkage.Crossed {
		style = styleCrossed
	}
	printSuccess("%s %s at θ2 = %s°", l.Classify(), style.Render(string(p.Configuration)), StyleNumber.Render(fmt.Sprintf("%g", p.Theta2)))
	printKeyValue("θ3", fmt.Sprintf("%.4f°", p.Theta3))
	printKeyValue("θ4", fmt.Sprintf("%.4f°", p.Theta4))
	printKeyValue("transmission", fmt.Sprintf("%.2f°", p.TransmissionAngle))
	printKeyValue("B", fmt.Sprintf("(%.3f, %.3f)", p.Points.B.X, p.Points.B.Y))
	printKeyValue("C", fmt.Sprintf("(%.3f, %.3f)", p.Points.C.X, p.Points.C.Y))
	printKeyValue("iterations", fmt.Sprint(p.Convergence.Iterations))
	printKeyValue("residual", fmt.Sprintf("%.3g", p.Convergence.ResidualNorm))
	printKeyValue("|det J|", fmt.Sprintf("%.4g", p.Singularity.Determinant))
	if p.Singularity.NearSingular {
		printWarning("near a singular configuration")
	}
}
