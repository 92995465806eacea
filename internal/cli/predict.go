package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fourbar/pkg/errors"
	"github.com/matzehuels/fourbar/pkg/estimator"
)

type prediction struct {
	Point  estimator.Point  `json:"point"`
	Angles estimator.Angles `json:"angles"`
}

func (c *CLI) predictCommand() *cobra.Command {
	var (
		weights string
		scaler  string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "predict x,y [x,y...]",
		Short: "Estimate joint angles for target points with the learned model",
		Long: `Predict runs the pre-trained estimator network on each target point and
prints the joint angles θ2, θ3 and θ4 in degrees (radians with --json).`,
		Example: `  fourbar predict --weights model_weights.json --scaler scaler.json 5,-6 4.5,-5.8`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pts := make([]estimator.Point, len(args))
			for i, a := range args {
				p, err := parsePoint(a)
				if err != nil {
					return err
				}
				pts[i] = p
			}

			model, err := estimator.Load(weights, scaler)
			if err != nil {
				return err
			}
			h1, h2 := model.HiddenSizes()
			loggerFromContext(cmd.Context()).Debug("loaded estimator", "hidden", fmt.Sprintf("%d×%d", h1, h2))

			angles, err := model.PredictBatch(cmd.Context(), pts)
			if err != nil {
				return err
			}

			if asJSON {
				out := make([]prediction, len(pts))
				for i := range pts {
					out[i] = prediction{Point: pts[i], Angles: angles[i]}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			for i, p := range pts {
				a := angles[i]
				fmt.Fprintf(cmd.OutOrStdout(), "(%g, %g)  θ2 %8.3f°  θ3 %8.3f°  θ4 %8.3f°\n",
					p.X, p.Y, deg(a.Theta2), deg(a.Theta3), deg(a.Theta4))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&weights, "weights", "model_weights.json", "network weights JSON")
	cmd.Flags().StringVar(&scaler, "scaler", "scaler.json", "scaler statistics JSON")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON (angles in radians)")
	return cmd
}

// parsePoint parses "x,y".
func parsePoint(s string) (estimator.Point, error) {
	x, y, ok := strings.Cut(s, ",")
	if !ok {
		return estimator.Point{}, errors.New(errors.ErrCodeInvalidInput, "point %q: want x,y", s)
	}
	px, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
	if err != nil {
		return estimator.Point{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "point %q", s)
	}
	py, err := strconv.ParseFloat(strings.TrimSpace(y), 64)
	if err != nil {
		return estimator.Point{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "point %q", s)
	}
	return estimator.Point{X: px, Y: py}, nil
}

func deg(rad float64) float64 { return rad * 180 / math.Pi }
