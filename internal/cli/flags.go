package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fourbar/pkg/errors"
	"github.com/matzehuels/fourbar/pkg/linkage"
)

// linkageFlags are shared by every command that needs a linkage.
type linkageFlags struct {
	lengths string

	tolerance         float64
	maxIter           int
	singularThreshold float64
}

func (f *linkageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.lengths, "lengths", "l", "", "link lengths r1,r2,r3,r4 (fixed, input, coupler, output)")
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", 0, "convergence bound on the residual norm (default 1e-8)")
	cmd.Flags().IntVar(&f.maxIter, "max-iter", 0, "Newton-Raphson iteration budget (default 50)")
	cmd.Flags().Float64Var(&f.singularThreshold, "singular-threshold", 0, "|det J| below which a position is near-singular (default 1e-3)")
}

// resolve merges the flags over the loaded config. Flags win.
func (f *linkageFlags) resolve(c *CLI) ([4]float64, error) {
	cfg := c.config()
	if f.tolerance == 0 {
		f.tolerance = cfg.Solver.Tolerance
	}
	if f.maxIter == 0 {
		f.maxIter = cfg.Solver.MaxIter
	}
	if f.singularThreshold == 0 {
		f.singularThreshold = cfg.Solver.SingularThreshold
	}

	if f.lengths != "" {
		return parseLengths(f.lengths)
	}
	if lengths, ok := cfg.Lengths(); ok {
		return lengths, errors.ValidateLengths(lengths[:]...)
	}
	return [4]float64{}, errors.New(errors.ErrCodeInvalidInput,
		"link lengths required: pass --lengths r1,r2,r3,r4 or set [linkage] in --config")
}

func (f *linkageFlags) solverOptions() []linkage.Option {
	return []linkage.Option{
		linkage.WithTolerance(f.tolerance),
		linkage.WithMaxIter(f.maxIter),
		linkage.WithSingularThreshold(f.singularThreshold),
	}
}

// parseLengths parses "r1,r2,r3,r4".
func parseLengths(s string) ([4]float64, error) {
	var out [4]float64
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return out, errors.New(errors.ErrCodeInvalidLinkage,
			"expected 4 comma-separated lengths, got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, errors.Wrap(errors.ErrCodeInvalidLinkage, err, "length r%d", i+1)
		}
		out[i] = v
	}
	return out, errors.ValidateLengths(out[:]...)
}

// formatLengths formats lengths the way --lengths accepts them.
func formatLengths(l [4]float64) string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
