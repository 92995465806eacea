package render

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/matzehuels/fourbar/pkg/linkage"
)

var csvHeader = []string{
	"theta2", "configuration", "theta3", "theta4", "transmission_angle",
	"bx", "by", "cx", "cy",
	"iterations", "residual_norm", "determinant", "near_singular",
}

// RenderSweepCSV writes one row per converged position, in record order.
// Angles are degrees.
func RenderSweepCSV(rec *linkage.SweepRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, p := range rec.Results {
		row := []string{
			ftoa(p.Theta2),
			string(p.Configuration),
			ftoa(p.Theta3),
			ftoa(p.Theta4),
			ftoa(p.TransmissionAngle),
			ftoa(p.Points.B.X),
			ftoa(p.Points.B.Y),
			ftoa(p.Points.C.X),
			ftoa(p.Points.C.Y),
			strconv.Itoa(p.Convergence.Iterations),
			strconv.FormatFloat(p.Convergence.ResidualNorm, 'e', 3, 64),
			strconv.FormatFloat(p.Singularity.Determinant, 'g', 6, 64),
			strconv.FormatBool(p.Singularity.NearSingular),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
