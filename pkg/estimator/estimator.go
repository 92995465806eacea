// Package estimator predicts crane joint angles from a target point with a
// small pre-trained multilayer perceptron.
//
// The network maps a scaled (x, y) point through two ReLU hidden layers to
// three scaled outputs, which are unscaled into (θ2, θ3, θ4) in radians.
// Weights and scaler statistics are loaded from JSON:
//
//	weights: {"layer1_weight": [[...]], "layer1_bias": [...], ..., "layer3_bias": [...]}
//	scaler:  {"X_mean": [mx, my], "X_scale": [sx, sy], "y_mean": [...3], "y_scale": [...3]}
//
// A [Model] is immutable after loading and safe for concurrent use.
package estimator

import (
	"context"
	"encoding/json"
	"os"

	"github.com/matzehuels/fourbar/pkg/errors"
)

const (
	inputs  = 2
	outputs = 3
)

// Weights are the dense layer parameters. Weight matrices are row-major with
// one row per output unit.
type Weights struct {
	Layer1Weight [][]float64 `json:"layer1_weight"`
	Layer1Bias   []float64   `json:"layer1_bias"`
	Layer2Weight [][]float64 `json:"layer2_weight"`
	Layer2Bias   []float64   `json:"layer2_bias"`
	Layer3Weight [][]float64 `json:"layer3_weight"`
	Layer3Bias   []float64   `json:"layer3_bias"`
}

// Scaler holds standardization statistics for inputs (X) and outputs (y).
type Scaler struct {
	XMean  []float64 `json:"X_mean"`
	XScale []float64 `json:"X_scale"`
	YMean  []float64 `json:"y_mean"`
	YScale []float64 `json:"y_scale"`
}

// Point is a target position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Angles is a predicted joint configuration in radians.
type Angles struct {
	Theta2 float64 `json:"theta2"`
	Theta3 float64 `json:"theta3"`
	Theta4 float64 `json:"theta4"`
}

// Model is a loaded, shape-checked network.
type Model struct {
	w Weights
	s Scaler
}

// Load reads weights and scaler JSON files.
func Load(weightsPath, scalerPath string) (*Model, error) {
	var w Weights
	if err := readJSON(weightsPath, &w); err != nil {
		return nil, err
	}
	var s Scaler
	if err := readJSON(scalerPath, &s); err != nil {
		return nil, err
	}
	return New(w, s)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeModelLoad, err, "read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(errors.ErrCodeModelLoad, err, "decode %s", path)
	}
	return nil
}

// New validates shapes and returns a model. Hidden layer widths are taken
// from the first layer's row counts.
func New(w Weights, s Scaler) (*Model, error) {
	h1 := len(w.Layer1Weight)
	h2 := len(w.Layer2Weight)
	checks := []struct {
		name       string
		rows, cols int
		m          [][]float64
	}{
		{"layer1_weight", h1, inputs, w.Layer1Weight},
		{"layer2_weight", h2, h1, w.Layer2Weight},
		{"layer3_weight", outputs, h2, w.Layer3Weight},
	}
	if h1 == 0 || h2 == 0 {
		return nil, errors.New(errors.ErrCodeModelShape, "hidden layers must not be empty")
	}
	for _, c := range checks {
		if err := checkMatrix(c.name, c.m, c.rows, c.cols); err != nil {
			return nil, err
		}
	}
	for _, c := range []struct {
		name string
		v    []float64
		n    int
	}{
		{"layer1_bias", w.Layer1Bias, h1},
		{"layer2_bias", w.Layer2Bias, h2},
		{"layer3_bias", w.Layer3Bias, outputs},
		{"X_mean", s.XMean, inputs},
		{"X_scale", s.XScale, inputs},
		{"y_mean", s.YMean, outputs},
		{"y_scale", s.YScale, outputs},
	} {
		if len(c.v) != c.n {
			return nil, errors.New(errors.ErrCodeModelShape, "%s: got %d values, want %d", c.name, len(c.v), c.n)
		}
	}
	for i, v := range s.XScale {
		if v == 0 {
			return nil, errors.New(errors.ErrCodeModelShape, "X_scale[%d] is zero", i)
		}
	}
	return &Model{w: w, s: s}, nil
}

func checkMatrix(name string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return errors.New(errors.ErrCodeModelShape, "%s: got %d rows, want %d", name, len(m), rows)
	}
	for i, row := range m {
		if len(row) != cols {
			return errors.New(errors.ErrCodeModelShape, "%s row %d: got %d columns, want %d", name, i, len(row), cols)
		}
	}
	return nil
}

// HiddenSizes returns the widths of the two hidden layers.
func (m *Model) HiddenSizes() (int, int) {
	return len(m.w.Layer1Weight), len(m.w.Layer2Weight)
}

// Predict returns the joint angles for one target point.
func (m *Model) Predict(p Point) Angles {
	in := []float64{
		(p.X - m.s.XMean[0]) / m.s.XScale[0],
		(p.Y - m.s.XMean[1]) / m.s.XScale[1],
	}
	h := relu(dense(m.w.Layer1Weight, m.w.Layer1Bias, in))
	h = relu(dense(m.w.Layer2Weight, m.w.Layer2Bias, h))
	out := dense(m.w.Layer3Weight, m.w.Layer3Bias, h)
	for i := range out {
		out[i] = out[i]*m.s.YScale[i] + m.s.YMean[i]
	}
	return Angles{Theta2: out[0], Theta3: out[1], Theta4: out[2]}
}

// PredictBatch predicts every point of a trajectory, in order. It stops early
// with the context error if ctx is cancelled.
func (m *Model) PredictBatch(ctx context.Context, pts []Point) ([]Angles, error) {
	out := make([]Angles, len(pts))
	for i, p := range pts {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		out[i] = m.Predict(p)
	}
	return out, nil
}

func dense(w [][]float64, b, x []float64) []float64 {
	y := make([]float64, len(w))
	for i, row := range w {
		var sum float64
		for j, v := range row {
			sum += v * x[j]
		}
		y[i] = sum + b[i]
	}
	return y
}

func relu(v []float64) []float64 {
	for i, x := range v {
		if x < 0 {
			v[i] = 0
		}
	}
	return v
}
