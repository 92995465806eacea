// Package pipeline runs the sweep → render pipeline shared by the CLI and the
// HTTP API.
//
// A run validates the linkage and solver options, sweeps the input angle over
// both assembly branches, and renders the requested artifacts. Both stages
// are cached by content key, so repeating a run with the same lengths and
// settings is served from the cache.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Lengths: [4]float64{120, 30, 90, 80},
//	    Formats: []string{"svg", "csv"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fourbar/pkg/cache"
	"github.com/matzehuels/fourbar/pkg/errors"
	"github.com/matzehuels/fourbar/pkg/linkage"
	"github.com/matzehuels/fourbar/pkg/render"
)

// Defaults shared by the CLI, the config file and the API.
const (
	DefaultStep              = linkage.DefaultStep
	DefaultTolerance         = linkage.DefaultTolerance
	DefaultMaxIter           = linkage.DefaultMaxIter
	DefaultSingularThreshold = linkage.DefaultSingularThreshold
	DefaultWidth             = render.DefaultWidth
	DefaultHeight            = render.DefaultHeight
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats lists the supported output formats.
var ValidFormats = []string{FormatSVG, FormatJSON, FormatCSV, FormatPNG, FormatPDF}

// Options configures a pipeline run. Zero values take the defaults.
type Options struct {
	Lengths [4]float64 `json:"lengths"`

	// Sweep options
	Step              int     `json:"step,omitempty"`
	Workers           int     `json:"workers,omitempty"`
	Tolerance         float64 `json:"tolerance,omitempty"`
	MaxIter           int     `json:"max_iter,omitempty"`
	SingularThreshold float64 `json:"singular_threshold,omitempty"`
	Refresh           bool    `json:"refresh,omitempty"`

	// Render options
	Formats    []string `json:"formats,omitempty"`
	Width      int      `json:"width,omitempty"`
	Height     int      `json:"height,omitempty"`
	SkipRender bool     `json:"-"` // sweep only; Artifacts stays empty

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result is the output of a pipeline run.
type Result struct {
	RunID     string
	Linkage   *linkage.Linkage
	Record    *linkage.SweepRecord
	Summary   []linkage.BranchSummary
	SweepHash string
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats holds counts and timings of a run.
type Stats struct {
	Attempted     int
	Converged     int
	NonConvergent int
	NearSingular  int
	SweepTime     time.Duration
	RenderTime    time.Duration
}

// CacheInfo reports which stages were served from the cache.
type CacheInfo struct {
	SweepHit  bool
	RenderHit bool // all requested artifacts were cached
}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	return errors.ValidateFormat(format, ValidFormats...)
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateLengths(o.Lengths[:]...); err != nil {
		return err
	}
	if err := o.setSolverDefaults(); err != nil {
		return err
	}
	if o.Step == 0 {
		o.Step = DefaultStep
	}
	if err := errors.ValidateStep(o.Step); err != nil {
		return err
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must be >= 0, got %d", o.Workers)
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

func (o *Options) setSolverDefaults() error {
	var err error
	o.Tolerance, o.MaxIter, o.SingularThreshold, err = solverDefaults(o.Tolerance, o.MaxIter, o.SingularThreshold)
	return err
}

func solverDefaults(tol float64, maxIter int, threshold float64) (float64, int, float64, error) {
	if tol < 0 || math.IsNaN(tol) || math.IsInf(tol, 0) {
		return 0, 0, 0, errors.New(errors.ErrCodeInvalidInput, "tolerance must be a finite value >= 0, got %v", tol)
	}
	if maxIter < 0 {
		return 0, 0, 0, errors.New(errors.ErrCodeInvalidInput, "max_iter must be >= 0, got %d", maxIter)
	}
	if threshold < 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return 0, 0, 0, errors.New(errors.ErrCodeInvalidInput, "singular_threshold must be a finite value >= 0, got %v", threshold)
	}
	if tol == 0 {
		tol = DefaultTolerance
	}
	if maxIter == 0 {
		maxIter = DefaultMaxIter
	}
	if threshold == 0 {
		threshold = DefaultSingularThreshold
	}
	return tol, maxIter, threshold, nil
}

// SolverOptions converts the solver settings into linkage options.
func (o *Options) SolverOptions() []linkage.Option {
	return []linkage.Option{
		linkage.WithTolerance(o.Tolerance),
		linkage.WithMaxIter(o.MaxIter),
		linkage.WithSingularThreshold(o.SingularThreshold),
	}
}

// SweepKeyOpts returns the cache key options of the sweep stage.
func (o *Options) SweepKeyOpts() cache.SweepKeyOpts {
	return cache.SweepKeyOpts{
		Step:              o.Step,
		Tolerance:         o.Tolerance,
		MaxIter:           o.MaxIter,
		SingularThreshold: o.SingularThreshold,
	}
}

// ArtifactKeyOpts returns the cache key options of one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatSVG, FormatPNG, FormatPDF:
		k.Width, k.Height = o.Width, o.Height
	}
	return k
}
