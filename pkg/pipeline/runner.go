package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/fourbar/pkg/cache"
	"github.com/matzehuels/fourbar/pkg/errors"
	"github.com/matzehuels/fourbar/pkg/linkage"
	"github.com/matzehuels/fourbar/pkg/observability"
)

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner can serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides cache.SweepTTL and cache.ArtifactTTL when positive.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer uses
// the default keyer, and a nil logger uses the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the sweep and render stages.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	l, err := linkage.New(opts.Lengths[0], opts.Lengths[1], opts.Lengths[2], opts.Lengths[3])
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString(), Linkage: l}
	logger := opts.Logger.With("run", result.RunID[:8])

	sweepStart := time.Now()
	rec, sweepKey, sweepHit, err := r.SweepWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	result.Record = rec
	result.Summary = rec.Summary()
	result.SweepHash = cache.KeyHash(sweepKey)
	result.Stats.SweepTime = time.Since(sweepStart)
	result.Stats.Attempted = rec.Attempted()
	result.Stats.Converged = len(rec.Results)
	result.Stats.NonConvergent = len(rec.NonConvergent())
	result.Stats.NearSingular = len(rec.NearSingular())
	result.CacheInfo.SweepHit = sweepHit

	logger.Info("swept linkage",
		"type", l.Classify(),
		"step", opts.Step,
		"converged", result.Stats.Converged,
		"non_convergent", result.Stats.NonConvergent,
		"near_singular", result.Stats.NearSingular,
		"cached", sweepHit,
		"duration", result.Stats.SweepTime)

	if opts.SkipRender {
		result.Artifacts = map[string][]byte{}
		return result, nil
	}

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, rec, result.SweepHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// SweepWithCacheInfo sweeps l, reading and writing the cache unless
// opts.Refresh is set (a refresh still stores the fresh record). It returns
// the record, its cache key and whether it was a hit.
func (r *Runner) SweepWithCacheInfo(ctx context.Context, l *linkage.Linkage, opts Options) (*linkage.SweepRecord, string, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, "", false, err
	}
	key := r.Keyer.SweepKey(l.Lengths(), opts.SweepKeyOpts())

	if !opts.Refresh {
		if rec, ok := r.cachedSweep(ctx, key, opts.Logger); ok {
			return rec, key, true, nil
		}
	}

	hooks := observability.Solver()
	hooks.OnSweepStart(ctx, l.Lengths(), opts.Step)
	start := time.Now()
	rec, err := l.SweepParallel(ctx, opts.Step, opts.Workers, opts.SolverOptions()...)
	hooks.OnSweepComplete(ctx, l.Lengths(), sweepStats(rec), time.Since(start), err)
	if err != nil {
		return nil, "", false, err
	}

	if data, err := json.Marshal(rec); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.SweepTTL)); err != nil {
			opts.Logger.Warn("cache write failed", "key", key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "sweep", len(data))
		}
	}
	return rec, key, false, nil
}

func (r *Runner) cachedSweep(ctx context.Context, key string, logger *log.Logger) (*linkage.SweepRecord, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "sweep")
		return nil, false
	}
	var rec linkage.SweepRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.Debug("discarding unreadable cached sweep", "key", key, "err", err)
		observability.Cache().OnCacheMiss(ctx, "sweep")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "sweep")
	return &rec, true
}

// RenderWithCacheInfo renders the requested formats, serving them from the
// cache when every format is cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *linkage.Linkage, rec *linkage.SweepRecord, sweepHash string, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(sweepHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				break
			}
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	hooks := observability.Render()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, l, rec, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(sweepHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.ArtifactTTL)); err != nil {
			opts.Logger.Warn("cache write failed", "key", key, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return rendered, false, nil
}

// SolveOptions configures a single position solve.
type SolveOptions struct {
	Lengths           [4]float64
	Angle             float64 // input angle θ2 in degrees
	Configuration     linkage.Configuration
	Seed              *linkage.Seed // overrides the branch seed
	Tolerance         float64
	MaxIter           int
	SingularThreshold float64
}

// SolveOutcome is the result of [Runner.Solve]. Position is valid only when
// OK is true; Solve explains a failure.
type SolveOutcome struct {
	Linkage  *linkage.Linkage
	Position linkage.PositionResult
	Solve    linkage.SolveResult
	OK       bool
}

// Solve validates the options and solves one position. A solver failure is
// reported through the outcome, not the error.
func (r *Runner) Solve(ctx context.Context, opts SolveOptions) (*SolveOutcome, error) {
	l, err := linkage.New(opts.Lengths[0], opts.Lengths[1], opts.Lengths[2], opts.Lengths[3])
	if err != nil {
		return nil, err
	}
	if err := errors.ValidateAngle(opts.Angle); err != nil {
		return nil, err
	}
	if opts.Configuration == "" {
		opts.Configuration = linkage.Open
	}
	cfg, err := linkage.ParseConfiguration(string(opts.Configuration))
	if err != nil {
		return nil, err
	}
	tol, maxIter, threshold, err := solverDefaults(opts.Tolerance, opts.MaxIter, opts.SingularThreshold)
	if err != nil {
		return nil, err
	}

	lopts := []linkage.Option{
		linkage.WithTolerance(tol),
		linkage.WithMaxIter(maxIter),
		linkage.WithSingularThreshold(threshold),
	}
	if opts.Seed != nil {
		lopts = append(lopts, linkage.WithSeed(*opts.Seed))
	}

	start := time.Now()
	pos, sr, ok := l.SolvePositionDetail(opts.Angle, cfg, lopts...)
	observability.Solver().OnSolve(ctx, string(cfg), sr.Status.String(), sr.Iterations, time.Since(start))

	r.Logger.Debug("solved position",
		"theta2", opts.Angle,
		"configuration", cfg,
		"status", sr.Status,
		"iterations", sr.Iterations,
		"residual", sr.ResidualNorm)

	return &SolveOutcome{Linkage: l, Position: pos, Solve: sr, OK: ok}, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func sweepStats(rec *linkage.SweepRecord) observability.SweepStats {
	if rec == nil {
		return observability.SweepStats{}
	}
	return observability.SweepStats{
		Attempted:     rec.Attempted(),
		Converged:     len(rec.Results),
		NonConvergent: len(rec.NonConvergent()),
		NearSingular:  len(rec.NearSingular()),
	}
}
