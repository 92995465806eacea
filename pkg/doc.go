// Package pkg provides the core libraries of fourbar, a kinematic solver for
// planar four-bar linkages.
//
// # Overview
//
// A four-bar linkage is a closed chain of a fixed ground link, an input crank,
// a coupler and an output rocker. Given the four link lengths, fourbar
// classifies the linkage by the Grashof criterion, solves the loop-closure
// equations for the coupler and output angles with Newton-Raphson, and sweeps
// the input angle through a full turn on both assembly branches.
//
// # Architecture
//
//	link lengths (flags, config file, HTTP request)
//	         ↓
//	    [linkage] classify, solve, sweep
//	         ↓
//	    [pipeline] cached sweep → render
//	         ↓
//	    [render] SVG/PNG/PDF/JSON/CSV output
//
// # Quick Start
//
//	l, _ := linkage.New(120, 30, 90, 80)
//	fmt.Println(l.Classify()) // crank-rocker
//
//	pos, ok := l.SolvePosition(15, linkage.Open)
//	if ok {
//	    fmt.Printf("θ3=%.2f° θ4=%.2f°\n", pos.Theta3, pos.Theta4)
//	}
//
//	rec, _ := l.Sweep(1)
//	for _, b := range rec.Summary() {
//	    fmt.Println(b.Configuration, b.Converged, b.NonConvergent)
//	}
//
// # Main Packages
//
// ## Domain
//
// [linkage] - Grashof classification, the loop-closure residual and its
// Jacobian, the Newton-Raphson solver, near-singularity checks, single
// position solves and full input-angle sweeps.
//
// [estimator] - A small pre-trained network that predicts joint angles for a
// target point. It is independent of the solver.
//
// ## Output
//
// [render] - SVG drawings of a position or a sweep, JSON and CSV exports,
// and PNG/PDF conversion through rsvg-convert.
//
// ## Infrastructure
//
// [pipeline] - The sweep → render pipeline shared by the CLI and the HTTP
// API, with content-addressed caching of both stages.
//
// [cache] - Cache backends: file (CLI), Redis (shared servers) and a null
// cache.
//
// [config] - TOML and YAML configuration files with validation.
//
// [errors] - Structured error codes shared by the CLI and the API.
//
// [observability] - Hooks that let a binary attach metrics to the pipeline.
//
// # Testing
//
//	go test ./pkg/...                 # All tests
//	go test ./pkg/linkage/...         # Specific package
//	go test -run Example ./pkg/...    # Examples only
//	FOURBAR_REDIS_ADDR=localhost:6379 go test ./pkg/cache/...
//
// [linkage]: https://pkg.go.dev/github.com/matzehuels/fourbar/pkg/linkage
// [estimator]: https://pkg.go.dev/github.com/matzehuels/fourbar/pkg/estimator
// [render]: https://pkg.go.dev/github.com/matzehuels/fourbar/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/fourbar/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/fourbar/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/fourbar/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/fourbar/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/fourbar/pkg/observability
package pkg
