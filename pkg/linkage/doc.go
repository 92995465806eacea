// Package linkage solves the position problem of a planar four-bar linkage.
//
// # Overview
//
// A four-bar linkage is a closed chain of four rigid links joined by revolute
// pins: the fixed link (r1) between the ground pivots A and D, the input link
// (r2) driven about A, the coupler (r3) and the output link (r4) pivoting
// about D. For a given input angle theta2 the unknown angles theta3 (coupler)
// and theta4 (output) satisfy the vector loop-closure equation
//
//	r2·e(θ2) + r3·e(θ3) = r1·e(0) + r4·e(θ4)
//
// which this package solves with Newton-Raphson iteration on an analytic 2×2
// Jacobian.
//
// # Basic Usage
//
// Construct a [Linkage] with [New], then query single positions with
// [Linkage.SolvePosition] or the full motion range with [Linkage.Sweep]:
//
//	l, err := linkage.New(120, 30, 90, 80)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(l.Classify()) // crank-rocker
//
//	pos, ok := l.SolvePosition(15, linkage.Open)
//	if !ok {
//	    // no position reachable from the open-branch seed
//	}
//
// # Assembly Branches
//
// The loop-closure equation has two solutions per input angle, the open and
// crossed assembly branches. Newton-Raphson converges to whichever root the
// seed is nearer to, so [Configuration] selects a seed biased toward each
// branch. Seeds are heuristics; callers can override them with [WithSeed].
//
// # Failure Reporting
//
// Nothing in this package panics or returns an error for numeric failure.
// [SolveResult.Status] records how a solve terminated ([Converged],
// [SingularJacobian] or [MaxIterExceeded]), [Linkage.SolvePosition] reports a
// missing position through its boolean result, and near-singular positions
// carry an advisory [Singularity] record.
//
// # Concurrency
//
// A [Linkage] is immutable after construction and safe for concurrent use.
// [Linkage.SweepParallel] spreads a sweep across goroutines and returns the
// same record as [Linkage.Sweep].
package linkage
