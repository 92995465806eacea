package linkage_test

import (
	"fmt"

	"github.com/matzehuels/fourbar/pkg/linkage"
)

func ExampleClassify() {
	fmt.Println(linkage.Classify(120, 30, 90, 80))
	fmt.Println(linkage.Classify(120, 80, 30, 90))
	fmt.Println(linkage.Classify(100, 60, 70, 80))
	// Output:
	// crank-rocker
	// double-rocker
	// triple-rocker
}

func ExampleLinkage_SolvePosition() {
	l, err := linkage.New(120, 30, 90, 80)
	if err != nil {
		panic(err)
	}

	pos, ok := l.SolvePosition(15, linkage.Open)
	if !ok {
		fmt.Println("no position")
		return
	}
	fmt.Printf("B = (%.3f, %.3f)\n", pos.Points.B.X, pos.Points.B.Y)
	fmt.Printf("theta3 = %.2f, theta4 = %.2f\n", pos.Theta3, pos.Theta4)
	fmt.Println("near singular:", pos.Singularity.NearSingular)
	// Output:
	// B = (28.978, 7.765)
	// theta3 = 47.47, theta4 = 112.17
	// near singular: false
}

func ExampleLinkage_Sweep() {
	l := linkage.MustNew(120, 30, 90, 80)
	rec, err := l.Sweep(10)
	if err != nil {
		panic(err)
	}
	fmt.Println(rec.Attempted(), len(rec.Results), len(rec.NonConvergent()))
	// Output:
	// 72 72 0
}
