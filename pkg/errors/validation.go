package errors

import (
	"math"
	"strings"
)

// ValidateLengths checks the four link lengths (fixed, input, coupler,
// output). Each must be finite and strictly positive.
func ValidateLengths(lengths ...float64) error {
	if len(lengths) != 4 {
		return New(ErrCodeInvalidLinkage, "a four-bar linkage needs 4 link lengths, got %d", len(lengths))
	}
	for i, r := range lengths {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return New(ErrCodeInvalidLinkage, "link length r%d is not finite: %v", i+1, r)
		}
		if r <= 0 {
			return New(ErrCodeInvalidLinkage, "link length r%d must be positive, got %g", i+1, r)
		}
	}
	return nil
}

// ValidateStep checks a sweep step in whole degrees. It must lie in [1, 360].
func ValidateStep(step int) error {
	if step <= 0 {
		return New(ErrCodeInvalidStep, "sweep step must be a positive integer, got %d", step)
	}
	if step > 360 {
		return New(ErrCodeInvalidStep, "sweep step must not exceed 360 degrees, got %d", step)
	}
	return nil
}

// ValidateAngle checks that an input angle in degrees is finite.
func ValidateAngle(deg float64) error {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return New(ErrCodeInvalidInput, "angle must be finite, got %v", deg)
	}
	return nil
}

// ValidateFormat checks an output format name against the allowed set.
func ValidateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)",
		format, strings.Join(allowed, ", "))
}
