package utils

import "math"

// IsFinite reports whether f is neither NaN nor an infinity.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FinitePtr returns a pointer to f, or nil when f is not finite.
func FinitePtr(f float64) *float64 {
	if !IsFinite(f) {
		return nil
	}
	return &f
}
