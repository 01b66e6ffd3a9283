package utils

import (
	"math"
	"testing"
)

func TestIsFinite(t *testing.T) {
	if !IsFinite(1.5) {
		t.Error("1.5 is finite")
	}
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if IsFinite(f) {
			t.Errorf("%v reported finite", f)
		}
	}
}

func TestFinitePtr(t *testing.T) {
	if p := FinitePtr(math.NaN()); p != nil {
		t.Errorf("NaN should map to nil, got %v", *p)
	}
	if p := FinitePtr(3); p == nil || *p != 3 {
		t.Errorf("FinitePtr(3) = %v", p)
	}
}
