package skin

import (
	"math"
	"testing"
)

func TestFalloffLinearAtExponentZero(t *testing.T) {
	spec := FalloffSpec{Exponent: 0}
	for _, f := range []float64{0, 0.25, 0.5, 0.75, 1} {
		if got := spec.Weight(f); math.Abs(got-f) > 1e-12 {
			t.Errorf("Weight(%v) = %v, want %v", f, got, f)
		}
	}
}

func TestFalloffBoundaryValues(t *testing.T) {
	specs := []FalloffSpec{
		{Exponent: 0},
		{Exponent: 1},
		{Exponent: 2},
		{Exponent: -1},
		{Exponent: 1, Spherical: true},
		{Exponent: -2, Spherical: true},
	}
	for _, spec := range specs {
		if got := spec.Weight(0); math.Abs(got) > 1e-9 {
			t.Errorf("%+v: Weight(0) = %v, want 0", spec, got)
		}
		if got := spec.Weight(1); math.Abs(got-1) > 1e-9 {
			t.Errorf("%+v: Weight(1) = %v, want 1", spec, got)
		}
	}
}

func TestFalloffClampsFactor(t *testing.T) {
	spec := FalloffSpec{Exponent: 1}
	if got := spec.Weight(-0.5); got != spec.Weight(0) {
		t.Errorf("Weight(-0.5) = %v, want Weight(0)", got)
	}
	if got := spec.Weight(1.5); got != spec.Weight(1) {
		t.Errorf("Weight(1.5) = %v, want Weight(1)", got)
	}
}

func TestFalloffMonotonic(t *testing.T) {
	specs := []FalloffSpec{
		{Exponent: 0},
		{Exponent: 1},
		{Exponent: 3},
		{Exponent: -2},
		{Exponent: 0, Spherical: true},
		{Exponent: 2, Spherical: true},
		{Exponent: -3, Spherical: true},
	}
	for _, spec := range specs {
		prev := spec.Weight(0)
		for i := 1; i <= 100; i++ {
			f := float64(i) / 100
			cur := spec.Weight(f)
			if cur < prev-1e-12 {
				t.Fatalf("%+v: weight decreased at factor %v: %v -> %v", spec, f, prev, cur)
			}
			prev = cur
		}
	}
}

func TestFalloffWidening(t *testing.T) {
	// A higher exponent widens the influence: weight at mid range grows.
	narrow := FalloffSpec{Exponent: 0}.Weight(0.5)
	wide := FalloffSpec{Exponent: 2}.Weight(0.5)
	if wide <= narrow {
		t.Errorf("exponent 2 weight %v not wider than linear %v", wide, narrow)
	}
	tight := FalloffSpec{Exponent: -2}.Weight(0.5)
	if tight >= narrow {
		t.Errorf("exponent -2 weight %v not tighter than linear %v", tight, narrow)
	}
}

func TestFalloffDisabledSentinel(t *testing.T) {
	spec := FalloffSpec{Exponent: DisabledFalloff}
	if spec.Enabled() {
		t.Fatal("sentinel exponent reported enabled")
	}
	for _, f := range []float64{0, 0.5, 1} {
		if got := spec.Weight(f); got != 0 {
			t.Errorf("disabled Weight(%v) = %v, want 0", f, got)
		}
	}
	if !(FalloffSpec{Exponent: DisabledFalloff + 0.5}).Enabled() {
		t.Error("exponent just above the sentinel should be enabled")
	}
}

func TestFalloffSphericalCircular(t *testing.T) {
	// Spherical exponent 1 traces a quarter circle: w = sqrt(1-(1-f)^2).
	spec := FalloffSpec{Exponent: 1, Spherical: true}
	for _, f := range []float64{0.1, 0.5, 0.9} {
		want := math.Sqrt(1 - (1-f)*(1-f))
		if got := spec.Weight(f); math.Abs(got-want) > 1e-12 {
			t.Errorf("Weight(%v) = %v, want %v", f, got, want)
		}
	}
}

func TestNewFalloffTriple(t *testing.T) {
	triple := NewFalloffTriple([3]float64{0, 1, DisabledFalloff}, [3]bool{false, true, false})
	if !triple[FalloffStart].Enabled() || triple[FalloffStart].Spherical {
		t.Errorf("start spec wrong: %+v", triple[FalloffStart])
	}
	if !triple[FalloffMid].Spherical {
		t.Errorf("mid spec should be spherical: %+v", triple[FalloffMid])
	}
	if triple[FalloffEnd].Enabled() {
		t.Errorf("end spec should be disabled: %+v", triple[FalloffEnd])
	}
}
