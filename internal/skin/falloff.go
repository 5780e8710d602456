// Package skin implements the control-merging and deformation-propagation
// engine: chain generators register control nodes into a shared registry,
// ownership of merged nodes is resolved by a deterministic total order, and
// chain mechanisms propagate influence along bone chains with configurable
// falloff curves.
package skin

import (
	"math"

	"rigcore/pkg/armature"
)

// DisabledFalloff is the sentinel exponent meaning no propagation from a
// chain end.
const DisabledFalloff = -10

// FalloffSpec configures the influence curve of one chain end.
type FalloffSpec struct {
	// Exponent widens the curve; 0 is linear, -10 disables the end.
	Exponent float64
	// Spherical makes the curve circular at exponent 1 instead of
	// parabolic.
	Spherical bool
}

// Enabled reports whether this end propagates influence at all.
func (f FalloffSpec) Enabled() bool {
	return f.Exponent > DisabledFalloff
}

// Weight evaluates the influence at proximity factor in [0,1], where 1 is
// at the driving control and 0 at the far end of its range. Pure function;
// callers must check Enabled first, a disabled spec weighs nothing.
func (f FalloffSpec) Weight(factor float64) float64 {
	if !f.Enabled() {
		return 0
	}
	factor = armature.Clamp(factor)
	if f.Spherical {
		if f.Exponent >= 0 {
			p := math.Exp2(f.Exponent)
			return math.Pow(1-math.Pow(1-factor, p), 1/p)
		}
		p := math.Exp2(-f.Exponent)
		return 1 - math.Pow(1-math.Pow(factor, p), 1/p)
	}
	return 1 - math.Pow(1-factor, math.Exp2(f.Exponent))
}

// FalloffTriple is the start/middle/end falloff configuration of a chain.
type FalloffTriple [3]FalloffSpec

// Falloff end indices into a FalloffTriple.
const (
	FalloffStart = 0
	FalloffMid   = 1
	FalloffEnd   = 2
)

// NewFalloffTriple assembles a triple from parallel exponent and shape
// arrays, the form carried by metarig parameters.
func NewFalloffTriple(exponents [3]float64, spherical [3]bool) FalloffTriple {
	var t FalloffTriple
	for i := range t {
		t[i] = FalloffSpec{Exponent: exponents[i], Spherical: spherical[i]}
	}
	return t
}
