package armature

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func quatsClose(a, b Quat) bool {
	// q and -q are the same rotation.
	d := math.Abs(a.Dot(b))
	return d > 1-1e-9
}

func TestAverageQuatIdentity(t *testing.T) {
	if got := AverageQuat(nil); !quatsClose(got, QuatIdent()) {
		t.Errorf("empty average = %+v, want identity", got)
	}
	q := mgl64.QuatRotate(1.2, Vec3{0, 1, 0})
	if got := AverageQuat([]Quat{q}); !quatsClose(got, q) {
		t.Errorf("single average = %+v, want input", got)
	}
}

func TestAverageQuatSymmetricPair(t *testing.T) {
	l := mgl64.QuatRotate(math.Pi/5, Vec3{0, 0, 1})
	r := mgl64.QuatRotate(-math.Pi/5, Vec3{0, 0, 1})
	if got := AverageQuat([]Quat{l, r}); !quatsClose(got, QuatIdent()) {
		t.Errorf("symmetric average = %+v, want identity", got)
	}
}

func TestAverageQuatHemisphereAndOrder(t *testing.T) {
	a := mgl64.QuatRotate(0.4, Vec3{1, 0, 0})
	b := mgl64.QuatRotate(0.9, Vec3{1, 0, 0})
	neg := Quat{W: -b.W, V: b.V.Mul(-1)}

	plain := AverageQuat([]Quat{a, b})
	flipped := AverageQuat([]Quat{a, neg})
	if !quatsClose(plain, flipped) {
		t.Error("negated input changed the averaged rotation")
	}
	reordered := AverageQuat([]Quat{b, a})
	if !quatsClose(plain, reordered) {
		t.Error("input order changed the averaged rotation")
	}
}

func TestSafeNormalize(t *testing.T) {
	v, ok := SafeNormalize(Vec3{3, 0, 0}, Vec3{0, 0, 1})
	if !ok || v != (Vec3{1, 0, 0}) {
		t.Errorf("SafeNormalize(3,0,0) = %v ok=%v", v, ok)
	}
	v, ok = SafeNormalize(Vec3{}, Vec3{0, 0, 1})
	if ok || v != (Vec3{0, 0, 1}) {
		t.Errorf("degenerate SafeNormalize = %v ok=%v, want fallback", v, ok)
	}
}

func TestClamp(t *testing.T) {
	cases := map[float64]float64{-1: 0, 0: 0, 0.5: 0.5, 1: 1, 2: 1}
	for in, want := range cases {
		if got := Clamp(in); got != want {
			t.Errorf("Clamp(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestProjectFactor(t *testing.T) {
	base := Vec3{1, 0, 0}
	dir := Vec3{0, 1, 0}
	if got := ProjectFactor(Vec3{1, 2, 0}, base, dir, 4); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("ProjectFactor = %v, want 0.5", got)
	}
	if got := ProjectFactor(Vec3{1, 2, 0}, base, dir, 0); got != 0 {
		t.Errorf("zero length ProjectFactor = %v, want 0", got)
	}
}

func TestAngleBetween(t *testing.T) {
	if got := AngleBetween(Vec3{1, 0, 0}, Vec3{0, 1, 0}); math.Abs(got-math.Pi/2) > 1e-12 {
		t.Errorf("perpendicular angle = %v", got)
	}
	if got := AngleBetween(Vec3{1, 0, 0}, Vec3{-2, 0, 0}); math.Abs(got-math.Pi) > 1e-12 {
		t.Errorf("opposite angle = %v", got)
	}
	if got := AngleBetween(Vec3{}, Vec3{1, 0, 0}); got != 0 {
		t.Errorf("degenerate angle = %v, want 0", got)
	}
}

func TestChainOrientationAimsY(t *testing.T) {
	q := ChainOrientation(Vec3{0, 0, 0}, Vec3{0, 0, 2}, Vec3{0, 0, 1})
	y := q.Rotate(Vec3{0, 1, 0})
	if y.Sub(Vec3{0, 0, 1}).Len() > 1e-9 {
		t.Errorf("chain y axis = %v, want +z", y)
	}
	// The frame must be orthonormal.
	x := q.Rotate(Vec3{1, 0, 0})
	if math.Abs(x.Dot(y)) > 1e-9 || math.Abs(x.Len()-1) > 1e-9 {
		t.Errorf("x axis %v not orthonormal to y %v", x, y)
	}
}

func TestChainOrientationDegenerate(t *testing.T) {
	// Zero-length chain falls back to a valid frame.
	q := ChainOrientation(Vec3{1, 1, 1}, Vec3{1, 1, 1}, Vec3{0, 1, 0})
	if math.Abs(q.Len()-1) > 1e-9 {
		t.Errorf("degenerate orientation not normalized: %+v", q)
	}
}
