// Package armature defines the bone-graph data model shared by the metarig
// loader, the skin engine, and the chain generators: bones with rest
// transforms, declarative constraint and driver records, and the naming
// conventions used for derived mechanism bones.
package armature

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a 3D position or direction in scene units.
type Vec3 = mgl64.Vec3

// Quat is a rest-space orientation.
type Quat = mgl64.Quat

// PositionTolerance is the distance below which two points are treated as
// coincident when merging control nodes.
const PositionTolerance = 1e-5

// QuatIdent returns the identity orientation.
func QuatIdent() Quat {
	return mgl64.QuatIdent()
}

// SafeNormalize returns the unit vector along v, or the fallback direction
// when v is degenerate (shorter than the position tolerance).
func SafeNormalize(v, fallback Vec3) (Vec3, bool) {
	if v.Len() < PositionTolerance {
		return fallback, false
	}
	return v.Normalize(), true
}

// AverageQuat computes the symmetric mean of a set of orientations by
// component summation. Each input is first flipped into a canonical
// hemisphere so q and -q describe the same mean, which also makes the
// result independent of input order. An empty input yields the identity.
func AverageQuat(quats []Quat) Quat {
	var sum Quat
	for _, q := range quats {
		sum = sum.Add(canonicalHemisphere(q))
	}
	if sum.Len() < PositionTolerance {
		return QuatIdent()
	}
	return sum.Normalize()
}

// canonicalHemisphere flips q so its first non-zero component is positive.
func canonicalHemisphere(q Quat) Quat {
	for _, c := range [4]float64{q.W, q.V[0], q.V[1], q.V[2]} {
		if c > 0 {
			return q
		}
		if c < 0 {
			return Quat{W: -q.W, V: q.V.Mul(-1)}
		}
	}
	return q
}

// Clamp restricts v to the unit interval.
func Clamp(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// ProjectFactor projects point onto the axis from base along dir (unit
// vector) and returns the normalized position over the given length.
func ProjectFactor(point, base, dir Vec3, length float64) float64 {
	if length <= 0 {
		return 0
	}
	return point.Sub(base).Dot(dir) / length
}

// AngleBetween returns the angle in radians between two directions,
// treating degenerate inputs as parallel.
func AngleBetween(a, b Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la < PositionTolerance || lb < PositionTolerance {
		return 0
	}
	cos := a.Dot(b) / (la * lb)
	return math.Acos(math.Min(1, math.Max(-1, cos)))
}

// ChainOrientation computes the rest orientation for a chain of bones with
// the y axis running from the first head to the last tail and the x axis
// perpendicular to the primary plane the bones lie in. The firstBoneDir
// argument supplies the first bone's own axis used to pick that plane.
func ChainOrientation(firstHead, lastTail, firstBoneDir Vec3) Quat {
	yAxis, ok := SafeNormalize(lastTail.Sub(firstHead), Vec3{0, 1, 0})
	if !ok {
		yAxis = Vec3{0, 1, 0}
	}
	xAxis := firstBoneDir.Cross(yAxis)
	if xAxis.Len() < PositionTolerance {
		// Bones are parallel to the chain axis; fall back to an arbitrary
		// perpendicular frame.
		zAxis, _ := SafeNormalize(Vec3{1, 0, 0}.Cross(yAxis), Vec3{0, 0, 1})
		xAxis = yAxis.Cross(zAxis)
	} else {
		xAxis = xAxis.Normalize()
	}
	zAxis := xAxis.Cross(yAxis)
	m := mgl64.Mat3FromCols(xAxis, yAxis, zAxis)
	return mgl64.Mat4ToQuat(m.Mat4())
}
