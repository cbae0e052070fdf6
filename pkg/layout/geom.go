package layout

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// WorldOrigin is the coordinate origin every token links back to.
	WorldOrigin = r3.Vec{}

	// unitX is a label's local baseline axis.
	unitX = r3.Vec{X: 1}

	// unitY is a label's local up axis.
	unitY = r3.Vec{Y: 1}

	// fallbackDirection replaces a zero direction before normalizing.
	fallbackDirection = r3.Vec{Y: 0.01}

	// defaultViewDirection is used when the current view direction is zero.
	defaultViewDirection = r3.Unit(r3.Vec{X: 0.5, Y: 0.5, Z: 1})
)

// Identity is the rotation that leaves vectors unchanged.
var Identity = quat.Number{Real: 1}

// Rotate applies the unit quaternion q to v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// FromUnitVectors returns the shortest-arc rotation taking unit vector from
// onto unit vector to. Opposite vectors rotate half a turn about an axis
// orthogonal to from.
func FromUnitVectors(from, to r3.Vec) quat.Number {
	const eps = 1e-12
	var q quat.Number
	if w := r3.Dot(from, to) + 1; w < eps {
		if math.Abs(from.X) > math.Abs(from.Z) {
			q = quat.Number{Imag: -from.Y, Jmag: from.X}
		} else {
			q = quat.Number{Jmag: -from.Z, Kmag: from.Y}
		}
	} else {
		c := r3.Cross(from, to)
		q = quat.Number{Real: w, Imag: c.X, Jmag: c.Y, Kmag: c.Z}
	}
	return quat.Scale(1/quat.Abs(q), q)
}

// IsFinite reports whether every component of v is finite.
func IsFinite(v r3.Vec) bool {
	for _, c := range [...]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b r3.Vec) float64 { return r3.Norm(r3.Sub(a, b)) }

// component returns v[i], or def when v is too short.
func component(v []float64, i int, def float64) float64 {
	if i < len(v) {
		return v[i]
	}
	return def
}

// bounds is an axis-aligned bounding box that starts empty.
type bounds struct {
	min, max r3.Vec
	empty    bool
}

func newBounds() bounds { return bounds{empty: true} }

func (b *bounds) expandByPoint(p r3.Vec) {
	if b.empty {
		b.min, b.max, b.empty = p, p, false
		return
	}
	b.min = r3.Vec{X: math.Min(b.min.X, p.X), Y: math.Min(b.min.Y, p.Y), Z: math.Min(b.min.Z, p.Z)}
	b.max = r3.Vec{X: math.Max(b.max.X, p.X), Y: math.Max(b.max.Y, p.Y), Z: math.Max(b.max.Z, p.Z)}
}

func (b *bounds) expandByScalar(s float64) {
	d := r3.Vec{X: s, Y: s, Z: s}
	b.min = r3.Sub(b.min, d)
	b.max = r3.Add(b.max, d)
}

func (b bounds) center() r3.Vec { return r3.Scale(0.5, r3.Add(b.min, b.max)) }

func (b bounds) size() r3.Vec { return r3.Sub(b.max, b.min) }
