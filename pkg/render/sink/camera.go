package sink

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/peviz/pkg/layout"
	"github.com/matzehuels/peviz/pkg/scene"
)

// nearPlane matches the viewer's perspective camera.
const nearPlane = 0.1

// Point is a projected point in viewport pixels. Depth is the distance in
// front of the camera along its viewing axis.
type Point struct {
	X, Y, Depth float64
}

// Camera projects world coordinates onto a width×height viewport.
type Camera struct {
	pos                 r3.Vec
	right, up, forward  r3.Vec
	focal               float64
	halfWidth, halfHigh float64
}

// NewCamera builds a perspective projection for c. Y is up in world space
// and down in the viewport.
func NewCamera(c scene.Camera, width, height float64) Camera {
	fov := c.FOV
	if fov <= 0 {
		fov = layout.DefaultConstants().FOV
	}

	forward := c.Direction()
	if r3.Norm2(forward) == 0 {
		forward = r3.Vec{Z: -1}
	}
	worldUp := r3.Vec{Y: 1}
	if math.Abs(r3.Dot(forward, worldUp)) > 0.999999 {
		worldUp = r3.Vec{Z: -1}
	}
	right := r3.Unit(r3.Cross(forward, worldUp))
	up := r3.Cross(right, forward)

	return Camera{
		pos:       c.Position,
		right:     right,
		up:        up,
		forward:   forward,
		focal:     (height / 2) / math.Tan(fov*math.Pi/360),
		halfWidth: width / 2,
		halfHigh:  height / 2,
	}
}

// Depth returns how far p lies in front of the camera.
func (c Camera) Depth(p r3.Vec) float64 {
	return r3.Dot(r3.Sub(p, c.pos), c.forward)
}

// Project maps p to viewport pixels. ok is false for points behind the near
// plane.
func (c Camera) Project(p r3.Vec) (Point, bool) {
	if c.Depth(p) < nearPlane {
		return Point{}, false
	}
	return c.project(p), true
}

func (c Camera) project(p r3.Vec) Point {
	d := r3.Sub(p, c.pos)
	z := r3.Dot(d, c.forward)
	s := c.focal / z
	return Point{
		X:     c.halfWidth + r3.Dot(d, c.right)*s,
		Y:     c.halfHigh - r3.Dot(d, c.up)*s,
		Depth: z,
	}
}

// Scale returns pixels per world unit at depth.
func (c Camera) Scale(depth float64) float64 {
	if depth < nearPlane {
		depth = nearPlane
	}
	return c.focal / depth
}

// ProjectSegment projects a line segment, clipping it against the near plane.
func (c Camera) ProjectSegment(a, b r3.Vec) (Point, Point, bool) {
	za, zb := c.Depth(a), c.Depth(b)
	if za < nearPlane && zb < nearPlane {
		return Point{}, Point{}, false
	}
	if za < nearPlane {
		a = r3.Add(a, r3.Scale((nearPlane-za)/(zb-za), r3.Sub(b, a)))
	} else if zb < nearPlane {
		b = r3.Add(b, r3.Scale((nearPlane-zb)/(za-zb), r3.Sub(a, b)))
	}
	return c.project(a), c.project(b), true
}
