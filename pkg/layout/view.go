package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ViewFit is a camera framing for a set of points.
type ViewFit struct {
	Center         r3.Vec  `json:"center"`
	CameraPosition r3.Vec  `json:"camera_position"`
	CameraDistance float64 `json:"camera_distance"`
	MaxDim         float64 `json:"max_dim"`
}

// DefaultCameraPosition is where the camera starts before any fit.
func DefaultCameraPosition(c Constants) r3.Vec {
	c = c.WithDefaults()
	s := c.OriginScale
	return r3.Vec{X: s * 1.5, Y: s * 1.5, Z: s * 3}
}

// ViewDirection returns the unit direction a camera at pos looking at target
// faces. A camera sitting on its target yields the zero vector.
func ViewDirection(pos, target r3.Vec) r3.Vec {
	d := r3.Sub(target, pos)
	if r3.Norm2(d) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(d)
}

// FitView frames origins together with worldOrigin. viewDir is the camera's
// current viewing direction; the camera is moved back against it. fov is the
// vertical field of view in radians.
//
// CameraDistance is the fitted distance even when the degeneracy guard
// relocates the camera.
func FitView(origins []r3.Vec, worldOrigin, viewDir r3.Vec, fov float64, c Constants) ViewFit {
	c = c.WithDefaults()
	axis := c.AxisLineLength

	if len(origins) == 0 {
		pos := r3.Vec{Y: axis * 0.5, Z: axis * 1.5}
		return ViewFit{
			Center:         worldOrigin,
			CameraPosition: pos,
			CameraDistance: Distance(pos, worldOrigin),
			MaxDim:         axis,
		}
	}

	b := newBounds()
	for _, o := range origins {
		b.expandByPoint(o)
	}
	b.expandByPoint(worldOrigin)
	b.expandByScalar(math.Max(c.ArrowLength, c.TextSize*5))

	center := b.center()
	size := b.size()
	maxDim := math.Max(math.Max(size.X, size.Y), math.Max(size.Z, axis))

	dist := math.Abs(maxDim / (2 * math.Tan(fov/2)))
	dist = math.Max(dist, axis*1.2) * 2.0

	dir := defaultViewDirection
	if r3.Norm2(viewDir) != 0 {
		dir = r3.Scale(-1, viewDir)
	}
	pos := r3.Add(center, r3.Scale(dist, dir))

	if !IsFinite(pos) || Distance(pos, center) < axis*0.5 {
		pos = r3.Vec{
			X: center.X + maxDim*0.7,
			Y: center.Y + maxDim*0.7,
			Z: center.Z + maxDim*1.5 + c.ArrowLength,
		}
	}

	return ViewFit{
		Center:         center,
		CameraPosition: pos,
		CameraDistance: dist,
		MaxDim:         maxDim,
	}
}
