package layout

import (
	"fmt"
	"math"
)

// Color is a packed 24-bit RGB value (0xRRGGBB).
type Color uint32

// ColorFromRGB packs channels in [0, 1], clamping out-of-range values.
func ColorFromRGB(r, g, b float64) Color {
	ch := func(v float64) uint32 {
		return uint32(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return Color(ch(r)<<16 | ch(g)<<8 | ch(b))
}

// RGB returns the channels in [0, 1].
func (c Color) RGB() (r, g, b float64) {
	return float64(c>>16&0xff) / 255, float64(c>>8&0xff) / 255, float64(c&0xff) / 255
}

// Hex returns the CSS form, e.g. "#80ff80".
func (c Color) Hex() string { return fmt.Sprintf("#%06x", uint32(c)&0xffffff) }

// encodingColor maps the first three components of v from [-1, 1] to RGB.
// Absent components map to the 0.5 midpoint.
func encodingColor(v []float64) Color {
	ch := func(i int) float64 {
		if i < len(v) {
			return 0.5 + 0.5*v[i]
		}
		return 0.5
	}
	return ColorFromRGB(ch(0), ch(1), ch(2))
}
