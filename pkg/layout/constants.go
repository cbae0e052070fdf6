package layout

import (
	"math"

	"github.com/matzehuels/peviz/pkg/errors"
)

// Constants are the scene dimensions shared by projection and view fitting.
// The zero value is not useful; start from [DefaultConstants].
type Constants struct {
	TextSize        float64 `toml:"text_size" json:"text_size"`
	TextHeight      float64 `toml:"text_height" json:"text_height"`
	LabelOffset     float64 `toml:"label_offset" json:"label_offset"` // fraction of TextSize
	ArrowLength     float64 `toml:"arrow_length" json:"arrow_length"`
	HeadLengthRatio float64 `toml:"head_length_ratio" json:"head_length_ratio"`
	HeadWidthRatio  float64 `toml:"head_width_ratio" json:"head_width_ratio"`
	OriginScale     float64 `toml:"origin_scale" json:"origin_scale"`
	AxisLineLength  float64 `toml:"axis_line_length" json:"axis_line_length"`
	FOV             float64 `toml:"fov" json:"fov"` // vertical field of view, degrees
}

// DefaultConstants returns the stock scene dimensions.
func DefaultConstants() Constants {
	const originScale = 5
	return Constants{
		TextSize:        0.4,
		TextHeight:      0.05,
		LabelOffset:     0.6,
		ArrowLength:     2.0,
		HeadLengthRatio: 0.2,
		HeadWidthRatio:  0.1,
		OriginScale:     originScale,
		AxisLineLength:  originScale * 1.5,
		FOV:             60,
	}
}

// FOVRadians returns the field of view in radians.
func (c Constants) FOVRadians() float64 { return c.FOV * math.Pi / 180 }

// WithDefaults returns c with zero fields taken from DefaultConstants.
func (c Constants) WithDefaults() Constants {
	d := DefaultConstants()
	fill := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&c.TextSize, d.TextSize)
	fill(&c.TextHeight, d.TextHeight)
	fill(&c.LabelOffset, d.LabelOffset)
	fill(&c.ArrowLength, d.ArrowLength)
	fill(&c.HeadLengthRatio, d.HeadLengthRatio)
	fill(&c.HeadWidthRatio, d.HeadWidthRatio)
	fill(&c.OriginScale, d.OriginScale)
	fill(&c.AxisLineLength, d.AxisLineLength)
	fill(&c.FOV, d.FOV)
	return c
}

// Validate rejects dimensions the projection and renderers cannot use.
// Zero fields are checked after taking their defaults.
func (c Constants) Validate() error {
	c = c.WithDefaults()
	fields := []struct {
		name string
		v    float64
	}{
		{"text_size", c.TextSize},
		{"text_height", c.TextHeight},
		{"label_offset", c.LabelOffset},
		{"arrow_length", c.ArrowLength},
		{"head_length_ratio", c.HeadLengthRatio},
		{"head_width_ratio", c.HeadWidthRatio},
		{"origin_scale", c.OriginScale},
		{"axis_line_length", c.AxisLineLength},
		{"fov", c.FOV},
	}
	for _, f := range fields {
		if f.v <= 0 || math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return errors.New(errors.ErrCodeInvalidInput, "layout %s must be a positive number, got %v", f.name, f.v)
		}
	}
	if c.AxisLineLength < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "layout axis_line_length must be at least 1, got %v", c.AxisLineLength)
	}
	if c.FOV >= 180 {
		return errors.New(errors.ErrCodeInvalidInput, "layout fov must be below 180 degrees, got %v", c.FOV)
	}
	return nil
}
