package layout

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/peviz/pkg/posenc"
)

// TextMeasurer reports the rendered width of a label at a given text size.
type TextMeasurer interface {
	TextWidth(text string, size float64) float64
}

// Options configures [Project].
type Options struct {
	Constants Constants

	// Measurer sizes labels. Without one, labels have zero width and are
	// anchored at the arrow origin.
	Measurer TextMeasurer
}

// Arrow is a directed arrow primitive.
type Arrow struct {
	Origin     r3.Vec  `json:"origin"`
	Direction  r3.Vec  `json:"direction"`
	Length     float64 `json:"length"`
	HeadLength float64 `json:"head_length"`
	HeadWidth  float64 `json:"head_width"`
	Color      Color   `json:"color"`
}

// Tip returns the arrow's end point.
func (a Arrow) Tip() r3.Vec { return r3.Add(a.Origin, r3.Scale(a.Length, a.Direction)) }

// Segment is a straight line between two points.
type Segment struct {
	From r3.Vec `json:"from"`
	To   r3.Vec `json:"to"`
}

// Label is an oriented text placement. Position is the label's local
// origin (start of the baseline); Rotation maps local +X onto the arrow
// direction.
type Label struct {
	Text     string      `json:"text"`
	Position r3.Vec      `json:"position"`
	Rotation quat.Number `json:"rotation"`
	Width    float64     `json:"width"`
	Size     float64     `json:"size"`
	Depth    float64     `json:"depth"`
}

// Forward returns the label's baseline direction in world space.
func (l Label) Forward() r3.Vec { return Rotate(l.Rotation, unitX) }

// Up returns the label's rotated up axis in world space.
func (l Label) Up() r3.Vec { return Rotate(l.Rotation, unitY) }

// Placement is the geometric description of one token.
type Placement struct {
	Position  int     `json:"position"`
	Token     string  `json:"token"`
	Origin    r3.Vec  `json:"origin"`
	Direction r3.Vec  `json:"direction"`
	Color     Color   `json:"color"`
	Arrow     Arrow   `json:"arrow"`
	Label     Label   `json:"label"`
	Link      Segment `json:"link"` // arrow tip to world origin
}

// Project builds one Placement per token. Token pos reads row pos of m;
// rows missing from m contribute zero components.
func Project(tokens []string, m posenc.Matrix, opts Options) []Placement {
	c := opts.Constants.WithDefaults()
	out := make([]Placement, len(tokens))
	for pos, tok := range tokens {
		var row []float64
		if pos < m.Rows() {
			row = m.Row(pos)
		}
		out[pos] = place(pos, tok, row, c, opts.Measurer)
	}
	return out
}

func place(pos int, token string, v []float64, c Constants, tm TextMeasurer) Placement {
	raw := r3.Vec{X: component(v, 0, 0), Y: component(v, 1, 0), Z: component(v, 2, 0)}
	origin := r3.Scale(c.OriginScale, raw)

	if r3.Norm2(raw) == 0 {
		raw = fallbackDirection
	}
	dir := r3.Unit(raw)
	color := encodingColor(v)

	arrow := Arrow{
		Origin:     origin,
		Direction:  dir,
		Length:     c.ArrowLength,
		HeadLength: c.ArrowLength * c.HeadLengthRatio,
		HeadWidth:  c.ArrowLength * c.HeadWidthRatio,
		Color:      color,
	}

	return Placement{
		Position:  pos,
		Token:     token,
		Origin:    origin,
		Direction: dir,
		Color:     color,
		Arrow:     arrow,
		Label:     placeLabel(token, origin, dir, c, tm),
		Link:      Segment{From: arrow.Tip(), To: WorldOrigin},
	}
}

// placeLabel aligns the label baseline with dir, centers it on origin and
// lifts it off the arrow along its rotated up axis.
func placeLabel(text string, origin, dir r3.Vec, c Constants, tm TextMeasurer) Label {
	var width float64
	if tm != nil {
		width = tm.TextWidth(text, c.TextSize)
	}
	rot := FromUnitVectors(unitX, dir)
	up := Rotate(rot, unitY)

	p := r3.Add(origin, r3.Scale(-width/2, dir))
	p = r3.Add(p, r3.Scale(c.TextSize*c.LabelOffset, up))

	return Label{
		Text:     text,
		Position: p,
		Rotation: rot,
		Width:    width,
		Size:     c.TextSize,
		Depth:    c.TextHeight,
	}
}

// Origins returns the arrow origins of ps in order.
func Origins(ps []Placement) []r3.Vec {
	out := make([]r3.Vec, len(ps))
	for i, p := range ps {
		out[i] = p.Origin
	}
	return out
}
