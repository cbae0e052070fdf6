package sink

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/peviz/pkg/fonts"
	"github.com/matzehuels/peviz/pkg/layout"
	"github.com/matzehuels/peviz/pkg/scene"
)

// Default viewport size in pixels.
const (
	DefaultWidth  = 1200.0
	DefaultHeight = 800.0
)

const (
	axisArrowRatio     = 0.15
	axisArrowHeadRatio = 0.4
	planeOpacity       = 0.025
)

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style   Style
	width   float64
	height  float64
	font    *fonts.Face
	grid    bool
	axes    bool
	heatmap bool
	title   bool
	consts  layout.Constants
}

// WithStyle sets the palette.
func WithStyle(s Style) SVGOption { return func(r *svgRenderer) { r.style = s } }

// WithSize sets the viewport size in pixels.
func WithSize(w, h float64) SVGOption {
	return func(r *svgRenderer) {
		if w > 0 && h > 0 {
			r.width, r.height = w, h
		}
	}
}

// WithFont embeds face as an @font-face rule so labels render identically
// without the font installed.
func WithFont(face *fonts.Face) SVGOption { return func(r *svgRenderer) { r.font = face } }

// WithConstants sets the scene dimensions used for grids and axes.
func WithConstants(c layout.Constants) SVGOption {
	return func(r *svgRenderer) { r.consts = c.WithDefaults() }
}

// WithoutGrid omits the three reference grids.
func WithoutGrid() SVGOption { return func(r *svgRenderer) { r.grid = false } }

// WithoutAxes omits the colored axis lines.
func WithoutAxes() SVGOption { return func(r *svgRenderer) { r.axes = false } }

// WithoutTitle omits the caption line.
func WithoutTitle() SVGOption { return func(r *svgRenderer) { r.title = false } }

// WithHeatmap adds a panel showing every dimension of the encoding matrix.
func WithHeatmap() SVGOption { return func(r *svgRenderer) { r.heatmap = true } }

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{
		style:  Dark,
		width:  DefaultWidth,
		height: DefaultHeight,
		grid:   true,
		axes:   true,
		title:  true,
		consts: layout.DefaultConstants(),
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG draws v in perspective from its camera. A nil v draws the empty
// scene from the default camera.
//
// Shapes are painted back to front by depth. Only the first three encoding
// components are drawn as geometry; [WithHeatmap] shows the rest.
func RenderSVG(v *scene.Visualization, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)

	c := r.consts
	cam := scene.Camera{Position: layout.DefaultCameraPosition(c), Target: layout.WorldOrigin, FOV: c.FOV}
	if v != nil {
		cam = v.Camera
	}
	proj := NewCamera(cam, r.width, r.height)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		r.width, r.height, r.width, r.height)

	r.renderDefs(&buf)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", r.style.Background)

	var dl drawList
	if r.grid {
		r.addGrids(&dl, proj, c)
	}
	if r.axes {
		r.addAxes(&dl, proj, c)
	}
	if v != nil {
		for _, p := range v.Placements {
			r.addPlacement(&dl, proj, p)
		}
	}
	dl.write(&buf)

	if v != nil && r.title {
		r.renderTitle(&buf, v)
	}
	if v != nil && r.heatmap {
		renderHeatmap(&buf, v, r)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r svgRenderer) fontFamily() string {
	if r.font != nil && r.font.Family() != fonts.FontFamily {
		return fmt.Sprintf("'%s', %s", r.font.Family(), fonts.FallbackFontFamily)
	}
	return fonts.FallbackFontFamily
}

func (r svgRenderer) renderDefs(buf *bytes.Buffer) {
	if r.font == nil {
		return
	}
	fmt.Fprintf(buf, "  <defs><style>@font-face { font-family: '%s'; src: url(data:font/ttf;base64,%s) format('truetype'); }</style></defs>\n",
		escapeXML(r.font.Family()), r.font.TTFBase64())
}

func (r svgRenderer) renderTitle(buf *bytes.Buffer, v *scene.Visualization) {
	fmt.Fprintf(buf, `  <text x="16" y="28" font-family="%s" font-size="16" fill="%s">%s</text>`+"\n",
		r.fontFamily(), r.style.Label,
		escapeXML(fmt.Sprintf("%s  (d_model=%d, %d tokens)", v.Sentence, v.DModel, len(v.Tokens))))
}

// addGrids draws the XZ, XY and YZ reference grids with faint planes.
func (r svgRenderer) addGrids(dl *drawList, cam Camera, c layout.Constants) {
	size := c.AxisLineLength * 2
	div := max(int(math.Floor(c.AxisLineLength))*2, 2)
	planes := [][2]r3.Vec{
		{{X: 1}, {Z: 1}}, // XZ
		{{X: 1}, {Y: 1}}, // XY
		{{Y: 1}, {Z: 1}}, // YZ
	}
	for _, pl := range planes {
		r.addPlane(dl, cam, pl[0], pl[1], size/2)
		r.addGrid(dl, cam, pl[0], pl[1], size, div)
	}
}

func (r svgRenderer) addPlane(dl *drawList, cam Camera, u, v r3.Vec, half float64) {
	corners := []r3.Vec{
		r3.Add(r3.Scale(-half, u), r3.Scale(-half, v)),
		r3.Add(r3.Scale(half, u), r3.Scale(-half, v)),
		r3.Add(r3.Scale(half, u), r3.Scale(half, v)),
		r3.Add(r3.Scale(-half, u), r3.Scale(half, v)),
	}
	pts := make([]Point, 0, len(corners))
	for _, c := range corners {
		p, ok := cam.Project(c)
		if !ok {
			return
		}
		pts = append(pts, p)
	}
	dl.add(cam.Depth(layout.WorldOrigin)+half, `  <polygon points="%s" fill="%s" fill-opacity="%.3f"/>`,
		pointList(pts), r.style.PlaneFill, planeOpacity)
}

func (r svgRenderer) addGrid(dl *drawList, cam Camera, u, v r3.Vec, size float64, div int) {
	half := size / 2
	step := size / float64(div)
	for i := 0; i <= div; i++ {
		t := -half + float64(i)*step
		color := r.style.GridLine
		if i == div/2 {
			color = r.style.GridCenter
		}
		r.addLine(dl, cam,
			r3.Add(r3.Scale(t, u), r3.Scale(-half, v)),
			r3.Add(r3.Scale(t, u), r3.Scale(half, v)),
			color, 1, r.style.GridOpacity)
		r.addLine(dl, cam,
			r3.Add(r3.Scale(t, v), r3.Scale(-half, u)),
			r3.Add(r3.Scale(t, v), r3.Scale(half, u)),
			color, 1, r.style.GridOpacity)
	}
}

func (r svgRenderer) addAxes(dl *drawList, cam Camera, c layout.Constants) {
	l := c.AxisLineLength
	arrowLen := l * axisArrowRatio
	headLen := arrowLen * axisArrowHeadRatio
	headWidth := headLen * 0.75
	units := [3]r3.Vec{{X: 1}, {Y: 1}, {Z: 1}}
	for i, u := range units {
		color := r.style.Axes[i]
		r.addLine(dl, cam, r3.Scale(-l, u), r3.Scale(l, u), color, 2, 1)
		for _, sign := range []float64{1, -1} {
			dir := r3.Scale(sign, u)
			r.addArrow(dl, cam, r3.Scale(l, dir), dir, arrowLen, headLen, headWidth, color)
		}
	}
}

func (r svgRenderer) addPlacement(dl *drawList, cam Camera, p layout.Placement) {
	a := p.Arrow
	r.addLine(dl, cam, p.Link.From, p.Link.To, r.style.Link, 1.5, r.style.LinkOpacity)
	r.addArrow(dl, cam, a.Origin, a.Direction, a.Length, a.HeadLength, a.HeadWidth, a.Color.Hex())
	r.addLabel(dl, cam, p.Label)
}

func (r svgRenderer) addLine(dl *drawList, cam Camera, a, b r3.Vec, color string, width, opacity float64) {
	pa, pb, ok := cam.ProjectSegment(a, b)
	if !ok {
		return
	}
	opacityAttr := ""
	if opacity < 1 {
		opacityAttr = fmt.Sprintf(` stroke-opacity="%.2f"`, opacity)
	}
	dl.add((pa.Depth+pb.Depth)/2, `  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.1f"%s/>`,
		pa.X, pa.Y, pb.X, pb.Y, color, width, opacityAttr)
}

// addArrow draws a shaft and a cone head whose length is included in length.
func (r svgRenderer) addArrow(dl *drawList, cam Camera, origin, dir r3.Vec, length, headLen, headWidth float64, color string) {
	base := r3.Add(origin, r3.Scale(length-headLen, dir))
	tip := r3.Add(origin, r3.Scale(length, dir))
	r.addLine(dl, cam, origin, base, color, 2, 1)

	pb, ok1 := cam.Project(base)
	pt, ok2 := cam.Project(tip)
	if !ok1 || !ok2 {
		return
	}
	halfW := headWidth / 2 * cam.Scale(pb.Depth)
	dx, dy := pt.X-pb.X, pt.Y-pb.Y
	n := math.Hypot(dx, dy)
	depth := (pb.Depth + pt.Depth) / 2
	if n < 1e-6 {
		dl.add(depth, `  <circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`, pt.X, pt.Y, halfW, color)
		return
	}
	nx, ny := -dy/n*halfW, dx/n*halfW
	dl.add(depth, `  <polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s"/>`,
		pb.X+nx, pb.Y+ny, pt.X, pt.Y, pb.X-nx, pb.Y-ny, color)
}

// addLabel draws text along the projected label baseline, scaled by depth.
func (r svgRenderer) addLabel(dl *drawList, cam Camera, l layout.Label) {
	start, ok := cam.Project(l.Position)
	if !ok {
		return
	}
	extent := math.Max(l.Width, l.Size)
	end, ok := cam.Project(r3.Add(l.Position, r3.Scale(extent, l.Forward())))
	if !ok {
		return
	}
	angle := math.Atan2(end.Y-start.Y, end.X-start.X) * 180 / math.Pi
	fontSize := l.Size * cam.Scale(start.Depth)

	lengthAttr := ""
	if l.Width > 0 {
		px := math.Hypot(end.X-start.X, end.Y-start.Y)
		lengthAttr = fmt.Sprintf(` textLength="%.2f" lengthAdjust="spacingAndGlyphs"`, px)
	}
	dl.add((start.Depth+end.Depth)/2,
		`  <text x="%.2f" y="%.2f" transform="rotate(%.2f %.2f %.2f)" font-family="%s" font-size="%.2f" fill="%s"%s>%s</text>`,
		start.X, start.Y, angle, start.X, start.Y, r.fontFamily(), fontSize, r.style.Label, lengthAttr, escapeXML(l.Text))
}

type shape struct {
	depth  float64
	markup string
}

// drawList collects shapes for painter's-order output.
type drawList []shape

func (d *drawList) add(depth float64, format string, args ...any) {
	*d = append(*d, shape{depth: depth, markup: fmt.Sprintf(format, args...)})
}

func (d drawList) write(buf *bytes.Buffer) {
	slices.SortStableFunc(d, func(a, b shape) int { return cmp.Compare(b.depth, a.depth) })
	for _, s := range d {
		buf.WriteString(s.markup)
		buf.WriteByte('\n')
	}
}

func pointList(pts []Point) string {
	var buf bytes.Buffer
	for i, p := range pts {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%.2f,%.2f", p.X, p.Y)
	}
	return buf.String()
}
