package sink

import (
	"bytes"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/peviz/pkg/layout"
	"github.com/matzehuels/peviz/pkg/scene"
)

const (
	heatmapMargin  = 16.0
	heatmapMaxCell = 12.0
	heatmapMinCell = 1.0
	heatmapMaxFrac = 0.4 // of viewport width and height
)

// renderHeatmap draws the full encoding matrix as a grid of cells, rows by
// position and columns by dimension, in the bottom-left corner.
func renderHeatmap(buf *bytes.Buffer, v *scene.Visualization, r svgRenderer) {
	m := v.Matrix.Dense()
	if m == nil {
		return
	}
	rows, cols := m.Dims()

	cell := math.Min(r.width*heatmapMaxFrac/float64(cols), r.height*heatmapMaxFrac/float64(rows))
	cell = math.Max(heatmapMinCell, math.Min(heatmapMaxCell, cell))
	w, h := cell*float64(cols), cell*float64(rows)
	x0 := heatmapMargin
	y0 := r.height - heatmapMargin - h

	fmt.Fprintf(buf, `  <g class="heatmap">`+"\n")
	fmt.Fprintf(buf, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="%s" stroke-opacity="0.5"/>`+"\n",
		x0-1, y0-1, w+2, h+2, r.style.GridCenter)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			fmt.Fprintf(buf, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
				x0+float64(j)*cell, y0+float64(i)*cell, cell, cell, divergingColor(m.At(i, j)).Hex())
		}
	}
	fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" font-family="%s" font-size="11" fill="%s">%s</text>`+"\n",
		x0, y0-6, r.fontFamily(), r.style.Label,
		escapeXML(fmt.Sprintf("PE %d×%d  min %.3f  max %.3f", rows, cols, mat.Min(m), mat.Max(m))))
	buf.WriteString("  </g>\n")
}

// divergingColor maps [-1, 1] to blue, white, red.
func divergingColor(v float64) layout.Color {
	v = math.Max(-1, math.Min(1, v))
	if v < 0 {
		return layout.ColorFromRGB(1+v, 1+v, 1)
	}
	return layout.ColorFromRGB(1, 1-v, 1-v)
}
