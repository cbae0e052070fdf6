// Package sink provides output format renderers for visualizations.
//
// # Overview
//
// A "sink" transforms a [scene.Visualization] into a final output format:
//
//   - SVG: perspective drawing of the 3D scene
//   - Chain: Graphviz diagram of the token sequence
//   - JSON: scene data for WebGL clients
//   - PDF/PNG: conversions of the scene SVG (requires rsvg-convert)
//
// # Scene SVG
//
// [RenderSVG] projects the scene through the visualization's camera and
// paints shapes back to front:
//
//   - three faint reference grids (XZ, XY, YZ) with translucent planes
//   - colored axis lines with arrowheads at both ends
//   - one arrow per token, colored by its encoding
//   - a faint link from each arrow tip to the world origin
//   - labels laid along the projected arrow direction
//
// Basic usage:
//
//	svg := sink.RenderSVG(v,
//	    sink.WithStyle(sink.Light),
//	    sink.WithFont(face),
//	    sink.WithHeatmap(),
//	)
//
// # Chain Diagram
//
// [ToDOT] lays the tokens out as a left-to-right chain and [RenderChainSVG]
// runs Graphviz on it:
//
//	dot := sink.ToDOT(v, sink.ChainOptions{Detailed: true})
//	svg, err := sink.RenderChainSVG(ctx, dot)
//
// # Canvas
//
// [Canvas] implements [scene.Renderer] by keeping the SVG of the latest
// visualization, for callers that want the drawing to follow the scene.
//
// [scene.Visualization]: github.com/matzehuels/peviz/pkg/scene.Visualization
// [scene.Renderer]: github.com/matzehuels/peviz/pkg/scene.Renderer
package sink
