// Package render turns visualizations into image artifacts.
//
// # Overview
//
// The renderers live in the [sink] subpackage:
//
//   - Scene: perspective SVG of the 3D arrows, labels, grid and axes
//   - Chain: Graphviz diagram of the token sequence and its encoding
//   - JSON: scene description for three.js style front ends
//   - PDF/PNG: conversions of either SVG
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG to other formats using the external
// rsvg-convert tool (from librsvg). When the tool is missing they return an
// UNSUPPORTED error.
//
//	svg := sink.RenderSVG(v)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [sink]: github.com/matzehuels/peviz/pkg/render/sink
package render
