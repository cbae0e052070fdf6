// Package layout turns positional-encoding rows into camera-ready 3D
// placements.
//
// # Overview
//
// Each token becomes an arrow anchored at a point derived from its first
// three encoding components and pointing along the same components
// normalized. A text label lies along the arrow, and a faint segment links
// the arrow tip to the world origin:
//
//	records := layout.Project(tokens, matrix, layout.Options{Constants: layout.DefaultConstants()})
//	fit := layout.FitView(layout.Origins(records), layout.WorldOrigin, viewDir, fov, consts)
//
// Both functions are pure. Renderers consume the records and the [ViewFit];
// they own every rendering resource.
//
// # Degenerate Input
//
// A zero direction (the all-zero encoding prefix) falls back to a tiny
// upward vector before normalizing, so every [Placement] has a unit
// direction. A camera position that is non-finite or too close to the
// framed center falls back to a fixed offset scaled by the scene size.
//
// # Dimensions Beyond Three
//
// Only the first three encoding components reach 3D space. Higher
// dimensions are dropped for display.
package layout
