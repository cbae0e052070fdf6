// Package scene holds the visualizer state for one session.
//
// A [Scene] owns the single mutable resource of the system: the current
// [Visualization]. Each call to [Scene.Visualize] tokenizes a sentence,
// computes its positional encoding, projects it into 3D placements and fits
// the camera around them. The result replaces the previous visualization
// through the [Renderer] collaborator, which is always told to release the
// old record set before receiving the new one.
//
// # Failure Handling
//
// Visualize fails without computing anything when:
//   - the font has not finished loading (ASSET_PENDING)
//   - the font failed to load (ASSET_UNAVAILABLE, terminal)
//   - the sentence is empty or yields no tokens (EMPTY_INPUT, NO_TOKENS)
//
// Asset errors leave the current visualization untouched. Input errors clear
// it. Numeric degeneracies such as zero-length directions are corrected by
// the layout package and never surface as errors.
//
// # Camera
//
// The scene tracks a camera position and target. Each successful visualize
// keeps the current viewing direction and moves the camera back along it to
// frame the new placements, as an orbit-controlled viewer would.
package scene
