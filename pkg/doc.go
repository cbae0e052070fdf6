// Package pkg provides the core libraries for peviz, a visualizer for
// sinusoidal positional encodings.
//
// # Overview
//
// peviz places each token of a sentence in 3D: an origin on a circle in the
// XZ plane, an arrow along the first three components of the token's
// positional encoding, and a text label oriented along the arrow. A camera is
// fitted so the whole arrangement stays in view.
//
// # Architecture
//
// The data flow through peviz:
//
//	sentence
//	   ↓
//	[posenc]  tokenize + encoding matrix
//	   ↓
//	[layout]  placements + view fit
//	   ↓
//	[scene]   current visualization, camera, renderer handoff
//	   ↓
//	[render/sink]  SVG, PNG, PDF, JSON, Graphviz chain
//
// [pipeline] wraps these stages with validation, defaults and caching for the
// CLI, the terminal playground and the HTTP server.
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, fonts.Load(fonts.Embedded()), nil)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Sentence: "the quick brown fox",
//	    DModel:   16,
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("fox.svg", result.Artifacts["svg"], 0o644)
//
// # Main Packages
//
// [posenc] - Whitespace tokenization and the sinusoidal encoding matrix.
//
// [layout] - Pure geometry: token origins, arrows, label orientation and
// camera fitting.
//
// [scene] - The mutable visualization context. Serializes visualize calls and
// hands complete records to a [scene.Renderer].
//
// [fonts] - Asynchronously loaded monospace font with text metrics.
//
// [render/sink] - Output formats. [render] converts SVG to PDF and PNG.
//
// [cache] - Artifact caching (file, Redis, null).
//
// [config] - TOML configuration.
//
// [errors] - Coded errors and input validation.
//
// [observability] - Metrics and logging hooks.
package pkg
