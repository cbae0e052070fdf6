package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/peviz/pkg/cache"
	"github.com/matzehuels/peviz/pkg/fonts"
	"github.com/matzehuels/peviz/pkg/observability"
	"github.com/matzehuels/peviz/pkg/render/sink"
	"github.com/matzehuels/peviz/pkg/scene"
)

const cacheKeyType = "artifact"

// Runner encapsulates pipeline execution with caching.
// CLI, TUI and server all use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, font and logger. Every
// Execute builds its own scene, so multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Fonts  *fonts.Loader
	Logger *log.Logger

	// TTL is how long rendered artifacts stay cached. Zero means
	// cache.ArtifactTTL.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache, keyer and font loader.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If font is nil, the embedded font is loaded.
func NewRunner(c cache.Cache, keyer cache.Keyer, font *fonts.Loader, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if font == nil {
		font = fonts.Load(fonts.Embedded())
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Fonts:  font,
		Logger: logger,
	}
}

// Execute runs the complete visualize → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Visualize
	visualizeStart := time.Now()
	v, err := r.Visualize(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Visualization = v
	result.Stats.Tokens = len(v.Tokens)
	result.Stats.DModel = v.DModel
	result.Stats.VisualizeTime = time.Since(visualizeStart)

	opts.Logger.Info("visualized sentence",
		"tokens", len(v.Tokens),
		"d_model", v.DModel,
		"duration", result.Stats.VisualizeTime)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, v, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Visualize builds a visualization on a fresh scene.
func (r *Runner) Visualize(ctx context.Context, opts Options) (*scene.Visualization, error) {
	if err := opts.ValidateForVisualize(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnVisualizeStart(ctx, opts.DModel)
	start := time.Now()

	s := scene.New(r.Fonts, scene.WithConstants(opts.Constants))
	v, err := s.Visualize(ctx, opts.Sentence, opts.DModel)

	tokens := 0
	if v != nil {
		tokens = len(v.Tokens)
	}
	hooks.OnVisualizeComplete(ctx, opts.DModel, tokens, time.Since(start), err)
	return v, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, v *scene.Visualization, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	if v != nil {
		opts.Sentence, opts.DModel = v.Sentence, v.DModel
	}
	opts.Constants = opts.Constants.WithDefaults()

	face, _ := r.Fonts.Face()
	fontName := r.Fonts.Source().Name()

	hooks := observability.Cache()

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(opts.ArtifactKeyOpts(format, fontName))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil {
				opts.Logger.Warn("cache read failed", "format", format, "error", err)
			}
			if err != nil || !hit {
				hooks.OnCacheMiss(ctx, cacheKeyType)
				break
			}
			hooks.OnCacheHit(ctx, cacheKeyType)
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) && r.restamp(artifacts, v, opts) {
			return artifacts, true, nil
		}
	}

	// Render all formats
	pipelineHooks := observability.Pipeline()
	pipelineHooks.OnRenderStart(ctx, opts.VizType, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, v, face, opts)
	pipelineHooks.OnRenderComplete(ctx, opts.VizType, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(opts.ArtifactKeyOpts(format, fontName))
		if err := r.Cache.Set(ctx, key, data, r.ttl()); err != nil {
			opts.Logger.Debug("cache write failed", "format", format, "error", err)
			continue
		}
		hooks.OnCacheSet(ctx, cacheKeyType, len(data))
	}

	return rendered, false, nil
}

// restamp points a cached JSON document at v, which has a fresh ID. It
// reports false when the cached document is unreadable and must be rendered.
func (r *Runner) restamp(artifacts map[string][]byte, v *scene.Visualization, opts Options) bool {
	data, ok := artifacts[FormatJSON]
	if !ok || v == nil {
		return true
	}
	stamped, err := sink.StampJSON(data, v)
	if err != nil {
		opts.Logger.Warn("cached json unreadable", "error", err)
		return false
	}
	artifacts[FormatJSON] = stamped
	return true
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, v *scene.Visualization, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, v, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.ArtifactTTL
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
