// Package pipeline provides the visualize → render pipeline for peviz.
//
// This package implements the complete sentence → scene → artifacts flow used
// by the CLI, the terminal playground and the HTTP server. By centralizing
// this logic, every entry point validates, defaults and caches the same way.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Visualize: tokenize, encode, project and fit the camera (pure, cheap)
//  2. Render: draw the requested formats (SVG, PNG, PDF, JSON), cached
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, fonts.Load(fonts.Embedded()), logger)
//	opts := pipeline.Options{
//	    Sentence: "the quick brown fox",
//	    DModel:   16,
//	    Formats:  []string{"svg", "json"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/peviz/pkg/cache"
	"github.com/matzehuels/peviz/pkg/errors"
	"github.com/matzehuels/peviz/pkg/layout"
	"github.com/matzehuels/peviz/pkg/posenc"
	"github.com/matzehuels/peviz/pkg/render/sink"
	"github.com/matzehuels/peviz/pkg/scene"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, TUI, and Server
// =============================================================================

const (
	// DefaultDModel is the embedding dimension used when none is given.
	DefaultDModel = posenc.DefaultDModel

	// DefaultWidth is the default viewport width in pixels.
	DefaultWidth = sink.DefaultWidth

	// DefaultHeight is the default viewport height in pixels.
	DefaultHeight = sink.DefaultHeight

	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// DefaultStyle is the default palette.
	DefaultStyle = sink.StyleDark
)

// Visualization types.
const (
	VizTypeScene = "scene"
	VizTypeChain = "chain"
)

// DefaultVizType is the default visualization type.
const DefaultVizType = VizTypeScene

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// ValidStyles is the set of supported palettes.
var ValidStyles = map[string]bool{
	sink.StyleDark:  true,
	sink.StyleLight: true,
}

// ValidVizTypes is the set of supported visualization types.
var ValidVizTypes = map[string]bool{
	VizTypeScene: true,
	VizTypeChain: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the visualization pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Visualize options
	Sentence string `json:"sentence"`
	DModel   int    `json:"d_model,omitempty"`

	// Render options
	VizType   string   `json:"viz_type,omitempty"`
	Formats   []string `json:"formats,omitempty"`
	Style     string   `json:"style,omitempty"`
	Width     float64  `json:"width,omitempty"`
	Height    float64  `json:"height,omitempty"`
	Scale     float64  `json:"scale,omitempty"`
	Heatmap   bool     `json:"heatmap,omitempty"`
	EmbedFont bool     `json:"embed_font,omitempty"`
	Detailed  bool     `json:"detailed,omitempty"` // chain nodes show directions
	Refresh   bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Constants layout.Constants `json:"-"`
	Logger    *log.Logger      `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Visualization is the computed scene.
	Visualization *scene.Visualization

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Tokens        int
	DModel        int
	VisualizeTime time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for the render stage.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is valid.
func ValidateStyle(style string) error {
	if !ValidStyles[style] {
		return errors.New(errors.ErrCodeInvalidStyle, "invalid style: %q (must be one of: %s)",
			style, strings.Join(sink.StyleNames(), ", "))
	}
	return nil
}

// ValidateVizType checks that a visualization type is valid.
func ValidateVizType(vizType string) error {
	if !ValidVizTypes[vizType] {
		return errors.New(errors.ErrCodeInvalidVizType, "invalid viz_type: %q (must be one of: scene, chain)", vizType)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForVisualize(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForVisualize checks the sentence and normalizes the dimension.
// A zero DModel takes the default; any other value is clamped.
func (o *Options) ValidateForVisualize() error {
	o.Sentence = posenc.Sanitize(o.Sentence)
	if err := errors.ValidateSentence(o.Sentence); err != nil {
		return err
	}
	o.Sentence = strings.TrimSpace(o.Sentence)

	if o.DModel == 0 {
		o.DModel = DefaultDModel
	}
	o.DModel = posenc.ClampDModel(o.DModel)
	o.Constants = o.Constants.WithDefaults()

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateVizType(o.VizType); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateStyle(o.Style)
}

// IsChain returns true if this is a chain visualization.
func (o *Options) IsChain() bool {
	return o.VizType == VizTypeChain
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format, font string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Sentence:   o.Sentence,
		DModel:     o.DModel,
		VizType:    o.VizType,
		Format:     format,
		Style:      o.Style,
		Width:      o.Width,
		Height:     o.Height,
		Heatmap:    o.Heatmap,
		EmbedFont:  o.EmbedFont,
		Detailed:   o.Detailed,
		Font:       font,
		LayoutHash: cache.HashJSON(o.Constants),
	}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	return k
}
