package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/peviz/pkg/fonts"
	"github.com/matzehuels/peviz/pkg/render"
	"github.com/matzehuels/peviz/pkg/render/sink"
	"github.com/matzehuels/peviz/pkg/scene"
)

// Render generates output artifacts in the requested formats.
// face is embedded in scene SVGs when opts.EmbedFont is set and may be nil.
func Render(ctx context.Context, v *scene.Visualization, face *fonts.Face, opts Options) (map[string][]byte, error) {
	if opts.IsChain() {
		return renderChain(ctx, v, opts)
	}
	return renderScene(ctx, v, face, opts)
}

// renderScene generates perspective scene outputs.
func renderScene(ctx context.Context, v *scene.Visualization, face *fonts.Face, opts Options) (map[string][]byte, error) {
	svgOpts := buildSVGOptions(face, opts)
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(v, svgOpts...)
		case FormatPNG:
			data, err = sink.RenderPNG(ctx, v, sink.WithPNGSVGOptions(svgOpts...), sink.WithScale(opts.Scale))
		case FormatPDF:
			data, err = sink.RenderPDF(ctx, v, svgOpts...)
		case FormatJSON:
			data, err = renderJSON(v, opts)
		default:
			return nil, fmt.Errorf("unsupported scene format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// renderChain generates Graphviz chain outputs. The SVG is produced once
// and converted for PNG and PDF.
func renderChain(ctx context.Context, v *scene.Visualization, opts Options) (map[string][]byte, error) {
	style, _ := sink.StyleByName(opts.Style)
	dot := sink.ToDOT(v, sink.ChainOptions{Detailed: opts.Detailed, Style: style})

	var svg []byte
	chainSVG := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = sink.RenderChainSVG(ctx, dot)
		return svg, err
	}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = chainSVG()
		case FormatPNG:
			if data, err = chainSVG(); err == nil {
				data, err = render.ToPNG(ctx, data, opts.Scale)
			}
		case FormatPDF:
			if data, err = chainSVG(); err == nil {
				data, err = render.ToPDF(ctx, data)
			}
		case FormatJSON:
			data, err = renderJSON(v, opts)
		default:
			return nil, fmt.Errorf("unsupported chain format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func renderJSON(v *scene.Visualization, opts Options) ([]byte, error) {
	jsonOpts := []sink.JSONOption{
		sink.WithJSONStyle(opts.Style),
		sink.WithJSONConstants(opts.Constants),
	}
	if opts.Heatmap {
		jsonOpts = append(jsonOpts, sink.WithJSONMatrix())
	}
	return sink.RenderJSON(v, jsonOpts...)
}

// buildSVGOptions builds scene SVG rendering options.
func buildSVGOptions(face *fonts.Face, opts Options) []sink.SVGOption {
	svgOpts := []sink.SVGOption{
		sink.WithSize(opts.Width, opts.Height),
		sink.WithConstants(opts.Constants),
	}
	if style, ok := sink.StyleByName(opts.Style); ok {
		svgOpts = append(svgOpts, sink.WithStyle(style))
	}
	if opts.Heatmap {
		svgOpts = append(svgOpts, sink.WithHeatmap())
	}
	if opts.EmbedFont && face != nil {
		svgOpts = append(svgOpts, sink.WithFont(face))
	}
	return svgOpts
}
