package sink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/peviz/pkg/scene"
)

// ChainOptions configures the token chain diagram.
type ChainOptions struct {
	// Detailed adds the first three encoding components to each node.
	Detailed bool
	// Style supplies the background and text colors.
	Style Style
}

// ToDOT converts a visualization to a Graphviz chain of tokens in position
// order. Each node is filled with the token's encoding color.
func ToDOT(v *scene.Visualization, opts ChainOptions) string {
	style := opts.Style
	if style.Name == "" {
		style = Dark
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", style.Background)
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Go Mono\", fontsize=18, margin=\"0.2,0.1\"];\n")
	fmt.Fprintf(&buf, "  edge [color=%q];\n", style.GridCenter)
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	if v == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	for _, p := range v.Placements {
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(p.Position), strings.Join(chainAttrs(v, p.Position, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for i := 1; i < len(v.Placements); i++ {
		fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID(i-1), nodeID(i))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(pos int) string { return "t" + strconv.Itoa(pos) }

func chainAttrs(v *scene.Visualization, pos int, detailed bool) []string {
	p := v.Placements[pos]
	label := fmt.Sprintf("%d: %s", p.Position, p.Token)
	if detailed {
		label += fmt.Sprintf("\n(%.3f, %.3f, %.3f)", p.Direction.X, p.Direction.Y, p.Direction.Z)
	}
	return []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("fillcolor=%q", p.Color.Hex()),
		"fontcolor=\"#1f2933\"",
	}
}

// RenderChainSVG renders a DOT graph to SVG using Graphviz.
func RenderChainSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites Graphviz's pt-sized root element to a plain
// pixel viewBox so the chain scales like the scene SVG.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
