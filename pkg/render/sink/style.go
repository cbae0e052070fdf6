package sink

import (
	"bytes"
	"encoding/xml"
	"maps"
	"slices"
)

// Style names accepted by [StyleByName].
const (
	StyleDark  = "dark"
	StyleLight = "light"
)

// Style is the palette for scene rendering.
type Style struct {
	Name        string
	Background  string
	GridCenter  string
	GridLine    string
	GridOpacity float64
	PlaneFill   string
	Label       string
	Link        string
	LinkOpacity float64
	Axes        [3]string // x, y, z
}

// Dark is the default palette.
var Dark = Style{
	Name:        StyleDark,
	Background:  "#2c3e50",
	GridCenter:  "#aaaaaa",
	GridLine:    "#666666",
	GridOpacity: 0.6,
	PlaneFill:   "#7f8c8d",
	Label:       "#ffffff",
	Link:        "#ffffff",
	LinkOpacity: 0.35,
	Axes:        [3]string{"#ff0000", "#00ff00", "#0000ff"},
}

// Light is a palette for printing.
var Light = Style{
	Name:        StyleLight,
	Background:  "#ffffff",
	GridCenter:  "#888888",
	GridLine:    "#cccccc",
	GridOpacity: 0.8,
	PlaneFill:   "#bdc3c7",
	Label:       "#1f2933",
	Link:        "#1f2933",
	LinkOpacity: 0.25,
	Axes:        [3]string{"#d62728", "#2ca02c", "#1f77b4"},
}

var styles = map[string]Style{
	StyleDark:  Dark,
	StyleLight: Light,
}

// StyleByName looks up a palette.
func StyleByName(name string) (Style, bool) {
	s, ok := styles[name]
	return s, ok
}

// StyleNames returns the known palette names, sorted.
func StyleNames() []string {
	return slices.Sorted(maps.Keys(styles))
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
