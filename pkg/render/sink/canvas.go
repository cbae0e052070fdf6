package sink

import (
	"sync"

	"github.com/matzehuels/peviz/pkg/scene"
)

// Canvas is a [scene.Renderer] that keeps the SVG of the latest
// visualization in memory.
type Canvas struct {
	mu   sync.RWMutex
	opts []SVGOption
	svg  []byte
	viz  *scene.Visualization
	gen  uint64
}

// NewCanvas returns an empty canvas drawing with opts.
func NewCanvas(opts ...SVGOption) *Canvas {
	return &Canvas{opts: opts}
}

// Release drops the current drawing.
func (c *Canvas) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.svg, c.viz = nil, nil
}

// Replace draws v.
func (c *Canvas) Replace(v *scene.Visualization) {
	svg := RenderSVG(v, c.opts...)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.svg, c.viz = svg, v
	c.gen++
}

// SVG returns the current drawing, or nil when released.
func (c *Canvas) SVG() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.svg
}

// Visualization returns the visualization on the canvas, or nil.
func (c *Canvas) Visualization() *scene.Visualization {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viz
}

// Generation counts Replace calls.
func (c *Canvas) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}
