// Package cache memoizes rendered artifacts.
//
// Rendering the scene SVG is cheap, but PNG and PDF conversion shell out to
// rsvg-convert and the chain diagram boots a Graphviz runtime. The pipeline
// stores finished artifacts under keys derived from every option that
// affects the output, so a repeated request is a single lookup.
//
// # Backends
//
//   - [NullCache]: never stores anything (--no-cache, tests)
//   - [FileCache]: one JSON file per entry under the user cache dir (CLI)
//   - [RedisCache]: shared cache for the HTTP server
//
// Dropping the cache at any time is safe; entries are pure functions of
// their keys.
package cache

import (
	"context"
	"time"
)

// TTLs for cached entries.
const (
	ArtifactTTL = 7 * 24 * time.Hour
	ServerTTL   = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey returns the key for one rendered artifact.
	ArtifactKey(opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts lists everything that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Sentence   string  `json:"sentence"`
	DModel     int     `json:"d_model"`
	VizType    string  `json:"viz_type"`
	Format     string  `json:"format"`
	Style      string  `json:"style"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Scale      float64 `json:"scale,omitempty"`
	Heatmap    bool    `json:"heatmap,omitempty"`
	EmbedFont  bool    `json:"embed_font,omitempty"`
	Detailed   bool    `json:"detailed,omitempty"`
	Font       string  `json:"font,omitempty"`
	LayoutHash string  `json:"layout_hash,omitempty"`
}

// DefaultKeyer hashes key options with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey returns "artifact:<sha256>" over opts.
func (DefaultKeyer) ArtifactKey(opts ArtifactKeyOpts) string {
	return hashKey("artifact", opts)
}
