// Package config loads peviz settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/peviz/config.toml (falling back to
// ~/.config/peviz/config.toml) unless a path is given explicitly. A missing
// file is not an error: every field has a default, and command-line flags
// override whatever the file sets.
//
// Example:
//
//	[layout]
//	arrow_length = 2.5
//	fov = 50
//
//	[render]
//	style = "light"
//	formats = ["svg", "json"]
//
//	[server]
//	addr = ":9090"
//	redis_url = "redis://localhost:6379/0"
//	cache_ttl = "12h"
//
//	[font]
//	path = "/usr/share/fonts/truetype/dejavu/DejaVuSansMono.ttf"
//	# or: url = "https://example.com/fonts/mono.ttf"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/peviz/pkg/cache"
	"github.com/matzehuels/peviz/pkg/errors"
	"github.com/matzehuels/peviz/pkg/layout"
	"github.com/matzehuels/peviz/pkg/pipeline"
)

// AppName is the directory name used under the XDG config and cache roots.
const AppName = "peviz"

// DefaultAddr is the default HTTP listen address.
const DefaultAddr = ":8080"

// Config is the full set of file-backed settings.
type Config struct {
	Layout layout.Constants `toml:"layout"`
	Render Render           `toml:"render"`
	Server Server           `toml:"server"`
	Font   Font             `toml:"font"`
}

// Render holds default rendering options.
type Render struct {
	DModel  int      `toml:"d_model"`
	VizType string   `toml:"viz_type"`
	Formats []string `toml:"formats"`
	Style   string   `toml:"style"`
	Width   float64  `toml:"width"`
	Height  float64  `toml:"height"`
	Scale   float64  `toml:"scale"`
	Heatmap bool     `toml:"heatmap"`
}

// Server holds HTTP server settings.
type Server struct {
	Addr     string   `toml:"addr"`
	RedisURL string   `toml:"redis_url"`
	CacheTTL Duration `toml:"cache_ttl"`
}

// Font selects the monospace font. Path wins over URL; with neither set the
// embedded Go Mono is used.
type Font struct {
	Path string `toml:"path"`
	URL  string `toml:"url"`
}

// Duration is a time.Duration that decodes from TOML strings like "24h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: layout.DefaultConstants(),
		Render: Render{
			DModel:  pipeline.DefaultDModel,
			VizType: pipeline.DefaultVizType,
			Formats: []string{pipeline.FormatSVG},
			Style:   pipeline.DefaultStyle,
			Width:   pipeline.DefaultWidth,
			Height:  pipeline.DefaultHeight,
			Scale:   pipeline.DefaultScale,
		},
		Server: Server{
			Addr:     DefaultAddr,
			CacheTTL: Duration{cache.ServerTTL},
		},
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// Load reads the config at path, or at [Path] when path is empty.
// Fields absent from the file keep their defaults. A missing file at the
// default location yields the defaults; a missing explicit path is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	cfg.Layout = cfg.Layout.WithDefaults()
	return cfg, cfg.Validate()
}

// Validate checks enumerated render settings and the layout dimensions.
func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if err := pipeline.ValidateVizType(c.Render.VizType); err != nil {
		return err
	}
	if err := pipeline.ValidateFormats(c.Render.Formats); err != nil {
		return err
	}
	return pipeline.ValidateStyle(c.Render.Style)
}

// Options returns pipeline options seeded from the render and layout sections.
func (c Config) Options(sentence string) pipeline.Options {
	return pipeline.Options{
		Sentence:  sentence,
		DModel:    c.Render.DModel,
		VizType:   c.Render.VizType,
		Formats:   append([]string(nil), c.Render.Formats...),
		Style:     c.Render.Style,
		Width:     c.Render.Width,
		Height:    c.Render.Height,
		Scale:     c.Render.Scale,
		Heatmap:   c.Render.Heatmap,
		Constants: c.Layout,
	}
}
