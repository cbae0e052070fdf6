package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/peviz/pkg/buildinfo"
	"github.com/matzehuels/peviz/pkg/cache"
	"github.com/matzehuels/peviz/pkg/config"
	"github.com/matzehuels/peviz/pkg/fonts"
	"github.com/matzehuels/peviz/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	font       *fonts.Loader
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "peviz visualizes sinusoidal positional encodings in 3D",
		Long: `peviz turns a sentence into a 3D scene of its tokens' sinusoidal
positional encodings: each token gets an origin on a circle, an arrow along
the first three encoding components, and a label oriented along the arrow.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/peviz/config.toml)")

	// Register all subcommands
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.encodeCommand())
	root.AddCommand(c.playCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.fontLoader(), c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// fontLoader starts loading the configured font on first use.
func (c *CLI) fontLoader() *fonts.Loader {
	if c.font == nil {
		src := fonts.Embedded()
		switch {
		case c.Config.Font.Path != "":
			src = fonts.File(c.Config.Font.Path)
		case c.Config.Font.URL != "":
			src = fonts.URL(c.Config.Font.URL)
		}
		c.font = fonts.Load(src)
	}
	return c.font
}

// waitFont blocks until the font resolves, showing a spinner meanwhile.
func (c *CLI) waitFont(ctx context.Context) (*fonts.Face, error) {
	loader := c.fontLoader()
	select {
	case <-loader.Done():
		return loader.Face()
	default:
	}

	spinner := newSpinnerWithContext(ctx, "Loading font...")
	spinner.Start()
	face, err := loader.Wait(ctx)
	if err != nil {
		spinner.StopWithError("Font unavailable")
		return nil, err
	}
	spinner.Stop()
	return face, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/peviz/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
// An empty string yields nil so config defaults apply.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
