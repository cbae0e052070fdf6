package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/matzehuels/peviz/pkg/errors"
	"github.com/matzehuels/peviz/pkg/pipeline"
)

// maxSlugLength bounds file names derived from the sentence.
const maxSlugLength = 40

// visualizeFlags holds flags that do not map directly onto pipeline options.
type visualizeFlags struct {
	formats string
	input   string
	output  string
	noCache bool
}

// visualizeCommand creates the visualize command for rendering a sentence.
func (c *CLI) visualizeCommand() *cobra.Command {
	var flags visualizeFlags
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "visualize [sentence...]",
		Short: "Render a sentence's positional encodings",
		Long: `Render a sentence's positional encodings.

Each token becomes an arrow whose direction is the first three components of
its sinusoidal encoding. Output formats are svg (default), png, pdf and json;
png and pdf need rsvg-convert on PATH. The chain viz type draws the token
sequence as a Graphviz graph instead of a 3D scene.

Results are cached locally for faster subsequent runs.`,
		Example: `  peviz visualize "the quick brown fox"
  peviz visualize -f svg,json --d-model 64 --heatmap "attention is all you need"
  echo "hello world" | peviz visualize -i - -o hello.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sentence, err := readSentence(cmd.InOrStdin(), flags.input, args)
			if err != nil {
				return err
			}
			opts = c.mergeOptions(cmd, sentence, opts, flags)
			return c.runVisualize(cmd.Context(), opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "read the sentence from a file (- for stdin)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple); - for stdout")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-render even when cached")

	cmd.Flags().IntVarP(&opts.DModel, "d-model", "d", pipeline.DefaultDModel, "encoding dimension (clamped to 4..256, even)")
	cmd.Flags().StringVar(&opts.VizType, "viz", pipeline.DefaultVizType, "visualization type: scene, chain")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json (comma-separated)")
	cmd.Flags().StringVar(&opts.Style, "style", pipeline.DefaultStyle, "palette: dark, light")
	cmd.Flags().Float64Var(&opts.Width, "width", pipeline.DefaultWidth, "viewport width in pixels")
	cmd.Flags().Float64Var(&opts.Height, "height", pipeline.DefaultHeight, "viewport height in pixels")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.Heatmap, "heatmap", false, "draw the full encoding matrix as a heatmap inset")
	cmd.Flags().BoolVar(&opts.EmbedFont, "embed-font", false, "embed the monospace font in SVG output")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show arrow directions on chain nodes")

	return cmd
}

// mergeOptions layers config defaults under explicitly set flags.
func (c *CLI) mergeOptions(cmd *cobra.Command, sentence string, flagOpts pipeline.Options, flags visualizeFlags) pipeline.Options {
	opts := c.Config.Options(sentence)
	set := cmd.Flags().Changed

	if set("d-model") {
		opts.DModel = flagOpts.DModel
	}
	if set("viz") {
		opts.VizType = flagOpts.VizType
	}
	if formats := parseFormats(flags.formats); len(formats) > 0 {
		opts.Formats = formats
	}
	if set("style") {
		opts.Style = flagOpts.Style
	}
	if set("width") {
		opts.Width = flagOpts.Width
	}
	if set("height") {
		opts.Height = flagOpts.Height
	}
	if set("scale") {
		opts.Scale = flagOpts.Scale
	}
	if set("heatmap") {
		opts.Heatmap = flagOpts.Heatmap
	}
	opts.EmbedFont = flagOpts.EmbedFont
	opts.Detailed = flagOpts.Detailed
	opts.Refresh = flagOpts.Refresh
	opts.Logger = c.Logger
	return opts
}

// runVisualize runs the pipeline and writes the artifacts.
func (c *CLI) runVisualize(ctx context.Context, opts pipeline.Options, flags visualizeFlags) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return userError(err)
	}
	if flags.output == "-" && len(opts.Formats) > 1 {
		return fmt.Errorf("stdout output needs a single format, got %s", strings.Join(opts.Formats, ","))
	}

	if _, err := c.waitFont(ctx); err != nil {
		return userError(err)
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", opts.VizType))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Visualization failed")
		return userError(err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Rendered %d artifacts", len(result.Artifacts)))

	if flags.output == "-" {
		_, err := os.Stdout.Write(result.Artifacts[opts.Formats[0]])
		return err
	}

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, outputBase(flags.output, opts.Sentence), flags.output)
	if err != nil {
		return err
	}

	printSuccess("Visualized %q", opts.Sentence)
	printStats(result.Stats.Tokens, result.Stats.DModel, result.CacheInfo.RenderHit)
	for _, p := range paths {
		printFile(p)
	}
	printNextStep("Explore interactively", fmt.Sprintf("peviz play --d-model %d", result.Stats.DModel))
	return nil
}

// readSentence takes the sentence from a file, stdin or the positional args.
func readSentence(stdin io.Reader, input string, args []string) (string, error) {
	if input == "" {
		return strings.Join(args, " "), nil
	}
	if len(args) > 0 {
		return "", fmt.Errorf("give the sentence either as arguments or with --input, not both")
	}

	var data []byte
	var err error
	if input == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, errors.MaxSentenceLength+1))
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return "", fmt.Errorf("read sentence: %w", err)
	}
	return string(data), nil
}

// writeArtifacts writes each format and returns the written paths in order.
// A single format with an explicit output path is written there verbatim;
// otherwise files are named base.<format>.
func writeArtifacts(artifacts map[string][]byte, formats []string, base, output string) ([]string, error) {
	var paths []string
	for _, format := range formats {
		path := base + "." + format
		if len(formats) == 1 && output != "" {
			path = output
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return paths, fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// outputBase derives the base output path. An explicit output loses its
// extension; otherwise the sentence is slugged.
func outputBase(output, sentence string) string {
	if output != "" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	return slug(sentence)
}

// slug turns a sentence into a short file-name-safe string.
func slug(s string) string {
	var b strings.Builder
	lastSep := true
	for _, r := range strings.ToLower(s) {
		if b.Len() >= maxSlugLength {
			break
		}
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastSep = false
		case !lastSep:
			b.WriteByte('_')
			lastSep = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return appName
	}
	return out
}

// userError replaces coded errors with their user-facing message.
func userError(err error) error {
	if code := errors.GetCode(err); code != "" {
		return fmt.Errorf("%s", errors.UserMessage(err))
	}
	return err
}
