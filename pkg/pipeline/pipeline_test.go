package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/peviz/pkg/errors"
	"github.com/matzehuels/peviz/pkg/fonts"
	"github.com/matzehuels/peviz/pkg/observability"
	"github.com/matzehuels/peviz/pkg/render"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateStyle(t *testing.T) {
	tests := []struct {
		style   string
		wantErr bool
	}{
		{"dark", false},
		{"light", false},
		{"handdrawn", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateStyle(tt.style)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateStyle(%q) error = %v, wantErr %v", tt.style, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidStyle) {
			t.Errorf("ValidateStyle(%q) code = %s", tt.style, errors.GetCode(err))
		}
	}
}

func TestValidateVizType(t *testing.T) {
	tests := []struct {
		vizType string
		wantErr bool
	}{
		{"scene", false},
		{"chain", false},
		{"tower", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateVizType(tt.vizType)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateVizType(%q) error = %v, wantErr %v", tt.vizType, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidVizType) {
			t.Errorf("ValidateVizType(%q) code = %s", tt.vizType, errors.GetCode(err))
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Sentence: "  hello world  "}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Valid options should pass: %v", err)
	}

	if opts.Sentence != "hello world" {
		t.Errorf("Sentence should be trimmed, got %q", opts.Sentence)
	}
	if opts.DModel != DefaultDModel {
		t.Errorf("DModel should be %d, got %d", DefaultDModel, opts.DModel)
	}
	if opts.VizType != DefaultVizType {
		t.Errorf("VizType should be %s, got %s", DefaultVizType, opts.VizType)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
	if opts.Style != DefaultStyle {
		t.Errorf("Style should be %s, got %s", DefaultStyle, opts.Style)
	}
	if opts.Width != DefaultWidth || opts.Height != DefaultHeight || opts.Scale != DefaultScale {
		t.Errorf("size defaults = %v x %v @%v", opts.Width, opts.Height, opts.Scale)
	}
	if opts.Constants.ArrowLength != 2 {
		t.Errorf("Constants should be defaulted, got %+v", opts.Constants)
	}
	if opts.Logger == nil {
		t.Error("Logger should be defaulted")
	}
}

func TestOptionsClampDModel(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, DefaultDModel},
		{3, 4},
		{7, 8},
		{999, 256},
		{-4, 4},
	}
	for _, tt := range tests {
		opts := Options{Sentence: "x", DModel: tt.in}
		if err := opts.ValidateForVisualize(); err != nil {
			t.Fatal(err)
		}
		if opts.DModel != tt.want {
			t.Errorf("DModel %d -> %d, want %d", tt.in, opts.DModel, tt.want)
		}
	}
}

func TestOptionsValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"empty sentence", Options{}, errors.ErrCodeEmptyInput},
		{"blank sentence", Options{Sentence: "  \n"}, errors.ErrCodeEmptyInput},
		{"bad format", Options{Sentence: "a", Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"bad style", Options{Sentence: "a", Style: "neon"}, errors.ErrCodeInvalidStyle},
		{"bad viz", Options{Sentence: "a", VizType: "tower"}, errors.ErrCodeInvalidVizType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Sentence: "a b", Formats: []string{"svg", "png"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	svg := opts.ArtifactKeyOpts(FormatSVG, "gomono")
	png := opts.ArtifactKeyOpts(FormatPNG, "gomono")
	if svg.Scale != 0 || png.Scale != DefaultScale {
		t.Errorf("Scale should only key PNG: svg=%v png=%v", svg.Scale, png.Scale)
	}
	if svg.LayoutHash == "" || svg.LayoutHash != png.LayoutHash {
		t.Error("LayoutHash should be set and shared across formats")
	}
}

// memCache is an in-memory cache for tests.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func newTestRunner(t *testing.T, c *memCache) *Runner {
	t.Helper()
	face, err := fonts.Default()
	if err != nil {
		t.Fatal(err)
	}
	if c == nil {
		return NewRunner(nil, nil, fonts.Ready(face), nil)
	}
	return NewRunner(c, nil, fonts.Ready(face), nil)
}

func TestRunnerExecute(t *testing.T) {
	c := newMemCache()
	r := newTestRunner(t, c)
	ctx := context.Background()

	opts := Options{Sentence: "the quick brown fox", DModel: 9, Formats: []string{"svg", "json"}}
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Stats.Tokens != 4 || res.Stats.DModel != 10 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.CacheInfo.RenderHit {
		t.Error("first run should miss the cache")
	}
	if !strings.HasPrefix(string(res.Artifacts["svg"]), "<svg") {
		t.Error("svg artifact missing")
	}
	var doc map[string]any
	if err := json.Unmarshal(res.Artifacts["json"], &doc); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if doc["d_model"] != float64(10) {
		t.Errorf("json d_model = %v", doc["d_model"])
	}
	if c.sets != 2 {
		t.Errorf("cache sets = %d, want 2", c.sets)
	}

	res2, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res2.CacheInfo.RenderHit {
		t.Error("second run should hit the cache")
	}
	if string(res2.Artifacts["svg"]) != string(res.Artifacts["svg"]) {
		t.Error("cached svg should match")
	}

	opts.Refresh = true
	res3, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res3.CacheInfo.RenderHit {
		t.Error("Refresh should bypass the cache")
	}
}

func TestRunnerCachedJSONCarriesCurrentID(t *testing.T) {
	r := newTestRunner(t, newMemCache())
	ctx := context.Background()
	opts := Options{Sentence: "same words again", Formats: []string{"json"}}

	idOf := func(res *Result) string {
		t.Helper()
		var doc struct {
			ID       string `json:"id"`
			Sentence string `json:"sentence"`
		}
		if err := json.Unmarshal(res.Artifacts["json"], &doc); err != nil {
			t.Fatal(err)
		}
		if doc.Sentence != "same words again" {
			t.Errorf("sentence = %q", doc.Sentence)
		}
		return doc.ID
	}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.RenderHit {
		t.Fatal("second run should hit the cache")
	}
	if got, want := idOf(second), second.Visualization.ID.String(); got != want {
		t.Errorf("cached json id = %s, want %s", got, want)
	}
	if idOf(first) == idOf(second) {
		t.Error("each run should carry its own id")
	}
}

func TestRunnerExecuteInputErrors(t *testing.T) {
	r := newTestRunner(t, nil)
	for _, s := range []string{"", "   "} {
		_, err := r.Execute(context.Background(), Options{Sentence: s})
		if !errors.Is(err, errors.ErrCodeEmptyInput) {
			t.Errorf("Execute(%q) = %v, want EMPTY_INPUT", s, err)
		}
	}
}

func TestRunnerExecutePendingFont(t *testing.T) {
	r := NewRunner(nil, nil, fonts.NewLoader(fonts.Embedded()), nil)
	_, err := r.Execute(context.Background(), Options{Sentence: "hi"})
	if !errors.Is(err, errors.ErrCodeAssetPending) {
		t.Errorf("err = %v, want ASSET_PENDING", err)
	}
}

func TestRunnerChain(t *testing.T) {
	r := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{
		Sentence: "a b c",
		VizType:  VizTypeChain,
		Formats:  []string{"svg", "json"},
		Style:    "light",
	})
	if err != nil {
		t.Fatalf("Execute chain: %v", err)
	}
	if !strings.Contains(string(res.Artifacts["svg"]), "<svg") {
		t.Error("chain svg missing")
	}
	if len(res.Artifacts["json"]) == 0 {
		t.Error("chain json missing")
	}
}

func TestRunnerEmbedFontAndHeatmap(t *testing.T) {
	r := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{
		Sentence:  "hello",
		EmbedFont: true,
		Heatmap:   true,
		Formats:   []string{"svg", "json"},
	})
	if err != nil {
		t.Fatal(err)
	}
	svg := string(res.Artifacts["svg"])
	if !strings.Contains(svg, "@font-face") || !strings.Contains(svg, `class="heatmap"`) {
		t.Error("svg should embed the font and draw the heatmap")
	}
	if !strings.Contains(string(res.Artifacts["json"]), `"matrix"`) {
		t.Error("json should include the matrix with heatmap enabled")
	}
}

func TestRunnerPNG(t *testing.T) {
	r := newTestRunner(t, nil)
	_, err := r.Execute(context.Background(), Options{Sentence: "x", Formats: []string{"png"}})
	if !render.ConverterAvailable() {
		if !errors.Is(err, errors.ErrCodeUnsupported) {
			t.Errorf("without rsvg-convert err = %v, want UNSUPPORTED", err)
		}
		return
	}
	if err != nil {
		t.Errorf("Execute png: %v", err)
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	mu                  sync.Mutex
	visualizes, renders int
	lastErr             error
}

func (h *countingHooks) OnVisualizeComplete(_ context.Context, _, _ int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.visualizes++
	h.lastErr = err
}

func (h *countingHooks) OnRenderComplete(context.Context, string, []string, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.renders++
}

func TestRunnerHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	r := newTestRunner(t, newMemCache())
	opts := Options{Sentence: "a b"}
	for i := 0; i < 2; i++ {
		if _, err := r.Execute(context.Background(), opts); err != nil {
			t.Fatal(err)
		}
	}
	if hooks.visualizes != 2 || hooks.renders != 1 {
		t.Errorf("visualizes=%d renders=%d, want 2 and 1", hooks.visualizes, hooks.renders)
	}
	if hooks.lastErr != nil {
		t.Errorf("lastErr = %v", hooks.lastErr)
	}
}
