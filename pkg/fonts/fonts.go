// Package fonts provides the monospace font used for token labels.
//
// The default face is Go Mono, compiled into the binary through
// golang.org/x/image/font/gofont/gomono. A TTF file on disk or at a URL can
// be used instead via [File] or [URL]. A [Face] measures text widths for label centering and
// exposes the raw font for embedding in SVG output.
package fonts

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/peviz/pkg/httputil"
)

// MaxFontBytes caps remote font downloads.
const MaxFontBytes = 16 << 20

// FontFamily is the CSS font-family name for the embedded face.
const FontFamily = "Go Mono"

// FallbackFontFamily lists fallbacks for viewers that ignore @font-face.
const FallbackFontFamily = `'Go Mono', 'DejaVu Sans Mono', 'Menlo', 'Consolas', monospace`

// Source produces raw TTF bytes.
type Source interface {
	// Name identifies the source in logs.
	Name() string
	// Bytes returns the TTF data.
	Bytes() ([]byte, error)
}

type embedded struct{}

func (embedded) Name() string           { return "gomono" }
func (embedded) Bytes() ([]byte, error) { return gomono.TTF, nil }

// Embedded returns the compiled-in Go Mono source.
func Embedded() Source { return embedded{} }

type file string

func (f file) Name() string           { return string(f) }
func (f file) Bytes() ([]byte, error) { return os.ReadFile(string(f)) }

// File returns a source reading a TTF file from disk.
func File(path string) Source { return file(path) }

type remote string

func (r remote) Name() string { return string(r) }
func (r remote) Bytes() ([]byte, error) {
	return httputil.Fetch(context.Background(), nil, string(r), MaxFontBytes)
}

// URL returns a source downloading a TTF file over HTTP. Transient failures
// are retried before the load is reported as failed.
func URL(url string) Source { return remote(url) }

// Face is a parsed font with text metrics.
// It is safe for concurrent use.
type Face struct {
	raw    []byte
	family string

	mu   sync.Mutex
	font *sfnt.Font
	buf  sfnt.Buffer
	upem fixed.Int26_6

	b64     string
	b64Once sync.Once
}

// Parse parses TTF data into a Face.
func Parse(data []byte) (*Face, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face := &Face{raw: data, font: f, upem: fixed.I(int(f.UnitsPerEm()))}
	if name, err := f.Name(&face.buf, sfnt.NameIDFamily); err == nil && name != "" {
		face.family = name
	} else {
		face.family = FontFamily
	}
	return face, nil
}

// Family returns the font family name.
func (f *Face) Family() string { return f.family }

// TextWidth returns the advance width of text rendered at size world units.
// Runes missing from the font use the advance of the .notdef glyph.
func (f *Face) TextWidth(text string, size float64) float64 {
	if text == "" || size <= 0 {
		return 0
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var total fixed.Int26_6
	for _, r := range text {
		idx, err := f.font.GlyphIndex(&f.buf, r)
		if err != nil {
			continue
		}
		adv, err := f.font.GlyphAdvance(&f.buf, idx, f.upem, font.HintingNone)
		if err != nil {
			continue
		}
		total += adv
	}
	return float64(total) / float64(f.upem) * size
}

// TTF returns the raw font data.
func (f *Face) TTF() []byte { return f.raw }

// TTFBase64 returns the font data as a base64 string.
// The result is cached after first computation.
func (f *Face) TTFBase64() string {
	f.b64Once.Do(func() {
		f.b64 = base64.StdEncoding.EncodeToString(f.raw)
	})
	return f.b64
}

var (
	defaultFace     *Face
	defaultFaceErr  error
	defaultFaceOnce sync.Once
)

// Default returns the parsed embedded face.
func Default() (*Face, error) {
	defaultFaceOnce.Do(func() {
		defaultFace, defaultFaceErr = Parse(gomono.TTF)
	})
	return defaultFace, defaultFaceErr
}
