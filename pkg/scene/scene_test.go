package scene

import (
	"context"
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/peviz/pkg/errors"
	"github.com/matzehuels/peviz/pkg/fonts"
	"github.com/matzehuels/peviz/pkg/layout"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
	last  *Visualization
}

func (r *recorder) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "release")
}

func (r *recorder) Replace(v *Visualization) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "replace")
	r.last = v
}

func readyLoader(t *testing.T) *fonts.Loader {
	t.Helper()
	face, err := fonts.Default()
	if err != nil {
		t.Fatal(err)
	}
	return fonts.Ready(face)
}

func failedLoader(t *testing.T) *fonts.Loader {
	t.Helper()
	l := fonts.Load(fonts.File(filepath.Join(t.TempDir(), "missing.ttf")))
	<-l.Done()
	return l
}

func TestVisualize(t *testing.T) {
	rec := &recorder{}
	s := New(readyLoader(t), WithRenderer(rec))

	v, err := s.Visualize(context.Background(), "  the quick  brown fox ", 16)
	if err != nil {
		t.Fatalf("Visualize: %v", err)
	}

	if want := []string{"the", "quick", "brown", "fox"}; !reflect.DeepEqual(v.Tokens, want) {
		t.Errorf("Tokens = %v, want %v", v.Tokens, want)
	}
	if v.Sentence != "the quick  brown fox" {
		t.Errorf("Sentence = %q", v.Sentence)
	}
	if v.Matrix.Rows() != 4 || v.Matrix.Cols() != 16 {
		t.Errorf("Matrix = %dx%d, want 4x16", v.Matrix.Rows(), v.Matrix.Cols())
	}
	if len(v.Placements) != 4 {
		t.Fatalf("len(Placements) = %d, want 4", len(v.Placements))
	}
	if got := v.Placements[0].Origin; got != (r3.Vec{Y: 5}) {
		t.Errorf("Placements[0].Origin = %v, want (0,5,0)", got)
	}
	for i, p := range v.Placements {
		if p.Label.Width <= 0 {
			t.Errorf("Placements[%d].Label.Width = %v, want measured width", i, p.Label.Width)
		}
	}

	if !reflect.DeepEqual(rec.calls, []string{"release", "replace"}) {
		t.Errorf("renderer calls = %v", rec.calls)
	}
	if rec.last != v || s.Current() != v {
		t.Error("renderer and Current should hold the new visualization")
	}
	if s.Camera().Position != v.View.CameraPosition || s.Camera().Target != v.View.Center {
		t.Errorf("camera = %+v, want fit %+v", s.Camera(), v.View)
	}
}

func TestVisualizeClampsDModel(t *testing.T) {
	tests := []struct{ in, want int }{
		{5, 6},
		{1, 4},
		{300, 256},
		{255, 256},
		{64, 64},
	}
	s := New(readyLoader(t))
	for _, tt := range tests {
		v, err := s.Visualize(context.Background(), "a b", tt.in)
		if err != nil {
			t.Fatalf("Visualize(%d): %v", tt.in, err)
		}
		if v.DModel != tt.want || v.Matrix.Cols() != tt.want {
			t.Errorf("Visualize(%d) DModel = %d, cols = %d, want %d", tt.in, v.DModel, v.Matrix.Cols(), tt.want)
		}
	}
}

func TestVisualizeInputErrorClears(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		code     errors.Code
	}{
		{"empty", "", errors.ErrCodeEmptyInput},
		{"whitespace", " \t\n", errors.ErrCodeEmptyInput},
		{"only control chars", "\x01\x02", errors.ErrCodeEmptyInput},
		{"too long", strings.Repeat("ab ", errors.MaxSentenceLength), errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			s := New(readyLoader(t), WithRenderer(rec))
			if _, err := s.Visualize(context.Background(), "hello world", 8); err != nil {
				t.Fatal(err)
			}

			_, err := s.Visualize(context.Background(), tt.sentence, 8)
			if !errors.Is(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
			if s.Current() != nil {
				t.Error("Current() should be nil after input error")
			}
			if want := []string{"release", "replace", "release"}; !reflect.DeepEqual(rec.calls, want) {
				t.Errorf("renderer calls = %v, want %v", rec.calls, want)
			}
		})
	}
}

func TestVisualizeSanitizesInput(t *testing.T) {
	s := New(readyLoader(t))
	v, err := s.Visualize(context.Background(), "a\x01b \xff c", 4)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"ab", "\uFFFD", "c"}; !reflect.DeepEqual(v.Tokens, want) {
		t.Errorf("tokens = %q, want %q", v.Tokens, want)
	}
}

func TestVisualizePending(t *testing.T) {
	rec := &recorder{}
	s := New(fonts.NewLoader(fonts.Embedded()), WithRenderer(rec))

	_, err := s.Visualize(context.Background(), "hello", 8)
	if !errors.Is(err, errors.ErrCodeAssetPending) {
		t.Fatalf("err = %v, want ASSET_PENDING", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("renderer calls = %v, want none", rec.calls)
	}
}

func TestVisualizeAssetErrorKeepsCurrent(t *testing.T) {
	rec := &recorder{}
	s := New(readyLoader(t), WithRenderer(rec))
	prev, err := s.Visualize(context.Background(), "keep me", 8)
	if err != nil {
		t.Fatal(err)
	}

	s.font = failedLoader(t)
	for i := 0; i < 2; i++ {
		_, err = s.Visualize(context.Background(), "new sentence", 8)
		if !errors.Is(err, errors.ErrCodeAssetUnavailable) {
			t.Fatalf("err = %v, want ASSET_UNAVAILABLE", err)
		}
	}
	if s.Current() != prev {
		t.Error("asset error should keep the current visualization")
	}
	if len(rec.calls) != 2 {
		t.Errorf("renderer calls = %v, want only the first release/replace", rec.calls)
	}
}

func TestVisualizeCanceled(t *testing.T) {
	s := New(readyLoader(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Visualize(ctx, "a", 4); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestVisualizeKeepsViewDirection(t *testing.T) {
	s := New(readyLoader(t))
	if _, err := s.Visualize(context.Background(), "a b c", 8); err != nil {
		t.Fatal(err)
	}
	s.Orbit(math.Pi/2, 0)
	before := s.Camera().Direction()

	v, err := s.Visualize(context.Background(), "a b c d e", 8)
	if err != nil {
		t.Fatal(err)
	}
	after := layout.ViewDirection(v.Camera.Position, v.Camera.Target)
	if r3.Norm(r3.Sub(before, after)) > 1e-9 {
		t.Errorf("view direction changed: %v -> %v", before, after)
	}
}

func TestClear(t *testing.T) {
	rec := &recorder{}
	s := New(readyLoader(t), WithRenderer(rec))
	if _, err := s.Visualize(context.Background(), "x", 4); err != nil {
		t.Fatal(err)
	}
	s.Clear()
	if s.Current() != nil {
		t.Error("Current() should be nil after Clear")
	}
	if rec.calls[len(rec.calls)-1] != "release" {
		t.Errorf("last renderer call = %s, want release", rec.calls[len(rec.calls)-1])
	}
}

func TestOrbitPreservesDistance(t *testing.T) {
	s := New(readyLoader(t))
	c := s.Camera()
	d0 := layout.Distance(c.Position, c.Target)

	s.Orbit(0.3, 0.2)
	s.Orbit(-1.1, 5) // clamped near the pole

	c = s.Camera()
	if d1 := layout.Distance(c.Position, c.Target); math.Abs(d1-d0) > 1e-9 {
		t.Errorf("distance = %v, want %v", d1, d0)
	}
	if c.Position.Y <= 0 {
		t.Errorf("camera Y = %v, want above target near the pole", c.Position.Y)
	}
}

func TestConcurrentVisualize(t *testing.T) {
	s := New(readyLoader(t), WithRenderer(&recorder{}))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Visualize(context.Background(), "a b c", 4+2*i); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
	if s.Current() == nil {
		t.Error("Current() = nil after concurrent visualizes")
	}
}
