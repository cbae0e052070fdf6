package scene

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/peviz/pkg/errors"
	"github.com/matzehuels/peviz/pkg/fonts"
	"github.com/matzehuels/peviz/pkg/layout"
	"github.com/matzehuels/peviz/pkg/posenc"
)

// Renderer receives visualizations to draw.
//
// Release is called before every Replace and whenever the scene is cleared,
// so implementations can dispose of resources held for the previous records.
type Renderer interface {
	Release()
	Replace(v *Visualization)
}

// Visualization is one computed set of placements and its camera framing.
// It is immutable once returned.
type Visualization struct {
	ID         uuid.UUID          `json:"id"`
	Sentence   string             `json:"sentence"`
	Tokens     []string           `json:"tokens"`
	DModel     int                `json:"d_model"`
	Matrix     posenc.Matrix      `json:"-"`
	Placements []layout.Placement `json:"placements"`
	View       layout.ViewFit     `json:"view"`
	Camera     Camera             `json:"camera"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Camera is a perspective camera looking at Target.
type Camera struct {
	Position r3.Vec  `json:"position"`
	Target   r3.Vec  `json:"target"`
	FOV      float64 `json:"fov"` // degrees
}

// Direction returns the unit viewing direction, or zero if Position equals Target.
func (c Camera) Direction() r3.Vec { return layout.ViewDirection(c.Position, c.Target) }

// Option configures a Scene.
type Option func(*Scene)

// WithRenderer sets the renderer collaborator.
func WithRenderer(r Renderer) Option {
	return func(s *Scene) { s.renderer = r }
}

// WithConstants overrides the layout constants.
func WithConstants(c layout.Constants) Option {
	return func(s *Scene) { s.constants = c.WithDefaults() }
}

// WithCamera sets the initial camera.
func WithCamera(pos, target r3.Vec) Option {
	return func(s *Scene) {
		s.camera.Position = pos
		s.camera.Target = target
	}
}

// Scene is the visualizer context. It is safe for concurrent use; visualize
// calls are serialized.
type Scene struct {
	mu        sync.Mutex
	font      *fonts.Loader
	renderer  Renderer
	constants layout.Constants
	camera    Camera
	current   *Visualization
	now       func() time.Time
}

// New creates a scene that measures labels with the face from font.
func New(font *fonts.Loader, opts ...Option) *Scene {
	c := layout.DefaultConstants()
	s := &Scene{
		font:      font,
		renderer:  nopRenderer{},
		constants: c,
		camera:    Camera{Position: layout.DefaultCameraPosition(c), Target: layout.WorldOrigin},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.camera.FOV = s.constants.FOV
	return s
}

// Constants returns the layout constants in use.
func (s *Scene) Constants() layout.Constants { return s.constants }

// Visualize replaces the current visualization with one built from sentence.
// dModel is clamped to a valid even dimension first; the clamped value is
// reported on the returned Visualization.
func (s *Scene) Visualize(ctx context.Context, sentence string, dModel int) (*Visualization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.font == nil {
		return nil, errors.New(errors.ErrCodeAssetUnavailable, "no font configured; visualization unavailable")
	}
	face, err := s.font.Face()
	if err != nil {
		return nil, err
	}

	dModel = posenc.ClampDModel(dModel)
	sentence = strings.TrimSpace(posenc.Sanitize(sentence))

	if err := errors.ValidateSentence(sentence); err != nil {
		s.clearLocked()
		return nil, err
	}
	tokens := posenc.Tokenize(sentence)
	if err := errors.ValidateTokens(tokens); err != nil {
		s.clearLocked()
		return nil, err
	}

	m := posenc.Encode(len(tokens), dModel)
	placements := layout.Project(tokens, m, layout.Options{Constants: s.constants, Measurer: face})
	view := layout.FitView(
		layout.Origins(placements),
		layout.WorldOrigin,
		s.camera.Direction(),
		s.constants.FOVRadians(),
		s.constants,
	)

	s.camera.Position = view.CameraPosition
	s.camera.Target = view.Center

	v := &Visualization{
		ID:         uuid.New(),
		Sentence:   sentence,
		Tokens:     tokens,
		DModel:     dModel,
		Matrix:     m,
		Placements: placements,
		View:       view,
		Camera:     s.camera,
		CreatedAt:  s.now(),
	}

	s.renderer.Release()
	s.renderer.Replace(v)
	s.current = v
	return v, nil
}

// Clear removes the current visualization.
func (s *Scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Scene) clearLocked() {
	s.renderer.Release()
	s.current = nil
}

// Current returns the current visualization, or nil.
func (s *Scene) Current() *Visualization {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Camera returns the current camera.
func (s *Scene) Camera() Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

// Orbit rotates the camera around its target by the given azimuth (about
// world +Y) and elevation angles in radians. Elevation stops short of the
// poles.
func (s *Scene) Orbit(azimuth, elevation float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	off := r3.Sub(s.camera.Position, s.camera.Target)
	r := r3.Norm(off)
	if r == 0 {
		return
	}
	theta := math.Atan2(off.X, off.Z) + azimuth
	phi := math.Acos(math.Max(-1, math.Min(1, off.Y/r))) - elevation
	const eps = 1e-3
	phi = math.Max(eps, math.Min(math.Pi-eps, phi))

	s.camera.Position = r3.Add(s.camera.Target, r3.Vec{
		X: r * math.Sin(phi) * math.Sin(theta),
		Y: r * math.Cos(phi),
		Z: r * math.Sin(phi) * math.Cos(theta),
	})
}

type nopRenderer struct{}

func (nopRenderer) Release()               {}
func (nopRenderer) Replace(*Visualization) {}
