package sink

import (
	"encoding/json"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/peviz/pkg/layout"
	"github.com/matzehuels/peviz/pkg/scene"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	style     string
	matrix    bool
	constants *layout.Constants
}

// WithJSONStyle records the style name for round-trip rendering.
func WithJSONStyle(s string) JSONOption { return func(r *jsonRenderer) { r.style = s } }

// WithJSONMatrix includes every dimension of the encoding matrix.
func WithJSONMatrix() JSONOption { return func(r *jsonRenderer) { r.matrix = true } }

// WithJSONConstants records the scene dimensions so a client can rebuild
// grids and axes at the same scale.
func WithJSONConstants(c layout.Constants) JSONOption {
	return func(r *jsonRenderer) { c = c.WithDefaults(); r.constants = &c }
}

type vec3 [3]float64

func toVec3(v r3.Vec) vec3 { return vec3{v.X, v.Y, v.Z} }

// quat4 is ordered x, y, z, w as three.js Quaternion.fromArray expects.
type quat4 [4]float64

func toQuat4(q quat.Number) quat4 { return quat4{q.Imag, q.Jmag, q.Kmag, q.Real} }

type jsonOutput struct {
	ID        string            `json:"id"`
	Sentence  string            `json:"sentence"`
	DModel    int               `json:"d_model"`
	CreatedAt time.Time         `json:"created_at"`
	Style     string            `json:"style,omitempty"`
	Camera    jsonCamera        `json:"camera"`
	View      jsonView          `json:"view"`
	Constants *layout.Constants `json:"constants,omitempty"`
	Tokens    []jsonToken       `json:"tokens"`
	Matrix    [][]float64       `json:"matrix,omitempty"`
}

type jsonCamera struct {
	Position vec3    `json:"position"`
	Target   vec3    `json:"target"`
	FOV      float64 `json:"fov"`
}

type jsonView struct {
	Center         vec3    `json:"center"`
	CameraPosition vec3    `json:"camera_position"`
	CameraDistance float64 `json:"camera_distance"`
	MaxDim         float64 `json:"max_dim"`
}

type jsonToken struct {
	Position  int       `json:"position"`
	Token     string    `json:"token"`
	Origin    vec3      `json:"origin"`
	Direction vec3      `json:"direction"`
	Color     string    `json:"color"`
	ColorHex  uint32    `json:"color_hex"`
	Arrow     jsonArrow `json:"arrow"`
	Label     jsonLabel `json:"label"`
	Link      [2]vec3   `json:"link"`
}

type jsonArrow struct {
	Length     float64 `json:"length"`
	HeadLength float64 `json:"head_length"`
	HeadWidth  float64 `json:"head_width"`
}

type jsonLabel struct {
	Position   vec3    `json:"position"`
	Quaternion quat4   `json:"quaternion"`
	Width      float64 `json:"width"`
	Size       float64 `json:"size"`
	Depth      float64 `json:"depth"`
}

// RenderJSON exports the visualization as a pretty-printed JSON document
// shaped for a WebGL client: vectors are [x, y, z] arrays and label
// rotations are [x, y, z, w] quaternions.
//
// It does not modify v and is safe to call concurrently.
func RenderJSON(v *scene.Visualization, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		ID:        v.ID.String(),
		Sentence:  v.Sentence,
		DModel:    v.DModel,
		CreatedAt: v.CreatedAt,
		Style:     r.style,
		Camera: jsonCamera{
			Position: toVec3(v.Camera.Position),
			Target:   toVec3(v.Camera.Target),
			FOV:      v.Camera.FOV,
		},
		View: jsonView{
			Center:         toVec3(v.View.Center),
			CameraPosition: toVec3(v.View.CameraPosition),
			CameraDistance: v.View.CameraDistance,
			MaxDim:         v.View.MaxDim,
		},
		Constants: r.constants,
		Tokens:    buildJSONTokens(v.Placements),
	}
	if r.matrix {
		out.Matrix = v.Matrix.Values()
	}

	return json.MarshalIndent(out, "", "  ")
}

// StampJSON rewrites the id and created_at of a document produced by
// [RenderJSON] so a cached document describes visualization v. Everything
// else in the document is kept.
func StampJSON(data []byte, v *scene.Visualization) ([]byte, error) {
	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	out.ID = v.ID.String()
	out.CreatedAt = v.CreatedAt
	return json.MarshalIndent(out, "", "  ")
}

func buildJSONTokens(ps []layout.Placement) []jsonToken {
	tokens := make([]jsonToken, len(ps))
	for i, p := range ps {
		tokens[i] = jsonToken{
			Position:  p.Position,
			Token:     p.Token,
			Origin:    toVec3(p.Origin),
			Direction: toVec3(p.Direction),
			Color:     p.Color.Hex(),
			ColorHex:  uint32(p.Color),
			Arrow: jsonArrow{
				Length:     p.Arrow.Length,
				HeadLength: p.Arrow.HeadLength,
				HeadWidth:  p.Arrow.HeadWidth,
			},
			Label: jsonLabel{
				Position:   toVec3(p.Label.Position),
				Quaternion: toQuat4(p.Label.Rotation),
				Width:      p.Label.Width,
				Size:       p.Label.Size,
				Depth:      p.Label.Depth,
			},
			Link: [2]vec3{toVec3(p.Link.From), toVec3(p.Link.To)},
		}
	}
	return tokens
}
