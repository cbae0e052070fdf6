package server

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/peviz/pkg/buildinfo"
	"github.com/matzehuels/peviz/pkg/errors"
	"github.com/matzehuels/peviz/pkg/pipeline"
	"github.com/matzehuels/peviz/pkg/posenc"
)

// visualizeResponse is returned by POST /api/v1/visualize. Text formats
// (svg, json) are inlined; binary formats (png, pdf) are base64.
type visualizeResponse struct {
	ID        string            `json:"id"`
	Sentence  string            `json:"sentence"`
	DModel    int               `json:"d_model"`
	Tokens    []string          `json:"tokens"`
	VizType   string            `json:"viz_type"`
	Cached    bool              `json:"cached"`
	Artifacts map[string]string `json:"artifacts"`
	Encoding  map[string]string `json:"encoding"`
	ElapsedMS int64             `json:"elapsed_ms"`
}

type encodeResponse struct {
	Tokens []string    `json:"tokens"`
	DModel int         `json:"d_model"`
	Matrix [][]float64 `json:"matrix"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Font   string         `json:"font"`
	Build  buildinfo.Info `json:"build"`
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
}

// handleVisualize runs the full pipeline. With ?raw=1 and a single format
// the artifact bytes are written directly with their content type.
func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var opts pipeline.Options
	dec := json.NewDecoder(io.LimitReader(r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}
	opts.Constants = s.constants
	opts.Logger = s.logger.With("request_id", middleware.GetReqID(r.Context()))

	raw := r.URL.Query().Get("raw") == "1"
	if raw && len(opts.Formats) > 1 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "raw output needs a single format"))
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v := result.Visualization

	if raw {
		format := pipeline.FormatSVG
		if len(opts.Formats) == 1 {
			format = opts.Formats[0]
		}
		w.Header().Set("Content-Type", contentTypes[format])
		w.Header().Set("X-Peviz-Cache", strconv.FormatBool(result.CacheInfo.RenderHit))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Artifacts[format])
		return
	}

	resp := visualizeResponse{
		ID:        v.ID.String(),
		Sentence:  v.Sentence,
		DModel:    v.DModel,
		Tokens:    v.Tokens,
		VizType:   vizType(opts.VizType),
		Cached:    result.CacheInfo.RenderHit,
		Artifacts: make(map[string]string, len(result.Artifacts)),
		Encoding:  make(map[string]string, len(result.Artifacts)),
		ElapsedMS: time.Since(start).Milliseconds(),
	}
	for format, data := range result.Artifacts {
		switch format {
		case pipeline.FormatPNG, pipeline.FormatPDF:
			resp.Artifacts[format] = base64.StdEncoding.EncodeToString(data)
			resp.Encoding[format] = "base64"
		default:
			resp.Artifacts[format] = string(data)
			resp.Encoding[format] = "utf-8"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleEncode returns the encoding matrix without building a scene.
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sentence := posenc.Sanitize(q.Get("sentence"))

	// An absent d_model means the default; a present but unreadable one is
	// treated as below the minimum, the same as the playground field.
	dModel := posenc.DefaultDModel
	if q.Has("d_model") {
		dModel = posenc.ParseDModel(q.Get("d_model"))
	}

	if err := errors.ValidateSentence(sentence); err != nil {
		s.writeError(w, r, err)
		return
	}
	tokens := posenc.Tokenize(sentence)
	if err := errors.ValidateTokens(tokens); err != nil {
		s.writeError(w, r, err)
		return
	}

	m := posenc.Encode(len(tokens), dModel)
	writeJSON(w, http.StatusOK, encodeResponse{Tokens: tokens, DModel: dModel, Matrix: m.Values()})
}

// handleHealth reports 200 once the font has loaded and 503 otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Font:   s.runner.Fonts.Source().Name(),
		Build:  buildinfo.Get(),
	}
	status := http.StatusOK

	if _, err := s.runner.Fonts.Face(); err != nil {
		status = http.StatusServiceUnavailable
		resp.Status = "loading"
		if errors.Is(err, errors.ErrCodeAssetUnavailable) {
			resp.Status = "unavailable"
		}
	}
	writeJSON(w, status, resp)
}

func vizType(v string) string {
	if v == "" {
		return pipeline.DefaultVizType
	}
	return v
}
