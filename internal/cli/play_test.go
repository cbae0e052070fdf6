package cli

import (
	"context"
	"strconv"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/peviz/pkg/errors"
	"github.com/matzehuels/peviz/pkg/fonts"
	"github.com/matzehuels/peviz/pkg/render/sink"
)

func readyLoader(t *testing.T) *fonts.Loader {
	t.Helper()
	face, err := fonts.Default()
	if err != nil {
		t.Fatal(err)
	}
	return fonts.Ready(face)
}

func typeInto(m playModel, s string) playModel {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(playModel)
	}
	return m
}

func press(m playModel, key tea.KeyType) (playModel, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: key})
	return next.(playModel), cmd
}

func TestPlayVisualize(t *testing.T) {
	canvas := sink.NewCanvas()
	m := newPlayModel(context.Background(), readyLoader(t), 9, canvas)
	m = typeInto(m, "hello world")
	m, _ = press(m, tea.KeyEnter)

	v := m.scene.Current()
	if v == nil {
		t.Fatalf("no visualization, message = %q", m.message)
	}
	if len(v.Tokens) != 2 || v.DModel != 10 {
		t.Errorf("tokens=%v d_model=%d", v.Tokens, v.DModel)
	}
	if m.inputs[1].Value() != "10" {
		t.Errorf("d_model field should show the clamped value, got %q", m.inputs[1].Value())
	}
	if canvas.Generation() != 1 || len(canvas.SVG()) == 0 {
		t.Error("canvas should hold the drawing")
	}
}

func TestPlayEmptySentenceClears(t *testing.T) {
	m := newPlayModel(context.Background(), readyLoader(t), 16, sink.NewCanvas())
	m = typeInto(m, "hi")
	m, _ = press(m, tea.KeyEnter)
	if m.scene.Current() == nil {
		t.Fatal("expected a visualization")
	}

	m, _ = press(m, tea.KeyBackspace)
	m, _ = press(m, tea.KeyBackspace)
	m, cmd := press(m, tea.KeyEnter)

	if m.scene.Current() != nil {
		t.Error("empty sentence should clear the visualization")
	}
	if m.message != msgEmptySentence {
		t.Errorf("message = %q", m.message)
	}
	if cmd == nil {
		t.Error("message should schedule its expiry")
	}
}

func TestPlayFontPendingKeepsScene(t *testing.T) {
	m := newPlayModel(context.Background(), fonts.NewLoader(fonts.Embedded()), 16, sink.NewCanvas())
	m = typeInto(m, "hi")
	m, _ = press(m, tea.KeyEnter)

	if m.message != msgFontPending {
		t.Errorf("message = %q, want %q", m.message, msgFontPending)
	}
}

func TestPlayMessageExpiry(t *testing.T) {
	m := newPlayModel(context.Background(), readyLoader(t), 16, sink.NewCanvas())
	next, _ := m.showMessage("first")
	m = next.(playModel)
	next, _ = m.showMessage("second")
	m = next.(playModel)

	// The first message's timer must not clear the second.
	next, _ = m.Update(clearMessageMsg{id: 1})
	m = next.(playModel)
	if m.message != "second" {
		t.Errorf("message = %q, want second", m.message)
	}
	next, _ = m.Update(clearMessageMsg{id: 2})
	if next.(playModel).message != "" {
		t.Error("matching id should clear the message")
	}
}

func TestPlayOrbitRedraws(t *testing.T) {
	canvas := sink.NewCanvas()
	m := newPlayModel(context.Background(), readyLoader(t), 16, canvas)
	m = typeInto(m, "a b c")
	m, _ = press(m, tea.KeyEnter)

	before := m.scene.Camera().Position
	m, _ = press(m, tea.KeyShiftLeft)
	if m.scene.Camera().Position == before {
		t.Error("orbit should move the camera")
	}
	if canvas.Generation() != 2 {
		t.Errorf("canvas generation = %d, want 2", canvas.Generation())
	}
	if canvas.Visualization().Camera.Position != m.scene.Camera().Position {
		t.Error("canvas should draw from the orbited camera")
	}
}

func TestPlayErrorMessage(t *testing.T) {
	tests := []struct {
		code errors.Code
		want string
	}{
		{errors.ErrCodeAssetPending, msgFontPending},
		{errors.ErrCodeAssetUnavailable, msgFontUnavailable},
		{errors.ErrCodeEmptyInput, msgEmptySentence},
		{errors.ErrCodeNoTokens, msgNoTokens},
	}
	for _, tt := range tests {
		if got := playErrorMessage(errors.New(tt.code, "x")); got != tt.want {
			t.Errorf("%s: %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestPlayFontFailure(t *testing.T) {
	m := newPlayModel(context.Background(), readyLoader(t), 16, sink.NewCanvas())
	next, _ := m.Update(fontReadyMsg{err: errors.New(errors.ErrCodeAssetUnavailable, "boom")})
	m = next.(playModel)
	if m.fontErr == nil || m.message != msgFontUnavailable {
		t.Errorf("fontErr=%v message=%q", m.fontErr, m.message)
	}
}

func TestPlayDModelFallback(t *testing.T) {
	tests := []struct {
		field     string
		wantModel int
	}{
		{"", 4},
		{"abc", 4},
		{"3", 4},
		{"7", 8},
		{"300", 256},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			m := newPlayModel(context.Background(), readyLoader(t), 16, sink.NewCanvas())
			m = typeInto(m, "a b")
			m.inputs[1].SetValue(tt.field)
			m, _ = press(m, tea.KeyEnter)

			v := m.scene.Current()
			if v == nil {
				t.Fatalf("no visualization, message = %q", m.message)
			}
			if v.DModel != tt.wantModel {
				t.Errorf("DModel = %d, want %d", v.DModel, tt.wantModel)
			}
			if got := m.inputs[1].Value(); got != strconv.Itoa(tt.wantModel) {
				t.Errorf("d_model field = %q, want %d", got, tt.wantModel)
			}
		})
	}
}

func TestPlayDModelWrittenBackOnInputError(t *testing.T) {
	m := newPlayModel(context.Background(), readyLoader(t), 16, sink.NewCanvas())
	m.inputs[1].SetValue("")
	m, _ = press(m, tea.KeyEnter)

	if m.message != msgEmptySentence {
		t.Errorf("message = %q", m.message)
	}
	if m.inputs[1].Value() != "4" {
		t.Errorf("d_model field = %q, want 4", m.inputs[1].Value())
	}
}

func TestPlayVisualizesWhenFontLoads(t *testing.T) {
	m := newPlayModelWith(context.Background(), readyLoader(t), "hello there world", 6, sink.NewCanvas())
	next, _ := m.Update(fontReadyMsg{})
	m = next.(playModel)

	v := m.scene.Current()
	if v == nil {
		t.Fatalf("font load should place the starting sentence, message = %q", m.message)
	}
	if len(v.Tokens) != 3 || v.DModel != 6 {
		t.Errorf("tokens=%v d_model=%d", v.Tokens, v.DModel)
	}
}

func TestPlayFontLoadWithoutSentence(t *testing.T) {
	m := newPlayModel(context.Background(), readyLoader(t), 16, sink.NewCanvas())
	next, cmd := m.Update(fontReadyMsg{})
	m = next.(playModel)
	if m.scene.Current() != nil || m.message != "" || cmd != nil {
		t.Errorf("empty input should stay idle: message=%q", m.message)
	}
}
