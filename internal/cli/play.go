package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/peviz/pkg/errors"
	"github.com/matzehuels/peviz/pkg/fonts"
	"github.com/matzehuels/peviz/pkg/posenc"
	"github.com/matzehuels/peviz/pkg/render/sink"
	"github.com/matzehuels/peviz/pkg/scene"
)

const (
	messageDuration     = 3 * time.Second
	orbitStep           = math.Pi / 24
	defaultPlaySentence = "the quick brown fox"
)

// Messages shown in the playground status line.
const (
	msgFontPending     = "Font not loaded yet. Please wait."
	msgEmptySentence   = "Input sentence cannot be empty."
	msgNoTokens        = "No tokens found in the sentence."
	msgFontUnavailable = "Could not load the monospace font. Visualization unavailable."
)

var (
	playLabelStyle   = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	playFocusStyle   = lipgloss.NewStyle().Foreground(colorCyan).Width(10).Bold(true)
	playMessageStyle = lipgloss.NewStyle().Foreground(colorYellow)
	playHelpStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// fontReadyMsg reports that the font loader resolved.
type fontReadyMsg struct{ err error }

// clearMessageMsg expires the transient message with the given id.
type clearMessageMsg struct{ id int }

// playModel is the bubbletea model for the interactive playground.
type playModel struct {
	ctx    context.Context
	scene  *scene.Scene
	canvas *sink.Canvas
	font   *fonts.Loader

	inputs [2]textinput.Model // sentence, d_model
	focus  int

	message   string
	messageID int
	fontErr   error
	saved     string
}

// newPlayModel builds a playground over its own scene.
func newPlayModel(ctx context.Context, font *fonts.Loader, dModel int, canvas *sink.Canvas, opts ...scene.Option) playModel {
	return newPlayModelWith(ctx, font, "", dModel, canvas, opts...)
}

// newPlayModelWith is newPlayModel with a prefilled sentence, which is
// visualized as soon as the font loads.
func newPlayModelWith(ctx context.Context, font *fonts.Loader, text string, dModel int, canvas *sink.Canvas, opts ...scene.Option) playModel {
	sentence := textinput.New()
	sentence.SetValue(text)
	sentence.Placeholder = "the quick brown fox"
	sentence.CharLimit = errors.MaxSentenceLength
	sentence.Width = 60
	sentence.Focus()

	dim := textinput.New()
	dim.SetValue(strconv.Itoa(dModel))
	dim.CharLimit = 3
	dim.Width = 5
	dim.Validate = func(s string) error {
		if s == "" {
			return nil
		}
		_, err := strconv.Atoi(s)
		return err
	}

	opts = append(opts, scene.WithRenderer(canvas))
	return playModel{
		ctx:    ctx,
		scene:  scene.New(font, opts...),
		canvas: canvas,
		font:   font,
		inputs: [2]textinput.Model{sentence, dim},
	}
}

func (m playModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForFont(m.ctx, m.font))
}

func waitForFont(ctx context.Context, l *fonts.Loader) tea.Cmd {
	return func() tea.Msg {
		_, err := l.Wait(ctx)
		return fontReadyMsg{err: err}
	}
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fontReadyMsg:
		if msg.err != nil {
			m.fontErr = msg.err
			return m.showMessage(msgFontUnavailable)
		}
		if strings.TrimSpace(m.inputs[0].Value()) == "" {
			return m, nil
		}
		return m.visualize()

	case clearMessageMsg:
		if msg.id == m.messageID {
			m.message = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "shift+tab":
			m.inputs[m.focus].Blur()
			m.focus = (m.focus + 1) % len(m.inputs)
			return m, m.inputs[m.focus].Focus()
		case "enter":
			return m.visualize()
		case "shift+left":
			return m.orbit(-orbitStep, 0)
		case "shift+right":
			return m.orbit(orbitStep, 0)
		case "shift+up":
			return m.orbit(0, orbitStep)
		case "shift+down":
			return m.orbit(0, -orbitStep)
		case "ctrl+s":
			return m.save()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// visualize runs the scene with the current inputs and maps failures to
// the playground's status messages.
func (m playModel) visualize() (tea.Model, tea.Cmd) {
	dModel := posenc.ParseDModel(m.inputs[1].Value())

	_, err := m.scene.Visualize(m.ctx, m.inputs[0].Value(), dModel)
	if !errors.IsAsset(err) {
		m.inputs[1].SetValue(strconv.Itoa(dModel))
	}
	if err != nil {
		return m.showMessage(playErrorMessage(err))
	}
	m.saved = ""
	return m, nil
}

func playErrorMessage(err error) string {
	switch errors.GetCode(err) {
	case errors.ErrCodeAssetPending:
		return msgFontPending
	case errors.ErrCodeAssetUnavailable:
		return msgFontUnavailable
	case errors.ErrCodeEmptyInput:
		return msgEmptySentence
	case errors.ErrCodeNoTokens:
		return msgNoTokens
	default:
		return errors.UserMessage(err)
	}
}

// orbit moves the camera and redraws the canvas from the new viewpoint.
func (m playModel) orbit(azimuth, elevation float64) (tea.Model, tea.Cmd) {
	cur := m.scene.Current()
	if cur == nil {
		return m, nil
	}
	m.scene.Orbit(azimuth, elevation)

	v := *cur
	v.Camera = m.scene.Camera()
	m.canvas.Release()
	m.canvas.Replace(&v)
	return m, nil
}

// save writes the canvas to <slug>.svg in the working directory.
func (m playModel) save() (tea.Model, tea.Cmd) {
	v := m.canvas.Visualization()
	if v == nil {
		return m.showMessage("Nothing to save yet.")
	}
	path := slug(v.Sentence) + ".svg"
	if err := os.WriteFile(path, m.canvas.SVG(), 0o644); err != nil {
		return m.showMessage(fmt.Sprintf("Save failed: %v", err))
	}
	m.saved = path
	return m.showMessage("Saved " + path)
}

// showMessage displays msg until it expires or another message replaces it.
func (m playModel) showMessage(msg string) (tea.Model, tea.Cmd) {
	m.messageID++
	m.message = msg
	id := m.messageID
	return m, tea.Tick(messageDuration, func(time.Time) tea.Msg {
		return clearMessageMsg{id: id}
	})
}

func (m playModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("peviz playground"))
	b.WriteString("\n\n")

	labels := [2]string{"Sentence", "d_model"}
	for i, in := range m.inputs {
		style := playLabelStyle
		if i == m.focus {
			style = playFocusStyle
		}
		b.WriteString(style.Render(labels[i]) + " " + in.View() + "\n")
	}
	b.WriteString("\n")

	if m.fontErr == nil {
		select {
		case <-m.font.Done():
		default:
			b.WriteString(StyleDim.Render("loading font…") + "\n\n")
		}
	}

	if v := m.scene.Current(); v != nil {
		b.WriteString(placementTable(v))
		b.WriteString("\n")
		cam := m.scene.Camera()
		b.WriteString(StyleDim.Render(fmt.Sprintf("camera (%.2f, %.2f, %.2f) → (%.2f, %.2f, %.2f)",
			cam.Position.X, cam.Position.Y, cam.Position.Z,
			cam.Target.X, cam.Target.Y, cam.Target.Z)))
		b.WriteString("\n")
	}

	if m.message != "" {
		b.WriteString("\n" + playMessageStyle.Render(m.message) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(playHelpStyle.Render("enter visualize  tab switch field  shift+arrows orbit  ctrl+s save svg  esc quit"))
	return b.String()
}

// placementTable lists each token's origin, direction and color.
func placementTable(v *scene.Visualization) string {
	rows := make([][]string, 0, len(v.Placements))
	for _, p := range v.Placements {
		rows = append(rows, []string{
			strconv.Itoa(p.Position),
			p.Token,
			fmt.Sprintf("%6.2f %6.2f %6.2f", p.Origin.X, p.Origin.Y, p.Origin.Z),
			fmt.Sprintf("%6.3f %6.3f %6.3f", p.Direction.X, p.Direction.Y, p.Direction.Z),
			p.Color.Hex(),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("pos", "token", "origin", "direction", "color").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 4 && row >= 0 && row < len(v.Placements) {
				return cell.Foreground(lipgloss.Color(v.Placements[row].Color.Hex()))
			}
			return cell
		}).
		String()
}

// playCommand creates the interactive playground command.
func (c *CLI) playCommand() *cobra.Command {
	var (
		dModel   int
		sentence string
	)

	cmd := &cobra.Command{
		Use:   "play [sentence]",
		Short: "Explore positional encodings interactively",
		Long: `Explore positional encodings interactively.

Type a sentence, pick an encoding dimension and press enter to place the
tokens. The starting sentence is placed as soon as the font has loaded.
shift+arrows orbit the camera and ctrl+s saves the current view as SVG.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				sentence = strings.Join(args, " ")
			}
			if !cmd.Flags().Changed("d-model") {
				dModel = c.Config.Render.DModel
			}
			style, _ := sink.StyleByName(c.Config.Render.Style)
			canvas := sink.NewCanvas(
				sink.WithStyle(style),
				sink.WithSize(c.Config.Render.Width, c.Config.Render.Height),
				sink.WithConstants(c.Config.Layout),
			)

			m := newPlayModelWith(cmd.Context(), c.fontLoader(), sentence, dModel, canvas, scene.WithConstants(c.Config.Layout))
			final, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			if pm, ok := final.(playModel); ok && pm.saved != "" {
				printFile(pm.saved)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&dModel, "d-model", "d", posenc.DefaultDModel, "initial encoding dimension")
	cmd.Flags().StringVarP(&sentence, "sentence", "s", defaultPlaySentence, "initial sentence")
	return cmd
}
