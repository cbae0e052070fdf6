package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/peviz/pkg/errors"
	"github.com/matzehuels/peviz/pkg/posenc"
)

// defaultEncodeColumns is how many leading dimensions the table shows.
const defaultEncodeColumns = 8

// encodeOutput is the JSON form of the encode command.
type encodeOutput struct {
	Tokens []string    `json:"tokens"`
	DModel int         `json:"d_model"`
	Matrix [][]float64 `json:"matrix"`
}

// encodeCommand creates the encode command that prints raw encodings.
func (c *CLI) encodeCommand() *cobra.Command {
	var (
		dModel    int
		columns   int
		precision int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "encode [sentence...]",
		Short: "Print the positional encoding matrix for a sentence",
		Long: `Print the positional encoding matrix for a sentence.

Rows are token positions, columns are encoding dimensions. The table shows the
first --columns dimensions; use --json for the full matrix.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("d-model") {
				dModel = c.Config.Render.DModel
			}
			sentence := posenc.Sanitize(strings.Join(args, " "))
			if err := errors.ValidateSentence(sentence); err != nil {
				return userError(err)
			}
			tokens := posenc.Tokenize(sentence)
			if err := errors.ValidateTokens(tokens); err != nil {
				return userError(err)
			}

			dModel = posenc.ClampDModel(dModel)
			m := posenc.Encode(len(tokens), dModel)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(encodeOutput{Tokens: tokens, DModel: dModel, Matrix: m.Values()})
			}
			_, err := fmt.Fprintln(out, encodeTable(tokens, m, columns, precision))
			return err
		},
	}

	cmd.Flags().IntVarP(&dModel, "d-model", "d", posenc.DefaultDModel, "encoding dimension (clamped to 4..256, even)")
	cmd.Flags().IntVarP(&columns, "columns", "c", defaultEncodeColumns, "number of leading dimensions to show")
	cmd.Flags().IntVarP(&precision, "precision", "p", 3, "decimal places")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full matrix as JSON")

	return cmd
}

// encodeTable renders the first columns dimensions of m as a bordered table.
func encodeTable(tokens []string, m posenc.Matrix, columns, precision int) string {
	if columns <= 0 || columns > m.Cols() {
		columns = m.Cols()
	}

	headers := []string{"pos", "token"}
	for i := 0; i < columns; i++ {
		headers = append(headers, fmt.Sprintf("PE[%d]", i))
	}
	if columns < m.Cols() {
		headers = append(headers, "…")
	}

	rows := make([][]string, 0, m.Rows())
	for pos := 0; pos < m.Rows(); pos++ {
		row := []string{strconv.Itoa(pos), tokens[pos]}
		for i := 0; i < columns; i++ {
			row = append(row, strconv.FormatFloat(m.At(pos, i), 'f', precision, 64))
		}
		if columns < m.Cols() {
			row = append(row, "")
		}
		rows = append(rows, row)
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cell := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0, 1)
			case col == 0:
				return cell.Foreground(colorDim).Align(lipgloss.Right)
			case col == 1:
				return cell.Foreground(colorCyan)
			default:
				return cell.Foreground(colorWhite).Align(lipgloss.Right)
			}
		}).
		String()
}
