package posenc

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const (
	// MinDModel is the smallest supported model dimension.
	MinDModel = 4

	// MaxDModel is the largest supported model dimension.
	MaxDModel = 256

	// DefaultDModel is the dimension used when none is given.
	DefaultDModel = 16

	// base is the wavelength base from the original transformer paper.
	base = 10000.0
)

// Matrix is an immutable positional-encoding matrix with one row per token
// position and one column per model dimension.
type Matrix struct {
	rows [][]float64
	cols int
}

// Encode computes the positional-encoding matrix for numTokens positions and
// dModel dimensions. dModel must be even; pass it through [ClampDModel] first.
// A non-positive numTokens yields an empty matrix.
func Encode(numTokens, dModel int) Matrix {
	if numTokens <= 0 {
		return Matrix{cols: dModel}
	}

	rows := make([][]float64, numTokens)
	for pos := range rows {
		row := make([]float64, dModel)
		for i := 0; i < dModel/2; i++ {
			divTerm := math.Pow(base, float64(2*i)/float64(dModel))
			angle := float64(pos) / divTerm
			row[2*i] = math.Sin(angle)
			if 2*i+1 < dModel {
				row[2*i+1] = math.Cos(angle)
			}
		}
		rows[pos] = row
	}
	return Matrix{rows: rows, cols: dModel}
}

// Rows returns the number of positions.
func (m Matrix) Rows() int { return len(m.rows) }

// Cols returns the model dimension.
func (m Matrix) Cols() int { return m.cols }

// Empty reports whether the matrix has no rows.
func (m Matrix) Empty() bool { return len(m.rows) == 0 }

// At returns the value at position pos, dimension i.
// It panics if either index is out of range.
func (m Matrix) At(pos, i int) float64 { return m.rows[pos][i] }

// Row returns a copy of the encoding at position pos.
func (m Matrix) Row(pos int) []float64 {
	out := make([]float64, len(m.rows[pos]))
	copy(out, m.rows[pos])
	return out
}

// Values returns a deep copy of all rows.
func (m Matrix) Values() [][]float64 {
	out := make([][]float64, len(m.rows))
	for i := range m.rows {
		out[i] = m.Row(i)
	}
	return out
}

// Dense returns the matrix as a gonum dense matrix, or nil when empty
// (gonum does not allow zero-sized matrices).
func (m Matrix) Dense() *mat.Dense {
	if m.Empty() || m.cols == 0 {
		return nil
	}
	data := make([]float64, 0, len(m.rows)*m.cols)
	for _, r := range m.rows {
		data = append(data, r...)
	}
	return mat.NewDense(len(m.rows), m.cols, data)
}

// ClampDModel sanitizes a user-supplied model dimension: values below
// MinDModel become MinDModel, values above MaxDModel become MaxDModel, and odd
// values are rounded up (or down when already at the maximum).
func ClampDModel(d int) int {
	if d < MinDModel {
		d = MinDModel
	}
	if d > MaxDModel {
		d = MaxDModel
	}
	if d%2 != 0 {
		if d < MaxDModel {
			d++
		} else {
			d--
		}
	}
	return d
}

// ParseDModel reads a model dimension typed by a user and clamps it with
// [ClampDModel]. Like a lenient integer parse it keeps the leading digits
// ("12px" is 12); text with no leading integer counts as below the minimum.
func ParseDModel(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return MinDModel
	}
	d, err := strconv.Atoi(s[:end])
	if err != nil {
		// Out of int range: the sign decides which bound applies.
		if s[0] == '-' {
			return MinDModel
		}
		return ClampDModel(MaxDModel)
	}
	return ClampDModel(d)
}
