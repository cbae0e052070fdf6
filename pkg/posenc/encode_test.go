package posenc

import (
	"math"
	"testing"
)

const eps = 1e-12

func TestEncodeShape(t *testing.T) {
	tests := []struct {
		name   string
		tokens int
		dModel int
	}{
		{"single token min dim", 1, 4},
		{"several tokens", 7, 16},
		{"max dim", 3, 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Encode(tt.tokens, tt.dModel)
			if m.Rows() != tt.tokens {
				t.Fatalf("Rows() = %d, want %d", m.Rows(), tt.tokens)
			}
			if m.Cols() != tt.dModel {
				t.Fatalf("Cols() = %d, want %d", m.Cols(), tt.dModel)
			}
			for pos := 0; pos < m.Rows(); pos++ {
				if got := len(m.Row(pos)); got != tt.dModel {
					t.Errorf("len(Row(%d)) = %d, want %d", pos, got, tt.dModel)
				}
			}
		})
	}
}

func TestEncodeEmpty(t *testing.T) {
	m := Encode(0, 8)
	if !m.Empty() {
		t.Error("Encode(0, 8) should be empty")
	}
	if m.Dense() != nil {
		t.Error("Dense() of empty matrix should be nil")
	}
}

func TestEncodeUnitCircle(t *testing.T) {
	for d := MinDModel; d <= MaxDModel; d += 2 {
		m := Encode(12, d)
		for pos := 0; pos < m.Rows(); pos++ {
			for i := 0; i < d/2; i++ {
				s, c := m.At(pos, 2*i), m.At(pos, 2*i+1)
				if got := s*s + c*c; math.Abs(got-1) > 1e-9 {
					t.Fatalf("d=%d pos=%d pair=%d: sin²+cos² = %v", d, pos, i, got)
				}
			}
		}
	}
}

func TestEncodeFirstRow(t *testing.T) {
	for _, d := range []int{4, 10, 64, 256} {
		row := Encode(1, d).Row(0)
		for i, v := range row {
			want := 0.0
			if i%2 == 1 {
				want = 1
			}
			if v != want {
				t.Errorf("d=%d: row0[%d] = %v, want %v", d, i, v, want)
			}
		}
	}
}

func TestEncodeKnownValues(t *testing.T) {
	m := Encode(2, 4)
	want := []float64{math.Sin(1), math.Cos(1), math.Sin(0.01), math.Cos(0.01)}
	for i, w := range want {
		if got := m.At(1, i); math.Abs(got-w) > eps {
			t.Errorf("At(1, %d) = %v, want %v", i, got, w)
		}
	}
}

func TestEncodeRange(t *testing.T) {
	m := Encode(50, 32)
	for pos := 0; pos < m.Rows(); pos++ {
		for i := 0; i < m.Cols(); i++ {
			if v := m.At(pos, i); v < -1 || v > 1 {
				t.Fatalf("At(%d, %d) = %v outside [-1, 1]", pos, i, v)
			}
		}
	}
}

func TestRowIsCopy(t *testing.T) {
	m := Encode(2, 4)
	row := m.Row(1)
	row[0] = 42
	if m.At(1, 0) == 42 {
		t.Error("Row() should return a copy")
	}
}

func TestDense(t *testing.T) {
	m := Encode(3, 6)
	d := m.Dense()
	r, c := d.Dims()
	if r != 3 || c != 6 {
		t.Fatalf("Dims() = (%d, %d), want (3, 6)", r, c)
	}
	if d.At(2, 3) != m.At(2, 3) {
		t.Errorf("Dense().At(2, 3) = %v, want %v", d.At(2, 3), m.At(2, 3))
	}
}

func TestClampDModel(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-3, 4},
		{0, 4},
		{1, 4},
		{4, 4},
		{5, 6},
		{16, 16},
		{255, 256},
		{256, 256},
		{257, 256},
		{10000, 256},
	}

	for _, tt := range tests {
		if got := ClampDModel(tt.in); got != tt.want {
			t.Errorf("ClampDModel(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "a b", []string{"a", "b"}},
		{"extra whitespace", "  the\tquick \n fox  ", []string{"the", "quick", "fox"}},
		{"empty", "", nil},
		{"only spaces", "   \t ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseDModel(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", MinDModel},
		{"abc", MinDModel},
		{"-", MinDModel},
		{" 16 ", 16},
		{"7", 8},
		{"12px", 12},
		{"+10", 10},
		{"-8", MinDModel},
		{"257", MaxDModel},
		{"99999999999999999999999", MaxDModel},
	}
	for _, tt := range tests {
		if got := ParseDModel(tt.in); got != tt.want {
			t.Errorf("ParseDModel(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"the quick fox", "the quick fox"},
		{"tab\tand\nnewline", "tab\tand\nnewline"},
		{"foo\x00bar\x01", "foobar"},
		{"bad \xff byte", "bad � byte"},
		{"naïve café", "naïve café"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
