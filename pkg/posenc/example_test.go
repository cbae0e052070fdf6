package posenc_test

import (
	"fmt"

	"github.com/matzehuels/peviz/pkg/posenc"
)

func ExampleEncode() {
	tokens := posenc.Tokenize("a b")
	m := posenc.Encode(len(tokens), 4)

	fmt.Println("Shape:", m.Rows(), "x", m.Cols())
	fmt.Println("Row 0:", m.Row(0))
	fmt.Printf("Row 1: [%.4f %.4f %.4f %.4f]\n", m.At(1, 0), m.At(1, 1), m.At(1, 2), m.At(1, 3))
	// Output:
	// Shape: 2 x 4
	// Row 0: [0 1 0 1]
	// Row 1: [0.8415 0.5403 0.0100 1.0000]
}

func ExampleClampDModel() {
	fmt.Println(posenc.ClampDModel(257))
	fmt.Println(posenc.ClampDModel(7))
	fmt.Println(posenc.ClampDModel(2))
	// Output:
	// 256
	// 8
	// 4
}
