// Package posenc computes sinusoidal positional encodings.
//
// # Overview
//
// A positional encoding maps a sequence position to a vector of sinusoids at
// geometrically increasing wavelengths. Transformer models add it to token
// embeddings so that an otherwise order-agnostic attention stack can tell
// positions apart.
//
// For position pos and pair index i in [0, D/2):
//
//	divTerm      = 10000^(2i/D)
//	PE[pos][2i]   = sin(pos / divTerm)
//	PE[pos][2i+1] = cos(pos / divTerm)
//
// # Usage
//
//	tokens := posenc.Tokenize("the quick brown fox")
//	d := posenc.ClampDModel(userInput)
//	m := posenc.Encode(len(tokens), d)
//	row := m.Row(2) // encoding of "brown"
//
// Every pair (2i, 2i+1) of a row lies on the unit circle, and row 0 is always
// [0, 1, 0, 1, ...].
//
// # Dimensions
//
// The model dimension is clamped to [MinDModel, MaxDModel] and forced even by
// [ClampDModel]. [Encode] assumes a clamped argument.
package posenc
