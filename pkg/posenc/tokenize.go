package posenc

import (
	"strings"
	"unicode"
)

// Tokenize splits a sentence on whitespace and drops empty tokens.
// The index of each token is its encoding position.
func Tokenize(sentence string) []string {
	return strings.Fields(sentence)
}

// Sanitize makes arbitrary input safe to tokenize and draw: invalid UTF-8
// becomes U+FFFD and control characters other than whitespace are dropped.
func Sanitize(sentence string) string {
	sentence = strings.ToValidUTF8(sentence, "\uFFFD")
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, sentence)
}
