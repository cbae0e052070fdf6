package errors

import "strings"

// MaxSentenceLength bounds the accepted sentence size in bytes.
const MaxSentenceLength = 4096

// ValidateSentence checks an input sentence before tokenization. Callers
// sanitize first; this only rejects what sanitizing cannot repair.
//
// The rules are:
//   - Not empty after trimming whitespace
//   - At most MaxSentenceLength bytes
func ValidateSentence(s string) error {
	if strings.TrimSpace(s) == "" {
		return New(ErrCodeEmptyInput, "input sentence cannot be empty")
	}

	if len(s) > MaxSentenceLength {
		return New(ErrCodeInvalidInput, "input sentence too long (max %d bytes)", MaxSentenceLength)
	}

	return nil
}

// ValidateTokens checks that tokenization produced something to draw.
func ValidateTokens(tokens []string) error {
	if len(tokens) == 0 {
		return New(ErrCodeNoTokens, "no tokens found in the sentence")
	}
	return nil
}
