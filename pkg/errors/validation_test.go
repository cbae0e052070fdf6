package errors

import (
	"strings"
	"testing"
)

func TestValidateSentence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode Code
	}{
		{"valid", "the quick brown fox", ""},
		{"valid with tabs and newlines", "a\tb\nc", ""},
		{"unicode", "naïve café", ""},

		{"empty", "", ErrCodeEmptyInput},
		{"whitespace only", "  \t\n ", ErrCodeEmptyInput},
		{"too long", strings.Repeat("a ", MaxSentenceLength), ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSentence(tt.input)
			if got := GetCode(err); got != tt.wantCode {
				t.Errorf("ValidateSentence(%q) code = %q, want %q (err: %v)", tt.input, got, tt.wantCode, err)
			}
		})
	}
}

func TestValidateTokens(t *testing.T) {
	if err := ValidateTokens([]string{"a"}); err != nil {
		t.Errorf("ValidateTokens([a]) = %v, want nil", err)
	}
	if err := ValidateTokens(nil); !Is(err, ErrCodeNoTokens) {
		t.Errorf("ValidateTokens(nil) = %v, want NO_TOKENS", err)
	}
}
