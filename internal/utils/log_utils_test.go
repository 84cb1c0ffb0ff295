package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLogString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "Normal string",
			input:    "Mailbox not found",
			expected: "Mailbox not found",
		},
		{
			name:     "Format specifiers are kept",
			input:    "status %d for %s",
			expected: "status %d for %s",
		},
		{
			name:     "String with newlines",
			input:    "First line\nSecond line\r\nThird line",
			expected: "First line Second line Third line",
		},
		{
			name:     "Long string truncation",
			input:    strings.Repeat("A", 300),
			expected: strings.Repeat("A", MaxLogStringLength) + "... (truncated)",
		},
		{
			name:     "String with control characters",
			input:    "Bad\tgateway\x00from\x1Fupstream",
			expected: "Bad gateway from upstream",
		},
		{
			name:     "HTML error page",
			input:    "<html><body>\n  <h1>502</h1>\n</body></html>",
			expected: "<html><body> <h1>502</h1> </body></html>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeLogString(tt.input))
		})
	}
}

func TestSanitizeLogStringKeepsRunesWhole(t *testing.T) {
	input := strings.Repeat("a", MaxLogStringLength-1) + "ø" + "tail"
	result := SanitizeLogString(input)

	assert.True(t, strings.HasSuffix(result, "... (truncated)"))
	assert.NotContains(t, result, "�")
	assert.Equal(t, strings.Repeat("a", MaxLogStringLength-1)+"... (truncated)", result)
}
