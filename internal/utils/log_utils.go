// Package utils holds logging helpers shared by the server components
package utils

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxLogStringLength defines the maximum length for untrusted strings in logs
const MaxLogStringLength = 200

var unprintable = regexp.MustCompile(`[^\p{L}\p{N}\p{P}\p{S}\p{Z}]`)

// SanitizeLogString makes text from a remote server safe to put in a log field.
// Control characters become single spaces, runs of whitespace collapse and
// the result is capped at MaxLogStringLength bytes.
func SanitizeLogString(input string) string {
	if input == "" {
		return ""
	}

	input = strings.ReplaceAll(input, "\r\n", "\n")
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, input)
	cleaned = unprintable.ReplaceAllString(cleaned, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if len(cleaned) > MaxLogStringLength {
		cut := MaxLogStringLength
		for cut > 0 && !utf8RuneStart(cleaned[cut]) {
			cut--
		}
		cleaned = cleaned[:cut] + "... (truncated)"
	}
	return cleaned
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
