package pivot

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText performs Unicode normalization and trims whitespace.
func NormalizeText(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.TrimSpace(normed)
	// Header cells copied out of merged ranges often carry line breaks.
	normed = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return normed
}

// fuzzyKey lowercases and maps "_" and "-" to spaces for loose column matching.
func fuzzyKey(s string) string {
	s = strings.ToLower(NormalizeText(s))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.TrimSpace(s)
}

// matchKey lowercases and trims a value for spec matching.
func matchKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
