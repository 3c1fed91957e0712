package validators

import (
	"strings"
	"unicode/utf8"
)

// SanitizeString collapses runs of whitespace and cuts the result to maxLen
// runes. Supplier and product names are often Devanagari or Tamil, so the
// cut never splits a character.
func SanitizeString(input string, maxLen int) string {
	s := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:maxLen]))
}
