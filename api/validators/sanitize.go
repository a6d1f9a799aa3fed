package validators

import (
	"strings"
	"unicode"
)

// SanitizeString drops control characters, collapses whitespace runs and
// truncates to maxLen runes. maxLen <= 0 disables truncation.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Join(strings.FieldsFunc(input, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}), " ")
	if maxLen <= 0 {
		return cleaned
	}
	runes := []rune(cleaned)
	if len(runes) <= maxLen {
		return cleaned
	}
	return strings.TrimSpace(string(runes[:maxLen]))
}
