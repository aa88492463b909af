package validators

import "strings"

// SanitizeFreeText normalizes an optional free-text field such as booking
// notes or report findings. Surrounding whitespace is trimmed, input longer
// than maxRunes is cut on a rune boundary, and blank input collapses to nil
// so it is stored as NULL rather than an empty string.
func SanitizeFreeText(input *string, maxRunes int) *string {
	if input == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*input)
	if trimmed == "" {
		return nil
	}
	if maxRunes > 0 {
		if runes := []rune(trimmed); len(runes) > maxRunes {
			trimmed = strings.TrimSpace(string(runes[:maxRunes]))
		}
	}
	return &trimmed
}
