package util

import (
	"regexp"
	"strings"
)

var (
	unsafeNamePattern    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	whitespaceRunPattern = regexp.MustCompile(`\s+`)
)

// TruncateString truncates a string to maxRunes characters (rune-based, not
// byte-based). If truncated, appends "..." to the result.
func TruncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// Normalize performs basic string normalization (lowercase + trim)
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SanitizeFileName makes a contact name safe for use as a download file
// name: letters, digits, underscore and hyphen survive; everything else is
// dropped and internal whitespace runs collapse to a single underscore.
// Korean names pass through untouched.
func SanitizeFileName(name string) string {
	cleaned := unsafeNamePattern.ReplaceAllString(name, "")
	cleaned = strings.TrimSpace(cleaned)
	return whitespaceRunPattern.ReplaceAllString(cleaned, "_")
}
