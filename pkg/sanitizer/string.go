// Package sanitizer normalizes listing and booking input before validation
// and storage. All functions are idempotent and never return errors; invalid
// input degrades to an empty value.
package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the string and collapses internal whitespace runs
// into single spaces.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeTitle(title string) string {
	return TrimAndNormalize(title)
}

func NormalizeAddress(address string) string {
	return TrimAndNormalize(address)
}

// NormalizeSurfaceType lowercases so "Asphalt" and "asphalt" index identically.
func NormalizeSurfaceType(surfaceType string) string {
	return strings.ToLower(TrimAndNormalize(surfaceType))
}
