package core

import (
	"math"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CleanID trims `s` and upper-cases it; user-chosen identifiers are case-insensitive.
func CleanID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Percent returns round(part/whole*100) clamped to [0, 100].
func Percent(part, whole int) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	pct := int(math.Round(float64(part) / float64(whole) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}
