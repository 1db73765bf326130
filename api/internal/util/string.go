package util

import "strings"

// ClampRunes ensures a string does not exceed max runes.
func ClampRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// Ellipsize clamps s to max runes, marking the cut with "…".
func Ellipsize(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len([]rune(s)) <= max {
		return s
	}
	return strings.TrimSpace(ClampRunes(s, max-1)) + "…"
}
