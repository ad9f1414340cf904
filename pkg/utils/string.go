package utils

// Truncate shortens s to maxRunes runes and marks the cut with "...".
// Multi-byte characters are never split.
func Truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}
