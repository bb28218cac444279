package tools

import "unicode/utf8"

const truncationMarker = "…[TRUNCATED]…"

// Truncate caps s at maxBytes. Oversized results keep the head and tail
// (roughly half and a fifth of the cap) joined by the truncation marker, so
// the model sees both how a long output starts and how it ends. A no-op when
// s already fits.
func Truncate(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}
	if maxBytes <= len(truncationMarker) {
		return s[:runeFloor(s, maxBytes)]
	}

	head := maxBytes / 2
	tail := maxBytes / 5
	if head+tail+len(truncationMarker) > maxBytes {
		head = (maxBytes - len(truncationMarker)) / 2
		tail = maxBytes - len(truncationMarker) - head
	}

	head = runeFloor(s, head)
	start := runeCeil(s, len(s)-tail)
	return s[:head] + truncationMarker + s[start:]
}

// runeFloor moves a byte offset left to the nearest rune boundary.
func runeFloor(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// runeCeil moves a byte offset right to the nearest rune boundary.
func runeCeil(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}
