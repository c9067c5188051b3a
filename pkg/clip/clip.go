// Package clip cuts text to a byte bound without splitting a UTF-8 rune.
package clip

import "unicode/utf8"

// Bytes returns the longest prefix of s that is at most max bytes and ends
// on a rune boundary. max <= 0 disables clipping.
func Bytes(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// Within is Bytes that also reports whether anything was dropped.
func Within(s string, max int) (string, bool) {
	out := Bytes(s, max)
	return out, len(out) < len(s)
}
