// Package strings holds text helpers for terminal output.
package strings

import (
	"strings"
)

// MessageMaxLen is the width of a message cell in the error table.
const MessageMaxLen = 96

// minLen leaves room for one character and the ellipsis.
const minLen = 4

// Truncate collapses all whitespace in s to single spaces and shortens the
// result to at most maxLen runes, ending in "..." when cut.
func Truncate(s string, maxLen int) string {
	maxLen = max(maxLen, minLen)
	s = strings.Join(strings.Fields(s), " ")
	if runes := []rune(s); len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
