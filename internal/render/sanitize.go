package render

import "strings"

// SanitizeMessage drops ASCII control characters (NUL included) that would
// corrupt the outbound payload. Newlines, carriage returns and tabs are kept.
func SanitizeMessage(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t', r == '\n', r == '\r':
			return r
		case r < 0x20, r == 0x7f:
			return -1
		}
		return r
	}, s)
}
