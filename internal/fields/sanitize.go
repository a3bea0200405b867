package fields

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// maxStripPasses bounds how many layers of entity-encoded markup are peeled.
const maxStripPasses = 8

// SanitizeText strips markup and control characters and collapses
// whitespace to single spaces. Labels and values are user or admin input
// that end up verbatim in a message. The result contains no tags, including
// tags that were entity-encoded in the input, and sanitizing it again
// returns it unchanged.
func SanitizeText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = stripMarkup(s)
	return strings.Join(strings.Fields(s), " ")
}

// stripMarkup sanitizes and decodes until the text is stable, so decoding
// never brings back a tag the policy already removed.
func stripMarkup(s string) string {
	for i := 0; i < maxStripPasses; i++ {
		next := html.UnescapeString(textPolicy.Sanitize(s))
		if next == s {
			return s
		}
		s = next
	}
	// Still changing: drop angle brackets so nothing tag-shaped survives.
	return strings.NewReplacer("<", "", ">", "").Replace(s)
}
