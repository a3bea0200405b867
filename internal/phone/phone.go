// Package phone turns user- or admin-typed phone numbers into the bare
// international digit strings the messaging API expects.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	DefaultCountryCode = "62"

	MinDigits = 10
	MaxDigits = 15
)

// Rules are the per-form overrides that influence normalization.
type Rules struct {
	CountryCode          string
	RequireInternational bool
}

func (r Rules) countryCode() string {
	if r.CountryCode != "" {
		return r.CountryCode
	}
	return DefaultCountryCode
}

type Warning string

const (
	WarnNone             Warning = ""
	WarnNotInternational Warning = "not_international"
)

// Normalize returns digits only, without "+", prefixed by a country code, or
// "" when the input is rejected.
//
// A "+" prefix means the number is already international. A leading "0" is
// replaced by the resolved country code. Anything else passes through
// unchanged. RequireInternational never rejects; a number without "+" only
// yields WarnNotInternational. In strict mode the result must hold between
// MinDigits and MaxDigits digits.
func Normalize(raw string, rules Rules, strict bool) (string, Warning) {
	c := clean(raw)
	if c == "" {
		return "", WarnNone
	}
	if c[0] == '+' {
		d := c[1:]
		if strict && !InBounds(d) {
			return "", WarnNone
		}
		return d, WarnNone
	}

	warn := WarnNone
	if rules.RequireInternational {
		warn = WarnNotInternational
	}
	// Numbers without "+" or "0" pass through even when RequireInternational is set.
	if c[0] == '0' {
		c = rules.countryCode() + c[1:]
	}
	if strict && !InBounds(c) {
		return "", warn
	}
	return c, warn
}

// InBounds reports whether d has an acceptable digit count.
func InBounds(d string) bool {
	return len(d) >= MinDigits && len(d) <= MaxDigits
}

// Digits drops every non-digit character.
func Digits(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

// clean keeps digits and a "+" only when it is the first kept character.
func clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeList strictly normalizes every number and drops rejects and
// duplicates, keeping first-seen order.
func SanitizeList(numbers []string, rules Rules) []string {
	out := make([]string, 0, len(numbers))
	seen := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		norm, _ := Normalize(n, rules, true)
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

// SplitLines parses a newline-delimited number list.
func SplitLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// SanitizeCountryCode keeps at most three digits.
func SanitizeCountryCode(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == 3 {
				break
			}
		}
	}
	return b.String()
}

// Region is a best-effort region code (e.g. "ID") for a normalized number,
// used for log context only.
func Region(normalized string) string {
	if normalized == "" {
		return ""
	}
	num, err := phonenumbers.Parse("+"+normalized, "")
	if err != nil {
		return ""
	}
	return phonenumbers.GetRegionCodeForNumber(num)
}
