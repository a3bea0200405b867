// Package fields turns a form field plus a submission entry into the display
// string used in outbound messages.
package fields

import (
	"strconv"
	"strings"
	"time"

	"formnotif/internal/domain"
)

const DateLayout = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	DateLayout,
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
	"January 2, 2006",
	"2 January 2006",
}

// Extract returns the sanitized display value of field within entry.
func Extract(field domain.FieldDescriptor, entry domain.SubmissionEntry) string {
	var v string
	switch field.Kind.Shape() {
	case domain.ShapeCheckbox:
		v = joinInputs(field, entry, ", ")
	case domain.ShapeName:
		v = joinInputs(field, entry, " ")
	case domain.ShapeAddress:
		v = joinInputs(field, entry, ", ")
	case domain.ShapeDate:
		v = FormatDate(lookup(entry, fieldKey(field)))
	case domain.ShapeScalar:
		v = lookup(entry, fieldKey(field))
	}
	return SanitizeText(v)
}

// joinInputs collects the non-empty sub-input values in declared order. A
// field without declared inputs falls back to its own id.
func joinInputs(field domain.FieldDescriptor, entry domain.SubmissionEntry, sep string) string {
	if len(field.Inputs) == 0 {
		return lookup(entry, fieldKey(field))
	}
	parts := make([]string, 0, len(field.Inputs))
	for _, in := range field.Inputs {
		if v := lookup(entry, in.ID); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}

// FormatDate rewrites a recognised date as YYYY-MM-DD. Unrecognised input is
// returned unchanged.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}
	return s
}

func lookup(entry domain.SubmissionEntry, key string) string {
	v, ok := entry.Lookup(key)
	if !ok {
		return ""
	}
	return v.String()
}

func fieldKey(field domain.FieldDescriptor) string {
	return strconv.Itoa(field.ID)
}
