// Package render expands message templates for a submission.
package render

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"formnotif/internal/domain"
	"formnotif/internal/fields"
)

const (
	PlaceholderFormTitle      = "{form_title}"
	PlaceholderSubmissionDate = "{submission_date}"
	PlaceholderFields         = "{fields}"

	DateTimeLayout = "2006-01-02 15:04:05"
)

const DefaultAdminTemplate = "📝 *New Form Submission*\n\n" +
	"*Form:* {form_title}\n" +
	"*Date:* {submission_date}\n\n" +
	"{fields}\n\n" +
	"---\n" +
	"_Sent via formnotif_"

const DefaultCustomerTemplate = "📋 *Copy of Your Submission*\n\n" +
	"Thank you for submitting the form \"*{form_title}*\".\n\n" +
	"Here is a copy of your submission:\n\n" +
	"{fields}\n\n" +
	"---\n" +
	"_Sent via formnotif_"

// Renderer builds the admin and customer messages. Empty templates fall back
// to the defaults above.
type Renderer struct {
	AdminTemplate    string
	CustomerTemplate string
	// Location for {submission_date}; nil means UTC.
	Location *time.Location
}

// Admin renders the admin message, including {field:<label>} and
// {field:<id>} placeholders for every field of the form.
func (r Renderer) Admin(entry domain.SubmissionEntry, form domain.FormSchema) string {
	table := r.builtins(entry, form)
	for _, fd := range form.Fields {
		v := fields.Extract(fd, entry)
		table["{field:"+fields.SanitizeText(fd.Label)+"}"] = v
		table["{field:"+strconv.Itoa(fd.ID)+"}"] = v
	}
	return Render(orDefault(r.AdminTemplate, DefaultAdminTemplate), table)
}

// Customer renders the customer copy. Only the built-in placeholders apply.
func (r Renderer) Customer(entry domain.SubmissionEntry, form domain.FormSchema) string {
	return Render(orDefault(r.CustomerTemplate, DefaultCustomerTemplate), r.builtins(entry, form))
}

func (r Renderer) builtins(entry domain.SubmissionEntry, form domain.FormSchema) map[string]string {
	date := ""
	if !entry.CreatedAt.IsZero() {
		loc := r.Location
		if loc == nil {
			loc = time.UTC
		}
		date = entry.CreatedAt.In(loc).Format(DateTimeLayout)
	}
	return map[string]string{
		PlaceholderFormTitle:      fields.SanitizeText(form.Title),
		PlaceholderSubmissionDate: date,
		PlaceholderFields:         FieldsBlock(entry, form),
	}
}

// FieldsBlock lists every field that carries a value as "*<label>:* <value>",
// separated by blank lines. Excluded kinds and empty values are skipped; "0"
// is a value.
func FieldsBlock(entry domain.SubmissionEntry, form domain.FormSchema) string {
	var b strings.Builder
	for _, fd := range form.Fields {
		if fd.Kind.Excluded() {
			continue
		}
		v := fields.Extract(fd, entry)
		if v == "" {
			continue
		}
		b.WriteString("*")
		b.WriteString(fields.SanitizeText(fd.Label))
		b.WriteString(":* ")
		b.WriteString(v)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), " \t\r\n")
}

// Render replaces every key of table found in tmpl in a single pass, so a
// substituted value is never scanned for further placeholders, then
// sanitizes the result.
func Render(tmpl string, table map[string]string) string {
	keys := make([]string, 0, len(table))
	for k := range table {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, table[k])
	}
	return SanitizeMessage(strings.NewReplacer(pairs...).Replace(tmpl))
}

func orDefault(tmpl, def string) string {
	if strings.TrimSpace(tmpl) == "" {
		return def
	}
	return tmpl
}
