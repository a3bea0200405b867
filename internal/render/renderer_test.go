package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"formnotif/internal/domain"
)

func testForm() domain.FormSchema {
	return domain.FormSchema{
		ID:    7,
		Title: "Contact <em>Us</em>",
		Fields: []domain.FieldDescriptor{
			{ID: 1, Kind: domain.KindText, Label: "Name"},
			{ID: 2, Kind: domain.KindNumber, Label: "Guests"},
			{ID: 3, Kind: domain.KindHTML, Label: "Intro"},
			{ID: 4, Kind: domain.KindEmail, Label: "Email"},
			{ID: 5, Kind: domain.KindPhone, Label: "Phone"},
		},
	}
}

func testEntry() domain.SubmissionEntry {
	return domain.SubmissionEntry{
		ID:        "42",
		FormID:    7,
		CreatedAt: time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
		Values: map[string]domain.Value{
			"1": domain.StringValue("Jane"),
			"2": domain.StringValue("0"),
			"3": domain.StringValue("should never show"),
			"4": domain.StringValue(""),
			"5": domain.StringValue("0812345678"),
		},
	}
}

func TestAdminFieldPlaceholders(t *testing.T) {
	form := domain.FormSchema{ID: 1, Fields: []domain.FieldDescriptor{{ID: 1, Kind: domain.KindText, Label: "Name"}}}
	entry := domain.SubmissionEntry{Values: map[string]domain.Value{"1": domain.StringValue("Jane")}}

	r := Renderer{AdminTemplate: "Hi {field:Name}"}
	assert.Equal(t, "Hi Jane", r.Admin(entry, form))

	r.AdminTemplate = "Hi {field:1}, {field:Missing}"
	assert.Equal(t, "Hi Jane, {field:Missing}", r.Admin(entry, form))
}

func TestFieldsBlock(t *testing.T) {
	got := FieldsBlock(testEntry(), testForm())
	assert.Equal(t, "*Name:* Jane\n\n*Guests:* 0\n\n*Phone:* 0812345678", got)
	assert.NotContains(t, got, "should never show")
	assert.NotContains(t, got, "Email")
}

func TestFieldsOnlyTemplateWithNoIncludedFields(t *testing.T) {
	form := domain.FormSchema{ID: 1, Fields: []domain.FieldDescriptor{
		{ID: 1, Kind: domain.KindHTML, Label: "Intro"},
		{ID: 2, Kind: domain.KindSection, Label: "Part"},
	}}
	entry := domain.SubmissionEntry{Values: map[string]domain.Value{"1": domain.StringValue("x"), "2": domain.StringValue("y")}}
	r := Renderer{AdminTemplate: "{fields}", CustomerTemplate: "{fields}"}
	assert.Equal(t, "", r.Admin(entry, form))
	assert.Equal(t, "", r.Customer(entry, form))
}

func TestBuiltins(t *testing.T) {
	r := Renderer{CustomerTemplate: "{form_title} @ {submission_date} {field:Name}"}
	assert.Equal(t, "Contact Us @ 2024-03-15 09:30:00 {field:Name}", r.Customer(testEntry(), testForm()))
}

func TestDefaultTemplates(t *testing.T) {
	r := Renderer{AdminTemplate: "  "}
	got := r.Admin(testEntry(), testForm())
	assert.Contains(t, got, "*Form:* Contact Us")
	assert.Contains(t, got, "*Name:* Jane")

	got = r.Customer(testEntry(), testForm())
	assert.Contains(t, got, "Copy of Your Submission")
}

func TestRenderSinglePass(t *testing.T) {
	table := map[string]string{
		"{a}": "{b}",
		"{b}": "B",
	}
	assert.Equal(t, "{b} B", Render("{a} {b}", table))
}

func TestValuesCannotInjectControlCharacters(t *testing.T) {
	table := map[string]string{"{x}": "a\x00b\x1bc"}
	assert.Equal(t, "line\nabc\t!", Render("line\n{x}\t!", table))
}

func TestSanitizeMessageIdempotent(t *testing.T) {
	in := "a\x00\x01b\x0b\x0c\r\n\tc\x7f\x1f"
	once := SanitizeMessage(in)
	assert.Equal(t, "ab\r\n\tc", once)
	assert.Equal(t, once, SanitizeMessage(once))
}
