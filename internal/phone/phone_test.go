package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		rules    Rules
		strict   bool
		want     string
		wantWarn Warning
	}{
		{name: "empty", raw: "", want: ""},
		{name: "plus prefix drops plus", raw: "+1 (555) 123-4567", want: "15551234567"},
		{name: "plus prefix ignores country override", raw: "+44 20 7946 0958", rules: Rules{CountryCode: "1"}, want: "442079460958"},
		{name: "leading zero gets default code", raw: "0812-345-678", want: "62812345678"},
		{name: "leading zero gets form code", raw: "0612345678", rules: Rules{CountryCode: "33"}, want: "33612345678"},
		{name: "no prefix passes through", raw: "6281234567", want: "6281234567"},
		{name: "require international warns but keeps default rule", raw: "0812345678", rules: Rules{RequireInternational: true}, want: "62812345678", wantWarn: WarnNotInternational},
		{name: "require international passes bare digits through", raw: "5551234567", rules: Rules{RequireInternational: true}, want: "5551234567", wantWarn: WarnNotInternational},
		{name: "require international no warning with plus", raw: "+5551234567", rules: Rules{RequireInternational: true}, want: "5551234567"},
		{name: "inner plus dropped", raw: "62+812345678", want: "62812345678"},
		{name: "lenient keeps short numbers", raw: "+123", want: "123"},
		{name: "strict rejects short plus number", raw: "+123", strict: true, want: ""},
		{name: "strict rejects long number", raw: "1234567890123456", strict: true, want: ""},
		{name: "strict accepts bounded number", raw: "0812345678", strict: true, want: "62812345678"},
		{name: "junk only", raw: "abc", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warn := Normalize(tt.raw, tt.rules, tt.strict)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantWarn, warn)
		})
	}
}

func TestNormalizeAdminNumbers(t *testing.T) {
	var got []string
	for _, n := range []string{"0812345678", "+15551234567"} {
		norm, _ := Normalize(n, Rules{}, false)
		got = append(got, norm)
	}
	assert.Equal(t, []string{"62812345678", "15551234567"}, got)
}

func TestSanitizeList(t *testing.T) {
	in := SplitLines("0812345678\r\n\n  +62 812 345 678 \n123\n+15551234567\n")
	got := SanitizeList(in, Rules{})
	assert.Equal(t, []string{"62812345678", "15551234567"}, got)
}

func TestSanitizeCountryCode(t *testing.T) {
	assert.Equal(t, "62", SanitizeCountryCode("+62"))
	assert.Equal(t, "123", SanitizeCountryCode("1-2-3-4"))
	assert.Equal(t, "", SanitizeCountryCode("abc"))
}

func TestRegion(t *testing.T) {
	assert.Equal(t, "ID", Region("62812345678"))
	assert.Equal(t, "", Region(""))
}

func TestDigits(t *testing.T) {
	if got := Digits("+62 (812) 345-678"); got != "62812345678" {
		t.Fatalf("Digits = %q", got)
	}
}
