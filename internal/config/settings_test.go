package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formnotif/internal/phone"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadSettingsBlockNumbers(t *testing.T) {
	p := writeSettings(t, `
api_key: "  file-key-123456  "
admin_numbers: |
  0812345678
  +62 812 345 678
  123
  +1 555 123 4567
send_to_customer: true
enabled_forms: [3, 0, -1, 3, 5]
country_codes:
  3: "+44"
  5: "abc"
  0: "62"
require_international:
  3: true
  5: false
`)
	s, err := LoadSettings(p, "")
	require.NoError(t, err)

	assert.Equal(t, "file-key-123456", s.APIKey)
	assert.Equal(t, []string{"62812345678", "15551234567"}, []string(s.AdminNumbers))
	assert.True(t, s.SendToCustomer)
	assert.Equal(t, []int{3, 5}, s.EnabledForms)
	assert.Equal(t, map[int]string{3: "44"}, s.CountryCodes)
	assert.Equal(t, map[int]bool{3: true}, s.RequireInternational)

	assert.True(t, s.FormEnabled(3))
	assert.False(t, s.FormEnabled(4))
	assert.Equal(t, phone.Rules{CountryCode: "44", RequireInternational: true}, s.RulesFor(3))
	assert.Equal(t, phone.Rules{}, s.RulesFor(5))
	assert.NoError(t, s.Complete())
}

func TestLoadSettingsListNumbersAndOverride(t *testing.T) {
	p := writeSettings(t, `
api_key: file-key
admin_numbers:
  - "08123456789"
`)
	s, err := LoadSettings(p, "env-key-override")
	require.NoError(t, err)
	assert.Equal(t, "env-key-override", s.APIKey)
	assert.Equal(t, []string{"628123456789"}, []string(s.AdminNumbers))
}

func TestLoadSettingsMissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"), "")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Complete(), ErrSettingsIncomplete)
	assert.False(t, s.FormEnabled(1))
}

func TestLoadSettingsBadYAML(t *testing.T) {
	p := writeSettings(t, "admin_numbers: {a: b}\n")
	_, err := LoadSettings(p, "")
	assert.Error(t, err)
}
