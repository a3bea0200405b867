package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"formnotif/internal/phone"
)

var ErrSettingsIncomplete = errors.New("api key or admin numbers not configured")

// NumberList accepts either a YAML sequence or a newline-delimited block.
type NumberList []string

func (n *NumberList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*n = phone.SplitLines(value.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*n = items
		return nil
	}
	return fmt.Errorf("admin_numbers: unsupported yaml node kind %d", value.Kind)
}

// Settings is the notification configuration. It is loaded once and only
// read afterwards.
type Settings struct {
	APIKey               string         `yaml:"api_key"`
	AdminNumbers         NumberList     `yaml:"admin_numbers"`
	AdminTemplate        string         `yaml:"admin_template"`
	CustomerTemplate     string         `yaml:"customer_template"`
	SendToCustomer       bool           `yaml:"send_to_customer"`
	EnabledForms         []int          `yaml:"enabled_forms"`
	CountryCodes         map[int]string `yaml:"country_codes"`
	RequireInternational map[int]bool   `yaml:"require_international"`
}

// LoadSettings reads path (a missing file yields empty settings), applies
// apiKey when non-empty and sanitizes the result.
func LoadSettings(path, apiKey string) (*Settings, error) {
	s := &Settings{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read settings: %w", err)
		default:
			if err := yaml.Unmarshal(data, s); err != nil {
				return nil, fmt.Errorf("config: parse settings: %w", err)
			}
		}
	}
	if apiKey != "" {
		s.APIKey = apiKey
	}
	s.Sanitize()
	return s, nil
}

// Sanitize applies the save-time rules: admin numbers strictly normalized and
// deduplicated, country codes reduced to at most three digits, non-positive
// form ids dropped.
func (s *Settings) Sanitize() {
	s.APIKey = strings.TrimSpace(s.APIKey)
	s.AdminNumbers = phone.SanitizeList(s.AdminNumbers, phone.Rules{})

	enabled := make([]int, 0, len(s.EnabledForms))
	for _, id := range s.EnabledForms {
		if id > 0 && !slices.Contains(enabled, id) {
			enabled = append(enabled, id)
		}
	}
	s.EnabledForms = enabled

	codes := make(map[int]string, len(s.CountryCodes))
	for id, cc := range s.CountryCodes {
		if cc = phone.SanitizeCountryCode(cc); id > 0 && cc != "" {
			codes[id] = cc
		}
	}
	s.CountryCodes = codes

	intl := make(map[int]bool, len(s.RequireInternational))
	for id, on := range s.RequireInternational {
		if id > 0 && on {
			intl[id] = true
		}
	}
	s.RequireInternational = intl
}

func (s *Settings) FormEnabled(formID int) bool {
	return slices.Contains(s.EnabledForms, formID)
}

// Complete reports whether sending is possible at all.
func (s *Settings) Complete() error {
	if s.APIKey == "" || len(s.AdminNumbers) == 0 {
		return ErrSettingsIncomplete
	}
	return nil
}

func (s *Settings) RulesFor(formID int) phone.Rules {
	return phone.Rules{
		CountryCode:          s.CountryCodes[formID],
		RequireInternational: s.RequireInternational[formID],
	}
}
