package sanitize

import (
	"testing"
)

func TestField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Empty", "", ""},
		{"Plain", "Fe", "Fe"},
		{"BOM (zero-width no-break space)", "\uFEFFprojectile", "projectile"},
		{"Zero-width space", "F\u200Be", "Fe"},
		{"Zero-width non-joiner", "1\u200C4.0", "14.0"},
		{"Zero-width joiner", "n\u200D", "n"},
		{"Soft hyphen", "out\u00ADspectra", "outspectra"},
		{"Word joiner", "\u2060y", "y"},
		{"Trailing CR", "56\r", "56"},
		{"Trim both", "  Fe  ", "Fe"},
		{"Inner spaces kept", " a b ", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Field(tt.input); got != tt.expected {
				t.Errorf("Field(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"\uFEFFprojectile", "projectile"},
		{" energy_min ", "energy_min"},
		{"out spectra", "outspectra"},
		{"a\tb", "ab"},
	}
	for _, tt := range tests {
		if got := Key(tt.input); got != tt.expected {
			t.Errorf("Key(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
