package util

import "testing"

func TestNormalizeTagName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already normalized", "work", "work"},
		{"trim whitespace", "  work  ", "work"},
		{"collapse spaces", "road   trip", "road trip"},
		{"tabs and newlines", "road\t\ntrip", "road trip"},
		{"case preserved", "Work", "Work"},
		{"combining accent composed", "cafe\u0301", "caf\u00e9"},
		{"cyrillic", "  заметки ", "заметки"},
		{"only whitespace", " \t ", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTagName(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeTagName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNameLength_CountsRunes(t *testing.T) {
	if got := NameLength("заметки"); got != 7 {
		t.Errorf("NameLength(заметки) = %d, want 7", got)
	}
	if got := NameLength("work"); got != 4 {
		t.Errorf("NameLength(work) = %d, want 4", got)
	}
}
