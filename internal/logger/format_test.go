package logger

import "testing"

func TestStripAnsiCodes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no escape codes", "plain text", "plain text"},
		{"simple colour", "\x1b[32mgreen\x1b[0m", "green"},
		{"bold and colour", "\x1b[1;31mbold red\x1b[0m rest", "bold red rest"},
		{"escape mid string", "before \x1b[33myellow\x1b[0m after", "before yellow after"},
		{"empty string", "", ""},
		{"lone escape byte", "text \x1b alone", "text \x1b alone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripAnsiCodes(tt.input); got != tt.expected {
				t.Errorf("stripAnsiCodes(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
