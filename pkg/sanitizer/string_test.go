package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"only whitespace", "   \t\n  ", ""},
		{"leading and trailing", "  Covered spot  ", "Covered spot"},
		{"internal runs collapsed", "123   Main\t\tStreet", "123 Main Street"},
		{"already normalized", "Underground garage", "Underground garage"},
		{"idempotent", TrimAndNormalize("  a   b  "), "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.expected {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeSurfaceType(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Asphalt", "asphalt"},
		{"  GRAVEL ", "gravel"},
		{"Interlocking  Brick", "interlocking brick"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeSurfaceType(tt.input); got != tt.expected {
			t.Errorf("NormalizeSurfaceType(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestClampPrice(t *testing.T) {
	if got := ClampPrice(-5); got != 0 {
		t.Errorf("expected negative price clamped to 0, got %g", got)
	}
	if got := ClampPrice(12.50); got != 12.50 {
		t.Errorf("expected positive price unchanged, got %g", got)
	}
	if got := ClampPrice(0); got != 0 {
		t.Errorf("expected zero unchanged, got %g", got)
	}
}
