package schedule

import "testing"

// TestMakeHashtag checks the escaped form is only attached when it
// differs from the display form.
func TestMakeHashtag(t *testing.T) {
	tests := []struct {
		in      string
		escaped string // "" means display-safe
	}{
		{in: "WeeklyDance"},
		{in: "dance-night_2024.v1"},
		{in: "with space", escaped: "with%20space"},
		{in: "tag#thing", escaped: "tag%23thing"},
		{in: "a&b+c", escaped: "a%26b%2Bc"},
		{in: "50%off"}, // '%' is not escaped
		{in: "日本語", escaped: "%E6%97%A5%E6%9C%AC%E8%AA%9E"},
	}
	for _, tt := range tests {
		got := MakeHashtag(tt.in)
		if got.Display != tt.in {
			t.Errorf("MakeHashtag(%q).Display = %q", tt.in, got.Display)
		}
		if got.Escaped != tt.escaped {
			t.Errorf("MakeHashtag(%q).Escaped = %q, want %q", tt.in, got.Escaped, tt.escaped)
		}
	}
}
