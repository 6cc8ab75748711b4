package display

import (
	"math"
	"strings"
	"testing"
)

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#3EB4F0")
	if err != nil {
		t.Fatalf("ParseHex failed: %v", err)
	}
	if c != (RGB{0x3e, 0xb4, 0xf0}) {
		t.Errorf("unexpected color %+v", c)
	}

	for _, bad := range []string{"", "#fff", "#zzzzzz"} {
		if _, err := ParseHex(bad); err == nil {
			t.Errorf("%q should be rejected", bad)
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"short", "Press <space> to continue.", 40, []string{"Press <space> to continue."}},
		{"split", "one two three four", 9, []string{"one two", "three", "four"}},
		{"long word", "a extraordinarily b", 5, []string{"a", "extraordinarily", "b"}},
		{"paragraphs", "first\n\nsecond", 20, []string{"first", "", "second"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.text, tt.width)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLetterPixels(t *testing.T) {
	// 53 cm wide, 1920 px, 120 cm away: one degree is about 75.8 px
	got := letterPixels(1, 53, 120, 1920)
	if math.Abs(float64(got)-75.88) > 0.5 {
		t.Errorf("Expected ~75.9 px per degree, got %f", got)
	}
	if letterPixels(2, 0, 0, 0) != 40 {
		t.Error("fallback without monitor geometry should be 20 px per degree")
	}
}
