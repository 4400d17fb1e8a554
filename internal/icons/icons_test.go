package icons

import (
	"strings"
	"testing"
)

// TestClassify verifies the exact code-to-category mapping for representative
// codes from every range.
func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		code int
		want Category
	}{
		{name: "clear sky", code: 800, want: Sunny},
		{name: "few clouds", code: 801, want: Cloudy},
		{name: "overcast", code: 804, want: Cloudy},
		{name: "drizzle", code: 300, want: Rain},
		{name: "rain", code: 500, want: Rain},
		{name: "ragged shower rain", code: 531, want: Rain},
		{name: "thunderstorm with light rain", code: 200, want: Storm},
		{name: "thunderstorm with rain", code: 201, want: Storm},
		{name: "ragged thunderstorm", code: 221, want: Storm},
		{name: "light snow", code: 600, want: Snow},
		{name: "sleet", code: 611, want: Snow},
		{name: "heavy shower snow", code: 622, want: Snow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.code); got != tc.want {
				t.Fatalf("Classify(%d) = %q, want %q", tc.code, got, tc.want)
			}
		})
	}
}

// TestClassify_UnknownCodesFallBackToCloudy verifies totality: any code
// outside the known ranges maps to Cloudy rather than erroring.
func TestClassify_UnknownCodesFallBackToCloudy(t *testing.T) {
	for _, code := range []int{999, 0, -1, 100, 700, 805, 1 << 20} {
		if got := Classify(code); got != Cloudy {
			t.Errorf("Classify(%d) = %q, want %q", code, got, Cloudy)
		}
	}
}

// TestGlyph verifies that every category resolves to a non-empty SVG fragment
// and that distinct categories get distinct glyphs.
func TestGlyph(t *testing.T) {
	seen := make(map[string]Category)
	for _, c := range []Category{Sunny, Cloudy, Rain, Storm, Snow} {
		g := Glyph(c)
		if g == "" {
			t.Fatalf("Glyph(%q) returned empty fragment", c)
		}
		if !strings.HasPrefix(g, "<g") {
			t.Errorf("Glyph(%q) is not a group fragment: %q", c, g[:10])
		}
		if prev, ok := seen[g]; ok {
			t.Errorf("Glyph(%q) identical to Glyph(%q)", c, prev)
		}
		seen[g] = c
	}
}

// TestGlyph_SunAnimationClass verifies the sun glyph carries the rotation
// animation class referenced by the renderer's stylesheet.
func TestGlyph_SunAnimationClass(t *testing.T) {
	if !strings.Contains(Glyph(Sunny), "am-weather-sun") {
		t.Error("sun glyph missing am-weather-sun class")
	}
}
