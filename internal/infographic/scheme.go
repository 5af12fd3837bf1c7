package infographic

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Scheme is a colour scheme, each colour given as a #rrggbb hex string.
type Scheme struct {
	Background string `yaml:"bg"     json:"bg"     toml:"bg"`
	Text       string `yaml:"text"   json:"text"   toml:"text"`
	Accent     string `yaml:"accent" json:"accent" toml:"accent"`
}

// palette is a Scheme with its colours parsed.
type palette struct {
	bg, text, accent color.NRGBA
}

// BuiltinSchemes are available to every data file. A data file may
// override any of them by name.
var BuiltinSchemes = map[string]Scheme{
	"blue":   {Background: "#0a192f", Text: "#ccd6f6", Accent: "#64ffda"},
	"purple": {Background: "#1a0b2e", Text: "#ebebeb", Accent: "#bf7bff"},
	"green":  {Background: "#0b1f11", Text: "#dcefe1", Accent: "#52ff8c"},
	"orange": {Background: "#1f120b", Text: "#f6e6dc", Accent: "#ffa064"},
	"teal":   {Background: "#0b1f1f", Text: "#dcefef", Accent: "#64ffff"},
}

func (s Scheme) palette() (palette, error) {
	var p palette
	var err error
	if p.bg, err = ParseHex(s.Background); err != nil {
		return p, fmt.Errorf("background: %w", err)
	}
	if p.text, err = ParseHex(s.Text); err != nil {
		return p, fmt.Errorf("text: %w", err)
	}
	if p.accent, err = ParseHex(s.Accent); err != nil {
		return p, fmt.Errorf("accent: %w", err)
	}
	return p, nil
}

// ParseHex parses "#rrggbb" or "#rgb" into an opaque colour.
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// mix returns a + (b-a)*t per channel.
func mix(a, b color.NRGBA, t float64) color.NRGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.NRGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 0xff}
}
