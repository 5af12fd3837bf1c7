package infographic

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(Options{Width: 1200, Height: 800})
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func near(a, b color.NRGBA) bool {
	d := func(x, y uint8) int {
		if x > y {
			return int(x - y)
		}
		return int(y - x)
	}
	return d(a.R, b.R) <= 3 && d(a.G, b.G) <= 3 && d(a.B, b.B) <= 3
}

var sampleItem = Item{
	File:     "01-datacenter-migration-journey.png",
	Title:    "Datacenter Migration Journey",
	Subtitle: "Legacy to Azure Cloud Transformation",
	Points: []string{
		"Discovery & Assessment of 500+ Virtual Machines",
		"30% TCO Reduction achieved post-migration",
	},
	Scheme: "blue",
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#0a192f", color.NRGBA{R: 10, G: 25, B: 47, A: 255}, false},
		{"64FFDA", color.NRGBA{R: 100, G: 255, B: 218, A: 255}, false},
		{"#fff", color.NRGBA{R: 255, G: 255, B: 255, A: 255}, false},
		{"#12345", color.NRGBA{}, true},
		{"#zzzzzz", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMix(t *testing.T) {
	a := color.NRGBA{R: 10, G: 25, B: 47, A: 255}
	b := color.NRGBA{R: 110, G: 225, B: 47, A: 255}
	got := mix(a, b, 0.2)
	want := color.NRGBA{R: 30, G: 65, B: 47, A: 255}
	if got != want {
		t.Errorf("mix = %v, want %v", got, want)
	}
}

func TestBuiltinSchemesParse(t *testing.T) {
	for name, s := range BuiltinSchemes {
		if _, err := s.palette(); err != nil {
			t.Errorf("scheme %s: %v", name, err)
		}
	}
}

func TestRender_Layout(t *testing.T) {
	r := newTestRenderer(t)
	scheme := BuiltinSchemes["blue"]
	p, _ := scheme.palette()

	img, err := r.Render(sampleItem, scheme)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1200 || b.Dy() != 800 {
		t.Fatalf("size = %dx%d, want 1200x800", b.Dx(), b.Dy())
	}

	// Top of the gradient is the background colour.
	if got := nrgbaAt(img, 0, 0); !near(got, p.bg) {
		t.Errorf("pixel (0,0) = %v, want background %v", got, p.bg)
	}
	// Bottom of the gradient is 20% toward the accent.
	if got, want := nrgbaAt(img, 0, 799), mix(p.bg, p.accent, gradientMix); !near(got, want) {
		t.Errorf("pixel (0,799) = %v, want %v", got, want)
	}
	// First bullet marker is filled with the accent colour.
	if got := nrgbaAt(img, margin+markerSize/2, pointsY+markerSize/2); !near(got, p.accent) {
		t.Errorf("marker centre = %v, want accent %v", got, p.accent)
	}
	// Separator line.
	if got := nrgbaAt(img, 600, separatorY); !near(got, p.accent) {
		t.Errorf("separator pixel = %v, want accent %v", got, p.accent)
	}
	// Badge interior, clear of its text.
	if got := nrgbaAt(img, 1200-margin-10, 800-margin-5); !near(got, p.accent) {
		t.Errorf("badge pixel = %v, want accent %v", got, p.accent)
	}
}

func TestRender_BadgeTextBelowFirstLineGap(t *testing.T) {
	r := newTestRenderer(t)
	scheme := BuiltinSchemes["blue"]
	p, _ := scheme.palette()

	img, err := r.Render(sampleItem, scheme)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	bx, by := 1200-badgeWidth-margin, 800-badgeHeight-margin
	textX0, textX1 := bx+badgeInset, bx+badgeInset+200

	// Above the first line's top edge the badge is plain accent.
	for y := by + 4; y < by+badgeLineGap-4; y++ {
		for x := textX0; x < textX1; x++ {
			if got := nrgbaAt(img, x, y); !near(got, p.accent) {
				t.Fatalf("pixel (%d,%d) = %v above the badge text, want accent", x, y, got)
			}
		}
	}

	// The first line is drawn below it.
	found := false
	for y := by + badgeLineGap; y < by+2*badgeLineGap && !found; y++ {
		for x := textX0; x < textX1; x++ {
			if !near(nrgbaAt(img, x, y), p.accent) {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("expected badge text between the first and second line offsets")
	}
}

func TestRender_NoTitle(t *testing.T) {
	r := newTestRenderer(t)
	_, err := r.Render(Item{File: "x.png"}, BuiltinSchemes["teal"])
	if !errors.Is(err, ErrNoTitle) {
		t.Errorf("err = %v, want ErrNoTitle", err)
	}
}

func TestRender_BadScheme(t *testing.T) {
	r := newTestRenderer(t)
	_, err := r.Render(sampleItem, Scheme{Background: "nope", Text: "#fff", Accent: "#000"})
	if err == nil {
		t.Fatal("expected error for invalid scheme colour")
	}
}

func TestNewRenderer_InvalidSize(t *testing.T) {
	if _, err := NewRenderer(Options{Width: 0, Height: 800}); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestNewRenderer_MissingFont(t *testing.T) {
	_, err := NewRenderer(Options{Width: 100, Height: 100, FontPath: "/no/such/font.ttf"})
	if err == nil {
		t.Error("expected error for a missing font file")
	}
}

func TestGenerate(t *testing.T) {
	r := newTestRenderer(t)
	outDir := t.TempDir()

	data := &Data{
		Schemes: map[string]Scheme{
			"mono": {Background: "#000000", Text: "#ffffff", Accent: "#808080"},
		},
		Items: []Item{
			sampleItem,
			{File: "02-custom.png", Title: "Custom", Scheme: "mono"},
			{File: "03-broken.png", Title: "Broken", Scheme: "unknown"},
			{Title: "No file"},
			{File: "nested/04-default.png", Title: "Default scheme"},
		},
	}

	results := r.Generate(data, outDir)
	if len(results) != 5 {
		t.Fatalf("results = %d, want 5", len(results))
	}

	for _, i := range []int{0, 1, 4} {
		res := results[i]
		if res.Err != nil {
			t.Errorf("item %d: unexpected error %v", i, res.Err)
			continue
		}
		f, err := os.Open(res.Path)
		if err != nil {
			t.Errorf("item %d: %v", i, err)
			continue
		}
		_, err = png.Decode(f)
		f.Close()
		if err != nil {
			t.Errorf("item %d: output is not a PNG: %v", i, err)
		}
	}
	if results[2].Err == nil {
		t.Error("unknown scheme should fail")
	}
	if results[3].Err == nil {
		t.Error("missing file should fail")
	}
	if _, err := os.Stat(filepath.Join(outDir, "03-broken.png")); !os.IsNotExist(err) {
		t.Error("failed item must not leave a file")
	}
	if results[4].Path != filepath.Join(outDir, "nested", "04-default.png") {
		t.Errorf("nested path = %q", results[4].Path)
	}

	// The custom scheme was applied.
	f, err := os.Open(results[1].Path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if got := nrgbaAt(img, 0, 0); !near(got, color.NRGBA{A: 255}) {
		t.Errorf("custom scheme background = %v, want black", got)
	}
}

func TestNearestScheme(t *testing.T) {
	schemes := map[string]Scheme{"blue": {}, "green": {}, "purple": {}, "slate": {}}
	tests := map[string]string{
		"bleu":    "blue",
		"Purpel":  "purple",
		"slat":    "slate",
		"crimson": "",
	}
	for in, want := range tests {
		if got := nearestScheme(in, schemes); got != want {
			t.Errorf("nearestScheme(%q) = %q, want %q", in, got, want)
		}
	}
}
