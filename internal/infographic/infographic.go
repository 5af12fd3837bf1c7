// Package infographic draws the fixed-layout project infographics used on
// portfolio pages.
package infographic

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// ErrNoTitle is returned for an item without a title.
var ErrNoTitle = errors.New("infographic has no title")

// Font sizes in points.
const (
	titleSize    = 60
	subtitleSize = 35
	textSize     = 28
)

// Layout offsets in pixels. The badge is anchored to the bottom-right corner.
const (
	margin       = 60
	subtitleY    = 140
	separatorY   = 200
	pointsY      = 260
	pointStep    = 80
	markerSize   = 30
	pointTextX   = 110
	badgeWidth   = 340
	badgeHeight  = 90
	badgeInset   = 20
	badgeLineGap = 30
	gradientMix  = 0.2
)

var defaultBadge = []string{"STRATEGIC IMPACT", "Enterprise Ready"}

// Data is the content of an infographics data file.
type Data struct {
	Schemes map[string]Scheme `yaml:"schemes" json:"schemes" toml:"schemes"`
	Items   []Item            `yaml:"items"   json:"items"   toml:"items"`
}

// Item is a single infographic.
type Item struct {
	File     string   `yaml:"file"     json:"file"     toml:"file"`
	Title    string   `yaml:"title"    json:"title"    toml:"title"`
	Subtitle string   `yaml:"subtitle" json:"subtitle" toml:"subtitle"`
	Points   []string `yaml:"points"   json:"points"   toml:"points"`
	Scheme   string   `yaml:"scheme"   json:"scheme"   toml:"scheme"`
	Badge    []string `yaml:"badge"    json:"badge"    toml:"badge"`
}

// Options controls canvas size and fonts.
type Options struct {
	Width        int
	Height       int
	FontPath     string // regular TTF; empty uses the embedded Go font
	BoldFontPath string // bold TTF for the title; empty uses the embedded Go bold font
}

// Result is the outcome of rendering one item.
type Result struct {
	Item Item
	Path string
	Err  error
}

// Renderer draws infographics with a fixed set of font faces.
type Renderer struct {
	opts     Options
	title    font.Face
	subtitle font.Face
	text     font.Face
}

// NewRenderer loads the fonts named in opts, falling back to the embedded
// Go fonts.
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", opts.Width, opts.Height)
	}
	r := &Renderer{opts: opts}
	var err error
	if r.title, err = loadFace(opts.BoldFontPath, gobold.TTF, titleSize); err != nil {
		return nil, fmt.Errorf("loading title font: %w", err)
	}
	if r.subtitle, err = loadFace(opts.FontPath, goregular.TTF, subtitleSize); err != nil {
		return nil, fmt.Errorf("loading subtitle font: %w", err)
	}
	if r.text, err = loadFace(opts.FontPath, goregular.TTF, textSize); err != nil {
		return nil, fmt.Errorf("loading text font: %w", err)
	}
	return r, nil
}

func loadFace(path string, fallback []byte, points float64) (font.Face, error) {
	if path != "" {
		return gg.LoadFontFace(path, points)
	}
	f, err := truetype.Parse(fallback)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: points}), nil
}

// Render draws item with the given scheme and returns the image.
func (r *Renderer) Render(item Item, scheme Scheme) (image.Image, error) {
	if item.Title == "" {
		return nil, ErrNoTitle
	}
	p, err := scheme.palette()
	if err != nil {
		return nil, fmt.Errorf("scheme %q: %w", item.Scheme, err)
	}

	w, h := float64(r.opts.Width), float64(r.opts.Height)
	dc := gg.NewContext(r.opts.Width, r.opts.Height)

	// Background fades toward the accent colour from top to bottom.
	grad := gg.NewLinearGradient(0, 0, 0, h)
	grad.AddColorStop(0, p.bg)
	grad.AddColorStop(1, mix(p.bg, p.accent, gradientMix))
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	// Title and subtitle are anchored by their top edge.
	dc.SetFontFace(r.title)
	dc.SetColor(p.text)
	dc.DrawStringAnchored(item.Title, margin, margin, 0, 1)

	dc.SetFontFace(r.subtitle)
	dc.SetColor(p.accent)
	dc.DrawStringAnchored(item.Subtitle, margin, subtitleY, 0, 1)

	dc.SetColor(p.accent)
	dc.SetLineWidth(3)
	dc.DrawLine(margin, separatorY, w-margin, separatorY)
	dc.Stroke()

	dc.SetFontFace(r.text)
	y := float64(pointsY)
	for _, point := range item.Points {
		dc.SetColor(p.accent)
		dc.DrawCircle(margin+markerSize/2, y+markerSize/2, markerSize/2)
		dc.Fill()

		dc.SetColor(p.text)
		dc.DrawStringAnchored(point, pointTextX, y, 0, 1)
		y += pointStep
	}

	badge := item.Badge
	if len(badge) == 0 {
		badge = defaultBadge
	}
	bx, by := w-badgeWidth-margin, h-badgeHeight-margin
	dc.DrawRectangle(bx, by, badgeWidth, badgeHeight)
	dc.SetColor(p.accent)
	dc.FillPreserve()
	dc.SetColor(p.text)
	dc.SetLineWidth(2)
	dc.Stroke()

	// Badge lines are top-anchored like the rest of the text.
	dc.SetColor(p.bg)
	for i, line := range badge {
		dc.DrawStringAnchored(line, bx+badgeInset, by+float64(badgeLineGap*(i+1)), 0, 1)
	}

	return dc.Image(), nil
}

// Generate renders every item in data and writes it as a PNG under outDir
// (item files given as absolute paths are written where they point). A
// failing item is reported in its Result and does not stop the others.
func (r *Renderer) Generate(data *Data, outDir string) []Result {
	schemes := make(map[string]Scheme, len(BuiltinSchemes)+len(data.Schemes))
	for name, s := range BuiltinSchemes {
		schemes[name] = s
	}
	for name, s := range data.Schemes {
		schemes[name] = s
	}

	results := make([]Result, 0, len(data.Items))
	for _, item := range data.Items {
		res := Result{Item: item, Path: itemPath(item, outDir)}
		res.Err = r.generate(item, schemes, res.Path)
		results = append(results, res)
	}
	return results
}

func (r *Renderer) generate(item Item, schemes map[string]Scheme, path string) error {
	if item.File == "" {
		return fmt.Errorf("infographic %q has no file", item.Title)
	}
	name := item.Scheme
	if name == "" {
		name = "blue"
	}
	scheme, ok := schemes[name]
	if !ok {
		if near := nearestScheme(name, schemes); near != "" {
			return fmt.Errorf("unknown scheme %q (did you mean %q?)", name, near)
		}
		return fmt.Errorf("unknown scheme %q", name)
	}

	img, err := r.Render(item, scheme)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// nearestScheme returns the scheme name closest to name within two edits,
// or "" when none is that close. Ties go to the alphabetically first name.
func nearestScheme(name string, schemes map[string]Scheme) string {
	names := make([]string, 0, len(schemes))
	for n := range schemes {
		names = append(names, n)
	}
	sort.Strings(names)

	best, bestDist := "", 3
	for _, n := range names {
		if d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(n)); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

func itemPath(item Item, outDir string) string {
	if item.File == "" || filepath.IsAbs(item.File) {
		return item.File
	}
	return filepath.Join(outDir, item.File)
}
