// Package scriptpdf lays out a sectioned script document as an A4 PDF.
package scriptpdf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/aellingwood/folio/internal/content"
)

// ErrNoTitle is returned for a script without a title.
var ErrNoTitle = errors.New("script has no title")

// Page geometry in millimetres.
const (
	margin      = 15.0
	titleHeight = 10.0
	subHeight   = 5.0
	headerGap   = 10.0
	chapterH    = 8.0
	chapterGap  = 2.0
	lineHeight  = 6.0
)

const fontFamily = "Helvetica"

// Section is one titled chapter of a script.
type Section struct {
	Title   string   `yaml:"title"   json:"title"   toml:"title"`
	Body    string   `yaml:"body"    json:"body"    toml:"body"`
	Bullets []string `yaml:"bullets" json:"bullets" toml:"bullets"`
}

// Script is the content of a script data file.
type Script struct {
	Title    string    `yaml:"title"    json:"title"    toml:"title"`
	Subtitle string    `yaml:"subtitle" json:"subtitle" toml:"subtitle"`
	Author   string    `yaml:"author"   json:"author"   toml:"author"`
	Intro    string    `yaml:"intro"    json:"intro"    toml:"intro"`
	Sections []Section `yaml:"sections" json:"sections" toml:"sections"`
	// Output overrides the configured PDF path.
	Output string `yaml:"output" json:"output" toml:"output"`
}

// Load reads a script data file (YAML, JSON or TOML).
func Load(path string) (*Script, error) {
	var s Script
	if err := content.LoadData(path, &s); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.Title) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoTitle)
	}
	return &s, nil
}

// Render writes s as a PDF to w and returns the number of pages.
func Render(s *Script, w io.Writer) (int, error) {
	if strings.TrimSpace(s.Title) == "" {
		return 0, ErrNoTitle
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(s.Title, true)
	if s.Author != "" {
		pdf.SetAuthor(s.Author, true)
	}
	pdf.SetCreator("folio", true)

	pdf.SetHeaderFunc(func() {
		pdf.SetFont(fontFamily, "B", 15)
		pdf.CellFormat(0, titleHeight, tr(s.Title), "", 1, "C", false, 0, "")
		if s.Subtitle != "" {
			pdf.SetFont(fontFamily, "I", 10)
			pdf.CellFormat(0, subHeight, tr(s.Subtitle), "", 1, "C", false, 0, "")
		}
		pdf.Ln(headerGap)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-margin)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	width := contentWidth(pdf)

	if s.Intro != "" {
		chapterTitle(pdf, width, tr("Introduction"))
		chapterBody(pdf, width, tr(s.Intro))
	}
	for _, sec := range s.Sections {
		if sec.Title != "" {
			chapterTitle(pdf, width, tr(sec.Title))
		}
		if sec.Body != "" {
			chapterBody(pdf, width, tr(sec.Body))
		}
		if len(sec.Bullets) > 0 {
			pdf.SetFont(fontFamily, "", 11)
			for _, b := range sec.Bullets {
				pdf.SetX(margin)
				pdf.MultiCell(width, lineHeight, tr("- "+b), "", "L", false)
			}
			pdf.Ln(-1)
		}
	}

	pages := pdf.PageCount()
	if err := pdf.Output(w); err != nil {
		return 0, fmt.Errorf("writing PDF: %w", err)
	}
	return pages, nil
}

// Write renders s to the file at path, creating its directory.
func Write(s *Script, path string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	pages, err := Render(s, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	return pages, nil
}

func contentWidth(pdf *gofpdf.Fpdf) float64 {
	w, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	return w - left - right
}

func chapterTitle(pdf *gofpdf.Fpdf, width float64, label string) {
	pdf.SetFont(fontFamily, "B", 12)
	pdf.SetFillColor(240, 240, 250)
	pdf.SetX(margin)
	pdf.CellFormat(width, chapterH, label, "", 1, "L", true, 0, "")
	pdf.Ln(chapterGap)
}

func chapterBody(pdf *gofpdf.Fpdf, width float64, body string) {
	pdf.SetFont(fontFamily, "", 11)
	pdf.SetX(margin)
	pdf.MultiCell(width, lineHeight, body, "", "L", false)
	pdf.Ln(-1)
}
