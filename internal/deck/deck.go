// Package deck renders Markdown slide decks into standalone presentation
// pages.
//
// A deck is a Markdown file with YAML or TOML frontmatter. Every level-2
// heading starts a slide; anything before the first one is shown on the
// title slide.
package deck

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"

	"github.com/aellingwood/folio/internal/content"
)

// ErrNoTitle is returned for a deck whose frontmatter has no title.
var ErrNoTitle = errors.New("deck has no title")

// DefaultBackLink is the back link used when a deck does not set one.
const DefaultBackLink = "../index.html"

//go:embed layout.html
var layoutHTML string

var layout = template.Must(template.New("deck").Parse(layoutHTML))

// Meta is the frontmatter of a deck file.
type Meta struct {
	Title     string `yaml:"title"     toml:"title"`
	Subtitle  string `yaml:"subtitle"  toml:"subtitle"`
	Client    string `yaml:"client"    toml:"client"`
	Presenter string `yaml:"presenter" toml:"presenter"`
	Footer    string `yaml:"footer"    toml:"footer"`
	Copyright string `yaml:"copyright" toml:"copyright"`
	BackLink  string `yaml:"backLink"  toml:"backLink"`
	Slug      string `yaml:"slug"      toml:"slug"`
	Agenda    bool   `yaml:"agenda"    toml:"agenda"`
}

// Slide is one rendered slide.
type Slide struct {
	ID      string
	Header  template.HTML
	Content template.HTML
}

// Deck is a parsed and rendered deck, ready for the layout.
type Deck struct {
	Meta
	Source       string
	Intro        template.HTML
	Agenda       template.HTML
	Slides       []Slide
	HighlightCSS template.CSS
}

// Options configures a Builder.
type Options struct {
	// HighlightStyle is the chroma style for code blocks.
	HighlightStyle string
}

// Result is the outcome of building one deck file.
type Result struct {
	Source string
	Output string
	Slides int
	Err    error
}

// Builder renders decks into an output directory.
type Builder struct {
	outDir string
	md     goldmark.Markdown
	css    template.CSS
}

// NewBuilder creates a Builder writing pages to outDir.
func NewBuilder(outDir string, opts Options) (*Builder, error) {
	css, err := chromaCSS(opts.HighlightStyle)
	if err != nil {
		return nil, err
	}
	return &Builder{
		outDir: outDir,
		md:     newMarkdown(outDir),
		css:    template.CSS(css),
	}, nil
}

// Parse reads and renders the deck at path.
func (b *Builder) Parse(path string) (*Deck, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deck: %w", err)
	}

	var meta Meta
	body, err := content.ParseFrontmatter(raw, &meta)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if strings.TrimSpace(meta.Title) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoTitle)
	}
	if meta.BackLink == "" {
		meta.BackLink = DefaultBackLink
	}
	if meta.Slug == "" {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		meta.Slug = content.Slugify(stem)
	}
	if meta.Slug == "" {
		return nil, fmt.Errorf("%s: cannot derive an output name", path)
	}

	d := &Deck{Meta: meta, Source: path, HighlightCSS: b.css}
	if err := b.renderBody(d, body); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// renderBody splits the document at top-level level-2 headings and renders
// each part.
func (b *Builder) renderBody(d *Deck, source []byte) error {
	doc := b.md.Parser().Parse(text.NewReader(source))

	var intro bytes.Buffer
	var cur *bytes.Buffer
	var slides []Slide
	var bodies []*bytes.Buffer

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level == 2 {
			header, err := b.renderInline(h, source)
			if err != nil {
				return fmt.Errorf("markdown render: %w", err)
			}
			slides = append(slides, Slide{ID: headingID(h), Header: header})
			cur = &bytes.Buffer{}
			bodies = append(bodies, cur)
			continue
		}
		w := cur
		if w == nil {
			w = &intro
		}
		if err := b.md.Renderer().Render(w, source, n); err != nil {
			return fmt.Errorf("markdown render: %w", err)
		}
	}

	for i := range slides {
		slides[i].Content = template.HTML(bodies[i].String())
	}
	d.Slides = slides
	d.Intro = template.HTML(intro.String())

	if d.Meta.Agenda && len(slides) > 0 {
		agenda, err := b.renderAgenda(doc, source)
		if err != nil {
			return err
		}
		d.Agenda = agenda
	}
	return nil
}

// renderAgenda renders a linked list of the slide headings.
func (b *Builder) renderAgenda(doc ast.Node, source []byte) (template.HTML, error) {
	tree, err := toc.Inspect(doc, source, toc.MaxDepth(2), toc.Compact(true))
	if err != nil {
		return "", fmt.Errorf("toc inspect: %w", err)
	}
	list := toc.RenderList(tree)
	if list == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := b.md.Renderer().Render(&buf, source, list); err != nil {
		return "", fmt.Errorf("toc render: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Render executes the page layout for d.
func (b *Builder) Render(w io.Writer, d *Deck) error {
	if err := layout.Execute(w, d); err != nil {
		return fmt.Errorf("executing layout: %w", err)
	}
	return nil
}

// Build renders the deck at path and writes it to <outDir>/<slug>.html.
func (b *Builder) Build(path string) (Result, error) {
	res := Result{Source: path}
	d, err := b.Parse(path)
	if err != nil {
		return res, err
	}
	res.Slides = len(d.Slides)

	var buf bytes.Buffer
	if err := b.Render(&buf, d); err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	if err := os.MkdirAll(b.outDir, 0o755); err != nil {
		return res, fmt.Errorf("creating output directory: %w", err)
	}
	res.Output = filepath.Join(b.outDir, d.Slug+".html")
	if err := os.WriteFile(res.Output, buf.Bytes(), 0o644); err != nil {
		return res, fmt.Errorf("writing %s: %w", res.Output, err)
	}
	return res, nil
}

// BuildAll builds every .md deck directly inside dir. A deck that fails is
// reported in its Result; only an unreadable dir returns an error.
func BuildAll(dir, outDir string, opts Options) ([]Result, error) {
	files, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	b, err := NewBuilder(outDir, opts)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(files))
	for _, f := range files {
		res, err := b.Build(f)
		res.Err = err
		results = append(results, res)
	}
	return results, nil
}

// Discover lists the Markdown files directly inside dir in name order.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading deck directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func headingID(h *ast.Heading) string {
	v, ok := h.AttributeString("id")
	if !ok {
		return ""
	}
	if id, ok := v.([]byte); ok {
		return string(id)
	}
	return ""
}

// renderInline renders the inline content of n without its enclosing tag.
func (b *Builder) renderInline(n ast.Node, source []byte) (template.HTML, error) {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if err := b.md.Renderer().Render(&buf, source, c); err != nil {
			return "", err
		}
	}
	return template.HTML(strings.TrimSpace(buf.String())), nil
}
