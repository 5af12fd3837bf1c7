package deck

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	highlighting "github.com/yuin/goldmark-highlighting/v2"

	"github.com/aellingwood/folio/internal/image"
)

// newMarkdown returns the goldmark instance used for slide bodies. Code
// blocks are highlighted with CSS classes; images with a WebP sibling under
// outDir render as <picture>.
func newMarkdown(outDir string) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
			image.NewPictureExtension(image.SiblingLookup(outDir)),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
}

// chromaCSS returns the stylesheet for highlighted code in the named chroma
// style. Unknown names fall back to chroma's default style.
func chromaCSS(style string) (string, error) {
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, styles.Get(style)); err != nil {
		return "", fmt.Errorf("generate highlight CSS: %w", err)
	}
	return buf.String(), nil
}
