package image

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// WebPLookup returns the URL of the WebP counterpart of an image URL, and
// whether one exists.
type WebPLookup func(src string) (string, bool)

// SiblingLookup returns a WebPLookup that resolves relative image URLs
// against baseDir and reports a counterpart when a file with the same stem
// and a .webp extension exists next to the image on disk. External,
// root-relative, SVG and WebP URLs never have a counterpart.
func SiblingLookup(baseDir string) WebPLookup {
	return func(src string) (string, bool) {
		if src == "" || isExternalURL(src) || strings.HasPrefix(src, "/") || isSVG(src) {
			return "", false
		}
		clean := src
		if i := strings.IndexAny(clean, "?#"); i >= 0 {
			clean = clean[:i]
		}
		ext := path.Ext(clean)
		if ext == "" || strings.EqualFold(ext, ".webp") {
			return "", false
		}
		webpURL := strings.TrimSuffix(clean, ext) + ".webp"
		if _, err := os.Stat(filepath.Join(baseDir, filepath.FromSlash(webpURL))); err != nil {
			return "", false
		}
		return webpURL, true
	}
}

// PictureExtension implements goldmark.Extender. It replaces standard <img>
// tags with <picture> elements carrying a WebP <source> for images that
// have a converted counterpart.
type PictureExtension struct {
	lookup WebPLookup
}

// NewPictureExtension creates a goldmark extension that renders images with
// a WebP counterpart as <picture> elements.
func NewPictureExtension(lookup WebPLookup) *PictureExtension {
	return &PictureExtension{lookup: lookup}
}

// Extend registers the picture renderer with the goldmark instance.
func (e *PictureExtension) Extend(m goldmark.Markdown) {
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(&pictureRenderer{lookup: e.lookup}, 100),
		),
	)
}

type pictureRenderer struct {
	lookup WebPLookup
}

// RegisterFuncs registers the image node renderer.
func (r *pictureRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindImage, r.renderImage)
}

// renderImage renders an ast.Image node as <picture> when a WebP
// counterpart exists, or as a plain lazy-loaded <img> otherwise.
func (r *pictureRenderer) renderImage(
	w util.BufWriter, source []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	n := node.(*ast.Image)
	src := string(n.Destination)
	alt := nodeAltText(n, source)

	webpURL, ok := "", false
	if r.lookup != nil {
		webpURL, ok = r.lookup(src)
	}

	if ok {
		_, _ = w.WriteString("<picture>\n")
		_, _ = fmt.Fprintf(w, `  <source type="image/webp" srcset="%s">`+"\n",
			util.EscapeHTML(util.URLEscape([]byte(webpURL), true)))
		_, _ = w.WriteString("  ")
	}

	_, _ = fmt.Fprintf(w, `<img src="%s" alt="%s" loading="lazy" decoding="async"`,
		util.EscapeHTML(util.URLEscape(n.Destination, true)), util.EscapeHTML([]byte(alt)))
	if n.Title != nil {
		_, _ = fmt.Fprintf(w, ` title="%s"`, util.EscapeHTML(n.Title))
	}
	_, _ = w.WriteString(">")

	if ok {
		_, _ = w.WriteString("\n</picture>")
	}
	return ast.WalkSkipChildren, nil
}

// nodeAltText extracts the alt text from an image node by collecting text from
// its child nodes.
func nodeAltText(n *ast.Image, source []byte) string {
	var buf strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}

// isExternalURL reports whether u is an absolute URL (http or https).
func isExternalURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// isSVG reports whether the URL points to an SVG file.
func isSVG(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasSuffix(lower, ".svg")
}
