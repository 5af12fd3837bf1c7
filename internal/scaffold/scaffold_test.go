package scaffold

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aellingwood/folio/internal/config"
	"github.com/aellingwood/folio/internal/content"
	"github.com/aellingwood/folio/internal/deck"
	"github.com/aellingwood/folio/internal/infographic"
	"github.com/aellingwood/folio/internal/scriptpdf"
)

// fixedTime is used by tests to make output deterministic.
var fixedTime = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func init() {
	nowFunc = func() time.Time { return fixedTime }
}

// ---------------------------------------------------------------------------
// TestNewProject
// ---------------------------------------------------------------------------

func TestNewProject(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "portfolio")

	if err := NewProject(dir); err != nil {
		t.Fatalf("NewProject(%q): %v", dir, err)
	}

	expected := []string{
		"folio.yaml",
		"data/infographics.yaml",
		"data/script.yaml",
		"decks/example-deck.md",
		"assets/images/sample.png",
	}
	for _, f := range expected {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("expected %q to exist: %v", f, err)
		}
	}
}

func TestNewProject_FilesAreUsable(t *testing.T) {
	dir := t.TempDir()
	if err := NewProject(dir); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(filepath.Join(dir, "folio.yaml"))
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.Images.Format != "webp" || cfg.Images.Quality != 80 {
		t.Errorf("unexpected config values: %+v", cfg.Images)
	}

	var data infographic.Data
	if err := content.LoadData(filepath.Join(dir, "data", "infographics.yaml"), &data); err != nil {
		t.Fatalf("infographics data: %v", err)
	}
	if len(data.Items) != 1 || len(data.Items[0].Points) != 3 {
		t.Errorf("unexpected infographics data: %+v", data)
	}
	if _, ok := data.Schemes["slate"]; !ok {
		t.Error("expected the custom slate scheme")
	}

	s, err := scriptpdf.Load(filepath.Join(dir, "data", "script.yaml"))
	if err != nil {
		t.Fatalf("script data: %v", err)
	}
	if len(s.Sections) != 1 {
		t.Errorf("sections = %d, want 1", len(s.Sections))
	}

	b, err := deck.NewBuilder(filepath.Join(dir, "presentations"), deck.Options{})
	if err != nil {
		t.Fatal(err)
	}
	d, err := b.Parse(filepath.Join(dir, "decks", "example-deck.md"))
	if err != nil {
		t.Fatalf("example deck: %v", err)
	}
	if len(d.Slides) != 2 || d.Copyright != "2025" {
		t.Errorf("unexpected deck: slides=%d copyright=%q", len(d.Slides), d.Copyright)
	}
}

func TestNewProject_Existing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "folio.yaml"), []byte("images: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewProject(dir); !errors.Is(err, ErrExists) {
		t.Errorf("err = %v, want ErrExists", err)
	}
}

// ---------------------------------------------------------------------------
// TestNewDeck
// ---------------------------------------------------------------------------

func TestNewDeck(t *testing.T) {
	dir := t.TempDir()

	path, err := NewDeck(dir, "Secure Landing Zone")
	if err != nil {
		t.Fatalf("NewDeck: %v", err)
	}
	if want := filepath.Join(dir, "secure-landing-zone.md"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "---\n") {
		t.Error("deck should start with YAML frontmatter")
	}
	if !strings.Contains(text, `title: "Secure Landing Zone"`) {
		t.Errorf("deck missing title:\n%s", text)
	}

	if _, err := NewDeck(dir, "Secure Landing Zone"); !errors.Is(err, ErrExists) {
		t.Errorf("second NewDeck err = %v, want ErrExists", err)
	}
}

func TestNewDeck_EmptySlug(t *testing.T) {
	if _, err := NewDeck(t.TempDir(), "!!!"); err == nil {
		t.Error("expected error for a title without slug characters")
	}
}
