package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aellingwood/folio/internal/config"
	folioimage "github.com/aellingwood/folio/internal/image"
	"github.com/aellingwood/folio/internal/publish"
)

// execute runs the root command with args and returns its output. Flag
// state is reset afterwards so tests do not leak into each other.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: 80, B: uint8(y * 16), A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "folio" {
		t.Errorf("expected root command Use to be 'folio', got %q", rootCmd.Use)
	}

	expectedSubcommands := []string{"convert", "watch", "refs", "infographics", "present", "script", "serve", "publish", "mcp", "new", "config", "version"}
	nameSet := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		nameSet[cmd.Name()] = true
	}
	for _, expected := range expectedSubcommands {
		if !nameSet[expected] {
			t.Errorf("expected root command to have subcommand %q", expected)
		}
	}

	for _, name := range []string{"config", "verbose"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag %q", name)
		}
	}
}

func TestConvertFlags(t *testing.T) {
	expectedFlags := []string{
		"format", "quality", "lossless", "recursive", "output-dir", "workers",
		"incremental", "ext", "fail-on-error", "rewrite-refs", "dry-run",
	}
	for _, name := range expectedFlags {
		if convertCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected convert command to have flag %q", name)
		}
	}

	shorthands := map[string]string{"f": "format", "q": "quality", "r": "recursive", "o": "output-dir", "w": "workers"}
	for short, long := range shorthands {
		flag := convertCmd.Flags().ShorthandLookup(short)
		if flag == nil {
			t.Errorf("expected short flag -%s", short)
		} else if flag.Name != long {
			t.Errorf("expected short flag -%s to map to %q, got %q", short, long, flag.Name)
		}
	}

	if q := convertCmd.Flags().Lookup("quality"); q.DefValue != "80" {
		t.Errorf("expected quality default to be '80', got %q", q.DefValue)
	}
}

func TestVersionOutput(t *testing.T) {
	output, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.HasPrefix(output, "folio dev") {
		t.Errorf("unexpected version output %q", output)
	}
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "hero.png"))
	writePNG(t, filepath.Join(dir, "Logo.PNG"))
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := execute(t, "convert", dir, "--workers", "1")
	if err != nil {
		t.Fatalf("convert failed: %v\n%s", err, output)
	}

	for _, want := range []string{
		"Converted hero.png to hero.webp (",
		"Converted Logo.PNG to Logo.webp (",
		"Failed to convert broken.png: ",
		"Converted 2, unchanged 0, failed 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	for _, name := range []string{"hero.webp", "Logo.webp"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
}

func TestConvertCommand_FailOnError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "convert", dir, "--fail-on-error"); err == nil {
		t.Error("expected an error with --fail-on-error and a failed file")
	}
}

func TestConvertCommand_MissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	output, err := execute(t, "convert", dir)
	if err == nil {
		t.Error("expected an error for a missing directory")
	}
	if !strings.Contains(output, "Directory not found") {
		t.Errorf("unexpected output %q", output)
	}
}

func TestConvertCommand_InvalidQuality(t *testing.T) {
	if _, err := execute(t, "convert", t.TempDir(), "--quality", "0"); err == nil {
		t.Error("expected validation error for quality 0")
	}
}

func TestRefsCommand(t *testing.T) {
	dir := t.TempDir()
	images := filepath.Join(dir, "assets", "images")
	if err := os.MkdirAll(images, 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(images, "hero.png"))
	if err := os.WriteFile(filepath.Join(images, "hero.webp"), []byte("webp"), 0o644); err != nil {
		t.Fatal(err)
	}
	page := filepath.Join(dir, "index.html")
	if err := os.WriteFile(page, []byte(`<img src="assets/images/hero.png">`), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := execute(t, "refs", images, "--root", dir)
	if err != nil {
		t.Fatalf("refs failed: %v", err)
	}
	if !strings.Contains(output, "Total references updated: 1") {
		t.Errorf("unexpected output %q", output)
	}
	got, _ := os.ReadFile(page)
	if string(got) != `<img src="assets/images/hero.webp">` {
		t.Errorf("page = %q", got)
	}
}

func TestScriptCommand(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "script.yaml")
	if err := os.WriteFile(data, []byte("title: Discovery\nsections:\n  - title: One\n    body: Text\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out", "script.pdf")

	output, err := execute(t, "script", "--data", data, "--output", out)
	if err != nil {
		t.Fatalf("script failed: %v", err)
	}
	if !strings.Contains(output, "PDF generated successfully") {
		t.Errorf("unexpected output %q", output)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("expected PDF: %v", err)
	}
}

func TestConfigCommand(t *testing.T) {
	output, err := execute(t, "config")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	for _, want := range []string{"format: webp", "quality: 80", "highlightStyle: github-dark"} {
		if !strings.Contains(output, want) {
			t.Errorf("config output missing %q:\n%s", want, output)
		}
	}
}

func TestConfigCommand_ExplicitMissingFile(t *testing.T) {
	if _, err := execute(t, "config", "--config", filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for an explicit missing config file")
	}
}

func TestInputFilter(t *testing.T) {
	filter := inputFilter([]string{".png", ".jpg"}, ".webp")
	tests := map[string]bool{
		"a/hero.png":        true,
		"a/HERO.JPG":        true,
		"a/hero.webp":       false,
		"a/.folio-123.webp": false,
		"a/notes.txt":       false,
		"a/.folio-tmp.png":  false,
	}
	for path, want := range tests {
		if got := filter(path); got != want {
			t.Errorf("filter(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestServeFlags(t *testing.T) {
	flags := serveCmd.Flags()
	if f := flags.Lookup("port"); f == nil || f.DefValue != "4000" {
		t.Errorf("port flag = %+v, want default 4000", f)
	}
	if f := flags.Lookup("bind"); f == nil || f.DefValue != "localhost" {
		t.Errorf("bind flag = %+v, want default localhost", f)
	}
	for _, name := range []string{"no-live-reload", "debounce"} {
		if flags.Lookup(name) == nil {
			t.Errorf("expected serve flag %q", name)
		}
	}
}

func TestNewCommands(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	output, err := execute(t, "new", "project")
	if err != nil {
		t.Fatalf("new project failed: %v", err)
	}
	if !strings.Contains(output, "Project created: .") {
		t.Errorf("unexpected output %q", output)
	}
	resetFlags(rootCmd)

	output, err = execute(t, "new", "deck", "Cloud", "Landing", "Zone")
	if err != nil {
		t.Fatalf("new deck failed: %v", err)
	}
	want := filepath.Join("decks", "cloud-landing-zone.md")
	if !strings.Contains(output, want) {
		t.Errorf("output %q does not mention %s", output, want)
	}
	if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
		t.Errorf("expected deck: %v", err)
	}
	resetFlags(rootCmd)

	if _, err := execute(t, "new", "project"); err == nil {
		t.Error("expected an error creating a project over an existing one")
	}
}

func TestBuildPreview(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if _, err := execute(t, "new", "project"); err != nil {
		t.Fatalf("new project failed: %v", err)
	}

	cfg := config.Default()
	cfg.Images.Incremental = true
	conv, err := folioimage.NewConverter(imageOptions(cfg), dir)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if n := buildPreview(context.Background(), &buf, cfg, conv); n != 2 {
		t.Errorf("first build wrote %d outputs, want 2 (deck and image)", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "presentations", "example-deck.html")); err != nil {
		t.Errorf("expected rendered deck: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "assets", "images", "sample.webp")); err != nil {
		t.Errorf("expected converted image: %v", err)
	}

	// Unchanged images are cache hits; decks are always rendered.
	if n := buildPreview(context.Background(), &buf, cfg, conv); n != 1 {
		t.Errorf("second build wrote %d outputs, want 1", n)
	}
}

func TestPreviewFilter(t *testing.T) {
	filter := previewFilter(config.Default(), ".webp")
	tests := map[string]bool{
		"decks/intro.md":             true,
		"decks/INTRO.MD":             true,
		"assets/images/hero.png":     true,
		"assets/images/hero.webp":    false,
		"presentations/intro.html":   false,
		"assets/images/.folio-1.png": false,
	}
	for path, want := range tests {
		if got := filter(path); got != want {
			t.Errorf("filter(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestPublishCommand_NoBucket(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := execute(t, "publish", "--dry-run")
	if !errors.Is(err, publish.ErrNoBucket) {
		t.Errorf("err = %v, want ErrNoBucket", err)
	}
}
