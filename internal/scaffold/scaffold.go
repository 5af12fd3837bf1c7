// Package scaffold creates the starting layout of a folio project and new
// deck files.
package scaffold

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/aellingwood/folio/internal/content"
)

// nowFunc is the function used to get the current time.
// It is a package-level variable so tests can override it.
var nowFunc = time.Now

// ErrExists is returned when a scaffold would overwrite an existing file.
var ErrExists = errors.New("already exists")

const configTemplate = `# folio configuration. Every key is optional; the values below are the
# defaults.
images:
  dir: assets/images
  extensions: [.png, .jpg, .jpeg]
  format: webp
  quality: 80
  lossless: false
  recursive: false
  exclude: [node_modules, .git, toolkit]
  outputDir: ""
  workers: 0
  incremental: false

refs:
  root: .
  extensions: [.html, .md]
  exclude: [node_modules, .git]

infographics:
  data: data/infographics.yaml
  outputDir: assets/images/projects
  width: 1200
  height: 800
  webp: false

decks:
  dir: decks
  outputDir: presentations
  highlightStyle: github-dark

script:
  data: data/script.yaml
  output: assets/pdf/script.pdf

publish:
  bucket: ""
  region: ""
  prefix: ""
  distribution: ""
  paths: [assets/images, assets/pdf, presentations]
  delete: false
`

const infographicsTemplate = `# Built-in schemes: blue, purple, green, orange, teal.
schemes:
  slate:
    bg: "#0f172a"
    text: "#f8fafc"
    accent: "#38bdf8"

items:
  - file: 01-example-project.png
    title: Example Project
    subtitle: What the project delivered
    scheme: blue
    points:
      - First measurable outcome
      - Second measurable outcome
      - Third measurable outcome
`

const scriptTemplate = `title: Discovery Script
subtitle: A field guide for first conversations
intro: >
  Use this framework in early conversations to uncover business triggers
  and align the solution to measurable outcomes.
sections:
  - title: 1. The Business Trigger
    body: Dig for the compelling event.
    bullets:
      - "Script: What specifically triggered this conversation right now?"
      - "Follow-up: What happens if you do nothing for the next 6 months?"
`

const deckTemplate = `---
title: "%s"
subtitle: ""
client: ""
presenter: ""
footer: ""
copyright: "%d"
agenda: true
---

## Executive Summary

- **Outcome:** the result the audience should remember.

## Solution Architecture

Describe the approach here.
`

// NewProject creates the folio project layout in dir: a config file, an
// example deck, sample data files and a sample image. It refuses to run
// when dir already contains a folio.yaml.
func NewProject(dir string) error {
	configPath := filepath.Join(dir, "folio.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s %w", configPath, ErrExists)
	}

	dirs := []string{
		filepath.Join(dir, "assets", "images"),
		filepath.Join(dir, "data"),
		filepath.Join(dir, "decks"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating directory %q: %w", d, err)
		}
	}

	files := []struct {
		path string
		body string
	}{
		{configPath, configTemplate},
		{filepath.Join(dir, "data", "infographics.yaml"), infographicsTemplate},
		{filepath.Join(dir, "data", "script.yaml"), scriptTemplate},
	}
	for _, f := range files {
		if err := writeNew(f.path, []byte(f.body)); err != nil {
			return err
		}
	}

	if _, err := NewDeck(filepath.Join(dir, "decks"), "Example Deck"); err != nil {
		return err
	}
	if err := writeSampleImage(filepath.Join(dir, "assets", "images", "sample.png")); err != nil {
		return fmt.Errorf("writing sample image: %w", err)
	}
	return nil
}

// NewDeck writes a deck skeleton for title into dir and returns its path.
func NewDeck(dir, title string) (string, error) {
	slug := content.Slugify(title)
	if slug == "" {
		return "", fmt.Errorf("cannot derive a file name from %q", title)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %q: %w", dir, err)
	}
	path := filepath.Join(dir, slug+".md")
	body := fmt.Sprintf(deckTemplate, title, nowFunc().Year())
	if err := writeNew(path, []byte(body)); err != nil {
		return "", err
	}
	return path, nil
}

// writeNew writes data to path, failing if the file already exists.
func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s %w", path, ErrExists)
	}
	if err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return f.Close()
}

// writeSampleImage writes a small diagonal gradient PNG for the first
// conversion run to work on.
func writeSampleImage(path string) error {
	const w, h = 640, 360
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			m.Set(x, y, color.NRGBA{
				R: uint8(0x0f + x*0x29/w),
				G: uint8(0x17 + y*0xa6/h),
				B: uint8(0x2a + (x+y)*0xce/(w+h)),
				A: 0xff,
			})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
