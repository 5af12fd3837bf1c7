// Package config handles loading, validating, and managing project
// configuration for the folio asset toolkit.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level configuration for a folio project.
type Config struct {
	Images       ImageConfig       `yaml:"images"       mapstructure:"images"`
	Refs         RefsConfig        `yaml:"refs"         mapstructure:"refs"`
	Infographics InfographicConfig `yaml:"infographics" mapstructure:"infographics"`
	Decks        DeckConfig        `yaml:"decks"        mapstructure:"decks"`
	Script       ScriptConfig      `yaml:"script"       mapstructure:"script"`
	Publish      PublishConfig     `yaml:"publish"      mapstructure:"publish"`
}

// ImageConfig controls batch format conversion.
type ImageConfig struct {
	Dir         string   `yaml:"dir"         mapstructure:"dir"`
	Extensions  []string `yaml:"extensions"  mapstructure:"extensions"`
	Format      string   `yaml:"format"      mapstructure:"format"`
	Quality     int      `yaml:"quality"     mapstructure:"quality"`
	Lossless    bool     `yaml:"lossless"    mapstructure:"lossless"`
	Recursive   bool     `yaml:"recursive"   mapstructure:"recursive"`
	Exclude     []string `yaml:"exclude"     mapstructure:"exclude"`
	OutputDir   string   `yaml:"outputDir"   mapstructure:"outputDir"`
	Workers     int      `yaml:"workers"     mapstructure:"workers"`
	Incremental bool     `yaml:"incremental" mapstructure:"incremental"`
}

// RefsConfig controls rewriting of image references after conversion.
type RefsConfig struct {
	Root       string   `yaml:"root"       mapstructure:"root"`
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
	Exclude    []string `yaml:"exclude"    mapstructure:"exclude"`
}

// InfographicConfig controls infographic rendering.
type InfographicConfig struct {
	Data         string `yaml:"data"         mapstructure:"data"`
	OutputDir    string `yaml:"outputDir"    mapstructure:"outputDir"`
	Width        int    `yaml:"width"        mapstructure:"width"`
	Height       int    `yaml:"height"       mapstructure:"height"`
	FontPath     string `yaml:"fontPath"     mapstructure:"fontPath"`
	BoldFontPath string `yaml:"boldFontPath" mapstructure:"boldFontPath"`
	WebP         bool   `yaml:"webp"         mapstructure:"webp"`
}

// DeckConfig controls presentation page rendering.
type DeckConfig struct {
	Dir            string `yaml:"dir"            mapstructure:"dir"`
	OutputDir      string `yaml:"outputDir"      mapstructure:"outputDir"`
	HighlightStyle string `yaml:"highlightStyle" mapstructure:"highlightStyle"`
}

// ScriptConfig controls the script PDF.
type ScriptConfig struct {
	Data   string `yaml:"data"   mapstructure:"data"`
	Output string `yaml:"output" mapstructure:"output"`
}

// PublishConfig controls uploading generated assets to S3.
type PublishConfig struct {
	Bucket       string   `yaml:"bucket"       mapstructure:"bucket"`
	Region       string   `yaml:"region"       mapstructure:"region"`
	Prefix       string   `yaml:"prefix"       mapstructure:"prefix"`
	Distribution string   `yaml:"distribution" mapstructure:"distribution"` // CloudFront distribution ID
	Paths        []string `yaml:"paths"        mapstructure:"paths"`
	Delete       bool     `yaml:"delete"       mapstructure:"delete"` // remove remote objects with no local file
}

// Supported output formats for batch conversion.
var validFormats = map[string]bool{
	"webp": true,
	"jpeg": true,
	"png":  true,
}

// Default returns a Config populated with sensible default values.
func Default() *Config {
	return &Config{
		Images: ImageConfig{
			Dir:        "assets/images",
			Extensions: []string{".png", ".jpg", ".jpeg"},
			Format:     "webp",
			Quality:    80,
			Exclude:    []string{"node_modules", ".git", "toolkit"},
		},
		Refs: RefsConfig{
			Root:       ".",
			Extensions: []string{".html", ".md"},
			Exclude:    []string{"node_modules", ".git"},
		},
		Infographics: InfographicConfig{
			Data:      "data/infographics.yaml",
			OutputDir: "assets/images/projects",
			Width:     1200,
			Height:    800,
		},
		Decks: DeckConfig{
			Dir:            "decks",
			OutputDir:      "presentations",
			HighlightStyle: "github-dark",
		},
		Script: ScriptConfig{
			Data:   "data/script.yaml",
			Output: "assets/pdf/script.pdf",
		},
		Publish: PublishConfig{
			Paths: []string{"assets/images", "assets/pdf", "presentations"},
		},
	}
}

// Load reads a configuration file from configPath (YAML or TOML) and returns
// a Config with defaults applied first and file values overlaid on top.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	v := viper.New()

	ext := strings.TrimPrefix(filepath.Ext(configPath), ".")
	switch ext {
	case "yaml", "yml":
		v.SetConfigType("yaml")
	case "toml":
		v.SetConfigType("toml")
	default:
		v.SetConfigType("yaml")
	}

	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Images.Extensions = normalizeExtensions(cfg.Images.Extensions)
	cfg.Refs.Extensions = normalizeExtensions(cfg.Refs.Extensions)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load, except that a missing file yields the
// defaults when allowMissing is set. Projects without a config file then
// run with the stock layout.
func LoadOrDefault(configPath string, allowMissing bool) (*Config, error) {
	if allowMissing {
		if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
	}
	return Load(configPath)
}

// Validate checks the Config for common errors.
// It returns a descriptive error if:
//   - the image output format is not webp, jpeg or png
//   - quality is outside 1..100
//   - no input extensions are configured
//   - infographic dimensions are not positive
func (c *Config) Validate() error {
	format := strings.ToLower(c.Images.Format)
	if !validFormats[format] {
		return fmt.Errorf("config: images.format must be one of webp, jpeg, png (got %q)", c.Images.Format)
	}
	c.Images.Format = format

	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return fmt.Errorf("config: images.quality must be between 1 and 100 (got %d)", c.Images.Quality)
	}

	if len(c.Images.Extensions) == 0 {
		return fmt.Errorf("config: images.extensions must not be empty")
	}

	if c.Infographics.Width <= 0 || c.Infographics.Height <= 0 {
		return fmt.Errorf("config: infographics width and height must be positive (got %dx%d)",
			c.Infographics.Width, c.Infographics.Height)
	}

	return nil
}

// WithOverrides applies CLI flag overrides to the config. Known keys are
// mapped to their corresponding struct fields. The modified config is returned
// for convenient chaining.
func (c *Config) WithOverrides(overrides map[string]any) *Config {
	for key, val := range overrides {
		switch key {
		case "dir":
			if s, ok := val.(string); ok {
				c.Images.Dir = s
			}
		case "format":
			if s, ok := val.(string); ok {
				c.Images.Format = strings.ToLower(s)
			}
		case "quality":
			if n, ok := val.(int); ok {
				c.Images.Quality = n
			}
		case "lossless":
			if b, ok := val.(bool); ok {
				c.Images.Lossless = b
			}
		case "recursive":
			if b, ok := val.(bool); ok {
				c.Images.Recursive = b
			}
		case "outputDir":
			if s, ok := val.(string); ok {
				c.Images.OutputDir = s
			}
		case "workers":
			if n, ok := val.(int); ok {
				c.Images.Workers = n
			}
		case "incremental":
			if b, ok := val.(bool); ok {
				c.Images.Incremental = b
			}
		case "extensions":
			if s, ok := val.([]string); ok {
				c.Images.Extensions = normalizeExtensions(s)
			}
		case "refsRoot":
			if s, ok := val.(string); ok {
				c.Refs.Root = s
			}
		case "bucket":
			if s, ok := val.(string); ok {
				c.Publish.Bucket = s
			}
		case "region":
			if s, ok := val.(string); ok {
				c.Publish.Region = s
			}
		case "prefix":
			if s, ok := val.(string); ok {
				c.Publish.Prefix = s
			}
		case "distribution":
			if s, ok := val.(string); ok {
				c.Publish.Distribution = s
			}
		case "delete":
			if b, ok := val.(bool); ok {
				c.Publish.Delete = b
			}
		}
	}
	return c
}

// normalizeExtensions lower-cases extensions and ensures a leading dot.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
