// Package image provides batch conversion of images to compressed formats,
// an incremental conversion cache, and a goldmark extension that renders
// converted images as <picture> elements.
package image

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// cacheManifestVersion is bumped when the cache format changes.
const cacheManifestVersion = "1"

// EncodeParams are the encoder settings a cached output was produced with.
type EncodeParams struct {
	Format   string `json:"format"`
	Quality  int    `json:"quality"`
	Lossless bool   `json:"lossless"`
}

// Cache records which sources have already been converted so that unchanged
// images are not re-encoded across runs. All methods are safe for
// concurrent use.
type Cache struct {
	mu       sync.Mutex
	dir      string        // e.g. .folio/imagecache/
	manifest CacheManifest // loaded from manifest.json
}

// CacheManifest is the top-level structure persisted as manifest.json.
type CacheManifest struct {
	Version string                 `json:"version"`
	Entries map[string]*CacheEntry `json:"entries"` // keyed by source path
}

// CacheEntry records the conversion state of a single source image.
type CacheEntry struct {
	ContentHash string       `json:"contentHash"` // SHA-256 of source file
	Params      EncodeParams `json:"params"`
	Output      string       `json:"output"`
	OutputSize  int64        `json:"outputSize"`
}

// NewCache creates a Cache rooted at cacheDir. If a manifest.json already
// exists there it is loaded; otherwise an empty manifest is initialised.
func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	c := &Cache{
		dir: cacheDir,
		manifest: CacheManifest{
			Version: cacheManifestVersion,
			Entries: make(map[string]*CacheEntry),
		},
	}

	manifestPath := filepath.Join(cacheDir, "manifest.json")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading cache manifest: %w", err)
	}

	var m CacheManifest
	if err := json.Unmarshal(data, &m); err != nil {
		// Corrupt manifest: start fresh.
		return c, nil
	}
	if m.Version != cacheManifestVersion {
		return c, nil
	}
	if m.Entries == nil {
		m.Entries = make(map[string]*CacheEntry)
	}
	c.manifest = m
	return c, nil
}

// Lookup reports whether srcPath was converted from the same content with
// the same parameters and its output still exists with the recorded size.
func (c *Cache) Lookup(srcPath, contentHash string, params EncodeParams) (*CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.manifest.Entries[srcPath]
	if !ok {
		return nil, false
	}
	if entry.ContentHash != contentHash || entry.Params != params {
		return nil, false
	}
	info, err := os.Stat(entry.Output)
	if err != nil || info.Size() != entry.OutputSize {
		return nil, false
	}
	e := *entry
	return &e, true
}

// Store adds or updates a cache entry for srcPath and persists the manifest.
func (c *Cache) Store(srcPath, contentHash string, params EncodeParams, output string, outputSize int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manifest.Entries[srcPath] = &CacheEntry{
		ContentHash: contentHash,
		Params:      params,
		Output:      output,
		OutputSize:  outputSize,
	}
	return c.saveManifest()
}

// saveManifest writes the manifest to manifest.json. Callers hold c.mu.
func (c *Cache) saveManifest() error {
	data, err := json.MarshalIndent(c.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling cache manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(c.dir, "manifest.json"), data, 0o644)
}

// HashFile computes the SHA-256 hex digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
