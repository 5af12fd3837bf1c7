package image

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
)

// ErrUnsupportedFormat is returned when the target format is not one of
// webp, jpeg or png.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Status describes the outcome of converting a single file.
type Status string

const (
	StatusConverted Status = "converted"
	StatusUnchanged Status = "unchanged" // incremental cache hit
	StatusFailed    Status = "failed"
)

// Options controls batch format conversion.
type Options struct {
	Extensions  []string // input set, lower-case with leading dot
	Format      string   // "webp", "jpeg", "png"
	Quality     int
	Lossless    bool
	Recursive   bool
	Exclude     []string // directory names pruned when Recursive
	OutputDir   string   // empty: write beside the source
	Workers     int      // <= 0: one per CPU
	Incremental bool
}

// Result is the outcome of converting one source file. A failed conversion
// carries Err and leaves ConvertedBytes at zero.
type Result struct {
	Source         string
	Output         string
	OriginalBytes  int64
	ConvertedBytes int64
	Status         Status
	Err            error
}

// Savings returns the fractional size reduction of this result.
func (r Result) Savings() float64 {
	return Savings(r.OriginalBytes, r.ConvertedBytes)
}

// Report aggregates the results of a batch, in discovery order.
type Report struct {
	Results        []Result
	Converted      int
	Unchanged      int
	Failed         int
	OriginalBytes  int64 // summed over successful results only
	ConvertedBytes int64
}

// Savings returns the fractional size reduction over all successful results.
func (r *Report) Savings() float64 {
	return Savings(r.OriginalBytes, r.ConvertedBytes)
}

// Renames maps the basename of every successfully converted source to the
// basename of its output.
func (r *Report) Renames() map[string]string {
	m := make(map[string]string)
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			continue
		}
		m[filepath.Base(res.Source)] = filepath.Base(res.Output)
	}
	return m
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case StatusConverted:
		r.Converted++
	case StatusUnchanged:
		r.Unchanged++
	case StatusFailed:
		r.Failed++
		return
	}
	r.OriginalBytes += res.OriginalBytes
	r.ConvertedBytes += res.ConvertedBytes
}

// Savings computes (original - converted) / original. It is negative when
// the converted file is larger and zero when original is not positive.
func Savings(original, converted int64) float64 {
	if original <= 0 {
		return 0
	}
	return float64(original-converted) / float64(original)
}

// Converter converts images to a compressed target format.
type Converter struct {
	opts  Options
	cache *Cache
}

// NewConverter creates a Converter. When opts.Incremental is set the
// manifest cache is initialised at {projectRoot}/.folio/imagecache/.
func NewConverter(opts Options, projectRoot string) (*Converter, error) {
	opts.Format = strings.ToLower(opts.Format)
	if _, ok := formatExtensions[opts.Format]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}
	c := &Converter{opts: opts}
	if opts.Incremental {
		cache, err := NewCache(filepath.Join(projectRoot, ".folio", "imagecache"))
		if err != nil {
			return nil, fmt.Errorf("initialising image cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// OutputExt returns the extension (with dot) written by this converter.
func (c *Converter) OutputExt() string {
	return formatExtensions[c.opts.Format]
}

// Options returns the converter's options.
func (c *Converter) Options() Options {
	return c.opts
}

// Convert converts a single file, writing the output beside it or into the
// configured output directory.
func (c *Converter) Convert(src string) Result {
	return c.convert(src, c.outputPath(src, filepath.Dir(src)))
}

// ConvertDir discovers the matching files in dir and converts each one
// independently. A failure is recorded in the report and never stops the
// batch. onResult, if non-nil, is called once per file as it finishes;
// calls are serialised. Cancelling ctx stops new files from being started
// and returns the partial report with ctx.Err().
func (c *Converter) ConvertDir(ctx context.Context, dir string, onResult func(Result)) (*Report, error) {
	files, err := Discover(dir, c.opts.Extensions, c.OutputExt(), c.opts.Recursive, c.opts.Exclude)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	if len(files) == 0 {
		return report, nil
	}

	results := make([]Result, len(files))
	done := make([]bool, len(files))

	workers := c.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var mu sync.Mutex

	// Sources sharing a stem map to one output; the first in sorted order
	// owns it and the rest fail.
	owner := make(map[string]string, len(files))

	var ctxErr error
	for i, src := range files {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		out := c.outputPath(src, dir)
		if prev, ok := owner[out]; ok {
			res := Result{
				Source: src,
				Output: out,
				Status: StatusFailed,
				Err:    fmt.Errorf("output %s already produced by %s", filepath.Base(out), filepath.Base(prev)),
			}
			mu.Lock()
			results[i] = res
			done[i] = true
			if onResult != nil {
				onResult(res)
			}
			mu.Unlock()
			continue
		}
		owner[out] = src

		wg.Add(1)
		sem <- struct{}{} // acquire
		go func() {
			defer wg.Done()
			defer func() { <-sem }() // release

			res := c.convert(src, out)

			mu.Lock()
			results[i] = res
			done[i] = true
			if onResult != nil {
				onResult(res)
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	for i, res := range results {
		if done[i] {
			report.add(res)
		}
	}
	return report, ctxErr
}

// ExistingRenames maps the basename of every matching file in dir whose
// converted output already exists to the basename of that output. It lets
// references be rewritten without converting again.
func (c *Converter) ExistingRenames(dir string) (map[string]string, error) {
	files, err := Discover(dir, c.opts.Extensions, c.OutputExt(), c.opts.Recursive, c.opts.Exclude)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string)
	owned := make(map[string]bool)
	for _, src := range files {
		out := c.outputPath(src, dir)
		if owned[out] {
			continue
		}
		owned[out] = true
		if _, err := os.Stat(out); err != nil {
			continue
		}
		m[filepath.Base(src)] = filepath.Base(out)
	}
	return m, nil
}

// convert performs one conversion from src to out.
func (c *Converter) convert(src, out string) Result {
	res := Result{Source: src, Output: out, Status: StatusFailed}

	info, err := os.Stat(src)
	if err != nil {
		res.Err = fmt.Errorf("reading source: %w", err)
		return res
	}
	res.OriginalBytes = info.Size()

	var hash string
	if c.cache != nil {
		hash, err = HashFile(src)
		if err == nil {
			if entry, ok := c.cache.Lookup(src, hash, c.params()); ok && entry.Output == out {
				res.ConvertedBytes = entry.OutputSize
				res.Status = StatusUnchanged
				return res
			}
		}
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		res.Err = fmt.Errorf("decoding image: %w", err)
		return res
	}

	if err := writeImage(img, out, c.opts.Format, c.opts.Quality, c.opts.Lossless); err != nil {
		res.Err = err
		return res
	}

	outInfo, err := os.Stat(out)
	if err != nil {
		res.Err = fmt.Errorf("reading output: %w", err)
		return res
	}
	res.ConvertedBytes = outInfo.Size()
	res.Status = StatusConverted

	if c.cache != nil && hash != "" {
		_ = c.cache.Store(src, hash, c.params(), out, res.ConvertedBytes) // best effort
	}
	return res
}

func (c *Converter) params() EncodeParams {
	return EncodeParams{
		Format:   c.opts.Format,
		Quality:  c.opts.Quality,
		Lossless: c.opts.Lossless,
	}
}

// outputPath returns where the converted form of src is written. The
// basename keeps the source stem and only the extension changes. With an
// output directory configured, the path of src relative to root is kept.
func (c *Converter) outputPath(src, root string) string {
	name := fileStem(src) + c.OutputExt()
	if c.opts.OutputDir == "" {
		return filepath.Join(filepath.Dir(src), name)
	}
	rel, err := filepath.Rel(root, filepath.Dir(src))
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = ""
	}
	return filepath.Join(c.opts.OutputDir, rel, name)
}

// formatExtensions maps output formats to the extension they write.
var formatExtensions = map[string]string{
	"webp": ".webp",
	"jpeg": ".jpg",
	"png":  ".png",
}

// fileStem returns the filename without its extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// writeImage encodes img to a temporary file next to outPath and renames it
// into place, replacing any existing file.
func writeImage(img image.Image, outPath, format string, quality int, lossless bool) error {
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".folio-*"+filepath.Ext(outPath))
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := encodeImage(tmp, img, format, quality, lossless); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, outPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", outPath, err)
	}
	return nil
}

// encodeImage writes img to w in the specified format.
func encodeImage(w io.Writer, img image.Image, format string, quality int, lossless bool) error {
	switch format {
	case "webp":
		opts := webp.Options{Quality: quality, Lossless: lossless}
		if err := webp.Encode(w, img, opts); err != nil {
			return fmt.Errorf("encoding webp: %w", err)
		}
	case "png":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encoding png: %w", err)
		}
	case "jpeg":
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("encoding jpeg: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return nil
}
