package image

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrDirNotFound is returned when the directory to convert does not exist.
var ErrDirNotFound = errors.New("directory not found")

// Discover lists the files in dir whose extension is in exts (compared
// case-insensitively) and returns them sorted lexicographically for
// deterministic processing order. Files that already carry outputExt are
// never returned. When recursive is set, subdirectories are walked and any
// directory named in exclude (case-insensitive) is pruned, as is the
// .folio cache directory.
func Discover(dir string, exts []string, outputExt string, recursive bool, exclude []string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirNotFound, dir)
		}
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		want[strings.ToLower(e)] = true
	}
	outputExt = strings.ToLower(outputExt)

	matches := func(name string) bool {
		ext := strings.ToLower(filepath.Ext(name))
		return want[ext] && ext != outputExt
	}

	var files []string
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !matches(e.Name()) {
				continue
			}
			files = append(files, filepath.Join(dir, e.Name()))
		}
		sort.Strings(files)
		return files, nil
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && isExcluded(d.Name(), exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func isExcluded(name string, exclude []string) bool {
	if name == ".folio" {
		return true
	}
	for _, ex := range exclude {
		if strings.EqualFold(name, ex) {
			return true
		}
	}
	return false
}
