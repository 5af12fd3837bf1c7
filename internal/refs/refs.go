// Package refs rewrites references to converted images inside HTML and
// Markdown files.
package refs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Options controls which files are rewritten.
type Options struct {
	Extensions []string // file extensions to scan, e.g. ".html", ".md"
	Exclude    []string // directory names to prune
	DryRun     bool     // report changes without writing
}

// FileChange records the replacements made in one file.
type FileChange struct {
	Path         string
	Replacements int
}

// Summary describes a rewrite pass.
type Summary struct {
	FilesScanned      int
	Changes           []FileChange
	TotalReplacements int
}

// alwaysExcluded directories are never scanned.
var alwaysExcluded = []string{"node_modules", ".git", ".folio"}

// Rewrite walks root and, in every file whose extension is in
// opts.Extensions, replaces references to each key of renames with its
// value. Keys and values are basenames (e.g. "hero.png" -> "hero.webp").
// A reference only matches when the basename is preceded by a path
// delimiter and followed by a terminator, so "xhero.png" never matches
// "hero.png".
func Rewrite(root string, renames map[string]string, opts Options) (*Summary, error) {
	summary := &Summary{}
	if len(renames) == 0 {
		return summary, nil
	}

	patterns := compile(renames)

	exts := make(map[string]bool, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[strings.ToLower(e)] = true
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && excluded(d.Name(), opts.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if !exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		summary.FilesScanned++

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		updated, n := Apply(string(data), patterns)
		if n == 0 {
			return nil
		}

		if !opts.DryRun {
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
		}
		summary.Changes = append(summary.Changes, FileChange{Path: path, Replacements: n})
		summary.TotalReplacements += n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rewriting references under %s: %w", root, err)
	}
	return summary, nil
}

// Pattern is a compiled rename rule.
type Pattern struct {
	From string
	To   string
	re   *regexp.Regexp
}

// compile builds one pattern per rename, longest names first so that a
// shorter basename never pre-empts a longer one sharing its suffix.
func compile(renames map[string]string) []Pattern {
	names := make([]string, 0, len(renames))
	for from := range renames {
		names = append(names, from)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	patterns := make([]Pattern, 0, len(names))
	for _, from := range names {
		to := renames[from]
		if from == "" || from == to {
			continue
		}
		// A trailing period only ends a reference at the end of a sentence.
		re := regexp.MustCompile(`(^|[/\\"'(=\[>\s])` + regexp.QuoteMeta(from) + `([?#"')\]>;<\s,]|\.(?:\s|$)|$)`)
		patterns = append(patterns, Pattern{From: from, To: to, re: re})
	}
	return patterns
}

// Apply runs every pattern over content and returns the rewritten text and
// the number of replacements made.
func Apply(content string, patterns []Pattern) (string, int) {
	total := 0
	for _, p := range patterns {
		content = replaceAll(content, p, &total)
	}
	return content, total
}

// replaceAll substitutes every match of p. Matches are found one at a time
// because adjacent references can share a delimiter character, which a
// single regexp pass would consume.
func replaceAll(content string, p Pattern, total *int) string {
	var b strings.Builder
	rest := content
	for {
		loc := p.re.FindStringSubmatchIndex(rest)
		if loc == nil {
			b.WriteString(rest)
			return b.String()
		}
		// loc[3] is the end of the leading delimiter group, loc[4] the start
		// of the trailing terminator group.
		b.WriteString(rest[:loc[3]])
		b.WriteString(p.To)
		*total++
		rest = rest[loc[4]:]
	}
}

func excluded(name string, extra []string) bool {
	for _, ex := range alwaysExcluded {
		if name == ex {
			return true
		}
	}
	for _, ex := range extra {
		if strings.EqualFold(name, ex) {
			return true
		}
	}
	return false
}
