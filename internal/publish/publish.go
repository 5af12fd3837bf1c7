// Package publish uploads generated portfolio assets to an S3 bucket and
// invalidates the CloudFront paths that changed.
package publish

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoBucket is returned when no destination bucket is configured.
var ErrNoBucket = errors.New("no bucket configured")

// maxInvalidationPaths caps the per-path invalidation list. Beyond it a
// single wildcard covering the prefix is sent instead.
const maxInvalidationPaths = 15

// Options controls a publish run.
type Options struct {
	Bucket       string
	Prefix       string // key prefix inside the bucket, without slashes
	Distribution string // CloudFront distribution ID; empty skips invalidation
	Delete       bool   // remove stale remote objects inside the published paths
	DryRun       bool

	// Paths are the published paths relative to the project root, as given
	// to Scan. Only remote keys under one of them are candidates for
	// deletion. When empty, the directories holding local entries are used.
	Paths []string
}

// Entry is a local file and the object key it is published under.
type Entry struct {
	Key          string
	Path         string
	ContentType  string
	CacheControl string
	Hash         string // hex MD5, comparable with a single-part upload's ETag
}

// Store is the object storage a publish writes to. List returns object
// keys under prefix mapped to their ETag without quotes.
type Store interface {
	List(ctx context.Context, prefix string) (map[string]string, error)
	Put(ctx context.Context, key string, body io.Reader, contentType, cacheControl string) error
	Delete(ctx context.Context, key string) error
}

// Invalidator purges cached paths from a CDN.
type Invalidator interface {
	Invalidate(ctx context.Context, distribution string, paths []string) error
}

// Action is one planned or completed change. Op is "upload" or "delete".
type Action struct {
	Op  string
	Key string
}

// Result summarises a publish run. In a dry run Uploaded and Deleted count
// the planned actions.
type Result struct {
	Actions     []Action
	Uploaded    int
	Deleted     int
	Skipped     int
	Invalidated []string
	Errors      []error
}

// ContentType returns the MIME type for a file extension, including the
// leading dot.
func ContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".json":
		return "application/json; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// CacheControl returns the Cache-Control header for a file extension.
// Pages revalidate on every request; images and PDFs keep their name
// across rebuilds, so they are cached for a day rather than forever.
func CacheControl(ext string) string {
	switch strings.ToLower(ext) {
	case ".html", ".htm":
		return "public, max-age=0, must-revalidate"
	case ".png", ".jpg", ".jpeg", ".webp", ".svg", ".pdf":
		return "public, max-age=86400"
	default:
		return "public, max-age=3600"
	}
}

// HashFile returns the hex MD5 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file for hashing: %w", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Scan walks each of paths (relative to root) and returns an entry per
// file, keyed by its slash-separated path relative to root under prefix.
// Missing paths are skipped. Dotfiles and dot directories are never
// published. Entries are sorted by key.
func Scan(root string, paths []string, prefix string) ([]Entry, error) {
	seen := make(map[string]bool)
	var entries []Entry

	for _, p := range paths {
		dir := filepath.Join(root, filepath.FromSlash(p))
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		err := filepath.WalkDir(dir, func(file string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if strings.HasPrefix(d.Name(), ".") && file != dir {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(root, file)
			if err != nil {
				return fmt.Errorf("computing relative path: %w", err)
			}
			key := objectKey(prefix, filepath.ToSlash(rel))
			if seen[key] {
				return nil
			}
			seen[key] = true

			hash, err := HashFile(file)
			if err != nil {
				return err
			}
			ext := filepath.Ext(file)
			entries = append(entries, Entry{
				Key:          key,
				Path:         file,
				ContentType:  ContentType(ext),
				CacheControl: CacheControl(ext),
				Hash:         hash,
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", p, err)
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Diff compares local entries with remote key hashes. It returns the
// entries that are new or changed and, sorted, the remote keys with no
// local entry.
func Diff(local []Entry, remote map[string]string) (toUpload []Entry, toDelete []string) {
	localKeys := make(map[string]bool, len(local))
	for _, e := range local {
		localKeys[e.Key] = true
		if h, ok := remote[e.Key]; !ok || h != e.Hash {
			toUpload = append(toUpload, e)
		}
	}
	for key := range remote {
		if !localKeys[key] {
			toDelete = append(toDelete, key)
		}
	}
	sort.Strings(toDelete)
	return toUpload, toDelete
}

// Publish uploads the new and changed entries to store, deletes stale
// objects when opts.Delete is set, and invalidates the changed paths when
// a distribution is configured and inv is non-nil. Individual failures are
// collected in the result and do not stop the run.
func Publish(ctx context.Context, opts Options, local []Entry, store Store, inv Invalidator) (*Result, error) {
	if opts.Bucket == "" {
		return nil, ErrNoBucket
	}

	prefix := ""
	if p := strings.Trim(opts.Prefix, "/"); p != "" {
		prefix = p + "/"
	}
	remote, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing remote objects: %w", err)
	}

	toUpload, toDelete := Diff(local, remote)
	if opts.Delete {
		toDelete = inScope(toDelete, deleteScopes(opts.Paths, opts.Prefix, local))
	} else {
		toDelete = nil
	}

	res := &Result{Skipped: len(local) - len(toUpload)}
	for _, e := range toUpload {
		res.Actions = append(res.Actions, Action{Op: "upload", Key: e.Key})
	}
	for _, key := range toDelete {
		res.Actions = append(res.Actions, Action{Op: "delete", Key: key})
	}

	if opts.DryRun {
		res.Uploaded = len(toUpload)
		res.Deleted = len(toDelete)
		if opts.Distribution != "" {
			res.Invalidated = invalidationPaths(res.Actions, prefix)
		}
		return res, nil
	}

	var changed []Action
	for _, e := range toUpload {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := putFile(ctx, store, e); err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Uploaded++
		changed = append(changed, Action{Op: "upload", Key: e.Key})
	}
	for _, key := range toDelete {
		if err := store.Delete(ctx, key); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("deleting %s: %w", key, err))
			continue
		}
		res.Deleted++
		changed = append(changed, Action{Op: "delete", Key: key})
	}

	if opts.Distribution != "" && inv != nil && len(changed) > 0 {
		paths := invalidationPaths(changed, prefix)
		if err := inv.Invalidate(ctx, opts.Distribution, paths); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("invalidating %s: %w", opts.Distribution, err))
		} else {
			res.Invalidated = paths
		}
	}
	return res, nil
}

// deleteScopes returns the key prefixes stale objects may be deleted
// under. An empty scope covers everything under the bucket prefix.
func deleteScopes(paths []string, prefix string, local []Entry) []string {
	var scopes []string
	if len(paths) == 0 {
		seen := make(map[string]bool)
		for _, e := range local {
			if dir := path.Dir(e.Key); !seen[dir] {
				seen[dir] = true
				scopes = append(scopes, dir)
			}
		}
		return scopes
	}
	for _, p := range paths {
		p = path.Clean(filepath.ToSlash(p))
		if p == "." || p == "/" {
			scopes = append(scopes, strings.Trim(prefix, "/"))
			continue
		}
		scopes = append(scopes, objectKey(prefix, strings.TrimPrefix(p, "/")))
	}
	return scopes
}

// inScope keeps the keys that equal or sit below one of scopes.
func inScope(keys, scopes []string) []string {
	var out []string
	for _, key := range keys {
		for _, scope := range scopes {
			if scope == "" || scope == "." || key == scope || strings.HasPrefix(key, scope+"/") {
				out = append(out, key)
				break
			}
		}
	}
	return out
}

func putFile(ctx context.Context, store Store, e Entry) error {
	f, err := os.Open(e.Path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", e.Path, err)
	}
	defer f.Close()
	if err := store.Put(ctx, e.Key, f, e.ContentType, e.CacheControl); err != nil {
		return fmt.Errorf("uploading %s: %w", e.Key, err)
	}
	return nil
}

// invalidationPaths lists the CDN paths for actions, or a single wildcard
// under prefix once there are too many.
func invalidationPaths(actions []Action, prefix string) []string {
	if len(actions) == 0 {
		return nil
	}
	if len(actions) > maxInvalidationPaths {
		return []string{"/" + prefix + "*"}
	}
	paths := make([]string, len(actions))
	for i, a := range actions {
		paths[i] = "/" + a.Key
	}
	return paths
}

func objectKey(prefix, rel string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}
