// Package watch re-runs work when files under a set of directories change.
package watch

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Watcher calls onChange once per burst of changes under its directories.
// A burst ends when no relevant event has arrived for the debounce period.
type Watcher struct {
	paths    []string
	onChange func()
	filter   func(path string) bool
	debounce time.Duration
	skip     map[string]bool

	fsw   *fsnotify.Watcher
	done  chan struct{}
	ready chan struct{}
	once  sync.Once
}

// NewWatcher returns a Watcher over paths. Directories are watched
// recursively; .git, node_modules and the .folio cache are never entered.
func NewWatcher(paths []string, debounce time.Duration, onChange func()) *Watcher {
	return &Watcher{
		paths:    paths,
		onChange: onChange,
		debounce: debounce,
		skip:     map[string]bool{".git": true, "node_modules": true, ".folio": true},
		done:     make(chan struct{}),
		ready:    make(chan struct{}),
	}
}

// SetFilter restricts which changed paths trigger onChange. Must be called
// before Start.
func (w *Watcher) SetFilter(filter func(path string) bool) {
	w.filter = filter
}

// SkipDirs adds directory names that are not descended into, such as the
// configured image excludes. Must be called before Start.
func (w *Watcher) SkipDirs(names ...string) {
	for _, n := range names {
		w.skip[n] = true
	}
}

// Ready is closed once every path is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Start watches until Stop is called. Paths that cannot be watched are
// logged and skipped.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw

	for _, p := range w.paths {
		if err := w.addRecursive(p); err != nil {
			log.Printf("warning: not watching %s: %v", p, err)
		}
	}
	close(w.ready)

	var timer *time.Timer
	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.triggers(event) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.onChange)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("warning: watcher: %v", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return fsw.Close()
		}
	}
}

// triggers reports whether event should start or extend a burst. A newly
// created directory is added to the watch list instead.
func (w *Watcher) triggers(event fsnotify.Event) bool {
	if event.Op&relevantOps == 0 {
		return false
	}
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skip[info.Name()] {
				_ = w.addRecursive(event.Name)
			}
			return false
		}
	}
	return w.filter == nil || w.filter(event.Name)
}

// Stop ends Start. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.once.Do(func() { close(w.done) })
}

// addRecursive watches root and, when it is a directory, every directory
// below it that is not skipped. fsnotify itself is not recursive.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if path == root {
				return w.fsw.Add(path)
			}
			return nil
		}
		if path != root && w.skip[d.Name()] {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}
