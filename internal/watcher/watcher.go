// Package watcher is seekr's Watcher: it blocks watching a directory tree
// recursively and triggers an incremental reindex after a debounce window,
// per SPEC_FULL.md §4.7.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/brobert1/seekr-go/internal/walker"
)

// DefaultDebounce is the wall-clock quiet period after the last event
// before a reindex fires.
const DefaultDebounce = 500 * time.Millisecond

// ReindexFunc runs an incremental reindex of root; called once per
// debounce window that saw at least one qualifying event.
type ReindexFunc func(ctx context.Context, root string) error

// Watcher watches root recursively for Create/Modify/Remove events on
// code files, coalescing them into a single pending set drained by a
// resettable debounce timer.
type Watcher struct {
	root     string
	debounce time.Duration
	reindex  ReindexFunc
}

// New returns a Watcher rooted at root, invoking reindex after each
// debounce-quiet burst of qualifying events.
func New(root string, debounce time.Duration, reindex ReindexFunc) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{root: root, debounce: debounce, reindex: reindex}
}

// Watch blocks, watching root until ctx is cancelled or the fsnotify
// event channel disconnects. Non-code files and hidden paths are
// filtered before entering the pending set.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: creating fsnotify watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := addDirRecursive(fsw, w.root); err != nil {
		return fmt.Errorf("watcher: registering watches: %w", err)
	}

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	timerActive := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addDirRecursive(fsw, event.Name)
					continue
				}
			}

			if !w.qualifies(event) {
				continue
			}

			pending[event.Name] = struct{}{}
			if timerActive && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			timerActive = true

		case <-timer.C:
			timerActive = false
			if len(pending) == 0 {
				continue
			}
			pending = make(map[string]struct{})
			if w.reindex != nil {
				if err := w.reindex(ctx, w.root); err != nil {
					return fmt.Errorf("watcher: reindex: %w", err)
				}
			}

		case _, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
		}
	}
}

// qualifies reports whether event.Name should enter the pending set: a
// non-hidden path with a supported extension (§6's table).
func (w *Watcher) qualifies(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	if isHiddenPath(rel) {
		return false
	}

	return walker.DetectLanguage(rel) != ""
}

// isHiddenPath reports whether any component of relPath starts with ".".
func isHiddenPath(relPath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if part != "" && part != "." && part[0] == '.' {
			return true
		}
	}
	return false
}

// addDirRecursive registers fsnotify watches on root and every
// non-hidden, non-.git subdirectory beneath it.
func addDirRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if rel != "." && (d.Name() == ".git" || isHiddenPath(rel)) {
			return filepath.SkipDir
		}

		return fsw.Add(path)
	})
}
