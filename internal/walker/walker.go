// Package walker discovers indexable files under a project root, honoring
// gitignore rules (nested, git exclude, global) and hidden-file filtering.
package walker

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/brobert1/seekr-go/internal/gitignore"
)

// gitignoreCacheSize bounds the per-directory matcher cache.
const gitignoreCacheSize = 1000

// File is one discovered file: its path relative to the walk root and its
// full content.
type File struct {
	Path     string // relative to root, slash-separated
	AbsPath  string
	Content  []byte
	Language string
}

// Walker walks a root directory yielding readable, non-ignored, UTF-8 text
// files, skipping symlinks that would escape the root (SPEC_FULL §4.8).
type Walker struct {
	gitignoreCache *lru.Cache[string, *gitignore.Matcher]
	cacheMu        sync.RWMutex
	globalMatcher  *gitignore.Matcher
}

// New creates a Walker, loading the process-wide global gitignore once.
func New() *Walker {
	cache, _ := lru.New[string, *gitignore.Matcher](gitignoreCacheSize)
	return &Walker{
		gitignoreCache: cache,
		globalMatcher:  loadGlobalGitignore(),
	}
}

// Walk traverses root and calls fn for every qualifying file. fn returning
// an error aborts the walk and that error is returned.
func (w *Walker) Walk(ctx context.Context, root string, fn func(*File) error) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	excludeMatcher := w.loadGitExclude(absRoot)

	return filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil
		}

		relPath, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if relPath == "." {
			return nil
		}

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if isHidden(d.Name()) || w.isIgnored(relPath, absRoot, true, excludeMatcher) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if escapesRoot(absRoot, path) {
				return nil
			}
		}

		if isHidden(d.Name()) {
			return nil
		}

		if w.isIgnored(relPath, absRoot, false, excludeMatcher) {
			return nil
		}

		info, err := d.Info()
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if !utf8.Valid(content) {
			return nil
		}

		return fn(&File{
			Path:     relPath,
			AbsPath:  path,
			Content:  content,
			Language: DetectLanguage(relPath),
		})
	})
}

// isHidden reports whether a path component (other than the root) starts
// with a dot.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "."
}

// escapesRoot reports whether a symlink at path resolves outside root.
func escapesRoot(root, path string) bool {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return true
	}
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return true
	}
	rel, err := filepath.Rel(resolvedRoot, resolved)
	if err != nil {
		return true
	}
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// isIgnored checks a path against the root .gitignore, every nested
// .gitignore between root and the path, the repository's git exclude file,
// and the process-wide global gitignore.
func (w *Walker) isIgnored(relPath, absRoot string, isDir bool, excludeMatcher *gitignore.Matcher) bool {
	if w.globalMatcher != nil && w.globalMatcher.Match(relPath, isDir) {
		return true
	}
	if excludeMatcher != nil && excludeMatcher.Match(relPath, isDir) {
		return true
	}

	if m := w.getGitignoreMatcher(absRoot, ""); m != nil && m.Match(relPath, isDir) {
		return true
	}

	dir := filepath.Dir(relPath)
	if dir == "." {
		return false
	}

	parts := strings.Split(dir, "/")
	currentDir := absRoot
	currentBase := ""
	for _, part := range parts {
		currentDir = filepath.Join(currentDir, part)
		if currentBase == "" {
			currentBase = part
		} else {
			currentBase = currentBase + "/" + part
		}

		if m := w.getGitignoreMatcher(currentDir, currentBase); m != nil && m.Match(relPath, isDir) {
			return true
		}
	}

	return false
}

func (w *Walker) getGitignoreMatcher(dir, base string) *gitignore.Matcher {
	w.cacheMu.RLock()
	matcher, ok := w.gitignoreCache.Get(dir)
	w.cacheMu.RUnlock()
	if ok {
		return matcher
	}

	gitignorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignorePath); err != nil {
		return nil
	}

	matcher = gitignore.New()
	if err := matcher.AddFromFile(gitignorePath, base); err != nil {
		return nil
	}

	w.cacheMu.Lock()
	w.gitignoreCache.Add(dir, matcher)
	w.cacheMu.Unlock()

	return matcher
}

// loadGitExclude reads "<root>/.git/info/exclude" if present.
func (w *Walker) loadGitExclude(absRoot string) *gitignore.Matcher {
	path := filepath.Join(absRoot, ".git", "info", "exclude")
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	m := gitignore.New()
	if err := m.AddFromFile(path, ""); err != nil {
		return nil
	}
	return m
}

// loadGlobalGitignore reads the process-wide global gitignore from
// $XDG_CONFIG_HOME/git/ignore or ~/.config/git/ignore.
func loadGlobalGitignore() *gitignore.Matcher {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		configHome = filepath.Join(home, ".config")
	}

	path := filepath.Join(configHome, "git", "ignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	m := gitignore.New()
	if err := m.AddFromFile(path, ""); err != nil {
		return nil
	}
	return m
}

// IsBinary reports whether content looks binary (contains a NUL byte in its
// first 512 bytes), mirroring the teacher's scanner heuristic.
func IsBinary(content []byte) bool {
	n := len(content)
	if n > 512 {
		n = 512
	}
	return bytes.IndexByte(content[:n], 0) >= 0
}
