// Package files supplies the file-facing collaborators of the orchestration
// core: an explicitly owned Index snapshot of available workspace files, a
// directory-rooted content provider, and an fsnotify-backed watcher that
// refreshes the index. The core never reaches for global file state; callers
// pass an Index and a provider in.
package files

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Index is an immutable snapshot of the files available in a workspace,
// passed by value into context assembly. The zero value is an empty index.
type Index struct {
	paths []string
}

// NewIndex builds an index from relative paths, sorted and defensively copied.
func NewIndex(paths []string) Index {
	cp := append([]string{}, paths...)
	sort.Strings(cp)
	return Index{paths: cp}
}

// Paths returns the indexed paths in sorted order.
func (ix Index) Paths() []string {
	return append([]string{}, ix.paths...)
}

// Len returns the number of indexed files.
func (ix Index) Len() int { return len(ix.paths) }

// DirProvider resolves relative paths to UTF-8 file content under a fixed
// root directory. It implements core.FileProvider. Paths that escape the
// root are rejected.
type DirProvider struct {
	root string
}

// NewDirProvider creates a provider rooted at dir.
func NewDirProvider(dir string) *DirProvider {
	return &DirProvider{root: dir}
}

// Root returns the provider's root directory.
func (p *DirProvider) Root() string { return p.root }

// Resolve reads the file at the given workspace-relative path.
func (p *DirProvider) Resolve(path string) (string, error) {
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace root: %s", path)
	}
	b, err := os.ReadFile(filepath.Join(p.root, clean))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Scan walks the root and builds an index of regular files, skipping hidden
// entries (dot-prefixed files and directories).
func (p *DirProvider) Scan() (Index, error) {
	var paths []string
	err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != p.root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(p.root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return Index{}, err
	}
	return NewIndex(paths), nil
}
