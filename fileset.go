package fileset

import (
	"fmt"
	"io"
	"iter"
	"maps"
	"path"
	"slices"
	"strings"
)

// FileSet is an immutable mapping from normalized relative path to Entry,
// sharing its workspace's blob store with every other fileset derived from
// the same workspace. Transformations return new values; a FileSet is never
// mutated after construction.
type FileSet struct {
	ws   *Workspace
	tree map[string]*Entry
}

// derive builds a sibling fileset around tree, sharing the workspace handles.
func (fs *FileSet) derive(tree map[string]*Entry) *FileSet {
	return &FileSet{ws: fs.ws, tree: tree}
}

// cloneTree shallow-copies the tree table. Entry values are shared; they are
// immutable, so copying the table is all the isolation a derived set needs.
func (fs *FileSet) cloneTree() map[string]*Entry {
	return maps.Clone(fs.tree)
}

// normalizePath converts p to the canonical tree key form: forward slashes,
// no leading "./" or "/", cleaned.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// Len returns the number of entries.
func (fs *FileSet) Len() int { return len(fs.tree) }

// Ls returns every path in the tree, sorted.
func (fs *FileSet) Ls() []string {
	paths := slices.Collect(maps.Keys(fs.tree))
	slices.Sort(paths)
	return paths
}

// Entries iterates entries in sorted path order.
func (fs *FileSet) Entries() iter.Seq2[string, *Entry] {
	return func(yield func(string, *Entry) bool) {
		for _, p := range fs.Ls() {
			if !yield(p, fs.tree[p]) {
				return
			}
		}
	}
}

// Lookup returns the entry for path, if present.
func (fs *FileSet) Lookup(p string) (*Entry, bool) {
	e, ok := fs.tree[normalizePath(p)]
	return e, ok
}

// Hash returns the content digest recorded for path.
func (fs *FileSet) Hash(p string) (string, error) {
	e, ok := fs.Lookup(p)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return e.Hash, nil
}

// Timestamp returns the modification time recorded for path, in unix
// milliseconds.
func (fs *FileSet) Timestamp(p string) (int64, error) {
	e, ok := fs.Lookup(p)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return e.ModTime, nil
}

// Content returns a reader over the bytes recorded for path. The caller
// closes it.
func (fs *FileSet) Content(p string) (io.ReadCloser, error) {
	e, ok := fs.Lookup(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	s, err := fs.ws.store()
	if err != nil {
		return nil, err
	}
	return s.Open(e.ContentID)
}

// Filter returns a fileset restricted to entries satisfying pred.
func (fs *FileSet) Filter(pred func(*Entry) bool) *FileSet {
	tree := make(map[string]*Entry)
	for p, e := range fs.tree {
		if pred(e) {
			tree[p] = e
		}
	}
	return fs.derive(tree)
}

// FilterByMeta returns a fileset restricted to entries whose metadata
// satisfies pred.
func (fs *FileSet) FilterByMeta(pred func(meta map[string]string) bool) *FileSet {
	return fs.Filter(func(e *Entry) bool { return pred(e.Meta) })
}

// Remove returns a fileset without the given paths. Unknown paths are
// ignored.
func (fs *FileSet) Remove(paths ...string) *FileSet {
	drop := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		drop[normalizePath(p)] = struct{}{}
	}
	return fs.Filter(func(e *Entry) bool {
		_, ok := drop[e.Path]
		return !ok
	})
}

// Empty returns a fileset with no entries but the same workspace handles.
// Useful for reusing a warmed cache with a fresh working set.
func (fs *FileSet) Empty() *FileSet {
	return fs.derive(map[string]*Entry{})
}
