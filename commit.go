package fileset

import (
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Commit materializes the fileset into destDir and returns destDir. Each
// entry becomes a hard link to its blob (a byte copy where linking is not
// supported), with intermediate directories created as needed.
//
// destDir mirrors the tree exactly: files present in destDir but absent from
// the tree are removed and emptied directories pruned, so repeated commits
// to one directory are idempotent. Committed files are shared storage; a
// caller who needs to edit one must copy it first, or the edit would corrupt
// every fileset referencing the same content.
func (fs *FileSet) Commit(destDir string) (string, error) {
	st, err := fs.ws.store()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("commit %s: %w", destDir, err)
	}

	if err := fs.removeStrays(destDir); err != nil {
		return "", fmt.Errorf("commit %s: %w", destDir, err)
	}

	for p, e := range fs.Entries() {
		dest := filepath.Join(destDir, filepath.FromSlash(p))
		if info, err := os.Stat(dest); err == nil {
			if st.SameBlob(e.ContentID, dest) {
				continue // already the right link
			}
			if info.IsDir() {
				if err := os.RemoveAll(dest); err != nil {
					return "", fmt.Errorf("commit %s: %w", destDir, err)
				}
			} else if err := os.Remove(dest); err != nil {
				return "", fmt.Errorf("commit %s: %w", destDir, err)
			}
		}
		if err := st.LinkInto(e.ContentID, dest); err != nil {
			return "", fmt.Errorf("commit %s: %w", destDir, err)
		}
	}
	return destDir, nil
}

// removeStrays deletes files under destDir that are not in the tree and
// prunes directories left empty.
func (fs *FileSet) removeStrays(destDir string) error {
	var strays []string
	var dirs []string
	err := filepath.WalkDir(destDir, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == destDir {
			return nil
		}
		rel, err := filepath.Rel(destDir, p)
		if err != nil {
			return err
		}
		key := normalizePath(rel)
		if d.IsDir() {
			dirs = append(dirs, p)
			if !fs.hasPrefix(key) {
				// No tree entry lives under this directory; drop it
				// wholesale and skip descending.
				strays = append(strays, p)
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := fs.tree[key]; !ok {
			strays = append(strays, p)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, p := range strays {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}

	// Deepest first, so emptied parents are seen after their children.
	slices.Reverse(dirs)
	for _, p := range dirs {
		entries, err := os.ReadDir(p)
		if err != nil {
			continue // already removed with a stray parent
		}
		if len(entries) == 0 {
			if err := os.Remove(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// hasPrefix reports whether any tree path lives under dir.
func (fs *FileSet) hasPrefix(dir string) bool {
	prefix := dir + "/"
	for p := range fs.tree {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
