// Package scratch manages process-scoped temporary directories.
//
// A Tracker hands out fresh empty directories under a single lazily-created
// root and removes the whole root on Close. It replaces the implicit
// process-wide temp bookkeeping of ad-hoc os.MkdirTemp calls with an explicit
// handle that has documented init and teardown.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Tracker allocates tracked temporary directories and files.
type Tracker struct {
	parent string // optional parent; defaults to the system temp dir

	mu   sync.Mutex
	root string // created on first use
}

// New returns a Tracker that creates its root under parent, or under the
// system temp directory when parent is empty. Nothing touches the filesystem
// until the first allocation.
func New(parent string) *Tracker {
	return &Tracker{parent: parent}
}

// Root returns the tracker's root directory, creating it if needed.
func (t *Tracker) Root() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rootLocked()
}

func (t *Tracker) rootLocked() (string, error) {
	if t.root != "" {
		return t.root, nil
	}
	parent := t.parent
	if parent == "" {
		parent = os.TempDir()
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("create scratch parent: %w", err)
	}
	root, err := os.MkdirTemp(parent, "fileset-")
	if err != nil {
		return "", fmt.Errorf("create scratch root: %w", err)
	}
	t.root = root
	return root, nil
}

// Dir allocates a fresh empty directory, removed on Close.
func (t *Tracker) Dir() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	root, err := t.rootLocked()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}

// CreateFile allocates a fresh file, removed on Close. The caller owns the
// returned handle.
func (t *Tracker) CreateFile() (*os.File, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	root, err := t.rootLocked()
	if err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(root, uuid.NewString()))
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	return f, nil
}

// Close removes every directory and file the tracker handed out.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == "" {
		return nil
	}
	root := t.root
	t.root = ""
	return os.RemoveAll(root)
}
