package fileset

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/stagekit/fileset/internal/scratch"
	"github.com/stagekit/fileset/internal/store"
)

// Workspace holds the shared directory handles every fileset derived from it
// references: the content-addressed blob store, the scratch area for staging
// and merge output, and the cache root for AddCached. It is the explicit
// replacement for process-wide singletons; create one per pipeline (or one
// per process) and Close it when done.
//
// Workspaces are safe for concurrent use. FileSet values are immutable, so
// independent pipelines may share one workspace from multiple goroutines.
type Workspace struct {
	opts    *Options
	scratch *scratch.Tracker
	logger  *zap.SugaredLogger

	// group deduplicates concurrent in-process AddCached calls per key.
	group singleflight.Group

	mu       sync.Mutex
	blobs    *store.Store // created on first use
	cacheDir string       // resolved on first use
	closed   bool
}

// New creates a workspace. Directories are created lazily on first use;
// defaulted directories are removed by Close, caller-supplied ones are not.
func New(opts ...Option) (*Workspace, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Workspace{
		opts:    options,
		scratch: scratch.New(options.ScratchDir),
		logger:  logger,
	}, nil
}

// Fileset returns an empty fileset bound to this workspace.
func (w *Workspace) Fileset() *FileSet {
	return &FileSet{ws: w, tree: map[string]*Entry{}}
}

// Close removes the workspace's tracked scratch directories, including any
// defaulted blob store and cache root. Blobs in a caller-supplied BlobDir
// persist for reuse by future workspaces; the store is a dedup cache, not a
// reference-counted heap, so nothing garbage-collects it.
func (w *Workspace) Close() error {
	w.mu.Lock()
	w.closed = true
	w.blobs = nil
	w.cacheDir = ""
	w.mu.Unlock()
	return w.scratch.Close()
}

// store returns the blob store, initializing it on first use.
func (w *Workspace) store() (*store.Store, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	if w.blobs != nil {
		return w.blobs, nil
	}

	dir := w.opts.BlobDir
	if dir == "" {
		d, err := w.scratch.Dir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	s, err := store.New(dir, w.opts.HashCacheSize)
	if err != nil {
		return nil, err
	}
	w.blobs = s
	return s, nil
}

// cacheRoot returns the cache directory, initializing it on first use.
func (w *Workspace) cacheRoot() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return "", ErrClosed
	}
	if w.cacheDir != "" {
		return w.cacheDir, nil
	}

	dir := w.opts.CacheDir
	if dir == "" {
		d, err := w.scratch.Dir()
		if err != nil {
			return "", err
		}
		dir = d
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	w.cacheDir = dir
	return dir, nil
}
