package fileset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Producer populates dir with the files to cache. It runs synchronously and
// must write everything before returning.
type Producer func(dir string) error

// AddCached folds the output of produce into the fileset, memoized under key
// in the workspace's cache directory. If the cache entry already exists the
// producer is skipped and only the cached files are walked and hashed.
//
// The producer's output is staged in a fresh directory and promoted into
// place with a single rename, so a concurrent observer never sees a
// partially written entry. If the producer fails, the staging directory is
// discarded and the key stays absent so a later call retries.
//
// Callers sharing one cache directory observe each other's entries; with
// cache locking enabled (the default) a key's producer runs at most once
// across concurrent callers and processes. Without locking the guarantee
// holds only for non-overlapping invocation windows.
func (fs *FileSet) AddCached(key string, produce Producer, opts ...AddOption) (*FileSet, error) {
	if !validCacheKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrBadCacheKey, key)
	}

	root, err := fs.ws.cacheRoot()
	if err != nil {
		return nil, err
	}
	entryDir := filepath.Join(root, key)

	// singleflight collapses concurrent in-process calls; the flock inside
	// covers other processes sharing the cache directory.
	_, err, _ = fs.ws.group.Do(key, func() (any, error) {
		return nil, fs.ensureCacheEntry(root, key, entryDir, produce)
	})
	if err != nil {
		return nil, err
	}

	return fs.Add(entryDir, opts...)
}

// ensureCacheEntry makes cacheDir/key exist and fully populated.
func (fs *FileSet) ensureCacheEntry(root, key, entryDir string, produce Producer) error {
	if fs.ws.opts.CacheLocking {
		lockDir := filepath.Join(root, ".locks")
		if err := os.MkdirAll(lockDir, 0o755); err != nil {
			return fmt.Errorf("create lock dir: %w", err)
		}
		fl := flock.New(filepath.Join(lockDir, key+".lock"))
		if err := fl.Lock(); err != nil {
			return fmt.Errorf("lock cache key %s: %w", key, err)
		}
		defer fl.Unlock() //nolint:errcheck
	}

	if _, err := os.Stat(entryDir); err == nil {
		return nil // already computed
	}

	stagingRoot := filepath.Join(root, ".staging")
	if err := os.MkdirAll(stagingRoot, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	staging := filepath.Join(stagingRoot, uuid.NewString())
	if err := os.Mkdir(staging, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}

	if err := produce(staging); err != nil {
		os.RemoveAll(staging)
		return fmt.Errorf("produce cache entry %s: %w", key, err)
	}

	if err := os.Rename(staging, entryDir); err != nil {
		// A racing producer may have promoted first; its output is as
		// good as ours.
		if _, serr := os.Stat(entryDir); serr == nil {
			os.RemoveAll(staging)
			return nil
		}
		os.RemoveAll(staging)
		return fmt.Errorf("promote cache entry %s: %w", key, err)
	}
	return nil
}

// validCacheKey admits keys usable as a single directory name.
func validCacheKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	if strings.HasPrefix(key, ".") {
		return false // reserved for .locks and .staging
	}
	return !strings.ContainsAny(key, "/\\")
}
