// Package store implements the content-addressed blob store backing filesets.
//
// Blobs are named by the hex sha256 digest of their bytes and sharded
// git-style (ab/cdef...). A blob is written once and never modified, which is
// what makes hard-link materialization safe. Puts are idempotent: concurrent
// writers of the same digest produce identical bytes, so "stat, then promote
// if absent" needs no further coordination.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/natefinch/atomic"
)

// Digest is a hex-encoded sha256 content identifier.
type Digest string

// DefaultHashCacheSize bounds the (path, size, mtime) -> digest cache.
const DefaultHashCacheSize = 4096

// ErrNotFound is returned when a digest has no blob in the store.
var ErrNotFound = errors.New("store: blob not found")

// Store is a content-addressed blob store rooted at a single directory.
type Store struct {
	dir string

	// hashCache remembers digests of files already hashed, keyed by path
	// plus size and mtime so an edited file never reuses a stale digest.
	hashCache *lru.Cache[hashKey, Digest]
}

type hashKey struct {
	path  string
	size  int64
	mtime int64
}

// New creates or opens a blob store at dir.
func New(dir string, hashCacheSize int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	if hashCacheSize <= 0 {
		hashCacheSize = DefaultHashCacheSize
	}
	cache, err := lru.New[hashKey, Digest](hashCacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, hashCache: cache}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// Put hashes the file at path and ensures a blob with that digest exists in
// the store. The file's bytes are copied at most once; repeated puts of
// unchanged files are answered from the hash cache without rereading.
func (s *Store) Put(path string) (Digest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("put %s: %w", path, err)
	}
	key := hashKey{path: path, size: info.Size(), mtime: info.ModTime().UnixNano()}
	if digest, ok := s.hashCache.Get(key); ok && s.Has(digest) {
		return digest, nil
	}

	digest, err := s.ingest(path)
	if err != nil {
		return "", err
	}
	s.hashCache.Add(key, digest)
	return digest, nil
}

// ingest streams path through sha256 into a temp file, then promotes the
// temp file to its digest name unless an identical blob already exists.
func (s *Store) ingest(path string) (Digest, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("put %s: %w", path, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(s.dir, "ingest-*")
	if err != nil {
		return "", fmt.Errorf("stage blob: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	h := sha256.New()
	_, err = io.Copy(tmp, io.TeeReader(src, h))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("put %s: %w", path, err)
	}

	digest := Digest(hex.EncodeToString(h.Sum(nil)))
	blobPath := s.Path(digest)
	if _, err := os.Stat(blobPath); err == nil {
		return digest, nil // already stored
	}
	if err := os.MkdirAll(filepath.Dir(blobPath), 0o755); err != nil {
		return "", fmt.Errorf("create blob shard: %w", err)
	}
	if err := atomic.ReplaceFile(tmpName, blobPath); err != nil {
		return "", fmt.Errorf("promote blob %s: %w", digest, err)
	}
	return digest, nil
}

// Open returns a reader over the blob's bytes.
func (s *Store) Open(digest Digest) (io.ReadCloser, error) {
	f, err := os.Open(s.Path(digest))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, digest)
		}
		return nil, err
	}
	return f, nil
}

// Has reports whether a blob with the given digest exists.
func (s *Store) Has(digest Digest) bool {
	_, err := os.Stat(s.Path(digest))
	return err == nil
}

// Size returns the byte size of a stored blob.
func (s *Store) Size(digest Digest) (int64, error) {
	info, err := os.Stat(s.Path(digest))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, digest)
		}
		return 0, err
	}
	return info.Size(), nil
}

// Path returns the filesystem path for a digest.
// Git-style sharding: ab/cdef123...
func (s *Store) Path(digest Digest) string {
	h := string(digest)
	if len(h) < 4 {
		return filepath.Join(s.dir, h)
	}
	return filepath.Join(s.dir, h[:2], h[2:])
}

// SameBlob reports whether the file at path is a hard link to the stored
// blob, meaning they share the same inode.
func (s *Store) SameBlob(digest Digest, path string) bool {
	blobInfo, err := os.Stat(s.Path(digest))
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(blobInfo, info)
}

// LinkInto creates dest as a hard link to the blob. When linking fails for a
// reason other than dest already existing (typically a cross-device link),
// the blob's bytes are copied instead.
func (s *Store) LinkInto(digest Digest, dest string) error {
	blobPath := s.Path(digest)
	if _, err := os.Stat(blobPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, digest)
		}
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", dest, err)
	}
	err := os.Link(blobPath, dest)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("link %s: %w", dest, err)
	}

	// Cross-device or unsupported link: fall back to a byte copy.
	src, oerr := os.Open(blobPath)
	if oerr != nil {
		return fmt.Errorf("link %s: %w", dest, oerr)
	}
	defer src.Close()
	if werr := atomic.WriteFile(dest, src); werr != nil {
		return fmt.Errorf("copy blob to %s: %w", dest, werr)
	}
	return nil
}
