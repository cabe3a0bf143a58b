package fileset

import "errors"

var (
	// ErrNotFound is returned by Hash, Timestamp and Content when the path
	// is not in the fileset's tree.
	ErrNotFound = errors.New("fileset: path not found")

	// ErrBadCacheKey is returned by AddCached for keys that cannot name a
	// cache subdirectory.
	ErrBadCacheKey = errors.New("fileset: invalid cache key")

	// ErrClosed is returned when a workspace is used after Close.
	ErrClosed = errors.New("fileset: workspace closed")
)
