package fileset

import (
	"maps"

	"github.com/stagekit/fileset/internal/store"
)

// Digest is a hex-encoded sha256 content identifier.
type Digest = store.Digest

// Entry is one file in a fileset's tree. Entries are immutable and shared
// freely between derived filesets; identity is carried by ContentID alone.
type Entry struct {
	// Path is the normalized forward-slash relative path, unique per tree.
	Path string

	// ContentID names the blob in the content store.
	ContentID Digest

	// Hash is the content digest exposed to callers. It is the same value
	// as ContentID; the two roles are kept distinct in the API so a future
	// storage key change cannot leak into reported hashes.
	Hash string

	// Size is the content size in bytes.
	Size int64

	// ModTime is the source file's last-modified time in unix milliseconds.
	// It is used only for merge tie-breaking, never for identity.
	ModTime int64

	// Meta holds caller-supplied key/value pairs. Not part of identity.
	Meta map[string]string
}

// clone returns a copy of e with its own Meta map.
func (e *Entry) clone() *Entry {
	c := *e
	c.Meta = maps.Clone(e.Meta)
	return &c
}

// withMeta returns e unless meta differs, in which case a clone carrying
// meta is returned. The receiver is never mutated.
func (e *Entry) withMeta(meta map[string]string) *Entry {
	if maps.Equal(e.Meta, meta) {
		return e
	}
	c := *e
	c.Meta = meta
	return &c
}
