package fileset

import (
	"fmt"
	"io"
	"time"

	"github.com/stagekit/fileset/internal/archive"
)

// Pack writes the fileset's contents to w as a zstd-compressed tar stream,
// in sorted path order. The stream can be fed back through AddArchive, or
// unpacked by any tar + zstd tooling.
func (fs *FileSet) Pack(w io.Writer) error {
	st, err := fs.ws.store()
	if err != nil {
		return err
	}

	entries := make([]archive.Entry, 0, len(fs.tree))
	for _, p := range fs.Ls() {
		e := fs.tree[p]
		entries = append(entries, archive.Entry{
			Path:    p,
			Size:    e.Size,
			ModTime: time.UnixMilli(e.ModTime),
			Open: func() (io.ReadCloser, error) {
				return st.Open(e.ContentID)
			},
		})
	}
	if err := archive.Pack(w, entries); err != nil {
		return fmt.Errorf("pack fileset: %w", err)
	}
	return nil
}

// AddArchive unpacks a stream produced by Pack (or any zstd-compressed tar
// of regular files) into a scratch directory and adds its contents, honoring
// the usual add options.
func (fs *FileSet) AddArchive(r io.Reader, opts ...AddOption) (*FileSet, error) {
	dir, err := fs.ws.scratch.Dir()
	if err != nil {
		return nil, err
	}
	if err := archive.Unpack(r, dir); err != nil {
		return nil, fmt.Errorf("add archive: %w", err)
	}
	return fs.Add(dir, opts...)
}
