// Package archive packs fileset contents into zstd-compressed tar streams.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Entry is one file to be written into an archive.
type Entry struct {
	Path    string // forward-slash relative path
	Size    int64
	ModTime time.Time
	Open    func() (io.ReadCloser, error)
}

// Pack writes entries as a zstd-compressed tar stream to w.
func Pack(w io.Writer, entries []Entry) error {
	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(zw)

	for _, e := range entries {
		hdr := &tar.Header{
			Name:    e.Path,
			Mode:    0o644,
			Size:    e.Size,
			ModTime: e.ModTime,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write header %s: %w", e.Path, err)
		}
		rc, err := e.Open()
		if err != nil {
			return err
		}
		_, err = io.Copy(tw, rc)
		if cerr := rc.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", e.Path, err)
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return zw.Close()
}

// Unpack extracts a zstd-compressed tar stream into destDir. Entry names are
// kept relative; anything escaping destDir is rejected.
func Unpack(r io.Reader, destDir string) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer zr.Close()
	tr := tar.NewReader(zr)

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := filepath.FromSlash(hdr.Name)
		if strings.Contains(hdr.Name, "..") || filepath.IsAbs(name) {
			return fmt.Errorf("unsafe archive path %q", hdr.Name)
		}
		dest := filepath.Join(destDir, name)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		_, err = io.Copy(f, tr)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("extract %s: %w", hdr.Name, err)
		}
		if !hdr.ModTime.IsZero() {
			_ = os.Chtimes(dest, hdr.ModTime, hdr.ModTime)
		}
	}
	return nil
}
