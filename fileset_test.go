package fileset

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestWorkspace(t *testing.T, opts ...Option) *Workspace {
	t.Helper()
	ws, err := New(append([]Option{WithScratchDir(t.TempDir())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func readFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

// assetsDir builds the standard fixture: file1.md, file2.md, dir1/file3.md.
func assetsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "file1.md", "one")
	writeFile(t, dir, "file2.md", "two")
	writeFile(t, dir, "dir1/file3.md", "three")
	return dir
}

func TestAddCommitRoundTrip(t *testing.T) {
	ws := newTestWorkspace(t)
	src := assetsDir(t)

	fs, err := ws.Fileset().Add(src)
	require.NoError(t, err)
	require.Equal(t, []string{"dir1/file3.md", "file1.md", "file2.md"}, fs.Ls())

	dest := t.TempDir()
	got, err := fs.Commit(dest)
	require.NoError(t, err)
	require.Equal(t, dest, got)

	require.Equal(t, "one", readFile(t, dest, "file1.md"))
	require.Equal(t, "two", readFile(t, dest, "file2.md"))
	require.Equal(t, "three", readFile(t, dest, "dir1/file3.md"))
}

func TestOverwriteAndExtendScenario(t *testing.T) {
	ws := newTestWorkspace(t)
	src := assetsDir(t)

	fs, err := ws.Fileset().Add(src)
	require.NoError(t, err)

	dirA := t.TempDir()
	_, err = fs.Commit(dirA)
	require.NoError(t, err)

	// Copy A into a working dir (committed files are shared storage and
	// must not be edited in place), then diverge.
	working := t.TempDir()
	for _, rel := range []string{"file1.md", "file2.md", "dir1/file3.md"} {
		writeFile(t, working, rel, readFile(t, dirA, rel))
	}
	writeFile(t, working, "file1.md", "NEW CONTENT")
	writeFile(t, working, "dir1/file4.md", "four")

	fs2, err := fs.Add(working)
	require.NoError(t, err)

	dirB := t.TempDir()
	_, err = fs2.Commit(dirB)
	require.NoError(t, err)

	require.Equal(t, "NEW CONTENT", readFile(t, dirB, "file1.md"))
	require.Equal(t, "two", readFile(t, dirB, "file2.md"))
	require.Equal(t, "three", readFile(t, dirB, "dir1/file3.md"))
	require.Equal(t, "four", readFile(t, dirB, "dir1/file4.md"))
}

func TestRemoveScenario(t *testing.T) {
	ws := newTestWorkspace(t)

	fs, err := ws.Fileset().Add(assetsDir(t))
	require.NoError(t, err)

	fs2 := fs.Remove("dir1/file3.md")
	require.Equal(t, []string{"file1.md", "file2.md"}, fs2.Ls())
	// Receiver untouched.
	require.Equal(t, 3, fs.Len())

	dest := t.TempDir()
	_, err = fs2.Commit(dest)
	require.NoError(t, err)
	require.Equal(t, "one", readFile(t, dest, "file1.md"))
	require.Equal(t, "two", readFile(t, dest, "file2.md"))
	require.NoDirExists(t, filepath.Join(dest, "dir1"))
}

func TestContentDedup(t *testing.T) {
	blobDir := t.TempDir()
	ws := newTestWorkspace(t, WithBlobDir(blobDir))

	src := t.TempDir()
	writeFile(t, src, "a.txt", "same bytes")
	writeFile(t, src, "b/copy.txt", "same bytes")

	fs, err := ws.Fileset().Add(src)
	require.NoError(t, err)

	ha, err := fs.Hash("a.txt")
	require.NoError(t, err)
	hb, err := fs.Hash("b/copy.txt")
	require.NoError(t, err)
	require.Equal(t, ha, hb)

	// A single physical blob backs both entries.
	var blobs int
	err = filepath.Walk(blobDir, func(p string, info os.FileInfo, err error) error {
		if err == nil && info.Mode().IsRegular() {
			blobs++
		}
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, blobs)

	// Committed files share the blob's inode.
	dest := t.TempDir()
	_, err = fs.Commit(dest)
	require.NoError(t, err)
	ia, err := os.Stat(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	ib, err := os.Stat(filepath.Join(dest, "b", "copy.txt"))
	require.NoError(t, err)
	require.True(t, os.SameFile(ia, ib))
}

func TestLookups(t *testing.T) {
	ws := newTestWorkspace(t)
	src := t.TempDir()
	p := writeFile(t, src, "doc.txt", "payload")
	info, err := os.Stat(p)
	require.NoError(t, err)

	fs, err := ws.Fileset().Add(src)
	require.NoError(t, err)

	hash, err := fs.Hash("doc.txt")
	require.NoError(t, err)
	require.Len(t, hash, 64)

	ts, err := fs.Timestamp("doc.txt")
	require.NoError(t, err)
	require.Equal(t, info.ModTime().UnixMilli(), ts)

	rc, err := fs.Content("doc.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "payload", string(data))

	_, err = fs.Hash("missing.txt")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = fs.Timestamp("missing.txt")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = fs.Content("missing.txt")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFilterAndEmpty(t *testing.T) {
	ws := newTestWorkspace(t)
	src := t.TempDir()
	writeFile(t, src, "keep.md", "k")
	writeFile(t, src, "drop.txt", "d")

	fs, err := ws.Fileset().Add(src, WithMeta(map[string]string{"stage": "compile"}))
	require.NoError(t, err)

	md := fs.Filter(func(e *Entry) bool { return filepath.Ext(e.Path) == ".md" })
	require.Equal(t, []string{"keep.md"}, md.Ls())

	byMeta := fs.FilterByMeta(func(meta map[string]string) bool {
		return meta["stage"] == "compile"
	})
	require.Equal(t, 2, byMeta.Len())

	empty := fs.Empty()
	require.Zero(t, empty.Len())
	// Empty keeps the handles: adding to it still works.
	again, err := empty.Add(src)
	require.NoError(t, err)
	require.Equal(t, 2, again.Len())
}

func TestCommitMirrorsExactly(t *testing.T) {
	ws := newTestWorkspace(t)
	fs, err := ws.Fileset().Add(assetsDir(t))
	require.NoError(t, err)

	dest := t.TempDir()
	_, err = fs.Commit(dest)
	require.NoError(t, err)

	// Plant strays and corrupt one committed file.
	writeFile(t, dest, "stray.txt", "stray")
	writeFile(t, dest, "junk/deep/stray.txt", "stray")
	require.NoError(t, os.Remove(filepath.Join(dest, "file1.md")))
	writeFile(t, dest, "file1.md", "tampered")

	_, err = fs.Commit(dest)
	require.NoError(t, err)

	require.NoFileExists(t, filepath.Join(dest, "stray.txt"))
	require.NoDirExists(t, filepath.Join(dest, "junk"))
	require.Equal(t, "one", readFile(t, dest, "file1.md"))
	require.Equal(t, "three", readFile(t, dest, "dir1/file3.md"))
}

func TestAddMissingSourceDir(t *testing.T) {
	ws := newTestWorkspace(t)
	_, err := ws.Fileset().Add(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWorkspaceClosed(t *testing.T) {
	ws := newTestWorkspace(t)
	fs := ws.Fileset()
	require.NoError(t, ws.Close())

	_, err := fs.Add(t.TempDir())
	require.ErrorIs(t, err, ErrClosed)
}
