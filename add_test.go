package fileset

import (
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddIncludeExclude(t *testing.T) {
	ws := newTestWorkspace(t)
	src := t.TempDir()
	writeFile(t, src, "a.md", "a")
	writeFile(t, src, "b.txt", "b")
	writeFile(t, src, "docs/c.md", "c")
	writeFile(t, src, "docs/d.log", "d")

	t.Run("include", func(t *testing.T) {
		fs, err := ws.Fileset().Add(src, WithInclude(MustGlob("*.md"), MustGlob("docs/*.md")))
		require.NoError(t, err)
		require.Equal(t, []string{"a.md", "docs/c.md"}, fs.Ls())
	})

	t.Run("exclude", func(t *testing.T) {
		fs, err := ws.Fileset().Add(src, WithExclude(MustGlob("**.log")))
		require.NoError(t, err)
		require.Equal(t, []string{"a.md", "b.txt", "docs/c.md"}, fs.Ls())
	})

	t.Run("exclude wins over include", func(t *testing.T) {
		fs, err := ws.Fileset().Add(src,
			WithInclude(MustGlob("**.md")),
			WithExclude(MustGlob("docs/**")),
		)
		require.NoError(t, err)
		require.Equal(t, []string{"a.md"}, fs.Ls())
	})

	t.Run("regex matcher", func(t *testing.T) {
		fs, err := ws.Fileset().Add(src, WithInclude(Regex(regexp.MustCompile(`\.md$`))))
		require.NoError(t, err)
		require.Equal(t, []string{"a.md", "docs/c.md"}, fs.Ls())
	})
}

func TestAddMergerConcat(t *testing.T) {
	ws := newTestWorkspace(t)

	first := t.TempDir()
	writeFile(t, first, "services.txt", "one\n")
	second := t.TempDir()
	writeFile(t, second, "services.txt", "two\n")

	fs, err := ws.Fileset().Add(first, WithMeta(map[string]string{"origin": "first", "keep": "yes"}))
	require.NoError(t, err)

	before := time.Now().UnixMilli()
	fs2, err := fs.Add(second,
		WithMerger(MustGlob("services.txt"), Concat),
		WithMeta(map[string]string{"origin": "second"}),
	)
	require.NoError(t, err)

	rc, err := fs2.Content("services.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "one\ntwo\n", string(data))

	e, ok := fs2.Lookup("services.txt")
	require.True(t, ok)
	// Merged entries carry the merge-time clock and the new meta laid over
	// the previous entry's meta.
	require.GreaterOrEqual(t, e.ModTime, before)
	require.Equal(t, map[string]string{"origin": "second", "keep": "yes"}, e.Meta)
}

func TestAddMergerFirstMatchWins(t *testing.T) {
	ws := newTestWorkspace(t)

	first := t.TempDir()
	writeFile(t, first, "registry.txt", "old")
	second := t.TempDir()
	writeFile(t, second, "registry.txt", "new")

	fs, err := ws.Fileset().Add(first)
	require.NoError(t, err)

	fs2, err := fs.Add(second,
		WithMerger(MustGlob("**.txt"), KeepExisting),
		WithMerger(MustGlob("registry.txt"), Concat),
	)
	require.NoError(t, err)

	rc, err := fs2.Content("registry.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "old", string(data))
}

func TestAddNoMergerOverwrites(t *testing.T) {
	ws := newTestWorkspace(t)

	first := t.TempDir()
	writeFile(t, first, "conf.ini", "old")
	second := t.TempDir()
	writeFile(t, second, "conf.ini", "new")

	fs, err := ws.Fileset().Add(first)
	require.NoError(t, err)
	fs2, err := fs.Add(second)
	require.NoError(t, err)

	rc, err := fs2.Content("conf.ini")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "new", string(data))

	// The receiver still sees the old content.
	oldHash, err := fs.Hash("conf.ini")
	require.NoError(t, err)
	newHash, err := fs2.Hash("conf.ini")
	require.NoError(t, err)
	require.NotEqual(t, oldHash, newHash)
}

func TestAddMergerError(t *testing.T) {
	ws := newTestWorkspace(t)

	first := t.TempDir()
	writeFile(t, first, "f.txt", "a")
	second := t.TempDir()
	writeFile(t, second, "f.txt", "b")

	fs, err := ws.Fileset().Add(first)
	require.NoError(t, err)

	boom := func(_, _ io.Reader, _ io.Writer) error { return io.ErrUnexpectedEOF }
	_, err = fs.Add(second, WithMerger(MustGlob("f.txt"), boom))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// No partial update leaked into the receiver.
	h, err := fs.Hash("f.txt")
	require.NoError(t, err)
	require.NotEmpty(t, h)
	require.Equal(t, 1, fs.Len())
}

func TestAddMeta(t *testing.T) {
	ws := newTestWorkspace(t)
	src := t.TempDir()
	writeFile(t, src, "x.bin", "x")

	fs, err := ws.Fileset().Add(src, WithMeta(map[string]string{"role": "asset"}))
	require.NoError(t, err)

	e, ok := fs.Lookup("x.bin")
	require.True(t, ok)
	require.Equal(t, "asset", e.Meta["role"])
}
