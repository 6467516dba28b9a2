package mountfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absfs/unifs"
	"github.com/absfs/unifs/memfs"
	"github.com/absfs/unifs/subfs"
	"github.com/absfs/unifs/unifstest"
)

func newMount(t *testing.T, point string) (base, mounted *memfs.FS, m *FS) {
	t.Helper()
	base, mounted = memfs.New(), memfs.New()
	require.NoError(t, unifs.MkdirAll(base, unifs.Dir(point)))
	m, err := New(base, mounted, point)
	require.NoError(t, err)
	return base, mounted, m
}

func TestConformance(t *testing.T) {
	t.Run("Mounted", func(t *testing.T) {
		unifstest.Run(t, func(t *testing.T) unifs.FS {
			_, _, m := newMount(t, "/mnt")
			sub, err := subfs.New(m, "/mnt")
			require.NoError(t, err)
			return sub
		})
	})
	t.Run("Base", func(t *testing.T) {
		unifstest.Run(t, func(t *testing.T) unifs.FS {
			_, _, m := newMount(t, "/mnt")
			sub, err := subfs.NewOrCreate(m, "/data")
			require.NoError(t, err)
			return sub
		})
	})
}

func TestRouting(t *testing.T) {
	base, mounted, m := newMount(t, "/stacked")

	require.NoError(t, unifs.MkdirAll(m, "/test/sub/dir"))
	require.NoError(t, unifs.WriteString(m, "/test/file.txt", "base side"))
	require.NoError(t, unifs.MkdirAll(m, "/stacked/test/sub/dir"))
	require.NoError(t, unifs.WriteString(m, "/stacked/test/file.txt", "Hello, World!"))

	assert.Equal(t, map[string]string{
		"/test":          "/",
		"/test/file.txt": "base side",
		"/test/sub":      "/",
		"/test/sub/dir":  "/",
	}, unifstest.Tree(t, base, "/"))
	assert.Equal(t, map[string]string{
		"/test":          "/",
		"/test/file.txt": "Hello, World!",
		"/test/sub":      "/",
		"/test/sub/dir":  "/",
	}, unifstest.Tree(t, mounted, "/"))

	s, err := unifs.ReadString(m, "stacked/test/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", s)

	require.NoError(t, m.Rename("/stacked/test", "/stacked/test2", unifs.RenameOptions{}))
	md, err := m.Stat("/stacked/test2/sub/dir")
	require.NoError(t, err)
	assert.True(t, md.IsDir())
	unifstest.RequireKind(t, m.Remove("/stacked/test2/sub", unifs.RemoveOptions{}), unifs.DirectoryNotEmpty)
	require.NoError(t, m.Remove("/stacked/test2", unifs.RemoveOptions{Recursive: true}))
	assert.Empty(t, unifstest.Names(t, mounted, "/"))
}

func TestMountPointListing(t *testing.T) {
	base, _, m := newMount(t, "/srv/mnt")
	unifstest.Populate(t, base, map[string]string{
		"/srv/mnt":   "hidden by the mount",
		"/srv/other": "o",
	})

	assert.Equal(t, []string{"srv"}, unifstest.Names(t, m, "/"))
	assert.Equal(t, []string{"mnt", "other"}, unifstest.Names(t, m, "/srv"))

	md, err := m.Stat("/srv/mnt")
	require.NoError(t, err)
	assert.True(t, md.IsDir())
	_, err = m.ReadFile("/srv/mnt")
	unifstest.RequireKind(t, err, unifs.IsADirectory)

	require.NoError(t, unifs.WriteString(m, "/srv/mnt/a", "a"))
	entries, err := m.ListDir("/srv")
	require.NoError(t, err)
	list, err := entries.Collect()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "mnt", list[0].Name)
	assert.True(t, list[0].Metadata.IsDir())

	s, err := unifs.ReadString(base, "/srv/mnt")
	require.NoError(t, err)
	assert.Equal(t, "hidden by the mount", s)
}

func TestMountPointIsPinned(t *testing.T) {
	base, _, m := newMount(t, "/srv/mnt")
	require.NoError(t, unifs.WriteString(base, "/srv/f", "f"))

	unifstest.RequireKind(t, m.Remove("/srv/mnt", unifs.RemoveOptions{Recursive: true}), unifs.Other)
	unifstest.RequireKind(t, m.Remove("/srv", unifs.RemoveOptions{Recursive: true}), unifs.Other)
	unifstest.RequireKind(t, m.Remove("/", unifs.RemoveOptions{Recursive: true}), unifs.Other)
	unifstest.RequireKind(t, m.Rename("/srv/mnt", "/moved", unifs.RenameOptions{}), unifs.Other)
	unifstest.RequireKind(t, m.Rename("/srv", "/moved", unifs.RenameOptions{}), unifs.Other)
	unifstest.RequireKind(t, m.Rename("/srv/f", "/srv/mnt", unifs.RenameOptions{Overwrite: true}), unifs.Other)
	unifstest.RequireKind(t, unifs.WriteString(m, "/srv/mnt", "x"), unifs.IsADirectory)
	unifstest.RequireKind(t, m.Mkdir("/srv/mnt", unifs.MkdirOptions{}), unifs.AlreadyExists)
	require.NoError(t, unifs.MkdirAll(m, "/srv/mnt"))

	ok, err := unifs.Exists(m, "/srv/f")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRenameAcrossMount(t *testing.T) {
	base, mounted, m := newMount(t, "/mnt")
	unifstest.Populate(t, m, map[string]string{
		"/in.txt":         "into the mount",
		"/mnt/out.txt":    "out of the mount",
		"/tree/a":         "a",
		"/tree/sub/b":     "b",
		"/mnt/taken":      "old",
		"/mnt/full/x":     "x",
		"/replacement":    "new",
		"/mnt/empty/":     "",
		"/dir/inner/deep": "d",
	})

	require.NoError(t, m.Rename("/in.txt", "/mnt/in.txt", unifs.RenameOptions{}))
	require.NoError(t, m.Rename("/mnt/out.txt", "/out.txt", unifs.RenameOptions{}))
	require.NoError(t, m.Rename("/tree", "/mnt/tree", unifs.RenameOptions{}))

	s, err := unifs.ReadString(mounted, "/in.txt")
	require.NoError(t, err)
	assert.Equal(t, "into the mount", s)
	s, err = unifs.ReadString(base, "/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "out of the mount", s)
	assert.Equal(t, map[string]string{
		"/tree/a":     "a",
		"/tree/sub":   "/",
		"/tree/sub/b": "b",
	}, unifstest.Tree(t, mounted, "/tree"))

	for _, name := range []string{"/in.txt", "/tree"} {
		ok, err := unifs.Exists(base, name)
		require.NoError(t, err)
		assert.False(t, ok, name)
	}
	ok, err := unifs.Exists(mounted, "/out.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	// Overwrite rules match a rename within one filesystem.
	unifstest.RequireKind(t, m.Rename("/replacement", "/mnt/taken", unifs.RenameOptions{}), unifs.AlreadyExists)
	unifstest.RequireKind(t, m.Rename("/dir", "/mnt/full", unifs.RenameOptions{Overwrite: true}), unifs.DirectoryNotEmpty)
	unifstest.RequireKind(t, m.Rename("/replacement", "/mnt/empty", unifs.RenameOptions{Overwrite: true}), unifs.IsADirectory)
	unifstest.RequireKind(t, m.Rename("/missing", "/mnt/x", unifs.RenameOptions{}), unifs.NotFound)

	require.NoError(t, m.Rename("/replacement", "/mnt/taken", unifs.RenameOptions{Overwrite: true}))
	s, err = unifs.ReadString(m, "/mnt/taken")
	require.NoError(t, err)
	assert.Equal(t, "new", s)

	require.NoError(t, m.Rename("/dir", "/mnt/empty", unifs.RenameOptions{Overwrite: true}))
	s, err = unifs.ReadString(m, "/mnt/empty/inner/deep")
	require.NoError(t, err)
	assert.Equal(t, "d", s)
}

func TestErrorsNameCallerPath(t *testing.T) {
	_, _, m := newMount(t, "/mnt")

	_, err := m.ReadFile("/mnt/missing")
	var pe *unifs.PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "/mnt/missing", pe.Path)
	assert.Equal(t, "read", pe.Op)
	assert.Equal(t, unifs.NotFound, pe.Kind)

	require.NoError(t, unifs.WriteString(m, "/mnt/a", "a"))
	require.NoError(t, unifs.WriteString(m, "/mnt/b", "b"))
	err = m.Rename("/mnt/a", "/mnt/b", unifs.RenameOptions{})
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "/mnt/b", pe.Path)
	assert.Equal(t, unifs.AlreadyExists, pe.Kind)

	// ".." cannot climb out of the mount into the base, or out of the root.
	require.NoError(t, unifs.WriteString(m, "/top", "t"))
	s, err := unifs.ReadString(m, "/mnt/../top")
	require.NoError(t, err)
	assert.Equal(t, "t", s)
	_, err = m.ReadFile("/../top")
	unifstest.RequireKind(t, err, unifs.NotFound)
}

func TestNewErrors(t *testing.T) {
	base := memfs.New()
	require.NoError(t, unifs.WriteString(base, "/file", "f"))

	_, err := New(base, memfs.New(), "/")
	unifstest.RequireKind(t, err, unifs.Other)
	_, err = New(base, memfs.New(), "/missing/mnt")
	unifstest.RequireKind(t, err, unifs.NotFound)
	_, err = New(base, memfs.New(), "/file/mnt")
	unifstest.RequireKind(t, err, unifs.NotADirectory)

	m, err := New(base, memfs.New(), "//mnt/")
	require.NoError(t, err)
	assert.Equal(t, "/mnt", m.Point())
	assert.Same(t, base, m.Base())
}
