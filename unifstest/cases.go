package unifstest

import (
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absfs/unifs"
)

func testEmptyRoot(t *testing.T, fsys unifs.FS) {
	md, err := fsys.Stat("/")
	require.NoError(t, err)
	assert.True(t, md.IsDir())
	assert.Empty(t, Names(t, fsys, "/"))
}

func testWriteRead(t *testing.T, fsys unifs.FS) {
	require.NoError(t, fsys.WriteFile("/f", []byte("hello"), unifs.WriteOptions{}))
	data, err := fsys.ReadFile("/f")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, fsys.WriteFile("/empty", nil, unifs.WriteOptions{}))
	data, err = fsys.ReadFile("/empty")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func testWriteTruncates(t *testing.T, fsys unifs.FS) {
	require.NoError(t, unifs.WriteString(fsys, "/f", "hello world"))
	require.NoError(t, unifs.WriteString(fsys, "/f", "bye"))
	s, err := unifs.ReadString(fsys, "/f")
	require.NoError(t, err)
	assert.Equal(t, "bye", s)
}

func testAppend(t *testing.T, fsys unifs.FS) {
	appendOpts := unifs.WriteOptions{Mode: unifs.Append}
	require.NoError(t, unifs.WriteString(fsys, "/f", "a"))
	require.NoError(t, fsys.WriteFile("/f", []byte("b"), appendOpts))
	require.NoError(t, fsys.WriteFile("/f", []byte("c"), appendOpts))
	s, err := unifs.ReadString(fsys, "/f")
	require.NoError(t, err)
	assert.Equal(t, "abc", s)

	RequireKind(t, fsys.WriteFile("/missing", []byte("x"), appendOpts), unifs.NotFound)
	ok, err := unifs.Exists(fsys, "/missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testWriteErrors(t *testing.T, fsys unifs.FS) {
	Populate(t, fsys, map[string]string{"/f": "x", "/d/": ""})

	RequireKind(t, unifs.WriteString(fsys, "/nodir/f", "x"), unifs.NotFound)
	RequireKind(t, unifs.WriteString(fsys, "/f/g", "x"), unifs.NotADirectory)
	RequireKind(t, unifs.WriteString(fsys, "/d", "x"), unifs.IsADirectory)
	RequireKind(t, unifs.WriteString(fsys, "/", "x"), unifs.IsADirectory)
}

func testReadErrors(t *testing.T, fsys unifs.FS) {
	Populate(t, fsys, map[string]string{"/f": "x", "/d/": ""})

	_, err := fsys.ReadFile("/missing")
	RequireKind(t, err, unifs.NotFound)
	_, err = fsys.ReadFile("/d")
	RequireKind(t, err, unifs.IsADirectory)
	_, err = fsys.ReadFile("/f/g")
	RequireKind(t, err, unifs.NotADirectory)
}

func testMkdir(t *testing.T, fsys unifs.FS) {
	require.NoError(t, fsys.Mkdir("/d", unifs.MkdirOptions{}))
	md, err := fsys.Stat("/d")
	require.NoError(t, err)
	assert.True(t, md.IsDir())

	RequireKind(t, fsys.Mkdir("/d", unifs.MkdirOptions{}), unifs.AlreadyExists)
	RequireKind(t, fsys.Mkdir("/", unifs.MkdirOptions{}), unifs.AlreadyExists)
	RequireKind(t, fsys.Mkdir("/a/b", unifs.MkdirOptions{}), unifs.NotFound)

	require.NoError(t, unifs.WriteString(fsys, "/f", "x"))
	RequireKind(t, fsys.Mkdir("/f", unifs.MkdirOptions{}), unifs.AlreadyExists)
	RequireKind(t, fsys.Mkdir("/f/g", unifs.MkdirOptions{}), unifs.NotADirectory)
}

func testMkdirRecursive(t *testing.T, fsys unifs.FS) {
	require.NoError(t, unifs.MkdirAll(fsys, "/a/b/c"))
	for _, p := range []string{"/a", "/a/b", "/a/b/c"} {
		md, err := fsys.Stat(p)
		require.NoError(t, err, p)
		assert.True(t, md.IsDir(), p)
	}
	require.NoError(t, unifs.MkdirAll(fsys, "/a/b/c"))
	require.NoError(t, unifs.MkdirAll(fsys, "/"))

	require.NoError(t, unifs.WriteString(fsys, "/a/f", "x"))
	RequireKind(t, unifs.MkdirAll(fsys, "/a/f"), unifs.AlreadyExists)
	RequireKind(t, unifs.MkdirAll(fsys, "/a/f/g"), unifs.NotADirectory)
}

func testRemove(t *testing.T, fsys unifs.FS) {
	Populate(t, fsys, map[string]string{"/f": "x", "/d/": ""})

	require.NoError(t, fsys.Remove("/f", unifs.RemoveOptions{}))
	_, err := fsys.Stat("/f")
	RequireKind(t, err, unifs.NotFound)

	require.NoError(t, fsys.Remove("/d", unifs.RemoveOptions{}))
	_, err = fsys.Stat("/d")
	RequireKind(t, err, unifs.NotFound)
	assert.Empty(t, Names(t, fsys, "/"))
}

func testRemoveRecursive(t *testing.T, fsys unifs.FS) {
	Populate(t, fsys, map[string]string{
		"/d/a":     "1",
		"/d/e/b":   "2",
		"/d/e/f/":  "",
		"/keep":    "3",
		"/dd/same": "4",
	})

	RequireKind(t, fsys.Remove("/d", unifs.RemoveOptions{}), unifs.DirectoryNotEmpty)
	require.NoError(t, fsys.Remove("/d", unifs.RemoveOptions{Recursive: true}))
	assert.Equal(t, map[string]string{"/keep": "3", "/dd": "/", "/dd/same": "4"}, Tree(t, fsys, "/"))

	require.NoError(t, unifs.RemoveAll(fsys, "/missing"))
	require.NoError(t, fsys.Remove("/keep", unifs.RemoveOptions{Recursive: true}))
}

func testRemoveErrors(t *testing.T, fsys unifs.FS) {
	require.NoError(t, unifs.WriteString(fsys, "/f", "x"))

	RequireKind(t, fsys.Remove("/missing", unifs.RemoveOptions{}), unifs.NotFound)
	RequireKind(t, fsys.Remove("/f/g", unifs.RemoveOptions{}), unifs.NotADirectory)
	RequireKind(t, fsys.Remove("/", unifs.RemoveOptions{Recursive: true}), unifs.Other)

	ok, err := unifs.Exists(fsys, "/f")
	require.NoError(t, err)
	assert.True(t, ok)
}

func testListDir(t *testing.T, fsys unifs.FS) {
	Populate(t, fsys, map[string]string{
		"/d/c":    "ccc",
		"/d/a":    "a",
		"/d/b/":   "",
		"/d/b/in": "hidden from the listing of /d",
	})

	entries, err := fsys.ListDir("/d")
	require.NoError(t, err)
	list, err := entries.Collect()
	require.NoError(t, err)
	unifs.SortEntries(list)

	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].Name)
	assert.True(t, list[0].Metadata.IsFile())
	assert.Equal(t, int64(1), list[0].Metadata.Size)
	assert.Equal(t, "b", list[1].Name)
	assert.True(t, list[1].Metadata.IsDir())
	assert.Equal(t, "c", list[2].Name)
	assert.Equal(t, int64(3), list[2].Metadata.Size)

	_, err = entries.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func testListDirErrors(t *testing.T, fsys unifs.FS) {
	require.NoError(t, unifs.WriteString(fsys, "/f", "x"))

	_, err := fsys.ListDir("/missing")
	RequireKind(t, err, unifs.NotFound)
	_, err = fsys.ListDir("/f")
	RequireKind(t, err, unifs.NotADirectory)
}

func testListDirClose(t *testing.T, fsys unifs.FS) {
	Populate(t, fsys, map[string]string{"/a": "1", "/b": "2", "/c": "3"})

	entries, err := fsys.ListDir("/")
	require.NoError(t, err)
	_, err = entries.Next()
	require.NoError(t, err)
	require.NoError(t, entries.Close())
	require.NoError(t, entries.Close())
	_, err = entries.Next()
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, []string{"a", "b", "c"}, Names(t, fsys, "/"))
}

func testStat(t *testing.T, fsys unifs.FS) {
	Populate(t, fsys, map[string]string{"/d/f": "12345"})

	md, err := fsys.Stat("/d/f")
	require.NoError(t, err)
	assert.Equal(t, unifs.TypeFile, md.Type)
	assert.Equal(t, int64(5), md.Size)

	md, err = fsys.Stat("/d")
	require.NoError(t, err)
	assert.Equal(t, unifs.TypeDir, md.Type)

	_, err = fsys.Stat("/d/missing")
	RequireKind(t, err, unifs.NotFound)
	_, err = fsys.Stat("/d/f/g")
	RequireKind(t, err, unifs.NotADirectory)
}

func testRenameFile(t *testing.T, fsys unifs.FS) {
	Populate(t, fsys, map[string]string{"/a": "content", "/d/": ""})

	require.NoError(t, fsys.Rename("/a", "/d/b", unifs.RenameOptions{}))
	assert.Equal(t, map[string]string{"/d": "/", "/d/b": "content"}, Tree(t, fsys, "/"))

	require.NoError(t, fsys.Rename("/d/b", "/d/b", unifs.RenameOptions{}))
	assert.Equal(t, map[string]string{"/d": "/", "/d/b": "content"}, Tree(t, fsys, "/"))
}

func testRenameDirectory(t *testing.T, fsys unifs.FS) {
	Populate(t, fsys, map[string]string{"/src/a": "1", "/src/sub/b": "2"})

	require.NoError(t, fsys.Rename("/src", "/dst", unifs.RenameOptions{}))
	assert.Equal(t, map[string]string{
		"/dst":       "/",
		"/dst/a":     "1",
		"/dst/sub":   "/",
		"/dst/sub/b": "2",
	}, Tree(t, fsys, "/"))
}

func testRenameKeepsSiblings(t *testing.T, fsys unifs.FS) {
	Populate(t, fsys, map[string]string{"/a": "a", "/ab": "ab", "/d/x": "x", "/dd/y": "y"})

	require.NoError(t, fsys.Rename("/a", "/c", unifs.RenameOptions{}))
	require.NoError(t, fsys.Rename("/d", "/e", unifs.RenameOptions{}))
	assert.Equal(t, map[string]string{
		"/ab":   "ab",
		"/c":    "a",
		"/dd":   "/",
		"/dd/y": "y",
		"/e":    "/",
		"/e/x":  "x",
	}, Tree(t, fsys, "/"))
}

func testRenameOverwrite(t *testing.T, fsys unifs.FS) {
	Populate(t, fsys, map[string]string{
		"/a":       "new",
		"/b":       "old",
		"/dir/x":   "x",
		"/empty/":  "",
		"/full/f":  "f",
		"/other/g": "g",
	})
	overwrite := unifs.RenameOptions{Overwrite: true}

	RequireKind(t, fsys.Rename("/a", "/b", unifs.RenameOptions{}), unifs.AlreadyExists)
	require.NoError(t, fsys.Rename("/a", "/b", overwrite))
	s, err := unifs.ReadString(fsys, "/b")
	require.NoError(t, err)
	assert.Equal(t, "new", s)

	RequireKind(t, fsys.Rename("/b", "/dir", overwrite), unifs.IsADirectory)
	RequireKind(t, fsys.Rename("/dir", "/b", overwrite), unifs.NotADirectory)
	RequireKind(t, fsys.Rename("/dir", "/full", overwrite), unifs.DirectoryNotEmpty)
	RequireKind(t, fsys.Rename("/dir", "/empty", unifs.RenameOptions{}), unifs.AlreadyExists)

	require.NoError(t, fsys.Rename("/dir", "/empty", overwrite))
	assert.Equal(t, map[string]string{
		"/b":       "new",
		"/empty":   "/",
		"/empty/x": "x",
		"/full":    "/",
		"/full/f":  "f",
		"/other":   "/",
		"/other/g": "g",
	}, Tree(t, fsys, "/"))
}

func testRenameErrors(t *testing.T, fsys unifs.FS) {
	Populate(t, fsys, map[string]string{"/d/f": "x", "/g": "y"})

	RequireKind(t, fsys.Rename("/missing", "/x", unifs.RenameOptions{}), unifs.NotFound)
	RequireKind(t, fsys.Rename("/g", "/nodir/x", unifs.RenameOptions{}), unifs.NotFound)
	RequireKind(t, fsys.Rename("/g", "/d/f/x", unifs.RenameOptions{}), unifs.NotADirectory)
	RequireKind(t, fsys.Rename("/d", "/d/sub", unifs.RenameOptions{}), unifs.Other)
	RequireKind(t, fsys.Rename("/", "/x", unifs.RenameOptions{}), unifs.Other)

	assert.Equal(t, map[string]string{"/d": "/", "/d/f": "x", "/g": "y"}, Tree(t, fsys, "/"))
}

func testPaths(t *testing.T, fsys unifs.FS) {
	require.NoError(t, unifs.MkdirAll(fsys, "a/b"))
	require.NoError(t, unifs.WriteString(fsys, "a//b/./f", "x"))

	for _, name := range []string{"/a/b/f", "a/b/f", "/a/../a/b/f", "//a/b/f/"} {
		s, err := unifs.ReadString(fsys, name)
		require.NoError(t, err, name)
		assert.Equal(t, "x", s, name)
	}
	for _, name := range []string{"", ".", "/", "/a/.."} {
		md, err := fsys.Stat(name)
		require.NoError(t, err, name)
		assert.True(t, md.IsDir(), name)
	}

	_, err := fsys.Stat("/..")
	RequireKind(t, err, unifs.NotFound)
	RequireKind(t, unifs.WriteString(fsys, "../escape", "x"), unifs.NotFound)
}

func testErrorValues(t *testing.T, fsys unifs.FS) {
	_, err := fsys.ReadFile("/missing")
	require.Error(t, err)

	var pe *unifs.PathError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, unifs.NotFound, pe.Kind)
	assert.Equal(t, "/missing", pe.Path)
	assert.ErrorIs(t, err, unifs.ErrNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.True(t, unifs.IsNotFound(err))
}
