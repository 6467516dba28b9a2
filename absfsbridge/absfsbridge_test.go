package absfsbridge

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"testing"

	"github.com/absfs/absfs"
	absmemfs "github.com/absfs/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absfs/unifs"
	"github.com/absfs/unifs/memfs"
	"github.com/absfs/unifs/unifstest"
)

func newView(t *testing.T) (*memfs.FS, absfs.FileSystem) {
	t.Helper()
	m := memfs.New()
	return m, FileSystem(m)
}

func readAll(t *testing.T, afs absfs.FileSystem, name string) string {
	t.Helper()
	f, err := afs.Open(name)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return string(data)
}

// TestRoundTrip serves a unifs backend through absfs and back again, so every
// file and directory operation crosses the bridge in both directions.
func TestRoundTrip(t *testing.T) {
	unifstest.Run(t, func(t *testing.T) unifs.FS {
		return FromFileSystem(FileSystem(memfs.New()))
	})
}

func TestFromAbsfsMemfs(t *testing.T) {
	mfs, err := absmemfs.NewFS()
	require.NoError(t, err)
	f := FromFileSystem(mfs)
	assert.Same(t, mfs, f.Absfs())

	require.NoError(t, unifs.MkdirAll(f, "/etc/app"))
	require.NoError(t, unifs.WriteString(f, "/etc/app/config", "debug: true"))

	s, err := unifs.ReadString(f, "/etc/app/config")
	require.NoError(t, err)
	assert.Equal(t, "debug: true", s)

	md, err := f.Stat("/etc/app/config")
	require.NoError(t, err)
	assert.True(t, md.IsFile())
	assert.EqualValues(t, len("debug: true"), md.Size)

	assert.Equal(t, []string{"config"}, unifstest.Names(t, f, "/etc/app"))

	_, err = f.ReadFile("/etc/missing")
	unifstest.RequireKind(t, err, unifs.NotFound)
	_, err = f.ReadFile("/etc")
	unifstest.RequireKind(t, err, unifs.IsADirectory)
	unifstest.RequireKind(t, f.Remove("/etc", unifs.RemoveOptions{}), unifs.DirectoryNotEmpty)

	require.NoError(t, f.Remove("/etc/app/config", unifs.RemoveOptions{}))
	empty, err := unifs.IsEmptyDir(f, "/etc/app")
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestCreateWriteClose(t *testing.T) {
	m, afs := newView(t)

	f, err := afs.Create("/notes.txt")
	require.NoError(t, err)
	_, err = f.WriteString("hello ")
	require.NoError(t, err)
	_, err = f.Write([]byte("world"))
	require.NoError(t, err)

	info, err := f.Stat()
	require.NoError(t, err)
	assert.EqualValues(t, 11, info.Size())

	require.NoError(t, f.Close())
	assert.Error(t, f.Close())

	s, err := unifs.ReadString(m, "/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", s)
}

func TestSyncFlushes(t *testing.T) {
	m, afs := newView(t)

	f, err := afs.OpenFile("/log", os.O_WRONLY|os.O_CREATE, 0o644)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString("entry")
	require.NoError(t, err)

	s, err := unifs.ReadString(m, "/log")
	require.NoError(t, err)
	assert.Empty(t, s)

	require.NoError(t, f.Sync())
	s, err = unifs.ReadString(m, "/log")
	require.NoError(t, err)
	assert.Equal(t, "entry", s)
}

func TestAppend(t *testing.T) {
	m, afs := newView(t)
	require.NoError(t, unifs.WriteString(m, "/log", "a\n"))

	f, err := afs.OpenFile("/log", os.O_WRONLY|os.O_APPEND, 0)
	require.NoError(t, err)
	_, err = f.WriteString("b\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, "a\nb\n", readAll(t, afs, "/log"))
}

func TestReadOnlyHandle(t *testing.T) {
	m, afs := newView(t)
	require.NoError(t, unifs.WriteString(m, "/f", "data"))

	f, err := afs.Open("/f")
	require.NoError(t, err)
	defer f.Close()
	_, err = f.Write([]byte("x"))
	assert.True(t, os.IsPermission(err))

	buf := make([]byte, 2)
	n, err := f.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, "ta", string(buf[:n]))
}

func TestOpenErrors(t *testing.T) {
	m, afs := newView(t)
	require.NoError(t, unifs.WriteString(m, "/f", "x"))
	require.NoError(t, unifs.MkdirAll(m, "/d"))

	_, err := afs.Open("/missing")
	assert.True(t, os.IsNotExist(err))

	_, err = afs.OpenFile("/f", os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	assert.True(t, os.IsExist(err))

	_, err = afs.OpenFile("/d", os.O_WRONLY, 0)
	var pe *os.PathError
	require.ErrorAs(t, err, &pe)
	unifstest.RequireKind(t, err, unifs.IsADirectory)

	_, err = afs.Stat("/missing")
	assert.True(t, os.IsNotExist(err))
}

func TestTruncateOnOpen(t *testing.T) {
	m, afs := newView(t)
	require.NoError(t, unifs.WriteString(m, "/f", "old content"))

	f, err := afs.OpenFile("/f", os.O_WRONLY|os.O_TRUNC, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s, err := unifs.ReadString(m, "/f")
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestFileTruncate(t *testing.T) {
	m, afs := newView(t)
	require.NoError(t, unifs.WriteString(m, "/f", "abcdef"))

	f, err := afs.OpenFile("/f", os.O_RDWR, 0)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(3))
	require.NoError(t, f.Close())
	assert.Equal(t, "abc", readAll(t, afs, "/f"))
}

func TestDirectories(t *testing.T) {
	m, afs := newView(t)

	require.NoError(t, afs.MkdirAll("/a/b/c", 0o755))
	require.NoError(t, afs.Mkdir("/a/x", 0o755))
	assert.True(t, os.IsExist(afs.Mkdir("/a/x", 0o755)))
	require.NoError(t, unifs.WriteString(m, "/a/file", "f"))

	d, err := afs.Open("/a")
	require.NoError(t, err)
	names, err := d.Readdirnames(-1)
	require.NoError(t, err)
	require.NoError(t, d.Close())
	assert.ElementsMatch(t, []string{"b", "file", "x"}, names)

	info, err := afs.Stat("/a")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "a", info.Name())

	assert.Error(t, afs.Remove("/a"))
	require.NoError(t, afs.RemoveAll("/a"))
	require.NoError(t, afs.RemoveAll("/a"))
	ok, err := unifs.Exists(m, "/a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirHandle(t *testing.T) {
	m, afs := newView(t)
	unifstest.Populate(t, m, map[string]string{"/d/1": "", "/d/2": "", "/d/3": ""})

	d, err := afs.Open("/d")
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Read(make([]byte, 1))
	assert.Error(t, err)

	first, err := d.Readdir(2)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	rest, err := d.Readdir(2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	_, err = d.Readdir(2)
	assert.ErrorIs(t, err, io.EOF)
}

func TestRenameReplaces(t *testing.T) {
	m, afs := newView(t)
	require.NoError(t, unifs.WriteString(m, "/a", "new"))
	require.NoError(t, unifs.WriteString(m, "/b", "old"))

	require.NoError(t, afs.Rename("/a", "/b"))
	assert.Equal(t, map[string]string{"/b": "new"}, unifstest.Tree(t, m, "/"))

	err := afs.Rename("/missing", "/c")
	var le *os.LinkError
	require.ErrorAs(t, err, &le)
	assert.True(t, os.IsNotExist(err))
}

func TestWorkingDirectory(t *testing.T) {
	m, afs := newView(t)
	require.NoError(t, unifs.MkdirAll(m, "/app/conf"))
	require.NoError(t, unifs.WriteString(m, "/app/conf/app.yml", "port: 80"))

	cwd, err := afs.Getwd()
	require.NoError(t, err)
	assert.Equal(t, "/", cwd)

	require.NoError(t, afs.Chdir("/app"))
	cwd, err = afs.Getwd()
	require.NoError(t, err)
	assert.Equal(t, "/app", cwd)

	assert.Equal(t, "port: 80", readAll(t, afs, "conf/app.yml"))

	f, err := afs.Create("conf/new.yml")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	ok, err := unifs.Exists(m, "/app/conf/new.yml")
	require.NoError(t, err)
	assert.True(t, ok)

	// Each view keeps its own working directory.
	other := FileSystem(m)
	cwd, err = other.Getwd()
	require.NoError(t, err)
	assert.Equal(t, "/", cwd)
}

func TestSub(t *testing.T) {
	m, afs := newView(t)
	unifstest.Populate(t, m, map[string]string{
		"/srv/app/main.go":     "package main",
		"/srv/app/pkg/util.go": "package pkg",
		"/srv/other":           "o",
	})

	subber, ok := afs.(interface{ Sub(string) (fs.FS, error) })
	require.True(t, ok, "got %T", afs)
	sub, err := subber.Sub("/srv/app")
	require.NoError(t, err)

	data, err := fs.ReadFile(sub, "main.go")
	require.NoError(t, err)
	assert.Equal(t, "package main", string(data))

	var walked []string
	require.NoError(t, fs.WalkDir(sub, ".", func(p string, _ fs.DirEntry, err error) error {
		walked = append(walked, p)
		return err
	}))
	assert.Equal(t, []string{".", "main.go", "pkg", "pkg/util.go"}, walked)

	f, err := sub.Open("pkg/util.go")
	require.NoError(t, err)
	data, err = io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "package pkg", string(data))

	inner, err := fs.Sub(sub, "pkg")
	require.NoError(t, err)
	data, err = fs.ReadFile(inner, "util.go")
	require.NoError(t, err)
	assert.Equal(t, "package pkg", string(data))

	_, err = fs.ReadFile(sub, "../other")
	assert.ErrorIs(t, err, fs.ErrInvalid)
	_, err = sub.Open("/srv/other")
	assert.ErrorIs(t, err, fs.ErrInvalid)
	_, err = fs.ReadFile(sub, "missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = fs.Stat(sub, "missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	// Sub resolves against the working directory and needs a directory.
	require.NoError(t, afs.Chdir("/srv"))
	sub, err = subber.Sub("app")
	require.NoError(t, err)
	info, err := fs.Stat(sub, "main.go")
	require.NoError(t, err)
	assert.Equal(t, "main.go", info.Name())

	_, err = subber.Sub("other")
	unifstest.RequireKind(t, err, unifs.NotADirectory)
	_, err = subber.Sub("/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMetadataOperationsUnsupported(t *testing.T) {
	m, afs := newView(t)
	require.NoError(t, unifs.WriteString(m, "/f", "x"))

	assert.True(t, errors.Is(afs.Chmod("/f", 0o600), errors.ErrUnsupported))
	assert.True(t, errors.Is(afs.Chown("/f", 0, 0), errors.ErrUnsupported))
}

func TestErrorKindsSurvive(t *testing.T) {
	m := memfs.New()
	require.NoError(t, unifs.WriteString(m, "/f", "x"))
	f := FromFileSystem(FileSystem(m))

	_, err := f.ReadFile("/f/child")
	unifstest.RequireKind(t, err, unifs.NotADirectory)
	unifstest.RequireKind(t, f.Mkdir("/f", unifs.MkdirOptions{}), unifs.AlreadyExists)
	_, err = f.ReadFile("/nope")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
