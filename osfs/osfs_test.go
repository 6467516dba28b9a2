package osfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absfs/unifs"
	"github.com/absfs/unifs/unifstest"
)

func newFS(t *testing.T, dir string) *FS {
	t.Helper()
	f, err := New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestConformance(t *testing.T) {
	unifstest.Run(t, func(t *testing.T) unifs.FS {
		return newFS(t, t.TempDir())
	})
}

func TestHostView(t *testing.T) {
	dir := t.TempDir()
	f := newFS(t, dir)

	require.NoError(t, unifs.MkdirAll(f, "/a/b"))
	require.NoError(t, unifs.WriteString(f, "/a/b/c.txt", "hello"))

	data, err := os.ReadFile(filepath.Join(dir, "a", "b", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "host.txt"), []byte("from host"), 0o644))
	s, err := unifs.ReadString(f, "/host.txt")
	require.NoError(t, err)
	assert.Equal(t, "from host", s)
}

func TestName(t *testing.T) {
	dir := t.TempDir()
	f := newFS(t, dir)
	assert.Equal(t, dir, f.Name())
}

func TestNewMissing(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	unifstest.RequireKind(t, err, unifs.NotFound)
}

func TestNewOrCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "x", "y")
	f, err := NewOrCreate(dir, 0o755)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// An existing directory is opened as is.
	require.NoError(t, unifs.WriteString(f, "/kept", "x"))
	g, err := NewOrCreate(dir, 0o755)
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	ok, err := unifs.Exists(g, "/kept")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDotDotStaysInside(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "root")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret"), []byte("s"), 0o644))
	f := newFS(t, dir)

	_, err := f.ReadFile("/../secret")
	unifstest.RequireKind(t, err, unifs.NotFound)
	unifstest.RequireKind(t, unifs.WriteString(f, "/../escaped", "x"), unifs.NotFound)

	// Inside the root, ".." is resolved lexically.
	require.NoError(t, unifs.WriteString(f, "/a/../b", "x"))
	ok, err := unifs.Exists(f, "/b")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = os.Stat(filepath.Join(parent, "escaped"))
	assert.True(t, os.IsNotExist(err))
}

func TestSymlinkOutsideRoot(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "root")
	outside := filepath.Join(parent, "outside")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.Mkdir(outside, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret"), []byte("s"), 0o644))
	if err := os.Symlink(outside, filepath.Join(dir, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	f := newFS(t, dir)

	_, err := f.ReadFile("/link/secret")
	assert.Error(t, err)
	assert.Error(t, unifs.WriteString(f, "/link/planted", "x"))
	_, err = f.ListDir("/link")
	assert.Error(t, err)

	_, err = os.Stat(filepath.Join(outside, "planted"))
	assert.True(t, os.IsNotExist(err))
}

func TestSymlinkInsideRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "target"), []byte("data"), 0o644))
	if err := os.Symlink("target", filepath.Join(dir, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	f := newFS(t, dir)

	s, err := unifs.ReadString(f, "/link")
	require.NoError(t, err)
	assert.Equal(t, "data", s)

	md, err := f.Stat("/link")
	require.NoError(t, err)
	assert.True(t, md.IsFile())

	entries, err := f.ListDir("/")
	require.NoError(t, err)
	list, err := entries.Collect()
	require.NoError(t, err)
	types := map[string]unifs.FileType{}
	for _, e := range list {
		types[e.Name] = e.Metadata.Type
	}
	assert.Equal(t, map[string]unifs.FileType{
		"link":   unifs.TypeSymlink,
		"target": unifs.TypeFile,
	}, types)

	// Removing the link leaves the target.
	require.NoError(t, f.Remove("/link", unifs.RemoveOptions{}))
	ok, err := unifs.Exists(f, "/target")
	require.NoError(t, err)
	assert.True(t, ok)
}
