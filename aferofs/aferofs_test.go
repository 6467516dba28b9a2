package aferofs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absfs/unifs"
	"github.com/absfs/unifs/unifstest"
)

func TestConformance(t *testing.T) {
	unifstest.Run(t, func(t *testing.T) unifs.FS {
		return NewMemMap()
	})
}

func TestSharesAferoState(t *testing.T) {
	f := NewMemMap()
	require.NoError(t, unifs.MkdirAll(f, "/a/b"))
	require.NoError(t, unifs.WriteString(f, "/a/b/c", "data"))

	data, err := afero.ReadFile(f.Afero(), "/a/b/c")
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	require.NoError(t, afero.WriteFile(f.Afero(), "/a/d", []byte("from afero"), 0o644))
	s, err := unifs.ReadString(f, "/a/d")
	require.NoError(t, err)
	assert.Equal(t, "from afero", s)
}

func TestContractOverAfero(t *testing.T) {
	f := NewMemMap()

	// afero creates missing parents and removes non-empty directories;
	// the wrapper does not.
	unifstest.RequireKind(t, f.Mkdir("/x/y", unifs.MkdirOptions{}), unifs.NotFound)
	unifstest.RequireKind(t, unifs.WriteString(f, "/x/y", "z"), unifs.NotFound)

	unifstest.Populate(t, f, map[string]string{"/d/f": "1"})
	unifstest.RequireKind(t, f.Remove("/d", unifs.RemoveOptions{}), unifs.DirectoryNotEmpty)
	assert.Equal(t, []string{"f"}, unifstest.Names(t, f, "/d"))
}

func TestBasePath(t *testing.T) {
	dir := t.TempDir()
	f := New(afero.NewBasePathFs(afero.NewOsFs(), dir))

	require.NoError(t, unifs.MkdirAll(f, "/logs"))
	require.NoError(t, unifs.WriteString(f, "/logs/app.log", "line\n"))
	require.NoError(t, f.WriteFile("/logs/app.log", []byte("next\n"), unifs.WriteOptions{Mode: unifs.Append}))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "app.log"))
	require.NoError(t, err)
	assert.Equal(t, "line\nnext\n", string(data))

	_, err = f.ReadFile("/missing")
	unifstest.RequireKind(t, err, unifs.NotFound)

	require.NoError(t, f.Rename("/logs/app.log", "/app.log", unifs.RenameOptions{}))
	assert.Equal(t, map[string]string{
		"/app.log": "line\nnext\n",
		"/logs":    "/",
	}, unifstest.Tree(t, f, "/"))
}

// lockedRename refuses to move one source path.
type lockedRename struct {
	afero.Fs
	src string
}

func (l lockedRename) Rename(oldname, newname string) error {
	if oldname == l.src {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: os.ErrPermission}
	}
	return l.Fs.Rename(oldname, newname)
}

func TestRenameOverwriteKeepsDestinationOnFailure(t *testing.T) {
	f := New(lockedRename{Fs: afero.NewMemMapFs(), src: "/locked"})
	unifstest.Populate(t, f, map[string]string{
		"/locked": "new",
		"/free":   "free",
		"/target": "old",
	})

	err := f.Rename("/locked", "/target", unifs.RenameOptions{Overwrite: true})
	unifstest.RequireKind(t, err, unifs.PermissionDenied)
	assert.Equal(t, map[string]string{
		"/free":   "free",
		"/locked": "new",
		"/target": "old",
	}, unifstest.Tree(t, f, "/"))

	require.NoError(t, f.Rename("/free", "/target", unifs.RenameOptions{Overwrite: true}))
	assert.Equal(t, map[string]string{
		"/locked": "new",
		"/target": "free",
	}, unifstest.Tree(t, f, "/"))
}
