package billyfs

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absfs/unifs"
	"github.com/absfs/unifs/unifstest"
)

func TestConformance(t *testing.T) {
	unifstest.Run(t, func(t *testing.T) unifs.FS {
		return NewMemory()
	})
}

func TestEmptyRootIsDirectory(t *testing.T) {
	f := NewMemory()
	md, err := f.Stat("/")
	require.NoError(t, err)
	assert.True(t, md.IsDir())

	empty, err := unifs.IsEmptyDir(f, "/")
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestRenameLeavesPrefixSiblings(t *testing.T) {
	f := NewMemory()
	unifstest.Populate(t, f, map[string]string{
		"/a/one":   "1",
		"/a/sub/2": "2",
		"/ab":      "sibling",
		"/abc/x":   "x",
	})

	require.NoError(t, f.Rename("/a", "/z", unifs.RenameOptions{}))
	assert.Equal(t, map[string]string{
		"/ab":      "sibling",
		"/abc":     "/",
		"/abc/x":   "x",
		"/z":       "/",
		"/z/one":   "1",
		"/z/sub":   "/",
		"/z/sub/2": "2",
	}, unifstest.Tree(t, f, "/"))
}

func TestChroot(t *testing.T) {
	base := memfs.New()
	require.NoError(t, base.MkdirAll("/jail", 0o755))
	jail, err := base.Chroot("/jail")
	require.NoError(t, err)

	f := New(jail)
	require.NoError(t, unifs.WriteString(f, "/x", "inside"))

	data, err := util.ReadFile(base, "/jail/x")
	require.NoError(t, err)
	assert.Equal(t, "inside", string(data))

	_, err = f.ReadFile("/../x")
	unifstest.RequireKind(t, err, unifs.NotFound)
	assert.Same(t, jail, f.Billy())
}
