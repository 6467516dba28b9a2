package readonly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absfs/unifs"
	"github.com/absfs/unifs/memfs"
	"github.com/absfs/unifs/unifstest"
)

func newBase(t *testing.T) *memfs.FS {
	t.Helper()
	m, err := memfs.FromMap(map[string][]byte{
		"/etc/config": []byte("a: 1"),
		"/data/x":     []byte("x"),
		"/empty/":     nil,
	})
	require.NoError(t, err)
	return m
}

func TestReadsPassThrough(t *testing.T) {
	base := newBase(t)
	r := New(base)

	s, err := unifs.ReadString(r, "/etc/config")
	require.NoError(t, err)
	assert.Equal(t, "a: 1", s)

	md, err := r.Stat("/data")
	require.NoError(t, err)
	assert.True(t, md.IsDir())

	assert.Equal(t, []string{"data", "empty", "etc"}, unifstest.Names(t, r, "/"))

	_, err = r.ReadFile("/missing")
	unifstest.RequireKind(t, err, unifs.NotFound)
}

func TestMutationsRejected(t *testing.T) {
	base := newBase(t)
	r := New(base)
	before := unifstest.Tree(t, base, "/")

	unifstest.RequireKind(t, unifs.WriteString(r, "/etc/config", "b: 2"), unifs.ReadOnly)
	unifstest.RequireKind(t, unifs.WriteString(r, "/new", "x"), unifs.ReadOnly)
	unifstest.RequireKind(t, r.WriteFile("/data/x", []byte("y"), unifs.WriteOptions{Mode: unifs.Append}), unifs.ReadOnly)
	unifstest.RequireKind(t, r.Mkdir("/d", unifs.MkdirOptions{}), unifs.ReadOnly)
	unifstest.RequireKind(t, unifs.MkdirAll(r, "/a/b"), unifs.ReadOnly)
	unifstest.RequireKind(t, r.Remove("/data/x", unifs.RemoveOptions{}), unifs.ReadOnly)
	unifstest.RequireKind(t, r.Remove("/data", unifs.RemoveOptions{Recursive: true}), unifs.ReadOnly)
	unifstest.RequireKind(t, r.Rename("/data", "/moved", unifs.RenameOptions{}), unifs.ReadOnly)

	// Rejection comes first, whatever the state of the path.
	unifstest.RequireKind(t, r.Remove("/missing", unifs.RemoveOptions{}), unifs.ReadOnly)

	assert.Equal(t, before, unifstest.Tree(t, base, "/"))
	assert.Equal(t, before, unifstest.Tree(t, r, "/"))
}

func TestErrorsNameThePath(t *testing.T) {
	r := New(memfs.New())
	err := r.Rename("/a", "/b", unifs.RenameOptions{})

	var pe *unifs.PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "rename", pe.Op)
	assert.Equal(t, "/a", pe.Path)
	assert.ErrorIs(t, err, unifs.ErrReadOnly)
}

func TestWrappedStaysWritable(t *testing.T) {
	base := newBase(t)
	r := New(base)

	require.NoError(t, unifs.WriteString(base, "/etc/config", "b: 2"))
	s, err := unifs.ReadString(r, "/etc/config")
	require.NoError(t, err)
	assert.Equal(t, "b: 2", s)
}

func TestUnwrap(t *testing.T) {
	base := newBase(t)
	r := New(base)
	assert.Same(t, base, r.Unwrap())
}

func TestIsReadOnly(t *testing.T) {
	base := memfs.New()
	assert.False(t, IsReadOnly(base))
	assert.True(t, IsReadOnly(New(base)))
	assert.True(t, IsReadOnly(New(New(base))))
	assert.True(t, IsReadOnly(passthrough{New(base)}))
	assert.False(t, IsReadOnly(passthrough{base}))
}

// passthrough is a wrapper that exposes what it wraps.
type passthrough struct {
	unifs.FS
}

func (p passthrough) Unwrap() unifs.FS {
	return p.FS
}
