// Package unifstest provides a conformance suite for unifs.FS
// implementations, and helpers to compare whole trees in tests.
package unifstest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/absfs/unifs"
)

// Factory returns a new, empty and writable filesystem. It is called once
// per test; cleanup belongs in t.Cleanup.
type Factory func(t *testing.T) unifs.FS

// Run checks that filesystems made by newFS follow the unifs.FS contract.
// Permission bits are not checked, since hosts apply a umask.
func Run(t *testing.T, newFS Factory) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(*testing.T, unifs.FS)
	}{
		{"EmptyRoot", testEmptyRoot},
		{"WriteRead", testWriteRead},
		{"WriteTruncates", testWriteTruncates},
		{"Append", testAppend},
		{"WriteErrors", testWriteErrors},
		{"ReadErrors", testReadErrors},
		{"Mkdir", testMkdir},
		{"MkdirRecursive", testMkdirRecursive},
		{"Remove", testRemove},
		{"RemoveRecursive", testRemoveRecursive},
		{"RemoveErrors", testRemoveErrors},
		{"ListDir", testListDir},
		{"ListDirErrors", testListDirErrors},
		{"ListDirClose", testListDirClose},
		{"Stat", testStat},
		{"RenameFile", testRenameFile},
		{"RenameDirectory", testRenameDirectory},
		{"RenameKeepsSiblings", testRenameKeepsSiblings},
		{"RenameOverwrite", testRenameOverwrite},
		{"RenameErrors", testRenameErrors},
		{"Paths", testPaths},
		{"ErrorValues", testErrorValues},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newFS(t))
		})
	}
}

// RequireKind fails the test unless err is a unifs error of kind want.
func RequireKind(t testing.TB, err error, want unifs.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, unifs.KindOf(err), "error: %v", err)
}

// Tree returns every path below root mapped to the file content, or to "/"
// for directories. The root itself is not included.
func Tree(t testing.TB, fsys unifs.FS, root string) map[string]string {
	t.Helper()
	tree := map[string]string{}
	err := unifs.Walk(fsys, root, func(name string, md unifs.Metadata, err error) error {
		if err != nil {
			return err
		}
		if name == unifs.MustClean(root) {
			return nil
		}
		if md.IsDir() {
			tree[name] = "/"
			return nil
		}
		data, err := fsys.ReadFile(name)
		if err != nil {
			return err
		}
		tree[name] = string(data)
		return nil
	})
	require.NoError(t, err)
	return tree
}

// Populate writes files into fsys. Keys are paths; a key ending in "/"
// creates a directory. Parents are created as needed.
func Populate(t testing.TB, fsys unifs.FS, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := unifs.MustClean(name)
		if name[len(name)-1] == '/' {
			require.NoError(t, unifs.MkdirAll(fsys, p))
			continue
		}
		require.NoError(t, unifs.MkdirAll(fsys, unifs.Dir(p)))
		require.NoError(t, unifs.WriteString(fsys, p, content))
	}
}

// Names lists name and returns the entry names in name order.
func Names(t testing.TB, fsys unifs.FS, name string) []string {
	t.Helper()
	entries, err := fsys.ListDir(name)
	require.NoError(t, err)
	list, err := entries.Collect()
	require.NoError(t, err)
	unifs.SortEntries(list)
	names := make([]string, len(list))
	for i, e := range list {
		names[i] = e.Name
	}
	return names
}
