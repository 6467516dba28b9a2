// Package readonly wraps a unifs.FS so that it can only be read.
package readonly

import "github.com/absfs/unifs"

// FS passes reads through to the wrapped filesystem and rejects every
// mutation with unifs.ReadOnly. Rejected calls never reach the wrapped
// filesystem.
type FS struct {
	fs unifs.FS
}

var (
	_ unifs.FS        = (*FS)(nil)
	_ unifs.Unwrapper = (*FS)(nil)
)

// New wraps fsys. The wrapped filesystem stays usable on its own; FS only
// borrows it.
func New(fsys unifs.FS) *FS {
	return &FS{fs: fsys}
}

// Unwrap returns the wrapped filesystem.
func (r *FS) Unwrap() unifs.FS {
	return r.fs
}

// ReadFile implements unifs.FS.
func (r *FS) ReadFile(name string) ([]byte, error) {
	return r.fs.ReadFile(name)
}

// ListDir implements unifs.FS.
func (r *FS) ListDir(name string) (*unifs.Entries, error) {
	return r.fs.ListDir(name)
}

// Stat implements unifs.FS.
func (r *FS) Stat(name string) (unifs.Metadata, error) {
	return r.fs.Stat(name)
}

// WriteFile implements unifs.FS. It always fails with ReadOnly.
func (r *FS) WriteFile(name string, _ []byte, _ unifs.WriteOptions) error {
	return unifs.NewError("write", name, unifs.ReadOnly)
}

// Mkdir implements unifs.FS. It always fails with ReadOnly.
func (r *FS) Mkdir(name string, _ unifs.MkdirOptions) error {
	return unifs.NewError("mkdir", name, unifs.ReadOnly)
}

// Remove implements unifs.FS. It always fails with ReadOnly.
func (r *FS) Remove(name string, _ unifs.RemoveOptions) error {
	return unifs.NewError("remove", name, unifs.ReadOnly)
}

// Rename implements unifs.FS. It always fails with ReadOnly, naming
// oldname.
func (r *FS) Rename(oldname, _ string, _ unifs.RenameOptions) error {
	return unifs.NewError("rename", oldname, unifs.ReadOnly)
}

// IsReadOnly reports whether fsys, or any filesystem it wraps through
// unifs.Unwrapper, is a read-only wrapper.
func IsReadOnly(fsys unifs.FS) bool {
	for fsys != nil {
		if _, ok := fsys.(*FS); ok {
			return true
		}
		u, ok := fsys.(unifs.Unwrapper)
		if !ok {
			return false
		}
		fsys = u.Unwrap()
	}
	return false
}
