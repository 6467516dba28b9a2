// Package billyfs implements unifs.FS over a billy.Filesystem.
package billyfs

import (
	"io/fs"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/absfs/unifs"
	"github.com/absfs/unifs/internal/native"
)

// FS is a billy.Filesystem seen as a unifs.FS.
//
// Rename is carried out entry by entry: billy's in-memory filesystem matches
// descendants of the source by string prefix, which would also move
// unrelated siblings such as "/ab" when renaming "/a". A rename through this
// backend is therefore not atomic.
type FS struct {
	*native.FS
	fs billy.Filesystem
}

var _ unifs.FS = (*FS)(nil)

// New wraps fsys.
func New(fsys billy.Filesystem) *FS {
	return &FS{FS: native.New(driver{fs: fsys}), fs: fsys}
}

// NewMemory returns an FS over a fresh billy in-memory filesystem.
func NewMemory() *FS {
	return New(memfs.New())
}

// Billy returns the wrapped filesystem.
func (f *FS) Billy() billy.Filesystem {
	return f.fs
}

type driver struct {
	fs billy.Filesystem
}

func (d driver) Stat(name string) (fs.FileInfo, error) {
	info, err := d.fs.Stat(name)
	if err != nil && unifs.IsRoot(name) {
		// billy's memfs has no root entry until something is created.
		return rootInfo{}, nil
	}
	return info, err
}

func (d driver) Lstat(name string) (fs.FileInfo, error) {
	info, err := d.fs.Lstat(name)
	if err != nil && unifs.IsRoot(name) {
		return rootInfo{}, nil
	}
	return info, err
}

func (d driver) ReadFile(name string) ([]byte, error) {
	return util.ReadFile(d.fs, name)
}

func (d driver) WriteFile(name string, data []byte, flag int, perm fs.FileMode) error {
	f, err := d.fs.OpenFile(name, flag, perm)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Mkdir is only called once the parent is known to exist and name is known
// to be absent, so MkdirAll creates exactly one directory.
func (d driver) Mkdir(name string, perm fs.FileMode) error {
	return d.fs.MkdirAll(name, perm)
}

func (d driver) Remove(name string) error {
	return d.fs.Remove(name)
}

func (d driver) RemoveAll(name string) error {
	return util.RemoveAll(d.fs, name)
}

func (d driver) Rename(oldname, newname string) error {
	info, err := d.fs.Lstat(oldname)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		data, err := util.ReadFile(d.fs, oldname)
		if err != nil {
			return err
		}
		if err := util.WriteFile(d.fs, newname, data, info.Mode().Perm()); err != nil {
			return err
		}
		return d.fs.Remove(oldname)
	}

	if err := d.fs.MkdirAll(newname, info.Mode().Perm()); err != nil {
		return err
	}
	children, err := d.fs.ReadDir(oldname)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := d.Rename(unifs.Join(oldname, child.Name()), unifs.Join(newname, child.Name())); err != nil {
			return err
		}
	}
	return d.fs.Remove(oldname)
}

func (d driver) OpenDir(name string) (native.DirReader, error) {
	infos, err := d.fs.ReadDir(name)
	if err != nil {
		return nil, err
	}
	return native.SliceReader(infos), nil
}

type rootInfo struct{}

func (rootInfo) Name() string       { return "/" }
func (rootInfo) Size() int64        { return 0 }
func (rootInfo) Mode() fs.FileMode  { return fs.ModeDir | 0o755 }
func (rootInfo) ModTime() time.Time { return time.Time{} }
func (rootInfo) IsDir() bool        { return true }
func (rootInfo) Sys() any           { return nil }
