// Package aferofs implements unifs.FS over an afero.Fs.
//
// Any afero backend works: the in-memory map, a base-path view of the host,
// or a composition of them. Contract checks are made here, so afero quirks
// such as Mkdir without a parent or Remove of a non-empty directory never
// reach callers.
package aferofs

import (
	"io/fs"

	"github.com/spf13/afero"

	"github.com/absfs/unifs"
	"github.com/absfs/unifs/internal/native"
)

// FS is an afero.Fs seen as a unifs.FS.
//
// afero's Rename is not assumed to replace an existing file atomically, so
// a rename over a file moves the old file aside first and removes it once
// the rename is done. A rename through this backend is therefore not atomic
// for other users of the afero.Fs.
type FS struct {
	*native.FS
	fs afero.Fs
}

var _ unifs.FS = (*FS)(nil)

// New wraps fsys. Paths are passed to fsys as clean absolute slash paths.
func New(fsys afero.Fs) *FS {
	return &FS{FS: native.New(driver{fs: fsys}), fs: fsys}
}

// NewMemMap returns an FS over a fresh afero.MemMapFs.
func NewMemMap() *FS {
	return New(afero.NewMemMapFs())
}

// Afero returns the wrapped filesystem.
func (f *FS) Afero() afero.Fs {
	return f.fs
}

type driver struct {
	fs afero.Fs
}

func (d driver) Stat(name string) (fs.FileInfo, error) {
	return d.fs.Stat(name)
}

func (d driver) Lstat(name string) (fs.FileInfo, error) {
	if l, ok := d.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(name)
		return info, err
	}
	return d.fs.Stat(name)
}

func (d driver) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(d.fs, name)
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

func (d driver) Mkdir(name string, perm fs.FileMode) error {
	return d.fs.Mkdir(name, perm)
}

func (d driver) Remove(name string) error {
	return d.fs.Remove(name)
}

func (d driver) RemoveAll(name string) error {
	return d.fs.RemoveAll(name)
}

func (d driver) Rename(oldname, newname string) error {
	return d.fs.Rename(oldname, newname)
}

func (d driver) OpenDir(name string) (native.DirReader, error) {
	return d.fs.Open(name)
}
