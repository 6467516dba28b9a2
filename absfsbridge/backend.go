// Package absfsbridge connects unifs with the absfs ecosystem in both
// directions: FromFileSystem serves any absfs.FileSystem as a unifs.FS, and
// FileSystem exposes any unifs.FS to code written against absfs.
package absfsbridge

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/absfs/absfs"

	"github.com/absfs/unifs"
	"github.com/absfs/unifs/internal/native"
)

// FS is an absfs.FileSystem seen as a unifs.FS.
//
// A rename over an existing file moves the old file aside until the source
// has taken its name, and puts it back if the rename fails. The sequence is
// not atomic for other users of the absfs.FileSystem.
type FS struct {
	*native.FS
	fs absfs.FileSystem
}

var _ unifs.FS = (*FS)(nil)

// FromFileSystem wraps fsys. Paths are passed to fsys as clean absolute
// slash paths, so fsys's working directory is never consulted.
func FromFileSystem(fsys absfs.FileSystem) *FS {
	return &FS{FS: native.New(driver{fs: fsys}), fs: fsys}
}

// Absfs returns the wrapped filesystem.
func (f *FS) Absfs() absfs.FileSystem {
	return f.fs
}

type driver struct {
	fs absfs.FileSystem
}

func (d driver) Stat(name string) (fs.FileInfo, error) {
	return d.fs.Stat(name)
}

func (d driver) Lstat(name string) (fs.FileInfo, error) {
	if l, ok := d.fs.(absfs.SymLinker); ok {
		return l.Lstat(name)
	}
	return d.fs.Stat(name)
}

func (d driver) ReadFile(name string) ([]byte, error) {
	f, err := d.fs.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
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

// OpenDir reads the whole listing at once: absfs implementations differ in
// how they page Readdir(n), but all of them honor Readdir(-1).
func (d driver) OpenDir(name string) (native.DirReader, error) {
	f, err := d.fs.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	infos, err := f.Readdir(-1)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return native.SliceReader(infos), nil
}
