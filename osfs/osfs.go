// Package osfs implements unifs.FS over a directory of the host filesystem.
//
// All access goes through an os.Root, so no operation can reach outside the
// root directory, whether through ".." or through a symlink. Operations
// behave as the host's; host errors are translated into unifs kinds.
package osfs

import (
	"io/fs"
	"os"

	"github.com/absfs/unifs"
	"github.com/absfs/unifs/internal/native"
)

// FS is a host directory seen as a unifs.FS.
type FS struct {
	*native.FS
	root *os.Root
}

var _ unifs.FS = (*FS)(nil)

// New opens the existing directory dir as a filesystem root. The returned FS
// holds a handle on dir until Close is called.
func New(dir string) (*FS, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, native.Translate("open", dir, err)
	}
	return &FS{
		FS:   native.New(driver{root: root}, native.WithAtomicReplace()),
		root: root,
	}, nil
}

// NewOrCreate is New, creating dir and its parents first when missing.
func NewOrCreate(dir string, perm fs.FileMode) (*FS, error) {
	if err := os.MkdirAll(dir, perm); err != nil {
		return nil, native.Translate("mkdir", dir, err)
	}
	return New(dir)
}

// Name returns the host path of the root directory.
func (f *FS) Name() string {
	return f.root.Name()
}

// Close releases the root directory handle.
func (f *FS) Close() error {
	return f.root.Close()
}

// driver maps clean unifs paths onto os.Root relative names.
type driver struct {
	root *os.Root
}

func rel(name string) string {
	if unifs.IsRoot(name) {
		return "."
	}
	return name[1:]
}

func (d driver) Stat(name string) (fs.FileInfo, error) {
	return d.root.Stat(rel(name))
}

func (d driver) Lstat(name string) (fs.FileInfo, error) {
	return d.root.Lstat(rel(name))
}

func (d driver) ReadFile(name string) ([]byte, error) {
	return d.root.ReadFile(rel(name))
}

func (d driver) WriteFile(name string, data []byte, flag int, perm fs.FileMode) error {
	f, err := d.root.OpenFile(rel(name), flag, perm)
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
	return d.root.Mkdir(rel(name), perm)
}

func (d driver) Remove(name string) error {
	return d.root.Remove(rel(name))
}

func (d driver) RemoveAll(name string) error {
	return d.root.RemoveAll(rel(name))
}

func (d driver) Rename(oldname, newname string) error {
	return d.root.Rename(rel(oldname), rel(newname))
}

func (d driver) OpenDir(name string) (native.DirReader, error) {
	f, err := d.root.Open(rel(name))
	if err != nil {
		return nil, err
	}
	return f, nil
}
