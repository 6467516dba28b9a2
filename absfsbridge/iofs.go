package absfsbridge

import (
	"io/fs"
	"os"
	"path"

	"github.com/absfs/absfs"

	"github.com/absfs/unifs"
)

// view is the absfs.FileSystem FileSystem returns. On top of what
// absfs.ExtendFiler provides, it serves ReadDir, ReadFile and Sub, with
// names resolved against the working directory.
type view struct {
	absfs.FileSystem
	f *filer
}

// ReadDir returns the entries of name sorted by file name.
func (v *view) ReadDir(name string) ([]fs.DirEntry, error) {
	return v.f.ReadDir(name)
}

func (v *view) ReadFile(name string) ([]byte, error) {
	return v.f.ReadFile(name)
}

// Sub returns an io/fs view of the directory dir.
func (v *view) Sub(dir string) (fs.FS, error) {
	return v.f.Sub(dir)
}

// ioFS serves the directory dir of a unifs.FS as an io/fs file system.
// Names follow io/fs rules: unrooted, slash separated, no "." or ".."
// elements.
type ioFS struct {
	fs  unifs.FS
	dir string
}

var (
	_ fs.ReadDirFS  = (*ioFS)(nil)
	_ fs.ReadFileFS = (*ioFS)(nil)
	_ fs.StatFS     = (*ioFS)(nil)
	_ fs.SubFS      = (*ioFS)(nil)
)

func (s *ioFS) path(op, name string) (string, error) {
	if !fs.ValidPath(name) {
		return "", &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	return path.Join(s.dir, name), nil
}

func (s *ioFS) Open(name string) (fs.File, error) {
	const op = "open"
	p, err := s.path(op, name)
	if err != nil {
		return nil, err
	}
	md, err := s.fs.Stat(p)
	if err != nil {
		return nil, osError(op, name, err)
	}
	if md.IsDir() {
		return newDir(s.fs, name, p), nil
	}
	data, err := s.fs.ReadFile(p)
	if err != nil {
		return nil, osError(op, name, err)
	}
	return &file{fs: s.fs, name: name, path: p, flag: os.O_RDONLY, perm: md.Perm, data: data}, nil
}

func (s *ioFS) ReadFile(name string) ([]byte, error) {
	const op = "read"
	p, err := s.path(op, name)
	if err != nil {
		return nil, err
	}
	data, err := s.fs.ReadFile(p)
	if err != nil {
		return nil, osError(op, name, err)
	}
	return data, nil
}

func (s *ioFS) ReadDir(name string) ([]fs.DirEntry, error) {
	const op = "readdir"
	p, err := s.path(op, name)
	if err != nil {
		return nil, err
	}
	return newDir(s.fs, name, p).ReadDir(-1)
}

func (s *ioFS) Stat(name string) (fs.FileInfo, error) {
	const op = "stat"
	p, err := s.path(op, name)
	if err != nil {
		return nil, err
	}
	md, err := s.fs.Stat(p)
	if err != nil {
		return nil, osError(op, name, err)
	}
	return unifs.FileInfo(path.Base(name), md), nil
}

func (s *ioFS) Sub(dir string) (fs.FS, error) {
	p, err := s.path("sub", dir)
	if err != nil {
		return nil, err
	}
	return subDir(s.fs, "sub", dir, p)
}

// subDir returns the io/fs view of the directory p, named dir by the caller.
func subDir(fsys unifs.FS, op, dir, p string) (fs.FS, error) {
	md, err := fsys.Stat(p)
	if err != nil {
		return nil, osError(op, dir, err)
	}
	if !md.IsDir() {
		return nil, osError(op, dir, unifs.NewError(op, p, unifs.NotADirectory))
	}
	return &ioFS{fs: fsys, dir: p}, nil
}
