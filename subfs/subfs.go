// Package subfs re-roots a unifs.FS at one of its directories.
//
// Caller paths are cleaned against the new root before being joined under
// the directory, so "..", absolute paths and repeated separators can never
// reach outside it. Errors name the caller's path, not the joined one.
package subfs

import (
	"errors"

	"github.com/absfs/unifs"
)

// FS is the subtree of another filesystem, seen with its directory as "/".
type FS struct {
	fs  unifs.FS
	dir string
}

var (
	_ unifs.FS        = (*FS)(nil)
	_ unifs.Unwrapper = (*FS)(nil)
)

// New returns the subtree of fsys at dir, which must be an existing
// directory.
func New(fsys unifs.FS, dir string) (*FS, error) {
	const op = "sub"
	p, err := unifs.Clean(dir)
	if err != nil {
		return nil, unifs.Reop(err, op, dir)
	}
	md, err := fsys.Stat(p)
	if err != nil {
		return nil, unifs.Reop(err, op, dir)
	}
	if !md.IsDir() {
		return nil, unifs.NewError(op, dir, unifs.NotADirectory)
	}
	return &FS{fs: fsys, dir: p}, nil
}

// NewOrCreate is New, creating dir and its parents first when missing.
func NewOrCreate(fsys unifs.FS, dir string) (*FS, error) {
	if err := unifs.MkdirAll(fsys, dir); err != nil {
		return nil, unifs.Reop(err, "sub", dir)
	}
	return New(fsys, dir)
}

// Dir returns the directory of the parent filesystem that is the root here.
func (s *FS) Dir() string {
	return s.dir
}

// Unwrap returns the parent filesystem.
func (s *FS) Unwrap() unifs.FS {
	return s.fs
}

// join maps a caller path onto the parent filesystem.
func (s *FS) join(op, name string) (string, bool, error) {
	p, err := unifs.Clean(name)
	if err != nil {
		return "", false, unifs.Reop(err, op, name)
	}
	return unifs.Join(s.dir, p), unifs.IsRoot(p), nil
}

func (s *FS) ReadFile(name string) ([]byte, error) {
	const op = "read"
	p, _, err := s.join(op, name)
	if err != nil {
		return nil, err
	}
	data, err := s.fs.ReadFile(p)
	if err != nil {
		return nil, unifs.Reop(err, op, name)
	}
	return data, nil
}

func (s *FS) WriteFile(name string, data []byte, opts unifs.WriteOptions) error {
	const op = "write"
	p, root, err := s.join(op, name)
	if err != nil {
		return err
	}
	if root {
		return unifs.NewError(op, name, unifs.IsADirectory)
	}
	return reop(s.fs.WriteFile(p, data, opts), op, name)
}

func (s *FS) Mkdir(name string, opts unifs.MkdirOptions) error {
	const op = "mkdir"
	p, _, err := s.join(op, name)
	if err != nil {
		return err
	}
	return reop(s.fs.Mkdir(p, opts), op, name)
}

func (s *FS) Remove(name string, opts unifs.RemoveOptions) error {
	const op = "remove"
	p, root, err := s.join(op, name)
	if err != nil {
		return err
	}
	if root {
		return unifs.OtherError(op, name, "cannot remove the root directory")
	}
	return reop(s.fs.Remove(p, opts), op, name)
}

func (s *FS) ListDir(name string) (*unifs.Entries, error) {
	const op = "readdir"
	p, _, err := s.join(op, name)
	if err != nil {
		return nil, err
	}
	entries, err := s.fs.ListDir(p)
	if err != nil {
		return nil, unifs.Reop(err, op, name)
	}
	return entries, nil
}

func (s *FS) Stat(name string) (unifs.Metadata, error) {
	const op = "stat"
	p, _, err := s.join(op, name)
	if err != nil {
		return unifs.Metadata{}, err
	}
	md, err := s.fs.Stat(p)
	if err != nil {
		return unifs.Metadata{}, unifs.Reop(err, op, name)
	}
	return md, nil
}

// Rename refuses to move the root itself, which from the parent's point of
// view would be a rename of the whole subtree.
func (s *FS) Rename(oldname, newname string, opts unifs.RenameOptions) error {
	const op = "rename"
	src, srcRoot, err := s.join(op, oldname)
	if err != nil {
		return err
	}
	dst, dstRoot, err := s.join(op, newname)
	if err != nil {
		return err
	}
	if srcRoot || dstRoot {
		return unifs.OtherError(op, oldname, "cannot rename the root directory")
	}
	err = s.fs.Rename(src, dst, opts)
	var pe *unifs.PathError
	if errors.As(err, &pe) && pe.Path == dst {
		return unifs.Reop(err, op, newname)
	}
	return reop(err, op, oldname)
}

func reop(err error, op, name string) error {
	if err == nil {
		return nil
	}
	return unifs.Reop(err, op, name)
}
