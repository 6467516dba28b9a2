// Package mountfs mounts one unifs.FS at a directory of another.
//
// Paths at or below the mount point are served by the mounted filesystem,
// with the mount point as its root. Every other path is served by the base.
// The mount point always shows as a directory in its parent's listing, and
// whatever the base holds at that path is hidden while the mount exists.
//
// Errors name the caller's path, not the path handed to either filesystem.
package mountfs

import (
	"errors"
	"slices"

	"github.com/absfs/unifs"
)

// FS is a base filesystem with another filesystem mounted on it.
type FS struct {
	base    unifs.FS
	mounted unifs.FS
	point   string
}

var _ unifs.FS = (*FS)(nil)

// New mounts fsys on base at point. The parent of point must be a directory
// of base; point itself need not exist there.
func New(base, fsys unifs.FS, point string) (*FS, error) {
	const op = "mount"
	p, err := unifs.Clean(point)
	if err != nil {
		return nil, unifs.Reop(err, op, point)
	}
	if unifs.IsRoot(p) {
		return nil, unifs.OtherError(op, point, "cannot mount over the root directory")
	}
	md, err := base.Stat(unifs.Dir(p))
	if err != nil {
		return nil, unifs.Reop(err, op, point)
	}
	if !md.IsDir() {
		return nil, unifs.NewError(op, point, unifs.NotADirectory)
	}
	return &FS{base: base, mounted: fsys, point: p}, nil
}

// Base returns the filesystem serving paths outside the mount.
func (m *FS) Base() unifs.FS {
	return m.base
}

// Mounted returns the filesystem serving the mount point and below.
func (m *FS) Mounted() unifs.FS {
	return m.mounted
}

// Point returns the clean mount point.
func (m *FS) Point() string {
	return m.point
}

// target is a caller path resolved to the filesystem serving it.
type target struct {
	fs unifs.FS
	// clean is the caller's path, path the one handed to fs.
	clean   string
	path    string
	mounted bool
}

func (m *FS) resolve(op, name string) (target, error) {
	p, err := unifs.Clean(name)
	if err != nil {
		return target{}, unifs.Reop(err, op, name)
	}
	if unifs.HasPrefix(p, m.point) {
		return target{fs: m.mounted, clean: p, path: unifs.Join(unifs.Root, p[len(m.point):]), mounted: true}, nil
	}
	return target{fs: m.base, clean: p, path: p}, nil
}

// pinned reports whether t is the mount point or one of its ancestors,
// which cannot be removed or moved while mounted.
func (m *FS) pinned(t target) bool {
	if t.mounted {
		return unifs.IsRoot(t.path)
	}
	return unifs.HasPrefix(m.point, t.clean)
}

func busy(op, name string) error {
	return unifs.OtherError(op, name, "mount point is busy")
}

func (m *FS) ReadFile(name string) ([]byte, error) {
	const op = "read"
	t, err := m.resolve(op, name)
	if err != nil {
		return nil, err
	}
	data, err := t.fs.ReadFile(t.path)
	if err != nil {
		return nil, unifs.Reop(err, op, name)
	}
	return data, nil
}

func (m *FS) Stat(name string) (unifs.Metadata, error) {
	const op = "stat"
	t, err := m.resolve(op, name)
	if err != nil {
		return unifs.Metadata{}, err
	}
	md, err := t.fs.Stat(t.path)
	if err != nil {
		return unifs.Metadata{}, unifs.Reop(err, op, name)
	}
	return md, nil
}

// ListDir lists name from the filesystem serving it. The parent of the mount
// point also lists the mount point, described by the mounted root.
func (m *FS) ListDir(name string) (*unifs.Entries, error) {
	const op = "readdir"
	t, err := m.resolve(op, name)
	if err != nil {
		return nil, err
	}
	entries, err := t.fs.ListDir(t.path)
	if err != nil {
		return nil, unifs.Reop(err, op, name)
	}
	if t.mounted || t.clean != unifs.Dir(m.point) {
		return entries, nil
	}

	list, err := entries.Collect()
	if err != nil {
		return nil, unifs.Reop(err, op, name)
	}
	md, err := m.mounted.Stat(unifs.Root)
	if err != nil {
		return nil, unifs.Reop(err, op, name)
	}
	point := unifs.Base(m.point)
	list = slices.DeleteFunc(list, func(e unifs.Entry) bool { return e.Name == point })
	list = append(list, unifs.Entry{Name: point, Metadata: md})
	return unifs.EntriesOf(list), nil
}

func (m *FS) WriteFile(name string, data []byte, opts unifs.WriteOptions) error {
	const op = "write"
	t, err := m.resolve(op, name)
	if err != nil {
		return err
	}
	if t.mounted && unifs.IsRoot(t.path) {
		return unifs.NewError(op, name, unifs.IsADirectory)
	}
	return reop(t.fs.WriteFile(t.path, data, opts), op, name)
}

func (m *FS) Mkdir(name string, opts unifs.MkdirOptions) error {
	const op = "mkdir"
	t, err := m.resolve(op, name)
	if err != nil {
		return err
	}
	return reop(t.fs.Mkdir(t.path, opts), op, name)
}

func (m *FS) Remove(name string, opts unifs.RemoveOptions) error {
	const op = "remove"
	t, err := m.resolve(op, name)
	if err != nil {
		return err
	}
	if unifs.IsRoot(t.clean) {
		return unifs.OtherError(op, name, "cannot remove the root directory")
	}
	if m.pinned(t) {
		return busy(op, name)
	}
	return reop(t.fs.Remove(t.path, opts), op, name)
}

// Rename within one side is that filesystem's rename. Across the mount
// point the source is copied and then removed, which is not atomic.
func (m *FS) Rename(oldname, newname string, opts unifs.RenameOptions) error {
	const op = "rename"
	src, err := m.resolve(op, oldname)
	if err != nil {
		return err
	}
	dst, err := m.resolve(op, newname)
	if err != nil {
		return err
	}
	noop, err := unifs.CheckRenamePaths(op, src.clean, dst.clean)
	if err != nil || noop {
		return err
	}
	switch {
	case m.pinned(src):
		return busy(op, oldname)
	case m.pinned(dst):
		return busy(op, newname)
	case src.mounted != dst.mounted:
		return m.move(op, oldname, newname, src, dst, opts)
	}

	err = src.fs.Rename(src.path, dst.path, opts)
	var pe *unifs.PathError
	if errors.As(err, &pe) && pe.Path == dst.path {
		return unifs.Reop(err, op, newname)
	}
	return reop(err, op, oldname)
}

// move renames src to dst across the mount point. A destination file is
// replaced by the copy; an empty destination directory is removed first.
func (m *FS) move(op, oldname, newname string, src, dst target, opts unifs.RenameOptions) error {
	smd, err := src.fs.Stat(src.path)
	if err != nil {
		return unifs.Reop(err, op, oldname)
	}
	dmd, err := dst.fs.Stat(dst.path)
	switch {
	case err == nil:
		empty := true
		if dmd.IsDir() {
			if empty, err = unifs.IsEmptyDir(dst.fs, dst.path); err != nil {
				return unifs.Reop(err, op, newname)
			}
		}
		if err := unifs.CheckOverwrite(op, newname, smd, dmd, empty, opts); err != nil {
			return err
		}
		if dmd.IsDir() {
			if err := dst.fs.Remove(dst.path, unifs.RemoveOptions{}); err != nil {
				return unifs.Reop(err, op, newname)
			}
		}
	case !unifs.IsNotFound(err):
		return unifs.Reop(err, op, newname)
	}

	if err := copyTree(src.fs, src.path, dst.fs, dst.path, smd); err != nil {
		return unifs.Reop(err, op, newname)
	}
	return reop(src.fs.Remove(src.path, unifs.RemoveOptions{Recursive: smd.IsDir()}), op, oldname)
}

// copyTree copies the file or directory from, described by md, to the
// missing path to.
func copyTree(src unifs.FS, from string, dst unifs.FS, to string, md unifs.Metadata) error {
	if !md.IsDir() {
		_, err := unifs.Copy(src, from, dst, to)
		return err
	}
	if err := dst.Mkdir(to, unifs.MkdirOptions{Perm: md.Perm}); err != nil {
		return err
	}
	entries, err := src.ListDir(from)
	if err != nil {
		return err
	}
	list, err := entries.Collect()
	if err != nil {
		return err
	}
	for _, e := range list {
		if err := copyTree(src, unifs.Join(from, e.Name), dst, unifs.Join(to, e.Name), e.Metadata); err != nil {
			return err
		}
	}
	return nil
}

func reop(err error, op, name string) error {
	if err == nil {
		return nil
	}
	return unifs.Reop(err, op, name)
}
