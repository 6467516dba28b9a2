package native

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/absfs/unifs"
)

// listBatch is how many entries ListDir asks the driver for at a time.
const listBatch = 64

// FS implements unifs.FS over a Driver.
type FS struct {
	d Driver
	// atomicReplace is set when the driver's Rename replaces an existing
	// destination atomically, as rename(2) does. Otherwise a destination
	// file is moved aside for the duration of the rename.
	atomicReplace bool
}

var _ unifs.FS = (*FS)(nil)

// Option configures an FS.
type Option func(*FS)

// WithAtomicReplace declares that the driver's Rename atomically replaces an
// existing destination.
func WithAtomicReplace() Option {
	return func(f *FS) {
		f.atomicReplace = true
	}
}

// New returns an FS backed by d.
func New(d Driver, opts ...Option) *FS {
	f := &FS{d: d}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Driver returns the driver the FS is built on.
func (f *FS) Driver() Driver {
	return f.d
}

// ReadFile implements unifs.FS.
func (f *FS) ReadFile(name string) ([]byte, error) {
	const op = "read"
	p, err := clean(op, name)
	if err != nil {
		return nil, err
	}
	info, err := f.d.Stat(p)
	if err != nil {
		return nil, f.fail(op, name, p, err)
	}
	if info.IsDir() {
		return nil, unifs.NewError(op, name, unifs.IsADirectory)
	}
	data, err := f.d.ReadFile(p)
	if err != nil {
		return nil, f.fail(op, name, p, err)
	}
	return data, nil
}

// WriteFile implements unifs.FS.
func (f *FS) WriteFile(name string, data []byte, opts unifs.WriteOptions) error {
	const op = "write"
	p, err := clean(op, name)
	if err != nil {
		return err
	}
	if unifs.IsRoot(p) {
		return unifs.NewError(op, name, unifs.IsADirectory)
	}
	if err := f.requireDir(op, name, unifs.Dir(p)); err != nil {
		return err
	}

	info, err := f.d.Stat(p)
	switch {
	case err == nil && info.IsDir():
		return unifs.NewError(op, name, unifs.IsADirectory)
	case err != nil && !errors.Is(Translate(op, name, err), unifs.ErrNotFound):
		return Translate(op, name, err)
	case err != nil && opts.Mode == unifs.Append:
		return unifs.NewError(op, name, unifs.NotFound)
	}

	flag := flagTruncate
	if opts.Mode == unifs.Append {
		flag = flagAppend
	}
	if err := f.d.WriteFile(p, data, flag, opts.FilePerm()); err != nil {
		return Translate(op, name, err)
	}
	return nil
}

// Mkdir implements unifs.FS.
func (f *FS) Mkdir(name string, opts unifs.MkdirOptions) error {
	const op = "mkdir"
	segs, err := unifs.Split(name)
	if err != nil {
		return unifs.Reop(err, op, name)
	}

	if !opts.Recursive {
		if len(segs) == 0 {
			return unifs.NewError(op, name, unifs.AlreadyExists)
		}
		p := unifs.Join(segs...)
		if _, err := f.d.Lstat(p); err == nil {
			return unifs.NewError(op, name, unifs.AlreadyExists)
		}
		if err := f.requireDir(op, name, unifs.Dir(p)); err != nil {
			return err
		}
		if err := f.d.Mkdir(p, opts.DirPerm()); err != nil {
			return Translate(op, name, err)
		}
		return nil
	}

	for i := range segs {
		p := unifs.Join(segs[:i+1]...)
		info, err := f.d.Stat(p)
		if err == nil {
			if info.IsDir() {
				continue
			}
			if i == len(segs)-1 {
				return unifs.NewError(op, name, unifs.AlreadyExists)
			}
			return unifs.NewError(op, name, unifs.NotADirectory)
		}
		if kerr := Translate(op, name, err); !errors.Is(kerr, unifs.ErrNotFound) {
			return kerr
		}
		if err := f.d.Mkdir(p, opts.DirPerm()); err != nil {
			// A concurrent caller may have created it meanwhile.
			if info, serr := f.d.Stat(p); serr == nil && info.IsDir() {
				continue
			}
			return Translate(op, name, err)
		}
	}
	return nil
}

// Remove implements unifs.FS.
func (f *FS) Remove(name string, opts unifs.RemoveOptions) error {
	const op = "remove"
	p, err := clean(op, name)
	if err != nil {
		return err
	}
	if unifs.IsRoot(p) {
		return unifs.OtherError(op, name, "cannot remove the root directory")
	}
	info, err := f.d.Lstat(p)
	if err != nil {
		return f.fail(op, name, p, err)
	}

	if info.IsDir() {
		if opts.Recursive {
			return Translate(op, name, f.d.RemoveAll(p))
		}
		empty, err := f.isEmpty(p)
		if err != nil {
			return Translate(op, name, err)
		}
		if !empty {
			return unifs.NewError(op, name, unifs.DirectoryNotEmpty)
		}
	}
	return Translate(op, name, f.d.Remove(p))
}

// ListDir implements unifs.FS. Entries are read from the driver in batches
// while the caller iterates; the directory handle is released when the
// iterator is exhausted or closed. Order is the driver's directory order.
func (f *FS) ListDir(name string) (*unifs.Entries, error) {
	const op = "readdir"
	p, err := clean(op, name)
	if err != nil {
		return nil, err
	}
	info, err := f.d.Stat(p)
	if err != nil {
		return nil, f.fail(op, name, p, err)
	}
	if !info.IsDir() {
		return nil, unifs.NewError(op, name, unifs.NotADirectory)
	}
	dir, err := f.d.OpenDir(p)
	if err != nil {
		return nil, Translate(op, name, err)
	}

	var buf []fs.FileInfo
	next := func() (unifs.Entry, error) {
		for len(buf) == 0 {
			infos, err := dir.Readdir(listBatch)
			if len(infos) == 0 && err == nil {
				err = io.EOF
			}
			if errors.Is(err, io.EOF) && len(infos) == 0 {
				return unifs.Entry{}, io.EOF
			}
			if err != nil && !errors.Is(err, io.EOF) {
				return unifs.Entry{}, Translate(op, name, err)
			}
			buf = infos
		}
		fi := buf[0]
		buf = buf[1:]
		return unifs.Entry{Name: fi.Name(), Metadata: unifs.MetadataOf(fi)}, nil
	}
	return unifs.NewEntries(next, dir.Close), nil
}

// Stat implements unifs.FS.
func (f *FS) Stat(name string) (unifs.Metadata, error) {
	const op = "stat"
	p, err := clean(op, name)
	if err != nil {
		return unifs.Metadata{}, err
	}
	info, err := f.d.Stat(p)
	if err != nil {
		return unifs.Metadata{}, f.fail(op, name, p, err)
	}
	return unifs.MetadataOf(info), nil
}

// Rename implements unifs.FS. Atomicity is whatever the driver's rename
// provides. Without WithAtomicReplace, replacing a file takes two driver
// renames and a remove, and another client of the driver may briefly see the
// old file under a "name.~N~" sibling or no file at dst.
func (f *FS) Rename(oldname, newname string, opts unifs.RenameOptions) error {
	const op = "rename"
	src, err := clean(op, oldname)
	if err != nil {
		return err
	}
	dst, err := clean(op, newname)
	if err != nil {
		return err
	}
	srcInfo, err := f.d.Lstat(src)
	if err != nil {
		return f.fail(op, oldname, src, err)
	}
	noop, err := unifs.CheckRenamePaths(op, src, dst)
	if err != nil || noop {
		return err
	}
	if err := f.requireDir(op, newname, unifs.Dir(dst)); err != nil {
		return err
	}

	dstInfo, err := f.d.Lstat(dst)
	if err == nil {
		empty := true
		if dstInfo.IsDir() {
			if empty, err = f.isEmpty(dst); err != nil {
				return Translate(op, newname, err)
			}
		}
		srcMd, dstMd := unifs.MetadataOf(srcInfo), unifs.MetadataOf(dstInfo)
		if err := unifs.CheckOverwrite(op, newname, srcMd, dstMd, empty, opts); err != nil {
			return err
		}
		switch {
		case dstInfo.IsDir():
			if err := f.d.Remove(dst); err != nil {
				return Translate(op, newname, err)
			}
		case !f.atomicReplace:
			return f.replace(op, oldname, newname, src, dst)
		}
	}
	return Translate(op, oldname, f.d.Rename(src, dst))
}

// replace renames src over the existing file dst for a driver whose rename
// cannot replace. dst is first moved aside within its directory and put
// back if the rename fails, so a failed rename keeps it.
func (f *FS) replace(op, oldname, newname, src, dst string) error {
	aside, err := f.asideName(dst)
	if err != nil {
		return Translate(op, newname, err)
	}
	if err := f.d.Rename(dst, aside); err != nil {
		return Translate(op, newname, err)
	}
	if err := f.d.Rename(src, dst); err != nil {
		if rerr := f.d.Rename(aside, dst); rerr != nil {
			return Translate(op, oldname, errors.Join(err, rerr))
		}
		return Translate(op, oldname, err)
	}
	return Translate(op, newname, f.d.Remove(aside))
}

// asideName picks an unused name next to p.
func (f *FS) asideName(p string) (string, error) {
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s.~%d~", p, i)
		_, err := f.d.Lstat(name)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return name, nil
		case err != nil:
			return "", err
		}
	}
}

// requireDir checks that dir exists and is a directory.
func (f *FS) requireDir(op, name, dir string) error {
	info, err := f.d.Stat(dir)
	if err != nil {
		return f.fail(op, name, dir, err)
	}
	if !info.IsDir() {
		return unifs.NewError(op, name, unifs.NotADirectory)
	}
	return nil
}

// fail translates err for a lookup of p. Hosts disagree on whether a file
// used as a directory yields ENOENT or ENOTDIR, so a NotFound is refined to
// NotADirectory when an ancestor turns out to be a file.
func (f *FS) fail(op, name, p string, err error) error {
	terr := Translate(op, name, err)
	if !errors.Is(terr, unifs.ErrNotFound) {
		return terr
	}
	for dir := unifs.Dir(p); !unifs.IsRoot(dir); dir = unifs.Dir(dir) {
		info, err := f.d.Stat(dir)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			return unifs.NewError(op, name, unifs.NotADirectory)
		}
		break
	}
	return terr
}

func (f *FS) isEmpty(p string) (bool, error) {
	dir, err := f.d.OpenDir(p)
	if err != nil {
		return false, err
	}
	defer dir.Close()
	infos, err := dir.Readdir(1)
	if len(infos) > 0 {
		return false, nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return true, nil
}

func clean(op, name string) (string, error) {
	p, err := unifs.Clean(name)
	if err != nil {
		return "", unifs.Reop(err, op, name)
	}
	return p, nil
}
