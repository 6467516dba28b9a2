package absfsbridge

import (
	"io"
	"io/fs"
	"os"

	"github.com/absfs/absfs"

	"github.com/absfs/unifs"
)

// dir is an open directory. Its listing is read from the backend on first
// use and served from memory afterwards.
type dir struct {
	fs      unifs.FS
	name    string
	path    string
	entries []fs.FileInfo
	offset  int
	closed  bool
}

var _ absfs.File = (*dir)(nil)

func newDir(fsys unifs.FS, name, p string) *dir {
	return &dir{fs: fsys, name: name, path: p}
}

func (d *dir) isDir(op string) error {
	return osError(op, d.name, unifs.NewError(op, d.path, unifs.IsADirectory))
}

func (d *dir) Close() error {
	if d.closed {
		return &os.PathError{Op: "close", Path: d.name, Err: os.ErrClosed}
	}
	d.closed = true
	return nil
}

func (d *dir) Read([]byte) (int, error) {
	return 0, d.isDir("read")
}

func (d *dir) ReadAt([]byte, int64) (int, error) {
	return 0, d.isDir("read")
}

func (d *dir) Write([]byte) (int, error) {
	return 0, d.isDir("write")
}

func (d *dir) WriteAt([]byte, int64) (int, error) {
	return 0, d.isDir("write")
}

func (d *dir) WriteString(string) (int, error) {
	return 0, d.isDir("write")
}

func (d *dir) Truncate(int64) error {
	return d.isDir("truncate")
}

func (d *dir) Sync() error {
	return nil
}

func (d *dir) Name() string {
	return d.name
}

// Seek repositions the listing. Only offset 0 from the start is
// meaningful to callers, as with os.File.
func (d *dir) Seek(offset int64, whence int) (int64, error) {
	if d.closed {
		return 0, os.ErrClosed
	}
	switch whence {
	case io.SeekStart:
		d.offset = int(offset)
	case io.SeekCurrent:
		d.offset += int(offset)
	case io.SeekEnd:
		if err := d.load(); err != nil {
			return 0, err
		}
		d.offset = len(d.entries) + int(offset)
	}
	d.offset = max(d.offset, 0)
	return int64(d.offset), nil
}

// Readdir follows os.File.Readdir: with count > 0 it returns at most count
// entries and io.EOF at the end, otherwise everything that is left.
func (d *dir) Readdir(count int) ([]os.FileInfo, error) {
	if d.closed {
		return nil, os.ErrClosed
	}
	if err := d.load(); err != nil {
		return nil, err
	}
	if d.offset >= len(d.entries) {
		if count > 0 {
			return nil, io.EOF
		}
		return nil, nil
	}
	end := len(d.entries)
	if count > 0 {
		end = min(d.offset+count, end)
	}
	result := d.entries[d.offset:end]
	d.offset = end
	return result, nil
}

func (d *dir) Readdirnames(count int) ([]string, error) {
	infos, err := d.Readdir(count)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

func (d *dir) ReadDir(count int) ([]fs.DirEntry, error) {
	infos, err := d.Readdir(count)
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(info)
	}
	return entries, nil
}

func (d *dir) Stat() (os.FileInfo, error) {
	if d.closed {
		return nil, os.ErrClosed
	}
	md, err := d.fs.Stat(d.path)
	if err != nil {
		return nil, osError("stat", d.name, err)
	}
	return unifs.FileInfo(unifs.Base(d.path), md), nil
}

func (d *dir) load() error {
	if d.entries != nil {
		return nil
	}
	entries, err := d.fs.ListDir(d.path)
	if err != nil {
		return osError("readdir", d.name, err)
	}
	list, err := entries.Collect()
	if err != nil {
		return osError("readdir", d.name, err)
	}
	unifs.SortEntries(list)
	d.entries = make([]fs.FileInfo, len(list))
	for i, e := range list {
		d.entries[i] = unifs.FileInfo(e.Name, e.Metadata)
	}
	return nil
}
