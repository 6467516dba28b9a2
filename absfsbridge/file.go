package absfsbridge

import (
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/absfs/absfs"

	"github.com/absfs/unifs"
)

// file is an open regular file. Its content lives in memory from open to
// close; writes are flushed to the backend with WriteFile on Sync and Close.
type file struct {
	fs   unifs.FS
	name string
	path string
	flag int
	perm fs.FileMode

	mu     sync.Mutex
	data   []byte
	off    int64
	dirty  bool
	closed bool
}

var _ absfs.File = (*file)(nil)

func (f *file) Name() string {
	return f.name
}

func (f *file) readable() bool {
	return f.flag&os.O_WRONLY == 0
}

func (f *file) writable() bool {
	return f.flag&writeAccess != 0
}

func (f *file) check(op string, allowed bool) error {
	if f.closed {
		return &os.PathError{Op: op, Path: f.name, Err: os.ErrClosed}
	}
	if !allowed {
		return &os.PathError{Op: op, Path: f.name, Err: fs.ErrPermission}
	}
	return nil
}

func (f *file) Read(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("read", f.readable()); err != nil {
		return 0, err
	}
	n, err := f.readAt(b, f.off)
	f.off += int64(n)
	return n, err
}

func (f *file) ReadAt(b []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("read", f.readable()); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, &os.PathError{Op: "readat", Path: f.name, Err: fs.ErrInvalid}
	}
	n, err := f.readAt(b, off)
	if err == nil && n < len(b) {
		err = io.EOF
	}
	return n, err
}

func (f *file) readAt(b []byte, off int64) (int, error) {
	if off >= int64(len(f.data)) {
		if len(b) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	return copy(b, f.data[off:]), nil
}

func (f *file) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("write", f.writable()); err != nil {
		return 0, err
	}
	if f.flag&os.O_APPEND != 0 {
		f.off = int64(len(f.data))
	}
	n := f.writeAt(b, f.off)
	f.off += int64(n)
	return n, nil
}

func (f *file) WriteAt(b []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("write", f.writable()); err != nil {
		return 0, err
	}
	if f.flag&os.O_APPEND != 0 {
		return 0, &os.PathError{Op: "writeat", Path: f.name, Err: fs.ErrInvalid}
	}
	if off < 0 {
		return 0, &os.PathError{Op: "writeat", Path: f.name, Err: fs.ErrInvalid}
	}
	return f.writeAt(b, off), nil
}

func (f *file) writeAt(b []byte, off int64) int {
	if end := off + int64(len(b)); end > int64(len(f.data)) {
		f.data = resize(f.data, end)
	}
	f.dirty = true
	return copy(f.data[off:], b)
}

func (f *file) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

func (f *file) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("seek", true); err != nil {
		return 0, err
	}
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += f.off
	case io.SeekEnd:
		offset += int64(len(f.data))
	default:
		return 0, &os.PathError{Op: "seek", Path: f.name, Err: fs.ErrInvalid}
	}
	if offset < 0 {
		return 0, &os.PathError{Op: "seek", Path: f.name, Err: fs.ErrInvalid}
	}
	f.off = offset
	return offset, nil
}

func (f *file) Truncate(size int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("truncate", f.writable()); err != nil {
		return err
	}
	if size < 0 {
		return &os.PathError{Op: "truncate", Path: f.name, Err: fs.ErrInvalid}
	}
	f.data = resize(f.data, size)
	f.dirty = true
	return nil
}

func (f *file) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("sync", true); err != nil {
		return err
	}
	return f.flush()
}

func (f *file) flush() error {
	if !f.dirty {
		return nil
	}
	if err := f.fs.WriteFile(f.path, f.data, unifs.WriteOptions{Perm: f.perm}); err != nil {
		return osError("write", f.name, err)
	}
	f.dirty = false
	return nil
}

func (f *file) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return &os.PathError{Op: "close", Path: f.name, Err: os.ErrClosed}
	}
	f.closed = true
	err := f.flush()
	f.data = nil
	return err
}

// Stat reports the backend metadata with the size of the buffered content.
func (f *file) Stat() (os.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("stat", true); err != nil {
		return nil, err
	}
	md, err := f.fs.Stat(f.path)
	if err != nil {
		return nil, osError("stat", f.name, err)
	}
	md.Size = int64(len(f.data))
	return unifs.FileInfo(unifs.Base(f.path), md), nil
}

func (f *file) notDir(op string) error {
	return osError(op, f.name, unifs.NewError(op, f.path, unifs.NotADirectory))
}

func (f *file) Readdir(int) ([]os.FileInfo, error) {
	return nil, f.notDir("readdir")
}

func (f *file) Readdirnames(int) ([]string, error) {
	return nil, f.notDir("readdir")
}

func (f *file) ReadDir(int) ([]fs.DirEntry, error) {
	return nil, f.notDir("readdir")
}
