package absfsbridge

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/absfs/absfs"

	"github.com/absfs/unifs"
)

// FileSystem returns an absfs.FileSystem view of fsys. The view keeps its
// own working directory, starting at "/", and adds Open, Create, MkdirAll,
// RemoveAll and Truncate on top of the unifs operations. The returned value
// also has ReadDir, ReadFile and Sub methods; Sub gives an io/fs view of a
// directory.
//
// Files opened for writing are buffered in memory: their content reaches
// fsys on Sync and Close. Errors are *os.PathError values whose cause is an
// io/fs sentinel for missing, existing and forbidden paths, so os.IsNotExist
// and friends work; the other kinds keep the unifs error as cause.
//
// Chmod, Chtimes and Chown are not supported by the unifs model and fail
// with errors.ErrUnsupported.
//
// Example:
//
//	stack, _ := stackfs.New([]unifs.FS{memfs.New(), base})
//	afs := absfsbridge.FileSystem(stack)
//	afs.Chdir("/app")
//	f, err := afs.Open("config.yml")
func FileSystem(fsys unifs.FS) absfs.FileSystem {
	f := &filer{fs: fsys, cwd: unifs.Root}
	return &view{FileSystem: absfs.ExtendFiler(f), f: f}
}

// filer implements absfs.Filer over a unifs.FS. It also implements the
// optional absfs interfaces for the working directory so that every path
// goes through resolve.
type filer struct {
	fs unifs.FS

	mu  sync.RWMutex
	cwd string
}

var _ absfs.Filer = (*filer)(nil)

const writeAccess = os.O_WRONLY | os.O_RDWR

// resolve makes name absolute against the working directory. Cleaning is
// left to the backend.
func (f *filer) resolve(name string) string {
	name = filepath.ToSlash(name)
	if path.IsAbs(name) {
		return name
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return path.Join(f.cwd, name)
}

func (f *filer) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	const op = "open"
	p := f.resolve(name)
	md, err := f.fs.Stat(p)
	exists := err == nil
	if err != nil && !unifs.IsNotFound(err) {
		return nil, osError(op, name, err)
	}

	if exists && md.IsDir() {
		if flag&writeAccess != 0 {
			return nil, osError(op, name, unifs.NewError(op, p, unifs.IsADirectory))
		}
		return newDir(f.fs, name, p), nil
	}
	if !exists && flag&os.O_CREATE == 0 {
		return nil, osError(op, name, unifs.NewError(op, p, unifs.NotFound))
	}
	if exists && flag&(os.O_CREATE|os.O_EXCL) == os.O_CREATE|os.O_EXCL {
		return nil, osError(op, name, unifs.NewError(op, p, unifs.AlreadyExists))
	}

	file := &file{fs: f.fs, name: name, path: p, flag: flag, perm: perm.Perm()}
	if exists {
		file.perm = md.Perm
	}
	switch {
	case !exists, flag&os.O_TRUNC != 0 && flag&writeAccess != 0:
		if err := f.fs.WriteFile(p, nil, unifs.WriteOptions{Perm: file.perm}); err != nil {
			return nil, osError(op, name, err)
		}
	default:
		if file.data, err = f.fs.ReadFile(p); err != nil {
			return nil, osError(op, name, err)
		}
	}
	return file, nil
}

func (f *filer) Mkdir(name string, perm os.FileMode) error {
	return osError("mkdir", name, f.fs.Mkdir(f.resolve(name), unifs.MkdirOptions{Perm: perm.Perm()}))
}

func (f *filer) MkdirAll(name string, perm os.FileMode) error {
	opts := unifs.MkdirOptions{Recursive: true, Perm: perm.Perm()}
	return osError("mkdir", name, f.fs.Mkdir(f.resolve(name), opts))
}

func (f *filer) Remove(name string) error {
	return osError("remove", name, f.fs.Remove(f.resolve(name), unifs.RemoveOptions{}))
}

func (f *filer) RemoveAll(name string) error {
	return osError("remove", name, unifs.RemoveAll(f.fs, f.resolve(name)))
}

// Rename replaces an existing destination, as os.Rename does.
func (f *filer) Rename(oldpath, newpath string) error {
	err := f.fs.Rename(f.resolve(oldpath), f.resolve(newpath), unifs.RenameOptions{Overwrite: true})
	if err == nil {
		return nil
	}
	return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: cause(err)}
}

func (f *filer) Stat(name string) (os.FileInfo, error) {
	p := f.resolve(name)
	md, err := f.fs.Stat(p)
	if err != nil {
		return nil, osError("stat", name, err)
	}
	return unifs.FileInfo(unifs.Base(p), md), nil
}

func (f *filer) Chmod(name string, _ os.FileMode) error {
	return &os.PathError{Op: "chmod", Path: name, Err: errors.ErrUnsupported}
}

func (f *filer) Chtimes(name string, _, _ time.Time) error {
	return &os.PathError{Op: "chtimes", Path: name, Err: errors.ErrUnsupported}
}

func (f *filer) Chown(name string, _, _ int) error {
	return &os.PathError{Op: "chown", Path: name, Err: errors.ErrUnsupported}
}

func (f *filer) Chdir(dir string) error {
	p := f.resolve(dir)
	md, err := f.fs.Stat(p)
	if err != nil {
		return osError("chdir", dir, err)
	}
	if !md.IsDir() {
		return osError("chdir", dir, unifs.NewError("chdir", p, unifs.NotADirectory))
	}
	f.mu.Lock()
	f.cwd = p
	f.mu.Unlock()
	return nil
}

func (f *filer) Getwd() (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cwd, nil
}

func (f *filer) TempDir() string {
	return "/tmp"
}

func (f *filer) Truncate(name string, size int64) error {
	const op = "truncate"
	if size < 0 {
		return &os.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	p := f.resolve(name)
	md, err := f.fs.Stat(p)
	if err != nil {
		return osError(op, name, err)
	}
	if md.IsDir() {
		return osError(op, name, unifs.NewError(op, p, unifs.IsADirectory))
	}
	data, err := f.fs.ReadFile(p)
	if err != nil {
		return osError(op, name, err)
	}
	data = resize(data, size)
	return osError(op, name, f.fs.WriteFile(p, data, unifs.WriteOptions{Perm: md.Perm}))
}

// ReadDir returns the entries of name sorted by file name, as
// fs.ReadDirFS requires.
func (f *filer) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := f.fs.ListDir(f.resolve(name))
	if err != nil {
		return nil, osError("readdir", name, err)
	}
	list, err := entries.Collect()
	if err != nil {
		return nil, osError("readdir", name, err)
	}
	unifs.SortEntries(list)
	out := make([]fs.DirEntry, len(list))
	for i, e := range list {
		out[i] = fs.FileInfoToDirEntry(unifs.FileInfo(e.Name, e.Metadata))
	}
	return out, nil
}

func (f *filer) ReadFile(name string) ([]byte, error) {
	data, err := f.fs.ReadFile(f.resolve(name))
	if err != nil {
		return nil, osError("read", name, err)
	}
	return data, nil
}

func (f *filer) Sub(dir string) (fs.FS, error) {
	return subDir(f.fs, "sub", dir, path.Clean(f.resolve(dir)))
}

// Separator returns the path separator, always '/'.
func (f *filer) Separator() uint8 {
	return unifs.Separator
}

// ListSeparator returns the path list separator, always ':'.
func (f *filer) ListSeparator() uint8 {
	return ':'
}

// osError converts a unifs error into the *os.PathError absfs callers expect.
func osError(op, name string, err error) error {
	if err == nil {
		return nil
	}
	return &os.PathError{Op: op, Path: name, Err: cause(err)}
}

func cause(err error) error {
	switch unifs.KindOf(err) {
	case unifs.NotFound:
		return fs.ErrNotExist
	case unifs.AlreadyExists:
		return fs.ErrExist
	case unifs.PermissionDenied:
		return fs.ErrPermission
	}
	return err
}

func resize(data []byte, size int64) []byte {
	if size <= int64(len(data)) {
		return data[:size]
	}
	return append(data, make([]byte, int(size)-len(data))...)
}
