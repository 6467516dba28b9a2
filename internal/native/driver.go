// Package native implements unifs.FS on top of a primitive, host-style
// driver. Drivers only move bytes; every contract check (kind mismatches,
// emptiness, overwrite rules, error kinds) lives here so that the host
// filesystem and the adapted libraries all behave the same way.
package native

import (
	"io"
	"io/fs"
	"os"
)

// Driver is the primitive surface of a native filesystem. Names are always
// clean absolute unifs paths ("/" is the driver root). Errors may be native;
// they are translated by the caller.
type Driver interface {
	// Stat follows symlinks.
	Stat(name string) (fs.FileInfo, error)
	// Lstat does not follow symlinks. Drivers without symlinks may Stat.
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	// WriteFile opens name with flag and perm and writes data.
	WriteFile(name string, data []byte, flag int, perm fs.FileMode) error
	// Mkdir creates a single directory.
	Mkdir(name string, perm fs.FileMode) error
	// Remove removes a file or an empty directory.
	Remove(name string) error
	RemoveAll(name string) error
	Rename(oldname, newname string) error
	OpenDir(name string) (DirReader, error)
}

// DirReader reads a directory in batches. Readdir follows the contract of
// os.File.Readdir with n > 0: it returns io.EOF once nothing is left.
type DirReader interface {
	Readdir(n int) ([]fs.FileInfo, error)
	Close() error
}

// Flags used for the two write modes.
const (
	flagTruncate = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	flagAppend   = os.O_WRONLY | os.O_APPEND
)

// SliceReader returns a DirReader over a listing that was read in full.
func SliceReader(infos []fs.FileInfo) DirReader {
	return &sliceReader{infos: infos}
}

type sliceReader struct {
	infos []fs.FileInfo
}

func (r *sliceReader) Readdir(n int) ([]fs.FileInfo, error) {
	if len(r.infos) == 0 {
		return nil, io.EOF
	}
	if n <= 0 || n > len(r.infos) {
		n = len(r.infos)
	}
	batch := r.infos[:n]
	r.infos = r.infos[n:]
	return batch, nil
}

func (r *sliceReader) Close() error {
	r.infos = nil
	return nil
}
