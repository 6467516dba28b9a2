package unifs

import (
	"errors"
	"io"
)

// Exists reports whether name exists. A NotFound error is reported as false;
// any other failure is returned, since existence could not be decided.
func Exists(fsys FS, name string) (bool, error) {
	_, err := fsys.Stat(name)
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// ReadString reads a whole file as a string.
func ReadString(fsys FS, name string) (string, error) {
	data, err := fsys.ReadFile(name)
	return string(data), err
}

// WriteString replaces the content of name with s, creating the file if
// needed.
func WriteString(fsys FS, name, s string) error {
	return fsys.WriteFile(name, []byte(s), WriteOptions{})
}

// MkdirAll creates name and any missing parents.
func MkdirAll(fsys FS, name string) error {
	return fsys.Mkdir(name, MkdirOptions{Recursive: true})
}

// RemoveAll removes name and everything below it. A missing path is not an
// error.
func RemoveAll(fsys FS, name string) error {
	err := fsys.Remove(name, RemoveOptions{Recursive: true})
	if IsNotFound(err) {
		return nil
	}
	return err
}

// IsEmptyDir reports whether the directory name has no entries.
func IsEmptyDir(fsys FS, name string) (bool, error) {
	entries, err := fsys.ListDir(name)
	if err != nil {
		return false, err
	}
	defer entries.Close()
	_, err = entries.Next()
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}

// Copy copies the file srcName of src into dstName of dst, replacing any
// existing file and keeping the permission bits. src and dst may be
// different backends. It returns the number of bytes copied.
func Copy(src FS, srcName string, dst FS, dstName string) (int64, error) {
	md, err := src.Stat(srcName)
	if err != nil {
		return 0, err
	}
	if md.IsDir() {
		return 0, NewError("copy", srcName, IsADirectory)
	}
	data, err := src.ReadFile(srcName)
	if err != nil {
		return 0, err
	}
	if err := dst.WriteFile(dstName, data, WriteOptions{Perm: md.Perm}); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}
