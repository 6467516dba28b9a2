package unifs

import "io/fs"

// FS is the capability set every backend implements. Each call is
// synchronous and atomic with respect to other calls on the same backend: no
// caller observes a partially applied mutation. Nothing orders concurrent
// calls beyond that; callers that need a sequence to be atomic must
// coordinate themselves.
//
// Names are slash-separated and interpreted relative to the backend root
// (see Clean). Every error is a *PathError whose Kind is backend
// independent.
type FS interface {
	// ReadFile returns the contents of a file.
	// Fails with NotFound or IsADirectory.
	ReadFile(name string) ([]byte, error)

	// WriteFile stores data in a file. Truncate mode creates the file if
	// needed; Append mode requires it to exist. Fails with NotFound when the
	// parent (or, for Append, the file) is missing, IsADirectory when name is
	// a directory, NotADirectory when the parent is a file, and ReadOnly when
	// the backend denies mutation.
	WriteFile(name string, data []byte, opts WriteOptions) error

	// Mkdir creates a directory. A non-directory at name fails with
	// AlreadyExists, as does an existing directory unless opts.Recursive is
	// set. Without Recursive a missing parent fails with NotFound; with it
	// missing ancestors are created.
	Mkdir(name string, opts MkdirOptions) error

	// Remove deletes a file or directory. Fails with NotFound when absent and
	// DirectoryNotEmpty for a populated directory unless opts.Recursive is
	// set.
	Remove(name string, opts RemoveOptions) error

	// ListDir lists the direct children of a directory. The returned
	// iterator is lazy and single pass; order is backend-defined. Fails with
	// NotFound or NotADirectory.
	ListDir(name string) (*Entries, error)

	// Stat describes a path. Fails with NotFound.
	Stat(name string) (Metadata, error)

	// Rename moves oldname to newname. Fails with NotFound when oldname is
	// absent and AlreadyExists when newname exists and opts.Overwrite is not
	// set.
	Rename(oldname, newname string, opts RenameOptions) error
}

// WriteMode selects how WriteFile treats existing content.
type WriteMode uint8

const (
	// Truncate replaces the content, creating the file when absent.
	Truncate WriteMode = iota
	// Append adds to the end of an existing file.
	Append
)

// Default permissions for new files and directories.
const (
	DefaultFilePerm fs.FileMode = 0o644
	DefaultDirPerm  fs.FileMode = 0o755
)

// WriteOptions configures WriteFile.
type WriteOptions struct {
	Mode WriteMode
	// Perm is used when the file is created. Zero means DefaultFilePerm.
	Perm fs.FileMode
}

// FilePerm returns the permission bits to create a file with.
func (o WriteOptions) FilePerm() fs.FileMode {
	if o.Perm == 0 {
		return DefaultFilePerm
	}
	return o.Perm.Perm()
}

// MkdirOptions configures Mkdir.
type MkdirOptions struct {
	Recursive bool
	// Perm is used for every directory created. Zero means DefaultDirPerm.
	Perm fs.FileMode
}

// DirPerm returns the permission bits to create directories with.
func (o MkdirOptions) DirPerm() fs.FileMode {
	if o.Perm == 0 {
		return DefaultDirPerm
	}
	return o.Perm.Perm()
}

// RemoveOptions configures Remove.
type RemoveOptions struct {
	Recursive bool
}

// RenameOptions configures Rename.
type RenameOptions struct {
	// Overwrite allows replacing an existing destination. A file never
	// replaces a directory, a directory never replaces a file, and a
	// directory only replaces an empty directory.
	Overwrite bool
}

// Unwrapper is implemented by wrappers that decorate a single backend.
type Unwrapper interface {
	Unwrap() FS
}
