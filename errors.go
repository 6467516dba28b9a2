package unifs

import (
	"errors"
	"io/fs"
)

// Kind classifies a filesystem failure. The set is the same for every backend,
// so callers branch on it without knowing which backend produced the error.
type Kind uint8

const (
	// Other covers backend-specific failures that have no better kind, such as
	// host I/O errors. The PathError carries the cause.
	Other Kind = iota
	// NotFound means the path does not exist.
	NotFound
	// AlreadyExists means a create or rename target is occupied.
	AlreadyExists
	// NotADirectory means a directory was expected and something else was found.
	NotADirectory
	// IsADirectory means a file was expected and a directory was found.
	IsADirectory
	// DirectoryNotEmpty means a non-recursive remove hit a populated directory.
	DirectoryNotEmpty
	// ReadOnly means the backend or a wrapper forbids mutation.
	ReadOnly
	// PermissionDenied means backend access control rejected the operation.
	PermissionDenied
)

var kindNames = [...]string{
	Other:             "other error",
	NotFound:          "not found",
	AlreadyExists:     "already exists",
	NotADirectory:     "not a directory",
	IsADirectory:      "is a directory",
	DirectoryNotEmpty: "directory not empty",
	ReadOnly:          "read-only filesystem",
	PermissionDenied:  "permission denied",
}

// String returns a human readable name for the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[Other]
}

// Error makes a Kind usable as a sentinel error.
func (k Kind) Error() string {
	return k.String()
}

// Is lets Kind values match the io/fs sentinels, so code written against the
// standard library keeps working with errors.Is(err, fs.ErrNotExist).
func (k Kind) Is(target error) bool {
	switch k {
	case NotFound:
		return target == fs.ErrNotExist
	case AlreadyExists:
		return target == fs.ErrExist
	case PermissionDenied, ReadOnly:
		return target == fs.ErrPermission
	}
	return false
}

// Sentinels for errors.Is.
var (
	ErrNotFound          error = NotFound
	ErrAlreadyExists     error = AlreadyExists
	ErrNotADirectory     error = NotADirectory
	ErrIsADirectory      error = IsADirectory
	ErrDirectoryNotEmpty error = DirectoryNotEmpty
	ErrReadOnly          error = ReadOnly
	ErrPermissionDenied  error = PermissionDenied
	ErrOther             error = Other
)

// PathError records a failed operation on a path. Every error returned by an
// FS operation is a *PathError.
type PathError struct {
	Op   string
	Path string
	Kind Kind
	// Err is the underlying cause, if any. It carries the detail of an
	// Other error and the native error of translated host failures.
	Err error
}

func (e *PathError) Error() string {
	msg := e.Op + " " + e.Path + ": " + e.Kind.String()
	if e.Err != nil && e.Err.Error() != e.Kind.String() {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *PathError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError returns a *PathError with the given kind and no cause.
func NewError(op, path string, kind Kind) error {
	return &PathError{Op: op, Path: path, Kind: kind}
}

// WrapError returns a *PathError with the given kind wrapping cause.
func WrapError(op, path string, kind Kind, cause error) error {
	return &PathError{Op: op, Path: path, Kind: kind, Err: cause}
}

// OtherError returns an Other error carrying a human readable detail.
func OtherError(op, path, detail string) error {
	return &PathError{Op: op, Path: path, Kind: Other, Err: errors.New(detail)}
}

// KindOf returns the kind of err. Errors that carry no kind are Other.
func KindOf(err error) Kind {
	var pe *PathError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Other
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == NotFound
}

// Reop returns err with its operation and path replaced, keeping the kind
// and cause. Wrappers use it to report the caller's view of a path.
func Reop(err error, op, path string) error {
	var pe *PathError
	if !errors.As(err, &pe) {
		return WrapError(op, path, Other, err)
	}
	return &PathError{Op: op, Path: path, Kind: pe.Kind, Err: pe.Err}
}
