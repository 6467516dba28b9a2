//go:build unix

package native

import (
	"errors"

	"github.com/absfs/unifs"
	"golang.org/x/sys/unix"
)

func errnoKind(err error) (unifs.Kind, bool) {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return unifs.Other, false
	}
	switch errno {
	case unix.ENOENT:
		return unifs.NotFound, true
	case unix.EEXIST:
		return unifs.AlreadyExists, true
	case unix.ENOTDIR:
		return unifs.NotADirectory, true
	case unix.EISDIR:
		return unifs.IsADirectory, true
	case unix.ENOTEMPTY:
		return unifs.DirectoryNotEmpty, true
	case unix.EROFS:
		return unifs.ReadOnly, true
	case unix.EACCES, unix.EPERM:
		return unifs.PermissionDenied, true
	}
	return unifs.Other, false
}
