package native

import (
	"errors"
	"io/fs"

	"github.com/absfs/unifs"
)

// Translate maps a native error onto the unifs taxonomy. Errors that are
// already *unifs.PathError keep their kind and get op and name.
func Translate(op, name string, err error) error {
	if err == nil {
		return nil
	}
	var pe *unifs.PathError
	if errors.As(err, &pe) {
		return unifs.Reop(err, op, name)
	}
	return unifs.WrapError(op, name, kindOf(err), err)
}

func kindOf(err error) unifs.Kind {
	if k, ok := errnoKind(err); ok {
		return k
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return unifs.NotFound
	case errors.Is(err, fs.ErrExist):
		return unifs.AlreadyExists
	case errors.Is(err, fs.ErrPermission):
		return unifs.PermissionDenied
	}
	return unifs.Other
}
