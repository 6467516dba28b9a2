package unifs

import (
	"errors"
	"path"
	"strings"
)

// Separator is the only path separator understood by unifs. Paths are
// virtual and always use forward slashes, whatever the host.
const Separator = '/'

// Root is the cleaned form of a backend's root directory.
const Root = "/"

// Clean normalizes name into an absolute, slash-separated path rooted at the
// backend root. Relative names are interpreted against the root. ".." is
// resolved lexically; climbing above the root fails with NotFound, so no
// backend can ever be asked to resolve a path outside itself.
func Clean(name string) (string, error) {
	segs, err := Split(name)
	if err != nil {
		return "", err
	}
	return "/" + strings.Join(segs, "/"), nil
}

// MustClean is Clean for names known to be valid, such as literals in tests.
func MustClean(name string) string {
	p, err := Clean(name)
	if err != nil {
		panic(err)
	}
	return p
}

// Split returns the ordered segments of name after normalization. The root
// has no segments.
func Split(name string) ([]string, error) {
	if strings.IndexByte(name, 0) >= 0 {
		return nil, OtherError("clean", name, "invalid NUL byte in path")
	}
	segs := make([]string, 0, strings.Count(name, "/")+1)
	for _, s := range strings.Split(name, "/") {
		switch s {
		case "", ".":
		case "..":
			if len(segs) == 0 {
				return nil, WrapError("clean", name, NotFound, errNoParent)
			}
			segs = segs[:len(segs)-1]
		default:
			segs = append(segs, s)
		}
	}
	return segs, nil
}

var errNoParent = errors.New("path escapes the root")

// Join joins elements into a cleaned path without applying the root escape
// check. Use it only on components that are already clean.
func Join(elem ...string) string {
	p := path.Join(elem...)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// Dir returns all but the last element of a clean path.
func Dir(name string) string {
	return Join(path.Dir(name))
}

// Base returns the last element of a clean path, or "/" for the root.
func Base(name string) string {
	return path.Base(name)
}

// IsRoot reports whether a clean path is the root.
func IsRoot(name string) bool {
	return name == Root
}

// HasPrefix reports whether the clean path name equals dir or lies below it.
func HasPrefix(name, dir string) bool {
	if dir == Root {
		return true
	}
	return name == dir || strings.HasPrefix(name, dir+"/")
}
