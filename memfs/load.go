package memfs

import (
	"sort"
	"strings"

	"github.com/absfs/unifs"
)

// FromMap builds a filesystem from an initial tree. Keys are paths; a key
// ending in "/" names a directory and its value is ignored. Parent
// directories are created as needed.
func FromMap(files map[string][]byte, opts ...Option) (*FS, error) {
	m := New(opts...)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		clean, err := unifs.Clean(name)
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(name, "/") {
			if err := unifs.MkdirAll(m, clean); err != nil {
				return nil, err
			}
			continue
		}
		if err := unifs.MkdirAll(m, unifs.Dir(clean)); err != nil {
			return nil, err
		}
		if err := m.WriteFile(clean, files[name], unifs.WriteOptions{}); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Load copies the subtree at dir of src into a new in-memory filesystem,
// rooted so that dir becomes "/". Permission bits are preserved. Symlinks
// cannot be represented in the tree and make Load fail.
func Load(src unifs.FS, dir string, opts ...Option) (*FS, error) {
	dir, err := unifs.Clean(dir)
	if err != nil {
		return nil, err
	}
	m := New(opts...)
	err = unifs.Walk(src, dir, func(name string, md unifs.Metadata, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(name, dir)
		if dir == unifs.Root {
			rel = name
		}
		switch md.Type {
		case unifs.TypeDir:
			if rel == "" || unifs.IsRoot(rel) {
				return nil
			}
			return m.Mkdir(rel, unifs.MkdirOptions{Perm: md.Perm})
		case unifs.TypeFile:
			if rel == "" {
				return unifs.NewError("load", name, unifs.NotADirectory)
			}
			_, err := unifs.Copy(src, name, m, rel)
			return err
		default:
			return unifs.OtherError("load", name, md.Type.String()+" not supported")
		}
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
