package unifs

import (
	"errors"
)

// SkipDir can be returned by a WalkFunc to skip the directory it was called
// for. Returned for a file, it skips the rest of the parent directory.
var SkipDir = errors.New("skip this directory")

// WalkFunc is called by Walk for every visited path. err is non-nil when the
// path could not be listed; returning it stops the walk.
type WalkFunc func(name string, md Metadata, err error) error

// Walk visits root and everything below it, depth first and in name order.
// Symlinks are reported but not followed.
func Walk(fsys FS, root string, fn WalkFunc) error {
	root, err := Clean(root)
	if err != nil {
		return err
	}
	md, err := fsys.Stat(root)
	if err != nil {
		err = fn(root, md, err)
	} else {
		err = walk(fsys, root, md, fn)
	}
	if errors.Is(err, SkipDir) {
		return nil
	}
	return err
}

func walk(fsys FS, name string, md Metadata, fn WalkFunc) error {
	if err := fn(name, md, nil); err != nil || !md.IsDir() {
		return err
	}
	entries, err := fsys.ListDir(name)
	if err != nil {
		return fn(name, md, err)
	}
	list, err := entries.Collect()
	if err != nil {
		return fn(name, md, err)
	}
	SortEntries(list)
	for _, ent := range list {
		err := walk(fsys, Join(name, ent.Name), ent.Metadata, fn)
		if err != nil {
			if errors.Is(err, SkipDir) {
				if ent.Metadata.IsDir() {
					continue
				}
				return nil
			}
			return err
		}
	}
	return nil
}
