package unifs

// The checks below are shared by backends so that the same situation yields
// the same Kind everywhere.

// CheckRenamePaths validates clean rename paths before either is looked up.
// It reports whether the rename is a no-op.
func CheckRenamePaths(op, oldname, newname string) (noop bool, err error) {
	if IsRoot(oldname) || IsRoot(newname) {
		return false, OtherError(op, oldname, "cannot rename the root directory")
	}
	if oldname == newname {
		return true, nil
	}
	if HasPrefix(newname, oldname) {
		return false, OtherError(op, newname, "cannot move a directory into itself")
	}
	return false, nil
}

// CheckOverwrite decides whether src may replace the existing dst. dstEmpty
// is only consulted when both are directories.
func CheckOverwrite(op, newname string, src, dst Metadata, dstEmpty bool, opts RenameOptions) error {
	if !opts.Overwrite {
		return NewError(op, newname, AlreadyExists)
	}
	switch {
	case src.IsDir() && !dst.IsDir():
		return NewError(op, newname, NotADirectory)
	case !src.IsDir() && dst.IsDir():
		return NewError(op, newname, IsADirectory)
	case src.IsDir() && dst.IsDir() && !dstEmpty:
		return NewError(op, newname, DirectoryNotEmpty)
	}
	return nil
}
