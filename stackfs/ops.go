package stackfs

import (
	"github.com/absfs/unifs"
)

// ReadFile reads from the topmost layer that shows name.
func (s *FS) ReadFile(name string) ([]byte, error) {
	const op = "read"
	p, err := clean(op, name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	md, layer, err := s.resolve(op, name, p)
	if err != nil {
		return nil, err
	}
	if md.IsDir() {
		return nil, unifs.NewError(op, name, unifs.IsADirectory)
	}
	return s.layers[layer].ReadFile(p)
}

// Stat describes name as the topmost layer showing it does. For a directory
// that is the topmost layer having it, whatever the layers below hold.
func (s *FS) Stat(name string) (unifs.Metadata, error) {
	const op = "stat"
	p, err := clean(op, name)
	if err != nil {
		return unifs.Metadata{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	md, _, err := s.resolve(op, name, p)
	return md, err
}

// ListDir returns the union of the visible layers' entries in name order.
// Upper entries shadow lower ones of the same name and stack markers are
// never listed. The listing is a snapshot taken when ListDir is called.
func (s *FS) ListDir(name string) (*unifs.Entries, error) {
	const op = "readdir"
	p, err := clean(op, name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	md, layer, err := s.resolve(op, name, p)
	if err != nil {
		return nil, err
	}
	if !md.IsDir() {
		return nil, unifs.NewError(op, name, unifs.NotADirectory)
	}
	entries, err := s.merge(p, layer)
	if err != nil {
		return nil, err
	}
	return unifs.EntriesOf(entries), nil
}

// WriteFile writes to the top layer. A file shown by a lower layer is copied
// up in full first, along with its parents.
func (s *FS) WriteFile(name string, data []byte, opts unifs.WriteOptions) error {
	const op = "write"
	p, err := s.mutable(op, name)
	if err != nil {
		return err
	}
	if unifs.IsRoot(p) {
		return unifs.NewError(op, name, unifs.IsADirectory)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	md, layer, err := s.resolve(op, name, p)
	switch {
	case err == nil && md.IsDir():
		return unifs.NewError(op, name, unifs.IsADirectory)
	case err == nil:
		if err := s.copyUp(p, md, layer); err != nil {
			return err
		}
	case unifs.IsNotFound(err):
		if err := s.requireDir(op, name, unifs.Dir(p)); err != nil {
			return err
		}
		if opts.Mode == unifs.Append {
			return unifs.NewError(op, name, unifs.NotFound)
		}
		if err := s.copyUpParents(p); err != nil {
			return err
		}
		if _, err := s.clearWhiteout(p); err != nil {
			return err
		}
	default:
		return err
	}

	defer s.invalidate(p, true)
	return s.top().WriteFile(p, data, opts)
}

// Mkdir creates directories in the top layer. A directory created where a
// whiteout hid lower content is made opaque, so that content stays hidden.
func (s *FS) Mkdir(name string, opts unifs.MkdirOptions) error {
	const op = "mkdir"
	p, err := s.mutable(op, name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !opts.Recursive {
		if unifs.IsRoot(p) {
			return unifs.NewError(op, name, unifs.AlreadyExists)
		}
		return s.mkdir(op, name, p, opts)
	}

	segs := segments(p)
	dir := unifs.Root
	for i, seg := range segs {
		dir = unifs.Join(dir, seg)
		md, _, err := s.resolve(op, name, dir)
		switch {
		case err == nil && md.IsDir():
		case err == nil && i == len(segs)-1:
			return unifs.NewError(op, name, unifs.AlreadyExists)
		case err == nil:
			return unifs.NewError(op, name, unifs.NotADirectory)
		case unifs.IsNotFound(err):
			if err := s.mkdir(op, name, dir, opts); err != nil {
				return err
			}
		default:
			return err
		}
	}
	return nil
}

func (s *FS) mkdir(op, name, p string, opts unifs.MkdirOptions) error {
	_, _, err := s.resolve(op, name, p)
	if err == nil {
		return unifs.NewError(op, name, unifs.AlreadyExists)
	}
	if !unifs.IsNotFound(err) {
		return err
	}
	if err := s.requireDir(op, name, unifs.Dir(p)); err != nil {
		return err
	}
	if err := s.copyUpParents(p); err != nil {
		return err
	}
	hadWhiteout, err := s.clearWhiteout(p)
	if err != nil {
		return err
	}

	defer s.invalidate(p, true)
	if err := s.top().Mkdir(p, unifs.MkdirOptions{Perm: opts.Perm}); err != nil {
		return err
	}
	if hadWhiteout {
		return s.markOpaque(p)
	}
	return nil
}

// Remove deletes the top layer's copy of name and leaves a whiteout when a
// lower layer would still show it. Lower layers are never modified.
func (s *FS) Remove(name string, opts unifs.RemoveOptions) error {
	const op = "remove"
	p, err := clean(op, name)
	if err != nil {
		return err
	}
	if unifs.IsRoot(p) {
		return unifs.OtherError(op, name, "cannot remove the root directory")
	}
	if err := s.writable(op, name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	md, layer, err := s.resolve(op, name, p)
	if err != nil {
		return err
	}
	if md.IsDir() && !opts.Recursive {
		empty, err := s.isEmpty(p, layer)
		if err != nil {
			return err
		}
		if !empty {
			return unifs.NewError(op, name, unifs.DirectoryNotEmpty)
		}
	}

	defer s.invalidate(p, true)
	if layer == 0 {
		// The top copy of a directory may hold markers, so it is removed
		// recursively even when it looks empty.
		if err := s.top().Remove(p, unifs.RemoveOptions{Recursive: md.IsDir()}); err != nil {
			return err
		}
		s.invalidate(p, true)
	}
	return s.hideLower(op, name, p)
}

// hideLower writes a whiteout for p if a lower layer still shows it.
func (s *FS) hideLower(op, name, p string) error {
	_, _, err := s.resolve(op, name, p)
	switch {
	case err == nil:
	case unifs.IsNotFound(err), unifs.KindOf(err) == unifs.NotADirectory:
		return nil
	default:
		return err
	}
	if err := s.copyUpParents(p); err != nil {
		return err
	}
	return s.whiteout(p)
}

// Rename moves oldname to newname within the top layer. The merged source is
// copied up first, and a whiteout keeps lower copies of the source hidden.
// The whole sequence holds the stack lock, but it is not atomic with respect
// to anything writing the top layer around the stack.
func (s *FS) Rename(oldname, newname string, opts unifs.RenameOptions) error {
	const op = "rename"
	src, err := clean(op, oldname)
	if err != nil {
		return err
	}
	dst, err := s.mutable(op, newname)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	smd, slayer, err := s.resolve(op, oldname, src)
	if err != nil {
		return err
	}
	noop, err := unifs.CheckRenamePaths(op, src, dst)
	if err != nil || noop {
		return err
	}
	if err := s.requireDir(op, newname, unifs.Dir(dst)); err != nil {
		return err
	}

	dmd, dlayer, err := s.resolve(op, newname, dst)
	dstExists := err == nil
	switch {
	case dstExists:
		empty := true
		if dmd.IsDir() {
			if empty, err = s.isEmpty(dst, dlayer); err != nil {
				return err
			}
		}
		if err := unifs.CheckOverwrite(op, newname, smd, dmd, empty, opts); err != nil {
			return err
		}
	case !unifs.IsNotFound(err):
		return err
	}
	lowerDst, err := s.lowerHas(dst)
	if err != nil {
		return err
	}

	defer func() {
		s.invalidate(src, true)
		s.invalidate(dst, true)
	}()
	if smd.IsDir() {
		err = s.copyUpTree(src, smd, slayer)
	} else {
		err = s.copyUp(src, smd, slayer)
	}
	if err != nil {
		return err
	}
	if err := s.copyUpParents(dst); err != nil {
		return err
	}
	if _, err := s.clearWhiteout(dst); err != nil {
		return err
	}
	if dstExists && dlayer == 0 && dmd.IsDir() {
		if err := s.top().Remove(dst, unifs.RemoveOptions{Recursive: true}); err != nil {
			return err
		}
	}
	if err := s.top().Rename(src, dst, unifs.RenameOptions{Overwrite: true}); err != nil {
		return err
	}
	s.invalidate(src, true)
	s.invalidate(dst, true)

	if err := s.hideLower(op, oldname, src); err != nil {
		return err
	}
	if smd.IsDir() && lowerDst {
		return s.markOpaque(dst)
	}
	return nil
}

// requireDir checks that the clean path dir is a visible directory.
func (s *FS) requireDir(op, name, dir string) error {
	md, _, err := s.resolve(op, name, dir)
	if err != nil {
		return err
	}
	if !md.IsDir() {
		return unifs.NewError(op, name, unifs.NotADirectory)
	}
	return nil
}

func (s *FS) writable(op, name string) error {
	if !s.Writable() {
		return unifs.NewError(op, name, unifs.ReadOnly)
	}
	return nil
}

// mutable cleans name for an operation that creates it. Marker names cannot
// be created through the stack.
func (s *FS) mutable(op, name string) (string, error) {
	p, err := clean(op, name)
	if err != nil {
		return "", err
	}
	if err := s.writable(op, name); err != nil {
		return "", err
	}
	if reserved(segments(p)) {
		return "", unifs.NewError(op, name, unifs.PermissionDenied)
	}
	return p, nil
}

func clean(op, name string) (string, error) {
	p, err := unifs.Clean(name)
	if err != nil {
		return "", unifs.Reop(err, op, name)
	}
	return p, nil
}
