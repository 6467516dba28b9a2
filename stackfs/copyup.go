package stackfs

import (
	"github.com/absfs/unifs"
)

// copyUp copies the file p from layer into the top layer, keeping its
// permission bits. Parents are copied up first.
func (s *FS) copyUp(p string, md unifs.Metadata, layer int) error {
	if layer == 0 {
		return nil
	}
	if err := s.copyUpParents(p); err != nil {
		return err
	}
	if md.IsDir() {
		return s.copyUpDir(p, md)
	}
	return s.copyUpFile(p, md, layer)
}

func (s *FS) copyUpFile(p string, md unifs.Metadata, layer int) error {
	data, err := s.layers[layer].ReadFile(p)
	if err != nil {
		return err
	}
	if err := s.top().WriteFile(p, data, unifs.WriteOptions{Perm: md.Perm}); err != nil {
		return err
	}
	s.invalidate(p, false)
	s.log.Debug("copied up file", "path", p, "layer", layer, "size", len(data))
	return nil
}

func (s *FS) copyUpDir(p string, md unifs.Metadata) error {
	if err := s.top().Mkdir(p, unifs.MkdirOptions{Perm: md.Perm}); err != nil {
		return err
	}
	s.invalidate(p, false)
	s.log.Debug("copied up directory", "path", p)
	return nil
}

// copyUpParents makes every ancestor of p a directory of the top layer. The
// caller has checked that the parent of p is a visible directory.
func (s *FS) copyUpParents(p string) error {
	dir := unifs.Root
	for _, seg := range segments(unifs.Dir(p)) {
		dir = unifs.Join(dir, seg)
		ok, err := exists(s.top(), dir)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		md, _, err := s.resolve("copyup", dir, dir)
		if err != nil {
			return err
		}
		if err := s.copyUpDir(dir, md); err != nil {
			return err
		}
	}
	return nil
}

// copyUpTree gives the top layer a complete copy of the merged directory p,
// so that it can be moved within the top layer alone.
func (s *FS) copyUpTree(p string, md unifs.Metadata, layer int) error {
	if err := s.copyUp(p, md, layer); err != nil {
		return err
	}
	entries, err := s.merge(p, 0)
	if err != nil {
		return err
	}
	for _, ent := range entries {
		child := unifs.Join(p, ent.Name)
		cmd, clayer, err := s.resolve("copyup", child, child)
		if err != nil {
			return err
		}
		if cmd.IsDir() {
			err = s.copyUpTree(child, cmd, clayer)
		} else {
			err = s.copyUp(child, cmd, clayer)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// clearWhiteout removes the top layer's whiteout for p and reports whether
// there was one.
func (s *FS) clearWhiteout(p string) (bool, error) {
	err := s.top().Remove(whiteoutPath(p), unifs.RemoveOptions{})
	switch {
	case err == nil:
		return true, nil
	case unifs.IsNotFound(err):
		return false, nil
	}
	return false, err
}

// whiteout hides p in the lower layers.
func (s *FS) whiteout(p string) error {
	if err := s.top().WriteFile(whiteoutPath(p), nil, unifs.WriteOptions{}); err != nil {
		return err
	}
	s.log.Debug("created whiteout", "path", p)
	return nil
}

// markOpaque hides everything the lower layers have below the top layer's
// directory p.
func (s *FS) markOpaque(p string) error {
	if err := s.top().WriteFile(unifs.Join(p, OpaqueMarker), nil, unifs.WriteOptions{}); err != nil {
		return err
	}
	s.log.Debug("marked directory opaque", "path", p)
	return nil
}
