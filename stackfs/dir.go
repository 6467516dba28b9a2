package stackfs

import (
	"github.com/absfs/unifs"
)

// merge lists the directory p as seen through the stack, starting at layer
// from, the topmost layer that shows it. The caller holds s.mu.
//
// Each layer contributes the names no upper layer has claimed. Whiteouts
// claim a name without showing it, so it stays hidden below the layer that
// deleted it. An opaque marker or a non-directory at p ends the merge.
func (s *FS) merge(p string, from int) ([]unifs.Entry, error) {
	segs := segments(p)
	seen := make(map[string]bool)
	var entries []unifs.Entry

	for i := from; i < len(s.layers); i++ {
		layer := s.layers[i]

		list, err := listLayer(layer, p)
		switch {
		case err == nil:
		case unifs.IsNotFound(err):
		case unifs.KindOf(err) == unifs.NotADirectory:
			return entries, nil
		default:
			return nil, err
		}

		var whiteouts []string
		opaque := false
		for _, ent := range list {
			switch {
			case ent.Name == OpaqueMarker:
				opaque = true
			case IsWhiteout(ent.Name):
				whiteouts = append(whiteouts, ent.Name[len(WhiteoutPrefix):])
			case !seen[ent.Name]:
				seen[ent.Name] = true
				entries = append(entries, ent)
			}
		}
		if opaque {
			break
		}
		for _, name := range whiteouts {
			seen[name] = true
		}

		_, hidden, err := hides(layer, segs)
		if err != nil {
			return nil, err
		}
		if hidden {
			break
		}
	}
	return entries, nil
}

// listLayer collects one layer's listing of p.
func listLayer(layer unifs.FS, p string) ([]unifs.Entry, error) {
	md, err := layer.Stat(p)
	if err != nil {
		return nil, err
	}
	if !md.IsDir() {
		return nil, unifs.NewError("readdir", p, unifs.NotADirectory)
	}
	it, err := layer.ListDir(p)
	if err != nil {
		return nil, err
	}
	return it.Collect()
}

// isEmpty reports whether the merged directory p has no visible entries.
func (s *FS) isEmpty(p string, from int) (bool, error) {
	entries, err := s.merge(p, from)
	return len(entries) == 0, err
}
