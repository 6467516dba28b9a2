package stackfs

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/absfs/unifs"
	"github.com/absfs/unifs/readonly"
)

const (
	// WhiteoutPrefix is the prefix of whiteout files (AUFS/Docker style).
	// A file ".wh.name" in a layer hides "name" in every lower layer.
	WhiteoutPrefix = ".wh."
	// OpaqueMarker marks a directory as opaque: nothing below it in lower
	// layers is visible.
	OpaqueMarker = WhiteoutPrefix + "__dir_opaque"
)

// FS is a stack of layers. Layer 0 is the top and the only layer ever
// written; reads fall through to lower layers in order.
//
// One read-write lock guards the stack. Reads share it; every mutation,
// including the copy-up that precedes it, holds it exclusively, so no caller
// sees a copied-up path whose mutation has not been applied yet. The lock
// only covers access through this FS.
type FS struct {
	layers []unifs.FS // top first
	mu     sync.RWMutex
	cache  *Cache
	log    *slog.Logger
}

var _ unifs.FS = (*FS)(nil)

// Option is a functional option for configuring an FS.
type Option func(*FS)

// WithStatCache enables the lookup cache. Negative entries expire after
// half of ttl and the cache holds at most 1000 entries of each kind.
func WithStatCache(ttl time.Duration) Option {
	return func(s *FS) {
		s.cache = newCache(true, ttl, ttl/2, 1000)
	}
}

// WithCacheConfig enables the lookup cache with explicit limits.
func WithCacheConfig(statTTL, negativeTTL time.Duration, maxEntries int) Option {
	return func(s *FS) {
		s.cache = newCache(true, statTTL, negativeTTL, maxEntries)
	}
}

// WithLogger sets the logger that receives copy-up and whiteout events at
// debug level.
func WithLogger(log *slog.Logger) Option {
	return func(s *FS) {
		s.log = log
	}
}

// New stacks layers, the first being the top. The layers are borrowed: they
// remain usable on their own, but writes made around the stack are not
// coordinated with it.
func New(layers []unifs.FS, opts ...Option) (*FS, error) {
	if len(layers) == 0 {
		return nil, unifs.OtherError("stack", unifs.Root, "at least one layer is required")
	}
	for i, l := range layers {
		if l == nil {
			return nil, unifs.OtherError("stack", unifs.Root, "nil layer at index "+strconv.Itoa(i))
		}
	}
	s := &FS{
		layers: append([]unifs.FS(nil), layers...),
		cache:  newCache(false, 0, 0, 0),
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Layers returns the layers, top first.
func (s *FS) Layers() []unifs.FS {
	return append([]unifs.FS(nil), s.layers...)
}

// Writable reports whether the top layer accepts mutations. A stack whose
// top is a read-only wrapper rejects every mutation with unifs.ReadOnly
// before touching any layer.
func (s *FS) Writable() bool {
	return !readonly.IsReadOnly(s.layers[0])
}

func (s *FS) top() unifs.FS {
	return s.layers[0]
}

// IsWhiteout reports whether name is reserved by the stack for its markers.
func IsWhiteout(name string) bool {
	return strings.HasPrefix(name, WhiteoutPrefix)
}

func reserved(segs []string) bool {
	for _, seg := range segs {
		if IsWhiteout(seg) {
			return true
		}
	}
	return false
}

// whiteoutPath returns the whiteout path hiding the clean path p.
func whiteoutPath(p string) string {
	return unifs.Join(unifs.Dir(p), WhiteoutPrefix+unifs.Base(p))
}

func segments(p string) []string {
	segs, _ := unifs.Split(p)
	return segs
}

// exists reports whether name is present in l. A missing path or a file
// used as a directory both mean absent.
func exists(l unifs.FS, name string) (bool, error) {
	_, err := l.Stat(name)
	switch {
	case err == nil:
		return true, nil
	case unifs.IsNotFound(err), unifs.KindOf(err) == unifs.NotADirectory:
		return false, nil
	}
	return false, err
}

// resolve finds the topmost layer showing the clean path p. The caller holds
// s.mu. A path hidden by a whiteout or an opaque directory is NotFound; a
// path hidden by a file standing in for one of its ancestors is
// NotADirectory, unless an upper layer shows that ancestor as a directory.
func (s *FS) resolve(op, name, p string) (unifs.Metadata, int, error) {
	if md, layer, negative, ok := s.cache.get(p); ok {
		if negative {
			return unifs.Metadata{}, -1, unifs.NewError(op, name, unifs.NotFound)
		}
		return md, layer, nil
	}

	segs := segments(p)
	if reserved(segs) {
		return unifs.Metadata{}, -1, unifs.NewError(op, name, unifs.NotFound)
	}
	for i, l := range s.layers {
		md, err := l.Stat(p)
		if err == nil {
			s.cache.putStat(p, md, i)
			return md, i, nil
		}
		var kind unifs.Kind
		hidden := false
		switch unifs.KindOf(err) {
		case unifs.NotFound:
			if kind, hidden, err = hides(l, segs); err != nil {
				return unifs.Metadata{}, -1, err
			}
		case unifs.NotADirectory:
			kind, hidden = unifs.NotADirectory, true
		default:
			return unifs.Metadata{}, -1, err
		}
		if !hidden {
			continue
		}
		if kind == unifs.NotADirectory {
			shadowed, err := s.shadowedFile(i, segs)
			if err != nil {
				return unifs.Metadata{}, -1, err
			}
			if shadowed {
				kind = unifs.NotFound
			}
		}
		if kind == unifs.NotFound {
			s.cache.putNegative(p)
		}
		return unifs.Metadata{}, -1, unifs.NewError(op, name, kind)
	}
	s.cache.putNegative(p)
	return unifs.Metadata{}, -1, unifs.NewError(op, name, unifs.NotFound)
}

// hides reports whether l, which does not have the path segs itself, hides
// it from the layers below: through a whiteout of the path or an ancestor,
// an opaque ancestor, or a file in place of an ancestor.
func hides(l unifs.FS, segs []string) (unifs.Kind, bool, error) {
	dir := unifs.Root
	for i, seg := range segs {
		if ok, err := exists(l, unifs.Join(dir, OpaqueMarker)); err != nil || ok {
			return unifs.NotFound, ok, err
		}
		if ok, err := exists(l, unifs.Join(dir, WhiteoutPrefix+seg)); err != nil || ok {
			return unifs.NotFound, ok, err
		}
		if i == len(segs)-1 {
			break
		}
		dir = unifs.Join(dir, seg)
		md, err := l.Stat(dir)
		switch {
		case unifs.IsNotFound(err):
			return 0, false, nil
		case err != nil:
			return 0, false, err
		case !md.IsDir():
			return unifs.NotADirectory, true, nil
		}
	}
	return 0, false, nil
}

// shadowedFile reports whether the first ancestor of segs that layer i holds
// as a file is a directory in a layer above it. The stack then shows that
// directory, and the lookup ends at layer i without finding the path.
func (s *FS) shadowedFile(i int, segs []string) (bool, error) {
	if len(segs) == 0 {
		return false, nil
	}
	dir := unifs.Root
	for _, seg := range segs[:len(segs)-1] {
		dir = unifs.Join(dir, seg)
		md, err := s.layers[i].Stat(dir)
		switch {
		case unifs.IsNotFound(err):
			return false, nil
		case err != nil:
			return false, err
		case md.IsDir():
			continue
		}
		for _, l := range s.layers[:i] {
			md, err := l.Stat(dir)
			switch {
			case err == nil:
				return md.IsDir(), nil
			case !unifs.IsNotFound(err):
				return false, err
			}
		}
		return false, nil
	}
	return false, nil
}

// lowerHas reports whether any layer below the top has something at p,
// hidden or not.
func (s *FS) lowerHas(p string) (bool, error) {
	for _, l := range s.layers[1:] {
		ok, err := exists(l, p)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// invalidate drops cached lookups for p, for everything below it when tree
// is set, and for its ancestors, whose metadata a mutation may change.
func (s *FS) invalidate(p string, tree bool) {
	if tree {
		s.cache.invalidateTree(p)
	} else {
		s.cache.invalidate(p)
	}
	for dir := p; !unifs.IsRoot(dir); {
		dir = unifs.Dir(dir)
		s.cache.invalidate(dir)
	}
}

// InvalidateCache removes a path from the lookup cache.
func (s *FS) InvalidateCache(name string) {
	if p, err := unifs.Clean(name); err == nil {
		s.cache.invalidate(p)
	}
}

// InvalidateCacheTree removes a path and everything below it from the lookup
// cache. Callers that modify layers behind the stack's back use it.
func (s *FS) InvalidateCacheTree(name string) {
	if p, err := unifs.Clean(name); err == nil {
		s.cache.invalidateTree(p)
	}
}

// ClearCache removes all cache entries.
func (s *FS) ClearCache() {
	s.cache.clear()
}

// CacheStats returns cache statistics.
func (s *FS) CacheStats() CacheStats {
	return s.cache.Stats()
}
