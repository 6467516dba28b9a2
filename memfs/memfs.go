// Package memfs implements unifs.FS over a tree held entirely in process
// memory. It never touches the disk, which makes it the natural substrate for
// deterministic tests.
package memfs

import (
	"io/fs"
	"sync"
	"time"

	"github.com/absfs/unifs"
)

// FS is an in-memory filesystem. The whole tree is guarded by one
// read-write lock: reads run concurrently with other reads, and every
// mutation holds the lock exclusively for the duration of the operation.
type FS struct {
	mu   sync.RWMutex
	root *node
	now  func() time.Time
}

var _ unifs.FS = (*FS)(nil)

// Option configures an FS.
type Option func(*FS)

// WithClock sets the time source used for modification times.
func WithClock(now func() time.Time) Option {
	return func(m *FS) {
		m.now = now
	}
}

// New returns an empty filesystem holding only the root directory.
func New(opts ...Option) *FS {
	m := &FS{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.root = newDir(unifs.DefaultDirPerm, m.now())
	return m
}

// ReadFile implements unifs.FS.
func (m *FS) ReadFile(name string) ([]byte, error) {
	const op = "read"
	segs, err := split(op, name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.lookup(op, name, segs)
	if err != nil {
		return nil, err
	}
	if n.isDir() {
		return nil, unifs.NewError(op, name, unifs.IsADirectory)
	}
	out := make([]byte, len(n.data))
	copy(out, n.data)
	return out, nil
}

// WriteFile implements unifs.FS.
func (m *FS) WriteFile(name string, data []byte, opts unifs.WriteOptions) error {
	const op = "write"
	segs, err := split(op, name)
	if err != nil {
		return err
	}
	if len(segs) == 0 {
		return unifs.NewError(op, name, unifs.IsADirectory)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	parent, err := m.lookupDir(op, name, segs[:len(segs)-1])
	if err != nil {
		return err
	}
	now := m.now()
	base := segs[len(segs)-1]
	n, ok := parent.children[base]
	switch {
	case !ok && opts.Mode == unifs.Append:
		return unifs.NewError(op, name, unifs.NotFound)
	case !ok:
		n = newFile(opts.FilePerm(), now)
		parent.attach(base, n, now)
	case n.isDir():
		return unifs.NewError(op, name, unifs.IsADirectory)
	}

	if opts.Mode == unifs.Append {
		n.data = append(n.data, data...)
	} else {
		n.data = append(make([]byte, 0, len(data)), data...)
	}
	n.modTime = now
	return nil
}

// Mkdir implements unifs.FS.
func (m *FS) Mkdir(name string, opts unifs.MkdirOptions) error {
	const op = "mkdir"
	segs, err := split(op, name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !opts.Recursive {
		if len(segs) == 0 {
			return unifs.NewError(op, name, unifs.AlreadyExists)
		}
		parent, err := m.lookupDir(op, name, segs[:len(segs)-1])
		if err != nil {
			return err
		}
		base := segs[len(segs)-1]
		if _, ok := parent.children[base]; ok {
			return unifs.NewError(op, name, unifs.AlreadyExists)
		}
		parent.attach(base, newDir(opts.DirPerm(), now), now)
		return nil
	}

	cur := m.root
	for i, seg := range segs {
		child, ok := cur.children[seg]
		if !ok {
			child = newDir(opts.DirPerm(), now)
			cur.attach(seg, child, now)
		} else if !child.isDir() {
			if i == len(segs)-1 {
				return unifs.NewError(op, name, unifs.AlreadyExists)
			}
			return unifs.NewError(op, name, unifs.NotADirectory)
		}
		cur = child
	}
	return nil
}

// Remove implements unifs.FS.
func (m *FS) Remove(name string, opts unifs.RemoveOptions) error {
	const op = "remove"
	segs, err := split(op, name)
	if err != nil {
		return err
	}
	if len(segs) == 0 {
		return unifs.OtherError(op, name, "cannot remove the root directory")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	parent, err := m.lookupDir(op, name, segs[:len(segs)-1])
	if err != nil {
		return err
	}
	base := segs[len(segs)-1]
	n, ok := parent.children[base]
	if !ok {
		return unifs.NewError(op, name, unifs.NotFound)
	}
	if n.isDir() && len(n.children) > 0 && !opts.Recursive {
		return unifs.NewError(op, name, unifs.DirectoryNotEmpty)
	}
	parent.detach(base, m.now())
	return nil
}

// ListDir implements unifs.FS. The listing is a snapshot taken under the
// read lock; later mutations are not reflected in it.
func (m *FS) ListDir(name string) (*unifs.Entries, error) {
	const op = "readdir"
	segs, err := split(op, name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.lookup(op, name, segs)
	if err != nil {
		return nil, err
	}
	if !n.isDir() {
		return nil, unifs.NewError(op, name, unifs.NotADirectory)
	}
	entries := make([]unifs.Entry, 0, len(n.children))
	for childName, child := range n.children {
		entries = append(entries, unifs.Entry{Name: childName, Metadata: child.metadata()})
	}
	return unifs.EntriesOf(entries), nil
}

// Stat implements unifs.FS.
func (m *FS) Stat(name string) (unifs.Metadata, error) {
	const op = "stat"
	segs, err := split(op, name)
	if err != nil {
		return unifs.Metadata{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.lookup(op, name, segs)
	if err != nil {
		return unifs.Metadata{}, err
	}
	return n.metadata(), nil
}

// Rename implements unifs.FS. The subtree is detached from its old parent
// and attached to the new one while the tree lock is held, so no reader can
// observe it in both places or in neither.
func (m *FS) Rename(oldname, newname string, opts unifs.RenameOptions) error {
	const op = "rename"
	oldSegs, err := split(op, oldname)
	if err != nil {
		return err
	}
	newSegs, err := split(op, newname)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	src, err := m.lookup(op, oldname, oldSegs)
	if err != nil {
		return err
	}
	noop, err := unifs.CheckRenamePaths(op, join(oldSegs), join(newSegs))
	if err != nil || noop {
		return err
	}

	dstParent, err := m.lookupDir(op, newname, newSegs[:len(newSegs)-1])
	if err != nil {
		return err
	}
	dstBase := newSegs[len(newSegs)-1]
	if dst, ok := dstParent.children[dstBase]; ok {
		err := unifs.CheckOverwrite(op, newname, src.metadata(), dst.metadata(), len(dst.children) == 0, opts)
		if err != nil {
			return err
		}
	}

	now := m.now()
	srcParent, _ := m.lookupDir(op, oldname, oldSegs[:len(oldSegs)-1])
	srcParent.detach(oldSegs[len(oldSegs)-1], now)
	dstParent.attach(dstBase, src, now)
	return nil
}

// lookup walks the tree from the root one segment at a time. The caller
// must hold the lock.
func (m *FS) lookup(op, name string, segs []string) (*node, error) {
	cur := m.root
	for _, seg := range segs {
		if !cur.isDir() {
			return nil, unifs.NewError(op, name, unifs.NotADirectory)
		}
		child, ok := cur.children[seg]
		if !ok {
			return nil, unifs.NewError(op, name, unifs.NotFound)
		}
		cur = child
	}
	return cur, nil
}

// lookupDir is lookup for a node that must be a directory.
func (m *FS) lookupDir(op, name string, segs []string) (*node, error) {
	n, err := m.lookup(op, name, segs)
	if err != nil {
		return nil, err
	}
	if !n.isDir() {
		return nil, unifs.NewError(op, name, unifs.NotADirectory)
	}
	return n, nil
}

func split(op, name string) ([]string, error) {
	segs, err := unifs.Split(name)
	if err != nil {
		return nil, unifs.Reop(err, op, name)
	}
	return segs, nil
}

func join(segs []string) string {
	return unifs.Join(segs...)
}

// node is either a file, owning its bytes, or a directory, owning its
// children. Every node is reachable from the root by exactly one path.
type node struct {
	children map[string]*node // nil for files
	data     []byte
	perm     fs.FileMode
	modTime  time.Time
}

func newDir(perm fs.FileMode, now time.Time) *node {
	return &node{children: make(map[string]*node), perm: perm, modTime: now}
}

func newFile(perm fs.FileMode, now time.Time) *node {
	return &node{perm: perm, modTime: now}
}

func (n *node) isDir() bool {
	return n.children != nil
}

func (n *node) attach(name string, child *node, now time.Time) {
	n.children[name] = child
	n.modTime = now
}

func (n *node) detach(name string, now time.Time) {
	delete(n.children, name)
	n.modTime = now
}

func (n *node) metadata() unifs.Metadata {
	md := unifs.Metadata{Perm: n.perm, ModTime: n.modTime}
	if n.isDir() {
		md.Type = unifs.TypeDir
	} else {
		md.Type = unifs.TypeFile
		md.Size = int64(len(n.data))
	}
	return md
}
