/*
Package unifs defines one filesystem interface and the rules every backend
implementing it must follow, so that callers are written once and run
against a host directory, an in-memory tree, a read-only view or a stack of
layers.

# Backends

  - memfs: an in-memory tree, safe for concurrent use
  - osfs: a host directory, confined to it through os.Root
  - aferofs, billyfs: any afero.Fs or billy.Filesystem
  - absfsbridge: any absfs.FileSystem, and the reverse view of a unifs.FS
    as an absfs.FileSystem

Wrappers take a backend and return one:

  - readonly: rejects every mutation with ReadOnly
  - subfs: re-roots a backend at one of its directories
  - stackfs: overlays layers with whiteouts and copy-on-write
  - mountfs: mounts one backend at a directory of another

The config package builds a composition from a YAML document, and
unifstest checks that a backend follows the rules below.

# Paths

Paths are virtual, slash-separated and relative to the backend root, whatever
the host. Clean normalizes them: relative names are taken from the root,
"." and empty segments are dropped and ".." is resolved lexically. A path
climbing above the root fails with NotFound, so no backend is ever asked to
resolve a name outside itself.

# Errors

Every error an operation returns is a *PathError carrying a Kind. The kinds
are the same for every backend:

	err := fsys.Remove("/var/cache", unifs.RemoveOptions{})
	switch unifs.KindOf(err) {
	case unifs.NotFound:
	case unifs.DirectoryNotEmpty:
	    err = fsys.Remove("/var/cache", unifs.RemoveOptions{Recursive: true})
	}

Kinds match with errors.Is, both against the Err sentinels of this package
and against the io/fs ones where a sentinel exists, so
errors.Is(err, fs.ErrNotExist) keeps working.

# Concurrency

Each operation is atomic with respect to other operations on the same
backend. Sequences of operations are not; callers that need one to be
atomic coordinate themselves.
*/
package unifs
