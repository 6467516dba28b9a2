/*
Package stackfs composes an ordered list of unifs.FS layers into one overlay
view with Docker-style whiteouts and copy-on-write.

# Overview

A stack is built from layers ordered top first. Lookups search the layers
from the top down and the first match wins. Every mutation goes to the top
layer; lower layers are never modified through the stack, so they are
usually wrapped with readonly.New.

	base, _ := osfs.New("/srv/base")
	stack, err := stackfs.New([]unifs.FS{
	    memfs.New(),        // top: writable
	    readonly.New(base), // bottom: shared, never modified
	})

Any backend can be a layer, including another stack.

# Copy-on-Write

Writing to a file that only exists in a lower layer copies it to the top
layer first, with its permission bits. Missing parent directories are copied
up too. Appending to a lower file therefore appends to the copy:

	unifs.WriteString(stack, "/etc/config.yml", "modified")
	unifs.ReadString(stack, "/etc/config.yml") // "modified"
	unifs.ReadString(base, "/etc/config.yml")  // original content

Renaming something that lives in a lower layer copies the whole tree up and
hides the source.

# Whiteout Files

Removing a path that a lower layer would still show leaves a whiteout in the
top layer: an empty file named ".wh." followed by the base name, next to the
removed path. A directory created over a whiteout gets an opaque marker
(".wh.__dir_opaque") so that the lower content stays hidden. Names starting
with ".wh." are reserved: they never appear in listings and cannot be
created through the stack.

# Directory Merging

ListDir merges the directory across layers. Entries of upper layers shadow
lower ones of the same name, whiteouts hide entries below them, and an
opaque directory stops the merge. The merged listing is sorted by name.

# Caching

WithStatCache and WithCacheConfig enable a cache of where paths resolved,
and of paths known not to resolve. Mutations through the stack invalidate
the affected entries; changes made to layers behind the stack's back need
InvalidateCache, InvalidateCacheTree or ClearCache.

# Limitations

  - Only the top layer is written
  - Copy-up copies whole files, which is slow for large ones
  - Symlinks in lower layers are copied up as the files they point to
*/
package stackfs
