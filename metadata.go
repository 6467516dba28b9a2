package unifs

import (
	"io/fs"
	"time"
)

// FileType is the kind of object a path names.
type FileType uint8

const (
	TypeFile FileType = iota
	TypeDir
	TypeSymlink
	// TypeOther covers devices, sockets, pipes and anything else a host may
	// report.
	TypeOther
)

func (t FileType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDir:
		return "directory"
	case TypeSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// Metadata describes a path. Backends produce it from Stat and ListDir;
// callers never mutate a backend's metadata directly.
type Metadata struct {
	Type FileType
	// Size is the length in bytes of a file. It is zero for directories.
	Size int64
	// Perm holds the permission bits only.
	Perm    fs.FileMode
	ModTime time.Time
}

// IsDir reports whether the metadata describes a directory.
func (m Metadata) IsDir() bool { return m.Type == TypeDir }

// IsFile reports whether the metadata describes a regular file.
func (m Metadata) IsFile() bool { return m.Type == TypeFile }

// ReadOnly reports whether the owner write bit is clear.
func (m Metadata) ReadOnly() bool { return m.Perm&0o200 == 0 }

// Mode returns the metadata as an fs.FileMode, type bits included.
func (m Metadata) Mode() fs.FileMode {
	mode := m.Perm & fs.ModePerm
	switch m.Type {
	case TypeDir:
		mode |= fs.ModeDir
	case TypeSymlink:
		mode |= fs.ModeSymlink
	case TypeOther:
		mode |= fs.ModeIrregular
	}
	return mode
}

// MetadataOf converts standard library file info into Metadata.
func MetadataOf(info fs.FileInfo) Metadata {
	mode := info.Mode()
	md := Metadata{
		Perm:    mode.Perm(),
		ModTime: info.ModTime(),
	}
	switch {
	case mode.IsDir():
		md.Type = TypeDir
	case mode.IsRegular():
		md.Type = TypeFile
		md.Size = info.Size()
	case mode&fs.ModeSymlink != 0:
		md.Type = TypeSymlink
		md.Size = info.Size()
	default:
		md.Type = TypeOther
	}
	return md
}

// Entry is one element of a directory listing.
type Entry struct {
	Name     string
	Metadata Metadata
}

// FileInfo presents md under the given name as an fs.FileInfo.
func FileInfo(name string, md Metadata) fs.FileInfo {
	return fileInfo{name: name, md: md}
}

type fileInfo struct {
	name string
	md   Metadata
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return fi.md.Size }
func (fi fileInfo) Mode() fs.FileMode  { return fi.md.Mode() }
func (fi fileInfo) ModTime() time.Time { return fi.md.ModTime }
func (fi fileInfo) IsDir() bool        { return fi.md.IsDir() }
func (fi fileInfo) Sys() any           { return fi.md }
