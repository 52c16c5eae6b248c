// Package file provides fs.FileInfo and fs.DirEntry adapters for archive
// entries. The header stores no modification times or ownership, so infos
// report a zero ModTime and synthetic permission bits.
package file

import (
	"io/fs"
	"time"
)

// Modes reported for entries. The format only distinguishes executable
// files, so everything else is synthesized.
const (
	ModeFile       fs.FileMode = 0o644
	ModeExecutable fs.FileMode = 0o755
	ModeDir        fs.FileMode = fs.ModeDir | 0o755
)

// Info implements fs.FileInfo for archive entries and synthetic directories.
type Info struct {
	name string
	size int64
	mode fs.FileMode
}

// NewInfo returns file info for a file entry.
func NewInfo(name string, size int64, executable bool) *Info {
	mode := ModeFile
	if executable {
		mode = ModeExecutable
	}
	return &Info{name: name, size: size, mode: mode}
}

// NewDirInfo returns file info for a directory entry.
func NewDirInfo(name string) *Info {
	return &Info{name: name, mode: ModeDir}
}

func (i *Info) Name() string       { return i.name }
func (i *Info) Size() int64        { return i.size }
func (i *Info) Mode() fs.FileMode  { return i.mode }
func (i *Info) ModTime() time.Time { return time.Time{} }
func (i *Info) IsDir() bool        { return i.mode.IsDir() }
func (i *Info) Sys() any           { return nil }

// DirEntry implements fs.DirEntry backed by an Info.
type DirEntry struct {
	info *Info
}

// NewDirEntry wraps an Info as a directory entry.
func NewDirEntry(info *Info) *DirEntry {
	return &DirEntry{info: info}
}

func (d *DirEntry) Name() string               { return d.info.Name() }
func (d *DirEntry) IsDir() bool                { return d.info.IsDir() }
func (d *DirEntry) Type() fs.FileMode          { return d.info.Mode().Type() }
func (d *DirEntry) Info() (fs.FileInfo, error) { return d.info, nil }

// Interface compliance.
var (
	_ fs.FileInfo = (*Info)(nil)
	_ fs.DirEntry = (*DirEntry)(nil)
)
