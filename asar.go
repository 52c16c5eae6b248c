package asar

import (
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/meigma/asar/internal/file"
	"github.com/meigma/asar/internal/header"
)

// ByteSource provides random access to the archive bytes.
//
// Implementations exist for local files; tests use in-memory sources.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// Entry describes a file listed in the archive header.
type Entry struct {
	// Path is the file path relative to the archive root (e.g., "lib/app.js").
	Path string

	// Size is the file's content length in bytes.
	Size int64

	// Offset is the content position relative to the base offset.
	// Zero and meaningless for unpacked entries.
	Offset int64

	// Unpacked reports that the file's bytes are stored in the sidecar
	// directory instead of the blob.
	Unpacked bool

	// Executable reports that the entry carries the executable flag.
	Executable bool
}

// Archive provides access to the files of an opened asar archive.
//
// Archive implements fs.FS, fs.StatFS, fs.ReadFileFS, and fs.ReadDirFS
// for compatibility with the standard library.
//
// The underlying read handle is not safe for use after Close; reads through
// a closed archive return ErrClosed. Methods themselves are safe for
// concurrent use because all content access goes through io.ReaderAt.
type Archive struct {
	source      ByteSource
	root        *header.Node
	baseOffset  int64
	path        string // "" when opened from a raw source
	unpackedDir string // sidecar override; empty means derive from path
	maxFileSize int64  // 0 = unlimited
	logger      *slog.Logger
	closer      io.Closer
	closed      bool
}

// Interface compliance.
var (
	_ fs.FS         = (*Archive)(nil)
	_ fs.StatFS     = (*Archive)(nil)
	_ fs.ReadFileFS = (*Archive)(nil)
	_ fs.ReadDirFS  = (*Archive)(nil)
)

// New parses the archive header from source and returns an Archive.
//
// The source is retained for on-demand content reads; it is not buffered
// into memory. Archives opened this way have no backing path, so unpacked
// entries can only be resolved when WithUnpackedDir is provided.
func New(source ByteSource, opts ...Option) (*Archive, error) {
	root, baseOffset, err := header.Parse(source)
	if err != nil {
		return nil, err
	}

	a := &Archive{
		source:     source,
		root:       root,
		baseOffset: baseOffset,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Close releases the archive's read handle. It is safe to call more than
// once; only the first call closes the handle. Content reads after Close
// fail with ErrClosed.
func (a *Archive) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// Path returns the archive's file path, or "" when the archive was opened
// from a raw byte source.
func (a *Archive) Path() string {
	return a.path
}

// BaseOffset returns the absolute byte position where the content blob
// begins, i.e. the first byte after the header.
func (a *Archive) BaseOffset() int64 {
	return a.baseOffset
}

// sidecarDir returns the directory holding unpacked file contents, or ""
// when none is available.
func (a *Archive) sidecarDir() string {
	if a.unpackedDir != "" {
		return a.unpackedDir
	}
	if a.path != "" {
		return a.path + ".unpacked"
	}
	return ""
}

// lookup walks the tree to the node at name. Name must be a valid fs path.
func (a *Archive) lookup(name string) (*header.Node, bool) {
	n := a.root
	if name == "." {
		return n, true
	}
	for part := range strings.SplitSeq(name, "/") {
		child, ok := n.Files[part]
		if !ok {
			return nil, false
		}
		n = child
	}
	return n, true
}

// Exists reports whether a file or directory exists at the given path.
// The path is normalized before lookup, so leading or duplicate slashes
// are tolerated.
func (a *Archive) Exists(p string) bool {
	p = NormalizePath(p)
	if !fs.ValidPath(p) {
		return false
	}
	_, ok := a.lookup(p)
	return ok
}

// Entry returns the entry for the given path.
// Returns false if the path does not exist or names a directory.
func (a *Archive) Entry(p string) (Entry, bool) {
	p = NormalizePath(p)
	if !fs.ValidPath(p) {
		return Entry{}, false
	}
	n, ok := a.lookup(p)
	if !ok || n.IsDir() {
		return Entry{}, false
	}
	return entryFromNode(p, n), true
}

// Entries returns an iterator over all file entries in sorted depth-first
// order. Directories are not yielded; they are implied by the paths.
func (a *Archive) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		walkEntries(a.root, "", yield)
	}
}

// Len returns the number of file entries in the archive.
func (a *Archive) Len() int {
	n := 0
	for range a.Entries() {
		n++
	}
	return n
}

func walkEntries(n *header.Node, prefix string, yield func(Entry) bool) bool {
	for _, name := range n.ChildNames() {
		child := n.Files[name]
		rel := name
		if prefix != "" {
			rel = prefix + "/" + name
		}
		if child.IsDir() {
			if !walkEntries(child, rel, yield) {
				return false
			}
			continue
		}
		if !yield(entryFromNode(rel, child)) {
			return false
		}
	}
	return true
}

func entryFromNode(p string, n *header.Node) Entry {
	return Entry{
		Path:       p,
		Size:       n.Size,
		Offset:     n.Offset,
		Unpacked:   n.External(),
		Executable: n.Executable,
	}
}

// Open implements fs.FS.
//
// Open returns an fs.File for reading the named file. Packed entries read
// directly out of the blob; unpacked entries open the sidecar file.
func (a *Archive) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if a.closed {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrClosed}
	}

	n, ok := a.lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	if n.IsDir() {
		return &openDir{name: name, node: n}, nil
	}

	if n.External() {
		src, err := a.sidecarPath(name)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
		f, err := os.Open(src)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
		return f, nil
	}

	section, err := a.sectionReader(name, n)
	if err != nil {
		return nil, err
	}
	return &archiveFile{
		SectionReader: section,
		info:          file.NewInfo(path.Base(name), n.Size, n.Executable),
	}, nil
}

// Stat implements fs.StatFS.
//
// Stat returns file info for the named entry without reading its content.
// Directory info is synthesized from the tree; the header stores no
// modification times.
func (a *Archive) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}

	n, ok := a.lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	if n.IsDir() {
		return file.NewDirInfo(path.Base(name)), nil
	}
	return file.NewInfo(path.Base(name), n.Size, n.Executable), nil
}

// ReadFile implements fs.ReadFileFS.
//
// ReadFile reads and returns the entire contents of the named file, from
// the blob for packed entries or from the sidecar for unpacked ones.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	f, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}

	content := make([]byte, info.Size())
	if _, err := io.ReadFull(f, content); err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	return content, nil
}

// ReadDir implements fs.ReadDirFS.
//
// ReadDir returns the entries of the named directory, sorted by name.
func (a *Archive) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}

	n, ok := a.lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	if !n.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	return dirEntries(n), nil
}

func dirEntries(n *header.Node) []fs.DirEntry {
	entries := make([]fs.DirEntry, 0, len(n.Files))
	for _, name := range n.ChildNames() {
		child := n.Files[name]
		if child.IsDir() {
			entries = append(entries, file.NewDirEntry(file.NewDirInfo(name)))
			continue
		}
		entries = append(entries, file.NewDirEntry(file.NewInfo(name, child.Size, child.Executable)))
	}
	return entries
}

// sidecarPath resolves the on-disk location of an unpacked entry.
func (a *Archive) sidecarPath(rel string) (string, error) {
	dir := a.sidecarDir()
	if dir == "" {
		return "", ErrNoSidecar
	}
	return filepath.Join(dir, filepath.FromSlash(rel)), nil
}

// sectionReader returns a bounded reader over an entry's bytes in the blob,
// validating the range against the source size first.
func (a *Archive) sectionReader(name string, n *header.Node) (*io.SectionReader, error) {
	if err := a.validateRange(n.Offset, n.Size); err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return io.NewSectionReader(a.source, a.baseOffset+n.Offset, n.Size), nil
}

// validateRange checks that offset+size lies inside the blob and within the
// configured per-file limit.
func (a *Archive) validateRange(offset, size int64) error {
	if a.maxFileSize > 0 && size > a.maxFileSize {
		return fmt.Errorf("%w: entry size %d exceeds limit %d", ErrSizeOverflow, size, a.maxFileSize)
	}
	end := a.baseOffset + offset + size
	if offset < 0 || end < 0 || end > a.source.Size() {
		return ErrSizeOverflow
	}
	return nil
}

// archiveFile implements fs.File over a section of the blob.
// ReadAt is supported for random access within the entry.
type archiveFile struct {
	*io.SectionReader
	info *file.Info
}

func (f *archiveFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *archiveFile) Close() error               { return nil }

// openDir implements fs.File and fs.ReadDirFile for directories.
type openDir struct {
	name    string
	node    *header.Node
	entries []fs.DirEntry
	pos     int
}

func (d *openDir) Read(_ []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *openDir) Stat() (fs.FileInfo, error) {
	return file.NewDirInfo(path.Base(d.name)), nil
}

func (d *openDir) Close() error {
	return nil
}

func (d *openDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if d.entries == nil {
		d.entries = dirEntries(d.node)
	}

	remaining := d.entries[d.pos:]
	if n <= 0 {
		d.pos = len(d.entries)
		return remaining, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	if n > len(remaining) {
		n = len(remaining)
	}
	d.pos += n
	return remaining[:n], nil
}
