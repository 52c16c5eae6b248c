package asar

import (
	"fmt"
	"os"
)

// fileSource wraps *os.File to implement ByteSource.
// os.File has ReadAt but not Size, so we cache the size at construction.
type fileSource struct {
	file *os.File
	size int64
}

// newFileSource creates a fileSource from an open file.
func newFileSource(f *os.File) (*fileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	return &fileSource{file: f, size: info.Size()}, nil
}

// ReadAt implements io.ReaderAt.
func (fs *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return fs.file.ReadAt(p, off)
}

// Size returns the total size of the archive file.
func (fs *fileSource) Size() int64 {
	return fs.size
}

// Open opens an asar archive file and parses its header.
//
// The file is opened for random access and retained for on-demand content
// reads; the returned Archive must be closed to release it. Unpacked
// entries resolve against <path>.unpacked unless overridden with
// WithUnpackedDir.
func Open(path string, opts ...Option) (*Archive, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	source, err := newFileSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	a, err := New(source, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}

	a.path = path
	a.closer = f
	return a, nil
}

// Interface compliance for fileSource.
var _ ByteSource = (*fileSource)(nil)
