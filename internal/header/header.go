// Package header parses the framed JSON directory header at the start of an
// asar archive.
//
// The header is wrapped in a Chromium pickle envelope:
//
//	offset 0..4    outer length field (not needed for parsing)
//	offset 4..8    uint32 little-endian header block size
//	offset 8..16   inner envelope padding
//	offset 16..    JSON document of header_block_size - 8 bytes
//
// The content blob begins immediately after the JSON document.
package header

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Sentinel errors.
var (
	// ErrFraming is returned when the pickle envelope is truncated or malformed.
	ErrFraming = errors.New("asar: invalid header framing")

	// ErrHeader is returned when the header bytes are not valid UTF-8 JSON or
	// a node does not match the directory or file shape.
	ErrHeader = errors.New("asar: invalid header")
)

const (
	// envelopeSize is the number of bytes before the JSON document begins.
	envelopeSize = 16

	// blockPadding is subtracted from the header block size to obtain the
	// JSON document length. Fixed by the pickle envelope layout.
	blockPadding = 8
)

// Node is one entry in the directory tree: exactly a directory or a file.
// Directories have a non-nil Files map; files have a size and, unless stored
// outside the blob, an offset.
type Node struct {
	// Files maps child names to child nodes. Non-nil exactly for directories;
	// an empty map is a valid (empty) directory.
	Files map[string]*Node

	// Size is the file's content length in bytes.
	Size int64

	// Offset is the content position relative to the end of the header.
	// Only meaningful when HasOffset is true.
	Offset int64

	// HasOffset records whether the entry carried an offset field.
	HasOffset bool

	// Unpacked marks a file whose bytes live in the sidecar directory
	// rather than the blob.
	Unpacked bool

	// Executable marks a file that should carry the executable bit on disk.
	Executable bool
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool {
	return n.Files != nil
}

// External reports whether the file's bytes must be resolved outside the
// blob. Entries without an offset are external by convention.
func (n *Node) External() bool {
	return n.Unpacked || !n.HasOffset
}

// ChildNames returns the node's child names in sorted order.
// Extraction does not depend on order, but listing output must be stable.
func (n *Node) ChildNames() []string {
	names := make([]string, 0, len(n.Files))
	for name := range n.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// offsetField decodes an offset that the format stores as a decimal string
// (offsets can exceed float64 precision). Plain numbers are also accepted.
type offsetField int64

func (o *offsetField) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	v, err := strconv.ParseUint(s, 10, 63)
	if err != nil {
		return fmt.Errorf("offset %s: %w", s, err)
	}
	*o = offsetField(v)
	return nil
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var raw struct {
		Files      map[string]*Node `json:"files"`
		Size       *int64           `json:"size"`
		Offset     *offsetField     `json:"offset"`
		Unpacked   bool             `json:"unpacked"`
		Executable bool             `json:"executable"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.Files != nil {
		if raw.Size != nil || raw.Offset != nil {
			return fmt.Errorf("%w: node is both a directory and a file", ErrHeader)
		}
		if err := rejectNullChildren(raw.Files); err != nil {
			return err
		}
		n.Files = raw.Files
		return nil
	}
	if raw.Size == nil {
		return fmt.Errorf("%w: node is neither a directory nor a file", ErrHeader)
	}
	if *raw.Size < 0 {
		return fmt.Errorf("%w: negative file size %d", ErrHeader, *raw.Size)
	}

	n.Size = *raw.Size
	if raw.Offset != nil {
		n.Offset = int64(*raw.Offset)
		n.HasOffset = true
	}
	n.Unpacked = raw.Unpacked
	n.Executable = raw.Executable
	return nil
}

// Parse reads the framed header from r and returns the root directory node
// and the base offset, the absolute position where the content blob begins.
func Parse(r io.ReaderAt) (*Node, int64, error) {
	var prefix [8]byte
	if err := readFull(r, prefix[:], 0); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, 0, fmt.Errorf("%w: truncated length prefix", ErrFraming)
		}
		return nil, 0, fmt.Errorf("read header frame: %w", err)
	}

	// prefix[0:4] is the outer envelope length field, which carries nothing
	// the parse needs. The block size at prefix[4:8] does.
	blockSize := int64(binary.LittleEndian.Uint32(prefix[4:8]))
	headerSize := blockSize - blockPadding
	if headerSize < 0 {
		return nil, 0, fmt.Errorf("%w: header block size %d", ErrFraming, blockSize)
	}
	if headerSize > math.MaxInt32 {
		return nil, 0, fmt.Errorf("%w: header block size %d", ErrFraming, blockSize)
	}

	raw := make([]byte, headerSize)
	if err := readFull(r, raw, envelopeSize); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, 0, fmt.Errorf("%w: truncated header (%d bytes expected)", ErrFraming, headerSize)
		}
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	if !utf8.Valid(raw) {
		return nil, 0, fmt.Errorf("%w: header is not valid UTF-8", ErrHeader)
	}

	var doc struct {
		Files map[string]*Node `json:"files"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		if errors.Is(err, ErrHeader) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrHeader, err)
	}
	if doc.Files == nil {
		return nil, 0, fmt.Errorf("%w: missing files mapping", ErrHeader)
	}
	if err := rejectNullChildren(doc.Files); err != nil {
		return nil, 0, err
	}

	return &Node{Files: doc.Files}, envelopeSize + headerSize, nil
}

// rejectNullChildren catches JSON null entries, which bypass Node's
// UnmarshalJSON and would otherwise surface as nil nodes in the tree.
func rejectNullChildren(files map[string]*Node) error {
	for name, child := range files {
		if child == nil {
			return fmt.Errorf("%w: null entry %q", ErrHeader, name)
		}
	}
	return nil
}

// readFull reads exactly len(buf) bytes at off. A read stopping short of
// the buffer reports io.ErrUnexpectedEOF; io.EOF on a complete read is not
// an error (ReaderAt may report it at end of input).
func readFull(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
