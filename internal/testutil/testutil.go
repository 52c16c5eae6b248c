// Package testutil builds asar archives in memory for tests.
package testutil

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// Build frames a raw JSON header and a content blob as a complete archive.
func Build(headerJSON string, blob []byte) []byte {
	h := []byte(headerJSON)
	buf := make([]byte, 16+len(h)+len(blob))
	binary.LittleEndian.PutUint32(buf[0:4], 4)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(h))+8) //nolint:gosec // test headers are small
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(h))+4)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(h)))
	copy(buf[16:], h)
	copy(buf[16+len(h):], blob)
	return buf
}

// BuildTree builds an archive holding the given path → content mapping.
// Paths use forward slashes; intermediate directories are created in the
// header. Offsets are assigned in sorted path order.
func BuildTree(t *testing.T, files map[string][]byte) []byte {
	t.Helper()

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	root := map[string]any{}
	var blob []byte
	for _, p := range paths {
		content := files[p]
		node := map[string]any{
			"size":   len(content),
			"offset": strconv.Itoa(len(blob)),
		}
		insert(root, p, node)
		blob = append(blob, content...)
	}

	header, err := json.Marshal(map[string]any{"files": root})
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	return Build(string(header), blob)
}

// insert places node at the slash-separated path, creating directory nodes
// along the way.
func insert(dir map[string]any, path string, node map[string]any) {
	for {
		i := strings.IndexByte(path, '/')
		if i < 0 {
			dir[path] = node
			return
		}
		name, rest := path[:i], path[i+1:]
		child, ok := dir[name].(map[string]any)
		if !ok {
			child = map[string]any{}
			dir[name] = map[string]any{"files": child}
		} else {
			child = child["files"].(map[string]any)
		}
		dir, path = child, rest
	}
}

// MockByteSource implements a simple in-memory byte source for tests.
type MockByteSource struct {
	data []byte
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}
