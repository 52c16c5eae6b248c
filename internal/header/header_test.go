package header

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/asar/internal/testutil"
)

func TestParse_Tree(t *testing.T) {
	t.Parallel()

	headerJSON := `{"files":{"a.txt":{"size":5,"offset":"0"},"sub":{"files":{"b.txt":{"size":3,"offset":"5"}}}}}`
	data := testutil.Build(headerJSON, []byte("hellowor"))

	root, base, err := Parse(testutil.NewMockByteSource(data))
	require.NoError(t, err)
	assert.Equal(t, int64(16+len(headerJSON)), base)
	require.True(t, root.IsDir())

	a := root.Files["a.txt"]
	require.NotNil(t, a)
	assert.False(t, a.IsDir())
	assert.Equal(t, int64(5), a.Size)
	assert.Equal(t, int64(0), a.Offset)
	assert.True(t, a.HasOffset)
	assert.False(t, a.External())

	sub := root.Files["sub"]
	require.NotNil(t, sub)
	require.True(t, sub.IsDir())
	b := sub.Files["b.txt"]
	require.NotNil(t, b)
	assert.Equal(t, int64(3), b.Size)
	assert.Equal(t, int64(5), b.Offset)
}

func TestParse_EmptyDirectory(t *testing.T) {
	t.Parallel()

	data := testutil.Build(`{"files":{"empty":{"files":{}}}}`, nil)
	root, _, err := Parse(testutil.NewMockByteSource(data))
	require.NoError(t, err)

	empty := root.Files["empty"]
	require.NotNil(t, empty)
	assert.True(t, empty.IsDir())
	assert.Empty(t, empty.Files)
}

func TestParse_NumericOffset(t *testing.T) {
	t.Parallel()

	data := testutil.Build(`{"files":{"a":{"size":1,"offset":7}}}`, nil)
	root, _, err := Parse(testutil.NewMockByteSource(data))
	require.NoError(t, err)
	assert.Equal(t, int64(7), root.Files["a"].Offset)
}

func TestParse_UnpackedEntries(t *testing.T) {
	t.Parallel()

	data := testutil.Build(`{"files":{"a":{"size":4},"b":{"size":4,"offset":"0","unpacked":true}}}`, nil)
	root, _, err := Parse(testutil.NewMockByteSource(data))
	require.NoError(t, err)

	a := root.Files["a"]
	assert.False(t, a.HasOffset)
	assert.True(t, a.External())

	b := root.Files["b"]
	assert.True(t, b.HasOffset)
	assert.True(t, b.Unpacked)
	assert.True(t, b.External())
}

func TestParse_ExecutableFlag(t *testing.T) {
	t.Parallel()

	data := testutil.Build(`{"files":{"bin":{"size":2,"offset":"0","executable":true}}}`, []byte("#!"))
	root, _, err := Parse(testutil.NewMockByteSource(data))
	require.NoError(t, err)
	assert.True(t, root.Files["bin"].Executable)
}

func TestParse_FramingErrors(t *testing.T) {
	t.Parallel()

	tooSmall := make([]byte, 16)
	binary.LittleEndian.PutUint32(tooSmall[4:8], 7) // below the fixed padding

	truncated := testutil.Build(`{"files":{}}`, nil)
	truncated = truncated[:20] // declared header extends past EOF

	tests := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"short prefix", []byte{0x04, 0x00, 0x00}},
		{"block size below padding", tooSmall},
		{"truncated header", truncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Parse(testutil.NewMockByteSource(tt.data))
			assert.ErrorIs(t, err, ErrFraming)
		})
	}
}

func TestParse_HeaderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headerJSON string
	}{
		{"invalid json", `{"files":`},
		{"invalid utf8", "{\"files\":{\"\xff\xfe\":{\"size\":1}}}"},
		{"missing files key", `{}`},
		{"node both shapes", `{"files":{"x":{"files":{},"size":1}}}`},
		{"node neither shape", `{"files":{"x":{"unpacked":true}}}`},
		{"null node", `{"files":{"x":null}}`},
		{"negative size", `{"files":{"x":{"size":-1}}}`},
		{"malformed offset", `{"files":{"x":{"size":1,"offset":"abc"}}}`},
		{"negative offset", `{"files":{"x":{"size":1,"offset":"-4"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data := testutil.Build(tt.headerJSON, nil)
			_, _, err := Parse(testutil.NewMockByteSource(data))
			assert.ErrorIs(t, err, ErrHeader)
		})
	}
}

func TestNode_ChildNamesSorted(t *testing.T) {
	t.Parallel()

	data := testutil.Build(`{"files":{"c":{"size":0,"offset":"0"},"a":{"size":0,"offset":"0"},"b":{"files":{}}}}`, nil)
	root, _, err := Parse(testutil.NewMockByteSource(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, root.ChildNames())
}
