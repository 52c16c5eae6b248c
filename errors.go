package asar

import (
	"errors"

	"github.com/meigma/asar/internal/header"
)

// Sentinel errors re-exported from internal/header.
var (
	// ErrFraming is returned when the length-prefixed envelope around the
	// header is truncated or malformed.
	ErrFraming = header.ErrFraming

	// ErrHeader is returned when the header bytes are not valid UTF-8 JSON
	// or the directory tree does not match the expected shape.
	ErrHeader = header.ErrHeader
)

// Sentinel errors specific to the asar package.
var (
	// ErrClosed is returned when content is read through a closed archive.
	ErrClosed = errors.New("asar: archive is closed")

	// ErrSizeOverflow is returned when an entry's byte range does not fit
	// inside the archive.
	ErrSizeOverflow = errors.New("asar: size overflow")

	// ErrNoSidecar is returned when an unpacked file is read through the
	// fs.FS surface but no sidecar directory is available.
	ErrNoSidecar = errors.New("asar: no unpacked sidecar directory")
)
