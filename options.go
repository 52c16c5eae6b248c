package asar

import "log/slog"

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger used for non-fatal extraction diagnostics,
// such as unpacked files missing from the sidecar directory.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithUnpackedDir overrides the sidecar directory used to resolve unpacked
// entries. By default the directory next to the archive file
// (<archive-path>.unpacked) is used; archives opened from a raw ByteSource
// have no default.
func WithUnpackedDir(dir string) Option {
	return func(a *Archive) {
		a.unpackedDir = dir
	}
}

// WithMaxFileSize limits the maximum per-entry size read out of the blob.
// Set limit to 0 to disable the limit (the default).
func WithMaxFileSize(limit int64) Option {
	return func(a *Archive) {
		a.maxFileSize = limit
	}
}

// ExtractOption configures an Extract operation.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	legacySizeReads bool
}

// ExtractWithLegacySizeReads reproduces a defect of the historical
// extractor: the read length for each packed entry was passed through the
// same base-offset translation as the seek position, so size + baseOffset
// bytes were read (clamped to the end of the archive) instead of size.
// Every packed file not stored last in the blob gains trailing garbage.
//
// Off by default; the default reads exactly size bytes. This switch exists
// only for byte-for-byte comparison against historical output.
func ExtractWithLegacySizeReads(enabled bool) ExtractOption {
	return func(c *extractConfig) {
		c.legacySizeReads = enabled
	}
}
