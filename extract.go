package asar

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/meigma/asar/internal/header"
)

// ExtractStats contains statistics about an extraction.
type ExtractStats struct {
	// FileCount is the number of files written.
	FileCount int

	// DirCount is the number of directories created, including the root.
	DirCount int

	// TotalBytes is the number of content bytes written.
	TotalBytes int64

	// Skipped is the number of unpacked entries skipped because their
	// sidecar source was missing.
	Skipped int
}

// Extract writes the archive's full file tree beneath dest.
//
// The destination must not exist; extraction never merges into or
// overwrites an existing tree. Sibling entries are visited in sorted order.
// There is no rollback: on error the destination is left partially
// populated.
//
// Unpacked entries are copied from the sidecar directory. A missing sidecar
// directory or file is logged as a warning and counted in Skipped; it does
// not abort the extraction.
func (a *Archive) Extract(dest string, opts ...ExtractOption) (ExtractStats, error) {
	cfg := extractConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var stats ExtractStats
	if a.closed {
		return stats, ErrClosed
	}

	if _, err := os.Lstat(dest); err == nil {
		return stats, &fs.PathError{Op: "extract", Path: dest, Err: fs.ErrExist}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return stats, fmt.Errorf("check destination: %w", err)
	}

	err := a.extractDir(a.root, ".", dest, &cfg, &stats)
	return stats, err
}

// extractDir creates the directory for n and recurses into its children.
// All directories exist before any file inside them is written.
func (a *Archive) extractDir(n *header.Node, rel, dest string, cfg *extractConfig, stats *ExtractStats) error {
	target := filepath.Join(dest, filepath.FromSlash(rel))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", rel, err)
	}
	stats.DirCount++

	for _, name := range n.ChildNames() {
		if !validEntryName(name) {
			return &fs.PathError{Op: "extract", Path: name, Err: fs.ErrInvalid}
		}
		childRel := name
		if rel != "." {
			childRel = rel + "/" + name
		}

		child := n.Files[name]
		if child.IsDir() {
			if err := a.extractDir(child, childRel, dest, cfg, stats); err != nil {
				return err
			}
			continue
		}
		if err := a.extractFile(child, childRel, dest, cfg, stats); err != nil {
			return err
		}
	}
	return nil
}

// validEntryName rejects child names that would escape the destination.
func validEntryName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// extractFile resolves one file entry's bytes and writes them beneath dest.
func (a *Archive) extractFile(n *header.Node, rel, dest string, cfg *extractConfig, stats *ExtractStats) error {
	if n.External() {
		return a.copyUnpacked(n, rel, dest, stats)
	}

	if err := a.validateRange(n.Offset, n.Size); err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}

	length := n.Size
	if cfg.legacySizeReads {
		// Historical read length: size passed through the offset translation,
		// clamped at end-of-archive the way a plain file read would be.
		length = n.Size + a.baseOffset
		if remaining := a.source.Size() - (a.baseOffset + n.Offset); length > remaining {
			length = remaining
		}
	}

	target := filepath.Join(dest, filepath.FromSlash(rel))
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // target is beneath dest by construction
	if err != nil {
		return fmt.Errorf("create file %s: %w", rel, err)
	}

	section := io.NewSectionReader(a.source, a.baseOffset+n.Offset, length)
	written, err := io.Copy(out, section)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	if written != length {
		return fmt.Errorf("write %s: short read (%d of %d bytes)", rel, written, length)
	}

	if n.Executable {
		if err := os.Chmod(target, 0o755); err != nil {
			return fmt.Errorf("set mode %s: %w", rel, err)
		}
	}

	stats.FileCount++
	stats.TotalBytes += written
	a.log().Debug("extracted file", "path", rel, "bytes", written)
	return nil
}

// copyUnpacked copies an unpacked entry from the sidecar directory.
// Missing sources are skipped with a warning; write failures are fatal.
func (a *Archive) copyUnpacked(n *header.Node, rel, dest string, stats *ExtractStats) error {
	dir := a.sidecarDir()
	if dir == "" {
		a.log().Warn("skipping unpacked file, no sidecar directory configured", "path", rel)
		stats.Skipped++
		return nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		a.log().Warn("skipping unpacked file, sidecar directory missing", "path", rel, "dir", dir)
		stats.Skipped++
		return nil
	}

	src := filepath.Join(dir, filepath.FromSlash(rel))
	in, err := os.Open(src) //nolint:gosec // sidecar layout mirrors the validated tree
	if err != nil {
		a.log().Warn("skipping unpacked file, source missing", "path", rel, "source", src)
		stats.Skipped++
		return nil
	}
	defer in.Close()

	target := filepath.Join(dest, filepath.FromSlash(rel))
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // target is beneath dest by construction
	if err != nil {
		return fmt.Errorf("create file %s: %w", rel, err)
	}

	written, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}

	if n.Executable {
		if err := os.Chmod(target, 0o755); err != nil {
			return fmt.Errorf("set mode %s: %w", rel, err)
		}
	}

	stats.FileCount++
	stats.TotalBytes += written
	a.log().Debug("copied unpacked file", "path", rel, "bytes", written)
	return nil
}
