// Package asar reads Electron asar archives: a single file holding a framed
// JSON directory header followed by a contiguous blob of file contents.
//
// An archive is opened once and then serves random access reads or a full
// extraction to disk:
//
//	a, err := asar.Open("app.asar")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	content, err := a.ReadFile("package.json")
//	stats, err := a.Extract("./app")
//
// Entries whose bytes are not embedded in the blob ("unpacked" files) are
// resolved from the sidecar directory conventionally located at
// <archive-path>.unpacked, mirroring the archive's logical tree.
//
// The package implements fs.FS and related interfaces for stdlib
// compatibility. Writing archives is out of scope; the reader is read-only.
package asar
