// SPDX-License-Identifier: MPL-2.0

// Package packfile implements the compiled pack artifact container: a
// section-framed binary file holding the pack manifest, one section per
// populated content domain, and a sha256 checksum table. The framing keeps
// the checksum table in the header so a single section can be verified
// without decoding the rest of the artifact.
//
// Layout (all integers little-endian):
//
//	magic "EPAK" | format version u16 | section count u16
//	per section: name length u16 | name | offset u64 | length u64 | sha256 [32]byte
//	section payloads, in table order
package packfile

import (
	"errors"
	"fmt"
)

const (
	// FormatVersion is the current artifact format version.
	FormatVersion uint16 = 1

	// ManifestSection is the reserved section name for the pack manifest.
	ManifestSection = "manifest"

	// DefaultFileName is the conventional artifact filename at a pack root.
	DefaultFileName = "pack.epak"

	// maxSectionName bounds section name length in the table.
	maxSectionName = 255
)

// magic identifies a compiled pack artifact.
var magic = [4]byte{'E', 'P', 'A', 'K'}

var (
	// ErrCorruptArtifact indicates malformed artifact framing: bad magic,
	// unsupported version, truncated table, or out-of-bounds sections.
	ErrCorruptArtifact = errors.New("corrupt artifact")

	// ErrChecksumMismatch indicates a section's recomputed sha256 digest
	// does not match the digest stored in the artifact's checksum table.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrSectionNotFound indicates a requested section name is absent.
	ErrSectionNotFound = errors.New("section not found")
)

type (
	// SectionInfo describes one framed section: its name, byte range
	// within the artifact, and expected sha256 digest (lowercase hex).
	SectionInfo struct {
		Name     string
		Offset   uint64
		Length   uint64
		Checksum string
	}

	// CorruptArtifactError wraps ErrCorruptArtifact for errors.Is.
	CorruptArtifactError struct {
		Path   string
		Reason string
	}

	// ChecksumMismatchError wraps ErrChecksumMismatch for errors.Is,
	// showing both digests for debugging.
	ChecksumMismatchError struct {
		Section  string
		Expected string
		Got      string
	}
)

func (e *CorruptArtifactError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("corrupt artifact %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("corrupt artifact: %s", e.Reason)
}

// Unwrap returns ErrCorruptArtifact for errors.Is classification.
func (e *CorruptArtifactError) Unwrap() error { return ErrCorruptArtifact }

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum verification failed for section %q\nExpected: %s\nGot:      %s",
		e.Section, e.Expected, e.Got)
}

// Unwrap returns ErrChecksumMismatch for errors.Is classification.
func (e *ChecksumMismatchError) Unwrap() error { return ErrChecksumMismatch }
