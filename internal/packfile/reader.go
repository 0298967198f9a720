// SPDX-License-Identifier: MPL-2.0

package packfile

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reader provides verified access to a compiled pack artifact. Opening a
// reader parses and validates the section framing only; section payloads
// are read and checksum-verified on demand.
type Reader struct {
	f        *os.File
	path     string
	size     uint64
	version  uint16
	sections []SectionInfo
	byName   map[string]int
}

// Open opens an artifact and validates its framing. The returned reader
// holds an open file handle until Close.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat artifact: %w", err)
	}

	r := &Reader{
		f:      f,
		path:   path,
		size:   uint64(info.Size()),
		byName: make(map[string]int),
	}
	if err := r.readHeader(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.f.Close()
}

// Path returns the artifact path this reader was opened from.
func (r *Reader) Path() string { return r.path }

// FormatVersion returns the artifact's format version.
func (r *Reader) FormatVersion() uint16 { return r.version }

// Sections returns the parsed section table in artifact order.
func (r *Reader) Sections() []SectionInfo {
	out := make([]SectionInfo, len(r.sections))
	copy(out, r.sections)
	return out
}

// Section looks up a section by name.
func (r *Reader) Section(name string) (SectionInfo, bool) {
	i, ok := r.byName[name]
	if !ok {
		return SectionInfo{}, false
	}
	return r.sections[i], true
}

// HasSection reports whether the artifact contains the named section.
func (r *Reader) HasSection(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// corrupt builds a framing error for this artifact.
func (r *Reader) corrupt(format string, args ...any) error {
	return &CorruptArtifactError{Path: r.path, Reason: fmt.Sprintf(format, args...)}
}

// readHeader parses and validates the magic, version, and section table.
func (r *Reader) readHeader() error {
	var head [8]byte
	if _, err := io.ReadFull(r.f, head[:]); err != nil {
		return r.corrupt("truncated header: %v", err)
	}
	if [4]byte(head[:4]) != magic {
		return r.corrupt("bad magic %q", head[:4])
	}
	r.version = binary.LittleEndian.Uint16(head[4:6])
	if r.version != FormatVersion {
		return r.corrupt("unsupported format version %d", r.version)
	}
	count := int(binary.LittleEndian.Uint16(head[6:8]))

	var scratch [8]byte
	r.sections = make([]SectionInfo, 0, count)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r.f, scratch[:2]); err != nil {
			return r.corrupt("truncated section table: %v", err)
		}
		nameLen := int(binary.LittleEndian.Uint16(scratch[:2]))
		if nameLen == 0 || nameLen > maxSectionName {
			return r.corrupt("section %d: invalid name length %d", i, nameLen)
		}
		nameBuf := make([]byte, nameLen)
		if _, err := io.ReadFull(r.f, nameBuf); err != nil {
			return r.corrupt("truncated section table: %v", err)
		}
		name := string(nameBuf)
		if _, dup := r.byName[name]; dup {
			return r.corrupt("duplicate section %q", name)
		}

		if _, err := io.ReadFull(r.f, scratch[:]); err != nil {
			return r.corrupt("truncated section table: %v", err)
		}
		offset := binary.LittleEndian.Uint64(scratch[:])
		if _, err := io.ReadFull(r.f, scratch[:]); err != nil {
			return r.corrupt("truncated section table: %v", err)
		}
		length := binary.LittleEndian.Uint64(scratch[:])

		var digest [sha256.Size]byte
		if _, err := io.ReadFull(r.f, digest[:]); err != nil {
			return r.corrupt("truncated section table: %v", err)
		}

		r.byName[name] = len(r.sections)
		r.sections = append(r.sections, SectionInfo{
			Name:     name,
			Offset:   offset,
			Length:   length,
			Checksum: hex.EncodeToString(digest[:]),
		})
	}

	headerEnd, err := r.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("failed to locate header end: %w", err)
	}

	// Sections must sit past the header, inside the file, and be
	// contiguous in table order: any gap or overlap is framing damage.
	nextOffset := uint64(headerEnd)
	for _, s := range r.sections {
		if s.Offset != nextOffset {
			return r.corrupt("section %q: offset %d, expected %d", s.Name, s.Offset, nextOffset)
		}
		// Checked without summing: offset+length can wrap uint64.
		if s.Length > r.size || s.Offset > r.size-s.Length {
			return r.corrupt("section %q: extends past end of file", s.Name)
		}
		nextOffset = s.Offset + s.Length
	}
	if nextOffset != r.size {
		return r.corrupt("trailing bytes after last section")
	}

	return nil
}

// readSectionBytes reads a section's raw payload without verification.
func (r *Reader) readSectionBytes(s SectionInfo) ([]byte, error) {
	data := make([]byte, s.Length)
	if _, err := r.f.ReadAt(data, int64(s.Offset)); err != nil {
		return nil, r.corrupt("section %q: short read: %v", s.Name, err)
	}
	return data, nil
}

// VerifySection recomputes the named section's sha256 digest and compares
// it with the table entry, without decoding the payload.
func (r *Reader) VerifySection(name string) error {
	s, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q in %s", ErrSectionNotFound, name, r.path)
	}
	_, err := r.verifiedSectionBytes(r.sections[s])
	return err
}

// VerifyAll verifies every section in table order.
func (r *Reader) VerifyAll() error {
	for _, s := range r.sections {
		if _, err := r.verifiedSectionBytes(s); err != nil {
			return err
		}
	}
	return nil
}

// ReadSection returns the named section's payload after checksum
// verification. Tampered or corrupted payloads never reach the caller.
func (r *Reader) ReadSection(name string) ([]byte, error) {
	s, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrSectionNotFound, name, r.path)
	}
	return r.verifiedSectionBytes(r.sections[s])
}

func (r *Reader) verifiedSectionBytes(s SectionInfo) ([]byte, error) {
	data, err := r.readSectionBytes(s)
	if err != nil {
		return nil, err
	}

	got := checksumHex(data)
	if !strings.EqualFold(got, s.Checksum) {
		return nil, &ChecksumMismatchError{
			Section:  s.Name,
			Expected: strings.ToLower(s.Checksum),
			Got:      got,
		}
	}
	return data, nil
}
