// SPDX-License-Identifier: MPL-2.0

package packfile

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Writer assembles a compiled pack artifact section by section. Sections
// are written in the order they were added; the manifest section is added
// by the compiler like any other.
type Writer struct {
	sections []pendingSection
	byName   map[string]bool
}

type pendingSection struct {
	name string
	data []byte
}

// NewWriter creates an empty artifact writer.
func NewWriter() *Writer {
	return &Writer{byName: make(map[string]bool)}
}

// AddSection appends a named section. Section names must be unique within
// one artifact.
func (w *Writer) AddSection(name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("section name must not be empty")
	}
	if len(name) > maxSectionName {
		return fmt.Errorf("section name %q exceeds %d bytes", name, maxSectionName)
	}
	if w.byName[name] {
		return fmt.Errorf("duplicate section %q", name)
	}
	w.byName[name] = true
	w.sections = append(w.sections, pendingSection{name: name, data: data})
	return nil
}

// WriteTo writes the framed artifact. The header carries the full section
// table, including per-section sha256 digests, before any payload bytes.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	if len(w.sections) > math.MaxUint16 {
		return 0, fmt.Errorf("too many sections: %d", len(w.sections))
	}

	headerSize := uint64(len(magic) + 2 + 2)
	for _, s := range w.sections {
		headerSize += 2 + uint64(len(s.name)) + 8 + 8 + sha256.Size
	}

	bw := bufio.NewWriter(out)
	written := int64(0)
	count := func(n int, err error) error {
		written += int64(n)
		return err
	}

	if err := count(bw.Write(magic[:])); err != nil {
		return written, err
	}
	var scratch [8]byte
	binary.LittleEndian.PutUint16(scratch[:2], FormatVersion)
	if err := count(bw.Write(scratch[:2])); err != nil {
		return written, err
	}
	binary.LittleEndian.PutUint16(scratch[:2], uint16(len(w.sections)))
	if err := count(bw.Write(scratch[:2])); err != nil {
		return written, err
	}

	offset := headerSize
	for _, s := range w.sections {
		binary.LittleEndian.PutUint16(scratch[:2], uint16(len(s.name)))
		if err := count(bw.Write(scratch[:2])); err != nil {
			return written, err
		}
		if err := count(bw.WriteString(s.name)); err != nil {
			return written, err
		}
		binary.LittleEndian.PutUint64(scratch[:], offset)
		if err := count(bw.Write(scratch[:])); err != nil {
			return written, err
		}
		binary.LittleEndian.PutUint64(scratch[:], uint64(len(s.data)))
		if err := count(bw.Write(scratch[:])); err != nil {
			return written, err
		}
		digest := sha256.Sum256(s.data)
		if err := count(bw.Write(digest[:])); err != nil {
			return written, err
		}
		offset += uint64(len(s.data))
	}

	for _, s := range w.sections {
		if err := count(bw.Write(s.data)); err != nil {
			return written, err
		}
	}

	if err := bw.Flush(); err != nil {
		return written, err
	}
	return written, nil
}

// WriteFile writes the artifact atomically via a temp file and rename, so
// a crash mid-write never leaves a truncated artifact at the target path.
func (w *Writer) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}

	if _, err := w.WriteTo(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close artifact: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename artifact: %w", err)
	}
	return nil
}

// checksumHex returns the lowercase hex sha256 digest of data.
func checksumHex(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}
