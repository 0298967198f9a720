// SPDX-License-Identifier: MPL-2.0

package packfile

import (
	"github.com/emberdeck/packwright/internal/content"
	"github.com/emberdeck/packwright/pkg/manifest"
)

// PackContents is one artifact fully decoded: the manifest plus every
// domain record wrapped in a descriptor tagged with the owning pack id.
type PackContents struct {
	Manifest    *manifest.PackManifest
	Descriptors []content.Descriptor
}

// Manifest reads, verifies, and parses the artifact's manifest section.
func (r *Reader) Manifest() (*manifest.PackManifest, error) {
	data, err := r.ReadSection(ManifestSection)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, r.corrupt("manifest section: %v", err)
	}
	return m, nil
}

// ReadPack reads one compiled artifact end to end: framing validation at
// open, checksum verification of every consumed section, and decode of
// each domain section into typed descriptors. No cross-pack merging
// happens here; that is the registry's job.
func ReadPack(path string) (*PackContents, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Read-only handle; close errors are exotic.
		_ = r.Close()
	}()

	return readContents(r)
}

func readContents(r *Reader) (*PackContents, error) {
	m, err := r.Manifest()
	if err != nil {
		return nil, err
	}

	// Domains decode in canonical order so descriptor order is stable
	// regardless of how the compiler ordered sections.
	var descs []content.Descriptor
	for _, domain := range content.Domains {
		if !r.HasSection(string(domain)) {
			continue
		}
		data, err := r.ReadSection(string(domain))
		if err != nil {
			return nil, err
		}
		decoded, err := content.Decode(domain, m.ID, data)
		if err != nil {
			return nil, r.corrupt("section %q: %v", domain, err)
		}
		descs = append(descs, decoded...)
	}

	// Unknown extra sections are framing damage, not forward
	// compatibility: the format version already gates that.
	for _, s := range r.Sections() {
		if s.Name == ManifestSection || content.Domain(s.Name).IsValid() {
			continue
		}
		return nil, r.corrupt("unknown section %q", s.Name)
	}

	return &PackContents{Manifest: m, Descriptors: descs}, nil
}

// Checksums returns the artifact's checksum table as a section-name to
// digest map, for inspection tooling.
func (r *Reader) Checksums() map[string]string {
	out := make(map[string]string, len(r.sections))
	for _, s := range r.sections {
		out[s.Name] = s.Checksum
	}
	return out
}
