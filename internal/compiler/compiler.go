// SPDX-License-Identifier: MPL-2.0

// Package compiler turns a pack's manifest and per-domain JSON sources
// into one compiled artifact with embedded checksums. All expensive
// validation runs here, once, at authoring time; the runtime reader stays
// a minimal fail-fast binary consumer.
package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/emberdeck/packwright/internal/content"
	"github.com/emberdeck/packwright/internal/packfile"
	"github.com/emberdeck/packwright/pkg/manifest"
)

// ErrCompile indicates a domain source failed to compile.
var ErrCompile = errors.New("compile failed")

type (
	// CompileError describes malformed domain content found at compile
	// time. It wraps ErrCompile for errors.Is classification.
	CompileError struct {
		PackID string
		Domain content.Domain
		Reason string
	}

	// SectionSummary reports one compiled domain section.
	SectionSummary struct {
		Domain   content.Domain
		Records  int
		Checksum string
	}

	// Result reports a successful compilation.
	Result struct {
		Manifest     *manifest.PackManifest
		ArtifactPath string
		Sections     []SectionSummary
		// Issues carries non-fatal manifest warnings found while compiling.
		Issues []manifest.ValidationIssue
	}
)

func (e *CompileError) Error() string {
	return fmt.Sprintf("pack %q: domain %q: %s", e.PackID, e.Domain, e.Reason)
}

// Unwrap returns ErrCompile for errors.Is classification.
func (e *CompileError) Unwrap() error { return ErrCompile }

// Compile builds the artifact for the pack rooted at packDir and writes
// it to outPath (pack.epak under the pack root when outPath is empty).
// Domain sources are decoded, structurally validated, and re-encoded in
// canonical form; each section's sha256 lands in the artifact's checksum
// table. Cross-pack and cross-domain reference checks are deliberately
// deferred to the registry, which sees the full resolved set.
func Compile(packDir, outPath string) (*Result, error) {
	manifestPath := filepath.Join(packDir, manifest.FileName)
	rawManifest, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest at %s: %w", manifestPath, err)
	}

	m, err := manifest.Parse(rawManifest)
	if err != nil {
		return nil, err
	}

	issues := manifest.Validate(m)
	if manifest.HasErrors(issues) {
		return nil, &manifest.InvalidManifestError{
			Path:   manifestPath,
			Reason: fmt.Sprintf("validation failed: %s", joinIssues(issues)),
		}
	}

	if outPath == "" {
		outPath = filepath.Join(packDir, packfile.DefaultFileName)
	}

	w := packfile.NewWriter()
	if err := w.AddSection(packfile.ManifestSection, rawManifest); err != nil {
		return nil, fmt.Errorf("failed to add manifest section: %w", err)
	}

	result := &Result{
		Manifest:     m,
		ArtifactPath: outPath,
		Issues:       issues,
	}

	// Domains compile in canonical order so the artifact layout is a pure
	// function of the pack sources.
	for _, domain := range content.Domains {
		relPath, ok := m.ContentPaths[string(domain)]
		if !ok {
			continue
		}

		data, err := readSource(packDir, relPath)
		if err != nil {
			return nil, &CompileError{PackID: m.ID, Domain: domain, Reason: err.Error()}
		}

		// Manifest-declared source checksums gate the raw bytes before
		// any parsing happens.
		if expected, ok := m.Checksums[relPath]; ok {
			digest := sha256.Sum256(data)
			got := hex.EncodeToString(digest[:])
			if !strings.EqualFold(got, expected) {
				return nil, &packfile.ChecksumMismatchError{
					Section:  relPath,
					Expected: strings.ToLower(expected),
					Got:      got,
				}
			}
		}

		normalized, records, err := content.Normalize(domain, data)
		if err != nil {
			return nil, &CompileError{PackID: m.ID, Domain: domain, Reason: err.Error()}
		}

		if err := w.AddSection(string(domain), normalized); err != nil {
			return nil, &CompileError{PackID: m.ID, Domain: domain, Reason: err.Error()}
		}

		sum := sha256.Sum256(normalized)
		result.Sections = append(result.Sections, SectionSummary{
			Domain:   domain,
			Records:  records,
			Checksum: hex.EncodeToString(sum[:]),
		})
	}

	if err := w.WriteFile(outPath); err != nil {
		return nil, err
	}
	return result, nil
}

// readSource reads a domain source file declared relative to the pack
// root, rejecting absolute paths and directory escapes.
func readSource(packDir, relPath string) ([]byte, error) {
	native := filepath.FromSlash(relPath)
	if filepath.IsAbs(native) {
		return nil, fmt.Errorf("source path %q must be relative to the pack root", relPath)
	}
	clean := filepath.Clean(native)
	if strings.HasPrefix(clean, "..") {
		return nil, fmt.Errorf("source path %q escapes the pack directory", relPath)
	}

	data, err := os.ReadFile(filepath.Join(packDir, clean))
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	return data, nil
}

func joinIssues(issues []manifest.ValidationIssue) string {
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		if issue.Severity == manifest.SeverityError {
			parts = append(parts, issue.String())
		}
	}
	return strings.Join(parts, "; ")
}
