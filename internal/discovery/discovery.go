// SPDX-License-Identifier: MPL-2.0

// Package discovery finds pack roots under configured search paths. A pack
// root is any directory containing a manifest.json. Discovery never aborts
// on a bad candidate: problems are returned as structured diagnostics so
// the CLI layer owns the rendering policy.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/emberdeck/packwright/internal/packfile"
	"github.com/emberdeck/packwright/pkg/manifest"
)

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error diagnostic.
	SeverityError Severity = "error"
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// Diagnostic is a structured discovery problem returned to callers
	// rather than written to stderr.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier (e.g., "manifest_unparseable").
		Code string
		// Message is the human-readable description.
		Message string
		// Path is the file or directory the diagnostic refers to.
		Path string
		// Cause is the underlying error, when there is one.
		Cause error
	}

	// Pack is one discovered pack root.
	Pack struct {
		// Dir is the absolute pack root directory.
		Dir string
		// ManifestPath is the manifest.json inside the root.
		ManifestPath string
		// ArtifactPath is the compiled artifact inside the root; empty when
		// the pack has not been compiled yet.
		ArtifactPath string
		// Manifest is the parsed manifest, nil when parsing failed (a
		// diagnostic records why).
		Manifest *manifest.PackManifest
	}

	// Result bundles the discovered packs with the diagnostics produced
	// while searching.
	Result struct {
		Packs       []Pack
		Diagnostics []Diagnostic
	}
)

// Discover searches every root for pack directories. Roots that do not
// exist yield a warning diagnostic; unparseable manifests yield an error
// diagnostic but do not stop the search. Results are sorted by pack root
// path for stable output.
func Discover(roots []string) *Result {
	res := &Result{}
	seen := make(map[string]bool)

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityError,
				Code:     "search_root_invalid",
				Message:  fmt.Sprintf("cannot resolve search root: %v", err),
				Path:     root,
				Cause:    err,
			})
			continue
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true

		if _, err := os.Stat(abs); err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     "search_root_missing",
				Message:  "search root does not exist",
				Path:     abs,
				Cause:    err,
			})
			continue
		}

		discoverRoot(abs, res)
	}

	sort.Slice(res.Packs, func(i, j int) bool {
		return res.Packs[i].Dir < res.Packs[j].Dir
	})
	return res
}

// discoverRoot walks one search root collecting pack directories. Walking
// stops descending once a manifest is found; packs do not nest.
func discoverRoot(root string, res *Result) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     "walk_failed",
				Message:  fmt.Sprintf("cannot read directory: %v", err),
				Path:     path,
				Cause:    err,
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		manifestPath := filepath.Join(path, manifest.FileName)
		if _, err := os.Stat(manifestPath); err != nil {
			return nil
		}

		res.Packs = append(res.Packs, loadPack(path, manifestPath, res))
		return filepath.SkipDir
	})
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Severity: SeverityError,
			Code:     "walk_failed",
			Message:  fmt.Sprintf("search aborted: %v", err),
			Path:     root,
			Cause:    err,
		})
	}
}

// loadPack parses a discovered pack's manifest and probes for its compiled
// artifact.
func loadPack(dir, manifestPath string, res *Result) Pack {
	p := Pack{Dir: dir, ManifestPath: manifestPath}

	m, err := manifest.ParseFile(manifestPath)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Severity: SeverityError,
			Code:     "manifest_unparseable",
			Message:  err.Error(),
			Path:     manifestPath,
			Cause:    err,
		})
		return p
	}
	p.Manifest = m

	artifact := filepath.Join(dir, packfile.DefaultFileName)
	if _, err := os.Stat(artifact); err == nil {
		p.ArtifactPath = artifact
	} else {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Code:     "artifact_missing",
			Message:  "pack has no compiled artifact; run the compiler first",
			Path:     dir,
		})
	}
	return p
}

// ArtifactPaths returns the compiled artifact paths of every discovered
// pack that has one, in discovery order.
func (r *Result) ArtifactPaths() []string {
	var paths []string
	for _, p := range r.Packs {
		if p.ArtifactPath != "" {
			paths = append(paths, p.ArtifactPath)
		}
	}
	return paths
}

// HasErrors reports whether any diagnostic is error severity.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
