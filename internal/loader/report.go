// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emberdeck/packwright/internal/compiler"
	"github.com/emberdeck/packwright/internal/packfile"
	"github.com/emberdeck/packwright/internal/registry"
	"github.com/emberdeck/packwright/internal/resolver"
	"github.com/emberdeck/packwright/pkg/manifest"
)

// ErrorKind buckets load failures for the aggregated report.
type ErrorKind string

const (
	KindManifest      ErrorKind = "manifest"
	KindCompatibility ErrorKind = "compatibility"
	KindDependency    ErrorKind = "dependency"
	KindIntegrity     ErrorKind = "integrity"
	KindRegistry      ErrorKind = "registry"
	KindInternal      ErrorKind = "internal"
)

type (
	// ReportEntry is one diagnostic from a load session: the pack it
	// concerns (empty when not attributable to a single pack), the error
	// bucket, and a human-readable message.
	ReportEntry struct {
		PackID   string
		Kind     ErrorKind
		Severity manifest.Severity
		Message  string
	}

	// Report aggregates everything a load session produced: the resolved
	// pack order, every warning and error encountered, and the frozen
	// registry on success. A failed session still returns its report so
	// the caller can render the full diagnostics.
	Report struct {
		Packs    []string
		Entries  []ReportEntry
		Registry *registry.Registry
		Duration time.Duration
	}
)

func (e ReportEntry) String() string {
	pack := e.PackID
	if pack == "" {
		pack = "-"
	}
	return fmt.Sprintf("[%s] %s (%s): %s", e.Severity, pack, e.Kind, e.Message)
}

// HasErrors reports whether any entry is error severity.
func (r *Report) HasErrors() bool {
	for _, e := range r.Entries {
		if e.Severity == manifest.SeverityError {
			return true
		}
	}
	return false
}

// Render formats the report entries one per line.
func (r *Report) Render() string {
	lines := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		lines = append(lines, e.String())
	}
	return strings.Join(lines, "\n")
}

func (r *Report) addWarning(packID string, kind ErrorKind, message string) {
	r.Entries = append(r.Entries, ReportEntry{
		PackID:   packID,
		Kind:     kind,
		Severity: manifest.SeverityWarning,
		Message:  message,
	})
}

func (r *Report) addError(packID string, err error) {
	r.Entries = append(r.Entries, ReportEntry{
		PackID:   packID,
		Kind:     classify(err),
		Severity: manifest.SeverityError,
		Message:  err.Error(),
	})
}

// classify maps an error to its report bucket via the sentinel each typed
// error wraps.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, manifest.ErrInvalidManifest):
		return KindManifest
	case errors.Is(err, resolver.ErrIncompatibleCoreVersion),
		errors.Is(err, resolver.ErrMissingCapability):
		return KindCompatibility
	case errors.Is(err, resolver.ErrDependencyNotFound),
		errors.Is(err, resolver.ErrDependencyVersionMismatch),
		errors.Is(err, resolver.ErrDependencyCycle),
		errors.Is(err, resolver.ErrDuplicatePackID):
		return KindDependency
	case errors.Is(err, packfile.ErrChecksumMismatch),
		errors.Is(err, packfile.ErrCorruptArtifact),
		errors.Is(err, packfile.ErrSectionNotFound),
		errors.Is(err, compiler.ErrCompile):
		return KindIntegrity
	case errors.Is(err, registry.ErrDuplicateContentID),
		errors.Is(err, registry.ErrDanglingReference),
		errors.Is(err, registry.ErrPackAlreadyMerged),
		errors.Is(err, registry.ErrNotBuilding),
		errors.Is(err, registry.ErrNotFrozen):
		return KindRegistry
	default:
		return KindInternal
	}
}

// packError attributes an error to the pack it concerns when the wrapped
// error type carries only an artifact path.
type packError struct {
	PackID string
	Err    error
}

func (e *packError) Error() string { return e.Err.Error() }

func (e *packError) Unwrap() error { return e.Err }

// packIDOf extracts the pack id an error concerns, when its type carries
// one. Unattributable errors report an empty id.
func packIDOf(err error) string {
	var attributed *packError
	if errors.As(err, &attributed) {
		return attributed.PackID
	}

	var (
		dup     *resolver.DuplicatePackIDError
		depMiss *resolver.DependencyNotFoundError
		depVer  *resolver.DependencyVersionMismatchError
		core    *resolver.IncompatibleCoreVersionError
		capMiss *resolver.MissingCapabilityError
		regDup  *registry.DuplicateContentIDError
		regRef  *registry.DanglingReferenceError
		comp    *compiler.CompileError
	)
	switch {
	case errors.As(err, &dup):
		return dup.PackID
	case errors.As(err, &depMiss):
		return depMiss.PackID
	case errors.As(err, &depVer):
		return depVer.PackID
	case errors.As(err, &core):
		return core.PackID
	case errors.As(err, &capMiss):
		return capMiss.PackID
	case errors.As(err, &regDup):
		return regDup.SecondOwner
	case errors.As(err, &regRef):
		return regRef.PackID
	case errors.As(err, &comp):
		return comp.PackID
	default:
		return ""
	}
}
