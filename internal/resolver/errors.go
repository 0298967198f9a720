// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emberdeck/packwright/pkg/semver"
)

var (
	// ErrDuplicatePackID indicates two discovered packs share one id.
	ErrDuplicatePackID = errors.New("duplicate pack id")
	// ErrDependencyNotFound indicates a declared dependency is absent from
	// the discovered set.
	ErrDependencyNotFound = errors.New("dependency not found")
	// ErrDependencyVersionMismatch indicates a discovered dependency's
	// version falls outside the declared range.
	ErrDependencyVersionMismatch = errors.New("dependency version mismatch")
	// ErrDependencyCycle indicates the dependency graph contains a cycle.
	ErrDependencyCycle = errors.New("dependency cycle")
	// ErrIncompatibleCoreVersion indicates the host engine version falls
	// outside a pack's core version bounds.
	ErrIncompatibleCoreVersion = errors.New("incompatible core version")
	// ErrMissingCapability indicates the host lacks a capability a pack
	// requires.
	ErrMissingCapability = errors.New("missing capability")
)

type (
	// DuplicatePackIDError wraps ErrDuplicatePackID for errors.Is.
	DuplicatePackIDError struct {
		PackID string
	}

	// DependencyNotFoundError wraps ErrDependencyNotFound for errors.Is.
	DependencyNotFoundError struct {
		// PackID is the dependent pack whose requirement failed.
		PackID string
		// DependencyID is the missing target pack.
		DependencyID string
	}

	// DependencyVersionMismatchError wraps ErrDependencyVersionMismatch
	// for errors.Is.
	DependencyVersionMismatchError struct {
		PackID       string
		DependencyID string
		Required     semver.Range
		Actual       semver.Version
	}

	// DependencyCycleError wraps ErrDependencyCycle for errors.Is.
	// Members names every pack on the cycle, sorted ascending.
	DependencyCycleError struct {
		Members []string
	}

	// IncompatibleCoreVersionError wraps ErrIncompatibleCoreVersion for
	// errors.Is.
	IncompatibleCoreVersionError struct {
		PackID   string
		Required semver.Range
		Actual   semver.Version
	}

	// MissingCapabilityError wraps ErrMissingCapability for errors.Is.
	MissingCapabilityError struct {
		PackID     string
		Capability string
	}
)

func (e *DuplicatePackIDError) Error() string {
	return fmt.Sprintf("duplicate pack id %q in discovered set", e.PackID)
}

func (e *DuplicatePackIDError) Unwrap() error { return ErrDuplicatePackID }

func (e *DependencyNotFoundError) Error() string {
	return fmt.Sprintf("pack %q depends on %q, which is not in the discovered set", e.PackID, e.DependencyID)
}

func (e *DependencyNotFoundError) Unwrap() error { return ErrDependencyNotFound }

func (e *DependencyVersionMismatchError) Error() string {
	return fmt.Sprintf("pack %q requires %q version %s, but %s is discovered",
		e.PackID, e.DependencyID, e.Required, e.Actual)
}

func (e *DependencyVersionMismatchError) Unwrap() error { return ErrDependencyVersionMismatch }

func (e *DependencyCycleError) Error() string {
	return fmt.Sprintf("dependency cycle among packs: %s", strings.Join(e.Members, ", "))
}

func (e *DependencyCycleError) Unwrap() error { return ErrDependencyCycle }

func (e *IncompatibleCoreVersionError) Error() string {
	return fmt.Sprintf("pack %q requires core version %s, host engine is %s", e.PackID, e.Required, e.Actual)
}

func (e *IncompatibleCoreVersionError) Unwrap() error { return ErrIncompatibleCoreVersion }

func (e *MissingCapabilityError) Error() string {
	return fmt.Sprintf("pack %q requires capability %q, which the host does not declare", e.PackID, e.Capability)
}

func (e *MissingCapabilityError) Unwrap() error { return ErrMissingCapability }
