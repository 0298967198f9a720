// SPDX-License-Identifier: MPL-2.0

// Package registry holds the merged content of a resolved pack set. Packs
// merge one at a time in load order; once the set is complete the registry
// runs referential integrity checks and freezes. Only a frozen registry
// serves lookups, so gameplay code can never observe a half-merged world.
package registry

import (
	"errors"
	"fmt"
	"slices"

	"github.com/emberdeck/packwright/internal/content"
)

// State is the registry lifecycle phase.
type State int

const (
	// StateBuilding accepts pack merges.
	StateBuilding State = iota
	// StateValidating runs the referential integrity pass.
	StateValidating
	// StateFrozen serves lookups; no further mutation is possible.
	StateFrozen
	// StateFailed is terminal after any merge or validation error.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateValidating:
		return "validating"
	case StateFrozen:
		return "frozen"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrDuplicateContentID indicates two packs declared the same id within
	// one domain. Later packs never silently shadow earlier ones.
	ErrDuplicateContentID = errors.New("duplicate content id")

	// ErrDanglingReference indicates a record references a domain id that
	// no pack in the resolved set provides.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrNotFrozen indicates a lookup against a registry that has not
	// frozen yet (or has failed).
	ErrNotFrozen = errors.New("registry is not frozen")

	// ErrNotBuilding indicates a merge against a registry that already
	// left the building phase.
	ErrNotBuilding = errors.New("registry is not building")

	// ErrPackAlreadyMerged indicates a pack id was merged more than once
	// in one session. Each resolved pack merges exactly once.
	ErrPackAlreadyMerged = errors.New("pack already merged")

	// ErrNotFound indicates the requested content id does not exist.
	ErrNotFound = errors.New("content not found")
)

type (
	// DuplicateContentIDError wraps ErrDuplicateContentID for errors.Is,
	// naming both claimants so the report can point at the offending pack.
	DuplicateContentIDError struct {
		Domain      content.Domain
		ID          string
		FirstOwner  string
		SecondOwner string
	}

	// DanglingReferenceError wraps ErrDanglingReference for errors.Is.
	DanglingReferenceError struct {
		PackID    string
		Domain    content.Domain
		ID        string
		RefDomain content.Domain
		RefID     string
	}
)

func (e *DuplicateContentIDError) Error() string {
	return fmt.Sprintf("duplicate content id %q in domain %q: first declared by pack %q, redeclared by pack %q",
		e.ID, e.Domain, e.FirstOwner, e.SecondOwner)
}

// Unwrap returns ErrDuplicateContentID for errors.Is classification.
func (e *DuplicateContentIDError) Unwrap() error { return ErrDuplicateContentID }

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("pack %q: %s %q references %s %q, which no loaded pack provides",
		e.PackID, e.Domain, e.ID, e.RefDomain, e.RefID)
}

// Unwrap returns ErrDanglingReference for errors.Is classification.
func (e *DanglingReferenceError) Unwrap() error { return ErrDanglingReference }

// Registry is the merged view over every loaded pack's content. It is not
// safe for concurrent mutation; the load session merges sequentially and
// hands out the frozen result.
type Registry struct {
	state   State
	entries map[string]content.Descriptor
	// order preserves merge order of keys so validation and iteration are
	// deterministic run to run.
	order []string
	packs []string
}

// New creates an empty registry in the building state.
func New() *Registry {
	return &Registry{
		state:   StateBuilding,
		entries: make(map[string]content.Descriptor),
	}
}

// State returns the registry's current lifecycle phase.
func (r *Registry) State() State { return r.state }

// Packs returns the ids of merged packs in merge order.
func (r *Registry) Packs() []string {
	out := make([]string, len(r.packs))
	copy(out, r.packs)
	return out
}

// Len returns the number of merged descriptors.
func (r *Registry) Len() int { return len(r.entries) }

// Merge adds one pack's descriptors to the registry. Descriptor ids must
// be unique within their domain across every pack merged so far; the first
// collision fails the whole registry, because a world with ambiguous
// content ids is not playable in any partial form.
func (r *Registry) Merge(packID string, descs []content.Descriptor) error {
	if r.state != StateBuilding {
		return fmt.Errorf("%w: cannot merge pack %q in state %s", ErrNotBuilding, packID, r.state)
	}
	if slices.Contains(r.packs, packID) {
		r.state = StateFailed
		return fmt.Errorf("%w: %q", ErrPackAlreadyMerged, packID)
	}

	for _, d := range descs {
		if !d.Domain.IsValid() {
			r.state = StateFailed
			return fmt.Errorf("pack %q: unknown content domain %q", packID, d.Domain)
		}
		key := d.Key()
		if prev, exists := r.entries[key]; exists {
			r.state = StateFailed
			return &DuplicateContentIDError{
				Domain:      d.Domain,
				ID:          d.ID,
				FirstOwner:  prev.PackID,
				SecondOwner: packID,
			}
		}
		r.entries[key] = d
		r.order = append(r.order, key)
	}

	r.packs = append(r.packs, packID)
	return nil
}

// Finalize runs the referential integrity pass and freezes the registry.
// Every cross-domain reference in every record must resolve within the
// merged set. All dangling references are collected and returned joined,
// not just the first, so one load attempt surfaces the full damage.
func (r *Registry) Finalize() error {
	if r.state != StateBuilding {
		return fmt.Errorf("%w: cannot finalize in state %s", ErrNotBuilding, r.state)
	}
	r.state = StateValidating

	var errs []error
	for _, key := range r.order {
		d := r.entries[key]
		for _, ref := range d.References() {
			refKey := ref.Domain.Key(ref.ID)
			if _, ok := r.entries[refKey]; !ok {
				errs = append(errs, &DanglingReferenceError{
					PackID:    d.PackID,
					Domain:    d.Domain,
					ID:        d.ID,
					RefDomain: ref.Domain,
					RefID:     ref.ID,
				})
			}
		}
	}

	if len(errs) > 0 {
		r.state = StateFailed
		return errors.Join(errs...)
	}
	r.state = StateFrozen
	return nil
}

// Lookup returns the descriptor for a domain id. Lookups are only served
// by a frozen registry.
func (r *Registry) Lookup(domain content.Domain, id string) (content.Descriptor, error) {
	if r.state != StateFrozen {
		return content.Descriptor{}, fmt.Errorf("%w: state %s", ErrNotFrozen, r.state)
	}
	d, ok := r.entries[domain.Key(id)]
	if !ok {
		return content.Descriptor{}, fmt.Errorf("%w: %s %q", ErrNotFound, domain, id)
	}
	return d, nil
}

// DomainIDs returns the ids present in a domain, in merge order. It is
// only served by a frozen registry.
func (r *Registry) DomainIDs(domain content.Domain) ([]string, error) {
	if r.state != StateFrozen {
		return nil, fmt.Errorf("%w: state %s", ErrNotFrozen, r.state)
	}
	var ids []string
	for _, key := range r.order {
		d := r.entries[key]
		if d.Domain == domain {
			ids = append(ids, d.ID)
		}
	}
	return ids, nil
}

// Descriptors returns every merged descriptor in merge order. It is only
// served by a frozen registry.
func (r *Registry) Descriptors() ([]content.Descriptor, error) {
	if r.state != StateFrozen {
		return nil, fmt.Errorf("%w: state %s", ErrNotFrozen, r.state)
	}
	out := make([]content.Descriptor, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entries[key])
	}
	return out, nil
}
