// SPDX-License-Identifier: MPL-2.0

// Package resolver computes the deterministic, dependency-respecting load
// order for a set of discovered packs, gating each pack on dependency
// version ranges, host engine compatibility, and required capabilities.
package resolver

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/emberdeck/packwright/internal/dag"
	"github.com/emberdeck/packwright/pkg/manifest"
	"github.com/emberdeck/packwright/pkg/semver"
)

// Host describes the engine the packs will be loaded into: its version
// and the capability tokens it declares. Both are supplied externally.
type Host struct {
	EngineVersion semver.Version
	Capabilities  map[string]bool
}

// NewHost builds a Host from an engine version and a capability list.
func NewHost(engineVersion semver.Version, capabilities []string) Host {
	caps := make(map[string]bool, len(capabilities))
	for _, c := range capabilities {
		caps[c] = true
	}
	return Host{EngineVersion: engineVersion, Capabilities: caps}
}

// Resolve orders the discovered manifests so that every dependency
// strictly precedes its dependents. The order is a pure function of the
// input set: ties among simultaneously ready packs break by ascending
// pack id. Any gating failure (duplicate id, missing or mismatched
// dependency, cycle, engine incompatibility, missing capability) aborts
// resolution with a typed error.
func Resolve(manifests []*manifest.PackManifest, host Host) ([]*manifest.PackManifest, error) {
	byID := make(map[string]*manifest.PackManifest, len(manifests))
	for _, m := range manifests {
		if _, dup := byID[m.ID]; dup {
			return nil, &DuplicatePackIDError{PackID: m.ID}
		}
		byID[m.ID] = m
	}

	graph := dag.New()
	for _, m := range manifests {
		graph.AddNode(m.ID)
	}

	// Gate every declared dependency before sorting: a dependency must be
	// present in the discovered set and its discovered version must
	// satisfy the declared range. Edges run dependency -> dependent so
	// dependencies sort first.
	for _, m := range sortedByID(manifests) {
		for _, dep := range m.Dependencies {
			target, ok := byID[dep.PackID]
			if !ok {
				return nil, &DependencyNotFoundError{PackID: m.ID, DependencyID: dep.PackID}
			}
			if !dep.Range.Satisfies(target.Version) {
				return nil, &DependencyVersionMismatchError{
					PackID:       m.ID,
					DependencyID: dep.PackID,
					Required:     dep.Range,
					Actual:       target.Version,
				}
			}
			graph.AddEdge(dep.PackID, m.ID)
		}
	}

	order, err := graph.TopologicalSort()
	if err != nil {
		var cycleErr *dag.CycleError
		if errors.As(err, &cycleErr) {
			return nil, &DependencyCycleError{Members: cycleErr.Members}
		}
		return nil, fmt.Errorf("topological sort failed: %w", err)
	}

	// Compatibility and capability gates run in load order, once each
	// pack's dependencies are known to be satisfied.
	resolved := make([]*manifest.PackManifest, 0, len(order))
	for _, id := range order {
		m := byID[id]
		if !manifest.CompatibleWithEngine(m, host.EngineVersion) {
			return nil, &IncompatibleCoreVersionError{
				PackID:   m.ID,
				Required: m.CoreRange(),
				Actual:   host.EngineVersion,
			}
		}
		for _, capability := range m.RequiredCapabilities {
			if !host.Capabilities[capability] {
				return nil, &MissingCapabilityError{PackID: m.ID, Capability: capability}
			}
		}
		resolved = append(resolved, m)
	}

	return resolved, nil
}

// sortedByID returns the manifests sorted ascending by pack id, so graph
// construction order never depends on discovery order.
func sortedByID(manifests []*manifest.PackManifest) []*manifest.PackManifest {
	sorted := slices.Clone(manifests)
	slices.SortFunc(sorted, func(a, b *manifest.PackManifest) int {
		return strings.Compare(a.ID, b.ID)
	})
	return sorted
}
