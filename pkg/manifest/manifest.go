// SPDX-License-Identifier: EPL-2.0

// Package manifest defines the pack manifest document: pack identity,
// compatibility bounds, dependencies, and content entry points. Manifests
// are parsed once at discovery time and are immutable afterwards.
package manifest

import (
	"time"

	"github.com/emberdeck/packwright/pkg/semver"
)

// FileName is the canonical manifest filename at a pack root.
const FileName = "manifest.json"

const (
	// TypeBase is a foundational pack other packs build on.
	TypeBase PackType = "base"
	// TypeCampaign is a campaign pack with its own entry points.
	TypeCampaign PackType = "campaign"
	// TypeExpansion adds content on top of existing packs.
	TypeExpansion PackType = "expansion"
	// TypeBalance carries balance table adjustments.
	TypeBalance PackType = "balance"
)

type (
	// PackType categorizes a pack. The set is open: unknown values parse
	// fine and are carried through verbatim.
	PackType string

	// LocalizedString maps a locale code to display text. Values are
	// carried opaquely; locale resolution happens outside this module.
	LocalizedString map[string]string

	// PackDependency declares a dependency on another pack: the target
	// pack id plus an inclusive version range.
	PackDependency struct {
		PackID string
		Range  semver.Range
	}

	// PackManifest is the parsed, typed form of a pack's manifest.json.
	// Constructed once by Parse and immutable thereafter.
	PackManifest struct {
		// ID is the stable lowercase-hyphen pack identifier, unique across
		// a discovered set.
		ID string

		// Name is the localized display name.
		Name LocalizedString

		// Description is the localized long description (optional).
		Description LocalizedString

		// Version is this pack's own semantic version.
		Version semver.Version

		// Type categorizes the pack (base, campaign, expansion, balance).
		Type PackType

		// CoreVersionMin is the inclusive lower bound on the host engine
		// version this pack supports.
		CoreVersionMin semver.Version

		// CoreVersionMax is the optional inclusive upper bound.
		CoreVersionMax *semver.Version

		// Dependencies lists required packs, in declaration order.
		Dependencies []PackDependency

		// RequiredCapabilities are tokens naming engine extension points
		// this pack needs.
		RequiredCapabilities []string

		// EntryRegionID and EntryQuestID are optional campaign entry points.
		EntryRegionID string
		EntryQuestID  string

		// RecommendedHeroes lists hero ids suggested for this pack's
		// content (optional; empty lists only produce a warning).
		RecommendedHeroes []string

		Author      string
		License     string
		ReleaseDate *time.Time

		// SupportedLocales is the non-empty set of locale codes this pack
		// ships content for.
		SupportedLocales []string

		// Checksums maps relative content paths to their sha256 hex digests
		// (optional). Verified by the compiler against raw source bytes.
		Checksums map[string]string

		// ContentPaths maps a content domain name to its JSON source path,
		// relative to the pack root. A missing domain contributes nothing.
		ContentPaths map[string]string
	}
)

// IsZero reports whether the localized string carries no non-empty text.
func (ls LocalizedString) IsZero() bool {
	for _, v := range ls {
		if v != "" {
			return false
		}
	}
	return true
}

// CoreRange returns the engine compatibility bounds as a semver range.
func (m *PackManifest) CoreRange() semver.Range {
	return semver.Range{Min: m.CoreVersionMin, Max: m.CoreVersionMax}
}

// CompatibleWithEngine reports whether the host engine version lies within
// the pack's core version bounds. Both bounds are inclusive.
func CompatibleWithEngine(m *PackManifest, engineVersion semver.Version) bool {
	return m.CoreRange().Satisfies(engineVersion)
}
