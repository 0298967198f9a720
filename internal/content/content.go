// SPDX-License-Identifier: MPL-2.0

// Package content defines the typed gameplay definitions contributed by
// packs: the content domains, the per-domain record types, and the
// ContentDescriptor envelope the registry stores. Records are explicit
// tagged payloads keyed by (domain, id); consumers dispatch on the domain
// tag rather than on virtual methods.
package content

import (
	"fmt"
	"slices"
)

const (
	DomainRegions      Domain = "regions"
	DomainEvents       Domain = "events"
	DomainQuests       Domain = "quests"
	DomainAnchors      Domain = "anchors"
	DomainHeroes       Domain = "heroes"
	DomainAbilities    Domain = "abilities"
	DomainCards        Domain = "cards"
	DomainEnemies      Domain = "enemies"
	DomainBalance      Domain = "balance"
	DomainLocalization Domain = "localization"
)

// Domains lists every content domain in canonical order. Iteration over
// domains anywhere in the pipeline uses this order for determinism.
var Domains = []Domain{
	DomainRegions,
	DomainEvents,
	DomainQuests,
	DomainAnchors,
	DomainHeroes,
	DomainAbilities,
	DomainCards,
	DomainEnemies,
	DomainBalance,
	DomainLocalization,
}

type (
	// Domain tags a content domain ("regions", "cards", ...).
	Domain string

	// Descriptor is one decoded domain record: the domain tag, the record's
	// stable id, the owning pack, and the domain-specific payload. Created
	// by the pack reader, consumed by the registry, immutable once produced.
	Descriptor struct {
		// Domain is the content domain this record belongs to.
		Domain Domain
		// ID is the record's stable identifier, globally unique within the
		// domain across all merged packs.
		ID string
		// PackID is the id of the pack that contributed this record.
		PackID string
		// Payload is the typed domain record (e.g. Card, Quest). Dispatch
		// on Domain to recover the concrete type.
		Payload any
	}

	// Reference is a cross-domain link embedded in a record, resolved
	// against the full registry after every pack has merged.
	Reference struct {
		Domain Domain
		ID     string
	}
)

// IsValid reports whether d names a known content domain.
func (d Domain) IsValid() bool {
	return slices.Contains(Domains, d)
}

// Key returns the registry key "domain/id" for the given record id.
func (d Domain) Key(id string) string {
	return fmt.Sprintf("%s/%s", d, id)
}

// Key returns the registry key "domain/id" for this descriptor.
func (desc Descriptor) Key() string {
	return desc.Domain.Key(desc.ID)
}

// References extracts every cross-domain reference embedded in the
// descriptor's payload. Empty reference fields contribute nothing.
func (desc Descriptor) References() []Reference {
	var refs []Reference
	add := func(domain Domain, id string) {
		if id != "" {
			refs = append(refs, Reference{Domain: domain, ID: id})
		}
	}

	switch p := desc.Payload.(type) {
	case Region:
		add(DomainEvents, p.EntryEventID)
	case Event:
		add(DomainRegions, p.RegionID)
		for _, c := range p.Choices {
			add(DomainEvents, c.NextEventID)
			add(DomainQuests, c.QuestID)
		}
	case Quest:
		add(DomainRegions, p.EntryRegionID)
		for _, s := range p.Stages {
			add(DomainEvents, s.EventID)
		}
	case Anchor:
		add(DomainRegions, p.RegionID)
		add(DomainQuests, p.QuestID)
	case Hero:
		for _, id := range p.StartingDeck {
			add(DomainCards, id)
		}
		for _, id := range p.AbilityIDs {
			add(DomainAbilities, id)
		}
	case Card:
		add(DomainAbilities, p.AbilityID)
	case Enemy:
		for _, id := range p.DeckCardIDs {
			add(DomainCards, id)
		}
	}

	return refs
}
