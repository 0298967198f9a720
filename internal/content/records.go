// SPDX-License-Identifier: MPL-2.0

package content

import "github.com/emberdeck/packwright/pkg/manifest"

type (
	// Region is a map area the narrative plays out in.
	Region struct {
		ID          string                   `json:"id"`
		Name        manifest.LocalizedString `json:"name"`
		Description manifest.LocalizedString `json:"description,omitempty"`
		// EntryEventID is the event fired when the region is first entered.
		EntryEventID string   `json:"entry_event,omitempty"`
		Tags         []string `json:"tags,omitempty"`
	}

	// EventChoice is one selectable option within an event.
	EventChoice struct {
		Text manifest.LocalizedString `json:"text"`
		// NextEventID chains to a follow-up event.
		NextEventID string `json:"next_event,omitempty"`
		// QuestID starts a quest when chosen.
		QuestID string `json:"quest,omitempty"`
	}

	// Event is a narrative beat presented to the player.
	Event struct {
		ID   string                   `json:"id"`
		Name manifest.LocalizedString `json:"name"`
		Text manifest.LocalizedString `json:"text,omitempty"`
		// RegionID anchors the event to a region.
		RegionID string        `json:"region,omitempty"`
		Choices  []EventChoice `json:"choices,omitempty"`
	}

	// QuestStage is one objective within a quest.
	QuestStage struct {
		ID        string                   `json:"id"`
		Objective manifest.LocalizedString `json:"objective"`
		// EventID triggers when the stage begins.
		EventID string `json:"event,omitempty"`
	}

	// Quest is a multi-stage storyline.
	Quest struct {
		ID          string                   `json:"id"`
		Name        manifest.LocalizedString `json:"name"`
		Description manifest.LocalizedString `json:"description,omitempty"`
		// EntryRegionID is where the quest becomes available.
		EntryRegionID string       `json:"entry_region,omitempty"`
		Stages        []QuestStage `json:"stages,omitempty"`
	}

	// Anchor is a fixed narrative point of interest inside a region.
	Anchor struct {
		ID   string                   `json:"id"`
		Name manifest.LocalizedString `json:"name"`
		Text manifest.LocalizedString `json:"text,omitempty"`
		// RegionID places the anchor.
		RegionID string `json:"region,omitempty"`
		// QuestID links the anchor to a quest line.
		QuestID string `json:"quest,omitempty"`
	}

	// Hero is a playable character definition.
	Hero struct {
		ID          string                   `json:"id"`
		Name        manifest.LocalizedString `json:"name"`
		Description manifest.LocalizedString `json:"description,omitempty"`
		Health      int                      `json:"health"`
		// StartingDeck lists card ids the hero begins with.
		StartingDeck []string `json:"starting_deck,omitempty"`
		// AbilityIDs lists the hero's innate abilities.
		AbilityIDs []string `json:"abilities,omitempty"`
	}

	// Ability is an activatable effect referenced by heroes and cards.
	Ability struct {
		ID          string                   `json:"id"`
		Name        manifest.LocalizedString `json:"name"`
		Description manifest.LocalizedString `json:"description,omitempty"`
		Cost        int                      `json:"cost"`
	}

	// Card is a playable card definition.
	Card struct {
		ID          string                   `json:"id"`
		Name        manifest.LocalizedString `json:"name"`
		Description manifest.LocalizedString `json:"description,omitempty"`
		// Kind categorizes the card (e.g. "attack", "skill", "curse").
		Kind string `json:"kind"`
		Cost int    `json:"cost"`
		// AbilityID is the effect the card triggers when played.
		AbilityID string   `json:"ability,omitempty"`
		Tags      []string `json:"tags,omitempty"`
	}

	// Enemy is an opponent definition.
	Enemy struct {
		ID     string                   `json:"id"`
		Name   manifest.LocalizedString `json:"name"`
		Health int                      `json:"health"`
		Attack int                      `json:"attack"`
		// DeckCardIDs lists the cards the enemy plays from.
		DeckCardIDs []string `json:"deck,omitempty"`
	}

	// BalanceEntry is one tunable value in the balance tables.
	BalanceEntry struct {
		ID    string  `json:"id"`
		Value float64 `json:"value"`
		Note  string  `json:"note,omitempty"`
	}

	// LocalizationEntry maps a string key to its per-locale texts. Values
	// are carried opaquely; resolution is external.
	LocalizationEntry struct {
		ID     string            `json:"id"`
		Values map[string]string `json:"values"`
	}
)
