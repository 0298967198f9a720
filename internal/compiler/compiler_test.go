// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/emberdeck/packwright/internal/content"
	"github.com/emberdeck/packwright/internal/packfile"
	"github.com/emberdeck/packwright/pkg/manifest"
)

func writePack(t *testing.T, manifestJSON string, sources map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(manifestJSON), 0644); err != nil {
		t.Fatal(err)
	}
	for name, data := range sources {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

const fullManifest = `{
	"id": "roundtrip",
	"name": {"en": "Round Trip"},
	"version": "1.2.3",
	"type": "base",
	"core_version_min": "1.0.0",
	"author": "Emberdeck Studio",
	"locales": ["en"],
	"regions_path": "content/regions.json",
	"events_path": "content/events.json",
	"quests_path": "content/quests.json",
	"anchors_path": "content/anchors.json",
	"heroes_path": "content/heroes.json",
	"abilities_path": "content/abilities.json",
	"cards_path": "content/cards.json",
	"enemies_path": "content/enemies.json",
	"balance_path": "content/balance.json",
	"localization_path": "content/localization.json"
}`

var fullSources = map[string]string{
	"content/regions.json":      `[{"id": "ashfall", "name": {"en": "Ashfall"}, "description": {"en": "A burnt valley"}, "entry_event": "arrival", "tags": ["start"]}]`,
	"content/events.json":       `[{"id": "arrival", "name": {"en": "Arrival"}, "text": {"en": "You arrive."}, "region": "ashfall", "choices": [{"text": {"en": "Press on"}, "quest": "embers"}]}]`,
	"content/quests.json":       `[{"id": "embers", "name": {"en": "Embers"}, "entry_region": "ashfall", "stages": [{"id": "s1", "objective": {"en": "Survive"}, "event": "arrival"}]}]`,
	"content/anchors.json":      `[{"id": "shrine", "name": {"en": "Shrine"}, "region": "ashfall", "quest": "embers"}]`,
	"content/heroes.json":       `[{"id": "ranger", "name": {"en": "Ranger"}, "health": 30, "starting_deck": ["sword"], "abilities": ["strike"]}]`,
	"content/abilities.json":    `[{"id": "strike", "name": {"en": "Strike"}, "cost": 1}]`,
	"content/cards.json":        `[{"id": "sword", "name": {"en": "Sword"}, "kind": "attack", "cost": 1, "ability": "strike", "tags": ["weapon"]}]`,
	"content/enemies.json":      `[{"id": "husk", "name": {"en": "Husk"}, "health": 12, "attack": 3, "deck": ["sword"]}]`,
	"content/balance.json":      `[{"id": "draw-count", "value": 5, "note": "cards per turn"}]`,
	"content/localization.json": `[{"id": "ui.title", "values": {"en": "Emberdeck"}}]`,
}

// Compiling a pack then reading the artifact back must yield records
// field-for-field identical to the JSON sources, for every domain.
func TestCompileRoundTrip(t *testing.T) {
	t.Parallel()

	dir := writePack(t, fullManifest, fullSources)
	res, err := Compile(dir, "")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(res.Sections) != len(content.Domains) {
		t.Fatalf("compiled %d sections, want %d", len(res.Sections), len(content.Domains))
	}

	contents, err := packfile.ReadPack(res.ArtifactPath)
	if err != nil {
		t.Fatalf("ReadPack() error = %v", err)
	}
	if contents.Manifest.ID != "roundtrip" {
		t.Fatalf("manifest id = %q", contents.Manifest.ID)
	}

	byKey := make(map[string]content.Descriptor)
	for _, d := range contents.Descriptors {
		byKey[d.Key()] = d
	}

	want := map[string]any{
		"regions/ashfall": content.Region{
			ID:           "ashfall",
			Name:         manifest.LocalizedString{"en": "Ashfall"},
			Description:  manifest.LocalizedString{"en": "A burnt valley"},
			EntryEventID: "arrival",
			Tags:         []string{"start"},
		},
		"events/arrival": content.Event{
			ID:       "arrival",
			Name:     manifest.LocalizedString{"en": "Arrival"},
			Text:     manifest.LocalizedString{"en": "You arrive."},
			RegionID: "ashfall",
			Choices: []content.EventChoice{{
				Text:    manifest.LocalizedString{"en": "Press on"},
				QuestID: "embers",
			}},
		},
		"quests/embers": content.Quest{
			ID:            "embers",
			Name:          manifest.LocalizedString{"en": "Embers"},
			EntryRegionID: "ashfall",
			Stages: []content.QuestStage{{
				ID:        "s1",
				Objective: manifest.LocalizedString{"en": "Survive"},
				EventID:   "arrival",
			}},
		},
		"anchors/shrine": content.Anchor{
			ID:       "shrine",
			Name:     manifest.LocalizedString{"en": "Shrine"},
			RegionID: "ashfall",
			QuestID:  "embers",
		},
		"heroes/ranger": content.Hero{
			ID:           "ranger",
			Name:         manifest.LocalizedString{"en": "Ranger"},
			Health:       30,
			StartingDeck: []string{"sword"},
			AbilityIDs:   []string{"strike"},
		},
		"abilities/strike": content.Ability{
			ID:   "strike",
			Name: manifest.LocalizedString{"en": "Strike"},
			Cost: 1,
		},
		"cards/sword": content.Card{
			ID:        "sword",
			Name:      manifest.LocalizedString{"en": "Sword"},
			Kind:      "attack",
			Cost:      1,
			AbilityID: "strike",
			Tags:      []string{"weapon"},
		},
		"enemies/husk": content.Enemy{
			ID:          "husk",
			Name:        manifest.LocalizedString{"en": "Husk"},
			Health:      12,
			Attack:      3,
			DeckCardIDs: []string{"sword"},
		},
		"balance/draw-count": content.BalanceEntry{
			ID:    "draw-count",
			Value: 5,
			Note:  "cards per turn",
		},
		"localization/ui.title": content.LocalizationEntry{
			ID:     "ui.title",
			Values: map[string]string{"en": "Emberdeck"},
		},
	}

	for key, wantPayload := range want {
		d, ok := byKey[key]
		if !ok {
			t.Errorf("descriptor %q missing after round trip", key)
			continue
		}
		if d.PackID != "roundtrip" {
			t.Errorf("%s: PackID = %q, want roundtrip", key, d.PackID)
		}
		if !reflect.DeepEqual(d.Payload, wantPayload) {
			t.Errorf("%s: payload mismatch\n got: %#v\nwant: %#v", key, d.Payload, wantPayload)
		}
	}
}

func TestCompileSourceChecksumGate(t *testing.T) {
	t.Parallel()

	cardJSON := `[{"id": "sword", "name": {"en": "Sword"}, "kind": "attack", "cost": 1}]`
	digest := sha256.Sum256([]byte(cardJSON))

	manifestTemplate := `{
		"id": "checked",
		"name": {"en": "Checked"},
		"version": "1.0.0",
		"type": "base",
		"core_version_min": "1.0.0",
		"author": "Emberdeck Studio",
		"locales": ["en"],
		"cards_path": "cards.json",
		"checksums": {"cards.json": %q}
	}`

	t.Run("matching checksum compiles", func(t *testing.T) {
		t.Parallel()
		dir := writePack(t,
			fmt.Sprintf(manifestTemplate, hex.EncodeToString(digest[:])),
			map[string]string{"cards.json": cardJSON})
		if _, err := Compile(dir, ""); err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
	})

	t.Run("mismatch fails before parsing", func(t *testing.T) {
		t.Parallel()
		dir := writePack(t,
			fmt.Sprintf(manifestTemplate, "0000000000000000000000000000000000000000000000000000000000000000"),
			map[string]string{"cards.json": cardJSON})
		_, err := Compile(dir, "")
		if !errors.Is(err, packfile.ErrChecksumMismatch) {
			t.Fatalf("Compile() error = %v, want ErrChecksumMismatch", err)
		}
	})
}

func TestCompileRejectsMalformedDomainSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cards   string
		wantSub string
	}{
		{"unknown field", `[{"id": "sword", "name": {"en": "Sword"}, "kind": "attack", "cost": 1, "powerr": 3}]`, ""},
		{"missing id", `[{"name": {"en": "Sword"}, "kind": "attack", "cost": 1}]`, ""},
		{"duplicate id", `[{"id": "sword", "name": {"en": "A"}, "kind": "attack", "cost": 1}, {"id": "sword", "name": {"en": "B"}, "kind": "attack", "cost": 1}]`, ""},
		{"negative cost", `[{"id": "sword", "name": {"en": "Sword"}, "kind": "attack", "cost": -1}]`, ""},
		{"not a list", `{"id": "sword"}`, ""},
	}

	m := `{
		"id": "broken",
		"name": {"en": "Broken"},
		"version": "1.0.0",
		"type": "base",
		"core_version_min": "1.0.0",
		"author": "Emberdeck Studio",
		"locales": ["en"],
		"cards_path": "cards.json"
	}`

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := writePack(t, m, map[string]string{"cards.json": tt.cards})
			_, err := Compile(dir, "")
			if !errors.Is(err, ErrCompile) {
				t.Fatalf("Compile() error = %v, want ErrCompile", err)
			}
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("error type = %T", err)
			}
			if ce.Domain != content.DomainCards || ce.PackID != "broken" {
				t.Errorf("CompileError = %+v", ce)
			}
		})
	}
}

func TestCompileRejectsEscapingSourcePath(t *testing.T) {
	t.Parallel()

	m := `{
		"id": "escape",
		"name": {"en": "Escape"},
		"version": "1.0.0",
		"type": "base",
		"core_version_min": "1.0.0",
		"author": "Emberdeck Studio",
		"locales": ["en"],
		"cards_path": "../outside.json"
	}`
	dir := writePack(t, m, nil)
	if _, err := Compile(dir, ""); !errors.Is(err, ErrCompile) {
		t.Fatalf("Compile() error = %v, want ErrCompile", err)
	}
}

func TestCompileRejectsInvalidManifest(t *testing.T) {
	t.Parallel()

	// Parses fine, but the pack id violates the required shape.
	m := `{
		"id": "Bad_ID",
		"name": {"en": "Bad"},
		"version": "1.0.0",
		"type": "base",
		"core_version_min": "1.0.0",
		"author": "Emberdeck Studio",
		"locales": ["en"]
	}`
	dir := writePack(t, m, nil)
	if _, err := Compile(dir, ""); !errors.Is(err, manifest.ErrInvalidManifest) {
		t.Fatalf("Compile() error = %v, want ErrInvalidManifest", err)
	}
}

func TestCompileWarningsSurvive(t *testing.T) {
	t.Parallel()

	m := `{
		"id": "anon",
		"name": {"en": "Anonymous"},
		"version": "1.0.0",
		"type": "base",
		"core_version_min": "1.0.0",
		"locales": ["en"]
	}`
	dir := writePack(t, m, nil)
	res, err := Compile(dir, "")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(res.Issues) == 0 {
		t.Error("missing author warning was not collected")
	}
}
