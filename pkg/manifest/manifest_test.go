// SPDX-License-Identifier: EPL-2.0

package manifest

import (
	"errors"
	"testing"
	"time"

	"github.com/emberdeck/packwright/pkg/semver"
)

const validManifest = `{
	"id": "campaign-1",
	"name": {"en": "First Campaign"},
	"description": {"en": "The opening arc."},
	"version": "1.2.0",
	"type": "campaign",
	"core_version_min": "1.0.0",
	"core_version_max": "2.0.0",
	"dependencies": [
		{"id": "base", "min_version": "1.0.0", "max_version": "1.9.9"}
	],
	"required_capabilities": ["rules.combo"],
	"entry_region": "region.harbor",
	"entry_quest": "quest.arrival",
	"recommended_heroes": ["hero.aria"],
	"author": "Emberdeck",
	"license": "CC-BY-4.0",
	"release_date": "2025-03-01",
	"locales": ["en", "ru"],
	"checksums": {"content/cards.json": "deadbeef"},
	"cards_path": "content/cards.json",
	"quests_path": "content/quests.json"
}`

func TestParseValidManifest(t *testing.T) {
	t.Parallel()
	m, err := Parse([]byte(validManifest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.ID != "campaign-1" {
		t.Errorf("ID = %q, want %q", m.ID, "campaign-1")
	}
	if m.Name["en"] != "First Campaign" {
		t.Errorf("Name[en] = %q", m.Name["en"])
	}
	if m.Version != semver.MustParse("1.2.0") {
		t.Errorf("Version = %v", m.Version)
	}
	if m.Type != TypeCampaign {
		t.Errorf("Type = %q", m.Type)
	}
	if m.CoreVersionMin != semver.MustParse("1.0.0") {
		t.Errorf("CoreVersionMin = %v", m.CoreVersionMin)
	}
	if m.CoreVersionMax == nil || *m.CoreVersionMax != semver.MustParse("2.0.0") {
		t.Errorf("CoreVersionMax = %v", m.CoreVersionMax)
	}
	if len(m.Dependencies) != 1 {
		t.Fatalf("Dependencies = %v", m.Dependencies)
	}
	dep := m.Dependencies[0]
	if dep.PackID != "base" {
		t.Errorf("dependency PackID = %q", dep.PackID)
	}
	if dep.Range.Min != semver.MustParse("1.0.0") {
		t.Errorf("dependency Range.Min = %v", dep.Range.Min)
	}
	if dep.Range.Max == nil || *dep.Range.Max != semver.MustParse("1.9.9") {
		t.Errorf("dependency Range.Max = %v", dep.Range.Max)
	}
	if m.EntryRegionID != "region.harbor" || m.EntryQuestID != "quest.arrival" {
		t.Errorf("entry points = %q, %q", m.EntryRegionID, m.EntryQuestID)
	}
	if m.ReleaseDate == nil || !m.ReleaseDate.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ReleaseDate = %v", m.ReleaseDate)
	}
	if len(m.ContentPaths) != 2 {
		t.Errorf("ContentPaths = %v", m.ContentPaths)
	}
	if m.ContentPaths["cards"] != "content/cards.json" {
		t.Errorf("ContentPaths[cards] = %q", m.ContentPaths["cards"])
	}
	if _, ok := m.ContentPaths["regions"]; ok {
		t.Error("absent domain must not appear in ContentPaths")
	}
}

func TestParseAcceptsISO8601Date(t *testing.T) {
	t.Parallel()
	doc := `{
		"id": "base",
		"name": {"en": "Base"},
		"version": "1.0.0",
		"type": "base",
		"core_version_min": "1.0.0",
		"release_date": "2025-03-01T12:30:00Z",
		"locales": ["en"]
	}`
	m, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ReleaseDate == nil || m.ReleaseDate.Hour() != 12 {
		t.Errorf("ReleaseDate = %v", m.ReleaseDate)
	}
}

func TestParseFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed json", `{"id": "base",`},
		{"missing id", `{"name": {"en": "Base"}, "version": "1.0.0", "type": "base", "core_version_min": "1.0.0", "locales": ["en"]}`},
		{"bad version", `{"id": "base", "name": {"en": "Base"}, "version": "one", "type": "base", "core_version_min": "1.0.0", "locales": ["en"]}`},
		{"bad core min", `{"id": "base", "name": {"en": "Base"}, "version": "1.0.0", "type": "base", "core_version_min": "??", "locales": ["en"]}`},
		{"bad dependency version", `{"id": "base", "name": {"en": "Base"}, "version": "1.0.0", "type": "base", "core_version_min": "1.0.0", "locales": ["en"], "dependencies": [{"id": "x", "min_version": "nope"}]}`},
		{"bad date", `{"id": "base", "name": {"en": "Base"}, "version": "1.0.0", "type": "base", "core_version_min": "1.0.0", "locales": ["en"], "release_date": "March 1st"}`},
		{"name not localized", `{"id": "base", "name": 7, "version": "1.0.0", "type": "base", "core_version_min": "1.0.0", "locales": ["en"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidManifest) {
				t.Errorf("expected ErrInvalidManifest, got %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	base := func() *PackManifest {
		return &PackManifest{
			ID:               "base",
			Name:             LocalizedString{"en": "Base"},
			Author:           "Emberdeck",
			SupportedLocales: []string{"en"},
		}
	}

	t.Run("clean manifest has no issues", func(t *testing.T) {
		t.Parallel()
		if issues := Validate(base()); len(issues) != 0 {
			t.Errorf("unexpected issues: %v", issues)
		}
	})

	t.Run("empty id is an error", func(t *testing.T) {
		t.Parallel()
		m := base()
		m.ID = ""
		issues := Validate(m)
		if !HasErrors(issues) {
			t.Errorf("expected error issue, got %v", issues)
		}
	})

	t.Run("bad id pattern is an error", func(t *testing.T) {
		t.Parallel()
		for _, id := range []string{"Base", "-base", "base-", "ba_se", "a"} {
			m := base()
			m.ID = id
			if !HasErrors(Validate(m)) {
				t.Errorf("id %q: expected error issue", id)
			}
		}
	})

	t.Run("empty name is an error", func(t *testing.T) {
		t.Parallel()
		m := base()
		m.Name = LocalizedString{"en": ""}
		if !HasErrors(Validate(m)) {
			t.Error("expected error issue for empty name")
		}
	})

	t.Run("no locales is an error", func(t *testing.T) {
		t.Parallel()
		m := base()
		m.SupportedLocales = nil
		if !HasErrors(Validate(m)) {
			t.Error("expected error issue for empty locales")
		}
	})

	t.Run("empty recommended heroes is only a warning", func(t *testing.T) {
		t.Parallel()
		m := base()
		m.RecommendedHeroes = []string{}
		issues := Validate(m)
		if HasErrors(issues) {
			t.Errorf("expected warnings only, got %v", issues)
		}
		if len(issues) == 0 {
			t.Error("expected a warning for empty recommended_heroes")
		}
	})
}

func TestCompatibleWithEngine(t *testing.T) {
	t.Parallel()
	max := semver.MustParse("2.0.0")
	m := &PackManifest{
		CoreVersionMin: semver.MustParse("1.0.0"),
		CoreVersionMax: &max,
	}

	tests := []struct {
		engine string
		want   bool
	}{
		{"0.9.9", false},
		{"1.0.0", true}, // inclusive lower bound
		{"1.5.0", true},
		{"2.0.0", true}, // inclusive upper bound
		{"2.0.1", false},
	}
	for _, tt := range tests {
		if got := CompatibleWithEngine(m, semver.MustParse(tt.engine)); got != tt.want {
			t.Errorf("CompatibleWithEngine(engine=%s) = %v, want %v", tt.engine, got, tt.want)
		}
	}

	unbounded := &PackManifest{CoreVersionMin: semver.MustParse("1.0.0")}
	if !CompatibleWithEngine(unbounded, semver.MustParse("99.0.0")) {
		t.Error("missing core_version_max must not bound above")
	}
}
