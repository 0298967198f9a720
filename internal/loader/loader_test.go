// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/emberdeck/packwright/internal/compiler"
	"github.com/emberdeck/packwright/internal/content"
	"github.com/emberdeck/packwright/internal/packfile"
	"github.com/emberdeck/packwright/internal/registry"
	"github.com/emberdeck/packwright/internal/resolver"
	"github.com/emberdeck/packwright/pkg/manifest"
	"github.com/emberdeck/packwright/pkg/semver"
)

// buildPack writes pack sources into a temp dir, compiles them, and
// returns the artifact path.
func buildPack(t *testing.T, manifestJSON string, sources map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(manifestJSON), 0644); err != nil {
		t.Fatal(err)
	}
	for name, data := range sources {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}

	res, err := compiler.Compile(dir, "")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return res.ArtifactPath
}

func testHost() resolver.Host {
	return resolver.NewHost(semver.MustParse("1.5.0"), []string{"rules.core"})
}

const baseManifest = `{
	"id": "base",
	"name": {"en": "Base Set"},
	"version": "1.0.0",
	"type": "base",
	"core_version_min": "1.0.0",
	"author": "Emberdeck Studio",
	"locales": ["en"],
	"regions_path": "regions.json",
	"events_path": "events.json",
	"cards_path": "cards.json",
	"abilities_path": "abilities.json"
}`

var baseSources = map[string]string{
	"regions.json":   `[{"id": "ashfall", "name": {"en": "Ashfall"}, "entry_event": "arrival"}]`,
	"events.json":    `[{"id": "arrival", "name": {"en": "Arrival"}, "region": "ashfall"}]`,
	"cards.json":     `[{"id": "sword", "name": {"en": "Sword"}, "kind": "attack", "cost": 1, "ability": "strike"}]`,
	"abilities.json": `[{"id": "strike", "name": {"en": "Strike"}, "cost": 0}]`,
}

const campaignManifest = `{
	"id": "campaign-1",
	"name": {"en": "First Campaign"},
	"version": "1.0.0",
	"type": "campaign",
	"core_version_min": "1.0.0",
	"author": "Emberdeck Studio",
	"dependencies": [{"id": "base", "min_version": "1.0.0"}],
	"locales": ["en"],
	"quests_path": "quests.json"
}`

var campaignSources = map[string]string{
	"quests.json": `[{"id": "embers", "name": {"en": "Embers"}, "entry_region": "ashfall", "stages": [{"id": "s1", "objective": {"en": "Reach Ashfall"}, "event": "arrival"}]}]`,
}

func TestLoaderLoadsResolvedOrder(t *testing.T) {
	t.Parallel()

	base := buildPack(t, baseManifest, baseSources)
	campaign := buildPack(t, campaignManifest, campaignSources)

	l := New(Options{Host: testHost(), Workers: 2})
	// Discovery order deliberately lists the dependent first.
	report, err := l.Load(context.Background(), []string{campaign, base})
	if err != nil {
		t.Fatalf("Load() error = %v\nreport:\n%s", err, report.Render())
	}

	if !slices.Equal(report.Packs, []string{"base", "campaign-1"}) {
		t.Errorf("report.Packs = %v, want [base campaign-1]", report.Packs)
	}
	if report.Registry == nil || report.Registry.State() != registry.StateFrozen {
		t.Fatalf("report.Registry not frozen: %+v", report.Registry)
	}

	// The campaign's quest references content contributed by the base pack.
	d, err := report.Registry.Lookup(content.DomainQuests, "embers")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if d.PackID != "campaign-1" {
		t.Errorf("quest owner = %q, want campaign-1", d.PackID)
	}
	if report.HasErrors() {
		t.Errorf("report has errors:\n%s", report.Render())
	}
}

func TestLoaderDuplicateContentIDIsDeterministic(t *testing.T) {
	t.Parallel()

	base := buildPack(t, baseManifest, baseSources)

	rivalManifest := `{
		"id": "rival",
		"name": {"en": "Rival Pack"},
		"version": "1.0.0",
		"type": "expansion",
		"core_version_min": "1.0.0",
		"author": "Emberdeck Studio",
		"dependencies": [{"id": "base", "min_version": "1.0.0"}],
		"locales": ["en"],
		"cards_path": "cards.json"
	}`
	rival := buildPack(t, rivalManifest, map[string]string{
		"cards.json": `[{"id": "sword", "name": {"en": "Another Sword"}, "kind": "attack", "cost": 2}]`,
	})

	l := New(Options{Host: testHost(), Workers: 4})
	for range 5 {
		report, err := l.Load(context.Background(), []string{rival, base})
		if !errors.Is(err, registry.ErrDuplicateContentID) {
			t.Fatalf("Load() error = %v, want ErrDuplicateContentID", err)
		}

		// base merges first in resolved order, so ownership attribution
		// must not depend on decode scheduling.
		var dup *registry.DuplicateContentIDError
		if !errors.As(err, &dup) {
			t.Fatalf("error type = %T", err)
		}
		if dup.FirstOwner != "base" || dup.SecondOwner != "rival" {
			t.Fatalf("owners = (%q, %q), want (base, rival)", dup.FirstOwner, dup.SecondOwner)
		}
		if report.Registry != nil {
			t.Fatal("failed session must not expose a registry")
		}
	}
}

func TestLoaderDetectsFlippedByte(t *testing.T) {
	t.Parallel()

	artifact := buildPack(t, baseManifest, baseSources)

	// Flip one byte inside the cards section payload.
	r, err := packfile.Open(artifact)
	if err != nil {
		t.Fatal(err)
	}
	s, ok := r.Section(string(content.DomainCards))
	if !ok {
		t.Fatal("cards section missing")
	}
	_ = r.Close()

	data, err := os.ReadFile(artifact)
	if err != nil {
		t.Fatal(err)
	}
	data[s.Offset+s.Length/2] ^= 0x01
	if err := os.WriteFile(artifact, data, 0644); err != nil {
		t.Fatal(err)
	}

	l := New(Options{Host: testHost()})
	report, err := l.Load(context.Background(), []string{artifact})
	if !errors.Is(err, packfile.ErrChecksumMismatch) {
		t.Fatalf("Load() error = %v, want ErrChecksumMismatch", err)
	}
	if report.Registry != nil {
		t.Fatal("corrupted pack must not produce a registry")
	}
	if !report.HasErrors() {
		t.Fatal("report must record the integrity error")
	}
	found := false
	for _, e := range report.Entries {
		if e.Kind == KindIntegrity {
			found = true
			// The entry names the damaged pack, not just the artifact path.
			if e.PackID != "base" {
				t.Errorf("integrity entry pack = %q, want %q", e.PackID, "base")
			}
		}
	}
	if !found {
		t.Errorf("no integrity entry in report:\n%s", report.Render())
	}
}

func TestLoaderMissingDependency(t *testing.T) {
	t.Parallel()

	campaign := buildPack(t, campaignManifest, campaignSources)

	l := New(Options{Host: testHost()})
	report, err := l.Load(context.Background(), []string{campaign})
	if !errors.Is(err, resolver.ErrDependencyNotFound) {
		t.Fatalf("Load() error = %v, want ErrDependencyNotFound", err)
	}

	entry := report.Entries[len(report.Entries)-1]
	if entry.Kind != KindDependency || entry.PackID != "campaign-1" {
		t.Errorf("entry = %+v, want dependency error for campaign-1", entry)
	}
}

func TestLoaderCollectsWarnings(t *testing.T) {
	t.Parallel()

	// No author set; the manifest parses but yields a warning.
	quiet := `{
		"id": "quiet",
		"name": {"en": "Quiet Pack"},
		"version": "1.0.0",
		"type": "expansion",
		"core_version_min": "1.0.0",
		"locales": ["en"]
	}`
	artifact := buildPack(t, quiet, nil)

	l := New(Options{Host: testHost()})
	report, err := l.Load(context.Background(), []string{artifact})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if report.HasErrors() {
		t.Fatalf("warnings must not fail the session:\n%s", report.Render())
	}

	found := false
	for _, e := range report.Entries {
		if e.Severity == manifest.SeverityWarning && e.PackID == "quiet" {
			found = true
		}
	}
	if !found {
		t.Errorf("author warning missing from report:\n%s", report.Render())
	}
}

func TestLoaderManyIndependentPacks(t *testing.T) {
	t.Parallel()

	// More packs than workers, all independent, so decode completion order
	// is effectively random; merge order must still match resolution order.
	var artifacts []string
	for i := range 9 {
		id := fmt.Sprintf("pack-%d", i)
		m := fmt.Sprintf(`{
			"id": %q,
			"name": {"en": "Pack %d"},
			"version": "1.0.0",
			"type": "expansion",
			"core_version_min": "1.0.0",
			"author": "Emberdeck Studio",
			"locales": ["en"],
			"balance_path": "balance.json"
		}`, id, i)
		sources := map[string]string{
			"balance.json": fmt.Sprintf(`[{"id": "tuning-%d", "value": %d.5}]`, i, i),
		}
		artifacts = append(artifacts, buildPack(t, m, sources))
	}

	l := New(Options{Host: testHost(), Workers: 3})
	report, err := l.Load(context.Background(), artifacts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := make([]string, 9)
	for i := range want {
		want[i] = fmt.Sprintf("pack-%d", i)
	}
	if !slices.Equal(report.Packs, want) {
		t.Errorf("report.Packs = %v, want %v", report.Packs, want)
	}
	if report.Registry.Len() != 9 {
		t.Errorf("registry.Len() = %d, want 9", report.Registry.Len())
	}
}

func TestHandleSwap(t *testing.T) {
	t.Parallel()

	var h Handle
	if h.Current() != nil {
		t.Fatal("fresh handle must be empty")
	}

	building := registry.New()
	if _, err := h.Swap(building); !errors.Is(err, registry.ErrNotFrozen) {
		t.Fatalf("Swap(building) error = %v, want ErrNotFrozen", err)
	}

	frozen := registry.New()
	if err := frozen.Finalize(); err != nil {
		t.Fatal(err)
	}
	prev, err := h.Swap(frozen)
	if err != nil {
		t.Fatalf("Swap() error = %v", err)
	}
	if prev != nil {
		t.Errorf("first swap previous = %v, want nil", prev)
	}
	if h.Current() != frozen {
		t.Error("Current() did not return the swapped registry")
	}
}
