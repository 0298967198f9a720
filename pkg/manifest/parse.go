// SPDX-License-Identifier: EPL-2.0

package manifest

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/emberdeck/packwright/pkg/cueutil"
	"github.com/emberdeck/packwright/pkg/semver"
)

//go:embed manifest_schema.cue
var manifestSchema string

// releaseDateLayout is the short date form accepted in release_date.
// Full ISO-8601 timestamps (RFC 3339) are also accepted.
const releaseDateLayout = "2006-01-02"

// ErrInvalidManifest indicates a manifest document that could not be parsed:
// malformed JSON, schema violation, bad version string, or unparseable date.
var ErrInvalidManifest = errors.New("invalid manifest")

// InvalidManifestError describes why a manifest failed to parse. It wraps
// ErrInvalidManifest so callers can classify with errors.Is.
type InvalidManifestError struct {
	// Path is the source path of the document, when known.
	Path string
	// Reason is the human-readable parse failure description.
	Reason string
}

func (e *InvalidManifestError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid manifest at %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("invalid manifest: %s", e.Reason)
}

// Unwrap returns ErrInvalidManifest for errors.Is classification.
func (e *InvalidManifestError) Unwrap() error { return ErrInvalidManifest }

// manifestDoc is the wire form of manifest.json, decoded from the
// schema-unified CUE value before conversion into the typed PackManifest.
type manifestDoc struct {
	ID                   string            `json:"id"`
	Name                 map[string]string `json:"name"`
	Description          map[string]string `json:"description,omitempty"`
	Version              string            `json:"version"`
	Type                 string            `json:"type"`
	CoreVersionMin       string            `json:"core_version_min"`
	CoreVersionMax       string            `json:"core_version_max,omitempty"`
	Dependencies         []dependencyDoc   `json:"dependencies,omitempty"`
	RequiredCapabilities []string          `json:"required_capabilities,omitempty"`
	EntryRegion          string            `json:"entry_region,omitempty"`
	EntryQuest           string            `json:"entry_quest,omitempty"`
	RecommendedHeroes    []string          `json:"recommended_heroes,omitempty"`
	Author               string            `json:"author,omitempty"`
	License              string            `json:"license,omitempty"`
	ReleaseDate          string            `json:"release_date,omitempty"`
	Locales              []string          `json:"locales"`
	Checksums            map[string]string `json:"checksums,omitempty"`

	RegionsPath      string `json:"regions_path,omitempty"`
	EventsPath       string `json:"events_path,omitempty"`
	QuestsPath       string `json:"quests_path,omitempty"`
	AnchorsPath      string `json:"anchors_path,omitempty"`
	HeroesPath       string `json:"heroes_path,omitempty"`
	AbilitiesPath    string `json:"abilities_path,omitempty"`
	CardsPath        string `json:"cards_path,omitempty"`
	EnemiesPath      string `json:"enemies_path,omitempty"`
	BalancePath      string `json:"balance_path,omitempty"`
	LocalizationPath string `json:"localization_path,omitempty"`
}

type dependencyDoc struct {
	ID         string `json:"id"`
	MinVersion string `json:"min_version"`
	MaxVersion string `json:"max_version,omitempty"`
}

// ParseFile reads and parses a manifest.json from disk.
func ParseFile(path string) (*PackManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest at %s: %w", path, err)
	}
	return parseBytes(data, path)
}

// Parse decodes a manifest document from bytes. The document is validated
// against the embedded schema before conversion; structural violations and
// unparseable versions or dates return an InvalidManifestError.
func Parse(data []byte) (*PackManifest, error) {
	return parseBytes(data, "")
}

func parseBytes(data []byte, path string) (*PackManifest, error) {
	res, err := cueutil.ParseAndDecodeString[manifestDoc](manifestSchema, data, "#Manifest",
		cueutil.WithFilename(path), cueutil.WithConcrete())
	if err != nil {
		return nil, &InvalidManifestError{Path: path, Reason: err.Error()}
	}
	return res.Value.toManifest(path)
}

// toManifest converts the wire document into the typed manifest, parsing
// version strings and the release date.
func (doc *manifestDoc) toManifest(path string) (*PackManifest, error) {
	version, err := semver.Parse(doc.Version)
	if err != nil {
		return nil, &InvalidManifestError{Path: path, Reason: fmt.Sprintf("version: %v", err)}
	}

	coreMin, err := semver.Parse(doc.CoreVersionMin)
	if err != nil {
		return nil, &InvalidManifestError{Path: path, Reason: fmt.Sprintf("core_version_min: %v", err)}
	}

	var coreMax *semver.Version
	if doc.CoreVersionMax != "" {
		v, err := semver.Parse(doc.CoreVersionMax)
		if err != nil {
			return nil, &InvalidManifestError{Path: path, Reason: fmt.Sprintf("core_version_max: %v", err)}
		}
		coreMax = &v
	}

	deps := make([]PackDependency, 0, len(doc.Dependencies))
	for i, d := range doc.Dependencies {
		minVersion, err := semver.Parse(d.MinVersion)
		if err != nil {
			return nil, &InvalidManifestError{Path: path, Reason: fmt.Sprintf("dependencies[%d].min_version: %v", i, err)}
		}
		var maxVersion *semver.Version
		if d.MaxVersion != "" {
			v, err := semver.Parse(d.MaxVersion)
			if err != nil {
				return nil, &InvalidManifestError{Path: path, Reason: fmt.Sprintf("dependencies[%d].max_version: %v", i, err)}
			}
			maxVersion = &v
		}
		deps = append(deps, PackDependency{
			PackID: d.ID,
			Range:  semver.Range{Min: minVersion, Max: maxVersion},
		})
	}

	var releaseDate *time.Time
	if doc.ReleaseDate != "" {
		t, err := parseReleaseDate(doc.ReleaseDate)
		if err != nil {
			return nil, &InvalidManifestError{Path: path, Reason: fmt.Sprintf("release_date: %v", err)}
		}
		releaseDate = &t
	}

	return &PackManifest{
		ID:                   doc.ID,
		Name:                 LocalizedString(doc.Name),
		Description:          LocalizedString(doc.Description),
		Version:              version,
		Type:                 PackType(doc.Type),
		CoreVersionMin:       coreMin,
		CoreVersionMax:       coreMax,
		Dependencies:         deps,
		RequiredCapabilities: doc.RequiredCapabilities,
		EntryRegionID:        doc.EntryRegion,
		EntryQuestID:         doc.EntryQuest,
		RecommendedHeroes:    doc.RecommendedHeroes,
		Author:               doc.Author,
		License:              doc.License,
		ReleaseDate:          releaseDate,
		SupportedLocales:     doc.Locales,
		Checksums:            doc.Checksums,
		ContentPaths:         doc.contentPaths(),
	}, nil
}

// contentPaths collects the populated per-domain source paths keyed by
// domain name. Absent domains are omitted entirely.
func (doc *manifestDoc) contentPaths() map[string]string {
	paths := map[string]string{
		"regions":      doc.RegionsPath,
		"events":       doc.EventsPath,
		"quests":       doc.QuestsPath,
		"anchors":      doc.AnchorsPath,
		"heroes":       doc.HeroesPath,
		"abilities":    doc.AbilitiesPath,
		"cards":        doc.CardsPath,
		"enemies":      doc.EnemiesPath,
		"balance":      doc.BalancePath,
		"localization": doc.LocalizationPath,
	}
	for domain, p := range paths {
		if p == "" {
			delete(paths, domain)
		}
	}
	return paths
}

// parseReleaseDate accepts either YYYY-MM-DD or a full RFC 3339 timestamp.
func parseReleaseDate(s string) (time.Time, error) {
	if t, err := time.Parse(releaseDateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected %s or RFC 3339, got %q", releaseDateLayout, s)
	}
	return t, nil
}
