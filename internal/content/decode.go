// SPDX-License-Identifier: MPL-2.0

package content

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// decodeList strictly decodes a JSON array of domain records. Unknown
// fields are rejected so authoring typos surface at compile time instead
// of silently dropping data.
func decodeList[T any](data []byte) ([]T, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var records []T
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("malformed record list: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after record list")
	}
	return records, nil
}

// Decode parses one domain section into descriptors tagged with the owning
// pack id, running the domain-local structural checks. Cross-domain
// reference checks are deliberately not performed here: they need the full
// resolved set and belong to the registry.
func Decode(domain Domain, packID string, data []byte) ([]Descriptor, error) {
	switch domain {
	case DomainRegions:
		return decodeDomain[Region](domain, packID, data, validateRegion)
	case DomainEvents:
		return decodeDomain[Event](domain, packID, data, validateEvent)
	case DomainQuests:
		return decodeDomain[Quest](domain, packID, data, validateQuest)
	case DomainAnchors:
		return decodeDomain[Anchor](domain, packID, data, validateAnchor)
	case DomainHeroes:
		return decodeDomain[Hero](domain, packID, data, validateHero)
	case DomainAbilities:
		return decodeDomain[Ability](domain, packID, data, validateAbility)
	case DomainCards:
		return decodeDomain[Card](domain, packID, data, validateCard)
	case DomainEnemies:
		return decodeDomain[Enemy](domain, packID, data, validateEnemy)
	case DomainBalance:
		return decodeDomain[BalanceEntry](domain, packID, data, validateBalanceEntry)
	case DomainLocalization:
		return decodeDomain[LocalizationEntry](domain, packID, data, validateLocalizationEntry)
	default:
		return nil, fmt.Errorf("unknown content domain %q", domain)
	}
}

// Normalize decodes and validates a domain source, then re-encodes it in
// canonical JSON form. The compiler writes the normalized bytes into the
// artifact so that compile-then-read round-trips field for field.
func Normalize(domain Domain, data []byte) ([]byte, int, error) {
	descs, err := Decode(domain, "", data)
	if err != nil {
		return nil, 0, err
	}

	payloads := make([]any, len(descs))
	for i, d := range descs {
		payloads[i] = d.Payload
	}

	out, err := json.Marshal(payloads)
	if err != nil {
		return nil, 0, fmt.Errorf("re-encoding %s records: %w", domain, err)
	}
	return out, len(descs), nil
}

// decodeDomain decodes a record list, validates each record, enforces
// in-file id uniqueness, and wraps the records into descriptors.
func decodeDomain[T any](domain Domain, packID string, data []byte, validate func(int, T) (string, error)) ([]Descriptor, error) {
	records, err := decodeList[T](data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", domain, err)
	}

	seen := make(map[string]bool, len(records))
	descs := make([]Descriptor, 0, len(records))
	for i, rec := range records {
		id, err := validate(i, rec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", domain, err)
		}
		if seen[id] {
			return nil, fmt.Errorf("%s: record %d: duplicate id %q within source", domain, i, id)
		}
		seen[id] = true

		descs = append(descs, Descriptor{
			Domain:  domain,
			ID:      id,
			PackID:  packID,
			Payload: rec,
		})
	}
	return descs, nil
}

func requireID(i int, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("record %d: missing id", i)
	}
	return id, nil
}

func validateRegion(i int, r Region) (string, error) {
	if _, err := requireID(i, r.ID); err != nil {
		return "", err
	}
	if r.Name.IsZero() {
		return "", fmt.Errorf("region %q: missing name", r.ID)
	}
	return r.ID, nil
}

func validateEvent(i int, e Event) (string, error) {
	if _, err := requireID(i, e.ID); err != nil {
		return "", err
	}
	if e.Name.IsZero() {
		return "", fmt.Errorf("event %q: missing name", e.ID)
	}
	for j, c := range e.Choices {
		if c.Text.IsZero() {
			return "", fmt.Errorf("event %q: choice %d has no text", e.ID, j)
		}
	}
	return e.ID, nil
}

func validateQuest(i int, q Quest) (string, error) {
	if _, err := requireID(i, q.ID); err != nil {
		return "", err
	}
	if q.Name.IsZero() {
		return "", fmt.Errorf("quest %q: missing name", q.ID)
	}
	stageIDs := make(map[string]bool, len(q.Stages))
	for j, s := range q.Stages {
		if s.ID == "" {
			return "", fmt.Errorf("quest %q: stage %d has no id", q.ID, j)
		}
		if stageIDs[s.ID] {
			return "", fmt.Errorf("quest %q: duplicate stage id %q", q.ID, s.ID)
		}
		stageIDs[s.ID] = true
	}
	return q.ID, nil
}

func validateAnchor(i int, a Anchor) (string, error) {
	if _, err := requireID(i, a.ID); err != nil {
		return "", err
	}
	if a.Name.IsZero() {
		return "", fmt.Errorf("anchor %q: missing name", a.ID)
	}
	return a.ID, nil
}

func validateHero(i int, h Hero) (string, error) {
	if _, err := requireID(i, h.ID); err != nil {
		return "", err
	}
	if h.Name.IsZero() {
		return "", fmt.Errorf("hero %q: missing name", h.ID)
	}
	if h.Health < 1 {
		return "", fmt.Errorf("hero %q: health must be at least 1, got %d", h.ID, h.Health)
	}
	return h.ID, nil
}

func validateAbility(i int, a Ability) (string, error) {
	if _, err := requireID(i, a.ID); err != nil {
		return "", err
	}
	if a.Name.IsZero() {
		return "", fmt.Errorf("ability %q: missing name", a.ID)
	}
	if a.Cost < 0 {
		return "", fmt.Errorf("ability %q: negative cost %d", a.ID, a.Cost)
	}
	return a.ID, nil
}

func validateCard(i int, c Card) (string, error) {
	if _, err := requireID(i, c.ID); err != nil {
		return "", err
	}
	if c.Name.IsZero() {
		return "", fmt.Errorf("card %q: missing name", c.ID)
	}
	if c.Kind == "" {
		return "", fmt.Errorf("card %q: missing kind", c.ID)
	}
	if c.Cost < 0 {
		return "", fmt.Errorf("card %q: negative cost %d", c.ID, c.Cost)
	}
	return c.ID, nil
}

func validateEnemy(i int, e Enemy) (string, error) {
	if _, err := requireID(i, e.ID); err != nil {
		return "", err
	}
	if e.Name.IsZero() {
		return "", fmt.Errorf("enemy %q: missing name", e.ID)
	}
	if e.Health < 1 {
		return "", fmt.Errorf("enemy %q: health must be at least 1, got %d", e.ID, e.Health)
	}
	if e.Attack < 0 {
		return "", fmt.Errorf("enemy %q: negative attack %d", e.ID, e.Attack)
	}
	return e.ID, nil
}

func validateBalanceEntry(i int, b BalanceEntry) (string, error) {
	return requireID(i, b.ID)
}

func validateLocalizationEntry(i int, l LocalizationEntry) (string, error) {
	if _, err := requireID(i, l.ID); err != nil {
		return "", err
	}
	if len(l.Values) == 0 {
		return "", fmt.Errorf("localization entry %q: no values", l.ID)
	}
	return l.ID, nil
}
