// SPDX-License-Identifier: EPL-2.0

// Package semver implements the semantic version value types used for
// pack compatibility gating and dependency range checks.
package semver

import (
	"fmt"
	"regexp"
	"strconv"
)

// versionRegex matches semantic version strings with an optional leading "v".
// Minor and patch components are optional and default to zero.
var versionRegex = regexp.MustCompile(`^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?$`)

type (
	// Version is an ordered (major, minor, patch) triple. The zero value is
	// version 0.0.0. Equality is structural: all three components equal.
	Version struct {
		Major int
		Minor int
		Patch int
	}

	// Range is an inclusive version constraint: a version satisfies the range
	// when it is >= Min and, if Max is set, <= Max. Richer constraint
	// syntaxes (caret, tilde, exclusions) are a documented future extension
	// and are rejected at parse time.
	Range struct {
		Min Version
		Max *Version
	}
)

// Parse parses a version string such as "1.2.3" or "v1.2".
func Parse(s string) (Version, error) {
	matches := versionRegex.FindStringSubmatch(s)
	if matches == nil {
		return Version{}, fmt.Errorf("invalid version format: %q", s)
	}

	var v Version
	var err error
	v.Major, err = strconv.Atoi(matches[1])
	if err != nil {
		return Version{}, fmt.Errorf("invalid major version in %q: %w", s, err)
	}

	if matches[2] != "" {
		v.Minor, err = strconv.Atoi(matches[2])
		if err != nil {
			return Version{}, fmt.Errorf("invalid minor version in %q: %w", s, err)
		}
	}

	if matches[3] != "" {
		v.Patch, err = strconv.Atoi(matches[3])
		if err != nil {
			return Version{}, fmt.Errorf("invalid patch version in %q: %w", s, err)
		}
	}

	return v, nil
}

// MustParse parses a version string and panics on failure. Intended for
// constants and tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical "major.minor.patch" form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1 if v < other, 0 if v == other, 1 if v > other.
// Components are compared major first, then minor, then patch.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		if v.Major < other.Major {
			return -1
		}
		return 1
	}

	if v.Minor != other.Minor {
		if v.Minor < other.Minor {
			return -1
		}
		return 1
	}

	if v.Patch != other.Patch {
		if v.Patch < other.Patch {
			return -1
		}
		return 1
	}

	return 0
}

// Less reports whether v orders strictly before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// Equal reports structural equality of all three components.
func (v Version) Equal(other Version) bool {
	return v == other
}

// IsValid reports whether s parses as a semantic version.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// NewRange builds a range from an inclusive minimum and an optional
// inclusive maximum. A nil max means the range is unbounded above.
func NewRange(min Version, max *Version) Range {
	return Range{Min: min, Max: max}
}

// Satisfies reports whether v lies within the range. Both bounds are
// inclusive.
func (r Range) Satisfies(v Version) bool {
	if v.Compare(r.Min) < 0 {
		return false
	}
	if r.Max != nil && v.Compare(*r.Max) > 0 {
		return false
	}
	return true
}

// String renders the range in ">=min" or ">=min <=max" form.
func (r Range) String() string {
	if r.Max == nil {
		return fmt.Sprintf(">=%s", r.Min)
	}
	return fmt.Sprintf(">=%s <=%s", r.Min, r.Max)
}
