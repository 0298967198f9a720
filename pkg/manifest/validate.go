// SPDX-License-Identifier: EPL-2.0

package manifest

import (
	"fmt"
	"regexp"
)

const (
	// SeverityWarning marks a recoverable manifest issue that is surfaced
	// in the load report without aborting the session.
	SeverityWarning Severity = "warning"
	// SeverityError marks a manifest issue that makes the pack unloadable.
	SeverityError Severity = "error"
)

// packIDPattern is the required shape of a pack id: lowercase alphanumerics
// and hyphens, starting and ending with an alphanumeric.
var packIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$`)

type (
	// Severity classifies a validation issue.
	Severity string

	// ValidationIssue is a single structural problem found in a manifest.
	// Issues are returned as values rather than errors; the caller owns
	// severity policy and rendering.
	ValidationIssue struct {
		// Severity is the issue level (warning or error).
		Severity Severity
		// Field names the manifest field the issue refers to.
		Field string
		// Message is the human-readable description.
		Message string
	}
)

func (v ValidationIssue) String() string {
	return fmt.Sprintf("[%s] %s: %s", v.Severity, v.Field, v.Message)
}

// Validate runs structural checks over a parsed manifest and returns every
// issue found. It never aborts: error-severity issues are fatal to the load
// session, warnings are collected and surfaced.
func Validate(m *PackManifest) []ValidationIssue {
	var issues []ValidationIssue

	if m.ID == "" {
		issues = append(issues, ValidationIssue{
			Severity: SeverityError,
			Field:    "id",
			Message:  "pack id must not be empty",
		})
	} else if !packIDPattern.MatchString(m.ID) {
		issues = append(issues, ValidationIssue{
			Severity: SeverityError,
			Field:    "id",
			Message:  fmt.Sprintf("pack id %q must match %s", m.ID, packIDPattern),
		})
	}

	if m.Name.IsZero() {
		issues = append(issues, ValidationIssue{
			Severity: SeverityError,
			Field:    "name",
			Message:  "display name must not be empty",
		})
	}

	if len(m.SupportedLocales) == 0 {
		issues = append(issues, ValidationIssue{
			Severity: SeverityError,
			Field:    "locales",
			Message:  "at least one supported locale is required",
		})
	}

	if m.RecommendedHeroes != nil && len(m.RecommendedHeroes) == 0 {
		issues = append(issues, ValidationIssue{
			Severity: SeverityWarning,
			Field:    "recommended_heroes",
			Message:  "recommended hero list is declared but empty",
		})
	}

	if m.Author == "" {
		issues = append(issues, ValidationIssue{
			Severity: SeverityWarning,
			Field:    "author",
			Message:  "author is not set",
		})
	}

	return issues
}

// HasErrors reports whether any issue in the list has error severity.
func HasErrors(issues []ValidationIssue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
