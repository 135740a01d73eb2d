// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package opsfacts holds the operator ground-truth values (fleet
// registrations, approved operating area) that align_with_opspecs rules are
// checked against.
package opsfacts

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Facts maps a fact category (e.g. "registrations", "area") to its expected
// values as declared in the operations specifications.
type Facts map[string][]string

// Registration-code shape: 1-2 alphanumerics, hyphen, 3 letters (e.g. 4X-BHS).
var regShape = regexp.MustCompile(`(?i)\b[0-9A-Z]{1,2}-[A-Z]{3}\b`)

// Load reads a facts file (YAML or JSON). The facts file is optional input,
// so any read or parse failure degrades to nil facts rather than an error.
func Load(path string) Facts {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil
	}

	facts := make(Facts, len(raw))
	for category, values := range raw {
		list, err := cast.ToStringSliceE(values)
		if err != nil {
			continue
		}
		facts[category] = list
	}
	if len(facts) == 0 {
		return nil
	}
	return facts
}

// Registrations returns the expected fleet registration codes.
func (f Facts) Registrations() []string {
	if f == nil {
		return nil
	}
	return f["registrations"]
}

// Area returns the declared operating area strings.
func (f Facts) Area() []string {
	if f == nil {
		return nil
	}
	return f["area"]
}

// Alignment is the outcome of comparing document text against expected facts.
// The checker itself makes no compliance decision; the evaluator does.
type Alignment struct {
	// MissingNotes describes expected facts that never appear in the text.
	MissingNotes []string
	// ConflictSnippets describes identifiers present in the text but absent
	// from the expected set. An undeclared extra is stronger evidence of
	// drift than a merely-unmentioned expected value, so these feed the
	// conflict channel while omissions stay notes.
	ConflictSnippets []string
}

// CheckAlignment compares text against the expected facts.
func CheckAlignment(text string, facts Facts) Alignment {
	var result Alignment
	if facts == nil {
		return result
	}

	regs := facts.Registrations()
	if len(regs) > 0 {
		var missing []string
		for _, reg := range regs {
			if !containsLiteral(text, reg) {
				missing = append(missing, reg)
			}
		}
		if len(missing) > 0 {
			result.MissingNotes = append(result.MissingNotes,
				"Missing registrations in manuals: "+strings.Join(missing, ", "))
		}

		expected := make(map[string]bool, len(regs))
		for _, reg := range regs {
			expected[strings.ToUpper(reg)] = true
		}
		for _, extra := range extraRegistrations(text, expected) {
			result.ConflictSnippets = append(result.ConflictSnippets,
				"Extra reg in manuals: "+extra)
		}
	}

	if area := facts.Area(); len(area) > 0 {
		found := false
		for _, a := range area {
			if containsLiteral(text, a) {
				found = true
				break
			}
		}
		if !found {
			result.MissingNotes = append(result.MissingNotes,
				"Area from OpsSpecs not clearly stated in manuals")
		}
	}

	return result
}

// extraRegistrations returns every registration-shaped code in text whose
// uppercase form is not in the expected set, sorted and deduplicated.
func extraRegistrations(text string, expected map[string]bool) []string {
	seen := make(map[string]bool)
	var extras []string
	for _, code := range regShape.FindAllString(text, -1) {
		if expected[strings.ToUpper(code)] || seen[code] {
			continue
		}
		seen[code] = true
		extras = append(extras, code)
	}
	sort.Strings(extras)
	return extras
}

// containsLiteral reports whether needle appears in text, case-insensitive,
// with no regex interpretation of needle.
func containsLiteral(text, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(needle))
}
