// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"strings"
	"testing"

	"ifr-compliance/internal/formatters"
	"ifr-compliance/internal/report"
)

func sampleReport() *report.Report {
	return &report.Report{
		Rows: []report.Row{
			{
				RuleID:           "R1",
				Item:             "Fuel reserve stated",
				SourceDocs:       "OM-A, OM-B",
				Result:           "FOUND",
				MatchedPattern:   "fuel reserve",
				EvidencePositive: "the fuel reserve is 30 minutes",
				Confidence:       0.6,
				Owner:            "Ops",
			},
			{
				RuleID:        "R2",
				Item:          `Item with "quotes", commas`,
				SourceDocs:    "AOC",
				Result:        "CONFLICT",
				Contradiction: "=SUM(A1) looking snippet",
				Confidence:    0.95,
			},
		},
		Summary: report.Summary{Total: 2, Found: 1, Conflict: 1},
	}
}

func TestFormat_HeaderOrder(t *testing.T) {
	out, err := NewFormatter().Format(sampleReport(), formatters.FormatterOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(out, "\n")
	want := "Rule ID,Item,Source docs,Result,Matched pattern (if any)," +
		"Evidence (positive),Contradiction (if any),Confidence,Locator hint,Owner," +
		"Evidence (what to show),Notes"
	if lines[0] != want {
		t.Errorf("header mismatch:\n got: %s\nwant: %s", lines[0], want)
	}
}

func TestFormat_RowValues(t *testing.T) {
	out, err := NewFormatter().Format(sampleReport(), formatters.FormatterOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "R1,Fuel reserve stated,") {
		t.Errorf("row 1 = %s", lines[1])
	}
	if !strings.Contains(lines[1], "0.60") {
		t.Errorf("confidence should render with 2 decimals: %s", lines[1])
	}
	// "OM-A, OM-B" contains a comma and must be quoted.
	if !strings.Contains(lines[1], `"OM-A, OM-B"`) {
		t.Errorf("comma-bearing field should be quoted: %s", lines[1])
	}
}

func TestFormat_EscapingAndInjection(t *testing.T) {
	out, err := NewFormatter().Format(sampleReport(), formatters.FormatterOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, `"Item with ""quotes"", commas"`) {
		t.Errorf("internal quotes should be doubled: %s", out)
	}
	if !strings.Contains(out, "'=SUM(A1)") {
		t.Errorf("formula-leading field should be neutralized: %s", out)
	}
}

func TestFormat_EmptyReport(t *testing.T) {
	out, err := NewFormatter().Format(&report.Report{}, formatters.FormatterOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != strings.Join(Headers, ",") {
		t.Errorf("empty report should still emit the header row: %q", out)
	}
}

func TestRegistered(t *testing.T) {
	if _, ok := formatters.Get("csv"); !ok {
		t.Error("csv formatter should self-register")
	}
}
