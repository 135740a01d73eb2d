// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"fmt"
	"strings"

	"ifr-compliance/internal/formatters"
	"ifr-compliance/internal/report"
)

// Headers is the canonical export column order. Downstream spreadsheet
// tooling keys on these names; do not reorder.
var Headers = []string{
	"Rule ID",
	"Item",
	"Source docs",
	"Result",
	"Matched pattern (if any)",
	"Evidence (positive)",
	"Contradiction (if any)",
	"Confidence",
	"Locator hint",
	"Owner",
	"Evidence (what to show)",
	"Notes",
}

// Formatter implements CSV output formatting
type Formatter struct{}

// NewFormatter creates a new CSV formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "csv"
}

func (f *Formatter) Description() string {
	return "Comma-separated values for spreadsheet import"
}

func (f *Formatter) FileExtension() string {
	return ".csv"
}

func (f *Formatter) Format(rep *report.Report, options formatters.FormatterOptions) (string, error) {
	csvRows := []string{strings.Join(Headers, ",")}

	for _, row := range rep.Rows {
		csvRows = append(csvRows, f.createCSVRow(row))
	}

	return strings.Join(csvRows, "\n"), nil
}

// createCSVRow creates a CSV row for a report row
func (f *Formatter) createCSVRow(row report.Row) string {
	fields := []string{
		f.escapeCSVField(row.RuleID),
		f.escapeCSVField(row.Item),
		f.escapeCSVField(row.SourceDocs),
		f.escapeCSVField(row.Result),
		f.escapeCSVField(row.MatchedPattern),
		f.escapeCSVField(row.EvidencePositive),
		f.escapeCSVField(row.Contradiction),
		fmt.Sprintf("%.2f", row.Confidence),
		f.escapeCSVField(row.LocatorHint),
		f.escapeCSVField(row.Owner),
		f.escapeCSVField(row.EvidenceHints),
		f.escapeCSVField(row.Notes),
	}
	return strings.Join(fields, ",")
}

// escapeCSVField properly escapes a field for CSV format and prevents CSV injection
func (f *Formatter) escapeCSVField(field string) string {
	// Prevent CSV injection by sanitizing formula characters
	field = f.sanitizeFormulaInjection(field)

	// If field contains comma, quote, or newline, wrap in quotes and escape internal quotes
	if strings.Contains(field, ",") || strings.Contains(field, "\"") || strings.Contains(field, "\n") || strings.Contains(field, "\r") {
		// Escape internal quotes by doubling them
		escaped := strings.ReplaceAll(field, "\"", "\"\"")
		return fmt.Sprintf("\"%s\"", escaped)
	}
	return field
}

// sanitizeFormulaInjection prevents CSV injection attacks by sanitizing formula characters
func (f *Formatter) sanitizeFormulaInjection(field string) string {
	if len(field) == 0 {
		return field
	}

	// Evidence snippets come straight from scanned documents, so a row can
	// start with a character a spreadsheet would execute as a formula
	firstChar := field[0]
	if firstChar == '=' || firstChar == '+' || firstChar == '-' || firstChar == '@' {
		// Prefix with single quote to prevent formula execution
		return "'" + field
	}

	return field
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
