// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"

	"ifr-compliance/internal/formatters"
	"ifr-compliance/internal/report"

	"github.com/fatih/color"
)

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"FOUND":    color.New(color.FgGreen),
			"MISSING":  color.New(color.FgYellow),
			"CONFLICT": color.New(color.FgRed),
			"REVIEW":   color.New(color.FgMagenta),
			"cyan":     color.New(color.FgCyan),
			"white":    color.New(color.FgWhite, color.Bold),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(rep *report.Report, options formatters.FormatterOptions) (string, error) {
	// Disable colors if requested, restoring the package-level state
	// afterwards so one render does not affect the next.
	if options.NoColor {
		prev := color.NoColor
		color.NoColor = true
		defer func() { color.NoColor = prev }()
	}

	var builder strings.Builder

	f.appendHeader(&builder, options)
	for _, row := range rep.Rows {
		f.appendSummaryLine(&builder, row, options)
		if options.Verbose {
			f.appendDetails(&builder, row, options)
		}
	}
	f.appendRunSummary(&builder, rep.Summary, options)

	return builder.String(), nil
}

// appendHeader adds column headers to the string builder
func (f *Formatter) appendHeader(builder *strings.Builder, options formatters.FormatterOptions) {
	headerStr := fmt.Sprintf("%-10s %-24s %-20s %-6s %s\n",
		"RESULT", "RULE", "SOURCE DOCS", "CONF", "ITEM")
	if !options.NoColor {
		headerStr = f.colors["white"].Sprintf("%-10s %-24s %-20s %-6s %s\n",
			"RESULT", "RULE", "SOURCE DOCS", "CONF", "ITEM")
	}
	builder.WriteString(headerStr)
	builder.WriteString(strings.Repeat("-", 90) + "\n")
}

// appendSummaryLine adds a single line per rule to the string builder
func (f *Formatter) appendSummaryLine(builder *strings.Builder, row report.Row, options formatters.FormatterOptions) {
	resultStr := fmt.Sprintf("[%-8s]", row.Result)
	if !options.NoColor {
		if c, ok := f.colors[row.Result]; ok {
			resultStr = c.Sprintf("[%-8s]", row.Result)
		}
	}

	ruleStr := fmt.Sprintf("%-24s", truncate(row.RuleID, 24))
	docsStr := fmt.Sprintf("%-20s", truncate(row.SourceDocs, 20))
	confStr := fmt.Sprintf("%.2f", row.Confidence)
	if !options.NoColor {
		ruleStr = f.colors["cyan"].Sprint(ruleStr)
	}

	fmt.Fprintf(builder, "%s %s %s %-6s %s\n",
		resultStr, ruleStr, docsStr, confStr, truncate(row.Item, 60))
}

// appendDetails adds evidence and notes beneath the summary line
func (f *Formatter) appendDetails(builder *strings.Builder, row report.Row, options formatters.FormatterOptions) {
	if row.MatchedPattern != "" {
		fmt.Fprintf(builder, "    matched: %s\n", truncate(row.MatchedPattern, 100))
	}
	if row.EvidencePositive != "" {
		fmt.Fprintf(builder, "    evidence: %s\n", truncate(row.EvidencePositive, 200))
	}
	if row.Contradiction != "" {
		line := fmt.Sprintf("    contradiction: %s\n", truncate(row.Contradiction, 200))
		if !options.NoColor {
			line = f.colors["CONFLICT"].Sprint(line)
		}
		builder.WriteString(line)
	}
	if row.Notes != "" {
		fmt.Fprintf(builder, "    notes: %s\n", row.Notes)
	}
}

// appendRunSummary adds the per-decision counts for the whole run
func (f *Formatter) appendRunSummary(builder *strings.Builder, summary report.Summary, options formatters.FormatterOptions) {
	builder.WriteString(strings.Repeat("-", 90) + "\n")

	line := fmt.Sprintf("Total: %d   Found: %d   Missing: %d   Conflict: %d   Review: %d\n",
		summary.Total, summary.Found, summary.Missing, summary.Conflict, summary.Review)
	if !options.NoColor {
		line = fmt.Sprintf("Total: %d   %s   %s   %s   %s\n",
			summary.Total,
			f.colors["FOUND"].Sprintf("Found: %d", summary.Found),
			f.colors["MISSING"].Sprintf("Missing: %d", summary.Missing),
			f.colors["CONFLICT"].Sprintf("Conflict: %d", summary.Conflict),
			f.colors["REVIEW"].Sprintf("Review: %d", summary.Review))
	}
	builder.WriteString(line)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
