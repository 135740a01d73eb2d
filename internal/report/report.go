// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package report runs a rule set against a document corpus and assembles the
// ordered, auditable result table.
package report

import (
	"math"
	"strings"

	"ifr-compliance/internal/evaluator"
	"ifr-compliance/internal/extractors"
	"ifr-compliance/internal/observability"
	"ifr-compliance/internal/opsfacts"
	"ifr-compliance/internal/rules"
	"ifr-compliance/internal/textmatch"
)

// maxEvidenceSnippets caps how many snippets appear per evidence column.
const maxEvidenceSnippets = 3

// Row is the flattened projection of one rule and its outcome, ready for
// export. Row order always equals rule input order.
type Row struct {
	RuleID           string  `json:"rule_id"`
	Item             string  `json:"item"`
	SourceDocs       string  `json:"source_docs"`
	Result           string  `json:"result"`
	MatchedPattern   string  `json:"matched_pattern"`
	EvidencePositive string  `json:"evidence_positive"`
	Contradiction    string  `json:"contradiction"`
	Confidence       float64 `json:"confidence"`
	LocatorHint      string  `json:"locator_hint"`
	Owner            string  `json:"owner"`
	EvidenceHints    string  `json:"evidence_hints"`
	Notes            string  `json:"notes"`
}

// Summary counts outcomes per decision across the whole run.
type Summary struct {
	Total    int `json:"total"`
	Found    int `json:"found"`
	Missing  int `json:"missing"`
	Conflict int `json:"conflict"`
	Review   int `json:"review"`
}

// Report is the complete result of one compliance run.
type Report struct {
	Rows    []Row   `json:"rows"`
	Summary Summary `json:"summary"`
}

// Assembler evaluates every rule in input order against text resolved
// through a TextSource. Document texts are loaded once into an immutable
// per-run cache before evaluation, so evaluation itself is deterministic
// and free of I/O.
type Assembler struct {
	set           *rules.Set
	source        extractors.TextSource
	facts         opsfacts.Facts
	snippetMargin int
	observer      *observability.StandardObserver
}

// NewAssembler creates an assembler for one run. facts may be nil when no
// run-level ops facts were supplied.
func NewAssembler(set *rules.Set, source extractors.TextSource, facts opsfacts.Facts) *Assembler {
	return &Assembler{
		set:           set,
		source:        source,
		facts:         facts,
		snippetMargin: textmatch.DefaultSnippetMargin,
	}
}

// SetSnippetMargin overrides how many characters of context surround each
// evidence snippet. Values below 1 keep the default.
func (a *Assembler) SetSnippetMargin(margin int) {
	if margin < 1 {
		return
	}
	a.snippetMargin = margin
}

// SetObserver sets the observability component
func (a *Assembler) SetObserver(observer *observability.StandardObserver) {
	a.observer = observer
}

// Run evaluates all rules and assembles the report. A fatal rule error
// (malformed pattern) aborts the run with no partial report; per-document
// extraction failures have already degraded to empty text inside the
// TextSource and never surface here.
func (a *Assembler) Run() (*Report, error) {
	var done func(bool, map[string]interface{})
	if a.observer != nil {
		done = a.observer.StartTiming("report", "run", "")
	}

	cache := a.buildTextCache()

	result := &Report{Rows: make([]Row, 0, len(a.set.Rules))}
	for _, rule := range a.set.Rules {
		docText := combinedText(cache, rule.SourceDocs)

		outcome, err := evaluator.EvaluateWithMargin(rule, docText, a.facts, a.snippetMargin)
		if err != nil {
			if done != nil {
				done(false, map[string]interface{}{"failed_rule": rule.ID})
			}
			return nil, err
		}

		result.Rows = append(result.Rows, buildRow(rule, outcome))
		result.Summary.count(outcome.Decision)
	}

	if done != nil {
		done(true, map[string]interface{}{"rules": len(result.Rows)})
	}
	return result, nil
}

// buildTextCache loads each referenced document exactly once. The cache is
// read-only for the rest of the run.
func (a *Assembler) buildTextCache() map[string]string {
	cache := make(map[string]string)
	for _, rule := range a.set.Rules {
		for _, key := range rule.SourceDocs {
			if _, ok := cache[key]; ok {
				continue
			}
			cache[key] = a.source.LoadText(key)
		}
	}
	return cache
}

func combinedText(cache map[string]string, keys []string) string {
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, cache[key])
	}
	return strings.Join(parts, "\n")
}

func buildRow(rule rules.Rule, outcome evaluator.Outcome) Row {
	return Row{
		RuleID:           rule.ID,
		Item:             rule.Item,
		SourceDocs:       strings.Join(rule.SourceDocs, ", "),
		Result:           string(outcome.Decision),
		MatchedPattern:   outcome.MatchedPattern,
		EvidencePositive: joinSnippets(outcome.MatchedPositive),
		Contradiction:    joinSnippets(outcome.MatchedForbidden),
		Confidence:       round2(outcome.Confidence),
		LocatorHint:      rule.LocatorHint,
		Owner:            rule.Owner,
		EvidenceHints:    strings.Join(rule.EvidenceHints, "; "),
		Notes:            outcome.Notes,
	}
}

// joinSnippets pipe-joins the first few snippets; reports stay readable and
// the full evidence remains discoverable via the locator hint.
func joinSnippets(snippets []string) string {
	if len(snippets) > maxEvidenceSnippets {
		snippets = snippets[:maxEvidenceSnippets]
	}
	return strings.Join(snippets, " | ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *Summary) count(decision evaluator.Decision) {
	s.Total++
	switch decision {
	case evaluator.DecisionFound:
		s.Found++
	case evaluator.DecisionMissing:
		s.Missing++
	case evaluator.DecisionConflict:
		s.Conflict++
	case evaluator.DecisionReview:
		s.Review++
	}
}
