// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package evaluator decides whether a rule is satisfied, contradicted, or
// ambiguous given extracted document text. It is pure: same rule, text, and
// facts always yield the same outcome.
package evaluator

import (
	"fmt"
	"strings"

	"ifr-compliance/internal/opsfacts"
	"ifr-compliance/internal/rules"
	"ifr-compliance/internal/textmatch"
)

// Decision is the four-state result of evaluating one rule.
type Decision string

const (
	DecisionFound    Decision = "FOUND"
	DecisionMissing  Decision = "MISSING"
	DecisionConflict Decision = "CONFLICT"
	DecisionReview   Decision = "REVIEW"
)

// Outcome is the auditable result of one rule evaluation. It is never
// mutated after creation.
type Outcome struct {
	Decision         Decision
	MatchedPositive  []string
	MatchedForbidden []string
	MatchedPattern   string
	Confidence       float64
	Notes            string
}

// Confidence scoring table. The values are fixed heuristics carried over
// from existing rule sets; reports depend on them staying stable.
const (
	confidenceLegacy        = 0.6
	confidenceForbidden     = 0.95
	confidenceAlignConflict = 0.9
	confidenceAlignMissing  = 0.2
	confidenceReview        = 0.5
	confidenceFoundBase     = 0.6
	confidenceFoundStep     = 0.2
)

// Evaluate runs the decision procedure for one rule against the combined
// text of its source documents. runFacts supplies run-level ops facts for
// align_with_opspecs rules that do not embed their own; a rule-level
// ops_facts block takes precedence. Empty document text is a normal
// no-match, not an error. The only error condition is a malformed regex,
// reported with the rule ID attached.
func Evaluate(rule rules.Rule, docText string, runFacts opsfacts.Facts) (Outcome, error) {
	return EvaluateWithMargin(rule, docText, runFacts, textmatch.DefaultSnippetMargin)
}

// EvaluateWithMargin is Evaluate with an explicit evidence snippet margin.
// A margin below 1 falls back to the default.
func EvaluateWithMargin(rule rules.Rule, docText string, runFacts opsfacts.Facts, margin int) (Outcome, error) {
	if margin < 1 {
		margin = textmatch.DefaultSnippetMargin
	}
	if rule.Kind == rules.KindLegacy {
		return evaluateLegacy(rule, docText), nil
	}
	return evaluateSemantic(rule, docText, runFacts, margin)
}

// evaluateLegacy preserves the original contains_any behavior exactly:
// FOUND on the first case-insensitive substring hit, MISSING otherwise.
func evaluateLegacy(rule rules.Rule, docText string) Outcome {
	lower := strings.ToLower(docText)
	for _, check := range rule.Checks {
		if check.Type != "contains_any" {
			continue
		}
		for _, pattern := range check.Patterns {
			if pattern == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(pattern)) {
				return Outcome{
					Decision:       DecisionFound,
					MatchedPattern: pattern,
					Confidence:     confidenceLegacy,
					Notes:          "Legacy contains_any match",
				}
			}
		}
	}
	return Outcome{
		Decision:   DecisionMissing,
		Confidence: 0.0,
		Notes:      "Legacy contains_any not found",
	}
}

func evaluateSemantic(rule rules.Rule, docText string, runFacts opsfacts.Facts, margin int) (Outcome, error) {
	posRe, err := textmatch.CompileAlternation(rule.PositivePatterns)
	if err != nil {
		return Outcome{}, fmt.Errorf("rule %q: positive_patterns: %w", rule.ID, err)
	}
	negRe, err := textmatch.CompileAlternation(rule.NegativePatterns)
	if err != nil {
		return Outcome{}, fmt.Errorf("rule %q: negative_patterns: %w", rule.ID, err)
	}
	forbidRe, err := textmatch.CompileAlternation(rule.ForbiddenClaims)
	if err != nil {
		return Outcome{}, fmt.Errorf("rule %q: forbidden_claims: %w", rule.ID, err)
	}

	charWindow := textmatch.CharWindow(rule.NegationWindowTokens)

	var positiveSnips []string
	var forbiddenSnips []string
	firstPattern := ""

	// Forbidden claims are a hard conflict regardless of rule type; they
	// take precedence over any positive evidence.
	for _, span := range textmatch.FindAll(forbidRe, docText) {
		forbiddenSnips = append(forbiddenSnips,
			textmatch.Snippet(docText, span.Start, span.End, margin))
	}
	if len(forbiddenSnips) > 0 {
		return Outcome{
			Decision:         DecisionConflict,
			MatchedForbidden: forbiddenSnips,
			Confidence:       confidenceForbidden,
			Notes:            "Forbidden claim(s) present",
		}, nil
	}

	// Positive evidence with local negation suppression. A positive match
	// sitting next to a negation is counted as contradiction evidence, not
	// as absence.
	posHits := 0
	for _, span := range textmatch.FindAll(posRe, docText) {
		snip := textmatch.Snippet(docText, span.Start, span.End, margin)
		if textmatch.HasNegativeNearby(docText, span, negRe, charWindow) {
			forbiddenSnips = append(forbiddenSnips, snip)
			continue
		}
		posHits++
		positiveSnips = append(positiveSnips, snip)
		if firstPattern == "" {
			firstPattern = docText[span.Start:span.End]
		}
	}

	// Fact alignment for align_with_opspecs rules. Extras in the manuals
	// beat positive evidence; missing facts only decide when positive
	// evidence is also short of the threshold.
	if rule.RuleType == rules.TypeAlignWithOpspecs {
		facts := rule.OpsFacts
		if facts == nil {
			facts = runFacts
		}
		if facts != nil {
			alignment := opsfacts.CheckAlignment(docText, facts)
			forbiddenSnips = append(forbiddenSnips, alignment.ConflictSnippets...)
			if len(alignment.ConflictSnippets) > 0 {
				notes := strings.Join(alignment.MissingNotes, "; ")
				if notes == "" {
					notes = "Conflict with ops_facts"
				}
				return Outcome{
					Decision:         DecisionConflict,
					MatchedPositive:  positiveSnips,
					MatchedForbidden: forbiddenSnips,
					MatchedPattern:   firstPattern,
					Confidence:       confidenceAlignConflict,
					Notes:            notes,
				}, nil
			}
			if len(alignment.MissingNotes) > 0 && posHits < rule.Threshold {
				return Outcome{
					Decision:        DecisionMissing,
					MatchedPositive: positiveSnips,
					MatchedPattern:  firstPattern,
					Confidence:      confidenceAlignMissing,
					Notes:           strings.Join(alignment.MissingNotes, "; "),
				}, nil
			}
		}
	}

	if posHits >= rule.Threshold {
		confidence := confidenceFoundBase + confidenceFoundStep*float64(posHits-rule.Threshold)
		if confidence > 1.0 {
			confidence = 1.0
		}
		return Outcome{
			Decision:        DecisionFound,
			MatchedPositive: positiveSnips,
			MatchedPattern:  firstPattern,
			Confidence:      confidence,
		}, nil
	}

	if len(positiveSnips) > 0 && len(forbiddenSnips) > 0 {
		return Outcome{
			Decision:         DecisionReview,
			MatchedPositive:  positiveSnips,
			MatchedForbidden: forbiddenSnips,
			MatchedPattern:   firstPattern,
			Confidence:       confidenceReview,
			Notes:            "Positive evidence appears near negations/contradictions",
		}, nil
	}

	return Outcome{
		Decision:         DecisionMissing,
		MatchedForbidden: forbiddenSnips,
		MatchedPattern:   firstPattern,
		Confidence:       0.0,
	}, nil
}
