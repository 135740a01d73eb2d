// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package evaluator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ifr-compliance/internal/opsfacts"
	"ifr-compliance/internal/rules"
)

func legacyRule(patterns ...string) rules.Rule {
	return rules.Rule{
		ID:                   "L1",
		Kind:                 rules.KindLegacy,
		Checks:               []rules.Check{{Type: "contains_any", Patterns: patterns}},
		RuleType:             rules.TypeAffirm,
		Threshold:            1,
		NegationWindowTokens: 12,
	}
}

func semanticRule(id string) rules.Rule {
	return rules.Rule{
		ID:                   id,
		RuleType:             rules.TypeAffirm,
		Threshold:            1,
		NegationWindowTokens: 12,
	}
}

func TestEvaluate_LegacyFound(t *testing.T) {
	outcome, err := Evaluate(legacyRule("fuel reserve"), "The FUEL RESERVE is thirty minutes.", nil)
	require.NoError(t, err)

	assert.Equal(t, DecisionFound, outcome.Decision)
	assert.Equal(t, "fuel reserve", outcome.MatchedPattern)
	assert.Equal(t, 0.6, outcome.Confidence)
	assert.Equal(t, "Legacy contains_any match", outcome.Notes)
}

func TestEvaluate_LegacyMissing(t *testing.T) {
	outcome, err := Evaluate(legacyRule("fuel reserve"), "Nothing relevant here.", nil)
	require.NoError(t, err)

	assert.Equal(t, DecisionMissing, outcome.Decision)
	assert.Equal(t, 0.0, outcome.Confidence)
	assert.Empty(t, outcome.MatchedPattern)
}

func TestEvaluate_LegacyIgnoresSemanticFields(t *testing.T) {
	// A legacy rule short-circuits: forbidden claims on the same rule
	// must not run.
	rule := legacyRule("fuel reserve")
	rule.ForbiddenClaims = []string{"not approved"}

	outcome, err := Evaluate(rule, "fuel reserve is not approved", nil)
	require.NoError(t, err)
	assert.Equal(t, DecisionFound, outcome.Decision)
}

func TestEvaluate_AffirmFound(t *testing.T) {
	rule := semanticRule("S1")
	rule.PositivePatterns = []string{"fuel reserve"}

	outcome, err := Evaluate(rule, "The fuel reserve requirement is 30 minutes.", nil)
	require.NoError(t, err)

	assert.Equal(t, DecisionFound, outcome.Decision)
	assert.Contains(t, outcome.MatchedPattern, "fuel reserve")
	assert.Equal(t, 0.6, outcome.Confidence)
	require.Len(t, outcome.MatchedPositive, 1)
	assert.Contains(t, outcome.MatchedPositive[0], "fuel reserve requirement")
}

func TestEvaluate_NegationSuppression(t *testing.T) {
	rule := semanticRule("S2")
	rule.PositivePatterns = []string{"fuel reserve"}
	rule.NegativePatterns = []string{`no\s+fuel`}
	rule.NegationWindowTokens = 3

	outcome, err := Evaluate(rule, "There is no fuel reserve requirement.", nil)
	require.NoError(t, err)

	assert.Equal(t, DecisionMissing, outcome.Decision)
	assert.Equal(t, 0.0, outcome.Confidence)
	assert.Empty(t, outcome.MatchedPositive)
	assert.NotEmpty(t, outcome.MatchedForbidden, "suppressed positive is contradiction evidence")
}

func TestEvaluate_ForbiddenWinsOverPositive(t *testing.T) {
	rule := semanticRule("S3")
	rule.PositivePatterns = []string{"IFR operations"}
	rule.ForbiddenClaims = []string{"VFR only"}

	outcome, err := Evaluate(rule, "IFR operations are described, but the AOC says VFR only.", nil)
	require.NoError(t, err)

	assert.Equal(t, DecisionConflict, outcome.Decision)
	assert.Equal(t, 0.95, outcome.Confidence)
	assert.Equal(t, "Forbidden claim(s) present", outcome.Notes)
	assert.Empty(t, outcome.MatchedPositive, "forbidden guard reports no positive evidence")
	assert.NotEmpty(t, outcome.MatchedForbidden)
}

func TestEvaluate_ForbiddenAppliesToEveryRuleType(t *testing.T) {
	for _, ruleType := range []string{rules.TypeAffirm, rules.TypeDeny, rules.TypeLimit, rules.TypeAlignWithOpspecs} {
		rule := semanticRule("S4")
		rule.RuleType = ruleType
		rule.ForbiddenClaims = []string{"not approved"}

		outcome, err := Evaluate(rule, "This operation is not approved.", nil)
		require.NoError(t, err)
		assert.Equal(t, DecisionConflict, outcome.Decision, "rule_type %s", ruleType)
	}
}

func TestEvaluate_ThresholdBoundary(t *testing.T) {
	rule := semanticRule("S5")
	rule.PositivePatterns = []string{"alternate aerodrome"}
	rule.Threshold = 2

	// One clean hit: below threshold.
	outcome, err := Evaluate(rule, "An alternate aerodrome shall be selected.", nil)
	require.NoError(t, err)
	assert.NotEqual(t, DecisionFound, outcome.Decision, "N-1 hits must not be FOUND")

	// Two clean hits: exactly at threshold.
	outcome, err = Evaluate(rule, "An alternate aerodrome shall be selected. The alternate aerodrome minima apply.", nil)
	require.NoError(t, err)
	assert.Equal(t, DecisionFound, outcome.Decision)
	assert.Equal(t, 0.6, outcome.Confidence)
}

func TestEvaluate_ConfidenceGrowsWithSurplusAndCaps(t *testing.T) {
	rule := semanticRule("S6")
	rule.PositivePatterns = []string{"minima"}

	outcome, err := Evaluate(rule, "minima minima minima", nil)
	require.NoError(t, err)
	assert.Equal(t, DecisionFound, outcome.Decision)
	assert.InDelta(t, 1.0, outcome.Confidence, 1e-9, "0.6 + 0.2*2 caps at 1.0")

	outcome, err = Evaluate(rule, "minima minima minima minima minima", nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, outcome.Confidence, "surplus beyond the cap stays at 1.0")
}

func TestEvaluate_ReviewOnMixedEvidence(t *testing.T) {
	rule := semanticRule("S7")
	rule.PositivePatterns = []string{"fuel reserve"}
	rule.NegativePatterns = []string{"waived"}
	rule.NegationWindowTokens = 3
	rule.Threshold = 2

	// First occurrence is clean, second sits next to a negation: one
	// positive snippet plus one contradicted snippet, below threshold.
	text := "A fuel reserve is required for all flights. However the fuel reserve is waived for positioning."
	outcome, err := Evaluate(rule, text, nil)
	require.NoError(t, err)

	assert.Equal(t, DecisionReview, outcome.Decision)
	assert.Equal(t, 0.5, outcome.Confidence)
	assert.Equal(t, "Positive evidence appears near negations/contradictions", outcome.Notes)
	assert.NotEmpty(t, outcome.MatchedPositive)
	assert.NotEmpty(t, outcome.MatchedForbidden)
}

func TestEvaluate_AlignmentExtraIsConflict(t *testing.T) {
	rule := semanticRule("A1")
	rule.RuleType = rules.TypeAlignWithOpspecs
	facts := opsfacts.Facts{"registrations": {"4X-BHS"}}

	outcome, err := Evaluate(rule, "Fleet: 4X-BHS and 4X-ZZZ.", facts)
	require.NoError(t, err)

	assert.Equal(t, DecisionConflict, outcome.Decision)
	assert.Equal(t, 0.9, outcome.Confidence)
	assert.Contains(t, outcome.MatchedForbidden, "Extra reg in manuals: 4X-ZZZ")
	assert.Equal(t, "Conflict with ops_facts", outcome.Notes)
}

func TestEvaluate_AlignmentConflictBeatsPositiveEvidence(t *testing.T) {
	rule := semanticRule("A2")
	rule.RuleType = rules.TypeAlignWithOpspecs
	rule.PositivePatterns = []string{"fleet"}
	facts := opsfacts.Facts{"registrations": {"4X-BHS"}}

	outcome, err := Evaluate(rule, "The fleet comprises 4X-BHS and 4X-ZZZ.", facts)
	require.NoError(t, err)

	assert.Equal(t, DecisionConflict, outcome.Decision, "extras fire even with positive hits")
	assert.NotEmpty(t, outcome.MatchedPositive, "positive evidence is still reported")
}

func TestEvaluate_AlignmentMissingBelowThreshold(t *testing.T) {
	rule := semanticRule("A3")
	rule.RuleType = rules.TypeAlignWithOpspecs
	facts := opsfacts.Facts{"registrations": {"4X-BHS"}}

	outcome, err := Evaluate(rule, "No registrations are listed here.", facts)
	require.NoError(t, err)

	assert.Equal(t, DecisionMissing, outcome.Decision)
	assert.Equal(t, 0.2, outcome.Confidence)
	assert.Contains(t, outcome.Notes, "Missing registrations in manuals: 4X-BHS")
}

func TestEvaluate_AlignmentDefersWhenThresholdMet(t *testing.T) {
	rule := semanticRule("A4")
	rule.RuleType = rules.TypeAlignWithOpspecs
	rule.PositivePatterns = []string{"area of operation"}
	facts := opsfacts.Facts{"registrations": {"4X-BHS"}}

	// 4X-BHS is missing, but positive evidence meets the threshold, so
	// the rule still resolves FOUND.
	outcome, err := Evaluate(rule, "The area of operation is defined in OM-A.", facts)
	require.NoError(t, err)

	assert.Equal(t, DecisionFound, outcome.Decision)
}

func TestEvaluate_RuleFactsOverrideRunFacts(t *testing.T) {
	rule := semanticRule("A5")
	rule.RuleType = rules.TypeAlignWithOpspecs
	rule.OpsFacts = opsfacts.Facts{"registrations": {"4X-ZZZ"}}
	runFacts := opsfacts.Facts{"registrations": {"4X-BHS"}}

	// Under run facts 4X-ZZZ would be an extra; rule facts declare it.
	outcome, err := Evaluate(rule, "Fleet: 4X-ZZZ.", runFacts)
	require.NoError(t, err)

	assert.NotEqual(t, DecisionConflict, outcome.Decision)
}

func TestEvaluate_AlignmentSkippedWithoutFacts(t *testing.T) {
	rule := semanticRule("A6")
	rule.RuleType = rules.TypeAlignWithOpspecs
	rule.PositivePatterns = []string{"registrations"}

	outcome, err := Evaluate(rule, "Extra 4X-ZZZ appears but no facts are configured. registrations", nil)
	require.NoError(t, err)

	assert.Equal(t, DecisionFound, outcome.Decision, "no facts means no alignment branch")
}

func TestEvaluate_EmptyTextIsMissing(t *testing.T) {
	rule := semanticRule("S8")
	rule.PositivePatterns = []string{"anything"}

	outcome, err := Evaluate(rule, "", nil)
	require.NoError(t, err)

	assert.Equal(t, DecisionMissing, outcome.Decision)
	assert.Equal(t, 0.0, outcome.Confidence)
}

func TestEvaluate_BadPatternNamesRule(t *testing.T) {
	rule := semanticRule("BAD9")
	rule.PositivePatterns = []string{"(unclosed"}

	_, err := Evaluate(rule, "text", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD9")
	assert.Contains(t, err.Error(), "positive_patterns")
}

func TestEvaluate_Idempotent(t *testing.T) {
	rule := semanticRule("S9")
	rule.PositivePatterns = []string{"fuel reserve"}
	rule.NegativePatterns = []string{"no fuel"}
	text := "A fuel reserve applies. There is no fuel reserve for ferry flights."

	first, err := Evaluate(rule, text, nil)
	require.NoError(t, err)
	second, err := Evaluate(rule, text, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEvaluateWithMargin_ControlsSnippetWidth(t *testing.T) {
	rule := semanticRule("S10")
	rule.PositivePatterns = []string{"fuel reserve"}
	text := strings.Repeat("a", 200) + " fuel reserve " + strings.Repeat("b", 200)

	narrow, err := EvaluateWithMargin(rule, text, nil, 10)
	require.NoError(t, err)
	require.Len(t, narrow.MatchedPositive, 1)
	assert.NotContains(t, narrow.MatchedPositive[0], strings.Repeat("a", 20))

	wide, err := EvaluateWithMargin(rule, text, nil, 150)
	require.NoError(t, err)
	require.Len(t, wide.MatchedPositive, 1)
	assert.Contains(t, wide.MatchedPositive[0], strings.Repeat("a", 100))
	assert.Greater(t, len(wide.MatchedPositive[0]), len(narrow.MatchedPositive[0]))
}

func TestEvaluateWithMargin_NonPositiveFallsBackToDefault(t *testing.T) {
	rule := semanticRule("S11")
	rule.PositivePatterns = []string{"fuel reserve"}
	text := strings.Repeat("a", 200) + " fuel reserve " + strings.Repeat("b", 200)

	viaDefault, err := Evaluate(rule, text, nil)
	require.NoError(t, err)
	viaZero, err := EvaluateWithMargin(rule, text, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, viaDefault, viaZero)
}

func TestEvaluate_LegacyUnknownCheckTypeIsMissing(t *testing.T) {
	rule := rules.Rule{
		ID:     "L2",
		Kind:   rules.KindLegacy,
		Checks: []rules.Check{{Type: "regex_all", Patterns: []string{"fuel reserve"}}},
	}

	outcome, err := Evaluate(rule, "The fuel reserve is 30 minutes.", nil)
	require.NoError(t, err)

	assert.Equal(t, DecisionMissing, outcome.Decision)
	assert.Equal(t, "Legacy contains_any not found", outcome.Notes)
}
