// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package rules loads and validates compliance rule sets. A rule set file is
// YAML or JSON, either a bare sequence of rules or wrapped as {rules: [...]}.
package rules

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"ifr-compliance/internal/opsfacts"
)

// Rule types. Unknown values are tolerated and behave like affirm, matching
// the behavior of existing rule sets in the field.
const (
	TypeAffirm           = "affirm"
	TypeDeny             = "deny"
	TypeLimit            = "limit"
	TypeAlignWithOpspecs = "align_with_opspecs"
)

// Kind discriminates the two evaluation paths a rule can take. It is
// resolved once at load time so the evaluator never re-inspects field
// presence.
type Kind int

const (
	// KindSemantic rules use positive/negative/forbidden pattern sets.
	KindSemantic Kind = iota
	// KindLegacy rules carry the pre-semantic "checks" list and keep their
	// original contains_any substring behavior.
	KindLegacy
)

// Check is a legacy check entry. Only type "contains_any" is meaningful.
type Check struct {
	Type     string
	Patterns []string
}

// Rule is a single compliance requirement. Rules are immutable inputs;
// evaluation never mutates them.
type Rule struct {
	ID                   string
	Item                 string
	SourceDocs           []string
	RuleType             string
	Kind                 Kind
	Checks               []Check
	PositivePatterns     []string
	NegativePatterns     []string
	ForbiddenClaims      []string
	Threshold            int
	NegationWindowTokens int
	OpsFacts             opsfacts.Facts
	LocatorHint          string
	Owner                string
	EvidenceHints        []string
}

// ShapeError reports a rule field that could not be interpreted. It is
// fatal: a malformed rule set aborts the run before any report is produced.
type ShapeError struct {
	RuleID string
	Field  string
	Err    error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("rule %q: malformed field %q: %v", e.RuleID, e.Field, e.Err)
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}

// Set is an ordered collection of rules. Report rows follow this order.
type Set struct {
	Rules []Rule
}

// Load reads and validates a rule set file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	return Parse(data)
}

// Parse builds a rule set from raw YAML or JSON bytes.
func Parse(data []byte) (*Set, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}

	entries, err := unwrapRuleList(raw)
	if err != nil {
		return nil, err
	}

	set := &Set{Rules: make([]Rule, 0, len(entries))}
	for i, entry := range entries {
		fields, err := cast.ToStringMapE(entry)
		if err != nil {
			return nil, fmt.Errorf("rule at index %d is not a mapping: %w", i, err)
		}
		rule, err := buildRule(fields)
		if err != nil {
			return nil, err
		}
		set.Rules = append(set.Rules, rule)
	}
	return set, nil
}

// unwrapRuleList accepts either a bare sequence or a {rules: [...]} wrapper.
func unwrapRuleList(raw interface{}) ([]interface{}, error) {
	switch v := raw.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		if rules, ok := v["rules"]; ok {
			if list, ok := rules.([]interface{}); ok {
				return list, nil
			}
		}
	}
	return nil, fmt.Errorf("unsupported rules file format: expected a list of rules or a {rules: [...]} wrapper")
}

func buildRule(fields map[string]interface{}) (Rule, error) {
	rule := Rule{
		ID:                   cast.ToString(fields["id"]),
		Item:                 cast.ToString(fields["item"]),
		RuleType:             TypeAffirm,
		Threshold:            1,
		NegationWindowTokens: 12,
		LocatorHint:          cast.ToString(fields["locator_hint"]),
		Owner:                cast.ToString(fields["owner"]),
	}

	if v, ok := fields["rule_type"]; ok {
		if s := cast.ToString(v); s != "" {
			rule.RuleType = s
		}
	}

	var err error
	if rule.SourceDocs, err = stringList(rule.ID, "source_docs", fields["source_docs"]); err != nil {
		return rule, err
	}
	if len(rule.SourceDocs) == 0 {
		rule.SourceDocs = []string{"OpsSpecs"}
	}

	if rule.PositivePatterns, err = stringList(rule.ID, "positive_patterns", fields["positive_patterns"]); err != nil {
		return rule, err
	}
	if rule.NegativePatterns, err = stringList(rule.ID, "negative_patterns", fields["negative_patterns"]); err != nil {
		return rule, err
	}
	if rule.ForbiddenClaims, err = stringList(rule.ID, "forbidden_claims", fields["forbidden_claims"]); err != nil {
		return rule, err
	}
	if rule.EvidenceHints, err = stringList(rule.ID, "evidence_hints", fields["evidence_hints"]); err != nil {
		return rule, err
	}

	if v, ok := fields["threshold"]; ok && v != nil {
		n, err := cast.ToIntE(v)
		if err != nil {
			return rule, &ShapeError{RuleID: rule.ID, Field: "threshold", Err: err}
		}
		rule.Threshold = n
	}
	if rule.Threshold < 1 {
		rule.Threshold = 1
	}

	if v, ok := fields["negation_window_tokens"]; ok && v != nil {
		n, err := cast.ToIntE(v)
		if err != nil {
			return rule, &ShapeError{RuleID: rule.ID, Field: "negation_window_tokens", Err: err}
		}
		rule.NegationWindowTokens = n
	}
	if rule.NegationWindowTokens < 0 {
		rule.NegationWindowTokens = 0
	}

	if v, ok := fields["checks"]; ok && v != nil {
		if rule.Checks, err = parseChecks(rule.ID, v); err != nil {
			return rule, err
		}
	}

	if v, ok := fields["ops_facts"]; ok && v != nil {
		raw, err := cast.ToStringMapE(v)
		if err != nil {
			return rule, &ShapeError{RuleID: rule.ID, Field: "ops_facts", Err: err}
		}
		facts := make(opsfacts.Facts, len(raw))
		for category, values := range raw {
			list, err := cast.ToStringSliceE(values)
			if err != nil {
				return rule, &ShapeError{RuleID: rule.ID, Field: "ops_facts." + category, Err: err}
			}
			facts[category] = list
		}
		rule.OpsFacts = facts
	}

	if len(rule.Checks) > 0 {
		rule.Kind = KindLegacy
	}
	return rule, nil
}

func parseChecks(ruleID string, v interface{}) ([]Check, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, &ShapeError{RuleID: ruleID, Field: "checks", Err: fmt.Errorf("expected a list, got %T", v)}
	}
	checks := make([]Check, 0, len(list))
	for _, entry := range list {
		fields, err := cast.ToStringMapE(entry)
		if err != nil {
			return nil, &ShapeError{RuleID: ruleID, Field: "checks", Err: err}
		}
		patterns, err := stringList(ruleID, "checks.patterns", fields["patterns"])
		if err != nil {
			return nil, err
		}
		checks = append(checks, Check{
			Type:     cast.ToString(fields["type"]),
			Patterns: patterns,
		})
	}
	return checks, nil
}

func stringList(ruleID, field string, v interface{}) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	list, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, &ShapeError{RuleID: ruleID, Field: field, Err: err}
	}
	return list, nil
}
